package main

import (
	"bufio"
	"io"

	"go.uber.org/zap"
)

// watchStdin calls stop once the operator enters a line. A closed input (for
// example /dev/null under a service manager) leaves the collector running;
// signals still stop it.
func watchStdin(r io.Reader, stop func()) {
	scanner := bufio.NewScanner(r)
	if scanner.Scan() {
		zap.L().Info("operator requested shutdown")
		stop()
		return
	}
	if err := scanner.Err(); err != nil {
		zap.L().Warn("stdin watcher stopped", zap.Error(err))
		return
	}
	zap.L().Debug("stdin closed; waiting for a signal to stop")
}
