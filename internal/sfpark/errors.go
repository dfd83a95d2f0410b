package sfpark

import "fmt"

// ProviderError is returned when the service answers with a non-success STATUS.
type ProviderError struct {
	Status  string
	Code    string
	Message string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("sfpark: status %q: %s %s", e.Status, e.Code, e.Message)
}

// RecordKind names the kind of row a RecordError refers to.
type RecordKind string

const (
	KindLocation     RecordKind = "location"
	KindAvailability RecordKind = "availability"
	KindRate         RecordKind = "rate"
	KindHours        RecordKind = "hours"
)

// RecordError describes a single record dropped during normalization. Entry is
// the index in the AVL array, Index the position inside a nested list (-1 for
// top-level records). LocID is 0 when the id itself could not be derived.
type RecordError struct {
	Kind  RecordKind
	Entry int
	Index int
	LocID int64
	Err   error
}

func (e *RecordError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("sfpark: %s %d of entry %d (location %d): %v", e.Kind, e.Index, e.Entry, e.LocID, e.Err)
	}
	return fmt.Sprintf("sfpark: %s of entry %d (location %d): %v", e.Kind, e.Entry, e.LocID, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}
