package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// TimeOfDay is a wall-clock time without a date, stored in TIME columns.
type TimeOfDay struct {
	Hour   int
	Minute int
	Second int
}

// NewTimeOfDay takes the clock fields of t.
func NewTimeOfDay(t time.Time) TimeOfDay {
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

// GormDBDataType picks the column type per dialect. SQLite gets TEXT because
// go-sqlite3 coerces "time"/"datetime" columns to time.Time and cannot parse a
// bare clock value.
func (TimeOfDay) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	switch db.Dialector.Name() {
	case "sqlite":
		return "text"
	default:
		return "time"
	}
}

// Value implements driver.Valuer.
func (t TimeOfDay) Value() (driver.Value, error) {
	return t.String(), nil
}

// Scan implements sql.Scanner.
func (t *TimeOfDay) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*t = TimeOfDay{}
		return nil
	case time.Time:
		*t = NewTimeOfDay(v)
		return nil
	case []byte:
		return t.parse(string(v))
	case string:
		return t.parse(v)
	default:
		return eris.Errorf("model: cannot scan %T into TimeOfDay", src)
	}
}

func (t *TimeOfDay) parse(s string) error {
	// postgres may append fractional seconds, sqlite may hand back a full timestamp
	for _, layout := range []string{"15:04:05.999999999", time.RFC3339Nano, "2006-01-02 15:04:05"} {
		if parsed, err := time.Parse(layout, s); err == nil {
			*t = NewTimeOfDay(parsed)
			return nil
		}
	}
	return eris.Errorf("model: invalid time of day %q", s)
}

// MarshalJSON renders the time as "HH:MM:SS".
func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}
