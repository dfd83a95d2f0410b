package sfpark

import (
	"bytes"
	"encoding/json"
)

// StatusSuccess is the STATUS value of a usable response.
const StatusSuccess = "SUCCESS"

// Document models the top-level structure of the availability service response.
type Document struct {
	Status    string          `json:"STATUS"`
	ErrorCode Text            `json:"ERROR_CODE"`
	Message   Text            `json:"MESSAGE"`
	Updated   Text            `json:"AVAILABILITY_UPDATED_TIMESTAMP"`
	Records   Text            `json:"NUM_RECORDS"`
	AVL       json.RawMessage `json:"AVL"`
}

// Entries splits AVL into its elements. A lone object is treated as a one
// element list; each element is decoded separately by the normalizer so that a
// malformed entry only costs that entry.
func (d *Document) Entries() ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(d.AVL)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		return []json.RawMessage{trimmed}, nil
	}
	return elements(trimmed)
}

// Entry is a single element of the AVL array: one off-street facility or one
// on-street block face. Every field is optional.
type Entry struct {
	Type  *Text    `json:"TYPE"`
	Name  *Text    `json:"NAME"`
	Desc  *Text    `json:"DESC"`
	Inter *Text    `json:"INTER"`
	Tel   *Text    `json:"TEL"`
	OSPID *Text    `json:"OSPID"`
	BFID  *Text    `json:"BFID"`
	Pts   *Text    `json:"PTS"`
	Loc   *Text    `json:"LOC"`
	Occ   *Text    `json:"OCC"`
	Oper  *Text    `json:"OPER"`
	Rates *RateSet `json:"RATES"`
	Hours *HourSet `json:"OPHRS"`
}

// RateSet wraps the RS member, which is either a list or a single object.
type RateSet struct {
	RS json.RawMessage `json:"RS"`
}

// HourSet wraps the OPS member, which is either a list or a single object.
type HourSet struct {
	OPS json.RawMessage `json:"OPS"`
}

// RateEntry is one element of RATES.RS.
type RateEntry struct {
	Beg  *Text `json:"BEG"`
	End  *Text `json:"END"`
	Rate *Text `json:"RATE"`
	Desc *Text `json:"DESC"`
	RQ   *Text `json:"RQ"`
	RR   *Text `json:"RR"`
}

// HourEntry is one element of OPHRS.OPS.
type HourEntry struct {
	From *Text `json:"FROM"`
	To   *Text `json:"TO"`
	Beg  *Text `json:"BEG"`
	End  *Text `json:"END"`
}

// Text is a scalar that the service sends either quoted or bare.
type Text string

// UnmarshalJSON accepts JSON strings, numbers and booleans.
func (t *Text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		*t = Text(n)
		return nil
	}
	var v bool
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	if v {
		*t = "true"
	} else {
		*t = "false"
	}
	return nil
}

// String returns the raw value.
func (t Text) String() string {
	return string(t)
}

// elements splits raw into its array elements. Anything that is not a JSON
// array (a lone object, null, absent) yields nothing.
func elements(raw json.RawMessage) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, err
	}
	return items, nil
}
