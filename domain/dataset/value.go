package dataset

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ValueKind defines the storage kind of a cell
type ValueKind string

const (
	KindMissing   ValueKind = "missing"
	KindString    ValueKind = "string"
	KindNumber    ValueKind = "number"
	KindTimestamp ValueKind = "timestamp"
)

// Value is a single table cell. The zero Value is missing.
type Value struct {
	kind ValueKind
	str  string
	num  float64
	ts   time.Time
}

// NewString creates a string value. Empty strings are missing.
func NewString(s string) Value {
	if s == "" {
		return Missing()
	}
	return Value{kind: KindString, str: s}
}

// NewNumber creates a numeric value. NaN is missing.
func NewNumber(n float64) Value {
	if math.IsNaN(n) {
		return Missing()
	}
	return Value{kind: KindNumber, num: n}
}

// NewTimestamp creates a timestamp value
func NewTimestamp(t time.Time) Value {
	if t.IsZero() {
		return Missing()
	}
	return Value{kind: KindTimestamp, ts: t}
}

// Missing returns the missing value
func Missing() Value {
	return Value{kind: KindMissing}
}

// Kind returns the value kind
func (v Value) Kind() ValueKind {
	if v.kind == "" {
		return KindMissing
	}
	return v.kind
}

func (v Value) IsMissing() bool   { return v.Kind() == KindMissing }
func (v Value) IsString() bool    { return v.kind == KindString }
func (v Value) IsNumber() bool    { return v.kind == KindNumber }
func (v Value) IsTimestamp() bool { return v.kind == KindTimestamp }

// Str returns the raw string and whether the value is a string
func (v Value) Str() (string, bool) {
	return v.str, v.kind == KindString
}

// Float returns the number and whether the value is numeric
func (v Value) Float() (float64, bool) {
	return v.num, v.kind == KindNumber
}

// Time returns the timestamp and whether the value is a timestamp
func (v Value) Time() (time.Time, bool) {
	return v.ts, v.kind == KindTimestamp
}

// Text renders the value for display and export. Missing renders as "".
func (v Value) Text() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindTimestamp:
		return v.ts.Format(time.RFC3339)
	}
	return ""
}

// Key returns a kind-prefixed canonical form used for set membership and grouping
func (v Value) Key() string {
	switch v.kind {
	case KindString:
		return "s:" + v.str
	case KindNumber:
		return "n:" + strconv.FormatFloat(v.num, 'g', -1, 64)
	case KindTimestamp:
		return "t:" + v.ts.UTC().Format(time.RFC3339Nano)
	}
	return "null"
}

// Equal reports exact equality: same kind and same content, no coercion
func (v Value) Equal(o Value) bool {
	if v.Kind() != o.Kind() {
		return false
	}
	switch v.kind {
	case KindString:
		return v.str == o.str
	case KindNumber:
		return v.num == o.num
	case KindTimestamp:
		return v.ts.Equal(o.ts)
	}
	return true
}

// Compare orders values: numbers numerically, timestamps chronologically,
// everything else by text. Missing sorts last.
func Compare(a, b Value) int {
	switch {
	case a.IsMissing() && b.IsMissing():
		return 0
	case a.IsMissing():
		return 1
	case b.IsMissing():
		return -1
	}
	if a.kind == KindNumber && b.kind == KindNumber {
		switch {
		case a.num < b.num:
			return -1
		case a.num > b.num:
			return 1
		}
		return 0
	}
	if a.kind == KindTimestamp && b.kind == KindTimestamp {
		return a.ts.Compare(b.ts)
	}
	return strings.Compare(a.Text(), b.Text())
}

func (v Value) String() string {
	if v.IsMissing() {
		return "<missing>"
	}
	return v.Text()
}

// MarshalJSON encodes missing as null, numbers as JSON numbers and everything
// else as strings
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.str)
	case KindNumber:
		if math.IsInf(v.num, 0) {
			return []byte("null"), nil
		}
		return json.Marshal(v.num)
	case KindTimestamp:
		return json.Marshal(v.ts.Format(time.RFC3339Nano))
	}
	return []byte("null"), nil
}

// UnmarshalJSON decodes JSON scalars. Booleans become strings so that they
// compare equal to survey answers such as "true".
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	decoded, err := FromInterface(raw)
	if err != nil {
		return err
	}
	*v = decoded
	return nil
}

// FromInterface converts a decoded JSON scalar into a Value
func FromInterface(raw interface{}) (Value, error) {
	switch t := raw.(type) {
	case nil:
		return Missing(), nil
	case string:
		return NewString(t), nil
	case float64:
		return NewNumber(t), nil
	case bool:
		return NewString(strconv.FormatBool(t)), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return Missing(), err
		}
		return NewNumber(f), nil
	}
	return Missing(), fmt.Errorf("unsupported value type %T", raw)
}
