package services

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Field is a loosely typed JSON value coerced to text. Strings are taken
// as is; numbers and booleans keep their JSON spelling.
type Field struct {
	Value string
	Set   bool
}

func (f *Field) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = Field{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = Field{Value: s, Set: true}
		return nil
	}
	*f = Field{Value: string(b), Set: true}
	return nil
}

func (f Field) MarshalJSON() ([]byte, error) {
	if !f.Set {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}

// Text returns the trimmed value.
func (f Field) Text() string { return strings.TrimSpace(f.Value) }

// Present reports a value that is non-empty after trimming.
func (f Field) Present() bool { return f.Set && f.Text() != "" }

// Str builds a set Field. Handy in tests and callers building payloads in Go.
func Str(s string) Field { return Field{Value: s, Set: true} }

// Num builds a set Field from a number.
func Num(v float64) Field { return Str(strconv.FormatFloat(v, 'f', -1, 64)) }

// Flag is a checkbox value: true, a non-zero number, or any string other
// than "", "0" and "false".
type Flag bool

func (f *Flag) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch x := v.(type) {
	case bool:
		*f = Flag(x)
	case float64:
		*f = x != 0
	case string:
		s := strings.ToLower(strings.TrimSpace(x))
		*f = s != "" && s != "0" && s != "false"
	default:
		*f = false
	}
	return nil
}

// OrderPayload is what a customer submits. It has no price field; the
// price is computed from DistanceKm.
type OrderPayload struct {
	PickupAddress  Field `json:"pickupAddress"`
	DropoffAddress Field `json:"dropoffAddress"`
	IsRunning      Flag  `json:"isRunning"`
	HasDocs        Flag  `json:"hasDocs"`
	CanWinch       Flag  `json:"canWinch"`
	VehicleType    Field `json:"vehicleType"`
	VehicleBrand   Field `json:"vehicleBrand"`
	Comment        Field `json:"comment"`
	DistanceKm     Field `json:"distanceKm"`
}

// firstMissing returns the name of the first required field that is absent.
func (p OrderPayload) firstMissing() string {
	required := []struct {
		name string
		f    Field
	}{
		{"pickupAddress", p.PickupAddress},
		{"dropoffAddress", p.DropoffAddress},
		{"vehicleType", p.VehicleType},
		{"distanceKm", p.DistanceKm},
	}
	for _, r := range required {
		if !r.f.Present() {
			return r.name
		}
	}
	return ""
}

func optional(f Field) *string {
	if !f.Present() {
		return nil
	}
	s := f.Text()
	return &s
}
