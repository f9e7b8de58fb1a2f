package httputil

import (
	"bytes"
	"encoding/json"
)

// OptionalString is a PATCH field that separates "absent" from "null".
//
//	absent         Present=false
//	"remarks":null Present=true, Value=nil
//	"remarks":"x"  Present=true, Value=&"x"
type OptionalString struct {
	Present bool
	Value   *string
}

// UnmarshalJSON is only invoked for keys present in the document
func (o *OptionalString) UnmarshalJSON(data []byte) error {
	o.Present = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	o.Value = &s
	return nil
}

// Patch reports the new value and whether the field should be cleared.
// Both results are zero when the field was absent.
func (o OptionalString) Patch() (value *string, clear bool) {
	if !o.Present {
		return nil, false
	}
	return o.Value, o.Value == nil
}
