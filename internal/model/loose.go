package model

import (
	"bytes"
	"encoding/json"
	"strings"
)

// LooseString accepts a JSON string, number or null. The backend serializes
// numeric columns either way depending on the driver.
type LooseString string

func (s *LooseString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0, bytes.Equal(data, []byte("null")):
		*s = ""
	case data[0] == '"':
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = LooseString(v)
	default:
		*s = LooseString(data)
	}
	return nil
}

func (s LooseString) String() string {
	return string(s)
}

// Flag decodes booleans stored as tinyint (0/1), "0"/"1" or true/false.
type Flag bool

func (f *Flag) UnmarshalJSON(data []byte) error {
	v := strings.Trim(strings.TrimSpace(string(data)), `"`)
	switch strings.ToLower(v) {
	case "", "0", "false", "null":
		*f = false
	default:
		*f = true
	}
	return nil
}
