package model

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// HourNumber is a period number that upstream documents encode either as a
// JSON number or as a string. Unparseable values decode to 0.
type HourNumber int

// UnmarshalJSON accepts 3, 3.0, "3" and " 3 ".
func (h *HourNumber) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*h = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			*h = 0
			return nil
		}
		*h = HourNumber(n)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		*h = 0
		return nil
	}
	*h = HourNumber(int(f))
	return nil
}
