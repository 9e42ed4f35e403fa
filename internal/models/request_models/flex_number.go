package request_models

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
)

var errNotANumber = errors.New("not a finite number")

// FlexNumber accepts a JSON number or a numeric string. Parsing is deferred so
// callers can tell "missing" from "present but invalid".
type FlexNumber struct {
	raw     string
	present bool
}

func Number(v float64) FlexNumber {
	return FlexNumber{raw: strconv.FormatFloat(v, 'f', -1, 64), present: true}
}

func NumberString(s string) FlexNumber {
	s = strings.TrimSpace(s)
	return FlexNumber{raw: s, present: s != ""}
}

func (f *FlexNumber) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" || s == "" {
		*f = FlexNumber{}
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*f = NumberString(str)
		return nil
	}
	*f = FlexNumber{raw: s, present: true}
	return nil
}

func (f FlexNumber) MarshalJSON() ([]byte, error) {
	if !f.present {
		return []byte("null"), nil
	}
	if _, err := f.Float64(); err == nil {
		return []byte(f.raw), nil
	}
	return json.Marshal(f.raw)
}

func (f FlexNumber) Present() bool { return f.present }

// Float64 parses the value and rejects NaN and infinities.
func (f FlexNumber) Float64() (float64, error) {
	if !f.present {
		return 0, errNotANumber
	}
	v, err := strconv.ParseFloat(f.raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errNotANumber
	}
	return v, nil
}
