// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package locale

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Unknown is returned by Names.Get when neither the requested language nor
// English has a value.
const Unknown = "Unknown"

// ErrUnsupportedLocale is returned when a value is keyed by a code outside
// the supported set.
var ErrUnsupportedLocale = errors.New("unsupported locale")

// Names holds one optional display name per supported locale.
type Names map[string]string

// Get resolves a name: requested language, then English, then Unknown.
func (n Names) Get(code string) string {
	if v := strings.TrimSpace(n[code]); v != "" {
		return v
	}
	if v := strings.TrimSpace(n[English]); v != "" {
		return v
	}
	return Unknown
}

// Validate rejects keys that are not supported locales.
func (n Names) Validate() error {
	for code := range n {
		if !IsSupported(code) {
			return fmt.Errorf("%w: %q", ErrUnsupportedLocale, code)
		}
	}
	return nil
}

// Clean returns a copy without blank entries.
func (n Names) Clean() Names {
	out := make(Names, len(n))
	for code, v := range n {
		if v = strings.TrimSpace(v); v != "" {
			out[code] = v
		}
	}
	return out
}

// Value implements driver.Valuer; names are stored as a JSON object.
func (n Names) Value() (driver.Value, error) {
	if n == nil {
		return "{}", nil
	}
	b, err := json.Marshal(n)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (n *Names) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*n = Names{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("cannot scan %T into Names", src)
	}
	out := Names{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			return fmt.Errorf("decode names: %w", err)
		}
	}
	*n = out
	return nil
}
