package internal

import (
	"fmt"
	"strings"
)

// Category is one of the three consent classes. The order of the constants is
// the corpus iteration order, not the wire encoding; see Code.
type Category uint8

const (
	Affirmative Category = iota
	Negative
	Indeterminate
)

var Categories = []Category{Affirmative, Negative, Indeterminate}

// Code returns the numeric value callers of the analyser depend on:
// Negative=0, Affirmative=1, Indeterminate=2.
func (c Category) Code() int {
	switch c {
	case Affirmative:
		return 1
	case Negative:
		return 0
	default:
		return 2
	}
}

func (c Category) String() string {
	switch c {
	case Affirmative:
		return "affirmative"
	case Negative:
		return "negative"
	case Indeterminate:
		return "indeterminate"
	default:
		return fmt.Sprintf("category(%d)", uint8(c))
	}
}

func (c Category) Valid() bool {
	return c <= Indeterminate
}

func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "affirmative", "oui", "yes":
		return Affirmative, nil
	case "negative", "non", "no":
		return Negative, nil
	case "indeterminate", "indéterminé", "indetermine", "unknown":
		return Indeterminate, nil
	default:
		return 0, fmt.Errorf("%w: unknown category %q", ErrConfiguration, s)
	}
}

// CategoryFromCode is the inverse of Code.
func CategoryFromCode(code int) (Category, error) {
	switch code {
	case 0:
		return Negative, nil
	case 1:
		return Affirmative, nil
	case 2:
		return Indeterminate, nil
	default:
		return 0, fmt.Errorf("%w: unknown category code %d", ErrInvalidInput, code)
	}
}
