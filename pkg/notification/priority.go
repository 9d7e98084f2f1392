package notification

import (
	"fmt"
	"strings"
)

// Priority orders notifications from Lowest to Highest.
type Priority int8

const (
	Lowest Priority = iota
	Low
	Normal
	High
	Highest
)

var priorityNames = [...]string{"Lowest", "Low", "Normal", "High", "Highest"}

// Valid reports whether p is one of the declared priorities.
func (p Priority) Valid() bool {
	return p >= Lowest && p <= Highest
}

func (p Priority) String() string {
	if !p.Valid() {
		return fmt.Sprintf("Priority(%d)", int8(p))
	}
	return priorityNames[p]
}

// ParsePriority maps a case-insensitive priority name to its value.
func ParsePriority(s string) (Priority, error) {
	for i, name := range priorityNames {
		if strings.EqualFold(name, strings.TrimSpace(s)) {
			return Priority(i), nil
		}
	}
	return Normal, fmt.Errorf("%w: %q", ErrInvalidPriority, s)
}

func (p Priority) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPriority, int8(p))
	}
	return []byte(p.String()), nil
}

func (p *Priority) UnmarshalText(text []byte) error {
	parsed, err := ParsePriority(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
