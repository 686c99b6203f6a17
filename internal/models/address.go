package models

import (
	"fmt"
	"regexp"
	"strings"
)

// Address is a lower-cased 0x-prefixed 20-byte hex wallet or contract address.
// The empty Address means "none".
type Address string

var addressPattern = regexp.MustCompile(`^0x[0-9a-f]{40}$`)

// ParseAddress validates and normalizes a hex address
func ParseAddress(s string) (Address, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	if !addressPattern.MatchString(normalized) {
		return "", fmt.Errorf("invalid address %q", s)
	}
	return Address(normalized), nil
}

// MustParseAddress is ParseAddress for constants and tests
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// IsZero reports whether the address is unset
func (a Address) IsZero() bool {
	return a == ""
}

func (a Address) String() string {
	return string(a)
}
