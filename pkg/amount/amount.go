// Package amount implements non-negative token amounts in the token's smallest unit.
//
// Amounts are arbitrary precision so that rates up to 10^18 and fee products beyond
// uint64 stay exact. Values are immutable: every operation returns a new Amount.
package amount

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
)

// Amount is an immutable non-negative integer. The zero value is 0.
type Amount struct {
	v *big.Int
}

// Zero is the zero amount
var Zero = Amount{}

// New creates an amount from a non-negative int64
func New(v int64) Amount {
	if v < 0 {
		panic("amount: negative value")
	}
	return Amount{v: big.NewInt(v)}
}

// FromBig copies b into a new amount
func FromBig(b *big.Int) (Amount, error) {
	if b == nil {
		return Zero, nil
	}
	if b.Sign() < 0 {
		return Zero, fmt.Errorf("amount must not be negative")
	}
	return Amount{v: new(big.Int).Set(b)}, nil
}

// Parse reads a base-10 integer string
func Parse(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Zero, fmt.Errorf("amount is empty")
	}
	b, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return Zero, fmt.Errorf("invalid amount %q", s)
	}
	return FromBig(b)
}

// MustParse is Parse for constants and tests
func MustParse(s string) Amount {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

func (a Amount) big() *big.Int {
	if a.v == nil {
		return new(big.Int)
	}
	return a.v
}

// Big returns a copy of the underlying integer
func (a Amount) Big() *big.Int {
	return new(big.Int).Set(a.big())
}

// IsZero reports whether a == 0
func (a Amount) IsZero() bool {
	return a.v == nil || a.v.Sign() == 0
}

// Cmp compares a and b and returns -1, 0 or +1
func (a Amount) Cmp(b Amount) int {
	return a.big().Cmp(b.big())
}

// LessThan reports whether a < b
func (a Amount) LessThan(b Amount) bool {
	return a.Cmp(b) < 0
}

// Add returns a + b
func (a Amount) Add(b Amount) Amount {
	return Amount{v: new(big.Int).Add(a.big(), b.big())}
}

// Sub returns a - b, failing when the result would be negative
func (a Amount) Sub(b Amount) (Amount, error) {
	if a.LessThan(b) {
		return Zero, fmt.Errorf("amount underflow: %s - %s", a, b)
	}
	return Amount{v: new(big.Int).Sub(a.big(), b.big())}, nil
}

// MulDivFloor returns floor(a * num / den)
func (a Amount) MulDivFloor(num, den uint64) Amount {
	if den == 0 {
		panic("amount: division by zero")
	}
	p := new(big.Int).Mul(a.big(), new(big.Int).SetUint64(num))
	return Amount{v: p.Quo(p, new(big.Int).SetUint64(den))}
}

// Units converts to whole token units with the given number of decimals, for metrics and display only
func (a Amount) Units(decimals int) float64 {
	scale := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	f, _ := new(big.Float).Quo(new(big.Float).SetInt(a.big()), scale).Float64()
	return f
}

func (a Amount) String() string {
	return a.big().String()
}

// MarshalJSON encodes the amount as a decimal string to keep precision in JavaScript clients
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON accepts a decimal string or a JSON integer
func (a *Amount) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		*a = Zero
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw = s
	}
	parsed, err := Parse(raw)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// MarshalText lets amounts be used in form bindings and map keys
func (a Amount) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText parses a decimal string
func (a *Amount) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
