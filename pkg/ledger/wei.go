package ledger

import (
	"fmt"
	"math/big"
	"regexp"
	"strconv"
	"strings"
)

// weiPerUnit is the ledger's minor-unit scale: 10^18 wei per human unit.
var weiPerUnit = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// amountPattern matches the decimal strings judges and jurors emit.
var amountPattern = regexp.MustCompile(`^[+-]?[0-9]+(\.[0-9]+)?$`)

// ToWei converts a human-unit amount to wei, rounding half-up at the
// sub-wei boundary. Going through the decimal string representation
// avoids binary float drift for inputs like 0.75.
func ToWei(amount float64) *big.Int {
	// Shortest decimal representation that round-trips the float, so
	// 0.1 converts as "0.1" rather than its expanded binary form.
	s := strconv.FormatFloat(amount, 'f', -1, 64)
	wei, err := ParseWei(s)
	if err != nil {
		return big.NewInt(0)
	}
	return wei
}

// ParseWei converts a decimal string of human units to wei.
func ParseWei(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if !amountPattern.MatchString(s) {
		return nil, fmt.Errorf("wei: invalid amount %q", s)
	}

	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return nil, fmt.Errorf("wei: unparseable amount %q", s)
	}
	r.Mul(r, new(big.Rat).SetInt(weiPerUnit))

	// Round half-up: floor(r + 1/2) for non-negative, symmetric for
	// negative amounts.
	half := big.NewRat(1, 2)
	if r.Sign() >= 0 {
		r.Add(r, half)
	} else {
		r.Sub(r, half)
	}
	out := new(big.Int).Quo(r.Num(), r.Denom())
	return out, nil
}

// FromWei renders a wei amount as a human-unit decimal string,
// trailing zeros trimmed.
func FromWei(wei *big.Int) string {
	if wei == nil {
		return "0"
	}
	r := new(big.Rat).SetFrac(wei, weiPerUnit)
	s := r.FloatString(18)
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	if s == "" || s == "-" {
		return "0"
	}
	return s
}
