package value

import (
	"math/big"
	"strings"
)

// Number is the result of interpreting a string value as a CIF numeric:
// an exact decimal plus the optional parenthesized standard uncertainty
// expressed in units of the last digit.
type Number struct {
	Value *big.Float
	SU    *big.Float // nil when no uncertainty suffix is present
}

// Number parses the CIF numeric shape
//
//	[+-]? digits [. digits] [eE [+-] digits] [( digits )]
//
// from an unquoted string value. Quoted values are never numbers in CIF.
func (v Value) Number() (Number, bool) {
	if v.kind != KindString || v.style != QuoteNone {
		return Number{}, false
	}
	text := v.text
	base := text
	var suDigits string
	if i := strings.IndexByte(text, '('); i >= 0 {
		if !strings.HasSuffix(text, ")") {
			return Number{}, false
		}
		base = text[:i]
		suDigits = text[i+1 : len(text)-1]
		if suDigits == "" || !allDigits(suDigits) {
			return Number{}, false
		}
	}
	if !isNumericShape(base) {
		return Number{}, false
	}
	val, ok := parseDecimal(base)
	if !ok {
		return Number{}, false
	}
	n := Number{Value: val}
	if suDigits != "" {
		// Scale the uncertainty by the place value of the last digit
		// of the mantissa.
		su, _ := parseDecimal(suDigits)
		n.SU = su.Mul(su, lastDigitScale(base))
	}
	return n, true
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return len(s) > 0
}

func isNumericShape(s string) bool {
	if s == "" {
		return false
	}
	i := 0
	if s[i] == '+' || s[i] == '-' {
		i++
	}
	digitsBefore := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
		digitsBefore++
	}
	digitsAfter := 0
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
			digitsAfter++
		}
	}
	if digitsBefore+digitsAfter == 0 {
		return false
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		i++
		if i < len(s) && (s[i] == '+' || s[i] == '-') {
			i++
		}
		expDigits := 0
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
			expDigits++
		}
		if expDigits == 0 {
			return false
		}
	}
	return i == len(s)
}

func parseDecimal(s string) (*big.Float, bool) {
	f, _, err := big.ParseFloat(s, 10, 128, big.ToNearestEven)
	if err != nil {
		return nil, false
	}
	return f, true
}

// lastDigitScale returns 10^-k where k is the number of digits after the
// decimal point in the mantissa, adjusted by any exponent.
func lastDigitScale(s string) *big.Float {
	mantissa := s
	exp := 0
	if i := strings.IndexAny(s, "eE"); i >= 0 {
		mantissa = s[:i]
		e, _ := new(big.Int).SetString(s[i+1:], 10)
		if e != nil {
			exp = int(e.Int64())
		}
	}
	frac := 0
	if i := strings.IndexByte(mantissa, '.'); i >= 0 {
		frac = len(mantissa) - i - 1
	}
	power := exp - frac
	scale := big.NewFloat(1)
	ten := big.NewFloat(10)
	for i := 0; i < power; i++ {
		scale.Mul(scale, ten)
	}
	for i := 0; i > power; i-- {
		scale.Quo(scale, ten)
	}
	return scale
}
