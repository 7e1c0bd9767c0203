package domain

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormatWeight renders a weight in tenths of a unit with a comma decimal
// separator. Zero renders as "0,0"; whole-unit parts below 10 are padded to
// two digits, so 55 renders as "05,5" and 845 as "84,5".
func FormatWeight(weight int) string {
	if weight == 0 {
		return "0,0"
	}
	if weight < 0 {
		return "-" + FormatWeight(-weight)
	}
	return fmt.Sprintf("%02d,%d", weight/10, weight%10)
}

// MaxWeight is the largest storable weight in tenths. SQL stores keep weights
// in 32-bit INTEGER columns.
const MaxWeight = math.MaxInt32

// CheckWeight reports a ValidationError for weights outside [0, MaxWeight].
func CheckWeight(weight int) error {
	if weight < 0 {
		return &ValidationError{Field: "weight", Reason: "must not be negative"}
	}
	if weight > MaxWeight {
		return errWeightTooLarge()
	}
	return nil
}

func errWeightTooLarge() error {
	return &ValidationError{Field: "weight", Reason: fmt.Sprintf("must not exceed %s", FormatWeight(MaxWeight))}
}

// ParseWeight parses a weight string into tenths of a unit. Plain integers are
// taken as tenths ("845" is 84.5); decimals may use ',' or '.' and carry at
// most one fractional digit ("84,5").
func ParseWeight(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, &ValidationError{Field: "weight", Reason: "must not be empty"}
	}
	if strings.HasPrefix(s, "-") {
		return 0, &ValidationError{Field: "weight", Reason: "must not be negative"}
	}
	whole, frac, hasFrac := strings.Cut(strings.ReplaceAll(s, ",", "."), ".")
	if hasFrac && (len(frac) != 1 || frac[0] < '0' || frac[0] > '9') {
		return 0, &ValidationError{Field: "weight", Reason: fmt.Sprintf("%q must have exactly one fractional digit", s)}
	}
	if hasFrac && whole == "" {
		whole = "0"
	}

	n, err := strconv.Atoi(whole)
	if errors.Is(err, strconv.ErrRange) {
		return 0, errWeightTooLarge()
	}
	if err != nil {
		return 0, &ValidationError{Field: "weight", Reason: fmt.Sprintf("%q is not a number", s)}
	}
	if err := CheckWeight(n); err != nil {
		return 0, err
	}
	if !hasFrac {
		return n, nil
	}

	d := int(frac[0] - '0')
	if n > (MaxWeight-d)/10 {
		return 0, errWeightTooLarge()
	}
	return n*10 + d, nil
}
