package password

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Policy rules, reported in PolicyError.Rule.
const (
	RuleMinLength = "min_length"
	RuleMaxLength = "max_length"
	RuleCommon    = "common"
)

// PolicyError explains why a password was refused. Msg is written for the
// account holder and is returned to clients as is.
type PolicyError struct {
	Rule string
	Msg  string
}

func (e *PolicyError) Error() string { return "password policy: " + e.Msg }

// commonPasswords are refused outright when RejectVeryWeak is on.
var commonPasswords = map[string]struct{}{
	"password":    {},
	"password1":   {},
	"password123": {},
	"passw0rd":    {},
	"qwerty":      {},
	"qwerty123":   {},
	"qwertyuiop":  {},
	"letmein":     {},
	"iloveyou":    {},
	"welcome1":    {},
	"admin123":    {},
	"abc12345":    {},
}

// Check applies p to pw. Lengths count runes, so multi-byte input is not
// penalised. A nil result means pw is acceptable.
func (p Policy) Check(pw string) error {
	n := utf8.RuneCountInString(pw)
	switch {
	case n < p.MinLength:
		return &PolicyError{Rule: RuleMinLength, Msg: fmt.Sprintf("password must be at least %d characters", p.MinLength)}
	case n > p.MaxLength:
		return &PolicyError{Rule: RuleMaxLength, Msg: fmt.Sprintf("password must be at most %d characters", p.MaxLength)}
	case p.RejectVeryWeak && guessable(pw):
		return &PolicyError{Rule: RuleCommon, Msg: "password is too common"}
	}
	return nil
}

// guessable flags passwords an attacker tries first: a known common password,
// fewer than three distinct characters, or a digits-only PIN under 12 digits.
func guessable(pw string) bool {
	s := strings.ToLower(strings.TrimSpace(pw))
	if _, ok := commonPasswords[s]; ok {
		return true
	}

	distinct := make(map[rune]struct{}, 3)
	digits := 0
	for _, r := range s {
		distinct[r] = struct{}{}
		if unicode.IsDigit(r) {
			digits++
		}
	}
	if len(distinct) < 3 {
		return true
	}
	return digits == utf8.RuneCountInString(s) && digits < 12
}
