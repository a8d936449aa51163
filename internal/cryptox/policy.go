package cryptox

import "unicode"

// PasswordPolicy describes the minimum complexity of a new password.
type PasswordPolicy struct {
	MinLength     int
	RequireUpper  bool
	RequireLower  bool
	RequireDigit  bool
	RequireSymbol bool
}

// DefaultPasswordPolicy requires 8 characters drawn from all four classes.
var DefaultPasswordPolicy = PasswordPolicy{
	MinLength:     8,
	RequireUpper:  true,
	RequireLower:  true,
	RequireDigit:  true,
	RequireSymbol: true,
}

// Validate returns ok=false with the list of failed rules.
func (p PasswordPolicy) Validate(s string) (ok bool, reasons []string) {
	if len([]rune(s)) < p.MinLength {
		reasons = append(reasons, "too_short")
	}

	var upper, lower, digit, symbol bool
	for _, r := range s {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			symbol = true
		}
	}

	if p.RequireUpper && !upper {
		reasons = append(reasons, "missing_upper")
	}
	if p.RequireLower && !lower {
		reasons = append(reasons, "missing_lower")
	}
	if p.RequireDigit && !digit {
		reasons = append(reasons, "missing_digit")
	}
	if p.RequireSymbol && !symbol {
		reasons = append(reasons, "missing_symbol")
	}
	return len(reasons) == 0, reasons
}
