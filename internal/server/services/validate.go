package services

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/cryptox"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9._-]{3,50}$`)

func validateRegistration(r RegisterRequest, pp cryptox.PasswordPolicy) error {
	if !usernamePattern.MatchString(r.Username) {
		return fmt.Errorf("%w: username must be 3-50 letters, digits, dots, underscores or hyphens", common.ErrInvalidArgument)
	}
	if len(r.Email) > 255 {
		return fmt.Errorf("%w: email is too long", common.ErrInvalidArgument)
	}
	if a, err := mail.ParseAddress(r.Email); err != nil || a.Address != r.Email {
		return fmt.Errorf("%w: invalid email", common.ErrInvalidArgument)
	}
	if utf8.RuneCountInString(r.FirstName) > 50 || utf8.RuneCountInString(r.LastName) > 50 {
		return fmt.Errorf("%w: names are limited to 50 characters", common.ErrInvalidArgument)
	}
	if ok, reasons := pp.Validate(r.Password); !ok {
		return fmt.Errorf("%w: %s", common.ErrWeakPassword, strings.Join(reasons, ", "))
	}
	return nil
}
