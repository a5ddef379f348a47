package forum

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/starford/agora/internal/apperr"
)

// EmailPolicy restricts sign-up to one institutional domain.
//
// LocalPattern, when set, must match the whole local part. If it has a
// named group "year", the captured batch year must fall within
// [MinYear, MaxYear].
type EmailPolicy struct {
	Domain       string
	LocalPattern *regexp.Regexp
	MinYear      int
	MaxYear      int
}

// NewEmailPolicy compiles pattern (may be empty) into a policy. The pattern
// is anchored at both ends so every alternative must span the local part.
func NewEmailPolicy(domain, pattern string, minYear, maxYear int) (EmailPolicy, error) {
	p := EmailPolicy{Domain: strings.ToLower(domain), MinYear: minYear, MaxYear: maxYear}
	if pattern != "" {
		re, err := regexp.Compile(`^(?:` + pattern + `)$`)
		if err != nil {
			return EmailPolicy{}, fmt.Errorf("forum: email pattern: %w", err)
		}
		p.LocalPattern = re
	}
	return p, nil
}

// Check returns an error wrapping apperr.ErrInvalidEmail when email is
// not acceptable.
func (p EmailPolicy) Check(email string) error {
	if err := validation.Validate(email, validation.Required, is.EmailFormat); err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrInvalidEmail, err)
	}
	at := strings.LastIndex(email, "@")
	local, domain := email[:at], strings.ToLower(email[at+1:])

	if p.Domain != "" && domain != p.Domain {
		return fmt.Errorf("%w: use your @%s address", apperr.ErrInvalidEmail, p.Domain)
	}
	if p.LocalPattern == nil {
		return nil
	}

	m := p.LocalPattern.FindStringSubmatch(local)
	if m == nil {
		return fmt.Errorf("%w: address does not follow the institutional format", apperr.ErrInvalidEmail)
	}
	idx := p.LocalPattern.SubexpIndex("year")
	if idx < 0 {
		return nil
	}
	year, err := strconv.Atoi(m[idx])
	if err != nil || year < p.MinYear || year > p.MaxYear {
		return fmt.Errorf("%w: invalid batch year in email", apperr.ErrInvalidEmail)
	}
	return nil
}
