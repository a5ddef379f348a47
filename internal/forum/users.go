package forum

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/agora/internal/models"
)

// Usernames use the same characters a mention can reference.
var usernameRe = regexp.MustCompile(`^[\p{L}\p{N}_]+$`)

// RegisterInput is the sign-up request.
type RegisterInput struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	IsStaff     bool   `json:"-"`
}

// Validate checks field shapes; the email domain is checked by the policy.
func (in RegisterInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Username, validation.Required, validation.Length(1, 150), validation.Match(usernameRe)),
		validation.Field(&in.DisplayName, validation.Length(0, 200)),
	)
}

// RegisterUser creates a user after gating the email address.
func (s *Service) RegisterUser(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if err := s.emails.Check(in.Email); err != nil {
		return nil, err
	}
	u := &models.User{
		Username:    in.Username,
		Email:       in.Email,
		DisplayName: in.DisplayName,
		IsStaff:     in.IsStaff,
	}
	if err := s.repo.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "user registered", slog.String("username", u.Username), slog.Bool("staff", u.IsStaff))
	return u, nil
}

// UserByUsername resolves the acting user of a request.
func (s *Service) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.repo.GetUserByUsername(ctx, username)
}
