package internal

import (
	"fmt"
	"log/slog"
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/starford/agora/internal/forum"
	"github.com/starford/agora/internal/notify"
	"github.com/starford/agora/internal/ratelimit"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Mail providers.
const (
	MailProviderLog   = "log"
	MailProviderSMTP  = "smtp"
	MailProviderBrevo = "brevo"
)

// Config represents the application configuration.
type Config struct {
	App       ApplicationConfig `yaml:"app"`
	SQLite    SQLiteConfig      `yaml:"sqlite"`
	Auth      AuthConfig        `yaml:"auth"`
	Forum     ForumConfig       `yaml:"forum"`
	Mail      MailConfig        `yaml:"mail"`
	Notify    NotifyConfig      `yaml:"notify"`
	RateLimit RateLimitConfig   `yaml:"ratelimit"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	if err := c.Forum.Validate(); err != nil {
		return fmt.Errorf("forum: %w", err)
	}
	if err := c.Mail.Validate(); err != nil {
		return fmt.Errorf("mail: %w", err)
	}
	if err := c.Notify.Validate(); err != nil {
		return fmt.Errorf("notify: %w", err)
	}
	return c.RateLimit.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
	// FeedThrottle is the minimum gap between threads.changed SSE events.
	FeedThrottle time.Duration `yaml:"feed_throttle"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// ForumConfig holds sign-up gating and listing settings.
type ForumConfig struct {
	EmailDomain string `yaml:"email_domain"`
	// EmailLocalPattern must match the whole local part. A named group
	// "year" is checked against MinBatchYear..MaxBatchYear.
	EmailLocalPattern string `yaml:"email_local_pattern"`
	MinBatchYear      int    `yaml:"min_batch_year"`
	MaxBatchYear      int    `yaml:"max_batch_year"`
	PageSize          int    `yaml:"page_size"`
}

// Validate validates the forum configuration.
func (c *ForumConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.EmailDomain, validation.Required, is.Domain),
		validation.Field(&c.EmailLocalPattern, validation.By(compiles)),
		validation.Field(&c.MaxBatchYear, validation.Min(c.MinBatchYear)),
		validation.Field(&c.PageSize, validation.Required, validation.Min(1), validation.Max(100)),
	)
}

// EmailPolicy builds the sign-up email policy.
func (c *ForumConfig) EmailPolicy() (forum.EmailPolicy, error) {
	return forum.NewEmailPolicy(c.EmailDomain, c.EmailLocalPattern, c.MinBatchYear, c.MaxBatchYear)
}

func compiles(v any) error {
	s, _ := v.(string)
	if s == "" {
		return nil
	}
	_, err := regexp.Compile(s)
	return err
}

// MailConfig selects and configures the mail transport.
type MailConfig struct {
	Provider string        `yaml:"provider"`
	From     string        `yaml:"from"`
	Timeout  time.Duration `yaml:"timeout"`
	SMTP     SMTPConfig    `yaml:"smtp"`
	Brevo    BrevoConfig   `yaml:"brevo"`
	Breaker  BreakerConfig `yaml:"breaker"`
}

// SMTPConfig holds SMTP relay settings.
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// BrevoConfig holds Brevo transactional email settings.
type BrevoConfig struct {
	APIKey string `yaml:"api_key"`
}

// BreakerConfig tunes the circuit breaker in front of the mail transport.
type BreakerConfig struct {
	FailureThreshold uint32        `yaml:"failure_threshold"`
	OpenTimeout      time.Duration `yaml:"open_timeout"`
}

// Validate validates the mail configuration.
func (c *MailConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Provider, validation.Required,
			validation.In(MailProviderLog, MailProviderSMTP, MailProviderBrevo)),
		validation.Field(&c.From, validation.Required, is.EmailFormat),
		validation.Field(&c.Timeout, validation.Required),
	); err != nil {
		return err
	}
	switch c.Provider {
	case MailProviderSMTP:
		return validation.ValidateStruct(&c.SMTP,
			validation.Field(&c.SMTP.Host, validation.Required),
			validation.Field(&c.SMTP.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		)
	case MailProviderBrevo:
		return validation.ValidateStruct(&c.Brevo,
			validation.Field(&c.Brevo.APIKey, validation.Required),
		)
	}
	return nil
}

// Dispatcher returns the dispatcher settings.
func (c *MailConfig) Dispatcher() notify.DispatcherConfig {
	return notify.DispatcherConfig{
		From:             c.From,
		Timeout:          c.Timeout,
		FailureThreshold: c.Breaker.FailureThreshold,
		OpenTimeout:      c.Breaker.OpenTimeout,
	}
}

// NotifyConfig holds notification trigger settings.
type NotifyConfig struct {
	LockPolicy string `yaml:"lock_policy"`
}

// Validate validates the notify configuration.
func (c *NotifyConfig) Validate() error {
	_, err := notify.ParseLockPolicy(c.LockPolicy)
	return err
}

// LimitConfig allows Requests per Window.
type LimitConfig struct {
	Requests int           `yaml:"requests"`
	Window   time.Duration `yaml:"window"`
}

// Validate validates the limit.
func (c *LimitConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Requests, validation.Required, validation.Min(1)),
		validation.Field(&c.Window, validation.Required),
	)
}

// RateLimitConfig holds per-user workflow limits and the per-IP HTTP limit.
type RateLimitConfig struct {
	ThreadCreate LimitConfig `yaml:"thread_create"`
	PostCreate   LimitConfig `yaml:"post_create"`
	Report       LimitConfig `yaml:"report"`
	// HTTP limits requests per client IP; zero requests disables it.
	HTTP LimitConfig `yaml:"http"`
}

// Validate validates the rate limit configuration.
func (c *RateLimitConfig) Validate() error {
	for name, l := range map[string]*LimitConfig{
		"thread_create": &c.ThreadCreate,
		"post_create":   &c.PostCreate,
		"report":        &c.Report,
	} {
		if err := l.Validate(); err != nil {
			return fmt.Errorf("ratelimit.%s: %w", name, err)
		}
	}
	return nil
}

// Limits converts the workflow limits for ratelimit.New.
func (c *RateLimitConfig) Limits() map[ratelimit.Action]ratelimit.Limit {
	return map[ratelimit.Action]ratelimit.Limit{
		ratelimit.ActionThreadCreate: {Requests: c.ThreadCreate.Requests, Window: c.ThreadCreate.Window},
		ratelimit.ActionPostCreate:   {Requests: c.PostCreate.Requests, Window: c.PostCreate.Window},
		ratelimit.ActionReport:       {Requests: c.Report.Requests, Window: c.Report.Window},
	}
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	limits := ratelimit.DefaultLimits()
	limit := func(a ratelimit.Action) LimitConfig {
		return LimitConfig{Requests: limits[a].Requests, Window: limits[a].Window}
	}
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
			FeedThrottle: 2 * time.Second,
		},
		SQLite: SQLiteConfig{
			Path: "./agora.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Forum: ForumConfig{
			EmailDomain:       "pilani.bits-pilani.ac.in",
			EmailLocalPattern: `^f(?P<year>\d{4})\d{4}$`,
			MinBatchYear:      2015,
			MaxBatchYear:      2030,
			PageSize:          forum.DefaultPageSize,
		},
		Mail: MailConfig{
			Provider: MailProviderLog,
			From:     "noreply@agora.local",
			Timeout:  10 * time.Second,
			SMTP:     SMTPConfig{Port: 587},
			Breaker: BreakerConfig{
				FailureThreshold: 5,
				OpenTimeout:      time.Minute,
			},
		},
		Notify: NotifyConfig{
			LockPolicy: string(notify.LockEverySave),
		},
		RateLimit: RateLimitConfig{
			ThreadCreate: limit(ratelimit.ActionThreadCreate),
			PostCreate:   limit(ratelimit.ActionPostCreate),
			Report:       limit(ratelimit.ActionReport),
			HTTP:         LimitConfig{Requests: 300, Window: time.Minute},
		},
	}
}
