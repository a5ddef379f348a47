package internal

import "github.com/starford/agora/internal/mail"

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config    *Config
	transport mail.Transport
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithMailTransport replaces the transport selected by mail.provider.
func WithMailTransport(t mail.Transport) Option {
	return func(a *application) {
		a.transport = t
	}
}
