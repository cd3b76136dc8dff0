package login

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dmitrymomot/hoyoauth/core/i18n"
	"github.com/dmitrymomot/hoyoauth/core/loginpage"
	"github.com/dmitrymomot/hoyoauth/core/session"
)

// defaultStepTimeout bounds each provider call. A stall past the deadline
// escalates to a fatal error transition so the per-session lock is never
// wedged by a hung provider.
const defaultStepTimeout = 30 * time.Second

// SuccessFunc is invoked once when a session reaches the success status,
// with the final persisted session carrying the issued credentials.
type SuccessFunc func(ctx context.Context, sess session.Session)

// ErrorFunc is invoked once when a session reaches the error status.
type ErrorFunc func(ctx context.Context, sess session.Session, err error)

type config struct {
	stepTimeout  time.Duration
	onSuccess    SuccessFunc
	onError      ErrorFunc
	logger       *slog.Logger
	localizer    *i18n.Localizer
	style        loginpage.Style
	callbackURL  string
	apiLoginPath string
	renderer     *loginpage.Renderer
}

// Option configures the engine during construction.
type Option func(*config) error

// WithStepTimeout bounds each provider call. Must be positive.
func WithStepTimeout(timeout time.Duration) Option {
	return func(c *config) error {
		if timeout <= 0 {
			return errors.New("step timeout must be positive")
		}
		c.stepTimeout = timeout
		return nil
	}
}

// WithOnSuccess registers the callback fired on terminal success. It is
// scheduled after the transition persists and never blocks or fails it.
func WithOnSuccess(fn SuccessFunc) Option {
	return func(c *config) error {
		c.onSuccess = fn
		return nil
	}
}

// WithOnError registers the callback fired on a fatal error transition.
// It may fire more than once per handshake only across distinct sessions;
// a single session transitions to error at most once.
func WithOnError(fn ErrorFunc) Option {
	return func(c *config) error {
		c.onError = fn
		return nil
	}
}

// WithLogger sets the engine logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *config) error {
		if log != nil {
			c.logger = log
		}
		return nil
	}
}

// WithLocalizer sets the message catalog for user-visible step errors and
// the login page.
func WithLocalizer(loc *i18n.Localizer) Option {
	return func(c *config) error {
		if loc == nil {
			return errors.New("localizer cannot be nil")
		}
		c.localizer = loc
		return nil
	}
}

// WithLoginPageStyle sets the accent color and theme mode of the rendered
// login page. Pure pass-through to the page renderer.
func WithLoginPageStyle(style loginpage.Style) Option {
	return func(c *config) error {
		if err := style.Validate(); err != nil {
			return err
		}
		c.style = style
		return nil
	}
}

// WithCallbackURL sets where the login page redirects after success.
func WithCallbackURL(url string) Option {
	return func(c *config) error {
		c.callbackURL = url
		return nil
	}
}

// WithAPILoginPath sets the path the login page submits steps to.
func WithAPILoginPath(path string) Option {
	return func(c *config) error {
		c.apiLoginPath = path
		return nil
	}
}

// WithRenderer replaces the login page renderer wholesale. Style, callback
// URL and API path options are ignored when a renderer is supplied.
func WithRenderer(r *loginpage.Renderer) Option {
	return func(c *config) error {
		if r == nil {
			return errors.New("renderer cannot be nil")
		}
		c.renderer = r
		return nil
	}
}
