package login

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/hoyoauth/core/i18n"
	"github.com/dmitrymomot/hoyoauth/core/logger"
	"github.com/dmitrymomot/hoyoauth/core/loginpage"
	"github.com/dmitrymomot/hoyoauth/core/session"
	"github.com/dmitrymomot/hoyoauth/pkg/async"
	"github.com/dmitrymomot/hoyoauth/pkg/keylock"
)

// errWrongPayload marks a payload that does not match the session's
// current stage. Always retryable and never leaves the package.
var errWrongPayload = errors.New("payload does not match session stage")

// Engine drives a session through the provider's authentication steps.
// It owns the state machine only; storage and the provider exchange are
// injected capabilities.
type Engine struct {
	store    session.Store
	provider Provider
	renderer *loginpage.Renderer
	loc      *i18n.Localizer

	stepTimeout time.Duration
	onSuccess   SuccessFunc
	onError     ErrorFunc

	locks  *keylock.KeyLock
	closed atomic.Bool
	log    *slog.Logger
}

// New creates a login engine over the given store and provider.
func New(store session.Store, provider Provider, opts ...Option) (*Engine, error) {
	if store == nil {
		return nil, ErrNilStore
	}
	if provider == nil {
		return nil, ErrNilProvider
	}

	cfg := config{
		stepTimeout:  defaultStepTimeout,
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		style:        loginpage.DefaultStyle(),
		apiLoginPath: "/api/login",
	}
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if cfg.localizer == nil {
		loc, err := i18n.New()
		if err != nil {
			return nil, err
		}
		cfg.localizer = loc
	}
	if cfg.renderer == nil {
		r, err := loginpage.NewRenderer(
			loginpage.WithStyle(cfg.style),
			loginpage.WithLocalizer(cfg.localizer),
			loginpage.WithAPILoginPath(cfg.apiLoginPath),
			loginpage.WithCallbackURL(cfg.callbackURL),
		)
		if err != nil {
			return nil, err
		}
		cfg.renderer = r
	}

	return &Engine{
		store:       store,
		provider:    provider,
		renderer:    cfg.renderer,
		loc:         cfg.localizer,
		stepTimeout: cfg.stepTimeout,
		onSuccess:   cfg.onSuccess,
		onError:     cfg.onError,
		locks:       keylock.New(),
		log:         cfg.logger,
	}, nil
}

// Initialize starts the underlying store, including its reclamation loop.
// Hosts call it once at startup. Idempotent.
func (e *Engine) Initialize(ctx context.Context) error {
	e.closed.Store(false)
	return e.store.Initialize(ctx)
}

// Shutdown stops the store and marks the engine closed: in-flight steps
// complete, every later operation fails with ErrClosed. Idempotent.
func (e *Engine) Shutdown(ctx context.Context) error {
	if e.closed.Swap(true) {
		return nil
	}
	return e.store.Shutdown(ctx)
}

// SessionOption presets optional fields of a new session.
type SessionOption func(*session.CreateParams)

// WithLanguage sets the session's user language.
func WithLanguage(lang string) SessionOption {
	return func(p *session.CreateParams) { p.Language = lang }
}

// WithCredentials presets the account and password. A session created this
// way starts its first provider exchange on the next HandleRequest call
// without any submitted payload.
func WithCredentials(account, password string) SessionOption {
	return func(p *session.CreateParams) {
		p.Account = account
		p.Password = password
	}
}

// CreateSession creates a new pending session carrying the caller's data.
// This is the only entry point that creates sessions.
func (e *Engine) CreateSession(ctx context.Context, data map[string]any, opts ...SessionOption) (session.Session, error) {
	if e.closed.Load() {
		return session.Session{}, ErrClosed
	}
	params := session.CreateParams{Data: data}
	for _, opt := range opts {
		opt(&params)
	}
	return e.store.CreateSession(ctx, params)
}

// GetSession is a read-through to the store.
func (e *Engine) GetSession(ctx context.Context, id string) (session.Session, error) {
	if e.closed.Load() {
		return session.Session{}, ErrClosed
	}
	return e.store.GetSession(ctx, id)
}

// UpdateSession is a read-through to the store. Collaborators use it to
// attach context to a session, e.g. the chat message id once known,
// without advancing login state.
func (e *Engine) UpdateSession(ctx context.Context, id string, sess session.Session) error {
	if e.closed.Load() {
		return ErrClosed
	}
	return e.store.UpdateSession(ctx, id, sess)
}

// DeleteSession removes a session explicitly. The expire callback does not
// fire for explicit deletes.
func (e *Engine) DeleteSession(ctx context.Context, id string) error {
	if e.closed.Load() {
		return ErrClosed
	}
	return e.store.DeleteSession(ctx, id)
}

// LoginPage renders the login page HTML for the session.
func (e *Engine) LoginPage(w io.Writer, sess session.Session) error {
	return e.renderer.Render(w, sess.Partial())
}

// HandleRequest processes one step of the handshake for the session.
//
// A nil payload is a state probe: the engine reports what the caller must
// present next, except for sessions created with preset credentials, where
// it starts the first provider exchange.
//
// Engine-level failures (unknown session, terminal session, concurrent
// step, closed engine) surface as errors. Provider-level failures never
// do: they become state transitions reported through the StepResult.
func (e *Engine) HandleRequest(ctx context.Context, id string, payload Payload) (StepResult, error) {
	if e.closed.Load() {
		return StepResult{}, ErrClosed
	}
	if !e.locks.TryLock(id) {
		return StepResult{}, ErrBusy
	}
	defer e.locks.Unlock(id)

	sess, err := e.store.GetSession(ctx, id)
	if err != nil {
		return StepResult{}, err
	}
	if sess.Status.Terminal() {
		return StepResult{}, ErrInvalidState
	}

	log := e.log.With(
		logger.SessionID(id),
		logger.RequestID(uuid.New().String()),
		logger.Stage(string(sess.Stage)),
	)
	start := time.Now()

	if payload == nil {
		if sess.Stage == session.StageCredentials && sess.Account != "" && sess.Password != "" {
			payload = CredentialsPayload{Account: sess.Account, Password: sess.Password}
		} else {
			return StepResult{Kind: StepNext, Partial: sess.Partial()}, nil
		}
	}

	outcome, stepErr := e.dispatch(ctx, &sess, payload)
	switch {
	case stepErr == nil:
		return e.applyOutcome(ctx, log, sess, outcome, start)
	case errors.Is(stepErr, errWrongPayload) || IsRetryable(stepErr):
		// Retryable: no state transition, but the attempt still refreshes
		// the sliding TTL so a user mid-typo does not lose the session.
		if err := e.store.UpdateSession(ctx, id, sess); err != nil {
			return StepResult{}, err
		}
		log.InfoContext(ctx, "step rejected, session reusable",
			logger.Error(stepErr), logger.Elapsed(start))
		return e.retryableResult(sess, stepErr), nil
	default:
		return e.failSession(ctx, log, sess, stepErr, start)
	}
}

// dispatch validates the payload against the current stage and runs the
// provider exchange, bounded by the step timeout.
func (e *Engine) dispatch(ctx context.Context, sess *session.Session, payload Payload) (Outcome, error) {
	ctx, cancel := context.WithTimeout(ctx, e.stepTimeout)
	defer cancel()

	switch sess.Stage {
	case session.StageCredentials:
		p, ok := payload.(CredentialsPayload)
		if !ok || p.Account == "" || p.Password == "" {
			return Outcome{}, errWrongPayload
		}
		sess.Account, sess.Password = p.Account, p.Password
		return e.provider.SubmitCredentials(ctx, p.Account, p.Password)

	case session.StageCaptcha:
		p, ok := payload.(CaptchaPayload)
		if !ok {
			return Outcome{}, errWrongPayload
		}
		if sess.Challenge == nil {
			return Outcome{}, ErrProtocol
		}
		return e.provider.SubmitCaptcha(ctx, *sess.Challenge, p.Solution)

	case session.StageEmailVerification:
		p, ok := payload.(EmailCodePayload)
		if !ok {
			return Outcome{}, errWrongPayload
		}
		if sess.Ticket == nil {
			return Outcome{}, ErrProtocol
		}
		return e.provider.VerifyEmail(ctx, *sess.Ticket, p.Code)

	case session.StageEmailCaptcha:
		p, ok := payload.(CaptchaPayload)
		if !ok {
			return Outcome{}, errWrongPayload
		}
		if sess.Ticket == nil {
			return Outcome{}, ErrProtocol
		}
		return e.provider.SubmitEmailCaptcha(ctx, *sess.Ticket, p.Solution)
	}

	// StageDone with a non-terminal status is an internal inconsistency.
	return Outcome{}, ErrProtocol
}

// applyOutcome persists the transition the provider demanded and, for
// terminal success, schedules the success callback strictly after the
// state is durable.
func (e *Engine) applyOutcome(ctx context.Context, log *slog.Logger, sess session.Session, outcome Outcome, start time.Time) (StepResult, error) {
	switch outcome.Kind {
	case OutcomeSuccess:
		sess.Status = session.StatusSuccess
		sess.Stage = session.StageDone
		sess.Result = outcome.Result
		sess.Challenge = nil
		sess.Ticket = nil
		if err := e.store.UpdateSession(ctx, sess.ID, sess); err != nil {
			return StepResult{}, err
		}
		log.InfoContext(ctx, "login succeeded", logger.Elapsed(start))
		e.scheduleCallback(ctx, "on_success", func(cbCtx context.Context) {
			if e.onSuccess != nil {
				e.onSuccess(cbCtx, sess)
			}
		})
		return StepResult{Kind: StepSuccess, Partial: sess.Partial()}, nil

	case OutcomeCaptcha:
		// Challenges issued while the session is in the email-verification
		// flow (including a reissue after a rejected solution) stay on the
		// email captcha stage so the next solution reaches the provider's
		// email endpoint.
		if sess.Stage == session.StageEmailVerification || sess.Stage == session.StageEmailCaptcha {
			sess.Stage = session.StageEmailCaptcha
		} else {
			sess.Stage = session.StageCaptcha
		}
		sess.Status = session.StatusAwaitingStep
		sess.Challenge = outcome.Challenge
		if err := e.store.UpdateSession(ctx, sess.ID, sess); err != nil {
			return StepResult{}, err
		}
		log.InfoContext(ctx, "captcha required", logger.Elapsed(start))
		return StepResult{Kind: StepNext, Partial: sess.Partial()}, nil

	case OutcomeEmail:
		sess.Stage = session.StageEmailVerification
		sess.Status = session.StatusAwaitingStep
		sess.Ticket = outcome.Ticket
		if err := e.store.UpdateSession(ctx, sess.ID, sess); err != nil {
			return StepResult{}, err
		}
		log.InfoContext(ctx, "email verification required", logger.Elapsed(start))
		return StepResult{Kind: StepNext, Partial: sess.Partial()}, nil
	}

	return e.failSession(ctx, log, sess, ErrProtocol, start)
}

// failSession moves the session to the terminal error status, persists it,
// and schedules the error callback. Provider faults are reported through
// the StepResult, never as raw errors.
func (e *Engine) failSession(ctx context.Context, log *slog.Logger, sess session.Session, stepErr error, start time.Time) (StepResult, error) {
	sess.Status = session.StatusError
	sess.Stage = session.StageDone
	if err := e.store.UpdateSession(ctx, sess.ID, sess); err != nil {
		return StepResult{}, errors.Join(err, stepErr)
	}
	log.ErrorContext(ctx, "login failed fatally",
		logger.Error(stepErr), logger.Elapsed(start))
	e.scheduleCallback(ctx, "on_error", func(cbCtx context.Context) {
		if e.onError != nil {
			e.onError(cbCtx, sess, stepErr)
		}
	})

	lang := sess.Language
	return StepResult{
		Kind:    StepError,
		Partial: sess.Partial(),
		Title:   e.loc.T(lang, i18n.KeyDefaultErrorTitle),
		Message: e.loc.T(lang, i18n.KeyDefaultErrorMessage, i18n.M{"status": "failed"}),
	}, nil
}

// retryableResult builds the localized error result for a rejected step
// that left the session reusable.
func (e *Engine) retryableResult(sess session.Session, stepErr error) StepResult {
	lang := sess.Language
	titleKey, msgKey := i18n.KeyLoginFailedTitle, i18n.KeyLoginFailedMessage
	switch {
	case errors.Is(stepErr, errWrongPayload):
		titleKey, msgKey = i18n.KeyInvalidRequestTitle, i18n.KeyInvalidRequestMessage
	case errors.Is(stepErr, ErrInvalidCode):
		titleKey, msgKey = i18n.KeyVerificationFailedTitle, i18n.KeyVerificationFailedMessage
	}
	return StepResult{
		Kind:      StepError,
		Partial:   sess.Partial(),
		Retryable: true,
		Title:     e.loc.T(lang, titleKey),
		Message:   e.loc.T(lang, msgKey),
	}
}

// scheduleCallback dispatches a lifecycle callback without blocking the
// transition. Failures and panics are logged, never propagated: a broken
// callback must not roll back persisted state.
func (e *Engine) scheduleCallback(ctx context.Context, name string, fn func(context.Context)) {
	bg := context.WithoutCancel(ctx)
	future := async.Exec(bg, name, func(cbCtx context.Context, _ string) error {
		fn(cbCtx)
		return nil
	})
	go func() {
		if err := future.Await(); err != nil {
			e.log.Error("lifecycle callback failed",
				logger.Event(name), logger.Error(err))
		}
	}()
}
