package login

import (
	"context"
	"errors"

	"github.com/dmitrymomot/hoyoauth/core/session"
)

// Provider is the opaque capability that talks to the identity provider.
// The engine drives it one step at a time and never interprets the wire
// exchange itself; it only reacts to the returned Outcome or error.
//
// Implementations must honor ctx cancellation: the engine bounds every
// call with its step timeout so a stalled provider cannot wedge a session.
type Provider interface {
	// SubmitCredentials starts the handshake with the account and password.
	SubmitCredentials(ctx context.Context, account, password string) (Outcome, error)

	// SubmitCaptcha submits a solved captcha raised by the login endpoint.
	SubmitCaptcha(ctx context.Context, challenge session.CaptchaChallenge, solution session.CaptchaSolution) (Outcome, error)

	// VerifyEmail submits the verification code sent to the account email.
	VerifyEmail(ctx context.Context, ticket session.EmailTicket, code string) (Outcome, error)

	// SubmitEmailCaptcha submits a solved captcha raised by the email
	// verification endpoint.
	SubmitEmailCaptcha(ctx context.Context, ticket session.EmailTicket, solution session.CaptchaSolution) (Outcome, error)
}

// OutcomeKind tags what the provider asked for next.
type OutcomeKind string

const (
	// OutcomeSuccess means the handshake finished and credentials were issued.
	OutcomeSuccess OutcomeKind = "success"
	// OutcomeCaptcha means a captcha must be solved before continuing.
	OutcomeCaptcha OutcomeKind = "captcha"
	// OutcomeEmail means a code was sent to the account email and must be
	// submitted back.
	OutcomeEmail OutcomeKind = "email"
)

// Outcome is the provider's answer to one step.
type Outcome struct {
	Kind OutcomeKind

	// Result holds the issued credentials when Kind is OutcomeSuccess.
	Result map[string]string
	// Challenge is set when Kind is OutcomeCaptcha.
	Challenge *session.CaptchaChallenge
	// Ticket is set when Kind is OutcomeEmail.
	Ticket *session.EmailTicket
}

// SuccessOutcome builds a terminal outcome carrying issued credentials.
func SuccessOutcome(result map[string]string) Outcome {
	return Outcome{Kind: OutcomeSuccess, Result: result}
}

// CaptchaOutcome builds an outcome demanding a captcha solution.
func CaptchaOutcome(challenge session.CaptchaChallenge) Outcome {
	return Outcome{Kind: OutcomeCaptcha, Challenge: &challenge}
}

// EmailOutcome builds an outcome demanding an emailed verification code.
func EmailOutcome(ticket session.EmailTicket) Outcome {
	return Outcome{Kind: OutcomeEmail, Ticket: &ticket}
}

// Retryable provider errors: the submitted input was wrong but the session
// stays reusable and the caller may resubmit the same step.
var (
	// ErrInvalidCredentials means the account or password was rejected.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrCaptchaRejected means the captcha solution did not pass.
	ErrCaptchaRejected = errors.New("captcha solution rejected")
	// ErrInvalidCode means the email verification code was wrong.
	ErrInvalidCode = errors.New("invalid verification code")
)

// Fatal provider errors: the handshake cannot continue and the session
// moves to the error status.
var (
	// ErrAccountLocked means the provider locked the account out.
	ErrAccountLocked = errors.New("account locked by provider")
	// ErrHandshakeExpired means the provider-side handshake lapsed.
	ErrHandshakeExpired = errors.New("provider handshake expired")
	// ErrProtocol means the provider replied with something the
	// implementation cannot interpret.
	ErrProtocol = errors.New("provider protocol violation")
)

// IsRetryable reports whether a provider error leaves the session
// reusable. Anything not explicitly retryable is fatal, including
// timeouts and transport failures: silently retrying unknown failures
// against an identity provider risks account lockout.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrInvalidCredentials) ||
		errors.Is(err, ErrCaptchaRejected) ||
		errors.Is(err, ErrInvalidCode)
}
