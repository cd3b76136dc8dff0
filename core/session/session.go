package session

import (
	"crypto/rand"
	"encoding/base64"
	"maps"
	"time"
)

// Status describes where a session is in its login lifecycle.
// Success, Error and Expired are terminal: the engine refuses to advance
// a session once it reaches one of them.
type Status string

const (
	// StatusPending is the initial status of a freshly created session.
	StatusPending Status = "pending"
	// StatusAwaitingStep means the provider asked for further input
	// (captcha solution, verification code) before the login can finish.
	StatusAwaitingStep Status = "awaiting_step"
	// StatusSuccess means the provider accepted the login.
	StatusSuccess Status = "success"
	// StatusError means the login failed fatally.
	StatusError Status = "error"
	// StatusExpired means the session outlived its TTL.
	StatusExpired Status = "expired"
)

// Terminal reports whether the status permits no further step processing.
func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusError || s == StatusExpired
}

// Stage tracks how far the provider handshake has progressed. Unlike
// Status, which is the externally visible lifecycle, Stage selects which
// step payload the engine expects next.
type Stage string

const (
	// StageCredentials expects the account and password.
	StageCredentials Stage = "credentials"
	// StageCaptcha expects a solved captcha challenge for the login endpoint.
	StageCaptcha Stage = "captcha"
	// StageEmailVerification expects the code sent to the account's email.
	StageEmailVerification Stage = "email_verification"
	// StageEmailCaptcha expects a solved captcha challenge raised by the
	// email verification endpoint.
	StageEmailCaptcha Stage = "email_captcha"
	// StageDone means no further provider exchange is expected.
	StageDone Stage = "done"
)

// CaptchaChallenge carries the data the browser needs to render and solve
// a captcha issued by the identity provider.
type CaptchaChallenge struct {
	GT          string `json:"gt"`
	ChallengeID string `json:"challenge_id"`
	URL         string `json:"url,omitempty"`
}

// CaptchaSolution is the solved captcha submitted back by the browser.
type CaptchaSolution struct {
	Challenge string `json:"challenge"`
	Validate  string `json:"validate"`
	Seccode   string `json:"seccode"`
}

// EmailTicket identifies a pending email verification round with the provider.
type EmailTicket struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
}

// Session is a single tracked login handshake. The external representation
// is its JSON encoding, which round-trips losslessly so sessions can cross
// process boundaries (IPC bridges, durable stores).
//
// Data is an open key-value mapping owned by the caller; the engine never
// writes caller keys. Keys prefixed "auth." are reserved for engine use.
type Session struct {
	ID     string `json:"id"`
	Status Status `json:"status"`
	Stage  Stage  `json:"stage"`

	// Data carries caller-supplied context, e.g. the chat message that
	// initiated the login. Never nil on sessions returned by a Store.
	Data map[string]any `json:"data"`

	Language string `json:"language,omitempty"`
	Account  string `json:"account,omitempty"`
	Password string `json:"password,omitempty"`

	Challenge *CaptchaChallenge `json:"challenge,omitempty"`
	Ticket    *EmailTicket      `json:"ticket,omitempty"`

	// Result holds the credentials issued by the provider after a
	// successful login (cookies, tokens).
	Result map[string]string `json:"result,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PartialSession is the client-safe projection of a Session. It is what
// login pages and step responses embed: no credentials, no issued result.
type PartialSession struct {
	ID        string            `json:"id"`
	Status    Status            `json:"status"`
	Stage     Stage             `json:"stage"`
	Language  string            `json:"language,omitempty"`
	Challenge *CaptchaChallenge `json:"challenge,omitempty"`
	Ticket    *EmailTicket      `json:"ticket,omitempty"`
}

// Partial returns the client-safe view of the session.
func (s Session) Partial() PartialSession {
	return PartialSession{
		ID:        s.ID,
		Status:    s.Status,
		Stage:     s.Stage,
		Language:  s.Language,
		Challenge: s.Challenge,
		Ticket:    s.Ticket,
	}
}

// Clone returns a deep enough copy that mutating the copy's Data or Result
// never leaks into the original. Stores hand out clones so concurrent
// readers cannot race on shared maps.
func (s Session) Clone() Session {
	c := s
	c.Data = maps.Clone(s.Data)
	if c.Data == nil {
		c.Data = map[string]any{}
	}
	if s.Result != nil {
		c.Result = maps.Clone(s.Result)
	}
	if s.Challenge != nil {
		ch := *s.Challenge
		c.Challenge = &ch
	}
	if s.Ticket != nil {
		t := *s.Ticket
		c.Ticket = &t
	}
	return c
}

// CreateParams carries the optional fields a caller may preset when
// creating a session. Data may be nil; the store substitutes an empty map.
type CreateParams struct {
	Data     map[string]any
	Language string
	Account  string
	Password string
}

// NewID generates an unpredictable session identifier: 32 bytes from
// crypto/rand, base64url without padding. Predictable or reused IDs would
// let an attacker hijack someone else's login handshake.
func NewID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
