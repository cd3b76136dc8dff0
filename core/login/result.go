package login

import "github.com/dmitrymomot/hoyoauth/core/session"

// StepKind tags a StepResult.
type StepKind string

const (
	// StepNext means the provider wants further input; Partial describes
	// what the caller must present (captcha challenge, email prompt).
	StepNext StepKind = "next"
	// StepSuccess means the handshake finished; the session is terminal.
	StepSuccess StepKind = "success"
	// StepError means the step failed. Retryable tells the caller whether
	// the same session can take another attempt.
	StepError StepKind = "error"
)

// StepResult is what HandleRequest returns to adapters. Adapters only ever
// inspect it plus the session status: provider faults never surface as raw
// errors at the HTTP layer.
type StepResult struct {
	Kind    StepKind               `json:"kind"`
	Partial session.PartialSession `json:"session"`

	// Retryable is meaningful for StepError: true means the caller may
	// resubmit the same step on the same session.
	Retryable bool `json:"retryable,omitempty"`

	// Title and Message are localized, user-presentable error texts.
	Title   string `json:"title,omitempty"`
	Message string `json:"message,omitempty"`
}
