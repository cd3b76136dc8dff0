package login

import (
	"errors"
	"fmt"

	"github.com/dmitrymomot/hoyoauth/core/session"
)

// ErrUnknownPayload is returned by DecodePayload for maps that match no
// known step payload shape.
var ErrUnknownPayload = errors.New("unknown step payload")

// Payload is one step's user-submitted data. The set of payload kinds is
// closed: exactly one kind exists per handshake stage.
type Payload interface {
	payload()
}

// CredentialsPayload answers the credentials stage.
type CredentialsPayload struct {
	Account  string `json:"account"`
	Password string `json:"password"`
}

func (CredentialsPayload) payload() {}

// CaptchaPayload answers a captcha stage, login or email flavored.
type CaptchaPayload struct {
	Solution session.CaptchaSolution `json:"solution"`
}

func (CaptchaPayload) payload() {}

// EmailCodePayload answers the email verification stage.
type EmailCodePayload struct {
	Code string `json:"code"`
}

func (EmailCodePayload) payload() {}

// DecodePayload converts a generic key-value body, as HTTP adapters and
// IPC bridges receive it, into a typed step payload. The shape is detected
// from the keys present, mirroring how browsers submit each step.
func DecodePayload(body map[string]any) (Payload, error) {
	if body == nil {
		return nil, ErrUnknownPayload
	}

	str := func(key string) (string, bool) {
		v, ok := body[key]
		if !ok {
			return "", false
		}
		s, ok := v.(string)
		return s, ok
	}

	if account, ok := str("account"); ok {
		password, ok := str("password")
		if !ok {
			return nil, fmt.Errorf("%w: account without password", ErrUnknownPayload)
		}
		return CredentialsPayload{Account: account, Password: password}, nil
	}

	if challenge, ok := str("challenge"); ok {
		validate, vok := str("validate")
		seccode, sok := str("seccode")
		if !vok || !sok {
			return nil, fmt.Errorf("%w: incomplete captcha solution", ErrUnknownPayload)
		}
		return CaptchaPayload{Solution: session.CaptchaSolution{
			Challenge: challenge,
			Validate:  validate,
			Seccode:   seccode,
		}}, nil
	}

	if code, ok := str("code"); ok {
		return EmailCodePayload{Code: code}, nil
	}

	return nil, ErrUnknownPayload
}
