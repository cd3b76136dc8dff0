package session_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/hoyoauth/core/session"
)

func TestStatus_Terminal(t *testing.T) {
	t.Parallel()

	assert.False(t, session.StatusPending.Terminal())
	assert.False(t, session.StatusAwaitingStep.Terminal())
	assert.True(t, session.StatusSuccess.Terminal())
	assert.True(t, session.StatusError.Terminal())
	assert.True(t, session.StatusExpired.Terminal())
}

func TestNewID_Unpredictable(t *testing.T) {
	t.Parallel()

	seen := make(map[string]struct{}, 100)
	for range 100 {
		id, err := session.NewID()
		require.NoError(t, err)
		assert.Len(t, id, 43, "32 bytes base64url without padding")

		_, dup := seen[id]
		require.False(t, dup, "generated a duplicate ID")
		seen[id] = struct{}{}
	}
}

func TestPartial_StripsSecrets(t *testing.T) {
	t.Parallel()

	sess := session.Session{
		ID:       "sess-1",
		Status:   session.StatusAwaitingStep,
		Stage:    session.StageCaptcha,
		Data:     map[string]any{"chat_id": "42"},
		Language: "en-us",
		Account:  "user@example.com",
		Password: "hunter2",
		Challenge: &session.CaptchaChallenge{
			GT:          "gt-value",
			ChallengeID: "challenge-value",
		},
		Result: map[string]string{"ltoken": "secret"},
	}

	partial := sess.Partial()

	assert.Equal(t, sess.ID, partial.ID)
	assert.Equal(t, sess.Status, partial.Status)
	assert.Equal(t, sess.Stage, partial.Stage)
	assert.Equal(t, sess.Language, partial.Language)
	assert.Equal(t, sess.Challenge, partial.Challenge)

	blob, err := json.Marshal(partial)
	require.NoError(t, err)
	assert.NotContains(t, string(blob), "hunter2")
	assert.NotContains(t, string(blob), "user@example.com")
	assert.NotContains(t, string(blob), "ltoken")
	assert.NotContains(t, string(blob), "chat_id")
}

func TestClone_MutationDoesNotLeak(t *testing.T) {
	t.Parallel()

	orig := session.Session{
		ID:        "sess-1",
		Status:    session.StatusAwaitingStep,
		Stage:     session.StageEmailVerification,
		Data:      map[string]any{"key": "original"},
		Result:    map[string]string{"token": "original"},
		Challenge: &session.CaptchaChallenge{GT: "gt"},
		Ticket:    &session.EmailTicket{ID: "ticket-1"},
	}

	clone := orig.Clone()
	clone.Data["key"] = "mutated"
	clone.Result["token"] = "mutated"
	clone.Challenge.GT = "mutated"
	clone.Ticket.ID = "mutated"

	assert.Equal(t, "original", orig.Data["key"])
	assert.Equal(t, "original", orig.Result["token"])
	assert.Equal(t, "gt", orig.Challenge.GT)
	assert.Equal(t, "ticket-1", orig.Ticket.ID)
}

func TestClone_NilDataBecomesEmptyMap(t *testing.T) {
	t.Parallel()

	clone := session.Session{ID: "sess-1"}.Clone()

	assert.NotNil(t, clone.Data)
	assert.Empty(t, clone.Data)
}

func TestSession_JSONRoundTrip(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC().Truncate(time.Second)
	orig := session.Session{
		ID:       "sess-1",
		Status:   session.StatusAwaitingStep,
		Stage:    session.StageEmailCaptcha,
		Data:     map[string]any{"chat_id": "42", "nested": map[string]any{"k": "v"}},
		Language: "ja-jp",
		Account:  "user@example.com",
		Password: "hunter2",
		Challenge: &session.CaptchaChallenge{
			GT:          "gt-value",
			ChallengeID: "challenge-value",
			URL:         "https://example.com/captcha",
		},
		Ticket:    &session.EmailTicket{ID: "ticket-1", Email: "u***@example.com"},
		Result:    map[string]string{"ltoken_v2": "tok", "ltuid_v2": "123"},
		CreatedAt: now,
		UpdatedAt: now,
	}

	blob, err := json.Marshal(orig)
	require.NoError(t, err)

	var decoded session.Session
	require.NoError(t, json.Unmarshal(blob, &decoded))
	assert.Equal(t, orig, decoded)
}

func TestValidateTTLConfig(t *testing.T) {
	t.Parallel()

	assert.NoError(t, session.ValidateTTLConfig(0, 0))
	assert.NoError(t, session.ValidateTTLConfig(time.Minute, time.Second))
	assert.ErrorIs(t, session.ValidateTTLConfig(time.Minute, 0), session.ErrTTLWithoutCleanup)
	assert.ErrorIs(t, session.ValidateTTLConfig(0, time.Second), session.ErrCleanupWithoutTTL)
	assert.ErrorIs(t, session.ValidateTTLConfig(-time.Minute, time.Second), session.ErrNegativeDuration)
	assert.ErrorIs(t, session.ValidateTTLConfig(time.Minute, -time.Second), session.ErrNegativeDuration)
}
