package loginpage_test

import (
	"html/template"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/hoyoauth/core/i18n"
	"github.com/dmitrymomot/hoyoauth/core/loginpage"
	"github.com/dmitrymomot/hoyoauth/core/session"
)

func renderToString(t *testing.T, r *loginpage.Renderer, partial session.PartialSession) string {
	t.Helper()
	var buf strings.Builder
	require.NoError(t, r.Render(&buf, partial))
	return buf.String()
}

func TestRender_EmbedsSessionState(t *testing.T) {
	t.Parallel()

	r, err := loginpage.NewRenderer()
	require.NoError(t, err)

	html := renderToString(t, r, session.PartialSession{
		ID:     "sess-1",
		Status: session.StatusAwaitingStep,
		Stage:  session.StageCaptcha,
		Challenge: &session.CaptchaChallenge{
			GT:          "gt-value",
			ChallengeID: "challenge-value",
		},
	})

	assert.Contains(t, html, `"id":"sess-1"`)
	assert.Contains(t, html, `"stage":"captcha"`)
	assert.Contains(t, html, "gt-value")
	assert.Contains(t, html, "window.__hoyoauth")
}

func TestRender_LocalizedStrings(t *testing.T) {
	t.Parallel()

	loc, err := i18n.New(
		i18n.WithTranslations("ru", map[string]string{
			i18n.KeyLoginButton: "Войти",
		}),
	)
	require.NoError(t, err)

	r, err := loginpage.NewRenderer(loginpage.WithLocalizer(loc))
	require.NoError(t, err)

	html := renderToString(t, r, session.PartialSession{ID: "sess-1", Language: "ru"})
	assert.Contains(t, html, "Войти")

	// Unknown language falls back to the English catalog.
	fallback := renderToString(t, r, session.PartialSession{ID: "sess-1", Language: "xx"})
	assert.NotContains(t, fallback, "Войти")
}

func TestRender_StyleApplied(t *testing.T) {
	t.Parallel()

	r, err := loginpage.NewRenderer(loginpage.WithStyle(loginpage.Style{
		Color:     loginpage.ColorPurple,
		ThemeMode: loginpage.ThemeDark,
	}))
	require.NoError(t, err)

	html := renderToString(t, r, session.PartialSession{ID: "sess-1"})
	assert.Contains(t, html, "purple")
	assert.Contains(t, html, "dark")
}

func TestNewRenderer_RejectsInvalidStyle(t *testing.T) {
	t.Parallel()

	_, err := loginpage.NewRenderer(loginpage.WithStyle(loginpage.Style{
		Color:     "magenta",
		ThemeMode: loginpage.ThemeAuto,
	}))
	assert.Error(t, err)

	_, err = loginpage.NewRenderer(loginpage.WithStyle(loginpage.Style{
		Color:     loginpage.ColorBlue,
		ThemeMode: "sepia",
	}))
	assert.Error(t, err)
}

func TestRender_EscapesHostileSessionValues(t *testing.T) {
	t.Parallel()

	r, err := loginpage.NewRenderer()
	require.NoError(t, err)

	html := renderToString(t, r, session.PartialSession{
		ID: "sess-1",
		Ticket: &session.EmailTicket{
			ID:    "ticket-1",
			Email: `</script><script>alert(1)</script>`,
		},
	})

	assert.NotContains(t, html, "<script>alert(1)</script>")
}

func TestRender_CustomTemplate(t *testing.T) {
	t.Parallel()

	tmpl := template.Must(template.New("page").Parse(`custom:{{.Language}}`))
	r, err := loginpage.NewRenderer(loginpage.WithTemplate(tmpl))
	require.NoError(t, err)

	html := renderToString(t, r, session.PartialSession{ID: "sess-1", Language: "de"})
	assert.Equal(t, "custom:de", html)
}

func TestRender_BrokenTemplateWritesNothing(t *testing.T) {
	t.Parallel()

	tmpl := template.Must(template.New("page").Parse(`{{.NoSuchField}}`))
	r, err := loginpage.NewRenderer(loginpage.WithTemplate(tmpl))
	require.NoError(t, err)

	var buf strings.Builder
	err = r.Render(&buf, session.PartialSession{ID: "sess-1"})
	require.Error(t, err)
	assert.Empty(t, buf.String(), "rendering is buffered, failures leave no partial output")
}

func TestGeetestLang(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "zh-cn", loginpage.GeetestLang("zh-cn"))
	assert.Equal(t, "ru", loginpage.GeetestLang("ru"))
	assert.Equal(t, "en", loginpage.GeetestLang("en-us"), "unsupported codes fall back to English")
	assert.Equal(t, "en", loginpage.GeetestLang(""))
}

func TestStyle_Validate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, loginpage.DefaultStyle().Validate())
	assert.Error(t, loginpage.Style{Color: "", ThemeMode: loginpage.ThemeAuto}.Validate())
	assert.Error(t, loginpage.Style{Color: loginpage.ColorRed, ThemeMode: ""}.Validate())
}
