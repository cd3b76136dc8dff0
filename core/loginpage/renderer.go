package loginpage

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"

	"github.com/dmitrymomot/hoyoauth/core/i18n"
	"github.com/dmitrymomot/hoyoauth/core/session"
)

//go:embed assets/login.html
var assets embed.FS

// Strings carries the localized text slots of the login page.
type Strings struct {
	PageTitle                    string
	LoginTitle                   string
	LoginDescription             template.HTML
	EmailLabel                   string
	PasswordLabel                string
	LoginButton                  string
	Close                        string
	EmailVerificationTitle       string
	EmailVerificationDescription string
	CompleteTitle                string
	CompleteDescription          string
}

// PageData is everything the login page template consumes.
type PageData struct {
	Language     string
	Style        Style
	T            Strings
	// SessionJSON is the client-safe session view, pre-encoded so the
	// template embeds it as an object literal rather than a quoted string.
	SessionJSON  template.JS
	APILoginPath string
	CallbackURL  string
	JSPath       string
	GeetestLang  string
}

// Renderer produces the login page HTML for a session. Rendering is
// buffered so a template fault never leaves a half-written page behind.
type Renderer struct {
	tmpl         *template.Template
	localizer    *i18n.Localizer
	style        Style
	apiLoginPath string
	callbackURL  string
	jsPath       string
}

// RendererOption configures a Renderer.
type RendererOption func(*Renderer) error

// WithStyle sets the page accent color and theme mode.
func WithStyle(style Style) RendererOption {
	return func(r *Renderer) error {
		if err := style.Validate(); err != nil {
			return err
		}
		r.style = style
		return nil
	}
}

// WithTemplate replaces the built-in page template. The template receives
// a PageData value.
func WithTemplate(tmpl *template.Template) RendererOption {
	return func(r *Renderer) error {
		if tmpl == nil {
			return fmt.Errorf("template cannot be nil")
		}
		r.tmpl = tmpl
		return nil
	}
}

// WithLocalizer sets the message catalog used to fill the page's text slots.
func WithLocalizer(loc *i18n.Localizer) RendererOption {
	return func(r *Renderer) error {
		if loc == nil {
			return fmt.Errorf("localizer cannot be nil")
		}
		r.localizer = loc
		return nil
	}
}

// WithAPILoginPath sets the path the page's script submits steps to.
func WithAPILoginPath(path string) RendererOption {
	return func(r *Renderer) error {
		r.apiLoginPath = path
		return nil
	}
}

// WithCallbackURL sets where the browser is redirected after success.
// The session id is appended as a query parameter by the page script.
func WithCallbackURL(url string) RendererOption {
	return func(r *Renderer) error {
		r.callbackURL = url
		return nil
	}
}

// WithJSPath sets the URL of the captcha widget script bundle.
func WithJSPath(path string) RendererOption {
	return func(r *Renderer) error {
		r.jsPath = path
		return nil
	}
}

// NewRenderer creates a login page renderer with the built-in template,
// default style and English catalog unless overridden by options.
func NewRenderer(opts ...RendererOption) (*Renderer, error) {
	tmpl, err := template.ParseFS(assets, "assets/login.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse built-in login page: %w", err)
	}

	r := &Renderer{
		tmpl:         tmpl,
		style:        DefaultStyle(),
		apiLoginPath: "/api/login",
		jsPath:       "/js.js",
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	if r.localizer == nil {
		loc, err := i18n.New()
		if err != nil {
			return nil, err
		}
		r.localizer = loc
	}
	return r, nil
}

// Render writes the login page for the session's client-safe view. The
// page embeds the partial session as JSON so the script can resume at the
// correct step after a reload.
func (r *Renderer) Render(w io.Writer, partial session.PartialSession) error {
	raw, err := json.Marshal(partial)
	if err != nil {
		return fmt.Errorf("failed to encode session for login page: %w", err)
	}

	lang := partial.Language
	t := func(key string) string { return r.localizer.T(lang, key) }

	data := PageData{
		Language: lang,
		Style:    r.style,
		T: Strings{
			PageTitle:                    t(i18n.KeyLoginPageTitle),
			LoginTitle:                   t(i18n.KeyLoginTitle),
			LoginDescription:             template.HTML(t(i18n.KeyLoginDescription)),
			EmailLabel:                   t(i18n.KeyEmailLabel),
			PasswordLabel:                t(i18n.KeyPasswordLabel),
			LoginButton:                  t(i18n.KeyLoginButton),
			Close:                        t(i18n.KeyClose),
			EmailVerificationTitle:       t(i18n.KeyEmailVerificationTitle),
			EmailVerificationDescription: t(i18n.KeyEmailVerificationDescription),
			CompleteTitle:                t(i18n.KeyCompleteTitle),
			CompleteDescription:          t(i18n.KeyCompleteNoCallback),
		},
		SessionJSON:  template.JS(raw),
		APILoginPath: r.apiLoginPath,
		CallbackURL:  r.callbackURL,
		JSPath:       r.jsPath,
		GeetestLang:  GeetestLang(lang),
	}
	if r.callbackURL != "" {
		data.T.CompleteDescription = r.localizer.T(lang, i18n.KeyCompleteDescription, i18n.M{"seconds": 5})
	}

	// Buffer first: template errors must not leak partial output.
	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("failed to render login page: %w", err)
	}
	_, err = w.Write(buf.Bytes())
	return err
}
