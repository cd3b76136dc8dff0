package i18n_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/hoyoauth/core/i18n"
)

func TestNew_BuiltinCatalog(t *testing.T) {
	t.Parallel()

	loc, err := i18n.New()
	require.NoError(t, err)

	assert.Equal(t, i18n.DefaultLang, loc.DefaultLanguage())
	assert.Equal(t, []string{"en"}, loc.Languages())
	assert.NotEqual(t, i18n.KeyLoginButton, loc.T("en", i18n.KeyLoginButton),
		"built-in keys must resolve to real messages")
}

func TestT_FallbackToDefaultLanguage(t *testing.T) {
	t.Parallel()

	loc, err := i18n.New(
		i18n.WithTranslations("ru", map[string]string{
			i18n.KeyLoginButton: "Войти",
		}),
	)
	require.NoError(t, err)

	assert.Equal(t, "Войти", loc.T("ru", i18n.KeyLoginButton))
	// Keys missing in ru fall back to the English catalog.
	assert.Equal(t, loc.T("en", i18n.KeyClose), loc.T("ru", i18n.KeyClose))
}

func TestT_UnknownKeyStaysVisible(t *testing.T) {
	t.Parallel()

	loc, err := i18n.New()
	require.NoError(t, err)

	assert.Equal(t, "no_such_key", loc.T("en", "no_such_key"))
}

func TestT_Placeholders(t *testing.T) {
	t.Parallel()

	loc, err := i18n.New(
		i18n.WithTranslations("en", map[string]string{
			"greeting": "Hello, {name}! You have {count} messages.",
		}),
	)
	require.NoError(t, err)

	got := loc.T("en", "greeting", i18n.M{"name": "Alice", "count": 3})
	assert.Equal(t, "Hello, Alice! You have 3 messages.", got)

	// Later maps override earlier ones.
	got = loc.T("en", "greeting", i18n.M{"name": "Alice", "count": 3}, i18n.M{"name": "Bob"})
	assert.Equal(t, "Hello, Bob! You have 3 messages.", got)
}

func TestT_OverrideBuiltinMessage(t *testing.T) {
	t.Parallel()

	loc, err := i18n.New(
		i18n.WithTranslations("en", map[string]string{
			i18n.KeyLoginButton: "Sign in now",
		}),
	)
	require.NoError(t, err)

	assert.Equal(t, "Sign in now", loc.T("en", i18n.KeyLoginButton))
}

func TestLanguages_DefaultFirstRestSorted(t *testing.T) {
	t.Parallel()

	loc, err := i18n.New(
		i18n.WithTranslations("zh-cn", map[string]string{"k": "v"}),
		i18n.WithTranslations("ja-jp", map[string]string{"k": "v"}),
		i18n.WithTranslations("ru", map[string]string{"k": "v"}),
	)
	require.NoError(t, err)

	assert.Equal(t, []string{"en", "ja-jp", "ru", "zh-cn"}, loc.Languages())
}

func TestWithDefaultLanguage(t *testing.T) {
	t.Parallel()

	loc, err := i18n.New(
		i18n.WithDefaultLanguage("ja-jp"),
		i18n.WithTranslations("ja-jp", map[string]string{"only_ja": "こんにちは"}),
	)
	require.NoError(t, err)

	assert.Equal(t, "ja-jp", loc.DefaultLanguage())
	assert.Equal(t, "こんにちは", loc.T("de", "only_ja"), "fallback targets the configured default")
}

func TestNew_OptionValidation(t *testing.T) {
	t.Parallel()

	_, err := i18n.New(i18n.WithDefaultLanguage(""))
	assert.Error(t, err)

	_, err = i18n.New(i18n.WithTranslations("", map[string]string{"k": "v"}))
	assert.Error(t, err)

	_, err = i18n.New(i18n.WithTranslations("en", map[string]string{"": "v"}))
	assert.Error(t, err)
}
