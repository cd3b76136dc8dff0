package i18n

import (
	"fmt"
	"sort"
	"strings"
)

// DefaultLang is the fallback language code used when no default is specified.
const DefaultLang = "en"

// M is a convenience type for placeholder maps used in translations.
type M map[string]any

// Localizer resolves user-visible messages by language with fallback to the
// default language. It is immutable after creation, making it safe for
// concurrent use.
type Localizer struct {
	// Flattened translations map for O(1) lookups, key format "lang:key"
	translations map[string]string
	defaultLang  string
	languages    []string
}

// Option configures the Localizer during construction.
type Option func(*Localizer) error

// New creates a Localizer with the built-in English catalog plus any
// overrides supplied through options. All configuration happens during
// construction, keeping the instance immutable and thread-safe.
func New(opts ...Option) (*Localizer, error) {
	l := &Localizer{
		translations: make(map[string]string, len(defaultCatalog)),
		defaultLang:  DefaultLang,
	}
	for key, msg := range defaultCatalog {
		l.translations[buildKey(DefaultLang, key)] = msg
	}

	for _, opt := range opts {
		if err := opt(l); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if l.defaultLang == "" {
		return nil, fmt.Errorf("default language cannot be empty")
	}

	l.languages = l.buildLanguagesList()
	return l, nil
}

// WithDefaultLanguage sets the fallback language.
func WithDefaultLanguage(lang string) Option {
	return func(l *Localizer) error {
		if lang == "" {
			return fmt.Errorf("language cannot be empty")
		}
		l.defaultLang = lang
		return nil
	}
}

// WithTranslations merges a per-language message catalog. Later options
// override earlier ones, and any built-in English message can be replaced.
//
//	i18n.WithTranslations("ru", i18n.M{
//		"login_failed_message": "Не удалось войти в аккаунт.",
//	})
func WithTranslations(lang string, messages map[string]string) Option {
	return func(l *Localizer) error {
		if lang == "" {
			return fmt.Errorf("language cannot be empty")
		}
		for key, msg := range messages {
			if key == "" {
				return fmt.Errorf("translation key cannot be empty")
			}
			l.translations[buildKey(lang, key)] = msg
		}
		return nil
	}
}

// T resolves a message key for a language, replacing {placeholder} tokens
// with values from the provided maps. Unknown keys resolve to the key
// itself, which keeps missing translations visible instead of silent.
func (l *Localizer) T(lang, key string, placeholders ...M) string {
	if msg, ok := l.translations[buildKey(lang, key)]; ok {
		return replacePlaceholders(msg, placeholders...)
	}
	if lang != l.defaultLang {
		if msg, ok := l.translations[buildKey(l.defaultLang, key)]; ok {
			return replacePlaceholders(msg, placeholders...)
		}
	}
	return key
}

// Languages returns all configured languages, default language first and
// the rest sorted alphabetically.
func (l *Localizer) Languages() []string {
	return l.languages
}

// DefaultLanguage returns the configured fallback language code.
func (l *Localizer) DefaultLanguage() string {
	return l.defaultLang
}

func (l *Localizer) buildLanguagesList() []string {
	seen := map[string]bool{l.defaultLang: true}
	others := make([]string, 0)
	for key := range l.translations {
		lang, _, ok := strings.Cut(key, ":")
		if !ok || seen[lang] {
			continue
		}
		seen[lang] = true
		others = append(others, lang)
	}
	sort.Strings(others)
	return append([]string{l.defaultLang}, others...)
}

func buildKey(lang, key string) string {
	return lang + ":" + key
}

// replacePlaceholders substitutes {name} tokens with values from the maps.
// Later maps take precedence over earlier ones.
func replacePlaceholders(msg string, placeholders ...M) string {
	if len(placeholders) == 0 {
		return msg
	}
	merged := make(M)
	for _, m := range placeholders {
		for k, v := range m {
			merged[k] = v
		}
	}
	for k, v := range merged {
		msg = strings.ReplaceAll(msg, "{"+k+"}", fmt.Sprint(v))
	}
	return msg
}
