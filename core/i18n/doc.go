// Package i18n provides the localized message catalog for user-visible
// login flow text.
//
// A Localizer ships with a complete English catalog and resolves messages
// by language with fallback to the default language. Hosts override
// messages or add languages at construction time:
//
//	loc, err := i18n.New(
//		i18n.WithTranslations("ru", map[string]string{
//			i18n.KeyLoginFailedMessage: "Не удалось войти в аккаунт.",
//		}),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	msg := loc.T("ru", i18n.KeyLoginFailedMessage)
//
// Messages may contain {placeholder} tokens substituted via i18n.M maps.
// The Localizer is immutable after creation and safe for concurrent use.
package i18n
