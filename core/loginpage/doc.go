// Package loginpage renders the browser-facing login page for a session.
//
// The renderer fills an html/template with the session's client-safe view,
// the configured style (accent color, theme mode) and localized strings
// from core/i18n. Hosts either serve the output directly or swap the
// template entirely:
//
//	renderer, err := loginpage.NewRenderer(
//		loginpage.WithStyle(loginpage.Style{
//			Color:     loginpage.ColorPurple,
//			ThemeMode: loginpage.ThemeDark,
//		}),
//		loginpage.WithCallbackURL("https://app.example.com/welcome"),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	var buf bytes.Buffer
//	if err := renderer.Render(&buf, sess.Partial()); err != nil {
//		log.Fatal(err)
//	}
//
// Only the PartialSession view ever reaches the page: credentials and the
// issued login result stay server-side.
package loginpage
