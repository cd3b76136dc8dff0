package loginpage

// geetestLangs is the language set supported by the captcha widget.
var geetestLangs = map[string]struct{}{
	"zh-cn": {}, "zh-hk": {}, "zh-tw": {}, "en": {}, "ja": {}, "ko": {},
	"id": {}, "ru": {}, "ar": {}, "es": {}, "pt-pt": {}, "fr": {}, "de": {},
	"th": {}, "tr": {}, "vi": {}, "ta": {}, "it": {}, "bn": {}, "mr": {},
}

// GeetestLang maps a session language onto the captcha widget's supported
// set, falling back to English for anything the widget cannot render.
func GeetestLang(language string) string {
	if _, ok := geetestLangs[language]; ok {
		return language
	}
	return "en"
}
