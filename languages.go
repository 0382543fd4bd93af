package glotta

import "strings"

// LanguageNames maps language codes to human-readable names for AI
// prompts. Short ISO codes are the primary form; locale-qualified codes
// resolve through their base language.
var LanguageNames = map[string]string{
	"en": "English",
	"de": "German",
	"es": "Spanish",
	"fr": "French",
	"it": "Italian",
	"pt": "Portuguese",
	"nl": "Dutch",
	"pl": "Polish",
	"cs": "Czech",
	"da": "Danish",
	"el": "Greek",
	"fi": "Finnish",
	"hu": "Hungarian",
	"nb": "Norwegian Bokmål",
	"ro": "Romanian",
	"ru": "Russian",
	"sv": "Swedish",
	"tr": "Turkish",
	"uk": "Ukrainian",
	"ja": "Japanese",
	"ko": "Korean",
	"zh": "Chinese",
	"th": "Thai",
	"vi": "Vietnamese",
	"id": "Indonesian",
	"hi": "Hindi",
	"bn": "Bengali",
	"ar": "Arabic",
	"he": "Hebrew",
	"fa": "Persian",
	"ur": "Urdu",
	"sw": "Swahili",
	"tl": "Tagalog",
}

// RTLLanguages contains language codes that use right-to-left text
// direction.
var RTLLanguages = map[string]bool{
	"ar": true, // Arabic
	"he": true, // Hebrew
	"fa": true, // Persian/Farsi
	"ur": true, // Urdu
	"ps": true, // Pashto
	"sd": true, // Sindhi
	"ug": true, // Uyghur
}

// GetLanguageName returns the human-readable name for a language code,
// accepting both short codes ("he") and locales ("he_IL", "he-IL").
// Falls back to the code itself if unknown.
func GetLanguageName(langCode string) string {
	if name, ok := LanguageNames[langCode]; ok {
		return name
	}
	if name, ok := LanguageNames[baseLang(langCode)]; ok {
		return name
	}
	return langCode
}

// GetDirection returns "rtl" for right-to-left languages, "ltr" otherwise.
func GetDirection(langCode string) string {
	if RTLLanguages[baseLang(langCode)] {
		return "rtl"
	}
	return "ltr"
}

// IsRTL returns true if the language uses right-to-left text direction.
func IsRTL(langCode string) bool {
	return GetDirection(langCode) == "rtl"
}

// NormalizeLocale converts a language code to underscore form
// (e.g. "es-ES" → "es_ES").
func NormalizeLocale(langCode string) string {
	return strings.ReplaceAll(langCode, "-", "_")
}

// ToHTMLLang converts a language code to HTML lang attribute form
// (e.g. "es_ES" → "es-ES").
func ToHTMLLang(langCode string) string {
	return strings.ReplaceAll(langCode, "_", "-")
}

// baseLang extracts the lowercase base language code ("en" from "en_US"
// or "en-US").
func baseLang(langCode string) string {
	base := strings.ReplaceAll(langCode, "-", "_")
	if i := strings.Index(base, "_"); i > 0 {
		base = base[:i]
	}
	return strings.ToLower(base)
}
