package tlproxy

import "strings"

// deeplLanguages lists DeepL target languages (upper-case, region variants
// joined with "-"), as published in the DeepL API documentation.
var deeplLanguages = map[string]bool{
	"AR": true, "BG": true, "CS": true, "DA": true, "DE": true, "EL": true,
	"EN": true, "EN-GB": true, "EN-US": true, "ES": true, "ES-419": true,
	"ET": true, "FI": true, "FR": true, "HU": true, "ID": true, "IT": true,
	"JA": true, "KO": true, "LT": true, "LV": true, "NB": true, "NL": true,
	"PL": true, "PT": true, "PT-BR": true, "PT-PT": true, "RO": true,
	"RU": true, "SK": true, "SL": true, "SV": true, "TR": true, "UK": true,
	"ZH": true, "ZH-HANS": true, "ZH-HANT": true,
}

// googleLanguages lists Google Translate v2 codes (lower-case ISO 639-1 with
// a few region variants).
var googleLanguages = map[string]bool{
	"af": true, "sq": true, "am": true, "ar": true, "hy": true, "az": true,
	"eu": true, "be": true, "bn": true, "bs": true, "bg": true, "ca": true,
	"ceb": true, "ny": true, "zh-cn": true, "zh-tw": true, "co": true,
	"hr": true, "cs": true, "da": true, "nl": true, "en": true, "eo": true,
	"et": true, "tl": true, "fi": true, "fr": true, "fy": true, "gl": true,
	"ka": true, "de": true, "el": true, "gu": true, "ht": true, "ha": true,
	"haw": true, "iw": true, "he": true, "hi": true, "hmn": true, "hu": true,
	"is": true, "ig": true, "id": true, "ga": true, "it": true, "ja": true,
	"jw": true, "kn": true, "kk": true, "km": true, "ko": true, "ku": true,
	"ky": true, "lo": true, "la": true, "lv": true, "lt": true, "lb": true,
	"mk": true, "mg": true, "ms": true, "ml": true, "mt": true, "mi": true,
	"mr": true, "mn": true, "my": true, "ne": true, "no": true, "ps": true,
	"fa": true, "pl": true, "pt": true, "pa": true, "ro": true, "ru": true,
	"sm": true, "gd": true, "sr": true, "st": true, "sn": true, "sd": true,
	"si": true, "sk": true, "sl": true, "so": true, "es": true, "su": true,
	"sw": true, "sv": true, "tg": true, "ta": true, "te": true, "th": true,
	"tr": true, "uk": true, "ur": true, "uz": true, "vi": true, "cy": true,
	"xh": true, "yi": true, "yo": true, "zu": true,
}

// LanguageNames maps locale codes to human-readable names. It doubles as the
// OpenAI registry and feeds the language toolbar.
var LanguageNames = map[string]string{
	"en_US": "English (United States)",
	"en_GB": "English (United Kingdom)",
	"de_DE": "German (Germany)",
	"es_ES": "Spanish (Spain)",
	"es_MX": "Spanish (Mexico)",
	"fr_FR": "French (France)",
	"it_IT": "Italian (Italy)",
	"ja_JP": "Japanese (Japan)",
	"pt_BR": "Portuguese (Brazil)",
	"pt_PT": "Portuguese (Portugal)",
	"zh_CN": "Chinese (Simplified)",
	"zh_TW": "Chinese (Traditional)",
	"ar_SA": "Arabic (Saudi Arabia)",
	"bn_BD": "Bengali (Bangladesh)",
	"cs_CZ": "Czech (Czech Republic)",
	"da_DK": "Danish (Denmark)",
	"el_GR": "Greek (Greece)",
	"fi_FI": "Finnish (Finland)",
	"he_IL": "Hebrew (Israel)",
	"hi_IN": "Hindi (India)",
	"hu_HU": "Hungarian (Hungary)",
	"id_ID": "Indonesian (Indonesia)",
	"ko_KR": "Korean (South Korea)",
	"nl_NL": "Dutch (Netherlands)",
	"nb_NO": "Norwegian Bokmål (Norway)",
	"pl_PL": "Polish (Poland)",
	"ro_RO": "Romanian (Romania)",
	"ru_RU": "Russian (Russia)",
	"sv_SE": "Swedish (Sweden)",
	"th_TH": "Thai (Thailand)",
	"tr_TR": "Turkish (Turkey)",
	"uk_UA": "Ukrainian (Ukraine)",
	"vi_VN": "Vietnamese (Vietnam)",
}

// ShortCodeToLocale maps short language codes to full locale codes.
var ShortCodeToLocale = map[string]string{
	"en": "en_US",
	"de": "de_DE",
	"es": "es_ES",
	"fr": "fr_FR",
	"it": "it_IT",
	"ja": "ja_JP",
	"pt": "pt_BR",
	"zh": "zh_CN",
	"ko": "ko_KR",
	"ru": "ru_RU",
	"ar": "ar_SA",
	"he": "he_IL",
	"hi": "hi_IN",
	"nl": "nl_NL",
	"pl": "pl_PL",
	"tr": "tr_TR",
	"vi": "vi_VN",
	"sv": "sv_SE",
	"da": "da_DK",
	"fi": "fi_FI",
	"uk": "uk_UA",
}

// NormalizeCode converts code to the casing convention of kind:
// DeepL "PT-BR", Google "pt-br", OpenAI "pt_BR".
func NormalizeCode(kind ProviderKind, code string) string {
	code = strings.ReplaceAll(strings.TrimSpace(code), "_", "-")
	switch kind {
	case ProviderDeepL:
		return strings.ToUpper(code)
	case ProviderGoogle:
		return strings.ToLower(code)
	case ProviderOpenAI:
		base, region, ok := strings.Cut(code, "-")
		if !ok {
			return strings.ToLower(base)
		}
		return strings.ToLower(base) + "_" + strings.ToUpper(region)
	default:
		return code
	}
}

// Supports reports whether kind can translate into code. The code is
// normalized to the provider's casing first.
func Supports(kind ProviderKind, code string) bool {
	code = NormalizeCode(kind, code)
	switch kind {
	case ProviderDeepL:
		return deeplLanguages[code]
	case ProviderGoogle:
		return googleLanguages[code]
	case ProviderOpenAI:
		if _, ok := LanguageNames[code]; ok {
			return true
		}
		_, ok := ShortCodeToLocale[code]
		return ok
	default:
		return false
	}
}

// BaseLang extracts the lower-case language subtag ("pt" from "PT-BR").
func BaseLang(code string) string {
	base, _, _ := strings.Cut(strings.ReplaceAll(strings.TrimSpace(code), "_", "-"), "-")
	return strings.ToLower(base)
}

// IsDefaultLang reports whether code names the untranslated source language,
// regardless of casing or region ("en", "EN-GB", "en_US").
func IsDefaultLang(code string) bool {
	return BaseLang(code) == BaseLang(DefaultLang)
}

// GetLanguageName returns the human-readable name for a language code.
// Falls back to the code itself if not found.
func GetLanguageName(langCode string) string {
	if name, ok := LanguageNames[NormalizeCode(ProviderOpenAI, langCode)]; ok {
		return name
	}
	// Try expanding short code
	if locale, ok := ShortCodeToLocale[BaseLang(langCode)]; ok {
		if name, ok := LanguageNames[locale]; ok {
			return name
		}
	}
	return langCode
}

// GetDirection returns "rtl" for right-to-left languages, "ltr" otherwise.
func GetDirection(langCode string) string {
	if RTLLanguages[BaseLang(langCode)] {
		return "rtl"
	}
	return "ltr"
}

// IsRTL returns true if the language uses right-to-left text direction.
func IsRTL(langCode string) bool {
	return GetDirection(langCode) == "rtl"
}

// ToHTMLLang converts a language code to the HTML lang attribute format
// (e.g., "PT_BR" → "pt-BR").
func ToHTMLLang(langCode string) string {
	base, region, ok := strings.Cut(strings.ReplaceAll(strings.TrimSpace(langCode), "_", "-"), "-")
	if !ok {
		return strings.ToLower(base)
	}
	return strings.ToLower(base) + "-" + strings.ToUpper(region)
}
