package tlproxy

import "testing"

func TestNormalizeCode(t *testing.T) {
	tests := []struct {
		kind     ProviderKind
		code     string
		expected string
	}{
		{ProviderDeepL, "pt-br", "PT-BR"},
		{ProviderDeepL, "pt_BR", "PT-BR"},
		{ProviderGoogle, "ZH-TW", "zh-tw"},
		{ProviderOpenAI, "es-mx", "es_MX"},
		{ProviderOpenAI, "FR", "fr"},
		{ProviderNone, " de ", "de"},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String()+"/"+tt.code, func(t *testing.T) {
			result := NormalizeCode(tt.kind, tt.code)
			if result != tt.expected {
				t.Errorf("NormalizeCode(%v, %q) = %q, want %q", tt.kind, tt.code, result, tt.expected)
			}
		})
	}
}

func TestSupports(t *testing.T) {
	tests := []struct {
		kind     ProviderKind
		code     string
		expected bool
	}{
		{ProviderDeepL, "de", true},
		{ProviderDeepL, "EN-GB", true},
		{ProviderDeepL, "sw", false},
		{ProviderGoogle, "SW", true},
		{ProviderGoogle, "zh-CN", true},
		{ProviderGoogle, "pt-br", false},
		{ProviderOpenAI, "ja", true},
		{ProviderOpenAI, "ja-JP", true},
		{ProviderOpenAI, "xx", false},
		{ProviderNone, "de", false},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String()+"/"+tt.code, func(t *testing.T) {
			if got := Supports(tt.kind, tt.code); got != tt.expected {
				t.Errorf("Supports(%v, %q) = %v, want %v", tt.kind, tt.code, got, tt.expected)
			}
		})
	}
}

func TestIsDefaultLang(t *testing.T) {
	for _, code := range []string{"EN", "en", "en-US", "EN_GB"} {
		if !IsDefaultLang(code) {
			t.Errorf("IsDefaultLang(%q) should be true", code)
		}
	}
	for _, code := range []string{"de", "", "eo"} {
		if IsDefaultLang(code) {
			t.Errorf("IsDefaultLang(%q) should be false", code)
		}
	}
}

func TestGetLanguageName(t *testing.T) {
	tests := []struct {
		code     string
		expected string
	}{
		{"es_ES", "Spanish (Spain)"},
		{"ja-JP", "Japanese (Japan)"},
		{"DE", "German (Germany)"}, // short code expansion
		{"unknown", "unknown"},     // fallback
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			result := GetLanguageName(tt.code)
			if result != tt.expected {
				t.Errorf("GetLanguageName(%q) = %q, want %q", tt.code, result, tt.expected)
			}
		})
	}
}

func TestGetDirection(t *testing.T) {
	tests := []struct {
		code     string
		expected string
	}{
		{"AR", "rtl"},
		{"he_IL", "rtl"},
		{"fa", "rtl"},
		{"de", "ltr"},
		{"EN-US", "ltr"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			result := GetDirection(tt.code)
			if result != tt.expected {
				t.Errorf("GetDirection(%q) = %q, want %q", tt.code, result, tt.expected)
			}
		})
	}
}

func TestIsRTL(t *testing.T) {
	if !IsRTL("ar") {
		t.Error("IsRTL(ar) should be true")
	}
	if IsRTL("EN") {
		t.Error("IsRTL(EN) should be false")
	}
}

func TestToHTMLLang(t *testing.T) {
	tests := map[string]string{
		"PT-BR": "pt-BR",
		"es_ES": "es-ES",
		"DE":    "de",
	}
	for in, want := range tests {
		if got := ToHTMLLang(in); got != want {
			t.Errorf("ToHTMLLang(%q) = %q, want %q", in, got, want)
		}
	}
}
