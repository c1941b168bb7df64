package tlproxy

// Select picks the provider for requested following the fixed priority
// order DeepL, Google, OpenAI. For each provider with a usable credential the
// full code is checked first, then its two-letter language prefix. The
// returned code is in the chosen provider's casing. When nothing matches the
// result is (ProviderNone, DefaultLang).
func Select(requested string, creds Credentials) (ProviderKind, string) {
	for _, kind := range providerPriority {
		if !creds.Usable(kind) {
			continue
		}
		if code, ok := match(kind, requested); ok {
			return kind, code
		}
	}
	return ProviderNone, DefaultLang
}

// match checks code, then its language-only prefix, against kind's registry.
func match(kind ProviderKind, code string) (string, bool) {
	full := NormalizeCode(kind, code)
	if full == "" {
		return "", false
	}
	if Supports(kind, full) {
		return full, true
	}
	if len(full) > 2 {
		prefix := NormalizeCode(kind, full[:2])
		if Supports(kind, prefix) {
			return prefix, true
		}
	}
	return "", false
}
