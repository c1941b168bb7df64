package tlproxy

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"
)

// TranslateAll translates texts into lang with at most the configured
// number of concurrent provider calls. Identical fragments (after trimming)
// are sent once. The result has one entry per input, in input order,
// regardless of completion order.
func (t *Translator) TranslateAll(ctx context.Context, texts []string, lang string, kind ProviderKind) []string {
	results := make([]string, len(texts))
	copy(results, texts)

	if kind == ProviderNone || IsDefaultLang(lang) || len(texts) == 0 {
		return results
	}

	// Group input positions by fragment, keeping first-seen order
	positions := make(map[string][]int)
	var order []string
	for i, text := range texts {
		key := strings.TrimSpace(text)
		if key == "" {
			continue
		}
		if _, seen := positions[key]; !seen {
			order = append(order, key)
		}
		positions[key] = append(positions[key], i)
	}

	translated := make([]string, len(order))
	var g errgroup.Group
	g.SetLimit(t.concurrency)
	for i, key := range order {
		g.Go(func() error {
			translated[i] = t.Translate(ctx, key, lang, kind)
			return nil
		})
	}
	_ = g.Wait() // Translate never fails; errors are fragment-local

	for i, key := range order {
		if translated[i] == key {
			continue
		}
		for _, idx := range positions[key] {
			results[idx] = preserveWhitespace(texts[idx], translated[i])
		}
	}

	return results
}

// Verify Translator implements FragmentTranslator
var _ FragmentTranslator = (*Translator)(nil)
