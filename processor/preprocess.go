package processor

import "strings"

const (
	// DefaultCodeTag is the opening tag whose content is never translated.
	DefaultCodeTag = "<code>"

	// DefaultCodeSentinel marks the start of a code region. It is removed
	// from the output.
	DefaultCodeSentinel = "@@tlproxy:code@@"
)

// MarkCodeBlocks inserts sentinel immediately after every literal
// occurrence of openTag. Matching is case-sensitive and ignores markup
// structure.
func MarkCodeBlocks(doc, openTag, sentinel string) string {
	if openTag == "" || sentinel == "" {
		return doc
	}
	return strings.ReplaceAll(doc, openTag, openTag+sentinel)
}
