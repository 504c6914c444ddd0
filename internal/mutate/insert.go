package mutate

import "htmlfuzz/internal/types"

const bodyTag = "<body>"

// anchorIndex returns the byte offset just past the first case-insensitive
// "<body>", or -1. Folding is ASCII-only so offsets always line up with the
// original text.
func anchorIndex(doc types.Document) int {
	s := string(doc)
	for i := 0; i+len(bodyTag) <= len(s); i++ {
		if s[i] != '<' {
			continue
		}
		if equalFoldASCII(s[i:i+len(bodyTag)], bodyTag) {
			return i + len(bodyTag)
		}
	}
	return -1
}

func equalFoldASCII(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

// HasAnchor reports whether doc contains an opening body tag to insert after.
func HasAnchor(doc types.Document) bool {
	return anchorIndex(doc) >= 0
}

// InsertIntoBody splices content right after the first opening body tag.
// Documents without one are returned unchanged.
func InsertIntoBody(doc types.Document, content string) types.Document {
	at := anchorIndex(doc)
	if at < 0 {
		return doc
	}
	s := string(doc)
	return types.Document(s[:at] + content + s[at:])
}
