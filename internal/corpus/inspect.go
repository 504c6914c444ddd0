package corpus

import (
	"errors"
	"io"
	"strings"

	"htmlfuzz/internal/mutate"
	"htmlfuzz/internal/types"

	"golang.org/x/net/html"
)

// SeedInfo is what tokenizing a seed reveals before it is fuzzed.
type SeedInfo struct {
	Elements int  // start and self-closing tags
	HasBody  bool // a body start tag exists, with or without attributes
	Anchored bool // the literal <body> insertion point exists
}

func Inspect(doc types.Document) (SeedInfo, error) {
	info := SeedInfo{Anchored: mutate.HasAnchor(doc)}

	z := html.NewTokenizer(strings.NewReader(string(doc)))
	for {
		switch z.Next() {
		case html.ErrorToken:
			if err := z.Err(); !errors.Is(err, io.EOF) {
				return info, err
			}
			return info, nil
		case html.StartTagToken, html.SelfClosingTagToken:
			info.Elements++
			name, _ := z.TagName()
			if string(name) == "body" {
				info.HasBody = true
			}
		}
	}
}
