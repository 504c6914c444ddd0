package mutate

import (
	"fmt"
	"strings"

	"htmlfuzz/internal/types"
)

// Rand is the randomness a mutator needs. *math/rand/v2.Rand satisfies it.
type Rand interface {
	// IntN returns a uniform value in [0, n). n must be > 0.
	IntN(n int) int
}

// Mutator produces a structurally different but still well-formed document.
// Mutators never fail: without an anchor they return the input unchanged.
type Mutator interface {
	Name() string
	Mutate(doc types.Document, r Rand) types.Document
}

var (
	// DefaultTags are the generic HTML5 containers used by tag-picking mutators.
	DefaultTags = []string{
		"div", "span", "p", "section", "article", "nav", "header", "footer",
		"main", "aside", "figure", "figcaption", "mark", "time", "progress",
	}

	// DefaultAttributes are the attribute names AddAttributes may emit.
	DefaultAttributes = []string{
		"id", "class", "style", "title", "lang", "dir", "tabindex",
		"data-test", "role", "aria-label",
	}

	fillerWords = []string{"lorem", "ipsum", "dolor", "sit", "amet", "consectetur", "adipiscing", "elit"}

	unicodeSamples = []string{
		"Hello 你好 สวัสดี नमस्ते",
		"Multiple Scripts العربية עברית",
		"Emojis 👋 🌍 🌟 ♥️",
	}

	structureSnippets = []string{
		"<header><h1>Header</h1></header>",
		"<nav><ul><li>Nav Item</li></ul></nav>",
		"<main><article><section>Content</section></article></main>",
		"<footer><p>Footer</p></footer>",
	}
)

const (
	attrValueAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789-_"
	elementContent    = "Valid Content"
	nestedContent     = "Deep nested content"

	minDepth, maxDepth       = 5, 15 // inclusive
	minWords, maxWords       = 50, 150
	minAttrs, maxAttrs       = 1, 5 // inclusive
	minValueLen, maxValueLen = 10, 60
)

// Defaults returns the full mutator set with the default whitelists.
func Defaults() []Mutator {
	return []Mutator{
		AddElement{},
		AddDeepNesting{},
		AddLongContent{},
		AddAttributes{},
		AddUnicode{},
		AddStructure{},
	}
}

func pick(list []string, r Rand) string {
	return list[r.IntN(len(list))]
}

func tagsOrDefault(tags []string) []string {
	if len(tags) == 0 {
		return DefaultTags
	}
	return tags
}

// AddElement wraps placeholder text in one whitelisted tag.
type AddElement struct {
	Tags []string
}

func (AddElement) Name() string { return "add_element" }

func (m AddElement) Mutate(doc types.Document, r Rand) types.Document {
	if !HasAnchor(doc) {
		return doc
	}
	tag := pick(tagsOrDefault(m.Tags), r)
	return InsertIntoBody(doc, fmt.Sprintf("<%s>%s</%s>", tag, elementContent, tag))
}

// AddDeepNesting opens a chain of 5..15 random tags and closes them in
// reverse order.
type AddDeepNesting struct {
	Tags []string
}

func (AddDeepNesting) Name() string { return "add_deep_nesting" }

func (m AddDeepNesting) Mutate(doc types.Document, r Rand) types.Document {
	if !HasAnchor(doc) {
		return doc
	}
	tags := tagsOrDefault(m.Tags)
	depth := minDepth + r.IntN(maxDepth-minDepth+1)

	stack := make([]string, 0, depth)
	var b strings.Builder
	for range depth {
		tag := pick(tags, r)
		b.WriteString("<" + tag + ">")
		stack = append(stack, tag)
	}
	b.WriteString(nestedContent)
	for i := len(stack) - 1; i >= 0; i-- {
		b.WriteString("</" + stack[i] + ">")
	}
	return InsertIntoBody(doc, b.String())
}

// AddLongContent inserts a div with 50..149 filler words.
type AddLongContent struct{}

func (AddLongContent) Name() string { return "add_long_content" }

func (AddLongContent) Mutate(doc types.Document, r Rand) types.Document {
	if !HasAnchor(doc) {
		return doc
	}
	n := minWords + r.IntN(maxWords-minWords)
	var b strings.Builder
	b.WriteString("<div>")
	for range n {
		b.WriteString(pick(fillerWords, r))
		b.WriteByte(' ')
	}
	b.WriteString("</div>")
	return InsertIntoBody(doc, b.String())
}

// AddAttributes inserts one element carrying 1..5 whitelisted attributes
// with random alphanumeric values.
type AddAttributes struct {
	Tags       []string
	Attributes []string
}

func (AddAttributes) Name() string { return "add_attributes" }

func (m AddAttributes) Mutate(doc types.Document, r Rand) types.Document {
	if !HasAnchor(doc) {
		return doc
	}
	names := m.Attributes
	if len(names) == 0 {
		names = DefaultAttributes
	}
	tag := pick(tagsOrDefault(m.Tags), r)

	var attrs strings.Builder
	count := minAttrs + r.IntN(maxAttrs-minAttrs+1)
	for range count {
		fmt.Fprintf(&attrs, ` %s="%s"`, pick(names, r), attributeValue(r))
	}
	return InsertIntoBody(doc, fmt.Sprintf("<%s%s>%s</%s>", tag, attrs.String(), elementContent, tag))
}

func attributeValue(r Rand) string {
	n := minValueLen + r.IntN(maxValueLen-minValueLen)
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = attrValueAlphabet[r.IntN(len(attrValueAlphabet))]
	}
	return string(buf)
}

// AddUnicode inserts a div with mixed-script and emoji text.
type AddUnicode struct{}

func (AddUnicode) Name() string { return "add_unicode" }

func (AddUnicode) Mutate(doc types.Document, r Rand) types.Document {
	if !HasAnchor(doc) {
		return doc
	}
	return InsertIntoBody(doc, "<div>"+pick(unicodeSamples, r)+"</div>")
}

// AddStructure inserts one of the fixed page-structure snippets.
type AddStructure struct{}

func (AddStructure) Name() string { return "add_structure" }

func (AddStructure) Mutate(doc types.Document, r Rand) types.Document {
	if !HasAnchor(doc) {
		return doc
	}
	return InsertIntoBody(doc, pick(structureSnippets, r))
}
