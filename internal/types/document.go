package types

// Document is one candidate HTML input, fed verbatim to the target's stdin.
type Document string

// Seed is a named starting document from the corpus.
type Seed struct {
	Name string   `yaml:"name"`
	HTML Document `yaml:"html"`
}
