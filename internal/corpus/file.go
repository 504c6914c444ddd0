package corpus

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"htmlfuzz/config"
	"htmlfuzz/internal/types"

	"gopkg.in/yaml.v3"
)

// FileSeedGrabber reads seeds from a YAML corpus file:
//
//	seeds:
//	  - name: inline
//	    html: "<html><body></body></html>"
//	  - name: from-disk
//	    file: pages/login.html
//
// Relative file entries resolve against the corpus file's directory.
type FileSeedGrabber struct {
	path string
}

type corpusFile struct {
	Seeds []corpusEntry `yaml:"seeds"`
}

type corpusEntry struct {
	Name string `yaml:"name"`
	HTML string `yaml:"html"`
	File string `yaml:"file"`
}

// NewFileSeedGrabber returns nil when no corpus file is configured.
func NewFileSeedGrabber(cfg *config.AppConfig) *FileSeedGrabber {
	if cfg.CorpusFile == "" {
		return nil
	}
	return &FileSeedGrabber{path: cfg.CorpusFile}
}

func (f *FileSeedGrabber) String() string {
	return "file:" + f.path
}

func (f *FileSeedGrabber) GrabSeeds() ([]types.Seed, error) {
	raw, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read corpus file: %w", err)
	}

	var parsed corpusFile
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&parsed); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse corpus file %s: %w", f.path, err)
	}
	if len(parsed.Seeds) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoSeeds, f.path)
	}

	baseDir := filepath.Dir(f.path)
	seeds := make([]types.Seed, 0, len(parsed.Seeds))
	for i, entry := range parsed.Seeds {
		name := strings.TrimSpace(entry.Name)
		if name == "" {
			name = fmt.Sprintf("seed-%d", i)
		}

		switch {
		case entry.HTML != "" && entry.File != "":
			return nil, fmt.Errorf("seed %q: html and file are mutually exclusive", name)
		case entry.File != "":
			path := entry.File
			if !filepath.IsAbs(path) {
				path = filepath.Join(baseDir, path)
			}
			doc, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("seed %q: %w", name, err)
			}
			seeds = append(seeds, types.Seed{Name: name, HTML: types.Document(doc)})
		case entry.HTML != "":
			seeds = append(seeds, types.Seed{Name: name, HTML: types.Document(entry.HTML)})
		default:
			return nil, fmt.Errorf("seed %q has no html or file", name)
		}
	}
	return seeds, nil
}
