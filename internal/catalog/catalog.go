// Package catalog holds the static emotion to song recommendation table.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultLanguage is preferred when a session has no usable language choice.
const DefaultLanguage = "English"

//go:embed playlists.yaml
var defaultDocument []byte

// ErrInvalidCatalog is returned when a catalog document breaks an invariant.
var ErrInvalidCatalog = errors.New("invalid catalog")

// Emotion is a lowercase classifier label such as "joy" or "sadness".
type Emotion string

// SongEntry is a single recommended song.
type SongEntry struct {
	Title string `yaml:"title"`
	URL   string `yaml:"url"`
}

// Catalog maps emotions to ordered per-language song lists.
// A Catalog is immutable once loaded and safe for concurrent use.
type Catalog struct {
	emotions []Emotion
	entries  map[Emotion]*emotionEntry
}

type emotionEntry struct {
	languages []string
	songs     map[string][]SongEntry
}

// document is the on-disk YAML layout. Lists are used instead of mappings so
// that language order survives decoding.
type document struct {
	Emotions []struct {
		Label     string `yaml:"label"`
		Languages []struct {
			Name  string      `yaml:"name"`
			Songs []SongEntry `yaml:"songs"`
		} `yaml:"languages"`
	} `yaml:"emotions"`
}

// Default returns the catalog compiled into the binary.
func Default() (*Catalog, error) {
	return Parse(defaultDocument)
}

// Load returns the catalog at path, or the embedded default when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("reading catalog %s: %w", path, err)
	}

	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes and validates a YAML catalog document.
func Parse(data []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding catalog: %w", err)
	}

	c := &Catalog{entries: make(map[Emotion]*emotionEntry, len(doc.Emotions))}

	for _, e := range doc.Emotions {
		label := Emotion(strings.ToLower(strings.TrimSpace(e.Label)))
		if label == "" {
			return nil, fmt.Errorf("%w: emotion with empty label", ErrInvalidCatalog)
		}
		if _, dup := c.entries[label]; dup {
			return nil, fmt.Errorf("%w: duplicate emotion %q", ErrInvalidCatalog, label)
		}
		if len(e.Languages) == 0 {
			return nil, fmt.Errorf("%w: emotion %q has no languages", ErrInvalidCatalog, label)
		}

		entry := &emotionEntry{songs: make(map[string][]SongEntry, len(e.Languages))}
		for _, l := range e.Languages {
			name := strings.TrimSpace(l.Name)
			if name == "" {
				return nil, fmt.Errorf("%w: emotion %q has a language with no name", ErrInvalidCatalog, label)
			}
			if _, dup := entry.songs[name]; dup {
				return nil, fmt.Errorf("%w: emotion %q lists %s twice", ErrInvalidCatalog, label, name)
			}
			for i, s := range l.Songs {
				if err := validateSong(s); err != nil {
					return nil, fmt.Errorf("%w: %s/%s song %d: %v", ErrInvalidCatalog, label, name, i+1, err)
				}
			}

			songs := l.Songs
			if songs == nil {
				songs = []SongEntry{}
			}
			entry.languages = append(entry.languages, name)
			entry.songs[name] = songs
		}

		c.emotions = append(c.emotions, label)
		c.entries[label] = entry
	}

	if len(c.emotions) == 0 {
		return nil, fmt.Errorf("%w: no emotions defined", ErrInvalidCatalog)
	}

	return c, nil
}

func validateSong(s SongEntry) error {
	if strings.TrimSpace(s.Title) == "" {
		return errors.New("empty title")
	}
	if strings.TrimSpace(s.URL) == "" {
		return errors.New("empty url")
	}
	if _, err := url.Parse(s.URL); err != nil {
		return fmt.Errorf("malformed url: %w", err)
	}
	return nil
}

// Emotions returns the labels in document order.
func (c *Catalog) Emotions() []Emotion {
	return slices.Clone(c.emotions)
}

// Has reports whether the catalog knows the emotion.
func (c *Catalog) Has(e Emotion) bool {
	_, ok := c.entries[e]
	return ok
}
