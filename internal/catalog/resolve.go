package catalog

import (
	"errors"
	"slices"
)

// Resolve errors. Each describes a different reason for an empty result so
// callers can tell the user what happened.
var (
	// ErrUnknownEmotion is returned when the emotion is not in the catalog.
	ErrUnknownEmotion = errors.New("unknown emotion")

	// ErrUnknownLanguage is returned when the emotion has no entry for the language.
	ErrUnknownLanguage = errors.New("unknown language for this emotion")

	// ErrNoSongs is returned when the language exists but has no songs yet.
	ErrNoSongs = errors.New("no songs yet")
)

// Resolve returns the songs for an emotion and language.
// On error the returned slice is empty, never nil.
func (c *Catalog) Resolve(e Emotion, language string) ([]SongEntry, error) {
	entry, ok := c.entries[e]
	if !ok {
		return []SongEntry{}, ErrUnknownEmotion
	}

	songs, ok := entry.songs[language]
	if !ok {
		return []SongEntry{}, ErrUnknownLanguage
	}
	if len(songs) == 0 {
		return []SongEntry{}, ErrNoSongs
	}

	return slices.Clone(songs), nil
}

// AvailableLanguages returns the languages offered for an emotion in
// catalog order. Unknown emotions yield an empty slice.
func (c *Catalog) AvailableLanguages(e Emotion) []string {
	entry, ok := c.entries[e]
	if !ok {
		return []string{}
	}
	return slices.Clone(entry.languages)
}

// DefaultLanguage picks the language to preselect for an emotion:
// previous when it is available, otherwise English, otherwise the first
// available language. It returns "" for unknown emotions.
func (c *Catalog) DefaultLanguage(e Emotion, previous string) string {
	entry, ok := c.entries[e]
	if !ok {
		return ""
	}

	if previous != "" && slices.Contains(entry.languages, previous) {
		return previous
	}
	if slices.Contains(entry.languages, DefaultLanguage) {
		return DefaultLanguage
	}
	return entry.languages[0]
}

// Recommendation is the outcome of resolving a session's detection.
type Recommendation struct {
	Emotion   Emotion
	Languages []string    // options for the language selector
	Requested string      // language the user asked for, "" if none
	Language  string      // language actually resolved
	Songs     []SongEntry // empty when Reason is ErrUnknownEmotion or ErrNoSongs
	// Reason is nil, ErrUnknownEmotion, ErrUnknownLanguage (songs for the
	// fallback language are still returned) or ErrNoSongs.
	Reason error
}

// Recommend resolves songs for an emotion, falling back to the default
// language when the requested one is not offered.
func (c *Catalog) Recommend(e Emotion, requested string) Recommendation {
	rec := Recommendation{
		Emotion:   e,
		Languages: c.AvailableLanguages(e),
		Requested: requested,
		Songs:     []SongEntry{},
	}

	if !c.Has(e) {
		rec.Reason = ErrUnknownEmotion
		return rec
	}

	rec.Language = c.DefaultLanguage(e, requested)
	if requested != "" {
		if _, err := c.Resolve(e, requested); errors.Is(err, ErrUnknownLanguage) {
			rec.Reason = ErrUnknownLanguage
		}
	}

	songs, err := c.Resolve(e, rec.Language)
	if err != nil {
		rec.Reason = err
		return rec
	}

	rec.Songs = songs
	return rec
}
