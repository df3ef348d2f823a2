// Package feedback assembles user feedback records and sends them to the
// remote feedback store.
package feedback

import (
	"slices"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/justestif/go-emosic/internal/session"
)

// TimestampLayout is the timestamp format written to the feedback store.
const TimestampLayout = "2006-01-02 15:04:05"

// NotAvailable stands in for an emotion or language the session never had.
const NotAvailable = "N/A"

// The fixed rating choices offered in the feedback form.
const (
	RatingLoved = "😍 Loved it!"
	RatingOkay  = "🙂 It was okay"
	RatingPoor  = "😕 Needs work"
)

// Ratings lists the rating choices in display order.
var Ratings = []string{RatingLoved, RatingOkay, RatingPoor}

// ValidRating reports whether r is one of Ratings.
func ValidRating(r string) bool {
	return slices.Contains(Ratings, r)
}

// Record is one feedback submission.
type Record struct {
	Timestamp time.Time
	InputText string
	Emotion   string // title-cased, or NotAvailable
	Language  string // or NotAvailable
	Rating    string
	Comment   string
}

// NewRecord builds a record from the session and the submitted form.
// language is the language the session's recommendations were shown in.
func NewRecord(st session.State, lang, rating, comment string, now time.Time) Record {
	emotion := NotAvailable
	if st.Detected() {
		emotion = TitleCase(string(st.Emotion))
	}
	if lang == "" {
		lang = NotAvailable
	}

	return Record{
		Timestamp: now,
		InputText: st.InputText,
		Emotion:   emotion,
		Language:  lang,
		Rating:    rating,
		Comment:   comment,
	}
}

// Row returns the six ordered fields written to the spreadsheet.
func (r Record) Row() []any {
	return []any{
		r.Timestamp.Format(TimestampLayout),
		r.InputText,
		r.Emotion,
		r.Language,
		r.Rating,
		r.Comment,
	}
}

// TitleCase capitalizes an emotion label for display ("joy" -> "Joy").
func TitleCase(s string) string {
	return cases.Title(language.English).String(s)
}
