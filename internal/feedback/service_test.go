package feedback

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/justestif/go-emosic/internal/session"
	"github.com/justestif/go-emosic/internal/sheets"
)

// mockAppender implements Appender for testing.
type mockAppender struct {
	err  error
	rows [][]any
	// calls counts every AppendRow attempt, successful or not
	calls int
}

func (m *mockAppender) AppendRow(_ context.Context, values []any) error {
	m.calls++
	if m.err != nil {
		return m.err
	}
	m.rows = append(m.rows, values)
	return nil
}

var fixedNow = time.Date(2026, 10, 14, 9, 5, 3, 0, time.Local)

func newTestService(a Appender) *Service {
	return NewService(a, nil, WithClock(func() time.Time { return fixedNow }))
}

func TestRecordRow(t *testing.T) {
	tests := []struct {
		name  string
		state session.State
		lang  string
		want  []any
	}{
		{
			name:  "detected session",
			state: session.State{Emotion: "joy", InputText: "I feel so energetic and happy today!"},
			lang:  "English",
			want:  []any{"2026-10-14 09:05:03", "I feel so energetic and happy today!", "Joy", "English", RatingLoved, "more Telugu please"},
		},
		{
			name:  "fresh session",
			state: session.State{},
			lang:  "",
			want:  []any{"2026-10-14 09:05:03", "", "N/A", "N/A", RatingLoved, "more Telugu please"},
		},
		{
			name:  "reset session keeps text",
			state: session.State{InputText: "earlier text", Language: "Hindi"},
			lang:  "Hindi",
			want:  []any{"2026-10-14 09:05:03", "earlier text", "N/A", "Hindi", RatingLoved, "more Telugu please"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewRecord(tt.state, tt.lang, RatingLoved, "more Telugu please", fixedNow).Row()
			if len(got) != 6 {
				t.Fatalf("Row() has %d fields, want 6", len(got))
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("Row()[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestTitleCase(t *testing.T) {
	for in, want := range map[string]string{"joy": "Joy", "sadness": "Sadness", "surprise": "Surprise"} {
		if got := TitleCase(in); got != want {
			t.Errorf("TitleCase(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSubmit_Success(t *testing.T) {
	appender := &mockAppender{}
	svc := newTestService(appender)

	st := session.State{Emotion: "love", InputText: "thinking of you"}
	rec, err := svc.Submit(context.Background(), st, "Kannada", RatingOkay, "")
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	if rec.Emotion != "Love" || rec.Language != "Kannada" {
		t.Errorf("record = %+v", rec)
	}
	if len(appender.rows) != 1 {
		t.Fatalf("appended %d rows, want 1", len(appender.rows))
	}
	if appender.rows[0][1] != "thinking of you" {
		t.Errorf("input text field = %v", appender.rows[0][1])
	}
}

func TestSubmit_Failures(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantReason Reason
	}{
		{"destination missing", fmt.Errorf("searching spreadsheet: %w", sheets.ErrSpreadsheetNotFound), ReasonDestinationNotFound},
		{"bad credentials", sheets.ErrUnauthorized, ReasonAuthenticationFailure},
		{"anything else", errors.New("quota exceeded"), ReasonOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appender := &mockAppender{err: tt.err}
			svc := newTestService(appender)

			_, err := svc.Submit(context.Background(), session.State{Emotion: "joy"}, "English", RatingLoved, "")
			if err == nil {
				t.Fatal("Submit() error = nil, want error")
			}
			if got := ReasonOf(err); got != tt.wantReason {
				t.Errorf("ReasonOf() = %q, want %q", got, tt.wantReason)
			}
			if appender.calls != 1 {
				t.Errorf("AppendRow called %d times, want exactly 1", appender.calls)
			}
			if len(appender.rows) != 0 {
				t.Errorf("rows stored = %d, want 0", len(appender.rows))
			}
		})
	}
}

func TestSubmit_InvalidRating(t *testing.T) {
	appender := &mockAppender{}
	svc := newTestService(appender)

	_, err := svc.Submit(context.Background(), session.State{}, "", "🤩 Amazing", "")
	if !errors.Is(err, ErrInvalidRating) {
		t.Fatalf("Submit() error = %v, want ErrInvalidRating", err)
	}
	if ReasonOf(err) != ReasonInvalidRating {
		t.Errorf("ReasonOf() = %q", ReasonOf(err))
	}
	if appender.calls != 0 {
		t.Errorf("AppendRow called %d times, want 0", appender.calls)
	}
}

func TestReasonOf_Nil(t *testing.T) {
	if ReasonOf(nil) != ReasonNone {
		t.Error("ReasonOf(nil) != ReasonNone")
	}
}
