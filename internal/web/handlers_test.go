package web

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/justestif/go-emosic/internal/catalog"
	"github.com/justestif/go-emosic/internal/classifier"
	"github.com/justestif/go-emosic/internal/feedback"
	"github.com/justestif/go-emosic/internal/sheets"
	webfs "github.com/justestif/go-emosic/web"
)

type stubClassifier struct {
	mu         sync.Mutex
	prediction classifier.Prediction
	err        error
	calls      int
}

func (s *stubClassifier) Classify(_ context.Context, _ string) (classifier.Prediction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.prediction, s.err
}

type stubAppender struct {
	mu    sync.Mutex
	err   error
	calls int
	rows  [][]any
}

func (s *stubAppender) AppendRow(_ context.Context, values []any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return s.err
	}
	s.rows = append(s.rows, values)
	return nil
}

var joyPrediction = classifier.Prediction{Label: "joy", Score: 0.93}

func newTestServer(t *testing.T, cls classifier.Classifier, app feedback.Appender) http.Handler {
	t.Helper()

	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("catalog.Default() error = %v", err)
	}
	templates, err := fs.Sub(webfs.TemplatesFS, "templates")
	if err != nil {
		t.Fatalf("fs.Sub(templates) error = %v", err)
	}
	static, err := fs.Sub(webfs.StaticFS, "static")
	if err != nil {
		t.Fatalf("fs.Sub(static) error = %v", err)
	}

	srv, err := NewServer(ServerConfig{
		Catalog:       cat,
		Classifier:    cls,
		Feedback:      app,
		FeedbackSheet: sheets.DefaultSpreadsheetName,
		TemplatesFS:   templates,
		StaticFS:      static,
	})
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	return srv.Handler()
}

// client replays the session cookie across requests.
type client struct {
	t       *testing.T
	handler http.Handler
	cookies []*http.Cookie
}

func (c *client) get(path string) *httptest.ResponseRecorder {
	return c.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (c *client) post(path string, form url.Values, htmx bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if htmx {
		req.Header.Set("HX-Request", "true")
	}
	return c.do(req)
}

func (c *client) do(req *http.Request) *httptest.ResponseRecorder {
	c.t.Helper()
	for _, cookie := range c.cookies {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)
	if got := rec.Result().Cookies(); len(got) > 0 {
		c.cookies = got
	}
	return rec
}

func assertContains(t *testing.T, body string, want ...string) {
	t.Helper()
	for _, w := range want {
		if !strings.Contains(body, w) {
			t.Errorf("body missing %q", w)
		}
	}
}

func assertNotContains(t *testing.T, body string, unwanted ...string) {
	t.Helper()
	for _, u := range unwanted {
		if strings.Contains(body, u) {
			t.Errorf("body unexpectedly contains %q", u)
		}
	}
}

func TestHome(t *testing.T) {
	c := &client{t: t, handler: newTestServer(t, &stubClassifier{}, &stubAppender{})}

	rec := c.get("/")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET / status = %d, want 200", rec.Code)
	}
	if len(c.cookies) == 0 || c.cookies[0].Name != sessionCookieName {
		t.Fatalf("GET / cookies = %v, want %s", c.cookies, sessionCookieName)
	}
	assertContains(t, rec.Body.String(),
		"<!DOCTYPE html>",
		"Every Feeling Deserves a Song",
		"Important Notes",
		`name="rating"`,
		`id="results"`,
	)
}

func TestPlaylist_Detected(t *testing.T) {
	cls := &stubClassifier{prediction: joyPrediction}
	c := &client{t: t, handler: newTestServer(t, cls, &stubAppender{})}

	rec := c.post("/playlist", url.Values{"text": {"I feel so energetic and happy today!"}}, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /playlist status = %d, want 200", rec.Code)
	}

	body := rec.Body.String()
	assertContains(t, body,
		"Detected Emotion: Joy (Confidence: 93.00%)",
		"Songs for you in English",
		"Happy - Pharrell Williams",
		"A Sky Full of Stars - Coldplay",
		`value="Hindi"`,
	)
	assertNotContains(t, body, "<!DOCTYPE html>")
	if got := strings.Count(body, "<li>"); got != 11 {
		t.Errorf("rendered %d songs, want 11", got)
	}
	if cls.calls != 1 {
		t.Errorf("classifier calls = %d, want 1", cls.calls)
	}
}

func TestPlaylist_FullPageWithoutHTMX(t *testing.T) {
	c := &client{t: t, handler: newTestServer(t, &stubClassifier{prediction: joyPrediction}, &stubAppender{})}

	rec := c.post("/playlist", url.Values{"text": {"sunny day"}}, false)
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /playlist status = %d, want 200", rec.Code)
	}
	assertContains(t, rec.Body.String(), "<!DOCTYPE html>", "sunny day", "Happy - Pharrell Williams")
}

func TestPlaylist_BlankInput(t *testing.T) {
	cls := &stubClassifier{prediction: joyPrediction}
	c := &client{t: t, handler: newTestServer(t, cls, &stubAppender{})}

	c.post("/playlist", url.Values{"text": {"happy"}}, true)
	rec := c.post("/playlist", url.Values{"text": {"   "}}, true)

	body := rec.Body.String()
	assertContains(t, body, "Please write something to get your playlist!")
	assertNotContains(t, body, "Songs for you in", "Happy - Pharrell Williams")
	if cls.calls != 1 {
		t.Errorf("classifier calls = %d, want 1", cls.calls)
	}
}

func TestPlaylist_ClassifierUnavailable(t *testing.T) {
	tests := []struct {
		name       string
		prediction classifier.Prediction
		err        error
		want       string
	}{
		{name: "loading", err: classifier.ErrModelLoading, want: "still loading"},
		{name: "other", err: errors.New("connection refused"), want: "Emotion analysis is unavailable"},
		{name: "blank label", prediction: classifier.Prediction{Label: "  ", Score: 0.9}, want: "Emotion analysis is unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cls := &stubClassifier{prediction: tt.prediction, err: tt.err}
			c := &client{t: t, handler: newTestServer(t, cls, &stubAppender{})}

			rec := c.post("/playlist", url.Values{"text": {"hello"}}, true)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rec.Code)
			}
			body := rec.Body.String()
			assertContains(t, body, tt.want)
			assertNotContains(t, body, "Songs for you in", "Detected Emotion")
		})
	}
}

func TestLanguage(t *testing.T) {
	c := &client{t: t, handler: newTestServer(t, &stubClassifier{prediction: joyPrediction}, &stubAppender{})}
	c.post("/playlist", url.Values{"text": {"happy"}}, true)

	rec := c.post("/language", url.Values{"language": {"Hindi"}}, true)
	body := rec.Body.String()
	assertContains(t, body, "Songs for you in Hindi", "Dil Dhadakne Do", `value="Hindi" selected`)
	assertNotContains(t, body, "Happy - Pharrell Williams")

	// The choice persists across a new detection.
	rec = c.post("/playlist", url.Values{"text": {"still happy"}}, true)
	assertContains(t, rec.Body.String(), "Songs for you in Hindi")
}

func TestLanguage_Unknown(t *testing.T) {
	c := &client{t: t, handler: newTestServer(t, &stubClassifier{prediction: joyPrediction}, &stubAppender{})}
	c.post("/playlist", url.Values{"text": {"happy"}}, true)

	rec := c.post("/language", url.Values{"language": {"French"}}, true)
	assertContains(t, rec.Body.String(),
		"No songs found for Joy in French.",
		"Songs for you in English",
		"Happy - Pharrell Williams",
	)
}

func TestLanguage_UnknownEmotion(t *testing.T) {
	cls := &stubClassifier{prediction: classifier.Prediction{Label: "boredom", Score: 0.5}}
	c := &client{t: t, handler: newTestServer(t, cls, &stubAppender{})}

	rec := c.post("/playlist", url.Values{"text": {"meh"}}, true)
	body := rec.Body.String()
	assertContains(t, body, "Detected Emotion: Boredom", "No songs found for this emotion yet. Stay tuned!")
	assertNotContains(t, body, "Songs for you in")
}

func TestFeedback(t *testing.T) {
	tests := []struct {
		name      string
		detect    bool
		rating    string
		appendErr error
		want      string
		wantCalls int
		wantRows  int
	}{
		{
			name:      "logged",
			detect:    true,
			rating:    feedback.RatingLoved,
			want:      "Feedback submitted successfully! Thank you for helping us improve.",
			wantCalls: 1,
			wantRows:  1,
		},
		{
			name:      "sheet missing",
			detect:    true,
			rating:    feedback.RatingLoved,
			appendErr: fmt.Errorf("locating spreadsheet: %w", sheets.ErrSpreadsheetNotFound),
			want:      "not found. Please ensure the sheet exists and its name matches.",
			wantCalls: 1,
		},
		{
			name:      "unauthorized",
			rating:    feedback.RatingOkay,
			appendErr: sheets.ErrUnauthorized,
			want:      "Error authenticating with Google Sheets.",
			wantCalls: 1,
		},
		{
			name:      "other failure",
			rating:    feedback.RatingPoor,
			appendErr: errors.New("quota exceeded"),
			want:      "Error logging feedback to Google Sheet: logging feedback: quota exceeded.",
			wantCalls: 1,
		},
		{
			name:   "invalid rating",
			rating: "meh",
			want:   "Please choose one of the rating options.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := &stubAppender{err: tt.appendErr}
			c := &client{t: t, handler: newTestServer(t, &stubClassifier{prediction: joyPrediction}, app)}
			if tt.detect {
				c.post("/playlist", url.Values{"text": {"I feel so energetic and happy today!"}}, true)
			}

			rec := c.post("/feedback", url.Values{"rating": {tt.rating}, "comment": {"more songs"}}, true)
			if rec.Code != http.StatusOK {
				t.Fatalf("POST /feedback status = %d, want 200", rec.Code)
			}
			assertContains(t, rec.Body.String(), tt.want, `id="feedback-status"`)

			if app.calls != tt.wantCalls {
				t.Errorf("append calls = %d, want %d", app.calls, tt.wantCalls)
			}
			if len(app.rows) != tt.wantRows {
				t.Fatalf("rows = %d, want %d", len(app.rows), tt.wantRows)
			}
		})
	}
}

func TestFeedback_Row(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(c *client)
		wantText string
		wantEmo  string
		wantLang string
	}{
		{
			name:     "no detection",
			setup:    func(*client) {},
			wantText: "",
			wantEmo:  feedback.NotAvailable,
			wantLang: feedback.NotAvailable,
		},
		{
			name: "detected default language",
			setup: func(c *client) {
				c.post("/playlist", url.Values{"text": {"I feel so energetic and happy today!"}}, true)
			},
			wantText: "I feel so energetic and happy today!",
			wantEmo:  "Joy",
			wantLang: "English",
		},
		{
			name: "detected chosen language",
			setup: func(c *client) {
				c.post("/playlist", url.Values{"text": {"happy"}}, true)
				c.post("/language", url.Values{"language": {"Telugu"}}, true)
			},
			wantText: "happy",
			wantEmo:  "Joy",
			wantLang: "Telugu",
		},
		{
			name: "reset keeps text",
			setup: func(c *client) {
				c.post("/playlist", url.Values{"text": {"happy"}}, true)
				c.post("/playlist", url.Values{"text": {""}}, true)
			},
			wantText: "happy",
			wantEmo:  feedback.NotAvailable,
			wantLang: feedback.NotAvailable,
		},
		{
			name: "reset drops chosen language",
			setup: func(c *client) {
				c.post("/playlist", url.Values{"text": {"happy"}}, true)
				c.post("/language", url.Values{"language": {"Telugu"}}, true)
				c.post("/playlist", url.Values{"text": {"  "}}, true)
			},
			wantText: "happy",
			wantEmo:  feedback.NotAvailable,
			wantLang: feedback.NotAvailable,
		},
		{
			name: "idle with unconfigured language",
			setup: func(c *client) {
				c.post("/language", url.Values{"language": {"French"}}, true)
			},
			wantText: "",
			wantEmo:  feedback.NotAvailable,
			wantLang: feedback.NotAvailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := &stubAppender{}
			c := &client{t: t, handler: newTestServer(t, &stubClassifier{prediction: joyPrediction}, app)}
			tt.setup(c)

			c.post("/feedback", url.Values{"rating": {feedback.RatingLoved}, "comment": {"nice"}}, true)
			if len(app.rows) != 1 {
				t.Fatalf("rows = %d, want 1", len(app.rows))
			}

			row := app.rows[0]
			if len(row) != 6 {
				t.Fatalf("row has %d fields, want 6", len(row))
			}
			if row[1] != tt.wantText || row[2] != tt.wantEmo || row[3] != tt.wantLang {
				t.Errorf("row = %v, want text %q emotion %q language %q", row, tt.wantText, tt.wantEmo, tt.wantLang)
			}
			if row[4] != feedback.RatingLoved || row[5] != "nice" {
				t.Errorf("row rating/comment = %v, %v", row[4], row[5])
			}
		})
	}
}

func TestHealthz(t *testing.T) {
	c := &client{t: t, handler: newTestServer(t, &stubClassifier{}, &stubAppender{})}

	rec := c.get("/healthz")
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Errorf("GET /healthz = %d %q, want 200 ok", rec.Code, rec.Body.String())
	}
}

func TestStatic(t *testing.T) {
	c := &client{t: t, handler: newTestServer(t, &stubClassifier{}, &stubAppender{})}

	rec := c.get("/static/style.css")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /static/style.css status = %d, want 200", rec.Code)
	}
	assertContains(t, rec.Body.String(), ".flash")
}

func TestNewServer_RequiresDependencies(t *testing.T) {
	if _, err := NewServer(ServerConfig{}); err == nil {
		t.Error("NewServer() error = nil, want error")
	}
}
