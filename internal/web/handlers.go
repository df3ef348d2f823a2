package web

import (
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/justestif/go-emosic/internal/catalog"
	"github.com/justestif/go-emosic/internal/classifier"
	"github.com/justestif/go-emosic/internal/feedback"
	"github.com/justestif/go-emosic/internal/session"
)

const pageTitle = "EmoSic"

// Handlers contains HTTP handlers for the web application.
type Handlers struct {
	catalog       *catalog.Catalog
	machine       *session.Machine
	feedback      *feedback.Service
	feedbackSheet string
	sessions      SessionManager
	templates     *Templates
	logger        *zap.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(
	cat *catalog.Catalog,
	machine *session.Machine,
	fb *feedback.Service,
	feedbackSheet string,
	sessions SessionManager,
	templates *Templates,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		catalog:       cat,
		machine:       machine,
		feedback:      fb,
		feedbackSheet: feedbackSheet,
		sessions:      sessions,
		templates:     templates,
		logger:        logger,
	}
}

// Home handles the home page (GET /).
func (h *Handlers) Home(w http.ResponseWriter, r *http.Request) {
	sess, err := h.loadSession(w, r)
	if err != nil {
		h.serverError(w, "Failed to create session", err)
		return
	}

	h.renderPage(w, h.pageData(sess.State, h.results(sess.State), nil))
}

// Playlist analyses the submitted text and shows songs (POST /playlist).
func (h *Handlers) Playlist(w http.ResponseWriter, r *http.Request) {
	sess, err := h.loadSession(w, r)
	if err != nil {
		h.serverError(w, "Failed to create session", err)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}

	err = h.machine.Dispatch(r.Context(), &sess.State, session.SubmitText{Text: r.PostFormValue("text")})

	if err := h.sessions.Save(r.Context(), sess); err != nil {
		h.serverError(w, "Failed to save session", err)
		return
	}

	results := h.results(sess.State)
	results.Announce = err == nil
	results.Flash = submitFlash(err)

	if isHTMX(r) {
		h.renderPartial(w, "results", results)
		return
	}

	data := h.pageData(sess.State, results, nil)
	// Keep what the user typed, including blank input.
	data.Text = r.PostFormValue("text")
	h.renderPage(w, data)
}

// Language changes the preferred song language (POST /language).
func (h *Handlers) Language(w http.ResponseWriter, r *http.Request) {
	sess, err := h.loadSession(w, r)
	if err != nil {
		h.serverError(w, "Failed to create session", err)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}

	if err := h.machine.Dispatch(r.Context(), &sess.State, session.SelectLanguage{Language: r.PostFormValue("language")}); err != nil {
		h.serverError(w, "Failed to select language", err)
		return
	}

	if err := h.sessions.Save(r.Context(), sess); err != nil {
		h.serverError(w, "Failed to save session", err)
		return
	}

	results := h.results(sess.State)
	if isHTMX(r) {
		h.renderPartial(w, "results", results)
		return
	}
	h.renderPage(w, h.pageData(sess.State, results, nil))
}

// Feedback records the user's rating and comment (POST /feedback).
func (h *Handlers) Feedback(w http.ResponseWriter, r *http.Request) {
	sess, err := h.loadSession(w, r)
	if err != nil {
		h.serverError(w, "Failed to create session", err)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}

	rating := r.PostFormValue("rating")
	_, err = h.feedback.Submit(r.Context(), sess.State, h.feedbackLanguage(sess.State), rating, r.PostFormValue("comment"))

	status := FeedbackData{
		Ratings:  feedback.Ratings,
		Selected: rating,
		Flash:    h.feedbackFlash(err),
	}

	if isHTMX(r) {
		h.renderPartial(w, "feedback_status", status)
		return
	}
	h.renderPage(w, h.pageData(sess.State, h.results(sess.State), &status))
}

// Healthz reports liveness (GET /healthz).
func (h *Handlers) Healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

// loadSession returns the request's session, starting a new one if needed.
func (h *Handlers) loadSession(w http.ResponseWriter, r *http.Request) (*Session, error) {
	if sess := h.sessions.GetFromRequest(r); sess != nil {
		return sess, nil
	}

	sess, err := h.sessions.Create(r.Context())
	if err != nil {
		return nil, err
	}
	h.sessions.SetCookie(w, sess)
	return sess, nil
}

// results builds the song list for the session's current detection.
func (h *Handlers) results(st session.State) ResultsData {
	if !st.Detected() {
		return ResultsData{}
	}

	rec := h.catalog.Recommend(st.Emotion, st.Language)
	data := ResultsData{
		Detected:  true,
		Emotion:   st.Emotion,
		Score:     st.Score,
		Languages: rec.Languages,
		Language:  rec.Language,
		Songs:     rec.Songs,
	}

	switch {
	case errors.Is(rec.Reason, catalog.ErrUnknownEmotion):
		data.Notice = &FlashMessage{Type: "info", Message: "😢 Sorry! No songs found for this emotion yet. Stay tuned!"}
	case errors.Is(rec.Reason, catalog.ErrUnknownLanguage):
		data.Notice = &FlashMessage{
			Type:    "warning",
			Message: fmt.Sprintf("😢 Sorry! No songs found for %s in %s.", feedback.TitleCase(string(st.Emotion)), rec.Requested),
		}
	case errors.Is(rec.Reason, catalog.ErrNoSongs):
		data.Notice = &FlashMessage{
			Type:    "warning",
			Message: fmt.Sprintf("😢 Sorry! No songs found for %s in %s.", feedback.TitleCase(string(st.Emotion)), rec.Language),
		}
	}
	return data
}

// feedbackLanguage is the language the session's songs are shown in, or ""
// when no songs are shown.
func (h *Handlers) feedbackLanguage(st session.State) string {
	if !st.Detected() {
		return ""
	}
	return h.catalog.Recommend(st.Emotion, st.Language).Language
}

func (h *Handlers) feedbackFlash(err error) *FlashMessage {
	switch feedback.ReasonOf(err) {
	case feedback.ReasonNone:
		return &FlashMessage{Type: "success", Message: "Feedback submitted successfully! Thank you for helping us improve."}
	case feedback.ReasonInvalidRating:
		return &FlashMessage{Type: "warning", Message: "Please choose one of the rating options."}
	case feedback.ReasonDestinationNotFound:
		return &FlashMessage{
			Type:    "error",
			Message: fmt.Sprintf("Google Sheet '%s' not found. Please ensure the sheet exists and its name matches.", h.feedbackSheet),
		}
	case feedback.ReasonAuthenticationFailure:
		return &FlashMessage{
			Type:    "error",
			Message: "Error authenticating with Google Sheets. Please check the service account configuration.",
		}
	default:
		return &FlashMessage{
			Type:    "error",
			Message: fmt.Sprintf("Error logging feedback to Google Sheet: %v. Ensure the service account has 'Editor' access to the sheet.", err),
		}
	}
}

// submitFlash describes a failed submission. Success is announced by the
// results template.
func submitFlash(err error) *FlashMessage {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, session.ErrEmptyInput):
		return &FlashMessage{Type: "warning", Message: "🚫 Please write something to get your playlist!"}
	case errors.Is(err, classifier.ErrModelLoading):
		return &FlashMessage{Type: "error", Message: "⏳ The emotion model is still loading. Please try again in a moment."}
	default:
		return &FlashMessage{Type: "error", Message: "⚠️ Emotion analysis is unavailable right now. Please try again later."}
	}
}

func (h *Handlers) pageData(st session.State, results ResultsData, status *FeedbackData) HomePageData {
	data := HomePageData{
		PageData: PageData{Title: pageTitle},
		Text:     st.InputText,
		Results:  results,
		Feedback: FeedbackData{
			Ratings:  feedback.Ratings,
			Selected: feedback.RatingLoved,
		},
	}
	if status != nil {
		data.Feedback = *status
	}
	return data
}

func (h *Handlers) renderPage(w http.ResponseWriter, data HomePageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.Render(w, "home", data); err != nil {
		h.serverError(w, "Failed to render template", err)
	}
}

func (h *Handlers) renderPartial(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.templates.RenderPartial(w, name, data); err != nil {
		h.serverError(w, "Failed to render template", err)
	}
}

func (h *Handlers) serverError(w http.ResponseWriter, msg string, err error) {
	h.logger.Error(msg, zap.Error(err))
	http.Error(w, msg, http.StatusInternalServerError)
}

// isHTMX reports whether the request was issued by htmx.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
