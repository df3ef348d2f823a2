package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/justestif/go-emosic/internal/catalog"
	"github.com/justestif/go-emosic/internal/classifier"
)

// Dispatch errors.
var (
	// ErrEmptyInput is returned when blank text is submitted. The session is
	// reset to Idle.
	ErrEmptyInput = errors.New("empty input")

	// ErrClassificationUnavailable wraps classifier failures. The session is
	// left unchanged.
	ErrClassificationUnavailable = errors.New("emotion classification unavailable")

	// ErrUnknownEvent is returned for event types the machine does not handle.
	ErrUnknownEvent = errors.New("unknown event")
)

// Event is something the user did.
type Event interface {
	event()
}

// SubmitText asks for the text to be classified.
type SubmitText struct {
	Text string
}

// SelectLanguage records the user's language choice.
type SelectLanguage struct {
	Language string
}

func (SubmitText) event()     {}
func (SelectLanguage) event() {}

// Machine applies events to session state.
type Machine struct {
	classifier classifier.Classifier
	logger     *zap.Logger
}

// NewMachine creates a Machine that classifies text with c.
func NewMachine(c classifier.Classifier, logger *zap.Logger) *Machine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Machine{classifier: c, logger: logger}
}

// Dispatch applies ev to st. Errors describe what the user should be told;
// st is always left in a valid state.
func (m *Machine) Dispatch(ctx context.Context, st *State, ev Event) error {
	switch ev := ev.(type) {
	case SubmitText:
		return m.submit(ctx, st, ev.Text)
	case SelectLanguage:
		st.Language = strings.TrimSpace(ev.Language)
		return nil
	default:
		return fmt.Errorf("%w: %T", ErrUnknownEvent, ev)
	}
}

func (m *Machine) submit(ctx context.Context, st *State, text string) error {
	if strings.TrimSpace(text) == "" {
		// Blank resubmission resets the detection. InputText is kept so
		// feedback still refers to the last analysed text.
		st.Emotion = ""
		st.Score = 0
		return ErrEmptyInput
	}

	prediction, err := m.classifier.Classify(ctx, text)
	if err != nil {
		m.logger.Warn("classification failed", zap.Error(err))
		return fmt.Errorf("%w: %w", ErrClassificationUnavailable, err)
	}

	label := strings.ToLower(strings.TrimSpace(prediction.Label))
	if label == "" {
		m.logger.Warn("classifier returned a blank label")
		return fmt.Errorf("%w: %w", ErrClassificationUnavailable, classifier.ErrEmptyResponse)
	}

	st.Emotion = catalog.Emotion(label)
	st.Score = prediction.Score
	st.InputText = text

	m.logger.Debug("emotion detected",
		zap.String("emotion", string(st.Emotion)),
		zap.Float64("score", st.Score),
	)
	return nil
}
