package feedback

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/justestif/go-emosic/internal/session"
	"github.com/justestif/go-emosic/internal/sheets"
)

// ErrInvalidRating is returned when the rating is not one of Ratings.
var ErrInvalidRating = errors.New("invalid rating")

// Reason classifies why a submission failed.
type Reason string

const (
	// ReasonNone means the submission succeeded.
	ReasonNone Reason = ""
	// ReasonDestinationNotFound means the target spreadsheet is missing.
	ReasonDestinationNotFound Reason = "destination_not_found"
	// ReasonAuthenticationFailure means credentials are invalid or absent.
	ReasonAuthenticationFailure Reason = "authentication_failure"
	// ReasonInvalidRating means the form carried an unknown rating.
	ReasonInvalidRating Reason = "invalid_rating"
	// ReasonOther covers every other failure.
	ReasonOther Reason = "other_failure"
)

// ReasonOf classifies an error returned by Submit.
func ReasonOf(err error) Reason {
	switch {
	case err == nil:
		return ReasonNone
	case errors.Is(err, ErrInvalidRating):
		return ReasonInvalidRating
	case errors.Is(err, sheets.ErrSpreadsheetNotFound):
		return ReasonDestinationNotFound
	case errors.Is(err, sheets.ErrUnauthorized):
		return ReasonAuthenticationFailure
	default:
		return ReasonOther
	}
}

// Appender abstracts the remote store for testing.
type Appender interface {
	AppendRow(ctx context.Context, values []any) error
}

// Service submits feedback records.
type Service struct {
	appender Appender
	logger   *zap.Logger
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the time source used for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService creates a feedback service writing through appender.
func NewService(appender Appender, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		appender: appender,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit builds a record and appends it once. A failed record is dropped;
// use ReasonOf to classify the returned error.
func (s *Service) Submit(ctx context.Context, st session.State, lang, rating, comment string) (Record, error) {
	if !ValidRating(rating) {
		return Record{}, fmt.Errorf("%w: %q", ErrInvalidRating, rating)
	}

	rec := NewRecord(st, lang, rating, comment, s.now())

	if err := s.appender.AppendRow(ctx, rec.Row()); err != nil {
		s.logger.Warn("feedback dropped",
			zap.String("reason", string(ReasonOf(err))),
			zap.Error(err),
		)
		return Record{}, fmt.Errorf("logging feedback: %w", err)
	}

	s.logger.Info("feedback logged",
		zap.String("emotion", rec.Emotion),
		zap.String("language", rec.Language),
		zap.String("rating", rec.Rating),
	)
	return rec, nil
}
