package db

import (
	"time"

	"github.com/google/uuid"
)

// Session is a persisted browser session and its detection state.
type Session struct {
	ID        uuid.UUID
	Emotion   string
	Score     float64
	InputText string
	Language  string
	CreatedAt time.Time
	UpdatedAt time.Time
	ExpiresAt time.Time
}
