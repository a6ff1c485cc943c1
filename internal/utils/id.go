package utils

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// NewID returns a random identifier for connections.
func NewID() string {
	return uuid.NewString()
}

// NewMessageID returns a time-ordered identifier suitable as a rendering key.
func NewMessageID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to timestamp if the random source is unavailable.
		return strconv.FormatInt(time.Now().UnixNano(), 10)
	}
	return id.String()
}
