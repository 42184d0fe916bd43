package pagination

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultLimit is the page size when the caller does not ask for one.
	DefaultLimit = 25
	// MaxLimit caps any single page regardless of the requested limit.
	MaxLimit = 100

	cursorSeparator = "|"
)

// Params carries the raw pagination inputs from a request.
type Params struct {
	Limit  int
	Cursor string
}

// Cursor pins a position in a (created_at DESC, id DESC) ordering. Listings
// resume strictly after it.
type Cursor struct {
	CreatedAt time.Time
	ID        uuid.UUID
}

// NormalizeLimit clamps limit into [1, MaxLimit], defaulting when unset.
func NormalizeLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}

// LimitWithBuffer adds one row to the normalized limit so repositories can
// tell whether a further page exists.
func LimitWithBuffer(limit int) int {
	return NormalizeLimit(limit) + 1
}

// EncodeCursor serializes a cursor into an opaque URL-safe token.
func EncodeCursor(cursor Cursor) string {
	raw := cursor.CreatedAt.UTC().Format(time.RFC3339Nano) + cursorSeparator + cursor.ID.String()
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

// ParseCursor reverses EncodeCursor. Empty input means first page.
func ParseCursor(token string) (*Cursor, error) {
	if strings.TrimSpace(token) == "" {
		return nil, nil
	}

	decoded, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("decode cursor: %w", err)
	}
	stamp, rawID, found := strings.Cut(string(decoded), cursorSeparator)
	if !found {
		return nil, fmt.Errorf("malformed cursor")
	}

	createdAt, err := time.Parse(time.RFC3339Nano, stamp)
	if err != nil {
		return nil, fmt.Errorf("cursor timestamp: %w", err)
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, fmt.Errorf("cursor id: %w", err)
	}
	return &Cursor{CreatedAt: createdAt, ID: id}, nil
}
