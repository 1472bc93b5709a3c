package pagination

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"
)

const timeFormat = time.RFC3339Nano // Use a precise time format

// Cursor is the keyset position of the last row of a page: a business date, the creation
// time and the row id as the final tie breaker.
type Cursor struct {
	Date      time.Time
	CreatedAt time.Time
	ID        string
}

// After reports whether a row sorts after the cursor in descending (date, createdAt, id) order.
func (c Cursor) After(date, createdAt time.Time, id string) bool {
	if !date.Equal(c.Date) {
		return date.Before(c.Date)
	}
	if !createdAt.Equal(c.CreatedAt) {
		return createdAt.Before(c.CreatedAt)
	}
	return id < c.ID
}

// EncodeToken creates a base64 encoded token from a cursor.
// This is used for consistent pagination across different repositories.
func EncodeToken(c Cursor) string {
	tokenStr := fmt.Sprintf("%s|%s|%s", c.Date.Format(timeFormat), c.CreatedAt.Format(timeFormat), c.ID)
	return base64.StdEncoding.EncodeToString([]byte(tokenStr))
}

// DecodeToken parses the base64 encoded token back into a cursor.
func DecodeToken(token string) (Cursor, error) {
	decodedBytes, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}, fmt.Errorf("invalid pagination token format (base64 decode): %w", err)
	}
	parts := strings.SplitN(string(decodedBytes), "|", 3)
	if len(parts) != 3 {
		return Cursor{}, fmt.Errorf("invalid pagination token format (split)")
	}

	date, err := time.Parse(timeFormat, parts[0])
	if err != nil {
		return Cursor{}, fmt.Errorf("invalid pagination token format (date parse): %w", err)
	}
	createdAt, err := time.Parse(timeFormat, parts[1])
	if err != nil {
		return Cursor{}, fmt.Errorf("invalid pagination token format (created_at parse): %w", err)
	}
	if parts[2] == "" {
		return Cursor{}, fmt.Errorf("invalid pagination token format (missing id)")
	}
	return Cursor{Date: date, CreatedAt: createdAt, ID: parts[2]}, nil
}
