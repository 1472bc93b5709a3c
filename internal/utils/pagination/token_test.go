package pagination

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeToken(t *testing.T) {
	// Standard date/time values
	c := Cursor{
		Date:      time.Date(2024, 5, 15, 0, 0, 0, 0, time.UTC),
		CreatedAt: time.Date(2024, 5, 15, 14, 30, 45, 123456789, time.UTC),
		ID:        "inv-1",
	}
	token := EncodeToken(c)
	assert.NotEmpty(t, token, "Token should not be empty")

	decoded, err := DecodeToken(token)
	require.NoError(t, err)
	assert.Equal(t, c, decoded)

	// Current time values
	now := time.Now().UTC()
	decodedNow, err := DecodeToken(EncodeToken(Cursor{Date: now, CreatedAt: now, ID: "x"}))
	require.NoError(t, err)
	assert.True(t, now.Equal(decodedNow.Date))
	assert.True(t, now.Equal(decodedNow.CreatedAt))
}

func TestDecodeTokenError(t *testing.T) {
	_, err := DecodeToken("this is not base64!")
	assert.ErrorContains(t, err, "base64 decode")

	_, err = DecodeToken(base64.StdEncoding.EncodeToString([]byte("2023-05-15T00:00:00Z")))
	assert.ErrorContains(t, err, "split")

	_, err = DecodeToken(base64.StdEncoding.EncodeToString([]byte("notadate|2023-05-15T14:30:45Z|a")))
	assert.ErrorContains(t, err, "date parse")

	_, err = DecodeToken(base64.StdEncoding.EncodeToString([]byte("2023-05-15T00:00:00Z|garbage|a")))
	assert.ErrorContains(t, err, "created_at parse")

	_, err = DecodeToken(base64.StdEncoding.EncodeToString([]byte("2023-05-15T00:00:00Z|2023-05-15T00:00:00Z|")))
	assert.ErrorContains(t, err, "missing id")
}

func TestCursorAfter(t *testing.T) {
	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	created := day.Add(time.Hour)
	c := Cursor{Date: day, CreatedAt: created, ID: "m"}

	tests := []struct {
		name      string
		date      time.Time
		createdAt time.Time
		id        string
		want      bool
	}{
		{"earlier date", day.AddDate(0, 0, -1), created, "z", true},
		{"later date", day.AddDate(0, 0, 1), created, "a", false},
		{"same date earlier creation", day, created.Add(-time.Minute), "z", true},
		{"same date later creation", day, created.Add(time.Minute), "a", false},
		{"tie broken by id", day, created, "a", true},
		{"the cursor row itself", day, created, "m", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.After(tt.date, tt.createdAt, tt.id))
		})
	}
}
