package store

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"time"
)

var ErrInvalidCursor = errors.New("invalid cursor")

type CursorPage[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"nextCursor,omitempty"`
	HasMore    bool   `json:"hasMore"`
}

type OrderCursor struct {
	CreatedAt time.Time `json:"created_at"`
	ID        int64     `json:"id"`
}

func EncodeCursor(cursor OrderCursor) string {
	data, err := json.Marshal(cursor)
	if err != nil {
		return ""
	}
	return base64.URLEncoding.EncodeToString(data)
}

// DecodeCursor reports ok=false for an empty cursor, meaning "start from
// the newest order".
func DecodeCursor(encoded string) (cursor OrderCursor, ok bool, err error) {
	if encoded == "" {
		return OrderCursor{}, false, nil
	}

	data, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return cursor, false, err
	}

	if err := json.Unmarshal(data, &cursor); err != nil {
		return cursor, false, err
	}
	return cursor, true, nil
}
