package utils

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Лимиты страниц для всех списков API.
const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

const cursorSeparator = "|"

// ErrInvalidCursor возвращается, когда курсор пагинации не удалось декодировать.
var ErrInvalidCursor = errors.New("invalid cursor")

// SanitizeLimit возвращает DefaultPageLimit, если limit вне [1, MaxPageLimit].
func SanitizeLimit(limit int) int {
	if limit <= 0 || limit > MaxPageLimit {
		return DefaultPageLimit
	}
	return limit
}

// EncodeCursor кодирует (время, id) последнего элемента страницы в курсор.
func EncodeCursor(t time.Time, id uuid.UUID) string {
	return encodeCursor(strconv.FormatInt(t.UnixNano(), 10), id)
}

// DecodeCursor разбирает курсор, созданный EncodeCursor.
// Пустой курсор означает первую страницу и возвращает нулевые значения без ошибки.
func DecodeCursor(cursor string) (time.Time, uuid.UUID, error) {
	if cursor == "" {
		return time.Time{}, uuid.Nil, nil
	}
	valueStr, id, err := decodeCursor(cursor)
	if err != nil {
		return time.Time{}, uuid.Nil, err
	}
	nanos, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return time.Time{}, uuid.Nil, fmt.Errorf("%w: timestamp: %v", ErrInvalidCursor, err)
	}
	return time.Unix(0, nanos).UTC(), id, nil
}

// EncodeIntCursor кодирует (значение счетчика, id) для сортировки по счетчику.
func EncodeIntCursor(value int64, id uuid.UUID) string {
	return encodeCursor(strconv.FormatInt(value, 10), id)
}

// DecodeIntCursor разбирает курсор, созданный EncodeIntCursor.
func DecodeIntCursor(cursor string) (int64, uuid.UUID, error) {
	if cursor == "" {
		return 0, uuid.Nil, nil
	}
	valueStr, id, err := decodeCursor(cursor)
	if err != nil {
		return 0, uuid.Nil, err
	}
	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return 0, uuid.Nil, fmt.Errorf("%w: value: %v", ErrInvalidCursor, err)
	}
	return value, id, nil
}

func encodeCursor(value string, id uuid.UUID) string {
	return base64.RawURLEncoding.EncodeToString([]byte(value + cursorSeparator + id.String()))
}

func decodeCursor(cursor string) (string, uuid.UUID, error) {
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return "", uuid.Nil, fmt.Errorf("%w: base64: %v", ErrInvalidCursor, err)
	}
	parts := strings.SplitN(string(raw), cursorSeparator, 2)
	if len(parts) != 2 {
		return "", uuid.Nil, fmt.Errorf("%w: expected 2 parts, got %d", ErrInvalidCursor, len(parts))
	}
	id, err := uuid.Parse(parts[1])
	if err != nil {
		return "", uuid.Nil, fmt.Errorf("%w: id: %v", ErrInvalidCursor, err)
	}
	return parts[0], id, nil
}
