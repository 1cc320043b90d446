package queryast

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
)

// Pagination is SKIP / LIMIT. A nil field is not applied.
type Pagination struct {
	Skip  *int64
	Limit *int64
}

// IsEmpty reports whether neither skip nor limit is set.
func (p *Pagination) IsEmpty() bool {
	return p == nil || (p.Skip == nil && p.Limit == nil)
}

const cursorPrefix = "arrayconnection:"

// OffsetToCursor encodes a zero-based offset as an opaque cursor.
func OffsetToCursor(offset int64) string {
	return base64.StdEncoding.EncodeToString([]byte(cursorPrefix + strconv.FormatInt(offset, 10)))
}

// CursorToOffset decodes a cursor produced by OffsetToCursor.
func CursorToOffset(cursor string) (int64, error) {
	raw, err := base64.StdEncoding.DecodeString(cursor)
	if err != nil {
		return 0, fmt.Errorf("invalid cursor %q: %w", cursor, err)
	}
	s, ok := strings.CutPrefix(string(raw), cursorPrefix)
	if !ok {
		return 0, fmt.Errorf("invalid cursor %q", cursor)
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid cursor %q", cursor)
	}
	return n, nil
}
