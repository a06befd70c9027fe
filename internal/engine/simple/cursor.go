package simple

import (
	"encoding/base64"
	"encoding/json"
)

// cursor is the simple adapter's private opaque-cursor shape: an offset
// into the tenant/entity sorted-set index. Callers must not assume this
// shape; the complex adapter uses a different one.
type cursor struct {
	Offset int `json:"offset"`
}

func encodeCursor(offset int) string {
	raw, _ := json.Marshal(cursor{Offset: offset})
	return base64.URLEncoding.EncodeToString(raw)
}

func decodeCursor(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	raw, err := base64.URLEncoding.DecodeString(s)
	if err != nil {
		return 0, err
	}
	var c cursor
	if err := json.Unmarshal(raw, &c); err != nil {
		return 0, err
	}
	return c.Offset, nil
}
