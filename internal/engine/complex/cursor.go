package complex

import (
	"encoding/base64"
	"encoding/json"
)

// cursor is the complex adapter's private opaque-cursor shape: a from/size
// scroll position into an OpenSearch query. Callers must not assume this
// shape; the simple adapter uses a different one.
type cursor struct {
	From int `json:"from"`
	Size int `json:"size"`
}

func encodeCursor(from, size int) string {
	raw, _ := json.Marshal(cursor{From: from, Size: size})
	return base64.URLEncoding.EncodeToString(raw)
}

func decodeCursor(s string) (from, size int, err error) {
	if s == "" {
		return 0, 0, nil
	}
	raw, err := base64.URLEncoding.DecodeString(s)
	if err != nil {
		return 0, 0, err
	}
	var c cursor
	if err := json.Unmarshal(raw, &c); err != nil {
		return 0, 0, err
	}
	return c.From, c.Size, nil
}
