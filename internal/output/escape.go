package output

import (
	"bytes"
	"encoding/json"
	"strings"
)

// EscapeString escapes text with JSON string rules and strips the
// surrounding quotes, so it can sit inside a quoted DOT string or an
// HTML-like label.
func EscapeString(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		// strings always encode
		return s
	}
	out := strings.TrimSuffix(buf.String(), "\n")
	return out[1 : len(out)-1]
}
