package extract

import (
	"net/mail"
	"strings"
	"time"
)

// dateLayouts are tried in order when normalizing source dates.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"02/01/2006",
	"02-01-2006",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// NormalizeDate converts a source-formatted date into ISO YYYY-MM-DD.
// Unrecognized input is returned unchanged with ok=false so the quality
// validator can flag it without losing the source text.
func NormalizeDate(raw string) (string, bool) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return "", false
	}
	if i := strings.IndexByte(text, 'T'); i == 10 {
		if t, err := time.Parse("2006-01-02", text[:10]); err == nil {
			return t.Format("2006-01-02"), true
		}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t.Format("2006-01-02"), true
		}
	}
	// RFC 5322 dates as they appear in email headers.
	if t, err := mail.ParseDate(text); err == nil {
		return t.UTC().Format("2006-01-02"), true
	}
	return text, false
}
