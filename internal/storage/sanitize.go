package storage

import (
	"fmt"
	"path"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var deaccenter = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// SanitizeFileName rewrites a user-supplied file name into a storage-path
// safe form: diacritics stripped, lowercased, whitespace turned into
// hyphens, anything outside [a-z0-9._-] dropped, repeated separators
// collapsed. The extension survives the same treatment.
func SanitizeFileName(name string) string {
	base := path.Base(strings.TrimSpace(name))

	if stripped, _, err := transform.String(deaccenter, base); err == nil {
		base = stripped
	}
	base = strings.ToLower(base)

	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune('-')
		}
	}

	out := collapseSeparators(b.String())
	out = strings.Trim(out, "-_.")
	if out == "" || out == "." {
		return "file"
	}
	return out
}

func collapseSeparators(s string) string {
	var b strings.Builder
	var prev rune
	for _, r := range s {
		if (r == '-' || r == '_') && r == prev {
			continue
		}
		b.WriteRune(r)
		prev = r
	}
	return b.String()
}

// ObjectKey builds the conversation-scoped blob path for an upload.
func ObjectKey(conversationID uuid.UUID, fileName string) string {
	return fmt.Sprintf("conversations/%s/%s-%s", conversationID.String(), uuid.New().String(), SanitizeFileName(fileName))
}
