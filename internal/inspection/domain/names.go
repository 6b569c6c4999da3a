package domain

import (
	"fmt"
	"path"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const (
	// MaxStoreNameRunes bounds sanitized names to what storage backends accept.
	MaxStoreNameRunes = 80
	// FallbackStoreName replaces names that sanitize to nothing.
	FallbackStoreName = "Store"
)

// SanitizeName turns free-text store names into a folder/file safe string.
func SanitizeName(raw string) string {
	var builder strings.Builder
	builder.Grow(len(raw))
	for _, r := range norm.NFC.String(raw) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '_', r == '-':
			builder.WriteRune(r)
		case unicode.IsSpace(r):
			builder.WriteRune(' ')
		}
	}

	cleaned := strings.Join(strings.Fields(builder.String()), " ")
	if runes := []rune(cleaned); len(runes) > MaxStoreNameRunes {
		cleaned = strings.TrimSpace(string(runes[:MaxStoreNameRunes]))
	}
	if cleaned == "" {
		return FallbackStoreName
	}
	return cleaned
}

// PhotoExtension returns the lowercased extension of filename, or the default one.
func PhotoExtension(filename string) string {
	ext := strings.TrimPrefix(path.Ext(strings.TrimSpace(filename)), ".")
	ext = strings.ToLower(ext)
	if ext == "" || strings.ContainsAny(ext, `/\ `) {
		return DefaultPhotoExtension
	}
	return ext
}

// NumberedFileName returns name for n <= 1 and "base (n).ext" otherwise. Backends
// that reject duplicate keys use it to pick the next free name.
func NumberedFileName(name string, n int) string {
	if n <= 1 {
		return name
	}
	ext := path.Ext(name)
	return fmt.Sprintf("%s (%d)%s", strings.TrimSuffix(name, ext), n, ext)
}
