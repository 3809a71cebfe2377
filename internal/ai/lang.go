package ai

import (
	"errors"
	"strings"
)

const DefaultLang = "en"

var ErrUnsupportedLang = errors.New("lang must be en or vi")

// ParseLang validates a response language; empty means DefaultLang
func ParseLang(lang string) (string, error) {
	switch l := strings.ToLower(strings.TrimSpace(lang)); l {
	case "":
		return DefaultLang, nil
	case "en", "vi":
		return l, nil
	default:
		return "", ErrUnsupportedLang
	}
}
