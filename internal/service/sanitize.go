package service

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// strict strips every HTML element and attribute from user-supplied text.
var strict = bluemonday.StrictPolicy()

func sanitizeText(s string) string {
	return strings.TrimSpace(strict.Sanitize(s))
}

func sanitizeTextPtr(s *string) *string {
	if s == nil {
		return nil
	}
	clean := sanitizeText(*s)
	return &clean
}
