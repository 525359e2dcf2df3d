// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package slug provides URL-friendly slug generation and validation for
// tag identifiers.
package slug

import (
	"regexp"
	"strings"
)

// MaxLen is the maximum slug length accepted by the tags table.
const MaxLen = 50

var (
	// nonAlphanumeric matches anything that isn't a letter, digit, or space.
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9\s-]`)
	// multipleHyphens collapses consecutive hyphens into one.
	multipleHyphens = regexp.MustCompile(`-{2,}`)
	// validSlug is the shape a stored tag slug must have.
	validSlug = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
)

// Generate creates a URL-friendly slug from the given string.
// Example: "Quick Breakfast!" → "quick-breakfast"
func Generate(s string) string {
	result := strings.ToLower(strings.TrimSpace(s))
	result = nonAlphanumeric.ReplaceAllString(result, "")
	result = strings.ReplaceAll(result, " ", "-")
	result = multipleHyphens.ReplaceAllString(result, "-")
	result = strings.Trim(result, "-")
	if len(result) > MaxLen {
		result = strings.Trim(result[:MaxLen], "-")
	}
	return result
}

// Valid reports whether s is an acceptable stored slug: non-empty, at most
// MaxLen bytes, lowercase alphanumerics separated by single hyphens.
func Valid(s string) bool {
	if s == "" || len(s) > MaxLen {
		return false
	}
	return validSlug.MatchString(s)
}
