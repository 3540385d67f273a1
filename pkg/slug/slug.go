// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package slug normalizes arbitrary Unicode strings into ASCII slugs.
//
// # Usage
//
// Usernames double as profile URLs (uservault.app/{username}), so every
// claimed name and every lookup goes through [Username] first.
package slug

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	// MinUsernameLength is the shortest claimable username.
	MinUsernameLength = 3
	// MaxUsernameLength is the longest claimable username.
	MaxUsernameLength = 32
)

var (
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9-]+`)
	multiHyphen     = regexp.MustCompile(`-{2,}`)
)

// From converts an arbitrary Unicode string into a URL-safe ASCII slug.
//
// # Transformation Pipeline
//
// 1. Normalizes to NFD and drops combining marks (é → e).
// 2. Converts to lowercase.
// 3. Replaces anything that is not a letter or digit with a hyphen.
// 4. Collapses repeated hyphens and trims them from both ends.
func From(s string) string {
	t := transform.Chain(norm.NFD, transform.RemoveFunc(isMn))
	result, _, _ := transform.String(t, s)

	result = strings.ToLower(result)

	result = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return '-'
	}, result)

	result = nonAlphanumeric.ReplaceAllString(result, "-")
	result = multiHyphen.ReplaceAllString(result, "-")
	result = strings.Trim(result, "-")

	return result
}

// Username normalizes a requested username and reports whether the result
// is claimable.
func Username(s string) (string, bool) {
	normalized := From(s)
	length := utf8.RuneCountInString(normalized)
	return normalized, length >= MinUsernameLength && length <= MaxUsernameLength
}

// isMn reports whether r is a Unicode non-spacing mark (e.g., accents).
func isMn(r rune) bool {
	return unicode.Is(unicode.Mn, r)
}
