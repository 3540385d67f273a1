// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package mask redacts personal data before it is logged or displayed.
package mask

import "strings"

// visibleLocalChars is how many leading characters of the local part stay readable.
const visibleLocalChars = 2

// Email masks the local part of an email address.
//
//	Email(pointer.To("ab@example.com")) // "ab***@example.com"
//	Email(pointer.To("a@example.com"))  // "a***@example.com"
//	Email(nil)                          // ""
func Email(email *string) string {
	if email == nil {
		return ""
	}
	return EmailString(*email)
}

// EmailString is [Email] for a plain string. A value without "@" is masked whole.
func EmailString(email string) string {
	if email == "" {
		return ""
	}

	local, domain, found := strings.Cut(email, "@")
	runes := []rune(local)
	if len(runes) > visibleLocalChars {
		runes = runes[:visibleLocalChars]
	}

	masked := string(runes) + "***"
	if !found {
		return masked
	}
	return masked + "@" + domain
}
