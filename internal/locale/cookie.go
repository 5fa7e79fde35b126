// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package locale

import "strings"

const segmentSep = "; "

// RewriteCookie returns header with every CookieName segment removed and a
// single CookieName=code segment prepended. The remaining segments keep
// their relative order. Keys are matched case-sensitively.
func RewriteCookie(header, code string) string {
	segments := []string{CookieName + "=" + code}
	for _, seg := range splitSegments(header) {
		if segmentKey(seg) == CookieName {
			continue
		}
		segments = append(segments, seg)
	}
	return strings.Join(segments, segmentSep)
}

// CookieValue returns the value of the first CookieName segment in header.
func CookieValue(header string) (string, bool) {
	for _, seg := range splitSegments(header) {
		if segmentKey(seg) != CookieName {
			continue
		}
		_, value, _ := strings.Cut(seg, "=")
		return strings.TrimSpace(value), true
	}
	return "", false
}

func splitSegments(header string) []string {
	var segments []string
	for seg := range strings.SplitSeq(header, ";") {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		segments = append(segments, seg)
	}
	return segments
}

func segmentKey(seg string) string {
	key, _, _ := strings.Cut(seg, "=")
	return strings.TrimSpace(key)
}
