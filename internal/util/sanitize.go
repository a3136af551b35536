// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var stripPolicy = bluemonday.StrictPolicy()

// maxStripPasses bounds the decode/strip loop for nested encodings.
const maxStripPasses = 8

// angleBrackets is the fallback for input that is still changing after
// maxStripPasses.
var angleBrackets = strings.NewReplacer("<", "", ">", "")

// StripTags removes all markup from s and returns plain text.
// Entities are decoded before stripping, so "&lt;b&gt;Ivan&lt;/b&gt;" gives
// "Ivan" and "Tom &amp; Jerry" gives "Tom & Jerry".
func StripTags(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}
	for range maxStripPasses {
		next := html.UnescapeString(stripPolicy.Sanitize(html.UnescapeString(s)))
		if next == s {
			return s
		}
		s = next
	}
	return angleBrackets.Replace(s)
}
