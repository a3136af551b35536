// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "simple filename", input: "image.jpg", want: "image.jpg"},
		{name: "filename with spaces", input: "my image.jpg", want: "my image.jpg"},
		{name: "path traversal attempt", input: "../../../etc/passwd", want: "passwd"},
		{name: "windows path", input: `C:\photos\cat.png`, want: "cat.png"},
		{name: "dot dot", input: "..", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SanitizeFilename(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("SanitizeFilename(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSafeJoinPath(t *testing.T) {
	base := t.TempDir()

	got, err := SafeJoinPath(base, "originals/ab/cd.jpg")
	if err != nil {
		t.Fatalf("SafeJoinPath: %v", err)
	}
	if !strings.HasPrefix(got, base) || filepath.Base(got) != "cd.jpg" {
		t.Errorf("SafeJoinPath = %q", got)
	}

	for _, bad := range []string{"", "../x", "a/../../x", "/etc/passwd"} {
		if _, err := SafeJoinPath(base, bad); err == nil {
			t.Errorf("SafeJoinPath(%q) expected error", bad)
		}
	}
}

func TestContainsPathTraversal(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"a/b/c", false},
		{"a/../b", false},
		{"../a", true},
		{"..", true},
		{`..\a`, true},
	}
	for _, tt := range tests {
		if got := ContainsPathTraversal(tt.in); got != tt.want {
			t.Errorf("ContainsPathTraversal(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
