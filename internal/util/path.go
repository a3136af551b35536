// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

// SanitizeFilename keeps only the base name of an uploaded file.
func SanitizeFilename(filename string) (string, error) {
	safe := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	if safe == "." || safe == ".." || safe == "" || safe == string(filepath.Separator) {
		return "", fmt.Errorf("invalid filename: %q", filename)
	}
	return safe, nil
}

// SafeJoinPath joins a storage key onto basePath and rejects results that
// escape the base directory.
func SafeJoinPath(basePath string, key string) (string, error) {
	if key == "" || path.IsAbs(key) || ContainsPathTraversal(key) {
		return "", fmt.Errorf("invalid storage key: %q", key)
	}

	absBase, err := filepath.Abs(filepath.Clean(basePath))
	if err != nil {
		return "", fmt.Errorf("invalid base path: %w", err)
	}
	full := filepath.Join(absBase, filepath.FromSlash(key))
	if full != absBase && !strings.HasPrefix(full, absBase+string(filepath.Separator)) {
		return "", fmt.Errorf("path traversal detected: %q escapes base directory", key)
	}
	return full, nil
}

// ContainsPathTraversal reports whether p climbs out of its root after cleaning.
func ContainsPathTraversal(p string) bool {
	cleaned := path.Clean(strings.ReplaceAll(p, "\\", "/"))
	return cleaned == ".." || strings.HasPrefix(cleaned, "../") || strings.Contains(cleaned, "/../")
}
