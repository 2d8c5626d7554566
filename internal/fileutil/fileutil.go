// Package fileutil provides small filesystem helpers shared across the
// pipeline: streaming copies, filename sanitization, and collision-free
// output directory creation.
package fileutil

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// CopyFile streams src to dst using io.Copy with default permissions (0o644).
func CopyFile(src, dst string) error {
	return CopyFileMode(src, dst, 0o644)
}

// CopyFileMode streams src to dst, setting the given file mode on dst.
func CopyFileMode(src, dst string, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}

// Stem returns the file name without directory or extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// SanitizeName rewrites a user-supplied album name into something safe
// to use as a directory name: invalid characters become underscores,
// leading/trailing dots and spaces are stripped, and the result is
// capped at 200 characters. An empty result falls back to "output".
func SanitizeName(name string) string {
	const invalid = `<>:"/\|?*`
	sanitized := strings.Map(func(r rune) rune {
		if strings.ContainsRune(invalid, r) {
			return '_'
		}
		return r
	}, name)

	sanitized = strings.Trim(sanitized, ". ")
	if sanitized == "" {
		sanitized = "output"
	}
	if len(sanitized) > 200 {
		sanitized = sanitized[:200]
	}
	return sanitized
}

// UniqueDir creates and returns baseDir/<sanitized name>, appending
// ".1", ".2", ... when the directory already exists. After 1000
// collisions it falls back to a timestamp suffix.
func UniqueDir(baseDir, name string) (string, error) {
	safe := SanitizeName(name)

	candidate := filepath.Join(baseDir, safe)
	if created, err := mkdirIfAbsent(candidate); err != nil {
		return "", err
	} else if created {
		return candidate, nil
	}

	for counter := 1; counter < 1000; counter++ {
		candidate = filepath.Join(baseDir, fmt.Sprintf("%s.%d", safe, counter))
		if created, err := mkdirIfAbsent(candidate); err != nil {
			return "", err
		} else if created {
			return candidate, nil
		}
	}

	candidate = filepath.Join(baseDir, safe+"_"+time.Now().Format("20060102_150405"))
	if err := os.MkdirAll(candidate, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	return candidate, nil
}

func mkdirIfAbsent(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("stat %q: %w", path, err)
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return false, fmt.Errorf("create directory %q: %w", path, err)
	}
	return true, nil
}
