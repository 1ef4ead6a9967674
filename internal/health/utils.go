package health

import (
	"os"
	"path/filepath"
	"strings"
)

// ShouldExcludePath checks if a path matches any exclude patterns.
// Patterns can be:
//   - Directory prefixes: "vendor/" matches "vendor/foo.go" and the "vendor" directory itself
//   - File suffixes: "_test.go" matches "foo_test.go"
//   - Anywhere in path: ".git/" matches "src/.git/config"
func ShouldExcludePath(relPath string, info os.FileInfo, patterns []string) bool {
	relPath = filepath.ToSlash(relPath)
	if info != nil && info.IsDir() && relPath != "" && !strings.HasSuffix(relPath, "/") {
		relPath += "/"
	}

	for _, pattern := range patterns {
		// Match at path component boundaries so "vendor/" skips "vendor/foo"
		// but not "vendorized/bar"
		switch {
		case strings.HasPrefix(relPath, pattern):
			return true
		case strings.Contains(relPath, "/"+pattern):
			return true
		case strings.HasSuffix(relPath, pattern):
			return true
		}
	}

	return false
}
