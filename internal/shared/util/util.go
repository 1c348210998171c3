// # internal/shared/util/util.go
package util

import (
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NormalizeModulePath cleans a module identifier for comparison and output:
// forward slashes only, no leading "./", no trailing slash.
func NormalizeModulePath(s string) string {
	trimmed := strings.TrimSpace(strings.ReplaceAll(s, "\\", "/"))
	clean := path.Clean(trimmed)
	if clean == "." {
		return ""
	}
	return strings.TrimPrefix(clean, "./")
}

// RootRelative re-expresses an absolute or root-joined path relative to the
// project root with a "./" prefix, the form the bridge expects on the wire.
func RootRelative(root, p string) string {
	root = NormalizeModulePath(root)
	p = NormalizeModulePath(p)
	if root != "" {
		if p == root {
			return "./"
		}
		p = strings.TrimPrefix(p, root+"/")
	}
	return "./" + p
}

// IsRelativeSpecifier reports whether an import specifier is relative in the
// ES module sense ("./x", "../x").
func IsRelativeSpecifier(spec string) bool {
	return strings.HasPrefix(spec, "./") || strings.HasPrefix(spec, "../")
}

// TempModuleName builds a collision-resistant file name for a derived test
// module: <prefix>-<millis>-<random>.<ext>. Uniqueness is probabilistic,
// which is acceptable for a test-only code path.
func TempModuleName(prefix, ext string) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	ext = strings.TrimPrefix(ext, ".")
	return fmt.Sprintf("%s-%d-%s.%s", prefix, time.Now().UnixMilli(), suffix, ext)
}

// SortedCopy returns a sorted copy of the slice; callers mutate freely.
func SortedCopy(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	sort.Strings(out)
	return out
}
