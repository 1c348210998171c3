package util

import (
	"regexp"
	"strings"
	"testing"
)

func TestNormalizeModulePath(t *testing.T) {
	cases := map[string]string{
		"./src/foo.tsx":    "src/foo.tsx",
		"src\\foo.tsx":     "src/foo.tsx",
		"  ./a/b/../c.ts ": "a/c.ts",
		".":                "",
		"":                 "",
	}
	for in, want := range cases {
		if got := NormalizeModulePath(in); got != want {
			t.Errorf("NormalizeModulePath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRootRelative(t *testing.T) {
	if got := RootRelative("/proj", "/proj/src/Counter.tsx"); got != "./src/Counter.tsx" {
		t.Errorf("got %q", got)
	}
	// Already relative stays relative.
	if got := RootRelative("", "src/Counter.tsx"); got != "./src/Counter.tsx" {
		t.Errorf("got %q", got)
	}
}

func TestIsRelativeSpecifier(t *testing.T) {
	if !IsRelativeSpecifier("./fixtures/Counter") {
		t.Error("./ should be relative")
	}
	if !IsRelativeSpecifier("../Counter") {
		t.Error("../ should be relative")
	}
	if IsRelativeSpecifier("react") {
		t.Error("bare specifier is not relative")
	}
	if IsRelativeSpecifier("/abs/path") {
		t.Error("absolute path is not a relative specifier")
	}
}

func TestTempModuleName(t *testing.T) {
	name := TempModuleName("qwikbridge-ssr", ".tsx")
	pattern := regexp.MustCompile(`^qwikbridge-ssr-\d+-[0-9a-f]{8}\.tsx$`)
	if !pattern.MatchString(name) {
		t.Errorf("unexpected temp name %q", name)
	}
	if other := TempModuleName("qwikbridge-ssr", "tsx"); other == name {
		t.Error("two temp names should differ")
	}
	if strings.Contains(name, "..") {
		t.Error("temp name must not contain path traversal")
	}
}

func TestLimiter(t *testing.T) {
	l := NewLimiter(1, 2)
	if !l.Allow(1) || !l.Allow(1) {
		t.Error("burst of 2 should be allowed")
	}
	if l.Allow(1) {
		t.Error("third immediate request should be throttled")
	}
}
