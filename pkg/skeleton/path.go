package skeleton

import (
	"fmt"
	"strings"
)

// PathSeparator separates the segments of a bone path.
const PathSeparator = "/"

// reservedChars cannot appear in bone paths, aliases or animation names
// because the persisted format uses them as delimiters.
const reservedChars = "=:[]#;,\"'`\\\r\n"

// ParentPath returns path with its last segment removed, or "" for a root path.
func ParentPath(path string) string {
	i := strings.LastIndex(path, PathSeparator)
	if i < 0 {
		return ""
	}
	return path[:i]
}

// LeafName returns the last segment of path.
func LeafName(path string) string {
	return path[strings.LastIndex(path, PathSeparator)+1:]
}

// JoinPath appends name to parent. An empty parent yields a root path.
func JoinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + PathSeparator + name
}

// IsDescendantOrSelf reports whether path equals ancestor or lies below it.
// Matching is segment aware: "root/armor" is not below "root/arm".
func IsDescendantOrSelf(path, ancestor string) bool {
	if !strings.HasPrefix(path, ancestor) {
		return false
	}
	return len(path) == len(ancestor) || strings.HasPrefix(path[len(ancestor):], PathSeparator)
}

// rebase swaps the from prefix of path for to. path must satisfy
// IsDescendantOrSelf(path, from).
func rebase(path, from, to string) string {
	return to + path[len(from):]
}

// validateName checks a single token used as an alias or animation name.
func validateName(name string) error {
	if name == "" || strings.TrimSpace(name) != name || strings.ContainsAny(name, reservedChars) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// stepNameChars cannot appear in step names. ini.v1 reads them as quotes,
// escapes or line breaks inside values.
const stepNameChars = "\"'`\\\r\n"

// validateStepName checks a step name. Unlike bone and animation names it may
// be empty and may contain delimiters, since it is only ever stored as a value.
func validateStepName(name string) error {
	if strings.TrimSpace(name) != name || strings.ContainsAny(name, stepNameChars) {
		return fmt.Errorf("%w: step name %q", ErrInvalidName, name)
	}
	return nil
}

// validatePath checks that every segment of path is a valid name.
func validatePath(path string) error {
	for _, seg := range strings.Split(path, PathSeparator) {
		if err := validateName(seg); err != nil {
			return fmt.Errorf("%w: bone path %q", ErrInvalidName, path)
		}
	}
	return nil
}
