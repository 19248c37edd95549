package filetype

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Policy decides importability for a fixed allow list.
type Policy struct {
	allowed []string
}

// NewPolicy returns a Policy for a comma-separated extension list.
// An empty list permits every host type.
func NewPolicy(allowedTypes string) Policy {
	return Policy{allowed: ParseAllowList(allowedTypes)}
}

// ParseAllowList splits a comma-separated extension list, trimming spaces
// and leading dots and lower-casing each entry.
func ParseAllowList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		ext := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(part), "."))
		if ext == "" || slices.Contains(out, ext) {
			continue
		}
		out = append(out, ext)
	}
	return out
}

// Allowed returns the normalized allow list.
func (p Policy) Allowed() []string { return p.allowed }

// ExtensionAllowed reports whether name passes the allow list alone.
func (p Policy) ExtensionAllowed(name string) bool {
	if len(p.allowed) == 0 {
		return true
	}
	return slices.Contains(p.allowed, Ext(name))
}

// Importable reports whether name has a host type and passes the allow list.
func (p Policy) Importable(name string) bool {
	return TypeByName(name) != "" && p.ExtensionAllowed(name)
}

// Verify returns the MIME type for a file named name whose first bytes are
// head. It fails when the extension is unknown, or when an image extension
// is attached to content that is not an image.
func Verify(name string, head []byte) (string, error) {
	declared := TypeByName(name)
	if declared == "" {
		return "", fmt.Errorf("unknown file type for %q", name)
	}
	if !strings.HasPrefix(declared, "image/") {
		return declared, nil
	}
	detected := mimetype.Detect(head)
	if !strings.HasPrefix(detected.String(), "image/") {
		return "", fmt.Errorf("content does not match extension .%s (detected: %s)", Ext(name), detected.String())
	}
	return declared, nil
}
