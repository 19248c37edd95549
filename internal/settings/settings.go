// Package settings owns the runtime import settings: the browse root, the
// copy/move behavior and the extension allow list.
package settings

import (
	"os"
	"path/filepath"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/sideload/internal/filetype"
)

// Import behaviors.
const (
	BehaviorCopy = "copy"
	BehaviorMove = "move"
)

// Settings is one immutable snapshot of the runtime settings.
type Settings struct {
	RootPath       string `yaml:"root_path" json:"root_path"`
	ImportBehavior string `yaml:"import_behavior" json:"import_behavior"`
	AllowedTypes   string `yaml:"allowed_types" json:"allowed_types"`
}

// Defaults returns the settings used before anything is saved.
func Defaults(contentDir string) Settings {
	return Settings{RootPath: contentDir, ImportBehavior: BehaviorCopy}
}

// Validate validates the settings.
func (s Settings) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.RootPath, validation.Required),
		validation.Field(&s.ImportBehavior, validation.Required, validation.In(BehaviorCopy, BehaviorMove)),
	)
}

// Policy returns the import type policy of s.
func (s Settings) Policy() filetype.Policy {
	return filetype.NewPolicy(s.AllowedTypes)
}

// Notice texts returned by Sanitize.
const (
	NoticeRootReverted = "The specified root path does not exist or is not a directory. Reverted to default."
)

// Sanitize normalizes operator input. A root that is not an existing
// directory is replaced by defaultRoot with a notice; any behavior other
// than "move" becomes "copy"; the allow list is trimmed and lower-cased.
func Sanitize(in Settings, defaultRoot string) (Settings, []string) {
	var notices []string
	out := Settings{}

	root := strings.TrimSpace(in.RootPath)
	if root != "" {
		root = filepath.Clean(root)
	}
	if info, err := os.Stat(root); root == "" || err != nil || !info.IsDir() {
		root = defaultRoot
		notices = append(notices, NoticeRootReverted)
	}
	out.RootPath = root

	out.ImportBehavior = BehaviorCopy
	if strings.TrimSpace(in.ImportBehavior) == BehaviorMove {
		out.ImportBehavior = BehaviorMove
	}

	out.AllowedTypes = strings.Join(filetype.ParseAllowList(in.AllowedTypes), ",")
	return out, notices
}
