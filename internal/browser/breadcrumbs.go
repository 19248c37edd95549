package browser

import (
	"path/filepath"
	"strings"

	"github.com/starford/sideload/internal/models"
	"github.com/starford/sideload/internal/pathguard"
)

// RootLabel is the label of the first breadcrumb.
const RootLabel = "Root"

// Breadcrumbs returns the trail from root down to current, inclusive.
// current must be canonical and within root.
func Breadcrumbs(root, current string) []models.Breadcrumb {
	crumbs := []models.Breadcrumb{{Label: RootLabel, Path: root}}
	rel, ok := pathguard.Rel(root, current)
	if !ok || rel == "" {
		return crumbs
	}
	acc := root
	for _, seg := range strings.Split(rel, "/") {
		if seg == "" {
			continue
		}
		acc = filepath.Join(acc, seg)
		crumbs = append(crumbs, models.Breadcrumb{Label: seg, Path: acc})
	}
	return crumbs
}
