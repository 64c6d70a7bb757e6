package ingest

import (
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/venue-planner/constants"
)

// AllowedExt checks if a file extension is in the upload allow-list.
func AllowedExt(ext string) bool {
	return constants.IsAllowedExt(ext)
}

// IsHidden reports dotfiles and office lock files such as "~$quote.xlsx".
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".") || strings.HasPrefix(base, "~$")
}
