package model

import (
	"strings"

	laraerrors "github.com/livp123/laratail/pkg/errors"
)

// ValidateSiteID rejects identifiers that could escape the sites base directory.
// ValidateSiteID 拒绝可能逃逸站点根目录的标识符。
func ValidateSiteID(id string) error {
	switch {
	case strings.TrimSpace(id) == "", id == ".", id == "..":
		return laraerrors.NewSiteError(id)
	case strings.ContainsAny(id, `/\`), strings.ContainsRune(id, 0):
		return laraerrors.NewSiteError(id)
	}
	return nil
}
