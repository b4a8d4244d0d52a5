package crop

import (
	"fmt"

	"github.com/spherical/pdf-cropper/internal/domain"
)

// ApplyCrop sets region as the page's crop region. A nil region leaves the page
// untouched. It reports whether the page was changed.
func ApplyCrop(page domain.Page, region *domain.Rect) (bool, error) {
	if region == nil {
		return false, nil
	}
	if err := page.SetCropRegion(*region); err != nil {
		return false, fmt.Errorf("page %d: set crop region %s: %w", page.Number(), region, err)
	}
	return true, nil
}
