package snapshot

import (
	"fmt"

	"github.com/tiendc/go-deepcopy"
	"github.com/ukaji3/sheetbridge-go/pkg/sheetbridge/models"
)

// Clone returns a deep copy of wb, so that a snapshot pulled from the
// engine can be exported while the engine keeps editing its own copy.
func Clone(wb *models.WorkbookSnapshot) (*models.WorkbookSnapshot, error) {
	if wb == nil {
		return nil, nil
	}
	var dst models.WorkbookSnapshot
	if err := deepcopy.Copy(&dst, wb); err != nil {
		return nil, fmt.Errorf("clone snapshot: %w", err)
	}
	return &dst, nil
}
