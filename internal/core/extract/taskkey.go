package extract

import (
	"strings"

	"github.com/hay-kot/docket/internal/core/action"
)

// TaskKey computes the deterministic fingerprint used for exact-match
// deduplication. Discriminating tokens appear in a fixed order (PAN
// number, then deliverable type) so equal semantic candidates always
// produce byte-identical keys.
func TaskKey(c action.Candidate) string {
	parts := []string{string(c.TaskType)}

	if c.Metadata.PANNumber != "" {
		parts = append(parts, "pan_"+c.Metadata.PANNumber)
	}
	if c.Metadata.DeliverableType != "" {
		parts = append(parts, string(c.Metadata.DeliverableType))
	}
	parts = append(parts, c.Owner)

	return strings.Join(parts, "_")
}
