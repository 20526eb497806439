package storage

import (
	"time"

	"github.com/retiros-app/retiros/internal/common"
)

// Stored timestamp layouts, in parse order. Earlier eras of the database
// wrote naive `datetime('now')` strings (with and without fractional
// seconds); current writers always emit RFC3339 with offset. Reads must
// accept all three losslessly; rows are only rewritten into the current
// format on their next write.
var storedTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999999999",
}

// parseStoredTime normalizes a persisted timestamp string to a UTC instant.
// Naive layouts are interpreted as UTC. An unparseable value indicates data
// written by no known era of the system and surfaces as ErrInternal.
func parseStoredTime(value string) (time.Time, error) {
	for _, layout := range storedTimeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, common.InternalError("unparseable timestamp %q", value)
}

// formatStoredTime serializes an instant in the canonical on-disk format.
func formatStoredTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
