package view

import (
	"time"

	"github.com/clerky/igdm/internal/api"
)

// DateLayout mirrors the day-first pt-BR locale the backend's users read.
const DateLayout = "02/01/2006 15:04:05"

// Location is where timestamps are displayed. Tests pin it.
var Location = time.Local

// FormatDate renders a message timestamp, or "-" when it is absent.
func FormatDate(ts api.Timestamp) string {
	if ts.IsZero() {
		return "-"
	}
	return ts.Time().In(Location).Format(DateLayout)
}
