package storage

import (
	"time"

	"github.com/md-rashed-zaman/barberbook/services/scheduling-service/internal/model"
)

// Dates travel as YYYY-MM-DD text and are cast with ::date so the server never applies
// its own time zone to them.
func dateParam(t time.Time) string {
	return model.DateKey(t)
}
