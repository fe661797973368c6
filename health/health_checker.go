// Package health reports the health of the lookup service from the age and size of its mapping.
package health

import (
	"math"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/giygas/drugbank-mapping/interfaces"
)

// HealthCheckerImpl implements the interfaces.HealthChecker interface
type HealthCheckerImpl struct {
	dataStore interfaces.DataStore
	refreshAt string
}

// NewHealthChecker creates a health checker. refreshAt is the ';' separated
// list of daily HH:MM refresh times.
func NewHealthChecker(dataStore interfaces.DataStore, refreshAt string) interfaces.HealthChecker {
	return &HealthCheckerImpl{
		dataStore: dataStore,
		refreshAt: refreshAt,
	}
}

// HealthCheck returns the status, the data shown by /health and the HTTP code to answer with
func (h *HealthCheckerImpl) HealthCheck() (status string, data map[string]any, httpStatus int) {
	summary := h.dataStore.GetSummary()
	lastUpdate := h.dataStore.GetLastUpdated()
	isUpdating := h.dataStore.IsUpdating()

	dataAge := time.Since(lastUpdate)

	switch {
	case summary.Rows == 0:
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable

	case dataAge > 48*time.Hour:
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable

	case dataAge > 24*time.Hour:
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable

	case isUpdating && dataAge > 6*time.Hour:
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable

	default:
		status = "healthy"
		httpStatus = http.StatusOK
	}

	data = map[string]any{
		"last_update":    lastUpdate.Format(time.RFC3339),
		"data_age_hours": math.Round(dataAge.Hours()*10) / 10,
		"rows":           summary.Rows,
		"brands":         summary.Brands,
		"generics":       summary.Generics,
		"skipped":        summary.Skipped,
		"is_updating":    isUpdating,
	}

	return status, data, httpStatus
}

// CalculateNextUpdate returns the next scheduled refresh time
func (h *HealthCheckerImpl) CalculateNextUpdate() time.Time {
	return NextUpdate(time.Now(), h.refreshAt)
}

// NextUpdate returns the first refresh time strictly after now. Malformed
// entries are ignored; with none left the zero time is returned.
func NextUpdate(now time.Time, refreshAt string) time.Time {
	var times []time.Time
	for _, entry := range strings.Split(refreshAt, ";") {
		clock, err := time.Parse("15:04", strings.TrimSpace(entry))
		if err != nil {
			continue
		}
		times = append(times, time.Date(now.Year(), now.Month(), now.Day(),
			clock.Hour(), clock.Minute(), 0, 0, now.Location()))
	}
	if len(times) == 0 {
		return time.Time{}
	}

	sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })
	for _, t := range times {
		if t.After(now) {
			return t
		}
	}

	// All of today's refreshes are done, the first one tomorrow is next
	return times[0].AddDate(0, 0, 1)
}
