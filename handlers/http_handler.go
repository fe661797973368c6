// Package handlers provides the HTTP handlers of the brand/generic lookup API.
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/giygas/drugbank-mapping/interfaces"
	"github.com/giygas/drugbank-mapping/logging"
	"github.com/go-chi/chi/v5"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Compile-time check to ensure HTTPHandlerImpl implements HTTPHandler
var _ interfaces.HTTPHandler = (*HTTPHandlerImpl)(nil)

// PageSize is the number of rows per /mappings page
const PageSize = 100

// HTTPHandlerImpl implements the interfaces.HTTPHandler interface
type HTTPHandlerImpl struct {
	dataStore     interfaces.DataStore
	validator     interfaces.DataValidator
	healthChecker interfaces.HealthChecker
}

// NewHTTPHandler creates a new HTTP handler with injected dependencies
func NewHTTPHandler(dataStore interfaces.DataStore, validator interfaces.DataValidator,
	healthChecker interfaces.HealthChecker) *HTTPHandlerImpl {
	return &HTTPHandlerImpl{
		dataStore:     dataStore,
		validator:     validator,
		healthChecker: healthChecker,
	}
}

// BrandResponse answers a brand lookup
type BrandResponse struct {
	Brand    string   `json:"brand_name"`
	Generics []string `json:"generic_names"`
}

// GenericResponse answers a generic lookup
type GenericResponse struct {
	Generic string   `json:"generic_name"`
	Brands  []string `json:"brand_names"`
}

// HealthResponse keeps a stable JSON field order for /health
type HealthResponse struct {
	Status        string         `json:"status"`
	LastUpdate    string         `json:"last_update"`
	NextUpdate    string         `json:"next_update"`
	Uptime        string         `json:"uptime"`
	UptimeSeconds float64        `json:"uptime_seconds"`
	Data          map[string]any `json:"data"`
	System        map[string]any `json:"system"`
}

// RespondWithJSON writes a JSON response
func (h *HTTPHandlerImpl) RespondWithJSON(w http.ResponseWriter, code int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		logging.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if lastUpdate := h.dataStore.GetLastUpdated(); !lastUpdate.IsZero() {
		w.Header().Set("Last-Modified", lastUpdate.UTC().Format(http.TimeFormat))
	}
	w.WriteHeader(code)
	w.Write(data)
}

// RespondWithError writes a JSON error response
func (h *HTTPHandlerImpl) RespondWithError(w http.ResponseWriter, code int, message string) {
	h.RespondWithJSON(w, code, map[string]any{
		"error":   http.StatusText(code),
		"message": message,
		"code":    code,
	})
}

// FindBrand returns the generic names of a brand
func (h *HTTPHandlerImpl) FindBrand(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := h.validator.ValidateName(name); err != nil {
		logging.Warn("Unusual user input", "brand", name)
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	generics, ok := h.dataStore.GenericsForBrand(name)
	if !ok {
		h.RespondWithError(w, http.StatusNotFound, fmt.Sprintf("Brand %q not found", name))
		return
	}

	h.RespondWithJSON(w, http.StatusOK, BrandResponse{
		Brand:    cases.Lower(language.Und).String(name),
		Generics: generics,
	})
}

// FindGeneric returns the brand names of a generic drug
func (h *HTTPHandlerImpl) FindGeneric(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := h.validator.ValidateName(name); err != nil {
		logging.Warn("Unusual user input", "generic", name)
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	brands, ok := h.dataStore.BrandsForGeneric(name)
	if !ok {
		h.RespondWithError(w, http.StatusNotFound, fmt.Sprintf("Generic %q not found", name))
		return
	}

	h.RespondWithJSON(w, http.StatusOK, GenericResponse{
		Generic: cases.Lower(language.Und).String(name),
		Brands:  brands,
	})
}

// ServePagedMappings returns the rows in output order, PageSize at a time
func (h *HTTPHandlerImpl) ServePagedMappings(w http.ResponseWriter, r *http.Request) {
	pageParam := r.URL.Query().Get("page")
	page, err := h.validator.ValidatePage(pageParam)
	if err != nil {
		logging.Warn("Unusual user input", "page", pageParam)
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	rows := h.dataStore.GetRows()
	start := (page - 1) * PageSize
	end := min(start+PageSize, len(rows))

	if start >= len(rows) {
		h.RespondWithError(w, http.StatusNotFound, "Page not found")
		return
	}

	totalItems := len(rows)
	h.RespondWithJSON(w, http.StatusOK, map[string]any{
		"data":       rows[start:end],
		"page":       page,
		"pageSize":   PageSize,
		"totalItems": totalItems,
		"maxPage":    (totalItems + PageSize - 1) / PageSize,
	})
}

// HealthCheck returns service health information
func (h *HTTPHandlerImpl) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status, data, httpStatus := h.healthChecker.HealthCheck()

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	var uptime time.Duration
	if started := h.dataStore.GetServerStartTime(); !started.IsZero() {
		uptime = time.Since(started)
	}

	next := ""
	if nextUpdate := h.healthChecker.CalculateNextUpdate(); !nextUpdate.IsZero() {
		next = nextUpdate.Format(time.RFC3339)
	}

	lastUpdate, _ := data["last_update"].(string)

	h.RespondWithJSON(w, httpStatus, HealthResponse{
		Status:        status,
		LastUpdate:    lastUpdate,
		NextUpdate:    next,
		Uptime:        formatUptimeHuman(uptime),
		UptimeSeconds: uptime.Seconds(),
		Data:          data,
		System: map[string]any{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc_mb": int(m.Alloc / 1024 / 1024),
				"sys_mb":   int(m.Sys / 1024 / 1024),
				"num_gc":   m.NumGC,
			},
		},
	})
}

// formatUptimeHuman formats duration into a human-readable string
func formatUptimeHuman(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	var parts []string

	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 || days > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 || hours > 0 || days > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	parts = append(parts, fmt.Sprintf("%ds", seconds))

	return strings.Join(parts, " ")
}
