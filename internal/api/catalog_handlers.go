package api

import (
	"net/http"
	"strconv"

	"github.com/example/device-portal/internal/catalog"
	"github.com/example/device-portal/internal/portalerr"
	"github.com/example/device-portal/internal/query"
)

// CatalogHandlers serves the faceted device catalog. The engine runs over
// the current read models on every request, so facet enablement always
// reflects live inventory.
type CatalogHandlers struct {
	queryHandler *query.Handler
}

func NewCatalogHandlers(queryHandler *query.Handler) *CatalogHandlers {
	return &CatalogHandlers{queryHandler: queryHandler}
}

// SearchDevices handles GET /devices. Facet selections arrive as repeated
// query parameters named after the facet fields, e.g.
// ?category=smartphone&manufacturer=Samsung&storage=128GB&storage=256GB.
func (h *CatalogHandlers) SearchDevices(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	q := catalog.NewQuery(params.Get("category"))
	if search := params.Get("search"); search != "" {
		q = q.WithSearch(search)
	}
	for _, field := range catalog.FacetFields {
		for _, value := range params[field] {
			q = q.Toggle(field, value)
		}
	}
	if page, err := strconv.Atoi(params.Get("page")); err == nil {
		q = q.WithPage(page)
	}
	if size, err := strconv.Atoi(params.Get("page_size")); err == nil {
		q.PageSize = size
	}

	respondJSON(w, http.StatusOK, h.queryHandler.SearchDevices(q))
}

// DeviceSnapshot handles GET /devices/snapshot. It returns the raw
// orderable inventory for one category so clients can run their own
// faceting and pagination offline.
func (h *CatalogHandlers) DeviceSnapshot(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.queryHandler.DeviceSnapshot(r.URL.Query().Get("category")))
}

// GetDevice handles GET /devices/{id}
func (h *CatalogHandlers) GetDevice(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/devices/")

	device, ok := h.queryHandler.GetDevice(id)
	if !ok || device.Retired {
		respondError(w, http.StatusNotFound, portalerr.CodeNotFound, "Device not found")
		return
	}

	respondJSON(w, http.StatusOK, device)
}

// ListCategories handles GET /categories
func (h *CatalogHandlers) ListCategories(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.queryHandler.ListCategories())
}
