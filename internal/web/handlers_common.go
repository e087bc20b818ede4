// Package web provides HTTP handlers for the personas register.
// This file contains shared request parsing and response types.
package web

import (
	"net/http"
	"strings"

	"github.com/JonMunkholm/registro/internal/core"
)

// DeleteResponse is returned by the delete endpoint.
type DeleteResponse struct {
	Mensaje string `json:"mensaje"`
	ID      int64  `json:"id"`
	Deleted int64  `json:"eliminados"`
}

// parseCriteria reads the optional nombre and ciudad query parameters.
// Missing and blank parameters both mean "no filter".
func parseCriteria(r *http.Request) core.SearchCriteria {
	q := r.URL.Query()
	return core.NewSearchCriteria(q.Get("nombre"), q.Get("ciudad"))
}

// criteriaLabel names the filters present, for metrics.
func criteriaLabel(c core.SearchCriteria) string {
	var parts []string
	if c.Name.IsPresent() {
		parts = append(parts, "name")
	}
	if c.City.IsPresent() {
		parts = append(parts, "city")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ",")
}
