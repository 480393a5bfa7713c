package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/viewtube/backend/internal/models"
)

const (
	defaultPageNumber = 1
	defaultPageLimit  = 10
	maxPageLimit      = 100
)

// parsePage reads page and limit query parameters, applying defaults and
// rejecting non-positive or oversized values.
func parsePage(r *http.Request) (models.Page, error) {
	page := models.Page{Number: defaultPageNumber, Limit: defaultPageLimit}

	if raw := r.URL.Query().Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return models.Page{}, fmt.Errorf("page must be a positive integer")
		}
		page.Number = n
	}

	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return models.Page{}, fmt.Errorf("limit must be a positive integer")
		}
		if n > maxPageLimit {
			n = maxPageLimit
		}
		page.Limit = n
	}

	return page, nil
}

// pagedData wraps a result slice with its pagination metadata.
type pagedData struct {
	Items any             `json:"items"`
	Meta  models.PageMeta `json:"meta"`
}
