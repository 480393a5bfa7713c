package handlers

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/viewtube/backend/internal/auth"
	"github.com/viewtube/backend/internal/models"
	"github.com/viewtube/backend/internal/repositories"
)

func TestRespondFailureTaxonomy(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"not found", repositories.ErrNotFound, http.StatusNotFound},
		{"wrapped not found", fmt.Errorf("load video: %w", repositories.ErrNotFound), http.StatusNotFound},
		{"conflict", repositories.ErrConflict, http.StatusConflict},
		{"self subscription", repositories.ErrSelfSubscription, http.StatusBadRequest},
		{"bad credentials", auth.ErrInvalidCredentials, http.StatusUnauthorized},
		{"invalid token", auth.ErrInvalidToken, http.StatusUnauthorized},
		{"expired token", auth.ErrTokenExpired, http.StatusUnauthorized},
		{"stale token", auth.ErrTokenStale, http.StatusUnauthorized},
		{"unknown", fmt.Errorf("pool exhausted"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			respondFailure(context.Background(), rec, tc.err, "something went wrong")

			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, rec.Code)
			}
			envelope := decodeEnvelope(t, rec)
			if envelope["success"] != false || envelope["statusCode"] != float64(tc.want) {
				t.Fatalf("unexpected envelope: %v", envelope)
			}
			if tc.want == http.StatusInternalServerError && envelope["message"] != "something went wrong" {
				t.Fatalf("internal errors must use the fallback message, got %v", envelope["message"])
			}
		})
	}
}

func TestParsePage(t *testing.T) {
	cases := []struct {
		query   string
		want    models.Page
		wantErr bool
	}{
		{"", models.Page{Number: 1, Limit: 10}, false},
		{"page=3&limit=25", models.Page{Number: 3, Limit: 25}, false},
		{"limit=1000", models.Page{Number: 1, Limit: maxPageLimit}, false},
		{"page=0", models.Page{}, true},
		{"limit=-5", models.Page{}, true},
		{"page=abc", models.Page{}, true},
	}

	for _, tc := range cases {
		r := httptest.NewRequest(http.MethodGet, "/?"+tc.query, nil)
		page, err := parsePage(r)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("%q: expected error", tc.query)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%q: unexpected error %v", tc.query, err)
		}
		if page != tc.want {
			t.Fatalf("%q: got %+v want %+v", tc.query, page, tc.want)
		}
	}
}

func TestPageMetaBoundaries(t *testing.T) {
	meta := models.NewPageMeta(models.Page{Number: 1, Limit: 10}, 0)
	if meta.TotalPages != 0 || meta.HasNextPage || meta.HasPrevPage {
		t.Fatalf("empty result meta wrong: %+v", meta)
	}

	meta = models.NewPageMeta(models.Page{Number: 2, Limit: 10}, 21)
	if meta.TotalPages != 3 || !meta.HasNextPage || !meta.HasPrevPage {
		t.Fatalf("mid-page meta wrong: %+v", meta)
	}

	meta = models.NewPageMeta(models.Page{Number: 3, Limit: 10}, 21)
	if meta.HasNextPage || !meta.HasPrevPage {
		t.Fatalf("last-page meta wrong: %+v", meta)
	}
}
