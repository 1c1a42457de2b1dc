package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/sportfield-booking/internal/handler"
	"github.com/iliyamo/sportfield-booking/internal/reconciler"
	"github.com/iliyamo/sportfield-booking/internal/timegrid"
)

func TestRoutes(t *testing.T) {
	views := reconciler.NewRegistry(reconciler.Deps{Catalog: timegrid.DefaultCatalog()}, reconciler.Config{}, 0)
	e := echo.New()
	RegisterRoutes(e, Handlers{Views: handler.NewViewHandler(views, nil)}, Middlewares{}, "secret")

	cases := []struct {
		method, path string
		want         int
	}{
		{http.MethodGet, "/healthz", http.StatusOK},
		{http.MethodPost, "/v1/views", http.StatusUnauthorized},
		{http.MethodGet, "/v1/views/abc", http.StatusUnauthorized},
		{http.MethodGet, "/v1/nope", http.StatusNotFound},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, nil))
		if rec.Code != tc.want {
			t.Errorf("%s %s: expected %d, got %d", tc.method, tc.path, tc.want, rec.Code)
		}
	}
}
