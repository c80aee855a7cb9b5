package httpserver_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	server "talent_testimonials/internal/adapters/http_server"
	"talent_testimonials/internal/app"
	"talent_testimonials/internal/domain"
	"talent_testimonials/internal/storage/memory"
)

func pint(i int) *int { return &i }

var base = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

func fixture() []domain.Review {
	ratings := []*int{pint(5), pint(5), pint(4), nil, pint(3), pint(5), pint(4)}
	out := make([]domain.Review, len(ratings))
	for i, r := range ratings {
		out[i] = domain.Review{
			ID:          int64(i + 1),
			Rating:      r,
			ServiceType: domain.ServiceExecutiveSearch,
			Featured:    i == 0 || i == 3,
			PublishedAt: base.Add(time.Duration(i) * 24 * time.Hour),
			Body:        "review",
		}
	}
	out[4].ServiceType = domain.ServiceTemporaryStaffing
	return out
}

func newServer(t *testing.T, store *memory.Store) *httptest.Server {
	t.Helper()
	q := app.NewQueryService(store, 3, time.Second)
	srv := server.New(time.Second)
	srv.MountHandlers(&server.Handlers{Q: q, Defaults: app.PageDefaults{PageSize: 3, MaxPageSize: 10}})
	ts := httptest.NewServer(srv.Mux())
	t.Cleanup(ts.Close)
	return ts
}

func getJSON(t *testing.T, url string, dst any) *http.Response {
	t.Helper()
	res, err := http.Get(url)
	require.NoError(t, err)
	defer res.Body.Close()
	if dst != nil && res.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(res.Body).Decode(dst))
	}
	return res
}

func TestListTestimonials_FourPlusPageTwo(t *testing.T) {
	rq := require.New(t)
	ts := newServer(t, memory.New(fixture()...))

	var view domain.TestimonialsView
	res := getJSON(t, ts.URL+"/v1/testimonials?rating=4&page=2", &view)
	rq.Equal(http.StatusOK, res.StatusCode)
	rq.NotEmpty(res.Header.Get("ETag"))

	rq.Equal(7, view.Summary.Count)
	rq.NotNil(view.Summary.AverageRating)
	rq.InDelta(4.3, *view.Summary.AverageRating, 1e-9)
	rq.Equal(2, view.TotalPages)
	rq.Equal(5, view.Total)
	rq.Len(view.Items, 2)
	// remaining 4-star reviews, newest first
	rq.Equal(int64(7), view.Items[0].ID)
	rq.Equal(int64(3), view.Items[1].ID)
	rq.Len(view.Featured, 2)
	rq.Equal(int64(4), view.Featured[0].ID)
}

func TestListTestimonials_InvalidParamsDegrade(t *testing.T) {
	rq := require.New(t)
	ts := newServer(t, memory.New(fixture()...))

	var view domain.TestimonialsView
	res := getJSON(t, ts.URL+"/v1/testimonials?rating=2&service=payroll&page=-4&page_size=abc", &view)
	rq.Equal(http.StatusOK, res.StatusCode)
	rq.Equal(domain.RatingAll, view.Filter.Rating)
	rq.Equal(domain.ServiceAll, view.Filter.Service)
	rq.Equal(1, view.Page.Page)
	rq.Equal(3, view.Filter.PageSize)
	rq.Equal(7, view.Total)
	rq.Equal(3, view.TotalPages)
}

func TestListTestimonials_ServiceFilter(t *testing.T) {
	rq := require.New(t)
	ts := newServer(t, memory.New(fixture()...))

	var view domain.TestimonialsView
	getJSON(t, ts.URL+"/v1/testimonials?service=temporary-staffing", &view)
	rq.Equal(1, view.Total)
	rq.Equal(int64(5), view.Items[0].ID)
}

func TestListTestimonials_PageBeyondEnd(t *testing.T) {
	rq := require.New(t)
	ts := newServer(t, memory.New(fixture()...))

	var view domain.TestimonialsView
	res := getJSON(t, ts.URL+"/v1/testimonials?rating=5&page=9", &view)
	rq.Equal(http.StatusOK, res.StatusCode)
	rq.Equal(1, view.TotalPages)
	rq.NotNil(view.Items)
	rq.Empty(view.Items)
}

func TestListTestimonials_HugePageNumber(t *testing.T) {
	rq := require.New(t)
	ts := newServer(t, memory.New(fixture()...))

	var view domain.TestimonialsView
	res := getJSON(t, ts.URL+"/v1/testimonials?page=4611686018427387905&page_size=2", &view)
	rq.Equal(http.StatusOK, res.StatusCode)
	rq.Equal(4, view.TotalPages)
	rq.NotNil(view.Items)
	rq.Empty(view.Items)
}

func TestListTestimonials_ETag304(t *testing.T) {
	rq := require.New(t)
	ts := newServer(t, memory.New(fixture()...))

	first := getJSON(t, ts.URL+"/v1/testimonials", nil)
	etag := first.Header.Get("ETag")
	rq.NotEmpty(etag)

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/v1/testimonials", nil)
	req.Header.Set("If-None-Match", etag)
	res, err := http.DefaultClient.Do(req)
	rq.NoError(err)
	res.Body.Close()
	rq.Equal(http.StatusNotModified, res.StatusCode)
}

func TestStoreUnavailable_Returns503(t *testing.T) {
	rq := require.New(t)
	store := memory.New(fixture()...)
	store.Fail(errors.New("connection refused"))
	ts := newServer(t, store)

	for _, path := range []string{"/v1/testimonials", "/v1/testimonials/summary", "/v1/testimonials/featured"} {
		res := getJSON(t, ts.URL+path, nil)
		rq.Equal(http.StatusServiceUnavailable, res.StatusCode, path)
		rq.Equal("application/problem+json", res.Header.Get("Content-Type"), path)
	}
}

func TestSummary_Empty(t *testing.T) {
	rq := require.New(t)
	ts := newServer(t, memory.New())

	var s domain.Summary
	res := getJSON(t, ts.URL+"/v1/testimonials/summary", &s)
	rq.Equal(http.StatusOK, res.StatusCode)
	rq.Equal(0, s.Count)
	rq.Nil(s.AverageRating)
	rq.Equal(0, s.FiveStarCount)
	rq.Equal(0, s.FeaturedCount)
}

func TestFeatured_Limit(t *testing.T) {
	rq := require.New(t)
	ts := newServer(t, memory.New(fixture()...))

	var out struct {
		Items []domain.Review `json:"items"`
	}
	getJSON(t, ts.URL+"/v1/testimonials/featured?limit=1", &out)
	rq.Len(out.Items, 1)
	rq.Equal(int64(4), out.Items[0].ID)

	res := getJSON(t, ts.URL+"/v1/testimonials/featured?limit=0", nil)
	rq.Equal(http.StatusBadRequest, res.StatusCode)
}

func TestHealthz(t *testing.T) {
	ts := newServer(t, memory.New())
	res := getJSON(t, ts.URL+"/healthz", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
}
