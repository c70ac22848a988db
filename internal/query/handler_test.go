package query

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/go-sod/kd/internal/index"
)

func newTestServer(t *testing.T) (*httptest.Server, *index.Registry) {
	t.Helper()
	registry := index.New()
	h := NewHandler(&Config{
		RequestTimeout: 5 * time.Second,
		MaxQueries:     4,
		MaxK:           10,
		MaxPoints:      100,
		Concurrency:    2,
	}, registry)
	mux := http.NewServeMux()
	h.Register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, registry
}

func post(t *testing.T, url string, body interface{}, out interface{}) int {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode < 300 {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func buildTriangle(t *testing.T, url string) {
	t.Helper()
	var created indexInfo
	code := post(t, url+"/index", buildRequest{
		Name:   "triangle",
		Points: [][]float64{{1, 2, 3}, {3, 1, 2}, {2, 3, 1}},
		Labels: []string{"a", "b", "c"},
	}, &created)
	require.Equal(t, http.StatusCreated, code)
	require.Equal(t, 3, created.Len)
	require.Equal(t, 3, created.Dimension)
}

func TestHandler_Nearest(t *testing.T) {
	t.Parallel()
	srv, _ := newTestServer(t)
	buildTriangle(t, srv.URL)

	var resp nearestResponse
	code := post(t, srv.URL+"/nearest", nearestRequest{
		Index:   "triangle",
		Queries: [][]float64{{3.1, 0.1, 2.2}, {1, 2, 3}},
	}, &resp)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, resp.Results, 2)
	require.Equal(t, "b", resp.Results[0].Label)
	require.Equal(t, "a", resp.Results[1].Label)
	require.Equal(t, 0.0, resp.Results[1].SquaredDistance)
}

func TestHandler_Nearests(t *testing.T) {
	t.Parallel()
	srv, _ := newTestServer(t)
	buildTriangle(t, srv.URL)

	var resp hitsResponse
	code := post(t, srv.URL+"/nearests", nearestsRequest{
		Index:   "triangle",
		K:       2,
		Queries: [][]float64{{1.5, 2.5, 1.8}},
	}, &resp)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, resp.Results, 1)
	require.Len(t, resp.Results[0], 2)
	require.Equal(t, "c", resp.Results[0][0].Label)
	require.Equal(t, "a", resp.Results[0][1].Label)

	code = post(t, srv.URL+"/nearests", nearestsRequest{Index: "triangle", K: 11, Queries: [][]float64{{1, 1, 1}}}, nil)
	require.Equal(t, http.StatusBadRequest, code)
}

func TestHandler_Within(t *testing.T) {
	t.Parallel()
	srv, _ := newTestServer(t)
	buildTriangle(t, srv.URL)

	var resp hitsResponse
	code := post(t, srv.URL+"/within", withinRequest{
		Index:   "triangle",
		Radius:  1.5,
		Queries: [][]float64{{2, 1.5, 2.5}},
	}, &resp)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, resp.Results[0], 2)
	labels := []string{resp.Results[0][0].Label, resp.Results[0][1].Label}
	require.ElementsMatch(t, []string{"a", "b"}, labels)

	var boxes itemsResponse
	code = post(t, srv.URL+"/within-box", withinBoxRequest{
		Index: "triangle",
		Boxes: []box{{{Min: 0, Max: 2}, {Min: 0, Max: 3}, {Min: 0, Max: 3}}},
	}, &boxes)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, boxes.Results[0], 2)
	labels = []string{boxes.Results[0][0].Label, boxes.Results[0][1].Label}
	require.ElementsMatch(t, []string{"a", "c"}, labels)
}

func TestHandler_Errors(t *testing.T) {
	t.Parallel()
	srv, _ := newTestServer(t)
	buildTriangle(t, srv.URL)

	tests := []struct {
		name     string
		path     string
		body     interface{}
		expected int
	}{
		{name: "unknown index", path: "/nearest", body: nearestRequest{Index: "nope", Queries: [][]float64{{1}}}, expected: http.StatusNotFound},
		{name: "dimension", path: "/nearest", body: nearestRequest{Index: "triangle", Queries: [][]float64{{1, 2}}}, expected: http.StatusBadRequest},
		{name: "no queries", path: "/nearest", body: nearestRequest{Index: "triangle"}, expected: http.StatusBadRequest},
		{name: "too many queries", path: "/within", body: withinRequest{Index: "triangle", Queries: make([][]float64, 5)}, expected: http.StatusBadRequest},
		{name: "box dimension", path: "/within-box", body: withinBoxRequest{Index: "triangle", Boxes: []box{{{Min: 0, Max: 1}}}}, expected: http.StatusBadRequest},
		{name: "mixed points", path: "/index", body: buildRequest{Name: "x", Points: [][]float64{{1}, {1, 2}}}, expected: http.StatusBadRequest},
		{name: "zero dimension", path: "/index", body: buildRequest{Name: "x", Points: [][]float64{{}, {}}}, expected: http.StatusBadRequest},
		{name: "labels", path: "/index", body: buildRequest{Name: "x", Points: [][]float64{{1}}, Labels: []string{}}, expected: http.StatusBadRequest},
		{name: "no name", path: "/index", body: buildRequest{Points: [][]float64{{1}}}, expected: http.StatusBadRequest},
		{name: "no store", path: "/snapshot", body: nameRequest{Name: "triangle"}, expected: http.StatusConflict},
	}
	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, test.expected, post(t, srv.URL+test.path, test.body, nil))
		})
	}
}

func TestHandler_IndexAdmin(t *testing.T) {
	t.Parallel()
	srv, registry := newTestServer(t)
	buildTriangle(t, srv.URL)

	resp, err := http.Get(srv.URL + "/index")
	require.NoError(t, err)
	var infos []indexInfo
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&infos))
	_ = resp.Body.Close()
	require.Len(t, infos, 1)
	require.Equal(t, "triangle", infos[0].Name)

	req, err := http.NewRequestWithContext(context.Background(), http.MethodDelete, srv.URL+"/index?name=triangle", nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.Empty(t, registry.Names())

	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestBatch_Order(t *testing.T) {
	t.Parallel()
	out, err := batch(context.Background(), 3, 50, func(i int) (int, error) {
		return i * i, nil
	})
	require.NoError(t, err)
	for i, v := range out {
		require.Equal(t, i*i, v)
	}
}
