// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autobrr/quifilter/internal/filters"
	"github.com/autobrr/quifilter/internal/metrics"
	"github.com/autobrr/quifilter/internal/qbittorrent"
	"github.com/autobrr/quifilter/internal/services/jackett"
)

const torrentsJSON = `[
	{"hash":"aaa","name":"Ubuntu 24.04","state":"uploading","ratio":2.5,"category":"linux","size":6442450944},
	{"hash":"bbb","name":"Debian Netinst","state":"downloading","ratio":0.4,"category":"linux","size":734003200},
	{"hash":"ccc","name":"Some.Show.S01E01","state":"stalledUP","ratio":1,"category":"tv","size":2147483648}
]`

func newTestFiltersRouter(t *testing.T, sets FilterSetLoader) chi.Router {
	t.Helper()

	handler := NewFiltersHandler(nil, qbittorrent.NewExpressionFilter(time.Minute), metrics.NewMetricsManager(), sets, nil)
	r := chi.NewRouter()
	handler.Routes(r)
	return r
}

func doRequest(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestFiltersHandler_Compile(t *testing.T) {
	router := newTestFiltersRouter(t, nil)

	tests := []struct {
		name        string
		body        string
		wantStatus  int
		wantExpr    string
		wantDropped []string
	}{
		{
			name:       "size_in_gib",
			body:       `{"filters":[{"columnId":"size","operation":"gt","value":"1.5","sizeUnit":"GiB"}]}`,
			wantStatus: http.StatusOK,
			wantExpr:   "Size > 1610612736",
		},
		{
			name:       "or_connective",
			body:       `{"connective":"or","filters":[{"columnId":"ratio","operation":"gt","value":"2"},{"columnId":"state","operation":"eq","value":"downloading"}]}`,
			wantStatus: http.StatusOK,
			wantExpr:   `Ratio > 2 || State == "downloading"`,
		},
		{
			name:        "dropped_filter",
			body:        `{"filters":[{"columnId":"ratio","operation":"gt","value":"2"},{"columnId":"size","operation":"gt","value":"big"}]}`,
			wantStatus:  http.StatusOK,
			wantExpr:    "Ratio > 2",
			wantDropped: []string{"size"},
		},
		{
			name:       "invalid_connective",
			body:       `{"connective":"xor","filters":[]}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "invalid_body",
			body:       `{"filters":`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, router, http.MethodPost, "/filters/compile", tt.body)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantStatus != http.StatusOK {
				var errResp ErrorResponse
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&errResp))
				assert.NotEmpty(t, errResp.Error)
				return
			}

			var compilation filters.Compilation
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&compilation))
			assert.Equal(t, tt.wantExpr, compilation.Expr)

			dropped := make([]string, 0, len(compilation.Dropped))
			for _, d := range compilation.Dropped {
				dropped = append(dropped, d.ColumnID)
			}
			if tt.wantDropped == nil {
				assert.Empty(t, dropped)
			} else {
				assert.Equal(t, tt.wantDropped, dropped)
			}
		})
	}
}

func TestFiltersHandler_ListColumns(t *testing.T) {
	router := newTestFiltersRouter(t, nil)

	rec := doRequest(t, router, http.MethodGet, "/filters/columns", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var response ColumnsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
	require.NotEmpty(t, response.Columns)
	assert.Contains(t, response.SearchColumns, filters.SearchColumnFreeleech)

	byID := make(map[string]ColumnInfo, len(response.Columns))
	for _, c := range response.Columns {
		byID[c.ID] = c
	}

	seeds, ok := byID["num_seeds"]
	require.True(t, ok)
	assert.Equal(t, "num_complete", seeds.FilteredAs)
	assert.Equal(t, filters.OperationGreater, seeds.DefaultOperation)

	name, ok := byID["name"]
	require.True(t, ok)
	assert.Empty(t, name.FilteredAs)
	assert.Equal(t, filters.OperationContains, name.DefaultOperation)
	assert.Contains(t, name.Operations, filters.OperationNotContains)
}

func TestFiltersHandler_FilterTorrents(t *testing.T) {
	router := newTestFiltersRouter(t, nil)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantHashes []string
		wantExpr   string
	}{
		{
			name:       "column_filters",
			body:       `{"filters":[{"columnId":"category","operation":"eq","value":"linux"},{"columnId":"ratio","operation":"lt","value":"1"}],"torrents":` + torrentsJSON + `}`,
			wantStatus: http.StatusOK,
			wantHashes: []string{"bbb"},
			wantExpr:   `Category == "linux" && Ratio < 1`,
		},
		{
			name:       "raw_expression",
			body:       `{"expr":"Ratio >= 1","torrents":` + torrentsJSON + `}`,
			wantStatus: http.StatusOK,
			wantHashes: []string{"aaa", "ccc"},
			wantExpr:   "Ratio >= 1",
		},
		{
			name:       "state_compared_by_value",
			body:       `{"filters":[{"columnId":"state","operation":"ne","value":"downloading"}],"torrents":` + torrentsJSON + `}`,
			wantStatus: http.StatusOK,
			wantHashes: []string{"aaa", "ccc"},
			wantExpr:   `State != "downloading"`,
		},
		{
			name:       "no_filters_keeps_everything",
			body:       `{"torrents":` + torrentsJSON + `}`,
			wantStatus: http.StatusOK,
			wantHashes: []string{"aaa", "bbb", "ccc"},
		},
		{
			name:       "filters_and_expr",
			body:       `{"expr":"Ratio > 1","filters":[{"columnId":"ratio","operation":"gt","value":"1"}]}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "broken_expression",
			body:       `{"expr":"Ratio >","torrents":` + torrentsJSON + `}`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, router, http.MethodPost, "/filters/torrents", tt.body)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantStatus != http.StatusOK {
				return
			}

			var response FilterTorrentsResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
			assert.False(t, response.IsCrossInstance)
			assert.Equal(t, tt.wantExpr, response.Expr)
			assert.Equal(t, len(tt.wantHashes), response.Total)

			hashes := make([]string, 0, len(response.Torrents))
			for _, torrent := range response.Torrents {
				hashes = append(hashes, torrent.Hash)
			}
			assert.Equal(t, tt.wantHashes, hashes)
		})
	}
}

func TestFiltersHandler_FilterTorrentsCrossInstance(t *testing.T) {
	router := newTestFiltersRouter(t, nil)

	body := `{"filters":[{"columnId":"category","operation":"eq","value":"linux"}],"instances":{"2":` + torrentsJSON + `,"1":[{"hash":"ddd","name":"Arch","category":"linux"}]}}`
	rec := doRequest(t, router, http.MethodPost, "/filters/torrents", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var response FilterTorrentsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
	assert.True(t, response.IsCrossInstance)
	assert.Empty(t, response.Torrents)
	require.Len(t, response.CrossInstanceTorrents, 3)
	assert.Equal(t, 3, response.Total)

	assert.Equal(t, 1, response.CrossInstanceTorrents[0].InstanceID)
	assert.Equal(t, "ddd", response.CrossInstanceTorrents[0].Hash)
	assert.Equal(t, 2, response.CrossInstanceTorrents[1].InstanceID)
	assert.Equal(t, "aaa", response.CrossInstanceTorrents[1].Hash)
	assert.Equal(t, "bbb", response.CrossInstanceTorrents[2].Hash)
}

func TestFiltersHandler_FilterSearchResults(t *testing.T) {
	router := newTestFiltersRouter(t, nil)

	results := []jackett.SearchResult{
		{Title: "Show.S01E01.1080p.WEB-DL.x264-GRP", Indexer: "one", CategoryID: 5040, DownloadVolumeFactor: 0, Seeders: 10},
		{Title: "Show.S01E02.720p.HDTV.x264-OTHER", Indexer: "two", CategoryID: 5030, DownloadVolumeFactor: 1, Seeders: 3},
		{Title: "Movie.2024.2160p.BluRay.x265-GRP", Indexer: "one", CategoryID: 2045, DownloadVolumeFactor: 0.5, Seeders: 50},
	}

	tests := []struct {
		name       string
		filters    []filters.ColumnFilter
		categories map[int]string
		enrich     bool
		wantTitles []string
	}{
		{
			name:       "freeleech",
			filters:    []filters.ColumnFilter{{ColumnID: "freeleech", Operation: filters.OperationEqual, Value: "true"}},
			wantTitles: []string{"Show.S01E01.1080p.WEB-DL.x264-GRP"},
		},
		{
			name:       "partial_freeleech",
			filters:    []filters.ColumnFilter{{ColumnID: "freeleech", Operation: filters.OperationEqual, Value: "partial"}},
			wantTitles: []string{"Movie.2024.2160p.BluRay.x265-GRP"},
		},
		{
			name:       "category_override",
			filters:    []filters.ColumnFilter{{ColumnID: "category", Operation: filters.OperationEqual, Value: "my hd tv"}},
			categories: map[int]string{5040: "My HD TV"},
			wantTitles: []string{"Show.S01E01.1080p.WEB-DL.x264-GRP"},
		},
		{
			name:       "enriched_resolution",
			filters:    []filters.ColumnFilter{{ColumnID: "resolution", Operation: filters.OperationEqual, Value: "1080p"}},
			enrich:     true,
			wantTitles: []string{"Show.S01E01.1080p.WEB-DL.x264-GRP"},
		},
		{
			name:       "missing_field_without_enrichment",
			filters:    []filters.ColumnFilter{{ColumnID: "resolution", Operation: filters.OperationEqual, Value: "1080p"}},
			wantTitles: []string{},
		},
		{
			name:       "seeders_and_unknown_column",
			filters:    []filters.ColumnFilter{{ColumnID: "seeders", Operation: filters.OperationGreater, Value: "5"}, {ColumnID: "nope", Operation: filters.OperationEqual, Value: "x"}},
			wantTitles: []string{"Show.S01E01.1080p.WEB-DL.x264-GRP", "Movie.2024.2160p.BluRay.x265-GRP"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			input := make([]jackett.SearchResult, len(results))
			copy(input, results)

			payload, err := json.Marshal(FilterSearchResultsRequest{
				Filters:    tt.filters,
				Results:    input,
				Categories: tt.categories,
				Enrich:     tt.enrich,
			})
			require.NoError(t, err)

			rec := doRequest(t, router, http.MethodPost, "/filters/search-results", string(payload))
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			var response jackett.SearchResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))

			titles := make([]string, 0, len(response.Results))
			for _, r := range response.Results {
				titles = append(titles, r.Title)
			}
			assert.Equal(t, tt.wantTitles, titles)
			assert.Equal(t, len(tt.wantTitles), response.Total)
		})
	}
}

func TestFiltersHandler_Sets(t *testing.T) {
	sets := []filters.FilterSet{
		{
			Name:       "Low ratio",
			Connective: "or",
			Filters: []filters.ColumnFilter{
				{ColumnID: "ratio", Operation: filters.OperationLess, Value: "1"},
				{ColumnID: "state", Operation: filters.OperationEqual, Value: "stalledUP"},
			},
		},
	}
	router := newTestFiltersRouter(t, func() ([]filters.FilterSet, error) { return sets, nil })

	rec := doRequest(t, router, http.MethodGet, "/filters/sets", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var listed FilterSetsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&listed))
	require.Len(t, listed.Sets, 1)
	assert.Equal(t, "Low ratio", listed.Sets[0].Name)

	rec = doRequest(t, router, http.MethodPost, "/filters/sets/low%20ratio/compile", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var compilation filters.Compilation
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&compilation))
	assert.Equal(t, `Ratio < 1 || State == "stalledUP"`, compilation.Expr)

	rec = doRequest(t, router, http.MethodPost, "/filters/sets/missing/compile", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFiltersHandler_SetsLoadFailure(t *testing.T) {
	router := newTestFiltersRouter(t, func() ([]filters.FilterSet, error) {
		return nil, errors.New("broken yaml")
	})

	rec := doRequest(t, router, http.MethodGet, "/filters/sets", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	rec = doRequest(t, router, http.MethodPost, "/filters/sets/any/compile", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
