// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	qbt "github.com/autobrr/go-qbittorrent"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/autobrr/quifilter/internal/filters"
	"github.com/autobrr/quifilter/internal/metrics"
	"github.com/autobrr/quifilter/internal/qbittorrent"
	"github.com/autobrr/quifilter/internal/services/jackett"
)

// FilterSetLoader returns the currently saved filter sets.
type FilterSetLoader func() ([]filters.FilterSet, error)

// FiltersHandler serves column filter compilation and local evaluation.
type FiltersHandler struct {
	compiler          *filters.Compiler
	expressions       *qbittorrent.ExpressionFilter
	metrics           *metrics.Manager
	loadSets          FilterSetLoader
	defaultConnective func() filters.Connective
}

func NewFiltersHandler(compiler *filters.Compiler, expressions *qbittorrent.ExpressionFilter, metricsManager *metrics.Manager, loadSets FilterSetLoader, defaultConnective func() filters.Connective) *FiltersHandler {
	if compiler == nil {
		compiler = filters.NewCompiler(nil)
	}
	if loadSets == nil {
		loadSets = func() ([]filters.FilterSet, error) { return nil, nil }
	}
	if defaultConnective == nil {
		defaultConnective = func() filters.Connective { return filters.ConnectiveAnd }
	}
	return &FiltersHandler{
		compiler:          compiler,
		expressions:       expressions,
		metrics:           metricsManager,
		loadSets:          loadSets,
		defaultConnective: defaultConnective,
	}
}

// Routes registers the filter routes
func (h *FiltersHandler) Routes(r chi.Router) {
	r.Route("/filters", func(r chi.Router) {
		r.Get("/columns", h.ListColumns)
		r.Post("/compile", h.Compile)
		r.Post("/torrents", h.FilterTorrents)
		r.Post("/search-results", h.FilterSearchResults)
		r.Get("/sets", h.ListSets)
		r.Post("/sets/{name}/compile", h.CompileSet)
	})
}

// ColumnInfo describes a filterable torrent column.
type ColumnInfo struct {
	filters.Column
	FilteredAs       string              `json:"filteredAs,omitempty"`
	DefaultOperation filters.Operation   `json:"defaultOperation"`
	Operations       []filters.Operation `json:"operations"`
}

type ColumnsResponse struct {
	Columns       []ColumnInfo           `json:"columns"`
	SearchColumns []filters.SearchColumn `json:"searchColumns"`
}

type CompileRequest struct {
	Filters    []filters.ColumnFilter `json:"filters"`
	Connective string                 `json:"connective,omitempty"`
}

type FilterTorrentsRequest struct {
	Filters    []filters.ColumnFilter `json:"filters,omitempty"`
	Expr       string                 `json:"expr,omitempty"`
	Connective string                 `json:"connective,omitempty"`
	Torrents   []qbt.Torrent          `json:"torrents,omitempty"`
	// Instances holds per-instance snapshots for cross-instance filtering, keyed by instance id.
	Instances map[int][]qbt.Torrent `json:"instances,omitempty"`
}

type FilterTorrentsResponse struct {
	Torrents              []qbt.Torrent                      `json:"torrents"`
	CrossInstanceTorrents []qbittorrent.CrossInstanceTorrent `json:"cross_instance_torrents,omitempty"`
	Total                 int                                `json:"total"`
	Expr                  string                             `json:"expr"`
	Dropped               []filters.DroppedFilter            `json:"dropped,omitempty"`
	IsCrossInstance       bool                               `json:"isCrossInstance"`
}

type FilterSearchResultsRequest struct {
	Filters []filters.ColumnFilter `json:"filters"`
	Results []jackett.SearchResult `json:"results"`
	// Categories maps indexer category ids to display names; missing ids use the Torznab names.
	Categories map[int]string `json:"categories,omitempty"`
	// Enrich fills release metadata parsed from titles before filtering.
	Enrich bool `json:"enrich,omitempty"`
}

type FilterSetsResponse struct {
	Sets []filters.FilterSet `json:"sets"`
}

// ListColumns godoc
// @Summary List filterable torrent columns
// @Tags filters
// @Produce json
// @Success 200 {object} ColumnsResponse
// @Router /api/filters/columns [get]
func (h *FiltersHandler) ListColumns(w http.ResponseWriter, r *http.Request) {
	registry := h.compiler.Registry()
	columns := registry.Columns()

	response := ColumnsResponse{
		Columns:       make([]ColumnInfo, 0, len(columns)),
		SearchColumns: filters.SearchColumns(),
	}
	for _, column := range columns {
		info := ColumnInfo{
			Column:           column,
			DefaultOperation: filters.DefaultOperation(column.Type),
			Operations:       filters.AvailableOperations(column.Type),
		}
		if remapped := registry.Remapped(column.ID); remapped != column.ID {
			info.FilteredAs = remapped
		}
		response.Columns = append(response.Columns, info)
	}

	RespondJSON(w, http.StatusOK, response)
}

// Compile godoc
// @Summary Compile column filters into an expression
// @Tags filters
// @Accept json
// @Produce json
// @Param request body CompileRequest true "Filters to compile"
// @Success 200 {object} filters.Compilation
// @Failure 400 {object} ErrorResponse
// @Router /api/filters/compile [post]
func (h *FiltersHandler) Compile(w http.ResponseWriter, r *http.Request) {
	var req CompileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn().Err(err).Msg("Failed to decode compile request")
		RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	connective, ok := h.connective(req.Connective)
	if !ok {
		RespondError(w, http.StatusBadRequest, "connective must be \"and\" or \"or\"")
		return
	}

	RespondJSON(w, http.StatusOK, h.compile(req.Filters, connective))
}

// FilterTorrents godoc
// @Summary Filter torrents with column filters or an expression
// @Tags filters
// @Accept json
// @Produce json
// @Param request body FilterTorrentsRequest true "Filters and torrents"
// @Success 200 {object} FilterTorrentsResponse
// @Failure 400 {object} ErrorResponse
// @Router /api/filters/torrents [post]
func (h *FiltersHandler) FilterTorrents(w http.ResponseWriter, r *http.Request) {
	var req FilterTorrentsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn().Err(err).Msg("Failed to decode torrent filter request")
		RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if len(req.Filters) > 0 && strings.TrimSpace(req.Expr) != "" {
		RespondError(w, http.StatusBadRequest, "provide either filters or expr, not both")
		return
	}

	response := FilterTorrentsResponse{Expr: strings.TrimSpace(req.Expr)}
	if len(req.Filters) > 0 {
		connective, ok := h.connective(req.Connective)
		if !ok {
			RespondError(w, http.StatusBadRequest, "connective must be \"and\" or \"or\"")
			return
		}
		compilation := h.compile(req.Filters, connective)
		response.Expr = compilation.Expr
		response.Dropped = compilation.Dropped
	}

	if req.Instances != nil {
		matched, err := h.expressions.ApplyCrossInstance(r.Context(), req.Instances, response.Expr)
		if err != nil {
			log.Warn().Err(err).Str("expr", response.Expr).Msg("Failed to filter cross-instance torrents")
			RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
		if response.Expr != "" {
			total := 0
			for _, torrents := range req.Instances {
				total += len(torrents)
			}
			h.metrics.RecordEvaluations("torrent", total)
		}
		response.IsCrossInstance = true
		response.Torrents = []qbt.Torrent{}
		response.CrossInstanceTorrents = matched
		response.Total = len(matched)
		RespondJSON(w, http.StatusOK, response)
		return
	}

	matched, err := h.expressions.Apply(req.Torrents, response.Expr)
	if err != nil {
		log.Warn().Err(err).Str("expr", response.Expr).Msg("Failed to filter torrents")
		RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if matched == nil {
		matched = []qbt.Torrent{}
	}
	if response.Expr != "" {
		h.metrics.RecordEvaluations("torrent", len(req.Torrents))
	}

	response.Torrents = matched
	response.Total = len(matched)
	RespondJSON(w, http.StatusOK, response)
}

// FilterSearchResults godoc
// @Summary Filter indexer search results locally
// @Tags filters
// @Accept json
// @Produce json
// @Param request body FilterSearchResultsRequest true "Filters and search results"
// @Success 200 {object} jackett.SearchResponse
// @Failure 400 {object} ErrorResponse
// @Router /api/filters/search-results [post]
func (h *FiltersHandler) FilterSearchResults(w http.ResponseWriter, r *http.Request) {
	var req FilterSearchResultsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Warn().Err(err).Msg("Failed to decode search result filter request")
		RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Enrich {
		jackett.EnrichResults(req.Results)
	}

	lookup := filters.CategoryLookup(jackett.CategoryLookup(req.Categories))
	results := filters.FilterSearchResults(req.Results, req.Filters, lookup)
	if results == nil {
		results = []jackett.SearchResult{}
	}

	if len(req.Filters) > 0 {
		h.metrics.RecordEvaluations("search_result", len(req.Results))
	}

	RespondJSON(w, http.StatusOK, jackett.SearchResponse{
		Results: results,
		Total:   len(results),
	})
}

// ListSets godoc
// @Summary List saved filter sets
// @Tags filters
// @Produce json
// @Success 200 {object} FilterSetsResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/filters/sets [get]
func (h *FiltersHandler) ListSets(w http.ResponseWriter, r *http.Request) {
	sets, err := h.loadSets()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load filter sets")
		RespondError(w, http.StatusInternalServerError, "Failed to load filter sets")
		return
	}
	if sets == nil {
		sets = []filters.FilterSet{}
	}

	RespondJSON(w, http.StatusOK, FilterSetsResponse{Sets: sets})
}

// CompileSet godoc
// @Summary Compile a saved filter set
// @Tags filters
// @Produce json
// @Param name path string true "Filter set name"
// @Success 200 {object} filters.Compilation
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/filters/sets/{name}/compile [post]
func (h *FiltersHandler) CompileSet(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	sets, err := h.loadSets()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load filter sets")
		RespondError(w, http.StatusInternalServerError, "Failed to load filter sets")
		return
	}

	set, ok := filters.FindFilterSet(sets, name)
	if !ok {
		RespondError(w, http.StatusNotFound, "Filter set not found")
		return
	}

	connective, _ := h.connective(set.Connective)
	RespondJSON(w, http.StatusOK, h.compile(set.Filters, connective))
}

func (h *FiltersHandler) connective(value string) (filters.Connective, bool) {
	if strings.TrimSpace(value) == "" {
		return h.defaultConnective(), true
	}
	return filters.ParseConnective(value)
}

func (h *FiltersHandler) compile(columnFilters []filters.ColumnFilter, connective filters.Connective) filters.Compilation {
	compilation := h.compiler.CompileAll(columnFilters, connective)

	reasons := make([]string, 0, len(compilation.Dropped))
	for _, dropped := range compilation.Dropped {
		reasons = append(reasons, dropped.Reason)
	}
	h.metrics.RecordCompilation(len(columnFilters)-len(compilation.Dropped), reasons)

	return compilation
}
