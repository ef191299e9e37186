// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package qbittorrent

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/autobrr/autobrr/pkg/ttlcache"
	qbt "github.com/autobrr/go-qbittorrent"
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/autobrr/quifilter/internal/filters"
)

const defaultProgramTTL = 5 * time.Minute

// CrossInstanceTorrent is a torrent matched on one of several instances.
type CrossInstanceTorrent struct {
	qbt.Torrent
	InstanceID int `json:"instance_id"`
}

// ExpressionFilter runs compiled filter expressions against torrents.
// Programs are cached by expression text.
type ExpressionFilter struct {
	compiler  *filters.Compiler
	exprCache *ttlcache.Cache[string, *vm.Program]
	ttl       time.Duration
}

func NewExpressionFilter(ttl time.Duration) *ExpressionFilter {
	if ttl <= 0 {
		ttl = defaultProgramTTL
	}
	return &ExpressionFilter{
		compiler:  filters.NewCompiler(nil),
		exprCache: ttlcache.New(ttlcache.Options[string, *vm.Program]{}.SetDefaultTTL(ttl)),
		ttl:       ttl,
	}
}

// stateOptions lets qbt.TorrentState be compared with string literals by value.
var stateOptions = []expr.Option{
	expr.Operator("==", "stateEqual"),
	expr.Operator("!=", "stateNotEqual"),
	expr.Function("stateEqual",
		func(params ...any) (any, error) {
			return stateString(params[0]) == stateString(params[1]), nil
		},
		new(func(qbt.TorrentState, string) bool),
		new(func(string, qbt.TorrentState) bool),
	),
	expr.Function("stateNotEqual",
		func(params ...any) (any, error) {
			return stateString(params[0]) != stateString(params[1]), nil
		},
		new(func(qbt.TorrentState, string) bool),
		new(func(string, qbt.TorrentState) bool),
	),
}

func stateString(v any) string {
	switch s := v.(type) {
	case qbt.TorrentState:
		return string(s)
	case string:
		return s
	}
	return fmt.Sprint(v)
}

// Program returns the compiled program for expression, compiling and caching it on a miss.
func (f *ExpressionFilter) Program(expression string) (*vm.Program, error) {
	if p, ok := f.exprCache.Get(expression); ok {
		log.Trace().Str("expr", expression).Msg("Using cached expression")
		return p, nil
	}

	options := append([]expr.Option{expr.Env(qbt.Torrent{}), expr.AsBool()}, stateOptions...)
	program, err := expr.Compile(expression, options...)
	if err != nil {
		return nil, fmt.Errorf("compile expression %q: %w", expression, err)
	}

	if ok := f.exprCache.Set(expression, program, f.ttl); !ok {
		log.Warn().Str("expr", expression).Msg("Failed to cache expression")
	}
	return program, nil
}

// Apply keeps the torrents the expression accepts. An empty expression keeps everything.
func (f *ExpressionFilter) Apply(torrents []qbt.Torrent, expression string) ([]qbt.Torrent, error) {
	if expression == "" {
		return torrents, nil
	}

	program, err := f.Program(expression)
	if err != nil {
		return nil, err
	}

	filtered := make([]qbt.Torrent, 0, len(torrents))
	for _, torrent := range torrents {
		if matches(program, torrent) {
			filtered = append(filtered, torrent)
		}
	}

	log.Debug().
		Int("inputTorrents", len(torrents)).
		Int("filteredTorrents", len(filtered)).
		Str("expr", expression).
		Msg("Applied expression filter")

	return filtered, nil
}

// ApplyCrossInstance filters the snapshots of several instances concurrently.
// Results are ordered by instance id, then by snapshot order.
func (f *ExpressionFilter) ApplyCrossInstance(ctx context.Context, snapshots map[int][]qbt.Torrent, expression string) ([]CrossInstanceTorrent, error) {
	var program *vm.Program
	if expression != "" {
		p, err := f.Program(expression)
		if err != nil {
			return nil, err
		}
		program = p
	}

	var mu sync.Mutex
	perInstance := make(map[int][]qbt.Torrent, len(snapshots))

	g, gctx := errgroup.WithContext(ctx)
	for instanceID, torrents := range snapshots {
		g.Go(func() error {
			kept := make([]qbt.Torrent, 0, len(torrents))
			for i, torrent := range torrents {
				if i%256 == 0 {
					if err := gctx.Err(); err != nil {
						return err
					}
				}
				if program == nil || matches(program, torrent) {
					kept = append(kept, torrent)
				}
			}

			mu.Lock()
			perInstance[instanceID] = kept
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	instanceIDs := make([]int, 0, len(perInstance))
	total := 0
	for id, kept := range perInstance {
		instanceIDs = append(instanceIDs, id)
		total += len(kept)
	}
	slices.Sort(instanceIDs)

	result := make([]CrossInstanceTorrent, 0, total)
	for _, id := range instanceIDs {
		for _, torrent := range perInstance[id] {
			result = append(result, CrossInstanceTorrent{Torrent: torrent, InstanceID: id})
		}
	}

	log.Debug().
		Int("instances", len(snapshots)).
		Int("filteredTorrents", len(result)).
		Msg("Applied cross-instance expression filter")

	return result, nil
}

// MatchTorrent evaluates a single column filter against a torrent. A filter the compiler
// drops matches everything; an evaluation error matches nothing.
func (f *ExpressionFilter) MatchTorrent(torrent qbt.Torrent, cf filters.ColumnFilter) bool {
	expression, err := f.compiler.Compile(cf)
	if err != nil {
		return true
	}

	program, err := f.Program(expression)
	if err != nil {
		return false
	}
	return matches(program, torrent)
}

func matches(program *vm.Program, torrent qbt.Torrent) bool {
	result, err := expr.Run(program, torrent)
	if err != nil {
		log.Error().Err(err).Str("hash", torrent.Hash).Msg("Failed to evaluate expression")
		return false
	}

	ok, isBool := result.(bool)
	if !isBool {
		log.Error().Str("hash", torrent.Hash).Msg("Expression result is not a boolean")
		return false
	}
	return ok
}
