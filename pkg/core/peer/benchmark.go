// Package peer benchmarks a company's ratios against same-SIC peers.
package peer

import (
	"context"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"financial_analyzer/pkg/core/calc"
	"financial_analyzer/pkg/core/xbrl"
	"financial_analyzer/pkg/logger"
	"financial_analyzer/pkg/models"
)

const (
	DefaultMaxPeers = 10
	DefaultMaxScan  = 120
	DefaultWorkers  = 4
)

// Source is the subset of the SEC client the benchmark needs.
type Source interface {
	GetTickerMapping(ctx context.Context) ([]models.TickerRecord, error)
	GetSubmissions(ctx context.Context, cik10 string) (*models.Submissions, error)
	GetCompanyFacts(ctx context.Context, cik10 string) (*models.CompanyFacts, error)
}

// Medians maps ratio name -> median over peers with an ok value, nil when
// no peer had one.
type Medians map[string]*float64

type Benchmark struct {
	PeerCountUsed int     `json:"peer_count_used"`
	PeerMedians   Medians `json:"peer_medians"`
}

type Delta struct {
	CompanyValue   *float64 `json:"company_value"`
	CompanyQuality string   `json:"company_quality"`
	PeerMedian     *float64 `json:"peer_median"`
	DeltaVsPeer    *float64 `json:"delta_vs_peer"`
}

// Comparison maps ratio name -> Delta for every ratio in calc.RatioKeys.
type Comparison map[string]Delta

type Engine struct {
	src     Source
	workers int
	log     *logger.Logger
}

// NewEngine uses DefaultWorkers when workers < 1.
func NewEngine(src Source, workers int, log *logger.Logger) *Engine {
	if workers < 1 {
		workers = DefaultWorkers
	}
	return &Engine{src: src, workers: workers, log: logger.OrNop(log).With("service", "PeerEngine")}
}

// FindSameSICPeers walks the ticker mapping in order, skipping the target
// itself, and keeps companies whose submissions report targetSIC. It stops
// after maxScan candidates or maxPeers matches. Candidates whose submissions
// cannot be fetched are skipped.
func (e *Engine) FindSameSICPeers(ctx context.Context, targetSIC string, targetCIK, maxPeers, maxScan int) ([]models.CompanyIdentity, error) {
	if maxPeers <= 0 {
		maxPeers = DefaultMaxPeers
	}
	if maxScan <= 0 {
		maxScan = DefaultMaxScan
	}
	rows, err := e.src.GetTickerMapping(ctx)
	if err != nil {
		return nil, err
	}

	targetSIC = strings.TrimSpace(targetSIC)
	var peers []models.CompanyIdentity
	scanned := 0
	for _, row := range rows {
		if row.CIK == targetCIK {
			continue
		}
		if scanned >= maxScan || len(peers) >= maxPeers {
			break
		}
		if err := ctx.Err(); err != nil {
			return peers, err
		}
		scanned++

		cik10 := models.PadCIK(row.CIK)
		subs, err := e.src.GetSubmissions(ctx, cik10)
		if err != nil {
			e.log.Debug("skipping peer candidate", "cik", cik10, "error", err)
			continue
		}
		if strings.TrimSpace(subs.SIC.String()) != targetSIC {
			continue
		}
		peers = append(peers, models.CompanyIdentity{
			Ticker:      strings.ToUpper(row.Ticker),
			CIK10:       cik10,
			CIKInt:      row.CIK,
			CompanyName: row.Title,
		})
	}
	e.log.Info("peer scan finished", "sic", targetSIC, "scanned", scanned, "peers", len(peers))
	return peers, nil
}

// BuildBenchmark computes ratios for each peer on a bounded worker pool and
// aggregates the medians. Peers whose facts cannot be fetched are excluded.
func (e *Engine) BuildBenchmark(ctx context.Context, peers []models.CompanyIdentity) Benchmark {
	results := make([]calc.RatioSet, len(peers))

	var g errgroup.Group
	g.SetLimit(max(1, min(e.workers, len(peers))))
	var mu sync.Mutex
	failed := 0
	for i, p := range peers {
		g.Go(func() error {
			facts, err := e.src.GetCompanyFacts(ctx, p.CIK10)
			if err != nil {
				e.log.Debug("peer facts unavailable", "ticker", p.Ticker, "error", err)
				mu.Lock()
				failed++
				mu.Unlock()
				return nil
			}
			results[i] = calc.ComputeRatios(xbrl.ExtractLatestFinancials(facts))
			return nil
		})
	}
	_ = g.Wait()

	used := make([]calc.RatioSet, 0, len(results))
	for _, r := range results {
		if r != nil {
			used = append(used, r)
		}
	}
	if failed > 0 {
		e.log.Warn("some peers excluded from benchmark", "failed", failed, "used", len(used))
	}
	return Benchmark{PeerCountUsed: len(used), PeerMedians: AggregateMedians(used)}
}

// AggregateMedians takes the median of each ratio over sets where the ratio
// has quality ok.
func AggregateMedians(sets []calc.RatioSet) Medians {
	out := make(Medians, len(calc.RatioKeys))
	for _, key := range calc.RatioKeys {
		var values []float64
		for _, s := range sets {
			if r := s.Get(key); r.OK() {
				values = append(values, *r.Value)
			}
		}
		out[key] = median(values)
	}
	return out
}

// Compare lines company ratios up against peer medians.
func Compare(company calc.RatioSet, medians Medians) Comparison {
	out := make(Comparison, len(calc.RatioKeys))
	for _, key := range calc.RatioKeys {
		r, ok := company[key]
		quality := calc.QualityMissingData
		if ok && r.Quality != "" {
			quality = r.Quality
		}
		d := Delta{
			CompanyValue:   r.Value,
			CompanyQuality: quality,
			PeerMedian:     medians[key],
		}
		if d.CompanyValue != nil && d.PeerMedian != nil {
			v := *d.CompanyValue - *d.PeerMedian
			d.DeltaVsPeer = &v
		}
		out[key] = d
	}
	return out
}

func median(values []float64) *float64 {
	n := len(values)
	if n == 0 {
		return nil
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	m := sorted[n/2]
	if n%2 == 0 {
		m = (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return &m
}
