package catalog

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/releasebox/internal/app/countdown"
	"github.com/osa030/releasebox/internal/app/source"
	"github.com/osa030/releasebox/internal/domain/queue"
	"github.com/osa030/releasebox/internal/domain/release"
)

// LoadReport summarizes one load cycle.
type LoadReport struct {
	CycleID        string
	LoadedAt       time.Time
	Sources        int
	FailedSources  int
	InvalidEntries int
	Releases       int
	QueueLength    int
	Target         *countdown.Target // Nil when every release is unlocked
}

// fetchResult holds the outcome of one source fetch.
type fetchResult struct {
	descriptors []release.Descriptor
	err         error
}

// Load runs one load cycle: fetch every source, normalize, assemble, build
// the queue, re-arm the countdown, and hand the queue to the playback session.
// Load cycles never overlap. Source failures are logged and skipped.
func (m *Manager) Load(ctx context.Context) (LoadReport, error) {
	m.loadMu.Lock()
	defer m.loadMu.Unlock()

	cycleID := uuid.New().String()
	report := LoadReport{CycleID: cycleID, Sources: len(m.sources)}
	zlog.Debug().Msgf("catalog: load cycle started: cycle_id=%s sources=%d", cycleID, len(m.sources))

	results := m.fetchAll(ctx)
	if err := ctx.Err(); err != nil {
		// Nothing is published for an abandoned cycle.
		return report, errors.Wrap(err, "load cycle cancelled")
	}

	// Results are consumed in source order, so input order does not depend
	// on which fetch completed first.
	var releases []release.Release
	for i, res := range results {
		if res.err != nil {
			report.FailedSources++
			zlog.Error().Err(res.err).Msgf("catalog: source skipped: cycle_id=%s source=%s", cycleID, m.sources[i].Name())
			continue
		}
		for _, d := range res.descriptors {
			r, err := release.Normalize(d)
			if err != nil {
				report.InvalidEntries++
				zlog.Warn().Err(err).Msgf("catalog: release skipped: cycle_id=%s source=%s", cycleID, m.sources[i].Name())
				continue
			}
			releases = append(releases, r)
		}
	}

	now := m.now()
	cat := release.Assemble(releases)
	q := queue.Build(cat, now)

	target, hasTarget := countdown.SelectTarget(cat, now)
	if hasTarget && m.scheduler.Arm(target) {
		report.Target = &target
	} else {
		m.scheduler.Cancel()
	}

	m.mu.Lock()
	m.catalog = cat
	m.cycleID = cycleID
	m.loadedAt = now
	m.loaded = true
	m.mu.Unlock()

	m.session.Replace(q)

	report.LoadedAt = now
	report.Releases = len(cat)
	report.QueueLength = len(q)

	targetTitle := "-"
	if report.Target != nil {
		targetTitle = report.Target.Title
	}
	zlog.Info().Msgf("catalog: load cycle completed: cycle_id=%s releases=%d queue_length=%d failed_sources=%d invalid=%d countdown_target=%s",
		cycleID, report.Releases, report.QueueLength, report.FailedSources, report.InvalidEntries, targetTitle)

	m.publishCatalog()
	return report, nil
}

// fetchAll fetches every source concurrently, bounded by the loader concurrency.
// The result slice is indexed by source position.
func (m *Manager) fetchAll(ctx context.Context) []fetchResult {
	results := make([]fetchResult, len(m.sources))
	sem := make(chan struct{}, m.maxConcurrent)

	var wg sync.WaitGroup
	for i, src := range m.sources {
		wg.Add(1)
		go func(i int, src source.Source) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				results[i] = fetchResult{err: errors.Mark(ctx.Err(), source.ErrFetchFailure)}
				return
			}
			defer func() { <-sem }()

			fetchCtx, cancel := context.WithTimeout(ctx, m.fetchTimeout)
			defer cancel()

			start := time.Now()
			descriptors, err := src.Fetch(fetchCtx)
			results[i] = fetchResult{descriptors: descriptors, err: err}
			zlog.Debug().Msgf("catalog: source fetched: source=%s descriptors=%d elapsed=%v err=%v", src.Name(), len(descriptors), time.Since(start), err)
		}(i, src)
	}
	wg.Wait()

	return results
}
