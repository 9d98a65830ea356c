package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"studio/internal/domain"
	"studio/internal/scheduler"
)

// QueueState is the slice of the scheduler the mirror needs.
type QueueState interface {
	Subscribe() <-chan struct{}
	Snapshot() (scheduler.Snapshot, error)
	SeedResults([]domain.GeneratedResult) error
}

// Mirror persists the job-independent state (the result gallery and the last
// advisory) to the store, debounced so a burst of completions causes one
// write instead of many.
type Mirror struct {
	store    Store
	queue    QueueState
	debounce time.Duration
	logger   zerolog.Logger
}

// NewMirror wires a store behind a queue.
func NewMirror(st Store, queue QueueState, debounce time.Duration, logger zerolog.Logger) *Mirror {
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	return &Mirror{store: st, queue: queue, debounce: debounce, logger: logger}
}

// Restore loads the persisted gallery back into the scheduler. Called once at
// startup, before any job runs.
func (m *Mirror) Restore(ctx context.Context) error {
	data, err := m.store.GetLarge(ctx, KeyResults)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}
	var results []domain.GeneratedResult
	if err := json.Unmarshal(data, &results); err != nil {
		m.logger.Warn().Err(err).Msg("mirror: persisted gallery is corrupt, starting empty")
		return nil
	}
	if len(results) == 0 {
		return nil
	}
	m.logger.Info().Int("results", len(results)).Msg("mirror: restored gallery")
	return m.queue.SeedResults(results)
}

// Run watches for state changes and flushes after the debounce window goes
// quiet. It blocks until ctx is cancelled, flushing one last time on the way
// out.
func (m *Mirror) Run(ctx context.Context) {
	sub := m.queue.Subscribe()
	timer := time.NewTimer(m.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false

	for {
		select {
		case <-ctx.Done():
			if pending {
				flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				m.flush(flushCtx)
				cancel()
			}
			return
		case <-sub:
			if pending && !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(m.debounce)
			pending = true
		case <-timer.C:
			pending = false
			m.flush(ctx)
		}
	}
}

func (m *Mirror) flush(ctx context.Context) {
	snap, err := m.queue.Snapshot()
	if err != nil {
		return
	}
	data, err := json.Marshal(snap.Results)
	if err != nil {
		m.logger.Error().Err(err).Msg("mirror: marshal gallery failed")
		return
	}
	if err := m.store.SetLarge(ctx, KeyResults, data); err != nil {
		m.logger.Warn().Err(err).Msg("mirror: persist gallery failed")
		return
	}
	if advisory, err := json.Marshal(snap.Advisory); err == nil {
		if err := m.store.SetSmall(ctx, KeyAdvisory, advisory); err != nil {
			m.logger.Warn().Err(err).Msg("mirror: persist advisory failed")
		}
	}
	m.logger.Debug().Int("results", len(snap.Results)).Msg("mirror: state persisted")
}
