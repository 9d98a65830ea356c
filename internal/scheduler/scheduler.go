// Package scheduler owns the generation job queue: an ordered collection of
// jobs, a bounded number of concurrent dispatches, and the gallery of
// results. All state lives inside a single event loop; every operation posts
// a command to that loop, and one admission pass runs after each command, so
// admission decisions always see a consistent view of the collections.
package scheduler

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"studio/internal/domain"
	"studio/internal/genai"
)

// Pipeline turns one job snapshot into generated output. The production
// implementation preprocesses images, builds the request and calls the model.
type Pipeline interface {
	Run(ctx context.Context, job domain.Job) (*genai.Output, error)
}

// Config bounds the scheduler's concurrency and per-dispatch deadline.
type Config struct {
	// MaxConcurrent is the admission bound C: at most this many jobs are
	// processing at once. Enqueueing is never gated; the backlog just grows.
	MaxConcurrent int
	// DispatchTimeout is the deadline applied to each dispatch. The remote
	// call itself has no timeout of its own, so this is the only bound.
	DispatchTimeout time.Duration
}

// Snapshot is a consistent copy of the scheduler's observable state.
type Snapshot struct {
	Jobs     []domain.Job
	Results  []domain.GeneratedResult
	Advisory string
	IsBusy   bool
	Version  uint64
}

// Scheduler drives jobs through pending -> processing -> removed-on-success
// or failed. Success removes the job and prepends its images to the results
// collection; failure leaves the job visible for retry or dismissal.
type Scheduler struct {
	pipeline Pipeline
	logger   zerolog.Logger
	cfg      Config

	commands chan func()
	stopped  chan struct{}

	// Everything below is owned by the run loop goroutine.
	baseCtx  context.Context
	jobs     []*domain.Job
	results  []domain.GeneratedResult
	advisory string
	version  uint64
	seq      uint64
	cancels  map[string]context.CancelFunc
	subs     []chan struct{}
}

// New constructs a scheduler. Run must be called before any operation
// completes.
func New(pipeline Pipeline, cfg Config, logger zerolog.Logger) *Scheduler {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 2
	}
	if cfg.DispatchTimeout <= 0 {
		cfg.DispatchTimeout = 120 * time.Second
	}
	return &Scheduler{
		pipeline: pipeline,
		logger:   logger,
		cfg:      cfg,
		commands: make(chan func()),
		stopped:  make(chan struct{}),
		cancels:  make(map[string]context.CancelFunc),
	}
}

// Run consumes commands until ctx is cancelled. It is the single goroutine
// that touches the job and result collections.
func (s *Scheduler) Run(ctx context.Context) {
	s.baseCtx = ctx
	defer close(s.stopped)
	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-s.commands:
			before := s.version
			fn()
			s.admit()
			if s.version != before {
				s.publish()
			}
		}
	}
}

// do posts a command to the run loop, failing fast once the loop has exited.
func (s *Scheduler) do(fn func()) error {
	select {
	case s.commands <- fn:
		return nil
	case <-s.stopped:
		return domain.ErrSchedulerStopped
	}
}

// submit is do for completions from dispatch goroutines: once the loop is
// gone there is nobody left to care about the outcome.
func (s *Scheduler) submit(fn func()) {
	select {
	case s.commands <- fn:
	case <-s.stopped:
	}
}

// Enqueue validates and appends a new pending job. Settings and images are
// snapshotted here; later mutation of the caller's slices cannot reach the
// job.
func (s *Scheduler) Enqueue(prompt string, settings domain.Settings, images []domain.SourceImage) (domain.Job, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return domain.Job{}, domain.ErrEmptyPrompt
	}
	job := domain.Job{
		ID:           uuid.NewString(),
		Prompt:       prompt,
		Settings:     settings,
		SourceImages: domain.CloneSourceImages(images),
		Status:       domain.JobStatusPending,
		CreatedAt:    time.Now(),
	}

	reply := make(chan domain.Job, 1)
	err := s.do(func() {
		s.seq++
		job.Seq = s.seq
		stored := job
		s.jobs = append(s.jobs, &stored)
		s.version++
		s.logger.Info().Str("job_id", stored.ID).Int("source_images", len(stored.SourceImages)).Msg("scheduler: job enqueued")
		reply <- stored.Clone()
	})
	if err != nil {
		return domain.Job{}, err
	}
	return <-reply, nil
}

// Cancel removes a job. A pending job never runs; a processing job has its
// dispatch context cancelled, and any completion that still arrives for it is
// discarded silently.
func (s *Scheduler) Cancel(id string) error {
	reply := make(chan error, 1)
	if err := s.do(func() {
		idx := s.find(id)
		if idx < 0 {
			reply <- domain.ErrJobNotFound
			return
		}
		if cancel, ok := s.cancels[id]; ok {
			cancel()
			delete(s.cancels, id)
		}
		s.jobs = append(s.jobs[:idx], s.jobs[idx+1:]...)
		s.version++
		s.logger.Info().Str("job_id", id).Msg("scheduler: job cancelled")
		reply <- nil
	}); err != nil {
		return err
	}
	return <-reply
}

// Retry re-arms a failed job as pending, clearing its error. It is re-admitted
// under the same FIFO and concurrency rules as any pending job.
func (s *Scheduler) Retry(id string) error {
	reply := make(chan error, 1)
	if err := s.do(func() {
		idx := s.find(id)
		if idx < 0 {
			reply <- domain.ErrJobNotFound
			return
		}
		job := s.jobs[idx]
		if job.Status != domain.JobStatusFailed {
			reply <- domain.ErrJobNotRetryable
			return
		}
		job.Status = domain.JobStatusPending
		job.Error = ""
		job.ErrorKind = ""
		job.StartedAt = time.Time{}
		s.version++
		s.logger.Info().Str("job_id", id).Msg("scheduler: job re-armed for retry")
		reply <- nil
	}); err != nil {
		return err
	}
	return <-reply
}

// DeleteResult removes one result from the gallery.
func (s *Scheduler) DeleteResult(id string) error {
	reply := make(chan error, 1)
	if err := s.do(func() {
		for i, res := range s.results {
			if res.ID == id {
				s.results = append(s.results[:i], s.results[i+1:]...)
				s.version++
				reply <- nil
				return
			}
		}
		reply <- domain.ErrResultNotFound
	}); err != nil {
		return err
	}
	return <-reply
}

// ClearResults empties the gallery.
func (s *Scheduler) ClearResults() error {
	return s.apply(func() {
		if len(s.results) == 0 {
			return
		}
		s.results = nil
		s.version++
	})
}

// SeedResults replaces the gallery with persisted results, used once at
// startup to restore state from the store.
func (s *Scheduler) SeedResults(results []domain.GeneratedResult) error {
	return s.apply(func() {
		s.results = append([]domain.GeneratedResult(nil), results...)
		s.version++
	})
}

// Snapshot returns a consistent copy of jobs (queue order), results (newest
// first), the current advisory and the busy flag.
func (s *Scheduler) Snapshot() (Snapshot, error) {
	reply := make(chan Snapshot, 1)
	if err := s.do(func() {
		reply <- s.snapshotLocked()
	}); err != nil {
		return Snapshot{}, err
	}
	return <-reply, nil
}

// Version reports the monotonically increasing state counter. It starts at
// zero and bumps on every observable change.
func (s *Scheduler) Version() uint64 {
	reply := make(chan uint64, 1)
	if err := s.do(func() { reply <- s.version }); err != nil {
		return 0
	}
	return <-reply
}

// IsBusy reports whether any job currently occupies a processing slot.
func (s *Scheduler) IsBusy() bool {
	reply := make(chan bool, 1)
	if err := s.do(func() {
		busy := false
		for _, job := range s.jobs {
			if job.Status == domain.JobStatusProcessing {
				busy = true
				break
			}
		}
		reply <- busy
	}); err != nil {
		return false
	}
	return <-reply
}

// Subscribe returns a channel that receives a signal after state changes.
// Signals are coalesced; consumers read the current state via Snapshot.
func (s *Scheduler) Subscribe() <-chan struct{} {
	ch := make(chan struct{}, 1)
	if err := s.do(func() {
		s.subs = append(s.subs, ch)
	}); err != nil {
		close(ch)
	}
	return ch
}

func (s *Scheduler) apply(fn func()) error {
	reply := make(chan struct{})
	if err := s.do(func() {
		fn()
		close(reply)
	}); err != nil {
		return err
	}
	<-reply
	return nil
}

func (s *Scheduler) snapshotLocked() Snapshot {
	snap := Snapshot{
		Advisory: s.advisory,
		Version:  s.version,
	}
	snap.Jobs = make([]domain.Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		if job.Status == domain.JobStatusProcessing {
			snap.IsBusy = true
		}
		snap.Jobs = append(snap.Jobs, job.Clone())
	}
	snap.Results = append([]domain.GeneratedResult(nil), s.results...)
	return snap
}

func (s *Scheduler) find(id string) int {
	for i, job := range s.jobs {
		if job.ID == id {
			return i
		}
	}
	return -1
}

// admit fills free processing slots with pending jobs in FIFO order. It runs
// only inside the loop, so the processing count it reads cannot interleave
// with another admission pass.
func (s *Scheduler) admit() {
	processing := 0
	for _, job := range s.jobs {
		if job.Status == domain.JobStatusProcessing {
			processing++
		}
	}
	for _, job := range s.jobs {
		if processing >= s.cfg.MaxConcurrent {
			return
		}
		if job.Status != domain.JobStatusPending {
			continue
		}
		job.Status = domain.JobStatusProcessing
		job.StartedAt = time.Now()
		processing++
		s.version++

		ctx, cancel := context.WithTimeout(s.baseCtx, s.cfg.DispatchTimeout)
		s.cancels[job.ID] = cancel
		snapshot := job.Clone()
		s.logger.Info().Str("job_id", job.ID).Msg("scheduler: job admitted")
		go s.dispatch(ctx, snapshot)
	}
}

// dispatch runs one admitted job to completion, independently of its
// siblings, and posts the outcome back to the loop.
func (s *Scheduler) dispatch(ctx context.Context, job domain.Job) {
	started := time.Now()
	out, err := s.pipeline.Run(ctx, job)
	if err != nil {
		s.logger.Warn().Err(err).Str("job_id", job.ID).Dur("elapsed", time.Since(started)).Msg("scheduler: job failed")
		s.submit(func() { s.fail(job.ID, err) })
		return
	}
	s.logger.Info().Str("job_id", job.ID).Int("images", len(out.Images)).Dur("elapsed", time.Since(started)).Msg("scheduler: job succeeded")
	s.submit(func() { s.complete(job.ID, out) })
}

// complete merges a successful outcome: prepend results (newest first, i.e.
// completion order, not enqueue order), surface returned text as an advisory
// and remove the job. Outcomes for jobs cancelled mid-flight are discarded.
func (s *Scheduler) complete(id string, out *genai.Output) {
	if cancel, ok := s.cancels[id]; ok {
		cancel()
		delete(s.cancels, id)
	}
	idx := s.find(id)
	if idx < 0 || s.jobs[idx].Status != domain.JobStatusProcessing {
		s.logger.Debug().Str("job_id", id).Msg("scheduler: dropping outcome for removed job")
		return
	}
	job := s.jobs[idx]
	s.jobs = append(s.jobs[:idx], s.jobs[idx+1:]...)

	now := time.Now()
	fresh := make([]domain.GeneratedResult, 0, len(out.Images))
	for _, img := range out.Images {
		encoded := domain.SourceImage{MIME: img.MIME, Data: img.Data}
		fresh = append(fresh, domain.GeneratedResult{
			ID:        uuid.NewString(),
			DataURL:   encoded.DataURL(),
			Prompt:    job.Prompt,
			Timestamp: now,
		})
	}
	s.results = append(fresh, s.results...)
	if out.Text != "" {
		s.advisory = out.Text
	}
	s.version++
}

// fail marks a job failed with its classified message. One job's failure
// never touches its siblings.
func (s *Scheduler) fail(id string, err error) {
	if cancel, ok := s.cancels[id]; ok {
		cancel()
		delete(s.cancels, id)
	}
	idx := s.find(id)
	if idx < 0 || s.jobs[idx].Status != domain.JobStatusProcessing {
		s.logger.Debug().Str("job_id", id).Msg("scheduler: dropping failure for removed job")
		return
	}
	job := s.jobs[idx]
	job.Status = domain.JobStatusFailed
	job.Error = err.Error()
	job.ErrorKind = string(genai.KindOf(err))
	s.advisory = job.Error
	s.version++
}

func (s *Scheduler) publish() {
	for _, sub := range s.subs {
		select {
		case sub <- struct{}{}:
		default:
		}
	}
}
