package render

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/docrender/internal/docset"
	"git.home.luguber.info/inful/docrender/internal/events"
	"git.home.luguber.info/inful/docrender/internal/foundation/errors"
	"git.home.luguber.info/inful/docrender/internal/logfields"
	"git.home.luguber.info/inful/docrender/internal/markdown"
	"git.home.luguber.info/inful/docrender/internal/metas"
	"git.home.luguber.info/inful/docrender/internal/metrics"
	"git.home.luguber.info/inful/docrender/internal/rendercontext"
	"git.home.luguber.info/inful/docrender/internal/router"
	"git.home.luguber.info/inful/docrender/internal/storage"
	"git.home.luguber.info/inful/docrender/internal/urlgen"
)

// Gap is an unresolved reference found during a pass.
type Gap struct {
	Document string
	Target   string
}

// Report summarizes a render pass.
type Report struct {
	PassID    string
	Format    string
	Documents int
	// Written lists destination paths in write order.
	Written  []string
	Gaps     []Gap
	Duration time.Duration
}

// SetRenderer renders every document of a guide set into the output tree.
type SetRenderer struct {
	router    router.Router
	documents *DocumentRenderer
	format    string
	policy    urlgen.Policy
	metas     metas.Store
	workers   int
	recorder  metrics.Recorder
	bus       *events.Bus
	disabled  bool
}

// Option configures a SetRenderer.
type Option func(*SetRenderer)

// WithFormat selects the output format (default "html").
func WithFormat(format string) Option {
	return func(s *SetRenderer) { s.format = format }
}

// WithPolicy selects the resolution gap policy for every document of a pass.
func WithPolicy(p urlgen.Policy) Option {
	return func(s *SetRenderer) { s.policy = p }
}

// WithMetas sets the metadata store. Without one, a store is derived from
// the set's documents (titles and heading anchors).
func WithMetas(store metas.Store) Option {
	return func(s *SetRenderer) { s.metas = store }
}

// WithWorkers renders up to n documents concurrently. Writes still happen in
// set order and stop at the first failure.
func WithWorkers(n int) Option {
	return func(s *SetRenderer) { s.workers = n }
}

func WithRecorder(r metrics.Recorder) Option {
	return func(s *SetRenderer) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithGuidesEnabled switches guide rendering on or off (default on). A
// disabled renderer refuses every pass with a configuration error.
func WithGuidesEnabled(enabled bool) Option {
	return func(s *SetRenderer) { s.disabled = !enabled }
}

func WithBus(b *events.Bus) Option {
	return func(s *SetRenderer) { s.bus = b }
}

// NewSetRenderer creates a SetRenderer routing documents with r.
func NewSetRenderer(r router.Router, documents *DocumentRenderer, opts ...Option) *SetRenderer {
	s := &SetRenderer{
		router:    r,
		documents: documents,
		format:    FormatHTML,
		policy:    urlgen.PolicyPlaceholder,
		workers:   1,
		recorder:  metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.documents == nil {
		s.documents = DefaultDocumentRenderer()
	}
	if s.workers < 1 {
		s.workers = 1
	}
	return s
}

// Plan validates set and returns the destination of every document without
// rendering anything.
func (s *SetRenderer) Plan(set *docset.Set) ([]router.Target, error) {
	if err := set.RequireGuide(); err != nil {
		return nil, err
	}
	if set.Source.Root() == "" {
		return nil, errors.ConfigError("documentation set has no source path").
			WithCause(ErrMissingSource).
			Build()
	}
	docs := set.Documents()
	files := make([]string, len(docs))
	for i, d := range docs {
		files[i] = d.File()
	}
	return router.Plan(s.router, set.OutputLocation, files)
}

type result struct {
	doc      *docset.Document
	target   router.Target
	data     []byte
	gaps     []string
	duration time.Duration
	err      error
}

// Render renders every document of set in order and writes it to its
// planned destination in dest, overwriting existing files.
//
// Configuration faults (wrong set kind, missing source path, unknown
// format, colliding destinations) are reported before anything is written.
// The first render or write failure aborts the pass; documents written
// before it stay in place. The returned Report is non-nil whenever planning
// succeeded, including on failure.
func (s *SetRenderer) Render(ctx context.Context, set *docset.Set, origin storage.Source, dest storage.Destination) (*Report, error) {
	start := time.Now()
	if s.disabled {
		return nil, errors.ConfigError("guide rendering is disabled").
			WithCause(ErrGuidesDisabled).
			WithContext("setting", "render.guides_enabled").
			Build()
	}
	targets, err := s.Plan(set)
	if err != nil {
		return nil, err
	}
	if dest == nil {
		return nil, errors.ConfigError("no output destination").Build()
	}
	if _, err := s.documents.Formatter(s.format); err != nil {
		return nil, err
	}

	docs := set.Documents()
	report := &Report{PassID: uuid.NewString(), Format: s.format, Documents: len(docs)}
	log := slog.With(logfields.PassID(report.PassID))
	log.Warn("Guide rendering is experimental")
	log.Info("Rendering documentation set",
		logfields.Format(s.format),
		logfields.Output(set.OutputLocation),
		logfields.Count(len(docs)))

	store := s.metas
	if store == nil {
		store = metasFromSet(set)
	}
	base := rendercontext.New(rendercontext.Options{
		OutputRoot: set.OutputLocation,
		Format:     s.format,
		Origin:     origin,
		Metas:      store,
		Generator:  urlgen.New(s.router, s.policy),
	})

	workers := min(s.workers, max(len(docs), 1))
	s.recorder.SetWorkers(workers)
	s.publish(ctx, events.PassStarted{
		Pass:      events.Pass{ID: report.PassID},
		Format:    s.format,
		Output:    set.OutputLocation,
		Documents: len(docs),
		Workers:   workers,
	})

	var failedOn string
	commit := func(res result) error {
		err := s.commit(ctx, report, res, dest)
		if err != nil {
			failedOn = res.doc.File()
		}
		return err
	}
	root := set.Source.Root()
	if workers > 1 {
		err = s.renderParallel(ctx, base, workers, root, docs, targets, commit)
	} else {
		err = s.renderSequential(ctx, base, root, docs, targets, commit)
	}
	report.Duration = time.Since(start)
	s.recorder.ObservePassDuration(report.Duration)

	if err != nil {
		outcome := metrics.PassFailed
		if ctx.Err() != nil {
			outcome = metrics.PassCanceled
		}
		s.recorder.IncPassOutcome(outcome)
		s.publish(ctx, events.PassFailed{
			Pass:       events.Pass{ID: report.PassID},
			Document:   failedOn,
			Error:      err.Error(),
			Written:    len(report.Written),
			DurationMS: report.Duration.Milliseconds(),
		})
		log.Error("Render pass failed",
			logfields.Document(failedOn),
			logfields.Count(len(report.Written)),
			logfields.Error(err))
		return report, err
	}

	outcome := metrics.PassSuccess
	if len(report.Gaps) > 0 {
		outcome = metrics.PassWarning
	}
	s.recorder.IncPassOutcome(outcome)
	s.publish(ctx, events.PassCompleted{
		Pass:       events.Pass{ID: report.PassID},
		Written:    len(report.Written),
		Gaps:       len(report.Gaps),
		DurationMS: report.Duration.Milliseconds(),
	})
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	log.Info("Rendered documentation set",
		logfields.Source(set.Source.DSN),
		logfields.Count(len(report.Written)),
		slog.Int("gaps", len(report.Gaps)),
		logfields.DurationMS(float64(report.Duration.Microseconds())/1000),
		logfields.MemoryMB(mem.HeapAlloc))
	return report, nil
}

func (s *SetRenderer) renderSequential(ctx context.Context, rc *rendercontext.Context, root string,
	docs []*docset.Document, targets []router.Target, commit func(result) error,
) error {
	for i, doc := range docs {
		if err := ctx.Err(); err != nil {
			return canceled(err)
		}
		if err := commit(s.renderDocument(ctx, rc, root, doc, targets[i])); err != nil {
			return err
		}
	}
	return nil
}

// renderParallel renders on workers goroutines, each with its own context
// clone, and commits results on the calling goroutine in set order.
func (s *SetRenderer) renderParallel(ctx context.Context, base *rendercontext.Context, workers int, root string,
	docs []*docset.Document, targets []router.Target, commit func(result) error,
) error {
	var wg sync.WaitGroup
	defer wg.Wait()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([]chan result, len(docs))
	for i := range results {
		results[i] = make(chan result, 1)
	}
	jobs := make(chan int)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rc := base.Clone()
			for i := range jobs {
				results[i] <- s.renderDocument(ctx, rc, root, docs[i], targets[i])
			}
		}()
	}
	go func() {
		defer close(jobs)
		for i := range docs {
			select {
			case jobs <- i:
			case <-ctx.Done():
				return
			}
		}
	}()

	for i := range docs {
		select {
		case res := <-results[i]:
			if err := commit(res); err != nil {
				return err
			}
		case <-ctx.Done():
			return canceled(ctx.Err())
		}
	}
	return nil
}

func (s *SetRenderer) renderDocument(ctx context.Context, rc *rendercontext.Context, root string,
	doc *docset.Document, target router.Target,
) result {
	start := time.Now()
	rc.Bind(doc, path.Join(root, path.Dir(doc.File())), target.Destination)
	data, err := s.documents.Render(ctx, doc.Node(), rc)
	res := result{
		doc:      doc,
		target:   target,
		data:     data,
		gaps:     rc.Gaps(),
		duration: time.Since(start),
		err:      err,
	}
	rc.Release()
	return res
}

// commit records a rendered document and writes it. It runs on one
// goroutine only, so report needs no locking.
func (s *SetRenderer) commit(ctx context.Context, report *Report, res result, dest storage.Destination) error {
	file := res.doc.File()
	pass := events.Pass{ID: report.PassID}
	for _, target := range res.gaps {
		report.Gaps = append(report.Gaps, Gap{Document: file, Target: target})
		s.publish(ctx, events.ResolutionGap{Pass: pass, Document: file, Target: target})
	}
	s.recorder.AddResolutionGaps(len(res.gaps))
	s.recorder.ObserveDocumentDuration(s.format, res.duration)

	if res.err != nil {
		s.recorder.IncDocumentResult(s.format, metrics.ResultFailed)
		return res.err
	}

	if err := dest.WriteFile(ctx, res.target.Destination, res.data); err != nil {
		s.recorder.IncDocumentResult(s.format, metrics.ResultWriteError)
		return errors.FileSystemError("failed to write rendered document").
			WithCause(fmt.Errorf("%w: %w", ErrWriteFailed, err)).
			WithContext("document", file).
			WithContext("destination", res.target.Destination).
			Build()
	}
	report.Written = append(report.Written, res.target.Destination)

	outcome := metrics.ResultSuccess
	if len(res.gaps) > 0 {
		outcome = metrics.ResultGaps
	}
	s.recorder.IncDocumentResult(s.format, outcome)
	s.publish(ctx, events.DocumentRendered{
		Pass:        pass,
		Document:    file,
		Destination: res.target.Destination,
		Bytes:       len(res.data),
		DurationMS:  res.duration.Milliseconds(),
	})
	slog.Debug("Rendered document",
		logfields.PassID(report.PassID),
		logfields.Document(file),
		logfields.Destination(res.target.Destination),
		logfields.DurationMS(float64(res.duration.Milliseconds())))
	return nil
}

func (s *SetRenderer) publish(ctx context.Context, e events.Event) {
	if err := s.bus.Publish(ctx, e); err != nil {
		slog.Warn("Event handler failed",
			logfields.PassID(e.PassID()),
			slog.String("event", e.Name()),
			logfields.Error(err))
	}
}

func canceled(err error) error {
	return errors.WrapError(err, errors.CategoryRuntime, "render pass canceled").Build()
}

// metasFromSet derives a metadata store from the documents themselves.
func metasFromSet(set *docset.Set) *metas.Memory {
	store := metas.NewMemory()
	for _, d := range set.Documents() {
		e := metas.Entry{File: d.File(), Title: d.Title()}
		if n := d.Node(); n != nil && n.Root() != nil {
			e.Anchors = markdown.Anchors(n)
		}
		store.Put(e)
	}
	return store
}
