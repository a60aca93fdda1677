// internal/application/migration/pipeline.go
package migration

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"invoicer/internal/domain/docstore"
)

// progressEvery controls how often a long collection logs its progress.
const progressEvery = 500

// Pipeline copies legacy exports into the document store, one step at a time.
//
// Records with a legacy id are upserted under that id, so re-running is
// convergent for them. Records without one get a store-allocated id and are
// inserted again on every run.
type Pipeline struct {
	Store  docstore.Store
	Source Source
	Log    *zap.Logger

	// Now is read once per record; transforms use it for missing timestamps.
	Now func() time.Time

	// Concurrency bounds in-flight writes within a collection.
	// Values <= 1 write sequentially in file order.
	// Steps always run one after another regardless.
	Concurrency int
}

func NewPipeline(store docstore.Store, source Source, log *zap.Logger) *Pipeline {
	if log == nil {
		log = zap.NewNop()
	}
	return &Pipeline{
		Store:       store,
		Source:      source,
		Log:         log,
		Now:         time.Now,
		Concurrency: 1,
	}
}

// StepReport summarizes one step.
type StepReport struct {
	File       string
	Collection string
	Skipped    bool
	Read       int
	Written    int
	Upserted   int // written under a legacy id
	Allocated  int // written under a store-allocated id
	Duration   time.Duration
}

// Report summarizes a run. Err is the error that stopped it, if any.
type Report struct {
	Source    string
	Steps     []StepReport
	StartedAt time.Time
	Duration  time.Duration
	Err       error
}

// Written is the total number of documents written.
func (r Report) Written() int {
	n := 0
	for _, s := range r.Steps {
		n += s.Written
	}
	return n
}

// Run executes plan in order. The first failure stops the run; documents
// already written stay in place.
func (p *Pipeline) Run(ctx context.Context, plan Plan) (Report, error) {
	started := time.Now()
	rep := Report{Source: p.sourceName(), StartedAt: p.now()}

	plan, err := plan.Resolve()
	if err != nil {
		rep.Err = err
		return rep, err
	}
	p.Log.Info("[migration] start", zap.String("source", rep.Source), zap.Int("steps", len(plan)), zap.Int("concurrency", p.Concurrency))

	for _, step := range plan {
		sr, err := p.MigrateCollection(ctx, step)
		rep.Steps = append(rep.Steps, sr)
		if err != nil {
			err = fmt.Errorf("migrate %s -> %s: %w", step.File, step.Collection, err)
			rep.Err = err
			rep.Duration = time.Since(started)
			return rep, err
		}
	}

	rep.Duration = time.Since(started)
	p.Log.Info("[migration] done",
		zap.Int("steps", len(rep.Steps)),
		zap.Int("written", rep.Written()),
		zap.Duration("duration", rep.Duration),
	)
	return rep, nil
}

// MigrateCollection runs a single step. A missing export is skipped with a
// warning; any parse, transform or write error is returned.
func (p *Pipeline) MigrateCollection(ctx context.Context, step Step) (StepReport, error) {
	start := time.Now()
	sr := StepReport{File: step.File, Collection: step.Collection}
	log := p.Log.With(zap.String("file", step.File), zap.String("collection", step.Collection))

	transform := step.Transform
	if transform == nil {
		t, err := TransformByName(step.TransformName)
		if err != nil {
			return sr, err
		}
		transform = t
	}

	recs, err := p.Source.Load(ctx, step.File)
	if err != nil {
		if errors.Is(err, ErrSourceNotFound) {
			log.Warn("[migration] export not found, skipping collection", zap.Error(err))
			sr.Skipped = true
			sr.Duration = time.Since(start)
			return sr, nil
		}
		return sr, err
	}
	sr.Read = len(recs)

	log.Info("[migration] migrating documents", zap.Int("count", len(recs)))

	var upserted, allocated atomic.Int64
	write := func(ctx context.Context, i int, rec Record) error {
		id, hasID, err := rec.LegacyID()
		if err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
		doc, err := transform(rec, p.now())
		if err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
		if _, err := p.Store.Put(ctx, step.Collection, id, doc); err != nil {
			return fmt.Errorf("record %d (id=%q): %w", i, id, err)
		}
		var n int64
		if hasID {
			n = upserted.Add(1) + allocated.Load()
		} else {
			n = allocated.Add(1) + upserted.Load()
		}
		if n%progressEvery == 0 {
			log.Info("[migration] progress", zap.Int64("written", n), zap.Int("total", len(recs)))
		}
		return nil
	}

	if p.Concurrency <= 1 {
		for i, rec := range recs {
			if err := ctx.Err(); err != nil {
				err = p.finish(&sr, start, &upserted, &allocated, err)
				return sr, err
			}
			if err := write(ctx, i, rec); err != nil {
				err = p.finish(&sr, start, &upserted, &allocated, err)
				return sr, err
			}
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(p.Concurrency)
		for i, rec := range recs {
			if gctx.Err() != nil {
				break
			}
			g.Go(func() error { return write(gctx, i, rec) })
		}
		if err := g.Wait(); err != nil {
			err = p.finish(&sr, start, &upserted, &allocated, err)
			return sr, err
		}
		if err := ctx.Err(); err != nil {
			err = p.finish(&sr, start, &upserted, &allocated, err)
			return sr, err
		}
	}

	p.finish(&sr, start, &upserted, &allocated, nil)
	log.Info("[migration] collection done",
		zap.Int("written", sr.Written),
		zap.Int("upserted", sr.Upserted),
		zap.Int("allocated", sr.Allocated),
		zap.Duration("duration", sr.Duration),
	)
	return sr, nil
}

func (p *Pipeline) finish(sr *StepReport, start time.Time, upserted, allocated *atomic.Int64, err error) error {
	sr.Upserted = int(upserted.Load())
	sr.Allocated = int(allocated.Load())
	sr.Written = sr.Upserted + sr.Allocated
	sr.Duration = time.Since(start)
	if err != nil {
		p.Log.Error("[migration] collection failed",
			zap.String("collection", sr.Collection),
			zap.Int("written_before_failure", sr.Written),
			zap.Error(err),
		)
	}
	return err
}

func (p *Pipeline) now() time.Time {
	if p.Now == nil {
		return time.Now().UTC()
	}
	return p.Now().UTC()
}

func (p *Pipeline) sourceName() string {
	if p.Source == nil {
		return ""
	}
	return p.Source.String()
}
