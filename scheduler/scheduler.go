// Package scheduler plans and runs a batch translation: it walks the input
// tree, decides which files need which languages, dispatches (file,
// language) items to the pipeline and records finished files in the
// ledger.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/minios-linux/mdtranslate/ledger"
	"github.com/minios-linux/mdtranslate/pipeline"
)

// Processor runs one work item. *pipeline.Pipeline implements it.
type Processor interface {
	Process(ctx context.Context, task pipeline.Task) (string, error)
}

// Options controls the scheduler.
type Options struct {
	// Root is the input directory.
	Root string
	// Languages are the requested target languages.
	Languages []string
	// Exclude lists file names (not paths) that are never translated
	// unless they carry the force marker.
	Exclude []string
	// AdminPrefixes skips directories whose name starts with any of these.
	// Nil means {"."}.
	AdminPrefixes []string
	// Parallel enables bounded concurrent dispatch.
	Parallel bool
	// MaxConcurrent is the admission bound for parallel mode.
	MaxConcurrent int
	// DryRun plans without translating or writing anything.
	DryRun bool
	// OnLog emits log messages.
	OnLog func(format string, args ...any)
	// OnSuccess is called after each completed item.
	OnSuccess func(task pipeline.Task, outPath string)
	// OnError is called for each failed item.
	OnError func(err error)
}

func (o *Options) log(format string, args ...any) {
	if o.OnLog != nil {
		o.OnLog(format, args...)
	}
}

func (o *Options) effectiveMaxConcurrent() int {
	if o.MaxConcurrent > 0 {
		return o.MaxConcurrent
	}
	return 10
}

func (o *Options) adminPrefixes() []string {
	if o.AdminPrefixes == nil {
		return []string{"."}
	}
	return o.AdminPrefixes
}

// ---------------------------------------------------------------------------
// Plan
// ---------------------------------------------------------------------------

// Reason explains why a file was skipped.
type Reason string

const (
	ReasonExcluded  Reason = "excluded"
	ReasonProcessed Reason = "already processed"
	ReasonNoTargets Reason = "no target languages"
)

// FileJob is one source file with the languages it needs.
type FileJob struct {
	RelPath   string
	AbsPath   string
	Kind      pipeline.Kind
	Languages []string
	// Forced is true when the force marker overrode exclusion or the ledger.
	Forced bool
}

// Skipped is a file left out of the batch.
type Skipped struct {
	RelPath string
	Reason  Reason
}

// Plan is the result of walking the input tree.
type Plan struct {
	Jobs    []FileJob
	Skipped []Skipped
}

// Items returns the number of (file, language) work items.
func (p *Plan) Items() int {
	n := 0
	for _, j := range p.Jobs {
		n += len(j.Languages)
	}
	return n
}

// Scheduler runs batches against one pipeline and ledger.
type Scheduler struct {
	proc   Processor
	ledger *ledger.Ledger
	opts   Options
}

// New creates a scheduler.
func New(proc Processor, l *ledger.Ledger, opts Options) *Scheduler {
	return &Scheduler{proc: proc, ledger: l, opts: opts}
}

// Candidates returns the relative paths of every Markdown and media file
// under the root, in walk order.
func (s *Scheduler) Candidates() ([]string, error) {
	var out []string
	err := s.walk(func(rel, abs string, kind pipeline.Kind) error {
		out = append(out, rel)
		return nil
	})
	return out, err
}

// walk visits Markdown and media files in lexicographic order per
// directory, skipping administrative directories.
func (s *Scheduler) walk(fn func(rel, abs string, kind pipeline.Kind) error) error {
	root := s.opts.Root
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("%w: input directory: %w", pipeline.ErrFileSystem, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: input %s is not a directory", pipeline.ErrFileSystem, root)
	}

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("%w: walking %s: %w", pipeline.ErrFileSystem, path, err)
		}
		if d.IsDir() {
			if path != root && s.isAdmin(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		kind, ok := pipeline.Classify(d.Name())
		if !ok {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		return fn(filepath.ToSlash(rel), path, kind)
	})
}

func (s *Scheduler) isAdmin(name string) bool {
	for _, p := range s.opts.adminPrefixes() {
		if p != "" && strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

func (s *Scheduler) isExcluded(name string) bool {
	for _, e := range s.opts.Exclude {
		if e == name {
			return true
		}
	}
	return false
}

// Plan walks the input tree and decides the work for every file.
//
// A file carrying the force marker is always translated. Otherwise it is
// skipped when its name is in the exclude list or its path is in the
// ledger. A file carrying the English marker gets no English output.
func (s *Scheduler) Plan(ctx context.Context) (*Plan, error) {
	plan := &Plan{}
	err := s.walk(func(rel, abs string, kind pipeline.Kind) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		forced, english := false, false
		if kind == pipeline.KindMarkdown {
			data, err := os.ReadFile(abs)
			if err != nil {
				return fmt.Errorf("%w: reading %s: %w", pipeline.ErrFileSystem, rel, err)
			}
			forced = strings.Contains(string(data), pipeline.ForceMarker)
			english = strings.Contains(string(data), pipeline.EnglishMarker)
		}

		if !forced {
			if s.isExcluded(filepath.Base(abs)) {
				plan.Skipped = append(plan.Skipped, Skipped{RelPath: rel, Reason: ReasonExcluded})
				return nil
			}
			if s.ledger != nil {
				done, err := s.ledger.IsProcessed(rel)
				if err != nil {
					return err
				}
				if done {
					plan.Skipped = append(plan.Skipped, Skipped{RelPath: rel, Reason: ReasonProcessed})
					return nil
				}
			}
		}

		langs := make([]string, 0, len(s.opts.Languages))
		for _, lang := range s.opts.Languages {
			if english && lang == "en" {
				continue
			}
			langs = append(langs, lang)
		}
		if len(langs) == 0 {
			plan.Skipped = append(plan.Skipped, Skipped{RelPath: rel, Reason: ReasonNoTargets})
			return nil
		}

		plan.Jobs = append(plan.Jobs, FileJob{
			RelPath:   rel,
			AbsPath:   abs,
			Kind:      kind,
			Languages: langs,
			Forced:    forced,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return plan, nil
}

// ---------------------------------------------------------------------------
// Run
// ---------------------------------------------------------------------------

// Summary reports the outcome of a batch.
type Summary struct {
	// Planned is the number of (file, language) items scheduled.
	Planned int
	// Translated is the number of Markdown items written.
	Translated int
	// Copied is the number of media items copied.
	Copied int
	// Skipped is the number of files left out of the batch.
	Skipped int
	// Failed is the number of failed items.
	Failed int
	// Committed is the number of files newly recorded in the ledger.
	Committed int
}

// Run plans and executes a batch. In sequential mode the first failure
// stops the batch. In parallel mode every item runs and the returned error
// lists all failures.
func (s *Scheduler) Run(ctx context.Context) (Summary, error) {
	plan, err := s.Plan(ctx)
	if err != nil {
		return Summary{}, err
	}
	return s.Execute(ctx, plan)
}

// Execute runs an existing plan.
func (s *Scheduler) Execute(ctx context.Context, plan *Plan) (Summary, error) {
	sum := Summary{Planned: plan.Items(), Skipped: len(plan.Skipped)}
	for _, sk := range plan.Skipped {
		s.opts.log("Skipping %s (%s)", sk.RelPath, sk.Reason)
	}
	if s.opts.DryRun {
		for _, job := range plan.Jobs {
			s.opts.log("Would translate %s -> %s", job.RelPath, strings.Join(job.Languages, ", "))
		}
		return sum, nil
	}
	if s.opts.Parallel {
		return s.runParallel(ctx, plan, sum)
	}
	return s.runSequential(ctx, plan, sum)
}

func (s *Scheduler) runSequential(ctx context.Context, plan *Plan, sum Summary) (Summary, error) {
	for _, job := range plan.Jobs {
		for _, lang := range job.Languages {
			if err := ctx.Err(); err != nil {
				return sum, err
			}
			task := pipeline.Task{RelPath: job.RelPath, AbsPath: job.AbsPath, Lang: lang, Kind: job.Kind}
			s.opts.log("Translating into %s: %s", lang, job.RelPath)
			out, err := s.proc.Process(ctx, task)
			if err != nil {
				sum.Failed++
				if s.opts.OnError != nil {
					s.opts.OnError(err)
				}
				return sum, err
			}
			s.record(&sum, task, out)
		}
		if err := s.commit(&sum, job.RelPath); err != nil {
			return sum, err
		}
	}
	return sum, nil
}

func (s *Scheduler) runParallel(ctx context.Context, plan *Plan, sum Summary) (Summary, error) {
	sem := semaphore.NewWeighted(int64(s.opts.effectiveMaxConcurrent()))

	var mu sync.Mutex
	var wg sync.WaitGroup
	var failures []error

	// remaining counts unfinished languages per file; failed marks files
	// that must not be committed.
	remaining := make(map[string]int, len(plan.Jobs))
	failed := make(map[string]bool)
	for _, job := range plan.Jobs {
		remaining[job.RelPath] = len(job.Languages)
	}

	finish := func(task pipeline.Task, out string, err error) {
		mu.Lock()
		defer mu.Unlock()

		if err != nil {
			sum.Failed++
			failed[task.RelPath] = true
			failures = append(failures, err)
			if s.opts.OnError != nil {
				s.opts.OnError(err)
			}
		} else {
			s.record(&sum, task, out)
		}

		remaining[task.RelPath]--
		if remaining[task.RelPath] == 0 && !failed[task.RelPath] {
			if cerr := s.commit(&sum, task.RelPath); cerr != nil {
				failures = append(failures, cerr)
			}
		}
	}

dispatch:
	for _, job := range plan.Jobs {
		for _, lang := range job.Languages {
			if err := sem.Acquire(ctx, 1); err != nil {
				break dispatch
			}
			task := pipeline.Task{RelPath: job.RelPath, AbsPath: job.AbsPath, Lang: lang, Kind: job.Kind}
			s.opts.log("Translating into %s: %s", lang, job.RelPath)

			wg.Add(1)
			go func() {
				defer wg.Done()
				defer sem.Release(1)
				out, err := s.proc.Process(ctx, task)
				finish(task, out, err)
			}()
		}
	}
	wg.Wait()

	if len(failures) > 0 {
		return sum, aggregate(failures)
	}
	if err := ctx.Err(); err != nil {
		return sum, err
	}
	return sum, nil
}

func (s *Scheduler) record(sum *Summary, task pipeline.Task, out string) {
	if task.Kind == pipeline.KindMedia {
		sum.Copied++
	} else {
		sum.Translated++
	}
	if s.opts.OnSuccess != nil {
		s.opts.OnSuccess(task, out)
	}
}

func (s *Scheduler) commit(sum *Summary, relPath string) error {
	if s.ledger == nil {
		return nil
	}
	added, err := s.ledger.MarkProcessed(relPath)
	if err != nil {
		return fmt.Errorf("%s: recording in ledger: %w", relPath, err)
	}
	if added {
		sum.Committed++
	}
	return nil
}

// BatchError aggregates failed items of a parallel run.
type BatchError struct {
	Errs []error
}

func (e *BatchError) Error() string {
	msgs := make([]string, len(e.Errs))
	for i, err := range e.Errs {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("%d item(s) failed: %s", len(e.Errs), strings.Join(msgs, "; "))
}

func (e *BatchError) Unwrap() []error {
	return e.Errs
}

func aggregate(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return &BatchError{Errs: errs}
}

// IsInterrupted reports whether err stems from context cancellation.
func IsInterrupted(err error) bool {
	return errors.Is(err, context.Canceled)
}
