// Package processor runs the whole pipeline: split every document, merge the
// fragments, filter by endpoint, and render each fragment into a record.
//
// Rendering is all-or-nothing. When any fragment fails to render, Process
// returns an error that identifies every failing fragment and no records.
// Tolerated input problems, such as a "paths" member that is not a mapping,
// are reported in Result.Warnings instead.
package processor

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/erraggy/oasplit/document"
	"github.com/erraggy/oasplit/fragment"
	"github.com/erraggy/oasplit/internal/options"
	"github.com/erraggy/oasplit/loader"
	"github.com/erraggy/oasplit/logging"
	"github.com/erraggy/oasplit/merger"
	"github.com/erraggy/oasplit/pruner"
	"github.com/erraggy/oasplit/renderer"
	"github.com/erraggy/oasplit/splitter"
)

// Processor holds pipeline configuration. Fields may be set directly or
// through ProcessWithOptions. A Processor is safe for concurrent use as long
// as its fields are not modified.
type Processor struct {
	// Workers bounds the goroutines of each stage. Zero means GOMAXPROCS.
	Workers int
	// Format is the output dialect. Empty means YAML.
	Format renderer.Format
	// Endpoints keeps only fragments whose canonical path starts with one of
	// these prefixes. Empty keeps everything.
	Endpoints []string
	// PruneComponents reduces each record's schema section to the schemas
	// its fragment references.
	PruneComponents bool
	// MethodsOnly restricts operation fragments to HTTP methods.
	MethodsOnly bool
	// SourceMethodKeys renders operation records under the method key as
	// spelled in the source.
	SourceMethodKeys bool
	// Logger receives progress output. Nil disables logging.
	Logger logging.Logger
}

// New creates a Processor with default settings.
func New() *Processor {
	return &Processor{Format: renderer.FormatYAML}
}

func (p *Processor) log() logging.Logger {
	return logging.OrNop(p.Logger)
}

// Process runs the pipeline over one or more decoded documents. Documents
// are processed in argument order, which is the order merge precedence is
// based on.
func (p *Processor) Process(docs ...document.Node) (*Result, error) {
	return p.run(docs, nil)
}

// ProcessDocuments runs the pipeline over loaded documents and records their
// sources and load time.
func (p *Processor) ProcessDocuments(docs ...*loader.Document) (*Result, error) {
	roots := make([]document.Node, len(docs))
	for i, d := range docs {
		roots[i] = d.Root
	}
	return p.run(roots, docs)
}

func (p *Processor) run(roots []document.Node, loaded []*loader.Document) (*Result, error) {
	if err := options.ValidateNonNegative("workers", p.Workers); err != nil {
		return nil, fmt.Errorf("processor: %w", err)
	}
	format, err := renderer.ParseFormat(string(p.Format))
	if err != nil {
		return nil, fmt.Errorf("processor: %w", err)
	}

	start := time.Now()
	log := p.log()
	result := &Result{Format: format}
	result.Stats.Documents = len(roots)
	for _, d := range loaded {
		result.Sources = append(result.Sources, d.Source)
		result.Stats.LoadTime += d.LoadTime
	}

	var (
		skeletons = make([]document.Node, 0, len(roots))
		frags     []fragment.Fragment
	)
	for i, root := range roots {
		s := splitter.New(
			splitter.WithWorkers(p.Workers),
			splitter.WithMethodsOnly(p.MethodsOnly),
			splitter.WithDocIndex(i),
			splitter.WithLogger(p.Logger),
		)
		split := s.SplitDocument(root)
		skeletons = append(skeletons, split.Skeleton)
		frags = append(frags, split.Fragments...)
		result.Warnings = append(result.Warnings, split.Warnings...)
		result.Stats.Routes += split.Routes
		result.Stats.Groups += split.Groups
	}
	result.Stats.SplitFragments = len(frags)

	m := merger.New(merger.WithWorkers(p.Workers), merger.WithLogger(p.Logger))
	merged := filterEndpoints(m.Merge(frags), p.Endpoints)
	fragment.Sort(merged)
	skeleton := m.MergeSkeletons(skeletons...)

	r := renderer.New(
		renderer.WithFormat(format),
		renderer.WithSourceMethodKeys(p.SourceMethodKeys),
	)
	skeletonText, err := r.RenderSkeleton(skeleton)
	if err != nil {
		return nil, fmt.Errorf("processor: %w", err)
	}
	result.Skeleton = skeletonText

	records, err := p.render(r, skeleton, merged)
	if err != nil {
		return nil, fmt.Errorf("processor: %w", err)
	}
	result.Records = records
	result.BaseURL = BaseURL(skeleton)
	result.Stats.PathFragments, result.Stats.OperationFragments = fragment.Counts(merged)
	result.Stats.ProcessTime = time.Since(start)

	log.Info("processed documents",
		"documents", result.Stats.Documents,
		"routes", result.Stats.Routes,
		"groups", result.Stats.Groups,
		"paths", result.Stats.PathFragments,
		"operations", result.Stats.OperationFragments,
		"warnings", len(result.Warnings),
		"elapsed", result.Stats.ProcessTime,
	)
	return result, nil
}

// render renders every fragment with bounded parallelism. Records keep the
// order of frags. All render failures are combined into one error.
func (p *Processor) render(r *renderer.Renderer, skeleton document.Node, frags []fragment.Fragment) ([]Record, error) {
	records := make([]Record, len(frags))
	errs := make([]error, len(frags))
	prune := pruner.New(p.Logger)

	var g errgroup.Group
	g.SetLimit(workerLimit(p.Workers))
	for i, f := range frags {
		g.Go(func() error {
			skel := skeleton
			if p.PruneComponents {
				skel = prune.Prune(skeleton, bodyOf(f))
			}
			text, err := r.Render(skel, f)
			if err != nil {
				errs[i] = err
				return nil
			}
			records[i] = newRecord(f, text)
			return nil
		})
	}
	_ = g.Wait()

	if err := multierr.Combine(errs...); err != nil {
		return nil, err
	}
	return records, nil
}

func bodyOf(f fragment.Fragment) document.Node {
	switch f := f.(type) {
	case *fragment.PathFragment:
		return f.Body()
	case *fragment.OperationFragment:
		return f.Body
	}
	return nil
}

// filterEndpoints keeps fragments whose path starts with one of prefixes.
func filterEndpoints(frags []fragment.Fragment, prefixes []string) []fragment.Fragment {
	if len(prefixes) == 0 {
		return frags
	}
	out := frags[:0:0]
	for _, f := range frags {
		for _, prefix := range prefixes {
			if strings.HasPrefix(f.Path(), prefix) {
				out = append(out, f)
				break
			}
		}
	}
	return out
}

// workerLimit converts a worker setting into an errgroup limit.
func workerLimit(n int) int {
	if n > 0 {
		return n
	}
	return -1
}
