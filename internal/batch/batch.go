// Package batch runs the conversion engine over a map of entries.
//
// A Converter repairs each entry, routes it by Mode to the deterministic
// rewriter or the generative fallback, and always returns one output per
// input key. Failures stay inside their entry: a failing or panicking entry
// keeps its original text and the rest of the batch converts normally.
package batch

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/chazuruo/tmplconv/internal/ai"
	"github.com/chazuruo/tmplconv/internal/catalog"
	"github.com/chazuruo/tmplconv/internal/convert"
	converrors "github.com/chazuruo/tmplconv/internal/errors"
	"github.com/chazuruo/tmplconv/internal/logging"
)

// Mode selects the route entries take.
type Mode string

const (
	// PatternOnly always uses the deterministic rewriter.
	PatternOnly Mode = "pattern"
	// Generative always tries the generator first.
	Generative Mode = "generative"
	// SmartHybrid asks the classifier per entry.
	SmartHybrid Mode = "smart"
)

// Modes lists the valid modes.
var Modes = []Mode{PatternOnly, Generative, SmartHybrid}

// ParseMode parses a mode name, case-insensitively.
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	for _, valid := range Modes {
		if m == valid {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: mode %q (want pattern, generative or smart)", converrors.ErrInvalid, s)
}

// Generator converts a complex text through a generative service.
// *ai.Converter implements it.
type Generator interface {
	Name() string
	Convert(ctx context.Context, text string) (string, error)
}

var _ Generator = (*ai.Converter)(nil)

// Options configures a Converter.
type Options struct {
	// Mode is the routing mode. Empty means SmartHybrid.
	Mode Mode
	// Catalog is the placeholder table. Nil means catalog.Default().
	Catalog *catalog.Catalog
	// Generator is the generative fallback. Nil when no credential is configured.
	Generator Generator
	// Workers bounds concurrent entries. Zero means GOMAXPROCS.
	Workers int
	// Cache enables the exact-text memo.
	Cache bool
	// CacheSize bounds the memo. Zero means unbounded.
	CacheSize int
	// Logger receives batch and entry logs. Nil discards them.
	Logger *zap.Logger
}

// Converter converts batches of entries. It is safe for concurrent use; its
// memo lives as long as the Converter.
type Converter struct {
	mode       Mode
	generator  Generator
	workers    int
	rewriter   *convert.Rewriter
	classifier *convert.Classifier
	memo       *memo
	logger     *zap.Logger

	warnNoGenerator sync.Once
}

// New builds a Converter from opts.
func New(opts Options) *Converter {
	if opts.Mode == "" {
		opts.Mode = SmartHybrid
	}
	if opts.Catalog == nil {
		opts.Catalog = catalog.Default()
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.Logger == nil {
		opts.Logger = logging.Nop()
	}

	c := &Converter{
		mode:       opts.Mode,
		generator:  opts.Generator,
		workers:    opts.Workers,
		rewriter:   convert.NewRewriter(opts.Catalog),
		classifier: convert.NewClassifier(opts.Catalog),
		logger:     opts.Logger,
	}
	if opts.Cache {
		c.memo = newMemo(opts.CacheSize)
	}
	return c
}

// Mode returns the converter's routing mode.
func (c *Converter) Mode() Mode {
	return c.mode
}

// Convert converts every entry and returns a map with the same keys.
// The only error is ErrMissingCredential, returned before any entry runs when
// the mode requires a generator and none is configured.
func (c *Converter) Convert(ctx context.Context, entries map[string]string) (map[string]string, error) {
	rep, err := c.ConvertWithReport(ctx, entries)
	if err != nil {
		return nil, err
	}
	return rep.Results, nil
}

// ConvertWithReport is Convert with a per-entry report.
func (c *Converter) ConvertWithReport(ctx context.Context, entries map[string]string) (*Report, error) {
	if c.mode == Generative && c.generator == nil {
		return nil, fmt.Errorf("%w: mode %q needs a generative provider with an API key", converrors.ErrMissingCredential, c.mode)
	}

	id := uuid.New().String()
	log := c.logger.With(zap.String("batch", id), zap.String("mode", string(c.mode)))
	start := time.Now()

	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	log.Info("batch started", zap.Int("entries", len(keys)), zap.Int("workers", c.workers))

	outcomes := make([]Outcome, len(keys))
	var g errgroup.Group
	g.SetLimit(c.workers)
	for i, key := range keys {
		i, key := i, key
		g.Go(func() error {
			outcomes[i] = c.convertEntry(ctx, log, key, entries[key])
			return nil
		})
	}
	_ = g.Wait()

	rep := newReport(id, c.mode, outcomes, time.Since(start))
	counts := rep.Counts()
	log.Info("batch finished",
		zap.Int("entries", len(outcomes)),
		zap.Int("converted", counts[StatusConverted]),
		zap.Int("unchanged", counts[StatusUnchanged]),
		zap.Int("fallback", counts[StatusFallback]),
		zap.Int("failed", counts[StatusFailed]),
		zap.Duration("elapsed", rep.Elapsed),
	)
	return rep, nil
}

// convertEntry converts one entry. It never panics and never drops the entry.
func (c *Converter) convertEntry(ctx context.Context, log *zap.Logger, key, text string) (out Outcome) {
	out = Outcome{Key: key, Source: text, Output: text, Route: RoutePassthrough, Status: StatusUnchanged}

	defer func() {
		if r := recover(); r != nil {
			out.Output = text
			out.Status = StatusFailed
			out.Err = &converrors.EntryError{Op: "convert", Key: key, Err: fmt.Errorf("panic: %v", r)}
			log.Error("entry failed, keeping source text", zap.String("key", key), zap.Any("panic", r))
		}
	}()

	if strings.TrimSpace(text) == "" {
		return out
	}

	conv := c.memo.do(string(c.mode)+"\x00"+text, func() conversion {
		return c.compute(ctx, text)
	})

	out.Output = conv.output
	out.Route = conv.route
	out.Status = conv.status
	out.Reasons = conv.reasons
	out.Unmapped = conv.unmapped

	if len(conv.unmapped) > 0 {
		out.Err = &converrors.EntryError{
			Op:  "rewrite",
			Key: key,
			Err: fmt.Errorf("%w: %s", converrors.ErrUnmappedPlaceholder, strings.Join(conv.unmapped, ", ")),
		}
		log.Warn("unmapped placeholder", zap.String("key", key), zap.Strings("placeholders", conv.unmapped))
	}
	if conv.err != nil {
		out.Err = &converrors.EntryError{Op: "generate", Key: key, Err: conv.err}
		log.Warn("generative conversion failed, using pattern rewrite",
			zap.String("key", key), zap.String("error", ai.Redact(conv.err.Error())))
	}
	log.Debug("entry converted", zap.String("key", key), zap.String("route", string(out.Route)), zap.String("status", string(out.Status)))

	return out
}

// conversion is the key-independent result for one text.
type conversion struct {
	output   string
	route    Route
	status   Status
	reasons  []convert.Reason
	unmapped []string
	err      error
}

func (c *Converter) compute(ctx context.Context, text string) conversion {
	repaired := c.rewriter.Repair(text)

	switch c.mode {
	case Generative:
		return c.generate(ctx, repaired, nil)
	case SmartHybrid:
		reasons := c.classifier.Classify(repaired)
		if len(reasons) == 0 {
			return c.rewrite(repaired)
		}
		if c.generator == nil {
			c.warnNoGenerator.Do(func() {
				c.logger.Warn("no generative provider configured, complex entries use pattern rewrite")
			})
			conv := c.rewrite(repaired)
			conv.reasons = reasons
			return conv
		}
		return c.generate(ctx, repaired, reasons)
	default:
		return c.rewrite(repaired)
	}
}

func (c *Converter) rewrite(text string) conversion {
	res := c.rewriter.RewriteDetail(text)
	conv := conversion{output: res.Expression, route: RoutePattern, status: StatusUnchanged, unmapped: res.Unmapped}
	if res.Converted {
		conv.status = StatusConverted
	}
	return conv
}

func (c *Converter) generate(ctx context.Context, text string, reasons []convert.Reason) conversion {
	expr, err := c.generator.Convert(ctx, text)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(err, ctxErr) {
			err = fmt.Errorf("%w (%w)", err, ctxErr)
		}
		conv := c.rewrite(text)
		conv.route = RouteGenerative
		conv.status = StatusFallback
		conv.reasons = reasons
		conv.err = err
		return conv
	}
	return conversion{output: expr, route: RouteGenerative, status: StatusConverted, reasons: reasons}
}
