package pipeline

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/layermap/pkg/cache"
	"github.com/matzehuels/layermap/pkg/document"
	"github.com/matzehuels/layermap/pkg/errors"
	"github.com/matzehuels/layermap/pkg/layer"
	"github.com/matzehuels/layermap/pkg/observability"
	"github.com/matzehuels/layermap/pkg/reconstruct"
	"github.com/matzehuels/layermap/pkg/remap"
	"github.com/matzehuels/layermap/pkg/resolve"
	"github.com/matzehuels/layermap/pkg/strategy"
)

// Cache key types reported to the cache hooks.
const (
	keyTypeDocument = "document"
	keyTypeRemap    = "remap"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use it to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute loads both documents and runs every mapping of opts.
func (r *Runner) Execute(ctx context.Context, sourcePath, targetPath string, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	r.applyLogger(&opts)

	loadStart := time.Now()
	src, srcHit, err := r.LoadWithCacheInfo(ctx, sourcePath, opts)
	if err != nil {
		return nil, fmt.Errorf("load source: %w", err)
	}
	tgt, tgtHit, err := r.LoadWithCacheInfo(ctx, targetPath, opts)
	if err != nil {
		return nil, fmt.Errorf("load target: %w", err)
	}
	loadTime := time.Since(loadStart)

	result, err := r.Run(ctx, src, tgt, opts)
	if err != nil {
		return nil, err
	}
	result.Stats.LoadTime = loadTime
	result.CacheInfo.SourceHit = srcHit
	result.CacheInfo.TargetHit = tgtHit
	return result, nil
}

// Run remaps every mapping from src into tgt and reconstructs the result.
// Per-mapping failures are collected in Result.Failures; only invalid
// options or a cancelled context fail the run.
func (r *Runner) Run(ctx context.Context, src, tgt *Document, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	r.applyLogger(&opts)

	result := &Result{
		Source:   src,
		Target:   tgt,
		Payloads: []remap.Payload{},
	}
	result.Stats.Mappings = len(opts.Mappings)

	// Stage 1+2: Resolve and remap
	remapStart := time.Now()
	payloads, hits, failures := r.remapAll(ctx, src, tgt, opts)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for i, p := range payloads {
		if p != nil {
			result.Payloads = append(result.Payloads, *p)
			result.Stats.Layers += p.LayerCount()
		} else if failures[i] != nil {
			result.Failures = append(result.Failures, *failures[i])
		}
	}
	result.Stats.RemapTime = time.Since(remapStart)
	result.CacheInfo.RemapHits = hits

	r.Logger.Info("remapped containers",
		"mappings", len(opts.Mappings),
		"failed", len(result.Failures),
		"layers", result.Stats.Layers,
		"cached", hits,
		"duration", result.Stats.RemapTime)

	// Stage 3: Reconstruct
	reconstructStart := time.Now()
	result.Tree, result.Reconstruct = r.Reconstruct(ctx, tgt, result.Payloads, src.Sources())
	result.Stats.ReconstructTime = time.Since(reconstructStart)

	return result, nil
}

// =============================================================================
// Load
// =============================================================================

// LoadWithCacheInfo reads and decodes the document at path, choosing the
// codec from the file extension. Decoded PSD trees are cached by content
// hash; JSON documents decode faster than a cache read and are not cached.
func (r *Runner) LoadWithCacheInfo(ctx context.Context, path string, opts Options) (*Document, bool, error) {
	opts.SetDefaults()
	format, err := FormatOf(path)
	if err != nil {
		return nil, false, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, false, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
	}
	if err != nil {
		return nil, false, fmt.Errorf("read %s: %w", path, err)
	}
	doc, hit, err := r.parse(ctx, data, format, path, opts)
	if err != nil {
		return nil, false, fmt.Errorf("parse %s: %w", path, err)
	}
	doc.Path = path
	return doc, hit, nil
}

// Load is a convenience wrapper that calls LoadWithCacheInfo and discards the cache hit info.
func (r *Runner) Load(ctx context.Context, path string, opts Options) (*Document, error) {
	doc, _, err := r.LoadWithCacheInfo(ctx, path, opts)
	return doc, err
}

// ParseWithCacheInfo decodes document bytes in the given format.
func (r *Runner) ParseWithCacheInfo(ctx context.Context, data []byte, format string, opts Options) (*Document, bool, error) {
	opts.SetDefaults()
	return r.parse(ctx, data, format, "", opts)
}

// Parse is a convenience wrapper that calls ParseWithCacheInfo and discards the cache hit info.
func (r *Runner) Parse(ctx context.Context, data []byte, format string, opts Options) (*Document, error) {
	doc, _, err := r.ParseWithCacheInfo(ctx, data, format, opts)
	return doc, err
}

func (r *Runner) parse(ctx context.Context, data []byte, format, path string, opts Options) (doc *Document, hit bool, err error) {
	codec, err := CodecFor(format, opts.LoadImages)
	if err != nil {
		return nil, false, err
	}
	hooks := observability.Pipeline()
	hooks.OnLoadStart(ctx, codec.Name(), path)
	start := time.Now()
	defer func() {
		n := 0
		if doc != nil {
			n = layer.Count(doc.Layers)
		}
		hooks.OnLoadComplete(ctx, codec.Name(), path, n, time.Since(start), err)
	}()

	hash := cache.Hash(data)
	variant := codec.Name()
	if opts.LoadImages {
		variant += "+images"
	}
	cacheKey := r.Keyer.DocumentKey(hash, variant)
	cacheable := format != FormatJSON

	if cacheable && !opts.Refresh {
		var t document.Tree
		if ok, _ := cache.GetJSON(ctx, r.Cache, cacheKey, &t); ok {
			observability.Cache().OnCacheHit(ctx, keyTypeDocument)
			return NewDocument(&t, codec.Name(), hash), true, nil
		}
		observability.Cache().OnCacheMiss(ctx, keyTypeDocument)
	}

	t, err := codec.Parse(data)
	if err != nil {
		return nil, false, err
	}
	doc = NewDocument(t, codec.Name(), hash)

	if cacheable {
		if out, err := document.MarshalTree(t); err == nil {
			if err := r.Cache.Set(ctx, cacheKey, out, cache.TTLDocument); err == nil {
				observability.Cache().OnCacheSet(ctx, keyTypeDocument, len(out))
			}
		}
	}

	r.Logger.Debug("loaded document",
		"codec", codec.Name(),
		"layers", layer.Count(doc.Layers),
		"containers", len(doc.Metadata.Containers))
	return doc, false, nil
}

// =============================================================================
// Resolve
// =============================================================================

// Resolve matches a source container of doc to its design group.
// An unknown container name is CONTAINER_NOT_FOUND; an unresolved design
// group is a context with status "unresolved", not an error.
func (r *Runner) Resolve(doc *Document, name string) (resolve.MappingContext, error) {
	c, err := doc.Container(name)
	if err != nil {
		return resolve.MappingContext{}, err
	}
	mc := resolve.ResolveContainer(c, doc.Metadata.Canvas, doc.Layers)
	if !mc.Ready() {
		r.Logger.Warn("container did not resolve",
			"container", c.Name,
			"resolution", mc.Resolution,
			"reason", mc.Message)
	} else if mc.Resolution == resolve.StatusCaseMismatch {
		r.Logger.Debug("container resolved with case mismatch", "container", c.Name)
	}
	return mc, nil
}

// =============================================================================
// Remap
// =============================================================================

// prepared is a mapping that resolved far enough to be keyed.
type prepared struct {
	job remap.Job
	key string
}

// RemapWithCacheInfo runs one mapping.
func (r *Runner) RemapWithCacheInfo(ctx context.Context, src, tgt *Document, m Mapping, opts Options) (*remap.Payload, bool, error) {
	opts.SetDefaults()
	r.applyLogger(&opts)

	hooks := observability.Pipeline()
	hooks.OnRemapStart(ctx, m.Source, m.Target)
	start := time.Now()

	p, hit, err := r.remapOne(ctx, src, tgt, m, opts)
	n := 0
	if p != nil {
		n = p.LayerCount()
	}
	hooks.OnRemapComplete(ctx, m.Source, m.Target, n, time.Since(start), err)
	return p, hit, err
}

// Remap is a convenience wrapper that calls RemapWithCacheInfo and discards the cache hit info.
func (r *Runner) Remap(ctx context.Context, src, tgt *Document, m Mapping, opts Options) (*remap.Payload, error) {
	p, _, err := r.RemapWithCacheInfo(ctx, src, tgt, m, opts)
	return p, err
}

func (r *Runner) remapOne(ctx context.Context, src, tgt *Document, m Mapping, opts Options) (*remap.Payload, bool, error) {
	prep, err := r.prepare(ctx, src, tgt, m, opts)
	if err != nil {
		return nil, false, err
	}
	if p, ok := r.cached(ctx, prep.key, opts); ok {
		return r.stamp(p, src), true, nil
	}
	p, err := remap.RemapContext(prep.job.Context, prep.job.Target, prep.job.Strategy)
	if err != nil {
		return nil, false, err
	}
	r.store(ctx, prep.key, p)
	return r.stamp(p, src), false, nil
}

// remapAll resolves every mapping, serves what it can from the cache and
// runs the rest as one batch. Slices are indexed by mapping.
func (r *Runner) remapAll(ctx context.Context, src, tgt *Document, opts Options) ([]*remap.Payload, int, []*Failure) {
	n := len(opts.Mappings)
	payloads := make([]*remap.Payload, n)
	failures := make([]*Failure, n)
	starts := make([]time.Time, n)
	hooks := observability.Pipeline()

	var (
		jobs   []remap.Job
		keys   []string
		jobIdx []int
		hits   int
	)
	for i, m := range opts.Mappings {
		starts[i] = time.Now()
		hooks.OnRemapStart(ctx, m.Source, m.Target)

		prep, err := r.prepare(ctx, src, tgt, m, opts)
		if err != nil {
			failures[i] = newFailure(m, err)
			hooks.OnRemapComplete(ctx, m.Source, m.Target, 0, time.Since(starts[i]), err)
			continue
		}
		if p, ok := r.cached(ctx, prep.key, opts); ok {
			payloads[i] = r.stamp(p, src)
			hits++
			hooks.OnRemapComplete(ctx, m.Source, m.Target, p.LayerCount(), time.Since(starts[i]), nil)
			continue
		}
		jobs = append(jobs, prep.job)
		keys = append(keys, prep.key)
		jobIdx = append(jobIdx, i)
	}

	for j, res := range remap.Batch(ctx, jobs, opts.Concurrency) {
		i := jobIdx[j]
		m := opts.Mappings[i]
		if res.Err != nil {
			failures[i] = newFailure(m, res.Err)
			r.Logger.Warn("remap failed", "mapping", m.String(), "error", res.Err)
			hooks.OnRemapComplete(ctx, m.Source, m.Target, 0, time.Since(starts[i]), res.Err)
			continue
		}
		r.store(ctx, keys[j], res.Payload)
		payloads[i] = r.stamp(res.Payload, src)
		hooks.OnRemapComplete(ctx, m.Source, m.Target, res.Payload.LayerCount(), time.Since(starts[i]), nil)
	}
	return payloads, hits, failures
}

// prepare looks up both containers, resolves the source design group and
// picks the strategy. The cache key covers the source content, both
// rectangles and the strategy, so any change to them is a miss.
func (r *Runner) prepare(ctx context.Context, src, tgt *Document, m Mapping, opts Options) (prepared, error) {
	from, err := src.Container(m.Source)
	if err != nil {
		return prepared{}, err
	}
	to, err := tgt.Container(m.Target)
	if err != nil {
		return prepared{}, err
	}
	mc, err := r.Resolve(src, m.Source)
	if err != nil {
		return prepared{}, err
	}
	if !mc.Ready() {
		return prepared{}, errors.New(errors.ErrCodeContainerNotFound,
			"cannot remap %q: %s", from.Name, mc.Message)
	}

	s := opts.Strategy
	if s == nil && opts.Provider != nil && mc.Status != resolve.ContextEmpty {
		req := strategy.NewRequest(from.Name, to.Name, from.Bounds, to.Bounds, mc.Layers)
		s = strategy.Fetch(ctx, opts.Provider, req, r.Logger)
	}
	if s != nil {
		r.Logger.Debug("using strategy", "mapping", m.String(), "strategy", strategy.Describe(s))
	}

	key := r.Keyer.RemapKey(src.Hash, cache.RemapKeyOpts{
		SourceContainer: from.Name,
		TargetContainer: to.Name,
		SourceRect:      rectKey(from.Bounds),
		TargetRect:      rectKey(to.Bounds),
		StrategyHash:    strategy.Hash(s),
	})
	return prepared{
		job: remap.Job{
			Context:  mc,
			Target:   to,
			Strategy: s,
			SourceID: src.Tree.ID,
		},
		key: key,
	}, nil
}

func (r *Runner) cached(ctx context.Context, key string, opts Options) (remap.Payload, bool) {
	if opts.Refresh {
		return remap.Payload{}, false
	}
	var p remap.Payload
	if ok, _ := cache.GetJSON(ctx, r.Cache, key, &p); ok {
		observability.Cache().OnCacheHit(ctx, keyTypeRemap)
		return p, true
	}
	observability.Cache().OnCacheMiss(ctx, keyTypeRemap)
	return remap.Payload{}, false
}

func (r *Runner) store(ctx context.Context, key string, p remap.Payload) {
	if err := cache.SetJSON(ctx, r.Cache, key, p, cache.TTLRemap); err != nil {
		r.Logger.Debug("cache write failed", "key", key, "error", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, keyTypeRemap, p.LayerCount())
}

// stamp ties a payload to the loaded source document. Cached payloads are
// shared between documents with equal content, so identity is set on use.
func (r *Runner) stamp(p remap.Payload, src *Document) *remap.Payload {
	p.SourceID = src.Tree.ID
	p.SourceStructure = src.Structure
	if p.StrategyRejected != "" {
		r.Logger.Warn("strategy not fully applied",
			"source", p.SourceContainer, "reason", p.StrategyRejected)
	}
	return &p
}

// =============================================================================
// Reconstruct
// =============================================================================

// Reconstruct rebuilds payloads into a document shaped like target.
func (r *Runner) Reconstruct(ctx context.Context, target *Document, payloads []remap.Payload, sources map[string]*document.Tree) (*document.Tree, reconstruct.Stats) {
	start := time.Now()
	var tree *document.Tree
	if target != nil {
		tree = target.Tree
	}
	out, stats := reconstruct.Build(tree, payloads, sources, r.Logger)
	observability.Pipeline().OnReconstructComplete(ctx, stats.Rebuilt, stats.Skipped, time.Since(start))

	r.Logger.Info("reconstructed document",
		"rebuilt", stats.Rebuilt,
		"skipped", stats.Skipped,
		"stale", stats.Stale)
	return out, stats
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

func newFailure(m Mapping, err error) *Failure {
	return &Failure{
		Mapping: m,
		Code:    errors.GetCode(err),
		Message: errors.UserMessage(err),
		Err:     err,
	}
}

func rectKey(r layer.Rect) [4]float64 {
	return [4]float64{r.X, r.Y, r.W, r.H}
}
