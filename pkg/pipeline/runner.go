package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"

	"github.com/lookdevkit/shaderbridge/pkg/cache"
	"github.com/lookdevkit/shaderbridge/pkg/errors"
	"github.com/lookdevkit/shaderbridge/pkg/graph"
	"github.com/lookdevkit/shaderbridge/pkg/katana"
	"github.com/lookdevkit/shaderbridge/pkg/layout"
	"github.com/lookdevkit/shaderbridge/pkg/mapping"
	"github.com/lookdevkit/shaderbridge/pkg/mapping/rulesets"
	"github.com/lookdevkit/shaderbridge/pkg/observability"
	"github.com/lookdevkit/shaderbridge/pkg/scene"
)

// Runner encapsulates conversion execution with caching. Both CLI and API
// use it so caching logic lives in one place.
//
// The Runner is stateless except for the cache and logger. Multiple
// goroutines can safely share one Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner. A nil cache disables caching; a nil keyer
// selects the default key scheme.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Keyer: keyer, Logger: logger}
}

// cachedGraph is the cache payload for an extraction result. Warnings are
// part of the result and must survive a cache round trip.
type cachedGraph struct {
	Graph    json.RawMessage  `json:"graph"`
	Warnings []errors.Warning `json:"warnings,omitempty"`
}

// cachedDocument is the cache payload for a serialized document.
type cachedDocument struct {
	XML             []byte           `json:"xml"`
	Warnings        []errors.Warning `json:"warnings,omitempty"`
	TargetNodeCount int              `json:"target_node_count"`
}

// Execute runs the complete extract → map → serialize conversion with
// caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	snap, raw, err := loadSnapshot(opts)
	if err != nil {
		return nil, err
	}
	roots, err := resolveRoots(opts, snap)
	if err != nil {
		return nil, err
	}

	result := &Result{Roots: roots}

	extractStart := time.Now()
	g, warnings, graphHit, err := r.extractWithCacheInfo(ctx, snap, raw, roots, opts)
	if err != nil {
		return nil, err
	}
	result.Graph = g
	result.Warnings = warnings
	result.Stats.ExtractTime = time.Since(extractStart)
	result.Stats.NodeCount = g.NodeCount()
	result.Stats.EdgeCount = g.EdgeCount()
	result.CacheInfo.GraphHit = graphHit

	graphData, err := graph.MarshalGraph(g)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "hash graph")
	}
	result.GraphHash = cache.Hash(graphData)

	opts.Logger.Info("extracted network",
		"nodes", g.NodeCount(),
		"edges", g.EdgeCount(),
		"cached", graphHit,
		"duration", result.Stats.ExtractTime)

	rules, err := r.ResolveRules(opts, g)
	if err != nil {
		return nil, err
	}
	result.RuleSet = rules.Name

	convertStart := time.Now()
	docKey := r.Keyer.DocumentKey(result.GraphHash, cache.DocumentKeyOpts{
		RuleSet:   rules.Name,
		RulesHash: rules.Fingerprint,
		Policy:    opts.Policy,
		Roots:     roots,
	})
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, docKey); err == nil && hit {
			var cd cachedDocument
			if err := json.Unmarshal(data, &cd); err == nil {
				observability.Cache().OnCacheHit(ctx, "document")
				result.XML = cd.XML
				result.Warnings = append(result.Warnings, cd.Warnings...)
				result.Stats.TargetNodeCount = cd.TargetNodeCount
				result.Stats.ConvertTime = time.Since(convertStart)
				result.CacheInfo.DocumentHit = true
				opts.Logger.Info("document served from cache", "bytes", len(cd.XML))
				return result, nil
			}
		}
		observability.Cache().OnCacheMiss(ctx, "document")
	}

	xmlData, convWarnings, targetCount, err := r.convert(ctx, g, rules, opts)
	if err != nil {
		return nil, err
	}
	result.XML = xmlData
	result.Warnings = append(result.Warnings, convWarnings...)
	result.Stats.TargetNodeCount = targetCount
	result.Stats.ConvertTime = time.Since(convertStart)

	if data, err := json.Marshal(cachedDocument{
		XML:             xmlData,
		Warnings:        convWarnings,
		TargetNodeCount: targetCount,
	}); err == nil {
		if r.Cache.Set(ctx, docKey, data, cache.TTLDocument) == nil {
			observability.Cache().OnCacheSet(ctx, "document", len(data))
		}
	}

	opts.Logger.Info("serialized document",
		"nodes", targetCount,
		"bytes", len(xmlData),
		"warnings", len(result.Warnings),
		"duration", result.Stats.ConvertTime)

	return result, nil
}

// Extract runs extraction only, with caching.
func (r *Runner) Extract(ctx context.Context, opts Options) (*graph.Graph, []errors.Warning, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, nil, err
	}

	snap, raw, err := loadSnapshot(opts)
	if err != nil {
		return nil, nil, err
	}
	roots, err := resolveRoots(opts, snap)
	if err != nil {
		return nil, nil, err
	}
	g, warnings, _, err := r.extractWithCacheInfo(ctx, snap, raw, roots, opts)
	return g, warnings, err
}

// extractWithCacheInfo extracts the graph, consulting the cache keyed by
// snapshot content and roots.
func (r *Runner) extractWithCacheInfo(ctx context.Context, snap *scene.Snapshot, raw []byte, roots []string, opts Options) (*graph.Graph, []errors.Warning, bool, error) {
	key := r.Keyer.SnapshotKey(cache.Hash(raw), roots)

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			var cg cachedGraph
			if err := json.Unmarshal(data, &cg); err == nil {
				if g, err := graph.UnmarshalGraph(cg.Graph); err == nil {
					observability.Cache().OnCacheHit(ctx, "graph")
					return g, cg.Warnings, true, nil
				}
			}
		}
		observability.Cache().OnCacheMiss(ctx, "graph")
	}

	hooks := observability.Conversion()
	hooks.OnExtractStart(ctx, roots)
	start := time.Now()
	g, warnings, err := graph.Extract(snap, roots...)
	if err != nil {
		hooks.OnExtractComplete(ctx, 0, 0, time.Since(start), err)
		return nil, nil, false, err
	}
	hooks.OnExtractComplete(ctx, g.NodeCount(), g.EdgeCount(), time.Since(start), nil)

	if graphData, err := graph.MarshalGraph(g); err == nil {
		if data, err := json.Marshal(cachedGraph{Graph: graphData, Warnings: warnings}); err == nil {
			if r.Cache.Set(ctx, key, data, cache.TTLGraph) == nil {
				observability.Cache().OnCacheSet(ctx, "graph", len(data))
			}
		}
	}

	return g, warnings, false, nil
}

// ResolveRules picks the rule set: an explicit file wins, then a named
// registered set, then auto-detection from the extracted node types.
func (r *Runner) ResolveRules(opts Options, g *graph.Graph) (*mapping.RuleSet, error) {
	if opts.RulesFile != "" {
		return mapping.LoadRuleSetFile(opts.RulesFile)
	}
	name := opts.RuleSet
	if name == "" {
		types := make([]string, 0, g.NodeCount())
		for _, n := range g.Nodes() {
			types = append(types, n.Type)
		}
		name = rulesets.Detect(types)
		opts.Logger.Debug("auto-detected rule set", "ruleset", name)
	}
	rules, ok := rulesets.Find(name)
	if !ok {
		return nil, errors.New(errors.ErrCodeNotFound,
			"unknown rule set %q (registered: %v)", name, rulesets.Names())
	}
	return rules, nil
}

// convert maps the graph, assigns layout and serializes the document.
func (r *Runner) convert(ctx context.Context, g *graph.Graph, rules *mapping.RuleSet, opts Options) ([]byte, []errors.Warning, int, error) {
	hooks := observability.Conversion()

	hooks.OnMapStart(ctx, rules.Name, g.NodeCount())
	mapStart := time.Now()
	engine := mapping.NewEngine(rules, opts.policy())
	tg, warnings, err := engine.Map(g)
	hooks.OnMapComplete(ctx, rules.Name, len(warnings), time.Since(mapStart), err)
	if err != nil {
		return nil, nil, 0, err
	}

	hooks.OnSerializeStart(ctx, tg.NodeCount())
	serStart := time.Now()
	pos := layout.Assign(tg)
	doc, err := katana.Serialize(tg, pos)
	if err != nil {
		hooks.OnSerializeComplete(ctx, 0, time.Since(serStart), err)
		return nil, nil, 0, err
	}
	data, err := doc.Bytes()
	hooks.OnSerializeComplete(ctx, len(data), time.Since(serStart), err)
	if err != nil {
		return nil, nil, 0, err
	}

	return data, warnings, tg.NodeCount(), nil
}

// MapAndSerialize converts an already extracted graph, bypassing snapshot
// loading and caching. Used by callers that build graphs directly.
func (r *Runner) MapAndSerialize(ctx context.Context, g *graph.Graph, opts Options) ([]byte, []errors.Warning, error) {
	if opts.Policy == "" {
		opts.Policy = PolicyPassThrough
	}
	if _, ok := mapping.ParsePolicy(opts.Policy); !ok {
		return nil, nil, errors.New(errors.ErrCodeInvalidInput,
			"invalid policy %q (must be passthrough or drop)", opts.Policy)
	}
	r.applyLogger(&opts)
	rules, err := r.ResolveRules(opts, g)
	if err != nil {
		return nil, nil, err
	}
	data, warnings, _, err := r.convert(ctx, g, rules, opts)
	return data, warnings, err
}

// Convert runs a single conversion with a throwaway uncached runner. Long
// lived callers should hold a Runner instead.
func Convert(ctx context.Context, opts Options) (*Result, error) {
	r := NewRunner(nil, nil, opts.Logger)
	defer r.Close()
	return r.Execute(ctx, opts)
}

// Close releases resources held by the runner, primarily the cache.
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
