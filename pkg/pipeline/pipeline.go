// Package pipeline runs the complete conversion: extract the shading
// network from a scene snapshot, map it to the target renderer vocabulary,
// lay it out and serialize the interchange document.
//
// CLI and API share this package so both entry points behave identically,
// including caching. Create a [Runner] and execute:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    SnapshotPath: "scene.json",
//	    Roots:        []string{"blinn1SG"},
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.Stdout.Write(result.XML)
//
// Stages can also run individually; see [Runner.Extract] and
// [Runner.MapAndSerialize].
package pipeline

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/lookdevkit/shaderbridge/pkg/errors"
	"github.com/lookdevkit/shaderbridge/pkg/graph"
	"github.com/lookdevkit/shaderbridge/pkg/mapping"
	"github.com/lookdevkit/shaderbridge/pkg/scene"
)

// PolicyPassThrough and PolicyDrop name the unmapped-node policies in
// configuration surfaces (flags, API requests).
const (
	PolicyPassThrough = "passthrough"
	PolicyDrop        = "drop"
)

// Options configures a conversion. The struct serializes to JSON so API
// requests can carry it directly.
type Options struct {
	// SnapshotPath names a scene snapshot file on disk. Mutually
	// exclusive with Snapshot.
	SnapshotPath string `json:"snapshot_path,omitempty"`

	// Snapshot is an inline scene snapshot, as produced by the export
	// script. Used by the API where no file exists.
	Snapshot json.RawMessage `json:"snapshot,omitempty"`

	// Roots are the conversion entry points. When empty, the snapshot's
	// recorded selection is used.
	Roots []string `json:"roots,omitempty"`

	// RuleSet names a registered rule set ("arnold", "prman"). Empty
	// means auto-detect from the node types in the extracted graph.
	RuleSet string `json:"ruleset,omitempty"`

	// RulesFile points at a TOML rule file loaded instead of a
	// registered set. Takes precedence over RuleSet.
	RulesFile string `json:"rules_file,omitempty"`

	// Policy selects unmapped-node handling: "passthrough" (default)
	// or "drop".
	Policy string `json:"policy,omitempty"`

	// Refresh bypasses cached results and overwrites them.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options, never serialized.
	Logger *log.Logger `json:"-"`

	validated bool
}

// ValidateAndSetDefaults checks required fields and applies defaults.
// Idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.SnapshotPath == "" && len(o.Snapshot) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "snapshot_path or snapshot is required")
	}
	if o.SnapshotPath != "" && len(o.Snapshot) != 0 {
		return errors.New(errors.ErrCodeInvalidInput, "snapshot_path and snapshot are mutually exclusive")
	}
	if o.Policy == "" {
		o.Policy = PolicyPassThrough
	}
	if _, ok := mapping.ParsePolicy(o.Policy); !ok {
		return errors.New(errors.ErrCodeInvalidInput,
			"invalid policy %q (must be passthrough or drop)", o.Policy)
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

func (o *Options) policy() mapping.Policy {
	p, _ := mapping.ParsePolicy(o.Policy)
	return p
}

// Result contains the outputs of one conversion.
type Result struct {
	// XML is the serialized interchange document.
	XML []byte

	// Graph is the extracted source network.
	Graph *graph.Graph

	// GraphHash is the content hash of the extracted graph.
	GraphHash string

	// RuleSet is the name of the rule set that was applied, after
	// auto-detection.
	RuleSet string

	// Roots are the entry points actually used, after selection fallback.
	Roots []string

	// Warnings collects the non-fatal conditions from all stages.
	Warnings []errors.Warning

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains conversion statistics.
type Stats struct {
	NodeCount       int
	EdgeCount       int
	TargetNodeCount int
	ExtractTime     time.Duration
	ConvertTime     time.Duration
}

// CacheInfo tracks cache hits per stage.
type CacheInfo struct {
	GraphHit    bool // extraction result came from cache
	DocumentHit bool // serialized document came from cache
}

// Hit reports whether the final document was served from cache.
func (c CacheInfo) Hit() bool { return c.DocumentHit }

// loadSnapshot reads the snapshot from either source and returns the raw
// bytes alongside, for content hashing.
func loadSnapshot(opts Options) (*scene.Snapshot, []byte, error) {
	data := []byte(opts.Snapshot)
	if len(data) == 0 {
		var err error
		data, err = os.ReadFile(opts.SnapshotPath)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", opts.SnapshotPath)
			}
			return nil, nil, errors.Wrap(errors.ErrCodeInvalidSnapshot, err, "read %s", opts.SnapshotPath)
		}
	}
	snap, err := scene.ReadSnapshot(data)
	if err != nil {
		return nil, nil, err
	}
	return snap, data, nil
}

// resolveRoots picks the conversion entry points: explicit roots win,
// then the snapshot's recorded selection.
func resolveRoots(opts Options, snap *scene.Snapshot) ([]string, error) {
	if len(opts.Roots) > 0 {
		return opts.Roots, nil
	}
	if sel := snap.SelectionRoots(); len(sel) > 0 {
		return sel, nil
	}
	return nil, errors.New(errors.ErrCodeNoRoot,
		"no roots given and the snapshot records no selection")
}
