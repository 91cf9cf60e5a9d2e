package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/lookdevkit/shaderbridge/pkg/pipeline"
	"github.com/lookdevkit/shaderbridge/pkg/scene"
)

// convertOpts holds the command-line flags for the convert command.
type convertOpts struct {
	roots     []string // conversion entry points, empty = snapshot selection
	ruleSet   string   // named rule set, empty = auto-detect
	rulesFile string   // TOML rule file overriding the named set
	policy    string   // unmapped-node policy
	refresh   bool     // bypass cached results
	noCache   bool     // disable caching entirely
	output    string   // output file path, empty or "-" for stdout
}

// newConvertCmd creates the convert command.
func newConvertCmd() *cobra.Command {
	var opts convertOpts

	cmd := &cobra.Command{
		Use:   "convert <snapshot.json>",
		Short: "Convert a scene snapshot to a Katana document",
		Long: `Convert a scene snapshot to a Katana node-graph document.

The snapshot is a JSON dump of the shading network produced by the export
script inside the DCC. Conversion starts at the given roots (typically
shading groups); without --root the snapshot's recorded selection is used,
and if nothing was selected an interactive picker lists the shading groups
found in the scene.

Examples:
  shaderbridge convert scene.json                       # selection or picker
  shaderbridge convert scene.json --root blinn1SG       # explicit root
  shaderbridge convert scene.json --ruleset prman -o -  # force prman, stdout
  shaderbridge convert scene.json --rules-file site.toml`,
		Args: cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return runConvert(c, args[0], opts)
		},
	}

	cmd.Flags().StringSliceVarP(&opts.roots, "root", "r", nil, "conversion root node(s)")
	cmd.Flags().StringVar(&opts.ruleSet, "ruleset", "", "rule set name (default: auto-detect)")
	cmd.Flags().StringVar(&opts.rulesFile, "rules-file", "", "TOML rule file (overrides --ruleset)")
	cmd.Flags().StringVar(&opts.policy, "policy", pipeline.PolicyPassThrough, "unmapped node policy: passthrough or drop")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "bypass cached results")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (stdout if empty or \"-\")")

	return cmd
}

func runConvert(c *cobra.Command, snapshotPath string, opts convertOpts) error {
	ctx := c.Context()
	logger := loggerFromContext(ctx)

	roots, err := pickRoots(snapshotPath, opts.roots)
	if err != nil {
		return err
	}

	runner := newRunner(ctx, opts.noCache)
	defer runner.Close()

	prog := newProgress(logger)
	result, err := runner.Execute(ctx, pipeline.Options{
		SnapshotPath: snapshotPath,
		Roots:        roots,
		RuleSet:      opts.ruleSet,
		RulesFile:    opts.rulesFile,
		Policy:       opts.policy,
		Refresh:      opts.refresh,
		Logger:       logger,
	})
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Converted %d nodes with rule set %s",
		result.Stats.NodeCount, result.RuleSet))

	for _, w := range result.Warnings {
		printWarning("%s", w.String())
	}

	if err := writeOutput(result.XML, opts.output); err != nil {
		return err
	}

	printSuccess("Document ready")
	printStats(result.Stats.NodeCount, result.Stats.TargetNodeCount,
		len(result.Warnings), result.CacheInfo.Hit())
	if opts.output != "" && opts.output != "-" {
		printFile(opts.output)
	}

	return nil
}

// pickRoots resolves conversion roots before the pipeline runs, so the
// interactive picker can offer shading groups when nothing was selected at
// export time.
func pickRoots(snapshotPath string, explicit []string) ([]string, error) {
	if len(explicit) > 0 {
		return explicit, nil
	}
	snap, err := scene.ReadSnapshotFile(snapshotPath)
	if err != nil {
		return nil, err
	}
	if sel := snap.SelectionRoots(); len(sel) > 0 {
		return nil, nil // pipeline falls back to the selection itself
	}

	groups := snap.NodesOfType("shadingEngine")
	switch len(groups) {
	case 0:
		return nil, nil // let the pipeline report NO_ROOT
	case 1:
		return groups, nil
	}
	return selectRoots(groups)
}

// nopCloser makes os.Stdout compatible with io.WriteCloser.
type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

func openOutput(path string) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(path)
}

func writeOutput(data []byte, path string) error {
	out, err := openOutput(path)
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = out.Write(data)
	return err
}
