package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lookdevkit/shaderbridge/pkg/errors"
	"github.com/lookdevkit/shaderbridge/pkg/mapping"
	"github.com/lookdevkit/shaderbridge/pkg/pipeline"
	"github.com/lookdevkit/shaderbridge/pkg/preview"
)

// previewOpts holds the command-line flags for the preview command.
type previewOpts struct {
	roots     []string
	ruleSet   string
	rulesFile string
	policy    string
	source    bool   // render the extracted graph instead of the mapped one
	detailed  bool   // include ports and parameter counts in labels
	format    string // dot or svg
	output    string
}

// newPreviewCmd creates the preview command.
func newPreviewCmd() *cobra.Command {
	var opts previewOpts

	cmd := &cobra.Command{
		Use:   "preview <snapshot.json>",
		Short: "Render the mapped network as DOT or SVG",
		Long: `Render the network as a diagram for inspection before conversion.

By default the mapped (target) network is rendered; --source shows the
extracted network as it exists in the scene, with unresolved connections
dashed.

Examples:
  shaderbridge preview scene.json -o network.svg
  shaderbridge preview scene.json --format dot
  shaderbridge preview scene.json --source --root blinn1SG`,
		Args: cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return runPreview(c, args[0], opts)
		},
	}

	cmd.Flags().StringSliceVarP(&opts.roots, "root", "r", nil, "conversion root node(s)")
	cmd.Flags().StringVar(&opts.ruleSet, "ruleset", "", "rule set name (default: auto-detect)")
	cmd.Flags().StringVar(&opts.rulesFile, "rules-file", "", "TOML rule file (overrides --ruleset)")
	cmd.Flags().StringVar(&opts.policy, "policy", pipeline.PolicyPassThrough, "unmapped node policy: passthrough or drop")
	cmd.Flags().BoolVar(&opts.source, "source", false, "render the source network instead of the mapped one")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "include ports and parameter counts in labels")
	cmd.Flags().StringVar(&opts.format, "format", "svg", "output format: dot or svg")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (stdout if empty or \"-\")")

	return cmd
}

func runPreview(c *cobra.Command, snapshotPath string, opts previewOpts) error {
	if opts.format != "dot" && opts.format != "svg" {
		return errors.New(errors.ErrCodeInvalidFormat,
			"invalid format %q (must be dot or svg)", opts.format)
	}

	ctx := c.Context()
	logger := loggerFromContext(ctx)

	roots, err := pickRoots(snapshotPath, opts.roots)
	if err != nil {
		return err
	}

	runner := newRunner(ctx, true)
	defer runner.Close()

	pipeOpts := pipeline.Options{
		SnapshotPath: snapshotPath,
		Roots:        roots,
		RuleSet:      opts.ruleSet,
		RulesFile:    opts.rulesFile,
		Policy:       opts.policy,
		Logger:       logger,
	}

	g, warnings, err := runner.Extract(ctx, pipeOpts)
	if err != nil {
		return err
	}

	var dot string
	if opts.source {
		dot = preview.SourceToDOT(g)
	} else {
		rules, err := runner.ResolveRules(pipeOpts, g)
		if err != nil {
			return err
		}
		policy, _ := mapping.ParsePolicy(opts.policy)
		tg, mapWarnings, err := mapping.NewEngine(rules, policy).Map(g)
		if err != nil {
			return err
		}
		warnings = append(warnings, mapWarnings...)
		dot = preview.ToDOT(tg, preview.Options{Detailed: opts.detailed})
	}

	for _, w := range warnings {
		printWarning("%s", w.String())
	}

	data := []byte(dot)
	if opts.format == "svg" {
		sp := newSpinner(ctx, "rendering diagram")
		sp.Start()
		data, err = preview.RenderSVG(ctx, dot)
		if err != nil {
			sp.StopWithError(fmt.Sprintf("render failed: %v", err))
			return err
		}
		sp.Stop()
	}

	if err := writeOutput(data, opts.output); err != nil {
		return err
	}
	if opts.output != "" && opts.output != "-" {
		printSuccess("Diagram written")
		printFile(opts.output)
	}

	return nil
}
