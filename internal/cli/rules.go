package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lookdevkit/shaderbridge/pkg/mapping"
	"github.com/lookdevkit/shaderbridge/pkg/mapping/rulesets"
)

// newRulesCmd creates the rules inspection command.
func newRulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List and validate rule sets",
	}

	cmd.AddCommand(newRulesListCmd())
	cmd.AddCommand(newRulesShowCmd())
	cmd.AddCommand(newRulesValidateCmd())

	return cmd
}

// newRulesListCmd creates the "rules list" subcommand.
func newRulesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered rule sets",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			for _, name := range rulesets.Names() {
				rs, _ := rulesets.Find(name)
				fmt.Printf("%s %s\n",
					StyleHighlight.Render(name),
					StyleDim.Render(fmt.Sprintf("(%d rules)", rs.Len())))
			}
			return nil
		},
	}
}

// newRulesShowCmd creates the "rules show" subcommand.
func newRulesShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <ruleset>",
		Short: "Show the type mappings of a rule set",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			rs, ok := rulesets.Find(args[0])
			if !ok {
				return fmt.Errorf("unknown rule set %q (registered: %s)",
					args[0], strings.Join(rulesets.Names(), ", "))
			}
			printRuleSet(rs)
			return nil
		},
	}
}

// newRulesValidateCmd creates the "rules validate" subcommand.
func newRulesValidateCmd() *cobra.Command {
	var show bool

	cmd := &cobra.Command{
		Use:   "validate <rules.toml>",
		Short: "Validate a TOML rule file",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			rs, err := mapping.LoadRuleSetFile(args[0])
			if err != nil {
				return err
			}
			printSuccess("Valid rule file: %s (%d rules)", rs.Name, rs.Len())
			if show {
				printRuleSet(rs)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&show, "show", false, "print the parsed mappings")

	return cmd
}

func printRuleSet(rs *mapping.RuleSet) {
	types := rs.Types()
	sort.Strings(types)

	width := 0
	for _, t := range types {
		if len(t) > width {
			width = len(t)
		}
	}

	for _, t := range types {
		rule, _ := rs.Find(t)
		fmt.Printf("  %-*s %s %s\n", width, t,
			StyleDim.Render(iconArrow), StyleValue.Render(ruleTarget(rule)))
	}
	printDetail("%d rules", len(types))
}

// ruleTarget summarizes a rule's output for display: the target type, the
// type chain of a static expansion, or a marker for computed expansions.
func ruleTarget(rule *mapping.Rule) string {
	switch {
	case rule.Expand != nil:
		return "(computed)"
	case rule.Expansion != nil:
		names := make([]string, 0, len(rule.Expansion.Nodes))
		for _, n := range rule.Expansion.Nodes {
			names = append(names, n.Type)
		}
		return strings.Join(names, " + ")
	default:
		return rule.Target
	}
}
