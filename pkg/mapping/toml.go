package mapping

import (
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/lookdevkit/shaderbridge/pkg/errors"
	"github.com/lookdevkit/shaderbridge/pkg/scene"
)

// Rule files describe a rule set in TOML so studios can extend the mapping
// tables without rebuilding the binary. Computed expansions cannot be
// expressed in a file; static expansions can.
//
//	[meta]
//	name = "site-arnold"
//
//	[types.aiCellNoise]
//	target = "cell_noise"
//	color = [0.2, 0.36, 0.1]
//
//	[[types.aiCellNoise.attrs]]
//	source = "scaleX"
//	target = "scale"
//	scale = 2.0

type ruleFile struct {
	Meta  ruleFileMeta            `toml:"meta"`
	Types map[string]ruleFileType `toml:"types"`
}

type ruleFileMeta struct {
	Name string `toml:"name"`
}

type ruleFileType struct {
	Target string         `toml:"target"`
	Color  []float64      `toml:"color"`
	Attrs  []ruleFileAttr `toml:"attrs"`
	Expand *ruleFileExp   `toml:"expand"`
}

type ruleFileAttr struct {
	Source    string   `toml:"source"`
	Target    string   `toml:"target"`
	Enum      []string `toml:"enum"`
	Scale     float64  `toml:"scale"`
	Transform string   `toml:"transform"`
}

type ruleFileExp struct {
	Nodes    []ruleFileExpNode `toml:"nodes"`
	Edges    []ruleFileExpEdge `toml:"edges"`
	Terminal string            `toml:"terminal"`
	Inputs   map[string]string `toml:"inputs"` // input name -> "suffix.port"
	AttrNode string            `toml:"attr_node"`
}

type ruleFileExpNode struct {
	Suffix string             `toml:"suffix"`
	Type   string             `toml:"type"`
	Color  []float64          `toml:"color"`
	Params map[string]tomlVal `toml:"params"`
}

type ruleFileExpEdge struct {
	From string `toml:"from"` // "suffix.port"
	To   string `toml:"to"`
}

// tomlVal accepts the natural TOML shapes for parameter values.
type tomlVal struct {
	v scene.Value
}

func (t *tomlVal) UnmarshalTOML(raw any) error {
	switch x := raw.(type) {
	case int64:
		t.v = scene.Number(float64(x))
	case float64:
		t.v = scene.Number(x)
	case bool:
		if x {
			t.v = scene.Number(1)
		} else {
			t.v = scene.Number(0)
		}
	case string:
		t.v = scene.String(x)
	case []any:
		c := [3]float64{}
		if len(x) != 3 {
			return errors.New(errors.ErrCodeInvalidRuleSet, "color needs 3 components, got %d", len(x))
		}
		for i, e := range x {
			switch n := e.(type) {
			case int64:
				c[i] = float64(n)
			case float64:
				c[i] = n
			default:
				return errors.New(errors.ErrCodeInvalidRuleSet, "color component %d is not numeric", i)
			}
		}
		t.v = scene.Color(c[0], c[1], c[2])
	default:
		return errors.New(errors.ErrCodeInvalidRuleSet, "unsupported parameter value %T", raw)
	}
	return nil
}

// LoadRuleSetFile parses a TOML rule file from disk.
func LoadRuleSetFile(path string) (*RuleSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open rule file %s", path)
	}
	defer f.Close()
	return LoadRuleSet(f)
}

// LoadRuleSet parses a TOML rule file. The returned set carries a content
// fingerprint so cached conversions notice edits to the file.
func LoadRuleSet(r io.Reader) (*RuleSet, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidRuleSet, err, "read rule file")
	}
	var rf ruleFile
	if err := toml.Unmarshal(raw, &rf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidRuleSet, err, "parse rule file")
	}
	if rf.Meta.Name == "" {
		return nil, errors.New(errors.ErrCodeInvalidRuleSet, "rule file missing [meta] name")
	}
	rs := NewRuleSet(rf.Meta.Name)
	rs.Fingerprint = fmt.Sprintf("%x", sha256.Sum256(raw))
	for tag, ft := range rf.Types {
		rule, err := buildRule(tag, ft)
		if err != nil {
			return nil, err
		}
		rs.Add(tag, *rule)
	}
	return rs, nil
}

func buildRule(tag string, ft ruleFileType) (*Rule, error) {
	if ft.Target == "" && ft.Expand == nil {
		return nil, errors.New(errors.ErrCodeInvalidRuleSet,
			"type %q: needs either target or expand", tag)
	}
	rule := &Rule{Target: ft.Target}
	var err error
	if rule.Color, err = colorHint(tag, ft.Color); err != nil {
		return nil, err
	}
	for _, fa := range ft.Attrs {
		if fa.Source == "" || fa.Target == "" {
			return nil, errors.New(errors.ErrCodeInvalidRuleSet,
				"type %q: attr rule needs source and target", tag)
		}
		if fa.Transform != "" {
			if _, terr := ResolveTransform(fa.Transform); terr != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidRuleSet, terr, "type %q", tag)
			}
		}
		rule.Attrs = append(rule.Attrs, AttrRule{
			Source:    fa.Source,
			Target:    fa.Target,
			Enum:      fa.Enum,
			Scale:     fa.Scale,
			Transform: fa.Transform,
		})
	}
	if ft.Expand != nil {
		if rule.Expansion, err = buildExpansion(tag, ft.Expand); err != nil {
			return nil, err
		}
	}
	return rule, nil
}

func buildExpansion(tag string, fe *ruleFileExp) (*Expansion, error) {
	exp := &Expansion{Terminal: fe.Terminal, AttrNode: fe.AttrNode}
	suffixes := map[string]bool{}
	for _, fn := range fe.Nodes {
		if fn.Type == "" {
			return nil, errors.New(errors.ErrCodeInvalidRuleSet,
				"type %q: expanded node needs a type", tag)
		}
		if suffixes[fn.Suffix] {
			return nil, errors.New(errors.ErrCodeInvalidRuleSet,
				"type %q: duplicate expansion suffix %q", tag, fn.Suffix)
		}
		suffixes[fn.Suffix] = true
		en := ExpandedNode{Suffix: fn.Suffix, Type: fn.Type}
		var err error
		if en.Color, err = colorHint(tag, fn.Color); err != nil {
			return nil, err
		}
		for name, val := range fn.Params {
			en.Params = append(en.Params, Param{Name: name, Value: val.v})
		}
		sortParams(en.Params)
		exp.Nodes = append(exp.Nodes, en)
	}
	if !suffixes[exp.Terminal] {
		return nil, errors.New(errors.ErrCodeInvalidRuleSet,
			"type %q: terminal %q is not an expanded node", tag, exp.Terminal)
	}
	for _, edge := range fe.Edges {
		from, err := parsePortRef(tag, edge.From, suffixes)
		if err != nil {
			return nil, err
		}
		to, err := parsePortRef(tag, edge.To, suffixes)
		if err != nil {
			return nil, err
		}
		exp.Edges = append(exp.Edges, ExpandEdge{From: from, To: to})
	}
	if len(fe.Inputs) > 0 {
		exp.Inputs = make(map[string]PortRef, len(fe.Inputs))
		for input, ref := range fe.Inputs {
			pr, err := parsePortRef(tag, ref, suffixes)
			if err != nil {
				return nil, err
			}
			exp.Inputs[input] = pr
		}
	}
	return exp, nil
}

// parsePortRef splits a "suffix.port" reference. A bare port addresses the
// primary node.
func parsePortRef(tag, ref string, suffixes map[string]bool) (PortRef, error) {
	node, port, found := strings.Cut(ref, ".")
	if !found {
		node, port = "", ref
	}
	if port == "" {
		return PortRef{}, errors.New(errors.ErrCodeInvalidRuleSet,
			"type %q: bad port reference %q", tag, ref)
	}
	if !suffixes[node] {
		return PortRef{}, errors.New(errors.ErrCodeInvalidRuleSet,
			"type %q: port reference %q names unknown node %q", tag, ref, node)
	}
	return PortRef{Node: node, Port: port}, nil
}

func colorHint(tag string, c []float64) (*[3]float64, error) {
	switch len(c) {
	case 0:
		return nil, nil
	case 3:
		return &[3]float64{c[0], c[1], c[2]}, nil
	}
	return nil, errors.New(errors.ErrCodeInvalidRuleSet,
		"type %q: color needs 3 components, got %d", tag, len(c))
}
