package mapping

import (
	"testing"

	"github.com/lookdevkit/shaderbridge/pkg/errors"
	"github.com/lookdevkit/shaderbridge/pkg/graph"
	"github.com/lookdevkit/shaderbridge/pkg/scene"
)

func testRules(t *testing.T) *RuleSet {
	t.Helper()
	rs := NewRuleSet("test")
	rs.Add("checker", Rule{
		Target: "checkerboard",
		Attrs: []AttrRule{
			{Source: "color1", Target: "colorA"},
			{Source: "color2", Target: "colorB"},
			{Source: "contrast", Target: "contrast", Scale: 0.5},
		},
		Color: &[3]float64{0.2, 0.36, 0.1},
	})
	rs.Add("surface", Rule{
		Target: "standard_surface",
		Attrs: []AttrRule{
			{Source: "baseColor", Target: "base_color"},
			{Source: "mode", Target: "mode", Enum: []string{"diffuse", "glossy"}},
		},
	})
	rs.Add("texture", Rule{
		Target: "image",
		Attrs: []AttrRule{
			{Source: "fileName", Target: "filename", Transform: "extension:.tx"},
		},
	})
	return rs
}

func sourceNode(t *testing.T, g *graph.Graph, id, typ string, attrs map[string]scene.Value, inputs ...graph.Input) *graph.SourceNode {
	t.Helper()
	n := &graph.SourceNode{ID: id, Type: typ, Attrs: attrs, Inputs: inputs}
	if err := g.Add(n); err != nil {
		t.Fatalf("add %s: %v", id, err)
	}
	return n
}

func TestMapSingleNode(t *testing.T) {
	g := graph.New([]string{"checker1"})
	sourceNode(t, g, "checker1", "checker", map[string]scene.Value{
		"color1":   scene.Color(1, 0, 0),
		"contrast": scene.Number(1),
		"ignored":  scene.Number(42),
	})

	tg, warnings, err := NewEngine(testRules(t), PolicyPassThrough).Map(g)
	if err != nil {
		t.Fatalf("Map: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}

	n := tg.Node("checker1")
	if n == nil {
		t.Fatal("mapped node missing")
	}
	if n.Type != "checkerboard" {
		t.Errorf("type = %q, want checkerboard", n.Type)
	}
	if v, ok := n.Param("colorA"); !ok || !v.Equal(scene.Color(1, 0, 0)) {
		t.Errorf("colorA = %v (ok=%v)", v, ok)
	}
	if v, ok := n.Param("contrast"); !ok || !v.Equal(scene.Number(0.5)) {
		t.Errorf("contrast = %v (ok=%v), want scaled 0.5", v, ok)
	}
	if _, ok := n.Param("ignored"); ok {
		t.Error("attribute without a rule leaked into parameters")
	}
	if n.Color == nil || *n.Color != [3]float64{0.2, 0.36, 0.1} {
		t.Errorf("color hint = %v", n.Color)
	}
}

func TestMapRewiresConnections(t *testing.T) {
	g := graph.New([]string{"surf1"})
	sourceNode(t, g, "surf1", "surface", nil,
		graph.Input{Name: "baseColor", UpstreamID: "tex1", UpstreamPort: "outColor"})
	sourceNode(t, g, "tex1", "texture", map[string]scene.Value{
		"fileName": scene.String("textures/wood.png"),
	})

	tg, warnings, err := NewEngine(testRules(t), PolicyPassThrough).Map(g)
	if err != nil {
		t.Fatalf("Map: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}

	surf := tg.Node("surf1")
	if len(surf.Inputs) != 1 {
		t.Fatalf("inputs = %d, want 1", len(surf.Inputs))
	}
	in := surf.Inputs[0]
	if in.Port != "base_color" || in.FromID != "tex1" || in.FromPort != "out" {
		t.Errorf("input = %+v", in)
	}
	if v, ok := tg.Node("tex1").Param("filename"); !ok || v.Str != "textures/wood.tx" {
		t.Errorf("filename = %v (ok=%v), want textures/wood.tx", v, ok)
	}
	if len(tg.Ports) != 1 || tg.Ports[0].Source != "surf1.out" {
		t.Errorf("group ports = %+v", tg.Ports)
	}
}

func TestMapSkipsConnectedAttributes(t *testing.T) {
	g := graph.New([]string{"surf1"})
	sourceNode(t, g, "surf1", "surface",
		map[string]scene.Value{"baseColor": scene.Color(0.5, 0.5, 0.5)},
		graph.Input{Name: "baseColor", UpstreamID: "tex1", UpstreamPort: "outColor"})
	sourceNode(t, g, "tex1", "texture", nil)

	tg, _, err := NewEngine(testRules(t), PolicyPassThrough).Map(g)
	if err != nil {
		t.Fatalf("Map: %v", err)
	}
	if _, ok := tg.Node("surf1").Param("base_color"); ok {
		t.Error("connection-driven attribute was also set as a literal parameter")
	}
}

func TestMapEnumRemap(t *testing.T) {
	g := graph.New([]string{"surf1"})
	sourceNode(t, g, "surf1", "surface", map[string]scene.Value{
		"mode": scene.Number(1),
	})

	tg, warnings, err := NewEngine(testRules(t), PolicyPassThrough).Map(g)
	if err != nil {
		t.Fatalf("Map: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	v, ok := tg.Node("surf1").Param("mode")
	if !ok || v.Kind != scene.KindEnum || v.Str != "glossy" {
		t.Errorf("mode = %v (ok=%v), want enum glossy", v, ok)
	}
}

func TestMapEnumOutOfRange(t *testing.T) {
	g := graph.New([]string{"surf1"})
	sourceNode(t, g, "surf1", "surface", map[string]scene.Value{
		"mode": scene.Number(7),
	})

	tg, warnings, err := NewEngine(testRules(t), PolicyPassThrough).Map(g)
	if err != nil {
		t.Fatalf("Map: %v", err)
	}
	if len(warnings) != 1 || warnings[0].Code != errors.WarnInvalidAttributeValue {
		t.Fatalf("warnings = %v, want one InvalidAttributeValue", warnings)
	}
	if _, ok := tg.Node("surf1").Param("mode"); ok {
		t.Error("untransformable value was set anyway")
	}
}

func TestMapUnmappedPolicies(t *testing.T) {
	build := func() *graph.Graph {
		g := graph.New([]string{"surf1"})
		sourceNode(t, g, "surf1", "surface", nil,
			graph.Input{Name: "baseColor", UpstreamID: "mystery1", UpstreamPort: "outColor"})
		sourceNode(t, g, "mystery1", "unknownNoise", map[string]scene.Value{
			"frequency": scene.Number(4),
		})
		return g
	}

	t.Run("passthrough", func(t *testing.T) {
		tg, warnings, err := NewEngine(testRules(t), PolicyPassThrough).Map(build())
		if err != nil {
			t.Fatalf("Map: %v", err)
		}
		if len(warnings) != 1 || warnings[0].Code != errors.WarnUnmappedNodeType {
			t.Fatalf("warnings = %v, want one UnmappedNodeType", warnings)
		}
		n := tg.Node("mystery1")
		if n == nil || n.Type != "unknownNoise" {
			t.Fatalf("pass-through node = %+v", n)
		}
		if v, ok := n.Param("frequency"); !ok || !v.Equal(scene.Number(4)) {
			t.Errorf("frequency = %v (ok=%v)", v, ok)
		}
		if len(tg.Node("surf1").Inputs) != 1 {
			t.Error("connection to pass-through node was lost")
		}
	})

	t.Run("drop", func(t *testing.T) {
		tg, warnings, err := NewEngine(testRules(t), PolicyDrop).Map(build())
		if err != nil {
			t.Fatalf("Map: %v", err)
		}
		if tg.Node("mystery1") != nil {
			t.Error("dropped node still present")
		}
		if len(tg.Node("surf1").Inputs) != 0 {
			t.Error("connection to dropped node survived")
		}
		var codes []errors.WarningCode
		for _, w := range warnings {
			codes = append(codes, w.Code)
		}
		if len(codes) != 2 || codes[0] != errors.WarnUnmappedNodeType || codes[1] != errors.WarnUnresolvedConnection {
			t.Errorf("warning codes = %v", codes)
		}
	})
}

func TestMapExpansion(t *testing.T) {
	rs := testRules(t)
	rs.Add("blend", Rule{
		Expansion: &Expansion{
			Nodes: []ExpandedNode{
				{Suffix: "", Type: "mix"},
				{Suffix: "Mask", Type: "range", Params: []Param{{Name: "gamma", Value: scene.Number(2.2)}}},
			},
			Edges: []ExpandEdge{
				{From: PortRef{Node: "Mask", Port: "out"}, To: PortRef{Node: "", Port: "mix"}},
			},
			Terminal: "",
			Inputs: map[string]PortRef{
				"blender": {Node: "Mask", Port: "input"},
				"color1":  {Node: "", Port: "input1"},
			},
		},
		Attrs: []AttrRule{{Source: "color2", Target: "input2"}},
	})

	g := graph.New([]string{"blend1"})
	sourceNode(t, g, "blend1", "blend",
		map[string]scene.Value{"color2": scene.Color(0, 0, 1)},
		graph.Input{Name: "blender", UpstreamID: "tex1", UpstreamPort: "outAlpha"},
		graph.Input{Name: "color1", UpstreamID: "tex1", UpstreamPort: "outColor"})
	sourceNode(t, g, "tex1", "texture", nil)

	tg, warnings, err := NewEngine(rs, PolicyPassThrough).Map(g)
	if err != nil {
		t.Fatalf("Map: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}

	mix := tg.Node("blend1")
	if mix == nil || mix.Type != "mix" {
		t.Fatalf("primary node = %+v", mix)
	}
	mask := tg.Node("blend1Mask")
	if mask == nil || mask.Type != "range" {
		t.Fatalf("expanded node = %+v", mask)
	}
	if v, ok := mask.Param("gamma"); !ok || !v.Equal(scene.Number(2.2)) {
		t.Errorf("static param gamma = %v (ok=%v)", v, ok)
	}

	// Internal edge plus the two external inputs routed by the expansion.
	var mixPorts []string
	for _, in := range mix.Inputs {
		mixPorts = append(mixPorts, in.Port+"<-"+in.FromID+"."+in.FromPort)
	}
	want := []string{"mix<-blend1Mask.out", "input1<-tex1.out"}
	if len(mixPorts) != len(want) || mixPorts[0] != want[0] || mixPorts[1] != want[1] {
		t.Errorf("mix inputs = %v, want %v", mixPorts, want)
	}
	if len(mask.Inputs) != 1 || mask.Inputs[0].Port != "input" || mask.Inputs[0].FromID != "tex1" {
		t.Errorf("mask inputs = %+v", mask.Inputs)
	}
	if v, ok := mix.Param("input2"); !ok || !v.Equal(scene.Color(0, 0, 1)) {
		t.Errorf("input2 = %v (ok=%v)", v, ok)
	}
}

func TestMapExpansionUndeclaredInputLandsOnAttrNode(t *testing.T) {
	// Terminal and attribute node differ: downstream consumers attach to
	// the mix node, but inputs renamed through the attr table belong to
	// the primary ramp node.
	rs := testRules(t)
	rs.Add("blend", Rule{
		Expansion: &Expansion{
			Nodes: []ExpandedNode{
				{Suffix: "", Type: "rampFloat"},
				{Suffix: "Mix", Type: "mix"},
			},
			Edges: []ExpandEdge{
				{From: PortRef{Port: "out"}, To: PortRef{Node: "Mix", Port: "mix"}},
			},
			Terminal: "Mix",
			Inputs: map[string]PortRef{
				"colorA": {Node: "Mix", Port: "input1"},
			},
		},
		Attrs: []AttrRule{{Source: "uvCoord", Target: "input"}},
	})

	g := graph.New([]string{"blend1"})
	sourceNode(t, g, "blend1", "blend", nil,
		graph.Input{Name: "colorA", UpstreamID: "tex1", UpstreamPort: "outColor"},
		graph.Input{Name: "uvCoord", UpstreamID: "place1", UpstreamPort: "outU"})
	sourceNode(t, g, "tex1", "texture", nil)
	sourceNode(t, g, "place1", "texture", nil)

	tg, warnings, err := NewEngine(rs, PolicyPassThrough).Map(g)
	if err != nil {
		t.Fatalf("Map: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}

	ramp := tg.Node("blend1")
	if len(ramp.Inputs) != 1 {
		t.Fatalf("ramp inputs = %+v, want exactly the uv connection", ramp.Inputs)
	}
	if in := ramp.Inputs[0]; in.Port != "input" || in.FromID != "place1" || in.FromPort != "out.u" {
		t.Errorf("uv connection = %+v, want input<-place1.out.u", in)
	}

	mix := tg.Node("blend1Mix")
	for _, in := range mix.Inputs {
		if in.FromID == "place1" {
			t.Errorf("uv connection landed on the terminal node: %+v", in)
		}
	}
}

func TestMapExpansionNameCollision(t *testing.T) {
	rs := testRules(t)
	rs.Add("blend", Rule{
		Expansion: &Expansion{
			Nodes: []ExpandedNode{
				{Suffix: "", Type: "mix"},
				{Suffix: "Mask", Type: "range"},
			},
			Terminal: "",
		},
	})

	g := graph.New([]string{"blend1"})
	sourceNode(t, g, "blend1", "blend", nil)
	// A sibling already occupies the derived expansion name.
	sourceNode(t, g, "blend1Mask", "texture", nil)

	tg, _, err := NewEngine(rs, PolicyPassThrough).Map(g)
	if err != nil {
		t.Fatalf("Map: %v", err)
	}
	if tg.Node("blend1MaskA") == nil {
		t.Error("colliding expansion name was not suffixed")
	}
	if tg.Node("blend1Mask").Type != "image" {
		t.Errorf("original occupant type = %q", tg.Node("blend1Mask").Type)
	}
}

func TestMapSkipsUnresolvedInputs(t *testing.T) {
	g := graph.New([]string{"surf1"})
	sourceNode(t, g, "surf1", "surface", nil,
		graph.Input{Name: "baseColor", UpstreamID: "gone", UpstreamPort: "outColor", Unresolved: true})

	tg, warnings, err := NewEngine(testRules(t), PolicyPassThrough).Map(g)
	if err != nil {
		t.Fatalf("Map: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if len(tg.Node("surf1").Inputs) != 0 {
		t.Error("unresolved input produced a target connection")
	}
}

func TestMapMultipleRootsGetNumberedPorts(t *testing.T) {
	g := graph.New([]string{"surf1", "surf2"})
	sourceNode(t, g, "surf1", "surface", nil)
	sourceNode(t, g, "surf2", "surface", nil)

	tg, _, err := NewEngine(testRules(t), PolicyPassThrough).Map(g)
	if err != nil {
		t.Fatalf("Map: %v", err)
	}
	if len(tg.Ports) != 2 {
		t.Fatalf("ports = %+v", tg.Ports)
	}
	if tg.Ports[0].Name != "out0" || tg.Ports[1].Name != "out1" {
		t.Errorf("port names = %q, %q", tg.Ports[0].Name, tg.Ports[1].Name)
	}
}

func TestOutPort(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"outColor", "out"},
		{"outColorR", "out.r"},
		{"outColorG", "out.g"},
		{"outColorB", "out.b"},
		{"outValue", "out"},
		{"outValueX", "out.x"},
		{"outAlpha", "out"},
		{"outAlphaA", "out.a"},
		{"outUV", "out"},
		{"outUVU", "out.u"},
		{"message", "out"},
		{"out", "out"},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			if got := outPort(tc.in); got != tc.want {
				t.Errorf("outPort(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
