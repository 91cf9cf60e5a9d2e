// Package arnold registers the built-in Arnold rule set. The tables cover
// the Arnold 5 shader library plus the renderer-agnostic utility nodes that
// commonly appear in Arnold networks (file textures, bump, ramps, math).
package arnold

import (
	"fmt"
	"regexp"

	"github.com/lookdevkit/shaderbridge/pkg/graph"
	"github.com/lookdevkit/shaderbridge/pkg/mapping"
	"github.com/lookdevkit/shaderbridge/pkg/mapping/rulesets"
	"github.com/lookdevkit/shaderbridge/pkg/scene"
)

// Name is the rule set's registry name.
const Name = "arnold"

// Node color hints grouped by node family, matching the conventions
// artists expect in the target UI.
var (
	colorSurface = [3]float64{0.05, 0.26, 0.09}
	colorLegacy  = [3]float64{0.2, 0.36, 0.1}
	colorTexture = [3]float64{0.36, 0.25, 0.38}
	colorUtility = [3]float64{0.03, 0.35, 0.5}
	colorNetwork = [3]float64{0.4, 0.35, 0.2}
)

func init() {
	mapping.RegisterTransform("componentMin", componentMin)
	mapping.RegisterTransform("componentMax", componentMax)
	rulesets.Register(RuleSet())
}

// componentMin collapses an RGB value to its smallest channel. The source
// clamp shader clamps per channel; the target one takes a single float.
func componentMin(v scene.Value) (scene.Value, error) {
	if v.Kind == scene.KindNumber {
		return v, nil
	}
	if v.Kind != scene.KindColor {
		return v, fmt.Errorf("need a color or number, got %s", v.Kind)
	}
	out := v.Color[0]
	for _, c := range v.Color[1:] {
		if c < out {
			out = c
		}
	}
	return scene.Number(out), nil
}

func componentMax(v scene.Value) (scene.Value, error) {
	if v.Kind == scene.KindNumber {
		return v, nil
	}
	if v.Kind != scene.KindColor {
		return v, fmt.Errorf("need a color or number, got %s", v.Kind)
	}
	out := v.Color[0]
	for _, c := range v.Color[1:] {
		if c > out {
			out = c
		}
	}
	return scene.Number(out), nil
}

// id is shorthand for an attribute kept under its source name.
func id(name string) mapping.AttrRule {
	return mapping.AttrRule{Source: name, Target: name}
}

func ren(source, target string) mapping.AttrRule {
	return mapping.AttrRule{Source: source, Target: target}
}

// RuleSet builds the Arnold rule set. Exposed for tests; normal callers go
// through the rulesets registry.
func RuleSet() *mapping.RuleSet {
	rs := mapping.NewRuleSet(Name)

	rs.Add("aiStandardSurface", mapping.Rule{
		Target: "standard_surface",
		Color:  &colorSurface,
		Attrs: []mapping.AttrRule{
			id("base"),
			ren("baseColor", "base_color"),
			ren("diffuseRoughness", "diffuse_roughness"),
			id("metalness"),
			id("specular"),
			ren("specularColor", "specular_color"),
			ren("specularRoughness", "specular_roughness"),
			ren("specularIOR", "specular_IOR"),
			ren("specularAnisotropy", "specular_anisotropy"),
			ren("specularRotation", "specular_rotation"),
			id("transmission"),
			ren("transmissionColor", "transmission_color"),
			ren("transmissionDepth", "transmission_depth"),
			ren("transmissionScatter", "transmission_scatter"),
			ren("transmissionScatterAnisotropy", "transmission_scatter_anisotropy"),
			ren("transmissionDispersion", "transmission_dispersion"),
			ren("transmissionExtraRoughness", "transmission_extra_roughness"),
			ren("transmitAovs", "transmit_aovs"),
			id("subsurface"),
			ren("subsurfaceColor", "subsurface_color"),
			ren("subsurfaceRadius", "subsurface_radius"),
			ren("subsurfaceScale", "subsurface_scale"),
			{Source: "subsurfaceType", Target: "subsurface_type",
				Enum: []string{"diffusion", "randomwalk", "randomwalk_v2"}},
			ren("subsurfaceAnisotropy", "subsurface_anisotropy"),
			id("coat"),
			ren("coatColor", "coat_color"),
			ren("coatRoughness", "coat_roughness"),
			ren("coatIOR", "coat_IOR"),
			ren("coatAnisotropy", "coat_anisotropy"),
			ren("coatRotation", "coat_rotation"),
			ren("coatNormal", "coat_normal"),
			id("sheen"),
			ren("sheenColor", "sheen_color"),
			ren("sheenRoughness", "sheen_roughness"),
			id("emission"),
			ren("emissionColor", "emission_color"),
			ren("thinFilmThickness", "thin_film_thickness"),
			ren("thinFilmIOR", "thin_film_IOR"),
			ren("thinWalled", "thin_walled"),
			id("opacity"),
			ren("normalCamera", "normal"),
			id("tangent"),
			id("caustics"),
			ren("internalReflections", "internal_reflections"),
			ren("exitToBackground", "exit_to_background"),
			ren("indirectDiffuse", "indirect_diffuse"),
			ren("indirectSpecular", "indirect_specular"),
		},
	})

	rs.Add("aiStandard", mapping.Rule{
		Target: "standard",
		Color:  &colorLegacy,
		Attrs: []mapping.AttrRule{
			id("Kd"),
			ren("color", "Kd_color"),
			ren("diffuseRoughness", "diffuse_roughness"),
			id("Kb"),
			ren("directDiffuse", "direct_diffuse"),
			ren("indirectDiffuse", "indirect_diffuse"),
			id("Ks"),
			ren("KsColor", "Ks_color"),
			ren("specularRoughness", "specular_roughness"),
			ren("specularAnisotropy", "specular_anisotropy"),
			{Source: "specularDistribution", Target: "specular_distribution",
				Enum: []string{"beckmann", "ggx"}},
			ren("specularRotation", "specular_rotation"),
			id("Kr"),
			ren("KrColor", "Kr_color"),
			id("Kt"),
			ren("KtColor", "Kt_color"),
			id("transmittance"),
			ren("refractionRoughness", "refraction_roughness"),
			id("IOR"),
			id("emission"),
			ren("emissionColor", "emission_color"),
			id("Ksss"),
			ren("KsssColor", "Ksss_color"),
			{Source: "sssProfile", Target: "sss_profile",
				Enum: []string{"empirical", "cubic"}},
			ren("sssRadius", "sss_radius"),
			id("opacity"),
			ren("bounceFactor", "bounce_factor"),
		},
	})

	imageAttrs := []mapping.AttrRule{
		{Source: "fileTextureName", Target: "filename", Transform: "extension:.tx"},
		ren("colorGain", "multiply"),
		ren("colorOffset", "offset"),
		{Source: "swrap", Target: "swrap",
			Enum: []string{"periodic", "black", "clamp", "mirror", "file"}},
		{Source: "twrap", Target: "twrap",
			Enum: []string{"periodic", "black", "clamp", "mirror", "file"}},
		id("sscale"),
		id("tscale"),
		id("sflip"),
		id("tflip"),
		id("soffset"),
		id("toffset"),
		ren("swapSt", "swap_st"),
		ren("mipmapBias", "mipmap_bias"),
		id("uvset"),
		id("uvcoords"),
		ren("singleChannel", "single_channel"),
		ren("startChannel", "start_channel"),
		ren("ignoreMissingTextures", "ignore_missing_textures"),
		ren("missingTextureColor", "missing_texture_color"),
	}

	rs.Add("file", mapping.Rule{
		Attrs: imageAttrs,
		Expansion: &mapping.Expansion{
			Nodes: []mapping.ExpandedNode{{
				Type:  "image",
				Color: &colorTexture,
				Params: []mapping.Param{
					{Name: "color_space", Value: scene.String("linear")},
					{Name: "filter", Value: scene.Enum(3, "smart_bicubic")},
				},
			}},
		},
	})

	rs.Add("aiImage", mapping.Rule{
		Color: &colorTexture,
		Attrs: append([]mapping.AttrRule{
			{Source: "filename", Target: "filename", Transform: "extension:.tx"},
			id("multiply"),
			id("offset"),
			{Source: "filter", Target: "filter",
				Enum: []string{"closest", "bilinear", "bicubic", "smart_bicubic"}},
		}, imageAttrs[3:]...),
		Expansion: &mapping.Expansion{
			Nodes: []mapping.ExpandedNode{{
				Type:  "image",
				Color: &colorTexture,
				Params: []mapping.Param{
					{Name: "color_space", Value: scene.String("linear")},
				},
			}},
		},
	})

	rs.Add("aiColorCorrect", mapping.Rule{
		Target: "color_correct",
		Color:  &colorUtility,
		Attrs: []mapping.AttrRule{
			id("input"),
			id("mask"),
			id("gamma"),
			ren("hueShift", "hue_shift"),
			id("saturation"),
			id("contrast"),
			ren("contrastPivot", "contrast_pivot"),
			id("exposure"),
			id("multiply"),
			id("add"),
			id("invert"),
			ren("alphaIsLuminance", "alpha_is_luminance"),
			ren("alphaMultiply", "alpha_multiply"),
			ren("alphaAdd", "alpha_add"),
			ren("invertAlpha", "invert_alpha"),
		},
	})

	rs.Add("aiNormalMap", mapping.Rule{
		Target: "normal_map",
		Color:  &colorUtility,
		Attrs: []mapping.AttrRule{
			id("input"),
			id("strength"),
			id("tangent"),
			id("normal"),
			{Source: "order", Target: "order",
				Enum: []string{"XYZ", "XZY", "YXZ", "YZX", "ZXY", "ZYX"}},
			ren("invertX", "invert_x"),
			ren("invertY", "invert_y"),
			ren("invertZ", "invert_z"),
			ren("colorToSigned", "color_to_signed"),
			ren("tangentSpace", "tangent_space"),
		},
	})

	rs.Add("aiNoise", mapping.Rule{
		Target: "noise",
		Attrs: []mapping.AttrRule{
			id("octaves"),
			id("distortion"),
			id("lacunarity"),
			id("amplitude"),
			id("scale"),
			id("offset"),
			{Source: "coordSpace", Target: "coord_space",
				Enum: []string{"world", "object", "Pref"}},
		},
	})

	rs.Add("aiAmbientOcclusion", mapping.Rule{
		Target: "ambientOcclusion",
		Attrs: []mapping.AttrRule{
			id("samples"),
			id("spread"),
			ren("nearClip", "near_clip"),
			ren("farClip", "far_clip"),
			id("falloff"),
			id("black"),
			id("white"),
			id("opacity"),
			ren("invertNormals", "invert_normals"),
			ren("selfOnly", "self_only"),
		},
	})

	rs.Add("luminance", mapping.Rule{
		Target: "luminance",
		Attrs:  []mapping.AttrRule{ren("value", "input")},
	})

	rs.Add("clamp", mapping.Rule{
		Target: "clamp",
		Attrs: []mapping.AttrRule{
			id("input"),
			{Source: "min", Target: "min", Transform: "componentMin"},
			{Source: "max", Target: "max", Transform: "componentMax"},
		},
	})

	// The source tool's inputs 1 and 2 are crossed relative to the target
	// mix shader.
	mixAttrs := []mapping.AttrRule{
		ren("color1", "input2"),
		ren("color2", "input1"),
		ren("blender", "mix"),
	}
	rs.Add("blendColors", mapping.Rule{
		Target: "mix_rgba",
		Attrs:  mixAttrs,
	})

	rs.Add("aiUserDataFloat", mapping.Rule{
		Target: "user_data_float",
		Attrs: []mapping.AttrRule{
			ren("floatAttrName", "attribute"),
			ren("defaultValue", "default"),
		},
	})
	rs.Add("aiUserDataColor", mapping.Rule{
		Target: "user_data_rgb",
		Attrs: []mapping.AttrRule{
			ren("colorAttrName", "attribute"),
			ren("defaultValue", "default"),
		},
	})

	rs.Add("aiWriteColor", mapping.Rule{
		Target: "aov_write_rgb",
		Attrs: []mapping.AttrRule{
			ren("beauty", "passthrough"),
			ren("input", "aov_input"),
			ren("aovName", "aov_name"),
			ren("blend", "blend_opacity"),
		},
	})
	rs.Add("aiWriteFloat", mapping.Rule{
		Target: "aov_write_float",
		Attrs: []mapping.AttrRule{
			ren("beauty", "passthrough"),
			ren("input", "aov_input"),
			ren("aovName", "aov_name"),
		},
	})

	rs.Add("aiMultiply", mapping.Rule{
		Target: "multiply",
		Attrs:  []mapping.AttrRule{id("input1"), id("input2")},
	})
	rs.Add("aiDivide", mapping.Rule{
		Target: "divide",
		Attrs:  []mapping.AttrRule{id("input1"), id("input2")},
	})
	rs.Add("aiPow", mapping.Rule{
		Target: "pow",
		Attrs:  []mapping.AttrRule{id("base"), id("exponent")},
	})
	rs.Add("multiplyDivide", mapping.Rule{Expand: expandMultiplyDivide})

	rs.Add("bump2d", mapping.Rule{Expand: expandBump})
	rs.Add("aiBump2d", mapping.Rule{
		Target: "bump2d_ar5",
		Attrs: []mapping.AttrRule{
			ren("bumpMap", "bump_map"),
			ren("bumpHeight", "bump_height"),
			id("normal"),
		},
	})

	rs.Add("ramp", mapping.Rule{Expand: expandRamp})

	rs.Add("samplerInfo", mapping.Rule{Target: "facingRatio"})

	rs.Add("displacementShader", mapping.Rule{
		Target: "range",
		Attrs:  []mapping.AttrRule{ren("displacement", "input")},
	})

	rs.Add("shadingEngine", mapping.Rule{
		Target: "networkMaterial",
		Color:  &colorNetwork,
		Attrs: []mapping.AttrRule{
			ren("aiSurfaceShader", "arnoldSurface"),
			ren("surfaceShader", "arnoldSurface"),
			ren("aiVolumeShader", "arnoldSurface"),
			ren("volumeShader", "arnoldSurface"),
			ren("displacementShader", "arnoldDisplacement"),
		},
	})

	return rs
}

// expandBump switches on the bump interpolation mode: tangent-space normal
// maps become a space transform, everything else stays a bump node.
func expandBump(n *graph.SourceNode) (*mapping.Expansion, error) {
	// bumpInterp values: 0 bump, 1 tangent-space normal, 2 object-space.
	if v, ok := n.Attrs["bumpInterp"]; ok && v.Kind == scene.KindNumber && v.Num == 1 {
		return &mapping.Expansion{
			Nodes: []mapping.ExpandedNode{{
				Type: "spaceTransform",
				Params: []mapping.Param{
					{Name: "type", Value: scene.Enum(2, "normal")},
					{Name: "invert_x", Value: scene.Number(0)},
					{Name: "invert_y", Value: scene.Number(0)},
					{Name: "invert_z", Value: scene.Number(0)},
					{Name: "from", Value: scene.Enum(4, "tangent")},
					{Name: "to", Value: scene.Enum(0, "world")},
					{Name: "color_to_signed", Value: scene.Number(1)},
					{Name: "set_normal", Value: scene.Number(1)},
				},
			}},
			Attrs: []mapping.AttrRule{
				ren("bumpValue", "input"),
				ren("bumpDepth", "scale"),
			},
		}, nil
	}
	return &mapping.Expansion{
		Nodes: []mapping.ExpandedNode{{Type: "bump2d"}},
		Attrs: []mapping.AttrRule{
			ren("bumpValue", "bump_map"),
			ren("bumpDepth", "bump_height"),
		},
	}, nil
}

// expandMultiplyDivide picks the math node for the operation attribute:
// 1 multiply, 2 divide, 3 power.
func expandMultiplyDivide(n *graph.SourceNode) (*mapping.Expansion, error) {
	op := 1.0
	if v, ok := n.Attrs["operation"]; ok && v.Kind == scene.KindNumber {
		op = v.Num
	}
	switch op {
	case 2:
		return &mapping.Expansion{
			Nodes: []mapping.ExpandedNode{{Type: "divide"}},
			Attrs: []mapping.AttrRule{id("input1"), id("input2")},
		}, nil
	case 3:
		return &mapping.Expansion{
			Nodes: []mapping.ExpandedNode{{Type: "pow"}},
			Attrs: []mapping.AttrRule{
				ren("input1", "base"),
				ren("input2", "exponent"),
			},
		}, nil
	}
	return &mapping.Expansion{
		Nodes: []mapping.ExpandedNode{{Type: "multiply"}},
		Attrs: []mapping.AttrRule{id("input1"), id("input2")},
	}, nil
}

var colorEntryRe = regexp.MustCompile(`^colorEntryList\[(\d+)\]\.color$`)

// expandRamp handles the common texture-mixing use of ramps: a ramp whose
// color entries are driven by up to two textures becomes a float ramp
// feeding the mix weight of a mix node. Plain value ramps map directly.
func expandRamp(n *graph.SourceNode) (*mapping.Expansion, error) {
	rampAttrs := []mapping.AttrRule{
		{Source: "type", Target: "type",
			Enum: []string{"v", "u", "diagonal", "radial", "circular", "box"}},
		ren("uCoord", "input"),
		ren("vCoord", "input"),
	}

	var driven []string
	for _, in := range n.Inputs {
		if colorEntryRe.MatchString(in.Name) {
			driven = append(driven, in.Name)
		}
	}
	if len(driven) == 0 || len(driven) > 2 {
		return &mapping.Expansion{
			Nodes: []mapping.ExpandedNode{{Type: "ramp"}},
			Attrs: rampAttrs,
		}, nil
	}

	// The primary node becomes a float ramp driving the mix weight, so
	// downstream consumers see the mix node's output.
	inputs := map[string]mapping.PortRef{
		driven[0]: {Node: "Mix", Port: "input1"},
	}
	if len(driven) == 2 {
		inputs[driven[1]] = mapping.PortRef{Node: "Mix", Port: "input2"}
	}
	return &mapping.Expansion{
		Nodes: []mapping.ExpandedNode{
			{Type: "rampFloat"},
			{Suffix: "Mix", Type: "mix"},
		},
		Edges: []mapping.ExpandEdge{
			{From: mapping.PortRef{Port: "out"}, To: mapping.PortRef{Node: "Mix", Port: "mix"}},
		},
		Terminal: "Mix",
		Inputs:   inputs,
		Attrs:    rampAttrs,
	}, nil
}
