// Package prman registers the built-in RenderMan rule set. Pxr shaders
// share the target tool's parameter names, so the table is mostly about the
// network material boundary and the few utility nodes that differ.
package prman

import (
	"github.com/lookdevkit/shaderbridge/pkg/mapping"
	"github.com/lookdevkit/shaderbridge/pkg/mapping/rulesets"
)

// Name is the rule set's registry name.
const Name = "prman"

var (
	colorNetwork = [3]float64{0.4, 0.35, 0.2}
	colorTexture = [3]float64{0.36, 0.25, 0.38}
)

// id keeps an attribute under its source name; Pxr parameters carry over
// verbatim.
func id(name string) mapping.AttrRule {
	return mapping.AttrRule{Source: name, Target: name}
}

func ids(names ...string) []mapping.AttrRule {
	out := make([]mapping.AttrRule, 0, len(names))
	for _, n := range names {
		out = append(out, id(n))
	}
	return out
}

func init() {
	rulesets.Register(RuleSet())
}

// RuleSet builds the RenderMan rule set.
func RuleSet() *mapping.RuleSet {
	rs := mapping.NewRuleSet(Name)

	rs.Add("shadingEngine", mapping.Rule{
		Target: "networkMaterial",
		Color:  &colorNetwork,
		Attrs: []mapping.AttrRule{
			{Source: "surfaceShader", Target: "prmanBxdf"},
			{Source: "volumeShader", Target: "prmanBxdf"},
			{Source: "displacementShader", Target: "prmanDisplacement"},
		},
	})

	rs.Add("displacementShader", mapping.Rule{
		Target: "range",
		Attrs:  []mapping.AttrRule{{Source: "displacement", Target: "input"}},
	})

	rs.Add("PxrSurface", mapping.Rule{
		Target: "PxrSurface",
		Attrs: ids(
			"diffuseGain", "diffuseColor", "diffuseRoughness",
			"diffuseExponent", "diffuseBumpNormal", "diffuseDoubleSided",
			"specularFresnelMode", "specularFaceColor", "specularEdgeColor",
			"specularFresnelShape", "specularIor", "specularExtinctionCoeff",
			"specularRoughness", "specularModelType", "specularAnisotropy",
			"specularBumpNormal", "specularDoubleSided",
			"clearcoatFaceColor", "clearcoatEdgeColor", "clearcoatRoughness",
			"iridescenceFaceGain", "iridescenceEdgeGain",
			"fuzzGain", "fuzzColor", "fuzzConeAngle",
			"subsurfaceGain", "subsurfaceColor", "subsurfaceDmfp",
			"subsurfaceDmfpColor", "singlescatterGain", "singlescatterColor",
			"glassIor", "glassRoughness", "refractionGain", "reflectionGain",
			"refractionColor", "glowGain", "glowColor",
			"bumpNormal", "presence", "utilityPattern",
		),
	})
	rs.Add("PxrDisney", mapping.Rule{
		Target: "PxrDisney",
		Attrs: ids(
			"baseColor", "emitColor", "subsurface", "metallic", "specular",
			"specularTint", "roughness", "anisotropic", "sheen", "sheenTint",
			"clearcoat", "clearcoatGloss", "bumpNormal", "presence",
		),
	})
	rs.Add("PxrTexture", mapping.Rule{
		Target: "PxrTexture",
		Color:  &colorTexture,
		Attrs: append([]mapping.AttrRule{
			{Source: "filename", Target: "filename", Transform: "extension:.tx"},
		}, ids(
			"firstChannel", "atlasStyle", "invertT", "filter", "blur",
			"lerp", "missingColor", "missingAlpha", "linearize", "manifold",
		)...),
	})
	rs.Add("PxrNormalMap", mapping.Rule{
		Target: "PxrNormalMap",
		Color:  &colorTexture,
		Attrs: append([]mapping.AttrRule{
			{Source: "filename", Target: "filename", Transform: "extension:.tx"},
		}, ids(
			"bumpScale", "inputRGB", "flipX", "flipY", "orientation",
			"invertBump", "adjustAmount",
		)...),
	})
	rs.Add("PxrMix", mapping.Rule{
		Target: "PxrMix",
		Attrs:  ids("color1", "color2", "mix"),
	})

	return rs
}
