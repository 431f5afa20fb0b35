package llmtool

// PromptPreset holds reusable constraints and rules for structured prompts.
type PromptPreset struct {
	Constraints []string
	Rules       []string
}

// ApplyPresets prepends preset constraints/rules to a structured prompt spec.
func ApplyPresets(spec StructuredPromptSpec, presets ...PromptPreset) StructuredPromptSpec {
	if len(presets) == 0 {
		return spec
	}
	var merged PromptPreset
	for _, p := range presets {
		merged.Constraints = append(merged.Constraints, p.Constraints...)
		merged.Rules = append(merged.Rules, p.Rules...)
	}
	spec.Constraints = append(merged.Constraints, spec.Constraints...)
	spec.Rules = append(merged.Rules, spec.Rules...)
	return spec
}

// PresetStrictJSON enforces a bare JSON object shaped like the TEMPLATE
// section.
func PresetStrictJSON() PromptPreset {
	return PromptPreset{
		Constraints: []string{
			"Return one JSON object only.",
			"Match the template keys exactly; no extra fields.",
			"No markdown code fences, comments, or trailing commas.",
			"Every 0-100 number must be an integer between 0 and 100.",
		},
	}
}

// PresetSchemaJSON is PresetStrictJSON for structured generation, where the
// provider enforces a response schema and no template is sent.
func PresetSchemaJSON() PromptPreset {
	return PromptPreset{
		Constraints: []string{
			"Return one JSON object that conforms to the response schema.",
			"Fill every required field of the schema; no extra fields.",
			"Every 0-100 number must be an integer between 0 and 100.",
		},
	}
}

// PresetNoInvent prevents findings without supporting answers.
func PresetNoInvent() PromptPreset {
	return PromptPreset{
		Constraints: []string{
			"Analyze only the dimensions named in INSTRUCTIONS; do not fabricate findings for dimensions without answers.",
		},
	}
}

// PresetCautious encourages explicit uncertainty.
func PresetCautious() PromptPreset {
	return PromptPreset{
		Rules: []string{
			"Avoid guessing; if the answers are insufficient, say so plainly instead of inventing detail.",
		},
	}
}

// PresetLanguage requires every generated string to be written in the
// named language.
func PresetLanguage(name string) PromptPreset {
	return PromptPreset{
		Constraints: []string{
			"Write every string value in " + name + ", including labels, tags and short fields. Keep JSON keys in English.",
		},
	}
}
