package pipeline

import (
	"holoprofile/internal/artifact"
	llmclient "holoprofile/internal/llmClient"
	"holoprofile/internal/llmtool"
)

const genericInstructions = "No specific dimension was detected. Give a general personality reading grounded only in the answers."

func analysisPrompt(context, instructions, lang string) (llmclient.Prompt, error) {
	if instructions == "" {
		instructions = genericInstructions
	}
	language := llmtool.LanguageName(lang)
	spec := llmtool.ApplyPresets(llmtool.StructuredPromptSpec{
		Purpose: "Perform a deep, multi-dimensional psychological analysis of one respondent's self-assessment answers.",
		Background: "Answers come from a localized questionnaire. Scale items show their bounds and pole labels; " +
			"choice items show the option list and the selected option.",
		Instructions: instructions,
		Rules: []string{
			"Cite the question ids that support each finding.",
			"Point out answers that contradict each other.",
			"If a safety marker is present in INSTRUCTIONS, open the analysis with a clear safety warning and crisis-support advice.",
		},
		OutputFormat: "Plain prose with short headed paragraphs. No JSON.",
		Language:     "Respond only in " + language + ".",
		Inputs:       []llmtool.PromptInput{{Title: "ANSWERS", Body: context}},
	}, llmtool.PresetNoInvent(), llmtool.PresetCautious())
	return spec.Build()
}

func synthesisSpec(context, analysis, lang, outputFormat string, output llmtool.PromptPreset) llmtool.StructuredPromptSpec {
	language := llmtool.LanguageName(lang)
	return llmtool.ApplyPresets(llmtool.StructuredPromptSpec{
		Purpose: "Turn the expert analysis into the final personality report.",
		Background: "The report is shown to the respondent. The tone is candid, a light roast that stays insightful, " +
			"with real praise for strengths and an honest look at the dark side.",
		Rules: []string{
			"identity_card.mbti is a four-letter type code such as INTJ.",
			"identity_card.ideology is one well-known ideology label; explain the fit in analysis.ideology_note.",
			"Clinical levels are None, Low, Medium or High; use None when the answers give no evidence.",
			"integrity_analysis.consistency_score rates internal consistency from 0 to 100; list concrete contradictions in conflicts.",
			"dimensions values run from 0 to 100 toward the second pole of axis_label.",
		},
		OutputFormat: outputFormat,
		Language:     "Every string value must be written in " + language + ".",
		Inputs: []llmtool.PromptInput{
			{Title: "ANALYSIS", Body: analysis},
			{Title: "ANSWERS", Body: context},
		},
	}, output, llmtool.PresetLanguage(language))
}

// synthesisPrompt embeds the JSON template for free-text generation.
func synthesisPrompt(context, analysis, lang string) (llmclient.Prompt, error) {
	spec := synthesisSpec(context, analysis, lang,
		"A single JSON object with exactly the keys of TEMPLATE.", llmtool.PresetStrictJSON())
	spec.Template = artifact.ExampleJSON()
	return spec.Build()
}

// fallbackPrompt relies on the provider-enforced schema instead of a template.
func fallbackPrompt(context, analysis, lang string) (llmclient.Prompt, error) {
	return synthesisSpec(context, analysis, lang,
		"A single JSON object matching the response schema.", llmtool.PresetSchemaJSON()).Build()
}
