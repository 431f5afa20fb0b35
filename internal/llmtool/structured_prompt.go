package llmtool

import (
	"bytes"
	"fmt"
	"strings"

	llmclient "holoprofile/internal/llmClient"
)

// PromptInput is a titled block of user-side input data.
type PromptInput struct {
	Title string
	Body  string
}

// StructuredPromptSpec defines the sections for a structured prompt. System
// sections go to the system message; Inputs and Template go to the user
// message.
type StructuredPromptSpec struct {
	Purpose      string
	Background   string
	Instructions string
	Constraints  []string
	Rules        []string
	OutputFormat string
	Language     string
	Inputs       []PromptInput
	Template     string
}

// Build renders spec into a system+user prompt pair.
func (spec StructuredPromptSpec) Build() (llmclient.Prompt, error) {
	if strings.TrimSpace(spec.Purpose) == "" {
		return llmclient.Prompt{}, fmt.Errorf("llmtool: purpose is empty")
	}
	if len(spec.Inputs) == 0 {
		return llmclient.Prompt{}, fmt.Errorf("llmtool: inputs are empty")
	}

	var sys bytes.Buffer
	writeSection(&sys, "PURPOSE", spec.Purpose)
	writeSection(&sys, "BACKGROUND", spec.Background)
	writeSection(&sys, "INSTRUCTIONS", spec.Instructions)
	writeSection(&sys, "CONSTRAINTS", formatList(spec.Constraints))
	writeSection(&sys, "RULES", formatList(spec.Rules))
	writeSection(&sys, "OUTPUT_FORMAT", spec.OutputFormat)
	writeSection(&sys, "LANGUAGE", spec.Language)

	var user bytes.Buffer
	for _, in := range spec.Inputs {
		writeSection(&user, strings.ToUpper(strings.TrimSpace(in.Title)), in.Body)
	}
	writeSection(&user, "TEMPLATE", spec.Template)

	return llmclient.Prompt{
		System: strings.TrimSpace(sys.String()) + "\n",
		User:   strings.TrimSpace(user.String()) + "\n",
	}, nil
}

func formatList(items []string) string {
	if len(items) == 0 {
		return ""
	}
	var buf strings.Builder
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		fmt.Fprintf(&buf, "- %s\n", item)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func writeSection(buf *bytes.Buffer, title, body string) {
	if strings.TrimSpace(body) == "" {
		return
	}
	buf.WriteString("[")
	buf.WriteString(title)
	buf.WriteString("]\n")
	buf.WriteString(body)
	if !strings.HasSuffix(body, "\n") {
		buf.WriteString("\n")
	}
	buf.WriteString("\n")
}

// LanguageName returns the name used in prompts for a request language.
// Empty means Chinese; unknown codes get English.
func LanguageName(lang string) string {
	switch strings.ToLower(strings.TrimSpace(lang)) {
	case "", "zh":
		return "Simplified Chinese (简体中文)"
	case "ja":
		return "Japanese (日本語)"
	default:
		return "English"
	}
}
