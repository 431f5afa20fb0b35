package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"holoprofile/internal/gateway/handler"
	llmclient "holoprofile/internal/llmClient"
	"holoprofile/internal/pipeline"
	"holoprofile/internal/util/jsonutil"
)

func (c *cli) analyzeCmd() *cobra.Command {
	var (
		answersPath string
		lang        string
		model       string
		stream      bool
	)
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run the analysis pipeline on an answers file",
		Long: `Reads answers from a JSON file ("-" for stdin) and prints the final profile.
The file holds either an array of {"questionId","value"} objects or a request
body as accepted by POST /api/analyze. With --stream the NDJSON frames are
printed as they arrive.`,
		Example: `  holoprofile analyze --answers answers.json --lang en
  holoprofile --provider fake analyze --answers - --stream < answers.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req, err := readAnalyzeRequest(cmd.InOrStdin(), answersPath)
			if err != nil {
				return err
			}
			st := pipeline.State{Answers: req.Answers, Lang: req.Lang}
			if req.Config != nil {
				st.Config = *req.Config
			}
			if lang != "" {
				st.Lang = lang
			}
			if model != "" {
				st.Config.Model = model
			}

			a, err := c.app()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !stream {
				profile, err := a.Pipeline.Run(cmd.Context(), st)
				if err != nil {
					return fmt.Errorf("analysis failed: %s", pipeline.ErrorMessage(err))
				}
				return printJSON(out, profile)
			}

			var failed any
			for ev := range a.Pipeline.Stream(cmd.Context(), st) {
				line, err := jsonutil.MarshalNoEscape(ev)
				if err != nil {
					return err
				}
				if _, err := fmt.Fprintln(out, string(line)); err != nil {
					return err
				}
				if ev.Type == pipeline.EventError {
					failed = ev.Data
				}
			}
			if failed != nil {
				return fmt.Errorf("analysis failed: %v", failed)
			}
			return cmd.Context().Err()
		},
	}
	f := cmd.Flags()
	f.StringVarP(&answersPath, "answers", "a", "", "answers JSON file, or - for stdin")
	f.StringVar(&lang, "lang", "", "report language: zh, en or ja (default zh)")
	f.StringVar(&model, "model", "", "model name (overrides LLM_MODEL)")
	f.BoolVar(&stream, "stream", false, "print NDJSON frames instead of the final profile")
	_ = cmd.MarkFlagRequired("answers")
	return cmd
}

func (c *cli) probeCmd() *cobra.Command {
	var cfg llmclient.ModelConfig
	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Check that the configured model answers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.app()
			if err != nil {
				return err
			}
			res, err := a.Factory.Probe(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("probe failed: %s", pipeline.ErrorMessage(err))
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	f := cmd.Flags()
	f.StringVar(&cfg.Model, "model", "", "model name (overrides LLM_MODEL)")
	f.StringVar(&cfg.BaseURL, "base-url", "", "provider base URL (overrides OPENAI_BASE_URL)")
	return cmd
}

func readAnalyzeRequest(stdin io.Reader, path string) (handler.AnalyzeRequest, error) {
	var req handler.AnalyzeRequest
	var raw []byte
	var err error
	if path == "-" {
		raw, err = io.ReadAll(stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return req, fmt.Errorf("failed to read answers: %w", err)
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '[' {
		err = json.Unmarshal(raw, &req.Answers)
	} else {
		err = json.Unmarshal(raw, &req)
	}
	if err != nil {
		return req, fmt.Errorf("failed to parse answers: %w", err)
	}
	return req, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
