package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"holoprofile/internal/questionbank"
)

func (c *cli) questionsCmd() *cobra.Command {
	var (
		lang  string
		mode  string
		extra []string
	)
	cmd := &cobra.Command{
		Use:   "questions [assessment-id]",
		Short: "List assessments, or print the questions of one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.app()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				reg, err := a.Loader.Registry()
				if err != nil {
					return err
				}
				return printJSON(out, reg)
			}

			doc, loc, err := a.Loader.Document(args[0], lang)
			if err != nil {
				return err
			}
			if mode == "" {
				return printJSON(out, doc)
			}
			if _, ok := doc.Schemes[mode]; !ok {
				return fmt.Errorf("%w: mode %q in %s/%s", questionbank.ErrNotFound, mode, args[0], loc)
			}
			for _, q := range doc.Questions(mode, extra) {
				if _, err := fmt.Fprintf(out, "%s\t%s\t%s\n", q.ID, q.Type, q.Text.Get(string(loc))); err != nil {
					return err
				}
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&lang, "lang", "", "document locale (falls back to zh)")
	f.StringVar(&mode, "mode", "", "scheme to flatten, e.g. quick or full")
	f.StringSliceVar(&extra, "extra", nil, "extra section ids for full mode")
	return cmd
}
