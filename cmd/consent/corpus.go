package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/4thel00z/consent/internal"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var errCorpusInvalid = errors.New("corpus has errors")

func NewCorpusCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "corpus",
		Short: "Inspect and maintain the example corpus",
	}

	cmd.AddCommand(
		newCorpusListCmd(a),
		newCorpusCheckCmd(a),
		newCorpusDiffCmd(a),
		newCorpusLogCmd(a),
		newCorpusExpandCmd(a),
	)
	return cmd
}

// corpusFor loads the corpus named by args, falling back to the configured
// one and then the built-in one.
func corpusFor(a *app, args []string) (*internal.Corpus, string, error) {
	if len(args) > 0 {
		c, err := internal.LoadCorpus(args[0])
		return c, args[0], err
	}
	cfg := a.Config()
	c, err := cfg.LoadCorpus()
	if cfg.Corpus.Path == "" {
		return c, "(built-in)", err
	}
	return c, cfg.Corpus.Path, err
}

func newCorpusListCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list [file]",
		Short: "List corpus examples in tie-break order",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, _ := cmd.Flags().GetBool("json")
			filter, _ := cmd.Flags().GetString("category")

			corpus, _, err := corpusFor(a, args)
			if err != nil {
				return err
			}

			var only *internal.Category
			if filter != "" {
				cat, err := internal.ParseCategory(filter)
				if err != nil {
					return err
				}
				only = &cat
			}

			type row struct {
				Position int    `json:"position"`
				Category string `json:"category"`
				Code     int    `json:"code"`
				Text     string `json:"text"`
			}
			var rows []row
			for i, ex := range corpus.Examples() {
				if only != nil && ex.Category != *only {
					continue
				}
				rows = append(rows, row{Position: i, Category: ex.Category.String(), Code: ex.Category.Code(), Text: ex.Text})
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(rows)
			}

			for _, r := range rows {
				fmt.Fprintf(cmd.OutOrStdout(), "%3d  %-13s  %s\n", r.Position, r.Category, r.Text)
			}
			return nil
		},
	}

	cmd.Flags().String("category", "", "Only list one category")
	return cmd
}

func newCorpusCheckCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [file]",
		Short: "Validate a corpus file",
		Long:  `Report conflicting and duplicate phrases. With --watch, check again every time the file changes.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			watch, _ := cmd.Flags().GetBool("watch")
			debounce, _ := cmd.Flags().GetDuration("debounce")

			err := runCorpusCheck(cmd.OutOrStdout(), a, args)
			if !watch {
				return err
			}

			_, path, _ := corpusFor(a, args)
			if len(args) == 0 && a.Config().Corpus.Path == "" {
				return fmt.Errorf("--watch needs a corpus file")
			}
			return watchCorpus(cmd, path, debounce, func() {
				_ = runCorpusCheck(cmd.OutOrStdout(), a, args)
			})
		},
	}

	cmd.Flags().Bool("watch", false, "Re-check on every change")
	cmd.Flags().Duration("debounce", 300*time.Millisecond, "Debounce window for batching changes")
	return cmd
}

func runCorpusCheck(w io.Writer, a *app, args []string) error {
	corpus, path, err := corpusFor(a, args)
	if err != nil {
		fmt.Fprintf(w, "%s: %v\n", path, err)
		return err
	}

	issues := corpus.Check()
	failed := false
	for _, is := range issues {
		if is.Severity == "error" {
			failed = true
		}
		fmt.Fprintf(w, "%s: %s: %s\n", path, is.Severity, is.Message)
	}

	fmt.Fprintf(w, "%s: %d examples (%d affirmative, %d negative, %d indeterminate), %d issues\n",
		path, corpus.Len(),
		corpus.Count(internal.Affirmative), corpus.Count(internal.Negative), corpus.Count(internal.Indeterminate),
		len(issues),
	)
	if failed {
		return errCorpusInvalid
	}
	return nil
}

// watchCorpus watches the file's directory, since editors often replace
// files by rename, and calls onChange once per burst of events on path.
func watchCorpus(cmd *cobra.Command, path string, debounce time.Duration, onChange func()) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Watching %s for changes...\n", path)

	timer := time.NewTimer(0)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false

	for {
		select {
		case <-cmd.Context().Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isCorpusEvent(event, abs) {
				continue
			}
			if !pending {
				timer.Reset(debounce)
				pending = true
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "watch error: %v\n", err)
		case <-timer.C:
			pending = false
			onChange()
		}
	}
}

func isCorpusEvent(event fsnotify.Event, path string) bool {
	if filepath.Clean(event.Name) != path {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}

func newCorpusDiffCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diff <old> <new> | diff --rev <ref> [file]",
		Short: "Show example changes between two corpus versions",
		Long: `Compare two corpus files, or with --rev compare a corpus file against the
version committed at a git revision of the repository that contains it.`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			showContext, _ := cmd.Flags().GetBool("context")
			rev, _ := cmd.Flags().GetString("rev")

			var before, after *internal.Corpus
			switch {
			case rev != "" && len(args) <= 1:
				path := a.Config().Corpus.Path
				if len(args) == 1 {
					path = args[0]
				}
				if path == "" {
					return fmt.Errorf("--rev needs a corpus file")
				}

				history, err := internal.OpenCorpusHistory(path)
				if err != nil {
					return err
				}
				if before, err = history.At(rev); err != nil {
					return err
				}
				if after, err = internal.LoadCorpus(path); err != nil {
					return err
				}

			case rev == "" && len(args) == 2:
				var err error
				if before, err = internal.LoadCorpus(args[0]); err != nil {
					return err
				}
				if after, err = internal.LoadCorpus(args[1]); err != nil {
					return err
				}

			default:
				return fmt.Errorf("expected two corpus files, or --rev with at most one")
			}

			lines, err := internal.DiffCorpora(before, after)
			if err != nil {
				return err
			}

			if !internal.Changed(lines) {
				fmt.Fprintln(cmd.OutOrStdout(), "No changes.")
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), internal.FormatDiff(lines, showContext))
			return nil
		},
	}

	cmd.Flags().Bool("context", false, "Show unchanged lines too")
	cmd.Flags().String("rev", "", "Compare against the corpus committed at this git revision")
	return cmd
}

func newCorpusLogCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "log [file]",
		Short: "Show the git commits that changed the corpus file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("number")
			oneline, _ := cmd.Flags().GetBool("oneline")
			asJSON, _ := cmd.Flags().GetBool("json")

			path := a.Config().Corpus.Path
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" {
				return fmt.Errorf("the built-in corpus has no history; pass a corpus file")
			}

			history, err := internal.OpenCorpusHistory(path)
			if err != nil {
				return err
			}
			revs, err := history.Log(limit)
			if err != nil {
				return fmt.Errorf("get log: %w", err)
			}

			if asJSON {
				out := make([]map[string]any, 0, len(revs))
				for _, r := range revs {
					out = append(out, map[string]any{
						"hash":      r.Hash,
						"message":   r.Message,
						"author":    r.Author,
						"timestamp": r.Timestamp,
					})
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}

			for _, r := range revs {
				if oneline {
					fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", r.Hash[:7], r.Message)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "commit %s\n", r.Hash)
				fmt.Fprintf(cmd.OutOrStdout(), "Author: %s\n", r.Author)
				fmt.Fprintf(cmd.OutOrStdout(), "Date:   %s\n\n", r.Timestamp.Format("Mon Jan 2 15:04:05 2006 -0700"))
				fmt.Fprintf(cmd.OutOrStdout(), "    %s\n\n", r.Message)
			}
			return nil
		},
	}

	cmd.Flags().IntP("number", "n", 10, "Limit number of commits")
	cmd.Flags().Bool("oneline", false, "Show each commit on one line")
	return cmd
}

func newCorpusExpandCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "expand",
		Short: "Propose new example phrases with an LLM",
		Long: `Ask the configured LLM provider for paraphrases of one category. The
proposals are printed as a YAML snippet for review; with --output the whole
extended corpus is written to a new file. The running corpus is never changed.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			catName, _ := cmd.Flags().GetString("category")
			count, _ := cmd.Flags().GetInt("count")
			providerName, _ := cmd.Flags().GetString("provider")
			output, _ := cmd.Flags().GetString("output")

			cat, err := internal.ParseCategory(catName)
			if err != nil {
				return err
			}

			corpus, _, err := corpusFor(a, nil)
			if err != nil {
				return err
			}

			provider, err := internal.NewProvider(cmd.Context(), a.Config(), providerName)
			if err != nil {
				return err
			}

			out, err := internal.NewExpandCorpusUseCase(corpus, provider).Execute(cmd.Context(), internal.ExpandCorpusInput{
				Category: cat,
				Count:    count,
			})
			if err != nil {
				return fmt.Errorf("expand corpus: %w", err)
			}

			return writeExpansion(cmd, out, output)
		},
	}

	cmd.Flags().String("category", "affirmative", "Category to expand")
	cmd.Flags().Int("count", 10, "Number of phrases to request")
	cmd.Flags().String("provider", "", "Provider name (defaults to default_provider)")
	cmd.Flags().StringP("output", "o", "", "Write the extended corpus to this file")
	return cmd
}

func writeExpansion(cmd *cobra.Command, out *internal.ExpandCorpusOutput, output string) error {
	for _, r := range out.Rejected {
		fmt.Fprintf(cmd.ErrOrStderr(), "skipped %q: already in corpus\n", r)
	}

	if output != "" {
		if err := internal.SaveCorpus(output, out.Extended); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d examples (%d new) to %s\n", out.Extended.Len(), len(out.Proposed), output)
		return nil
	}

	data, err := yaml.Marshal(map[string][]string{out.Category.String(): out.Proposed})
	if err != nil {
		return fmt.Errorf("marshal proposals: %w", err)
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}
