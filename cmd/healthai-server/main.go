package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/healthai/healthai/internal/config"
	"github.com/healthai/healthai/internal/domain/chat"
	"github.com/healthai/healthai/internal/domain/prediction"
	"github.com/healthai/healthai/internal/domain/treatment"
	"github.com/healthai/healthai/internal/knowledge"
)

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = "0.1.0"

type cliOptions struct {
	kbPath string
	json   bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &cliOptions{}
	rootCmd := &cobra.Command{
		Use:          "healthai-server",
		Short:        "HealthAI matching and plan engine",
		Version:      Version,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.kbPath, "kb", "", "knowledge base YAML file (overrides KB_PATH)")
	rootCmd.PersistentFlags().BoolVar(&opts.json, "json", false, "print results as JSON")

	rootCmd.AddCommand(serveCmd(opts))
	rootCmd.AddCommand(kbCmd(opts))
	rootCmd.AddCommand(predictCmd(opts))
	rootCmd.AddCommand(planCmd(opts))
	rootCmd.AddCommand(askCmd(opts))
	return rootCmd
}

func serveCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if opts.kbPath != "" {
				cfg.KBPath = opts.kbPath
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}
			return runServer(cfg)
		},
	}
}

func kbCmd(opts *cliOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kb",
		Short: "Inspect the knowledge base",
	}

	// kb validate
	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Load the knowledge base and report every problem found",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			kb, err := loadKB(opts.kbPath)
			var cfgErr *knowledge.ConfigError
			if errors.As(err, &cfgErr) {
				for _, p := range cfgErr.Problems() {
					fmt.Fprintf(out, "- %v\n", p)
				}
				return fmt.Errorf("%s: %d problem(s)", cfgErr.Source, len(cfgErr.Problems()))
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "knowledge base OK: %d conditions, %d treatment templates, %d chat rules\n",
				kb.Len(), len(kb.Templates()), len(kb.ChatRules()))
			return nil
		},
	}

	// kb list
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the conditions in the knowledge base",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kb, err := loadKB(opts.kbPath)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if opts.json {
				return writeJSON(out, kb.Conditions())
			}
			for _, c := range kb.Conditions() {
				fmt.Fprintf(out, "%s: %s\n", c.Name, strings.Join(c.Symptoms, ", "))
			}
			return nil
		},
	}

	cmd.AddCommand(validateCmd, listCmd)
	return cmd
}

func predictCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "predict <symptom>...",
		Short: "Rank conditions for the given symptoms",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kb, err := loadKB(opts.kbPath)
			if err != nil {
				return err
			}
			results, err := prediction.NewMatcher(kb).Match(args)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if opts.json {
				return writeJSON(out, results)
			}
			if len(results) == 0 {
				fmt.Fprintln(out, "no matching conditions")
				return nil
			}
			for _, r := range results {
				fmt.Fprintf(out, "%3d%%  %-8s  %s (%s)\n", r.Likelihood, r.Band, r.Condition, strings.Join(r.MatchedSymptoms, ", "))
			}
			return nil
		},
	}
}

func planCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "plan <condition>",
		Short: "Print the treatment plan for a condition",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kb, err := loadKB(opts.kbPath)
			if err != nil {
				return err
			}
			plan := treatment.NewGenerator(kb).Generate(strings.Join(args, " "))
			out := cmd.OutOrStdout()
			if opts.json {
				return writeJSON(out, plan)
			}
			fmt.Fprintf(out, "Treatment plan for %s (%s)\n", plan.Condition, plan.Source)
			if len(plan.Medications) > 0 {
				fmt.Fprintln(out, "\nMedications:")
				for _, m := range plan.Medications {
					fmt.Fprintf(out, "  - %s %s, %s, %s\n", m.Name, m.Dosage, m.Frequency, m.Duration)
				}
			}
			printSection(out, "Lifestyle", plan.Lifestyle)
			printSection(out, "Follow-up", plan.FollowUp)
			printSection(out, "Warnings", plan.Warnings)
			return nil
		},
	}
}

func askCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ask <message>",
		Short: "Ask the assistant a question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kb, err := loadKB(opts.kbPath)
			if err != nil {
				return err
			}
			text := strings.Join(args, " ")
			reply := chat.NewResponder(kb).Respond(text)
			out := cmd.OutOrStdout()
			if opts.json {
				return writeJSON(out, chat.NewAssistantMessage(reply))
			}
			fmt.Fprintln(out, reply)
			return nil
		},
	}
}

// loadKB loads the knowledge base from path, falling back to KB_PATH and then
// to the embedded default.
func loadKB(path string) (*knowledge.Base, error) {
	if path == "" {
		cfg, err := config.Load()
		if err != nil {
			return nil, err
		}
		path = cfg.KBPath
	}
	if path == "" {
		return knowledge.Default()
	}
	return knowledge.Load(path)
}

func printSection(w io.Writer, title string, lines []string) {
	if len(lines) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s:\n", title)
	for _, l := range lines {
		fmt.Fprintf(w, "  - %s\n", l)
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
