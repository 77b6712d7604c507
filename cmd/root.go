package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/sanlang/internal/config"
	"github.com/abhisek/sanlang/internal/llm"
	"github.com/abhisek/sanlang/internal/logging"
	"github.com/abhisek/sanlang/internal/proficiency"
	"github.com/abhisek/sanlang/internal/store"
)

// cfg is loaded once before any command runs.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "sanlang",
	Short: "Language learning backend",
	Long: "sanlang tracks learner progress, recommends reading material, drips deck\n" +
		"vocabulary, generates graded stories and serves all of it over HTTP.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		c, err := config.Load(path)
		if err != nil {
			return err
		}
		cfg = c
		logging.Init(cfg.Logging)
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStudy(cmd, "")
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Database DSN or SQLite path (overrides store.dsn and SANLANG_DB)")
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(studyCmd)
	rootCmd.AddCommand(progressCmd)
	rootCmd.AddCommand(recommendCmd)
	rootCmd.AddCommand(deckCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(storiesCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(backfillCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(levelsCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDSN returns the store DSN: --db first, then store.dsn from
// configuration, then the default SQLite path.
func resolveDSN(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	if cfg != nil && cfg.Store.DSN != "" {
		return cfg.Store.DSN, store.EnsureDir(cfg.Store.DSN)
	}
	return store.DefaultDBPath()
}

func openStore(cmd *cobra.Command) (*store.Store, error) {
	dsn, err := resolveDSN(cmd)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	s, err := store.Open(dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}

func proficiencyModel() (*proficiency.Model, error) {
	m, err := proficiency.New(cfg.Proficiency)
	if err != nil {
		return nil, fmt.Errorf("proficiency scales: %w", err)
	}
	return m, nil
}

// llmProvider builds the configured provider, logging requests to s. It
// returns nil and prints a notice when no API key is available.
func llmProvider(ctx context.Context, s *store.Store) llm.Provider {
	lc := cfg.LLM
	if !lc.Discover() {
		fmt.Fprintln(os.Stderr, "LLM provider not configured:", lc.Validate())
		fmt.Fprintln(os.Stderr, "AI features will be unavailable.")
		return nil
	}
	p, err := llm.NewProvider(ctx, lc, s.EventRepo())
	if err != nil {
		fmt.Fprintln(os.Stderr, "LLM provider not available:", err)
		return nil
	}
	return p
}
