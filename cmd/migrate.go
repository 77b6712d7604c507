package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/sanlang/internal/mediamigrate"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Data migrations",
}

var migrateMediaCmd = &cobra.Command{
	Use:   "media",
	Short: "Move media objects with percent-encoded keys to canonical keys",
	Long: "Finds story and chapter media whose URL carries percent-encoded path\n" +
		"segments, locates the object in the bucket, copies it to the decoded\n" +
		"key and rewrites the stored URL. Run with --dry-run first.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.ValidateStorage(); err != nil {
			return err
		}
		opts := mediamigrate.Options{Limit: cfg.Migration.Limit}
		if cmd.Flags().Changed("limit") {
			opts.Limit, _ = cmd.Flags().GetInt("limit")
		}
		opts.DryRun, _ = cmd.Flags().GetBool("dry-run")
		opts.After, _ = cmd.Flags().GetString("after")
		verbose, _ := cmd.Flags().GetBool("verbose")

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		objs, err := objectStore()
		if err != nil {
			return err
		}
		m, err := newMigrator(s, objs)
		if err != nil {
			return err
		}

		report, err := m.Run(cmd.Context(), opts)
		if err != nil {
			return err
		}

		for _, r := range report.Results {
			if !verbose && r.Outcome == mediamigrate.OutcomeSkipped {
				continue
			}
			line := fmt.Sprintf("%-9s %-8s %s", r.Outcome, r.Kind, r.ID)
			if r.NewURL != "" {
				line += "\n    " + r.OldURL + "\n -> " + r.NewURL
			}
			if r.Error != "" {
				line += "\n    " + r.Error
			}
			fmt.Println(line)
		}

		fmt.Println(strings.Repeat("─", 40))
		mode := ""
		if report.DryRun {
			mode = " (dry run)"
		}
		fmt.Printf("Migrated %d, skipped %d, failed %d%s.\n", report.Migrated, report.Skipped, report.Failed, mode)
		if n := len(report.Results); n > 0 {
			fmt.Printf("Resume with --after %s\n", report.Results[n-1].ID)
		}
		if report.Failed > 0 {
			return fmt.Errorf("%d record(s) failed", report.Failed)
		}
		return nil
	},
}

func init() {
	migrateMediaCmd.Flags().IntP("limit", "n", 0, "Records to act on (default migration.limit, 0 for all)")
	migrateMediaCmd.Flags().Bool("dry-run", false, "Report what would change without copying or updating")
	migrateMediaCmd.Flags().String("after", "", "Resume after this record ID")
	migrateMediaCmd.Flags().BoolP("verbose", "v", false, "Also list skipped records")

	migrateCmd.AddCommand(migrateMediaCmd)
}
