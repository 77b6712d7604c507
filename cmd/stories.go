package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/sanlang/internal/store"
	"github.com/abhisek/sanlang/internal/storygen"
)

var storiesCmd = &cobra.Command{
	Use:   "stories",
	Short: "Browse and import graded reader stories",
}

var storiesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stories in the catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		lang, _ := cmd.Flags().GetString("lang")
		level, _ := cmd.Flags().GetString("level")
		limit, _ := cmd.Flags().GetInt("limit")

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		svc, err := buildServices(cmd.Context(), s, false)
		if err != nil {
			return err
		}
		list, err := svc.catalog.List(cmd.Context(), store.ContentFilter{
			Language: lang,
			Level:    strings.ToUpper(level),
			Limit:    limit,
		})
		if err != nil {
			return err
		}
		if len(list) == 0 {
			fmt.Println("No stories found.")
			return nil
		}
		fmt.Printf("%-36s  %-4s  %-12s  %3s  %s\n", "ID", "Lvl", "Genre", "Ch", "Title")
		fmt.Println(strings.Repeat("─", 90))
		for _, st := range list {
			q := ""
			if !st.HasQuestions {
				q = " (no questions)"
			}
			fmt.Printf("%-36s  %-4s  %-12s  %3d  %s%s\n",
				st.ID, st.Level, truncate(st.Genre, 12), st.ChapterCount, st.Title, q)
		}
		return nil
	},
}

var storiesImportCmd = &cobra.Command{
	Use:   "import-url <url>",
	Short: "Extract an article from a web page and save it as a story",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lang, _ := cmd.Flags().GetString("lang")
		level, _ := cmd.Flags().GetString("level")

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		svc, err := buildServices(cmd.Context(), s, false)
		if err != nil {
			return err
		}
		st, err := svc.catalog.ImportURL(cmd.Context(), args[0], strings.ToUpper(level), lang)
		if err != nil {
			return err
		}
		fmt.Printf("Imported %q as %s (%d chapter(s), %d vocabulary words).\n",
			st.Title, st.ID, len(st.Chapters), len(st.Vocabulary))
		return nil
	},
}

var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Generate comprehension questions for stories that have none",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		svc, err := buildServices(cmd.Context(), s, true)
		if err != nil {
			return err
		}
		if svc.generator == nil {
			return fmt.Errorf("an LLM provider is required to generate questions")
		}

		n, err := storygen.Backfill(cmd.Context(), svc.generator, svc.catalog, limit)
		fmt.Printf("Added questions to %d story(ies).\n", n)
		return err
	},
}

func init() {
	storiesListCmd.Flags().StringP("lang", "l", "ja", "Language code")
	storiesListCmd.Flags().String("level", "", "Filter by level")
	storiesListCmd.Flags().IntP("limit", "n", 50, "Maximum stories to list")

	storiesImportCmd.Flags().StringP("lang", "l", "ja", "Language code")
	storiesImportCmd.Flags().String("level", "", "Story level, e.g. N4 (required)")
	_ = storiesImportCmd.MarkFlagRequired("level")

	backfillCmd.Flags().IntP("limit", "n", 20, "Maximum stories to process")

	storiesCmd.AddCommand(storiesListCmd)
	storiesCmd.AddCommand(storiesImportCmd)
}
