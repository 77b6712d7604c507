package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/sanlang/internal/recommend"
)

var progressCmd = &cobra.Command{
	Use:   "progress <user>",
	Short: "Show a learner's skills, level progress and streak",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lang, _ := cmd.Flags().GetString("lang")

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		svc, err := buildServices(cmd.Context(), s, false)
		if err != nil {
			return err
		}
		sum, err := svc.progress.ForUser(cmd.Context(), args[0], lang, time.Now())
		if err != nil {
			return fmt.Errorf("load progress: %w", err)
		}

		next := "-"
		if sum.Progress.NextLevel != nil {
			next = *sum.Progress.NextLevel
		}
		fmt.Printf("Learner:   %s (%s)\n", args[0], sum.Language)
		fmt.Printf("Level:     %s -> %s (%.0f%%)\n", sum.Progress.CurrentLevel, next, sum.Progress.ProgressPercent)
		fmt.Printf("Ability:   %.2f\n", sum.AbilityEstimate)
		if sum.Calibrating {
			fmt.Println("Status:    calibrating")
		} else if sum.Readiness != "" {
			fmt.Printf("Readiness: %s\n", sum.Readiness)
		}
		fmt.Printf("Streak:    %d day(s)\n", sum.Streak)
		fmt.Println()

		fmt.Println("Skills")
		fmt.Println(strings.Repeat("─", 40))
		sk := sum.Skills
		fmt.Printf("%-12s %6.1f\n", "Reading", sk.Reading)
		fmt.Printf("%-12s %6.1f\n", "Listening", sk.Listening)
		fmt.Printf("%-12s %6.1f\n", "Speaking", sk.Speaking)
		fmt.Printf("%-12s %6.1f\n", "Writing", sk.Writing)
		fmt.Printf("%-12s %6.1f\n", "Vocabulary", sk.Vocabulary)
		fmt.Printf("%-12s %6.1f\n", "Grammar", sk.Grammar)
		fmt.Println(strings.Repeat("─", 40))
		fmt.Printf("%-12s %6.1f\n", "Average", sum.SkillAverage)
		if sum.WeekDelta != nil {
			fmt.Printf("%-12s %+6.1f reading, %+6.1f vocabulary\n", "This week", sum.WeekDelta.Reading, sum.WeekDelta.Vocabulary)
		}
		fmt.Println()

		v := sum.Vocabulary
		fmt.Printf("Vocabulary: %d known, %d learning, %d total\n", v.Known, v.Learning, v.Total)
		fmt.Printf("Due now:    %d\n", sum.DueCards)
		fmt.Printf("Added:      %d today, %d this week\n", sum.WordsAddedToday, sum.WordsAddedThisWeek)
		return nil
	},
}

var recommendCmd = &cobra.Command{
	Use:   "recommend <user>",
	Short: "Recommend stories or videos for a learner",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lang, _ := cmd.Flags().GetString("lang")
		count, _ := cmd.Flags().GetInt("count")
		kind, _ := cmd.Flags().GetString("type")

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		svc, err := buildServices(cmd.Context(), s, false)
		if err != nil {
			return err
		}

		ctx, now := cmd.Context(), time.Now()
		switch kind {
		case recommend.ContentStory:
			res, err := svc.recommend.Stories(ctx, args[0], lang, count, now)
			if err != nil {
				return err
			}
			fmt.Printf("Reason: %s\n\n", res.Reason)
			for _, st := range res.Items {
				fmt.Printf("%-36s  %-4s  %-12s  %s\n", st.ID, st.Level, truncate(st.Genre, 12), st.Title)
			}
		case recommend.ContentVideo:
			res, err := svc.recommend.Videos(ctx, args[0], lang, count, now)
			if err != nil {
				return err
			}
			fmt.Printf("Reason: %s\n\n", res.Reason)
			for _, v := range res.Items {
				fmt.Printf("%-36s  %-4s  %-12s  %s\n", v.ID, v.Level, truncate(v.Genre, 12), v.Title)
			}
		default:
			return fmt.Errorf("unknown content type %q (want %s or %s)", kind, recommend.ContentStory, recommend.ContentVideo)
		}
		return nil
	},
}

func init() {
	progressCmd.Flags().StringP("lang", "l", "ja", "Language code")

	recommendCmd.Flags().StringP("lang", "l", "ja", "Language code")
	recommendCmd.Flags().IntP("count", "n", 5, "Number of recommendations")
	recommendCmd.Flags().StringP("type", "t", recommend.ContentStory, "Content type: story or video")
}
