package cmd

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/sanlang/internal/cache"
	"github.com/abhisek/sanlang/internal/storyapi"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate stories through a running sanlang server",
}

var generateStoryCmd = &cobra.Command{
	Use:   "story",
	Short: "Request a story and wait for it to be generated",
	RunE: func(cmd *cobra.Command, args []string) error {
		req := storyapi.GenerateRequest{}
		req.Language, _ = cmd.Flags().GetString("lang")
		req.Level, _ = cmd.Flags().GetString("level")
		req.Genre, _ = cmd.Flags().GetString("genre")
		req.Theme, _ = cmd.Flags().GetString("theme")
		req.Chapters, _ = cmd.Flags().GetInt("chapters")
		req.WordsPerChapter, _ = cmd.Flags().GetInt("words")
		req.Level = strings.ToUpper(req.Level)
		server, _ := cmd.Flags().GetString("server")
		token, _ := cmd.Flags().GetString("token")
		noWait, _ := cmd.Flags().GetBool("no-wait")

		if server == "" {
			server = cfg.StoryAPI.BaseURL
		}
		if token == "" {
			token = os.Getenv("SANLANG_TOKEN")
		}

		client := storyapi.New(server,
			storyapi.WithHTTPClient(&http.Client{Timeout: cfg.StoryAPI.Timeout}),
			storyapi.WithCache(cache.New[string, []byte](cfg.StoryAPI.CacheTTL)),
			storyapi.WithToken(token),
		)

		ctx := cmd.Context()
		ack, err := client.GenerateStory(ctx, req)
		if err != nil {
			return err
		}
		fmt.Println(ack.Message)
		if noWait {
			fmt.Println("Job:", ack.StoryID)
			return nil
		}

		last := -1
		st, err := client.PollGenerationStatus(ctx, ack.StoryID, storyapi.PollOptions{
			Interval:    cfg.StoryAPI.PollInterval,
			MaxAttempts: cfg.StoryAPI.PollMaxAttempts,
			OnProgress: func(s *storyapi.JobStatus) {
				if s.Progress != last {
					last = s.Progress
					fmt.Printf("  %-10s %3d%%\n", s.Status, s.Progress)
				}
			},
		})
		if err != nil {
			return err
		}

		story, err := client.GetStory(ctx, st.StoryID)
		if err != nil {
			return fmt.Errorf("fetch story %s: %w", st.StoryID, err)
		}
		fmt.Printf("Generated %q (%s %s, %d chapter(s)) as %s.\n",
			story.Title, story.Language, story.Level, len(story.Chapters), story.ID)
		return nil
	},
}

func init() {
	f := generateStoryCmd.Flags()
	f.StringP("lang", "l", "ja", "Language code")
	f.String("level", "", "Story level, e.g. N5 (required)")
	f.String("genre", "", "Story genre (required)")
	f.String("theme", "", "Optional theme")
	f.Int("chapters", 0, "Chapter count (server default when 0)")
	f.Int("words", 0, "Words per chapter (server default when 0)")
	f.String("server", "", "Server base URL (default storyapi.base_url)")
	f.String("token", "", "Bearer token (default $SANLANG_TOKEN)")
	f.Bool("no-wait", false, "Print the job ID and return without polling")
	_ = generateStoryCmd.MarkFlagRequired("level")
	_ = generateStoryCmd.MarkFlagRequired("genre")

	generateCmd.AddCommand(generateStoryCmd)
}
