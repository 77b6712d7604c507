package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/sanlang/internal/llm"
	"github.com/abhisek/sanlang/internal/storygen"
	"github.com/abhisek/sanlang/internal/tokenize"
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Preview an LLM-generated story and quiz yourself on it (no database)",
	Long: `Generate a story, print it with its vocabulary check, then answer its
comprehension questions interactively.

This is a stateless developer tool: nothing is saved and no events are
recorded. Useful for evaluating prompt and level quality.`,
	RunE: runPreview,
}

func init() {
	previewCmd.Flags().StringP("lang", "l", "ja", "Language code")
	previewCmd.Flags().String("level", "", "Story level, e.g. N5 (required)")
	previewCmd.Flags().String("genre", "slice of life", "Story genre")
	previewCmd.Flags().String("theme", "", "Optional theme")
	previewCmd.Flags().Int("chapters", 1, "Chapter count")
	_ = previewCmd.MarkFlagRequired("level")

	storiesCmd.AddCommand(previewCmd)
}

func runPreview(cmd *cobra.Command, args []string) error {
	req := storygen.Request{Chapters: 1}
	req.Language, _ = cmd.Flags().GetString("lang")
	req.Level, _ = cmd.Flags().GetString("level")
	req.Genre, _ = cmd.Flags().GetString("genre")
	req.Theme, _ = cmd.Flags().GetString("theme")
	req.Chapters, _ = cmd.Flags().GetInt("chapters")
	req.Level = strings.ToUpper(req.Level)

	ctx := cmd.Context()
	if !cfg.LLM.Discover() {
		return fmt.Errorf("LLM provider: %w", cfg.LLM.Validate())
	}
	// No EventRepo: logging skipped.
	provider, err := llm.NewProvider(ctx, cfg.LLM, nil)
	if err != nil {
		return fmt.Errorf("LLM provider: %w", err)
	}
	model, err := proficiencyModel()
	if err != nil {
		return err
	}
	analyzer, err := tokenize.Shared()
	if err != nil {
		return err
	}
	gen, err := newGenerator(provider, model, analyzer)
	if err != nil {
		return err
	}

	fmt.Printf("Generating a %s %s story...\n\n", req.Level, req.Genre)
	out, err := gen.Generate(ctx, req)
	if err != nil {
		return err
	}
	st := out.Story

	fmt.Printf("── %s ──\n", st.Title)
	for _, ch := range st.Chapters {
		if ch.Title != "" {
			fmt.Printf("\n%s\n", ch.Title)
		}
		for _, p := range ch.Paragraphs {
			fmt.Printf("\n%s\n", p)
		}
	}
	fmt.Println()
	if v := out.Validation; v != nil {
		fmt.Printf("Vocabulary: %d tokens, %d at level, %d above, %d unknown (passed: %v, attempts: %d)\n\n",
			v.TotalTokens, v.TargetLevelCount, v.AboveLevelCount, v.UnknownCount, v.Passed, out.Attempts)
	}

	questions, err := gen.Questions(ctx, st)
	if err != nil {
		fmt.Printf("Question generation failed: %v\n", err)
		return nil
	}

	scanner := bufio.NewScanner(os.Stdin)
	var correct int
	for i, q := range questions {
		fmt.Printf("── Question %d/%d ──\n", i+1, len(questions))
		fmt.Println(q.Question)
		for j, o := range q.Options {
			fmt.Printf("  %d) %s\n", j+1, o)
		}

		fmt.Print("\nYour answer: ")
		if !scanner.Scan() {
			fmt.Println("\n(input closed)")
			break
		}
		answer := strings.TrimSpace(scanner.Text())
		if answer == "" {
			fmt.Print("(skipped)\n\n")
			continue
		}

		n, err := strconv.Atoi(answer)
		if err == nil && n-1 == q.AnswerIndex {
			correct++
			fmt.Println("\033[32m✓ Correct!\033[0m")
		} else {
			fmt.Printf("\033[31m✗ Wrong.\033[0m Answer: %d) %s\n", q.AnswerIndex+1, q.Options[q.AnswerIndex])
		}
		fmt.Println()
	}

	fmt.Printf("── Summary: %d/%d correct ──\n", correct, len(questions))
	return nil
}
