package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var levelsCmd = &cobra.Command{
	Use:   "levels",
	Short: "List the proficiency levels and ability thresholds for a language",
	RunE: func(cmd *cobra.Command, args []string) error {
		lang, _ := cmd.Flags().GetString("lang")

		model, err := proficiencyModel()
		if err != nil {
			return err
		}
		scale := model.Scale(lang)

		fmt.Printf("%-6s  %9s\n", "Level", "Ability ≥")
		fmt.Println(strings.Repeat("─", 17))
		for i, level := range scale.Levels {
			fmt.Printf("%-6s  %9.2f\n", level, scale.Thresholds[i])
		}
		fmt.Printf("\n%d levels for %q\n", len(scale.Levels), lang)
		return nil
	},
}

func init() {
	levelsCmd.Flags().StringP("lang", "l", "ja", "Language code")
}
