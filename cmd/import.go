package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/sanlang/internal/importer"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import decks and dictionaries from spreadsheets",
}

var importDeckCmd = &cobra.Command{
	Use:   "deck <file>",
	Short: "Import a vocabulary deck from an .xlsx or .csv file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, _ := cmd.Flags().GetString("id")
		name, _ := cmd.Flags().GetString("name")
		lang, _ := cmd.Flags().GetString("lang")
		level, _ := cmd.Flags().GetString("level")
		desc, _ := cmd.Flags().GetString("description")

		rows, res, err := importer.ReadFile(args[0], readOptions(cmd))
		if err != nil {
			return err
		}

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		deck := importer.DeckInfo{
			ID:          id,
			Name:        name,
			Language:    lang,
			Level:       strings.ToUpper(level),
			Description: desc,
		}
		if err := importer.ImportDeck(cmd.Context(), s, deck, rows, res); err != nil {
			return err
		}
		printImportResult(res)
		return nil
	},
}

var importDictionaryCmd = &cobra.Command{
	Use:   "dictionary <file>",
	Short: "Import dictionary entries from an .xlsx or .csv file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lang, _ := cmd.Flags().GetString("lang")
		level, _ := cmd.Flags().GetString("level")

		rows, res, err := importer.ReadFile(args[0], readOptions(cmd))
		if err != nil {
			return err
		}

		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		svc, err := buildServices(cmd.Context(), s, false)
		if err != nil {
			return err
		}
		if err := importer.ImportDictionary(cmd.Context(), svc.dictionary, lang, strings.ToUpper(level), rows, res); err != nil {
			return err
		}
		printImportResult(res)
		return nil
	},
}

func readOptions(cmd *cobra.Command) importer.Options {
	opts := importer.DefaultOptions()
	opts.Sheet, _ = cmd.Flags().GetString("sheet")
	opts.StartRow, _ = cmd.Flags().GetInt("start-row")
	return opts
}

func printImportResult(res *importer.Result) {
	fmt.Printf("Processed %d row(s): %d imported, %d skipped, %d error(s).\n",
		res.Processed, res.Imported, res.Skipped, len(res.Errors))
	for _, e := range res.Errors {
		fmt.Println("  " + e)
	}
}

func init() {
	for _, c := range []*cobra.Command{importDeckCmd, importDictionaryCmd} {
		c.Flags().String("sheet", "", "Workbook sheet (default first sheet)")
		c.Flags().Int("start-row", 2, "First data row, 1-based")
		c.Flags().StringP("lang", "l", "ja", "Language code")
	}

	importDeckCmd.Flags().String("id", "", "Deck ID (required)")
	importDeckCmd.Flags().String("name", "", "Deck name (required)")
	importDeckCmd.Flags().String("level", "", "Deck level, e.g. N5")
	importDeckCmd.Flags().String("description", "", "Deck description")
	_ = importDeckCmd.MarkFlagRequired("id")
	_ = importDeckCmd.MarkFlagRequired("name")

	importDictionaryCmd.Flags().String("level", "", "Level for rows without one")

	importCmd.AddCommand(importDeckCmd)
	importCmd.AddCommand(importDictionaryCmd)
}
