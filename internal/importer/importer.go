// Package importer reads word lists from xlsx or csv files into premade
// decks and the dictionary.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/abhisek/sanlang/internal/dictionary"
	"github.com/abhisek/sanlang/internal/logging"
	"github.com/abhisek/sanlang/internal/store"
)

// Format is a supported input format.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// FormatOf infers the format from a file name.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	case ".csv":
		return FormatCSV, nil
	}
	return "", fmt.Errorf("unsupported file type %q", filepath.Ext(path))
}

// Columns names the spreadsheet column of each field. An empty column
// is not read.
type Columns struct {
	Word         string
	Reading      string
	Definitions  string
	Level        string
	PartOfSpeech string
}

// Options controls how rows are read.
type Options struct {
	// Sheet defaults to the first sheet of the workbook.
	Sheet string
	// StartRow is the 1-based first data row.
	StartRow int
	Columns  Columns
}

// DefaultOptions reads word, reading, definitions, level and part of
// speech from columns A to E, skipping a header row.
func DefaultOptions() Options {
	return Options{
		StartRow: 2,
		Columns: Columns{
			Word:         "A",
			Reading:      "B",
			Definitions:  "C",
			Level:        "D",
			PartOfSpeech: "E",
		},
	}
}

// Row is one parsed word.
type Row struct {
	Line         int
	Word         string
	Reading      string
	Definitions  []string
	Level        string
	PartOfSpeech string
}

// Result summarizes an import.
type Result struct {
	Processed int
	Imported  int
	Skipped   int
	Errors    []string
}

func (r *Result) fail(line int, err error) {
	r.Errors = append(r.Errors, fmt.Sprintf("row %d: %v", line, err))
}

var (
	errNoWord       = errors.New("word is required")
	errNoDefinition = errors.New("definition is required")
)

// Read parses rows from r. Rows that fail validation are reported in the
// result and left out of the returned slice.
func Read(r io.Reader, format Format, opts Options) ([]Row, *Result, error) {
	if opts.StartRow <= 0 {
		opts.StartRow = 1
	}
	idx, err := opts.Columns.indexes()
	if err != nil {
		return nil, nil, err
	}

	var records [][]string
	switch format {
	case FormatXLSX:
		records, err = readXLSX(r, opts.Sheet)
	case FormatCSV:
		records, err = readCSV(r)
	default:
		err = fmt.Errorf("unsupported format %q", format)
	}
	if err != nil {
		return nil, nil, err
	}

	res := &Result{Errors: []string{}}
	var rows []Row
	for i, rec := range records {
		line := i + 1
		if line < opts.StartRow || blank(rec) {
			continue
		}
		res.Processed++
		row, err := idx.parse(rec, line)
		if err != nil {
			res.fail(line, err)
			continue
		}
		rows = append(rows, row)
	}
	return rows, res, nil
}

// ReadFile opens path and parses it according to its extension.
func ReadFile(path string, opts Options) ([]Row, *Result, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f, format, opts)
}

func readXLSX(r io.Reader, sheet string) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.New("workbook has no sheets")
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return rows, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) > 0 && len(records[0]) > 0 {
		records[0][0] = strings.TrimPrefix(records[0][0], "\ufeff")
	}
	return records, nil
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

type columnIndexes struct {
	word, reading, definitions, level, pos int
}

func (c Columns) indexes() (columnIndexes, error) {
	if c.Word == "" {
		return columnIndexes{}, errors.New("word column is required")
	}
	var idx columnIndexes
	for _, f := range []struct {
		name string
		dst  *int
	}{
		{c.Word, &idx.word},
		{c.Reading, &idx.reading},
		{c.Definitions, &idx.definitions},
		{c.Level, &idx.level},
		{c.PartOfSpeech, &idx.pos},
	} {
		*f.dst = -1
		if f.name == "" {
			continue
		}
		n, err := excelize.ColumnNameToNumber(f.name)
		if err != nil {
			return columnIndexes{}, fmt.Errorf("column %q: %w", f.name, err)
		}
		*f.dst = n - 1
	}
	return idx, nil
}

func cell(rec []string, i int) string {
	if i < 0 || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func (idx columnIndexes) parse(rec []string, line int) (Row, error) {
	row := Row{
		Line:         line,
		Word:         cell(rec, idx.word),
		Reading:      cell(rec, idx.reading),
		Definitions:  SplitDefinitions(cell(rec, idx.definitions)),
		Level:        strings.ToUpper(cell(rec, idx.level)),
		PartOfSpeech: cell(rec, idx.pos),
	}
	if row.Word == "" {
		return row, errNoWord
	}
	if idx.definitions >= 0 && len(row.Definitions) == 0 {
		return row, errNoDefinition
	}
	return row, nil
}

// SplitDefinitions splits a ';'-separated definition cell.
func SplitDefinitions(s string) []string {
	out := []string{}
	for _, d := range strings.Split(s, ";") {
		if d = strings.TrimSpace(d); d != "" {
			out = append(out, d)
		}
	}
	return out
}

// DeckInfo describes the deck being imported.
type DeckInfo struct {
	ID          string
	Name        string
	Language    string
	Level       string
	Description string
}

// ImportDeck replaces the words of deck with rows. Repeated words keep
// their first position and are counted as skipped.
func ImportDeck(ctx context.Context, s *store.Store, deck DeckInfo, rows []Row, res *Result) error {
	if deck.ID == "" || deck.Name == "" {
		return errors.New("deck id and name are required")
	}
	if res == nil {
		res = &Result{}
	}

	seen := make(map[string]bool, len(rows))
	words := make([]store.DeckWord, 0, len(rows))
	for _, r := range rows {
		if seen[r.Word] {
			res.Skipped++
			res.fail(r.Line, fmt.Errorf("duplicate word %q", r.Word))
			continue
		}
		seen[r.Word] = true
		words = append(words, store.DeckWord{
			Word:        r.Word,
			Reading:     r.Reading,
			Definitions: r.Definitions,
		})
	}

	d := &store.Deck{
		ID:          deck.ID,
		Language:    deck.Language,
		Name:        deck.Name,
		Level:       deck.Level,
		Description: deck.Description,
	}
	if err := s.Decks().Save(ctx, d, words); err != nil {
		return err
	}
	res.Imported += len(words)
	logging.Ctx(ctx).Info().
		Str("deck", d.ID).
		Int("words", len(words)).
		Int("errors", len(res.Errors)).
		Msg("deck imported")
	return nil
}

// ImportDictionary adds rows to the dictionary. Rows without a level
// take defaultLevel.
func ImportDictionary(ctx context.Context, dict *dictionary.Service, language, defaultLevel string, rows []Row, res *Result) error {
	if res == nil {
		res = &Result{}
	}
	entries := make([]store.DictionaryEntry, 0, len(rows))
	for _, r := range rows {
		level := r.Level
		if level == "" {
			level = defaultLevel
		}
		entries = append(entries, store.DictionaryEntry{
			Language:     language,
			Word:         r.Word,
			Reading:      r.Reading,
			Meanings:     r.Definitions,
			PartOfSpeech: r.PartOfSpeech,
			Level:        level,
		})
	}
	n, err := dict.Add(ctx, entries)
	if err != nil {
		return fmt.Errorf("import dictionary: %w", err)
	}
	res.Imported += n
	logging.Ctx(ctx).Info().
		Str("language", language).
		Int("entries", n).
		Int("errors", len(res.Errors)).
		Msg("dictionary imported")
	return nil
}
