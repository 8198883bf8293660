package dataloader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"scamdash/internal/config"
	"scamdash/internal/models"
	"scamdash/internal/services/storage"
)

// Normalized names of the columns every dataset must provide
const (
	ColState           = "state"
	ColAgeGroup        = "age_group"
	ColGender          = "gender"
	ColScamCategory    = "scam_category"
	ColScamType        = "scam_type"
	ColNumberOfReports = "number_of_reports"
	ColAmountLost      = "amount_lost"
)

// RequiredColumns lists the normalized column names in report order
var RequiredColumns = []string{
	ColState, ColAgeGroup, ColGender, ColScamCategory, ColScamType,
	ColNumberOfReports, ColAmountLost,
}

// DataLoader reads the scam-report dataset into an immutable RecordSet
type DataLoader struct {
	DatasetFile string
	Policy      config.AmountPolicy
	store       *storage.Storage
	logger      *slog.Logger
}

// LoadStats summarizes one load
type LoadStats struct {
	Source  string `json:"source"`
	Rows    int    `json:"rows"`
	Skipped int    `json:"skipped"`
}

// New creates a new DataLoader
func New(datasetFile string, store *storage.Storage, policy config.AmountPolicy) *DataLoader {
	if policy == "" {
		policy = config.AmountPolicyStrict
	}
	return &DataLoader{
		DatasetFile: datasetFile,
		Policy:      policy,
		store:       store,
		logger:      slog.Default().With("component", "dataloader"),
	}
}

// NormalizeColumnName trims, lowercases and replaces spaces with underscores
func NormalizeColumnName(col string) string {
	col = strings.TrimPrefix(col, "\ufeff")
	col = strings.ToLower(strings.TrimSpace(col))
	return strings.ReplaceAll(col, " ", "_")
}

// buildColumnIndex creates a normalized column index from CSV headers
func buildColumnIndex(header []string) map[string]int {
	colIndex := make(map[string]int)
	for i, col := range header {
		normalized := NormalizeColumnName(col)
		// first match wins
		if _, exists := colIndex[normalized]; !exists {
			colIndex[normalized] = i
		}
	}
	return colIndex
}

// validateColumns returns a SchemaError naming every missing required column
func validateColumns(header []string, colIndex map[string]int) error {
	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := colIndex[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	found := make([]string, len(header))
	for i, col := range header {
		found[i] = NormalizeColumnName(col)
	}
	return &SchemaError{Missing: missing, Found: found}
}

// Load reads and cleans the dataset file
func (dl *DataLoader) Load() (*models.RecordSet, LoadStats, error) {
	stats := LoadStats{Source: filepath.Base(dl.DatasetFile)}

	file, err := dl.store.OpenFile(dl.DatasetFile)
	if err != nil {
		return nil, stats, fmt.Errorf("opening dataset %s: %w", dl.DatasetFile, err)
	}
	defer file.Close()

	records, skipped, err := dl.parse(file)
	if err != nil {
		return nil, stats, fmt.Errorf("loading %s: %w", stats.Source, err)
	}

	stats.Rows = len(records)
	stats.Skipped = skipped
	dl.logger.Info("dataset loaded", "source", stats.Source, "rows", stats.Rows, "skipped", stats.Skipped)

	return models.NewRecordSet(records), stats, nil
}

// parse reads CSV content, returning the clean records and the skipped row count
func (dl *DataLoader) parse(r io.Reader) ([]models.Record, int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // row length is checked against the header below
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, 0, &SchemaError{Missing: RequiredColumns}
		}
		return nil, 0, fmt.Errorf("error reading header: %w", err)
	}

	colIndex := buildColumnIndex(header)
	if err := validateColumns(header, colIndex); err != nil {
		return nil, 0, err
	}

	var records []models.Record
	skipped := 0

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		lineNum := recordLine(reader, err)
		if err != nil {
			if dl.Policy == config.AmountPolicySkip {
				dl.logger.Warn("skipping unreadable line", "line", lineNum, "error", err)
				skipped++
				continue
			}
			return nil, skipped, fmt.Errorf("line %d: %w", lineNum, err)
		}

		rec, err := parseRecord(row, colIndex)
		if err != nil {
			var pe *ParseError
			if errors.As(err, &pe) {
				pe.Row = lineNum
			}
			if dl.Policy == config.AmountPolicySkip {
				dl.logger.Warn("skipping invalid row", "line", lineNum, "error", err)
				skipped++
				continue
			}
			return nil, skipped, err
		}
		records = append(records, rec)
	}

	return records, skipped, nil
}

// recordLine returns the physical line the last record started on, which
// differs from the record count once a quoted field spans lines
func recordLine(reader *csv.Reader, readErr error) int {
	var ce *csv.ParseError
	if errors.As(readErr, &ce) {
		return ce.StartLine
	}
	if readErr != nil {
		return 0
	}
	line, _ := reader.FieldPos(0)
	return line
}

// parseRecord converts one CSV row into a Record
func parseRecord(row []string, colIndex map[string]int) (models.Record, error) {
	cell := func(col string) (string, error) {
		idx := colIndex[col]
		if idx >= len(row) {
			return "", &ParseError{Column: col, Err: errShortRecord}
		}
		return strings.TrimSpace(row[idx]), nil
	}

	var rec models.Record
	text := []struct {
		col string
		dst *string
	}{
		{ColState, &rec.State},
		{ColAgeGroup, &rec.AgeGroup},
		{ColGender, &rec.Gender},
		{ColScamCategory, &rec.ScamCategory},
		{ColScamType, &rec.ScamType},
	}
	for _, f := range text {
		v, err := cell(f.col)
		if err != nil {
			return rec, err
		}
		*f.dst = v
	}

	raw, err := cell(ColNumberOfReports)
	if err != nil {
		return rec, err
	}
	if rec.NumberOfReports, err = ParseReports(raw); err != nil {
		return rec, withColumn(err, ColNumberOfReports)
	}

	raw, err = cell(ColAmountLost)
	if err != nil {
		return rec, err
	}
	if rec.AmountLost, err = ParseAmount(raw); err != nil {
		return rec, withColumn(err, ColAmountLost)
	}

	return rec, nil
}

func withColumn(err error, col string) error {
	var pe *ParseError
	if errors.As(err, &pe) {
		pe.Column = col
	}
	return err
}

// ParseAmount strips every "$" and "," and parses the rest as a
// non-negative decimal. The result is always finite.
func ParseAmount(s string) (decimal.Decimal, error) {
	cleaned := strings.ReplaceAll(s, "$", "")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.TrimSpace(cleaned)

	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, &ParseError{Value: s, Err: errNotNumeric}
	}
	if amount.IsNegative() {
		return decimal.Zero, &ParseError{Value: s, Err: errNegative}
	}
	return amount, nil
}

var maxReports = decimal.NewFromInt(math.MaxInt64)

// ParseReports parses a non-negative report count, tolerating thousands
// separators and whole-number decimals such as "12.0"
func ParseReports(s string) (int64, error) {
	cleaned := strings.TrimSpace(strings.ReplaceAll(s, ",", ""))

	n, err := strconv.ParseInt(cleaned, 10, 64)
	if err != nil {
		d, derr := decimal.NewFromString(cleaned)
		if derr != nil {
			return 0, &ParseError{Value: s, Err: errNotNumeric}
		}
		if !d.IsInteger() {
			return 0, &ParseError{Value: s, Err: errNotInteger}
		}
		if d.IsNegative() {
			return 0, &ParseError{Value: s, Err: errNegative}
		}
		if d.GreaterThan(maxReports) {
			return 0, &ParseError{Value: s, Err: errOutOfRange}
		}
		n = d.IntPart()
	}
	if n < 0 {
		return 0, &ParseError{Value: s, Err: errNegative}
	}
	return n, nil
}
