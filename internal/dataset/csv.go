package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Column names of the dataset file, in canonical order.
const (
	ColDayDanceID             = "day_dance_id"
	ColWaggleID               = "waggle_id"
	ColCategory               = "category"
	ColCategoryLabel          = "category_label"
	ColConfidence             = "confidence"
	ColCorrectedCategory      = "corrected_category"
	ColCorrectedCategoryLabel = "corrected_category_label"
	ColDanceType              = "dance_type"
	ColCorrectedDanceType     = "corrected_dance_type"
)

var canonicalColumns = []string{
	ColDayDanceID,
	ColWaggleID,
	ColCategory,
	ColCategoryLabel,
	ColConfidence,
	ColCorrectedCategory,
	ColCorrectedCategoryLabel,
	ColDanceType,
	ColCorrectedDanceType,
}

var requiredColumns = []string{ColDayDanceID, ColCategory, ColCategoryLabel, ColDanceType}

// table is the decoded form of a dataset file.
type table struct {
	records []*Record
	extra   []string
}

// columnIndex maps column names to positions in a header row.
type columnIndex map[string]int

func (ci columnIndex) get(row []string, name string) string {
	i, ok := ci[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// raw returns the field exactly as stored, for passthrough columns.
func (ci columnIndex) raw(row []string, name string) string {
	i, ok := ci[name]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

// decodeTable parses a dataset file. Columns are located by header name, so
// column order in the file does not matter.
func decodeTable(r io.Reader) (*table, error) {
	reader := csv.NewReader(r)
	reader.ReuseRecord = false

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("dataset file is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	idx := make(columnIndex, len(header))
	known := make(map[string]bool, len(canonicalColumns))
	for _, c := range canonicalColumns {
		known[c] = true
	}
	t := &table{}
	var extraPos []int
	for i, name := range header {
		name = strings.TrimSpace(name)
		if _, dup := idx[name]; dup {
			return nil, fmt.Errorf("duplicate column %q", name)
		}
		idx[name] = i
		if !known[name] {
			t.extra = append(t.extra, name)
			extraPos = append(extraPos, i)
		}
	}
	for _, c := range requiredColumns {
		if _, ok := idx[c]; !ok {
			return nil, fmt.Errorf("missing required column %q", c)
		}
	}

	seen := make(map[string]int)
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("malformed row: %w", err)
		}

		rec, err := decodeRecord(idx, row)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if prev, dup := seen[rec.DayDanceID]; dup {
			return nil, fmt.Errorf("line %d: duplicate %s %q (first seen on line %d)",
				line, ColDayDanceID, rec.DayDanceID, prev)
		}
		seen[rec.DayDanceID] = line

		for _, p := range extraPos {
			rec.extra = append(rec.extra, row[p])
		}
		t.records = append(t.records, rec)
	}

	return t, nil
}

func decodeRecord(idx columnIndex, row []string) (*Record, error) {
	rec := &Record{
		DayDanceID: idx.get(row, ColDayDanceID),
		WaggleID:   idx.raw(row, ColWaggleID),
		Confidence: idx.raw(row, ColConfidence),
	}
	if rec.DayDanceID == "" {
		return nil, fmt.Errorf("empty %s", ColDayDanceID)
	}

	cat, err := decodeCategory(idx.get(row, ColCategory), idx.get(row, ColCategoryLabel))
	if err != nil {
		return nil, fmt.Errorf("record %s: %w", rec.DayDanceID, err)
	}
	rec.Category = cat

	code := idx.get(row, ColCorrectedCategory)
	label := idx.get(row, ColCorrectedCategoryLabel)
	switch {
	case code == "" && label == "":
	case code == "" || label == "":
		return nil, fmt.Errorf("record %s: %s and %s must be set together",
			rec.DayDanceID, ColCorrectedCategory, ColCorrectedCategoryLabel)
	default:
		corrected, err := decodeCategory(code, label)
		if err != nil {
			return nil, fmt.Errorf("record %s: correction: %w", rec.DayDanceID, err)
		}
		rec.CorrectedCategory = &corrected
	}

	// An empty dance type stays empty on disk; see EffectiveDanceType.
	if s := idx.get(row, ColDanceType); s != "" {
		d, err := ParseDanceType(s)
		if err != nil {
			return nil, fmt.Errorf("record %s: %w", rec.DayDanceID, err)
		}
		rec.DanceType = d
	}
	if s := idx.get(row, ColCorrectedDanceType); s != "" {
		d, err := ParseDanceType(s)
		if err != nil {
			return nil, fmt.Errorf("record %s: correction: %w", rec.DayDanceID, err)
		}
		rec.CorrectedDanceType = &d
	}

	return rec, nil
}

// decodeCategory parses a code/label pair and checks that they agree.
func decodeCategory(code, label string) (Category, error) {
	byCode, err := parseCategoryCode(code)
	if err != nil {
		return 0, err
	}
	byLabel, err := ParseCategory(label)
	if err != nil {
		return 0, err
	}
	if byCode != byLabel {
		return 0, fmt.Errorf("category code %q disagrees with label %q", code, label)
	}
	return byCode, nil
}

// encodeTable writes records with the canonical header followed by any extra
// columns the file was loaded with.
func encodeTable(w io.Writer, records []*Record, extra []string) error {
	writer := csv.NewWriter(w)

	header := make([]string, 0, len(canonicalColumns)+len(extra))
	header = append(header, canonicalColumns...)
	header = append(header, extra...)
	if err := writer.Write(header); err != nil {
		return err
	}

	row := make([]string, 0, len(header))
	for _, rec := range records {
		row = row[:0]
		row = append(row,
			rec.DayDanceID,
			rec.WaggleID,
			strconv.Itoa(int(rec.Category)),
			rec.Category.Label(),
			rec.Confidence,
		)
		if rec.CorrectedCategory != nil {
			row = append(row, strconv.Itoa(int(*rec.CorrectedCategory)), rec.CorrectedCategory.Label())
		} else {
			row = append(row, "", "")
		}
		row = append(row, string(rec.DanceType))
		if rec.CorrectedDanceType != nil {
			row = append(row, string(*rec.CorrectedDanceType))
		} else {
			row = append(row, "")
		}
		for i := range extra {
			v := ""
			if i < len(rec.extra) {
				v = rec.extra[i]
			}
			row = append(row, v)
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}
