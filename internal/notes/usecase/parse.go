package usecase

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"unicode/utf8"
)

const (
	maxTitleLength = 200
	maxTags        = 16
	maxTagLength   = 32
)

type noteRecord struct {
	Title string
	Body  string
	Tags  []string
}

// parseCSV reads rows of title,body,tags where tags are separated by ';'.
// A leading header row is skipped. Bad rows are counted and skipped; only a
// broken CSV stream stops the import.
func parseCSV(ctx context.Context, r io.Reader, onNote func(rec noteRecord) error) (int64, int64, int64, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	var totalLines int64
	var imported int64
	var rejected int64

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			rejected++
			slog.WarnContext(ctx, "failed to read csv line", "error", err)
			return totalLines, imported, rejected, err
		}

		if totalLines == 0 && isHeader(record) {
			continue
		}

		totalLines++
		rec, err := parseRecord(record)
		if err != nil {
			rejected++
			slog.WarnContext(ctx, "failed to parse csv record", "line", totalLines, "error", err)
			continue
		}

		if err := onNote(rec); err != nil {
			rejected++
			slog.WarnContext(ctx, "failed to store csv record", "line", totalLines, "error", err)
			continue
		}
		imported++
	}

	return totalLines, imported, rejected, nil
}

func isHeader(record []string) bool {
	return len(record) > 0 && strings.EqualFold(strings.TrimSpace(record[0]), "title")
}

func parseRecord(record []string) (noteRecord, error) {
	if len(record) < 2 || len(record) > 3 {
		return noteRecord{}, fmt.Errorf("expected 2 or 3 fields, got %d", len(record))
	}

	for i := range record {
		record[i] = strings.TrimSpace(record[i])
	}

	if err := validateTitle(record[0]); err != nil {
		return noteRecord{}, err
	}

	rec := noteRecord{Title: record[0], Body: record[1]}
	if len(record) == 3 {
		tags, err := normalizeTags(strings.Split(record[2], ";"))
		if err != nil {
			return noteRecord{}, err
		}
		rec.Tags = tags
	}

	return rec, nil
}

func validateTitle(title string) error {
	if title == "" {
		return errors.New("title is required")
	}
	if utf8.RuneCountInString(title) > maxTitleLength {
		return fmt.Errorf("title longer than %d characters", maxTitleLength)
	}
	return nil
}

// normalizeTags lowercases, trims and de-duplicates tags, keeping the first
// occurrence order.
func normalizeTags(raw []string) ([]string, error) {
	tags := make([]string, 0, len(raw))
	for _, tag := range raw {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" || slices.Contains(tags, tag) {
			continue
		}
		if utf8.RuneCountInString(tag) > maxTagLength {
			return nil, fmt.Errorf("tag %q longer than %d characters", tag, maxTagLength)
		}
		tags = append(tags, tag)
	}

	if len(tags) > maxTags {
		return nil, fmt.Errorf("at most %d tags allowed", maxTags)
	}

	return tags, nil
}
