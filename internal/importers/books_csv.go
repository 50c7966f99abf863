package importers

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/mrlokans/booklog/internal/entities"
)

// booksCSVFields is the column count of a catalog export:
// id,title,author,pages,genre,language,created_at
const booksCSVFields = 7

// ParseBooksCSV parses a catalog CSV file.
// Returns the parsed books, per-line problems for rows that were skipped, and
// a fatal error if the input could not be read at all.
func ParseBooksCSV(r io.Reader) ([]entities.Book, []string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // Short rows are reported, not fatal
	reader.TrimLeadingSpace = true

	var books []entities.Book
	var problems []string

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if !errors.As(err, &parseErr) {
				return nil, nil, fmt.Errorf("failed to read csv: %w", err)
			}
			problems = append(problems, fmt.Sprintf("Line %d: %v", parseErr.StartLine, parseErr.Err))
			continue
		}

		line, _ := reader.FieldPos(0)
		if isBlankRecord(record) {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(strings.TrimPrefix(record[0], "\ufeff")), "id") {
			continue
		}
		if len(record) < booksCSVFields {
			problems = append(problems, fmt.Sprintf("Line %d: skipped - expected %d fields, got %d", line, booksCSVFields, len(record)))
			continue
		}

		book, err := parseBookRecord(record)
		if err != nil {
			problems = append(problems, fmt.Sprintf("Line %d: %v", line, err))
			continue
		}
		books = append(books, book)
	}

	return books, problems, nil
}

func parseBookRecord(record []string) (entities.Book, error) {
	field := func(i int) string { return strings.TrimSpace(record[i]) }

	book := entities.Book{
		Title:    field(1),
		Author:   field(2),
		Genre:    field(4),
		Language: field(5),
	}
	if book.Title == "" {
		return book, errors.New("skipped - missing title")
	}

	if raw := field(0); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || id == 0 {
			return book, fmt.Errorf("invalid id %q", raw)
		}
		book.ID = uint(id)
	}

	if raw := field(3); raw != "" {
		pages, err := strconv.Atoi(raw)
		if err != nil || pages < 0 {
			return book, fmt.Errorf("invalid pages %q", raw)
		}
		book.Pages = &pages
	}

	if raw := field(6); raw != "" {
		createdAt, err := parseCreatedAt(raw)
		if err != nil {
			return book, err
		}
		book.CreatedAt = createdAt
	}

	return book, nil
}

func isBlankRecord(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

func parseCreatedAt(ts string) (time.Time, error) {
	formats := []string{
		"2006-01-02T15:04:05",
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02T15:04",
		"2006-01-02",
	}

	for _, format := range formats {
		if t, err := time.Parse(format, ts); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("invalid created_at %q", ts)
}
