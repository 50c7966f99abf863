package importers

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBooksCSV(t *testing.T) {
	input := `id,title,author,pages,genre,language,created_at
1,Dune,Frank Herbert,412,Science Fiction,en,2024-01-15T10:00:00

2,"War and Peace, Vol. 1",Leo Tolstoy,,Classic,ru,
,Emma,Jane Austen,320,Classic,en,2023-06-01
`
	books, problems, err := ParseBooksCSV(strings.NewReader(input))
	require.NoError(t, err)
	assert.Empty(t, problems)
	require.Len(t, books, 3)

	assert.Equal(t, uint(1), books[0].ID)
	assert.Equal(t, "Dune", books[0].Title)
	assert.Equal(t, "Frank Herbert", books[0].Author)
	require.NotNil(t, books[0].Pages)
	assert.Equal(t, 412, *books[0].Pages)
	assert.Equal(t, "Science Fiction", books[0].Genre)
	assert.Equal(t, "en", books[0].Language)
	assert.Equal(t, time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC), books[0].CreatedAt)

	assert.Equal(t, "War and Peace, Vol. 1", books[1].Title)
	assert.Nil(t, books[1].Pages, "blank pages means unknown")
	assert.True(t, books[1].CreatedAt.IsZero())

	assert.Zero(t, books[2].ID, "blank id creates a new book")
	assert.Equal(t, 320, books[2].TotalPages())
}

func TestParseBooksCSV_ReportsBadRows(t *testing.T) {
	input := `1,Dune,Frank Herbert,412,Science Fiction,en,2024-01-15T10:00:00
2,Too Short,Someone
x,Bad Id,Someone,100,Genre,en,
3,Bad Pages,Someone,many,Genre,en,
4,Negative Pages,Someone,-5,Genre,en,
5,Bad Date,Someone,100,Genre,en,yesterday
6,,No Title,100,Genre,en,
7,Emma,Jane Austen,320,Classic,en,
`
	books, problems, err := ParseBooksCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, books, 2)
	assert.Equal(t, "Dune", books[0].Title)
	assert.Equal(t, "Emma", books[1].Title)

	require.Len(t, problems, 6)
	assert.Contains(t, problems[0], "Line 2")
	assert.Contains(t, problems[0], "expected 7 fields")
	assert.Contains(t, problems[1], "invalid id")
	assert.Contains(t, problems[2], "invalid pages")
	assert.Contains(t, problems[3], "invalid pages")
	assert.Contains(t, problems[4], "invalid created_at")
	assert.Contains(t, problems[5], "missing title")
}

func TestParseBooksCSV_HeaderOnly(t *testing.T) {
	books, problems, err := ParseBooksCSV(strings.NewReader("ID,Title,Author,Pages,Genre,Language,Created_At\n"))
	require.NoError(t, err)
	assert.Empty(t, books)
	assert.Empty(t, problems)
}
