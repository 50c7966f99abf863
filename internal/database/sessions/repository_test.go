package sessions

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/booklog/internal/entities"
)

type fixture struct {
	repo   *Repository
	db     *gorm.DB
	reader *entities.Reader
	book   *entities.Book
}

func setupTestDB(t *testing.T) *fixture {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "sessions.db")

	db, err := gorm.Open(sqlite.Open(dbPath+"?_foreign_keys=on"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entities.Reader{}, &entities.Book{}, &entities.ReadingSession{}))

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})

	reader := &entities.Reader{Username: "alice"}
	require.NoError(t, db.Create(reader).Error)
	pages := 300
	book := &entities.Book{Title: "Dune", Pages: &pages}
	require.NoError(t, db.Create(book).Error)

	return &fixture{repo: NewRepository(db), db: db, reader: reader, book: book}
}

func (f *fixture) newSession(pages int, at time.Time) *entities.ReadingSession {
	return &entities.ReadingSession{
		ReaderID:        f.reader.ID,
		BookID:          f.book.ID,
		PagesRead:       pages,
		DurationMinutes: 30,
		OccurredAt:      at,
	}
}

func TestRepository_Create(t *testing.T) {
	f := setupTestDB(t)
	ctx := context.Background()

	session := f.newSession(25, time.Now())
	require.NoError(t, f.repo.Create(ctx, session))
	assert.NotZero(t, session.ID)

	err := f.repo.Create(ctx, session)
	assert.ErrorIs(t, err, ErrSessionHasID)
}

func TestRepository_CreateRequiresExistingBook(t *testing.T) {
	f := setupTestDB(t)
	ctx := context.Background()

	session := f.newSession(10, time.Now())
	session.BookID = 4242
	assert.Error(t, f.repo.Create(ctx, session))
}

func TestRepository_UpdateAndDelete(t *testing.T) {
	f := setupTestDB(t)
	ctx := context.Background()

	session := f.newSession(25, time.Now())
	require.NoError(t, f.repo.Create(ctx, session))

	session.PagesRead = 40
	session.DurationMinutes = 45
	require.NoError(t, f.repo.Update(ctx, session))

	stored, err := f.repo.FindByID(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, 40, stored.PagesRead)
	assert.Equal(t, 45, stored.DurationMinutes)

	require.NoError(t, f.repo.Delete(ctx, session.ID))
	_, err = f.repo.FindByID(ctx, session.ID)
	assert.ErrorIs(t, err, entities.ErrSessionNotFound)

	assert.ErrorIs(t, f.repo.Delete(ctx, session.ID), entities.ErrSessionNotFound)
	assert.ErrorIs(t, f.repo.Update(ctx, session), entities.ErrSessionNotFound)
}

func TestRepository_FindByReaderAndBookMostRecentFirst(t *testing.T) {
	f := setupTestDB(t)
	ctx := context.Background()

	base := time.Date(2024, 3, 1, 20, 0, 0, 0, time.UTC)
	require.NoError(t, f.repo.Create(ctx, f.newSession(10, base)))
	require.NoError(t, f.repo.Create(ctx, f.newSession(20, base.Add(48*time.Hour))))
	require.NoError(t, f.repo.Create(ctx, f.newSession(30, base.Add(24*time.Hour))))

	sessions, err := f.repo.FindByReaderAndBook(ctx, f.reader.ID, f.book.ID)
	require.NoError(t, err)
	require.Len(t, sessions, 3)
	assert.Equal(t, 20, sessions[0].PagesRead)
	assert.Equal(t, 30, sessions[1].PagesRead)
	assert.Equal(t, 10, sessions[2].PagesRead)

	recent, err := f.repo.FindByReader(ctx, f.reader.ID, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, 20, recent[0].PagesRead)
}

func TestRepository_SumPagesForReaderAndBook(t *testing.T) {
	f := setupTestDB(t)
	ctx := context.Background()

	sum, err := f.repo.SumPagesForReaderAndBook(ctx, f.reader.ID, f.book.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, sum)

	require.NoError(t, f.repo.Create(ctx, f.newSession(40, time.Now())))
	require.NoError(t, f.repo.Create(ctx, f.newSession(15, time.Now())))

	other := &entities.Reader{Username: "bob"}
	require.NoError(t, f.db.Create(other).Error)
	foreign := f.newSession(99, time.Now())
	foreign.ReaderID = other.ID
	require.NoError(t, f.repo.Create(ctx, foreign))

	sum, err = f.repo.SumPagesForReaderAndBook(ctx, f.reader.ID, f.book.ID)
	require.NoError(t, err)
	assert.Equal(t, 55, sum)
}

func TestRepository_ReaderBookPairs(t *testing.T) {
	f := setupTestDB(t)
	ctx := context.Background()

	second := &entities.Book{Title: "Emma"}
	require.NoError(t, f.db.Create(second).Error)

	require.NoError(t, f.repo.Create(ctx, f.newSession(10, time.Now())))
	require.NoError(t, f.repo.Create(ctx, f.newSession(12, time.Now())))
	s := f.newSession(5, time.Now())
	s.BookID = second.ID
	require.NoError(t, f.repo.Create(ctx, s))

	pairs, err := f.repo.ReaderBookPairs(ctx, f.reader.ID)
	require.NoError(t, err)
	assert.Equal(t, []entities.ReaderBookPair{
		{ReaderID: f.reader.ID, BookID: f.book.ID},
		{ReaderID: f.reader.ID, BookID: second.ID},
	}, pairs)

	none, err := f.repo.ReaderBookPairs(ctx, 777)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestRepository_MaxPagesLoggedForBook(t *testing.T) {
	f := setupTestDB(t)
	ctx := context.Background()

	highest, err := f.repo.MaxPagesLoggedForBook(ctx, f.book.ID)
	require.NoError(t, err)
	assert.Zero(t, highest)

	other := &entities.Reader{Username: "bob"}
	require.NoError(t, f.db.Create(other).Error)

	require.NoError(t, f.repo.Create(ctx, f.newSession(40, time.Now())))
	require.NoError(t, f.repo.Create(ctx, f.newSession(30, time.Now())))
	s := f.newSession(90, time.Now())
	s.ReaderID = other.ID
	require.NoError(t, f.repo.Create(ctx, s))

	highest, err = f.repo.MaxPagesLoggedForBook(ctx, f.book.ID)
	require.NoError(t, err)
	assert.Equal(t, 90, highest)
}
