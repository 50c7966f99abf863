// Package tracker owns every write that touches reading sessions and keeps
// the per-reader status projection in step with them.
//
// Validation always works from the logged sessions and the book's page
// count; the stored status is only ever written, never read, here.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/mrlokans/booklog/internal/entities"
	"github.com/mrlokans/booklog/internal/progress"
)

// Service logs, edits and deletes reading sessions for readers.
type Service struct {
	sessions   SessionRepository
	books      BookRepository
	readers    ReaderLookup
	calculator *progress.Calculator
	logger     *zap.Logger
	now        func() time.Time
}

// NewService creates a tracker service.
func NewService(sessions SessionRepository, books BookRepository, readers ReaderLookup, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		sessions:   sessions,
		books:      books,
		readers:    readers,
		calculator: progress.NewCalculator(sessions, books),
		logger:     logger.Named("tracker"),
		now:        time.Now,
	}
}

// LogSession records a new session of pagesRead pages for the reader.
func (s *Service) LogSession(ctx context.Context, readerID, bookID uint, input SessionInput) (*entities.ReadingSession, error) {
	if err := s.requireReader(ctx, readerID); err != nil {
		return nil, err
	}
	snap, err := s.calculator.Snapshot(ctx, readerID, bookID, 0)
	if err != nil {
		return nil, err
	}
	return s.create(ctx, snap, input)
}

// LogFinishedPage records a session given the page the reader stopped on.
// The pages read are the distance from current progress to finishedPage.
func (s *Service) LogFinishedPage(ctx context.Context, readerID, bookID uint, finishedPage, durationMinutes int, occurredAt time.Time) (*entities.ReadingSession, error) {
	if err := s.requireReader(ctx, readerID); err != nil {
		return nil, err
	}
	snap, err := s.calculator.Snapshot(ctx, readerID, bookID, 0)
	if err != nil {
		return nil, err
	}
	return s.create(ctx, snap, SessionInput{
		PagesRead:       progress.FinishedPageToPagesRead(finishedPage, snap.Progress),
		DurationMinutes: durationMinutes,
		OccurredAt:      occurredAt,
	})
}

func (s *Service) create(ctx context.Context, snap progress.Snapshot, input SessionInput) (*entities.ReadingSession, error) {
	if err := progress.ValidateSession(input.PagesRead, input.DurationMinutes, snap.Remaining); err != nil {
		return nil, err
	}

	session := &entities.ReadingSession{
		ReaderID:        snap.ReaderID,
		BookID:          snap.BookID,
		PagesRead:       input.PagesRead,
		DurationMinutes: input.DurationMinutes,
		OccurredAt:      s.occurredAt(input.OccurredAt),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save reading session: %w", err)
	}

	s.logger.Info("Reading session logged",
		zap.Uint("reader_id", session.ReaderID),
		zap.Uint("book_id", session.BookID),
		zap.Uint("session_id", session.ID),
		zap.Int("pages_read", session.PagesRead))

	s.refreshAfterWrite(ctx, session.ReaderID, session.BookID)
	return session, nil
}

// UpdateSession replaces the pages, duration and date of a session the
// reader owns. The session's old page count does not count against itself.
// A zero OccurredAt keeps the stored date.
func (s *Service) UpdateSession(ctx context.Context, readerID, sessionID uint, input SessionInput) (*entities.ReadingSession, error) {
	session, err := s.ownedSession(ctx, readerID, sessionID)
	if err != nil {
		return nil, err
	}

	remaining, err := s.calculator.RemainingPages(ctx, readerID, session.BookID, session.ID)
	if err != nil {
		return nil, err
	}
	if err := progress.ValidateSession(input.PagesRead, input.DurationMinutes, remaining); err != nil {
		return nil, err
	}

	session.PagesRead = input.PagesRead
	session.DurationMinutes = input.DurationMinutes
	if !input.OccurredAt.IsZero() {
		session.OccurredAt = input.OccurredAt
	}
	if err := s.sessions.Update(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to update reading session: %w", err)
	}

	s.logger.Info("Reading session updated",
		zap.Uint("reader_id", readerID),
		zap.Uint("session_id", session.ID),
		zap.Int("pages_read", session.PagesRead))

	s.refreshAfterWrite(ctx, readerID, session.BookID)
	return session, nil
}

// DeleteSession removes a session the reader owns.
func (s *Service) DeleteSession(ctx context.Context, readerID, sessionID uint) error {
	session, err := s.ownedSession(ctx, readerID, sessionID)
	if err != nil {
		return err
	}
	if err := s.sessions.Delete(ctx, session.ID); err != nil {
		return fmt.Errorf("failed to delete reading session: %w", err)
	}

	s.logger.Info("Reading session deleted",
		zap.Uint("reader_id", readerID),
		zap.Uint("session_id", session.ID))

	s.refreshAfterWrite(ctx, readerID, session.BookID)
	return nil
}

// ListSessions returns the reader's sessions for a book, most recent first.
func (s *Service) ListSessions(ctx context.Context, readerID, bookID uint) ([]entities.ReadingSession, error) {
	return s.sessions.FindByReaderAndBook(ctx, readerID, bookID)
}

// RecentSessions returns the reader's latest sessions across all books.
func (s *Service) RecentSessions(ctx context.Context, readerID uint, limit int) ([]entities.ReadingSession, error) {
	return s.sessions.FindByReader(ctx, readerID, limit)
}

// Progress returns the reader's current progress in a book.
func (s *Service) Progress(ctx context.Context, readerID, bookID uint) (progress.Snapshot, error) {
	return s.calculator.Snapshot(ctx, readerID, bookID, 0)
}

// AddToMyBooks puts a book on the reader's list. An empty status means
// WANT_TO_READ. When the reader already logged sessions for a book with a
// known page count, the derived status wins over the requested one.
func (s *Service) AddToMyBooks(ctx context.Context, readerID, bookID uint, status entities.ReadingStatus) (entities.ReadingStatus, error) {
	if status == "" {
		status = entities.StatusWantToRead
	}
	if !status.Valid() {
		return "", fmt.Errorf("invalid reading status %q", status)
	}
	if err := s.requireReader(ctx, readerID); err != nil {
		return "", err
	}

	snap, err := s.calculator.Snapshot(ctx, readerID, bookID, 0)
	if err != nil {
		return "", err
	}
	if snap.Known() && snap.PagesRead > 0 {
		status = snap.Status
	}

	if err := s.books.AddForReader(ctx, readerID, bookID, status); err != nil {
		return "", fmt.Errorf("failed to add book to reader list: %w", err)
	}
	return status, nil
}

// RefreshStatus recomputes the reader's status for a book and stores it.
// Nothing is stored when the page count is unknown; known is false then.
func (s *Service) RefreshStatus(ctx context.Context, readerID, bookID uint) (entities.ReadingStatus, bool, error) {
	snap, err := s.calculator.Snapshot(ctx, readerID, bookID, 0)
	if err != nil {
		return "", false, err
	}
	if !snap.Known() {
		return "", false, nil
	}
	if err := s.books.SetStatus(ctx, bookID, readerID, snap.Status); err != nil {
		return "", false, fmt.Errorf("failed to store status: %w", err)
	}
	return snap.Status, true, nil
}

// ReconcileStatuses refreshes the status of every (reader, book) pair that
// has sessions or a reading list entry. A zero readerID covers all readers.
// It keeps going past individual failures and returns them combined along
// with the number of statuses written.
func (s *Service) ReconcileStatuses(ctx context.Context, readerID uint) (int, error) {
	fromSessions, err := s.sessions.ReaderBookPairs(ctx, readerID)
	if err != nil {
		return 0, fmt.Errorf("failed to list session pairs: %w", err)
	}
	fromLists, err := s.books.ReaderBookPairs(ctx, readerID)
	if err != nil {
		return 0, fmt.Errorf("failed to list reading list pairs: %w", err)
	}

	seen := make(map[entities.ReaderBookPair]struct{}, len(fromSessions)+len(fromLists))
	var updated int
	var errs error
	for _, pair := range append(fromSessions, fromLists...) {
		if _, ok := seen[pair]; ok {
			continue
		}
		seen[pair] = struct{}{}

		if err := ctx.Err(); err != nil {
			return updated, multierr.Append(errs, err)
		}

		_, known, err := s.RefreshStatus(ctx, pair.ReaderID, pair.BookID)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("reader %d book %d: %w", pair.ReaderID, pair.BookID, err))
			continue
		}
		if known {
			updated++
		}
	}

	s.logger.Info("Statuses reconciled",
		zap.Uint("reader_id", readerID),
		zap.Int("pairs", len(seen)),
		zap.Int("updated", updated),
		zap.Int("failed", len(multierr.Errors(errs))))

	return updated, errs
}

// refreshAfterWrite updates the projection after a session change. The
// session write already succeeded, so a failure here is only logged.
func (s *Service) refreshAfterWrite(ctx context.Context, readerID, bookID uint) {
	if _, _, err := s.RefreshStatus(ctx, readerID, bookID); err != nil {
		s.logger.Warn("Failed to refresh reading status",
			zap.Uint("reader_id", readerID),
			zap.Uint("book_id", bookID),
			zap.Error(err))
	}
}

func (s *Service) requireReader(ctx context.Context, readerID uint) error {
	ok, err := s.readers.Exists(ctx, readerID)
	if err != nil {
		return fmt.Errorf("failed to look up reader: %w", err)
	}
	if !ok {
		return entities.ErrReaderNotFound
	}
	return nil
}

// ownedSession loads a session and hides sessions of other readers behind
// ErrSessionNotFound.
func (s *Service) ownedSession(ctx context.Context, readerID, sessionID uint) (*entities.ReadingSession, error) {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, entities.ErrSessionNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to load reading session: %w", err)
	}
	if session.ReaderID != readerID {
		return nil, entities.ErrSessionNotFound
	}
	return session, nil
}

func (s *Service) occurredAt(t time.Time) time.Time {
	if t.IsZero() {
		return s.now()
	}
	return t
}
