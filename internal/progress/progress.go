package progress

import (
	"errors"
	"fmt"
	"math"

	"github.com/mrlokans/booklog/internal/entities"
)

// Unbounded is the remaining page count reported for books without a known
// page count.
const Unbounded = math.MaxInt

var (
	ErrInvalidDuration  = errors.New("duration must be greater than zero")
	ErrInvalidPageCount = errors.New("pages read must be at least 1")
	ErrExceedsRemaining = errors.New("pages read exceed the pages remaining")
)

// IsValidationError reports whether err is one of the session validation
// errors, as opposed to a storage or lookup failure.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidDuration) ||
		errors.Is(err, ErrInvalidPageCount) ||
		errors.Is(err, ErrExceedsRemaining)
}

// Remaining returns max(0, totalPages-sumPagesRead), or Unbounded when the
// total is unknown.
func Remaining(totalPages, sumPagesRead int) int {
	if totalPages <= 0 {
		return Unbounded
	}
	if sumPagesRead < 0 {
		sumPagesRead = 0
	}
	return max(0, totalPages-sumPagesRead)
}

// Progress returns the number of pages read, clamped to [0, totalPages].
// For an unknown total it is the logged sum.
func Progress(totalPages, sumPagesRead int) int {
	if totalPages <= 0 {
		return max(0, sumPagesRead)
	}
	return min(max(totalPages-Remaining(totalPages, sumPagesRead), 0), totalPages)
}

// ValidateSession checks a candidate session against the pages remaining in
// the book. Duration is checked first, then the page count, then capacity.
// Capacity is not checked when remaining is Unbounded.
func ValidateSession(pagesRead, durationMinutes, remaining int) error {
	if durationMinutes <= 0 {
		return ErrInvalidDuration
	}
	if pagesRead < 1 {
		return ErrInvalidPageCount
	}
	if remaining == Unbounded {
		return nil
	}
	if remaining <= 0 {
		return fmt.Errorf("%w: book is already finished", ErrExceedsRemaining)
	}
	if pagesRead > remaining {
		return fmt.Errorf("%w: %d pages remaining", ErrExceedsRemaining, remaining)
	}
	return nil
}

// DeriveStatus maps progress to a reading status. The second result is false
// when the total is unknown and no status applies.
func DeriveStatus(sumPagesRead, totalPages int) (entities.ReadingStatus, bool) {
	if totalPages <= 0 {
		return "", false
	}
	switch {
	case sumPagesRead <= 0:
		return entities.StatusWantToRead, true
	case sumPagesRead < totalPages:
		return entities.StatusReading, true
	default:
		return entities.StatusFinished, true
	}
}

// FinishedPageToPagesRead converts an absolute "finished on page N" input
// into the incremental pages read during the session. The result is not
// validated; a page at or before current progress gives a value below 1.
func FinishedPageToPagesRead(finishedPage, currentProgress int) int {
	return finishedPage - currentProgress
}
