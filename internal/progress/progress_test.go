package progress

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/booklog/internal/entities"
)

func TestRemaining(t *testing.T) {
	tests := []struct {
		name  string
		total int
		sum   int
		want  int
	}{
		{name: "nothing read", total: 100, sum: 0, want: 100},
		{name: "partly read", total: 100, sum: 40, want: 60},
		{name: "exactly finished", total: 100, sum: 100, want: 0},
		{name: "over-logged floors at zero", total: 100, sum: 130, want: 0},
		{name: "negative sum treated as zero", total: 100, sum: -5, want: 100},
		{name: "unknown total", total: 0, sum: 40, want: Unbounded},
		{name: "negative total", total: -1, sum: 0, want: Unbounded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Remaining(tt.total, tt.sum))
		})
	}
}

func TestProgress(t *testing.T) {
	tests := []struct {
		name  string
		total int
		sum   int
		want  int
	}{
		{name: "nothing read", total: 100, sum: 0, want: 0},
		{name: "partly read", total: 100, sum: 40, want: 40},
		{name: "clamped to total", total: 100, sum: 250, want: 100},
		{name: "unknown total reports sum", total: 0, sum: 75, want: 75},
		{name: "unknown total never negative", total: 0, sum: -3, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Progress(tt.total, tt.sum))
		})
	}
}

func TestValidateSession(t *testing.T) {
	tests := []struct {
		name      string
		pages     int
		duration  int
		remaining int
		wantErr   error
	}{
		{name: "valid", pages: 10, duration: 30, remaining: 50},
		{name: "uses every remaining page", pages: 50, duration: 30, remaining: 50},
		{name: "zero duration", pages: 10, duration: 0, remaining: 50, wantErr: ErrInvalidDuration},
		{name: "negative duration", pages: 10, duration: -5, remaining: 50, wantErr: ErrInvalidDuration},
		{name: "duration checked before pages", pages: 0, duration: 0, remaining: 50, wantErr: ErrInvalidDuration},
		{name: "zero pages", pages: 0, duration: 10, remaining: 50, wantErr: ErrInvalidPageCount},
		{name: "negative pages", pages: -3, duration: 10, remaining: 50, wantErr: ErrInvalidPageCount},
		{name: "pages checked before capacity", pages: 0, duration: 10, remaining: 0, wantErr: ErrInvalidPageCount},
		{name: "book already finished", pages: 1, duration: 10, remaining: 0, wantErr: ErrExceedsRemaining},
		{name: "more than remaining", pages: 51, duration: 10, remaining: 50, wantErr: ErrExceedsRemaining},
		{name: "unbounded accepts anything", pages: 1_000_000, duration: 10, remaining: Unbounded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSession(tt.pages, tt.duration, tt.remaining)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
			assert.True(t, IsValidationError(err))
		})
	}
}

func TestValidateSession_UnknownTotalNeverExceeds(t *testing.T) {
	for _, sum := range []int{0, 10, 500, 10_000} {
		remaining := Remaining(0, sum)
		for _, pages := range []int{1, 99, 5000, 1 << 20, math.MaxInt32, math.MaxInt32 + 1, 3_000_000_000} {
			assert.NoError(t, ValidateSession(pages, 15, remaining), "sum=%d pages=%d", sum, pages)
		}
	}
}

func TestValidateSession_FinishedMessage(t *testing.T) {
	err := ValidateSession(5, 10, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already finished")

	err = ValidateSession(5, 10, 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "3 pages remaining")
}

func TestDeriveStatus(t *testing.T) {
	tests := []struct {
		name      string
		sum       int
		total     int
		want      entities.ReadingStatus
		wantKnown bool
	}{
		{name: "nothing read", sum: 0, total: 100, want: entities.StatusWantToRead, wantKnown: true},
		{name: "one page", sum: 1, total: 100, want: entities.StatusReading, wantKnown: true},
		{name: "one page short", sum: 99, total: 100, want: entities.StatusReading, wantKnown: true},
		{name: "exactly total", sum: 100, total: 100, want: entities.StatusFinished, wantKnown: true},
		{name: "beyond total", sum: 120, total: 100, want: entities.StatusFinished, wantKnown: true},
		{name: "unknown total", sum: 40, total: 0, wantKnown: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, known := DeriveStatus(tt.sum, tt.total)
			assert.Equal(t, tt.wantKnown, known)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDeriveStatus_SessionSequences(t *testing.T) {
	sequences := [][]int{
		{1},
		{10, 20, 30},
		{99},
		{50, 49},
		{25, 25, 25, 24},
	}

	for _, seq := range sequences {
		sum := 0
		for _, pages := range seq {
			sum += pages
			status, known := DeriveStatus(sum, 100)
			require.True(t, known)
			assert.Equal(t, entities.StatusReading, status, "sum=%d", sum)
		}
	}

	finishing := [][]int{{100}, {60, 40}, {30, 30, 50}}
	for _, seq := range finishing {
		sum := 0
		for _, pages := range seq {
			sum += pages
		}
		status, known := DeriveStatus(sum, 100)
		require.True(t, known)
		assert.Equal(t, entities.StatusFinished, status)
		assert.Equal(t, 0, Remaining(100, sum))
	}
}

func TestFinishedPageToPagesRead(t *testing.T) {
	assert.Equal(t, 20, FinishedPageToPagesRead(60, 40))
	assert.Equal(t, 0, FinishedPageToPagesRead(40, 40))
	assert.Equal(t, -10, FinishedPageToPagesRead(30, 40))
}
