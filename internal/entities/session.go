package entities

import "time"

// ReadingSession is one logged stretch of reading. PagesRead is the number of
// pages read during this session, not a cumulative position.
type ReadingSession struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	ReaderID        uint      `gorm:"index:idx_sessions_reader_book,priority:1;not null" json:"reader_id"`
	BookID          uint      `gorm:"index:idx_sessions_reader_book,priority:2;not null" json:"book_id"`
	PagesRead       int       `gorm:"not null" json:"pages_read"`
	DurationMinutes int       `gorm:"not null" json:"duration_minutes"`
	OccurredAt      time.Time `gorm:"index;not null" json:"occurred_at"`
	Reader          Reader    `gorm:"foreignKey:ReaderID;constraint:OnDelete:CASCADE" json:"-"`
	Book            Book      `gorm:"foreignKey:BookID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ReaderBookPair identifies one reader's relationship with one book.
type ReaderBookPair struct {
	ReaderID uint
	BookID   uint
}
