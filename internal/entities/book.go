package entities

import "time"

type ReadingStatus string

const (
	StatusWantToRead ReadingStatus = "WANT_TO_READ"
	StatusReading    ReadingStatus = "READING"
	StatusFinished   ReadingStatus = "FINISHED"
)

// Valid reports whether s is one of the known statuses.
func (s ReadingStatus) Valid() bool {
	switch s {
	case StatusWantToRead, StatusReading, StatusFinished:
		return true
	}
	return false
}

type Book struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"index;size:512;not null" json:"title"`
	Author    string    `gorm:"index;size:256" json:"author"`
	Pages     *int      `json:"pages"` // nil when the page count is unknown
	Genre     string    `gorm:"size:128" json:"genre,omitempty"`
	Language  string    `gorm:"size:64" json:"language,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TotalPages returns the page count, or 0 when it is unknown.
func (b *Book) TotalPages() int {
	if b.Pages == nil || *b.Pages < 0 {
		return 0
	}
	return *b.Pages
}

// ReaderBook is an entry on a reader's "My Books" list. Status is a cached
// projection of the reader's logged sessions for the book.
type ReaderBook struct {
	ReaderID  uint          `gorm:"primaryKey;autoIncrement:false" json:"reader_id"`
	BookID    uint          `gorm:"primaryKey;autoIncrement:false;index" json:"book_id"`
	Status    ReadingStatus `gorm:"size:20;not null;default:'WANT_TO_READ'" json:"status"`
	Reader    Reader        `gorm:"foreignKey:ReaderID;constraint:OnDelete:CASCADE" json:"-"`
	Book      Book          `gorm:"foreignKey:BookID;constraint:OnDelete:CASCADE" json:"book"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

type Favourite struct {
	ReaderID  uint      `gorm:"primaryKey;autoIncrement:false" json:"reader_id"`
	BookID    uint      `gorm:"primaryKey;autoIncrement:false;index" json:"book_id"`
	Reader    Reader    `gorm:"foreignKey:ReaderID;constraint:OnDelete:CASCADE" json:"-"`
	Book      Book      `gorm:"foreignKey:BookID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}
