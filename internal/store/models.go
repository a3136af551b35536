package store

import (
	"database/sql"
	"time"
)

type User struct {
	ID           int64
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	City         string
	Phone        string
	Iin          string
	WorkPlace    string
	Specialty    string
	IsActive     bool
	IsStaff      bool
	IsSuperuser  bool
	DateJoined   time.Time
	LastLogin    sql.NullTime
	UpdatedAt    time.Time
}

type Image struct {
	ID          int64
	Uuid        string
	Title       string
	Filename    string
	MimeType    string
	Width       int64
	Height      int64
	Size        int64
	OriginalKey string
	PreviewKey  string
	UploadedBy  sql.NullInt64
	CreatedAt   time.Time
}

type Page struct {
	ID               int64
	ParentID         sql.NullInt64
	PageType         string
	Title            string
	Slug             string
	Description      string
	PreviewImageID   sql.NullInt64
	HeroImageID      sql.NullInt64
	HeroTitle        string
	HeroSubtitle     string
	Body             string
	Live             bool
	FirstPublishedAt sql.NullTime
	LastPublishedAt  sql.NullTime
	GoLiveAt         sql.NullTime
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type PageRevision struct {
	ID          int64
	PageID      int64
	UserID      sql.NullInt64
	Title       string
	Description string
	Body        string
	CreatedAt   time.Time
}

type Event struct {
	ID        int64
	Level     string
	Category  string
	Message   string
	UserID    sql.NullInt64
	Metadata  string
	CreatedAt time.Time
}
