package objects

import (
	"database/sql"
	"time"
)

type Store struct {
	db *sql.DB
}

// Object is the metadata row kept for one blob of the local backend.
type Object struct {
	Key                string
	Url                string
	Pathname           string
	ContentType        string
	ContentDisposition string
	Size               int64
	UploadedAt         time.Time
}
