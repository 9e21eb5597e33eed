package objects

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("object not found")

func NewObjectStore(db *sql.DB) (*Store, error) {
	st := &Store{db: db}
	if err := st.initialize(); err != nil {
		return nil, err
	}
	return st, nil
}

func (st *Store) initialize() error {
	_, err := st.db.Exec(`
		CREATE TABLE IF NOT EXISTS objects (
			key TEXT PRIMARY KEY,
			url TEXT UNIQUE NOT NULL,
			pathname TEXT NOT NULL,
			content_type TEXT NOT NULL,
			content_disposition TEXT NOT NULL DEFAULT '',
			size INTEGER NOT NULL DEFAULT 0,
			uploaded_at TIMESTAMP NOT NULL
		);
		CREATE INDEX IF NOT EXISTS objects_uploaded_at ON objects (uploaded_at);
	`)
	return err
}

func (st *Store) Create(ctx context.Context, obj *Object) error {
	_, err := st.db.ExecContext(ctx,
		"INSERT INTO objects (key, url, pathname, content_type, content_disposition, size, uploaded_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		obj.Key,
		obj.Url,
		obj.Pathname,
		obj.ContentType,
		obj.ContentDisposition,
		obj.Size,
		obj.UploadedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create object: %w", err)
	}
	return nil
}

// List returns all objects, newest first.
func (st *Store) List(ctx context.Context) ([]Object, error) {
	objs := make([]Object, 0)
	rows, err := st.db.QueryContext(ctx, "SELECT key, url, pathname, content_type, content_disposition, size, uploaded_at FROM objects ORDER BY uploaded_at DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch objects: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var obj Object
		if err := rows.Scan(&obj.Key, &obj.Url, &obj.Pathname, &obj.ContentType, &obj.ContentDisposition, &obj.Size, &obj.UploadedAt); err != nil {
			return nil, fmt.Errorf("failed to scan object: %w", err)
		}
		objs = append(objs, obj)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over objects: %w", err)
	}
	return objs, nil
}

func (st *Store) Get(ctx context.Context, key string) (*Object, error) {
	var obj Object
	err := st.db.QueryRowContext(ctx,
		"SELECT key, url, pathname, content_type, content_disposition, size, uploaded_at FROM objects WHERE key = ?",
		key,
	).Scan(&obj.Key, &obj.Url, &obj.Pathname, &obj.ContentType, &obj.ContentDisposition, &obj.Size, &obj.UploadedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch object: %w", err)
	}
	return &obj, nil
}

// Delete removes the row for key. Missing rows are not an error.
func (st *Store) Delete(ctx context.Context, key string) error {
	_, err := st.db.ExecContext(ctx, "DELETE FROM objects WHERE key = ?", key)
	if err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}
