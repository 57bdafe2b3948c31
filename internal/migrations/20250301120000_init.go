package migrations

import (
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigration(upInit, downInit)
}

func upInit(tx *sql.Tx) error {
	_, err := tx.Exec(`
	CREATE TABLE authors (
		id           TEXT PRIMARY KEY,
		display_name TEXT NOT NULL,
		image_url    TEXT NOT NULL DEFAULT '',
		kind         TEXT NOT NULL DEFAULT 'person'
	);

	CREATE TABLE posts (
		id           TEXT PRIMARY KEY,
		author_id    TEXT NOT NULL REFERENCES authors(id),
		content_kind TEXT NOT NULL,
		body         TEXT NOT NULL DEFAULT '',
		media_url    TEXT NOT NULL DEFAULT '',
		caption      TEXT NOT NULL DEFAULT '',
		view_count   INTEGER NOT NULL DEFAULT 0,
		created_at   TIMESTAMPTZ NOT NULL,
		expires_at   TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX idx_posts_author_expiry ON posts (author_id, expires_at);

	CREATE TABLE follows (
		user_id    TEXT NOT NULL,
		author_id  TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (user_id, author_id)
	);
	`)
	if err != nil {
		return err
	}
	return nil
}

func downInit(tx *sql.Tx) error {
	_, err := tx.Exec(`
	DROP TABLE follows;
	DROP TABLE posts;
	DROP TABLE authors;
	`)
	if err != nil {
		return err
	}
	return nil
}
