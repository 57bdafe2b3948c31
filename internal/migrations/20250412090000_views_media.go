package migrations

import (
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigration(upViewsMedia, downViewsMedia)
}

func upViewsMedia(tx *sql.Tx) error {
	_, err := tx.Exec(`
	CREATE TABLE post_views (
		post_id   TEXT NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
		viewer_id TEXT NOT NULL,
		viewed_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (post_id, viewer_id)
	);

	CREATE TABLE media (
		hash       TEXT PRIMARY KEY,
		url        TEXT NOT NULL,
		kind       TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	`)
	if err != nil {
		return err
	}
	return nil
}

func downViewsMedia(tx *sql.Tx) error {
	_, err := tx.Exec(`
	DROP TABLE media;
	DROP TABLE post_views;
	`)
	if err != nil {
		return err
	}
	return nil
}
