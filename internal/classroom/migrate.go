package classroom

import (
	"context"

	"github.com/pkg/errors"
)

// schema only ever creates what is missing; existing data is never touched.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS class_members (
		id     VARCHAR(50)  PRIMARY KEY,
		name   VARCHAR(100) NOT NULL,
		role   VARCHAR(10)  NOT NULL CHECK (role IN ('teacher', 'student')),
		phone  VARCHAR(20)  NOT NULL DEFAULT '',
		email  VARCHAR(100) NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS committee (
		id               SERIAL       PRIMARY KEY,
		student_id       VARCHAR(50)  NOT NULL UNIQUE,
		name             VARCHAR(100) NOT NULL,
		position         VARCHAR(100) NOT NULL,
		responsibilities TEXT         NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS activities (
		id          SERIAL       PRIMARY KEY,
		name        VARCHAR(200) NOT NULL,
		type        VARCHAR(50)  NOT NULL,
		date        DATE         NOT NULL,
		creator     VARCHAR(100) NOT NULL DEFAULT '',
		description TEXT         NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_activities_date ON activities(date)`,
	`CREATE TABLE IF NOT EXISTS schedules (
		id        SERIAL       PRIMARY KEY,
		date      DATE         NOT NULL,
		personnel VARCHAR(200) NOT NULL,
		task      TEXT         NOT NULL DEFAULT '',
		status    VARCHAR(20)  NOT NULL DEFAULT 'not-started'
			CHECK (status IN ('not-started', 'in-progress', 'completed'))
	)`,
	`CREATE INDEX IF NOT EXISTS idx_schedules_date ON schedules(date)`,
	`CREATE TABLE IF NOT EXISTS messages (
		id         SERIAL      PRIMARY KEY,
		content    TEXT        NOT NULL,
		user_id    VARCHAR(50) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_messages_created ON messages(created_at)`,
	`CREATE TABLE IF NOT EXISTS chat_history (
		id       BIGSERIAL    PRIMARY KEY,
		username VARCHAR(100) NOT NULL DEFAULT '',
		content  TEXT         NOT NULL,
		sent_at  TIMESTAMPTZ  NOT NULL DEFAULT now()
	)`,
}

// Migrate creates any missing tables and indexes.
func (r *Repository) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "migrate")
		}
	}
	return nil
}
