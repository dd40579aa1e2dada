package db

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Connect initializes the database connection and runs migrations.
func Connect(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return db, nil
}

func runMigrations(db *sqlx.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
            id SERIAL PRIMARY KEY,
            username TEXT NOT NULL UNIQUE,
            password_hash TEXT NOT NULL,
            bio TEXT NOT NULL DEFAULT '',
            is_private BOOLEAN NOT NULL DEFAULT FALSE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
		`CREATE TABLE IF NOT EXISTS follows (
            follower_id INT NOT NULL REFERENCES users(id),
            followee_id INT NOT NULL REFERENCES users(id),
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            PRIMARY KEY(follower_id, followee_id)
        );`,
		`CREATE TABLE IF NOT EXISTS follow_requests (
            id SERIAL PRIMARY KEY,
            requester_id INT NOT NULL REFERENCES users(id),
            target_id INT NOT NULL REFERENCES users(id),
            status TEXT NOT NULL DEFAULT 'pending',
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            UNIQUE(requester_id, target_id)
        );`,
		`CREATE TABLE IF NOT EXISTS posts (
            id SERIAL PRIMARY KEY,
            user_id INT NOT NULL REFERENCES users(id),
            content TEXT NOT NULL,
            likes INT NOT NULL DEFAULT 0,
            comment_count INT NOT NULL DEFAULT 0,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
		`CREATE TABLE IF NOT EXISTS post_likes (
            post_id INT NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
            user_id INT NOT NULL REFERENCES users(id),
            PRIMARY KEY(post_id, user_id)
        );`,
		`CREATE TABLE IF NOT EXISTS comments (
            id SERIAL PRIMARY KEY,
            post_id INT NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
            user_id INT NOT NULL REFERENCES users(id),
            content TEXT NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
		`CREATE TABLE IF NOT EXISTS reactions (
            id SERIAL PRIMARY KEY,
            post_id INT NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
            user_id INT NOT NULL REFERENCES users(id),
            kind TEXT NOT NULL DEFAULT 'like',
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            UNIQUE(post_id, user_id)
        );`,
		`CREATE TABLE IF NOT EXISTS chat_privileges (
            id SERIAL PRIMARY KEY,
            user1_id INT NOT NULL REFERENCES users(id),
            user2_id INT NOT NULL REFERENCES users(id),
            initiator_id INT NOT NULL,
            state TEXT NOT NULL DEFAULT 'pending',
            hide_initiator_id INT NOT NULL DEFAULT 0,
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            UNIQUE(user1_id, user2_id),
            CHECK(user1_id < user2_id)
        );`,
		`CREATE TABLE IF NOT EXISTS chat_privilege_hidden (
            privilege_id INT NOT NULL REFERENCES chat_privileges(id) ON DELETE CASCADE,
            user_id INT NOT NULL REFERENCES users(id),
            PRIMARY KEY(privilege_id, user_id)
        );`,
		`CREATE TABLE IF NOT EXISTS message_requests (
            id SERIAL PRIMARY KEY,
            sender_id INT NOT NULL REFERENCES users(id),
            recipient_id INT NOT NULL REFERENCES users(id),
            content TEXT NOT NULL,
            status TEXT NOT NULL DEFAULT 'pending',
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
		`CREATE UNIQUE INDEX IF NOT EXISTS message_requests_pending_idx
            ON message_requests (sender_id, recipient_id) WHERE status = 'pending';`,
		`CREATE TABLE IF NOT EXISTS messages (
            id SERIAL PRIMARY KEY,
            sender_id INT NOT NULL REFERENCES users(id),
            recipient_id INT NOT NULL REFERENCES users(id),
            content TEXT NOT NULL,
            read BOOLEAN NOT NULL DEFAULT FALSE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
		`CREATE INDEX IF NOT EXISTS messages_pair_idx ON messages (sender_id, recipient_id, created_at);`,
		`CREATE TABLE IF NOT EXISTS reactivation_requests (
            id SERIAL PRIMARY KEY,
            privilege_id INT NOT NULL REFERENCES chat_privileges(id) ON DELETE CASCADE,
            requester_id INT NOT NULL REFERENCES users(id),
            recipient_id INT NOT NULL REFERENCES users(id),
            status TEXT NOT NULL DEFAULT 'pending',
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return err
		}
	}
	return nil
}
