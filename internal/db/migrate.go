package db

import (
	"context"

	"github.com/jmoiron/sqlx"
)

func RunMigrations(ctx context.Context, db *sqlx.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS users (
    id BIGSERIAL PRIMARY KEY,
    email TEXT UNIQUE NOT NULL,
    password_hash TEXT NOT NULL,
    username TEXT NOT NULL DEFAULT '',
    avatar_url TEXT NOT NULL DEFAULT '',
    bio TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS activities (
    id BIGSERIAL PRIMARY KEY,
    type TEXT NOT NULL CHECK (type IN ('food', 'study', 'sleep', 'social')),
    title TEXT NOT NULL,
    duration DOUBLE PRECISION NOT NULL DEFAULT 0 CHECK (duration >= 0),
    calories DOUBLE PRECISION,
    rating INTEGER NOT NULL DEFAULT 0 CHECK (rating BETWEEN 0 AND 5),
    date DATE NOT NULL,
    notes TEXT NOT NULL DEFAULT '',
    points_earned INTEGER NOT NULL,
    created_by TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS activities_owner_created_idx ON activities (created_by, created_at DESC);

CREATE TABLE IF NOT EXISTS friendships (
    id BIGSERIAL PRIMARY KEY,
    created_by TEXT NOT NULL,
    friend_email TEXT NOT NULL,
    friend_username TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL CHECK (status IN ('pending', 'accepted')),
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    UNIQUE(created_by, friend_email)
);

CREATE TABLE IF NOT EXISTS notifications (
    id BIGSERIAL PRIMARY KEY,
    recipient_email TEXT NOT NULL,
    sender_username TEXT NOT NULL DEFAULT '',
    sender_avatar TEXT NOT NULL DEFAULT '',
    type TEXT NOT NULL,
    message TEXT NOT NULL DEFAULT '',
    related_id BIGINT,
    is_read BOOLEAN NOT NULL DEFAULT false,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS notifications_unread_idx ON notifications (recipient_email) WHERE NOT is_read;

CREATE TABLE IF NOT EXISTS stories (
    id BIGSERIAL PRIMARY KEY,
    created_by TEXT NOT NULL,
    user_username TEXT NOT NULL DEFAULT '',
    user_avatar TEXT NOT NULL DEFAULT '',
    media_url TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    expires_at TIMESTAMPTZ NOT NULL
);
`
	_, err := db.ExecContext(ctx, schema)
	if err != nil {
		return err
	}

	alters := `
DO $$ BEGIN
    IF NOT EXISTS (
        SELECT 1 FROM information_schema.columns WHERE table_name='users' AND column_name='goal_study_minutes'
    ) THEN
        ALTER TABLE users ADD COLUMN goal_study_minutes DOUBLE PRECISION NOT NULL DEFAULT 60 CHECK (goal_study_minutes > 0);
    END IF;
    IF NOT EXISTS (
        SELECT 1 FROM information_schema.columns WHERE table_name='users' AND column_name='goal_sleep_hours'
    ) THEN
        ALTER TABLE users ADD COLUMN goal_sleep_hours DOUBLE PRECISION NOT NULL DEFAULT 8 CHECK (goal_sleep_hours > 0);
    END IF;
    IF NOT EXISTS (
        SELECT 1 FROM information_schema.columns WHERE table_name='users' AND column_name='goal_social_minutes'
    ) THEN
        ALTER TABLE users ADD COLUMN goal_social_minutes DOUBLE PRECISION NOT NULL DEFAULT 30 CHECK (goal_social_minutes > 0);
    END IF;
    IF NOT EXISTS (
        SELECT 1 FROM information_schema.columns WHERE table_name='users' AND column_name='goal_meals_count'
    ) THEN
        ALTER TABLE users ADD COLUMN goal_meals_count DOUBLE PRECISION NOT NULL DEFAULT 3 CHECK (goal_meals_count > 0);
    END IF;
    -- Read-only here; written by the points/streak process.
    IF NOT EXISTS (
        SELECT 1 FROM information_schema.columns WHERE table_name='users' AND column_name='total_points'
    ) THEN
        ALTER TABLE users ADD COLUMN total_points INTEGER NOT NULL DEFAULT 0;
    END IF;
    IF NOT EXISTS (
        SELECT 1 FROM information_schema.columns WHERE table_name='users' AND column_name='current_streak'
    ) THEN
        ALTER TABLE users ADD COLUMN current_streak INTEGER NOT NULL DEFAULT 0;
    END IF;
    IF NOT EXISTS (
        SELECT 1 FROM information_schema.columns WHERE table_name='stories' AND column_name='caption'
    ) THEN
        ALTER TABLE stories ADD COLUMN caption TEXT NOT NULL DEFAULT '';
    END IF;
END $$;`
	_, err = db.ExecContext(ctx, alters)
	return err
}
