package auth_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/primshare/go-auth"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

const (
	sqliteCreateUsers = `CREATE TABLE IF NOT EXISTS "users" (
    "id" VARCHAR PRIMARY KEY,
    "name" VARCHAR,
    "email" VARCHAR NOT NULL UNIQUE,
    "phone_number" VARCHAR,
    "password_hash" VARCHAR,
    "roles" VARCHAR NOT NULL DEFAULT '["user"]',
    "is_email_verified" BOOLEAN NOT NULL DEFAULT FALSE,
    "login_attempts" INTEGER NOT NULL DEFAULT 0,
    "login_attempt_at" TIMESTAMP,
    "loggedin_at" TIMESTAMP,
    "created_at" TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    "updated_at" TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    "deleted_at" TIMESTAMP
);`

	sqliteCreateTokens = `CREATE TABLE IF NOT EXISTS "tokens" (
    "id" VARCHAR PRIMARY KEY,
    "token" TEXT NOT NULL UNIQUE,
    "type" VARCHAR NOT NULL,
    "expires_at" TIMESTAMP NOT NULL,
    "blacklisted" BOOLEAN NOT NULL DEFAULT FALSE,
    "user_id" VARCHAR NOT NULL REFERENCES "users" ("id") ON DELETE CASCADE,
    "created_at" TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    "updated_at" TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);`
)

func setupTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())

	_, err = db.Exec("PRAGMA foreign_keys = ON;")
	require.NoError(t, err)

	_, err = db.Exec(sqliteCreateUsers)
	require.NoError(t, err)
	_, err = db.Exec(sqliteCreateTokens)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}

func setupTestRepo(t *testing.T) auth.RepositoryManager {
	t.Helper()
	return auth.NewRepositoryManager(setupTestDB(t))
}

func createTestUser(t *testing.T, repo auth.RepositoryManager, email string) *auth.User {
	t.Helper()

	user, err := repo.Users().Register(context.Background(), &auth.User{
		Name:         "Test User",
		Email:        email,
		PasswordHash: hashedTestPassword(t),
	})
	require.NoError(t, err)
	require.NotNil(t, user)

	return user
}
