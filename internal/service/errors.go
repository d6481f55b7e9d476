package service

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Sentinel errors shared by services. Handlers map them to response codes.
var (
	ErrNotFound           = errors.New("resource not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrSessionInvalidated = errors.New("session invalidated")
	ErrQuestionNotFound   = errors.New("question not found")
	ErrFolderNotFound     = errors.New("folder not found")
	ErrImageNotFound      = errors.New("image not found")
	ErrNoCaseMatches      = errors.New("no case matches the filter")
)

// notFound converts a missing row into ErrNotFound and leaves other errors untouched.
func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// isUniqueViolation reports whether err is a Postgres unique constraint failure.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
