package dao

import (
	"context"
	"errors"
	"net"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrUserEmailExists     = errors.New("user already exists")
	ErrUserNotFound        = errors.New("user not found")
	ErrResourceNotFound    = errors.New("resource not found")
	ErrParticipantNotFound = errors.New("participant not found")
	ErrBookingNotFound     = errors.New("booking not found")
	ErrPollNotFound        = errors.New("poll not found")
	ErrBallotNotFound      = errors.New("ballot not found")

	// ErrStorageUnavailable means Postgres could not be reached at all,
	// as opposed to a query that ran and found nothing.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// isUnavailable distinguishes a dead backend from an ordinary query error,
// so callers can decide whether to fall back to the in-memory mirror.
func isUnavailable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgerrcode.IsConnectionException(pgErr.Code)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	return errors.Is(err, context.DeadlineExceeded)
}

// mapUnavailable collapses connection-level failures into ErrStorageUnavailable
// and passes everything else through.
func mapUnavailable(err error) error {
	if err != nil && isUnavailable(err) {
		return ErrStorageUnavailable
	}

	return err
}
