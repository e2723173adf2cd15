package repository

import (
	"errors"
	"fmt"
	"net"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrItemNotFound = errors.New("item not found")
	ErrJobNotFound  = errors.New("scrape job not found")

	// ErrStoreUnavailable distinguishes "could not reach the store" from a
	// query the store rejected; the API maps it to 503 instead of 500.
	ErrStoreUnavailable = errors.New("store unavailable")
)

func classify(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return err
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return err
}
