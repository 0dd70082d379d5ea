// Package password hashes and verifies user passwords with bcrypt.
//
// bcrypt at cost 10 burns tens of milliseconds of CPU per call. The Hasher
// bounds how many hashes run at once so a burst of logins cannot take every
// core away from the rest of the server; callers queue on a weighted
// semaphore and give up when their context ends.
package password

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// DefaultCost is the bcrypt work factor used when none is configured.
const DefaultCost = 10

// MaxBytes is the longest password bcrypt accepts.
const MaxBytes = 72

// ErrTooLong is returned by Hash for passwords over MaxBytes.
var ErrTooLong = errors.New("password exceeds 72 bytes")

// Hasher hashes and verifies passwords.
type Hasher struct {
	cost int
	sem  *semaphore.Weighted
}

// NewHasher returns a Hasher using cost that runs at most concurrency
// bcrypt operations at a time.
func NewHasher(cost, concurrency int) *Hasher {
	if cost == 0 {
		cost = DefaultCost
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &Hasher{cost: cost, sem: semaphore.NewWeighted(int64(concurrency))}
}

// Hash returns the bcrypt hash of plain.
func (h *Hasher) Hash(ctx context.Context, plain string) (string, error) {
	if len(plain) > MaxBytes {
		return "", ErrTooLong
	}
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer h.sem.Release(1)

	hash, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// Verify reports whether plain matches hash. A malformed hash is an error;
// a mismatch is not. Passwords over MaxBytes never match since Hash
// refuses them.
func (h *Hasher) Verify(ctx context.Context, plain, hash string) (bool, error) {
	if len(plain) > MaxBytes {
		return false, nil
	}
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return false, err
	}
	defer h.sem.Release(1)

	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("failed to verify password: %w", err)
	}
}
