package repositories

import (
	"context"
	"fmt"

	"github.com/clipstream/backend/internal/models"
)

// SetRefreshTokenHash overwrites the refresh digest stored for the user.
func (r *PostgresUserRepository) SetRefreshTokenHash(ctx context.Context, id models.UserID, hash string) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE users
        SET refresh_token_hash = $2
        WHERE id = $1
    `, string(id), hash)
	if err != nil {
		return fmt.Errorf("update refresh token: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// SwapRefreshTokenHash performs a compare-and-replace of the refresh digest. The
// single conditional UPDATE is what lets exactly one of two concurrent refreshes win.
func (r *PostgresUserRepository) SwapRefreshTokenHash(ctx context.Context, id models.UserID, current, next string) error {
	if current == "" {
		return ErrConflict
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `
        UPDATE users
        SET refresh_token_hash = $3
        WHERE id = $1 AND refresh_token_hash = $2
    `, string(id), current, next)
	if err != nil {
		return fmt.Errorf("swap refresh token: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrConflict
	}

	return nil
}
