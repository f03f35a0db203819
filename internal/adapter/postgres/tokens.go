package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// TokenStore lists registered push device tokens.
type TokenStore struct {
	db DBTX
}

func NewTokenStore(db DBTX) *TokenStore {
	return &TokenStore{db: db}
}

// DeviceTokens returns every non-empty registered token.
func (s *TokenStore) DeviceTokens(ctx context.Context) ([]string, error) {
	rows, err := s.db.Query(ctx, `SELECT device_token FROM user_device WHERE device_token <> '' ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("query device tokens: %w", err)
	}
	tokens, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("collect device tokens: %w", err)
	}
	return tokens, nil
}
