package adapter

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	chat "wrenconnect/internal/pkg/chat/domain"
)

// PgAccountRepository reads account identity/display data. Accounts are
// written by the auth service; the chat feature only consumes them.
type PgAccountRepository struct {
	pool *pgxpool.Pool
}

func NewPgAccountRepository(pool *pgxpool.Pool) *PgAccountRepository {
	return &PgAccountRepository{pool: pool}
}

func (r *PgAccountRepository) ListAccounts(ctx context.Context, role string) ([]chat.Account, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgAccountRepository: nil pool")
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, first_name, last_name, role, COALESCE(profile_img, '')
		FROM accounts
		WHERE $1 = '' OR role = $1
		ORDER BY first_name, last_name
	`, role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []chat.Account
	for rows.Next() {
		var a chat.Account
		if err := rows.Scan(&a.ID, &a.FirstName, &a.LastName, &a.Role, &a.ProfileImg); err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (r *PgAccountRepository) GetAccount(ctx context.Context, id string) (*chat.Account, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgAccountRepository: nil pool")
	}
	var a chat.Account
	err := r.pool.QueryRow(ctx, `
		SELECT id, first_name, last_name, role, COALESCE(profile_img, '')
		FROM accounts
		WHERE id = $1
	`, id).Scan(&a.ID, &a.FirstName, &a.LastName, &a.Role, &a.ProfileImg)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, chat.ErrAccountUnknown
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}
