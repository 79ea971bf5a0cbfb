package postgres

import (
	"context"

	"quiz-delivery-service/internal/domain"
)

func (s *Store) GetAccount(ctx context.Context, id string) (domain.Account, error) {
	a, err := scanAccount(s.pool.QueryRow(ctx, `SELECT id, email, role FROM accounts WHERE id=$1`, id))
	if err != nil {
		return domain.Account{}, mapError("get account", err)
	}
	return a, nil
}

func (s *Store) CreateAccount(ctx context.Context, account domain.Account) error {
	return exec(ctx, s.pool, "create account",
		`INSERT INTO accounts (id, email, role) VALUES ($1, $2, $3)`,
		account.ID, account.Email, string(account.Role))
}

func (s *Store) UpdateAccountRole(ctx context.Context, id string, role domain.Role) error {
	return execOne(ctx, s.pool, "update account role",
		`UPDATE accounts SET role=$2 WHERE id=$1`, id, string(role))
}

func (s *Store) ListAccountsByRole(ctx context.Context, role domain.Role) ([]domain.Account, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, email, role FROM accounts WHERE role=$1 ORDER BY email`, string(role))
	if err != nil {
		return nil, mapError("list accounts", err)
	}
	defer rows.Close()

	out := []domain.Account{}
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, mapError("scan account", err)
		}
		out = append(out, a)
	}
	return out, mapError("list accounts", rows.Err())
}

func (s *Store) CreateIdentity(ctx context.Context, identity domain.Identity) error {
	return exec(ctx, s.pool, "create identity",
		`INSERT INTO identities (id, email, password_hash, created_at) VALUES ($1, $2, $3, $4)`,
		identity.ID, identity.Email, identity.PasswordHash, identity.CreatedAt)
}

func (s *Store) GetIdentityByEmail(ctx context.Context, email string) (domain.Identity, error) {
	var i domain.Identity
	err := s.pool.QueryRow(ctx,
		`SELECT id, email, password_hash, created_at FROM identities WHERE email=$1`, email).
		Scan(&i.ID, &i.Email, &i.PasswordHash, &i.CreatedAt)
	if err != nil {
		return domain.Identity{}, mapError("get identity", err)
	}
	return i, nil
}

func (s *Store) DeleteIdentity(ctx context.Context, id string) error {
	return execOne(ctx, s.pool, "delete identity", `DELETE FROM identities WHERE id=$1`, id)
}

func scanAccount(row scanner) (domain.Account, error) {
	var (
		a    domain.Account
		role string
	)
	if err := row.Scan(&a.ID, &a.Email, &role); err != nil {
		return domain.Account{}, err
	}
	a.Role = domain.Role(role)
	return a, nil
}
