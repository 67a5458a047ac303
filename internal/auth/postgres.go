package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

// PGStore is the PostgreSQL AccountStore backed by database/sql with the
// pgx stdlib driver.
type PGStore struct {
	db *sql.DB
}

var _ AccountStore = (*PGStore)(nil)

// NewPGStore wraps an open database handle.
func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

const accountColumns = `id, name, email, password_hash, role, active, coalesce(renewal_hash, ''), created_at, updated_at`

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func scanAccount(row interface{ Scan(...any) error }) (*Account, error) {
	var acct Account
	var role string
	err := row.Scan(
		&acct.ID, &acct.Name, &acct.Email, &acct.PasswordHash,
		&role, &acct.Active, &acct.RenewalHash,
		&acct.CreatedAt, &acct.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}
	acct.Role = Role(role)
	return &acct, nil
}

func (s *PGStore) Create(ctx context.Context, acct *Account) error {
	_, err := s.db.ExecContext(ctx, `
		insert into accounts (id, name, email, password_hash, role, active, renewal_hash, created_at, updated_at)
		values ($1, $2, $3, $4, $5, $6, nullif($7, ''), $8, $9)`,
		acct.ID, acct.Name, acct.Email, acct.PasswordHash,
		string(acct.Role), acct.Active, acct.RenewalHash,
		acct.CreatedAt, acct.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("insert account: %w", err)
	}
	return nil
}

func (s *PGStore) Find(ctx context.Context, id string) (*Account, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+accountColumns+` from accounts where id = $1`, id)
	return scanAccount(row)
}

func (s *PGStore) FindByEmail(ctx context.Context, email string) (*Account, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+accountColumns+` from accounts where lower(email) = lower($1)`, email)
	return scanAccount(row)
}

func (s *PGStore) List(ctx context.Context, f ListFilter) ([]*Account, int, error) {
	where := make([]string, 0, 2)
	args := make([]any, 0, 4)
	if f.Role != nil {
		args = append(args, string(*f.Role))
		where = append(where, fmt.Sprintf("role = $%d", len(args)))
	}
	if f.Active != nil {
		args = append(args, *f.Active)
		where = append(where, fmt.Sprintf("active = $%d", len(args)))
	}
	clause := ""
	if len(where) > 0 {
		clause = " where " + strings.Join(where, " and ")
	}

	var total int
	if err := s.db.QueryRowContext(ctx,
		`select count(*) from accounts`+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count accounts: %w", err)
	}

	args = append(args, f.Limit)
	limitPos := len(args)
	args = append(args, f.Offset)
	offsetPos := len(args)

	rows, err := s.db.QueryContext(ctx,
		`select `+accountColumns+` from accounts`+clause+
			fmt.Sprintf(` order by created_at, id limit $%d offset $%d`, limitPos, offsetPos),
		args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	accounts := make([]*Account, 0)
	for rows.Next() {
		acct, err := scanAccount(rows)
		if err != nil {
			return nil, 0, err
		}
		accounts = append(accounts, acct)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list accounts: %w", err)
	}
	return accounts, total, nil
}

func (s *PGStore) Update(ctx context.Context, acct *Account) error {
	res, err := s.db.ExecContext(ctx, `
		update accounts
		set name = $2, email = $3, role = $4, active = $5, updated_at = $6
		where id = $1`,
		acct.ID, acct.Name, acct.Email, string(acct.Role), acct.Active, acct.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("update account: %w", err)
	}
	return requireRow(res)
}

func (s *PGStore) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	res, err := s.db.ExecContext(ctx,
		`update accounts set password_hash = $2, updated_at = $3 where id = $1`,
		id, passwordHash, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return requireRow(res)
}

func (s *PGStore) UpdateRenewalHash(ctx context.Context, id, renewalHash string) error {
	res, err := s.db.ExecContext(ctx,
		`update accounts set renewal_hash = nullif($2, ''), updated_at = $3 where id = $1`,
		id, renewalHash, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update renewal hash: %w", err)
	}
	return requireRow(res)
}

func (s *PGStore) CountActiveAdmins(ctx context.Context, excludeID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`select count(*) from accounts where role = $1 and active and id <> $2`,
		string(RoleAdmin), excludeID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count active admins: %w", err)
	}
	return n, nil
}

func (s *PGStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from accounts where id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
