package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"retailops/backend/internal/domain"
	"retailops/backend/internal/store"
)

//go:embed schema.sql
var schemaSQL string

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate applies the embedded schema. Every statement is idempotent, so it
// is safe to run on each start.
func (s *Store) Migrate(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range strings.Split(schemaSQL, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return tx.Commit()
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// filter accumulates a WHERE clause with positional arguments.
type filter struct {
	clauses []string
	args    []any
}

// eq adds "column = $n" when val is non-empty.
func (f *filter) eq(column string, val string) {
	if val == "" {
		return
	}
	f.args = append(f.args, val)
	f.clauses = append(f.clauses, fmt.Sprintf("%s = $%d", column, len(f.args)))
}

func (f *filter) between(column string, r store.Range) {
	if !r.From.IsZero() {
		f.args = append(f.args, r.From.UTC())
		f.clauses = append(f.clauses, fmt.Sprintf("%s >= $%d", column, len(f.args)))
	}
	if !r.To.IsZero() {
		f.args = append(f.args, r.To.UTC())
		f.clauses = append(f.clauses, fmt.Sprintf("%s < $%d", column, len(f.args)))
	}
}

func (f *filter) where() string {
	if len(f.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(f.clauses, " AND ")
}

func (f *filter) limit(n int) string {
	if n <= 0 {
		return ""
	}
	f.args = append(f.args, n)
	return fmt.Sprintf(" LIMIT $%d", len(f.args))
}

// exec runs a single-row write and maps driver errors to store sentinels.
func (s *Store) exec(ctx context.Context, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return mapError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// deleteParent runs a delete whose row may still be referenced. The foreign
// keys have no cascade, so a reference inserted after the service-level check
// still fails the statement and is reported as store.ErrInUse.
func (s *Store) deleteParent(ctx context.Context, query string, id string) error {
	err := s.exec(ctx, query, id)
	if errors.Is(err, store.ErrInvalid) {
		return fmt.Errorf("%w: %v", store.ErrInUse, err)
	}
	return err
}

func mapError(err error) error {
	switch {
	case isUniqueViolation(err):
		return fmt.Errorf("%w: %v", store.ErrUniqueConflict, err)
	case isForeignKeyViolation(err):
		return fmt.Errorf("%w: %v", store.ErrInvalid, err)
	case errors.Is(err, sql.ErrNoRows):
		return store.ErrNotFound
	default:
		return err
	}
}

func (s *Store) CountDependents(ctx context.Context, kind domain.EntityKind, id string) (int, error) {
	var query string
	switch kind {
	case domain.EntityStore:
		query = `
			SELECT (SELECT count(*) FROM sales WHERE store_id = $1)
			     + (SELECT count(*) FROM expenses WHERE store_id = $1)
			     + (SELECT count(*) FROM attendance WHERE store_id = $1)
			     + (SELECT count(*) FROM deliveries WHERE store_id = $1)
			     + (SELECT count(*) FROM store_employees WHERE store_id = $1)
			     + (SELECT count(*) FROM store_drivers WHERE store_id = $1)
		`
	case domain.EntityEmployee:
		query = `
			SELECT (SELECT count(*) FROM attendance WHERE employee_id = $1)
			     + (SELECT count(*) FROM payments WHERE employee_id = $1)
			     + (SELECT count(*) FROM store_employees WHERE employee_id = $1)
		`
	case domain.EntityDriver:
		query = `
			SELECT (SELECT count(*) FROM deliveries WHERE driver_id = $1)
			     + (SELECT count(*) FROM store_drivers WHERE driver_id = $1)
		`
	case domain.EntityVendor:
		query = `SELECT count(*) FROM expenses WHERE vendor_id = $1`
	default:
		return 0, fmt.Errorf("%w: unknown entity kind %q", store.ErrInvalid, kind)
	}

	var n int
	if err := s.db.QueryRowContext(ctx, query, id).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *Store) CreateUser(ctx context.Context, user domain.UserAccount) error {
	user.Username = strings.ToLower(strings.TrimSpace(user.Username))
	if user.Username == "" || strings.TrimSpace(user.Password) == "" {
		return store.ErrInvalid
	}
	if user.Role == "" {
		user.Role = domain.RoleUser
	}
	if !user.Role.Valid() {
		return store.ErrInvalid
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO app_users (username, password, role, active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,now())
	`, user.Username, user.Password, user.Role, user.Active, user.CreatedAt)
	if err != nil {
		return mapError(err)
	}
	return nil
}

func (s *Store) ListUsers(ctx context.Context) ([]domain.UserAccount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT username, password, role, active, created_at
		FROM app_users
		ORDER BY username ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.UserAccount, 0, 16)
	for rows.Next() {
		var user domain.UserAccount
		if err := rows.Scan(&user.Username, &user.Password, &user.Role, &user.Active, &user.CreatedAt); err != nil {
			return nil, err
		}
		user.CreatedAt = user.CreatedAt.UTC()
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *Store) UpdateUserPassword(ctx context.Context, username string, password string) error {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" || strings.TrimSpace(password) == "" {
		return store.ErrInvalid
	}

	return s.exec(ctx, `
		UPDATE app_users
		SET password = $2, updated_at = now()
		WHERE username = $1
	`, username, password)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}
	return false
}

func dateUTC(t time.Time) time.Time {
	return time.Date(t.UTC().Year(), t.UTC().Month(), t.UTC().Day(), 0, 0, 0, 0, time.UTC)
}

func nullIfEmpty(val string) any {
	if val == "" {
		return nil
	}
	return val
}

func joinCurrencies(cs []domain.Currency) string {
	parts := make([]string, 0, len(cs))
	for _, c := range cs {
		parts = append(parts, string(c))
	}
	return strings.Join(parts, ",")
}

func splitCurrencies(raw string) []domain.Currency {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]domain.Currency, 0, len(parts))
	for _, p := range parts {
		out = append(out, domain.Currency(strings.TrimSpace(p)))
	}
	return out
}
