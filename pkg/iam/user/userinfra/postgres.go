package userinfra

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fieldops360/auth-service/pkg/errx"
	"github.com/fieldops360/auth-service/pkg/iam"
	"github.com/fieldops360/auth-service/pkg/iam/user"
	"github.com/fieldops360/auth-service/pkg/kernel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const userColumns = `id, email, password_hash, first_name, last_name, role, phone, position, skills,
	avatar_url, language, timezone, active, first_login, failed_login_attempts, locked_until,
	last_login_at, refresh_token_hash, refresh_token_lookup, reset_token_hash, reset_token_lookup,
	reset_token_expires_at, created_at, updated_at`

// PostgresUserRepository is the user.Repository of one tenant database.
type PostgresUserRepository struct {
	db *sqlx.DB
}

func NewPostgresUserRepository(db *sqlx.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

var _ user.Repository = (*PostgresUserRepository)(nil)

func (r *PostgresUserRepository) FindByID(ctx context.Context, id kernel.UserID) (*user.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id.String())
}

func (r *PostgresUserRepository) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, user.NormalizeEmail(email))
}

func (r *PostgresUserRepository) FindByRefreshLookup(ctx context.Context, lookup string) (*user.User, error) {
	return r.getOne(ctx,
		`SELECT `+userColumns+` FROM users WHERE refresh_token_lookup = $1 AND active = true`, lookup)
}

func (r *PostgresUserRepository) FindByResetLookup(ctx context.Context, lookup string, now time.Time) (*user.User, error) {
	return r.getOne(ctx,
		`SELECT `+userColumns+` FROM users WHERE reset_token_lookup = $1 AND reset_token_expires_at > $2`,
		lookup, now)
}

func (r *PostgresUserRepository) getOne(ctx context.Context, query string, args ...any) (*user.User, error) {
	var row userRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, user.ErrUserNotFound()
		}
		return nil, errx.Wrap(err, "failed to load user", errx.TypeInternal)
	}
	return row.toDomain(), nil
}

func (r *PostgresUserRepository) FindMany(ctx context.Context, filter user.ListFilter) ([]*user.User, error) {
	filter = filter.Normalized()
	where, args := buildWhere(filter)

	query := fmt.Sprintf(`SELECT %s FROM users %s ORDER BY %s %s NULLS LAST, id ASC LIMIT $%d OFFSET $%d`,
		userColumns, where, sortColumn(filter.Sort), strings.ToUpper(string(filter.Order)),
		len(args)+1, len(args)+2)
	args = append(args, filter.PageSize, filter.Offset())

	var rows []userRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errx.Wrap(err, "failed to list users", errx.TypeInternal)
	}

	users := make([]*user.User, len(rows))
	for i := range rows {
		users[i] = rows[i].toDomain()
	}
	return users, nil
}

func (r *PostgresUserRepository) Count(ctx context.Context, filter user.ListFilter) (int, error) {
	where, args := buildWhere(filter.Normalized())

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM users `+where, args...); err != nil {
		return 0, errx.Wrap(err, "failed to count users", errx.TypeInternal)
	}
	return total, nil
}

func (r *PostgresUserRepository) EmailTaken(ctx context.Context, email string, except kernel.UserID) (bool, error) {
	var taken bool
	err := r.db.GetContext(ctx, &taken,
		`SELECT EXISTS(SELECT 1 FROM users WHERE email = $1 AND id <> $2)`,
		user.NormalizeEmail(email), except.String())
	if err != nil {
		return false, errx.Wrap(err, "failed to check email", errx.TypeInternal)
	}
	return taken, nil
}

func (r *PostgresUserRepository) Create(ctx context.Context, u *user.User) error {
	query := `
		INSERT INTO users (
			id, email, password_hash, first_name, last_name, role, phone, position, skills,
			avatar_url, language, timezone, active, first_login, failed_login_attempts,
			created_at, updated_at
		) VALUES (
			:id, :email, :password_hash, :first_name, :last_name, :role, :phone, :position, :skills,
			:avatar_url, :language, :timezone, :active, :first_login, :failed_login_attempts,
			:created_at, :updated_at
		)`

	if _, err := r.db.NamedExecContext(ctx, query, toRow(u)); err != nil {
		if isUniqueViolation(err) {
			return user.ErrDuplicateEmail(u.Email)
		}
		return errx.Wrap(err, "failed to create user", errx.TypeInternal).WithDetail("user_id", u.ID)
	}
	return nil
}

func (r *PostgresUserRepository) Update(ctx context.Context, u *user.User) error {
	query := `
		UPDATE users SET
			email = :email,
			first_name = :first_name,
			last_name = :last_name,
			role = :role,
			phone = :phone,
			position = :position,
			skills = :skills,
			avatar_url = :avatar_url,
			language = :language,
			timezone = :timezone,
			active = :active,
			updated_at = :updated_at
		WHERE id = :id`

	result, err := r.db.NamedExecContext(ctx, query, toRow(u))
	if err != nil {
		if isUniqueViolation(err) {
			return user.ErrDuplicateEmail(u.Email)
		}
		return errx.Wrap(err, "failed to update user", errx.TypeInternal).WithDetail("user_id", u.ID)
	}
	return expectOneRow(result)
}

func (r *PostgresUserRepository) RecordFailedLogin(ctx context.Context, id kernel.UserID, maxAttempts int, lockUntil time.Time) (user.FailedLogin, error) {
	// Column references on the right of SET see the pre-update row.
	query := `
		UPDATE users SET
			failed_login_attempts = failed_login_attempts + 1,
			locked_until = CASE WHEN failed_login_attempts + 1 >= $2 THEN $3 ELSE locked_until END,
			updated_at = NOW()
		WHERE id = $1
		RETURNING failed_login_attempts, locked_until`

	var out struct {
		Attempts    int          `db:"failed_login_attempts"`
		LockedUntil sql.NullTime `db:"locked_until"`
	}
	if err := r.db.GetContext(ctx, &out, query, id.String(), maxAttempts, lockUntil); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return user.FailedLogin{}, user.ErrUserNotFound()
		}
		return user.FailedLogin{}, errx.Wrap(err, "failed to record failed login", errx.TypeInternal)
	}
	return user.FailedLogin{Attempts: out.Attempts, LockedUntil: nullTime(out.LockedUntil)}, nil
}

func (r *PostgresUserRepository) RecordSuccessfulLogin(ctx context.Context, id kernel.UserID, refresh user.SecretDigest, now time.Time) (bool, error) {
	query := `
		UPDATE users SET
			failed_login_attempts = 0,
			locked_until = NULL,
			last_login_at = $4,
			refresh_token_hash = $2,
			refresh_token_lookup = $3,
			updated_at = $4
		WHERE id = $1 AND active = true AND (locked_until IS NULL OR locked_until <= $4)`

	return r.execConditional(ctx, "failed to record login", query, id.String(), refresh.Hash, refresh.Lookup, now)
}

func (r *PostgresUserRepository) RotateRefreshToken(ctx context.Context, id kernel.UserID, previousLookup string, next user.SecretDigest) (bool, error) {
	query := `
		UPDATE users SET
			refresh_token_hash = $3,
			refresh_token_lookup = $4,
			updated_at = NOW()
		WHERE id = $1 AND refresh_token_lookup = $2 AND active = true`

	return r.execConditional(ctx, "failed to rotate refresh token", query, id.String(), previousLookup, next.Hash, next.Lookup)
}

func (r *PostgresUserRepository) ClearRefreshToken(ctx context.Context, id kernel.UserID) error {
	query := `UPDATE users SET refresh_token_hash = NULL, refresh_token_lookup = NULL, updated_at = NOW() WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id.String()); err != nil {
		return errx.Wrap(err, "failed to clear refresh token", errx.TypeInternal)
	}
	return nil
}

func (r *PostgresUserRepository) SetResetToken(ctx context.Context, id kernel.UserID, token user.SecretDigest, expiresAt time.Time) error {
	query := `
		UPDATE users SET
			reset_token_hash = $2,
			reset_token_lookup = $3,
			reset_token_expires_at = $4,
			updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id.String(), token.Hash, token.Lookup, expiresAt)
	if err != nil {
		return errx.Wrap(err, "failed to store reset token", errx.TypeInternal)
	}
	return expectOneRow(result)
}

func (r *PostgresUserRepository) CompletePasswordReset(ctx context.Context, id kernel.UserID, lookup string, passwordHash string, now time.Time) (bool, error) {
	query := `
		UPDATE users SET
			password_hash = $3,
			reset_token_hash = NULL,
			reset_token_lookup = NULL,
			reset_token_expires_at = NULL,
			failed_login_attempts = 0,
			locked_until = NULL,
			updated_at = $4
		WHERE id = $1 AND reset_token_lookup = $2 AND reset_token_expires_at > $4`

	return r.execConditional(ctx, "failed to reset password", query, id.String(), lookup, passwordHash, now)
}

func (r *PostgresUserRepository) UpdatePassword(ctx context.Context, id kernel.UserID, passwordHash string) error {
	query := `UPDATE users SET password_hash = $2, first_login = false, updated_at = NOW() WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id.String(), passwordHash)
	if err != nil {
		return errx.Wrap(err, "failed to update password", errx.TypeInternal)
	}
	return expectOneRow(result)
}

func (r *PostgresUserRepository) execConditional(ctx context.Context, msg, query string, args ...any) (bool, error) {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, errx.Wrap(err, msg, errx.TypeInternal)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, errx.Wrap(err, "failed to get rows affected", errx.TypeInternal)
	}
	return n == 1, nil
}

func expectOneRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return errx.Wrap(err, "failed to get rows affected", errx.TypeInternal)
	}
	if n == 0 {
		return user.ErrUserNotFound()
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// ============================================================================
// Query building
// ============================================================================

func buildWhere(f user.ListFilter) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Role != nil {
		clauses = append(clauses, "role = "+next(string(*f.Role)))
	}
	if f.Active != nil {
		clauses = append(clauses, "active = "+next(*f.Active))
	}
	if f.Search != "" {
		p := next("%" + escapeLike(f.Search) + "%")
		clauses = append(clauses, fmt.Sprintf("(first_name ILIKE %s OR last_name ILIKE %s OR email ILIKE %s)", p, p, p))
	}

	if len(clauses) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(clauses, " AND "), args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// sortColumn maps the allow-listed field to its column; anything else
// falls back to created_at so no caller text reaches ORDER BY.
func sortColumn(f user.SortField) string {
	switch f {
	case user.SortLastLoginAt:
		return "last_login_at"
	case user.SortFirstName:
		return "first_name"
	case user.SortLastName:
		return "last_name"
	case user.SortEmail:
		return "email"
	default:
		return "created_at"
	}
}

// ============================================================================
// Persistence mapping
// ============================================================================

type userRow struct {
	ID                  string         `db:"id"`
	Email               string         `db:"email"`
	PasswordHash        string         `db:"password_hash"`
	FirstName           string         `db:"first_name"`
	LastName            string         `db:"last_name"`
	Role                string         `db:"role"`
	Phone               sql.NullString `db:"phone"`
	Position            sql.NullString `db:"position"`
	Skills              pq.StringArray `db:"skills"`
	AvatarURL           sql.NullString `db:"avatar_url"`
	Language            string         `db:"language"`
	Timezone            string         `db:"timezone"`
	Active              bool           `db:"active"`
	FirstLogin          bool           `db:"first_login"`
	FailedLoginAttempts int            `db:"failed_login_attempts"`
	LockedUntil         sql.NullTime   `db:"locked_until"`
	LastLoginAt         sql.NullTime   `db:"last_login_at"`
	RefreshTokenHash    sql.NullString `db:"refresh_token_hash"`
	RefreshTokenLookup  sql.NullString `db:"refresh_token_lookup"`
	ResetTokenHash      sql.NullString `db:"reset_token_hash"`
	ResetTokenLookup    sql.NullString `db:"reset_token_lookup"`
	ResetTokenExpiresAt sql.NullTime   `db:"reset_token_expires_at"`
	CreatedAt           time.Time      `db:"created_at"`
	UpdatedAt           time.Time      `db:"updated_at"`
}

func toRow(u *user.User) userRow {
	skills := u.Skills
	if skills == nil {
		skills = []string{}
	}
	return userRow{
		ID:                  u.ID.String(),
		Email:               user.NormalizeEmail(u.Email),
		PasswordHash:        u.PasswordHash,
		FirstName:           u.FirstName,
		LastName:            u.LastName,
		Role:                string(u.Role),
		Phone:               nullString(u.Phone),
		Position:            nullString(u.Position),
		Skills:              pq.StringArray(skills),
		AvatarURL:           nullString(u.AvatarURL),
		Language:            string(u.Language),
		Timezone:            u.Timezone,
		Active:              u.Active,
		FirstLogin:          u.FirstLogin,
		FailedLoginAttempts: u.FailedLoginAttempts,
		CreatedAt:           u.CreatedAt,
		UpdatedAt:           u.UpdatedAt,
	}
}

func (r userRow) toDomain() *user.User {
	lang := user.Language(r.Language)
	if !lang.IsValid() {
		lang = user.DefaultLanguage
	}
	tz := r.Timezone
	if tz == "" {
		tz = user.DefaultTimezone
	}
	return &user.User{
		ID:                  kernel.NewUserID(r.ID),
		Email:               r.Email,
		PasswordHash:        r.PasswordHash,
		FirstName:           r.FirstName,
		LastName:            r.LastName,
		Role:                iam.Role(r.Role),
		Phone:               stringPtr(r.Phone),
		Position:            stringPtr(r.Position),
		Skills:              []string(r.Skills),
		AvatarURL:           stringPtr(r.AvatarURL),
		Language:            lang,
		Timezone:            tz,
		Active:              r.Active,
		FirstLogin:          r.FirstLogin,
		FailedLoginAttempts: r.FailedLoginAttempts,
		LockedUntil:         nullTime(r.LockedUntil),
		LastLoginAt:         nullTime(r.LastLoginAt),
		RefreshTokenHash:    stringPtr(r.RefreshTokenHash),
		RefreshTokenLookup:  stringPtr(r.RefreshTokenLookup),
		ResetTokenHash:      stringPtr(r.ResetTokenHash),
		ResetTokenLookup:    stringPtr(r.ResetTokenLookup),
		ResetTokenExpiresAt: nullTime(r.ResetTokenExpiresAt),
		CreatedAt:           r.CreatedAt,
		UpdatedAt:           r.UpdatedAt,
	}
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
