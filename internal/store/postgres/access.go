package postgres

import (
	"context"
	"errors"

	"github.com/evamarketing/hand-rest-6/internal/access"
	"github.com/evamarketing/hand-rest-6/internal/models"
	"github.com/evamarketing/hand-rest-6/internal/store"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/crypto/bcrypt"
)

func (s *Store) GetSession(ctx context.Context, sessionID string) (session models.Session, err error) {
	const op = "get session"
	ctx, span := s.startSpan(ctx, "GetSession")
	defer func() { endSpan(span, err) }()

	row := s.pool.QueryRow(ctx, `
		SELECT s.session_id, s.user_id, u.email, s.expires_at
		FROM sessions s
		JOIN auth_users u ON u.user_id = s.user_id
		WHERE s.session_id = $1 AND s.expires_at > NOW()
	`, sessionID)
	if err = row.Scan(&session.SessionID, &session.UserID, &session.Email, &session.ExpiresAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Session{}, store.NotFound(op, "session not found or expired")
		}
		return models.Session{}, wrapErr(op, err)
	}
	return session, nil
}

// GetRole returns the user's role. Users without a role row, or with a role
// this service does not know, are treated as customers.
func (s *Store) GetRole(ctx context.Context, userID string) (role access.Role, err error) {
	const op = "get role"
	ctx, span := s.startSpan(ctx, "GetRole", attribute.String("user.id", userID))
	defer func() { endSpan(span, err) }()

	var raw string
	if err = s.pool.QueryRow(ctx, `SELECT role FROM user_roles WHERE user_id = $1`, userID).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return access.RoleCustomer, nil
		}
		return "", wrapErr(op, err)
	}
	parsed, ok := access.ParseRole(raw)
	if !ok {
		return access.RoleCustomer, nil
	}
	return parsed, nil
}

func (s *Store) ListPermissions(ctx context.Context, userID string) (keys []string, err error) {
	const op = "list permissions"
	ctx, span := s.startSpan(ctx, "ListPermissions", attribute.String("user.id", userID))
	defer func() { endSpan(span, err) }()

	rows, err := s.pool.Query(ctx, `
		SELECT permission_key
		FROM admin_permissions
		WHERE user_id = $1
		ORDER BY permission_key ASC
	`, userID)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer rows.Close()

	keys = []string{}
	for rows.Next() {
		var key string
		if err = rows.Scan(&key); err != nil {
			return nil, wrapErr(op, err)
		}
		keys = append(keys, key)
	}
	if err = rows.Err(); err != nil {
		return nil, wrapErr(op, err)
	}
	return keys, nil
}

// SetPermissions replaces the user's grant set. Unknown keys reject the
// whole update.
func (s *Store) SetPermissions(ctx context.Context, userID string, keys []string) (err error) {
	const op = "set permissions"
	ctx, span := s.startSpan(ctx, "SetPermissions", attribute.String("user.id", userID), attribute.Int("permission.count", len(keys)))
	defer func() { endSpan(span, err) }()

	valid, invalid := access.NormalizeKeys(keys)
	if len(invalid) > 0 {
		return store.Validation(op, "unknown permission keys: %v", invalid)
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return wrapErr(op, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if err = ensureUserExists(ctx, tx, op, userID); err != nil {
		return err
	}
	if _, err = tx.Exec(ctx, `DELETE FROM admin_permissions WHERE user_id = $1`, userID); err != nil {
		return wrapErr(op, err)
	}
	if len(valid) > 0 {
		if _, err = tx.Exec(ctx, `
			INSERT INTO admin_permissions (user_id, permission_key)
			SELECT $1, key FROM unnest($2::text[]) AS key
		`, userID, valid); err != nil {
			return wrapErr(op, err)
		}
	}
	if err = tx.Commit(ctx); err != nil {
		return wrapErr(op, err)
	}
	return nil
}

// UpdateUserRole changes the role only. Permission grants of a demoted admin
// stay in place and take effect again on re-promotion.
func (s *Store) UpdateUserRole(ctx context.Context, userID string, role access.Role) (err error) {
	const op = "update user role"
	ctx, span := s.startSpan(ctx, "UpdateUserRole", attribute.String("user.id", userID), attribute.String("user.role", string(role)))
	defer func() { endSpan(span, err) }()

	if _, ok := access.ParseRole(string(role)); !ok {
		return store.Validation(op, "unknown role %q", role)
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return wrapErr(op, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if err = ensureUserExists(ctx, tx, op, userID); err != nil {
		return err
	}
	if _, err = tx.Exec(ctx, `
		INSERT INTO user_roles (user_id, role, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id) DO UPDATE SET role = EXCLUDED.role, updated_at = EXCLUDED.updated_at
	`, userID, string(role)); err != nil {
		return wrapErr(op, err)
	}
	if err = tx.Commit(ctx); err != nil {
		return wrapErr(op, err)
	}
	return nil
}

// RegisterCustomer creates the auth user, profile and customer role for a
// self-registration in one transaction.
func (s *Store) RegisterCustomer(ctx context.Context, input store.RegisterCustomerInput) (userID string, err error) {
	const op = "register customer"
	ctx, span := s.startSpan(ctx, "RegisterCustomer")
	defer func() { endSpan(span, err) }()

	input, err = store.ValidateRegistration(input)
	if err != nil {
		return "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(store.CustomerPassword(input.Mobile)), bcrypt.DefaultCost)
	if err != nil {
		return "", store.Storage(op, err)
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return "", wrapErr(op, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var exists bool
	if err = tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM profiles WHERE phone = $1)`, input.Mobile).Scan(&exists); err != nil {
		return "", wrapErr(op, err)
	}
	if exists {
		return "", store.DuplicateMobile()
	}
	var wardCount int
	err = tx.QueryRow(ctx, `SELECT ward_count FROM panchayaths WHERE panchayath_id = $1`, input.PanchayathID).Scan(&wardCount)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", store.UnknownPanchayath()
	}
	if err != nil {
		return "", wrapErr(op, err)
	}
	if !store.WardInPanchayath(input.WardNumber, wardCount) {
		return "", store.UnknownPanchayath()
	}

	userID = uuid.NewString()
	email := store.CustomerEmail(input.Mobile)
	if _, err = tx.Exec(ctx, `
		INSERT INTO auth_users (user_id, email, password_hash)
		VALUES ($1, $2, $3)
	`, userID, email, string(hash)); err != nil {
		return "", registrationErr(op, err)
	}
	if _, err = tx.Exec(ctx, `
		INSERT INTO profiles (user_id, full_name, email, phone, panchayath_id, ward_number)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, userID, input.Name, email, input.Mobile, input.PanchayathID, input.WardNumber); err != nil {
		return "", registrationErr(op, err)
	}
	if _, err = tx.Exec(ctx, `
		INSERT INTO user_roles (user_id, role) VALUES ($1, $2)
	`, userID, string(access.RoleCustomer)); err != nil {
		return "", wrapErr(op, err)
	}
	if err = tx.Commit(ctx); err != nil {
		return "", registrationErr(op, err)
	}
	return userID, nil
}

// registrationErr maps a unique violation on the phone or derived email to
// the duplicate-mobile conflict; a concurrent registration can pass the
// existence check and still lose the insert.
func registrationErr(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return store.DuplicateMobile()
	}
	return wrapErr(op, err)
}

func ensureUserExists(ctx context.Context, tx pgx.Tx, op, userID string) error {
	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM auth_users WHERE user_id = $1)`, userID).Scan(&exists); err != nil {
		return wrapErr(op, err)
	}
	if !exists {
		return store.NotFound(op, "user %s not found", userID)
	}
	return nil
}
