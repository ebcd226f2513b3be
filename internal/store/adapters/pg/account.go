package pg

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/tgsession/internal/domain/repository"
)

// AccountRepo implementa repository.AccountRepository.
type AccountRepo struct {
	pool *pgxpool.Pool
}

const authRecordCols = `
	id, account_id, provider_type, external_id, raw_context, role,
	refresh_token, expires_at, last_login_at, is_active, created_at, updated_at`

func scanAuthRecord(row pgx.Row) (*repository.AuthRecord, error) {
	var rec repository.AuthRecord
	var role string
	err := row.Scan(
		&rec.ID, &rec.AccountID, &rec.ProviderType, &rec.ExternalID,
		&rec.RawContext, &role, &rec.RefreshToken, &rec.ExpiresAt,
		&rec.LastLoginAt, &rec.IsActive, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	rec.Role = repository.Role(role)
	return &rec, nil
}

func (r *AccountRepo) FindAuthRecord(ctx context.Context, providerType, externalID string) (*repository.AuthRecord, error) {
	const query = `SELECT` + authRecordCols + `
		FROM auth_record
		WHERE provider_type = $1 AND external_id = $2`
	return scanAuthRecord(r.pool.QueryRow(ctx, query, providerType, externalID))
}

func (r *AccountRepo) GetAuthRecord(ctx context.Context, authRecordID string) (*repository.AuthRecord, error) {
	const query = `SELECT` + authRecordCols + `
		FROM auth_record
		WHERE id = $1`
	return scanAuthRecord(r.pool.QueryRow(ctx, query, authRecordID))
}

func (r *AccountRepo) getAccount(ctx context.Context, tx pgx.Tx, accountID string) (*repository.Account, error) {
	const query = `
		SELECT id, display_name, avatar_url, profile, location_id, created_at
		FROM account WHERE id = $1`
	var acct repository.Account
	var profile []byte
	err := tx.QueryRow(ctx, query, accountID).Scan(
		&acct.ID, &acct.DisplayName, &acct.AvatarURL, &profile,
		&acct.LocationID, &acct.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if len(profile) > 0 {
		_ = json.Unmarshal(profile, &acct.Profile)
	}
	return &acct, nil
}

// CreateAccountWithAuth crea cuenta + auth record en una transacción.
// La constraint única sobre (provider_type, external_id) resuelve la carrera
// create-vs-create: el perdedor recibe ErrConflict.
func (r *AccountRepo) CreateAccountWithAuth(ctx context.Context, in repository.NewAccountInput) (*repository.Account, *repository.AuthRecord, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()
	accountID := uuid.NewString()
	recordID := uuid.NewString()

	profile := map[string]any{}
	if in.Locale != "" {
		profile["locale"] = in.Locale
	}
	profileJSON, _ := json.Marshal(profile)

	_, err = tx.Exec(ctx, `
		INSERT INTO account (id, display_name, avatar_url, profile, location_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		accountID, in.DisplayName, in.AvatarURL, profileJSON, in.LocationID, now,
	)
	if err != nil {
		return nil, nil, err
	}

	rawCtx := in.RawContext
	if len(rawCtx) == 0 {
		rawCtx = json.RawMessage(`{}`)
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO auth_record (
			id, account_id, provider_type, external_id, raw_context, role,
			refresh_token, expires_at, last_login_at, is_active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, '', $7, $8, TRUE, $8, $8)`,
		recordID, accountID, in.ProviderType, in.ExternalID, []byte(rawCtx),
		string(in.Role), in.SessionExpiry, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, nil, repository.ErrConflict
		}
		return nil, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, err
	}

	acct := &repository.Account{
		ID:          accountID,
		DisplayName: in.DisplayName,
		AvatarURL:   in.AvatarURL,
		Profile:     profile,
		LocationID:  in.LocationID,
		CreatedAt:   now,
	}
	rec := &repository.AuthRecord{
		ID:           recordID,
		AccountID:    accountID,
		ProviderType: in.ProviderType,
		ExternalID:   in.ExternalID,
		RawContext:   rawCtx,
		Role:         in.Role,
		ExpiresAt:    in.SessionExpiry,
		LastLoginAt:  now,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return acct, rec, nil
}

// UpdateAccountAndAuth refresca perfil, raw context y last-login, y reactiva
// el registro. El rol almacenado no se toca.
func (r *AccountRepo) UpdateAccountAndAuth(ctx context.Context, authRecordID string, in repository.RefreshAccountInput) (*repository.Account, *repository.AuthRecord, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()
	rawCtx := in.RawContext
	if len(rawCtx) == 0 {
		rawCtx = json.RawMessage(`{}`)
	}

	rec, err := scanAuthRecord(tx.QueryRow(ctx, `
		UPDATE auth_record SET
			raw_context = $2,
			expires_at = $3,
			last_login_at = $4,
			is_active = TRUE,
			updated_at = $4
		WHERE id = $1
		RETURNING`+authRecordCols,
		authRecordID, []byte(rawCtx), in.SessionExpiry, now,
	))
	if err != nil {
		return nil, nil, err
	}

	_, err = tx.Exec(ctx, `
		UPDATE account SET
			display_name = $2,
			avatar_url = $3,
			profile = profile || $4
		WHERE id = $1`,
		rec.AccountID, in.DisplayName, in.AvatarURL, localePatch(in.Locale),
	)
	if err != nil {
		return nil, nil, err
	}

	acct, err := r.getAccount(ctx, tx, rec.AccountID)
	if err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, err
	}
	return acct, rec, nil
}

// localePatch arma el parche jsonb del perfil para el update.
func localePatch(locale string) []byte {
	if locale == "" {
		return []byte(`{}`)
	}
	b, _ := json.Marshal(map[string]string{"locale": locale})
	return b
}

func (r *AccountRepo) SetAuthRole(ctx context.Context, authRecordID string, role repository.Role) (*repository.AuthRecord, error) {
	const query = `
		UPDATE auth_record SET role = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING` + authRecordCols
	return scanAuthRecord(r.pool.QueryRow(ctx, query, authRecordID, string(role)))
}

func (r *AccountRepo) SetRefreshToken(ctx context.Context, authRecordID, refreshToken string, expiresAt time.Time) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE auth_record SET refresh_token = $2, expires_at = $3, updated_at = NOW()
		WHERE id = $1`,
		authRecordID, refreshToken, expiresAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *AccountRepo) ClearRefreshToken(ctx context.Context, authRecordID string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE auth_record SET refresh_token = '', updated_at = NOW()
		WHERE id = $1`,
		authRecordID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}
