// Package session orquesta login, refresh y switch de rol sobre los
// colaboradores de verificación, persistencia y emisión de tokens.
//
// El servicio no guarda estado mutable entre requests: toda la consistencia
// cross-request vive en el storage. El único invariante que el servicio
// defiende en línea es que ningún token recién emitido afirme un rol que el
// auth record almacenado no sostiene.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/dropDatabas3/tgsession/internal/domain/repository"
	jwtx "github.com/dropDatabas3/tgsession/internal/jwt"
	"github.com/dropDatabas3/tgsession/internal/metrics"
	"github.com/dropDatabas3/tgsession/internal/observability/logger"
	tokens "github.com/dropDatabas3/tgsession/internal/security/token"
	"github.com/dropDatabas3/tgsession/internal/telegram"
)

// Errores públicos del servicio. Los controllers los mapean con errors.Is.
var (
	// Fallos de verificación del payload (re-exportados de telegram para que
	// el caller tenga una sola superficie de error).
	ErrMalformedPayload = telegram.ErrMalformedPayload
	ErrSignatureInvalid = telegram.ErrSignatureInvalid
	ErrPayloadExpired   = telegram.ErrPayloadExpired

	// ErrPersistence indica un fallo del colaborador de persistencia.
	// Nunca se retorna éxito parcial.
	ErrPersistence = errors.New("account persistence failure")

	// ErrNoProviderAccount indica switch a "provider" sin ProviderRecord activo.
	ErrNoProviderAccount = errors.New("no active provider account")

	// ErrTokenIssuance indica fallo de firma o de generación aleatoria.
	ErrTokenIssuance = errors.New("token issuance failure")

	// ErrInvalidRefreshToken cubre refresh tokens inválidos, expirados,
	// rotados o que no coinciden con el valor vivo almacenado.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")

	// ErrAuthRecordNotFound indica una operación sobre un auth record inexistente.
	ErrAuthRecordNotFound = errors.New("auth record not found")

	// ErrInvalidRole indica un rol destino desconocido.
	ErrInvalidRole = errors.New("invalid target role")
)

// UserAuth es la sesión resuelta que recibe el caller.
type UserAuth struct {
	AccountID    string          `json:"account_id"`
	AuthRecordID string          `json:"auth_record_id"`
	Role         repository.Role `json:"role"`
	ProviderID   string          `json:"provider_id,omitempty"`
}

// Result agrupa la sesión resuelta y el par de tokens emitido.
type Result struct {
	UserAuth
	Tokens *jwtx.TokenPair
}

// Deps contiene las dependencias del servicio de sesión.
type Deps struct {
	Accounts  repository.AccountRepository
	Providers repository.ProviderRepository
	Locations repository.LocationRepository
	Verifier  *telegram.Verifier
	Issuer    *jwtx.Issuer

	// DefaultLocationName es el nombre de la ubicación por defecto para
	// cuentas nuevas; vacío = primera seleccionable.
	DefaultLocationName string
}

// Service implementa las operaciones públicas del núcleo de sesión.
type Service struct {
	deps Deps
	now  func() time.Time
}

// New crea el servicio de sesión.
func New(deps Deps) *Service {
	return &Service{deps: deps, now: time.Now}
}

// Login autentica un initData crudo y resuelve (o crea) la cuenta y su
// sesión. Implementa la reconciliación de rol: si el rol almacenado es
// "provider" pero no hay ProviderRecord activo, degrada a "user" antes de
// emitir tokens.
func (s *Service) Login(ctx context.Context, rawInitData string) (*Result, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("session"),
		logger.Op("Login"),
	)

	// Paso 1: verificación criptográfica + normalización
	verified, err := s.deps.Verifier.Verify(rawInitData)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("rejected").Inc()
		if errors.Is(err, telegram.ErrSignatureInvalid) {
			// Posible intento de forja: se loguea, nunca se reintenta.
			log.Warn("init data signature mismatch")
		} else {
			log.Debug("init data rejected", logger.Err(err))
		}
		return nil, err
	}
	ident := telegram.Normalize(verified)

	log = log.With(logger.ExternalID(ident.ExternalID))

	// Paso 2: lookup por clave de identidad externa
	rec, err := s.deps.Accounts.FindAuthRecord(ctx, ident.ProviderType, ident.ExternalID)
	switch {
	case err == nil:
		rec, err = s.refreshExisting(ctx, rec, ident)
	case repository.IsNotFound(err):
		rec, err = s.createAccount(ctx, ident, log)
	default:
		err = fmt.Errorf("%w: find auth record: %v", ErrPersistence, err)
	}
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		log.Error("login persistence failure", logger.Err(err))
		return nil, err
	}

	log = log.With(logger.AccountID(rec.AccountID), logger.AuthRecordID(rec.ID))

	// Paso 3: reconciliación de rol contra el provider record
	role, providerID, err := s.reconcileRole(ctx, rec, log)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	// Paso 4: emisión + persistencia del refresh
	res, err := s.issueFor(ctx, rec, role, providerID)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		log.Error("token issuance failed", logger.Err(err))
		return nil, err
	}

	metrics.LoginsTotal.WithLabelValues("ok").Inc()
	log.Info("login ok", logger.Role(string(role)))
	return res, nil
}

// SwitchRole cambia el rol del auth record y reemite tokens. El switch a
// "provider" exige un ProviderRecord activo; el switch a "user" siempre se
// permite. Si el registro ya tiene el rol destino, el storage no se toca
// pero los tokens se reemiten igual (la expiración desliza a propósito).
func (s *Service) SwitchRole(ctx context.Context, authRecordID string, target repository.Role) (*Result, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("session"),
		logger.Op("SwitchRole"),
		logger.AuthRecordID(authRecordID),
	)

	// El target viene del cliente: jamás se usa como label de métrica sin
	// validar, o cada string basura acuñaría una serie nueva.
	if !target.Valid() {
		metrics.RoleSwitchesTotal.WithLabelValues("invalid", "rejected").Inc()
		return nil, ErrInvalidRole
	}

	rec, err := s.deps.Accounts.GetAuthRecord(ctx, authRecordID)
	if err != nil {
		metrics.RoleSwitchesTotal.WithLabelValues(string(target), "error").Inc()
		if repository.IsNotFound(err) {
			return nil, ErrAuthRecordNotFound
		}
		return nil, fmt.Errorf("%w: get auth record: %v", ErrPersistence, err)
	}

	// Precondición del lado oferta: prestador activo.
	var providerID string
	if target == repository.RoleProvider {
		prov, err := s.deps.Providers.ActiveForAccount(ctx, rec.AccountID)
		if err != nil {
			if repository.IsNotFound(err) {
				// El rol almacenado queda como estaba.
				metrics.RoleSwitchesTotal.WithLabelValues(string(target), "rejected").Inc()
				log.Debug("switch to provider without provider record")
				return nil, ErrNoProviderAccount
			}
			metrics.RoleSwitchesTotal.WithLabelValues(string(target), "error").Inc()
			return nil, fmt.Errorf("%w: provider lookup: %v", ErrPersistence, err)
		}
		providerID = prov.ID
	}

	if rec.Role != target {
		rec, err = s.deps.Accounts.SetAuthRole(ctx, rec.ID, target)
		if err != nil {
			metrics.RoleSwitchesTotal.WithLabelValues(string(target), "error").Inc()
			return nil, fmt.Errorf("%w: set role: %v", ErrPersistence, err)
		}
	}

	res, err := s.issueFor(ctx, rec, target, providerID)
	if err != nil {
		metrics.RoleSwitchesTotal.WithLabelValues(string(target), "error").Inc()
		log.Error("token issuance failed", logger.Err(err))
		return nil, err
	}

	metrics.RoleSwitchesTotal.WithLabelValues(string(target), "ok").Inc()
	log.Info("role switched", logger.Role(string(target)))
	return res, nil
}

// Refresh valida un refresh token presentado contra el valor vivo del auth
// record y rota el par. Presentar un refresh anterior a la última rotación
// falla: hay un solo refresh vivo por auth record.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*Result, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("session"),
		logger.Op("Refresh"),
	)

	claims, err := s.deps.Issuer.ParseRefresh(refreshToken)
	if err != nil {
		metrics.RefreshesTotal.WithLabelValues("rejected").Inc()
		return nil, ErrInvalidRefreshToken
	}

	rec, err := s.deps.Accounts.GetAuthRecord(ctx, claims.AuthRecordID)
	if err != nil {
		if repository.IsNotFound(err) {
			metrics.RefreshesTotal.WithLabelValues("rejected").Inc()
			return nil, ErrInvalidRefreshToken
		}
		metrics.RefreshesTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: get auth record: %v", ErrPersistence, err)
	}

	// El claim debe coincidir con el único refresh vivo, el registro debe
	// seguir activo y la sesión no vencida.
	if !rec.IsActive ||
		rec.AccountID != claims.AccountID ||
		rec.RefreshToken == "" ||
		rec.RefreshToken != claims.RefreshSecret ||
		s.now().UTC().After(rec.ExpiresAt) {
		metrics.RefreshesTotal.WithLabelValues("rejected").Inc()
		log.Debug("stale or mismatched refresh token", logger.AuthRecordID(rec.ID))
		return nil, ErrInvalidRefreshToken
	}

	log = log.With(logger.AccountID(rec.AccountID), logger.AuthRecordID(rec.ID))

	role, providerID, err := s.reconcileRole(ctx, rec, log)
	if err != nil {
		metrics.RefreshesTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	res, err := s.issueFor(ctx, rec, role, providerID)
	if err != nil {
		metrics.RefreshesTotal.WithLabelValues("error").Inc()
		log.Error("token issuance failed", logger.Err(err))
		return nil, err
	}

	metrics.RefreshesTotal.WithLabelValues("ok").Inc()
	log.Info("session refreshed", logger.Role(string(role)))
	return res, nil
}

// Logout blanquea el refresh token almacenado. Los access tokens ya emitidos
// expiran solos.
func (s *Service) Logout(ctx context.Context, authRecordID string) error {
	if err := s.deps.Accounts.ClearRefreshToken(ctx, authRecordID); err != nil && !repository.IsNotFound(err) {
		return fmt.Errorf("%w: clear refresh token: %v", ErrPersistence, err)
	}
	return nil
}

// ─── internos ───

// createAccount crea cuenta + auth record con rol por defecto "user" y la
// ubicación por defecto. Si pierde la carrera create-vs-create contra otro
// login concurrente de la misma identidad, reintenta como update.
func (s *Service) createAccount(ctx context.Context, ident telegram.NormalizedIdentity, log *zap.Logger) (*repository.AuthRecord, error) {
	locID, err := s.deps.Locations.DefaultSelectableID(ctx, s.deps.DefaultLocationName)
	if err != nil {
		return nil, fmt.Errorf("%w: default location: %v", ErrPersistence, err)
	}

	_, rec, err := s.deps.Accounts.CreateAccountWithAuth(ctx, repository.NewAccountInput{
		ProviderType:  ident.ProviderType,
		ExternalID:    ident.ExternalID,
		DisplayName:   ident.DisplayName,
		AvatarURL:     ident.AvatarURL,
		Locale:        ident.Locale,
		RawContext:    ident.RawContext,
		Role:          repository.RoleUser,
		LocationID:    locID,
		SessionExpiry: s.now().UTC().Add(s.deps.Issuer.RefreshTTL),
	})
	if err == nil {
		return rec, nil
	}
	if !repository.IsConflict(err) {
		return nil, fmt.Errorf("%w: create account: %v", ErrPersistence, err)
	}

	// Carrera perdida: el registro ya existe, seguir por la vía de update.
	log.Debug("create lost race, retrying as update")
	existing, err := s.deps.Accounts.FindAuthRecord(ctx, ident.ProviderType, ident.ExternalID)
	if err != nil {
		return nil, fmt.Errorf("%w: find after conflict: %v", ErrPersistence, err)
	}
	return s.refreshExisting(ctx, existing, ident)
}

// refreshExisting refresca perfil y last-login preservando el rol almacenado.
func (s *Service) refreshExisting(ctx context.Context, rec *repository.AuthRecord, ident telegram.NormalizedIdentity) (*repository.AuthRecord, error) {
	_, updated, err := s.deps.Accounts.UpdateAccountAndAuth(ctx, rec.ID, repository.RefreshAccountInput{
		DisplayName:   ident.DisplayName,
		AvatarURL:     ident.AvatarURL,
		Locale:        ident.Locale,
		RawContext:    ident.RawContext,
		SessionExpiry: s.now().UTC().Add(s.deps.Issuer.RefreshTTL),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: update account: %v", ErrPersistence, err)
	}
	return updated, nil
}

// reconcileRole resuelve el rol efectivo de la sesión. Si el rol almacenado
// es "provider" pero no existe ProviderRecord activo, degrada a "user" en el
// storage antes de emitir: un token nunca afirma un privilegio que el
// registro no sostiene. El drift se loguea como reparación, no como error.
func (s *Service) reconcileRole(ctx context.Context, rec *repository.AuthRecord, log *zap.Logger) (repository.Role, string, error) {
	if rec.Role != repository.RoleProvider {
		return rec.Role, "", nil
	}

	prov, err := s.deps.Providers.ActiveForAccount(ctx, rec.AccountID)
	if err == nil {
		return repository.RoleProvider, prov.ID, nil
	}
	if !repository.IsNotFound(err) {
		return "", "", fmt.Errorf("%w: provider lookup: %v", ErrPersistence, err)
	}

	// Drift: el provider record fue borrado/desactivado por fuera.
	if _, err := s.deps.Accounts.SetAuthRole(ctx, rec.ID, repository.RoleUser); err != nil {
		return "", "", fmt.Errorf("%w: demote role: %v", ErrPersistence, err)
	}
	metrics.ConsistencyRepairsTotal.Inc()
	log.Warn("role drift repaired: provider record gone, demoted to user")
	return repository.RoleUser, "", nil
}

// issueFor genera el secreto aleatorio, emite el par y persiste el refresh
// ANTES de entregarlo. Si la persistencia falla, el caller no recibe un
// refresh token que nunca quedó registrado.
func (s *Service) issueFor(ctx context.Context, rec *repository.AuthRecord, role repository.Role, providerID string) (*Result, error) {
	secret, err := tokens.GenerateRefreshSecret(32)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenIssuance, err)
	}

	pair, err := s.deps.Issuer.IssuePair(rec.AccountID, role, rec.ID, providerID, secret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenIssuance, err)
	}

	if err := s.deps.Accounts.SetRefreshToken(ctx, rec.ID, secret, pair.RefreshExpiresAt); err != nil {
		return nil, fmt.Errorf("%w: persist refresh token: %v", ErrPersistence, err)
	}

	return &Result{
		UserAuth: UserAuth{
			AccountID:    rec.AccountID,
			AuthRecordID: rec.ID,
			Role:         role,
			ProviderID:   providerID,
		},
		Tokens: pair,
	}, nil
}
