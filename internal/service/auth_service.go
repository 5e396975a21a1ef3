package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"pesa-gateway/internal/core/domain"
	"pesa-gateway/internal/core/ports"
	"pesa-gateway/pkg/apperror"

	"github.com/rs/zerolog"
)

const authCacheTTL = 5 * time.Minute

// AuthService implements ports.Authenticator. Credentials resolve to an
// account and an operating mode via point lookups: the sandbox key is
// stored as-is, the live key only as a SHA-256 fingerprint. A short-TTL
// Redis cache fronts the database on the hot path.
type AuthService struct {
	accounts ports.AccountRepository
	cache    ports.APIKeyCache // nil = caching disabled
	log      zerolog.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(accounts ports.AccountRepository, cache ports.APIKeyCache, log zerolog.Logger) *AuthService {
	return &AuthService{accounts: accounts, cache: cache, log: log}
}

// cachedAuth is the cache entry for a resolved credential.
type cachedAuth struct {
	Account *domain.Account `json:"account"`
	Mode    domain.Mode     `json:"mode"`
}

// Authenticate resolves the credential. The mode is decided by which
// credential class matched. A valid live key on an unapproved account is
// a distinct failure from an invalid key.
func (s *AuthService) Authenticate(ctx context.Context, credential string) (*domain.Account, domain.Mode, error) {
	if credential == "" {
		return nil, "", apperror.ErrInvalidAPIKey()
	}

	fingerprint := FingerprintKey(credential)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, fingerprint); err != nil {
			s.log.Warn().Err(err).Msg("api key cache lookup failed, falling through to DB")
		} else if cached != nil {
			var entry cachedAuth
			if err := json.Unmarshal(cached, &entry); err == nil && entry.Account != nil {
				return s.gate(entry.Account, entry.Mode)
			}
		}
	}

	account, err := s.accounts.GetBySandboxKey(ctx, credential)
	if err != nil {
		return nil, "", apperror.InternalError(fmt.Errorf("sandbox key lookup: %w", err))
	}
	mode := domain.ModeSandbox

	if account == nil {
		account, err = s.accounts.GetByLiveKeyHash(ctx, fingerprint)
		if err != nil {
			return nil, "", apperror.InternalError(fmt.Errorf("live key lookup: %w", err))
		}
		mode = domain.ModeLive
	}
	if account == nil {
		return nil, "", apperror.ErrInvalidAPIKey()
	}

	if s.cache != nil {
		if data, err := json.Marshal(cachedAuth{Account: account, Mode: mode}); err == nil {
			if err := s.cache.Set(ctx, fingerprint, data, authCacheTTL); err != nil {
				s.log.Warn().Err(err).Msg("failed to cache api key resolution")
			}
		}
	}

	return s.gate(account, mode)
}

// gate applies the account-state checks shared by cached and fresh
// resolutions, so a suspension takes effect within the cache TTL's worst
// case rather than never.
func (s *AuthService) gate(account *domain.Account, mode domain.Mode) (*domain.Account, domain.Mode, error) {
	if account.IsSuspended() {
		return nil, "", apperror.ErrAccountSuspended()
	}
	if mode == domain.ModeLive && !account.CanGoLive() {
		return nil, "", apperror.ErrComplianceNotApproved()
	}
	return account, mode, nil
}

// GenerateKeyPair issues a fresh sandbox/live credential pair. The live
// key is shown once; only its fingerprint is ever stored.
func GenerateKeyPair() (sandboxKey, liveKey string, err error) {
	buf := make([]byte, 48)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("generating key material: %w", err)
	}
	sandboxKey = "sk_test_" + hex.EncodeToString(buf[:24])
	liveKey = "sk_live_" + hex.EncodeToString(buf[24:])
	return sandboxKey, liveKey, nil
}

// FingerprintKey returns the SHA-256 hex digest of a credential. A
// deterministic digest keeps live-key resolution a point lookup.
func FingerprintKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}
