// Package token implements the credential token lifecycle: asymmetrically
// signed access tokens, symmetrically signed refresh tokens tied to persisted
// records, rotation and revocation.
package token

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iliyamo/auth-service/internal/keys"
	"github.com/iliyamo/auth-service/internal/model"
	"github.com/iliyamo/auth-service/internal/repository"
)

// Token lifetimes are fixed by design. The refresh JWT carries an exp claim
// mirroring the record expiry, but the authoritative check is the record
// lookup in VerifyRefresh.
const (
	AccessTokenTTL  = time.Hour
	RefreshTokenTTL = 365 * 24 * time.Hour
	Issuer          = "auth-service"
)

// ErrTokenInvalid covers every refresh verification failure: bad signature,
// malformed claims, expired token, or a record id that no longer resolves to
// a live row. Callers must treat it as an authorization failure, not a server
// error.
var ErrTokenInvalid = errors.New("token invalid")

// RefreshTokenStore is the narrow persistence surface the service needs.
// FindByID must return repository.ErrNotFound for missing and for expired
// records alike. *repository.TokenRepo satisfies it.
type RefreshTokenStore interface {
	Create(ctx context.Context, userID uint64, expiresAt time.Time) (uint64, error)
	FindByID(ctx context.Context, id uint64) (model.RefreshToken, error)
	DeleteByID(ctx context.Context, id uint64) error
}

// Pair bundles the two credentials returned to a client after login,
// registration or refresh.
type Pair struct {
	AccessToken  string
	RefreshToken string
}

// RefreshClaims is the verified content of a refresh token.
type RefreshClaims struct {
	UserID   uint64
	Role     string
	RecordID uint64
}

// Service issues and verifies tokens. Access tokens are signed RS256 with the
// key provider's private key; refresh tokens are signed HS256 with a separate
// long-lived secret and embed the id of a persisted record.
type Service struct {
	keys    *keys.Provider
	secret  []byte
	records RefreshTokenStore
}

func NewService(k *keys.Provider, refreshSecret string, records RefreshTokenStore) *Service {
	return &Service{keys: k, secret: []byte(refreshSecret), records: records}
}

// IssueAccessToken signs a short-lived RS256 token carrying the user id and
// role. Downstream services verify it against the published public key set.
func (s *Service) IssueAccessToken(userID uint64, role string) (string, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"sub":  strconv.FormatUint(userID, 10),
		"role": role,
		"iss":  Issuer,
		"iat":  now.Unix(),
		"exp":  now.Add(AccessTokenTTL).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signed, err := t.SignedString(s.keys.Private())
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

// IssueRefreshToken signs an HS256 token embedding the persisted record id.
// It must only be called with an id returned by PersistRefreshToken; the two
// together constitute issuance.
func (s *Service) IssueRefreshToken(userID uint64, role string, recordID uint64, expiresAt time.Time) (string, error) {
	claims := jwt.MapClaims{
		"sub":  strconv.FormatUint(userID, 10),
		"role": role,
		"id":   strconv.FormatUint(recordID, 10),
		"iss":  Issuer,
		"iat":  time.Now().UTC().Unix(),
		"exp":  expiresAt.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign refresh token: %w", err)
	}
	return signed, nil
}

// PersistRefreshToken creates the backing record for a refresh token with a
// one year expiry and returns it.
func (s *Service) PersistRefreshToken(ctx context.Context, userID uint64) (model.RefreshToken, error) {
	expiresAt := time.Now().UTC().Add(RefreshTokenTTL)
	id, err := s.records.Create(ctx, userID, expiresAt)
	if err != nil {
		return model.RefreshToken{}, fmt.Errorf("persist refresh token: %w", err)
	}
	return model.RefreshToken{ID: id, UserID: userID, ExpiresAt: expiresAt}, nil
}

// IssuePair creates a full credential pair: an access token plus a refresh
// token backed by a freshly persisted record.
func (s *Service) IssuePair(ctx context.Context, userID uint64, role string) (Pair, error) {
	access, err := s.IssueAccessToken(userID, role)
	if err != nil {
		return Pair{}, err
	}
	rec, err := s.PersistRefreshToken(ctx, userID)
	if err != nil {
		return Pair{}, err
	}
	refresh, err := s.IssueRefreshToken(userID, role, rec.ID, rec.ExpiresAt)
	if err != nil {
		return Pair{}, err
	}
	return Pair{AccessToken: access, RefreshToken: refresh}, nil
}

// Rotate replaces the record behind a refresh token: it persists the
// successor record and signs the new pair before deleting the predecessor.
// A crash between the two steps leaves an extra live session rather than a
// locked-out user. Two concurrent rotations of the same record can both
// succeed and produce two successors; there is no per-user serialization
// here, the extra session is accepted.
func (s *Service) Rotate(ctx context.Context, userID uint64, role string, oldRecordID uint64) (Pair, error) {
	pair, err := s.IssuePair(ctx, userID, role)
	if err != nil {
		return Pair{}, err
	}
	if err := s.records.DeleteByID(ctx, oldRecordID); err != nil {
		return Pair{}, fmt.Errorf("delete rotated record: %w", err)
	}
	return pair, nil
}

// Revoke deletes the record, permanently invalidating every refresh token
// that embeds its id. Revoking an already-deleted record succeeds.
func (s *Service) Revoke(ctx context.Context, recordID uint64) error {
	if err := s.records.DeleteByID(ctx, recordID); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

// VerifyRefresh validates a presented refresh token. The token is accepted
// only if the HS256 signature checks out, the claims are well formed and
// unexpired, and the embedded record id resolves to a live record owned by
// the token's subject. Every failure maps to ErrTokenInvalid; persistence
// errors are surfaced as-is.
func (s *Service) VerifyRefresh(ctx context.Context, raw string) (RefreshClaims, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return s.secret, nil
	})
	if err != nil || !tok.Valid {
		return RefreshClaims{}, ErrTokenInvalid
	}
	mc, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return RefreshClaims{}, ErrTokenInvalid
	}
	claims, err := refreshClaimsFrom(mc)
	if err != nil {
		return RefreshClaims{}, err
	}

	rec, err := s.records.FindByID(ctx, claims.RecordID)
	if errors.Is(err, repository.ErrNotFound) {
		return RefreshClaims{}, ErrTokenInvalid
	}
	if err != nil {
		return RefreshClaims{}, err
	}
	if rec.UserID != claims.UserID {
		return RefreshClaims{}, ErrTokenInvalid
	}
	return claims, nil
}

func refreshClaimsFrom(mc jwt.MapClaims) (RefreshClaims, error) {
	sub, ok := mc["sub"].(string)
	if !ok {
		return RefreshClaims{}, ErrTokenInvalid
	}
	userID, err := strconv.ParseUint(sub, 10, 64)
	if err != nil {
		return RefreshClaims{}, ErrTokenInvalid
	}
	role, ok := mc["role"].(string)
	if !ok || !model.ValidRole(role) {
		return RefreshClaims{}, ErrTokenInvalid
	}
	idStr, ok := mc["id"].(string)
	if !ok {
		return RefreshClaims{}, ErrTokenInvalid
	}
	recordID, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil {
		return RefreshClaims{}, ErrTokenInvalid
	}
	return RefreshClaims{UserID: userID, Role: role, RecordID: recordID}, nil
}
