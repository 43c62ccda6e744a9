package token

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/auth-service/internal/keys"
	"github.com/iliyamo/auth-service/internal/model"
	"github.com/iliyamo/auth-service/internal/repository"
)

// fakeStore is an in-memory RefreshTokenStore that records the order of
// create/delete calls so rotation ordering can be asserted.
type fakeStore struct {
	mu      sync.Mutex
	nextID  uint64
	records map[uint64]model.RefreshToken
	ops     []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: map[uint64]model.RefreshToken{}}
}

func (f *fakeStore) Create(_ context.Context, userID uint64, expiresAt time.Time) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.records[f.nextID] = model.RefreshToken{ID: f.nextID, UserID: userID, ExpiresAt: expiresAt}
	f.ops = append(f.ops, "create "+strconv.FormatUint(f.nextID, 10))
	return f.nextID, nil
}

func (f *fakeStore) FindByID(_ context.Context, id uint64) (model.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[id]
	if !ok || time.Now().UTC().After(rec.ExpiresAt) {
		return model.RefreshToken{}, repository.ErrNotFound
	}
	return rec, nil
}

func (f *fakeStore) DeleteByID(_ context.Context, id uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.records, id)
	f.ops = append(f.ops, "delete "+strconv.FormatUint(id, 10))
	return nil
}

func testService(t *testing.T) (*Service, *fakeStore) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	pemStr := string(pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)}))
	kp, err := keys.Load(pemStr, "")
	require.NoError(t, err)
	store := newFakeStore()
	return NewService(kp, "refresh-secret-for-tests", store), store
}

func TestIssueAccessToken_ClaimsRoundTrip(t *testing.T) {
	svc, _ := testService(t)

	signed, err := svc.IssueAccessToken(42, model.RoleManager)
	require.NoError(t, err)

	tok, err := jwt.Parse(signed, func(tk *jwt.Token) (interface{}, error) {
		require.IsType(t, &jwt.SigningMethodRSA{}, tk.Method)
		return svc.keys.Public(), nil
	})
	require.NoError(t, err)
	require.True(t, tok.Valid)

	claims := tok.Claims.(jwt.MapClaims)
	assert.Equal(t, "42", claims["sub"])
	assert.Equal(t, model.RoleManager, claims["role"])
	assert.Equal(t, Issuer, claims["iss"])

	exp, err := claims.GetExpirationTime()
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(AccessTokenTTL), exp.Time, time.Minute)
}

func TestIssuePair_VerifyRefresh(t *testing.T) {
	svc, store := testService(t)
	ctx := context.Background()

	pair, err := svc.IssuePair(ctx, 7, model.RoleCustomer)
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	claims, err := svc.VerifyRefresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), claims.UserID)
	assert.Equal(t, model.RoleCustomer, claims.Role)

	rec, err := store.FindByID(ctx, claims.RecordID)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), rec.UserID)
	assert.WithinDuration(t, time.Now().Add(RefreshTokenTTL), rec.ExpiresAt, time.Minute)
}

func TestRotate_OldFailsNewSucceeds(t *testing.T) {
	svc, store := testService(t)
	ctx := context.Background()

	old, err := svc.IssuePair(ctx, 3, model.RoleCustomer)
	require.NoError(t, err)
	oldClaims, err := svc.VerifyRefresh(ctx, old.RefreshToken)
	require.NoError(t, err)

	fresh, err := svc.Rotate(ctx, 3, model.RoleCustomer, oldClaims.RecordID)
	require.NoError(t, err)

	_, err = svc.VerifyRefresh(ctx, old.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	newClaims, err := svc.VerifyRefresh(ctx, fresh.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, oldClaims.RecordID, newClaims.RecordID)

	// The successor record must exist before the predecessor is deleted.
	require.Len(t, store.ops, 3)
	assert.Equal(t, "create 1", store.ops[0])
	assert.Equal(t, "create 2", store.ops[1])
	assert.Equal(t, "delete 1", store.ops[2])
}

func TestRevoke_PermanentlyInvalidates(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()

	pair, err := svc.IssuePair(ctx, 5, model.RoleAdmin)
	require.NoError(t, err)
	claims, err := svc.VerifyRefresh(ctx, pair.RefreshToken)
	require.NoError(t, err)

	require.NoError(t, svc.Revoke(ctx, claims.RecordID))
	_, err = svc.VerifyRefresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	// Revoking again is fine: logout is idempotent-ish.
	assert.NoError(t, svc.Revoke(ctx, claims.RecordID))
}

func TestVerifyRefresh_ExpiredRecord(t *testing.T) {
	svc, store := testService(t)
	ctx := context.Background()

	id, err := store.Create(ctx, 9, time.Now().UTC().Add(-time.Hour))
	require.NoError(t, err)
	raw, err := svc.IssueRefreshToken(9, model.RoleCustomer, id, time.Now().UTC().Add(time.Hour))
	require.NoError(t, err)

	_, err = svc.VerifyRefresh(ctx, raw)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyRefresh_RecordOwnerMismatch(t *testing.T) {
	svc, store := testService(t)
	ctx := context.Background()

	id, err := store.Create(ctx, 100, time.Now().UTC().Add(time.Hour))
	require.NoError(t, err)
	// Token claims user 200 but the record belongs to user 100.
	raw, err := svc.IssueRefreshToken(200, model.RoleCustomer, id, time.Now().UTC().Add(time.Hour))
	require.NoError(t, err)

	_, err = svc.VerifyRefresh(ctx, raw)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyRefresh_Malformed(t *testing.T) {
	svc, store := testService(t)
	ctx := context.Background()

	recID, err := store.Create(ctx, 1, time.Now().UTC().Add(time.Hour))
	require.NoError(t, err)

	otherSecret := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "1", "role": model.RoleCustomer, "id": strconv.FormatUint(recID, 10),
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	wrongSig, err := otherSecret.SignedString([]byte("some-other-secret"))
	require.NoError(t, err)

	asymmetric := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
		"sub": "1", "role": model.RoleCustomer, "id": strconv.FormatUint(recID, 10),
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	rsaSigned, err := asymmetric.SignedString(svc.keys.Private())
	require.NoError(t, err)

	noID := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "1", "role": model.RoleCustomer,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	missingID, err := noID.SignedString([]byte("refresh-secret-for-tests"))
	require.NoError(t, err)

	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"not a jwt", "zzz.zzz.zzz"},
		{"wrong signature", wrongSig},
		{"wrong algorithm", rsaSigned},
		{"missing record id claim", missingID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.VerifyRefresh(ctx, tt.raw)
			assert.ErrorIs(t, err, ErrTokenInvalid)
		})
	}
}
