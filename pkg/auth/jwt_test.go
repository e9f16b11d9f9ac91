package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-api/internal/model"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func newTestService(t *testing.T, clock *fakeClock) JWTService {
	t.Helper()
	svc, err := NewJWTService(Config{Secret: testSecret, Issuer: "clinic-api", Now: clock.Now})
	require.NoError(t, err)
	return svc
}

func TestNewJWTServiceRejectsWeakSecret(t *testing.T) {
	_, err := NewJWTService(Config{Secret: strings.Repeat("x", MinSecretLength-1)})
	assert.ErrorIs(t, err, ErrWeakSecret)

	_, err = NewJWTService(Config{Secret: strings.Repeat("x", MinSecretLength)})
	assert.NoError(t, err)
}

func TestGenerateAndParse(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)}
	svc := newTestService(t, clock)

	token, expiresAt, err := svc.Generate("dr.smith@clinic.test", model.RoleDoctor)
	require.NoError(t, err)
	assert.Equal(t, clock.t.Add(DefaultExpiry), expiresAt)

	claims, err := svc.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "dr.smith@clinic.test", claims.Subject)
	assert.Equal(t, model.RoleDoctor, claims.Role)
	assert.Equal(t, clock.t.Unix(), claims.IssuedAt.Unix())
}

func TestParseRejectsExpiredToken(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)}
	svc := newTestService(t, clock)

	token, _, err := svc.Generate("patient@clinic.test", model.RolePatient)
	require.NoError(t, err)

	clock.t = clock.t.Add(DefaultExpiry - time.Second)
	_, err = svc.Parse(token)
	assert.NoError(t, err)

	clock.t = clock.t.Add(time.Second)
	_, err = svc.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsForeignSignature(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	svc := newTestService(t, clock)

	other, err := NewJWTService(Config{Secret: strings.Repeat("z", 40), Issuer: "clinic-api", Now: clock.Now})
	require.NoError(t, err)
	token, _, err := other.Generate("admin", model.RoleAdmin)
	require.NoError(t, err)

	_, err = svc.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsUnsignedAndMalformed(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	svc := newTestService(t, clock)

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "admin",
		Issuer:    "clinic-api",
		ExpiresAt: jwt.NewNumericDate(clock.t.Add(time.Hour)),
	})
	raw, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for _, token := range []string{raw, "", "not-a-token", "a.b.c"} {
		_, err := svc.Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken, token)
	}
}

func TestParseRejectsTokenWithoutExpiry(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	svc := newTestService(t, clock)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject: "admin",
		Issuer:  "clinic-api",
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = svc.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
