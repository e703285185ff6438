package auth

import (
	"strconv"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/galhr/portal/backend/internal/domain"
)

func TestIssueAndVerify(t *testing.T) {
	issuer := NewIssuer("secret", time.Hour)

	token, exp, err := issuer.Issue(42, domain.RoleEmployee)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	p, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, &domain.Principal{UserID: 42, Role: domain.RoleEmployee}, p)
}

func TestVerifyRejects(t *testing.T) {
	issuer := NewIssuer("secret", time.Hour)
	good, _, err := issuer.Issue(1, domain.RoleAdmin)
	require.NoError(t, err)

	otherKey, _, err := NewIssuer("other", time.Hour).Issue(1, domain.RoleAdmin)
	require.NoError(t, err)

	now := time.Now()
	claims := Claims{
		Role: string(domain.RoleAdmin),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(1),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("secret"))
	require.NoError(t, err)
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noExp := claims
	noExp.ExpiresAt = nil
	withoutExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, noExp).SignedString([]byte("secret"))
	require.NoError(t, err)

	badRole := claims
	badRole.Role = "ROOT"
	unknownRole, err := jwt.NewWithClaims(jwt.SigningMethodHS256, badRole).SignedString([]byte("secret"))
	require.NoError(t, err)

	tests := map[string]string{
		"empty":        "",
		"garbage":      "not-a-token",
		"tampered":     good + "A",
		"other key":    otherKey,
		"hs512":        hs512,
		"alg none":     none,
		"no expiry":    withoutExpiry,
		"unknown role": unknownRole,
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := issuer.Verify(token)
			assert.ErrorIs(t, err, domain.ErrUnauthenticated)
		})
	}
}

func TestVerifyExpired(t *testing.T) {
	issuer := NewIssuer("secret", time.Minute)
	issued := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	issuer.now = func() time.Time { return issued }

	token, _, err := issuer.Issue(7, domain.RoleVolunteer)
	require.NoError(t, err)

	_, err = issuer.Verify(token)
	require.NoError(t, err)

	issuer.now = func() time.Time { return issued.Add(2 * time.Minute) }
	_, err = issuer.Verify(token)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("admin123")
	require.NoError(t, err)
	assert.NotEqual(t, "admin123", hash)

	ok, err := CheckPassword(hash, "admin123")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = CheckPassword(hash, "admin124")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = CheckPassword("short", "admin123")
	assert.Error(t, err)
}
