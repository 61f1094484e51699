package security_test

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/vibast-solutions/ms-go-taskboard-auth/app/security"
)

type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time { return c.now }

func newForge(clock security.Clock) *security.TokenForge {
	return security.NewTokenForge(security.TokenForgeConfig{
		AccessSecret:    "access-secret",
		RefreshSecret:   "refresh-secret",
		Issuer:          "taskboard-auth",
		AccessTokenTTL:  time.Hour,
		RefreshTokenTTL: 24 * time.Hour,
	}, clock)
}

func TestPasswordHasher_RoundTrip(t *testing.T) {
	hasher := security.NewPasswordHasher(bcrypt.MinCost)

	for _, password := range []string{"Secr3t!", "NewPass1!", "ünïcødé-pässwörd", " spaced "} {
		digest, err := hasher.Hash(password)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(digest, "$2a$"), "digest should be self-describing")
		assert.True(t, hasher.Verify(password, digest))
		assert.False(t, hasher.Verify(password+"x", digest))
		assert.False(t, hasher.Verify(strings.ToUpper(password), digest))
	}
}

func TestPasswordHasher_SaltsEachDigest(t *testing.T) {
	hasher := security.NewPasswordHasher(bcrypt.MinCost)

	first, err := hasher.Hash("Secr3t!")
	require.NoError(t, err)
	second, err := hasher.Hash("Secr3t!")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestPasswordHasher_EmptyInput(t *testing.T) {
	hasher := security.NewPasswordHasher(bcrypt.MinCost)

	_, err := hasher.Hash("")
	assert.ErrorIs(t, err, security.ErrEmptyPassword)
	assert.False(t, hasher.Verify("", "$2a$04$invalid"))
	assert.False(t, hasher.Verify("password", "not-a-bcrypt-digest"))
}

func TestPasswordHasher_NeedsRehash(t *testing.T) {
	old := security.NewPasswordHasher(bcrypt.MinCost)
	digest, err := old.Hash("Secr3t!")
	require.NoError(t, err)

	current := security.NewPasswordHasher(bcrypt.MinCost + 1)
	assert.True(t, current.NeedsRehash(digest))
	assert.False(t, old.NeedsRehash(digest))
	assert.True(t, current.Verify("Secr3t!", digest), "raising cost must not invalidate stored digests")
}

func TestTokenForge_AccessRoundTrip(t *testing.T) {
	forge := newForge(&fixedClock{now: time.Now()})

	token, err := forge.IssueAccess(42, "a@x.com", "alice")
	require.NoError(t, err)

	claims, err := forge.Verify(token, security.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), claims.UserID)
	assert.Equal(t, "a@x.com", claims.Email)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, security.AccessToken, claims.Class)
	assert.NotEmpty(t, claims.ID)
}

func TestTokenForge_RefreshRoundTrip(t *testing.T) {
	forge := newForge(&fixedClock{now: time.Now()})

	token, err := forge.IssueRefresh(7)
	require.NoError(t, err)

	claims, err := forge.Verify(token, security.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), claims.UserID)
	assert.Empty(t, claims.Email)
}

func TestTokenForge_ClassesAreIsolated(t *testing.T) {
	forge := newForge(&fixedClock{now: time.Now()})

	access, err := forge.IssueAccess(1, "a@x.com", "alice")
	require.NoError(t, err)
	refresh, err := forge.IssueRefresh(1)
	require.NoError(t, err)

	_, err = forge.Verify(access, security.RefreshToken)
	assert.ErrorIs(t, err, security.ErrInvalidToken)
	_, err = forge.Verify(refresh, security.AccessToken)
	assert.ErrorIs(t, err, security.ErrInvalidToken)
}

func TestTokenForge_SameSecretStillChecksClass(t *testing.T) {
	forge := security.NewTokenForge(security.TokenForgeConfig{
		AccessSecret:    "shared",
		RefreshSecret:   "shared",
		AccessTokenTTL:  time.Hour,
		RefreshTokenTTL: time.Hour,
	}, nil)

	refresh, err := forge.IssueRefresh(1)
	require.NoError(t, err)

	_, err = forge.Verify(refresh, security.AccessToken)
	assert.ErrorIs(t, err, security.ErrInvalidToken)
}

func TestTokenForge_Expiry(t *testing.T) {
	clock := &fixedClock{now: time.Now()}
	forge := newForge(clock)

	token, err := forge.IssueAccess(1, "a@x.com", "alice")
	require.NoError(t, err)

	clock.now = clock.now.Add(59 * time.Minute)
	_, err = forge.Verify(token, security.AccessToken)
	require.NoError(t, err)

	clock.now = clock.now.Add(2 * time.Minute)
	_, err = forge.Verify(token, security.AccessToken)
	assert.ErrorIs(t, err, security.ErrInvalidToken)
}

func TestTokenForge_RejectsTampering(t *testing.T) {
	forge := newForge(&fixedClock{now: time.Now()})

	token, err := forge.IssueAccess(1, "a@x.com", "alice")
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	for _, candidate := range []string{tampered, "", "not-a-jwt", parts[0] + "." + parts[1] + "."} {
		_, err = forge.Verify(candidate, security.AccessToken)
		assert.ErrorIs(t, err, security.ErrInvalidToken)
	}
}

func TestTokenForge_RejectsForeignSecretAndAlgorithm(t *testing.T) {
	forge := newForge(&fixedClock{now: time.Now()})
	now := time.Now()

	claims := &security.Claims{
		UserID: 1,
		Class:  security.AccessToken,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "taskboard-auth",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}

	foreign, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("other-secret"))
	require.NoError(t, err)
	_, err = forge.Verify(foreign, security.AccessToken)
	assert.ErrorIs(t, err, security.ErrInvalidToken)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = forge.Verify(none, security.AccessToken)
	assert.ErrorIs(t, err, security.ErrInvalidToken)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("access-secret"))
	require.NoError(t, err)
	_, err = forge.Verify(hs512, security.AccessToken)
	assert.ErrorIs(t, err, security.ErrInvalidToken)
}

func TestTokenForge_TokensAreUnique(t *testing.T) {
	forge := newForge(&fixedClock{now: time.Now()})

	first, err := forge.IssueRefresh(1)
	require.NoError(t, err)
	second, err := forge.IssueRefresh(1)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestOneTimeTokenFactory_Generate(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	factory := security.NewOneTimeTokenFactory(15*time.Minute, &fixedClock{now: now})

	token, err := factory.Generate()
	require.NoError(t, err)

	assert.Len(t, token.Plain, security.OneTimeTokenBytes*2)
	assert.Equal(t, security.HashToken(token.Plain), token.Hash)
	assert.NotEqual(t, token.Plain, token.Hash)
	assert.Equal(t, now.Add(15*time.Minute), token.ExpiresAt)

	other, err := factory.Generate()
	require.NoError(t, err)
	assert.NotEqual(t, token.Plain, other.Plain)
}

func TestTokenHashEqual(t *testing.T) {
	hash := security.HashToken("value")

	assert.True(t, security.TokenHashEqual(hash, security.HashToken("value")))
	assert.False(t, security.TokenHashEqual(hash, security.HashToken("other")))
	assert.False(t, security.TokenHashEqual(hash, ""))
}
