package security

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"time"
)

// OneTimeTokenBytes is the amount of randomness in a verification or reset
// token (160 bits).
const OneTimeTokenBytes = 20

type OneTimeToken struct {
	Plain     string
	Hash      string
	ExpiresAt time.Time
}

// OneTimeTokenFactory creates opaque email verification and password reset
// grants. Only Hash is persisted; Plain goes to the user.
type OneTimeTokenFactory struct {
	ttl   time.Duration
	clock Clock
}

func NewOneTimeTokenFactory(ttl time.Duration, clock Clock) *OneTimeTokenFactory {
	if clock == nil {
		clock = SystemClock{}
	}
	return &OneTimeTokenFactory{ttl: ttl, clock: clock}
}

func (f *OneTimeTokenFactory) Generate() (*OneTimeToken, error) {
	buf := make([]byte, OneTimeTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("failed to generate random bytes: %w", err)
	}

	plain := hex.EncodeToString(buf)
	return &OneTimeToken{
		Plain:     plain,
		Hash:      HashToken(plain),
		ExpiresAt: f.clock.Now().Add(f.ttl),
	}, nil
}

// HashToken is the SHA-256 lookup digest for opaque tokens. Stored hashes are
// queried by equality, so it must stay deterministic and unsalted.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func TokenHashEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
