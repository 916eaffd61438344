package authz

import (
	"context"
	"strings"
	"sync"
	"time"

	apperrors "github.com/louisbranch/stakedrop/internal/platform/errors"
)

// Verifier checks proofs on caller-initiated commands and accepts each proof
// id once. The zero value, and a nil *Verifier, accept every caller.
type Verifier struct {
	cfg     Config
	enabled bool

	mu   sync.Mutex
	used map[string]time.Time // jti -> expiry
}

// NewVerifier returns a verifier enforcing cfg.
func NewVerifier(cfg Config) *Verifier {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Verifier{cfg: cfg, enabled: true, used: map[string]time.Time{}}
}

// Enabled reports whether proofs are enforced.
func (v *Verifier) Enabled() bool {
	return v != nil && v.enabled
}

// Check verifies proof against expected and consumes its jti. A proof that
// fails verification is not consumed.
func (v *Verifier) Check(ctx context.Context, proof string, expected Expectation) error {
	if !v.Enabled() {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	claims, err := Verify(proof, expected, v.cfg)
	if err != nil {
		return err
	}
	jti := strings.TrimSpace(claims.JWTID)
	if jti == "" {
		return apperrors.New(apperrors.CodeProofInvalid, "proof jti is required")
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	now := v.cfg.Now()
	for id, exp := range v.used {
		if !exp.After(now) {
			delete(v.used, id)
		}
	}
	if _, seen := v.used[jti]; seen {
		return apperrors.New(apperrors.CodeProofReused, "proof was already used")
	}
	v.used[jti] = claims.ExpiresAt
	return nil
}
