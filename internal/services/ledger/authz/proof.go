// Package authz verifies ledger proofs: short-lived EdDSA JWTs showing a
// caller controls the account behind one campaign action. Sponsors prove
// initialize and distribute; participants prove join and leave.
package authz

import (
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/louisbranch/stakedrop/internal/platform/config"
	apperrors "github.com/louisbranch/stakedrop/internal/platform/errors"
)

// proofEnv holds raw env values before post-parse validation.
type proofEnv struct {
	Issuer    string `env:"PROOF_ISSUER"`
	Audience  string `env:"PROOF_AUDIENCE"`
	PublicKey string `env:"PROOF_PUBLIC_KEY"`
}

// Action names the campaign operation a proof authorizes.
type Action string

const (
	ActionInitialize Action = "initialize"
	ActionJoin       Action = "join"
	ActionLeave      Action = "leave"
	ActionDistribute Action = "distribute"
)

const (
	claimSponsorID     = "sponsor_id"
	claimParticipantID = "participant_id"
)

// subjectClaim is the claim holding the account that must match for a.
func (a Action) subjectClaim() (string, bool) {
	switch a {
	case ActionInitialize, ActionDistribute:
		return claimSponsorID, true
	case ActionJoin, ActionLeave:
		return claimParticipantID, true
	}
	return "", false
}

// Config defines how proofs are verified.
type Config struct {
	Issuer   string
	Audience string
	Key      ed25519.PublicKey
	Now      func() time.Time
}

// Expectation names the action, campaign and account a proof must carry.
// AccountID is the sponsor for sponsor actions and the participant otherwise.
type Expectation struct {
	Action     Action
	CampaignID string
	AccountID  string
}

// Claims captures validated proof claims.
type Claims struct {
	Issuer     string
	Audience   []string
	ExpiresAt  time.Time
	IssuedAt   time.Time
	JWTID      string
	Action     Action
	CampaignID string
	AccountID  string
}

type proofClaims struct {
	jwt.RegisteredClaims
	Action        Action `json:"action"`
	CampaignID    string `json:"campaign_id"`
	SponsorID     string `json:"sponsor_id,omitempty"`
	ParticipantID string `json:"participant_id,omitempty"`
}

func (c proofClaims) subject(claim string) string {
	if claim == claimSponsorID {
		return c.SponsorID
	}
	return c.ParticipantID
}

// LoadConfigFromEnv reads proof verification settings. It reports enabled
// false when none of the proof variables are set.
func LoadConfigFromEnv(now func() time.Time) (Config, bool, error) {
	var raw proofEnv
	if err := config.ParseEnv(&raw); err != nil {
		return Config{}, false, fmt.Errorf("parse proof env: %w", err)
	}
	issuer := strings.TrimSpace(raw.Issuer)
	audience := strings.TrimSpace(raw.Audience)
	publicKey := strings.TrimSpace(raw.PublicKey)
	if issuer == "" && audience == "" && publicKey == "" {
		return Config{}, false, nil
	}
	if issuer == "" {
		return Config{}, false, fmt.Errorf("%sPROOF_ISSUER is required", config.EnvPrefix)
	}
	if audience == "" {
		return Config{}, false, fmt.Errorf("%sPROOF_AUDIENCE is required", config.EnvPrefix)
	}
	key, err := DecodePublicKey(publicKey)
	if err != nil {
		return Config{}, false, err
	}
	if now == nil {
		now = time.Now
	}
	return Config{Issuer: issuer, Audience: audience, Key: key, Now: now}, true, nil
}

// DecodePublicKey parses a base64 ed25519 public key.
func DecodePublicKey(value string) (ed25519.PublicKey, error) {
	keyBytes, err := decodeBase64(strings.TrimSpace(value))
	if err != nil {
		return nil, fmt.Errorf("decode proof public key: %w", err)
	}
	if len(keyBytes) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("proof public key must be %d bytes", ed25519.PublicKeySize)
	}
	return ed25519.PublicKey(keyBytes), nil
}

// DecodePrivateKey parses a base64 ed25519 private key.
func DecodePrivateKey(value string) (ed25519.PrivateKey, error) {
	keyBytes, err := decodeBase64(strings.TrimSpace(value))
	if err != nil {
		return nil, fmt.Errorf("decode proof private key: %w", err)
	}
	if len(keyBytes) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("proof private key must be %d bytes", ed25519.PrivateKeySize)
	}
	return ed25519.PrivateKey(keyBytes), nil
}

// Verify checks the proof signature and that its claims match expected.
func Verify(proof string, expected Expectation, cfg Config) (Claims, error) {
	proof = strings.TrimSpace(proof)
	if proof == "" {
		return Claims{}, apperrors.New(apperrors.CodeProofInvalid, "proof is required")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Issuer == "" || cfg.Audience == "" || len(cfg.Key) != ed25519.PublicKeySize {
		return Claims{}, errors.New("proof verifier is not configured")
	}
	subjectClaim, ok := expected.Action.subjectClaim()
	if !ok {
		return Claims{}, fmt.Errorf("unknown proof action %q", expected.Action)
	}

	var parsed proofClaims
	_, err := jwt.ParseWithClaims(proof, &parsed, func(*jwt.Token) (any, error) {
		return cfg.Key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodEdDSA.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return Claims{}, mapJWTError(err)
	}

	if parsed.Issuer == "" || parsed.Issuer != cfg.Issuer {
		return Claims{}, mismatch("issuer")
	}
	if !slices.Contains(parsed.Audience, cfg.Audience) {
		return Claims{}, mismatch("audience")
	}
	if parsed.ExpiresAt == nil {
		return Claims{}, apperrors.New(apperrors.CodeProofInvalid, "proof exp is required")
	}
	now := cfg.Now().UTC()
	exp := parsed.ExpiresAt.Time.UTC()
	if !exp.After(now) {
		return Claims{}, apperrors.New(apperrors.CodeProofExpired, "proof is expired")
	}
	if parsed.NotBefore != nil && now.Before(parsed.NotBefore.Time.UTC()) {
		return Claims{}, apperrors.New(apperrors.CodeProofInvalid, "proof not active yet")
	}
	if parsed.Action != expected.Action {
		return Claims{}, mismatch("action")
	}
	if strings.TrimSpace(parsed.CampaignID) == "" || parsed.CampaignID != expected.CampaignID {
		return Claims{}, mismatch("campaign_id")
	}
	subject := parsed.subject(subjectClaim)
	if strings.TrimSpace(subject) == "" || subject != expected.AccountID {
		return Claims{}, mismatch(subjectClaim)
	}

	claims := Claims{
		Issuer:     parsed.Issuer,
		Audience:   []string(parsed.Audience),
		ExpiresAt:  exp,
		JWTID:      parsed.ID,
		Action:     parsed.Action,
		CampaignID: parsed.CampaignID,
		AccountID:  subject,
	}
	if parsed.IssuedAt != nil {
		claims.IssuedAt = parsed.IssuedAt.Time.UTC()
	}
	return claims, nil
}

// SignInput describes a proof to issue. AccountID lands in the sponsor_id or
// participant_id claim depending on Action.
type SignInput struct {
	Issuer     string
	Audience   string
	Action     Action
	CampaignID string
	AccountID  string
	JWTID      string
	IssuedAt   time.Time
	TTL        time.Duration
}

// Sign issues a proof signed with key.
func Sign(key ed25519.PrivateKey, in SignInput) (string, error) {
	if len(key) != ed25519.PrivateKeySize {
		return "", errors.New("proof signing key is required")
	}
	if in.Issuer == "" || in.Audience == "" {
		return "", errors.New("proof issuer and audience are required")
	}
	subjectClaim, ok := in.Action.subjectClaim()
	if !ok {
		return "", fmt.Errorf("unknown proof action %q", in.Action)
	}
	if in.CampaignID == "" || in.AccountID == "" {
		return "", errors.New("proof campaign and account are required")
	}
	if in.TTL <= 0 {
		return "", errors.New("proof ttl must be positive")
	}
	if in.IssuedAt.IsZero() {
		in.IssuedAt = time.Now()
	}
	claims := proofClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    in.Issuer,
			Audience:  jwt.ClaimStrings{in.Audience},
			IssuedAt:  jwt.NewNumericDate(in.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(in.IssuedAt.Add(in.TTL)),
			ID:        in.JWTID,
		},
		Action:     in.Action,
		CampaignID: in.CampaignID,
	}
	if subjectClaim == claimSponsorID {
		claims.SponsorID = in.AccountID
	} else {
		claims.ParticipantID = in.AccountID
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims).SignedString(key)
	if err != nil {
		return "", fmt.Errorf("sign proof: %w", err)
	}
	return token, nil
}

func mismatch(field string) error {
	return apperrors.WithMetadata(
		apperrors.CodeProofMismatch,
		"proof "+strings.ReplaceAll(field, "_", " ")+" mismatch",
		map[string]string{"Field": field},
	)
}

func mapJWTError(err error) error {
	if errors.Is(err, jwt.ErrTokenSignatureInvalid) || errors.Is(err, jwt.ErrEd25519Verification) {
		return apperrors.Wrap(apperrors.CodeProofInvalid, "proof signature is invalid", err)
	}
	if errors.Is(err, jwt.ErrTokenUnverifiable) {
		return apperrors.Wrap(apperrors.CodeProofInvalid, "proof alg is invalid", err)
	}
	return apperrors.Wrap(apperrors.CodeProofInvalid, "proof is invalid", err)
}

func decodeBase64(value string) ([]byte, error) {
	if value == "" {
		return nil, errors.New("empty base64 value")
	}
	decoded, err := base64.RawStdEncoding.DecodeString(value)
	if err == nil {
		return decoded, nil
	}
	return base64.StdEncoding.DecodeString(value)
}
