// Package proofkey generates proof signing keys and issues campaign proofs.
package proofkey

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/louisbranch/stakedrop/internal/platform/config"
	"github.com/louisbranch/stakedrop/internal/platform/id"
	"github.com/louisbranch/stakedrop/internal/services/ledger/authz"
)

// Generate writes a fresh key pair as shell exports.
func Generate(out io.Writer, reader io.Reader) error {
	if out == nil {
		return errors.New("output is required")
	}
	if reader == nil {
		reader = rand.Reader
	}
	publicKey, privateKey, err := ed25519.GenerateKey(reader)
	if err != nil {
		return fmt.Errorf("generate proof key: %w", err)
	}
	if _, err := fmt.Fprintf(out, "export %sPROOF_PRIVATE_KEY=%s\n", config.EnvPrefix, base64.RawStdEncoding.EncodeToString(privateKey)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(out, "export %sPROOF_PUBLIC_KEY=%s\n", config.EnvPrefix, base64.RawStdEncoding.EncodeToString(publicKey)); err != nil {
		return err
	}
	return nil
}

// SignConfig holds the settings for issuing one proof.
type SignConfig struct {
	PrivateKey string        `env:"PROOF_PRIVATE_KEY"`
	Issuer     string        `env:"PROOF_ISSUER"`
	Audience   string        `env:"PROOF_AUDIENCE"`
	TTL        time.Duration `env:"PROOF_TTL"         envDefault:"5m"`
	Action     string
	CampaignID string
	AccountID  string
}

// ParseSignConfig loads signing settings from env, then flags.
func ParseSignConfig(fs *flag.FlagSet, args []string) (SignConfig, error) {
	var cfg SignConfig
	if err := config.ParseEnv(&cfg); err != nil {
		return SignConfig{}, err
	}
	fs.StringVar(&cfg.CampaignID, "campaign", "", "Campaign id the proof is bound to")
	fs.StringVar(&cfg.Action, "action", "", "Campaign action: initialize, join, leave or distribute")
	fs.StringVar(&cfg.AccountID, "account", "", "Sponsor or participant id the proof is bound to")
	fs.DurationVar(&cfg.TTL, "ttl", cfg.TTL, "Proof lifetime")
	fs.StringVar(&cfg.Issuer, "issuer", cfg.Issuer, "Proof issuer")
	fs.StringVar(&cfg.Audience, "audience", cfg.Audience, "Proof audience")
	if err := fs.Parse(args); err != nil {
		return SignConfig{}, err
	}
	return cfg, nil
}

// Sign writes one signed proof followed by a newline.
func Sign(out io.Writer, cfg SignConfig, now func() time.Time) error {
	if out == nil {
		return errors.New("output is required")
	}
	if strings.TrimSpace(cfg.PrivateKey) == "" {
		return fmt.Errorf("%sPROOF_PRIVATE_KEY is required", config.EnvPrefix)
	}
	key, err := authz.DecodePrivateKey(cfg.PrivateKey)
	if err != nil {
		return err
	}
	if now == nil {
		now = time.Now
	}
	jwtID, err := id.NewID()
	if err != nil {
		return fmt.Errorf("generate proof id: %w", err)
	}
	token, err := authz.Sign(key, authz.SignInput{
		Issuer:     strings.TrimSpace(cfg.Issuer),
		Audience:   strings.TrimSpace(cfg.Audience),
		Action:     authz.Action(strings.TrimSpace(cfg.Action)),
		CampaignID: strings.TrimSpace(cfg.CampaignID),
		AccountID:  strings.TrimSpace(cfg.AccountID),
		JWTID:      jwtID,
		IssuedAt:   now(),
		TTL:        cfg.TTL,
	})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, token)
	return err
}
