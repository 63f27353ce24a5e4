// Package grantkey generates API key pairs for grant signing.
package grantkey

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
)

// Config holds configuration for key pair generation.
type Config struct {
	KeyBytes    int
	SecretBytes int
}

// ParseConfig parses flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := Config{KeyBytes: 8, SecretBytes: 32}
	fs.IntVar(&cfg.KeyBytes, "key-bytes", cfg.KeyBytes, "number of random bytes in the API key (default: 8)")
	fs.IntVar(&cfg.SecretBytes, "secret-bytes", cfg.SecretBytes, "number of random bytes in the API secret (default: 32)")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run generates the key pair and writes it to out as env var assignments.
func Run(cfg Config, out io.Writer, reader io.Reader) error {
	if cfg.KeyBytes <= 0 || cfg.SecretBytes <= 0 {
		return errors.New("byte counts must be greater than zero")
	}
	if out == nil {
		return errors.New("output is required")
	}
	if reader == nil {
		reader = rand.Reader
	}

	key := make([]byte, cfg.KeyBytes)
	if _, err := io.ReadFull(reader, key); err != nil {
		return fmt.Errorf("generate api key: %w", err)
	}
	secret := make([]byte, cfg.SecretBytes)
	if _, err := io.ReadFull(reader, secret); err != nil {
		return fmt.Errorf("generate api secret: %w", err)
	}

	if _, err := fmt.Fprintf(out, "WARMLINE_MEDIA_API_KEY=WL%s\n", hex.EncodeToString(key)); err != nil {
		return err
	}
	_, err := fmt.Fprintf(out, "WARMLINE_MEDIA_API_SECRET=%s\n", hex.EncodeToString(secret))
	return err
}
