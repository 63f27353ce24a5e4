package grant

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Config defines how grants are signed.
type Config struct {
	APIKey     string
	APISecret  string
	DefaultTTL time.Duration
	MaxTTL     time.Duration
	Now        func() time.Time
}

// Issuer mints access grants. It is a pure minting function: it performs no
// authorization beyond input validation and trusts its caller.
type Issuer struct {
	apiKey     string
	secret     []byte
	defaultTTL time.Duration
	maxTTL     time.Duration
	now        func() time.Time
}

// videoClaim mirrors the room service's video grant claim.
type videoClaim struct {
	Room                 string `json:"room,omitempty"`
	RoomJoin             bool   `json:"roomJoin,omitempty"`
	RoomCreate           bool   `json:"roomCreate,omitempty"`
	RoomAdmin            bool   `json:"roomAdmin,omitempty"`
	CanPublish           bool   `json:"canPublish,omitempty"`
	CanPublishData       bool   `json:"canPublishData,omitempty"`
	CanSubscribe         bool   `json:"canSubscribe,omitempty"`
	CanUpdateOwnMetadata bool   `json:"canUpdateOwnMetadata,omitempty"`
}

type accessClaims struct {
	jwt.RegisteredClaims
	Video videoClaim `json:"video"`
	Role  Role       `json:"role,omitempty"`
}

// NewIssuer creates a grant issuer. Missing key material is a configuration
// error surfaced at construction, not per request.
func NewIssuer(cfg Config) (*Issuer, error) {
	if cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, ErrNotConfigured
	}
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = time.Hour
	}
	if cfg.MaxTTL <= 0 {
		cfg.MaxTTL = 6 * time.Hour
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Issuer{
		apiKey:     cfg.APIKey,
		secret:     []byte(cfg.APISecret),
		defaultTTL: cfg.DefaultTTL,
		maxTTL:     cfg.MaxTTL,
		now:        cfg.Now,
	}, nil
}

// DefaultTTL returns the configured default grant lifetime.
func (i *Issuer) DefaultTTL() time.Duration {
	return i.defaultTTL
}

// Issue mints a grant authorizing identity to join roomID with the given
// permission set. The grant binds exactly one (identity, room) pair.
func (i *Issuer) Issue(identity, roomID string, role Role, perms Permissions, ttl time.Duration) (*Grant, error) {
	if identity == "" {
		return nil, fmt.Errorf("%w: identity is required", ErrInvalidInput)
	}
	if roomID == "" {
		return nil, fmt.Errorf("%w: room id is required", ErrInvalidInput)
	}
	if ttl <= 0 {
		ttl = i.defaultTTL
	}
	if ttl > i.maxTTL {
		return nil, fmt.Errorf("%w: ttl %s exceeds maximum %s", ErrInvalidInput, ttl, i.maxTTL)
	}

	issuedAt := i.now().UTC()
	expiresAt := issuedAt.Add(ttl)
	claims := accessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.apiKey,
			Subject:   identity,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Video: videoClaim{
			Room:                 roomID,
			RoomJoin:             perms.Join,
			CanPublish:           perms.PublishAudio,
			CanPublishData:       perms.PublishData,
			CanSubscribe:         perms.Subscribe,
			CanUpdateOwnMetadata: perms.UpdateOwnMetadata,
		},
		Role: role,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return nil, fmt.Errorf("signing grant: %w", err)
	}

	return &Grant{
		Token:       token,
		Identity:    identity,
		RoomID:      roomID,
		Role:        role,
		Permissions: perms,
		IssuedAt:    issuedAt,
		ExpiresAt:   expiresAt,
	}, nil
}

// IssueAdmin mints a short-lived server token with room administration
// capabilities for the media transport API client.
func (i *Issuer) IssueAdmin(ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = time.Minute
	}
	issuedAt := i.now().UTC()
	claims := accessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.apiKey,
			Subject:   i.apiKey,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ttl)),
		},
		Video: videoClaim{
			RoomCreate: true,
			RoomAdmin:  true,
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("signing admin token: %w", err)
	}
	return token, nil
}
