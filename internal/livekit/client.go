// Package livekit is the HTTP client for a LiveKit-compatible room service.
// It implements room.MediaTransport against the Twirp-style server API; media
// content itself never passes through this process.
package livekit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// AdminTokenMinter mints short-lived server API tokens.
type AdminTokenMinter interface {
	IssueAdmin(ttl time.Duration) (string, error)
}

// Config configures the room service client.
type Config struct {
	// URL is the room service base URL, e.g. http://localhost:7880.
	URL        string
	HTTPClient *http.Client
}

// Client calls the room service over HTTP.
type Client struct {
	baseURL string
	tokens  AdminTokenMinter
	http    *http.Client
}

// NewClient creates a room service client.
func NewClient(cfg Config, tokens AdminTokenMinter) *Client {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimSuffix(cfg.URL, "/"),
		tokens:  tokens,
		http:    cfg.HTTPClient,
	}
}

type createRoomRequest struct {
	Name         string `json:"name"`
	EmptyTimeout int64  `json:"empty_timeout,omitempty"`
}

type deleteRoomRequest struct {
	Room string `json:"room"`
}

type removeParticipantRequest struct {
	Room     string `json:"room"`
	Identity string `json:"identity"`
}

// CreateRoom materializes a room in the media transport.
func (c *Client) CreateRoom(ctx context.Context, id string, emptyTimeout time.Duration) error {
	return c.post(ctx, "/twirp/livekit.RoomService/CreateRoom", createRoomRequest{
		Name:         id,
		EmptyTimeout: int64(emptyTimeout / time.Second),
	})
}

// DestroyRoom tears a room down in the media transport.
func (c *Client) DestroyRoom(ctx context.Context, id string) error {
	return c.post(ctx, "/twirp/livekit.RoomService/DeleteRoom", deleteRoomRequest{Room: id})
}

// RemoveParticipant removes a participant's room membership. Their grant is
// not revoked; it simply expires.
func (c *Client) RemoveParticipant(ctx context.Context, roomID, identity string) error {
	return c.post(ctx, "/twirp/livekit.RoomService/RemoveParticipant", removeParticipantRequest{
		Room:     roomID,
		Identity: identity,
	})
}

func (c *Client) post(ctx context.Context, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	token, err := c.tokens.IssueAdmin(time.Minute)
	if err != nil {
		return fmt.Errorf("mint admin token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("room service request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		msg, err := io.ReadAll(io.LimitReader(res.Body, 4096))
		if err != nil {
			return fmt.Errorf("read error body: %w", err)
		}
		return fmt.Errorf("room service status %d: %s", res.StatusCode, strings.TrimSpace(string(msg)))
	}
	// Drain so the connection can be reused.
	_, _ = io.Copy(io.Discard, res.Body)
	return nil
}
