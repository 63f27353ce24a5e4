package room

import "time"

// Kind distinguishes the caller-facing room from the transient briefing room.
type Kind string

const (
	KindOriginal Kind = "original"
	KindBriefing Kind = "briefing"
)

// Room is a logical communication space materialized in the media transport.
type Room struct {
	ID           string        `json:"id"`
	Kind         Kind          `json:"kind"`
	EmptyTimeout time.Duration `json:"empty_timeout"`
	CreatedAt    time.Time     `json:"created_at"`
}
