package conversation

import "time"

// Entry is one utterance in a call's conversation log. Entries are append
// only: they are never mutated or removed, and sequence numbers are strictly
// increasing and gap-free per call.
type Entry struct {
	CallID    string    `json:"call_id"`
	Seq       int64     `json:"seq"`
	Speaker   string    `json:"speaker"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}
