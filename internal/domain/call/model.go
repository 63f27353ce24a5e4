package call

import (
	"time"

	"github.com/rpggio/warmline/internal/domain/grant"
)

// Status represents the lifecycle status of a call.
type Status string

const (
	StatusActive       Status = "active"
	StatusTransferring Status = "transferring"
	StatusClosed       Status = "closed"
)

// Participant is an agent currently joined to a call. The role is recorded
// when the participant's grant is issued.
type Participant struct {
	Identity string     `json:"identity"`
	Role     grant.Role `json:"role"`
	JoinedAt time.Time  `json:"joined_at"`
}

// Call is the top-level session binding the caller, the original room, the
// joined agents and at most one active transfer.
type Call struct {
	ID               string        `json:"id"`
	CallerIdentity   string        `json:"caller_identity"`
	RoomID           string        `json:"room_id"`
	Status           Status        `json:"status"`
	Agents           []Participant `json:"agents"`
	ActiveTransferID *string       `json:"active_transfer_id,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
	ClosedAt         *time.Time    `json:"closed_at,omitempty"`
}

// Agent returns the joined participant with the given identity, if any.
func (c *Call) Agent(identity string) (Participant, bool) {
	for _, p := range c.Agents {
		if p.Identity == identity {
			return p, true
		}
	}
	return Participant{}, false
}

// PrimaryAgent returns the participant currently holding the call.
func (c *Call) PrimaryAgent() (Participant, bool) {
	for _, p := range c.Agents {
		if p.Role == grant.RoleAgentPrimary {
			return p, true
		}
	}
	return Participant{}, false
}
