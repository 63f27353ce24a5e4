package grant

import "time"

// Role classifies a participant at grant-issuance time. Roles are carried on
// the token rather than inferred from identity naming conventions.
type Role string

const (
	RoleCaller        Role = "caller"
	RoleAgentPrimary  Role = "agent_primary"
	RoleAgentTransfer Role = "agent_transfer"
)

// Permissions is the capability set a grant authorizes inside one room.
type Permissions struct {
	Join              bool `json:"join"`
	PublishAudio      bool `json:"publish_audio"`
	PublishData       bool `json:"publish_data"`
	Subscribe         bool `json:"subscribe"`
	UpdateOwnMetadata bool `json:"update_own_metadata"`
}

// CallerPermissions returns the capability set issued to callers.
func CallerPermissions() Permissions {
	return Permissions{
		Join:              true,
		PublishAudio:      true,
		PublishData:       true,
		Subscribe:         true,
		UpdateOwnMetadata: true,
	}
}

// AgentPermissions returns the capability set issued to agents.
func AgentPermissions() Permissions {
	return Permissions{
		Join:              true,
		PublishAudio:      true,
		PublishData:       true,
		Subscribe:         true,
		UpdateOwnMetadata: true,
	}
}

// Grant is a time-bounded credential authorizing exactly one identity to join
// exactly one room. Grants are immutable once issued and are never persisted;
// expiry is enforced by the token clock, not revocation.
type Grant struct {
	Token       string      `json:"token"`
	Identity    string      `json:"identity"`
	RoomID      string      `json:"room_id"`
	Role        Role        `json:"role"`
	Permissions Permissions `json:"permissions"`
	IssuedAt    time.Time   `json:"issued_at"`
	ExpiresAt   time.Time   `json:"expires_at"`
}
