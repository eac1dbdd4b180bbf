package audit

import "time"

// Action names every auditable registry operation.
type Action string

const (
	ActionBeneficiaryCreated    Action = "beneficiary_created"
	ActionBeneficiaryUpdated    Action = "beneficiary_updated"
	ActionBeneficiaryRegistered Action = "beneficiary_registered"
	ActionBeneficiaryDeleted    Action = "beneficiary_deleted"
	ActionBeneficiaryRestored   Action = "beneficiary_restored"
	ActionBeneficiaryArchived   Action = "beneficiary_archived"
	ActionArchiveRestored       Action = "beneficiary_archive_restored"
	ActionBeneficiaryPurged     Action = "beneficiary_purged"
	ActionFieldAdded            Action = "field_added"
	ActionFieldRemoved          Action = "field_removed"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp  time.Time `json:"timestamp"`
	ActorID    string    `json:"actor_id"`
	ActorLabel string    `json:"actor_label,omitempty"`
	ActorRole  string    `json:"actor_role,omitempty"`
	Action     Action    `json:"action"`
	Detail     string    `json:"detail"`
	OriginIP   string    `json:"origin_ip,omitempty"`
	RequestID  string    `json:"request_id,omitempty"`
}
