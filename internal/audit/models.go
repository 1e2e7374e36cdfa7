package audit

import "time"

// Action names what happened. Values are stable because they leave the
// process through the Kafka sink.
type Action string

const (
	ActionSessionRestored    Action = "session_restored"
	ActionLoginSucceeded     Action = "login_succeeded"
	ActionLoginFailed        Action = "login_failed"
	ActionLoggedOut          Action = "logged_out"
	ActionGateEntered        Action = "gate_entered"
	ActionVerificationGrant  Action = "verification_granted"
	ActionVerificationDeny   Action = "verification_denied"
	ActionVerificationFailed Action = "verification_failed"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	ClientID  string    `json:"client_id"`
	UserID    string    `json:"user_id,omitempty"`
	Action    Action    `json:"action"`
	// Subject is the project the action concerns, when any.
	Subject   string `json:"subject,omitempty"`
	Decision  string `json:"decision,omitempty"`
	Reason    string `json:"reason,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}
