package routing

// Decision is the output of the routing policy.
//
// It must contain *only* what the telephony boundary needs to execute the
// branch. No provider identity and no provider-specific fields belong here.

type Decision struct {
	Action Action `json:"action"`

	// ForwardTo is set when Action == ActionForward.
	ForwardTo string `json:"forward_to,omitempty"`

	// Reason is optional and intended for internal logs/metrics.
	Reason string `json:"reason,omitempty"`
}

type Action string

const (
	ActionForward  Action = "forward"
	ActionConverse Action = "converse"
)
