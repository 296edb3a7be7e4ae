package dispatch

// Phase is the lifecycle position of one in-flight call.
type Phase string

const (
	PhaseReceived      Phase = "received"
	PhaseStateRestored Phase = "state_restored"
	PhaseInitialized   Phase = "initialized"
	PhaseInvoking      Phase = "invoking"
	PhaseSucceeded     Phase = "succeeded"
	PhaseFailed        Phase = "failed"
	PhaseReported      Phase = "reported"
)

// Terminal reports whether no further transition other than reporting can follow.
func (p Phase) Terminal() bool {
	return p == PhaseSucceeded || p == PhaseFailed || p == PhaseReported
}
