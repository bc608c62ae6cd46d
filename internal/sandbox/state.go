package sandbox

import "fmt"

// State is the orchestrator's lifecycle position.
type State string

const (
	StateBooting    State = "booting"
	StateInstalling State = "installing"
	StateStarting   State = "starting"
	StateReady      State = "ready"
	StateFailed     State = "failed"
)

// Terminal reports whether no further transitions happen from s.
func (s State) Terminal() bool {
	return s == StateReady || s == StateFailed
}

// Session is a snapshot of the orchestrator's observable state. Address and
// Port are only set in StateReady; Status is the human-readable line shown
// next to the state, which carries the error text in StateFailed.
type Session struct {
	State   State  `json:"state"`
	Address string `json:"address,omitempty"`
	Port    int    `json:"port,omitempty"`
	Status  string `json:"status"`
}

func statusText(s State, address string) string {
	switch s {
	case StateBooting:
		return "Booting sandbox..."
	case StateInstalling:
		return "Installing dependencies..."
	case StateStarting:
		return "Starting dev server..."
	case StateReady:
		return fmt.Sprintf("Ready at %s", address)
	default:
		return string(s)
	}
}
