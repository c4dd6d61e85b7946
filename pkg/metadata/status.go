package metadata

import "fmt"

type Status string

const (
	StatusPending    Status = "pending"
	StatusRegistered Status = "registered"
	StatusExpired    Status = "expired"
	StatusClaimed    Status = "claimed"
	StatusVoid       Status = "void"
)

var statusLabels = map[Status]string{
	StatusPending:    "Pending",
	StatusRegistered: "Warranty Registered",
	StatusExpired:    "Warranty Expired",
	StatusClaimed:    "Warranty Claimed",
	StatusVoid:       "Void",
}

func NewStatus(value string) (Status, error) {
	status := Status(value)
	if !status.isValid() {
		return "", fmt.Errorf("invalid status: %s", value)
	}
	return status, nil
}

func (s Status) isValid() bool {
	switch s {
	case StatusPending, StatusRegistered, StatusExpired, StatusClaimed, StatusVoid:
		return true
	default:
		return false
	}
}

func (s Status) String() string {
	return string(s)
}

// Label returns the human readable form used in API payloads.
func (s Status) Label() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return string(s)
}

// Terminal reports whether the status can only be left through an explicit
// administrative override.
func (s Status) Terminal() bool {
	switch s {
	case StatusExpired, StatusClaimed, StatusVoid:
		return true
	default:
		return false
	}
}

// CanTransition reports whether a record may move from s to target. A move out
// of a terminal status requires override, as does moving a registered record
// back to pending; same-status moves are not transitions.
func (s Status) CanTransition(target Status, override bool) bool {
	if !target.isValid() || s == target {
		return false
	}
	if s.Terminal() {
		return override
	}
	if s == StatusRegistered && target == StatusPending {
		return override
	}
	return true
}
