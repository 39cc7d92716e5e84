package task

// Status is the lifecycle state of a runtime task. Terminal states are
// absorbing; a task never leaves Success or Failed.
type Status int32

const (
	StatusPending Status = iota
	StatusRunning
	StatusSuccess
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusRunning:
		return "running"
	case StatusSuccess:
		return "success"
	case StatusFailed:
		return "failed"
	}

	return "unknown"
}

// Terminal reports whether the status is Success or Failed.
func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusFailed
}
