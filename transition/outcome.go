package transition

// Outcome is the terminal result of the monitored work.
type Outcome int

const (
	// Success means the work completed.
	Success Outcome = iota
	// Failure means the work failed.
	Failure
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case Failure:
		return "failure"
	default:
		return "unknown"
	}
}
