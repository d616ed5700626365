package alert

// Kind selects message wording. It is decided by the route that received
// the alert, never by payload content.
type Kind int

const (
	Pickup Kind = iota + 1
	Addition
)

func (k Kind) String() string {
	switch k {
	case Pickup:
		return "pickup"
	case Addition:
		return "addition"
	default:
		return "unknown"
	}
}
