package models

// InputKind names the sum field a numeric input writes to.
type InputKind string

const (
	InputNone     InputKind = ""
	InputExpected InputKind = "expected"
	InputReceived InputKind = "received"
)

// Mode is the transient per-chat expectation of the next numeric input.
type Mode int

const (
	ModeIdle Mode = iota
	ModeAwaitingExpected
	ModeAwaitingReceived
)

func (m Mode) String() string {
	switch m {
	case ModeAwaitingExpected:
		return "awaiting_expected"
	case ModeAwaitingReceived:
		return "awaiting_received"
	default:
		return "idle"
	}
}

// Kind returns the field the mode writes to.
func (m Mode) Kind() InputKind {
	switch m {
	case ModeAwaitingExpected:
		return InputExpected
	case ModeAwaitingReceived:
		return InputReceived
	default:
		return InputNone
	}
}

// ModeFor is the inverse of Mode.Kind.
func ModeFor(k InputKind) Mode {
	switch k {
	case InputExpected:
		return ModeAwaitingExpected
	case InputReceived:
		return ModeAwaitingReceived
	default:
		return ModeIdle
	}
}

// Outcome classifies the sign of a tip.
type Outcome int

const (
	OutcomeZero Outcome = iota
	OutcomePositive
	OutcomeNegative
)

func (o Outcome) String() string {
	switch o {
	case OutcomePositive:
		return "positive"
	case OutcomeNegative:
		return "negative"
	default:
		return "zero"
	}
}

// Classify maps a difference to its outcome.
func Classify(diff float64) Outcome {
	switch {
	case diff > 0:
		return OutcomePositive
	case diff < 0:
		return OutcomeNegative
	default:
		return OutcomeZero
	}
}
