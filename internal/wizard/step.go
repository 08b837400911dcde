package wizard

// Step is a 1-based wizard position.
type Step int

const (
	StepVenue Step = iota + 1
	StepSession
	StepDate
	StepRegister
	StepCouples
	StepWitnesses
	StepDocuments
	StepPayment
)

// TotalSteps is the number of wizard steps. StepPayment is terminal.
const TotalSteps = int(StepPayment)

// Steps lists every step in order.
var Steps = []Step{
	StepVenue, StepSession, StepDate, StepRegister,
	StepCouples, StepWitnesses, StepDocuments, StepPayment,
}

func (s Step) String() string {
	switch s {
	case StepVenue:
		return "venue"
	case StepSession:
		return "session"
	case StepDate:
		return "date"
	case StepRegister:
		return "register"
	case StepCouples:
		return "couples"
	case StepWitnesses:
		return "witnesses"
	case StepDocuments:
		return "documents"
	case StepPayment:
		return "payment"
	default:
		return "unknown"
	}
}

// Title is the heading shown for the step.
func (s Step) Title() string {
	switch s {
	case StepVenue:
		return "Venue"
	case StepSession:
		return "Session"
	case StepDate:
		return "Date"
	case StepRegister:
		return "Registered By"
	case StepCouples:
		return "Couples"
	case StepWitnesses:
		return "Witnesses"
	case StepDocuments:
		return "Documents"
	case StepPayment:
		return "Payment & Review"
	default:
		return ""
	}
}

// Valid reports whether s is within 1..TotalSteps.
func (s Step) Valid() bool { return s >= StepVenue && s <= StepPayment }

// Terminal reports whether s is the submission step.
func (s Step) Terminal() bool { return s == StepPayment }

// Mode distinguishes creating a booking from editing one.
type Mode int

const (
	ModeCreate Mode = iota
	ModeEdit
)

func (m Mode) String() string {
	if m == ModeEdit {
		return "edit"
	}
	return "create"
}

// Phase is the lifecycle state of a wizard instance.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseLoadFailed
	PhaseReady
	PhaseSubmitting
	PhaseReceiptPrompt
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseLoadFailed:
		return "load_failed"
	case PhaseReady:
		return "ready"
	case PhaseSubmitting:
		return "submitting"
	case PhaseReceiptPrompt:
		return "receipt_prompt"
	case PhaseDone:
		return "done"
	default:
		return "unknown"
	}
}
