package domain

// IntakeStep is the current question of the intake flow.
type IntakeStep string

const (
	StepNone     IntakeStep = "none"
	StepGender   IntakeStep = "gender"
	StepAge      IntakeStep = "age"
	StepDuration IntakeStep = "duration"
	StepBodyPart IntakeStep = "bodyPart"
	StepDone     IntakeStep = "done"
)

// InProgress reports whether messages are consumed as intake answers.
func (s IntakeStep) InProgress() bool {
	return s != StepNone && s != StepDone && s != ""
}

// IntakeData holds the answers collected during one intake session.
// Values are stored verbatim.
type IntakeData struct {
	Gender   string
	Age      string
	Duration string
	BodyPart string
}
