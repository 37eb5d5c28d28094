package usecase

import (
	"fmt"
	"strings"

	"herbalbot/internal/domain"
)

// Intake walks a user through the fixed gender/age/duration/body-part
// questions before answering the symptom that opened the session.
type Intake struct {
	responder       *Responder
	absorbGreetings bool

	step    domain.IntakeStep
	data    domain.IntakeData
	pending *string
}

func NewIntake(r *Responder, absorbGreetings bool) *Intake {
	return &Intake{responder: r, absorbGreetings: absorbGreetings, step: domain.StepNone}
}

func (in *Intake) Step() domain.IntakeStep { return in.step }

func (in *Intake) Data() domain.IntakeData { return in.data }

// Pending returns the symptom text captured when the session started.
func (in *Intake) Pending() (string, bool) {
	if in.pending == nil {
		return "", false
	}
	return *in.pending, true
}

// Reset returns the machine to {none, {}, nil}.
func (in *Intake) Reset() {
	in.step = domain.StepNone
	in.data = domain.IntakeData{}
	in.pending = nil
}

// Advance consumes one user message and returns the bot reply.
func (in *Intake) Advance(user, input string) string {
	switch in.step {
	case domain.StepGender:
		in.data.Gender = input
		in.step = domain.StepAge
		return askAge

	case domain.StepAge:
		in.data.Age = input
		in.step = domain.StepDuration
		return askDuration

	case domain.StepDuration:
		in.data.Duration = input
		in.step = domain.StepBodyPart
		return askBodyPart

	case domain.StepBodyPart:
		in.data.BodyPart = input
		in.step = domain.StepDone
		symptom, _ := in.Pending()
		return in.summary() + "\n\n" + in.responder.Respond(user, symptom).Text

	default:
		if in.absorbGreetings && isGreeting(input) {
			return in.responder.Respond(user, input).Text
		}
		symptom := input
		in.pending = &symptom
		in.data = domain.IntakeData{}
		in.step = domain.StepGender
		return askGender
	}
}

func (in *Intake) summary() string {
	lines := []string{
		detailsHeader,
		fmt.Sprintf("• Gender: %s", in.data.Gender),
		fmt.Sprintf("• Age: %s", in.data.Age),
		fmt.Sprintf("• Duration: %s", in.data.Duration),
		fmt.Sprintf("• Location: %s", in.data.BodyPart),
	}
	return strings.Join(lines, "\n")
}
