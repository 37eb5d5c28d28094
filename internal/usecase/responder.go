package usecase

import (
	"errors"
	"fmt"
	"strings"

	"herbalbot/internal/domain"
)

// ReplyKind classifies a Responder reply.
type ReplyKind string

const (
	ReplyGreeting ReplyKind = "greeting"
	ReplyRemedy   ReplyKind = "remedy"
	ReplyFallback ReplyKind = "fallback"
)

type Reply struct {
	Kind  ReplyKind
	Text  string
	Herbs []domain.Herb
}

// Responder answers free text from a fixed herb catalog. It never mutates the catalog.
type Responder struct {
	herbs  []domain.Herb
	choose Chooser
}

func NewResponder(herbs []domain.Herb, choose Chooser) (*Responder, error) {
	if herbs == nil {
		return nil, errors.New("usecase: herb catalog must not be nil")
	}
	if choose == nil {
		choose = RandomChooser
	}
	return &Responder{herbs: herbs, choose: choose}, nil
}

// HerbCount returns the number of catalog entries.
func (r *Responder) HerbCount() int {
	return len(r.herbs)
}

// Respond builds the reply for input on behalf of user.
func (r *Responder) Respond(user, input string) Reply {
	if isGreeting(input) {
		return Reply{Kind: ReplyGreeting, Text: fmt.Sprintf(pick(r.choose, greetingVariants), user)}
	}

	matched := r.Match(input)
	if len(matched) == 0 {
		return Reply{Kind: ReplyFallback, Text: pick(r.choose, fallbackVariants)}
	}
	return Reply{Kind: ReplyRemedy, Text: formatRemedies(matched), Herbs: matched}
}

// Match returns every herb with a use that contains, or is contained in,
// query. Comparison ignores case and results keep catalog order.
func (r *Responder) Match(query string) []domain.Herb {
	lower := strings.ToLower(query)
	var out []domain.Herb
	for _, h := range r.herbs {
		for _, u := range h.Uses {
			use := strings.ToLower(u)
			if strings.Contains(lower, use) || strings.Contains(use, lower) {
				out = append(out, h)
				break
			}
		}
	}
	return out
}

func formatRemedies(herbs []domain.Herb) string {
	var b strings.Builder
	b.WriteString(remedyHeader)
	b.WriteString("\n\n")
	for _, h := range herbs {
		fmt.Fprintf(&b, "🔹 Scientific Name: %s\n", h.Name)
		fmt.Fprintf(&b, "🔹 Local Name: %s\n", h.LocalName)
		fmt.Fprintf(&b, "🔹 Uses: %s\n", strings.Join(h.Uses, ", "))
		fmt.Fprintf(&b, "🔹 How to Use: %s\n", h.Notes)
		b.WriteString(remedyCaution)
		b.WriteString("\n\n")
	}
	return strings.TrimSpace(b.String())
}
