package usecase

import (
	"math/rand"
	"strings"
)

// Chooser returns an index in [0, n). n is always positive.
type Chooser func(n int) int

// RandomChooser picks uniformly using the global math/rand source.
func RandomChooser(n int) int {
	return rand.Intn(n)
}

// FirstChooser always picks the first variant.
func FirstChooser(int) int { return 0 }

var greetingPhrases = []string{"hello", "hi", "hey", "good morning", "good afternoon", "good evening"}

// Greeting variants take the user name as their only argument.
var greetingVariants = []string{
	"👋 Hello %s! Please tell me your symptom.",
	"👋 Hi %s! What symptom are you feeling today?",
	"🌿 Welcome back, %s! Describe how you feel and I'll look for a herb.",
}

var fallbackVariants = []string{
	"🤔 I couldn't find a herb for that. Try symptoms like headache, fever, cough, stomach pain, body ache.",
	"😕 Sorry, nothing in my herb list matches that. You can try: malaria, cold, nausea, insomnia, joint pain.",
	"🌱 I don't know a remedy for that yet. Try describing a symptom such as fatigue, diarrhea or skin infection.",
}

const (
	remedyHeader  = "🌿 **Herbal remedies for your condition:**"
	remedyCaution = "🔹 Caution: Use in moderation."
	askGender     = "Before I suggest herbs 🌿, please tell me your **gender** (Male / Female)."
	askAge        = "How old are you?"
	askDuration   = "For how long have you been feeling this? (e.g 2 days, 1 week)"
	askBodyPart   = "Which part exactly? (e.g Head – left/right, Stomach – upper/lower)"
	detailsHeader = "🧾 **Details recorded:**"
)

func pick(choose Chooser, variants []string) string {
	i := choose(len(variants))
	if i < 0 || i >= len(variants) {
		i = 0
	}
	return variants[i]
}

func isGreeting(text string) bool {
	lower := strings.ToLower(text)
	for _, g := range greetingPhrases {
		if strings.Contains(lower, g) {
			return true
		}
	}
	return false
}
