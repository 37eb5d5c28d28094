package domain

// Sender identifies who authored a transcript message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// Message is a single transcript entry shown to the user.
type Message struct {
	Sender Sender `json:"sender"`
	Text   string `json:"text"`
}
