package usecase

import (
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"herbalbot/internal/domain"
)

// ReplyListener is notified after a bot message is appended. It runs on the
// scheduler's goroutine, outside the conversation lock.
type ReplyListener func(domain.Message)

// ConversationOptions configures a Conversation. A nil Delay means a fixed
// 800ms; a zero policy replies without waiting.
type ConversationOptions struct {
	Scheduler       Scheduler
	Delay           *DelayPolicy
	Choose          Chooser
	AbsorbGreetings bool
	OnReply         ReplyListener
	Logger          *slog.Logger
}

// Conversation owns one transcript and its intake session. At most one bot
// reply is pending at a time; Close cancels it.
type Conversation struct {
	id        string
	user      string
	scheduler Scheduler
	delay     DelayPolicy
	choose    Chooser
	onReply   ReplyListener
	logger    *slog.Logger

	mu         sync.Mutex
	transcript []domain.Message
	intake     *Intake
	typing     bool
	pending    Task
	generation uint64
	closed     bool
}

func NewConversation(r *Responder, user string, opts ConversationOptions) (*Conversation, error) {
	if r == nil {
		return nil, errors.New("usecase: responder must not be nil")
	}
	if opts.Scheduler == nil {
		opts.Scheduler = NewTimerScheduler()
	}
	if opts.Choose == nil {
		opts.Choose = RandomChooser
	}
	if opts.Delay == nil {
		opts.Delay = FixedDelay(defaultReplyDelay)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	id := newUUID()
	return &Conversation{
		id:        id,
		user:      user,
		scheduler: opts.Scheduler,
		delay:     *opts.Delay,
		choose:    opts.Choose,
		onReply:   opts.OnReply,
		logger:    opts.Logger.With("conversation_id", id),
		intake:    NewIntake(r, opts.AbsorbGreetings),
	}, nil
}

func (c *Conversation) ID() string { return c.id }

// Submit appends text as a user message and schedules the bot reply.
// Blank text is ignored.
func (c *Conversation) Submit(text string) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return newError(ErrorClosed, "conversation_closed", nil)
	}
	if c.pending != nil {
		return newError(ErrorReplyPending, "reply_pending", nil)
	}

	c.transcript = append(c.transcript, domain.Message{Sender: domain.SenderUser, Text: text})
	c.typing = true

	gen := c.generation
	delay := c.delay.Next(c.choose)
	c.pending = c.scheduler.AfterFunc(delay, func() { c.deliver(gen, text) })
	c.logger.Debug("reply scheduled", "delay", delay, "step", c.intake.Step())
	return nil
}

func (c *Conversation) deliver(gen uint64, text string) {
	c.mu.Lock()
	if c.closed || gen != c.generation {
		c.mu.Unlock()
		c.logger.Debug("stale reply dropped")
		return
	}
	reply := c.intake.Advance(c.user, text)
	msg := domain.Message{Sender: domain.SenderBot, Text: reply}
	c.transcript = append(c.transcript, msg)
	c.typing = false
	c.pending = nil
	step := c.intake.Step()
	listener := c.onReply
	c.mu.Unlock()

	c.logger.Debug("reply delivered", "step", step)
	if listener != nil {
		listener(msg)
	}
}

// Reset cancels any pending reply and clears the transcript and intake
// session. The conversation stays usable.
func (c *Conversation) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked()
}

// Close resets the conversation and rejects further submissions.
func (c *Conversation) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked()
	c.closed = true
}

func (c *Conversation) resetLocked() {
	if c.pending != nil {
		if c.pending.Stop() {
			c.logger.Debug("pending reply cancelled")
		}
		c.pending = nil
	}
	c.generation++
	c.transcript = nil
	c.typing = false
	c.intake.Reset()
}

// Transcript returns a copy of the messages so far.
func (c *Conversation) Transcript() []domain.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.Message, len(c.transcript))
	copy(out, c.transcript)
	return out
}

func (c *Conversation) Typing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.typing
}

func (c *Conversation) Step() domain.IntakeStep {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.intake.Step()
}

func (c *Conversation) IntakeData() domain.IntakeData {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.intake.Data()
}

func (c *Conversation) PendingSymptom() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.intake.Pending()
}

var newUUID = func() string {
	return uuid.NewString()
}
