package handler

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"herbalbot/internal/domain"
	"herbalbot/internal/usecase"
)

const (
	defaultReplyTimeout = 10 * time.Second
	prompt              = "> "
)

// ErrQuit is returned by Handle when the user asks to leave.
var ErrQuit = errors.New("handler: quit")

type ChatApp interface {
	Signup(username, email, password, confirm string) error
	Login(username, password string) error
	Logout()
	ClearChat() error
	Navigate(page domain.Page) error
	SendMessage(text string) error
	Page() domain.Page
	Dashboard() (usecase.Dashboard, error)
}

// Handler is the terminal front end. Slash commands drive page transitions;
// any other line on the chat page is a chat message.
type Handler struct {
	app          ChatApp
	replies      <-chan domain.Message
	replyTimeout time.Duration
}

func NewHandler(app ChatApp, replies <-chan domain.Message) (*Handler, error) {
	if app == nil {
		return nil, errors.New("handler: app must not be nil")
	}
	if replies == nil {
		return nil, errors.New("handler: reply channel must not be nil")
	}
	return &Handler{app: app, replies: replies, replyTimeout: defaultReplyTimeout}, nil
}

// Run reads lines from in until EOF, /quit or ctx cancellation. A read
// blocked on in does not delay cancellation.
func (h *Handler) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	done := make(chan struct{})
	defer close(done)
	lines, readErr := readLines(in, done)

	h.renderPage(out)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprint(out, prompt)
		select {
		case <-ctx.Done():
			fmt.Fprintln(out)
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				fmt.Fprintln(out)
				return <-readErr
			}
			if err := h.Handle(ctx, line, out); err != nil {
				if errors.Is(err, ErrQuit) {
					return nil
				}
				return err
			}
		}
	}
}

// readLines scans in on its own goroutine. The goroutine exits at EOF or once
// done is closed and it has a line to hand over.
func readLines(in io.Reader, done <-chan struct{}) (<-chan string, <-chan error) {
	lines := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-done:
				errc <- nil
				return
			}
		}
		errc <- scanner.Err()
	}()
	return lines, errc
}

// Handle processes one input line. Only ErrQuit and context errors are returned;
// rejected actions are reported to out.
func (h *Handler) Handle(ctx context.Context, line string, out io.Writer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	trimmed := strings.TrimSpace(line)
	if strings.HasPrefix(trimmed, "/") {
		return h.command(out, strings.Fields(trimmed))
	}
	if trimmed == "" {
		return nil
	}
	if h.app.Page() != domain.PageChat {
		fmt.Fprintln(out, "Type /help to see what you can do here.")
		return nil
	}

	h.drainReplies(out)
	if err := h.app.SendMessage(line); err != nil {
		fmt.Fprintln(out, userMessage(err))
		return nil
	}
	fmt.Fprintln(out, "Typing...")
	return h.awaitReply(ctx, out)
}

func (h *Handler) awaitReply(ctx context.Context, out io.Writer) error {
	timer := time.NewTimer(h.replyTimeout)
	defer timer.Stop()
	select {
	case msg := <-h.replies:
		fmt.Fprintf(out, "🤖 %s\n", msg.Text)
		return nil
	case <-timer.C:
		fmt.Fprintln(out, "The bot is taking longer than usual. Its reply will appear with your next message.")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// drainReplies prints replies that arrived after an earlier wait timed out.
func (h *Handler) drainReplies(out io.Writer) {
	for {
		select {
		case msg := <-h.replies:
			fmt.Fprintf(out, "🤖 %s\n", msg.Text)
		default:
			return
		}
	}
}

// discardReplies drops queued replies from a conversation that was just
// cleared or replaced.
func (h *Handler) discardReplies() {
	for {
		select {
		case <-h.replies:
		default:
			return
		}
	}
}

func (h *Handler) command(out io.Writer, args []string) error {
	var err error
	switch strings.ToLower(args[0]) {
	case "/quit", "/exit":
		return ErrQuit
	case "/help":
		fmt.Fprint(out, helpText)
		return nil
	case "/welcome":
		err = h.app.Navigate(domain.PageWelcome)
	case "/signup":
		if len(args) != 5 {
			fmt.Fprintln(out, "Usage: /signup <username> <email> <password> <confirm-password>")
			return nil
		}
		err = h.app.Signup(args[1], args[2], args[3], args[4])
	case "/login":
		if len(args) != 3 {
			fmt.Fprintln(out, "Usage: /login <username> <password>")
			return nil
		}
		err = h.app.Login(args[1], args[2])
	case "/dashboard":
		err = h.app.Navigate(domain.PageDashboard)
	case "/chat":
		err = h.app.Navigate(domain.PageChat)
	case "/clear":
		err = h.app.ClearChat()
	case "/logout":
		h.app.Logout()
	default:
		fmt.Fprintf(out, "Unknown command %s. Type /help for the list.\n", args[0])
		return nil
	}
	if err != nil {
		fmt.Fprintln(out, userMessage(err))
		return nil
	}
	switch strings.ToLower(args[0]) {
	case "/signup", "/login", "/clear", "/logout":
		h.discardReplies()
	}
	h.renderPage(out)
	return nil
}

func (h *Handler) renderPage(out io.Writer) {
	switch h.app.Page() {
	case domain.PageWelcome:
		fmt.Fprintln(out, "🌿 Welcome to HerbalBot!")
		fmt.Fprintln(out, "Discover natural herbal remedies for common symptoms. Use /signup to get started or /login if you have an account.")
	case domain.PageSignup:
		fmt.Fprintln(out, "Sign Up to HerbalBot: /signup <username> <email> <password> <confirm-password>")
	case domain.PageLogin:
		fmt.Fprintln(out, "Login to HerbalBot: /login <username> <password>  (Demo Admin: admin | password: admin123)")
	case domain.PageDashboard:
		d, err := h.app.Dashboard()
		if err != nil {
			fmt.Fprintln(out, userMessage(err))
			return
		}
		fmt.Fprint(out, renderDashboard(d))
	case domain.PageChat:
		fmt.Fprintln(out, "🌿 Herbal Chatbot. Describe a symptom to begin. /logout to leave.")
	}
}

func renderDashboard(d usecase.Dashboard) string {
	var b strings.Builder
	fmt.Fprintln(&b, "🌿 HerbalBot Dashboard")
	fmt.Fprintf(&b, "Welcome back, %s 👋\n", d.Profile.Username)
	fmt.Fprintf(&b, "Email: %s\n", d.Profile.Email)
	fmt.Fprintf(&b, "Signed in at: %s\n", d.Profile.LoginTime.Format(time.DateTime))
	fmt.Fprintf(&b, "🌱 Total Herbs: %d | 🩺 Symptoms: %d\n", d.HerbCount, len(d.Symptoms))
	fmt.Fprintf(&b, "Common symptoms: %s\n", strings.Join(d.Symptoms, ", "))
	fmt.Fprintln(&b, "Type /chat to get a herbal recommendation.")
	return b.String()
}

func userMessage(err error) string {
	var ue *usecase.Error
	if !errors.As(err, &ue) {
		return "Something went wrong. Please try again."
	}
	switch ue.Code {
	case usecase.ErrorInvalidInput:
		if ue.Reason == "password_mismatch" {
			return "Passwords do not match!"
		}
		return "Please fill in every field."
	case usecase.ErrorUnauthenticated:
		return "Please /login or /signup first."
	case usecase.ErrorInvalidTransition:
		if ue.Reason == "not_in_chat" {
			return "Open the chat with /chat before sending messages."
		}
		return "That page does not exist."
	case usecase.ErrorReplyPending:
		return "Please wait for the bot to reply."
	case usecase.ErrorClosed:
		return "This chat has ended. Please log in again."
	default:
		return "Something went wrong. Please try again."
	}
}

const helpText = `Commands:
  /welcome                                     show the welcome page
  /signup <user> <email> <password> <confirm>  create a demo account
  /login <user> <password>                     sign in
  /dashboard                                   show your dashboard
  /chat                                        open the herbal chatbot
  /clear                                       start the chat over
  /logout                                      sign out and clear the chat
  /quit                                        exit
`
