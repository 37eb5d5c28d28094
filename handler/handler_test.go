package handler

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"herbalbot/internal/domain"
	"herbalbot/internal/repository"
	"herbalbot/internal/usecase"
)

type stubApp struct {
	page     domain.Page
	err      error
	sent     []string
	loggedIn bool
	calls    []string
}

func (s *stubApp) Signup(username, email, password, confirm string) error {
	s.calls = append(s.calls, "signup:"+username+":"+email+":"+password+":"+confirm)
	return s.err
}

func (s *stubApp) Login(username, password string) error {
	s.calls = append(s.calls, "login:"+username+":"+password)
	return s.err
}

func (s *stubApp) Logout() {
	s.calls = append(s.calls, "logout")
	s.page = domain.PageLogin
}

func (s *stubApp) ClearChat() error {
	s.calls = append(s.calls, "clear")
	return s.err
}

func (s *stubApp) Navigate(page domain.Page) error {
	s.calls = append(s.calls, "navigate:"+string(page))
	if s.err != nil {
		return s.err
	}
	s.page = page
	return nil
}

func (s *stubApp) SendMessage(text string) error {
	s.sent = append(s.sent, text)
	return s.err
}

func (s *stubApp) Page() domain.Page { return s.page }

func (s *stubApp) Dashboard() (usecase.Dashboard, error) {
	return usecase.Dashboard{
		Profile:   domain.Profile{Username: "ada", Email: "ada@example.com"},
		Symptoms:  []string{"Fever", "Cough"},
		HerbCount: 12,
	}, nil
}

func newRealHandler(t *testing.T) (*Handler, *usecase.App) {
	t.Helper()
	herbs, err := repository.EmbeddedSource{}.LoadHerbs(context.Background())
	require.NoError(t, err)
	responder, err := usecase.NewResponder(herbs, usecase.FirstChooser)
	require.NoError(t, err)

	replies := make(chan domain.Message, 4)
	app, err := usecase.NewApp(responder, usecase.AppOptions{
		Conversation: usecase.ConversationOptions{
			Delay:   usecase.FixedDelay(time.Millisecond),
			Choose:  usecase.FirstChooser,
			OnReply: func(m domain.Message) { replies <- m },
		},
	})
	require.NoError(t, err)
	h, err := NewHandler(app, replies)
	require.NoError(t, err)
	return h, app
}

func TestNewHandler_ValidatesDependencies(t *testing.T) {
	_, err := NewHandler(nil, make(chan domain.Message))
	require.Error(t, err)
	_, err = NewHandler(&stubApp{}, nil)
	require.Error(t, err)
}

func TestHandle_Commands(t *testing.T) {
	app := &stubApp{page: domain.PageWelcome}
	h, err := NewHandler(app, make(chan domain.Message))
	require.NoError(t, err)

	var out bytes.Buffer
	ctx := context.Background()
	require.NoError(t, h.Handle(ctx, "/signup ada ada@herbs.test pw pw", &out))
	require.NoError(t, h.Handle(ctx, "/login admin admin123", &out))
	require.NoError(t, h.Handle(ctx, " /CHAT ", &out))
	require.NoError(t, h.Handle(ctx, "/dashboard", &out))
	require.NoError(t, h.Handle(ctx, "/welcome", &out))
	require.NoError(t, h.Handle(ctx, "/clear", &out))
	require.NoError(t, h.Handle(ctx, "/logout", &out))
	require.Equal(t, []string{
		"signup:ada:ada@herbs.test:pw:pw",
		"login:admin:admin123",
		"navigate:chat",
		"navigate:dashboard",
		"navigate:welcome",
		"clear",
		"logout",
	}, app.calls)
	require.Contains(t, out.String(), "Welcome back, ada 👋")
	require.Contains(t, out.String(), "Login to HerbalBot")

	require.ErrorIs(t, h.Handle(ctx, "/quit", &out), ErrQuit)
}

func TestHandle_CommandUsage(t *testing.T) {
	app := &stubApp{page: domain.PageWelcome}
	h, err := NewHandler(app, make(chan domain.Message))
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, h.Handle(context.Background(), "/signup ada", &out))
	require.NoError(t, h.Handle(context.Background(), "/login", &out))
	require.NoError(t, h.Handle(context.Background(), "/teleport", &out))
	require.NoError(t, h.Handle(context.Background(), "/help", &out))
	require.Empty(t, app.calls)
	require.Contains(t, out.String(), "Usage: /signup")
	require.Contains(t, out.String(), "Usage: /login")
	require.Contains(t, out.String(), "Unknown command /teleport")
	require.Contains(t, out.String(), "/logout")
}

func TestHandle_TextOutsideChat(t *testing.T) {
	app := &stubApp{page: domain.PageDashboard}
	h, err := NewHandler(app, make(chan domain.Message))
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, h.Handle(context.Background(), "fever", &out))
	require.NoError(t, h.Handle(context.Background(), "   ", &out))
	require.Empty(t, app.sent)
	require.Contains(t, out.String(), "/help")
}

func TestHandle_MapsUseCaseErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{name: "mismatch", err: &usecase.Error{Code: usecase.ErrorInvalidInput, Reason: "password_mismatch"}, want: "Passwords do not match!"},
		{name: "missing", err: &usecase.Error{Code: usecase.ErrorInvalidInput, Reason: "missing_fields"}, want: "Please fill in every field."},
		{name: "auth", err: &usecase.Error{Code: usecase.ErrorUnauthenticated, Reason: "login_required"}, want: "Please /login or /signup first."},
		{name: "not in chat", err: &usecase.Error{Code: usecase.ErrorInvalidTransition, Reason: "not_in_chat"}, want: "Open the chat with /chat"},
		{name: "unknown page", err: &usecase.Error{Code: usecase.ErrorInvalidTransition, Reason: "unknown_page"}, want: "That page does not exist."},
		{name: "pending", err: &usecase.Error{Code: usecase.ErrorReplyPending, Reason: "reply_pending"}, want: "Please wait for the bot to reply."},
		{name: "closed", err: &usecase.Error{Code: usecase.ErrorClosed, Reason: "conversation_closed"}, want: "This chat has ended."},
		{name: "unexpected", err: errors.New("boom"), want: "Something went wrong."},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := &stubApp{page: domain.PageChat, err: tc.err}
			h, err := NewHandler(app, make(chan domain.Message))
			require.NoError(t, err)

			var out bytes.Buffer
			require.NoError(t, h.Handle(context.Background(), "fever", &out))
			require.Contains(t, out.String(), tc.want)
			require.NotContains(t, out.String(), "Typing...")
		})
	}
}

func TestHandle_ReplyTimeoutThenDrain(t *testing.T) {
	app := &stubApp{page: domain.PageChat}
	replies := make(chan domain.Message, 1)
	h, err := NewHandler(app, replies)
	require.NoError(t, err)
	h.replyTimeout = time.Millisecond

	var out bytes.Buffer
	require.NoError(t, h.Handle(context.Background(), "fever", &out))
	require.Contains(t, out.String(), "taking longer than usual")

	replies <- domain.Message{Sender: domain.SenderBot, Text: "late reply"}
	out.Reset()
	h.replyTimeout = time.Millisecond
	require.NoError(t, h.Handle(context.Background(), "male", &out))
	require.True(t, strings.HasPrefix(out.String(), "🤖 late reply\n"))
}

func TestHandle_ContextCancelledWhileWaiting(t *testing.T) {
	app := &stubApp{page: domain.PageChat}
	h, err := NewHandler(app, make(chan domain.Message))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var out bytes.Buffer
	require.ErrorIs(t, h.Handle(ctx, "fever", &out), context.Canceled)
}

func TestRun_EndToEndIntake(t *testing.T) {
	h, app := newRealHandler(t)

	input := strings.Join([]string{
		"hello",
		"/chat",
		"/login Ada secret",
		"/chat",
		"I have a headache",
		"male",
		"30",
		"2 days",
		"left side",
		"/quit",
		"never read",
	}, "\n")
	var out bytes.Buffer
	require.NoError(t, h.Run(context.Background(), strings.NewReader(input), &out))

	text := out.String()
	require.Contains(t, text, "Welcome to HerbalBot")
	require.Contains(t, text, "Please /login or /signup first.")
	require.Contains(t, text, "HerbalBot Dashboard")
	require.Contains(t, text, "Total Herbs: 12")
	require.Contains(t, text, "please tell me your **gender**")
	require.Contains(t, text, "How old are you?")
	require.Contains(t, text, "Gender: male")
	require.Contains(t, text, "Age: 30")
	require.Contains(t, text, "Duration: 2 days")
	require.Contains(t, text, "Location: left side")
	require.Contains(t, text, "Scientific Name: Cymbopogon citratus")
	require.Contains(t, text, "Scientific Name: Mentha piperita")

	require.Len(t, app.Transcript(), 10)
	require.Equal(t, domain.StepDone, app.Conversation().Step())
}

func TestRun_LogoutClearsTranscript(t *testing.T) {
	h, app := newRealHandler(t)

	input := "/signup ada ada@herbs.test pw pw\n/chat\ncough\n/logout\n"
	var out bytes.Buffer
	require.NoError(t, h.Run(context.Background(), strings.NewReader(input), &out))

	require.Equal(t, domain.PageLogin, app.Page())
	require.Empty(t, app.Transcript())
	require.Contains(t, out.String(), "Login to HerbalBot")
}

func TestHandle_DiscardsRepliesFromEndedSession(t *testing.T) {
	for _, cmd := range []string{"/logout", "/login ada pw", "/signup ada ada@herbs.test pw pw", "/clear"} {
		t.Run(cmd, func(t *testing.T) {
			app := &stubApp{page: domain.PageChat}
			replies := make(chan domain.Message, 1)
			h, err := NewHandler(app, replies)
			require.NoError(t, err)
			h.replyTimeout = time.Millisecond

			replies <- domain.Message{Sender: domain.SenderBot, Text: "old session reply"}
			var out bytes.Buffer
			require.NoError(t, h.Handle(context.Background(), cmd, &out))

			app.page = domain.PageChat
			require.NoError(t, h.Handle(context.Background(), "fever", &out))
			require.NotContains(t, out.String(), "old session reply")
		})
	}
}

func TestHandle_CancelledContextSkipsCommands(t *testing.T) {
	app := &stubApp{page: domain.PageWelcome}
	h, err := NewHandler(app, make(chan domain.Message))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var out bytes.Buffer
	require.ErrorIs(t, h.Handle(ctx, "/login ada pw", &out), context.Canceled)
	require.Empty(t, app.calls)
}

func TestRun_ReturnsOnCancelWhileReading(t *testing.T) {
	app := &stubApp{page: domain.PageWelcome}
	h, err := NewHandler(app, make(chan domain.Message))
	require.NoError(t, err)

	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- h.Run(ctx, pr, io.Discard) }()

	cancel()
	select {
	case err := <-errc:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}

func TestRun_CancelledContextIgnoresBufferedInput(t *testing.T) {
	app := &stubApp{page: domain.PageWelcome}
	h, err := NewHandler(app, make(chan domain.Message))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var out bytes.Buffer
	err = h.Run(ctx, strings.NewReader("/login ada pw\n/chat\n"), &out)
	require.ErrorIs(t, err, context.Canceled)
	require.Empty(t, app.calls)
}
