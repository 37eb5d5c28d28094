package usecase

import (
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"herbalbot/internal/domain"
)

// DashboardSymptoms is the symptom list offered on the dashboard.
var DashboardSymptoms = []string{
	"Fever", "Cough", "Headache", "Body Ache", "Fatigue",
	"Malaria", "Cold", "Stomach Pain", "Nausea", "Diarrhea",
	"High Blood Pressure", "Insomnia", "Stress", "Anxiety",
	"Respiratory Issues", "Skin Infection", "Inflammation",
	"Joint Pain", "Weak Immune System", "Poor Digestion",
	"Constipation", "Low Energy", "Infection", "Allergy",
	"Chest Pain", "Muscle Pain", "Dizziness", "Menstrual Pain",
	"Indigestion", "Ulcers",
}

type AppOptions struct {
	Conversation ConversationOptions
	Now          func() time.Time
	Logger       *slog.Logger
}

type Dashboard struct {
	Profile   domain.Profile
	Symptoms  []string
	HerbCount int
}

// App is the whole application state. It changes only through Signup,
// Login, Logout, Navigate, SendMessage and ClearChat.
type App struct {
	responder *Responder
	convOpts  ConversationOptions
	now       func() time.Time
	logger    *slog.Logger

	mu           sync.Mutex
	page         domain.Page
	profile      *domain.Profile
	conversation *Conversation
}

func NewApp(r *Responder, opts AppOptions) (*App, error) {
	if r == nil {
		return nil, errors.New("usecase: responder must not be nil")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Conversation.Logger == nil {
		opts.Conversation.Logger = opts.Logger
	}
	return &App{
		responder: r,
		convOpts:  opts.Conversation,
		now:       opts.Now,
		logger:    opts.Logger,
		page:      domain.PageWelcome,
	}, nil
}

// Signup registers a mock user and signs them in. Nothing is stored.
func (a *App) Signup(username, email, password, confirm string) error {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" || strings.TrimSpace(password) == "" {
		return newError(ErrorInvalidInput, "missing_fields", nil)
	}
	if password != confirm {
		return newError(ErrorInvalidInput, "password_mismatch", nil)
	}
	return a.signIn(username, email)
}

// Login accepts any non-blank username and password pair.
func (a *App) Login(username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" || strings.TrimSpace(password) == "" {
		return newError(ErrorInvalidInput, "missing_credentials", nil)
	}
	return a.signIn(username, username+"@example.com")
}

func (a *App) signIn(username, email string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	conv, err := NewConversation(a.responder, username, a.convOpts)
	if err != nil {
		return err
	}
	if a.conversation != nil {
		a.conversation.Close()
	}
	a.conversation = conv
	a.profile = &domain.Profile{Username: username, Email: email, LoginTime: a.now()}
	a.page = domain.PageDashboard
	a.logger.Info("user signed in", "user", username, "conversation_id", conv.ID())
	return nil
}

// Logout clears the profile and transcript, cancels any pending reply and
// returns to the login page.
func (a *App) Logout() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.conversation != nil {
		a.conversation.Close()
		a.conversation = nil
	}
	if a.profile != nil {
		a.logger.Info("user signed out", "user", a.profile.Username)
	}
	a.profile = nil
	a.page = domain.PageLogin
}

// ClearChat empties the transcript and restarts the intake, keeping the
// user signed in. A pending reply is cancelled.
func (a *App) ClearChat() error {
	conv := a.Conversation()
	if conv == nil {
		return newError(ErrorUnauthenticated, "login_required", nil)
	}
	conv.Reset()
	a.logger.Debug("chat cleared", "conversation_id", conv.ID())
	return nil
}

func (a *App) Navigate(page domain.Page) error {
	if !page.Valid() {
		return newError(ErrorInvalidTransition, "unknown_page", nil)
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	if (page == domain.PageDashboard || page == domain.PageChat) && a.profile == nil {
		return newError(ErrorUnauthenticated, "login_required", nil)
	}
	a.page = page
	return nil
}

// SendMessage submits text to the conversation. Only valid on the chat page.
func (a *App) SendMessage(text string) error {
	a.mu.Lock()
	conv := a.conversation
	onChat := a.page == domain.PageChat
	a.mu.Unlock()

	if conv == nil {
		return newError(ErrorUnauthenticated, "login_required", nil)
	}
	if !onChat {
		return newError(ErrorInvalidTransition, "not_in_chat", nil)
	}
	return conv.Submit(text)
}

func (a *App) Page() domain.Page {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.page
}

func (a *App) Profile() (domain.Profile, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.profile == nil {
		return domain.Profile{}, false
	}
	return *a.profile, true
}

// Conversation returns the active conversation, or nil when signed out.
func (a *App) Conversation() *Conversation {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.conversation
}

// Transcript returns the active transcript, empty when signed out.
func (a *App) Transcript() []domain.Message {
	conv := a.Conversation()
	if conv == nil {
		return nil
	}
	return conv.Transcript()
}

func (a *App) Dashboard() (Dashboard, error) {
	p, ok := a.Profile()
	if !ok {
		return Dashboard{}, newError(ErrorUnauthenticated, "login_required", nil)
	}
	symptoms := make([]string, len(DashboardSymptoms))
	copy(symptoms, DashboardSymptoms)
	return Dashboard{Profile: p, Symptoms: symptoms, HerbCount: a.responder.HerbCount()}, nil
}
