package usecase

import (
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"herbalbot/internal/domain"
)

// manualScheduler queues tasks until the test advances its clock.
type manualScheduler struct {
	mu    sync.Mutex
	now   time.Duration
	tasks []*manualTask
}

type manualTask struct {
	s       *manualScheduler
	at      time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (s *manualScheduler) AfterFunc(d time.Duration, f func()) Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &manualTask{s: s, at: s.now + d, f: f}
	s.tasks = append(s.tasks, t)
	return t
}

func (t *manualTask) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// Advance moves the clock forward and runs every due task in order.
func (s *manualScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	s.now += d
	var due []*manualTask
	for _, t := range s.tasks {
		if !t.stopped && !t.fired && t.at <= s.now {
			t.fired = true
			due = append(due, t)
		}
	}
	s.mu.Unlock()

	sort.SliceStable(due, func(i, j int) bool { return due[i].at < due[j].at })
	for _, t := range due {
		t.f()
	}
}

// FireAll runs every scheduled task, including stopped ones, to simulate a
// timer whose callback was already in flight when it was cancelled.
func (s *manualScheduler) FireAll() {
	s.mu.Lock()
	tasks := append([]*manualTask(nil), s.tasks...)
	s.mu.Unlock()
	for _, t := range tasks {
		t.f()
	}
}

func (s *manualScheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

func (s *manualScheduler) LastDelay() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.tasks) == 0 {
		return 0
	}
	return s.tasks[len(s.tasks)-1].at - s.now
}

func testHerbs() []domain.Herb {
	return []domain.Herb{
		{
			Name:      "Cymbopogon citratus",
			LocalName: "Lemongrass",
			Uses:      []string{"Fever", "Headache", "Stress"},
			Notes:     "Boil the leaves and drink as tea.",
		},
		{
			Name:      "Zingiber officinale",
			LocalName: "Ginger",
			Uses:      []string{"Nausea", "Cough", "Body Ache"},
			Notes:     "Chew raw or steep slices in hot water.",
		},
		{
			Name:      "Mentha piperita",
			LocalName: "Peppermint",
			Uses:      []string{"Headache", "Indigestion"},
			Notes:     "Rub diluted oil on the temples.",
		},
	}
}

func newTestResponder(t *testing.T) *Responder {
	t.Helper()
	r, err := NewResponder(testHerbs(), FirstChooser)
	require.NoError(t, err)
	return r
}
