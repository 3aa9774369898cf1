package trivia

import (
	"context"
	"errors"
	"testing"
)

// fakeHandler is a scriptable question source for manager and orchestrator
// tests.
type fakeHandler struct {
	round
	startMsg string
	startErr error
	starts   int
}

func (f *fakeHandler) Start(_ context.Context, force bool) (string, error) {
	if f.active && !force {
		return f.alreadyActiveMessage(), nil
	}
	if f.startErr != nil {
		return "", f.startErr
	}
	f.starts++
	if f.question == nil {
		f.question = &Question{Prompt: "Who?", Kind: KindOpenEnded, Answer: "Ymir"}
	}
	f.active = true
	return f.startMsg, nil
}

func (f *fakeHandler) CheckAnswer(_ context.Context, answer, username string) (bool, string, error) {
	if !f.active || f.question == nil {
		return false, noActiveTrivia, nil
	}
	ok, msg := f.resolve(matches(f.question, answer), username)
	return ok, msg, nil
}

func (f *fakeHandler) End() string  { return f.end() }
func (f *fakeHandler) Help() string { return "fake help" }

func TestManager_LifeCycle(t *testing.T) {
	m := NewManager()
	if m.Active() {
		t.Fatal("new manager must be idle")
	}
	if got := m.End(); got != "❌ No active trivia session to end." {
		t.Errorf("End while idle = %q", got)
	}
	_, msg, err := m.SubmitAnswer(context.Background(), "Ymir", "viewer")
	if err != nil || msg != "❌ No active trivia to answer." {
		t.Errorf("SubmitAnswer while idle = %q, err=%v", msg, err)
	}

	h := &fakeHandler{startMsg: "question up"}
	msg, err = m.StartWith(context.Background(), h, false)
	if err != nil || msg != "question up" {
		t.Fatalf("StartWith = %q, err=%v", msg, err)
	}
	if !m.Active() {
		t.Fatal("manager must be active")
	}

	correct, _, err := m.SubmitAnswer(context.Background(), "ymir", "viewer")
	if err != nil || !correct {
		t.Fatalf("correct=%v err=%v", correct, err)
	}
	if m.Active() {
		t.Error("first correct answer must end the round")
	}
	if !m.ShouldAskNext() {
		t.Error("ShouldAskNext must report the correct resolution")
	}

	// Late answers after the win see an idle session.
	_, msg, _ = m.SubmitAnswer(context.Background(), "ymir", "slowpoke")
	if msg != "❌ No active trivia to answer." {
		t.Errorf("late answer = %q", msg)
	}
}

func TestManager_NonForcedStartWhileActive(t *testing.T) {
	m := NewManager()
	h := &fakeHandler{startMsg: "first"}
	if _, err := m.StartWith(context.Background(), h, false); err != nil {
		t.Fatalf("StartWith: %v", err)
	}

	other := &fakeHandler{startMsg: "second"}
	msg, err := m.StartWith(context.Background(), other, false)
	if err != nil {
		t.Fatalf("second StartWith: %v", err)
	}
	if msg != "⚠️ Trivia already active: Who?" {
		t.Errorf("conflict message = %q", msg)
	}
	if other.starts != 0 {
		t.Error("conflicting start must not touch the new handler")
	}
	if h.starts != 1 {
		t.Error("active handler must be unchanged")
	}
}

func TestManager_StartErrorLeavesStateUnchanged(t *testing.T) {
	m := NewManager()
	h := &fakeHandler{startErr: errors.New("provider down")}
	if _, err := m.StartWith(context.Background(), h, false); err == nil {
		t.Fatal("expected error")
	}
	if m.Active() {
		t.Error("failed start must not activate the session")
	}
	if m.ShouldAskNext() {
		t.Error("failed start must not trigger auto progression")
	}
}

func TestManager_GiveUpResetsAskNext(t *testing.T) {
	m := NewManager()
	h := &fakeHandler{startMsg: "up"}
	if _, err := m.StartWith(context.Background(), h, false); err != nil {
		t.Fatalf("StartWith: %v", err)
	}
	if got := m.End(); got != "Trivia ended! The correct answer was: Ymir" {
		t.Errorf("End = %q", got)
	}
	if m.ShouldAskNext() {
		t.Error("a forced end is not a correct resolution")
	}
}

func TestManager_Status(t *testing.T) {
	m := NewManager()
	if got := m.Status(); got != "📭 No trivia currently running." {
		t.Errorf("idle Status = %q", got)
	}
	if _, err := m.StartWith(context.Background(), &fakeHandler{startMsg: "up"}, false); err != nil {
		t.Fatalf("StartWith: %v", err)
	}
	if got := m.Status(); got != "📢 Trivia Active: Who?" {
		t.Errorf("active Status = %q", got)
	}
}
