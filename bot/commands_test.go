package bot

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/onnwee/trivia-tender/config"
	"github.com/onnwee/trivia-tender/stats"
	"github.com/onnwee/trivia-tender/testutil"
)

// fakeTransport records outbound messages in place of a live IRC connection.
type fakeTransport struct {
	mu     sync.Mutex
	said   []string
	joined []string
	onMsg  func(ChatEvent)
}

func (f *fakeTransport) Connect() error    { select {} }
func (f *fakeTransport) Disconnect() error { return nil }
func (f *fakeTransport) Join(channel string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.joined = append(f.joined, channel)
}
func (f *fakeTransport) Say(_, text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.said = append(f.said, text)
}
func (f *fakeTransport) OnMessage(fn func(ChatEvent)) { f.onMsg = fn }

func (f *fakeTransport) messages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.said))
	copy(out, f.said)
	return out
}

// newTestBot builds a bot without a database, backed by a stub question API
// that always serves the same open-ended question.
func newTestBot(t *testing.T) (*Bot, *channelState, *fakeTransport) {
	t.Helper()
	srv := testutil.MockQuestionAPI(t, `{
		"response_code": 0,
		"results": [{
			"category": "Geography",
			"type": "multiple",
			"question": "Capital of France?",
			"correct_answer": "Paris",
			"incorrect_answers": ["Rome", "Berlin", "Madrid"]
		}]
	}`)

	cfg := &config.Config{
		TwitchChannels:   []string{"testchan"},
		RateBurst:        18,
		RateWindow:       30 * time.Second,
		MaxMessageLen:    450,
		AutoAdvanceDelay: time.Millisecond,
		FuzzyMaxDistance: 1,
		OpenTDBURL:       srv.URL,
	}
	ft := &fakeTransport{}
	b := New(context.Background(), cfg, nil, ft)
	return b, b.channels["testchan"], ft
}

func event(text string) ChatEvent {
	return ChatEvent{Channel: "testchan", Username: "viewer", Text: text, ReceivedAt: time.Now()}
}

func TestBot_TriviaRoundEndToEnd(t *testing.T) {
	b, cs, ft := newTestBot(t)
	ctx := context.Background()

	b.handleEvent(ctx, cs, event("!trivia"))
	msgs := ft.messages()
	if len(msgs) != 2 {
		t.Fatalf("messages = %v, want ack then prompt", msgs)
	}
	if msgs[0] != "📚 Loading trivia question..." {
		t.Errorf("ack = %q", msgs[0])
	}
	if !cs.manager.Active() {
		t.Fatal("round must be live after the prompt")
	}

	b.handleEvent(ctx, cs, event("!answer Rome"))
	if got := ft.messages()[2]; got != "❌ @viewer - That's not correct. Try again!" {
		t.Errorf("miss = %q", got)
	}
	if !cs.manager.Active() {
		t.Error("round must survive a miss")
	}

	b.handleEvent(ctx, cs, event("!answer Paris"))
	if got := ft.messages()[3]; got != "🎉 @viewer got it correct! Paris is the right answer!" {
		t.Errorf("win = %q", got)
	}
	if cs.manager.Active() {
		t.Error("round must end on the correct answer")
	}

	// Second correct answer arrives after resolution.
	b.handleEvent(ctx, cs, event("!answer Paris"))
	if got := ft.messages()[4]; got != "❌ No active trivia to answer." {
		t.Errorf("late answer = %q", got)
	}
}

func TestBot_LetterShortcutAnswer(t *testing.T) {
	b, cs, ft := newTestBot(t)
	ctx := context.Background()

	b.handleEvent(ctx, cs, event("!trivia"))
	q := cs.manager.Question()
	if q == nil {
		t.Fatal("round must be live")
	}
	letter := ""
	for i, opt := range q.Options {
		if opt == "Paris" {
			letter = string(rune('a' + i))
		}
	}
	if letter == "" {
		t.Fatal("options must include the answer")
	}

	b.handleEvent(ctx, cs, event("!answer "+letter))
	msgs := ft.messages()
	if got := msgs[len(msgs)-1]; got != "🎉 @viewer got it correct! Paris is the right answer!" {
		t.Errorf("letter answer = %q", got)
	}
}

func TestBot_AutoModeChains(t *testing.T) {
	b, cs, ft := newTestBot(t)
	ctx := context.Background()

	b.handleEvent(ctx, cs, event("!trivia auto"))
	if auto, _ := cs.orch.AutoActive(); !auto {
		t.Fatal("auto mode must be on")
	}
	if !cs.manager.Active() {
		t.Fatal("first question must be live")
	}

	before := len(ft.messages())
	b.handleEvent(ctx, cs, event("!answer Paris"))
	if !cs.manager.Active() {
		t.Error("auto mode must chain the next question")
	}
	msgs := ft.messages()
	// win message plus the chained prompt
	if len(msgs) != before+2 {
		t.Errorf("messages after win = %v", msgs[before:])
	}

	b.handleEvent(ctx, cs, event("!end trivia"))
	if auto, _ := cs.orch.AutoActive(); auto {
		t.Error("auto mode must stop on !end trivia")
	}
	if cs.manager.Active() {
		t.Error("live round must end with auto mode")
	}
}

func TestBot_SmiteUnavailableWithoutDB(t *testing.T) {
	b, cs, ft := newTestBot(t)

	b.handleEvent(context.Background(), cs, event("!trivia smite"))
	msgs := ft.messages()
	if got := msgs[len(msgs)-1]; got != "❌ Smite trivia not available: database not initialized." {
		t.Errorf("smite = %q", got)
	}
}

func TestBot_StatsCommandsWithoutDB(t *testing.T) {
	b, cs, ft := newTestBot(t)
	ctx := context.Background()

	for _, cmd := range []string{"!stats", "!rank", "!leaderboard", "!top", "!streaks", "!summary"} {
		b.handleEvent(ctx, cs, event(cmd))
		msgs := ft.messages()
		if got := msgs[len(msgs)-1]; got != statsUnavailable {
			t.Errorf("%s = %q, want %q", cmd, got, statsUnavailable)
		}
	}
}

func TestBot_GiveUpRevealsAnswer(t *testing.T) {
	b, cs, ft := newTestBot(t)
	ctx := context.Background()

	b.handleEvent(ctx, cs, event("!giveup"))
	msgs := ft.messages()
	if got := msgs[len(msgs)-1]; got != "❌ No active trivia to end." {
		t.Errorf("idle giveup = %q", got)
	}

	b.handleEvent(ctx, cs, event("!trivia"))
	b.handleEvent(ctx, cs, event("!giveup"))
	msgs = ft.messages()
	if got := msgs[len(msgs)-1]; got != "Trivia ended! The correct answer was: Paris" {
		t.Errorf("giveup = %q", got)
	}
}

func TestBot_NonCommandIgnored(t *testing.T) {
	b, cs, ft := newTestBot(t)

	b.handleEvent(context.Background(), cs, event("just chatting"))
	if msgs := ft.messages(); len(msgs) != 0 {
		t.Errorf("plain chat must produce no response, got %v", msgs)
	}
}

func TestTargetUser(t *testing.T) {
	cases := []struct {
		message string
		want    string
	}{
		{"!stats", "sender"},
		{"!stats   ", "sender"},
		{"!stats SomeOne", "someone"},
		{"!stats @SomeOne", "someone"},
		{"!stats someone extra words", "someone"},
	}
	for _, tc := range cases {
		if got := targetUser(tc.message, "!stats", "Sender"); got != tc.want {
			t.Errorf("targetUser(%q) = %q, want %q", tc.message, got, tc.want)
		}
	}
}

func TestFormatStreaks(t *testing.T) {
	rows := []stats.BoardRow{
		{Username: "ymirfan", BestStreak: 7, CurrentStreak: 3},
		{Username: "casual", BestStreak: 4, CurrentStreak: 0},
	}
	got := formatStreaks(rows, "testchan")
	want := "🔥 TOP STREAKS - #testchan | 1. ymirfan: 7 (current: 3) | 2. casual: 4"
	if got != want {
		t.Errorf("formatStreaks = %q, want %q", got, want)
	}
}

func TestOrdinal(t *testing.T) {
	cases := map[int]string{
		1:  "1st 🥇",
		2:  "2nd 🥈",
		3:  "3rd 🥉",
		4:  "4th",
		11: "11th",
		12: "12th",
		13: "13th",
		21: "21st",
		22: "22nd",
		23: "23rd",
	}
	for n, want := range cases {
		if got := ordinal(n); got != want {
			t.Errorf("ordinal(%d) = %q, want %q", n, got, want)
		}
	}
}
