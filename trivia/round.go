package trivia

import "fmt"

// round holds the state shared by all handler variants: the current question
// and whether it is live. Embedded by each handler.
type round struct {
	question *Question
	active   bool
}

func (r *round) Question() *Question { return r.question }
func (r *round) Active() bool        { return r.active }

// alreadyActiveMessage is the idempotent-on-conflict response for a non-forced
// start while a round is live.
func (r *round) alreadyActiveMessage() string {
	prompt := "unknown question"
	if r.question != nil {
		prompt = FormatPrompt(r.question)
	}
	return "⚠️ Trivia already active: " + prompt
}

// resolve applies the outcome of an answer check: a correct answer ends the
// round, a miss leaves it untouched.
func (r *round) resolve(correct bool, username string) (bool, string) {
	who := "You"
	if username != "" {
		who = "@" + username
	}
	if correct {
		answer := r.question.Answer
		r.active = false
		return true, fmt.Sprintf("🎉 %s got it correct! %s is the right answer!", who, answer)
	}
	return false, fmt.Sprintf("❌ %s - That's not correct. Try again!", who)
}

// end force-terminates the round and reveals the correct answer.
func (r *round) end() string {
	if !r.active || r.question == nil {
		return "❌ No active trivia to end."
	}
	answer := r.question.Answer
	r.active = false
	r.question = nil
	return "Trivia ended! The correct answer was: " + answer
}

const noActiveTrivia = "❌ No active trivia."
