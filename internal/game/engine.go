package game

import "fmt"

// Engine holds the policy table and implements the turn-rotation and scoring
// state machine. Every operation is a pure function from one GameState
// snapshot to the next: no I/O, no hidden mutation, no blocking.
type Engine struct {
	rules Rules
}

func NewEngine(rules Rules) Engine {
	return Engine{rules: rules}
}

func (e Engine) Rules() Rules { return e.rules }

// InitializeGame builds the opening snapshot: question zero, scores reset,
// mic handed to the addressed player of the first question.
func (e Engine) InitializeGame(players []Player, questions []Question) GameState {
	state := GameState{
		Status:               StatusInProgress,
		Players:              make([]Player, len(players)),
		Questions:            questions,
		CurrentQuestionIndex: 0,
		AttemptCount:         0,
		MicState:             MicActive,
		TimerSeconds:         e.rules.AddressedTimerSeconds,
		LastAnswerPlayer:     NoActivePlayer,
	}
	for i, p := range players {
		p.Score = 0
		p.BonusAttempts = 0
		state.Players[i] = p
	}

	addressed, warning := addressedPlayerFor(questions[0], len(players), 0)
	if warning != "" {
		state.Warnings = append(state.Warnings, warning)
	}
	state.AddressedPlayerIndex = addressed
	state.CurrentPlayerIndex = addressed
	state.ActiveMicPlayerIndex = addressed
	return state
}

// CalculateScore returns the points for a verdict. Anything but a correct
// answer is worth nothing.
func (e Engine) CalculateScore(result AnswerResult, isAddressed bool) int {
	if result != ResultCorrect {
		return 0
	}
	if isAddressed {
		return e.rules.PointsCorrectAddressed
	}
	return e.rules.PointsCorrectBonus
}

// NextPlayerIndex picks who answers next. Attempt zero always targets the
// addressed player; later attempts advance circularly, skipping the
// addressed player who already had first right of reply. The iteration cap
// guarantees termination even under corrupted state.
func (e Engine) NextPlayerIndex(current, addressed, totalPlayers, attemptCount int) int {
	if attemptCount == 0 {
		return addressed
	}
	if attemptCount >= totalPlayers {
		return current
	}

	next := (current + 1) % totalPlayers
	for iterations := 0; next == addressed && iterations < totalPlayers; iterations++ {
		next = (next + 1) % totalPlayers
	}
	if next == addressed {
		return current
	}
	return next
}

// ShouldEndQuestion reports whether every player has had their attempt.
func (e Engine) ShouldEndQuestion(attemptCount, totalPlayers int) bool {
	return attemptCount >= totalPlayers
}

// TimerDuration gives the addressed player the long window and everyone
// else the short steal window.
func (e Engine) TimerDuration(isAddressed bool) int {
	if isAddressed {
		return e.rules.AddressedTimerSeconds
	}
	return e.rules.BonusTimerSeconds
}

// ProcessAnswer applies one verdict for the current player. A correct answer
// always ends the question immediately. Anything else burns an attempt
// (unless the pass policy says otherwise) and either hands the mic onward or
// opens the overrule window once everyone has had a try.
func (e Engine) ProcessAnswer(state GameState, spokenAnswer string, result AnswerResult) GameState {
	next := cloneState(state)
	isAddressed := state.CurrentPlayerIndex == state.AddressedPlayerIndex

	next.LastAnswer = spokenAnswer
	next.LastAnswerResult = result
	next.LastAnswerPlayer = state.CurrentPlayerIndex

	if result == ResultCorrect {
		next.Players[state.CurrentPlayerIndex].Score += e.CalculateScore(result, isAddressed)
		next.ShowAnswer = false
		next.MicState = MicDisabled
		next.ActiveMicPlayerIndex = NoActivePlayer
		return next
	}

	if result == ResultPassed && !e.rules.PassConsumesAttempt {
		// Lenient pass policy: the same player keeps the slot and the
		// timer is re-armed.
		next.MicState = MicActive
		next.ActiveMicPlayerIndex = state.CurrentPlayerIndex
		next.TimerSeconds = e.TimerDuration(isAddressed)
		return next
	}

	if !isAddressed {
		next.Players[state.CurrentPlayerIndex].BonusAttempts++
	}

	next.AttemptCount = state.AttemptCount + 1
	if e.ShouldEndQuestion(next.AttemptCount, len(state.Players)) {
		next.ShowAnswer = true
		next.MicState = MicOverruleWindow
		next.ActiveMicPlayerIndex = NoActivePlayer
		next.TimerSeconds = e.rules.OverruleWindowSeconds
		return next
	}

	nextPlayer := e.NextPlayerIndex(state.CurrentPlayerIndex, state.AddressedPlayerIndex, len(state.Players), next.AttemptCount)
	next.CurrentPlayerIndex = nextPlayer
	next.ActiveMicPlayerIndex = nextPlayer
	next.MicState = MicActive
	next.TimerSeconds = e.TimerDuration(nextPlayer == state.AddressedPlayerIndex)
	return next
}

// MoveToNextQuestion advances the session. Past the last question the game
// is completed, which is terminal. Otherwise per-question transients reset
// and the mic goes to the new question's addressed player.
func (e Engine) MoveToNextQuestion(state GameState) GameState {
	next := cloneState(state)
	nextIndex := state.CurrentQuestionIndex + 1

	if nextIndex >= len(state.Questions) {
		next.Status = StatusCompleted
		next.MicState = MicDisabled
		next.ActiveMicPlayerIndex = NoActivePlayer
		next.ShowAnswer = false
		next.OverruleInProgress = false
		return next
	}

	addressed, warning := addressedPlayerFor(state.Questions[nextIndex], len(state.Players), nextIndex)
	if warning != "" {
		next.Warnings = append(next.Warnings, warning)
	}

	next.CurrentQuestionIndex = nextIndex
	next.CurrentPlayerIndex = addressed
	next.AddressedPlayerIndex = addressed
	next.AttemptCount = 0
	next.ActiveMicPlayerIndex = addressed
	next.MicState = MicActive
	next.TimerSeconds = e.rules.AddressedTimerSeconds
	next.ShowAnswer = false
	next.OverruleInProgress = false
	return next
}

// HandleOverrule resolves a post-reveal challenge against the last scored
// answer. A "correct" claim retroactively awards the question's points; an
// "incorrect" claim deducts one point, never going below zero. The overrule
// closes the window but does not advance the question.
func (e Engine) HandleOverrule(state GameState, challengerIndex int, claim OverruleClaim) GameState {
	next := cloneState(state)
	target := state.LastAnswerPlayer
	if target == NoActivePlayer {
		target = state.CurrentPlayerIndex
	}

	if claim == ClaimCorrect {
		isAddressed := target == state.AddressedPlayerIndex
		next.Players[target].Score += e.CalculateScore(ResultCorrect, isAddressed)
	} else {
		if next.Players[target].Score > 0 {
			next.Players[target].Score--
		}
	}

	next.OverruleInProgress = false
	next.MicState = MicDisabled
	next.ActiveMicPlayerIndex = NoActivePlayer
	return next
}

// addressedPlayerFor resolves a question's 1-based player number to a slice
// index. Out-of-range numbers are quiz data defects, not crashes: the first
// player is addressed instead and a warning is returned for the UI.
func addressedPlayerFor(q Question, totalPlayers, questionIndex int) (int, string) {
	if q.PlayerNumber >= 1 && q.PlayerNumber <= totalPlayers {
		return q.PlayerNumber - 1, ""
	}
	warning := fmt.Sprintf(
		"invalid player number %d for question %d: valid range is 1-%d, defaulting to player 1",
		q.PlayerNumber, questionIndex+1, totalPlayers,
	)
	return 0, warning
}

// cloneState copies the snapshot, including the slices mutated by
// transitions. Questions are immutable and shared across snapshots.
func cloneState(s GameState) GameState {
	next := s
	next.Players = make([]Player, len(s.Players))
	copy(next.Players, s.Players)
	if len(s.Warnings) > 0 {
		next.Warnings = make([]string, len(s.Warnings))
		copy(next.Warnings, s.Warnings)
	}
	return next
}
