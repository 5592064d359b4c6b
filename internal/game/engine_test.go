package game

import (
	"strings"
	"testing"
)

func testPlayers(n int) []Player {
	players := make([]Player, n)
	names := []string{"Alice", "Bob", "Charlie", "Dana"}
	for i := range players {
		players[i] = Player{ID: i + 1, Name: names[i%len(names)]}
	}
	return players
}

func testQuestions(playerNumbers ...int) []Question {
	questions := make([]Question, len(playerNumbers))
	for i, pn := range playerNumbers {
		questions[i] = Question{
			ID:           int64(i + 1),
			RoundNumber:  1,
			PlayerNumber: pn,
			QuestionText: "What is the capital of France?",
			AnswerText:   "Paris",
			OrderIndex:   i,
		}
	}
	return questions
}

func assertInvariants(t *testing.T, state GameState) {
	t.Helper()
	if state.Status == StatusInProgress {
		if state.CurrentQuestionIndex < 0 || state.CurrentQuestionIndex >= len(state.Questions) {
			t.Fatalf("question index %d out of range", state.CurrentQuestionIndex)
		}
	}
	if state.CurrentPlayerIndex < 0 || state.CurrentPlayerIndex >= len(state.Players) {
		t.Fatalf("player index %d out of range", state.CurrentPlayerIndex)
	}
	if state.AttemptCount > len(state.Players) {
		t.Fatalf("attempt count %d exceeds player count %d", state.AttemptCount, len(state.Players))
	}
}

func TestInitializeGame(t *testing.T) {
	e := NewEngine(DefaultRules())
	state := e.InitializeGame(testPlayers(2), testQuestions(2, 1))

	if state.Status != StatusInProgress {
		t.Fatalf("expected status in_progress, got %s", state.Status)
	}
	if state.AddressedPlayerIndex != 1 {
		t.Fatalf("expected addressed player 1, got %d", state.AddressedPlayerIndex)
	}
	if state.CurrentPlayerIndex != 1 || state.ActiveMicPlayerIndex != 1 {
		t.Fatalf("mic should start with the addressed player")
	}
	if state.MicState != MicActive {
		t.Fatalf("expected mic active, got %s", state.MicState)
	}
	if state.TimerSeconds != 30 {
		t.Fatalf("expected 30s addressed timer, got %d", state.TimerSeconds)
	}
	for _, p := range state.Players {
		if p.Score != 0 || p.BonusAttempts != 0 {
			t.Fatalf("scores should reset at initialization")
		}
	}
	if len(state.Warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", state.Warnings)
	}
}

func TestInitializeGameBadPlayerNumber(t *testing.T) {
	e := NewEngine(DefaultRules())
	state := e.InitializeGame(testPlayers(2), testQuestions(7))

	if state.AddressedPlayerIndex != 0 {
		t.Fatalf("expected fallback to player 0, got %d", state.AddressedPlayerIndex)
	}
	if len(state.Warnings) != 1 {
		t.Fatalf("expected one warning, got %v", state.Warnings)
	}
	if !strings.Contains(state.Warnings[0], "invalid player number 7") {
		t.Fatalf("warning should name the bad player number: %s", state.Warnings[0])
	}
}

func TestCalculateScoreTables(t *testing.T) {
	cases := []struct {
		name             string
		rules            Rules
		addressed, bonus int
	}{
		{"tiered", DefaultRules(), 3, 2},
		{"flat", FlatRules(), 1, 1},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			e := NewEngine(c.rules)
			if got := e.CalculateScore(ResultCorrect, true); got != c.addressed {
				t.Fatalf("addressed correct: expected %d, got %d", c.addressed, got)
			}
			if got := e.CalculateScore(ResultCorrect, false); got != c.bonus {
				t.Fatalf("bonus correct: expected %d, got %d", c.bonus, got)
			}
			for _, r := range []AnswerResult{ResultIncorrect, ResultTimeout, ResultPassed} {
				if got := e.CalculateScore(r, true); got != 0 {
					t.Fatalf("%s should score 0, got %d", r, got)
				}
			}
		})
	}
}

func TestNextPlayerIndexRotation(t *testing.T) {
	e := NewEngine(DefaultRules())

	// attempt zero always targets the addressed player
	if got := e.NextPlayerIndex(2, 1, 4, 0); got != 1 {
		t.Fatalf("attempt 0 should target addressed, got %d", got)
	}
	// rotation skips the addressed player
	if got := e.NextPlayerIndex(0, 1, 4, 1); got != 2 {
		t.Fatalf("expected rotation to skip addressed, got %d", got)
	}
	if got := e.NextPlayerIndex(3, 0, 4, 2); got != 1 {
		t.Fatalf("expected wraparound past addressed, got %d", got)
	}
	// once everyone has attempted there is nobody left
	if got := e.NextPlayerIndex(2, 1, 4, 4); got != 2 {
		t.Fatalf("expected current when all have attempted, got %d", got)
	}
}

func TestNextPlayerNeverRevisitsAddressedEarly(t *testing.T) {
	e := NewEngine(DefaultRules())
	total := 4
	addressed := 2
	current := addressed
	for attempt := 1; attempt < total; attempt++ {
		current = e.NextPlayerIndex(current, addressed, total, attempt)
		if current == addressed {
			t.Fatalf("rotation returned to addressed player at attempt %d", attempt)
		}
	}
}

func TestShouldEndQuestion(t *testing.T) {
	e := NewEngine(DefaultRules())
	if e.ShouldEndQuestion(1, 2) {
		t.Fatal("question should continue while attempts remain")
	}
	if !e.ShouldEndQuestion(2, 2) {
		t.Fatal("question should end once every player attempted")
	}
}

func TestTimerDuration(t *testing.T) {
	e := NewEngine(DefaultRules())
	if e.TimerDuration(true) != 30 {
		t.Fatalf("addressed timer should be 30s, got %d", e.TimerDuration(true))
	}
	if e.TimerDuration(false) != 5 {
		t.Fatalf("bonus timer should be 5s, got %d", e.TimerDuration(false))
	}
}

func TestProcessAnswerCorrectEndsQuestion(t *testing.T) {
	e := NewEngine(DefaultRules())
	state := e.InitializeGame(testPlayers(3), testQuestions(1))

	next := e.ProcessAnswer(state, "paris", ResultCorrect)

	if next.MicState != MicDisabled {
		t.Fatalf("correct answer must disable the mic, got %s", next.MicState)
	}
	if next.ShowAnswer {
		t.Fatal("correct answer reveals nothing further")
	}
	if next.AttemptCount != state.AttemptCount {
		t.Fatal("correct answer must not increment the attempt count")
	}
	if next.Players[0].Score != 3 {
		t.Fatalf("expected addressed award of 3, got %d", next.Players[0].Score)
	}
	if next.ActiveMicPlayerIndex != NoActivePlayer {
		t.Fatalf("active mic should clear, got %d", next.ActiveMicPlayerIndex)
	}
	// the input snapshot is untouched
	if state.Players[0].Score != 0 {
		t.Fatal("ProcessAnswer mutated its input snapshot")
	}
	assertInvariants(t, next)
}

func TestProcessAnswerIncorrectAdvancesMic(t *testing.T) {
	e := NewEngine(DefaultRules())
	state := e.InitializeGame(testPlayers(3), testQuestions(1))

	next := e.ProcessAnswer(state, "berlin", ResultIncorrect)

	if next.AttemptCount != 1 {
		t.Fatalf("expected attempt count 1, got %d", next.AttemptCount)
	}
	if next.CurrentPlayerIndex != 1 {
		t.Fatalf("expected mic to advance to player 1, got %d", next.CurrentPlayerIndex)
	}
	if next.MicState != MicActive {
		t.Fatalf("expected mic active, got %s", next.MicState)
	}
	if next.TimerSeconds != 5 {
		t.Fatalf("bonus attempt should get the 5s timer, got %d", next.TimerSeconds)
	}
	if next.Players[0].Score != 0 {
		t.Fatalf("incorrect answer must not score, got %d", next.Players[0].Score)
	}
	assertInvariants(t, next)
}

func TestProcessAnswerOpensOverruleWindow(t *testing.T) {
	e := NewEngine(DefaultRules())
	state := e.InitializeGame(testPlayers(2), testQuestions(1))

	state = e.ProcessAnswer(state, "berlin", ResultIncorrect)
	state = e.ProcessAnswer(state, "london", ResultIncorrect)

	if state.AttemptCount != 2 {
		t.Fatalf("expected attempt count 2, got %d", state.AttemptCount)
	}
	if !state.ShowAnswer {
		t.Fatal("answer should be revealed once all players attempted")
	}
	if state.MicState != MicOverruleWindow {
		t.Fatalf("expected overrule window, got %s", state.MicState)
	}
	if state.TimerSeconds != 5 {
		t.Fatalf("expected 5s overrule window, got %d", state.TimerSeconds)
	}
	assertInvariants(t, state)
}

func TestBonusStealScenario(t *testing.T) {
	// 2-player game, question addressed to player 1: the addressed player
	// misses, the bonus player steals.
	e := NewEngine(DefaultRules())
	state := e.InitializeGame(testPlayers(2), testQuestions(1))

	state = e.ProcessAnswer(state, "berlin", ResultIncorrect)
	if state.CurrentPlayerIndex != 1 {
		t.Fatalf("mic should move to the bonus player, got %d", state.CurrentPlayerIndex)
	}

	state = e.ProcessAnswer(state, "paris", ResultCorrect)
	if state.Players[1].Score != 2 {
		t.Fatalf("bonus player should earn the bonus award of 2, got %d", state.Players[1].Score)
	}
	if state.MicState != MicDisabled {
		t.Fatalf("correct answer ends the question, got mic %s", state.MicState)
	}
	if state.Players[1].BonusAttempts != 0 {
		t.Fatalf("a successful steal is not a burned bonus attempt, got %d", state.Players[1].BonusAttempts)
	}
	assertInvariants(t, state)
}

func TestLenientPassPolicy(t *testing.T) {
	rules := DefaultRules()
	rules.PassConsumesAttempt = false
	e := NewEngine(rules)
	state := e.InitializeGame(testPlayers(2), testQuestions(1))

	next := e.ProcessAnswer(state, "", ResultPassed)
	if next.AttemptCount != 0 {
		t.Fatalf("lenient pass must not consume an attempt, got %d", next.AttemptCount)
	}
	if next.CurrentPlayerIndex != state.CurrentPlayerIndex {
		t.Fatal("lenient pass keeps the same player on mic")
	}
	if next.MicState != MicActive {
		t.Fatalf("expected mic re-armed, got %s", next.MicState)
	}
}

func TestStrictPassPolicy(t *testing.T) {
	e := NewEngine(DefaultRules())
	state := e.InitializeGame(testPlayers(2), testQuestions(1))

	next := e.ProcessAnswer(state, "", ResultPassed)
	if next.AttemptCount != 1 {
		t.Fatalf("pass should consume an attempt, got %d", next.AttemptCount)
	}
	if next.CurrentPlayerIndex != 1 {
		t.Fatalf("mic should advance after a pass, got %d", next.CurrentPlayerIndex)
	}
}

func TestMoveToNextQuestion(t *testing.T) {
	e := NewEngine(DefaultRules())
	state := e.InitializeGame(testPlayers(2), testQuestions(1, 2))

	state = e.ProcessAnswer(state, "berlin", ResultIncorrect)
	state = e.ProcessAnswer(state, "london", ResultIncorrect)
	state = e.MoveToNextQuestion(state)

	if state.CurrentQuestionIndex != 1 {
		t.Fatalf("expected question index 1, got %d", state.CurrentQuestionIndex)
	}
	if state.AddressedPlayerIndex != 1 {
		t.Fatalf("addressed player should come from the new question, got %d", state.AddressedPlayerIndex)
	}
	if state.AttemptCount != 0 || state.ShowAnswer || state.OverruleInProgress {
		t.Fatal("per-question transients should reset")
	}
	if state.MicState != MicActive || state.TimerSeconds != 30 {
		t.Fatalf("new question should re-arm the addressed timer, got %s/%d", state.MicState, state.TimerSeconds)
	}
	assertInvariants(t, state)
}

func TestMoveToNextQuestionCompletesGame(t *testing.T) {
	e := NewEngine(DefaultRules())
	state := e.InitializeGame(testPlayers(2), testQuestions(1))

	state = e.MoveToNextQuestion(state)
	if state.Status != StatusCompleted {
		t.Fatalf("expected completed status, got %s", state.Status)
	}
	if state.MicState != MicDisabled {
		t.Fatalf("completed game should disable the mic, got %s", state.MicState)
	}
	if state.ActiveMicPlayerIndex != NoActivePlayer {
		t.Fatalf("completed game should clear the active player, got %d", state.ActiveMicPlayerIndex)
	}
}

func TestHandleOverruleCorrectClaim(t *testing.T) {
	e := NewEngine(DefaultRules())
	state := e.InitializeGame(testPlayers(2), testQuestions(1))

	// addressed player times out, bonus player misses, window opens
	state = e.ProcessAnswer(state, "", ResultTimeout)
	state = e.ProcessAnswer(state, "berlin", ResultIncorrect)
	if state.MicState != MicOverruleWindow {
		t.Fatalf("expected overrule window, got %s", state.MicState)
	}

	// the last answering player claims they were right after all
	next := e.HandleOverrule(state, 1, ClaimCorrect)
	if next.Players[1].Score != 2 {
		t.Fatalf("overrule should award the bonus points retroactively, got %d", next.Players[1].Score)
	}
	if next.MicState != MicDisabled || next.OverruleInProgress {
		t.Fatal("overrule should close the window")
	}
	if next.CurrentQuestionIndex != state.CurrentQuestionIndex {
		t.Fatal("overrule must not advance the question by itself")
	}
}

func TestHandleOverruleIncorrectClaimFloorsAtZero(t *testing.T) {
	e := NewEngine(DefaultRules())
	state := e.InitializeGame(testPlayers(2), testQuestions(1))

	state = e.ProcessAnswer(state, "", ResultTimeout)
	state = e.ProcessAnswer(state, "berlin", ResultIncorrect)

	next := e.HandleOverrule(state, 0, ClaimIncorrect)
	if next.Players[1].Score != 0 {
		t.Fatalf("score must never go negative, got %d", next.Players[1].Score)
	}

	// with points on the board, exactly one is deducted
	next.Players[1].Score = 2
	again := e.HandleOverrule(next, 0, ClaimIncorrect)
	if again.Players[1].Score != 1 {
		t.Fatalf("expected deduction of exactly 1, got %d", again.Players[1].Score)
	}
}

func TestInvariantsAcrossFullGame(t *testing.T) {
	for _, rules := range []Rules{DefaultRules(), FlatRules()} {
		e := NewEngine(rules)
		state := e.InitializeGame(testPlayers(3), testQuestions(1, 3, 2))

		for state.Status == StatusInProgress {
			for state.MicState == MicActive {
				state = e.ProcessAnswer(state, "berlin", ResultIncorrect)
				assertInvariants(t, state)
			}
			state = e.MoveToNextQuestion(state)
			assertInvariants(t, state)
		}
		if state.Status != StatusCompleted {
			t.Fatalf("expected completed, got %s", state.Status)
		}
	}
}
