package game

type GameStatus string

const (
	StatusSetup      GameStatus = "setup"
	StatusReady      GameStatus = "ready"
	StatusInProgress GameStatus = "in_progress"
	StatusCompleted  GameStatus = "completed"
)

type AnswerResult string

const (
	ResultCorrect   AnswerResult = "correct"
	ResultIncorrect AnswerResult = "incorrect"
	ResultPassed    AnswerResult = "passed"
	ResultTimeout   AnswerResult = "timeout"
)

// MicState tracks who (if anyone) holds the microphone. Exactly one state
// holds at any instant.
type MicState string

const (
	MicDisabled       MicState = "disabled"
	MicActive         MicState = "active"
	MicListening      MicState = "listening"
	MicOverruleWindow MicState = "overrule_window"
)

type OverruleClaim string

const (
	ClaimCorrect   OverruleClaim = "correct"
	ClaimIncorrect OverruleClaim = "incorrect"
)

// NoActivePlayer marks that nobody holds the mic.
const NoActivePlayer = -1

type Player struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	Score         int    `json:"score"`
	BonusAttempts int    `json:"bonusAttempts"`
}

// Question is immutable once loaded. PlayerNumber is the 1-based number of
// the player the question is addressed to, straight from the quiz file.
type Question struct {
	ID               int64  `json:"id"`
	RoundNumber      int    `json:"roundNumber"`
	PlayerNumber     int    `json:"playerNumber"`
	QuestionText     string `json:"question"`
	QuestionImageURL string `json:"questionImageUrl,omitempty"`
	AnswerText       string `json:"answer"`
	AnswerImageURL   string `json:"answerImageUrl,omitempty"`
	OrderIndex       int    `json:"orderIndex"`
}

// GameState is one immutable snapshot of a quiz session. Engine operations
// never mutate a snapshot in place; they return a fresh value, so stale
// references held by concurrent readers never observe a half-updated state.
type GameState struct {
	Status               GameStatus   `json:"status"`
	Players              []Player     `json:"players"`
	Questions            []Question   `json:"questions"`
	CurrentQuestionIndex int          `json:"currentQuestionIndex"`
	CurrentPlayerIndex   int          `json:"currentPlayerIndex"`
	AddressedPlayerIndex int          `json:"addressedPlayerIndex"`
	AttemptCount         int          `json:"attemptCount"`
	MicState             MicState     `json:"micState"`
	ActiveMicPlayerIndex int          `json:"activeMicPlayerIndex"`
	TimerSeconds         int          `json:"timerSeconds"`
	ShowAnswer           bool         `json:"showAnswer"`
	OverruleInProgress   bool         `json:"overruleInProgress"`
	LastAnswer           string       `json:"lastAnswer,omitempty"`
	LastAnswerResult     AnswerResult `json:"lastAnswerResult,omitempty"`
	LastAnswerPlayer     int          `json:"lastAnswerPlayerIndex"`
	Warnings             []string     `json:"warnings,omitempty"`
}

// CurrentQuestion returns the question the session is on. Calling it outside
// the in_progress bounds is a programmer error and panics via the index check.
func (s GameState) CurrentQuestion() Question {
	return s.Questions[s.CurrentQuestionIndex]
}

// AnswerAttempt is the ephemeral record produced for every processed answer,
// handed to the persistence collaborator.
type AnswerAttempt struct {
	PlayerID      int          `json:"playerId"`
	PlayerName    string       `json:"playerName"`
	QuestionID    int64        `json:"questionId"`
	SpokenAnswer  string       `json:"spokenAnswer"`
	Result        AnswerResult `json:"result"`
	IsAddressed   bool         `json:"isAddressed"`
	TimeTaken     int          `json:"timeTaken"`
	AttemptOrder  int          `json:"attemptOrder"`
	PointsAwarded int          `json:"pointsAwarded"`
}

// Rules is the configurable policy table. Two scoring tables exist in the
// wild: the tiered table (3 addressed / 2 bonus) and a flat 1-point variant;
// both are supported, tiered is the default.
type Rules struct {
	AddressedTimerSeconds   int  `json:"addressedTimerSeconds"`
	BonusTimerSeconds       int  `json:"bonusTimerSeconds"`
	OverruleWindowSeconds   int  `json:"overruleWindowSeconds"`
	PostCorrectPauseSeconds int  `json:"postCorrectPauseSeconds"`
	PointsCorrectAddressed  int  `json:"pointsCorrectAddressed"`
	PointsCorrectBonus      int  `json:"pointsCorrectBonus"`
	PassConsumesAttempt     bool `json:"passConsumesAttempt"`
}

// DefaultRules is the tiered MIMIR scoring table.
func DefaultRules() Rules {
	return Rules{
		AddressedTimerSeconds:   30,
		BonusTimerSeconds:       5,
		OverruleWindowSeconds:   5,
		PostCorrectPauseSeconds: 3,
		PointsCorrectAddressed:  3,
		PointsCorrectBonus:      2,
		PassConsumesAttempt:     true,
	}
}

// FlatRules awards one point per correct answer regardless of who answered.
func FlatRules() Rules {
	r := DefaultRules()
	r.PointsCorrectAddressed = 1
	r.PointsCorrectBonus = 1
	return r
}
