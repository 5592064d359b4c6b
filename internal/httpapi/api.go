// Package httpapi exposes the REST collaborator surface: quiz listings,
// single-player game sessions and the TTS proxy.
package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/mimirquiz/mimir/internal/game"
	"github.com/mimirquiz/mimir/internal/speech"
	"github.com/mimirquiz/mimir/internal/store"
)

type API struct {
	store    store.Store
	sessions *game.SessionManager
	tts      speech.Synthesizer
}

func New(st store.Store, sessions *game.SessionManager, tts speech.Synthesizer) *API {
	return &API{store: st, sessions: sessions, tts: tts}
}

func (a *API) Register(r *gin.Engine) {
	api := r.Group("/api")

	api.GET("/quizzes", a.listQuizzes)
	api.GET("/quizzes/:id/questions", a.quizQuestions)

	api.POST("/games", a.createGame)
	api.GET("/games/:id", a.getGame)
	api.GET("/games/:id/answers", a.gameAnswers)
	api.POST("/games/:id/answer", a.submitAnswer)
	api.POST("/games/:id/pass", a.pass)
	api.POST("/games/:id/timeout", a.timeout)
	api.POST("/games/:id/next", a.nextQuestion)
	api.POST("/games/:id/overrule", a.overrule)

	if a.tts != nil {
		api.POST("/tts/synthesize", a.synthesize)
		api.GET("/tts/voices", a.voices)
	}
}

func (a *API) listQuizzes(c *gin.Context) {
	filter := store.QuizFilter{
		League: c.Query("league"),
		Topic:  c.Query("topic"),
		Author: c.Query("author"),
		Search: c.Query("search"),
	}
	quizzes, err := a.store.ListQuizzes(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list quizzes"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"quizzes": quizzes})
}

func (a *API) quizQuestions(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid quiz id"})
		return
	}
	questions, err := a.store.QuestionsForQuiz(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "quiz not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load questions"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"questions": questions})
}

func (a *API) createGame(c *gin.Context) {
	var req struct {
		QuizFileID  int64    `json:"quizFileId"`
		PlayerNames []string `json:"playerNames"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	quiz, err := a.store.GetQuiz(c.Request.Context(), req.QuizFileID)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "quiz not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load quiz"})
		return
	}
	questions, err := a.store.QuestionsForQuiz(c.Request.Context(), req.QuizFileID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load questions"})
		return
	}

	players := make([]game.Player, 0, len(req.PlayerNames))
	for _, name := range req.PlayerNames {
		if name == "" {
			continue
		}
		players = append(players, game.Player{ID: len(players) + 1, Name: name})
	}

	sess, err := a.sessions.Create(quiz.ID, quiz.League, quiz.Topic, players, questions)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	names := make([]string, len(players))
	for i, p := range players {
		names[i] = p.Name
	}
	if err := a.store.CreateGame(c.Request.Context(), store.GameRecord{
		SessionID:   sess.ID,
		QuizFileID:  quiz.ID,
		League:      quiz.League,
		Topic:       quiz.Topic,
		PlayerNames: names,
		CreatedAt:   sess.CreatedAt,
	}); err != nil {
		log.Error().Err(err).Str("session", sess.ID).Msg("failed to record game session")
	}

	state, version := sess.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"session": gin.H{
			"id":         sess.ID,
			"quizFileId": sess.QuizFileID,
			"league":     sess.League,
			"topic":      sess.Topic,
		},
		"questions": questions,
		"state":     state,
		"version":   version,
	})
}

func (a *API) getGame(c *gin.Context) {
	sess, ok := a.session(c)
	if !ok {
		return
	}
	state, version := sess.Snapshot()
	c.JSON(http.StatusOK, gin.H{"state": state, "version": version})
}

// gameAnswers serves the attempt history straight from the store, so it
// stays readable after the live session is torn down.
func (a *API) gameAnswers(c *gin.Context) {
	answers, err := a.store.AnswersForGame(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load answers"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"answers": answers})
}

func (a *API) submitAnswer(c *gin.Context) {
	sess, ok := a.session(c)
	if !ok {
		return
	}
	var req struct {
		SpokenAnswer string `json:"spokenAnswer"`
		TimeTaken    int    `json:"timeTaken"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	attempt, state, version, err := sess.SubmitAnswer(req.SpokenAnswer, req.TimeTaken)
	if err != nil {
		respondGameError(c, err)
		return
	}

	if id, err := a.store.SaveAnswer(c.Request.Context(), sess.ID, attempt); err != nil {
		log.Error().Err(err).Str("session", sess.ID).Msg("failed to persist answer attempt")
	} else {
		log.Info().Str("session", sess.ID).Int64("answerId", id).Str("result", string(attempt.Result)).Msg("answer recorded")
	}

	c.JSON(http.StatusOK, gin.H{"attempt": attempt, "state": state, "version": version})
}

func (a *API) pass(c *gin.Context) {
	sess, ok := a.session(c)
	if !ok {
		return
	}
	state, version, err := sess.Pass()
	if err != nil {
		respondGameError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": state, "version": version})
}

func (a *API) timeout(c *gin.Context) {
	sess, ok := a.session(c)
	if !ok {
		return
	}
	var req struct {
		Version int64 `json:"version"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	state, version, applied := sess.ExpireTimer(req.Version)
	c.JSON(http.StatusOK, gin.H{"applied": applied, "state": state, "version": version})
}

func (a *API) nextQuestion(c *gin.Context) {
	sess, ok := a.session(c)
	if !ok {
		return
	}
	state, version, err := sess.NextQuestion()
	if err != nil {
		respondGameError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": state, "version": version})
}

func (a *API) overrule(c *gin.Context) {
	sess, ok := a.session(c)
	if !ok {
		return
	}
	var req struct {
		ChallengerIndex int    `json:"challengerIndex"`
		ClaimType       string `json:"claimType"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	before, _ := sess.Snapshot()
	state, version, err := sess.Overrule(req.ChallengerIndex, game.OverruleClaim(req.ClaimType))
	if err != nil {
		respondGameError(c, err)
		return
	}

	target := before.LastAnswerPlayer
	if target == game.NoActivePlayer {
		target = before.CurrentPlayerIndex
	}
	event := store.OverruleEvent{
		QuestionID:       before.CurrentQuestion().ID,
		ChallengerID:     before.Players[req.ChallengerIndex].ID,
		ChallengerName:   before.Players[req.ChallengerIndex].Name,
		ClaimType:        req.ClaimType,
		PointsAdjustment: state.Players[target].Score - before.Players[target].Score,
	}
	if _, err := a.store.SaveOverrule(c.Request.Context(), sess.ID, event); err != nil {
		log.Error().Err(err).Str("session", sess.ID).Msg("failed to persist overrule event")
	}

	c.JSON(http.StatusOK, gin.H{"state": state, "version": version})
}

func (a *API) synthesize(c *gin.Context) {
	var req struct {
		Text  string `json:"text"`
		Voice string `json:"voice"`
	}
	if err := c.BindJSON(&req); err != nil || req.Text == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text is required"})
		return
	}
	audio, err := a.tts.Synthesize(c.Request.Context(), req.Text, req.Voice)
	if err != nil {
		log.Error().Err(err).Msg("tts synthesis failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "synthesis failed"})
		return
	}
	c.Data(http.StatusOK, "audio/mpeg", audio)
}

func (a *API) voices(c *gin.Context) {
	voices, err := a.tts.Voices(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("tts voice listing failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "voice listing failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"voices": voices})
}

func (a *API) session(c *gin.Context) (*game.Session, bool) {
	sess, err := a.sessions.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "game session not found"})
		return nil, false
	}
	return sess, true
}

func respondGameError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, game.ErrGameCompleted):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, game.ErrGameNotRunning):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, game.ErrInvalidPlayer), errors.Is(err, game.ErrInvalidClaim):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
