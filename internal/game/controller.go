package game

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	msgStart = "Начинаем игру в крестики-нолики! Вы играете крестиками, я - ноликами.\n" +
		"Сетка клеток:\n1 | 2 | 3\n4 | 5 | 6\n7 | 8 | 9\n" +
		"Скажите номер клетки от 1 до 9 для вашего хода."
	msgNoGame       = "Сейчас нет активной игры."
	msgInactive     = "Игра не активна. Скажите 'начать игру', чтобы играть в крестики-нолики."
	msgExit         = "Выхожу из игры. Можете продолжить общение!"
	msgBadLabel     = "Скажите номер клетки от 1 до 9."
	msgHumanWin     = "Поздравляю! Вы выиграли! 🎉"
	msgOpponentWin  = "Я выиграл! Попробуйте ещё раз! 🤖"
	msgDraw         = "Ничья! Хорошая игра! 🤝"
	msgInternal     = "В игре что-то пошло не так. Попробуйте ещё раз."
	msgInternalDone = "В игре что-то пошло не так, игра завершена."
)

var exitPhrases = []string{"стоп", "выход", "закончить игру", "хватит", "выйти", "закончить"}

// Command is a game command recognised outside of an active session.
type Command int

const (
	CommandStart Command = iota + 1
	CommandStatus
)

var (
	startPhrases  = []string{"крестики нолики", "начать игру", "играть в крестики", "хочу играть"}
	statusPhrases = []string{"статус игры", "ход игры", "поле", "доска", "какое поле"}
)

var errNoMove = errors.New("opponent found no free cell")

// Session is one tic-tac-toe game. The human always moves first.
type Session struct {
	ID        uuid.UUID
	StartedAt time.Time
	board     Board
	active    bool
}

// Controller owns at most one Session. It is not safe for concurrent use;
// callers serialise utterances.
type Controller struct {
	session *Session
	log     *zap.Logger
	now     func() time.Time
}

func NewController(log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{log: log, now: time.Now}
}

func (c *Controller) Active() bool { return c.session != nil && c.session.active }

// Board returns a copy of the current board.
func (c *Controller) Board() (Board, bool) {
	if !c.Active() {
		return Board{}, false
	}
	return c.session.board, true
}

// MatchCommand recognises start and status phrases in lower-cased text.
func (c *Controller) MatchCommand(lower string) (Command, bool) {
	if containsAny(lower, startPhrases) {
		return CommandStart, true
	}
	if containsAny(lower, statusPhrases) {
		return CommandStatus, true
	}
	return 0, false
}

// Start begins a fresh game, discarding any previous board.
func (c *Controller) Start() string {
	c.session = &Session{ID: uuid.New(), StartedAt: c.now(), active: true}
	c.log.Info("game started", zap.String("session", c.session.ID.String()))
	return msgStart
}

func (c *Controller) Status() string {
	if !c.Active() {
		return msgNoGame
	}
	return describe(&c.session.board)
}

// Handle consumes one utterance of an active session.
func (c *Controller) Handle(text string) string {
	if !c.Active() {
		return msgInactive
	}
	lower := strings.ToLower(strings.TrimSpace(text))
	if containsAny(lower, exitPhrases) {
		c.end("exit")
		return msgExit
	}
	if containsAny(lower, statusPhrases) {
		return describe(&c.session.board)
	}
	label, ok := ParseMove(lower)
	if !ok {
		return fmt.Sprintf("Не понял ход. Скажите номер клетки от 1 до 9. Свободные клетки: %s",
			joinLabels(c.session.board.Free()))
	}
	return c.ApplyMove(label)
}

type phase int

const (
	phaseMove phase = iota
	phaseEvaluate
)

// ApplyMove plays the human's move at label and, unless the game ended,
// exactly one opponent move. Rejected input does not consume the turn.
func (c *Controller) ApplyMove(label string) (resp string) {
	if !c.Active() {
		return msgInactive
	}
	s := c.session
	ph := phaseMove
	defer func() {
		if r := recover(); r != nil {
			resp = c.fail(ph, fmt.Errorf("panic: %v", r))
		}
	}()

	pos, err := strconv.Atoi(strings.TrimSpace(label))
	if err != nil || pos < 1 || pos > 9 {
		return msgBadLabel
	}
	if err := s.board.Place(pos, Human); err != nil {
		if errors.Is(err, ErrOccupied) {
			return fmt.Sprintf("Клетка %d уже занята. Свободные клетки: %s", pos, joinLabels(s.board.Free()))
		}
		return c.fail(ph, err)
	}

	ph = phaseEvaluate
	out, err := s.board.Outcome()
	if err != nil {
		return c.fail(ph, err)
	}
	if out != Continue {
		c.end(out.String())
		return finalMessage(out) + "\n" + s.board.Render()
	}

	ph = phaseMove
	move, ok := NextOpponentMove(s.board)
	if !ok {
		return c.fail(ph, errNoMove)
	}
	if err := s.board.Place(move, Opponent); err != nil {
		return c.fail(ph, err)
	}

	ph = phaseEvaluate
	out, err = s.board.Outcome()
	if err != nil {
		return c.fail(ph, err)
	}
	reply := fmt.Sprintf("Я ставлю нолик в клетку %d. ", move)
	if out != Continue {
		c.end(out.String())
		return reply + finalMessage(out) + "\n" + s.board.Render()
	}
	return reply + describe(&s.board)
}

// fail reports an internal error. Failures while evaluating the board end
// the session so it cannot get stuck; others keep it alive.
func (c *Controller) fail(ph phase, err error) string {
	fields := []zap.Field{zap.Error(err)}
	if c.session != nil {
		fields = append(fields, zap.String("session", c.session.ID.String()))
	}
	if ph == phaseEvaluate {
		c.log.Error("game evaluation failed, ending session", fields...)
		c.end("error")
		return msgInternalDone
	}
	c.log.Error("game move failed", fields...)
	return msgInternal
}

func (c *Controller) end(reason string) {
	if c.session == nil {
		return
	}
	c.session.active = false
	c.log.Info("game finished",
		zap.String("session", c.session.ID.String()),
		zap.String("reason", reason),
		zap.Duration("duration", c.now().Sub(c.session.StartedAt)))
}

func finalMessage(out Outcome) string {
	switch out {
	case HumanWin:
		return msgHumanWin
	case OpponentWin:
		return msgOpponentWin
	default:
		return msgDraw
	}
}

func describe(b *Board) string {
	return "Текущая доска:\n" + b.Render()
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
