package entity

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/rocketscienceinc/tictactoe-bot/internal/apperror"
)

// Match is one human-versus-bot game. X always moves first.
type Match struct {
	ID        string `json:"id"`
	Board     *Board `json:"board"`
	HumanMark Mark   `json:"human_mark"`
	BotMark   Mark   `json:"bot_mark"`
	Turn      Mark   `json:"turn"`
}

func NewMatch(id string, humanMark Mark) (*Match, error) {
	if !humanMark.IsPlayer() {
		return nil, fmt.Errorf("%w: unknown mark %q", apperror.ErrInvalidMove, humanMark)
	}

	botMark := PlayerX
	if humanMark == PlayerX {
		botMark = PlayerO
	}

	return &Match{
		ID:        id,
		Board:     NewBoard(),
		HumanMark: humanMark,
		BotMark:   botMark,
		Turn:      PlayerX,
	}, nil
}

// ParseMark accepts "x" or "o" in any case.
func ParseMark(value string) (Mark, error) {
	switch mark := Mark(strings.ToUpper(strings.TrimSpace(value))); mark {
	case PlayerX, PlayerO:
		return mark, nil
	default:
		return EmptyCell, fmt.Errorf("%w: %q", apperror.ErrUnknownMark, value)
	}
}

// GetRandomMarks returns the human and bot marks in random order.
func GetRandomMarks() (Mark, Mark) {
	if rand.Intn(2) == 0 { //nolint: gosec // it's ok
		return PlayerX, PlayerO
	}
	return PlayerO, PlayerX
}

func (that *Match) Status() Status {
	return that.Board.Status()
}

func (that *Match) IsFinished() bool {
	return that.Status().IsTerminal()
}

func (that *Match) IsBotTurn() bool {
	return !that.IsFinished() && that.Turn == that.BotMark
}

func (that *Match) IsHumanTurn() bool {
	return !that.IsFinished() && that.Turn == that.HumanMark
}

// MakeTurn - places the mark for whoever's turn it is and passes the turn.
func (that *Match) MakeTurn(mark Mark, cell int) error {
	if that.IsFinished() {
		return apperror.ErrGameFinished
	}

	if that.Turn != mark {
		return apperror.ErrNotYourTurn
	}

	if err := that.Board.MakeMove(cell, mark); err != nil {
		return err
	}

	// It's simple logic for a game changing move
	if that.Turn == PlayerX {
		that.Turn = PlayerO
	} else {
		that.Turn = PlayerX
	}

	return nil
}
