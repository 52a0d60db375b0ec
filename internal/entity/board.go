package entity

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rocketscienceinc/tictactoe-bot/internal/apperror"
)

// BoardSize is the number of cells on the 3x3 grid.
const BoardSize = 9

type Mark string

const (
	PlayerX Mark = "X"
	PlayerO Mark = "O"

	EmptyCell Mark = ""
)

// IsPlayer reports whether the mark can be placed on the board.
func (that Mark) IsPlayer() bool {
	return that == PlayerX || that == PlayerO
}

var WinCombos = [8][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

// Move is a single mark placed on a cell.
type Move struct {
	Cell int  `json:"cell"`
	Mark Mark `json:"mark"`
}

// Board is the 3x3 grid in row-major order together with the moves that filled it.
// Exactly the cells listed in history are occupied.
type Board struct {
	cells   [BoardSize]Mark
	history []int
}

func NewBoard() *Board {
	return &Board{
		history: make([]int, 0, BoardSize),
	}
}

// RestoreBoard - replays moves on an empty board in the given order.
func RestoreBoard(moves []Move) (*Board, error) {
	board := NewBoard()

	for _, move := range moves {
		if err := board.MakeMove(move.Cell, move.Mark); err != nil {
			return nil, fmt.Errorf("failed to replay move %d: %w", move.Cell, err)
		}
	}

	return board, nil
}

// MakeMove - places mark on an empty cell and records it in the history.
func (that *Board) MakeMove(index int, mark Mark) error {
	if index < 0 || index >= BoardSize {
		return fmt.Errorf("%w: %w: cell %d", apperror.ErrInvalidMove, apperror.ErrInvalidCell, index)
	}

	if !mark.IsPlayer() {
		return fmt.Errorf("%w: unknown mark %q", apperror.ErrInvalidMove, mark)
	}

	if that.cells[index] != EmptyCell {
		return fmt.Errorf("%w: cell %d is already occupied", apperror.ErrInvalidMove, index)
	}

	that.cells[index] = mark
	that.history = append(that.history, index)

	return nil
}

// RevertLastMove - undoes the most recent MakeMove.
func (that *Board) RevertLastMove() error {
	if len(that.history) == 0 {
		return apperror.ErrEmptyHistory
	}

	last := that.history[len(that.history)-1]
	that.history = that.history[:len(that.history)-1]
	that.cells[last] = EmptyCell

	return nil
}

// PossibleMoves returns the empty cells in ascending order. A won board can still have empty cells,
// so check Status before relying on the result.
func (that *Board) PossibleMoves() []int {
	moves := make([]int, 0, BoardSize-len(that.history))
	for i, cell := range that.cells {
		if cell == EmptyCell {
			moves = append(moves, i)
		}
	}

	return moves
}

// Status is recomputed from the cells on every call.
func (that *Board) Status() Status {
	for _, combo := range WinCombos {
		a, b, c := that.cells[combo[0]], that.cells[combo[1]], that.cells[combo[2]]
		if a != EmptyCell && a == b && b == c {
			return Status{Outcome: Won, Winner: a}
		}
	}

	// the game will continue until all the squares are full
	for _, cell := range that.cells {
		if cell == EmptyCell {
			return Status{Outcome: Ongoing}
		}
	}

	return Status{Outcome: Draw}
}

func (that *Board) IsTerminal() bool {
	return that.Status().IsTerminal()
}

// Winner returns EmptyCell unless the board is won.
func (that *Board) Winner() Mark {
	return that.Status().Winner
}

func (that *Board) Cell(index int) (Mark, error) {
	if index < 0 || index >= BoardSize {
		return EmptyCell, fmt.Errorf("%w: cell %d", apperror.ErrInvalidCell, index)
	}

	return that.cells[index], nil
}

func (that *Board) Cells() [BoardSize]Mark {
	return that.cells
}

func (that *Board) History() []int {
	history := make([]int, len(that.history))
	copy(history, that.history)

	return history
}

// Moves returns the history paired with the marks that were placed.
func (that *Board) Moves() []Move {
	moves := make([]Move, 0, len(that.history))
	for _, index := range that.history {
		moves = append(moves, Move{Cell: index, Mark: that.cells[index]})
	}

	return moves
}

func (that *Board) Clone() *Board {
	clone := &Board{
		cells:   that.cells,
		history: make([]int, len(that.history), BoardSize),
	}
	copy(clone.history, that.history)

	return clone
}

// String renders the grid with the index of every empty cell, e.g.
//
//	X | 1 | O
//	3 | X | 5
//	6 | 7 | 8
func (that *Board) String() string {
	var sb strings.Builder

	for row := 0; row < 3; row++ {
		if row > 0 {
			sb.WriteString("\n")
		}

		for col := 0; col < 3; col++ {
			index := row*3 + col
			if col > 0 {
				sb.WriteString(" | ")
			}

			if that.cells[index] == EmptyCell {
				fmt.Fprintf(&sb, "%d", index)
			} else {
				sb.WriteString(string(that.cells[index]))
			}
		}
	}

	return sb.String()
}

type boardJSON struct {
	Cells   [BoardSize]Mark `json:"cells"`
	History []int           `json:"history"`
}

func (that *Board) MarshalJSON() ([]byte, error) {
	return json.Marshal(boardJSON{
		Cells:   that.cells,
		History: that.History(),
	})
}

// UnmarshalJSON replays the stored history and rejects snapshots whose cells disagree with it.
func (that *Board) UnmarshalJSON(data []byte) error {
	var snapshot boardJSON
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return fmt.Errorf("failed to unmarshal board: %w", err)
	}

	moves := make([]Move, 0, len(snapshot.History))
	for _, index := range snapshot.History {
		if index < 0 || index >= BoardSize {
			return fmt.Errorf("%w: history cell %d", apperror.ErrInvalidCell, index)
		}
		moves = append(moves, Move{Cell: index, Mark: snapshot.Cells[index]})
	}

	board, err := RestoreBoard(moves)
	if err != nil {
		return err
	}

	if board.cells != snapshot.Cells {
		return fmt.Errorf("%w: cells do not match history", apperror.ErrInvalidMove)
	}

	*that = *board

	return nil
}
