package tictactoe

import (
	"fmt"

	"github.com/rocketscienceinc/tictactoe-bot/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-bot/internal/entity"
)

// BestMove - searches the whole game tree for the maximizer and returns the cell with the highest score.
// Ties keep the lowest cell. The board is left exactly as it was found.
func BestMove(board *entity.Board, maximizer entity.Mark) (int, error) {
	bestMove := -1
	bestScore := 0.0

	err := scoreMoves(board, maximizer, func(move int, score float64) {
		if bestMove == -1 || score > bestScore {
			bestMove = move
			bestScore = score
		}
	})
	if err != nil {
		return -1, err
	}

	return bestMove, nil
}

// Scores - returns the root score of every possible move, keyed by cell.
func Scores(board *entity.Board, maximizer entity.Mark) (map[int]float64, error) {
	scores := make(map[int]float64, entity.BoardSize)

	err := scoreMoves(board, maximizer, func(move int, score float64) {
		scores[move] = score
	})
	if err != nil {
		return nil, err
	}

	return scores, nil
}

// OtherMark - returns the opponent's mark.
func OtherMark(mark entity.Mark) entity.Mark {
	if mark == entity.PlayerX {
		return entity.PlayerO
	}
	return entity.PlayerX
}

func scoreMoves(board *entity.Board, maximizer entity.Mark, visit func(move int, score float64)) error {
	if !maximizer.IsPlayer() {
		return fmt.Errorf("%w: unknown mark %q", apperror.ErrInvalidMove, maximizer)
	}

	if status := board.Status(); status.IsTerminal() {
		return fmt.Errorf("%w: %s", apperror.ErrSearchOnTerminalBoard, status)
	}

	for _, move := range board.PossibleMoves() {
		if err := board.MakeMove(move, maximizer); err != nil {
			return fmt.Errorf("failed to try move %d: %w", move, err)
		}

		score := scoreBoard(board, false, maximizer, 1)

		if err := board.RevertLastMove(); err != nil {
			return fmt.Errorf("failed to revert move %d: %w", move, err)
		}

		visit(move, score)
	}

	return nil
}

// scoreBoard sums the scores of every continuation instead of taking min or max.
// A finished game is worth 1/depth to the side that won it, so early results weigh more.
func scoreBoard(board *entity.Board, maximizerTurn bool, maximizer entity.Mark, depth int) float64 {
	status := board.Status()

	switch status.Outcome {
	case entity.Draw:
		return 0
	case entity.Won:
		if status.Winner == maximizer {
			return 1 / float64(depth)
		}
		return -1 / float64(depth)
	}

	mark := maximizer
	if !maximizerTurn {
		mark = OtherMark(maximizer)
	}

	var total float64
	for _, move := range board.PossibleMoves() {
		// moves come from PossibleMoves and are reverted in order, so neither call can fail
		_ = board.MakeMove(move, mark)
		total += scoreBoard(board, !maximizerTurn, maximizer, depth+1)
		_ = board.RevertLastMove()
	}

	return total
}
