package apperror

import "errors"

var (
	ErrInvalidMove           = errors.New("invalid move")
	ErrInvalidCell           = errors.New("invalid cell index")
	ErrEmptyHistory          = errors.New("no moves to revert")
	ErrSearchOnTerminalBoard = errors.New("search on a finished board")

	ErrGameFinished  = errors.New("game is already finished")
	ErrNotYourTurn   = errors.New("it's not your turn")
	ErrMatchNotFound = errors.New("match not found")
	ErrUnknownMark   = errors.New("unknown mark")
)
