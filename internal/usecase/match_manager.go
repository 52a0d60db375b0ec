package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/rocketscienceinc/tictactoe-bot/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-bot/internal/entity"
	"github.com/rocketscienceinc/tictactoe-bot/internal/tictactoe"
)

// RandomMark lets NewMatch draw the human's mark.
const RandomMark = "random"

type matchRepo interface {
	CreateOrUpdate(ctx context.Context, match *entity.Match) error
	GetByID(ctx context.Context, id string) (*entity.Match, error)
	DeleteByID(ctx context.Context, id string) error
}

// MatchManager drives a match between a human and the search bot.
// Finished matches are removed from storage before they are returned.
type MatchManager struct {
	logger    *slog.Logger
	matchRepo matchRepo

	randomMarks func() (entity.Mark, entity.Mark)
}

func NewMatchManager(logger *slog.Logger, matchRepo matchRepo) *MatchManager {
	return &MatchManager{
		logger:    logger.With("component", "match_manager"),
		matchRepo: matchRepo,

		randomMarks: entity.GetRandomMarks,
	}
}

// NewMatch - starts a match. humanMark is "X", "O", or "random"/"" to draw it.
func (that *MatchManager) NewMatch(ctx context.Context, humanMark string) (*entity.Match, error) {
	mark, err := that.chooseHumanMark(humanMark)
	if err != nil {
		return nil, err
	}

	match, err := entity.NewMatch(uuid.New().String(), mark)
	if err != nil {
		return nil, fmt.Errorf("failed to create match: %w", err)
	}

	if err = that.matchRepo.CreateOrUpdate(ctx, match); err != nil {
		return nil, fmt.Errorf("failed to save match: %w", err)
	}

	that.logger.Info("match started", "matchID", match.ID, "human", match.HumanMark, "bot", match.BotMark)

	return match, nil
}

func (that *MatchManager) GetMatch(ctx context.Context, id string) (*entity.Match, error) {
	match, err := that.matchRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}

	return match, nil
}

// MakeHumanMove - places the human's mark on cell.
func (that *MatchManager) MakeHumanMove(ctx context.Context, id string, cell int) (*entity.Match, error) {
	match, err := that.GetMatch(ctx, id)
	if err != nil {
		return nil, err
	}

	if err = match.MakeTurn(match.HumanMark, cell); err != nil {
		return match, fmt.Errorf("failed to make turn: %w", err)
	}

	that.logger.Debug("human moved", "matchID", id, "cell", cell)

	if err = that.saveOrFinish(ctx, match); err != nil {
		return nil, err
	}

	return match, nil
}

// MakeBotMove - searches the best move for the bot and plays it.
func (that *MatchManager) MakeBotMove(ctx context.Context, id string) (*entity.Match, int, error) {
	log := that.logger.With("method", "MakeBotMove", "matchID", id)

	match, err := that.GetMatch(ctx, id)
	if err != nil {
		return nil, -1, err
	}

	if match.IsFinished() {
		return match, -1, apperror.ErrGameFinished
	}

	if !match.IsBotTurn() {
		return match, -1, apperror.ErrNotYourTurn
	}

	if log.Enabled(ctx, slog.LevelDebug) {
		scores, err := tictactoe.Scores(match.Board, match.BotMark)
		if err == nil {
			log.Debug("candidate moves", "scores", scores)
		}
	}

	cell, err := tictactoe.BestMove(match.Board, match.BotMark)
	if err != nil {
		return match, -1, fmt.Errorf("failed to find bot move: %w", err)
	}

	if err = match.MakeTurn(match.BotMark, cell); err != nil {
		return match, -1, fmt.Errorf("bot failed to make turn: %w", err)
	}

	log.Debug("bot moved", "cell", cell)

	if err = that.saveOrFinish(ctx, match); err != nil {
		return nil, -1, err
	}

	return match, cell, nil
}

// Hint - returns the move the bot would play in the human's place.
func (that *MatchManager) Hint(ctx context.Context, id string) (int, error) {
	match, err := that.GetMatch(ctx, id)
	if err != nil {
		return -1, err
	}

	if match.IsFinished() {
		return -1, apperror.ErrGameFinished
	}

	cell, err := tictactoe.BestMove(match.Board, match.HumanMark)
	if err != nil {
		return -1, fmt.Errorf("failed to find hint: %w", err)
	}

	return cell, nil
}

// Scores - returns the bot's evaluation of every move available to the player whose turn it is.
func (that *MatchManager) Scores(ctx context.Context, id string) (map[int]float64, error) {
	match, err := that.GetMatch(ctx, id)
	if err != nil {
		return nil, err
	}

	scores, err := tictactoe.Scores(match.Board, match.Turn)
	if err != nil {
		return nil, fmt.Errorf("failed to score moves: %w", err)
	}

	return scores, nil
}

// AbandonMatch - drops an unfinished match.
func (that *MatchManager) AbandonMatch(ctx context.Context, id string) error {
	if err := that.matchRepo.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("failed to delete match: %w", err)
	}

	that.logger.Info("match abandoned", "matchID", id)

	return nil
}

func (that *MatchManager) chooseHumanMark(humanMark string) (entity.Mark, error) {
	if humanMark == "" || strings.EqualFold(humanMark, RandomMark) {
		mark, _ := that.randomMarks()
		return mark, nil
	}

	mark, err := entity.ParseMark(humanMark)
	if err != nil {
		return entity.EmptyCell, fmt.Errorf("failed to choose human mark: %w", err)
	}

	return mark, nil
}

func (that *MatchManager) saveOrFinish(ctx context.Context, match *entity.Match) error {
	if !match.IsFinished() {
		if err := that.matchRepo.CreateOrUpdate(ctx, match); err != nil {
			return fmt.Errorf("failed to update match: %w", err)
		}

		return nil
	}

	log := that.logger.With("method", "saveOrFinish", "matchID", match.ID)

	if err := that.matchRepo.DeleteByID(ctx, match.ID); err != nil && !errors.Is(err, apperror.ErrMatchNotFound) {
		log.Error("failed to delete match", "error", err)
	}

	log.Info("match finished", "result", match.Status().String())

	return nil
}
