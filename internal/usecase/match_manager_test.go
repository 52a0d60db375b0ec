package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-bot/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-bot/internal/entity"
	"github.com/rocketscienceinc/tictactoe-bot/internal/repository"
)

var errRedisDown = errors.New("redis down")

type mockMatchRepo struct {
	mock.Mock
}

func (that *mockMatchRepo) CreateOrUpdate(ctx context.Context, match *entity.Match) error {
	args := that.Called(ctx, match)
	return args.Error(0)
}

func (that *mockMatchRepo) GetByID(ctx context.Context, id string) (*entity.Match, error) {
	args := that.Called(ctx, id)

	match, _ := args.Get(0).(*entity.Match)
	return match, args.Error(1)
}

func (that *mockMatchRepo) DeleteByID(ctx context.Context, id string) error {
	args := that.Called(ctx, id)
	return args.Error(0)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newManager(t *testing.T) (*MatchManager, repository.MatchRepository) {
	t.Helper()

	matchRepo := repository.NewInMemoryMatchRepository()

	return NewMatchManager(newTestLogger(), matchRepo), matchRepo
}

func TestMatchManager_NewMatch(t *testing.T) {
	ctx := context.Background()

	t.Run("Human chooses X", func(t *testing.T) {
		// Given: a match manager backed by memory
		manager, matchRepo := newManager(t)

		// When: a match is started with X for the human
		match, err := manager.NewMatch(ctx, "x")

		// Then: the human moves first and the match is stored
		require.NoError(t, err)
		assert.NotEmpty(t, match.ID)
		assert.Equal(t, entity.PlayerX, match.HumanMark)
		assert.Equal(t, entity.PlayerO, match.BotMark)
		assert.True(t, match.IsHumanTurn())

		stored, err := matchRepo.GetByID(ctx, match.ID)
		require.NoError(t, err)
		assert.Equal(t, match.ID, stored.ID)
	})

	t.Run("Random mark", func(t *testing.T) {
		manager, _ := newManager(t)
		manager.randomMarks = func() (entity.Mark, entity.Mark) {
			return entity.PlayerO, entity.PlayerX
		}

		for _, humanMark := range []string{"", RandomMark, "RANDOM"} {
			match, err := manager.NewMatch(ctx, humanMark)

			require.NoError(t, err)
			assert.Equal(t, entity.PlayerO, match.HumanMark)
			assert.True(t, match.IsBotTurn())
		}
	})

	t.Run("Error on unknown mark", func(t *testing.T) {
		manager, _ := newManager(t)

		_, err := manager.NewMatch(ctx, "Z")

		assert.ErrorIs(t, err, apperror.ErrUnknownMark)
	})

	t.Run("Error when storage fails", func(t *testing.T) {
		matchRepo := &mockMatchRepo{}
		matchRepo.On("CreateOrUpdate", mock.Anything, mock.AnythingOfType("*entity.Match")).Return(errRedisDown).Once()
		manager := NewMatchManager(newTestLogger(), matchRepo)

		_, err := manager.NewMatch(ctx, "X")

		require.ErrorIs(t, err, errRedisDown)
		matchRepo.AssertExpectations(t)
	})
}

func TestMatchManager_MakeHumanMove(t *testing.T) {
	ctx := context.Background()

	t.Run("Places the mark and passes the turn", func(t *testing.T) {
		manager, matchRepo := newManager(t)
		match, err := manager.NewMatch(ctx, "X")
		require.NoError(t, err)

		// When: the human plays the center
		match, err = manager.MakeHumanMove(ctx, match.ID, 4)

		// Then: it is the bot's turn and the stored match has the move
		require.NoError(t, err)
		assert.True(t, match.IsBotTurn())

		stored, err := matchRepo.GetByID(ctx, match.ID)
		require.NoError(t, err)
		assert.Equal(t, []int{4}, stored.Board.History())
	})

	t.Run("Error on playing out of turn", func(t *testing.T) {
		manager, _ := newManager(t)
		match, err := manager.NewMatch(ctx, "O")
		require.NoError(t, err)

		_, err = manager.MakeHumanMove(ctx, match.ID, 0)

		assert.ErrorIs(t, err, apperror.ErrNotYourTurn)
	})

	t.Run("Error on occupied cell", func(t *testing.T) {
		manager, _ := newManager(t)
		match, err := manager.NewMatch(ctx, "O")
		require.NoError(t, err)
		match, cell, err := manager.MakeBotMove(ctx, match.ID)
		require.NoError(t, err)

		_, err = manager.MakeHumanMove(ctx, match.ID, cell)

		assert.ErrorIs(t, err, apperror.ErrInvalidMove)
	})

	t.Run("Error on invalid cell", func(t *testing.T) {
		manager, _ := newManager(t)
		match, err := manager.NewMatch(ctx, "X")
		require.NoError(t, err)

		_, err = manager.MakeHumanMove(ctx, match.ID, 9)

		assert.ErrorIs(t, err, apperror.ErrInvalidCell)
	})

	t.Run("Error on unknown match", func(t *testing.T) {
		manager, _ := newManager(t)

		_, err := manager.MakeHumanMove(ctx, "missing", 0)

		assert.ErrorIs(t, err, apperror.ErrMatchNotFound)
	})

	t.Run("Finished match is removed from storage", func(t *testing.T) {
		// Given: a stored match where X can win on cell 2
		board, err := entity.RestoreBoard([]entity.Move{
			{Cell: 0, Mark: entity.PlayerX},
			{Cell: 3, Mark: entity.PlayerO},
			{Cell: 1, Mark: entity.PlayerX},
			{Cell: 4, Mark: entity.PlayerO},
		})
		require.NoError(t, err)

		match := &entity.Match{
			ID:        "123",
			Board:     board,
			HumanMark: entity.PlayerX,
			BotMark:   entity.PlayerO,
			Turn:      entity.PlayerX,
		}

		matchRepo := &mockMatchRepo{}
		matchRepo.On("GetByID", mock.Anything, "123").Return(match, nil).Once()
		matchRepo.On("DeleteByID", mock.Anything, "123").Return(nil).Once()
		manager := NewMatchManager(newTestLogger(), matchRepo)

		// When: the human completes the top row
		finished, err := manager.MakeHumanMove(ctx, "123", 2)

		// Then: the match is won and deleted instead of saved
		require.NoError(t, err)
		assert.Equal(t, entity.Status{Outcome: entity.Won, Winner: entity.PlayerX}, finished.Status())
		matchRepo.AssertExpectations(t)
		matchRepo.AssertNotCalled(t, "CreateOrUpdate", mock.Anything, mock.Anything)
	})
}

func TestMatchManager_MakeBotMove(t *testing.T) {
	ctx := context.Background()

	t.Run("Bot opens in the center", func(t *testing.T) {
		manager, _ := newManager(t)
		match, err := manager.NewMatch(ctx, "O")
		require.NoError(t, err)

		match, cell, err := manager.MakeBotMove(ctx, match.ID)

		require.NoError(t, err)
		assert.Equal(t, 4, cell)
		assert.True(t, match.IsHumanTurn())
	})

	t.Run("Error when it is the human's turn", func(t *testing.T) {
		manager, _ := newManager(t)
		match, err := manager.NewMatch(ctx, "X")
		require.NoError(t, err)

		_, _, err = manager.MakeBotMove(ctx, match.ID)

		assert.ErrorIs(t, err, apperror.ErrNotYourTurn)
	})

	t.Run("Error on finished match", func(t *testing.T) {
		board, err := entity.RestoreBoard([]entity.Move{
			{Cell: 0, Mark: entity.PlayerX},
			{Cell: 3, Mark: entity.PlayerO},
			{Cell: 1, Mark: entity.PlayerX},
			{Cell: 4, Mark: entity.PlayerO},
			{Cell: 2, Mark: entity.PlayerX},
		})
		require.NoError(t, err)

		matchRepo := &mockMatchRepo{}
		matchRepo.On("GetByID", mock.Anything, "123").Return(&entity.Match{
			ID:        "123",
			Board:     board,
			HumanMark: entity.PlayerX,
			BotMark:   entity.PlayerO,
			Turn:      entity.PlayerO,
		}, nil).Once()
		manager := NewMatchManager(newTestLogger(), matchRepo)

		_, _, err = manager.MakeBotMove(ctx, "123")

		assert.ErrorIs(t, err, apperror.ErrGameFinished)
	})

	t.Run("Error when saving fails", func(t *testing.T) {
		match, err := entity.NewMatch("123", entity.PlayerO)
		require.NoError(t, err)

		matchRepo := &mockMatchRepo{}
		matchRepo.On("GetByID", mock.Anything, "123").Return(match, nil).Once()
		matchRepo.On("CreateOrUpdate", mock.Anything, match).Return(errRedisDown).Once()
		manager := NewMatchManager(newTestLogger(), matchRepo)

		_, _, err = manager.MakeBotMove(ctx, "123")

		require.ErrorIs(t, err, errRedisDown)
		matchRepo.AssertExpectations(t)
	})
}

func TestMatchManager_FullMatch(t *testing.T) {
	ctx := context.Background()

	// Given: the human plays X and always takes the hinted move
	manager, matchRepo := newManager(t)
	match, err := manager.NewMatch(ctx, "X")
	require.NoError(t, err)

	for !match.IsFinished() {
		if match.IsHumanTurn() {
			cell, err := manager.Hint(ctx, match.ID)
			require.NoError(t, err)

			match, err = manager.MakeHumanMove(ctx, match.ID, cell)
			require.NoError(t, err)

			continue
		}

		match, _, err = manager.MakeBotMove(ctx, match.ID)
		require.NoError(t, err)
	}

	// Then: the match ended and is no longer stored
	assert.True(t, match.Status().IsTerminal())
	assert.Equal(t, entity.BoardSize, len(match.Board.History())+len(match.Board.PossibleMoves()))

	_, err = matchRepo.GetByID(ctx, match.ID)
	assert.ErrorIs(t, err, apperror.ErrMatchNotFound)
}

func TestMatchManager_Scores(t *testing.T) {
	ctx := context.Background()
	manager, _ := newManager(t)
	match, err := manager.NewMatch(ctx, "X")
	require.NoError(t, err)

	scores, err := manager.Scores(ctx, match.ID)

	require.NoError(t, err)
	assert.Len(t, scores, entity.BoardSize)
}

func TestMatchManager_AbandonMatch(t *testing.T) {
	ctx := context.Background()

	t.Run("Removes the match", func(t *testing.T) {
		manager, matchRepo := newManager(t)
		match, err := manager.NewMatch(ctx, "X")
		require.NoError(t, err)

		require.NoError(t, manager.AbandonMatch(ctx, match.ID))

		_, err = matchRepo.GetByID(ctx, match.ID)
		assert.ErrorIs(t, err, apperror.ErrMatchNotFound)
	})

	t.Run("Error on unknown match", func(t *testing.T) {
		manager, _ := newManager(t)

		err := manager.AbandonMatch(ctx, "missing")

		assert.ErrorIs(t, err, apperror.ErrMatchNotFound)
	})
}
