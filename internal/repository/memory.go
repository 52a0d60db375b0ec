package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rocketscienceinc/tictactoe-bot/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-bot/internal/entity"
)

// memoryMatch keeps encoded matches so callers never share a board with the store.
type memoryMatch struct {
	mu      sync.RWMutex
	matches map[string][]byte
}

func NewInMemoryMatchRepository() MatchRepository {
	return &memoryMatch{
		matches: make(map[string][]byte),
	}
}

func (that *memoryMatch) CreateOrUpdate(_ context.Context, match *entity.Match) error {
	matchJSON, err := json.Marshal(match)
	if err != nil {
		return fmt.Errorf("could not marshal match: %w", err)
	}

	that.mu.Lock()
	that.matches[match.ID] = matchJSON
	that.mu.Unlock()

	return nil
}

func (that *memoryMatch) GetByID(_ context.Context, id string) (*entity.Match, error) {
	that.mu.RLock()
	matchJSON, ok := that.matches[id]
	that.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: id %s", apperror.ErrMatchNotFound, id)
	}

	var existingMatch entity.Match
	if err := json.Unmarshal(matchJSON, &existingMatch); err != nil {
		return nil, fmt.Errorf("failed to unmarshal match: %w", err)
	}

	return &existingMatch, nil
}

func (that *memoryMatch) DeleteByID(_ context.Context, id string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.matches[id]; !ok {
		return fmt.Errorf("%w: id %s", apperror.ErrMatchNotFound, id)
	}

	delete(that.matches, id)

	return nil
}
