package bot

import (
	"context"
	"fmt"
	"time"

	"smmpanel/src/cache"
)

type step string

const (
	stepAwaitingLink         step = "awaiting_link"
	stepAwaitingQuantity     step = "awaiting_quantity"
	stepAwaitingConfirmation step = "awaiting_confirmation"
)

// conversation is the per-chat progress of the /order dialogue.
type conversation struct {
	Step     step   `json:"step"`
	Link     string `json:"link,omitempty"`
	Quantity int64  `json:"quantity,omitempty"`
}

type stateStore struct {
	store cache.Store
	ttl   time.Duration
}

func stateKey(chatID int64) string {
	return fmt.Sprintf("bot:state:%d", chatID)
}

func (s stateStore) load(ctx context.Context, chatID int64) (*conversation, error) {
	var conv conversation
	found, err := s.store.Get(ctx, stateKey(chatID), &conv)
	if err != nil || !found {
		return nil, err
	}
	return &conv, nil
}

func (s stateStore) save(ctx context.Context, chatID int64, conv conversation) error {
	return s.store.Set(ctx, stateKey(chatID), conv, s.ttl)
}

func (s stateStore) clear(ctx context.Context, chatID int64) error {
	return s.store.Delete(ctx, stateKey(chatID))
}
