package conversation

import (
	"context"
	"fmt"
	"time"

	"batch_txt_bot/src/storage"

	"github.com/bytedance/sonic"
)

// Session is one live conversation. Stage holds exactly the fields valid in
// State; its concrete type is decided by the flow.
type Session struct {
	Key       string
	Flow      string
	State     State
	RunID     string
	Stage     any
	UpdatedAt time.Time
}

// SessionKey scopes a conversation to one user in one chat
func SessionKey(chatID, userID int64) string {
	return fmt.Sprintf("%d:%d", chatID, userID)
}

// StageDecoder turns a stored payload back into the flow's stage value
type StageDecoder func(flow string, state State, payload []byte) (any, error)

// Repository maps sessions onto storage records. Every save refreshes the TTL,
// so a session expires after ttl without a turn.
type Repository struct {
	store  storage.Store
	ttl    time.Duration
	decode StageDecoder
}

func NewRepository(store storage.Store, ttl time.Duration, decode StageDecoder) *Repository {
	return &Repository{store: store, ttl: ttl, decode: decode}
}

// Load returns storage.ErrNotFound when the key has no live session
func (r *Repository) Load(ctx context.Context, key string) (*Session, error) {
	rec, err := r.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	stage, err := r.decode(rec.Flow, State(rec.State), rec.Payload)
	if err != nil {
		return nil, fmt.Errorf("decode stage %s/%s: %w", rec.Flow, rec.State, err)
	}

	return &Session{
		Key:       rec.Key,
		Flow:      rec.Flow,
		State:     State(rec.State),
		RunID:     rec.RunID,
		Stage:     stage,
		UpdatedAt: rec.UpdatedAt,
	}, nil
}

func (r *Repository) Save(ctx context.Context, s *Session) error {
	payload, err := sonic.Marshal(s.Stage)
	if err != nil {
		return fmt.Errorf("encode stage %s/%s: %w", s.Flow, s.State, err)
	}

	return r.store.Put(ctx, &storage.Record{
		Key:     s.Key,
		Flow:    s.Flow,
		State:   string(s.State),
		RunID:   s.RunID,
		Payload: payload,
	}, r.ttl)
}

func (r *Repository) Delete(ctx context.Context, key string) error {
	return r.store.Delete(ctx, key)
}
