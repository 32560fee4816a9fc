package chat

import (
	"context"
	"sync"

	"github.com/PauloMartins337/tnp-finance/models"
)

// MemoryStorage is an in-process Storage used by tests.
type MemoryStorage struct {
	mu       sync.Mutex
	users    map[string]models.User // keyed by username
	messages []models.Message
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{users: make(map[string]models.User)}
}

// AddUser registers a user the storage can resolve as a receiver.
func (m *MemoryStorage) AddUser(user models.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.Username] = user
}

func (m *MemoryStorage) UserByUsername(_ context.Context, username string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[username]
	if !ok {
		return nil, ErrReceiverNotFound
	}
	return &u, nil
}

func (m *MemoryStorage) InsertMessage(_ context.Context, msg *models.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, *msg)
	return nil
}

func (m *MemoryStorage) Conversation(_ context.Context, a, b string) ([]models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Message
	for _, msg := range m.messages {
		if (msg.SenderUsername == a && msg.ReceiverUsername == b) ||
			(msg.SenderUsername == b && msg.ReceiverUsername == a) {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (m *MemoryStorage) CountUnread(_ context.Context, receiver, sender string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, msg := range m.messages {
		if msg.ReceiverUsername == receiver && msg.SenderUsername == sender && !msg.IsRead {
			n++
		}
	}
	return n, nil
}

func (m *MemoryStorage) MarkRead(_ context.Context, receiver, sender string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var changed int64
	for i := range m.messages {
		msg := &m.messages[i]
		if msg.ReceiverUsername == receiver && msg.SenderUsername == sender && !msg.IsRead {
			msg.IsRead = true
			changed++
		}
	}
	return changed, nil
}
