package chat

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/PauloMartins337/tnp-finance/ledger"
	"github.com/PauloMartins337/tnp-finance/models"
)

// Service is the storage surface for direct messages between registered
// users: send, conversation history, unread counts and read flags.
// Message transport/rendering lives in the client; this service only
// owns the rows and the change notifications.
type Service struct {
	storage  Storage
	notifier Notifier
	now      func() time.Time
}

func NewService(storage Storage, notifier Notifier) *Service {
	if notifier == nil {
		notifier = NoopNotifier{}
	}
	return &Service{storage: storage, notifier: notifier, now: time.Now}
}

// Send persists a message from the session user to the named receiver.
// The receiver must exist; usernames are denormalized onto the row.
func (s *Service) Send(ctx context.Context, session ledger.Session, receiver, content string) (*models.Message, error) {
	if !session.Authenticated() {
		return nil, ledger.ErrUnauthenticated
	}
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: content", ledger.ErrMissingField)
	}

	to, err := s.storage.UserByUsername(ctx, strings.TrimSpace(receiver))
	if err != nil {
		if errors.Is(err, ErrReceiverNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ledger.ErrStorageUnavailable, err)
	}

	msg := &models.Message{
		ID:               uuid.NewString(),
		SenderID:         session.UserID,
		ReceiverID:       to.Id,
		SenderUsername:   session.Username,
		ReceiverUsername: to.Username,
		Content:          content,
		CreatedAt:        s.now(),
	}
	if err := s.storage.InsertMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ledger.ErrStorageUnavailable, err)
	}
	s.notify(ctx, "insert")
	return msg, nil
}

// Conversation returns the full exchange between the session user and
// peer, oldest first.
func (s *Service) Conversation(ctx context.Context, session ledger.Session, peer string) ([]models.Message, error) {
	if !session.Authenticated() {
		return nil, ledger.ErrUnauthenticated
	}
	msgs, err := s.storage.Conversation(ctx, session.Username, strings.TrimSpace(peer))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ledger.ErrStorageUnavailable, err)
	}
	return msgs, nil
}

// UnreadCount reports how many messages from sender to the session user
// are still unread.
func (s *Service) UnreadCount(ctx context.Context, session ledger.Session, sender string) (int64, error) {
	if !session.Authenticated() {
		return 0, ledger.ErrUnauthenticated
	}
	n, err := s.storage.CountUnread(ctx, session.Username, strings.TrimSpace(sender))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ledger.ErrStorageUnavailable, err)
	}
	return n, nil
}

// MarkRead flags everything the sender sent to the session user as
// read. A notification is published only when rows actually changed.
func (s *Service) MarkRead(ctx context.Context, session ledger.Session, sender string) error {
	if !session.Authenticated() {
		return ledger.ErrUnauthenticated
	}
	changed, err := s.storage.MarkRead(ctx, session.Username, strings.TrimSpace(sender))
	if err != nil {
		return fmt.Errorf("%w: %v", ledger.ErrStorageUnavailable, err)
	}
	if changed > 0 {
		s.notify(ctx, "update")
	}
	return nil
}

// WaitForChange blocks until a messages-table change event arrives or
// ctx is done. Callers re-query on a change; no delta is delivered.
func (s *Service) WaitForChange(ctx context.Context) (string, error) {
	return s.notifier.Wait(ctx)
}

// notify is best-effort: a lost notification only delays the next
// client re-query, it never fails the write.
func (s *Service) notify(ctx context.Context, event string) {
	if err := s.notifier.Publish(ctx, event); err != nil {
		log.Printf("chat: publish %s notification failed: %v", event, err)
	}
}
