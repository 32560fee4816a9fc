package chat

import (
	"context"
	"errors"

	"github.com/PauloMartins337/tnp-finance/models"
)

// ErrReceiverNotFound is returned when a message names a recipient that
// is not a registered user.
var ErrReceiverNotFound = errors.New("receiver not found")

// Storage is the relational capability set the chat service depends on.
type Storage interface {
	UserByUsername(ctx context.Context, username string) (*models.User, error)
	InsertMessage(ctx context.Context, msg *models.Message) error
	// Conversation returns all messages exchanged between the two
	// usernames, in either direction, ordered by time ascending.
	Conversation(ctx context.Context, a, b string) ([]models.Message, error)
	CountUnread(ctx context.Context, receiver, sender string) (int64, error)
	// MarkRead flags every unread message from sender to receiver as
	// read and reports how many rows changed.
	MarkRead(ctx context.Context, receiver, sender string) (int64, error)
}
