package models

import "time"

// Message is a direct message between two registered users. Usernames
// are denormalized onto the row so conversations can be queried without
// joining users.
type Message struct {
	ID               string    `json:"id" gorm:"primaryKey"`
	SenderID         string    `json:"-" gorm:"not null"`
	ReceiverID       string    `json:"-" gorm:"not null"`
	SenderUsername   string    `json:"sender" gorm:"not null;index:idx_messages_sender_receiver,priority:1"`
	ReceiverUsername string    `json:"receiver" gorm:"not null;index:idx_messages_sender_receiver,priority:2"`
	Content          string    `json:"content"`
	IsRead           bool      `json:"read"`
	CreatedAt        time.Time `json:"timestamp"`
}
