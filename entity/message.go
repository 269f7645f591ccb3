package entity

import (
	"time"

	"github.com/habiliai/aurora/errors"
	"gorm.io/gorm"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one line of the dialogue log. Mood is only set on assistant messages.
type Message struct {
	gorm.Model

	Role    Role   `gorm:"index:idx_message_role;not null"`
	Content string `gorm:"type:text"`
	Mood    string
}

func NewUserMessage(content string, at time.Time) *Message {
	m := &Message{Role: RoleUser, Content: content}
	m.CreatedAt = at
	return m
}

func NewAssistantMessage(content, mood string, at time.Time) *Message {
	m := &Message{Role: RoleAssistant, Content: content, Mood: mood}
	m.CreatedAt = at
	return m
}

func (m *Message) Save(db *gorm.DB) error {
	return errors.Wrapf(db.Save(m).Error, "failed to save message")
}
