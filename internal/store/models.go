package store

import (
	"encoding/json"
	"fmt"
	"time"
)

type ContactMethod string

const (
	ContactWhatsApp  ContactMethod = "whatsapp"
	ContactTelegram  ContactMethod = "telegram"
	ContactEmail     ContactMethod = "email"
	ContactInstagram ContactMethod = "instagram"
	ContactLinkedIn  ContactMethod = "linkedin"
	ContactMessage   ContactMethod = "message"
	ContactCall      ContactMethod = "call"
)

// ContactMethods lists every accepted contact method in declaration order.
var ContactMethods = []ContactMethod{
	ContactWhatsApp,
	ContactTelegram,
	ContactEmail,
	ContactInstagram,
	ContactLinkedIn,
	ContactMessage,
	ContactCall,
}

func (c ContactMethod) Valid() bool {
	for _, m := range ContactMethods {
		if c == m {
			return true
		}
	}
	return false
}

func (c *ContactMethod) UnmarshalJSON(data []byte) error {
	return unmarshalEnum(data, c, "contact_method")
}

type Language string

const (
	LanguageEN Language = "en"
	LanguageES Language = "es"
	LanguagePT Language = "pt"
)

// DefaultLanguage is what the conversations table stores when no language is given.
const DefaultLanguage = LanguageEN

func (l Language) Valid() bool {
	switch l {
	case LanguageEN, LanguageES, LanguagePT:
		return true
	}
	return false
}

func (l *Language) UnmarshalJSON(data []byte) error {
	return unmarshalEnum(data, l, "language")
}

type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

func (s Sender) Valid() bool {
	return s == SenderUser || s == SenderBot
}

func (s *Sender) UnmarshalJSON(data []byte) error {
	return unmarshalEnum(data, s, "sender")
}

type enum interface {
	~string
	Valid() bool
}

// InvalidEnumError reports a value outside one of the closed enumerations.
type InvalidEnumError struct {
	Field string
	Value string
}

func (e *InvalidEnumError) Error() string {
	return fmt.Sprintf("invalid %s %q", e.Field, e.Value)
}

func unmarshalEnum[T enum](data []byte, dst *T, field string) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%s must be a string: %w", field, err)
	}
	v := T(raw)
	if !v.Valid() {
		return &InvalidEnumError{Field: field, Value: raw}
	}
	*dst = v
	return nil
}

type User struct {
	ID            int64         `json:"id" db:"id"`
	Name          string        `json:"name" db:"name"`
	ContactMethod ContactMethod `json:"contact_method" db:"contact_method"`
	ContactInfo   string        `json:"contact_info" db:"contact_info"`
}

type Conversation struct {
	ID        int64      `json:"id" db:"id"`
	UserID    int64      `json:"user_id" db:"user_id"`
	Language  Language   `json:"language" db:"language"`
	StartedAt time.Time  `json:"started_at" db:"started_at"`
	EndedAt   *time.Time `json:"ended_at" db:"ended_at"`
	Messages  []Message  `json:"messages" db:"-"`
}

type Message struct {
	ID             int64     `json:"id" db:"id"`
	ConversationID int64     `json:"conversation_id" db:"conversation_id"`
	Text           string    `json:"text" db:"text"`
	Sender         Sender    `json:"sender" db:"sender"`
	Timestamp      time.Time `json:"timestamp" db:"timestamp"`
}
