package store

import "time"

// User is an account holder. GoogleCalendarToken carries the OAuth
// token JSON when the user has connected their calendar, empty
// otherwise.
type User struct {
	ID                  string `gorm:"primaryKey;size:36"`
	Email               string `gorm:"uniqueIndex;size:255"`
	Name                string `gorm:"size:255"`
	GoogleCalendarToken string `gorm:"type:text"`
	CreatedAt           time.Time
}

// Conversation groups the messages of one chat thread. UpdatedAt bumps
// on every appended message and is used only for recency ordering.
type Conversation struct {
	ID        string `gorm:"primaryKey;size:36"`
	UserID    string `gorm:"size:36;index"`
	Title     string `gorm:"size:255"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Message is one entry of a conversation's append-only log. Seq is an
// auto-incrementing row id used as the tie-breaker when two messages
// share a timestamp.
type Message struct {
	Seq            uint64 `gorm:"primaryKey;autoIncrement"`
	ID             string `gorm:"uniqueIndex;size:36"`
	ConversationID string `gorm:"size:36;index:idx_conversation_time"`
	UserID         string `gorm:"size:36;index"`
	Role           string `gorm:"size:16"` // "user" or "assistant"
	Content        string `gorm:"type:text"`
	Timestamp      time.Time `gorm:"index:idx_conversation_time"`
}

// Appointment is the local, authoritative record of a booking. A
// non-nil GoogleEventID means the appointment is synced with the
// external calendar; nil means local-only.
type Appointment struct {
	ID            string `gorm:"primaryKey;size:36"`
	UserID        string `gorm:"size:36;index"`
	Title         string `gorm:"size:255"`
	Description   string `gorm:"type:text"`
	StartTime     time.Time `gorm:"index"`
	EndTime       time.Time
	GoogleEventID *string `gorm:"size:255"`
	CreatedAt     time.Time
}

// Synced reports whether the appointment has an external calendar
// counterpart.
func (a *Appointment) Synced() bool {
	return a.GoogleEventID != nil && *a.GoogleEventID != ""
}
