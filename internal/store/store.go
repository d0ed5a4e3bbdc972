package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Store wraps the GORM connection and exposes the repository
// operations the rest of the application consumes.
type Store struct {
	db *gorm.DB
}

// Open opens (or creates) the SQLite database at path and migrates
// the schema. Use ":memory:" for an ephemeral database in tests.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}

	if err := db.AutoMigrate(&User{}, &Conversation{}, &Message{}, &Appointment{}); err != nil {
		return nil, fmt.Errorf("store: migrate: %w", err)
	}

	return &Store{db: db}, nil
}

// CreateUser inserts a new user and returns it.
func (s *Store) CreateUser(ctx context.Context, email, name string) (*User, error) {
	user := &User{
		ID:        uuid.NewString(),
		Email:     email,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, fmt.Errorf("store: create user: %w", err)
	}
	return user, nil
}

// UserByID returns the user with the given id, or nil when absent.
func (s *Store) UserByID(ctx context.Context, userID string) (*User, error) {
	var user User
	err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: get user: %w", err)
	}
	return &user, nil
}

// CreateConversation starts a new conversation for the user.
func (s *Store) CreateConversation(ctx context.Context, userID, title string) (*Conversation, error) {
	now := time.Now().UTC()
	conv := &Conversation{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.db.WithContext(ctx).Create(conv).Error; err != nil {
		return nil, fmt.Errorf("store: create conversation: %w", err)
	}
	return conv, nil
}

// Conversations returns the user's conversations, most recently
// updated first.
func (s *Store) Conversations(ctx context.Context, userID string) ([]Conversation, error) {
	var convs []Conversation
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&convs).Error
	if err != nil {
		return nil, fmt.Errorf("store: list conversations: %w", err)
	}
	return convs, nil
}

// SaveMessage appends a message to a conversation and bumps the
// conversation's updated-at timestamp.
func (s *Store) SaveMessage(ctx context.Context, userID, conversationID, role, content string) (*Message, error) {
	now := time.Now().UTC()
	msg := &Message{
		ID:             uuid.NewString(),
		ConversationID: conversationID,
		UserID:         userID,
		Role:           role,
		Content:        content,
		Timestamp:      now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(msg).Error; err != nil {
			return err
		}
		return tx.Model(&Conversation{}).
			Where("id = ?", conversationID).
			Update("updated_at", now).Error
	})
	if err != nil {
		return nil, fmt.Errorf("store: save message: %w", err)
	}
	return msg, nil
}

// Messages returns the conversation's messages in context order:
// timestamp ascending, insertion order breaking ties.
func (s *Store) Messages(ctx context.Context, conversationID string) ([]Message, error) {
	var msgs []Message
	err := s.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("timestamp ASC, seq ASC").
		Find(&msgs).Error
	if err != nil {
		return nil, fmt.Errorf("store: list messages: %w", err)
	}
	return msgs, nil
}

// SaveAppointment inserts a new appointment row, assigning its id and
// created-at timestamp.
func (s *Store) SaveAppointment(ctx context.Context, appt *Appointment) error {
	if appt.ID == "" {
		appt.ID = uuid.NewString()
	}
	if appt.CreatedAt.IsZero() {
		appt.CreatedAt = time.Now().UTC()
	}
	if err := s.db.WithContext(ctx).Create(appt).Error; err != nil {
		return fmt.Errorf("store: save appointment: %w", err)
	}
	return nil
}

// Appointments returns the user's appointments ordered by start time.
// When date is non-nil, only appointments starting on that calendar
// day (UTC) are returned.
func (s *Store) Appointments(ctx context.Context, userID string, date *time.Time) ([]Appointment, error) {
	q := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if date != nil {
		dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
		q = q.Where("start_time >= ? AND start_time < ?", dayStart, dayStart.Add(24*time.Hour))
	}

	var appts []Appointment
	if err := q.Order("start_time ASC").Find(&appts).Error; err != nil {
		return nil, fmt.Errorf("store: list appointments: %w", err)
	}
	return appts, nil
}

// SaveGoogleToken stores the user's Google OAuth token JSON.
func (s *Store) SaveGoogleToken(ctx context.Context, userID, tokenJSON string) error {
	res := s.db.WithContext(ctx).Model(&User{}).
		Where("id = ?", userID).
		Update("google_calendar_token", tokenJSON)
	if res.Error != nil {
		return fmt.Errorf("store: save google token: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("store: save google token: user %s not found", userID)
	}
	return nil
}

// GoogleToken returns the user's stored Google OAuth token JSON, or
// an empty string when the user never connected their calendar.
func (s *Store) GoogleToken(ctx context.Context, userID string) (string, error) {
	var user User
	err := s.db.WithContext(ctx).Select("google_calendar_token").First(&user, "id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("store: get google token: %w", err)
	}
	return user.GoogleCalendarToken, nil
}
