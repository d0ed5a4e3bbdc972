package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(":memory:")
	require.NoError(t, err)
	return st
}

func TestCreateAndGetUser(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	created, err := st.CreateUser(ctx, "alice@example.com", "Alice")
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	got, err := st.UserByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "alice@example.com", got.Email)
	assert.Equal(t, "Alice", got.Name)
	assert.Empty(t, got.GoogleCalendarToken)
}

func TestUserByID_Missing(t *testing.T) {
	st := newTestStore(t)

	got, err := st.UserByID(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	_, err := st.CreateUser(ctx, "alice@example.com", "Alice")
	require.NoError(t, err)

	_, err = st.CreateUser(ctx, "alice@example.com", "Alice Again")
	assert.Error(t, err)
}

func TestMessages_OrderedWithTieBreak(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	user, err := st.CreateUser(ctx, "alice@example.com", "Alice")
	require.NoError(t, err)
	conv, err := st.CreateConversation(ctx, user.ID, "New Chat")
	require.NoError(t, err)

	// Messages saved back to back can land on the same timestamp;
	// insertion order must still hold.
	contents := []string{"first", "second", "third", "fourth"}
	roles := []string{"user", "assistant", "user", "assistant"}
	for i, c := range contents {
		_, err := st.SaveMessage(ctx, user.ID, conv.ID, roles[i], c)
		require.NoError(t, err)
	}

	msgs, err := st.Messages(ctx, conv.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 4)
	for i, c := range contents {
		assert.Equal(t, c, msgs[i].Content)
		assert.Equal(t, roles[i], msgs[i].Role)
	}
}

func TestMessages_ScopedByConversation(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	user, err := st.CreateUser(ctx, "alice@example.com", "Alice")
	require.NoError(t, err)
	convA, err := st.CreateConversation(ctx, user.ID, "A")
	require.NoError(t, err)
	convB, err := st.CreateConversation(ctx, user.ID, "B")
	require.NoError(t, err)

	_, err = st.SaveMessage(ctx, user.ID, convA.ID, "user", "in A")
	require.NoError(t, err)
	_, err = st.SaveMessage(ctx, user.ID, convB.ID, "user", "in B")
	require.NoError(t, err)

	msgs, err := st.Messages(ctx, convA.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "in A", msgs[0].Content)
}

func TestSaveMessage_BumpsConversationRecency(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	user, err := st.CreateUser(ctx, "alice@example.com", "Alice")
	require.NoError(t, err)
	older, err := st.CreateConversation(ctx, user.ID, "Older")
	require.NoError(t, err)
	newer, err := st.CreateConversation(ctx, user.ID, "Newer")
	require.NoError(t, err)

	// Touch the older conversation last; it should float to the top.
	time.Sleep(5 * time.Millisecond)
	_, err = st.SaveMessage(ctx, user.ID, older.ID, "user", "hello again")
	require.NoError(t, err)

	convs, err := st.Conversations(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, convs, 2)
	assert.Equal(t, older.ID, convs[0].ID)
	assert.Equal(t, newer.ID, convs[1].ID)
}

func TestConversations_ScopedByUser(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	alice, err := st.CreateUser(ctx, "alice@example.com", "Alice")
	require.NoError(t, err)
	bob, err := st.CreateUser(ctx, "bob@example.com", "Bob")
	require.NoError(t, err)

	_, err = st.CreateConversation(ctx, alice.ID, "Alice's chat")
	require.NoError(t, err)
	_, err = st.CreateConversation(ctx, bob.ID, "Bob's chat")
	require.NoError(t, err)

	convs, err := st.Conversations(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, convs, 1)
	assert.Equal(t, "Alice's chat", convs[0].Title)
}

func TestAppointments_DateFilter(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	day := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	appts := []Appointment{
		{UserID: "user-1", Title: "early", StartTime: day.Add(9 * time.Hour), EndTime: day.Add(10 * time.Hour)},
		{UserID: "user-1", Title: "late", StartTime: day.Add(16 * time.Hour), EndTime: day.Add(17 * time.Hour)},
		{UserID: "user-1", Title: "next day", StartTime: day.Add(33 * time.Hour), EndTime: day.Add(34 * time.Hour)},
		{UserID: "user-2", Title: "other user", StartTime: day.Add(9 * time.Hour), EndTime: day.Add(10 * time.Hour)},
	}
	for i := range appts {
		require.NoError(t, st.SaveAppointment(ctx, &appts[i]))
	}

	filtered, err := st.Appointments(ctx, "user-1", &day)
	require.NoError(t, err)
	require.Len(t, filtered, 2)
	assert.Equal(t, "early", filtered[0].Title)
	assert.Equal(t, "late", filtered[1].Title)

	all, err := st.Appointments(ctx, "user-1", nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestSaveAppointment_AssignsID(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	appt := &Appointment{
		UserID:    "user-1",
		Title:     "Dentist",
		StartTime: time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2024, 1, 15, 11, 0, 0, 0, time.UTC),
	}
	require.NoError(t, st.SaveAppointment(ctx, appt))

	assert.NotEmpty(t, appt.ID)
	assert.False(t, appt.CreatedAt.IsZero())
	assert.False(t, appt.Synced())
}

func TestAppointmentSynced(t *testing.T) {
	eventID := "evt-42"
	empty := ""

	tests := []struct {
		name string
		id   *string
		want bool
	}{
		{name: "nil", id: nil, want: false},
		{name: "empty", id: &empty, want: false},
		{name: "set", id: &eventID, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appt := Appointment{GoogleEventID: tt.id}
			assert.Equal(t, tt.want, appt.Synced())
		})
	}
}

func TestGoogleToken_RoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	user, err := st.CreateUser(ctx, "alice@example.com", "Alice")
	require.NoError(t, err)

	token, err := st.GoogleToken(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, token)

	require.NoError(t, st.SaveGoogleToken(ctx, user.ID, `{"access_token":"abc"}`))

	token, err = st.GoogleToken(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, `{"access_token":"abc"}`, token)
}

func TestSaveGoogleToken_UnknownUser(t *testing.T) {
	st := newTestStore(t)

	err := st.SaveGoogleToken(context.Background(), "nope", `{}`)
	assert.Error(t, err)
}

func TestGoogleToken_UnknownUser(t *testing.T) {
	st := newTestStore(t)

	token, err := st.GoogleToken(context.Background(), "nope")
	require.NoError(t, err)
	assert.Empty(t, token)
}
