// Package store implements persistence for users, conversations, chat
// messages, and appointments on top of GORM with a SQLite backend.
//
// Conversations and messages are append-only: rows are created and
// never mutated, except for the conversation's updated-at timestamp
// which bumps on every appended message and drives recency ordering.
// Message ordering within a conversation is timestamp-ascending with
// ties broken by insertion order; this ordering is the model's context
// window, so it must be stable.
//
// Every read and write is scoped by user id (and conversation id for
// messages); there is no cross-user visibility at this layer.
package store
