package app

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nhle/mailterm/internal/model"
)

func threeMessages() []model.EmailMessage {
	return []model.EmailMessage{
		{MessageID: "m0@example.com", Subject: "zero"},
		{MessageID: "m1@example.com", Subject: "one"},
		{MessageID: "m2@example.com", Subject: "two"},
	}
}

func TestIndexByID(t *testing.T) {
	msgs := threeMessages()

	require.Equal(t, 1, indexByID(msgs, "m1@example.com"))
	require.Equal(t, -1, indexByID(msgs, "missing@example.com"))
	require.Equal(t, -1, indexByID(nil, "m0@example.com"))
}

func TestRemoveAt(t *testing.T) {
	msgs := threeMessages()

	got := removeAt(msgs, 1)
	require.Len(t, got, 2)
	require.Equal(t, "m0@example.com", got[0].MessageID)
	require.Equal(t, "m2@example.com", got[1].MessageID)

	// Out of range leaves the slice alone.
	require.Len(t, removeAt(msgs, -1), 3)
	require.Len(t, removeAt(msgs, 3), 3)
}

func TestInsertAtRestoresOriginalOrder(t *testing.T) {
	original := threeMessages()

	// Optimistic delete of the middle message, then the server says no.
	removed := original[1]
	msgs := removeAt(original, 1)
	msgs = insertAt(msgs, 1, removed)

	require.Equal(t, original, msgs)
}

func TestInsertAtClampsIndex(t *testing.T) {
	msgs := threeMessages()
	extra := model.EmailMessage{MessageID: "m3@example.com"}

	front := insertAt(msgs, -5, extra)
	require.Equal(t, "m3@example.com", front[0].MessageID)

	back := insertAt(msgs, 99, extra)
	require.Equal(t, "m3@example.com", back[len(back)-1].MessageID)
}
