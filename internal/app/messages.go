package app

import "github.com/nhle/mailterm/internal/model"

// indexByID returns the position of the message with the given ID, or -1.
func indexByID(msgs []model.EmailMessage, messageID string) int {
	for i := range msgs {
		if msgs[i].MessageID == messageID {
			return i
		}
	}
	return -1
}

// removeAt returns msgs without the element at i.
func removeAt(msgs []model.EmailMessage, i int) []model.EmailMessage {
	if i < 0 || i >= len(msgs) {
		return msgs
	}
	out := make([]model.EmailMessage, 0, len(msgs)-1)
	out = append(out, msgs[:i]...)
	out = append(out, msgs[i+1:]...)
	return out
}

// insertAt returns msgs with em inserted at i, clamped to the valid range.
// Used to restore a message at its original position after a failed delete.
func insertAt(msgs []model.EmailMessage, i int, em model.EmailMessage) []model.EmailMessage {
	if i < 0 {
		i = 0
	}
	if i > len(msgs) {
		i = len(msgs)
	}
	out := make([]model.EmailMessage, 0, len(msgs)+1)
	out = append(out, msgs[:i]...)
	out = append(out, em)
	out = append(out, msgs[i:]...)
	return out
}
