package callsession

import "github.com/jinzhu/copier"

// transcript is the append-only utterance log for one session. The k-th
// append always lands at index k-1 of every later snapshot: no reordering,
// no drops. Partial transcripts are filtered before they reach this type.
type transcript struct {
	messages []Message
}

func (t *transcript) append(message Message) {
	t.messages = append(t.messages, message)
}

func (t *transcript) len() int {
	return len(t.messages)
}

// snapshot returns the messages by value so downstream consumers observe a
// stable list even if more messages arrive after the copy is taken.
func (t *transcript) snapshot() []Message {
	messages := make([]Message, 0, len(t.messages))
	copier.Copy(&messages, t.messages)
	return messages
}
