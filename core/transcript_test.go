package callsession

import (
	"testing"

	"github.com/voxprep/interview-core/core/events"
)

func TestAppendOrderEqualsSnapshotOrder(t *testing.T) {
	log := transcript{}
	log.append(Message{Role: events.RoleAssistant, Content: "A"})
	log.append(Message{Role: events.RoleUser, Content: "B"})
	log.append(Message{Role: events.RoleAssistant, Content: "C"})

	snapshot := log.snapshot()
	if len(snapshot) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(snapshot))
	}
	for i, want := range []string{"A", "B", "C"} {
		if snapshot[i].Content != want {
			t.Fatalf("expected message %d to be %q, got %q", i, want, snapshot[i].Content)
		}
	}
}

func TestSnapshotIsStableAgainstLaterAppends(t *testing.T) {
	log := transcript{}
	log.append(Message{Role: events.RoleUser, Content: "first"})

	snapshot := log.snapshot()
	log.append(Message{Role: events.RoleUser, Content: "second"})

	if len(snapshot) != 1 {
		t.Fatalf("expected snapshot to keep 1 message, got %d", len(snapshot))
	}
	if log.len() != 2 {
		t.Fatalf("expected live transcript to hold 2 messages, got %d", log.len())
	}
}

func TestSnapshotOfEmptyTranscript(t *testing.T) {
	log := transcript{}
	if got := log.snapshot(); len(got) != 0 {
		t.Fatalf("expected empty snapshot, got %v", got)
	}
}
