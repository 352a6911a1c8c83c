package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
)

func TestSuggestWhenDisabled(t *testing.T) {
	s := NewStore()

	_, err := s.Suggest("Song X", "Artist Y", "conn-1")
	if !errors.Is(err, ErrVotingDisabled) {
		t.Fatalf("Suggest() error = %v, want ErrVotingDisabled", err)
	}
	if s.SongCount() != 0 {
		t.Errorf("SongCount() = %d, want 0", s.SongCount())
	}
}

func TestSuggestAndDuplicateDetection(t *testing.T) {
	s := NewStore()
	s.SetVotingEnabled(true)

	sg, err := s.Suggest("Song X", "Artist Y", "conn-1")
	if err != nil {
		t.Fatalf("Suggest() error = %v", err)
	}
	if sg.ID == "" {
		t.Error("Suggest() returned empty song ID")
	}
	if sg.Votes != 0 {
		t.Errorf("new song Votes = %d, want 0", sg.Votes)
	}
	if sg.AddedBy != "conn-1" {
		t.Errorf("AddedBy = %q, want %q", sg.AddedBy, "conn-1")
	}

	tests := []struct {
		name   string
		title  string
		artist string
	}{
		{"exact match", "Song X", "Artist Y"},
		{"lowercase", "song x", "artist y"},
		{"uppercase", "SONG X", "ARTIST Y"},
		{"mixed case", "sOnG x", "aRtIsT y"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Suggest(tt.title, tt.artist, "conn-2")
			if !errors.Is(err, ErrDuplicateSong) {
				t.Errorf("Suggest(%q, %q) error = %v, want ErrDuplicateSong", tt.title, tt.artist, err)
			}
		})
	}

	if s.SongCount() != 1 {
		t.Errorf("SongCount() = %d, want 1", s.SongCount())
	}

	// Same title with a different artist is a different song
	if _, err := s.Suggest("Song X", "Artist Z", "conn-2"); err != nil {
		t.Errorf("Suggest() with different artist error = %v", err)
	}
}

func TestVoteLifecycle(t *testing.T) {
	s := NewStore()
	s.SetVotingEnabled(true)

	sg, err := s.Suggest("Song X", "Artist Y", "conn-1")
	if err != nil {
		t.Fatalf("Suggest() error = %v", err)
	}

	voted, err := s.Vote(sg.ID, "conn-2")
	if err != nil {
		t.Fatalf("Vote() error = %v", err)
	}
	if voted.Votes != 1 {
		t.Errorf("Votes = %d, want 1", voted.Votes)
	}

	// Second vote by the same connection changes nothing
	_, err = s.Vote(sg.ID, "conn-2")
	if !errors.Is(err, ErrAlreadyVoted) {
		t.Fatalf("second Vote() error = %v, want ErrAlreadyVoted", err)
	}
	if got := s.Snapshot()[0].Votes; got != 1 {
		t.Errorf("Votes after double vote = %d, want 1", got)
	}

	// A different connection can still vote
	voted, err = s.Vote(sg.ID, "conn-3")
	if err != nil {
		t.Fatalf("Vote() by second voter error = %v", err)
	}
	if voted.Votes != 2 {
		t.Errorf("Votes = %d, want 2", voted.Votes)
	}
}

func TestVoteErrors(t *testing.T) {
	s := NewStore()

	_, err := s.Vote("nonexistent", "conn-1")
	if !errors.Is(err, ErrVotingDisabled) {
		t.Errorf("Vote() while disabled error = %v, want ErrVotingDisabled", err)
	}

	s.SetVotingEnabled(true)
	_, err = s.Vote("nonexistent", "conn-1")
	if !errors.Is(err, ErrSongNotFound) {
		t.Errorf("Vote() for unknown song error = %v, want ErrSongNotFound", err)
	}
}

func TestRemove(t *testing.T) {
	s := NewStore()
	s.SetVotingEnabled(true)

	sg, _ := s.Suggest("Song X", "Artist Y", "conn-1")

	if err := s.Remove(sg.ID); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if s.SongCount() != 0 {
		t.Errorf("SongCount() = %d, want 0", s.SongCount())
	}

	if err := s.Remove(sg.ID); !errors.Is(err, ErrSongNotFound) {
		t.Errorf("Remove() of missing song error = %v, want ErrSongNotFound", err)
	}

	// Removal frees the (title, artist) pair for re-suggestion
	if _, err := s.Suggest("Song X", "Artist Y", "conn-2"); err != nil {
		t.Errorf("Suggest() after removal error = %v", err)
	}
}

func TestSnapshotOrdering(t *testing.T) {
	s := NewStore()
	s.SetVotingEnabled(true)

	first, _ := s.Suggest("First", "A", "conn-1")
	second, _ := s.Suggest("Second", "B", "conn-1")
	third, _ := s.Suggest("Third", "C", "conn-1")

	// Third gets two votes, second gets one
	s.Vote(third.ID, "v1")
	s.Vote(third.ID, "v2")
	s.Vote(second.ID, "v1")

	snapshot := s.Snapshot()
	if len(snapshot) != 3 {
		t.Fatalf("Snapshot() len = %d, want 3", len(snapshot))
	}

	wantOrder := []string{third.ID, second.ID, first.ID}
	for i, want := range wantOrder {
		if snapshot[i].ID != want {
			t.Errorf("snapshot[%d].ID = %s, want %s", i, snapshot[i].ID, want)
		}
	}
}

func TestSnapshotTiesKeepSuggestionOrder(t *testing.T) {
	s := NewStore()
	s.SetVotingEnabled(true)

	var ids []string
	for i := 0; i < 5; i++ {
		sg, err := s.Suggest(fmt.Sprintf("Song %d", i), "Artist", "conn-1")
		if err != nil {
			t.Fatalf("Suggest() error = %v", err)
		}
		ids = append(ids, sg.ID)
	}

	snapshot := s.Snapshot()
	for i, want := range ids {
		if snapshot[i].ID != want {
			t.Errorf("snapshot[%d].ID = %s, want %s", i, snapshot[i].ID, want)
		}
	}
}

func TestSnapshotOmitsVoters(t *testing.T) {
	s := NewStore()
	s.SetVotingEnabled(true)

	sg, _ := s.Suggest("Song X", "Artist Y", "conn-1")
	s.Vote(sg.ID, "conn-2")

	raw, err := json.Marshal(s.Snapshot())
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if strings.Contains(string(raw), "voters") {
		t.Errorf("snapshot JSON exposes voters: %s", raw)
	}
	if strings.Contains(string(raw), "conn-2") {
		t.Errorf("snapshot JSON exposes a voter's connection ID: %s", raw)
	}
}

func TestVotesMatchVoterSet(t *testing.T) {
	s := NewStore()
	s.SetVotingEnabled(true)

	sg, _ := s.Suggest("Song X", "Artist Y", "conn-1")
	for i := 0; i < 10; i++ {
		s.Vote(sg.ID, fmt.Sprintf("voter-%d", i))
	}
	// Repeats must not skew the count
	for i := 0; i < 10; i++ {
		s.Vote(sg.ID, fmt.Sprintf("voter-%d", i))
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, internal := range s.songs {
		if view := internal.view(); view.Votes != len(internal.voters) {
			t.Errorf("Votes = %d, voters = %d, must be equal", view.Votes, len(internal.voters))
		}
	}
}

func TestConcurrentVotesNoLostUpdates(t *testing.T) {
	s := NewStore()
	s.SetVotingEnabled(true)

	sg, _ := s.Suggest("Song X", "Artist Y", "conn-1")

	const voters = 50
	var wg sync.WaitGroup
	for i := 0; i < voters; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			if _, err := s.Vote(sg.ID, fmt.Sprintf("voter-%d", n)); err != nil {
				t.Errorf("Vote() error = %v", err)
			}
		}(i)
	}
	wg.Wait()

	if got := s.Snapshot()[0].Votes; got != voters {
		t.Errorf("Votes = %d, want %d", got, voters)
	}
}

func TestConcurrentSuggestKeepsUniqueness(t *testing.T) {
	s := NewStore()
	s.SetVotingEnabled(true)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			s.Suggest("Same Song", "Same Artist", fmt.Sprintf("conn-%d", n))
		}(i)
	}
	wg.Wait()

	if s.SongCount() != 1 {
		t.Errorf("SongCount() = %d, want 1 despite concurrent duplicate suggestions", s.SongCount())
	}
}
