// Package session holds the process-wide voting state: the enabled flag and
// the suggested songs with their vote ledgers. The Store is the single source
// of truth; every mutation is all-or-nothing under one mutex, and the voter
// ledger never leaves this package.
package session

import (
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Error messages are the exact strings clients display, so they double as the
// wire contract for the "error" event.
var (
	ErrVotingDisabled = errors.New("Voting system is currently disabled")
	ErrDuplicateSong  = errors.New("This song has already been suggested")
	ErrSongNotFound   = errors.New("Song not found")
	ErrAlreadyVoted   = errors.New("You have already voted for this song")
)

// Song is the externally visible view of a suggested song. Vote counts are
// derived from the internal voter ledger, which is deliberately absent here.
type Song struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Artist  string `json:"artist"`
	Votes   int    `json:"votes"`
	AddedBy string `json:"addedBy"`
}

// song is the internal record. voters maps connection IDs to their cast vote;
// the public vote count is always len(voters).
type song struct {
	id      string
	title   string
	artist  string
	addedBy string
	voters  map[string]struct{}
	seq     uint64
}

// Store is the in-memory voting state. It is safe for concurrent use, though
// the broker additionally serializes all mutations through its event loop.
// State lives exactly as long as the process; there is no persistence.
type Store struct {
	mu            sync.RWMutex
	votingEnabled bool
	songs         map[string]*song
	nextSeq       uint64
}

// NewStore creates an empty Store with voting disabled.
func NewStore() *Store {
	return &Store{
		songs: make(map[string]*song),
	}
}

// VotingEnabled reports whether suggestions and votes are currently accepted.
func (s *Store) VotingEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.votingEnabled
}

// SetVotingEnabled toggles the voting system on or off.
func (s *Store) SetVotingEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.votingEnabled = enabled
}

// Suggest adds a new song suggested by the given connection. It fails when
// voting is disabled or when a song with the same title and artist
// (case-insensitively) already exists.
func (s *Store) Suggest(title, artist, addedBy string) (Song, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.votingEnabled {
		return Song{}, ErrVotingDisabled
	}

	for _, existing := range s.songs {
		if strings.EqualFold(existing.title, title) && strings.EqualFold(existing.artist, artist) {
			return Song{}, ErrDuplicateSong
		}
	}

	sg := &song{
		id:      uuid.NewString(),
		title:   title,
		artist:  artist,
		addedBy: addedBy,
		voters:  make(map[string]struct{}),
		seq:     s.nextSeq,
	}
	s.nextSeq++
	s.songs[sg.id] = sg

	return sg.view(), nil
}

// Vote records a vote by voterID for the given song. Each connection may vote
// at most once per song; a second attempt fails without changing state.
func (s *Store) Vote(songID, voterID string) (Song, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.votingEnabled {
		return Song{}, ErrVotingDisabled
	}

	sg, ok := s.songs[songID]
	if !ok {
		return Song{}, ErrSongNotFound
	}

	if _, voted := sg.voters[voterID]; voted {
		return Song{}, ErrAlreadyVoted
	}

	sg.voters[voterID] = struct{}{}
	return sg.view(), nil
}

// Remove deletes a song. It returns ErrSongNotFound when the song does not
// exist so the caller can tell whether anything changed.
func (s *Store) Remove(songID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.songs[songID]; !ok {
		return ErrSongNotFound
	}
	delete(s.songs, songID)
	return nil
}

// Snapshot returns all songs ordered by vote count, highest first. Songs with
// equal votes keep suggestion order. The voter ledger is stripped.
func (s *Store) Snapshot() []Song {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]Song, 0, len(s.songs))
	seqs := make(map[string]uint64, len(s.songs))
	for _, sg := range s.songs {
		list = append(list, sg.view())
		seqs[sg.id] = sg.seq
	}

	sort.Slice(list, func(i, j int) bool {
		if list[i].Votes != list[j].Votes {
			return list[i].Votes > list[j].Votes
		}
		return seqs[list[i].ID] < seqs[list[j].ID]
	})

	return list
}

// SongCount returns the number of suggested songs.
func (s *Store) SongCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.songs)
}

func (sg *song) view() Song {
	return Song{
		ID:      sg.id,
		Title:   sg.title,
		Artist:  sg.artist,
		Votes:   len(sg.voters),
		AddedBy: sg.addedBy,
	}
}
