package triage

import (
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
)

const defaultSweepInterval = 5 * time.Minute

type conversationState struct {
	transcript []string
	stability  *StabilityRecord
	expiresAt  time.Time
}

// ConversationStore holds per-conversation symptom transcripts and stability
// records for the life of the process. Entries expire ttl after their last
// write; a background sweeper reclaims them so the map cannot grow without
// bound. Distinct conversation ids are independent; concurrent turns for the
// same id are last-writer-wins, callers are expected to serialize them.
type ConversationStore struct {
	mu   sync.Mutex
	data map[int64]*conversationState
	ttl  time.Duration
	node *snowflake.Node
	stop chan struct{}
	once sync.Once
}

func NewConversationStore(ttl time.Duration, nodeID int64) (*ConversationStore, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, err
	}
	s := &ConversationStore{
		data: make(map[int64]*conversationState),
		ttl:  ttl,
		node: node,
		stop: make(chan struct{}),
	}
	go s.sweep()
	return s, nil
}

// MintID generates a new conversation id when the caller did not supply one.
// Snowflake ids are time-ordered and collision-resistant, unlike the naive
// current-timestamp fallback.
func (s *ConversationStore) MintID() int64 {
	return s.node.Generate().Int64()
}

// Append adds a user utterance to the conversation transcript and returns the
// full transcript so far.
func (s *ConversationStore) Append(id int64, message string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.live(id)
	if st == nil {
		st = &conversationState{}
		s.data[id] = st
	}
	st.transcript = append(st.transcript, message)
	st.expiresAt = time.Now().Add(s.ttl)

	out := make([]string, len(st.transcript))
	copy(out, st.transcript)
	return out
}

// Stability returns the conversation's stability record, or false when no
// turn has been scored yet.
func (s *ConversationStore) Stability(id int64) (StabilityRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.live(id)
	if st == nil || st.stability == nil {
		return StabilityRecord{}, false
	}
	return *st.stability, true
}

// SetStability overwrites the conversation's stability record.
func (s *ConversationStore) SetStability(id int64, rec StabilityRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.live(id)
	if st == nil {
		st = &conversationState{}
		s.data[id] = st
	}
	st.stability = &rec
	st.expiresAt = time.Now().Add(s.ttl)
}

// Delete drops all state for a conversation.
func (s *ConversationStore) Delete(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
}

// Close stops the background sweeper.
func (s *ConversationStore) Close() {
	s.once.Do(func() { close(s.stop) })
}

// live returns the entry for id, lazily evicting it when expired.
// Caller must hold mu.
func (s *ConversationStore) live(id int64) *conversationState {
	st, ok := s.data[id]
	if !ok {
		return nil
	}
	if time.Now().After(st.expiresAt) {
		delete(s.data, id)
		return nil
	}
	return st
}

func (s *ConversationStore) sweep() {
	ticker := time.NewTicker(defaultSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case now := <-ticker.C:
			s.mu.Lock()
			for id, st := range s.data {
				if now.After(st.expiresAt) {
					delete(s.data, id)
				}
			}
			s.mu.Unlock()
		}
	}
}
