package game

import (
	"errors"
	"math/rand"
)

// Round-phase violations are dropped silently by the dispatcher; the errors
// exist so callers can branch without broadcasting anything.
var (
	ErrNotInCluePhase = errors.New("clue submitted outside clue phase")
	ErrInactivePlayer = errors.New("player is inactive")
	ErrNotYourTurn    = errors.New("not this player's turn")
)

// RoundStart is produced exactly once per round, by the word submission that
// completes the set. Players are the active players in turn order; exactly
// one has Traitor set.
type RoundStart struct {
	ChosenWord string
	Players    []RoundPlayer
	Total      int
}

// ClueAdvance reports the result of a clue submission: either the next turn
// (Next, Turn, Total) or, when Done, the full clue list for the vote.
type ClueAdvance struct {
	Done  bool
	Turn  int
	Total int
	Next  RoundPlayer
	Clues []string
}

// VoteOutcome reports a recorded vote. Done flips when the final active
// player has voted; Votes and VoteCounts are copies safe to broadcast.
type VoteOutcome struct {
	Done       bool
	Votes      map[string]string
	VoteCounts map[string]int
}

// SubmitWord records (or overwrites) the player's word for the round being
// collected. When every active player has submitted and at least
// MinPlayersToStart are active, the round launches: a word is drawn uniformly
// from the submissions, one active player becomes the traitor, and clue
// collection begins at turn 0. The launch decision and the phase flip happen
// in one critical section, so the round starts exactly once.
func (r *Room) SubmitWord(playerID, word string) (string, *RoundStart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := r.findLocked(playerID)
	if p == nil {
		return "", nil, ErrPlayerNotFound
	}
	p.word = &word

	active := r.activePlayersLocked()
	if len(active) < MinPlayersToStart {
		return p.Nickname, nil, nil
	}
	words := make([]string, 0, len(active))
	for _, ap := range active {
		if ap.word == nil {
			return p.Nickname, nil, nil
		}
		words = append(words, *ap.word)
	}

	// All active players are in; launch the round.
	r.ChosenWord = words[rand.Intn(len(words))]
	traitorIdx := rand.Intn(len(active))
	r.TraitorID = active[traitorIdx].ID
	r.Clues = nil
	r.ClueTurn = 0
	r.CluePhase = true
	r.Votes = make(map[string]string)

	start := &RoundStart{
		ChosenWord: r.ChosenWord,
		Players:    make([]RoundPlayer, len(active)),
		Total:      len(active),
	}
	for i, ap := range active {
		start.Players[i] = RoundPlayer{
			PlayerID:     ap.ID,
			Nickname:     ap.Nickname,
			ConnectionID: ap.ConnectionID,
			Traitor:      i == traitorIdx,
		}
		// Consume the submission so a stray submitWord after launch cannot
		// re-trigger the round.
		ap.word = nil
	}
	return p.Nickname, start, nil
}

// SubmitClue appends the clue and advances the shared turn counter. Unless
// EnforceTurnOwner is set, any active player's submission advances the turn.
func (r *Room) SubmitClue(playerID, clue string) (*ClueAdvance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.CluePhase {
		return nil, ErrNotInCluePhase
	}
	p := r.findLocked(playerID)
	if p == nil {
		return nil, ErrPlayerNotFound
	}
	if p.Inactive {
		return nil, ErrInactivePlayer
	}

	active := r.activePlayersLocked()
	if r.EnforceTurnOwner {
		if r.ClueTurn >= len(active) || active[r.ClueTurn].ID != playerID {
			return nil, ErrNotYourTurn
		}
	}

	r.Clues = append(r.Clues, clue)
	r.ClueTurn++

	if r.ClueTurn < len(active) {
		next := active[r.ClueTurn]
		return &ClueAdvance{
			Turn:  r.ClueTurn,
			Total: len(active),
			Next: RoundPlayer{
				PlayerID:     next.ID,
				Nickname:     next.Nickname,
				ConnectionID: next.ConnectionID,
			},
		}, nil
	}

	r.CluePhase = false
	clues := make([]string, len(r.Clues))
	copy(clues, r.Clues)
	return &ClueAdvance{Done: true, Clues: clues}, nil
}

// SubmitVote records (or overwrites) the player's vote. When the number of
// voters reaches the active-player count the tally is computed and returned.
func (r *Room) SubmitVote(playerID, suspectID string) (*VoteOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := r.findLocked(playerID)
	if p == nil {
		return nil, ErrPlayerNotFound
	}
	if p.Inactive {
		return nil, ErrInactivePlayer
	}

	r.Votes[playerID] = suspectID

	if len(r.Votes) < r.activeCountLocked() {
		return &VoteOutcome{}, nil
	}

	votes := make(map[string]string, len(r.Votes))
	counts := make(map[string]int)
	for voter, suspect := range r.Votes {
		votes[voter] = suspect
		counts[suspect]++
	}
	return &VoteOutcome{Done: true, Votes: votes, VoteCounts: counts}, nil
}
