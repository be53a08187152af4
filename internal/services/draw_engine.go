package services

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand"
	"time"

	"github.com/commboard/lottery-engine/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DrawWinners selects winners for one packet. It is a pure function of the
// entry list and the instance count: no side effects, no reads beyond its
// arguments. The caller owns idempotency.
//
// Selection is without replacement: a participant wins at most one instance
// of the packet. When instanceCount >= len(entries) every entrant wins
// exactly one instance; otherwise exactly instanceCount distinct entrants
// are chosen uniformly at random. Instance numbers run 1..k in arbitrary
// order and carry no ranking meaning. Zero entries yields zero assignments.
func DrawWinners(lotteryID, packetID primitive.ObjectID, entries []*models.Entry, instanceCount int, drawnAt time.Time) ([]*models.WinnerAssignment, error) {
	if instanceCount < 1 {
		return nil, NewValidationError("instance count must be at least 1")
	}

	// Deduplicate defensively; the entry ledger enforces one entry per
	// participant per packet, but a duplicate here would mean a double win.
	seen := make(map[primitive.ObjectID]bool, len(entries))
	participants := make([]primitive.ObjectID, 0, len(entries))
	for _, entry := range entries {
		if seen[entry.ParticipantID] {
			continue
		}
		seen[entry.ParticipantID] = true
		participants = append(participants, entry.ParticipantID)
	}

	if len(participants) == 0 {
		return []*models.WinnerAssignment{}, nil
	}

	rng, err := newDrawRand()
	if err != nil {
		return nil, fmt.Errorf("failed to seed draw randomness: %w", err)
	}
	rng.Shuffle(len(participants), func(i, j int) {
		participants[i], participants[j] = participants[j], participants[i]
	})

	winners := instanceCount
	if len(participants) < winners {
		winners = len(participants)
	}

	assignments := make([]*models.WinnerAssignment, 0, winners)
	for i := 0; i < winners; i++ {
		assignments = append(assignments, &models.WinnerAssignment{
			LotteryID:      lotteryID,
			PacketID:       packetID,
			ParticipantID:  participants[i],
			InstanceNumber: i + 1,
			DrawnAt:        drawnAt,
		})
	}
	return assignments, nil
}

// newDrawRand returns a math/rand generator seeded fresh from crypto/rand,
// so a draw is neither predictable nor replayable.
func newDrawRand() (*rand.Rand, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return nil, err
	}
	seed := int64(binary.LittleEndian.Uint64(b[:]))
	return rand.New(rand.NewSource(seed)), nil
}
