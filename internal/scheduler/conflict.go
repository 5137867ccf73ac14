package scheduler

import (
	"sort"
	"time"
)

// Slot is a reserved interval, optionally tied to a room and a set of participants.
type Slot struct {
	ID           string
	Participants []string
	RoomID       string
	Start        time.Time
	End          time.Time
}

// Overlaps reports whether the half-open intervals [s.Start, s.End) and
// [other.Start, other.End) intersect.
func (s Slot) Overlaps(other Slot) bool {
	return s.Start.Before(other.End) && other.Start.Before(s.End)
}

// ConflictType describes the type of conflict detected between slots.
type ConflictType string

const (
	// ConflictTypeParticipant indicates a participant is double-booked.
	ConflictTypeParticipant ConflictType = "participant"
	// ConflictTypeRoom indicates a room is double-booked.
	ConflictTypeRoom ConflictType = "room"
)

// Conflict details an overlapping slot relation that callers can present to users.
type Conflict struct {
	WithSlotID  string
	Type        ConflictType
	Participant string
	RoomID      string
}

// DetectConflicts identifies conflicts for the candidate against existing
// slots. A slot sharing the candidate's ID is the candidate itself and is
// skipped. Results are ordered by slot ID, room conflicts before participant
// conflicts, participants alphabetically.
func DetectConflicts(existing []Slot, candidate Slot) []Conflict {
	participants := make(map[string]struct{}, len(candidate.Participants))
	for _, p := range candidate.Participants {
		if p != "" {
			participants[p] = struct{}{}
		}
	}

	var conflicts []Conflict
	for _, slot := range existing {
		if slot.ID == candidate.ID || !slot.Overlaps(candidate) {
			continue
		}
		if candidate.RoomID != "" && slot.RoomID == candidate.RoomID {
			conflicts = append(conflicts, Conflict{WithSlotID: slot.ID, Type: ConflictTypeRoom, RoomID: slot.RoomID})
		}
		seen := make(map[string]struct{}, len(slot.Participants))
		for _, p := range slot.Participants {
			if _, ok := participants[p]; !ok {
				continue
			}
			if _, dup := seen[p]; dup {
				continue
			}
			seen[p] = struct{}{}
			conflicts = append(conflicts, Conflict{WithSlotID: slot.ID, Type: ConflictTypeParticipant, Participant: p})
		}
	}

	sort.SliceStable(conflicts, func(i, j int) bool {
		a, b := conflicts[i], conflicts[j]
		if a.WithSlotID != b.WithSlotID {
			return a.WithSlotID < b.WithSlotID
		}
		if a.Type != b.Type {
			return a.Type == ConflictTypeRoom
		}
		return a.Participant < b.Participant
	})
	return conflicts
}
