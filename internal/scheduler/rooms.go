package scheduler

import (
	"sort"

	"github.com/classplan/timetable-solver/internal/domain"
)

// roomAllocator implements the 2-level room allocation rule from
// SPEC_FULL §4.4: non-special subjects always use the class's home
// room (no conflict tracking needed); special-room subjects draw from
// the shared-amenities pool, conflict-checked per (room, slot).
type roomAllocator struct {
	sharedByType map[domain.RoomType][]domain.Room
	busy         map[string]map[string]struct{} // roomID -> slotID set
	relaxed      bool                            // 0.5+: allow lab subjects in home rooms if none free
	anyShared    bool                            // 0.8: allow any shared room regardless of type
}

func newRoomAllocator(sharedRooms []domain.Room) *roomAllocator {
	byType := make(map[domain.RoomType][]domain.Room)
	for _, r := range sharedRooms {
		byType[r.Type] = append(byType[r.Type], r)
	}
	for t := range byType {
		sort.Slice(byType[t], func(i, j int) bool { return byType[t][i].ID < byType[t][j].ID })
	}
	return &roomAllocator{
		sharedByType: byType,
		busy:         make(map[string]map[string]struct{}),
	}
}

// allocate returns the room id to use for subject in class at slot, or
// ("", false) if no compatible room is free. homeRoom is the class's
// home room (validated non-empty before scheduling begins).
func (a *roomAllocator) allocate(subject domain.Subject, homeRoom domain.Room, slotID string, classSize int) (string, bool, bool) {
	if !subject.RequiresSpecialRoom() {
		return homeRoom.ID, false, true
	}

	required := subject.RequiredRoomType()
	if room, ok := a.pickFromPool(a.sharedByType[required], slotID, classSize); ok {
		return room, true, true
	}

	if a.anyShared {
		for roomType, pool := range a.sharedByType {
			if roomType == required {
				continue
			}
			if room, ok := a.pickFromPool(pool, slotID, classSize); ok {
				return room, true, true
			}
		}
	}

	if a.relaxed && homeRoom.Capacity >= classSize {
		return homeRoom.ID, false, true
	}

	return "", false, false
}

func (a *roomAllocator) pickFromPool(pool []domain.Room, slotID string, classSize int) (string, bool) {
	for _, room := range pool {
		if room.Capacity < classSize {
			continue
		}
		if _, taken := a.busy[room.ID][slotID]; taken {
			continue
		}
		return room.ID, true
	}
	return "", false
}

func (a *roomAllocator) reserve(roomID, slotID string, isShared bool) {
	if !isShared {
		return
	}
	if a.busy[roomID] == nil {
		a.busy[roomID] = make(map[string]struct{})
	}
	a.busy[roomID][slotID] = struct{}{}
}

func (a *roomAllocator) release(roomID, slotID string) {
	if set, ok := a.busy[roomID]; ok {
		delete(set, slotID)
	}
}
