package domain

import "time"

// QueueEntry is one playlist position. Entry ids are allocated monotonically
// per room and never reused, so the same media item can appear twice with
// distinct entry ids.
type QueueEntry struct {
	EntryId   int       `json:"entry_id"`
	Item      MediaItem `json:"item"`
	AddedById string    `json:"added_by_id"`
	AddedAt   time.Time `json:"added_at"`
}

type queue struct {
	entries []QueueEntry
	lastId  int
	limit   int
}

func newQueue(limit int) *queue {
	return &queue{
		entries: make([]QueueEntry, 0),
		limit:   limit,
	}
}

func (q queue) length() int {
	return len(q.entries)
}

func (q queue) asList() []QueueEntry {
	list := make([]QueueEntry, len(q.entries))
	copy(list, q.entries)
	return list
}

func (q *queue) add(item MediaItem, addedById string, now time.Time) (QueueEntry, error) {
	if q.limit > 0 && q.length() >= q.limit {
		return QueueEntry{}, ErrQueueLimitReached
	}

	q.lastId++
	entry := QueueEntry{
		EntryId:   q.lastId,
		Item:      item,
		AddedById: addedById,
		AddedAt:   now,
	}
	q.entries = append(q.entries, entry)

	return entry, nil
}

func (q *queue) removeById(entryId int) (QueueEntry, error) {
	for index, entry := range q.entries {
		if entry.EntryId == entryId {
			q.entries = append(q.entries[:index], q.entries[index+1:]...)
			return entry, nil
		}
	}

	return QueueEntry{}, ErrEntryNotFound
}

func (q *queue) popHead() *QueueEntry {
	if len(q.entries) == 0 {
		return nil
	}

	head := q.entries[0]
	q.entries = q.entries[1:]
	return &head
}

// reorder rearranges the queue to match order. It succeeds only if order is
// a permutation of the current entry ids, so a reorder computed against a
// stale queue cannot drop or duplicate entries.
func (q *queue) reorder(order []int) error {
	if len(order) != len(q.entries) {
		return ErrNotPermutation
	}

	byId := make(map[int]QueueEntry, len(q.entries))
	for _, entry := range q.entries {
		byId[entry.EntryId] = entry
	}

	reordered := make([]QueueEntry, 0, len(order))
	for _, entryId := range order {
		entry, ok := byId[entryId]
		if !ok {
			return ErrNotPermutation
		}

		delete(byId, entryId)
		reordered = append(reordered, entry)
	}

	q.entries = reordered
	return nil
}
