package domain

import (
	"sort"
	"sync"
	"time"
)

// Room is the single authority for one synchronized-playback session. All
// mutating operations and all reads that feed broadcasts go through r.mu, so
// operations on the same room never interleave while different rooms stay
// independent.
type Room struct {
	id string

	mu           sync.Mutex
	closed       bool
	participants map[string]*participant
	joinCounter  uint64
	queue        *queue
	current      *QueueEntry
	playhead     float64
	isPlaying    bool
	lastUpdate   time.Time
	createdAt    time.Time
	membersLimit int

	now func() time.Time
}

func NewRoom(id string, membersLimit, queueLimit int) *Room {
	r := Room{
		id:           id,
		participants: make(map[string]*participant),
		queue:        newQueue(queueLimit),
		membersLimit: membersLimit,
		now:          time.Now,
	}
	r.createdAt = r.now()

	return &r
}

func (r *Room) Id() string {
	return r.id
}

func (r *Room) CreatedAt() time.Time {
	return r.createdAt
}

// Join registers a connection as a participant. The first joiner becomes
// owner; later joiners start as guests without queue permission. An empty
// display name falls back to a guest label derived from the connection id.
func (r *Room) Join(connId, displayName string, identityId *string) (Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return Participant{}, ErrRoomClosed
	}

	if _, ok := r.participants[connId]; ok {
		return Participant{}, ErrAlreadyInRoom
	}

	if r.membersLimit > 0 && len(r.participants) >= r.membersLimit {
		return Participant{}, ErrMembersLimitReached
	}

	if displayName == "" {
		displayName = guestLabel(connId)
	}

	role := RoleGuest
	if len(r.participants) == 0 {
		role = RoleOwner
	}

	r.joinCounter++
	p := participant{
		Participant: Participant{
			Id:          connId,
			DisplayName: displayName,
			IdentityId:  identityId,
			Role:        role,
			JoinedAt:    r.now(),
		},
		seq: r.joinCounter,
	}
	r.participants[connId] = &p

	return p.Participant, nil
}

func guestLabel(connId string) string {
	if len(connId) > 8 {
		connId = connId[:8]
	}
	return "guest-" + connId
}

// LeaveResult describes the effect of removing a participant.
type LeaveResult struct {
	Left     Participant
	NewOwner *Participant
	Empty    bool
}

// Leave removes the participant. When the owner leaves and others remain,
// ownership transfers to the earliest-joined remaining participant, who
// thereby also gains queue permission. Returns false if the connection was
// not a participant.
func (r *Room) Leave(connId string) (LeaveResult, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.removeLocked(connId)
}

func (r *Room) removeLocked(connId string) (LeaveResult, bool) {
	p, ok := r.participants[connId]
	if !ok {
		return LeaveResult{}, false
	}

	delete(r.participants, connId)

	result := LeaveResult{
		Left:  p.Participant,
		Empty: len(r.participants) == 0,
	}

	if p.Role.IsOwner() && !result.Empty {
		successor := r.earliestJoinedLocked()
		successor.Role = RoleOwner
		owner := successor.Participant
		result.NewOwner = &owner
	}

	return result, true
}

func (r *Room) earliestJoinedLocked() *participant {
	var earliest *participant
	for _, p := range r.participants {
		if earliest == nil || p.seq < earliest.seq {
			earliest = p
		}
	}

	return earliest
}

// Kick removes target on behalf of the owner. The owner cannot kick itself;
// leaving is the way out.
func (r *Room) Kick(requesterId, targetId string) (Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	requester, ok := r.participants[requesterId]
	if !ok || !requester.Role.IsOwner() || requesterId == targetId {
		return Participant{}, ErrPermissionDenied
	}

	target, ok := r.participants[targetId]
	if !ok {
		return Participant{}, ErrParticipantNotFound
	}

	kicked := target.Participant
	r.removeLocked(targetId)
	return kicked, nil
}

// GrantQueuePermission promotes target to member. Granting to the owner is
// a no-op success since the owner's permission is structural.
func (r *Room) GrantQueuePermission(requesterId, targetId string) (Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	requester, ok := r.participants[requesterId]
	if !ok || !requester.Role.IsOwner() {
		return Participant{}, ErrPermissionDenied
	}

	target, ok := r.participants[targetId]
	if !ok {
		return Participant{}, ErrParticipantNotFound
	}

	if !target.Role.IsOwner() {
		target.Role = RoleMember
	}

	return target.Participant, nil
}

// RevokeQueuePermission demotes target to guest. The owner's permission
// cannot be revoked.
func (r *Room) RevokeQueuePermission(requesterId, targetId string) (Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	requester, ok := r.participants[requesterId]
	if !ok || !requester.Role.IsOwner() {
		return Participant{}, ErrPermissionDenied
	}

	target, ok := r.participants[targetId]
	if !ok {
		return Participant{}, ErrParticipantNotFound
	}

	if target.Role.IsOwner() {
		return Participant{}, ErrPermissionDenied
	}

	target.Role = RoleGuest
	return target.Participant, nil
}

// AttachIdentity binds a verified identity to an already-joined participant
// and adopts the identity's display name when it carries one.
func (r *Room) AttachIdentity(connId, identityId, displayName string) (Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.participants[connId]
	if !ok {
		return Participant{}, ErrParticipantNotFound
	}

	p.IdentityId = &identityId
	if displayName != "" {
		p.DisplayName = displayName
	}

	return p.Participant, nil
}

// EnqueueResult reports the appended entry and, when the room had nothing
// playing, the entry that playback auto-started on.
type EnqueueResult struct {
	Entry   QueueEntry
	Started *QueueEntry
}

// Enqueue appends an entry for a requester holding queue permission. Adding
// to a room with no current item both enqueues and begins playback in one
// atomic step; callers must not assume the entry stays in the queue.
func (r *Room) Enqueue(requesterId string, item MediaItem) (EnqueueResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	requester, ok := r.participants[requesterId]
	if !ok || !requester.Role.CanEditQueue() {
		return EnqueueResult{}, ErrPermissionDenied
	}

	entry, err := r.queue.add(item, requesterId, r.now())
	if err != nil {
		return EnqueueResult{}, err
	}

	result := EnqueueResult{Entry: entry}
	if r.current == nil {
		result.Started = r.advanceLocked()
	}

	return result, nil
}

// Dequeue removes the entry with the given id.
func (r *Room) Dequeue(requesterId string, entryId int) (QueueEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	requester, ok := r.participants[requesterId]
	if !ok || !requester.Role.CanEditQueue() {
		return QueueEntry{}, ErrPermissionDenied
	}

	return r.queue.removeById(entryId)
}

// Reorder rearranges the queue; order must be a permutation of the live
// entry ids or the queue is left untouched.
func (r *Room) Reorder(requesterId string, order []int) ([]QueueEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	requester, ok := r.participants[requesterId]
	if !ok || !requester.Role.CanEditQueue() {
		return nil, ErrPermissionDenied
	}

	if err := r.queue.reorder(order); err != nil {
		return nil, err
	}

	return r.queue.asList(), nil
}

// Advance pops the queue head into the current slot and starts playback, or
// stops the room when the queue is empty. There is no permission check here:
// the dispatcher decides who may trigger it (skip requires queue permission,
// a client-reported ended event does not).
func (r *Room) Advance() *QueueEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.advanceLocked()
}

func (r *Room) advanceLocked() *QueueEntry {
	head := r.queue.popHead()
	if head == nil {
		r.current = nil
		r.isPlaying = false
		r.playhead = 0
		return nil
	}

	r.current = head
	r.playhead = 0
	r.isPlaying = true
	r.lastUpdate = r.now()

	entry := *head
	return &entry
}

// SetPlaying freezes or resumes logical time. The stored playhead is
// reconciled against elapsed wall clock first so pausing never loses
// progress. Returns false when nothing is playing and the flip was a no-op.
func (r *Room) SetPlaying(playing bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current == nil {
		return false
	}

	r.playhead = r.playheadLocked()
	r.lastUpdate = r.now()
	r.isPlaying = playing
	return true
}

// Seek jumps the playhead to targetSeconds. Returns false when the room has
// no current item and the seek was a no-op.
func (r *Room) Seek(targetSeconds float64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current == nil {
		return false
	}

	if targetSeconds < 0 {
		targetSeconds = 0
	}

	r.playhead = targetSeconds
	r.lastUpdate = r.now()
	return true
}

// ReportClientTime accepts a client's observed position as ground truth
// while playing. Last writer wins: the most recent report replaces prior
// server-side extrapolation.
func (r *Room) ReportClientTime(seconds float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current == nil || !r.isPlaying {
		return
	}

	if seconds < 0 {
		seconds = 0
	}

	r.playhead = seconds
	r.lastUpdate = r.now()
}

// CurrentPlayhead returns the logical position: the stored playhead while
// paused, extrapolated by elapsed wall clock while playing. The lazy
// extrapolation avoids a per-room ticking timer for ordinary reads.
func (r *Room) CurrentPlayhead() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.playheadLocked()
}

func (r *Room) playheadLocked() float64 {
	if !r.isPlaying || r.current == nil {
		return r.playhead
	}

	return r.playhead + r.now().Sub(r.lastUpdate).Seconds()
}

func (r *Room) IsPlaying() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.isPlaying
}

// CloseIfEmpty marks a drained room closed so no join can land on it once
// the registry drops it. Returns false while participants remain.
func (r *Room) CloseIfEmpty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.participants) > 0 {
		return false
	}

	r.closed = true
	return true
}

func (r *Room) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.closed
}

func (r *Room) ParticipantCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.participants)
}

func (r *Room) Participant(connId string) (Participant, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.participants[connId]
	if !ok {
		return Participant{}, false
	}

	return p.Participant, true
}

// HasQueuePermission reports whether the connection currently holds queue
// permission. Unknown connections have none.
func (r *Room) HasQueuePermission(connId string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.participants[connId]
	return ok && p.Role.CanEditQueue()
}

// Participants returns the participant list in join order.
func (r *Room) Participants() []Participant {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.participantsLocked()
}

func (r *Room) participantsLocked() []Participant {
	list := make([]participant, 0, len(r.participants))
	for _, p := range r.participants {
		list = append(list, *p)
	}

	sort.Slice(list, func(i, j int) bool {
		return list[i].seq < list[j].seq
	})

	participants := make([]Participant, 0, len(list))
	for _, p := range list {
		participants = append(participants, p.Participant)
	}

	return participants
}

func (r *Room) Queue() []QueueEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.queue.asList()
}

func (r *Room) Current() *QueueEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.current == nil {
		return nil
	}

	entry := *r.current
	return &entry
}

// State is a linearizable full snapshot of the room.
type State struct {
	RoomId          string        `json:"room_id"`
	Participants    []Participant `json:"participants"`
	Queue           []QueueEntry  `json:"queue"`
	Current         *QueueEntry   `json:"current"`
	PlayheadSeconds float64       `json:"playhead_seconds"`
	IsPlaying       bool          `json:"is_playing"`
}

func (r *Room) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()

	state := State{
		RoomId:          r.id,
		Participants:    r.participantsLocked(),
		Queue:           r.queue.asList(),
		PlayheadSeconds: r.playheadLocked(),
		IsPlaying:       r.isPlaying,
	}
	if r.current != nil {
		entry := *r.current
		state.Current = &entry
	}

	return state
}

// SyncSnapshot returns the extrapolated playhead for drift correction. ok is
// false when the room does not qualify: a lone participant has nothing to
// drift from, and paused or idle rooms need no nudging.
func (r *Room) SyncSnapshot() (float64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.participants) < 2 || !r.isPlaying || r.current == nil {
		return 0, false
	}

	return r.playheadLocked(), true
}
