// Package memory 提供以記憶體實作的存儲庫
//
// 適用於本機開發與單元測試。唯一約束（房間代碼、每位使用者一筆成員記錄、
// 配對四元組）在同一把鎖內檢查並寫入，行為與 PostgreSQL 的約束一致。
// 交易以全域互斥鎖序列化，不支援回滾，因此呼叫端應把寫入放在交易最後。
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"room_manager/internal/models"
	"room_manager/internal/repository"
)

type matchKey struct {
	user1    uint
	opponent uint
	roomID   uint
	round    int
}

func keyOf(m *models.Match) matchKey {
	return matchKey{user1: m.User1ID, opponent: m.Opponent().Key(), roomID: m.RoomID, round: m.Round}
}

// Store 所有表的記憶體狀態
type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex

	nextID uint
	now    func() time.Time

	users     map[uint]models.User
	usernames map[string]uint

	rooms map[uint]models.Room
	codes map[int]uint

	memberships map[uint]models.Membership // user_id -> membership

	matches   map[uint]models.Match
	matchKeys map[matchKey]uint
}

// NewStore 建立空的記憶體存儲
func NewStore() *Store {
	return &Store{
		now:         time.Now,
		users:       make(map[uint]models.User),
		usernames:   make(map[string]uint),
		rooms:       make(map[uint]models.Room),
		codes:       make(map[int]uint),
		memberships: make(map[uint]models.Membership),
		matches:     make(map[uint]models.Match),
		matchKeys:   make(map[matchKey]uint),
	}
}

// Repositories 回傳綁定此存儲的存儲庫集合
func (s *Store) Repositories() *repository.Repositories {
	return repository.New(
		&userRepository{s},
		&roomRepository{s},
		&membershipRepository{s},
		&matchRepository{s},
		s.transaction,
	)
}

func (s *Store) transaction(ctx context.Context, fn func(tx *repository.Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return fn(s.Repositories())
}

// id 必須在持有 mu 寫鎖時呼叫
func (s *Store) id() uint {
	s.nextID++
	return s.nextID
}

type userRepository struct{ s *Store }

func (r *userRepository) Create(_ context.Context, user *models.User) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.usernames[user.Username]; exists {
		return repository.ErrDuplicateEntry
	}
	user.ID = s.id()
	user.CreatedAt = s.now()
	user.UpdatedAt = user.CreatedAt
	s.users[user.ID] = *user
	s.usernames[user.Username] = user.ID
	return nil
}

func (r *userRepository) FindByID(_ context.Context, id uint) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	user, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &user, nil
}

func (r *userRepository) FindByUsername(_ context.Context, username string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	id, ok := r.s.usernames[username]
	if !ok {
		return nil, repository.ErrNotFound
	}
	user := r.s.users[id]
	return &user, nil
}

type roomRepository struct{ s *Store }

func (r *roomRepository) Create(_ context.Context, room *models.Room) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.codes[room.Code]; exists {
		return repository.ErrDuplicateEntry
	}
	room.ID = s.id()
	room.CreatedAt = s.now()
	if room.CurrentRound == 0 {
		room.CurrentRound = 1
	}
	s.rooms[room.ID] = *room
	s.codes[room.Code] = room.ID
	return nil
}

func (r *roomRepository) FindByID(_ context.Context, id uint) (*models.Room, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	room, ok := r.s.rooms[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &room, nil
}

func (r *roomRepository) FindByCode(_ context.Context, code int) (*models.Room, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	id, ok := r.s.codes[code]
	if !ok {
		return nil, repository.ErrNotFound
	}
	room := r.s.rooms[id]
	return &room, nil
}

// FindByIDForUpdate 交易已由 txMu 序列化，這裡等同 FindByID
func (r *roomRepository) FindByIDForUpdate(ctx context.Context, id uint) (*models.Room, error) {
	return r.FindByID(ctx, id)
}

func (r *roomRepository) FindAll(_ context.Context) ([]models.Room, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	rooms := make([]models.Room, 0, len(r.s.rooms))
	for _, room := range r.s.rooms {
		rooms = append(rooms, room)
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].ID > rooms[j].ID })
	return rooms, nil
}

func (r *roomRepository) CodeExists(_ context.Context, code int) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	_, exists := r.s.codes[code]
	return exists, nil
}

func (r *roomRepository) ListCodes(_ context.Context) ([]int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	codes := make([]int, 0, len(r.s.codes))
	for code := range r.s.codes {
		codes = append(codes, code)
	}
	return codes, nil
}

func (r *roomRepository) Count(_ context.Context) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return int64(len(r.s.rooms)), nil
}

func (r *roomRepository) UpdateName(_ context.Context, id uint, name string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	room, ok := r.s.rooms[id]
	if !ok {
		return repository.ErrNotFound
	}
	room.Name = name
	r.s.rooms[id] = room
	return nil
}

func (r *roomRepository) IncrementRound(_ context.Context, id uint) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	room, ok := r.s.rooms[id]
	if !ok {
		return 0, repository.ErrNotFound
	}
	room.CurrentRound++
	r.s.rooms[id] = room
	return room.CurrentRound, nil
}

func (r *roomRepository) Delete(_ context.Context, id uint) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[id]
	if !ok {
		return repository.ErrNotFound
	}
	delete(s.rooms, id)
	delete(s.codes, room.Code)

	for userID, m := range s.memberships {
		if m.RoomID == id {
			delete(s.memberships, userID)
		}
	}
	for matchID, m := range s.matches {
		if m.RoomID == id {
			delete(s.matchKeys, keyOf(&m))
			delete(s.matches, matchID)
		}
	}
	return nil
}

type membershipRepository struct{ s *Store }

func (r *membershipRepository) Create(_ context.Context, membership *models.Membership) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.memberships[membership.UserID]; exists {
		return repository.ErrDuplicateEntry
	}
	if _, ok := s.rooms[membership.RoomID]; !ok {
		return repository.ErrNotFound
	}
	membership.ID = s.id()
	membership.JoinedAt = s.now()
	s.memberships[membership.UserID] = *membership
	return nil
}

func (r *membershipRepository) FindByUserID(_ context.Context, userID uint) (*models.Membership, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	m, ok := r.s.memberships[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &m, nil
}

func (r *membershipRepository) FindByRoomID(_ context.Context, roomID uint) ([]models.Membership, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var memberships []models.Membership
	for _, m := range r.s.memberships {
		if m.RoomID == roomID {
			memberships = append(memberships, m)
		}
	}
	sort.Slice(memberships, func(i, j int) bool { return memberships[i].ID < memberships[j].ID })
	return memberships, nil
}

func (r *membershipRepository) FindInRoom(_ context.Context, roomID uint, userIDs ...uint) ([]models.Membership, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var memberships []models.Membership
	for _, userID := range userIDs {
		if m, ok := r.s.memberships[userID]; ok && m.RoomID == roomID {
			memberships = append(memberships, m)
		}
	}
	return memberships, nil
}

func (r *membershipRepository) DeleteByUserID(_ context.Context, userID uint) (*models.Membership, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	m, ok := r.s.memberships[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	delete(r.s.memberships, userID)
	return &m, nil
}

type matchRepository struct{ s *Store }

func (r *matchRepository) Create(_ context.Context, match *models.Match) error {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()

	key := keyOf(match)
	if _, exists := s.matchKeys[key]; exists {
		return repository.ErrDuplicateEntry
	}
	if _, ok := s.rooms[match.RoomID]; !ok {
		return repository.ErrNotFound
	}
	match.ID = s.id()
	match.CreatedAt = s.now()
	s.matches[match.ID] = *match
	s.matchKeys[key] = match.ID
	return nil
}

func (r *matchRepository) FindActiveByUser(_ context.Context, roomID, userID uint) (*models.Match, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var found *models.Match
	for _, m := range r.s.matches {
		if m.RoomID != roomID || !m.IsActive || !m.HasUser(userID) {
			continue
		}
		if found == nil || m.ID > found.ID {
			m := m
			found = &m
		}
	}
	if found == nil {
		return nil, repository.ErrNotFound
	}
	return found, nil
}

func (r *matchRepository) FindByRound(_ context.Context, roomID uint, round int) ([]models.Match, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var matches []models.Match
	for _, m := range r.s.matches {
		if m.RoomID == roomID && m.Round == round {
			matches = append(matches, m)
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].ID < matches[j].ID })
	return matches, nil
}

func (r *matchRepository) DeactivateRound(_ context.Context, roomID uint, round int) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for id, m := range r.s.matches {
		if m.RoomID == roomID && m.Round == round && m.IsActive {
			m.IsActive = false
			r.s.matches[id] = m
			n++
		}
	}
	return n, nil
}
