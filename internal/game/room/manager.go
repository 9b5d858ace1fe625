package room

import (
	"slices"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/palemoky/for-sale/internal/apperrors"
	"github.com/palemoky/for-sale/internal/game/session"
	"github.com/palemoky/for-sale/internal/protocol"
	"github.com/palemoky/for-sale/internal/types"
)

// CreateRoom 创建房间，创建者成为房主。已在其他房间时先离开
func (m *Manager) CreateRoom(client types.ClientInterface, nickname string) (string, error) {
	m.Leave(client)

	m.mu.Lock()
	defer m.mu.Unlock()

	code := m.generateRoomCodeLocked()
	s := session.New(code, m.sessionOptions())
	if err := s.AddPlayer(client, nickname); err != nil {
		return "", err
	}

	m.rooms[code] = s
	m.members[client.GetID()] = code
	client.SetRoom(code)

	log.Info("🏠 房间已创建", "room", code, "host", nickname)
	m.mirror(s)
	return code, nil
}

// JoinRoom 加入房间。已在其他房间时，确认能加入后才离开旧房间；重复加入同一房间视为成功
func (m *Manager) JoinRoom(client types.ClientInterface, code, nickname string) error {
	code = strings.ToUpper(strings.TrimSpace(code))
	id := client.GetID()

	m.mu.Lock()
	defer m.mu.Unlock()

	s, exists := m.rooms[code]
	if !exists {
		return apperrors.ErrRoomNotFound
	}
	current := m.members[id]
	if current == code {
		return nil
	}

	// 持有 m.mu 时两个会话锁同时被持有，锁顺序仍为 注册表 → 会话
	err := s.AddPlayerAfter(client, nickname, func() {
		if current != "" {
			m.leaveLocked(client)
		}
	})
	if err != nil {
		return err
	}
	m.members[id] = code
	client.SetRoom(code)

	m.mirror(s)
	return nil
}

// SetReady 设置准备状态，返回所在房间号
func (m *Manager) SetReady(client types.ClientInterface, ready bool) (string, error) {
	s, err := m.sessionOf(client)
	if err != nil {
		return "", err
	}
	if err := s.SetReady(client.GetID(), ready); err != nil {
		return "", err
	}
	return s.Code(), nil
}

// StartGame 房主开始游戏
func (m *Manager) StartGame(client types.ClientInterface) error {
	s, err := m.sessionOf(client)
	if err != nil {
		return err
	}
	if err := s.Start(client.GetID()); err != nil {
		return err
	}
	m.mirror(s)
	return nil
}

// PlaceBid 竞拍出价
func (m *Manager) PlaceBid(client types.ClientInterface, amount int) error {
	s, err := m.sessionOf(client)
	if err != nil {
		return err
	}
	return s.PlaceBid(client.GetID(), amount)
}

// Pass 竞拍放弃
func (m *Manager) Pass(client types.ClientInterface) error {
	s, err := m.sessionOf(client)
	if err != nil {
		return err
	}
	return s.Pass(client.GetID())
}

// PlayCard 暗标出牌
func (m *Manager) PlayCard(client types.ClientInterface, card int) error {
	s, err := m.sessionOf(client)
	if err != nil {
		return err
	}
	return s.PlayCard(client.GetID(), card)
}

// Chat 房间聊天
func (m *Manager) Chat(client types.ClientInterface, text string) error {
	s, err := m.sessionOf(client)
	if err != nil {
		return err
	}
	return s.Chat(client.GetID(), text)
}

// Leave 离开房间（主动离开与断线走同一路径）。房主离开或房间变空时解散房间，
// 否则把玩家从对局中移除并广播新状态。返回离开的房间号
func (m *Manager) Leave(client types.ClientInterface) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.leaveLocked(client)
}

func (m *Manager) leaveLocked(client types.ClientInterface) (string, bool) {
	id := client.GetID()
	code, ok := m.members[id]
	if !ok {
		return "", false
	}
	delete(m.members, id)
	client.SetRoom("")

	s, exists := m.rooms[code]
	if !exists {
		return code, true
	}

	switch {
	case s.HostID() == id:
		m.destroyLocked(s, id, ReasonHostLeft, "房主已离开，房间已解散")
	case s.PlayerCount() <= 1:
		m.destroyLocked(s, id, ReasonEmpty, "房间已解散")
	default:
		s.RemovePlayer(id)
		m.mirror(s)
	}
	return code, true
}

// destroyLocked 解散房间：通知剩余玩家并解除他们与房间的绑定
func (m *Manager) destroyLocked(s *session.Session, exceptID, reason, message string) {
	code := s.Code()
	for _, c := range s.Close(exceptID, reason, message) {
		delete(m.members, c.GetID())
		c.SetRoom("")
	}
	delete(m.rooms, code)
	m.unmirror(code)
}

// GetRoom 获取房间会话
func (m *Manager) GetRoom(code string) *session.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rooms[code]
}

// RoomOf 玩家所在房间号
func (m *Manager) RoomOf(playerID string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.members[playerID]
}

// RoomCount 房间总数
func (m *Manager) RoomCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}

// GetRoomList 获取可加入的房间列表（大厅阶段且未满），按创建时间排序
func (m *Manager) GetRoomList() []protocol.RoomListItem {
	m.mu.RLock()
	sums := make([]session.Summary, 0, len(m.rooms))
	for _, s := range m.rooms {
		if sum := s.Summary(); sum.Joinable() {
			sums = append(sums, sum)
		}
	}
	m.mu.RUnlock()

	slices.SortFunc(sums, func(a, b session.Summary) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.Code, b.Code)
	})

	rooms := make([]protocol.RoomListItem, 0, len(sums))
	for _, sum := range sums {
		rooms = append(rooms, protocol.RoomListItem{
			RoomID:      sum.Code,
			HostName:    sum.HostName,
			PlayerCount: sum.PlayerCount,
			MaxPlayers:  sum.MaxPlayers,
		})
	}
	return rooms
}

// ActiveGamesCount 获取进行中的游戏数量（竞拍或暗标阶段）
func (m *Manager) ActiveGamesCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, s := range m.rooms {
		switch s.Phase() {
		case session.PhaseAuction, session.PhaseSealedBid:
			count++
		}
	}
	return count
}

func (m *Manager) sessionOf(client types.ClientInterface) (*session.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	code, ok := m.members[client.GetID()]
	if !ok {
		return nil, apperrors.ErrNotInRoom
	}
	s, ok := m.rooms[code]
	if !ok {
		return nil, apperrors.ErrRoomNotFound
	}
	return s, nil
}
