package protocol

import "encoding/json"

// Message 基础消息结构
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// MessageType 消息类型
type MessageType string

// 客户端 → 服务端 消息类型
const (
	// 连接操作
	MsgPing MessageType = "ping" // 心跳 ping

	// 房间操作
	MsgCreateRoom MessageType = "create_room" // 创建房间
	MsgJoinRoom   MessageType = "join_room"   // 加入房间
	MsgLeaveRoom  MessageType = "leave_room"  // 离开房间
	MsgSetReady   MessageType = "set_ready"   // 准备/取消准备
	MsgStartGame  MessageType = "start_game"  // 房主开始游戏

	// 游戏操作
	MsgPlaceBid MessageType = "place_bid" // 竞拍出价
	MsgPassTurn MessageType = "pass_turn" // 放弃竞拍
	MsgPlayCard MessageType = "play_card" // 暗标出牌

	// 查询
	MsgGetRoomList    MessageType = "get_room_list"    // 获取房间列表
	MsgGetLeaderboard MessageType = "get_leaderboard"  // 获取排行榜
	MsgGetOnlineCount MessageType = "get_online_count" // 获取在线人数

	// 聊天（双向）
	MsgChat MessageType = "chat_message"
)

// 服务端 → 客户端 消息类型
const (
	MsgConnected MessageType = "connected" // 连接成功
	MsgPong      MessageType = "pong"      // 心跳 pong

	MsgRoomCreated   MessageType = "room_created"   // 房间创建成功
	MsgRoomJoined    MessageType = "room_joined"    // 加入房间成功
	MsgRoomState     MessageType = "room_state"     // 房间状态快照（按观察者过滤）
	MsgRoomDestroyed MessageType = "room_destroyed" // 房间已解散
	MsgRoomLeft      MessageType = "room_left"      // 已离开房间

	MsgRoomListResult    MessageType = "room_list_result"   // 房间列表结果
	MsgLeaderboardResult MessageType = "leaderboard_result" // 排行榜结果
	MsgOnlineCount       MessageType = "online_count"       // 在线人数

	MsgError MessageType = "error" // 错误消息
)
