package consts

import "time"

const (
	// MessageWindowKey + 会话ID => 最近消息窗口 (List, 最新在头部)
	MessageWindowKey = "messages:"
	// ConversationListKey + 用户ID => 会话列表视图 (String, JSON)
	ConversationListKey = "conversations:"
	// OnlineUsersKey 在线用户集合 (Set, 无过期)
	OnlineUsersKey = "im:online_users"
	// OnlineConnsKey 用户ID => 全局连接计数 (Hash, 跨实例共享)
	OnlineConnsKey = "im:online_conns"
	// ConversationChannelKey + 会话ID => 房间广播频道
	ConversationChannelKey = "im:conversation:"
)

const (
	// MessageWindowSize 每个会话缓存的最近消息条数
	MessageWindowSize = 50
	// CacheTTL 消息窗口与会话列表缓存的过期时间
	CacheTTL = 300 * time.Second
)
