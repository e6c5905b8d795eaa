package job

import (
	"Parley/internal/pkg/ws"
	"context"
	log "log/slog"
)

// PresenceSweepJob 定期对账在线用户集合
// 注销时共享连接计数可能没扣成功, 残留的在线记录靠这里重试清理。
type PresenceSweepJob struct {
	presence *ws.Presence
}

func NewPresenceSweepJob(presence *ws.Presence) *PresenceSweepJob {
	return &PresenceSweepJob{presence: presence}
}

func (s *PresenceSweepJob) Run() {
	log.Info("start presence sweep job")
	s.presence.Reconcile(context.Background())
}
