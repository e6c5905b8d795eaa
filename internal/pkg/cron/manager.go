package cron

import (
	"Parley/internal/job"
	log "log/slog"

	"github.com/robfig/cron/v3"
)

type Manager struct {
	engine           *cron.Cron
	presenceSweepJob *job.PresenceSweepJob
}

func NewCronManager(presenceSweepJob *job.PresenceSweepJob) *Manager {
	return &Manager{
		engine:           cron.New(cron.WithSeconds()),
		presenceSweepJob: presenceSweepJob,
	}
}

// Init 注册全部定时任务并启动引擎
func (s *Manager) Init() error {
	if _, err := s.engine.AddJob("0 */5 * * * *", s.presenceSweepJob); err != nil {
		return err
	}
	s.Start()
	return nil
}

func (s *Manager) Start() {
	log.Info("Cron 定时任务引擎启动")
	s.engine.Start()
}

func (s *Manager) Stop() {
	log.Info("Cron 定时任务引擎停止")
	s.engine.Stop()
}
