package job

import (
	"Amora/internal/api/config"
	"Amora/internal/repository"
	"context"
	log "log/slog"
	"time"
)

// NotificationPurgeJob 定期清理超过保留期的历史通知
type NotificationPurgeJob struct {
	repo repository.NotificationRepo
}

func NewNotificationPurgeJob(repo repository.NotificationRepo) *NotificationPurgeJob {
	return &NotificationPurgeJob{repo: repo}
}

func (s *NotificationPurgeJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	days := config.Cfg.Retention.Days
	if days <= 0 {
		days = 90
	}
	cutoff := time.Now().AddDate(0, 0, -days)

	log.Info("start notification purge job", "cutoff", cutoff.Format(time.RFC3339))

	purged, err := s.repo.PurgeBefore(ctx, cutoff)
	if err != nil {
		log.Error("failed to purge expired notifications", "err", err)
		return
	}

	if purged > 0 {
		log.Info("notification purge job finished", "purged_count", purged)
	}
}
