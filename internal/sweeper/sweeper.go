package sweeper

import (
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Expirer is the service surface the sweep drives.
type Expirer interface {
	MarkExpired(now time.Time) (int, error)
}

// Sweeper periodically flips overdue registered warranties to expired, so the
// stored status stays truthful even for records nobody reads.
type Sweeper struct {
	service  Expirer
	schedule string
	log      *zap.Logger
	cron     *cron.Cron
}

func NewSweeper(service Expirer, schedule string, log *zap.Logger) *Sweeper {
	return &Sweeper{
		service:  service,
		schedule: schedule,
		log:      log,
		cron:     cron.New(),
	}
}

// Start registers the sweep on the cron schedule, runs one sweep immediately
// to catch up after downtime, and starts the scheduler.
func (s *Sweeper) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.run); err != nil {
		return err
	}

	go s.run()
	s.cron.Start()

	s.log.Info("expiry sweeper started", zap.String("schedule", s.schedule))
	return nil
}

func (s *Sweeper) Stop() {
	s.cron.Stop()
}

func (s *Sweeper) run() {
	count, err := s.service.MarkExpired(time.Now())
	if err != nil {
		s.log.Error("expiry sweep failed", zap.Error(err))
		return
	}

	if count > 0 {
		s.log.Info("expiry sweep completed", zap.Int("expired", count))
	}
}
