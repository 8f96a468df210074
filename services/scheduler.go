// services/scheduler.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Scheduler runs the periodic maintenance jobs.
type Scheduler struct {
	sched gocron.Scheduler
}

// StartScheduler registers the sweep and snapshot jobs and starts them.
// The sweep advances event statuses and closes stale registrations every
// interval; the snapshot runs on the cron expression.
func StartScheduler(ctx context.Context, events *EventService, participations *ParticipationService,
	leaderboard *LeaderboardService, interval time.Duration, snapshotCron string) (*Scheduler, error) {
	sched, err := gocron.NewScheduler(gocron.WithLocation(time.UTC))
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			started, finished, err := events.AdvanceStatuses(ctx)
			if err != nil {
				log.Printf("[SCHED] DB error advancing events: %v", err)
				return
			}
			swept, err := participations.SweepMissed(ctx)
			if err != nil {
				log.Printf("[SCHED] DB error sweeping registrations: %v", err)
				return
			}
			if started+finished > 0 || swept > 0 {
				log.Printf("✅ [SCHED] %d event(s) started, %d finished, %d registration(s) missed", started, finished, swept)
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("schedule sweep: %w", err), sched.Shutdown())
	}

	_, err = sched.NewJob(
		gocron.CronJob(snapshotCron, false),
		gocron.NewTask(func() {
			res, err := leaderboard.Snapshot(ctx)
			if err != nil {
				log.Printf("[SCHED] Leaderboard snapshot failed: %v", err)
				return
			}
			log.Printf("✅ [SCHED] Leaderboard snapshot stored for week %s (%d entries)",
				res.PeriodStart.Format("2006-01-02"), len(res.Entries))
		}),
	)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("schedule leaderboard snapshot: %w", err), sched.Shutdown())
	}

	sched.Start()
	return &Scheduler{sched: sched}, nil
}

func (s *Scheduler) Shutdown() error {
	return s.sched.Shutdown()
}
