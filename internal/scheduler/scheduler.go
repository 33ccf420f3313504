// Package scheduler runs delayed work on gocron: deletion of ephemeral
// messages and the daily history retention job.
package scheduler

import (
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"

	"telegram-tip-tracker/internal/clock"
	"telegram-tip-tracker/internal/metrics"
)

// Deleter removes a message.
type Deleter interface {
	Delete(chatID int64, messageID int) error
}

// Pruner removes history older than a calendar day.
type Pruner interface {
	PruneHistory(beforeDate string) (int64, error)
}

type Scheduler struct {
	s     gocron.Scheduler
	clock *clock.Clock
	del   Deleter
}

// New builds and starts a scheduler on the clock's time source.
func New(c *clock.Clock, del Deleter) (*Scheduler, error) {
	s, err := gocron.NewScheduler(
		gocron.WithClock(c.Clockwork()),
		gocron.WithLocation(c.Location()),
		gocron.WithGlobalJobOptions(
			gocron.WithEventListeners(
				gocron.AfterJobRunsWithError(func(_ uuid.UUID, name string, err error) {
					log.Printf("job %s failed: %v", name, err)
				}),
			),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("new scheduler: %w", err)
	}
	s.Start()
	return &Scheduler{s: s, clock: c, del: del}, nil
}

// DeleteLater queues deletion of a message. It never blocks on the
// delete itself, cannot be cancelled and a failed delete is not retried.
func (sc *Scheduler) DeleteLater(chatID int64, messageID int, delay time.Duration) {
	if messageID == 0 {
		return
	}
	start := gocron.OneTimeJobStartImmediately()
	if delay > 0 {
		start = gocron.OneTimeJobStartDateTime(sc.clock.Now().Add(delay))
	}

	_, err := sc.s.NewJob(
		gocron.OneTimeJob(start),
		gocron.NewTask(func() error {
			if err := sc.del.Delete(chatID, messageID); err != nil {
				return fmt.Errorf("delete chat=%d msg=%d: %w", chatID, messageID, err)
			}
			return nil
		}),
		gocron.WithName(fmt.Sprintf("delete-%d-%d", chatID, messageID)),
		// gocron only forgets a job once its run limit is reached
		gocron.WithLimitedRuns(1),
	)
	if err != nil {
		log.Printf("schedule delete: chat=%d msg=%d: %v", chatID, messageID, err)
		return
	}
	metrics.DeletionsScheduled.Inc()
}

// PruneDaily deletes history older than retentionDays every day at 04:00.
func (sc *Scheduler) PruneDaily(p Pruner, retentionDays int) error {
	if retentionDays <= 0 {
		return nil
	}
	_, err := sc.s.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(4, 0, 0))),
		gocron.NewTask(func() error {
			before := sc.clock.DaysAgo(retentionDays)
			n, err := p.PruneHistory(before)
			if err != nil {
				return err
			}
			if n > 0 {
				log.Printf("pruned %d history records before %s", n, before)
			}
			return nil
		}),
		gocron.WithName("prune-history"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	return err
}

func (sc *Scheduler) Shutdown() error {
	return sc.s.Shutdown()
}
