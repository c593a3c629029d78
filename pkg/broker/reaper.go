package broker

import (
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// reapSchedule runs the reaper every 15 seconds — frequent enough that a
// crashed plugin's session disappears from /sessions well within a
// developer's attention span, without adding meaningful lock contention.
const reapSchedule = "*/15 * * * * *"

// StartReaper schedules the background job that evicts sessions which have
// not heartbeated in over staleWindow. It returns a stop function the
// caller should defer; the cron job is only meaningful in Primary mode,
// since a Proxy-mode process has an empty Registry of its own.
func (b *Broker) StartReaper() (stop func()) {
	c := cron.New(cron.WithSeconds())
	_, err := c.AddFunc(reapSchedule, func() {
		before := len(b.Registry.List())
		b.Registry.Reap(time.Now())
		after := len(b.Registry.List())
		if before != after {
			b.log.WithFields(logrus.Fields{
				"evicted":   before - after,
				"remaining": after,
			}).Info("reaped stale sessions")
		}
	})
	if err != nil {
		// A malformed cron expression is a programming error, not a
		// runtime condition — panic so it's caught in development
		// rather than silently never reaping.
		panic(err)
	}
	c.Start()
	return func() { <-c.Stop().Done() }
}
