package scheduler

import (
	"github.com/robfig/cron/v3"
)

// UpdateConfig swaps the schedule for hot-reload. The old entry is only
// removed once the new expression parsed.
func (s *Scheduler) UpdateConfig(spec string) error {
	sched, err := parse(spec)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.entry != 0 && spec == s.spec {
		return nil
	}

	id := s.cron.Schedule(sched, cron.FuncJob(func() { s.Trigger("schedule") }))
	if s.entry != 0 {
		s.cron.Remove(s.entry)
	}
	s.entry = id
	s.spec = spec
	s.log.Debug("schedule updated", "cron", spec)
	return nil
}
