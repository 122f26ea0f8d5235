package service

import (
	"strings"
	"time"

	"apptrack/internal/modules/usage/domain"
	"apptrack/internal/platform/clock"
)

type LifecycleConfig struct {
	MinSessionDurationSeconds  int
	ExcludedApplications       []string
	EnableProductivityTracking bool
	EnableDetailedTracking     bool
}

// Transition describes what one sample or stop did. Closed is set when a
// session ended; Retained tells whether it met the minimum duration.
type Transition struct {
	Closed   *domain.Session
	Retained bool
	Opened   *domain.Session
}

// LifecycleService turns probe samples into sessions. It is IDLE while
// current is nil and ACTIVE otherwise. Not safe for concurrent use.
type LifecycleService struct {
	clock    clock.Clock
	cfg      LifecycleConfig
	excluded map[string]struct{}
	current  *domain.Session
}

func NewLifecycleService(clock clock.Clock, cfg LifecycleConfig) *LifecycleService {
	excluded := make(map[string]struct{}, len(cfg.ExcludedApplications))
	for _, app := range cfg.ExcludedApplications {
		excluded[strings.ToLower(strings.TrimSpace(app))] = struct{}{}
	}
	if cfg.MinSessionDurationSeconds < 0 {
		cfg.MinSessionDurationSeconds = 0
	}
	return &LifecycleService{clock: clock, cfg: cfg, excluded: excluded}
}

func (s *LifecycleService) Excluded(application string) bool {
	_, ok := s.excluded[strings.ToLower(application)]
	return ok
}

func (s *LifecycleService) Active() bool {
	return s.current != nil
}

func (s *LifecycleService) Current() (domain.Session, bool) {
	if s.current == nil {
		return domain.Session{}, false
	}
	return s.current.Clone(), true
}

func (s *LifecycleService) Observe(sample domain.Sample) Transition {
	if sample.Application == "" {
		sample = domain.DesktopSample()
	}
	if s.current != nil && s.current.Application == sample.Application {
		return Transition{}
	}
	tracked := !s.Excluded(sample.Application)
	if s.current == nil && !tracked {
		return Transition{}
	}

	now := s.clock.Now()
	transition := s.closeAt(now)
	if tracked {
		if !s.cfg.EnableDetailedTracking {
			sample.WindowTitle = ""
			sample.PID = 0
		}
		opened := domain.OpenSession(sample, now)
		s.current = &opened
		copied := opened.Clone()
		transition.Opened = &copied
	}
	return transition
}

// Stop closes the open session, if any. Calling it while IDLE is a no-op.
func (s *LifecycleService) Stop() Transition {
	if s.current == nil {
		return Transition{}
	}
	return s.closeAt(s.clock.Now())
}

func (s *LifecycleService) closeAt(now time.Time) Transition {
	if s.current == nil {
		return Transition{}
	}
	var score *int
	if s.cfg.EnableProductivityTracking {
		v := s.current.Category.ProductivityScore()
		score = &v
	}
	closed := s.current.Close(now, score)
	s.current = nil
	return Transition{Closed: &closed, Retained: closed.DurationSeconds >= s.cfg.MinSessionDurationSeconds}
}
