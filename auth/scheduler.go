package auth

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/jrsteele09/go-exam-client/token/jwt"
	"github.com/rs/zerolog"
)

// MinRenewalInterval is the shortest wait between a completed renewal and the next one
const MinRenewalInterval = 10 * time.Second

// Scheduler keeps at most one pending proactive renewal. The renewal fires
// leadTime before the access token expires, or straight away when that
// moment has already passed.
type Scheduler struct {
	clock    clockwork.Clock
	leadTime time.Duration
	fire     func()
	log      zerolog.Logger

	lock  sync.Mutex // protects the below fields
	timer clockwork.Timer
	seq   uint64 // identifies the live trigger; stale callbacks compare against it
	due   time.Time
}

// NewScheduler creates a scheduler that calls fire when a renewal is due
func NewScheduler(clock clockwork.Clock, leadTime time.Duration, fire func(), log zerolog.Logger) *Scheduler {
	return &Scheduler{
		clock:    clock,
		leadTime: leadTime,
		fire:     fire,
		log:      log,
	}
}

// Arm replaces any pending renewal with one derived from accessToken's expiry.
// An undecodable token leaves nothing pending and returns ErrMalformedToken.
func (s *Scheduler) Arm(accessToken string) error {
	return s.arm(accessToken, false)
}

// Rearm is Arm for a token that was just renewed. A token already inside the
// lead time is renewed again after half its remaining lifetime, and never
// sooner than MinRenewalInterval, instead of straight away.
func (s *Scheduler) Rearm(accessToken string) error {
	return s.arm(accessToken, true)
}

func (s *Scheduler) arm(accessToken string, renewed bool) error {
	claims, err := jwt.Decode(accessToken)

	s.lock.Lock()
	defer s.lock.Unlock()

	s.stopLocked()
	if err != nil {
		return err
	}

	seq := s.seq
	now := s.clock.Now()
	remaining := claims.ExpiresAt.Sub(now)
	delay := remaining - s.leadTime
	if delay <= 0 && renewed {
		delay = max(remaining/2, MinRenewalInterval)
		s.log.Warn().Time("expires_at", claims.ExpiresAt).Dur("delay", delay).
			Msg("Renewed access token is already inside the renewal window, check token lifetime and clock skew")
	}
	if delay <= 0 {
		s.log.Debug().Time("expires_at", claims.ExpiresAt).Msg("Access token inside renewal window, renewing now")
		go s.run(seq)
		return nil
	}

	s.due = now.Add(delay)
	s.timer = s.clock.AfterFunc(delay, func() { s.run(seq) })
	s.log.Debug().Dur("delay", delay).Time("due", s.due).Msg("Renewal scheduled")
	return nil
}

// Cancel drops the pending renewal, if any
func (s *Scheduler) Cancel() {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.stopLocked()
}

// Next returns when the pending renewal is due
func (s *Scheduler) Next() (time.Time, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.timer == nil {
		return time.Time{}, false
	}
	return s.due, true
}

// LeadTime returns the configured renewal margin
func (s *Scheduler) LeadTime() time.Duration {
	return s.leadTime
}

func (s *Scheduler) run(seq uint64) {
	s.lock.Lock()
	if seq != s.seq {
		s.lock.Unlock()
		return
	}
	s.seq++
	s.timer = nil
	s.due = time.Time{}
	s.lock.Unlock()

	s.fire()
}

func (s *Scheduler) stopLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.due = time.Time{}
	s.seq++
}
