package state

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/five82/veriaccess/internal/api"
	"github.com/five82/veriaccess/internal/veriaccess"
)

// Dashboard is one poll's worth of data.
type Dashboard struct {
	Occupancy     *veriaccess.BuildingOccupancy
	Visitors      []veriaccess.Visitor
	RecentLogs    []veriaccess.AccessLog
	Notifications []veriaccess.Notification
}

// Snapshot represents the latest data available to the UI.
type Snapshot struct {
	Occupancy           veriaccess.BuildingOccupancy
	HasOccupancy        bool
	Visitors            []veriaccess.Visitor
	RecentLogs          []veriaccess.AccessLog
	Notifications       []veriaccess.Notification
	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int  // Number of consecutive poll failures
	SessionExpired      bool // refresh failed; the user must sign in again
}

// IsOffline returns true when the API has been unreachable for multiple polls.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Unread counts notifications not yet marked read.
func (s Snapshot) Unread() int {
	n := 0
	for _, item := range s.Notifications {
		if !item.Read {
			n++
		}
	}
	return n
}

// VisitorsInside counts visitors currently in the building.
func (s Snapshot) VisitorsInside() int {
	n := 0
	for _, v := range s.Visitors {
		if v.Status == veriaccess.VisitorInside {
			n++
		}
	}
	return n
}

// Store coordinates concurrent updates to the snapshot.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// Update replaces the stored snapshot. When err is non-nil the previous data is
// kept but the error is recorded for visibility. A session-expired error also
// drops the data, since it belonged to the signed-out user.
func (s *Store) Update(d *Dashboard, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.snapshot.LastError = err
		s.snapshot.LastUpdated = time.Now()
		if errors.Is(err, api.ErrSessionExpired) {
			s.snapshot = Snapshot{
				LastError:      err,
				LastUpdated:    s.snapshot.LastUpdated,
				SessionExpired: true,
			}
			return
		}
		s.snapshot.ConsecutiveFailures++
		return
	}

	if d == nil {
		d = &Dashboard{}
	}
	if d.Occupancy != nil {
		s.snapshot.Occupancy = *d.Occupancy
		s.snapshot.HasOccupancy = true
	} else {
		s.snapshot.HasOccupancy = false
	}
	s.snapshot.Visitors = cloneSlice(d.Visitors)
	s.snapshot.RecentLogs = cloneSlice(d.RecentLogs)
	s.snapshot.Notifications = cloneSlice(d.Notifications)
	s.snapshot.LastError = nil
	s.snapshot.LastUpdated = time.Now()
	s.snapshot.ConsecutiveFailures = 0
	s.snapshot.SessionExpired = false
}

// MarkRead flags a notification as read without waiting for the next poll.
func (s *Store) MarkRead(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.snapshot.Notifications {
		if s.snapshot.Notifications[i].ID == id {
			s.snapshot.Notifications[i].Read = true
		}
	}
}

// Reset forgets everything, for example after logout.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = Snapshot{}
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Visitors = cloneSlice(s.snapshot.Visitors)
	snap.RecentLogs = cloneSlice(s.snapshot.RecentLogs)
	snap.Notifications = cloneSlice(s.snapshot.Notifications)
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}

func cloneSlice[T any](items []T) []T {
	if len(items) == 0 {
		return nil
	}
	dup := make([]T, len(items))
	copy(dup, items)
	return dup
}
