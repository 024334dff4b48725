package team

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/mbltya/cinebook/client"
	"github.com/mbltya/cinebook/entities"
	"github.com/mbltya/cinebook/logger"
	"github.com/mbltya/cinebook/persistence"
)

type DelayFunc func(time.Duration) <-chan time.Time

type WatchTeamWorkingMaterial struct {
	Client       client.BookingAPI
	Journal      persistence.Persistence
	Log          logger.Logger
	Delay        DelayFunc        // Injected delay function for timers
	Now          func() time.Time // Injected clock
	SampleOffset time.Duration    // how long after start to sample occupancy
}

// WatchTeam schedules an occupancy sample for each upcoming session and
// journals the result when the timer fires. WorkerCount bounds how many
// samples fetch concurrently when timers land close together.
type WatchTeam struct {
	WorkerCount     int
	WorkingMaterial *WatchTeamWorkingMaterial
}

func NewWatchTeam(workerCount int, wm *WatchTeamWorkingMaterial) *WatchTeam {
	return &WatchTeam{
		WorkerCount:     workerCount,
		WorkingMaterial: wm,
	}
}

// Run blocks until every scheduled sample has fired or been skipped.
func (wt *WatchTeam) Run(ctx context.Context, sessions []entities.Session, callback func(item entities.WatchItem)) {
	var wg sync.WaitGroup
	delayFunc := wt.WorkingMaterial.Delay
	if delayFunc == nil {
		delayFunc = time.After
	}
	nowFunc := wt.WorkingMaterial.Now
	if nowFunc == nil {
		nowFunc = time.Now
	}
	workers := wt.WorkerCount
	if workers <= 0 {
		workers = 1
	}
	sem := make(chan struct{}, workers)

	for _, session := range sessions {
		now := nowFunc()
		startTime, err := time.ParseInLocation("2006-01-02T15:04:05", session.StartTime, now.Location())
		if err != nil {
			wt.WorkingMaterial.Log.Warn("failed to parse start time", "sessionId", session.ID, "startTime", session.StartTime, "error", err)
			continue
		}
		targetTime := startTime.Add(wt.WorkingMaterial.SampleOffset)
		// Jitter so samples don't all land on the backend at once
		minDelay := 100 * time.Millisecond
		maxDelay := 2 * time.Minute
		deltaMillis := rand.Int63n(maxDelay.Milliseconds()-minDelay.Milliseconds()+1) + minDelay.Milliseconds()
		targetTime = targetTime.Add(time.Duration(deltaMillis) * time.Millisecond)
		duration := targetTime.Sub(now)
		if duration <= 0 {
			wt.WorkingMaterial.Log.Info("session already past sample window, skipping", "sessionId", session.ID)
			continue
		}
		wt.WorkingMaterial.Log.Info("scheduled occupancy sample",
			"sessionId", session.ID, "movie", session.MovieTitle, "firesAt", targetTime.Format(time.RFC3339))
		wg.Add(1)
		go func(s entities.Session, delay time.Duration) {
			defer wg.Done()
			select {
			case <-ctx.Done():
				return
			case <-delayFunc(delay):
			}
			sem <- struct{}{}
			defer func() { <-sem }()
			item, err := wt.sample(ctx, s)
			if err != nil {
				wt.WorkingMaterial.Log.Error("occupancy sample failed", "sessionId", s.ID, "error", err)
				return
			}
			if callback != nil {
				callback(item)
			}
		}(session, duration)
	}
	wg.Wait()
}

func (wt *WatchTeam) sample(ctx context.Context, session entities.Session) (entities.WatchItem, error) {
	tickets, err := wt.WorkingMaterial.Client.SessionTickets(ctx, session.ID)
	if err != nil {
		return entities.WatchItem{}, fmt.Errorf("error fetching tickets for session %d: %w", session.ID, err)
	}
	booked := 0
	for _, t := range tickets {
		if t.Status.Occupying() {
			booked++
		}
	}

	total := 0
	if hall, err := wt.WorkingMaterial.Client.GetHall(ctx, session.HallID); err == nil {
		total = hall.Rows * hall.SeatsPerRow
	}

	item := entities.WatchItem{
		Session:     session,
		BookedSeats: booked,
		TotalSeats:  total,
		SampledAt:   time.Now(),
	}

	if wt.WorkingMaterial.Journal != nil {
		record := entities.BookingRecord{
			Kind:        "occupancy",
			SessionID:   session.ID,
			MovieTitle:  session.MovieTitle,
			CinemaName:  session.CinemaName,
			BookedSeats: booked,
			TotalSeats:  total,
			LoggedAt:    item.SampledAt,
		}
		if err := wt.WorkingMaterial.Journal.WriteRecord(ctx, record); err != nil {
			wt.WorkingMaterial.Log.Warn("failed to journal occupancy sample", "sessionId", session.ID, "error", err)
		}
	}
	return item, nil
}
