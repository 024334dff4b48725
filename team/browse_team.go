package team

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/mbltya/cinebook/client"
	"github.com/mbltya/cinebook/entities"
)

type BrowseTeamWorkingMaterial struct {
	RequestDelay time.Duration
	Completed    *int64
	Client       client.BookingAPI
}

// BrowseTeam decorates sessions with hall geometry and live occupancy.
// Stage 1 fetches each distinct hall once; stage 2 fans out over sessions
// to count occupying tickets.
type BrowseTeam struct {
	WorkerCount     int
	WorkingMaterial *BrowseTeamWorkingMaterial
}

func NewBrowseTeam(workerCount int, wm *BrowseTeamWorkingMaterial) *BrowseTeam {
	return &BrowseTeam{
		WorkerCount:     workerCount,
		WorkingMaterial: wm,
	}
}

func (bt *BrowseTeam) Run(ctx context.Context, sessions []entities.Session) []entities.SessionSummary {
	// Stage 1: fetch each distinct hall once
	seen := map[int64]bool{}
	var hallIDs []int64
	for _, s := range sessions {
		if !seen[s.HallID] {
			seen[s.HallID] = true
			hallIDs = append(hallIDs, s.HallID)
		}
	}

	hallTeam := Team[int64, entities.Hall]{
		WorkerCount: bt.WorkerCount,
		Worker: func(id int64) (entities.Hall, error) {
			hall, err := bt.WorkingMaterial.Client.GetHall(ctx, id)
			if err != nil {
				return entities.Hall{}, fmt.Errorf("error fetching hall %d: %w", id, err)
			}
			return *hall, nil
		},
	}
	halls := map[int64]entities.Hall{}
	for _, hall := range hallTeam.Run(ctx, hallIDs) {
		halls[hall.ID] = hall
	}

	// Stage 2: for each session, count occupying tickets
	sessionTeam := Team[entities.Session, entities.SessionSummary]{
		WorkerCount: bt.WorkerCount,
		Worker: func(session entities.Session) (entities.SessionSummary, error) {
			tickets, err := bt.WorkingMaterial.Client.SessionTickets(ctx, session.ID)
			if err != nil {
				return entities.SessionSummary{}, fmt.Errorf("error fetching tickets for session %d: %w", session.ID, err)
			}
			booked := 0
			for _, t := range tickets {
				if t.Status.Occupying() {
					booked++
				}
			}
			hall := halls[session.HallID]
			summary := entities.SessionSummary{
				Session:     session,
				Rows:        hall.Rows,
				SeatsPerRow: hall.SeatsPerRow,
				TotalSeats:  hall.Rows * hall.SeatsPerRow,
				BookedSeats: booked,
			}
			if bt.WorkingMaterial.Completed != nil {
				atomic.AddInt64(bt.WorkingMaterial.Completed, 1)
			}
			time.Sleep(bt.WorkingMaterial.RequestDelay)
			return summary, nil
		},
	}
	return sessionTeam.Run(ctx, sessions)
}
