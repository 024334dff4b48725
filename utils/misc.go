package utils

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/mbltya/cinebook/entities"
)

func ReportProgress(completed *int64, total int64, stop chan struct{}) {
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			current := atomic.LoadInt64(completed)
			percent := float64(current) / float64(total) * 100
			fmt.Printf("\rProgress: %d/%d (%.2f%%) completed", current, total, percent)
		case <-stop:
			// Final progress update
			current := atomic.LoadInt64(completed)
			percent := float64(current) / float64(total) * 100
			fmt.Printf("\rProgress: %d/%d (%.2f%%) completed", current, total, percent)
			return
		}
	}
}

func GetCinemaName(cinemaID int64, cinemas []entities.Cinema) string {
	for _, cinema := range cinemas {
		if cinema.ID == cinemaID {
			return cinema.Name
		}
	}
	return ""
}

func GetMovieTitle(movieID int64, movies []entities.Movie) string {
	for _, movie := range movies {
		if movie.ID == movieID {
			return movie.Title
		}
	}
	return ""
}
