package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mbltya/cinebook/entities"
)

// Persistence defines the interface for the booking journal
// Implementations: FilePersistence, PostgresPersistence
type Persistence interface {
	WriteRecord(ctx context.Context, entry entities.BookingRecord) error
}

// FilePersistence implements Persistence by appending to a file
type FilePersistence struct {
	FilePath string
	mu       sync.Mutex
}

func NewFilePersistence(filePath string) *FilePersistence {
	return &FilePersistence{FilePath: filePath}
}

func (f *FilePersistence) WriteRecord(ctx context.Context, entry entities.BookingRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	file, err := os.OpenFile(f.FilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("error opening journal file: %w", err)
	}
	defer file.Close()
	enc := json.NewEncoder(file)
	if err := enc.Encode(entry); err != nil {
		return fmt.Errorf("error writing journal entry: %w", err)
	}
	return nil
}

// PostgresPersistence implements Persistence by writing to the booking_journal table
type PostgresPersistence struct {
	Pool *pgxpool.Pool
}

func NewPostgresPersistence(pool *pgxpool.Pool) *PostgresPersistence {
	return &PostgresPersistence{Pool: pool}
}

func (p *PostgresPersistence) WriteRecord(ctx context.Context, entry entities.BookingRecord) error {
	_, err := p.Pool.Exec(ctx, `
		INSERT INTO booking_journal (kind, session_id, movie_title, cinema_name, ticket_id, row_number, seat_number, booked_seats, total_seats, logged_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		entry.Kind,
		entry.SessionID,
		entry.MovieTitle,
		entry.CinemaName,
		entry.TicketID,
		entry.RowNumber,
		entry.SeatNumber,
		entry.BookedSeats,
		entry.TotalSeats,
		entry.LoggedAt,
	)
	if err != nil {
		return fmt.Errorf("error inserting journal entry: %w", err)
	}
	return nil
}
