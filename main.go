package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mbltya/cinebook/apierror"
	"github.com/mbltya/cinebook/auth"
	"github.com/mbltya/cinebook/booking"
	"github.com/mbltya/cinebook/client"
	"github.com/mbltya/cinebook/config"
	"github.com/mbltya/cinebook/endpoint"
	"github.com/mbltya/cinebook/entities"
	"github.com/mbltya/cinebook/logger"
	"github.com/mbltya/cinebook/persistence"
	"github.com/mbltya/cinebook/team"
	"github.com/mbltya/cinebook/utils"
)

const usage = `usage: cinebook <command> [flags]

commands:
  browse   list sessions with hall geometry and seats left
  book     select seats for a session and commit them
  cancel   cancel a ticket by id
  tickets  list your tickets
  watch    sample occupancy of upcoming sessions after they start
`

type app struct {
	cfg     *config.Config
	log     logger.Logger
	api     *client.BookingClient
	tokens  *auth.TokenManager
	journal persistence.Persistence
}

func main() {
	if len(os.Args) < 2 {
		fmt.Print(usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Encoding)
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		log.Error("startup failed", "error", err)
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "browse":
		err = a.browse(ctx, args)
	case "book":
		err = a.book(ctx, args)
	case "cancel":
		err = a.cancel(ctx, args)
	case "tickets":
		err = a.tickets(ctx, args)
	case "watch":
		err = a.watch(ctx, args)
	default:
		fmt.Print(usage)
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, apierror.UserMessage(err))
		log.Error("command failed", "command", command, "error", err)
		os.Exit(1)
	}
}

func newApp(ctx context.Context, cfg *config.Config, log logger.Logger) (*app, error) {
	endpoints, err := endpoint.New(&endpoint.ManagerOptions{BaseURLs: cfg.API.BaseURLs})
	if err != nil {
		return nil, fmt.Errorf("failed to build endpoint manager: %w", err)
	}

	tokens := auth.New(auth.Options{
		Token:    cfg.Auth.Token,
		Email:    cfg.Auth.Email,
		Password: cfg.Auth.Password,
		BaseURL:  cfg.API.BaseURLs[0],
	})

	api := client.New(endpoints, tokens, cfg.API.Timeout)

	var journal persistence.Persistence
	if cfg.Journal.DatabaseURL != "" {
		pool, err := persistence.NewPostgresPool(ctx, cfg.Journal.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect journal database: %w", err)
		}
		if err := persistence.InitPostgresSchema(ctx, pool); err != nil {
			return nil, fmt.Errorf("failed to init journal schema: %w", err)
		}
		journal = persistence.NewPostgresPersistence(pool)
		log.Info("journal backed by postgres")
	} else {
		journal = persistence.NewFilePersistence(cfg.Journal.FilePath)
		log.Info("journal backed by file", "path", cfg.Journal.FilePath)
	}

	if err := api.Health(ctx); err != nil {
		log.Warn("backend health check failed", "error", err)
	}

	return &app{cfg: cfg, log: log, api: api, tokens: tokens, journal: journal}, nil
}

func (a *app) browse(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("browse", flag.ExitOnError)
	movieID := fs.Int64("movie", 0, "Only sessions for this movie id")
	cinemaID := fs.Int64("cinema", 0, "Only sessions at this cinema id")
	outFile := fs.String("out", "", "Write summaries to this JSON file")
	fs.Parse(args)

	sessions, err := a.api.ListSessions(ctx)
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	if *movieID != 0 {
		movies, err := a.api.ListMovies(ctx)
		if err != nil {
			return fmt.Errorf("failed to list movies: %w", err)
		}
		title := utils.GetMovieTitle(*movieID, movies)
		if title == "" {
			return fmt.Errorf("no movie with id %d", *movieID)
		}
		sessions = filterSessions(sessions, func(s entities.Session) bool { return s.MovieTitle == title })
		fmt.Printf("🎬 Showing sessions for %s\n", title)
	}
	if *cinemaID != 0 {
		cinemas, err := a.api.ListCinemas(ctx)
		if err != nil {
			return fmt.Errorf("failed to list cinemas: %w", err)
		}
		name := utils.GetCinemaName(*cinemaID, cinemas)
		if name == "" {
			return fmt.Errorf("no cinema with id %d", *cinemaID)
		}
		sessions = filterSessions(sessions, func(s entities.Session) bool { return s.CinemaName == name })
		fmt.Printf("🏠 Showing sessions at %s\n", name)
	}

	if len(sessions) == 0 {
		fmt.Println("No sessions found")
		return nil
	}
	fmt.Printf("Fetching details for %d sessions with %d workers\n", len(sessions), a.cfg.Browse.Workers)

	var completed int64
	stopProgress := make(chan struct{})
	go utils.ReportProgress(&completed, int64(len(sessions)), stopProgress)

	browseTeam := team.NewBrowseTeam(a.cfg.Browse.Workers, &team.BrowseTeamWorkingMaterial{
		RequestDelay: a.cfg.Browse.RequestDelay,
		Completed:    &completed,
		Client:       a.api,
	})
	summaries := browseTeam.Run(ctx, sessions)
	close(stopProgress)
	fmt.Println()

	for _, s := range summaries {
		fmt.Printf("%6d  %-30s  %-20s  %s  %3d/%d seats left  %.2f€\n",
			s.Session.ID, s.Session.MovieTitle, s.Session.CinemaName,
			s.Session.StartTime, s.SeatsLeft(), s.TotalSeats, s.Session.Price)
	}

	if *outFile != "" {
		return utils.WriteSummariesToFile(summaries, *outFile)
	}
	return nil
}

func (a *app) book(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("book", flag.ExitOnError)
	sessionID := fs.Int64("session", 0, "Session id to book")
	seatsArg := fs.String("seats", "", "Comma-separated seats as row-number, e.g. 3-5,3-6")
	receiptFile := fs.String("receipt", "", "Write the committed tickets to this JSON file")
	fs.Parse(args)

	if *sessionID == 0 || *seatsArg == "" {
		return fmt.Errorf("book requires -session and -seats")
	}

	var seats []booking.SeatKey
	for _, raw := range strings.Split(*seatsArg, ",") {
		key, err := booking.ParseSeatKey(strings.TrimSpace(raw))
		if err != nil {
			return fmt.Errorf("bad seat %q: %w", raw, err)
		}
		seats = append(seats, key)
	}

	user, err := a.tokens.User(ctx)
	if err != nil {
		return err
	}

	session, err := a.api.GetSession(ctx, *sessionID)
	if err != nil {
		return fmt.Errorf("failed to fetch session %d: %w", *sessionID, err)
	}
	hall, err := a.api.GetHall(ctx, session.HallID)
	if err != nil {
		return fmt.Errorf("failed to fetch hall %d: %w", session.HallID, err)
	}

	view, err := booking.NewView(ctx, a.api, *session, *hall, user, a.journal, a.log)
	if err != nil {
		return err
	}

	fmt.Printf("🎟  %s at %s, hall %s (%dx%d)\n",
		session.MovieTitle, session.CinemaName, hall.Name, hall.Rows, hall.SeatsPerRow)

	for _, seat := range seats {
		if err := view.Toggle(ctx, seat); err != nil {
			return fmt.Errorf("seat %s: %w", seat, err)
		}
		fmt.Printf("✔ selected seat %s\n", seat)
	}

	outcome, err := view.Commit(ctx)
	if outcome != nil && outcome.CommitResult != nil {
		for _, seat := range outcome.LostSeats {
			fmt.Printf("✘ seat %s was taken while you were choosing\n", seat)
		}
		for _, ticket := range outcome.Committed {
			fmt.Printf("✔ booked seat %d-%d, ticket %d\n", ticket.RowNumber, ticket.SeatNumber, ticket.ID)
		}
		for _, seat := range outcome.Unconfirmed {
			fmt.Printf("✘ seat %s was not booked\n", seat)
		}
		if len(outcome.Committed) > 0 {
			fmt.Printf("Total: %.2f€\n", outcome.TotalPrice)
		}
		if *receiptFile != "" && len(outcome.Committed) > 0 {
			if werr := utils.WriteTicketsToFile(outcome.Committed, *receiptFile); werr != nil {
				a.log.Warn("failed to write receipt", "error", werr)
			}
		}
	}
	return err
}

func (a *app) cancel(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("cancel", flag.ExitOnError)
	ticketID := fs.Int64("ticket", 0, "Ticket id to cancel")
	fs.Parse(args)

	if *ticketID == 0 {
		return fmt.Errorf("cancel requires -ticket")
	}

	if err := a.api.CancelTicket(ctx, *ticketID); err != nil {
		return fmt.Errorf("failed to cancel ticket %d: %w", *ticketID, err)
	}

	record := entities.BookingRecord{
		Kind:     "cancel",
		TicketID: *ticketID,
		LoggedAt: time.Now(),
	}
	if err := a.journal.WriteRecord(ctx, record); err != nil {
		a.log.Warn("failed to journal cancellation", "ticket_id", *ticketID, "error", err)
	}

	fmt.Printf("🗑  Ticket %d cancelled\n", *ticketID)
	return nil
}

func (a *app) tickets(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("tickets", flag.ExitOnError)
	outFile := fs.String("out", "", "Write tickets to this JSON file")
	fs.Parse(args)

	user, err := a.tokens.User(ctx)
	if err != nil {
		return err
	}

	tickets, err := a.api.UserTickets(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("failed to list tickets: %w", err)
	}
	if len(tickets) == 0 {
		fmt.Println("No tickets")
		return nil
	}
	for _, t := range tickets {
		fmt.Printf("%6d  session %d  seat %d-%d  %-9s  %.2f€\n",
			t.ID, t.SessionID, t.RowNumber, t.SeatNumber, t.Status, t.Price)
	}

	if *outFile != "" {
		return utils.WriteTicketsToFile(tickets, *outFile)
	}
	return nil
}

func (a *app) watch(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	offset := fs.Duration("offset", 12*time.Minute, "How long after start to sample occupancy")
	fs.Parse(args)

	sessions, err := a.api.ListSessions(ctx)
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}
	fmt.Printf("🔍 Found %d sessions to schedule samples for\n", len(sessions))

	watchTeam := team.NewWatchTeam(a.cfg.Browse.Workers, &team.WatchTeamWorkingMaterial{
		Client:       a.api,
		Journal:      a.journal,
		Log:          a.log,
		SampleOffset: *offset,
	})
	watchTeam.Run(ctx, sessions, func(item entities.WatchItem) {
		fmt.Printf("📊 %s at %s: %d/%d seats taken at %s\n",
			item.Session.MovieTitle, item.Session.CinemaName,
			item.BookedSeats, item.TotalSeats, item.SampledAt.Format(time.RFC3339))
	})
	return nil
}

func filterSessions(sessions []entities.Session, keep func(entities.Session) bool) []entities.Session {
	var out []entities.Session
	for _, s := range sessions {
		if keep(s) {
			out = append(out, s)
		}
	}
	return out
}
