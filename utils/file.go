package utils

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/mbltya/cinebook/entities"
)

func WriteSummariesToFile(summaries []entities.SessionSummary, filename string) error {
	data, err := json.MarshalIndent(summaries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal summaries: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write summaries to file: %w", err)
	}
	fmt.Printf("\nDone! Results written to %s\n", filename)
	return nil
}

func WriteTicketsToFile(tickets []entities.Ticket, filename string) error {
	data, err := json.MarshalIndent(tickets, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal tickets: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write tickets to file: %w", err)
	}
	fmt.Printf("\nDone! Receipt written to %s\n", filename)
	return nil
}
