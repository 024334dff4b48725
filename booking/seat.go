package booking

import (
	"fmt"
	"sort"

	mapset "github.com/deckarep/golang-set/v2"
)

// SeatKey identifies one seat within a hall. Seats are compared by value;
// the "row-number" string form exists only for user-facing text.
type SeatKey struct {
	Row    int
	Number int
}

func (k SeatKey) String() string {
	return fmt.Sprintf("%d-%d", k.Row, k.Number)
}

// ParseSeatKey reads the "row-number" form used on the command line.
func ParseSeatKey(s string) (SeatKey, error) {
	var k SeatKey
	if _, err := fmt.Sscanf(s, "%d-%d", &k.Row, &k.Number); err != nil {
		return SeatKey{}, fmt.Errorf("invalid seat %q, expected row-number: %w", s, err)
	}
	if k.Row <= 0 || k.Number <= 0 {
		return SeatKey{}, fmt.Errorf("invalid seat %q: row and number must be positive", s)
	}
	return k, nil
}

type SeatStatus int

const (
	SeatAvailable SeatStatus = iota
	SeatSelected
	SeatBooked
	SeatUnavailable
)

func (s SeatStatus) String() string {
	switch s {
	case SeatAvailable:
		return "available"
	case SeatSelected:
		return "selected"
	case SeatBooked:
		return "booked"
	default:
		return "unavailable"
	}
}

// SortSeats orders keys row-major, the order halls are read in.
func SortSeats(keys []SeatKey) {
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Row != keys[j].Row {
			return keys[i].Row < keys[j].Row
		}
		return keys[i].Number < keys[j].Number
	})
}

// BookedSetFromKeys builds the set form used for merge operations.
func BookedSetFromKeys(keys ...SeatKey) mapset.Set[SeatKey] {
	return mapset.NewSet(keys...)
}
