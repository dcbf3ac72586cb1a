// Package scoreboard derives presentation data from a server-ordered
// scoreboard. Nothing here mutates or re-sorts the input.
package scoreboard

import (
	"math"
	"strconv"

	"github.com/Fish7w7/Party-Challenges/internal/session"
)

// Band classifies a score against the leader.
type Band string

const (
	BandExcellent Band = "excellent" // >= 80% of max
	BandGood      Band = "good"      // >= 60%
	BandAverage   Band = "average"   // >= 40%
	BandPoor      Band = "poor"
)

// Row is one ranked scoreboard entry.
type Row struct {
	session.ScoreEntry
	Position   int     `json:"position"`
	Label      string  `json:"label"`
	Band       Band    `json:"band"`
	PercentMax float64 `json:"percent_max"`
}

// Summary holds the aggregate statistics shown above the list.
type Summary struct {
	Count int `json:"count"`
	Max   int `json:"max"`
	Mean  int `json:"mean"`
}

// Rank annotates the entries in their given (server-authoritative) order.
// An empty scoreboard yields an empty slice, never a panic.
func Rank(entries []session.ScoreEntry) []Row {
	maxScore := 0
	if len(entries) > 0 {
		maxScore = entries[0].Score
	}
	rows := make([]Row, len(entries))
	for i, e := range entries {
		pos := i + 1
		pct := 0.0
		if maxScore > 0 {
			pct = float64(e.Score) / float64(maxScore) * 100
		}
		rows[i] = Row{
			ScoreEntry: e,
			Position:   pos,
			Label:      label(pos),
			Band:       band(pct),
			PercentMax: pct,
		}
	}
	return rows
}

// Summarize computes count/max/mean, defaulting to zero on an empty board.
func Summarize(entries []session.ScoreEntry) Summary {
	if len(entries) == 0 {
		return Summary{}
	}
	total := 0
	for _, e := range entries {
		total += e.Score
	}
	return Summary{
		Count: len(entries),
		Max:   entries[0].Score,
		Mean:  int(math.Round(float64(total) / float64(len(entries)))),
	}
}

// label keeps the podium distinct; everyone else gets a plain number.
func label(position int) string {
	switch position {
	case 1:
		return "1st"
	case 2:
		return "2nd"
	case 3:
		return "3rd"
	}
	return strconv.Itoa(position)
}

func band(percentMax float64) Band {
	switch {
	case percentMax >= 80:
		return BandExcellent
	case percentMax >= 60:
		return BandGood
	case percentMax >= 40:
		return BandAverage
	}
	return BandPoor
}
