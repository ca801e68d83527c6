package matchup

import (
	"strconv"

	"github.com/sam-maryland/sleeper-sync/internal/sleeper"
)

// Status is the lifecycle of a scheduled matchup
type Status string

const (
	Upcoming   Status = "upcoming"
	InProgress Status = "in_progress"
	Completed  Status = "completed"
)

// Cursor is the provider's current season and week. It is fetched once per
// run and passed to every phase that derives a status.
type Cursor struct {
	Season string
	Week   int
}

// CursorFromState reads the league season and week from Sleeper's state
func CursorFromState(s *sleeper.State) Cursor {
	season := s.LeagueSeason
	if season == "" {
		season = s.Season
	}
	return Cursor{Season: season, Week: s.Week}
}

// MapStatus derives a matchup's status from where its season and week sit
// relative to the cursor.
func MapStatus(season string, week int, cur Cursor) Status {
	switch cmp := compareSeasons(season, cur.Season); {
	case cmp < 0:
		return Completed
	case cmp > 0:
		return Upcoming
	}

	switch {
	case week < cur.Week:
		return Completed
	case week == cur.Week:
		return InProgress
	default:
		return Upcoming
	}
}

// compareSeasons orders seasons numerically, falling back to string order
// for values that are not plain years.
func compareSeasons(a, b string) int {
	ai, aErr := strconv.Atoi(a)
	bi, bErr := strconv.Atoi(b)
	if aErr != nil || bErr != nil {
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		}
		return 0
	}
	switch {
	case ai < bi:
		return -1
	case ai > bi:
		return 1
	}
	return 0
}

// IsCurrentSeason reports whether season is the cursor's season
func (c Cursor) IsCurrentSeason(season string) bool {
	return compareSeasons(season, c.Season) == 0
}
