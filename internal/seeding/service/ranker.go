package service

import (
	"sort"

	tournamentModel "github.com/festy23/tournament_sync/internal/tournament/model"
)

// topRemainingCount is how many non-winner teams advance into the seeding
// order after the bracket winners.
const topRemainingCount = 6

// SeedEntry is one seeded team with its full stat line.
type SeedEntry struct {
	Rank            int    `json:"rank"`
	TeamName        string `json:"team_name"`
	BracketName     string `json:"bracket_name"`
	IsBracketWinner bool   `json:"is_bracket_winner"`
	Played          int    `json:"played"`
	Wins            int    `json:"wins"`
	Draws           int    `json:"draws"`
	Losses          int    `json:"losses"`
	GoalsFor        int    `json:"goals_for"`
	GoalsAgainst    int    `json:"goals_against"`
	GoalDifference  int    `json:"goal_difference"`
	Points          int    `json:"points"`
}

// SeedingResult is the computed seeding order for one division: every
// bracket winner first, then the best remaining teams across all brackets.
type SeedingResult struct {
	Winners      []SeedEntry `json:"winners"`
	TopRemaining []SeedEntry `json:"top_remaining"`
}

// standingLess is the single ordering rule used everywhere in seeding:
// points desc, goal difference desc, goals for desc, goals against asc,
// team name asc as the final deterministic tie-break.
func standingLess(a, b *tournamentModel.BracketStanding) bool {
	if a.Points != b.Points {
		return a.Points > b.Points
	}
	if a.GoalDifference != b.GoalDifference {
		return a.GoalDifference > b.GoalDifference
	}
	if a.GoalsFor != b.GoalsFor {
		return a.GoalsFor > b.GoalsFor
	}
	if a.GoalsAgainst != b.GoalsAgainst {
		return a.GoalsAgainst < b.GoalsAgainst
	}
	return a.TeamName < b.TeamName
}

func sortStandings(standings []*tournamentModel.BracketStanding) {
	sort.Slice(standings, func(i, j int) bool {
		return standingLess(standings[i], standings[j])
	})
}

// ComputeSeeding computes the seeding order over one division's standings.
// Pure function: no storage access, no side effects.
func ComputeSeeding(standings []tournamentModel.BracketStanding) SeedingResult {
	brackets := make(map[string][]*tournamentModel.BracketStanding)
	bracketNames := make([]string, 0)
	for i := range standings {
		st := &standings[i]
		if _, ok := brackets[st.BracketName]; !ok {
			bracketNames = append(bracketNames, st.BracketName)
		}
		brackets[st.BracketName] = append(brackets[st.BracketName], st)
	}
	sort.Strings(bracketNames)

	var winners []*tournamentModel.BracketStanding
	var remaining []*tournamentModel.BracketStanding
	for _, name := range bracketNames {
		group := brackets[name]
		sortStandings(group)
		winners = append(winners, group[0])
		remaining = append(remaining, group[1:]...)
	}

	sortStandings(winners)
	sortStandings(remaining)
	if len(remaining) > topRemainingCount {
		remaining = remaining[:topRemainingCount]
	}

	result := SeedingResult{
		Winners:      make([]SeedEntry, 0, len(winners)),
		TopRemaining: make([]SeedEntry, 0, len(remaining)),
	}
	rank := 1
	for _, st := range winners {
		result.Winners = append(result.Winners, newSeedEntry(st, rank, true))
		rank++
	}
	for _, st := range remaining {
		result.TopRemaining = append(result.TopRemaining, newSeedEntry(st, rank, false))
		rank++
	}

	return result
}

func newSeedEntry(st *tournamentModel.BracketStanding, rank int, winner bool) SeedEntry {
	return SeedEntry{
		Rank:            rank,
		TeamName:        st.TeamName,
		BracketName:     st.BracketName,
		IsBracketWinner: winner,
		Played:          st.Played,
		Wins:            st.Wins,
		Draws:           st.Draws,
		Losses:          st.Losses,
		GoalsFor:        st.GoalsFor,
		GoalsAgainst:    st.GoalsAgainst,
		GoalDifference:  st.GoalDifference,
		Points:          st.Points,
	}
}
