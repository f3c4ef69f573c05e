package domain

import (
	"errors"
	"time"
)

var (
	// ErrBuildInProgress indicates that a leaderboard rebuild is running.
	ErrBuildInProgress = errors.New("leaderboard is being built, try again shortly")
	// ErrPageNotFound indicates a page outside of the leaderboard.
	ErrPageNotFound = errors.New("leaderboard page not found")
	// ErrLeaderboardUnavailable indicates that no leaderboard could be built yet.
	ErrLeaderboardUnavailable = errors.New("leaderboard unavailable")
	// ErrNotRanked indicates that the account is not on the leaderboard.
	ErrNotRanked = errors.New("account is not ranked")
)

// LeaderboardEntry is one ranked account.
type LeaderboardEntry struct {
	DisplayName string  `json:"display_name"`
	Balance     float64 `json:"balance"`
	Account     string  `json:"account"`
}

// LeaderboardPage is a page of the leaderboard plus its aggregate metadata.
type LeaderboardPage struct {
	Number        int                `json:"number"`
	TotalPages    int                `json:"total_pages"`
	TotalBalance  float64            `json:"total_balance"`
	TotalAccounts int                `json:"total_accounts"`
	BuiltAt       time.Time          `json:"built_at"`
	Entries       []LeaderboardEntry `json:"entries"`
}
