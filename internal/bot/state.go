package bot

import (
	"sync"
	"time"
)

// State names where the loop currently is in the battle cycle.
type State int

const (
	StateMainMenu State = iota
	StateEnteringMinigame
	StateSelectingStage
	StateAutoBattleRunning
	StateAwaitingSettlement
	StateConfirmingSettlement
	StateReturningToMenu
)

func (s State) String() string {
	switch s {
	case StateMainMenu:
		return "main_menu"
	case StateEnteringMinigame:
		return "entering_minigame"
	case StateSelectingStage:
		return "selecting_stage"
	case StateAutoBattleRunning:
		return "auto_battle_running"
	case StateAwaitingSettlement:
		return "awaiting_settlement"
	case StateConfirmingSettlement:
		return "confirming_settlement"
	case StateReturningToMenu:
		return "returning_to_menu"
	default:
		return "unknown"
	}
}

// Stats counts battle outcomes for the lifetime of one run. Counters live
// in memory only and print at shutdown.
type Stats struct {
	mu        sync.Mutex
	started   time.Time
	battles   int
	wins      int
	losses    int
	undecided int
}

func NewStats() *Stats {
	return &Stats{started: time.Now()}
}

func (s *Stats) RecordWin() {
	s.mu.Lock()
	s.battles++
	s.wins++
	s.mu.Unlock()
}

func (s *Stats) RecordLoss() {
	s.mu.Lock()
	s.battles++
	s.losses++
	s.mu.Unlock()
}

func (s *Stats) RecordUndecided() {
	s.mu.Lock()
	s.battles++
	s.undecided++
	s.mu.Unlock()
}

// StatsSnapshot is a point-in-time copy of the counters.
type StatsSnapshot struct {
	Started   time.Time
	Elapsed   time.Duration
	Battles   int
	Wins      int
	Losses    int
	Undecided int
}

// WinRate is wins over decided battles, 0 when nothing is decided yet.
func (s StatsSnapshot) WinRate() float64 {
	decided := s.Wins + s.Losses
	if decided == 0 {
		return 0
	}
	return float64(s.Wins) / float64(decided)
}

func (s *Stats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return StatsSnapshot{
		Started:   s.started,
		Elapsed:   time.Since(s.started),
		Battles:   s.battles,
		Wins:      s.wins,
		Losses:    s.losses,
		Undecided: s.undecided,
	}
}
