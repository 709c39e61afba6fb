package game

import "github.com/sectorjam/server/internal/state"

// State triggers.
const (
	PlayGame       state.Trigger = "play_game"
	StartChild     state.Trigger = "start_child"
	SectorComplete state.Trigger = "sector_complete"
	PlayerDied     state.Trigger = "player_died"
	GameFinished   state.Trigger = "game_finished"
	SplashDone     state.Trigger = "splash_done"
)

// State aliases.
const (
	RootState          = "Root"
	WelcomeSplashState = "WelcomeSplash"
	MainMenuState      = "MainMenu"
	EnvironmentState   = "Environment"
	GameCompleteState  = "GameComplete"
	GameOverState      = "GameOver"
)

// Session outcomes recorded with the score.
const (
	OutcomeComplete = "complete"
	OutcomeGameOver = "game_over"
)
