package game

import (
	"context"

	"github.com/sectorjam/server/internal/persist"
	"github.com/sectorjam/server/internal/scripting"
)

// Rules decides score and pickup amounts. *scripting.Engine implements it.
type Rules interface {
	CalcHitScore(ctx scripting.HitContext) int
	CalcAmmoBonus(players int, bonuses []int) int
	CalcFinalScore(score, sectors int) int
}

// BuiltinRules is used when no scripting engine is configured.
type BuiltinRules struct{}

func (BuiltinRules) CalcHitScore(ctx scripting.HitContext) int {
	return scripting.DefaultHitScore(ctx)
}

func (BuiltinRules) CalcAmmoBonus(players int, bonuses []int) int {
	return scripting.DefaultAmmoBonus(players, bonuses)
}

func (BuiltinRules) CalcFinalScore(score, _ int) int { return score }

// ScoreSink stores finished sessions. *persist.ScoreRepo implements it.
type ScoreSink interface {
	Record(ctx context.Context, row persist.ScoreRow, sectors []persist.SectorResult) error
}
