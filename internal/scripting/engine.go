package scripting

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

//go:embed defaults/*.lua
var defaultScripts embed.FS

// Engine wraps a single gopher-lua VM holding the gameplay rules.
// Single-goroutine access only (game loop).
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine loads the built-in rules, then every .lua file in scriptsDir so
// local scripts can override them. An empty or missing dir is fine.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState()
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}

	if err := e.loadEmbedded(); err != nil {
		vm.Close()
		return nil, fmt.Errorf("load default scripts: %w", err)
	}
	if scriptsDir != "" {
		if err := e.loadDir(scriptsDir); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load scripts: %w", err)
		}
	}
	return e, nil
}

func (e *Engine) loadEmbedded() error {
	names, err := fs.Glob(defaultScripts, "defaults/*.lua")
	if err != nil {
		return err
	}
	sort.Strings(names)
	for _, name := range names {
		src, err := defaultScripts.ReadFile(name)
		if err != nil {
			return err
		}
		if err := e.vm.DoString(string(src)); err != nil {
			return fmt.Errorf("load %s: %w", name, err)
		}
	}
	return nil
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// Side describes one party of a contact.
type Side struct {
	Projectile bool
	Player     bool
}

// HitContext is a contact that involved at least one projectile.
type HitContext struct {
	A, B Side
}

// DefaultHitScore is the rule used when the script is missing or fails.
func DefaultHitScore(ctx HitContext) int {
	if ctx.A.Player || ctx.B.Player {
		return -50
	}
	if ctx.A.Projectile != ctx.B.Projectile {
		return 10
	}
	return 0
}

// DefaultAmmoBonus picks bonuses[players-1], clamped to the table.
func DefaultAmmoBonus(players int, bonuses []int) int {
	if players < 1 || len(bonuses) == 0 {
		return 0
	}
	return bonuses[min(players, len(bonuses))-1]
}

// CalcHitScore calls the Lua calc_hit_score function.
func (e *Engine) CalcHitScore(ctx HitContext) int {
	fn := e.vm.GetGlobal("calc_hit_score")
	if fn == lua.LNil {
		e.log.Error("lua function calc_hit_score not found")
		return DefaultHitScore(ctx)
	}

	t := e.vm.NewTable()
	t.RawSetString("a", e.sideTable(ctx.A))
	t.RawSetString("b", e.sideTable(ctx.B))

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, t); err != nil {
		e.log.Error("lua calc_hit_score error", zap.Error(err))
		return DefaultHitScore(ctx)
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)
	n, ok := result.(lua.LNumber)
	if !ok {
		e.log.Error("lua calc_hit_score returned non-number", zap.String("type", result.Type().String()))
		return DefaultHitScore(ctx)
	}
	return int(n)
}

func (e *Engine) sideTable(s Side) *lua.LTable {
	t := e.vm.NewTable()
	t.RawSetString("projectile", lua.LBool(s.Projectile))
	t.RawSetString("player", lua.LBool(s.Player))
	return t
}

// CalcAmmoBonus calls the Lua calc_ammo_bonus function with the player count
// and the configured bonus table.
func (e *Engine) CalcAmmoBonus(players int, bonuses []int) int {
	fn := e.vm.GetGlobal("calc_ammo_bonus")
	if fn == lua.LNil {
		e.log.Error("lua function calc_ammo_bonus not found")
		return DefaultAmmoBonus(players, bonuses)
	}

	t := e.vm.NewTable()
	for _, b := range bonuses {
		t.Append(lua.LNumber(b))
	}
	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, lua.LNumber(players), t); err != nil {
		e.log.Error("lua calc_ammo_bonus error", zap.Error(err))
		return DefaultAmmoBonus(players, bonuses)
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)
	return int(lua.LVAsNumber(result))
}

// CalcFinalScore calls the optional Lua calc_final_score(score, sectors)
// hook. Without it the score is kept as is.
func (e *Engine) CalcFinalScore(score, sectors int) int {
	if e.vm.GetGlobal("calc_final_score") == lua.LNil {
		return score
	}
	return e.callIntFunc("calc_final_score", score, sectors)
}

// callIntFunc calls a Lua function with int args and returns an int result.
func (e *Engine) callIntFunc(name string, args ...int) int {
	fn := e.vm.GetGlobal(name)
	if fn == lua.LNil {
		e.log.Error("lua function not found", zap.String("name", name))
		return 0
	}

	lArgs := make([]lua.LValue, len(args))
	for i, a := range args {
		lArgs[i] = lua.LNumber(a)
	}

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, lArgs...); err != nil {
		e.log.Error("lua call error", zap.String("func", name), zap.Error(err))
		return 0
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)
	return int(lua.LVAsNumber(result))
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}
