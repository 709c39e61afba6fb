package render

import "fmt"

// Score is the HUD score readout.
type Score struct {
	label Label
	value int
}

func NewScore(r Renderer) *Score {
	s := &Score{label: r.Label("")}
	s.redraw()
	return s
}

func (s *Score) Drawable() Drawable { return s.label }

func (s *Score) Value() int { return s.value }

// Add changes the score by delta and returns the new total.
func (s *Score) Add(delta int) int {
	s.value += delta
	s.redraw()
	return s.value
}

func (s *Score) Reset() {
	s.value = 0
	s.redraw()
}

func (s *Score) redraw() {
	s.label.SetText(fmt.Sprintf("SCORE %06d", s.value))
}

// AmmoCounter shows one player's remaining ammo.
type AmmoCounter struct {
	label  Label
	player int
	ammo   int
}

func NewAmmoCounter(r Renderer, player, ammo int) *AmmoCounter {
	c := &AmmoCounter{label: r.Label(""), player: player, ammo: ammo}
	c.redraw()
	return c
}

func (c *AmmoCounter) Drawable() Drawable { return c.label }

func (c *AmmoCounter) Ammo() int { return c.ammo }

func (c *AmmoCounter) Set(ammo int) {
	c.ammo = ammo
	c.redraw()
}

func (c *AmmoCounter) redraw() {
	if c.ammo < 0 {
		c.label.SetText(fmt.Sprintf("P%d AMMO --", c.player+1))
		return
	}
	c.label.SetText(fmt.Sprintf("P%d AMMO %d", c.player+1, c.ammo))
}
