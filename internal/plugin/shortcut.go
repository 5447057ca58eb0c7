package plugin

import (
	"github.com/dshills/enmity/internal/input/key"
)

// nudge is a one-cell change to the overlay placement.
type nudge struct {
	dx, dy int
	dw, dh int
}

// placementKeys move the overlay with Alt+arrows and resize it with
// Alt+Shift+arrows.
var placementKeys = map[key.Event]nudge{
	key.MustParse("Alt+Left"):        {dx: -1},
	key.MustParse("Alt+Right"):       {dx: 1},
	key.MustParse("Alt+Up"):          {dy: -1},
	key.MustParse("Alt+Down"):        {dy: 1},
	key.MustParse("Alt+Shift+Left"):  {dw: -1},
	key.MustParse("Alt+Shift+Right"): {dw: 1},
	key.MustParse("Alt+Shift+Up"):    {dh: -1},
	key.MustParse("Alt+Shift+Down"):  {dh: 1},
}

// handleKey toggles overlay visibility on the shortcut and hands focus back
// to the host. Placement keys move or resize the overlay. Every other key
// passes through.
func (c *Coordinator) handleKey(ev key.Event) bool {
	toggle := ev.Equals(c.shortcut)
	n, placement := placementKeys[ev]
	if !toggle && !placement {
		return false
	}

	c.mu.Lock()
	if c.state != StateActive || c.cfg == nil || c.proxy == nil {
		c.mu.Unlock()
		return false
	}
	proxy, surface := c.proxy, c.surface

	if !toggle {
		c.mu.Unlock()
		if n.dx != 0 || n.dy != 0 {
			proxy.Move(n.dx, n.dy)
		} else {
			proxy.Resize(n.dw, n.dh)
		}
		g := proxy.Geometry()
		c.log.WithComponent("Shortcut").Debug("overlay at %d,%d size %dx%d",
			g.Position.X, g.Position.Y, g.Size.W, g.Size.H)
		return true
	}

	c.cfg.Overlay.IsVisible = !c.cfg.Overlay.IsVisible
	visible := c.cfg.Overlay.IsVisible
	c.mu.Unlock()

	proxy.SetVisible(visible)
	if surface != nil {
		surface.Focus()
	}
	c.log.WithComponent("Shortcut").Debug("overlay visible = %t", visible)
	return true
}
