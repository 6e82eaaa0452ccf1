package effect

import (
	"fmt"

	"github.com/deepdelve/roguecore/internal/core/ecs"
)

// Temporary ends its inner effect after the owner has taken Turns turns.
// Turns below 1 count as 1.
type Temporary struct {
	Lifecycle
	Inner Effect
	Turns int

	left int
}

func NewTemporary(inner Effect, turns int) *Temporary {
	return &Temporary{Inner: inner, Turns: turns}
}

func (t *Temporary) Name() string { return t.Inner.Name() }

// Remaining is the number of owner turns before expiry.
func (t *Temporary) Remaining() int { return t.left }

func (t *Temporary) Start(tg Target) (bool, error) {
	if err := t.Begin(); err != nil {
		return false, err
	}
	ok, err := t.Inner.Start(tg)
	if err != nil || !ok {
		t.state = Ended
		return false, err
	}
	t.left = max(t.Turns, 1)
	t.Track(tg.Host.TurnEnded(func(actor ecs.EntityID, _ int) {
		if actor != tg.Owner || t.state != Active {
			return
		}
		t.left--
		if t.left <= 0 {
			tg.Expire()
		}
	}))
	return true, nil
}

func (t *Temporary) End() {
	if t.Finish() {
		t.Inner.End()
	}
}

// Chance applies its inner effect with probability P.
type Chance struct {
	Lifecycle
	Inner Effect
	P     float64
}

func NewChance(inner Effect, p float64) *Chance {
	return &Chance{Inner: inner, P: p}
}

func (c *Chance) Name() string { return c.Inner.Name() }

func (c *Chance) Start(tg Target) (bool, error) {
	if c.state != NotStarted {
		return false, ErrAlreadyStarted
	}
	if !tg.Host.Rand().Chance(c.P) {
		c.Decline()
		return false, nil
	}
	_ = c.Begin()
	ok, err := c.Inner.Start(tg)
	if err != nil || !ok {
		c.state = Ended
		return false, err
	}
	return true, nil
}

func (c *Chance) End() {
	if c.Finish() {
		c.Inner.End()
	}
}

// NonStacking refuses to start while the owner already has an active
// effect with the same key. The key defaults to the inner effect's name.
type NonStacking struct {
	Lifecycle
	Inner Effect
	Key   string
}

func NewNonStacking(inner Effect) *NonStacking {
	return &NonStacking{Inner: inner}
}

func (n *NonStacking) Name() string { return n.Inner.Name() }

func (n *NonStacking) key() string {
	if n.Key != "" {
		return n.Key
	}
	return n.Inner.Name()
}

func (n *NonStacking) Start(tg Target) (bool, error) {
	if n.state != NotStarted {
		return false, ErrAlreadyStarted
	}
	for _, e := range tg.Host.Active(tg.Owner) {
		if e != Effect(n) && e.State() == Active && keyOf(e) == n.key() {
			n.Decline()
			return false, nil
		}
	}
	_ = n.Begin()
	ok, err := n.Inner.Start(tg)
	if err != nil || !ok {
		n.state = Ended
		return false, err
	}
	return true, nil
}

func (n *NonStacking) End() {
	if n.Finish() {
		n.Inner.End()
	}
}

func keyOf(e Effect) string {
	if n, ok := e.(*NonStacking); ok {
		return n.key()
	}
	return e.Name()
}

// Describe renders an effect chain, outermost first, e.g.
// "nonstacking(temporary(haste))".
func Describe(e Effect) string {
	switch d := e.(type) {
	case *Temporary:
		return fmt.Sprintf("temporary[%d](%s)", d.Turns, Describe(d.Inner))
	case *Chance:
		return fmt.Sprintf("chance[%.2f](%s)", d.P, Describe(d.Inner))
	case *NonStacking:
		return "nonstacking(" + Describe(d.Inner) + ")"
	default:
		return e.Name()
	}
}
