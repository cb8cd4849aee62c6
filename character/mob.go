package character

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/footsim/motion"
	"github.com/milk9111/footsim/prefabs"
	"go.uber.org/zap"
)

var ErrUnknownAction = errors.New("character: unknown mob action")

type ActionKind int

const (
	ActionStand ActionKind = iota
	ActionMoveLeft
	ActionMoveRight
	ActionJump
	ActionAttack
)

var actionNames = map[ActionKind]string{
	ActionStand:     "stand",
	ActionMoveLeft:  "move_left",
	ActionMoveRight: "move_right",
	ActionJump:      "jump",
	ActionAttack:    "attack",
}

func (k ActionKind) String() string {
	if name, ok := actionNames[k]; ok {
		return name
	}
	return "unknown"
}

func ParseActionKind(s string) (ActionKind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for kind, name := range actionNames {
		if name == s {
			return kind, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownAction, s)
}

// Action is one entry of a mob's repertoire. Valid gates selection and
// Update produces the intent for each step the action runs.
type Action struct {
	Kind       ActionKind
	Weight     int
	MinRepeat  int
	MaxRepeat  int
	DurationMs float64

	Valid  func(c *Controller, b *MobBehavior) bool
	Start  func(c *Controller, b *MobBehavior)
	Update func(c *Controller, b *MobBehavior) motion.Keys
}

// Region keeps a mob between two x coordinates in space units.
type Region struct {
	MinX float64
	MaxX float64
}

// MobBehavior picks an action every interval and turns it into keys.
type MobBehavior struct {
	Actions    []Action
	IntervalMs float64
	Region     *Region

	rng       *rand.Rand
	script    *Script
	log       *zap.Logger
	current   int
	repeats   int
	elapsedMs float64
	attackMs  float64
	fresh     bool
}

// NewMobBehavior builds the behavior described by spec. seed makes the
// random selector reproducible.
func NewMobBehavior(spec prefabs.BehaviorSpec, seed uint64, log *zap.Logger) (*MobBehavior, error) {
	if log == nil {
		log = zap.NewNop()
	}
	b := &MobBehavior{
		IntervalMs: spec.IntervalMs,
		rng:        rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		log:        log.Named("mob"),
		current:    -1,
	}
	if b.IntervalMs <= 0 {
		b.IntervalMs = 1000
	}
	if spec.Region != nil {
		if spec.Region.MaxX < spec.Region.MinX {
			return nil, fmt.Errorf("character: region min %.1f above max %.1f", spec.Region.MinX, spec.Region.MaxX)
		}
		b.Region = &Region{MinX: spec.Region.MinX, MaxX: spec.Region.MaxX}
	}

	specs := spec.Actions
	if len(specs) == 0 {
		specs = []prefabs.ActionSpec{{Kind: "stand", Weight: 1}}
	}
	for _, as := range specs {
		kind, err := ParseActionKind(as.Kind)
		if err != nil {
			return nil, err
		}
		b.Actions = append(b.Actions, newAction(kind, as))
	}

	if spec.Script != "" {
		script, err := LoadScript(spec.Script)
		if err != nil {
			return nil, err
		}
		b.script = script
	}
	return b, nil
}

func newAction(kind ActionKind, spec prefabs.ActionSpec) Action {
	a := Action{
		Kind:       kind,
		Weight:     max(spec.Weight, 1),
		MinRepeat:  max(spec.MinRepeat, 1),
		MaxRepeat:  spec.MaxRepeat,
		DurationMs: spec.DurationMs,
		Valid:      func(*Controller, *MobBehavior) bool { return true },
		Update:     func(*Controller, *MobBehavior) motion.Keys { return motion.Keys{} },
	}
	if a.MaxRepeat < a.MinRepeat {
		a.MaxRepeat = a.MinRepeat
	}

	switch kind {
	case ActionMoveLeft, ActionMoveRight:
		a.Valid = canMove
		left := kind == ActionMoveLeft
		a.Update = func(c *Controller, b *MobBehavior) motion.Keys {
			return motion.Keys{Left: left, Right: !left}
		}
	case ActionJump:
		a.Valid = canJump
		a.Update = func(c *Controller, b *MobBehavior) motion.Keys {
			return motion.Keys{Jump: b.fresh}
		}
	case ActionAttack:
		a.Valid = canJump
		duration := a.DurationMs
		a.Start = func(c *Controller, b *MobBehavior) {
			b.attackMs = duration
		}
	}
	return a
}

func canMove(c *Controller, b *MobBehavior) bool {
	return !b.Attacking() && c.state.CanAct()
}

// canJump also gates attacks: both need solid ground and a free mob.
func canJump(c *Controller, b *MobBehavior) bool {
	return canMove(c, b) && c.Grounded()
}

func (b *MobBehavior) Attacking() bool {
	return b.attackMs > 0
}

// Current is the running action, or nil before the first pick.
func (b *MobBehavior) Current() *Action {
	if b.current < 0 || b.current >= len(b.Actions) {
		return nil
	}
	return &b.Actions[b.current]
}

// Next advances the behavior by dtMs and returns the mob's keys for this
// step.
func (b *MobBehavior) Next(c *Controller, dtMs float64) motion.Keys {
	b.attackMs = max(0, b.attackMs-dtMs)
	b.elapsedMs += dtMs
	b.fresh = false

	cur := b.Current()
	if cur == nil || b.elapsedMs >= b.IntervalMs {
		b.elapsedMs = 0
		if cur != nil && b.repeats > 0 && cur.Valid(c, b) {
			b.repeats--
		} else {
			b.choose(c)
		}
		cur = b.Current()
	}
	if cur == nil {
		return motion.Keys{}
	}
	keys := cur.Update(c, b)
	return b.confine(c, keys)
}

func (b *MobBehavior) choose(c *Controller) {
	if b.script != nil {
		kind, ok, err := b.script.Choose(c, b)
		if err != nil {
			b.log.Warn("script choice failed", zap.String("script", b.script.Name()), zap.Error(err))
		}
		if ok && b.start(c, kind, 0) {
			return
		}
	}

	total := 0
	for i := range b.Actions {
		if b.Actions[i].Valid(c, b) {
			total += b.Actions[i].Weight
		}
	}
	if total == 0 {
		b.current = -1
		return
	}
	roll := b.rng.IntN(total)
	for i := range b.Actions {
		a := &b.Actions[i]
		if !a.Valid(c, b) {
			continue
		}
		if roll < a.Weight {
			b.begin(c, i, a.MinRepeat+b.rng.IntN(a.MaxRepeat-a.MinRepeat+1)-1)
			return
		}
		roll -= a.Weight
	}
}

// start runs the first valid action of kind.
func (b *MobBehavior) start(c *Controller, kind ActionKind, repeats int) bool {
	for i := range b.Actions {
		if b.Actions[i].Kind == kind && b.Actions[i].Valid(c, b) {
			b.begin(c, i, repeats)
			return true
		}
	}
	return false
}

func (b *MobBehavior) begin(c *Controller, i, repeats int) {
	b.current = i
	b.repeats = repeats
	b.fresh = true
	if a := &b.Actions[i]; a.Start != nil {
		a.Start(c, b)
	}
}

// confine turns a mob that left its region around. The teleport back waits
// for the step to finish.
func (b *MobBehavior) confine(c *Controller, keys motion.Keys) motion.Keys {
	if b.Region == nil {
		return keys
	}
	pos := c.Position()
	var x float64
	var inward int
	switch {
	case pos.X < b.Region.MinX:
		x, inward = b.Region.MinX, 1
	case pos.X > b.Region.MaxX:
		x, inward = b.Region.MaxX, -1
	default:
		return keys
	}

	c.host.AfterStep(func() {
		p := c.Position()
		c.Teleport(cp.Vector{X: x, Y: p.Y}, cp.Vector{Y: c.Velocity().Y})
		c.state.Face(inward)
	})
	if inward > 0 {
		b.start(c, ActionMoveRight, 0)
	} else {
		b.start(c, ActionMoveLeft, 0)
	}
	keys.Left = inward < 0
	keys.Right = inward > 0
	return keys
}
