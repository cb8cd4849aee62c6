package character

import (
	"errors"
	"fmt"
	"math"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/footsim/ecs"
	"github.com/milk9111/footsim/foothold"
	"github.com/milk9111/footsim/ladder"
	"github.com/milk9111/footsim/motion"
	"github.com/milk9111/footsim/physics"
	"go.uber.org/zap"
)

var (
	ErrGroundedWithoutFoothold = errors.New("character: grounded without a committed foothold")
	ErrInvalidTuning           = errors.New("character: invalid tuning")
)

type Kind int

const (
	LocalPlayer Kind = iota
	RemotePlayer
	Mob
)

func (k Kind) String() string {
	switch k {
	case LocalPlayer:
		return "player"
	case RemotePlayer:
		return "remote"
	case Mob:
		return "mob"
	}
	return "unknown"
}

// Host is the simulation a controller lives in.
type Host interface {
	Space() *cp.Space
	Context() *physics.Context
	Graph() *foothold.Graph
	RemoveConstraint(c *cp.Constraint)
	AfterStep(fn func())
}

// Controller drives one character: a torso box that never rotates standing
// on a foot circle that rolls under a motor.
type Controller struct {
	ID   ecs.Entity
	Kind Kind
	Name string

	host   Host
	tuning Tuning
	log    *zap.Logger

	torso      *cp.Body
	foot       *cp.Body
	torsoShape *cp.Shape
	footShape  *cp.Shape
	pivot      *cp.Constraint
	motor      *cp.Constraint
	motorForce float64

	state    motion.State
	feet     motion.Feet
	climber  ladder.Climber
	keys     motion.Keys
	prevKeys motion.Keys
	layer    int

	mob *MobBehavior
}

// Options configures New.
type Options struct {
	ID       ecs.Entity
	Kind     Kind
	Name     string
	Tuning   Tuning
	Position cp.Vector // feet, in space units
	Layer    int
	Mob      *MobBehavior
}

// New creates the bodies of a character standing with its feet at
// opts.Position and adds them to the host's space.
func New(host Host, opts Options, log *zap.Logger) (*Controller, error) {
	t := opts.Tuning
	if t.FootRadius <= 0 || t.TorsoWidth <= 0 || t.TorsoHeight <= 0 || t.TorsoMass <= 0 || t.FootMass <= 0 {
		return nil, fmt.Errorf("%w: %+v", ErrInvalidTuning, t)
	}
	if opts.Kind == Mob && opts.Mob == nil {
		return nil, fmt.Errorf("%w: mob %q without behavior", ErrInvalidTuning, opts.Name)
	}
	if log == nil {
		log = zap.NewNop()
	}

	c := &Controller{
		ID:         opts.ID,
		Kind:       opts.Kind,
		Name:       opts.Name,
		host:       host,
		tuning:     t,
		log:        log.Named(opts.Kind.String()).With(zap.Stringer("entity", opts.ID)),
		state:      motion.NewState(),
		layer:      opts.Layer,
		mob:        opts.Mob,
		motorForce: cp.INFINITY,
	}

	space := host.Space()
	maxFall := host.Context().Pixels(host.Context().MaxFallSpeed)
	footCenter := opts.Position.Sub(cp.Vector{Y: t.FootRadius})

	c.foot = cp.NewBody(t.FootMass, cp.MomentForCircle(t.FootMass, 0, t.FootRadius, cp.Vector{}))
	c.foot.SetPosition(footCenter)
	c.foot.SetVelocityUpdateFunc(physics.Falling(maxFall))
	c.foot.UserData = c

	c.torso = cp.NewBody(t.TorsoMass, math.Inf(1))
	c.torso.SetPosition(c.torsoCenter(footCenter))
	c.torso.SetVelocityUpdateFunc(physics.Falling(maxFall))
	c.torso.UserData = c

	c.footShape = cp.NewCircle(c.foot, t.FootRadius, cp.Vector{})
	c.footShape.SetFriction(t.Friction)
	physics.Attach(c.footShape, physics.KindCharacterFoot, c)

	c.torsoShape = cp.NewBox(c.torso, t.TorsoWidth, t.TorsoHeight, 0)
	c.torsoShape.SetFriction(0)
	physics.Attach(c.torsoShape, physics.KindCharacterTorso, c)

	c.pivot = cp.NewPivotJoint(c.torso, c.foot, footCenter)
	c.pivot.SetCollideBodies(false)
	c.motor = cp.NewSimpleMotor(c.torso, c.foot, 0)
	c.motor.SetMaxForce(c.motorForce)

	space.AddBody(c.foot)
	space.AddBody(c.torso)
	space.AddShape(c.footShape)
	space.AddShape(c.torsoShape)
	space.AddConstraint(c.pivot)
	space.AddConstraint(c.motor)

	c.log.Debug("spawned",
		zap.String("name", opts.Name),
		zap.Float64("x", opts.Position.X),
		zap.Float64("y", opts.Position.Y),
	)
	return c, nil
}

// torsoCenter puts the bottom of the torso on the foot centre.
func (c *Controller) torsoCenter(footCenter cp.Vector) cp.Vector {
	return footCenter.Sub(cp.Vector{Y: c.tuning.TorsoHeight / 2})
}

// feetOffset is the distance from the torso centre down to the feet.
func (c *Controller) feetOffset() float64 {
	return c.tuning.TorsoHeight/2 + c.tuning.FootRadius
}

// Remove takes the character out of the space. It must not be called while
// the space is stepping.
func (c *Controller) Remove() {
	space := c.host.Space()
	if j := c.climber.Joint(); j != nil && space.ContainsConstraint(j) {
		space.RemoveConstraint(j)
	}
	c.climber = ladder.Climber{}
	for _, con := range []*cp.Constraint{c.motor, c.pivot} {
		if con != nil && space.ContainsConstraint(con) {
			space.RemoveConstraint(con)
		}
	}
	for _, shape := range []*cp.Shape{c.torsoShape, c.footShape} {
		if shape != nil && space.ContainsShape(shape) {
			space.RemoveShape(shape)
		}
	}
	for _, body := range []*cp.Body{c.torso, c.foot} {
		if body != nil && space.ContainsBody(body) {
			space.RemoveBody(body)
		}
	}
	c.feet = motion.Feet{}
	c.climber = ladder.Climber{}
}

func (c *Controller) FootBody() *cp.Body { return c.foot }
func (c *Controller) TorsoBody() *cp.Body { return c.torso }
func (c *Controller) FootRadius() float64 { return c.tuning.FootRadius }
func (c *Controller) Feet() *motion.Feet { return &c.feet }
func (c *Controller) State() *motion.State { return &c.state }
func (c *Controller) Climber() *ladder.Climber { return &c.climber }
func (c *Controller) Tuning() Tuning { return c.tuning }
func (c *Controller) Keys() motion.Keys { return c.keys }
func (c *Controller) Layer() int { return c.layer }
func (c *Controller) Behavior() *MobBehavior { return c.mob }

// SetKeys replaces the intent used by the next step. Mobs ignore it.
func (c *Controller) SetKeys(keys motion.Keys) {
	if c.Kind == Mob {
		return
	}
	c.keys = keys
}

// Position is the point under the feet.
func (c *Controller) Position() cp.Vector {
	return c.foot.Position().Add(cp.Vector{Y: c.tuning.FootRadius})
}

func (c *Controller) Velocity() cp.Vector {
	return c.foot.Velocity()
}

// Grounded reports whether the last step committed a foothold.
func (c *Controller) Grounded() bool {
	return c.feet.Committed != nil && !c.state.Jumping
}

// Teleport moves the character so its feet are at pos with velocity vel.
// It must not be called while the space is stepping.
func (c *Controller) Teleport(pos, vel cp.Vector) {
	footCenter := pos.Sub(cp.Vector{Y: c.tuning.FootRadius})
	c.foot.SetPosition(footCenter)
	c.torso.SetPosition(c.torsoCenter(footCenter))
	c.foot.SetVelocityVector(vel)
	c.torso.SetVelocityVector(vel)
	c.foot.SetAngularVelocity(0)
	c.foot.Activate()
	c.torso.Activate()
}

// Snapshot is the read model of the character after the last commit.
func (c *Controller) Snapshot() motion.Snapshot {
	return motion.Snapshot{
		Position: c.Position(),
		Velocity: c.Velocity(),
		Foothold: c.feet.CommittedID(),
		Layer:    c.layer,
		State:    c.state,
		Keys:     c.keys,
	}
}
