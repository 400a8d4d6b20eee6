package physics

import (
	"github.com/ByteArena/box2d"
	"github.com/EngoEngine/ecs"
)

// Step pipeline order. Higher priorities run first within one Step.
const (
	torquePriority = 20
	solverPriority = 10
	posePriority   = 0
)

// BodyComponent ties an entity to its Box2D body.
type BodyComponent struct {
	Name      string
	Kind      BodyKind
	Body      *box2d.B2Body
	Colliders []ColliderDesc
}

// GetBodyComponent implements BodyFace.
func (c *BodyComponent) GetBodyComponent() *BodyComponent { return c }

// TorqueComponent accumulates torque, counter-clockwise positive, until the
// next step hands it to the solver.
type TorqueComponent struct {
	Torque float64
}

// GetTorqueComponent implements TorqueFace.
func (c *TorqueComponent) GetTorqueComponent() *TorqueComponent { return c }

// PoseComponent is a body's motion as of the last completed step.
type PoseComponent struct {
	Transform       Transform
	LinearVelocity  Vector2D
	AngularVelocity float64
}

// GetPoseComponent implements PoseFace.
func (c *PoseComponent) GetPoseComponent() *PoseComponent { return c }

// Face interfaces give systems typed access to an entity's components.
type BasicFace interface {
	GetBasicEntity() *ecs.BasicEntity
}

type BodyFace interface {
	GetBodyComponent() *BodyComponent
}

type TorqueFace interface {
	GetTorqueComponent() *TorqueComponent
}

type PoseFace interface {
	GetPoseComponent() *PoseComponent
}

// Driveable entities take part in torque transfer.
type Driveable interface {
	BasicFace
	BodyFace
	TorqueFace
}

// Trackable entities get a pose snapshot after every step.
type Trackable interface {
	BasicFace
	BodyFace
	PoseFace
}

// bodyEntity is the registry record behind a BodyHandle.
type bodyEntity struct {
	ecs.BasicEntity
	BodyComponent
	TorqueComponent
	PoseComponent

	generation uint32
}

func (e *bodyEntity) live() bool { return e.Body != nil }

// TorqueSystem moves each entity's accumulated torque onto its body right
// before the solver runs, then zeroes the accumulator.
type TorqueSystem struct {
	entities map[uint64]Driveable
}

// NewTorqueSystem returns an empty system.
func NewTorqueSystem() *TorqueSystem {
	return &TorqueSystem{entities: make(map[uint64]Driveable)}
}

// Priority implements ecs.Prioritizer.
func (ts *TorqueSystem) Priority() int { return torquePriority }

// Add tracks e.
func (ts *TorqueSystem) Add(e Driveable) {
	ts.entities[e.GetBasicEntity().ID()] = e
}

// AddByInterface implements ecs.SystemAddByInterfacer.
func (ts *TorqueSystem) AddByInterface(o ecs.Identifier) {
	ts.Add(o.(Driveable))
}

// Remove satisfies the ecs.System interface
func (ts *TorqueSystem) Remove(basic ecs.BasicEntity) {
	delete(ts.entities, basic.ID())
}

// Update satisfies the ecs.System interface
func (ts *TorqueSystem) Update(dt float32) {
	for _, e := range ts.entities {
		tc := e.GetTorqueComponent()
		if tc.Torque != 0 {
			e.GetBodyComponent().Body.ApplyTorque(tc.Torque, true)
		}
		tc.Torque = 0
	}
}

// Len returns the number of tracked entities.
func (ts *TorqueSystem) Len() int { return len(ts.entities) }

// SolverSystem advances the Box2D world by one fixed time step. Box2D
// clears its own force accumulators at the end of the step.
type SolverSystem struct {
	world  *box2d.B2World
	params Params
	steps  uint64
}

// Priority implements ecs.Prioritizer.
func (s *SolverSystem) Priority() int { return solverPriority }

// Remove satisfies the ecs.System interface
func (s *SolverSystem) Remove(ecs.BasicEntity) {}

// Update satisfies the ecs.System interface. dt is ignored; the step is
// always params.TimeStep.
func (s *SolverSystem) Update(dt float32) {
	s.world.Step(s.params.TimeStep, s.params.VelocityIterations, s.params.PositionIterations)
	s.steps++
}

// PoseSystem refreshes every tracked entity's PoseComponent once the solver
// has finished, so pose reads never observe a partial step.
type PoseSystem struct {
	entities map[uint64]Trackable
}

// NewPoseSystem returns an empty system.
func NewPoseSystem() *PoseSystem {
	return &PoseSystem{entities: make(map[uint64]Trackable)}
}

// Priority implements ecs.Prioritizer.
func (ps *PoseSystem) Priority() int { return posePriority }

// Add tracks e and snapshots its current pose.
func (ps *PoseSystem) Add(e Trackable) {
	ps.entities[e.GetBasicEntity().ID()] = e
	snapshot(e)
}

// AddByInterface implements ecs.SystemAddByInterfacer.
func (ps *PoseSystem) AddByInterface(o ecs.Identifier) {
	ps.Add(o.(Trackable))
}

// Remove satisfies the ecs.System interface
func (ps *PoseSystem) Remove(basic ecs.BasicEntity) {
	delete(ps.entities, basic.ID())
}

// Update satisfies the ecs.System interface
func (ps *PoseSystem) Update(dt float32) {
	for _, e := range ps.entities {
		snapshot(e)
	}
}

// Len returns the number of tracked entities.
func (ps *PoseSystem) Len() int { return len(ps.entities) }

func snapshot(e Trackable) {
	b := e.GetBodyComponent().Body
	pc := e.GetPoseComponent()
	pc.Transform = Transform{Position: fromB2(b.GetPosition()), Angle: b.GetAngle()}
	pc.LinearVelocity = fromB2(b.GetLinearVelocity())
	pc.AngularVelocity = b.GetAngularVelocity()
}
