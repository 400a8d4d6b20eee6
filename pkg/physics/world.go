// Package physics wraps a Box2D world behind generation-checked handles.
// Every body is an ecs entity carrying body, torque and pose components, and
// one Step runs the ecs pipeline: torque transfer, the Box2D solver, then
// pose snapshots. Poses read through the World reflect the most recent Step.
package physics

import (
	"errors"
	"fmt"

	"github.com/ByteArena/box2d"
	"github.com/EngoEngine/ecs"
)

var (
	// ErrInvalidHandle is returned for a handle this world did not issue.
	ErrInvalidHandle = errors.New("invalid physics handle")
	// ErrJointAnchors is returned when a joint's anchors do not meet.
	ErrJointAnchors = errors.New("joint anchors do not coincide")
	// ErrInvalidShape is returned for colliders with non-positive extents.
	ErrInvalidShape = errors.New("invalid collider shape")
)

// anchorTolerance is how far apart, in world units, joint anchors may be.
const anchorTolerance = 1e-6

// BodyKind selects how a body takes part in the simulation.
type BodyKind int

const (
	// Dynamic bodies are moved by forces and contacts.
	Dynamic BodyKind = iota
	// Static bodies never move.
	Static
)

func (k BodyKind) String() string {
	if k == Static {
		return "static"
	}
	return "dynamic"
}

// BodyHandle identifies a rigid body. The zero value is never valid.
type BodyHandle struct {
	index      uint32
	generation uint32
}

// Valid reports whether h was issued by some world.
func (h BodyHandle) Valid() bool { return h.generation != 0 }

func (h BodyHandle) String() string { return fmt.Sprintf("body#%d.%d", h.index, h.generation) }

// JointHandle identifies a joint. The zero value is never valid.
type JointHandle struct {
	index      uint32
	generation uint32
}

// Valid reports whether h was issued by some world.
func (h JointHandle) Valid() bool { return h.generation != 0 }

func (h JointHandle) String() string { return fmt.Sprintf("joint#%d.%d", h.index, h.generation) }

// BodyDesc describes a body to create.
type BodyDesc struct {
	Name           string
	Kind           BodyKind
	Position       Vector2D
	Angle          float64
	LinearDamping  float64
	AngularDamping float64
}

// ShapeKind is the geometry of a collider.
type ShapeKind int

const (
	// Cuboid is a box given by half extents.
	Cuboid ShapeKind = iota
	// Ball is a circle given by its radius.
	Ball
)

// ColliderDesc describes a collider attached to a body, centred on the
// body origin. Colliders sharing a negative Group never touch each other;
// any other pair collides. Filtering relies on every fixture keeping the
// category and mask bits of box2d.MakeB2Filter, so only GroupIndex is set.
type ColliderDesc struct {
	Shape       ShapeKind
	HalfWidth   float64
	HalfHeight  float64
	Radius      float64
	Density     float64
	Friction    float64
	Restitution float64
	Group       int16
}

// BoxCollider returns a cuboid collider description with unit density.
func BoxCollider(halfWidth, halfHeight float64) ColliderDesc {
	return ColliderDesc{Shape: Cuboid, HalfWidth: halfWidth, HalfHeight: halfHeight, Density: 1}
}

// BallCollider returns a ball collider description with unit density.
func BallCollider(radius float64) ColliderDesc {
	return ColliderDesc{Shape: Ball, Radius: radius, Density: 1}
}

func (c ColliderDesc) validate() error {
	switch c.Shape {
	case Cuboid:
		if c.HalfWidth <= 0 || c.HalfHeight <= 0 {
			return fmt.Errorf("%w: box %gx%g", ErrInvalidShape, c.HalfWidth, c.HalfHeight)
		}
	case Ball:
		if c.Radius <= 0 {
			return fmt.Errorf("%w: ball radius %g", ErrInvalidShape, c.Radius)
		}
	default:
		return fmt.Errorf("%w: shape %d", ErrInvalidShape, c.Shape)
	}
	if c.Density < 0 || c.Friction < 0 || c.Restitution < 0 {
		return fmt.Errorf("%w: negative material", ErrInvalidShape)
	}
	return nil
}

// RevoluteDesc describes a hinge between two bodies. AnchorA and AnchorB are
// in the local frames of BodyA and BodyB and must meet in world space.
type RevoluteDesc struct {
	BodyA           BodyHandle
	BodyB           BodyHandle
	AnchorA         Vector2D
	AnchorB         Vector2D
	ContactsEnabled bool
}

// JointInfo describes an existing revolute joint.
type JointInfo struct {
	RevoluteDesc
	// Angle is BodyB's rotation relative to BodyA since creation.
	Angle float64
}

// Params are the fixed integration parameters of a world.
type Params struct {
	TimeStep           float64
	VelocityIterations int
	PositionIterations int
}

// Transform is a body pose in world space.
type Transform struct {
	Position Vector2D
	Angle    float64
}

type jointSlot struct {
	generation uint32
	desc       RevoluteDesc
	reference  float64
	joint      box2d.B2JointInterface
}

// World owns every body, collider and joint of one simulation. It is not
// safe for concurrent use.
type World struct {
	b2      *box2d.B2World
	params  Params
	gravity Vector2D
	bodies  []*bodyEntity
	joints  []jointSlot
	systems ecs.World
	torques *TorqueSystem
	solver  *SolverSystem
	poses   *PoseSystem
}

// NewWorld creates an empty world with group filtering enabled.
func NewWorld(gravity Vector2D, params Params) *World {
	b2 := box2d.MakeB2World(gravity.b2())
	w := &World{
		b2:      &b2,
		params:  params,
		gravity: gravity,
		torques: NewTorqueSystem(),
		poses:   NewPoseSystem(),
	}
	// Box2D ships without a contact filter, which leaves GroupIndex unread.
	w.b2.SetContactFilter(&box2d.B2ContactFilter{})
	w.solver = &SolverSystem{world: w.b2, params: params}

	w.systems.AddSystemInterface(w.torques, new(Driveable), nil)
	w.systems.AddSystem(w.solver)
	w.systems.AddSystemInterface(w.poses, new(Trackable), nil)
	return w
}

// Gravity returns the world gravity.
func (w *World) Gravity() Vector2D { return w.gravity }

// Params returns the integration parameters.
func (w *World) Params() Params { return w.params }

// Steps returns how many times Step has run.
func (w *World) Steps() uint64 { return w.solver.steps }

// BodyCount returns the number of live bodies.
func (w *World) BodyCount() int {
	n := 0
	for _, e := range w.bodies {
		if e.live() {
			n++
		}
	}
	return n
}

// CreateBody adds a body and returns its handle. Its initial pose is
// readable immediately.
func (w *World) CreateBody(desc BodyDesc) BodyHandle {
	bd := box2d.MakeB2BodyDef()
	if desc.Kind == Static {
		bd.Type = box2d.B2BodyType.B2_staticBody
	} else {
		bd.Type = box2d.B2BodyType.B2_dynamicBody
	}
	bd.Position = desc.Position.b2()
	bd.Angle = desc.Angle
	bd.LinearDamping = desc.LinearDamping
	bd.AngularDamping = desc.AngularDamping

	e := &bodyEntity{BasicEntity: ecs.NewBasic(), generation: 1}
	e.BodyComponent = BodyComponent{Name: desc.Name, Kind: desc.Kind, Body: w.b2.CreateBody(&bd)}
	w.bodies = append(w.bodies, e)
	w.systems.AddEntity(e)
	return BodyHandle{index: uint32(len(w.bodies) - 1), generation: e.generation}
}

// DestroyBody removes the body behind h together with its colliders and
// every joint attached to it. h and those joint handles become stale.
func (w *World) DestroyBody(h BodyHandle) error {
	e, err := w.body(h)
	if err != nil {
		return err
	}
	for i := range w.joints {
		j := &w.joints[i]
		if j.joint != nil && (j.desc.BodyA == h || j.desc.BodyB == h) {
			j.joint = nil
			j.generation++
		}
	}
	w.systems.RemoveEntity(e.BasicEntity)
	w.b2.DestroyBody(e.Body)
	e.Body = nil
	e.generation++
	return nil
}

// AttachCollider adds a collider to the body behind h.
func (w *World) AttachCollider(h BodyHandle, c ColliderDesc) error {
	e, err := w.body(h)
	if err != nil {
		return err
	}
	if err := c.validate(); err != nil {
		return err
	}

	fd := box2d.MakeB2FixtureDef()
	switch c.Shape {
	case Cuboid:
		shape := box2d.MakeB2PolygonShape()
		shape.SetAsBox(c.HalfWidth, c.HalfHeight)
		fd.Shape = &shape
	case Ball:
		shape := box2d.MakeB2CircleShape()
		shape.M_radius = c.Radius
		fd.Shape = &shape
	}
	fd.Density = c.Density
	fd.Friction = c.Friction
	fd.Restitution = c.Restitution
	fd.Filter = box2d.MakeB2Filter()
	fd.Filter.GroupIndex = c.Group

	e.Body.CreateFixtureFromDef(&fd)
	e.Colliders = append(e.Colliders, c)
	return nil
}

// Colliders returns the collider descriptions attached to h.
func (w *World) Colliders(h BodyHandle) ([]ColliderDesc, error) {
	e, err := w.body(h)
	if err != nil {
		return nil, err
	}
	return append([]ColliderDesc(nil), e.Colliders...), nil
}

// CreateRevoluteJoint hinges two bodies together.
func (w *World) CreateRevoluteJoint(desc RevoluteDesc) (JointHandle, error) {
	a, err := w.body(desc.BodyA)
	if err != nil {
		return JointHandle{}, fmt.Errorf("body A: %w", err)
	}
	b, err := w.body(desc.BodyB)
	if err != nil {
		return JointHandle{}, fmt.Errorf("body B: %w", err)
	}
	if desc.BodyA == desc.BodyB {
		return JointHandle{}, fmt.Errorf("%w: %s joined to itself", ErrInvalidHandle, desc.BodyA)
	}

	worldA := fromB2(a.Body.GetPosition()).Add(desc.AnchorA.Rotate(a.Body.GetAngle()))
	worldB := fromB2(b.Body.GetPosition()).Add(desc.AnchorB.Rotate(b.Body.GetAngle()))
	if gap := worldA.Distance(worldB); gap > anchorTolerance {
		return JointHandle{}, fmt.Errorf("%w: %s and %s are %.4f apart", ErrJointAnchors, worldA, worldB, gap)
	}

	jd := box2d.MakeB2RevoluteJointDef()
	jd.BodyA = a.Body
	jd.BodyB = b.Body
	jd.LocalAnchorA = desc.AnchorA.b2()
	jd.LocalAnchorB = desc.AnchorB.b2()
	jd.ReferenceAngle = b.Body.GetAngle() - a.Body.GetAngle()
	jd.CollideConnected = desc.ContactsEnabled

	slot := jointSlot{
		generation: 1,
		desc:       desc,
		reference:  jd.ReferenceAngle,
		joint:      w.b2.CreateJoint(&jd),
	}
	w.joints = append(w.joints, slot)
	return JointHandle{index: uint32(len(w.joints) - 1), generation: slot.generation}, nil
}

// Joint describes the joint behind h.
func (w *World) Joint(h JointHandle) (JointInfo, error) {
	if !h.Valid() || int(h.index) >= len(w.joints) ||
		w.joints[h.index].generation != h.generation || w.joints[h.index].joint == nil {
		return JointInfo{}, fmt.Errorf("%w: %s", ErrInvalidHandle, h)
	}
	slot := w.joints[h.index]
	ta, _ := w.Transform(slot.desc.BodyA)
	tb, _ := w.Transform(slot.desc.BodyB)
	return JointInfo{RevoluteDesc: slot.desc, Angle: tb.Angle - ta.Angle - slot.reference}, nil
}

// ApplyTorque adds torque, counter-clockwise positive, to the body's
// accumulator. The next Step hands the sum to the solver and clears it.
func (w *World) ApplyTorque(h BodyHandle, torque float64) error {
	e, err := w.body(h)
	if err != nil {
		return err
	}
	e.TorqueComponent.Torque += torque
	return nil
}

// Torque returns the torque accumulated on h since the last Step.
func (w *World) Torque(h BodyHandle) (float64, error) {
	e, err := w.body(h)
	if err != nil {
		return 0, err
	}
	return e.TorqueComponent.Torque, nil
}

// Transform returns the pose of h as of the most recent Step.
func (w *World) Transform(h BodyHandle) (Transform, error) {
	e, err := w.body(h)
	if err != nil {
		return Transform{}, err
	}
	return e.PoseComponent.Transform, nil
}

// Velocity returns the linear and angular velocity of h as of the most
// recent Step.
func (w *World) Velocity(h BodyHandle) (Vector2D, float64, error) {
	e, err := w.body(h)
	if err != nil {
		return Vector2D{}, 0, err
	}
	return e.LinearVelocity, e.AngularVelocity, nil
}

// Name returns the name h was created with.
func (w *World) Name(h BodyHandle) (string, error) {
	e, err := w.body(h)
	if err != nil {
		return "", err
	}
	return e.Name, nil
}

// Step runs the ecs pipeline once: pending torque goes to the bodies, the
// solver advances one fixed time step, then every pose is snapshotted.
func (w *World) Step() {
	w.systems.Update(float32(w.params.TimeStep))
}

func (w *World) body(h BodyHandle) (*bodyEntity, error) {
	if !h.Valid() || int(h.index) >= len(w.bodies) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidHandle, h)
	}
	e := w.bodies[h.index]
	if e.generation != h.generation || !e.live() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidHandle, h)
	}
	return e, nil
}
