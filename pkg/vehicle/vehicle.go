// Package vehicle builds the hill-climb car: a cuboid chassis with a front
// and a rear wheel hinged below it. Only the rear wheel is driven.
package vehicle

import (
	"fmt"

	"github.com/opd-ai/go-hillclimb/pkg/config"
	"github.com/opd-ai/go-hillclimb/pkg/physics"
)

// group is shared by every collider of the car so the chassis never touches
// its own wheels. It only filters because physics.World keeps the default
// category and mask bits on every fixture; the ground stays in group 0.
const group int16 = -1

// Dimensions are the fixed sizes of the car.
type Dimensions struct {
	ChassisHalfWidth  float64
	ChassisHalfHeight float64
	FrontWheelRadius  float64
	RearWheelRadius   float64
}

// Pose is a read-only copy of everything the display needs about the car.
type Pose struct {
	Chassis     physics.Transform
	Front       physics.Transform
	Rear        physics.Transform
	DriveTorque float64
	Step        uint64
	Dimensions  Dimensions
}

// Vehicle holds handles to the car's bodies and joints inside a world.
type Vehicle struct {
	world      *physics.World
	chassis    physics.BodyHandle
	front      physics.BodyHandle
	rear       physics.BodyHandle
	frontJoint physics.JointHandle
	rearJoint  physics.JointHandle
	dims       Dimensions
}

// New spawns the car described by cfg into world. The chassis is created at
// the spawn point and each wheel at its chassis-relative offset, front at +x
// and rear at -x.
func New(world *physics.World, cfg config.VehicleConfig) (*Vehicle, error) {
	v := &Vehicle{
		world: world,
		dims: Dimensions{
			ChassisHalfWidth:  cfg.ChassisHalfWidth,
			ChassisHalfHeight: cfg.ChassisHalfHeight,
			FrontWheelRadius:  cfg.FrontWheelRadius,
			RearWheelRadius:   cfg.RearWheelRadius,
		},
	}

	spawn := physics.Vec(cfg.SpawnX, cfg.SpawnY)
	frontOffset := physics.Vec(cfg.WheelOffsetX, cfg.WheelOffsetY)
	rearOffset := physics.Vec(-cfg.WheelOffsetX, cfg.WheelOffsetY)

	v.chassis = world.CreateBody(physics.BodyDesc{
		Name:           "chassis",
		Position:       spawn,
		LinearDamping:  cfg.LinearDamping,
		AngularDamping: cfg.AngularDamping,
	})
	chassis := physics.BoxCollider(cfg.ChassisHalfWidth, cfg.ChassisHalfHeight)
	chassis.Density = cfg.ChassisDensity
	chassis.Group = group
	if err := world.AttachCollider(v.chassis, chassis); err != nil {
		return nil, fmt.Errorf("chassis collider: %w", err)
	}

	var err error
	v.front, v.frontJoint, err = v.addWheel(world, cfg, "front-wheel", spawn, frontOffset, cfg.FrontWheelRadius, cfg.FrontRestitution)
	if err != nil {
		return nil, err
	}
	v.rear, v.rearJoint, err = v.addWheel(world, cfg, "rear-wheel", spawn, rearOffset, cfg.RearWheelRadius, cfg.RearRestitution)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (v *Vehicle) addWheel(world *physics.World, cfg config.VehicleConfig, name string, spawn, offset physics.Vector2D, radius, restitution float64) (physics.BodyHandle, physics.JointHandle, error) {
	wheel := world.CreateBody(physics.BodyDesc{
		Name:           name,
		Position:       spawn.Add(offset),
		LinearDamping:  cfg.LinearDamping,
		AngularDamping: cfg.AngularDamping,
	})
	c := physics.BallCollider(radius)
	c.Density = cfg.WheelDensity
	c.Friction = cfg.WheelFriction
	c.Restitution = restitution
	c.Group = group
	if err := world.AttachCollider(wheel, c); err != nil {
		return wheel, physics.JointHandle{}, fmt.Errorf("%s collider: %w", name, err)
	}

	joint, err := world.CreateRevoluteJoint(physics.RevoluteDesc{
		BodyA:   v.chassis,
		BodyB:   wheel,
		AnchorA: offset,
	})
	if err != nil {
		return wheel, joint, fmt.Errorf("%s joint: %w", name, err)
	}
	return wheel, joint, nil
}

// ApplyDriveTorque adds magnitude to the rear wheel's torque for the next
// step only. Positive magnitudes spin the wheel clockwise, driving the car
// towards +x. Calls between two steps add up.
func (v *Vehicle) ApplyDriveTorque(magnitude float64) {
	v.must(v.world.ApplyTorque(v.rear, -magnitude))
}

// DriveTorque returns the drive torque accumulated since the last step, in
// the same sign convention as ApplyDriveTorque.
func (v *Vehicle) DriveTorque() float64 {
	t, err := v.world.Torque(v.rear)
	v.must(err)
	if t == 0 {
		return 0
	}
	return -t
}

// Step advances the world by one fixed time step. The accumulated drive
// torque is consumed.
func (v *Vehicle) Step() {
	v.world.Step()
}

// ChassisPosition returns the chassis centre as of the last step.
func (v *Vehicle) ChassisPosition() physics.Vector2D {
	return v.transform(v.chassis).Position
}

// ChassisAngle returns the chassis rotation in radians, counter-clockwise.
func (v *Vehicle) ChassisAngle() float64 {
	return v.transform(v.chassis).Angle
}

// FrontWheelPosition returns the front wheel centre.
func (v *Vehicle) FrontWheelPosition() physics.Vector2D {
	return v.transform(v.front).Position
}

// RearWheelPosition returns the rear wheel centre.
func (v *Vehicle) RearWheelPosition() physics.Vector2D {
	return v.transform(v.rear).Position
}

// Dimensions returns the car sizes.
func (v *Vehicle) Dimensions() Dimensions { return v.dims }

// Snapshot copies the whole pose at once.
func (v *Vehicle) Snapshot() Pose {
	return Pose{
		Chassis:     v.transform(v.chassis),
		Front:       v.transform(v.front),
		Rear:        v.transform(v.rear),
		DriveTorque: v.DriveTorque(),
		Step:        v.world.Steps(),
		Dimensions:  v.dims,
	}
}

// Joints returns the front and rear hinge descriptions.
func (v *Vehicle) Joints() (front, rear physics.JointInfo) {
	front, err := v.world.Joint(v.frontJoint)
	v.must(err)
	rear, err = v.world.Joint(v.rearJoint)
	v.must(err)
	return front, rear
}

func (v *Vehicle) transform(h physics.BodyHandle) physics.Transform {
	t, err := v.world.Transform(h)
	v.must(err)
	return t
}

// must panics on handle errors. The car's handles are issued by its own
// world at construction, so a failure is a programming error.
func (v *Vehicle) must(err error) {
	if err != nil {
		panic(fmt.Sprintf("vehicle: %v", err))
	}
}
