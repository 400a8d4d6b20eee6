package config

import (
	"errors"
	"fmt"
)

// Validate checks that the configuration describes a runnable session.
// All failures wrap ErrInvalidConfig and are joined together.
func (c *Config) Validate() error {
	var errs []error
	positive := func(name string, v float64) {
		if !(v > 0) {
			errs = append(errs, fmt.Errorf("%w: %s must be positive, got %v", ErrInvalidConfig, name, v))
		}
	}
	nonNegative := func(name string, v float64) {
		if v < 0 {
			errs = append(errs, fmt.Errorf("%w: %s must not be negative, got %v", ErrInvalidConfig, name, v))
		}
	}

	positive("loop.tickRate", c.Loop.TickRate)
	positive("loop.frameRate", c.Loop.FrameRate)
	nonNegative("loop.inputBuffer", float64(c.Loop.InputBuffer))

	positive("physics.timeStep", c.Physics.TimeStep)
	positive("physics.velocityIterations", float64(c.Physics.VelocityIterations))
	positive("physics.positionIterations", float64(c.Physics.PositionIterations))

	positive("ground.halfWidth", c.Ground.HalfWidth)
	positive("ground.halfHeight", c.Ground.HalfHeight)
	nonNegative("ground.friction", c.Ground.Friction)

	v := c.Vehicle
	positive("vehicle.chassisHalfWidth", v.ChassisHalfWidth)
	positive("vehicle.chassisHalfHeight", v.ChassisHalfHeight)
	positive("vehicle.frontWheelRadius", v.FrontWheelRadius)
	positive("vehicle.rearWheelRadius", v.RearWheelRadius)
	positive("vehicle.chassisDensity", v.ChassisDensity)
	positive("vehicle.wheelDensity", v.WheelDensity)
	nonNegative("vehicle.wheelFriction", v.WheelFriction)
	nonNegative("vehicle.rearRestitution", v.RearRestitution)
	nonNegative("vehicle.frontRestitution", v.FrontRestitution)
	nonNegative("vehicle.linearDamping", v.LinearDamping)
	nonNegative("vehicle.angularDamping", v.AngularDamping)
	nonNegative("vehicle.driveTorque", v.DriveTorque)
	if v.SpawnY-v.ChassisHalfHeight <= c.Ground.HalfHeight {
		errs = append(errs, fmt.Errorf("%w: vehicle must spawn above the ground (spawnY %v)", ErrInvalidConfig, v.SpawnY))
	}

	r := c.Render
	if r.XMin >= r.XMax || r.YMin >= r.YMax {
		errs = append(errs, fmt.Errorf("%w: render bounds are empty or inverted", ErrInvalidConfig))
	}
	positive("render.scale", r.Scale)
	positive("render.infoHeight", float64(r.InfoHeight))

	positive("input.maxConsecutiveFails", float64(c.Input.MaxConsecutiveFails))
	nonNegative("input.openTimeout", float64(c.Input.OpenTimeout))

	positive("monitor.checkInterval", float64(c.Monitor.CheckInterval))
	positive("monitor.queueWarnDepth", float64(c.Monitor.QueueWarnDepth))
	positive("monitor.maxGoroutines", float64(c.Monitor.MaxGoroutines))
	positive("monitor.maxMemoryMB", float64(c.Monitor.MaxMemoryMB))
	nonNegative("monitor.shutdownTimeout", float64(c.Monitor.ShutdownTimeout))

	return errors.Join(errs...)
}
