package vehicle

import (
	"fmt"

	"github.com/opd-ai/go-hillclimb/pkg/config"
	"github.com/opd-ai/go-hillclimb/pkg/physics"
)

// Ground is the static floor. It is centred on the origin.
type Ground struct {
	Handle     physics.BodyHandle
	HalfWidth  float64
	HalfHeight float64
}

// Top is the y coordinate of the walking surface.
func (g Ground) Top() float64 { return g.HalfHeight }

// Scene is the whole simulation state: one world, its ground and the car.
// It has a single owner and is never shared between goroutines.
type Scene struct {
	World   *physics.World
	Ground  Ground
	Vehicle *Vehicle
}

// NewScene builds the world described by cfg.
func NewScene(cfg *config.Config) (*Scene, error) {
	world := physics.NewWorld(
		physics.Vec(cfg.Physics.GravityX, cfg.Physics.GravityY),
		physics.Params{
			TimeStep:           cfg.Physics.TimeStep,
			VelocityIterations: cfg.Physics.VelocityIterations,
			PositionIterations: cfg.Physics.PositionIterations,
		},
	)

	ground, err := AddGround(world, cfg.Ground)
	if err != nil {
		return nil, err
	}
	car, err := New(world, cfg.Vehicle)
	if err != nil {
		return nil, fmt.Errorf("build vehicle: %w", err)
	}
	return &Scene{World: world, Ground: ground, Vehicle: car}, nil
}

// AddGround creates the static floor.
func AddGround(world *physics.World, cfg config.GroundConfig) (Ground, error) {
	h := world.CreateBody(physics.BodyDesc{Name: "ground", Kind: physics.Static})
	c := physics.BoxCollider(cfg.HalfWidth, cfg.HalfHeight)
	c.Friction = cfg.Friction
	if err := world.AttachCollider(h, c); err != nil {
		return Ground{}, fmt.Errorf("ground collider: %w", err)
	}
	return Ground{Handle: h, HalfWidth: cfg.HalfWidth, HalfHeight: cfg.HalfHeight}, nil
}
