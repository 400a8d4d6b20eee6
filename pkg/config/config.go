// pkg/config/config.go
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment overrides, e.g. HILLCLIMB_LOOP_TICKRATE.
const EnvPrefix = "HILLCLIMB"

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config contains the complete configuration of a hill climb session
type Config struct {
	Loop    LoopConfig    `json:"loop" mapstructure:"loop"`
	Physics PhysicsConfig `json:"physics" mapstructure:"physics"`
	Ground  GroundConfig  `json:"ground" mapstructure:"ground"`
	Vehicle VehicleConfig `json:"vehicle" mapstructure:"vehicle"`
	Render  RenderConfig  `json:"render" mapstructure:"render"`
	Input   InputConfig   `json:"input" mapstructure:"input"`
	Monitor MonitorConfig `json:"monitor" mapstructure:"monitor"`
	Log     LogConfig     `json:"log" mapstructure:"log"`
}

// LoopConfig holds the rates of the two clocks feeding the event multiplexer
type LoopConfig struct {
	TickRate    float64 `json:"tickRate" mapstructure:"tickRate"`
	FrameRate   float64 `json:"frameRate" mapstructure:"frameRate"`
	InputBuffer int     `json:"inputBuffer" mapstructure:"inputBuffer"`
}

// PhysicsConfig contains the integration parameters
type PhysicsConfig struct {
	GravityX           float64 `json:"gravityX" mapstructure:"gravityX"`
	GravityY           float64 `json:"gravityY" mapstructure:"gravityY"`
	TimeStep           float64 `json:"timeStep" mapstructure:"timeStep"`
	VelocityIterations int     `json:"velocityIterations" mapstructure:"velocityIterations"`
	PositionIterations int     `json:"positionIterations" mapstructure:"positionIterations"`
}

// GroundConfig describes the static ground cuboid centred on the origin
type GroundConfig struct {
	HalfWidth  float64 `json:"halfWidth" mapstructure:"halfWidth"`
	HalfHeight float64 `json:"halfHeight" mapstructure:"halfHeight"`
	Friction   float64 `json:"friction" mapstructure:"friction"`
}

// VehicleConfig contains the static dimensions and tuning of the car
type VehicleConfig struct {
	SpawnX            float64 `json:"spawnX" mapstructure:"spawnX"`
	SpawnY            float64 `json:"spawnY" mapstructure:"spawnY"`
	ChassisHalfWidth  float64 `json:"chassisHalfWidth" mapstructure:"chassisHalfWidth"`
	ChassisHalfHeight float64 `json:"chassisHalfHeight" mapstructure:"chassisHalfHeight"`
	FrontWheelRadius  float64 `json:"frontWheelRadius" mapstructure:"frontWheelRadius"`
	RearWheelRadius   float64 `json:"rearWheelRadius" mapstructure:"rearWheelRadius"`
	WheelOffsetX      float64 `json:"wheelOffsetX" mapstructure:"wheelOffsetX"`
	WheelOffsetY      float64 `json:"wheelOffsetY" mapstructure:"wheelOffsetY"`
	ChassisDensity    float64 `json:"chassisDensity" mapstructure:"chassisDensity"`
	WheelDensity      float64 `json:"wheelDensity" mapstructure:"wheelDensity"`
	WheelFriction     float64 `json:"wheelFriction" mapstructure:"wheelFriction"`
	RearRestitution   float64 `json:"rearRestitution" mapstructure:"rearRestitution"`
	FrontRestitution  float64 `json:"frontRestitution" mapstructure:"frontRestitution"`
	LinearDamping     float64 `json:"linearDamping" mapstructure:"linearDamping"`
	AngularDamping    float64 `json:"angularDamping" mapstructure:"angularDamping"`
	DriveTorque       float64 `json:"driveTorque" mapstructure:"driveTorque"`
}

// RenderConfig contains the logical canvas space and layout
type RenderConfig struct {
	XMin          float64 `json:"xMin" mapstructure:"xMin"`
	XMax          float64 `json:"xMax" mapstructure:"xMax"`
	YMin          float64 `json:"yMin" mapstructure:"yMin"`
	YMax          float64 `json:"yMax" mapstructure:"yMax"`
	Scale         float64 `json:"scale" mapstructure:"scale"`
	FollowVehicle bool    `json:"followVehicle" mapstructure:"followVehicle"`
	InfoHeight    int     `json:"infoHeight" mapstructure:"infoHeight"`
}

// InputConfig configures the circuit breaker around the key source
type InputConfig struct {
	MaxConsecutiveFails int           `json:"maxConsecutiveFails" mapstructure:"maxConsecutiveFails"`
	OpenTimeout         time.Duration `json:"openTimeout" mapstructure:"openTimeout"`
}

// MonitorConfig configures the resource monitor
type MonitorConfig struct {
	CheckInterval   time.Duration `json:"checkInterval" mapstructure:"checkInterval"`
	QueueWarnDepth  int           `json:"queueWarnDepth" mapstructure:"queueWarnDepth"`
	MaxGoroutines   int           `json:"maxGoroutines" mapstructure:"maxGoroutines"`
	MaxMemoryMB     int64         `json:"maxMemoryMB" mapstructure:"maxMemoryMB"`
	ShutdownTimeout time.Duration `json:"shutdownTimeout" mapstructure:"shutdownTimeout"`
}

// LogConfig selects the log level and file
type LogConfig struct {
	Level string `json:"level" mapstructure:"level"`
	File  string `json:"file" mapstructure:"file"`
}

// TickInterval returns the period of the simulation clock.
func (c LoopConfig) TickInterval() time.Duration {
	return time.Duration(float64(time.Second) / c.TickRate)
}

// FrameInterval returns the period of the render clock.
func (c LoopConfig) FrameInterval() time.Duration {
	return time.Duration(float64(time.Second) / c.FrameRate)
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Loop: LoopConfig{
			TickRate:    60,
			FrameRate:   30,
			InputBuffer: 64,
		},
		Physics: PhysicsConfig{
			GravityX:           0,
			GravityY:           -9.81,
			TimeStep:           1.0 / 60.0,
			VelocityIterations: 8,
			PositionIterations: 3,
		},
		Ground: GroundConfig{
			HalfWidth:  100,
			HalfHeight: 1,
			Friction:   0.9,
		},
		Vehicle: VehicleConfig{
			SpawnX:            0,
			SpawnY:            10,
			ChassisHalfWidth:  2.0,
			ChassisHalfHeight: 0.5,
			FrontWheelRadius:  0.5,
			RearWheelRadius:   0.5,
			WheelOffsetX:      1.5,
			WheelOffsetY:      -0.75,
			ChassisDensity:    1,
			WheelDensity:      1,
			WheelFriction:     0.9,
			RearRestitution:   0.3,
			FrontRestitution:  0,
			LinearDamping:     0.05,
			AngularDamping:    0.1,
			DriveTorque:       20,
		},
		Render: RenderConfig{
			XMin:          -180,
			XMax:          180,
			YMin:          -90,
			YMax:          90,
			Scale:         8,
			FollowVehicle: true,
			InfoHeight:    5,
		},
		Input: InputConfig{
			MaxConsecutiveFails: 5,
			OpenTimeout:         2 * time.Second,
		},
		Monitor: MonitorConfig{
			CheckInterval:   5 * time.Second,
			QueueWarnDepth:  256,
			MaxGoroutines:   64,
			MaxMemoryMB:     256,
			ShutdownTimeout: time.Second,
		},
		Log: LogConfig{
			Level: "INFO",
			File:  "hillclimb.log",
		},
	}
}

// LoadConfig loads a configuration from an optional file plus HILLCLIMB_*
// environment overrides. An empty path means defaults plus environment.
// The file type is taken from its extension (json, yaml, toml).
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SaveConfig saves a configuration to a file as JSON
func SaveConfig(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// setDefaults registers every key of the default tree with viper so that
// AutomaticEnv can resolve overrides during Unmarshal.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("loop.tickRate", d.Loop.TickRate)
	v.SetDefault("loop.frameRate", d.Loop.FrameRate)
	v.SetDefault("loop.inputBuffer", d.Loop.InputBuffer)

	v.SetDefault("physics.gravityX", d.Physics.GravityX)
	v.SetDefault("physics.gravityY", d.Physics.GravityY)
	v.SetDefault("physics.timeStep", d.Physics.TimeStep)
	v.SetDefault("physics.velocityIterations", d.Physics.VelocityIterations)
	v.SetDefault("physics.positionIterations", d.Physics.PositionIterations)

	v.SetDefault("ground.halfWidth", d.Ground.HalfWidth)
	v.SetDefault("ground.halfHeight", d.Ground.HalfHeight)
	v.SetDefault("ground.friction", d.Ground.Friction)

	v.SetDefault("vehicle.spawnX", d.Vehicle.SpawnX)
	v.SetDefault("vehicle.spawnY", d.Vehicle.SpawnY)
	v.SetDefault("vehicle.chassisHalfWidth", d.Vehicle.ChassisHalfWidth)
	v.SetDefault("vehicle.chassisHalfHeight", d.Vehicle.ChassisHalfHeight)
	v.SetDefault("vehicle.frontWheelRadius", d.Vehicle.FrontWheelRadius)
	v.SetDefault("vehicle.rearWheelRadius", d.Vehicle.RearWheelRadius)
	v.SetDefault("vehicle.wheelOffsetX", d.Vehicle.WheelOffsetX)
	v.SetDefault("vehicle.wheelOffsetY", d.Vehicle.WheelOffsetY)
	v.SetDefault("vehicle.chassisDensity", d.Vehicle.ChassisDensity)
	v.SetDefault("vehicle.wheelDensity", d.Vehicle.WheelDensity)
	v.SetDefault("vehicle.wheelFriction", d.Vehicle.WheelFriction)
	v.SetDefault("vehicle.rearRestitution", d.Vehicle.RearRestitution)
	v.SetDefault("vehicle.frontRestitution", d.Vehicle.FrontRestitution)
	v.SetDefault("vehicle.linearDamping", d.Vehicle.LinearDamping)
	v.SetDefault("vehicle.angularDamping", d.Vehicle.AngularDamping)
	v.SetDefault("vehicle.driveTorque", d.Vehicle.DriveTorque)

	v.SetDefault("render.xMin", d.Render.XMin)
	v.SetDefault("render.xMax", d.Render.XMax)
	v.SetDefault("render.yMin", d.Render.YMin)
	v.SetDefault("render.yMax", d.Render.YMax)
	v.SetDefault("render.scale", d.Render.Scale)
	v.SetDefault("render.followVehicle", d.Render.FollowVehicle)
	v.SetDefault("render.infoHeight", d.Render.InfoHeight)

	v.SetDefault("input.maxConsecutiveFails", d.Input.MaxConsecutiveFails)
	v.SetDefault("input.openTimeout", d.Input.OpenTimeout)

	v.SetDefault("monitor.checkInterval", d.Monitor.CheckInterval)
	v.SetDefault("monitor.queueWarnDepth", d.Monitor.QueueWarnDepth)
	v.SetDefault("monitor.maxGoroutines", d.Monitor.MaxGoroutines)
	v.SetDefault("monitor.maxMemoryMB", d.Monitor.MaxMemoryMB)
	v.SetDefault("monitor.shutdownTimeout", d.Monitor.ShutdownTimeout)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.file", d.Log.File)
}
