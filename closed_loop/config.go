package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"fuzzy-steer-core/scaling"
)

const (
	defaultTable        = "line_follow"
	defaultSensorFrame  = "LINE_SENSOR_1"
	defaultCommandFrame = "STEER_CMD_1"
	defaultStaleAfterMS = 500
)

// RunnerConfig is the TOML configuration of the CAN control loop.
type RunnerConfig struct {
	Interface      string        `toml:"interface"`
	MapPath        string        `toml:"can_map"`
	Table          string        `toml:"table"`
	SensorFrame    string        `toml:"sensor_frame"`
	ValidSignal    string        `toml:"valid_signal,omitempty"`
	CommandFrame   string        `toml:"command_frame"`
	CycleMS        int           `toml:"cycle_ms,omitempty"`
	StaleAfterMS   int           `toml:"stale_after_ms,omitempty"`
	MetricsAddress string        `toml:"metrics_address,omitempty"`
	Inputs         []InputConfig `toml:"inputs"`
	Output         OutputConfig  `toml:"output"`
}

// InputConfig feeds a sensor signal into a table input.
type InputConfig struct {
	Name   string        `toml:"name"`
	Signal string        `toml:"signal"`
	Scale  scaling.Input `toml:"scale"`
}

// OutputConfig names the command frame signals the loop writes.
type OutputConfig struct {
	Signal       string         `toml:"signal"`
	EnableSignal string         `toml:"enable_signal,omitempty"`
	FiredSignal  string         `toml:"fired_signal,omitempty"`
	Scale        scaling.Output `toml:"scale"`
}

// DefaultRunnerConfig matches config/can/can_map.csv and the line_follow table.
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		Interface:    "vcan0",
		MapPath:      "config/can/can_map.csv",
		Table:        defaultTable,
		SensorFrame:  defaultSensorFrame,
		ValidSignal:  "line_valid",
		CommandFrame: defaultCommandFrame,
		StaleAfterMS: defaultStaleAfterMS,
		Inputs: []InputConfig{
			{Name: "distance", Signal: "line_distance_cm", Scale: scaling.DistanceCM},
			{Name: "angle", Signal: "line_heading_deg", Scale: scaling.AngleDeg},
		},
		Output: OutputConfig{
			Signal:       "steer_cmd_deg",
			EnableSignal: "system_enable",
			FiredSignal:  "rules_fired",
			Scale:        scaling.SteerDeg,
		},
	}
}

// LoadConfig decodes a TOML file and fills unset fields from
// DefaultRunnerConfig. Unknown keys are rejected.
func LoadConfig(path string) (RunnerConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return RunnerConfig{}, fmt.Errorf("read config: %w", err)
	}
	var cfg RunnerConfig
	if err := toml.NewDecoder(bytes.NewReader(raw)).DisallowUnknownFields().Decode(&cfg); err != nil {
		return RunnerConfig{}, fmt.Errorf("decode config %s: %w", path, err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return RunnerConfig{}, err
	}
	return cfg, nil
}

func (c *RunnerConfig) applyDefaults() {
	def := DefaultRunnerConfig()
	if c.Interface == "" {
		c.Interface = def.Interface
	}
	if c.MapPath == "" {
		c.MapPath = def.MapPath
	}
	if c.Table == "" {
		c.Table = def.Table
	}
	if c.SensorFrame == "" {
		c.SensorFrame = def.SensorFrame
	}
	if c.CommandFrame == "" {
		c.CommandFrame = def.CommandFrame
	}
	if c.StaleAfterMS == 0 {
		c.StaleAfterMS = def.StaleAfterMS
	}
	if len(c.Inputs) == 0 {
		c.Inputs = def.Inputs
	}
	if c.Output.Signal == "" {
		c.Output = def.Output
	}
}

// Validate checks the fields that do not depend on the CAN map or table.
func (c *RunnerConfig) Validate() error {
	if c.Interface == "" {
		return fmt.Errorf("config: interface is required")
	}
	if c.Table == "" {
		return fmt.Errorf("config: table is required")
	}
	if len(c.Inputs) == 0 {
		return fmt.Errorf("config: at least one input is required")
	}
	for i, in := range c.Inputs {
		if in.Name == "" || in.Signal == "" {
			return fmt.Errorf("config: input %d needs name and signal", i)
		}
	}
	if c.Output.Signal == "" {
		return fmt.Errorf("config: output.signal is required")
	}
	if c.CycleMS < 0 || c.StaleAfterMS < 0 {
		return fmt.Errorf("config: cycle_ms and stale_after_ms must not be negative")
	}
	return nil
}
