package main

import (
	"encoding/json"
	"fmt"
	"os"
)

// Scenario defines an offline line-following run.
type Scenario struct {
	Meta     ScenarioMeta      `json:"meta"`
	Timing   ScenarioTiming    `json:"timing"`
	Vehicle  VehicleParams     `json:"vehicle"`
	Initial  VehicleState      `json:"initial"`
	Segments []ScenarioSegment `json:"segments"`
}

// ScenarioMeta contains scenario metadata
type ScenarioMeta struct {
	Name        string `json:"name"`
	Version     int    `json:"version"`
	Description string `json:"description"`
	Table       string `json:"table,omitempty"` // rule table name or path, default line_follow
}

// ScenarioTiming defines timing parameters
type ScenarioTiming struct {
	DtS       float64 `json:"dt_s"`
	DurationS float64 `json:"duration_s"`
	LogHz     float64 `json:"log_hz"`
}

// VehicleParams describes the kinematic bicycle model.
type VehicleParams struct {
	WheelbaseM  float64 `json:"wheelbase_m"`
	SpeedMPS    float64 `json:"speed_mps"`
	MaxSteerDeg float64 `json:"max_steer_deg"`
}

// VehicleState is the pose relative to the line. Distance is positive to
// the left of the line; heading is positive when pointing to the right.
type VehicleState struct {
	DistanceCM float64 `json:"distance_cm"`
	HeadingDeg float64 `json:"heading_deg"`
}

// ScenarioSegment overrides speed and adds lateral drift during [T0, T1).
// T1 < 0 extends to the end of the run.
type ScenarioSegment struct {
	T0        float64 `json:"t0"`
	T1        float64 `json:"t1"`
	SpeedMPS  float64 `json:"speed_mps,omitempty"`
	DriftCMPS float64 `json:"drift_cmps,omitempty"`
	Comment   string  `json:"comment,omitempty"`
}

// SegmentInputs is the environment in effect at one instant.
type SegmentInputs struct {
	SpeedMPS  float64
	DriftCMPS float64
}

// LoadScenario loads a scenario from JSON file
func LoadScenario(path string) (Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, fmt.Errorf("read file: %w", err)
	}

	var scen Scenario
	if err := json.Unmarshal(data, &scen); err != nil {
		return Scenario{}, fmt.Errorf("unmarshal: %w", err)
	}
	if err := scen.Validate(); err != nil {
		return Scenario{}, err
	}
	return scen, nil
}

// Validate checks timing and vehicle parameters and fills defaults.
func (s *Scenario) Validate() error {
	if s.Timing.DurationS <= 0 {
		return fmt.Errorf("invalid duration_s: %f", s.Timing.DurationS)
	}
	if s.Timing.DtS <= 0 || s.Timing.DtS > s.Timing.DurationS {
		return fmt.Errorf("invalid dt_s: %f", s.Timing.DtS)
	}
	if s.Vehicle.WheelbaseM <= 0 {
		return fmt.Errorf("invalid wheelbase_m: %f", s.Vehicle.WheelbaseM)
	}
	if s.Vehicle.MaxSteerDeg <= 0 {
		s.Vehicle.MaxSteerDeg = 30
	}
	if s.Meta.Table == "" {
		s.Meta.Table = defaultTable
	}
	for i, seg := range s.Segments {
		if seg.T1 >= 0 && seg.T1 <= seg.T0 {
			return fmt.Errorf("segment %d: t1 %.3f not after t0 %.3f", i, seg.T1, seg.T0)
		}
	}
	return nil
}

// EvalSegment returns the speed and drift in effect at time t. The first
// matching segment wins.
func EvalSegment(scen *Scenario, t float64) SegmentInputs {
	in := SegmentInputs{SpeedMPS: scen.Vehicle.SpeedMPS}

	for _, seg := range scen.Segments {
		t1 := seg.T1
		if t1 < 0 {
			t1 = scen.Timing.DurationS
		}

		if t >= seg.T0 && t < t1 {
			if seg.SpeedMPS != 0 {
				in.SpeedMPS = seg.SpeedMPS
			}
			in.DriftCMPS = seg.DriftCMPS
			break
		}
	}

	return in
}
