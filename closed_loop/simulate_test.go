package main

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"fuzzy-steer-core/fuzzy"
	"fuzzy-steer-core/rulebase"
	"fuzzy-steer-core/scaling"
)

func lineFollowController(t *testing.T) (*fuzzy.Controller, SimIO) {
	t.Helper()
	doc, err := rulebase.Load("line_follow")
	if err != nil {
		t.Fatal(err)
	}
	table, err := doc.Build()
	if err != nil {
		t.Fatal(err)
	}
	return fuzzy.NewController(table), SimIO{
		DistanceSlot: 0,
		AngleSlot:    1,
		Distance:     scaling.DistanceCM,
		Angle:        scaling.AngleDeg,
		Steer:        scaling.SteerDeg,
	}
}

func baseScenario() Scenario {
	return Scenario{
		Meta:    ScenarioMeta{Name: "test", Table: "line_follow"},
		Timing:  ScenarioTiming{DtS: 0.02, DurationS: 30},
		Vehicle: VehicleParams{WheelbaseM: 0.3, SpeedMPS: 1, MaxSteerDeg: 30},
	}
}

func TestSimulateAcquiresLine(t *testing.T) {
	tests := []struct {
		name    string
		initial VehicleState
	}{
		{"right of line", VehicleState{DistanceCM: -200}},
		{"left of line", VehicleState{DistanceCM: 200}},
		{"right, heading away", VehicleState{DistanceCM: -100, HeadingDeg: 10}},
		{"left, steep inbound", VehicleState{DistanceCM: 60, HeadingDeg: -30}},
	}
	ctrl, sio := lineFollowController(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scen := baseScenario()
			scen.Initial = tt.initial
			sum, err := Simulate(&scen, ctrl, sio, nil)
			if err != nil {
				t.Fatal(err)
			}
			if sum.Steps != 1501 {
				t.Errorf("Steps = %d, want 1501", sum.Steps)
			}
			if sum.SettledMaxDistCM > 40 {
				t.Errorf("settled max distance = %.1f cm, want within 40 cm", sum.SettledMaxDistCM)
			}
			if sum.MaxAbsSteerDeg != 25 {
				t.Errorf("max steer = %.1f, want 25", sum.MaxAbsSteerDeg)
			}
		})
	}
}

func TestSimulateOnLineStaysPut(t *testing.T) {
	ctrl, sio := lineFollowController(t)
	scen := baseScenario()
	scen.Timing.DurationS = 5
	sum, err := Simulate(&scen, ctrl, sio, nil)
	if err != nil {
		t.Fatal(err)
	}
	if sum.FinalDistanceCM != 0 || sum.FinalHeadingDeg != 0 || sum.MaxAbsSteerDeg != 0 {
		t.Errorf("summary = %+v, want the vehicle to stay on the line", sum)
	}
}

func TestSimulateSampleScenario(t *testing.T) {
	scen, err := LoadScenario("../config/scenarios/s_curve_drift.json")
	if err != nil {
		t.Fatal(err)
	}
	ctrl, sio := lineFollowController(t)

	var buf bytes.Buffer
	tw, err := NewTraceWriter(&buf)
	if err != nil {
		t.Fatal(err)
	}
	sum, err := Simulate(&scen, ctrl, sio, tw.Write)
	if err != nil {
		t.Fatal(err)
	}
	if err := tw.Flush(); err != nil {
		t.Fatal(err)
	}
	if sum.SettledMaxDistCM > 50 {
		t.Errorf("settled max distance = %.1f cm, want within 50 cm", sum.SettledMaxDistCM)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	// header plus one row per 0.1 s over 60 s, t = 0 included
	if len(rows) != 602 {
		t.Fatalf("trace rows = %d, want 602", len(rows))
	}
	want := []string{"t_s", "distance_cm", "heading_deg", "speed_mps", "crisp", "steer_deg", "fired"}
	if diff := cmp.Diff(want, rows[0]); diff != "" {
		t.Errorf("header mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"0.000", "-200.00", "0.00", "1.00", "25", "25.0", "1"}, rows[1]); diff != "" {
		t.Errorf("first sample mismatch (-want +got):\n%s", diff)
	}
}

func TestEvalSegment(t *testing.T) {
	scen := baseScenario()
	scen.Segments = []ScenarioSegment{
		{T0: 5, T1: 10, SpeedMPS: 0.5, DriftCMPS: 3},
		{T0: 20, T1: -1, DriftCMPS: -2},
	}
	tests := []struct {
		t    float64
		want SegmentInputs
	}{
		{0, SegmentInputs{SpeedMPS: 1}},
		{5, SegmentInputs{SpeedMPS: 0.5, DriftCMPS: 3}},
		{10, SegmentInputs{SpeedMPS: 1}},
		{25, SegmentInputs{SpeedMPS: 1, DriftCMPS: -2}},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, EvalSegment(&scen, tt.t)); diff != "" {
			t.Errorf("EvalSegment(%v) mismatch (-want +got):\n%s", tt.t, diff)
		}
	}
}

func TestScenarioValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Scenario)
		want   string
	}{
		{"zero duration", func(s *Scenario) { s.Timing.DurationS = 0 }, "duration_s"},
		{"zero dt", func(s *Scenario) { s.Timing.DtS = 0 }, "dt_s"},
		{"no wheelbase", func(s *Scenario) { s.Vehicle.WheelbaseM = 0 }, "wheelbase_m"},
		{"empty segment", func(s *Scenario) { s.Segments = []ScenarioSegment{{T0: 3, T1: 3}} }, "segment 0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := baseScenario()
			tt.mutate(&s)
			err := s.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate = %v, want it to contain %q", err, tt.want)
			}
		})
	}

	s := baseScenario()
	s.Vehicle.MaxSteerDeg = 0
	s.Meta.Table = ""
	if err := s.Validate(); err != nil {
		t.Fatal(err)
	}
	if s.Vehicle.MaxSteerDeg != 30 || s.Meta.Table != defaultTable {
		t.Errorf("defaults not applied: steer %v table %q", s.Vehicle.MaxSteerDeg, s.Meta.Table)
	}
}
