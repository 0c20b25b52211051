package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"

	"fuzzy-steer-core/fuzzy"
	"fuzzy-steer-core/scaling"
)

// SimStep is one logged sample of a simulated run.
type SimStep struct {
	T          float64
	DistanceCM float64
	HeadingDeg float64
	SpeedMPS   float64
	Crisp      int8
	SteerDeg   float64
	Fired      int
}

// SimSummary reports how closely the vehicle tracked the line.
type SimSummary struct {
	Steps            int
	FinalDistanceCM  float64
	FinalHeadingDeg  float64
	MaxAbsSteerDeg   float64
	SettledMaxDistCM float64 // max |distance| over the second half of the run
	IdleSteps        int     // steps in which no terminal rule fired
}

// SimIO binds the vehicle state to controller input slots.
type SimIO struct {
	DistanceSlot int
	AngleSlot    int
	Distance     scaling.Input
	Angle        scaling.Input
	Steer        scaling.Output
}

// Simulate runs the controller against a kinematic bicycle model for the
// scenario's duration. emit, if not nil, receives every sample at the
// scenario log rate.
//
// Distance is positive left of the line and heading positive when pointing
// right, so a positive (left) steer angle turns the heading negative.
func Simulate(scen *Scenario, ctrl *fuzzy.Controller, sio SimIO, emit func(SimStep) error) (SimSummary, error) {
	dt := scen.Timing.DtS
	steps := int(math.Round(scen.Timing.DurationS/dt)) + 1
	logEvery := 1
	if scen.Timing.LogHz > 0 {
		logEvery = max(1, int(math.Round(1/(dt*scen.Timing.LogHz))))
	}

	state := scen.Initial
	sum := SimSummary{Steps: steps}
	half := steps / 2
	ctrl.Reset()

	for k := 0; k < steps; k++ {
		t := float64(k) * dt
		env := EvalSegment(scen, t)

		ctrl.SetInput(sio.DistanceSlot, sio.Distance.Scale(state.DistanceCM))
		ctrl.SetInput(sio.AngleSlot, sio.Angle.Scale(state.HeadingDeg))
		crisp := ctrl.Step()
		diag := ctrl.GetDiagnostics()
		if diag.WeightSum == 0 {
			sum.IdleSteps++
		}

		steer := float64(sio.Steer.Scale(crisp))
		steer = math.Max(-scen.Vehicle.MaxSteerDeg, math.Min(scen.Vehicle.MaxSteerDeg, steer))
		sum.MaxAbsSteerDeg = math.Max(sum.MaxAbsSteerDeg, math.Abs(steer))
		if k >= half {
			sum.SettledMaxDistCM = math.Max(sum.SettledMaxDistCM, math.Abs(state.DistanceCM))
		}

		if emit != nil && k%logEvery == 0 {
			if err := emit(SimStep{
				T:          t,
				DistanceCM: state.DistanceCM,
				HeadingDeg: state.HeadingDeg,
				SpeedMPS:   env.SpeedMPS,
				Crisp:      crisp,
				SteerDeg:   steer,
				Fired:      diag.Fired,
			}); err != nil {
				return sum, err
			}
		}

		yawRate := env.SpeedMPS / scen.Vehicle.WheelbaseM * math.Tan(steer*math.Pi/180)
		state.HeadingDeg -= yawRate * dt * 180 / math.Pi
		state.DistanceCM -= env.SpeedMPS*math.Sin(state.HeadingDeg*math.Pi/180)*dt*100 - env.DriftCMPS*dt
	}

	sum.FinalDistanceCM = state.DistanceCM
	sum.FinalHeadingDeg = state.HeadingDeg
	return sum, nil
}

// TraceWriter writes simulation samples as CSV.
type TraceWriter struct {
	w *csv.Writer
}

// NewTraceWriter writes the CSV header to w.
func NewTraceWriter(w io.Writer) (*TraceWriter, error) {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"t_s", "distance_cm", "heading_deg", "speed_mps", "crisp", "steer_deg", "fired"}); err != nil {
		return nil, err
	}
	return &TraceWriter{w: cw}, nil
}

// Write appends one sample.
func (tw *TraceWriter) Write(s SimStep) error {
	return tw.w.Write([]string{
		strconv.FormatFloat(s.T, 'f', 3, 64),
		strconv.FormatFloat(s.DistanceCM, 'f', 2, 64),
		strconv.FormatFloat(s.HeadingDeg, 'f', 2, 64),
		strconv.FormatFloat(s.SpeedMPS, 'f', 2, 64),
		strconv.Itoa(int(s.Crisp)),
		strconv.FormatFloat(s.SteerDeg, 'f', 1, 64),
		strconv.Itoa(s.Fired),
	})
}

// Flush writes buffered rows and reports any write error.
func (tw *TraceWriter) Flush() error {
	tw.w.Flush()
	if err := tw.w.Error(); err != nil {
		return fmt.Errorf("write trace: %w", err)
	}
	return nil
}
