package main

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"fuzzy-steer-core/fuzzy"
	"fuzzy-steer-core/rulebase"
	"fuzzy-steer-core/utils"
)

// Runner closes the steering loop over CAN: sensor frames set the
// controller inputs and every cycle transmits one command frame.
type Runner struct {
	cfg     RunnerConfig
	log     *zap.Logger
	cmap    *utils.CANMap
	ctrl    *fuzzy.Controller
	reader  utils.CANReader
	writer  utils.CANWriter
	sensor  *utils.FrameDef
	command *utils.FrameDef
	slots   []int // table input slot per cfg.Inputs entry
	cycle   time.Duration
	stale   time.Duration
	reg     *prometheus.Registry
	metrics *loopMetrics
}

// sensorSample holds the scaled inputs decoded from one sensor frame.
type sensorSample struct {
	values []int8 // parallel to Runner.slots
	at     time.Time
}

// NewRunner loads the CAN map and rule table named by cfg and opens the
// SocketCAN interface for both directions.
func NewRunner(ctx context.Context, cfg RunnerConfig, log *zap.Logger) (*Runner, error) {
	cmap, err := utils.LoadCANMap(cfg.MapPath)
	if err != nil {
		return nil, fmt.Errorf("load can map: %w", err)
	}
	doc, err := rulebase.Open(cfg.Table)
	if err != nil {
		return nil, fmt.Errorf("load table: %w", err)
	}

	writer, err := utils.NewSocketCANWriter(ctx, cfg.Interface)
	if err != nil {
		return nil, err
	}
	reader, err := utils.NewSocketCANReader(ctx, cfg.Interface)
	if err != nil {
		writer.Close()
		return nil, err
	}

	r, err := newRunner(cfg, log, cmap, doc, reader, writer)
	if err != nil {
		reader.Close()
		writer.Close()
		return nil, err
	}
	return r, nil
}

func newRunner(cfg RunnerConfig, log *zap.Logger, cmap *utils.CANMap, doc *rulebase.Doc,
	reader utils.CANReader, writer utils.CANWriter) (*Runner, error) {
	table, err := doc.Build()
	if err != nil {
		return nil, err
	}
	sensor, err := cmap.FrameByName(cfg.SensorFrame)
	if err != nil {
		return nil, fmt.Errorf("sensor frame: %w", err)
	}
	command, err := cmap.FrameByName(cfg.CommandFrame)
	if err != nil {
		return nil, fmt.Errorf("command frame: %w", err)
	}

	fed := make([]bool, table.NumInputs())
	slots := make([]int, len(cfg.Inputs))
	for i, in := range cfg.Inputs {
		slot, ok := doc.InputIndex(in.Name)
		if !ok {
			return nil, fmt.Errorf("input %q: table %s has inputs %v", in.Name, doc.Name, doc.Inputs)
		}
		if _, err := sensor.Signal(in.Signal); err != nil {
			return nil, fmt.Errorf("input %q: %w", in.Name, err)
		}
		slots[i] = slot
		fed[slot] = true
	}
	for slot, ok := range fed {
		if !ok {
			log.Warn("table input not fed by any sensor signal; it stays at zero",
				zap.String("input", doc.Inputs[slot]))
		}
	}
	if cfg.ValidSignal != "" {
		if _, err := sensor.Signal(cfg.ValidSignal); err != nil {
			return nil, fmt.Errorf("valid_signal: %w", err)
		}
	}
	for _, name := range []string{cfg.Output.Signal, cfg.Output.EnableSignal, cfg.Output.FiredSignal} {
		if name == "" {
			continue
		}
		if _, err := command.Signal(name); err != nil {
			return nil, fmt.Errorf("output: %w", err)
		}
	}

	cycleMS := cfg.CycleMS
	if cycleMS == 0 {
		cycleMS = command.CycleMS
	}
	if cycleMS <= 0 {
		return nil, fmt.Errorf("frame %s has invalid cycle_ms %d", command.Name, command.CycleMS)
	}

	reg := prometheus.NewRegistry()
	return &Runner{
		cfg:     cfg,
		log:     log,
		cmap:    cmap,
		ctrl:    fuzzy.NewController(table),
		reader:  reader,
		writer:  writer,
		sensor:  sensor,
		command: command,
		slots:   slots,
		cycle:   time.Duration(cycleMS) * time.Millisecond,
		stale:   time.Duration(cfg.StaleAfterMS) * time.Millisecond,
		reg:     reg,
		metrics: newLoopMetrics(reg),
	}, nil
}

func (r *Runner) Close() {
	if r.reader != nil {
		_ = r.reader.Close()
	}
	if r.writer != nil {
		_ = r.writer.Close()
	}
}

// Run drives the loop until ctx ends or the bus fails. The metrics server
// runs alongside when an address is configured.
func (r *Runner) Run(ctx context.Context) error {
	r.log.Info("starting control loop",
		zap.String("iface", r.cfg.Interface),
		zap.String("table", r.cfg.Table),
		zap.String("sensor_frame", r.sensor.Name),
		zap.String("command_frame", r.command.Name),
		zap.Uint32("command_id", r.command.ID),
		zap.Duration("cycle", r.cycle),
		zap.Duration("stale_after", r.stale))

	eg, ctx := errgroup.WithContext(ctx)
	samples := make(chan sensorSample, 16)
	eg.Go(func() error { return r.receiveLoop(ctx, samples) })
	eg.Go(func() error { return r.controlLoop(ctx, samples) })
	if r.cfg.MetricsAddress != "" {
		eg.Go(func() error { return serveMetrics(ctx, r.cfg.MetricsAddress, r.reg, r.log) })
	}
	return eg.Wait()
}

func (r *Runner) controlLoop(ctx context.Context, samples <-chan sensorSample) error {
	ticker := time.NewTicker(r.cycle)
	defer ticker.Stop()

	var (
		sent    uint64
		lastRx  time.Time
		isStale = true
	)
	for {
		select {
		case <-ctx.Done():
			r.log.Info("control loop stopped", zap.Uint64("frames_sent", sent))
			return ctx.Err()

		case s := <-samples:
			for i, slot := range r.slots {
				r.ctrl.SetInput(slot, s.values[i])
			}
			lastRx = s.at

		case now := <-ticker.C:
			fresh := !lastRx.IsZero() && now.Sub(lastRx) <= r.stale
			switch {
			case !fresh && !isStale:
				r.log.Warn("sensor feedback stale; commanding disabled",
					zap.Duration("age", now.Sub(lastRx)))
			case fresh && isStale:
				r.log.Info("sensor feedback active; commanding enabled")
			}
			isStale = !fresh

			values := r.cycleValues(fresh)
			frame, err := r.cmap.EncodeEinrideFrame(r.command.Name, values)
			if err != nil {
				return fmt.Errorf("encode %s: %w", r.command.Name, err)
			}
			if err := r.writer.WriteFrame(ctx, frame); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				r.log.Error("transmit failed", zap.Error(err))
				return err
			}
			sent++

			if sent%100 == 0 {
				diag := r.ctrl.GetDiagnostics()
				r.log.Debug("cycle",
					zap.Uint64("sent", sent),
					zap.Int8s("inputs", r.ctrl.Inputs()),
					zap.Int64("weighted", diag.WeightedSum),
					zap.Int64("weights", diag.WeightSum),
					zap.Int8("crisp", diag.Crisp),
					zap.Int("fired", diag.Fired))
			}
		}
	}
}

// cycleValues evaluates one cycle and returns the command signal values. A
// stale cycle skips evaluation and commands zero with enable cleared.
func (r *Runner) cycleValues(fresh bool) map[string]float64 {
	out := r.cfg.Output
	values := make(map[string]float64, 3)
	r.metrics.cycles.Inc()

	if !fresh {
		r.metrics.staleCycles.Inc()
		values[out.Signal] = 0
		if out.EnableSignal != "" {
			values[out.EnableSignal] = 0
		}
		if out.FiredSignal != "" {
			values[out.FiredSignal] = 0
		}
		return values
	}

	start := time.Now()
	crisp := r.ctrl.Step()
	r.metrics.stepSeconds.Observe(time.Since(start).Seconds())
	diag := r.ctrl.GetDiagnostics()
	if diag.WeightSum == 0 {
		r.metrics.idleCycles.Inc()
	}
	r.metrics.crisp.Set(float64(crisp))
	r.metrics.fired.Set(float64(diag.Fired))

	values[out.Signal] = float64(out.Scale.Scale(crisp))
	if out.EnableSignal != "" {
		values[out.EnableSignal] = 1
	}
	if out.FiredSignal != "" {
		values[out.FiredSignal] = float64(diag.Fired)
	}
	return values
}

// receiveLoop decodes sensor frames and hands scaled samples to the
// control loop. Frames with other IDs are ignored.
func (r *Runner) receiveLoop(ctx context.Context, samples chan<- sensorSample) error {
	r.log.Debug("RX loop started")
	defer r.log.Debug("RX loop stopped")

	for {
		frame, err := r.reader.ReadFrame(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			r.metrics.rxErrors.Inc()
			return fmt.Errorf("receive: %w", err)
		}
		if frame.ID != r.sensor.ID {
			continue
		}

		vals, err := r.cmap.DecodeEinrideFrame(frame)
		if err != nil {
			r.metrics.rxErrors.Inc()
			r.log.Debug("decode failed", zap.Uint32("id", frame.ID), zap.Error(err))
			continue
		}
		if r.cfg.ValidSignal != "" && vals[r.cfg.ValidSignal] == 0 {
			continue
		}
		r.metrics.rxFrames.Inc()

		s := sensorSample{values: make([]int8, len(r.slots)), at: time.Now()}
		for i, in := range r.cfg.Inputs {
			s.values[i] = in.Scale.Scale(vals[in.Signal])
		}

		select {
		case samples <- s:
		default:
			r.metrics.rxDropped.Inc()
		}
	}
}
