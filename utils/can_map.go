package utils

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
)

// SignalDef is one signal of a frame, little-endian, scaled as
// phys = raw*Factor + Offset.
type SignalDef struct {
	Name      string
	StartBit  int
	BitLength int
	Signed    bool
	Factor    float64
	Offset    float64
	Min       float64
	Max       float64
	Default   float64
	Unit      string
	Comment   string
}

// FrameDef describes a CAN frame and its signals ordered by start bit.
type FrameDef struct {
	ID        uint32
	Name      string
	DLC       int
	Direction string // "rx" or "tx", seen from the controller
	CycleMS   int
	Signals   []SignalDef
}

// Signal returns the named signal of the frame.
func (fd *FrameDef) Signal(name string) (*SignalDef, error) {
	for i := range fd.Signals {
		if fd.Signals[i].Name == name {
			return &fd.Signals[i], nil
		}
	}
	names := make([]string, len(fd.Signals))
	for i, s := range fd.Signals {
		names[i] = s.Name
	}
	return nil, fmt.Errorf("frame %s has no signal %q (available: %v)", fd.Name, name, names)
}

// CANMap indexes frame definitions by ID and name.
type CANMap struct {
	ByID   map[uint32]*FrameDef
	ByName map[string]*FrameDef
}

var mapColumns = []string{
	"direction", "frame_id", "frame_name", "cycle_ms", "dlc",
	"signal_name", "start_bit", "bit_length", "endianness",
	"signed", "factor", "offset", "min", "max", "default", "unit", "comment",
}

// LoadCANMap reads a CAN map CSV file, one signal per row.
func LoadCANMap(csvPath string) (*CANMap, error) {
	f, err := os.Open(csvPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	m, err := ParseCANMap(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", csvPath, err)
	}
	return m, nil
}

// ParseCANMap reads CAN map CSV rows from r.
func ParseCANMap(r io.Reader) (*CANMap, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(h)] = i
	}
	for _, k := range mapColumns {
		if _, ok := idx[k]; !ok {
			return nil, fmt.Errorf("can map missing required column: %q", k)
		}
	}

	m := &CANMap{
		ByID:   map[uint32]*FrameDef{},
		ByName: map[string]*FrameDef{},
	}
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if err := m.addRow(rec, idx); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
	}

	for _, fd := range m.ByID {
		sort.Slice(fd.Signals, func(i, j int) bool { return fd.Signals[i].StartBit < fd.Signals[j].StartBit })
		if err := fd.checkLayout(); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *CANMap) addRow(rec []string, idx map[string]int) error {
	col := func(k string) string { return strings.TrimSpace(rec[idx[k]]) }

	frameID, err := parseHexOrDecUint32(col("frame_id"))
	if err != nil {
		return fmt.Errorf("invalid frame_id %q: %w", col("frame_id"), err)
	}
	frameName := col("frame_name")
	dlc := atoi(col("dlc"))
	if dlc <= 0 || dlc > 8 {
		return fmt.Errorf("frame %s (0x%X): invalid dlc %d", frameName, frameID, dlc)
	}

	sig := SignalDef{
		Name:      col("signal_name"),
		StartBit:  atoi(col("start_bit")),
		BitLength: atoi(col("bit_length")),
		Signed:    parseBool(col("signed")),
		Factor:    parseFloat(col("factor")),
		Offset:    parseFloat(col("offset")),
		Min:       parseFloat(col("min")),
		Max:       parseFloat(col("max")),
		Default:   parseFloat(col("default")),
		Unit:      col("unit"),
		Comment:   col("comment"),
	}
	if e := col("endianness"); e != "" && e != "little" {
		return fmt.Errorf("frame %s signal %s: unsupported endianness %q (only little supported)", frameName, sig.Name, e)
	}
	if sig.BitLength <= 0 || sig.BitLength > 64 {
		return fmt.Errorf("frame %s signal %s: invalid bit_length %d", frameName, sig.Name, sig.BitLength)
	}
	if sig.Factor == 0 {
		return fmt.Errorf("frame %s signal %s: factor must be nonzero", frameName, sig.Name)
	}

	fd, ok := m.ByID[frameID]
	if !ok {
		if _, dup := m.ByName[frameName]; dup {
			return fmt.Errorf("frame name %s used by two frame ids", frameName)
		}
		fd = &FrameDef{
			ID:        frameID,
			Name:      frameName,
			DLC:       dlc,
			Direction: col("direction"),
			CycleMS:   atoi(col("cycle_ms")),
		}
		m.ByID[frameID] = fd
		m.ByName[frameName] = fd
	}
	if fd.DLC != dlc {
		return fmt.Errorf("frame %s (0x%X) has inconsistent DLC (%d vs %d)", frameName, frameID, fd.DLC, dlc)
	}
	fd.Signals = append(fd.Signals, sig)
	return nil
}

// checkLayout rejects signals that overlap or do not fit in the DLC.
func (fd *FrameDef) checkLayout() error {
	end := 0
	for _, s := range fd.Signals {
		if s.StartBit < end {
			return fmt.Errorf("frame %s: signal %s overlaps the previous signal", fd.Name, s.Name)
		}
		end = s.StartBit + s.BitLength
		if end > fd.DLC*8 {
			return fmt.Errorf("frame %s: signal %s ends at bit %d beyond dlc %d", fd.Name, s.Name, end, fd.DLC)
		}
	}
	return nil
}

func (m *CANMap) FrameByName(name string) (*FrameDef, error) {
	fd, ok := m.ByName[name]
	if !ok {
		return nil, fmt.Errorf("unknown frame %q (available: %v)", name, m.FrameNames())
	}
	return fd, nil
}

func (m *CANMap) FrameByID(id uint32) (*FrameDef, error) {
	fd, ok := m.ByID[id]
	if !ok {
		return nil, fmt.Errorf("unknown frame id 0x%X", id)
	}
	return fd, nil
}

func (m *CANMap) FrameNames() []string {
	out := make([]string, 0, len(m.ByName))
	for k := range m.ByName {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func parseHexOrDecUint32(s string) (uint32, error) {
	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		base = 16
		s = s[2:]
	}
	u, err := strconv.ParseUint(s, base, 32)
	if err != nil {
		return 0, err
	}
	return uint32(u), nil
}

func atoi(s string) int {
	v, _ := strconv.Atoi(s)
	return v
}

func parseFloat(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}

func parseBool(s string) bool {
	s = strings.ToLower(s)
	return s == "true" || s == "1" || s == "yes"
}
