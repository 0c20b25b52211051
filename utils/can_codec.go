package utils

import (
	"fmt"
	"math"

	"go.einride.tech/can"
)

// EncodeFrame packs physical signal values into a payload of the frame's
// DLC. Missing signals take their default; values are clamped to the
// signal range and then to the raw bit range.
func (m *CANMap) EncodeFrame(frameName string, values map[string]float64) ([]byte, uint32, error) {
	fd, err := m.FrameByName(frameName)
	if err != nil {
		return nil, 0, err
	}

	var payload uint64
	for _, s := range fd.Signals {
		v, ok := values[s.Name]
		if !ok {
			v = s.Default
		}
		raw := s.toRaw(v)
		payload = setBits(payload, s.StartBit, s.BitLength, rawToUnsigned(raw, s.BitLength))
	}

	out := make([]byte, fd.DLC)
	for i := range out {
		out[i] = byte(payload >> (8 * i))
	}
	return out, fd.ID, nil
}

// EncodeEinrideFrame encodes values into a frame ready to transmit.
func (m *CANMap) EncodeEinrideFrame(frameName string, values map[string]float64) (can.Frame, error) {
	payload, id, err := m.EncodeFrame(frameName, values)
	if err != nil {
		return can.Frame{}, err
	}
	var f can.Frame
	f.ID = id
	f.Length = uint8(len(payload))
	copy(f.Data[:], payload)
	return f, nil
}

// DecodeFrame unpacks all signals of a known frame into physical values.
func (m *CANMap) DecodeFrame(frameID uint32, data []byte) (map[string]float64, error) {
	fd, err := m.FrameByID(frameID)
	if err != nil {
		return nil, err
	}
	if len(data) < fd.DLC {
		return nil, fmt.Errorf("frame 0x%X expects DLC %d, got %d", frameID, fd.DLC, len(data))
	}

	var payload uint64
	for i := 0; i < fd.DLC && i < 8; i++ {
		payload |= uint64(data[i]) << (8 * i)
	}

	out := make(map[string]float64, len(fd.Signals))
	for _, s := range fd.Signals {
		out[s.Name] = s.toPhys(getBits(payload, s.StartBit, s.BitLength))
	}
	return out, nil
}

// DecodeEinrideFrame decodes a received frame.
func (m *CANMap) DecodeEinrideFrame(f can.Frame) (map[string]float64, error) {
	return m.DecodeFrame(f.ID, f.Data[:f.Length])
}

func (s *SignalDef) toRaw(v float64) int64 {
	if s.Max > s.Min {
		v = clamp(v, s.Min, s.Max)
	}
	raw := int64(math.Round((v - s.Offset) / s.Factor))
	return clampRaw(raw, s.BitLength, s.Signed)
}

func (s *SignalDef) toPhys(u uint64) float64 {
	return float64(unsignedToRawInt64(u, s.BitLength, s.Signed))*s.Factor + s.Offset
}

func mask(bitLen int) uint64 {
	if bitLen >= 64 {
		return math.MaxUint64
	}
	return 1<<bitLen - 1
}

func getBits(payload uint64, startBit, bitLen int) uint64 {
	if bitLen <= 0 || bitLen > 64 {
		return 0
	}
	return (payload >> startBit) & mask(bitLen)
}

func setBits(payload uint64, startBit, bitLen int, value uint64) uint64 {
	if bitLen <= 0 || bitLen > 64 {
		return payload
	}
	m := mask(bitLen)
	payload &^= m << startBit
	payload |= (value & m) << startBit
	return payload
}

func unsignedToRawInt64(u uint64, bitLen int, signed bool) int64 {
	if !signed || bitLen >= 64 {
		return int64(u)
	}
	if u&(1<<(bitLen-1)) == 0 {
		return int64(u)
	}
	return int64(u) - int64(1)<<bitLen
}

func rawToUnsigned(raw int64, bitLen int) uint64 {
	return uint64(raw) & mask(bitLen)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampRaw(raw int64, bitLen int, signed bool) int64 {
	if bitLen <= 0 || bitLen > 63 {
		return raw
	}
	if !signed {
		hi := int64(1)<<bitLen - 1
		return min(max(raw, 0), hi)
	}
	lo := -(int64(1) << (bitLen - 1))
	hi := int64(1)<<(bitLen-1) - 1
	return min(max(raw, lo), hi)
}
