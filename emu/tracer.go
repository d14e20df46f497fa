package emu

import (
	"fmt"
	"sync"
)

// TraceValue is a traced value along with its width in bits.
type TraceValue struct {
	Value uint32
	Size  uint8
}

func TraceBool(v bool) TraceValue { return TraceValue{Value: uint32(boolByte(v)), Size: 1} }
func TraceU8(v uint8) TraceValue  { return TraceValue{Value: uint32(v), Size: 8} }
func TraceU16(v uint16) TraceValue {
	return TraceValue{Value: uint32(v), Size: 16}
}
func TraceU32(v uint32) TraceValue { return TraceValue{Value: v, Size: 32} }

// Tracer receives diagnostic value changes from the peripherals.
type Tracer interface {
	Trace(date Cycles, module, name string, v TraceValue)
}

// NopTracer discards every event.
type NopTracer struct{}

func (NopTracer) Trace(Cycles, string, string, TraceValue) {}

// TraceEvent is one entry of a variable log.
type TraceEvent struct {
	Date  Cycles
	Value uint32
}

// TraceVariable is the log of a single traced variable.
type TraceVariable struct {
	Size uint8
	Log  []TraceEvent
}

// TraceLog records traced variables grouped by module. Consecutive
// identical values are only recorded once.
type TraceLog struct {
	mu      sync.Mutex
	modules map[string]map[string]*TraceVariable
}

func NewTraceLog() *TraceLog {
	return &TraceLog{modules: make(map[string]map[string]*TraceVariable)}
}

// Trace implements Tracer. It panics if a variable changes width or if
// events arrive out of order.
func (t *TraceLog) Trace(date Cycles, module, name string, v TraceValue) {
	t.mu.Lock()
	defer t.mu.Unlock()

	vars, ok := t.modules[module]
	if !ok {
		vars = make(map[string]*TraceVariable)
		t.modules[module] = vars
	}
	variable, ok := vars[name]
	if !ok {
		variable = &TraceVariable{Size: v.Size}
		vars[name] = variable
	}
	if variable.Size != v.Size {
		panic(fmt.Sprintf("incoherent size for variable %s.%s: got %d and %d",
			module, name, variable.Size, v.Size))
	}

	if n := len(variable.Log); n > 0 {
		last := &variable.Log[n-1]
		if date < last.Date {
			panic(fmt.Sprintf("out-of-order event for %s.%s (%d < %d)",
				module, name, date, last.Date))
		}
		if last.Value == v.Value {
			return
		}
		if last.Date == date {
			last.Value = v.Value
			return
		}
	}
	variable.Log = append(variable.Log, TraceEvent{Date: date, Value: v.Value})
}

// Drain returns everything recorded so far and resets the log.
func (t *TraceLog) Drain() map[string]map[string]*TraceVariable {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := t.modules
	t.modules = make(map[string]map[string]*TraceVariable)
	return out
}
