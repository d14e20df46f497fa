package emu

import (
	"fmt"
	"math"
)

// CPUFreqHz is the main CPU clock frequency.
const CPUFreqHz = 33_868_500

// Cycles counts CPU clock periods since power-on.
type Cycles = uint64

// Peripheral identifies a unit with its own time sheet.
type Peripheral int

const (
	PeripheralGpu Peripheral = iota
	PeripheralTimer0
	PeripheralTimer1
	PeripheralTimer2
	PeripheralCdRom
	PeripheralPadMemCard

	peripheralCount
)

var peripheralNames = [peripheralCount]string{
	"gpu", "timer0", "timer1", "timer2", "cdrom", "padmemcard",
}

func (p Peripheral) String() string {
	if p < 0 || p >= peripheralCount {
		return fmt.Sprintf("peripheral(%d)", int(p))
	}
	return peripheralNames[p]
}

// timeSheet tracks when a peripheral was last synchronized and when it must
// be synchronized next.
type timeSheet struct {
	lastSync Cycles
	nextSync Cycles
}

func (ts *timeSheet) sync(now Cycles) Cycles {
	delta := now - ts.lastSync
	ts.lastSync = now
	return delta
}

// TimeKeeper is the virtual clock shared by every peripheral.
type TimeKeeper struct {
	now    Cycles
	sheets [peripheralCount]timeSheet

	// Earliest nextSync of all sheets, refreshed by UpdateSyncPending
	nextSync Cycles
}

// NewTimeKeeper returns a clock at cycle 0. Every sheet starts with
// nextSync 0 so each peripheral is synchronized right away.
func NewTimeKeeper() *TimeKeeper {
	return &TimeKeeper{}
}

// Tick advances the clock.
func (tk *TimeKeeper) Tick(cycles Cycles) {
	tk.now += cycles
}

// Now returns the current date.
func (tk *TimeKeeper) Now() Cycles {
	return tk.now
}

// Sync returns the number of cycles elapsed since the last sync of p and
// marks p as synchronized.
func (tk *TimeKeeper) Sync(p Peripheral) Cycles {
	return tk.sheets[p].sync(tk.now)
}

// SetNextSyncDelta forces a sync of p delta cycles from now.
func (tk *TimeKeeper) SetNextSyncDelta(p Peripheral, delta Cycles) {
	date := tk.now + delta
	tk.sheets[p].nextSync = date
	if date < tk.nextSync {
		tk.nextSync = date
	}
}

// SetNextSyncDeltaIfSooner is SetNextSyncDelta that never postpones an
// earlier deadline.
func (tk *TimeKeeper) SetNextSyncDeltaIfSooner(p Peripheral, delta Cycles) {
	date := tk.now + delta
	if date < tk.sheets[p].nextSync {
		tk.SetNextSyncDelta(p, delta)
	}
}

// NoSyncNeeded removes the forced sync of p.
func (tk *TimeKeeper) NoSyncNeeded(p Peripheral) {
	tk.sheets[p].nextSync = math.MaxUint64
}

// NeedsSync reports whether the forced sync date of p has been reached.
func (tk *TimeKeeper) NeedsSync(p Peripheral) bool {
	return tk.sheets[p].nextSync <= tk.now
}

// SyncPending reports whether at least one peripheral needs a sync.
func (tk *TimeKeeper) SyncPending() bool {
	return tk.nextSync <= tk.now
}

// NextSync returns the earliest forced sync date.
func (tk *TimeKeeper) NextSync() Cycles {
	return tk.nextSync
}

// UpdateSyncPending recomputes the earliest forced sync date. Call after
// the pending peripherals have been synchronized.
func (tk *TimeKeeper) UpdateSyncPending() {
	next := Cycles(math.MaxUint64)
	for i := range tk.sheets {
		if tk.sheets[i].nextSync < next {
			next = tk.sheets[i].nextSync
		}
	}
	tk.nextSync = next
}

func (tk *TimeKeeper) String() string {
	return fmt.Sprintf("%d", tk.now)
}
