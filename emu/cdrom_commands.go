package emu

import (
	"log/slog"

	"github.com/user-none/empsx/disc"
)

// Delays are averages measured on real hardware with a game disc or the
// shell open. They have a large standard deviation on the console.

// cdromCommand returns the handler of a command byte.
func cdromCommand(cmd uint8) func(*CdRom) cdCommandState {
	switch cmd {
	case 0x01:
		return (*CdRom).cmdGetStat
	case 0x02:
		return (*CdRom).cmdSetLoc
	case 0x06, 0x1b:
		// ReadN, ReadS
		return (*CdRom).cmdRead
	case 0x09:
		return (*CdRom).cmdPause
	case 0x0a:
		return (*CdRom).cmdInit
	case 0x0b:
		return (*CdRom).cmdMute
	case 0x0c:
		return (*CdRom).cmdDemute
	case 0x0d:
		return (*CdRom).cmdSetFilter
	case 0x0e:
		return (*CdRom).cmdSetMode
	case 0x0f:
		return (*CdRom).cmdGetParam
	case 0x11:
		return (*CdRom).cmdGetLocP
	case 0x13:
		return (*CdRom).cmdGetTN
	case 0x15:
		return (*CdRom).cmdSeekL
	case 0x19:
		return (*CdRom).cmdTest
	case 0x1a:
		return (*CdRom).cmdGetID
	case 0x1e:
		return (*CdRom).cmdReadTOC
	}
	return nil
}

func (c *CdRom) command(shared *SharedState, cmd uint8) {
	if c.commandState.kind != cmdIdle {
		panicf("CD-ROM command 0x%02x while the controller is busy", cmd)
	}

	c.response.Clear()

	handler := cdromCommand(cmd)
	if handler == nil {
		panicf("unhandled CD-ROM command 0x%02x (%d params)", cmd, c.params.Len())
	}
	shared.Trace("cdrom", "command", TraceU8(cmd))

	tk := shared.TimeKeeper()
	if c.irqFlags == 0 {
		c.commandState = handler(c)
		if c.commandState.kind == cmdRxPending {
			tk.SetNextSyncDelta(PeripheralCdRom, Cycles(c.commandState.irqDelay))
		}
	} else {
		// Runs once the current interrupt is acknowledged
		c.onAck = ackCommand
		c.queuedCommand = cmd
		c.queuedParams = c.params
	}

	if c.readState.reading {
		tk.SetNextSyncDeltaIfSooner(PeripheralCdRom, Cycles(c.readState.delay))
	}

	// Parameters are cleared even when the command fails
	c.params.Clear()
}

func (c *CdRom) runAck(ack ackHandler) cdCommandState {
	switch ack {
	case ackSeekL:
		return c.ackSeekL()
	case ackGetID:
		return c.ackGetID()
	case ackReadTOC:
		return c.ackReadTOC()
	case ackPause:
		return c.ackPause()
	case ackInit:
		return c.ackInit()
	case ackCommand:
		saved := c.params
		c.params = c.queuedParams
		st := cdromCommand(c.queuedCommand)(c)
		c.params = saved
		c.queuedParams.Clear()
		return st
	}
	return cdCommandState{}
}

func (c *CdRom) statusResponse() Fifo {
	return FifoFromBytes(c.driveStatus())
}

func (c *CdRom) cmdGetStat() cdCommandState {
	if !c.params.Empty() {
		panicf("unexpected parameters for CD-ROM GetStat")
	}

	rx := uint32(24_000)
	if c.disc == nil {
		rx = 17_000
	}
	return rxPending(rx, 5401, IrqOk, c.statusResponse())
}

func (c *CdRom) cmdSetLoc() cdCommandState {
	if c.params.Len() != 3 {
		panicf("CD-ROM: bad number of parameters for SetLoc: %d", c.params.Len())
	}

	m := c.params.Pop()
	s := c.params.Pop()
	f := c.params.Pop()

	target, ok := disc.MsfFromBCD(m, s, f)
	if !ok {
		panicf("invalid MSF in SetLoc: %02x:%02x:%02x", m, s, f)
	}
	c.seekTarget = target
	c.seekTargetPending = true

	if c.disc == nil {
		return rxPending(25_000, 6763, IrqError, FifoFromBytes(0x11, 0x80))
	}
	return rxPending(35_000, 5399, IrqOk, c.statusResponse())
}

func (c *CdRom) cmdRead() cdCommandState {
	if c.readState.reading {
		panicf("CD-ROM read while already reading")
	}

	if c.seekTargetPending {
		c.doSeek()
	}

	c.readState = cdReadState{reading: true, delay: c.cyclesPerSector()}
	return rxPending(28_000, 5401, IrqOk, c.statusResponse())
}

func (c *CdRom) cmdPause() cdCommandState {
	if !c.readState.reading {
		slog.Warn("CD-ROM Pause while not reading")
	}
	c.onAck = ackPause
	return rxPending(25_000, 5393, IrqOk, c.statusResponse())
}

func (c *CdRom) cmdInit() cdCommandState {
	c.onAck = ackInit
	return rxPending(58_000, 5401, IrqOk, c.statusResponse())
}

func (c *CdRom) cmdMute() cdCommandState {
	return rxPending(23_000, 5401, IrqOk, c.statusResponse())
}

func (c *CdRom) cmdDemute() cdCommandState {
	return rxPending(32_000, 5401, IrqOk, c.statusResponse())
}

func (c *CdRom) cmdSetFilter() cdCommandState {
	if c.params.Len() != 2 {
		panicf("CD-ROM: bad number of parameters for SetFilter: %d", c.params.Len())
	}
	c.filterFile = c.params.Pop()
	c.filterChannel = c.params.Pop()
	return rxPending(34_000, 5408, IrqOk, c.statusResponse())
}

func (c *CdRom) cmdSetMode() cdCommandState {
	if c.params.Len() != 1 {
		panicf("CD-ROM: bad number of parameters for SetMode: %d", c.params.Len())
	}

	mode := c.params.Pop()
	c.doubleSpeed = mode&0x80 != 0
	c.xaADPCMToSPU = mode&0x40 != 0
	c.readWholeSector = mode&0x20 != 0
	c.sectorSizeOverride = mode&0x10 != 0
	c.filterEnabled = mode&0x08 != 0
	c.reportInterrupts = mode&0x04 != 0
	c.autopause = mode&0x02 != 0
	c.cddaMode = mode&0x01 != 0

	if c.cddaMode || c.autopause || c.reportInterrupts || c.sectorSizeOverride {
		panicf("CD-ROM: unhandled mode: %02x", mode)
	}
	return rxPending(22_000, 5391, IrqOk, c.statusResponse())
}

// mode packs the SetMode flags.
func (c *CdRom) mode() uint8 {
	return boolByte(c.doubleSpeed)<<7 |
		boolByte(c.xaADPCMToSPU)<<6 |
		boolByte(c.readWholeSector)<<5 |
		boolByte(c.sectorSizeOverride)<<4 |
		boolByte(c.filterEnabled)<<3 |
		boolByte(c.reportInterrupts)<<2 |
		boolByte(c.autopause)<<1 |
		boolByte(c.cddaMode)
}

func (c *CdRom) cmdGetParam() cdCommandState {
	response := FifoFromBytes(c.driveStatus(), c.mode(), 0, c.filterFile, c.filterChannel)
	return rxPending(26_000, 11_980, IrqOk, response)
}

// cmdGetLocP reports the position of the last sector read.
func (c *CdRom) cmdGetLocP() cdCommandState {
	if c.position.Less(pregapEnd) {
		panicf("CD-ROM GetLocP while in track 1 pregap")
	}

	meta := c.sector.Metadata()
	tm, ts, tf := meta.TrackMsf.BCD()
	am, as, af := meta.Msf.BCD()
	response := FifoFromBytes(meta.Track, meta.Index, tm, ts, tf, am, as, af)
	return rxPending(32_000, 16_816, IrqOk, response)
}

// cmdGetTN returns the first and last track. Only single track discs are
// supported.
func (c *CdRom) cmdGetTN() cdCommandState {
	return rxPending(40_000, 8289, IrqOk, FifoFromBytes(c.driveStatus(), 0x01, 0x01))
}

func (c *CdRom) cmdSeekL() cdCommandState {
	c.doSeek()
	c.onAck = ackSeekL
	return rxPending(35_000, 5401, IrqOk, c.statusResponse())
}

func (c *CdRom) cmdGetID() cdCommandState {
	if c.disc == nil {
		return rxPending(20_000, 6776, IrqError, FifoFromBytes(0x11, 0x80))
	}
	c.onAck = ackGetID
	return rxPending(26_000, 5401, IrqOk, c.statusResponse())
}

func (c *CdRom) cmdReadTOC() cdCommandState {
	c.onAck = ackReadTOC
	return rxPending(45_000, 5401, IrqOk, c.statusResponse())
}

func (c *CdRom) cmdTest() cdCommandState {
	if c.params.Len() != 1 {
		panicf("unexpected number of parameters for CD-ROM Test: %d", c.params.Len())
	}

	sub := c.params.Pop()
	if sub != 0x20 {
		panicf("unhandled CD-ROM Test subcommand 0x%02x", sub)
	}

	// Controller version: 1994-10-06, version c3
	rx := uint32(21_000)
	if c.disc == nil {
		rx = 29_000
	}
	return rxPending(rx, 9711, IrqOk, FifoFromBytes(0x98, 0x06, 0x10, 0xc3))
}

func (c *CdRom) ackSeekL() cdCommandState {
	return rxPending(1_000_000, 1859, IrqDone, c.statusResponse())
}

func (c *CdRom) ackGetID() cdCommandState {
	if c.disc == nil {
		panicf("CD-ROM GetID second phase without a disc")
	}

	var region uint8
	switch c.disc.Region() {
	case disc.RegionJapan:
		region = 'I'
	case disc.RegionNorthAmerica:
		region = 'A'
	default:
		region = 'E'
	}

	response := FifoFromBytes(c.driveStatus(), 0x00, 0x20, 0x00, 'S', 'C', 'E', region)
	return rxPending(7336, 12_376, IrqDone, response)
}

func (c *CdRom) ackReadTOC() cdCommandState {
	// About half a second with a disc
	rx := uint32(16_000_000)
	if c.disc == nil {
		rx = 11_000
	}
	c.readState = cdReadState{}
	return rxPending(rx, 1859, IrqDone, c.statusResponse())
}

func (c *CdRom) ackPause() cdCommandState {
	c.readState = cdReadState{}
	return rxPending(2_000_000, 1858, IrqDone, c.statusResponse())
}

func (c *CdRom) ackInit() cdCommandState {
	c.position = disc.Msf{}
	c.seekTarget = disc.Msf{}
	c.readState = cdReadState{}
	c.doubleSpeed = false
	c.xaADPCMToSPU = false
	c.readWholeSector = true
	c.sectorSizeOverride = false
	c.filterEnabled = false
	c.reportInterrupts = false
	c.autopause = false
	c.cddaMode = false
	return rxPending(2_000_000, 1870, IrqDone, c.statusResponse())
}
