package emu

// gpuClockRatio returns the number of GPU ticks per CPU cycle.
func gpuClockRatio(standard VideoStandard) FracCycles {
	gpuClock := float32(53.69e6)
	if standard == PAL {
		gpuClock = 53.20e6
	}
	return FracCyclesFromF32(gpuClock / CPUFreqHz)
}

// ticksPerLine is the length of a line in GPU ticks.
func (g *Gpu) ticksPerLine() uint16 {
	if g.vmode == PAL {
		return 3404
	}
	return 3412
}

func (g *Gpu) linesPerFrame() uint16 {
	if g.vmode == PAL {
		return 314
	}
	return 263
}

func (g *Gpu) inVBlank() bool {
	return g.displayLine < g.displayLineStart || g.displayLine >= g.displayLineEnd
}

// Sync advances the video timings to the current date.
func (g *Gpu) Sync(shared *SharedState) {
	delta := shared.TimeKeeper().Sync(PeripheralGpu)

	// Convert to GPU ticks, keeping the fractional part for next time
	ticks := uint64(g.gpuClockPhase) + delta*g.clockRatio.FP()
	g.gpuClockPhase = uint16(ticks)
	ticks >>= fracBits

	lineLen := uint64(g.ticksPerLine())
	frameLen := uint64(g.linesPerFrame())

	lineTick := uint64(g.displayLineTick) + ticks
	line := uint64(g.displayLine) + lineTick/lineLen
	g.displayLineTick = uint16(lineTick % lineLen)

	if line >= frameLen {
		if g.interlaced && (line/frameLen)&1 != 0 {
			g.fieldTop = !g.fieldTop
		}
		line %= frameLen
	}
	g.displayLine = uint16(line)

	g.updateVBlank(shared)
	g.predictNextSync(shared)
}

// updateVBlank refreshes the blanking flag from the current line. Entering
// VBlank raises the interrupt and ends the frame.
func (g *Gpu) updateVBlank(shared *SharedState) {
	vblank := g.inVBlank()
	if vblank == g.vblank {
		return
	}
	g.vblank = vblank
	shared.Trace("gpu", "vblank", TraceBool(vblank))
	if vblank {
		shared.IRQ().Assert(InterruptVBlank)
		shared.Counters().Frame.Increment()
		g.renderer.Display()
	}
}

// predictNextSync schedules a sync at the next VBlank edge.
func (g *Gpu) predictNextSync(shared *SharedState) {
	lineLen := uint64(g.ticksPerLine())
	frameLen := uint64(g.linesPerFrame())
	line := uint64(g.displayLine)

	target := uint64(g.displayLineEnd)
	if g.vblank {
		target = uint64(g.displayLineStart)
	}

	// Whole lines between the end of the current line and the target
	var lines uint64
	if target > line {
		lines = target - line - 1
	} else {
		lines = frameLen - line - 1 + target
	}

	ticks := lineLen - uint64(g.displayLineTick) + lines*lineLen

	// Convert to CPU cycles, rounding up
	remaining := ticks<<fracBits - uint64(g.gpuClockPhase)
	delta := FracCyclesFromFP(remaining).Divide(g.clockRatio).Ceil()
	if delta == 0 {
		delta = 1
	}

	shared.TimeKeeper().SetNextSyncDelta(PeripheralGpu, delta)
}

// DotclockPeriod returns the duration of a pixel in CPU cycles.
func (g *Gpu) DotclockPeriod() FracCycles {
	return FracCyclesFromCycles(Cycles(g.hres.dotclockDivider())).Divide(g.clockRatio)
}

// DotclockPhase returns the time elapsed in the current pixel in CPU
// cycles.
func (g *Gpu) DotclockPhase() FracCycles {
	div := g.displayLineTick % uint16(g.hres.dotclockDivider())
	ticks := FracCyclesFromCycles(Cycles(div)).Add(FracCyclesFromFP(uint64(g.gpuClockPhase)))
	return ticks.Divide(g.clockRatio)
}

// HsyncPeriod returns the duration of a line in CPU cycles.
func (g *Gpu) HsyncPeriod() FracCycles {
	return FracCyclesFromCycles(Cycles(g.ticksPerLine())).Divide(g.clockRatio)
}

// HsyncPhase returns the time elapsed in the current line in CPU cycles.
func (g *Gpu) HsyncPhase() FracCycles {
	ticks := FracCyclesFromCycles(Cycles(g.displayLineTick)).Add(FracCyclesFromFP(uint64(g.gpuClockPhase)))
	return ticks.Divide(g.clockRatio)
}

// DisplayLine returns the line being scanned out.
func (g *Gpu) DisplayLine() uint16 {
	return g.displayLine
}

// InVBlank reports whether the GPU is in vertical blanking.
func (g *Gpu) InVBlank() bool {
	return g.vblank
}
