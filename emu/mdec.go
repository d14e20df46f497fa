package emu

// mdecCommand is the state of the MDEC command port.
type mdecCommand uint8

const (
	// Next word is a command
	mdecIdle mdecCommand = iota
	// Receiving RLE macroblock data
	mdecBlockData
	// Receiving luma and chroma quantization tables
	mdecColorQuant
	// Receiving the luma quantization table
	mdecMonoQuant
	// Receiving the IDCT matrix
	mdecIdctMatrix
)

// MDecDepth is the output pixel format.
type MDecDepth uint8

const (
	MDecDepth4Bpp  MDecDepth = 0
	MDecDepth8Bpp  MDecDepth = 1
	MDecDepth24Bpp MDecDepth = 2
	MDecDepth15Bpp MDecDepth = 3
)

func (d MDecDepth) monochrome() bool {
	return d == MDecDepth4Bpp || d == MDecDepth8Bpp
}

// Block being decoded, as reported in the status register
const (
	mdecBlockY1     = 0
	mdecBlockY4     = 3
	mdecBlockCrMono = 4
	mdecBlockCb     = 5
)

// mdecEndOfBlock pads blocks and ends their coefficient list.
const mdecEndOfBlock = 0xfe00

// zigzag maps the position of a coefficient in the RLE stream to its
// position in the 8x8 block.
var zigzag = [64]uint8{
	0x00, 0x01, 0x08, 0x10, 0x09, 0x02, 0x03, 0x0a,
	0x11, 0x18, 0x20, 0x19, 0x12, 0x0b, 0x04, 0x05,
	0x0c, 0x13, 0x1a, 0x21, 0x28, 0x30, 0x29, 0x22,
	0x1b, 0x14, 0x0d, 0x06, 0x07, 0x0e, 0x15, 0x1c,
	0x23, 0x2a, 0x31, 0x38, 0x39, 0x32, 0x2b, 0x24,
	0x1d, 0x16, 0x0f, 0x17, 0x1e, 0x25, 0x2c, 0x33,
	0x3a, 0x3b, 0x34, 0x2d, 0x26, 0x1f, 0x27, 0x2e,
	0x35, 0x3c, 0x3d, 0x36, 0x2f, 0x37, 0x3e, 0x3f,
}

// MDec is the macroblock decoder register interface. Coefficients are
// unpacked from the RLE stream but not transformed: no pixels come out.
type MDec struct {
	dmaInEnable  bool
	dmaOutEnable bool
	outputDepth  MDecDepth
	outputSigned bool
	// Bit 15 of 15bpp output
	outputBit15 bool

	// Luma then chroma
	quantMatrices [2][64]uint8
	idctMatrix    [64]int16

	command          mdecCommand
	commandRemaining uint16

	// Coefficients of the block being received, in natural order
	coefficients [64]int16
	blockIndex   uint8
	blockType    uint8
	quantFactor  uint8
	// Complete blocks since power on
	blocksDecoded uint64
}

func NewMDec() *MDec {
	return &MDec{
		commandRemaining: 1,
		blockType:        mdecBlockCrMono,
	}
}

// Load reads the status register (offset 4). offset is relative to
// 0x1f801820.
func (m *MDec) Load(width AccessWidth, offset uint32) uint32 {
	if width != Word {
		panicf("unhandled %s MDEC load at offset %d", width, offset)
	}
	if offset != 4 {
		panicf("unhandled MDEC load at offset %d", offset)
	}
	return m.Status()
}

// Store writes the command (offset 0) or control (offset 4) register.
func (m *MDec) Store(width AccessWidth, offset uint32, val uint32) {
	if width != Word {
		panicf("unhandled %s MDEC store at offset %d: %08x", width, offset, val)
	}

	switch offset {
	case 0:
		m.Command(val)
	case 4:
		m.SetControl(val)
	default:
		panicf("unhandled MDEC store at offset %d: %08x", offset, val)
	}
}

func (m *MDec) Status() uint32 {
	var r uint32

	// Remaining parameter words minus one, 0xffff when idle
	if m.command == mdecIdle {
		r |= 0xffff
	} else {
		r |= uint32(m.commandRemaining - 1)
	}
	r |= uint32(m.blockType) << 16
	r |= uint32(boolByte(m.outputBit15)) << 23
	r |= uint32(boolByte(m.outputSigned)) << 24
	r |= uint32(m.outputDepth) << 25
	r |= uint32(boolByte(m.dmaOutEnable)) << 27
	r |= uint32(boolByte(m.dmaInEnable)) << 28
	r |= uint32(boolByte(m.command != mdecIdle)) << 29
	// Output FIFO empty
	r |= 1 << 31

	return r
}

func (m *MDec) SetControl(val uint32) {
	m.dmaInEnable = val&(1<<30) != 0
	m.dmaOutEnable = val&(1<<29) != 0

	if val&(1<<31) != 0 {
		m.outputDepth = MDecDepth4Bpp
		m.outputSigned = false
		m.outputBit15 = false
		m.blockType = mdecBlockCrMono
		m.blockIndex = 0
		m.command = mdecIdle
		m.commandRemaining = 1
	}
}

// Command handles a word written to the command port, by the CPU or by
// DMA.
func (m *MDec) Command(val uint32) {
	m.commandRemaining--

	switch m.command {
	case mdecIdle:
		m.startCommand(val)
		return
	case mdecBlockData:
		m.blockData(uint16(val))
		m.blockData(uint16(val >> 16))
	case mdecColorQuant:
		i := int(31 - m.commandRemaining)
		m.storeQuant(i/16, (i%16)*4, val)
	case mdecMonoQuant:
		i := int(15 - m.commandRemaining)
		m.storeQuant(0, i*4, val)
	case mdecIdctMatrix:
		i := int(31-m.commandRemaining) * 2
		m.idctMatrix[i] = int16(val)
		m.idctMatrix[i+1] = int16(val >> 16)
	}

	if m.commandRemaining == 0 {
		m.command = mdecIdle
		m.commandRemaining = 1
	}
}

func (m *MDec) startCommand(val uint32) {
	// Updated for every opcode
	m.outputDepth = MDecDepth((val >> 27) & 3)
	m.outputSigned = val&(1<<26) != 0
	m.outputBit15 = val&(1<<25) != 0

	switch op := val >> 29; op {
	case 1:
		m.command = mdecBlockData
		m.commandRemaining = uint16(val)
		m.blockIndex = 0
		m.blockType = mdecBlockCrMono
	case 2:
		if val&1 != 0 {
			m.command = mdecColorQuant
			m.commandRemaining = 32
		} else {
			m.command = mdecMonoQuant
			m.commandRemaining = 16
		}
	case 3:
		m.command = mdecIdctMatrix
		m.commandRemaining = 32
	default:
		panicf("unsupported MDEC opcode %d (%08x)", op, val)
	}

	if m.commandRemaining == 0 {
		m.command = mdecIdle
		m.commandRemaining = 1
	}
}

func (m *MDec) storeQuant(matrix, index int, val uint32) {
	for i := 0; i < 4; i++ {
		m.quantMatrices[matrix][index+i] = uint8(val >> (i * 8))
	}
}

// signExtend10 returns the signed 10-bit payload of an RLE halfword.
func signExtend10(v uint16) int16 {
	return int16(v<<6) >> 6
}

func (m *MDec) setCoefficient(v int16) {
	if m.blockIndex >= 64 {
		panicf("MDEC block index overflow")
	}
	m.coefficients[zigzag[m.blockIndex]] = v
	m.blockIndex++
}

// blockData consumes one RLE halfword.
func (m *MDec) blockData(v uint16) {
	if m.blockIndex == 0 {
		if v == mdecEndOfBlock {
			// Padding between blocks
			return
		}
		// Quantization factor and DC coefficient
		m.quantFactor = uint8(v >> 10)
		m.setCoefficient(signExtend10(v))
		return
	}

	if v == mdecEndOfBlock {
		for m.blockIndex < 64 {
			m.setCoefficient(0)
		}
	} else {
		// Leading zeroes, then an AC coefficient
		for n := v >> 10; n > 0; n-- {
			m.setCoefficient(0)
		}
		m.setCoefficient(signExtend10(v))
	}

	if m.blockIndex == 64 {
		m.nextBlock()
	}
}

func (m *MDec) nextBlock() {
	m.blocksDecoded++
	m.blockIndex = 0

	if m.outputDepth.monochrome() {
		return
	}
	switch m.blockType {
	case mdecBlockCrMono:
		m.blockType = mdecBlockCb
	case mdecBlockCb:
		m.blockType = mdecBlockY1
	case mdecBlockY4:
		m.blockType = mdecBlockCrMono
	default:
		m.blockType++
	}
}

// DmaWriteWord is the MDecIn DMA port.
func (m *MDec) DmaWriteWord(w uint32) {
	m.Command(w)
}

// DmaReadWord is the MDecOut DMA port. Nothing is decoded so the output
// FIFO is always empty.
func (m *MDec) DmaReadWord() uint32 {
	return 0
}

// BlocksDecoded returns the number of complete blocks received.
func (m *MDec) BlocksDecoded() uint64 {
	return m.blocksDecoded
}

// QuantMatrix returns the luma (0) or chroma (1) quantization table.
func (m *MDec) QuantMatrix(n int) [64]uint8 {
	return m.quantMatrices[n]
}
