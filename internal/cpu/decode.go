package cpu

// Instruction names. Decode produces one of these plus up to two operand
// slots; execution dispatches on the name.
type opName int

const (
	opInvalid opName = iota
	opNOP
	opSTOP
	opHALT
	opLD
	opALU
	opADD16
	opINC
	opDEC
	opINC16
	opDEC16
	opRLCA
	opRRCA
	opRLA
	opRRA
	opDAA
	opCPL
	opSCF
	opCCF
	opJP
	opJPCC
	opJPHL
	opJR
	opJRCC
	opCALL
	opCALLCC
	opRET
	opRETCC
	opRETI
	opRST
	opPUSH
	opPOP
	opDI
	opEI
	opROT
	opBIT
	opRES
	opSET
)

// Operand roles. An operand is a register name, an immediate, or one of the
// special forms; the indirect flag turns it into a memory access (for the
// 8-bit immediate and the C register that means 0xFF00-relative).
type operandID int

const (
	operNone operandID = iota
	operA
	operB
	operC
	operD
	operE
	operH
	operL
	operAF
	operBC
	operDE
	operHL
	operHLInc
	operHLDec
	operSP
	operSPd
	operImm8
	operImm16
)

type operand struct {
	id       operandID
	indirect bool
}

// Op is the value-only instruction descriptor produced by decode. y carries
// the table index for the cc/alu/rot/bit/rst families.
type Op struct {
	name opName
	y    byte
	args [2]operand
}

// operand tables from the opcode-table decomposition
var (
	// r: 8-bit operand by z (index 6 is memory at HL)
	tabR = [8]operand{
		{id: operB}, {id: operC}, {id: operD}, {id: operE},
		{id: operH}, {id: operL}, {id: operHL, indirect: true}, {id: operA},
	}
	// rp: 16-bit operand by p
	tabRP = [4]operand{{id: operBC}, {id: operDE}, {id: operHL}, {id: operSP}}
	// rp2: 16-bit stack operand by p
	tabRP2 = [4]operand{{id: operBC}, {id: operDE}, {id: operHL}, {id: operAF}}
)

// indirect loading targets for the x=0,z=2 column, by p
var tabIndirectA = [4]operand{
	{id: operBC, indirect: true},
	{id: operDE, indirect: true},
	{id: operHLInc, indirect: true},
	{id: operHLDec, indirect: true},
}

// decode slices a base-page opcode into (x, y, z, p, q) and builds the
// instruction descriptor. It is a pure function of the opcode byte.
func decode(opcode byte) Op {
	x := (opcode & 0xC0) >> 6
	y := (opcode & 0x38) >> 3
	z := opcode & 0x07
	p := (opcode & 0x30) >> 4
	q := (opcode & 0x08) >> 3

	res := Op{y: y}

	switch x {
	case 0:
		switch z {
		case 0:
			// Relative jumps and assorted ops
			switch y {
			case 0:
				res.name = opNOP
			case 1:
				// LD (nn), SP
				res.name = opLD
				res.args[0] = operand{id: operImm16, indirect: true}
				res.args[1] = operand{id: operSP}
			case 2:
				res.name = opSTOP
			case 3:
				res.name = opJR
			default:
				// JR cc[y-4], d
				res.name = opJRCC
			}
		case 1:
			// 16-bit load immediate/add
			if q == 1 {
				// ADD HL, rp[p]
				res.name = opADD16
				res.args[0] = operand{id: operHL}
				res.args[1] = tabRP[p]
			} else {
				// LD rp[p], nn
				res.name = opLD
				res.args[0] = tabRP[p]
				res.args[1] = operand{id: operImm16}
			}
		case 2:
			// Indirect loading between A and (BC)/(DE)/(HL+)/(HL-)
			res.name = opLD
			if q == 1 {
				res.args[0] = operand{id: operA}
				res.args[1] = tabIndirectA[p]
			} else {
				res.args[0] = tabIndirectA[p]
				res.args[1] = operand{id: operA}
			}
		case 3:
			// 16-bit INC/DEC
			if q == 1 {
				res.name = opDEC16
			} else {
				res.name = opINC16
			}
			res.args[0] = tabRP[p]
		case 4:
			// INC r[y]
			res.name = opINC
			res.args[0] = tabR[y]
		case 5:
			// DEC r[y]
			res.name = opDEC
			res.args[0] = tabR[y]
		case 6:
			// LD r[y], n
			res.name = opLD
			res.args[0] = tabR[y]
			res.args[1] = operand{id: operImm8}
		case 7:
			// Assorted operations on accumulator/flags
			switch y {
			case 0:
				res.name = opRLCA
			case 1:
				res.name = opRRCA
			case 2:
				res.name = opRLA
			case 3:
				res.name = opRRA
			case 4:
				res.name = opDAA
			case 5:
				res.name = opCPL
			case 6:
				res.name = opSCF
			case 7:
				res.name = opCCF
			}
		}
	case 1:
		if z == 6 && y == 6 {
			res.name = opHALT
		} else {
			// LD r[y], r[z]
			res.name = opLD
			res.args[0] = tabR[y]
			res.args[1] = tabR[z]
		}
	case 2:
		// alu[y] r[z]
		res.name = opALU
		res.args[0] = tabR[z]
	case 3:
		switch z {
		case 0:
			switch y {
			case 0, 1, 2, 3:
				// RET cc[y]
				res.name = opRETCC
			case 4:
				// LD (0xFF00 + n), A
				res.name = opLD
				res.args[0] = operand{id: operImm8, indirect: true}
				res.args[1] = operand{id: operA}
			case 5:
				// ADD SP, d
				res.name = opADD16
				res.args[0] = operand{id: operSP}
			case 6:
				// LD A, (0xFF00 + n)
				res.name = opLD
				res.args[0] = operand{id: operA}
				res.args[1] = operand{id: operImm8, indirect: true}
			case 7:
				// LD HL, SP + d
				res.name = opLD
				res.args[0] = operand{id: operHL}
				res.args[1] = operand{id: operSPd}
			}
		case 1:
			if q == 1 {
				switch p {
				case 0:
					res.name = opRET
				case 1:
					res.name = opRETI
				case 2:
					res.name = opJPHL
				case 3:
					// LD SP, HL
					res.name = opLD
					res.args[0] = operand{id: operSP}
					res.args[1] = operand{id: operHL}
				}
			} else {
				// POP rp2[p]
				res.name = opPOP
				res.args[0] = tabRP2[p]
			}
		case 2:
			switch y {
			case 0, 1, 2, 3:
				// JP cc[y], nn
				res.name = opJPCC
				res.args[0] = operand{id: operImm16}
			case 4:
				// LD (0xFF00+C), A
				res.name = opLD
				res.args[0] = operand{id: operC, indirect: true}
				res.args[1] = operand{id: operA}
			case 5:
				// LD (nn), A
				res.name = opLD
				res.args[0] = operand{id: operImm16, indirect: true}
				res.args[1] = operand{id: operA}
			case 6:
				// LD A, (0xFF00+C)
				res.name = opLD
				res.args[0] = operand{id: operA}
				res.args[1] = operand{id: operC, indirect: true}
			case 7:
				// LD A, (nn)
				res.name = opLD
				res.args[0] = operand{id: operA}
				res.args[1] = operand{id: operImm16, indirect: true}
			}
		case 3:
			switch y {
			case 0:
				// JP nn
				res.name = opJP
				res.args[0] = operand{id: operImm16}
			case 6:
				res.name = opDI
			case 7:
				res.name = opEI
			default:
				// 0xD3, 0xDB, 0xE3, 0xEB lock the CPU (0xCB is handled
				// before decode as the prefix byte)
				res.name = opInvalid
			}
		case 4:
			if y <= 3 {
				// CALL cc[y], nn
				res.name = opCALLCC
			} else {
				// 0xE4, 0xEC, 0xF4, 0xFC
				res.name = opInvalid
			}
		case 5:
			if q == 1 {
				if p == 0 {
					res.name = opCALL
				} else {
					// 0xDD, 0xED, 0xFD
					res.name = opInvalid
				}
			} else {
				res.name = opPUSH
				res.args[0] = tabRP2[p]
			}
		case 6:
			// alu[y] n
			res.name = opALU
			res.args[0] = operand{id: operImm8}
		case 7:
			// RST y*8
			res.name = opRST
		}
	}

	return res
}

// decodeCB builds the descriptor for a CB-prefixed opcode: rotates/shifts
// (x=0), BIT (x=1), RES (x=2), SET (x=3), each on r[z] with bit/variant y.
func decodeCB(opcode byte) Op {
	x := (opcode & 0xC0) >> 6
	y := (opcode & 0x38) >> 3
	z := opcode & 0x07

	res := Op{y: y}
	res.args[0] = tabR[z]

	switch x {
	case 0:
		res.name = opROT
	case 1:
		res.name = opBIT
	case 2:
		res.name = opRES
	case 3:
		res.name = opSET
	}
	return res
}
