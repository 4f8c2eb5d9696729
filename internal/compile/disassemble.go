package compile

import (
	"fmt"
	"strings"

	"nl/internal/bytecode"
	"nl/internal/types"
)

// Disassemble renders code as a human-readable instruction listing, one
// instruction per line prefixed by its byte offset, used by the CLI's
// -dump-bytecode flag.
func Disassemble(code []byte, data []types.Variant) string {
	var b strings.Builder
	ip := 0
	for ip < len(code) {
		op := bytecode.Opcode(code[ip])
		def, err := bytecode.Lookup(op)
		if err != nil {
			fmt.Fprintf(&b, "%04d\tILLEGAL %d\n", ip, code[ip])
			ip++
			continue
		}
		fmt.Fprintf(&b, "%04d\t%s", ip, def.Name)
		operandOffset := ip + 1
		for _, width := range def.OperandWidths {
			operand := bytecode.ReadOperand(code[operandOffset:operandOffset+width], width)
			if op == bytecode.CastInt {
				from, to := bytecode.UnpackCastOperands(byte(operand))
				fmt.Fprintf(&b, " %d,%d", from, to)
			} else if op == bytecode.LoadData && operand < len(data) {
				fmt.Fprintf(&b, " %d (%s)", operand, data[operand].String())
			} else {
				fmt.Fprintf(&b, " %d", operand)
			}
			operandOffset += width
		}
		b.WriteByte('\n')
		ip += def.Width()
	}
	return b.String()
}
