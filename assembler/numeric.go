package assembler

import (
	"math"
	"strconv"
)

// parseFloatLiteral parses a .float operand into its IEEE-754 single
// precision bit pattern.
func parseFloatLiteral(tok string) (uint32, error) {
	v, err := strconv.ParseFloat(tok, 32)
	if err != nil {
		return 0, err
	}
	return math.Float32bits(float32(v)), nil
}
