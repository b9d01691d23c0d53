// Package pow computes the per-block work contribution a header's compact
// target represents. It deliberately does not depend on model/blockindex:
// an index entry's chain work is the sum of its own proof and its parent's,
// so the math here is a pure function of bits alone, called by the index
// entry rather than calling into it.
package pow

import "math/big"

var (
	bigOne    = big.NewInt(1)
	oneLsh256 = new(big.Int).Lsh(bigOne, 256)
	maxUint256 = new(big.Int).Sub(oneLsh256, bigOne)
)

// CompactToBig converts a compact (IEEE754-like) target encoding to its
// 256-bit expansion: the top byte is a base-256 exponent, bit 23 is the
// sign, and the low 23 bits are the mantissa.
func CompactToBig(compact uint32) *big.Int {
	mantissa := compact & 0x007fffff
	isNegative := compact&0x00800000 != 0
	exponent := uint(compact >> 24)

	var bn *big.Int
	if exponent <= 3 {
		mantissa >>= 8 * (3 - exponent)
		bn = big.NewInt(int64(mantissa))
	} else {
		bn = big.NewInt(int64(mantissa))
		bn.Lsh(bn, 8*(exponent-3))
	}
	if isNegative {
		bn = bn.Neg(bn)
	}
	return bn
}

// BlockProof computes the work a single header with the given compact bits
// contributes to cumulative chain work: (~target)/(target+1) + 1, i.e. the
// expected number of hashes needed to find a block at that difficulty.
// ~target is the bitwise complement of the 256-bit expansion, equal to
// maxUint256 - target.
func BlockProof(bits uint32) *big.Int {
	target := CompactToBig(bits)
	if target.Sign() <= 0 {
		return big.NewInt(0)
	}
	complement := new(big.Int).Sub(maxUint256, target)
	denominator := new(big.Int).Add(target, bigOne)
	work := new(big.Int).Div(complement, denominator)
	return work.Add(work, bigOne)
}
