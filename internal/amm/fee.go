package amm

// BasisPoints is the denominator for fee and tolerance rates.
const BasisPoints = 10_000

// ValidateFeeBps accepts fees in [0, BasisPoints).
func ValidateFeeBps(feeBps uint16) error {
	if feeBps >= BasisPoints {
		return ErrInvalidInput.Wrapf("fee %d bps must be below %d", feeBps, BasisPoints)
	}
	return nil
}

// ApplyFee returns floor(amountIn*(10000-feeBps)/10000), the part of the
// input that reaches the curve. The fee is taken out before the curve and is
// not added to the reserves.
func ApplyFee(amountIn uint64, feeBps uint16) (uint64, error) {
	if feeBps > BasisPoints {
		return 0, ErrInvalidInput.Wrapf("fee %d bps exceeds %d", feeBps, BasisPoints)
	}
	if feeBps == 0 {
		return amountIn, nil
	}
	return MulDiv(amountIn, BasisPoints-uint64(feeBps), BasisPoints)
}

// GrossUpForFee returns the smallest gross input whose ApplyFee result is at
// least net.
func GrossUpForFee(net uint64, feeBps uint16) (uint64, error) {
	if err := ValidateFeeBps(feeBps); err != nil {
		return 0, err
	}
	if feeBps == 0 {
		return net, nil
	}
	return MulDivCeil(net, BasisPoints, BasisPoints-uint64(feeBps))
}
