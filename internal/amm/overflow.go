package amm

import (
	"github.com/holiman/uint256"
)

// All intermediate products are taken at 256 bits, four times the width of
// the 64-bit amounts they are built from, and narrowed back only at the end.

func wide(x uint64) *uint256.Int {
	return uint256.NewInt(x)
}

func narrow(x *uint256.Int, what string) (uint64, error) {
	if !x.IsUint64() {
		return 0, ErrArithmeticOverflow.Wrapf("%s does not fit in 64 bits", what)
	}
	return x.Uint64(), nil
}

// MulDiv returns floor(a*b/d).
func MulDiv(a, b, d uint64) (uint64, error) {
	return mulDivWide(wide(a), wide(b), wide(d))
}

// MulDivCeil returns ceil(a*b/d).
func MulDivCeil(a, b, d uint64) (uint64, error) {
	return mulDivCeilWide(wide(a), wide(b), wide(d))
}

func mulDivWide(a, b, d *uint256.Int) (uint64, error) {
	if d.IsZero() {
		return 0, ErrInvalidInput.Wrap("division by zero")
	}
	q, overflow := new(uint256.Int).MulDivOverflow(a, b, d)
	if overflow {
		return 0, ErrArithmeticOverflow.Wrap("multiply-divide")
	}
	return narrow(q, "quotient")
}

func mulDivCeilWide(a, b, d *uint256.Int) (uint64, error) {
	if d.IsZero() {
		return 0, ErrInvalidInput.Wrap("division by zero")
	}
	num, overflow := new(uint256.Int).MulOverflow(a, b)
	if overflow {
		return 0, ErrArithmeticOverflow.Wrap("multiply-divide")
	}
	q := new(uint256.Int).Div(num, d)
	if !new(uint256.Int).Mod(num, d).IsZero() {
		q.AddUint64(q, 1)
	}
	return narrow(q, "quotient")
}

// CheckedAdd returns a+b or ErrArithmeticOverflow.
func CheckedAdd(a, b uint64) (uint64, error) {
	sum := new(uint256.Int).Add(wide(a), wide(b))
	return narrow(sum, "sum")
}

// CheckedSub returns a-b or ErrArithmeticOverflow when b > a.
func CheckedSub(a, b uint64) (uint64, error) {
	if b > a {
		return 0, ErrArithmeticOverflow.Wrapf("%d - %d underflows", a, b)
	}
	return a - b, nil
}

// Product returns a*b at full width. It cannot overflow.
func Product(a, b uint64) *uint256.Int {
	return new(uint256.Int).Mul(wide(a), wide(b))
}

// SqrtProduct returns floor(sqrt(a*b)).
func SqrtProduct(a, b uint64) (uint64, error) {
	root := new(uint256.Int).Sqrt(Product(a, b))
	return narrow(root, "square root")
}

// exceedsBps reports whether part > whole*bps/10000, without rounding.
func exceedsBps(part, whole uint64, bps uint16) bool {
	lhs := Product(part, BasisPoints)
	rhs := Product(whole, uint64(bps))
	return lhs.Gt(rhs)
}
