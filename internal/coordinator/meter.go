package coordinator

import "fmt"

// Fixed resource costs charged during fulfillment.
const (
	GasProofDecode = 3_000
	GasKeyLookup   = 2_100
	GasArchiveRead = 2_600
	GasVerifyProof = 180_000
	GasPerWord     = 1_000
	GasPaymentCalc = 5_000
)

// Meter is a deterministic resource budget for one fulfillment.
type Meter struct {
	limit uint64
	used  uint64
}

func NewMeter(limit uint64) *Meter {
	return &Meter{limit: limit}
}

func (m *Meter) Remaining() uint64 { return m.limit - m.used }

func (m *Meter) Used() uint64 { return m.used }

// Charge consumes gas or fails with ErrOutOfGas leaving the meter untouched.
func (m *Meter) Charge(gas uint64) error {
	if gas > m.Remaining() {
		return fmt.Errorf("%w: need %d, have %d", ErrOutOfGas, gas, m.Remaining())
	}
	m.used += gas
	return nil
}
