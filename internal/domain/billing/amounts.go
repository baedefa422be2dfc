package billing

import (
	"github.com/shopspring/decimal"

	"leasebill/internal/core/types"
)

// Charges is the monthly breakdown billed on top of the rent.
type Charges struct {
	Tax   types.Money `db:"valor_iptu" json:"valorIptu"`
	Water types.Money `db:"valor_agua" json:"valorAgua"`
	Power types.Money `db:"valor_luz" json:"valorLuz"`
	Other types.Money `db:"valor_outros" json:"valorOutros"`
}

// Sum adds all components.
func (c Charges) Sum() types.Money {
	return decimal.Sum(c.Tax, c.Water, c.Power, c.Other)
}

// HasNegative reports whether any component is below zero.
func (c Charges) HasNegative() bool {
	return c.Tax.IsNegative() || c.Water.IsNegative() || c.Power.IsNegative() || c.Other.IsNegative()
}

// Amounts are the monetary components of one installment.
type Amounts struct {
	Base types.Money `db:"valor_base" json:"valorBase"`
	Charges
	Discount types.Money `db:"desconto_pontualidade" json:"descontoPontualidade"`
}

// Total is base + breakdown - discount. It is always computed, never stored.
func (a Amounts) Total() types.Money {
	return a.Base.Add(a.Charges.Sum()).Sub(a.Discount)
}
