package model

import (
	"github.com/shopspring/decimal"
)

// MinorPerMajor is the number of minor units (paise) per major unit (rupee).
const MinorPerMajor = 100

var (
	hundred      = decimal.NewFromInt(100)
	minorPerUnit = decimal.NewFromInt(MinorPerMajor)
)

// PricePack derives the prices recorded on a pack line.
//
// The base pack price is the effective unit price times the pack size. A
// positive SavingsPercent takes precedence over an explicit PackPrice. The
// final pack price is rounded to whole major units and the unit price is
// that rounded pack price spread over the pack.
func PricePack(product ProductSnapshot, pack PackDescriptor) (unitPrice, packPrice int64) {
	if pack.PackSize <= 0 {
		return product.EffectivePrice(), product.EffectivePrice()
	}

	size := decimal.NewFromInt(int64(pack.PackSize))
	base := decimal.NewFromInt(product.EffectivePrice()).Mul(size)

	final := base
	switch {
	case pack.SavingsPercent > 0:
		discount := decimal.NewFromFloat(pack.SavingsPercent).Div(hundred)
		final = base.Mul(decimal.NewFromInt(1).Sub(discount))
	case pack.PackPrice > 0:
		final = decimal.NewFromInt(pack.PackPrice)
	}

	rounded := final.Div(minorPerUnit).Round(0).Mul(minorPerUnit)
	packPrice = rounded.IntPart()
	unitPrice = rounded.Div(size).IntPart()
	return unitPrice, packPrice
}

// PriceLine returns the unit price and normalized pack descriptor for adding
// product to a cart. Non-pack lines are charged the effective price.
func PriceLine(product ProductSnapshot, pack *PackDescriptor) (int64, *PackDescriptor) {
	if pack == nil || pack.PackSize <= 0 {
		return product.EffectivePrice(), nil
	}
	unit, total := PricePack(product, *pack)
	priced := *pack
	priced.PackPrice = total
	return unit, &priced
}
