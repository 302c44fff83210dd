package discount

import "github.com/noah-isme/toko-discount/internal/money"

// BrandEvaluator applies automatic per-brand percentages, e.g. "min 40% off PUMA".
type BrandEvaluator struct {
	rates rateIndex
}

var _ Evaluator = (*BrandEvaluator)(nil)

// NewBrandEvaluator indexes the brand table. The table itself is not retained.
func NewBrandEvaluator(rates map[string]money.Percent) *BrandEvaluator {
	return &BrandEvaluator{rates: newRateIndex(rates)}
}

// Kind implements Evaluator.
func (e *BrandEvaluator) Kind() Kind { return KindBrand }

// Evaluate reduces the current price of every item whose brand has a rate.
// Brands without a rate are a no-op, never a failure.
func (e *BrandEvaluator) Evaluate(ctx *Context) Outcome {
	amount := reducePrices(ctx.Cart, e.rates, func(p Product) string { return p.Brand })
	return Outcome{Kind: KindBrand, Label: "Brand Discount", Verdict: Pass(), Amount: amount}
}
