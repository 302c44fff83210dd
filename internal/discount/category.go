package discount

import "github.com/noah-isme/toko-discount/internal/money"

// CategoryEvaluator applies automatic per-category percentages on the price left
// after the brand step.
type CategoryEvaluator struct {
	rates rateIndex
}

var _ Evaluator = (*CategoryEvaluator)(nil)

// NewCategoryEvaluator indexes the category table.
func NewCategoryEvaluator(rates map[string]money.Percent) *CategoryEvaluator {
	return &CategoryEvaluator{rates: newRateIndex(rates)}
}

// Kind implements Evaluator.
func (e *CategoryEvaluator) Kind() Kind { return KindCategory }

// Evaluate reduces current prices by category rate.
func (e *CategoryEvaluator) Evaluate(ctx *Context) Outcome {
	amount := reducePrices(ctx.Cart, e.rates, func(p Product) string { return p.Category })
	return Outcome{Kind: KindCategory, Label: "Category Discount", Verdict: Pass(), Amount: amount}
}
