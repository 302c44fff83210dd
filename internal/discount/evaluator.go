package discount

import (
	"strings"

	"github.com/noah-isme/toko-discount/internal/money"
)

// Kind identifies one of the four discount types.
type Kind string

const (
	KindBrand    Kind = "brand"
	KindCategory Kind = "category"
	KindVoucher  Kind = "voucher"
	KindBank     Kind = "bank"
)

// Sequence is the fixed evaluation order. It doubles as the tie-break priority.
var Sequence = [...]Kind{KindBrand, KindCategory, KindVoucher, KindBank}

// Context is the state an evaluator reads. Cart is the request-scoped working copy;
// Running is the cart price at the current stage of the pipeline.
type Context struct {
	Cart        *Cart
	Customer    CustomerProfile
	Payment     *PaymentInfo
	VoucherCode string
	Running     money.Money
}

// Outcome is what an evaluator produces. Amount is kept at full precision and is
// zero unless the verdict is valid. Skipped marks an evaluator that did not apply
// at all (no voucher code, no payment method) and therefore has no verdict.
type Outcome struct {
	Kind    Kind
	Label   string
	Verdict Verdict
	Amount  money.Money
	Skipped bool
}

// Evaluator validates one discount type and computes its amount.
type Evaluator interface {
	Kind() Kind
	Evaluate(ctx *Context) Outcome
}

func skipped(kind Kind, label string) Outcome {
	return Outcome{Kind: kind, Label: label, Verdict: Pass(), Amount: money.Zero(), Skipped: true}
}

func rejected(kind Kind, label string, reasons []string) Outcome {
	return Outcome{Kind: kind, Label: label, Verdict: Fail(reasons...), Amount: money.Zero()}
}

func key(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

// rateIndex is a case-insensitive lookup over a percentage table.
type rateIndex map[string]money.Percent

func newRateIndex(rates map[string]money.Percent) rateIndex {
	idx := make(rateIndex, len(rates))
	for name, pct := range rates {
		idx[key(name)] = pct
	}
	return idx
}

// reducePrices lowers each matching item's current price by its rate and returns
// the total line discount.
func reducePrices(cart *Cart, idx rateIndex, attr func(Product) string) money.Money {
	total := money.Zero()
	if cart == nil {
		return total
	}
	for i := range cart.Items {
		item := &cart.Items[i]
		pct, ok := idx[key(attr(item.Product))]
		if !ok || pct.IsZero() {
			continue
		}
		unit := item.Product.CurrentPrice.Percent(pct)
		item.Product.CurrentPrice = item.Product.CurrentPrice.Sub(unit)
		total = total.Add(unit.Mul(item.Quantity))
	}
	return total
}
