package discount

import (
	"fmt"
	"sort"
	"strings"

	"github.com/noah-isme/toko-discount/internal/money"
)

// VoucherEvaluator checks a voucher code against the cart and customer.
type VoucherEvaluator struct {
	rules map[string]VoucherRule
}

var _ Evaluator = (*VoucherEvaluator)(nil)

// NewVoucherEvaluator indexes vouchers by upper-cased code.
func NewVoucherEvaluator(vouchers map[string]VoucherRule) *VoucherEvaluator {
	idx := make(map[string]VoucherRule, len(vouchers))
	for code, v := range vouchers {
		if strings.TrimSpace(v.Code) == "" {
			v.Code = code
		}
		idx[codeKey(v.Code)] = v
	}
	return &VoucherEvaluator{rules: idx}
}

func codeKey(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Kind implements Evaluator.
func (e *VoucherEvaluator) Kind() Kind { return KindVoucher }

// Lookup returns the rule registered for code.
func (e *VoucherEvaluator) Lookup(code string) (VoucherRule, bool) {
	r, ok := e.rules[codeKey(code)]
	return r, ok
}

// Evaluate runs every eligibility check and, when all pass, computes the amount
// against ctx.Running. Without a code the evaluator is skipped.
func (e *VoucherEvaluator) Evaluate(ctx *Context) Outcome {
	code := strings.TrimSpace(ctx.VoucherCode)
	if code == "" {
		return skipped(KindVoucher, "Voucher")
	}
	rule, ok := e.Lookup(code)
	label := fmt.Sprintf("Voucher (%s)", codeKey(code))
	if !ok {
		return rejected(KindVoucher, label, []string{fmt.Sprintf("voucher code %q is invalid", code)})
	}
	label = fmt.Sprintf("Voucher (%s)", rule.Code)

	verdict := rule.Check(ctx.Cart, ctx.Customer, ctx.Running)
	if !verdict.Valid {
		return Outcome{Kind: KindVoucher, Label: label, Verdict: verdict, Amount: money.Zero()}
	}
	return Outcome{Kind: KindVoucher, Label: label, Verdict: verdict, Amount: rule.Compute(ctx.Running)}
}

// Check evaluates every constraint of the rule and collects all failures.
func (r VoucherRule) Check(cart *Cart, customer CustomerProfile, total money.Money) Verdict {
	var reasons []string

	if brands := r.excludedBrandsIn(cart); len(brands) > 0 {
		reasons = append(reasons, fmt.Sprintf("voucher %s is not valid for brands: %s", r.Code, strings.Join(brands, ", ")))
	}
	if tiers := r.excludedTiersIn(cart); len(tiers) > 0 {
		reasons = append(reasons, fmt.Sprintf("voucher %s is not valid for %s brand products", r.Code, strings.Join(tiers, ", ")))
	}
	if len(r.AllowedCategories) > 0 && !r.categoriesAllowed(cart) {
		reasons = append(reasons, fmt.Sprintf("voucher %s is only valid for categories: %s", r.Code, strings.Join(r.AllowedCategories, ", ")))
	}
	if r.MinCartValue != nil && total.LessThan(*r.MinCartValue) {
		reasons = append(reasons, fmt.Sprintf("minimum cart value of %s not met (current: %s)", r.MinCartValue, total))
	}
	if r.MinTier != nil && customer.Tier < *r.MinTier {
		reasons = append(reasons, fmt.Sprintf("voucher %s requires %s membership (current: %s)", r.Code, r.MinTier, customer.Tier))
	}
	return verdictOf(reasons)
}

// Compute returns the discount for the given subtotal, capped by MaxDiscount and
// by the subtotal itself.
func (r VoucherRule) Compute(subtotal money.Money) money.Money {
	var amount money.Money
	switch r.kind() {
	case VoucherFixed:
		if r.Amount != nil {
			amount = *r.Amount
		}
	default:
		amount = subtotal.Percent(r.Percent)
	}
	if r.MaxDiscount != nil {
		amount = amount.Min(*r.MaxDiscount)
	}
	return amount.Min(subtotal)
}

func (r VoucherRule) excludedBrandsIn(cart *Cart) []string {
	if len(r.ExcludedBrands) == 0 || cart == nil {
		return nil
	}
	excluded := make(map[string]struct{}, len(r.ExcludedBrands))
	for _, b := range r.ExcludedBrands {
		excluded[key(b)] = struct{}{}
	}
	seen := map[string]struct{}{}
	var out []string
	for _, it := range cart.Items {
		name := it.Product.Brand
		if _, ok := excluded[key(name)]; !ok {
			continue
		}
		if _, dup := seen[key(name)]; dup {
			continue
		}
		seen[key(name)] = struct{}{}
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (r VoucherRule) excludedTiersIn(cart *Cart) []string {
	if len(r.ExcludedBrandTiers) == 0 || cart == nil {
		return nil
	}
	excluded := make(map[BrandTier]struct{}, len(r.ExcludedBrandTiers))
	for _, t := range r.ExcludedBrandTiers {
		excluded[t] = struct{}{}
	}
	seen := map[BrandTier]struct{}{}
	var out []string
	for _, it := range cart.Items {
		tier := it.Product.BrandTier
		if _, ok := excluded[tier]; !ok {
			continue
		}
		if _, dup := seen[tier]; dup {
			continue
		}
		seen[tier] = struct{}{}
		out = append(out, string(tier))
	}
	sort.Strings(out)
	return out
}

func (r VoucherRule) categoriesAllowed(cart *Cart) bool {
	if cart == nil {
		return true
	}
	allowed := make(map[string]struct{}, len(r.AllowedCategories))
	for _, c := range r.AllowedCategories {
		allowed[key(c)] = struct{}{}
	}
	for _, it := range cart.Items {
		if _, ok := allowed[key(it.Product.Category)]; !ok {
			return false
		}
	}
	return true
}
