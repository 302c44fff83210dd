package pricing

import (
	"math/rand"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-discount/internal/discount"
	"github.com/noah-isme/toko-discount/internal/money"
)

func pct(v string) money.Percent { return money.MustPercent(v) }

func amt(v string) *money.Money {
	m := money.MustParse(v)
	return &m
}

func demoTables() discount.Tables {
	return discount.Tables{
		Brands:     map[string]money.Percent{"PUMA": pct("40"), "NIKE": pct("30"), "PREMIUM": pct("20")},
		Categories: map[string]money.Percent{"T-shirts": pct("10"), "Shoes": pct("15")},
		Vouchers: map[string]discount.VoucherRule{
			"SUPER69": {Code: "SUPER69", Percent: pct("69"), ExcludedBrands: []string{"PREMIUM"}},
		},
		BankOffers: map[string]discount.BankOfferRule{
			"ICICI": {Bank: "ICICI", Percent: pct("10"), MinTransactionValue: amt("100")},
		},
	}
}

func pumaCart() *discount.Cart {
	return discount.NewCart(discount.CartItem{
		Product:  discount.NewProduct("P001", "PUMA", discount.BrandTierRegular, "T-shirts", money.MustParse("1000")),
		Quantity: 1,
	})
}

func newEngine(t *testing.T, tables discount.Tables, stacking bool) *Engine {
	t.Helper()
	e, err := New(tables, Options{Stacking: stacking})
	require.NoError(t, err)
	return e
}

func amounts(r PricedResult) []string {
	out := make([]string, 0, len(r.Applied))
	for _, a := range r.Applied {
		out = append(out, string(a.Kind)+"="+a.Amount.String())
	}
	return out
}

func TestStackingPumaTshirt(t *testing.T) {
	e := newEngine(t, demoTables(), true)
	res, err := e.Calculate(Request{Cart: pumaCart(), Payment: &discount.PaymentInfo{Bank: "ICICI", CardType: discount.CardCredit}})
	require.NoError(t, err)

	require.Equal(t, ModeStacking, res.Mode)
	require.Equal(t, "1000.00", res.Original.String())
	require.Equal(t, []string{"brand=400.00", "category=60.00", "bank=54.00"}, amounts(res))
	require.Equal(t, "486.00", res.Final.String())
	require.Equal(t, "514.00", res.Savings.String())
}

func TestBestOfPumaTshirt(t *testing.T) {
	e := newEngine(t, demoTables(), false)
	res, err := e.Calculate(Request{Cart: pumaCart(), Payment: &discount.PaymentInfo{Bank: "ICICI"}})
	require.NoError(t, err)

	require.Equal(t, ModeBestOf, res.Mode)
	require.Equal(t, []string{"brand=400.00"}, amounts(res))
	require.Equal(t, "Brand Discount", res.Applied[0].Label)
	require.Equal(t, "600.00", res.Final.String())
	require.Equal(t, "400.00", res.Savings.String())
}

func TestExcludedBrandVoucherLeavesStackingUnchanged(t *testing.T) {
	cart := discount.NewCart(discount.CartItem{
		Product:  discount.NewProduct("X1", "PREMIUM", discount.BrandTierPremium, "Shoes", money.MustParse("1000")),
		Quantity: 1,
	})
	e := newEngine(t, demoTables(), true)

	without, err := e.Calculate(Request{Cart: cart})
	require.NoError(t, err)
	with, err := e.Calculate(Request{Cart: cart, VoucherCode: "SUPER69"})
	require.NoError(t, err)

	require.Equal(t, amounts(without), amounts(with))
	require.True(t, with.Final.Equal(without.Final))

	var voucher *Check
	for i := range with.Checks {
		if with.Checks[i].Kind == discount.KindVoucher {
			voucher = &with.Checks[i]
		}
	}
	require.NotNil(t, voucher)
	require.False(t, voucher.Verdict.Valid)
	require.Contains(t, voucher.Verdict.Reasons[0], "PREMIUM")
}

func TestInvalidVoucherDoesNotBlockBank(t *testing.T) {
	e := newEngine(t, demoTables(), true)
	res, err := e.Calculate(Request{Cart: pumaCart(), VoucherCode: "BOGUS", Payment: &discount.PaymentInfo{Bank: "icici"}})
	require.NoError(t, err)
	require.Equal(t, []string{"brand=400.00", "category=60.00", "bank=54.00"}, amounts(res))
}

func TestNoPaymentMeansNoBank(t *testing.T) {
	for _, stacking := range []bool{true, false} {
		e := newEngine(t, demoTables(), stacking)
		res, err := e.Calculate(Request{Cart: pumaCart()})
		require.NoError(t, err)
		for _, a := range res.Applied {
			require.NotEqual(t, discount.KindBank, a.Kind)
		}
		for _, c := range res.Checks {
			require.NotEqual(t, discount.KindBank, c.Kind)
		}
	}
}

func TestEmptyCart(t *testing.T) {
	for _, stacking := range []bool{true, false} {
		e := newEngine(t, demoTables(), stacking)
		res, err := e.Calculate(Request{Cart: discount.NewCart(), VoucherCode: "SUPER69", Payment: &discount.PaymentInfo{Bank: "ICICI"}})
		require.NoError(t, err)
		require.True(t, res.Original.IsZero())
		require.True(t, res.Final.IsZero())
		require.Empty(t, res.Applied)
	}
}

func TestBestOfTieGoesToEarlierKind(t *testing.T) {
	tables := discount.Tables{
		Brands:     map[string]money.Percent{"PUMA": pct("10")},
		Categories: map[string]money.Percent{"T-shirts": pct("10")},
		Vouchers: map[string]discount.VoucherRule{
			"FLAT100": {Code: "FLAT100", Kind: discount.VoucherFixed, Amount: amt("100")},
		},
		BankOffers: map[string]discount.BankOfferRule{"SBI": {Bank: "SBI", Percent: pct("10")}},
	}
	e := newEngine(t, tables, false)
	res, err := e.Calculate(Request{Cart: pumaCart(), VoucherCode: "FLAT100", Payment: &discount.PaymentInfo{Bank: "SBI"}})
	require.NoError(t, err)
	require.Equal(t, []string{"brand=100.00"}, amounts(res))

	tables.Brands = nil
	tables.Categories = nil
	e = newEngine(t, tables, false)
	res, err = e.Calculate(Request{Cart: pumaCart(), VoucherCode: "FLAT100", Payment: &discount.PaymentInfo{Bank: "SBI"}})
	require.NoError(t, err)
	require.Equal(t, []string{"voucher=100.00"}, amounts(res))
}

func TestBestOfPicksLargest(t *testing.T) {
	tables := demoTables()
	tables.Vouchers["BIG"] = discount.VoucherRule{Code: "BIG", Percent: pct("69")}
	e := newEngine(t, tables, false)
	res, err := e.Calculate(Request{Cart: pumaCart(), VoucherCode: "big"})
	require.NoError(t, err)
	require.Equal(t, []string{"voucher=690.00"}, amounts(res))
	require.Equal(t, "310.00", res.Final.String())
}

func TestBestOfNoCandidate(t *testing.T) {
	e := newEngine(t, discount.Tables{}, false)
	res, err := e.Calculate(Request{Cart: pumaCart()})
	require.NoError(t, err)
	require.Empty(t, res.Applied)
	require.True(t, res.Final.Equal(res.Original))
}

func TestCategoryUsesBrandDiscountedPrice(t *testing.T) {
	e := newEngine(t, demoTables(), true)
	cart := discount.NewCart(discount.CartItem{
		Product:  discount.NewProduct("P2", "NIKE", discount.BrandTierPremium, "Shoes", money.MustParse("999.99")),
		Quantity: 3,
	})
	res, err := e.Calculate(Request{Cart: cart})
	require.NoError(t, err)
	require.Len(t, res.Applied, 2)
	// 999.99 × 0.7 = 699.993 per unit; 15% of that × 3 = 314.99685
	require.Equal(t, "899.99", res.Applied[0].Amount.String())
	require.Equal(t, "315.00", res.Applied[1].Amount.String())
}

func TestCallerCartNotMutated(t *testing.T) {
	e := newEngine(t, demoTables(), true)
	cart := pumaCart()
	_, err := e.Calculate(Request{Cart: cart, Payment: &discount.PaymentInfo{Bank: "ICICI"}})
	require.NoError(t, err)
	require.Equal(t, "1000.00", cart.Items[0].Product.CurrentPrice.String())
}

func TestCalculateIsIdempotent(t *testing.T) {
	e := newEngine(t, demoTables(), true)
	req := Request{Cart: pumaCart(), VoucherCode: "SUPER69", Payment: &discount.PaymentInfo{Bank: "ICICI"}}
	first, err := e.Calculate(Request{Cart: req.Cart.Clone(), VoucherCode: req.VoucherCode, Payment: req.Payment})
	require.NoError(t, err)
	second, err := e.Calculate(Request{Cart: req.Cart.Clone(), VoucherCode: req.VoucherCode, Payment: req.Payment})
	require.NoError(t, err)
	require.Equal(t, amounts(first), amounts(second))
	require.Equal(t, first.Final.String(), second.Final.String())
	require.Equal(t, first.Checks, second.Checks)
}

func TestStackingConservation(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	brands := []string{"PUMA", "NIKE", "PREMIUM", "LOCAL"}
	categories := []string{"T-shirts", "Shoes", "Jeans"}
	tables := demoTables()
	tables.Vouchers["FLAT"] = discount.VoucherRule{Code: "FLAT", Kind: discount.VoucherFixed, Amount: amt("5000")}
	codes := []string{"", "SUPER69", "FLAT", "NOPE"}

	for _, stacking := range []bool{true, false} {
		e := newEngine(t, tables, stacking)
		for i := 0; i < 200; i++ {
			var items []discount.CartItem
			for n := rng.Intn(4); n >= 0; n-- {
				price := money.MustParse(strconv.Itoa(rng.Intn(500000)) + "." + strconv.Itoa(rng.Intn(100)))
				items = append(items, discount.CartItem{
					Product:  discount.NewProduct("S", brands[rng.Intn(len(brands))], discount.BrandTierRegular, categories[rng.Intn(len(categories))], price),
					Quantity: 1 + rng.Intn(5),
				})
			}
			res, err := e.Calculate(Request{
				Cart:        discount.NewCart(items...),
				VoucherCode: codes[rng.Intn(len(codes))],
				Payment:     &discount.PaymentInfo{Bank: "ICICI"},
			})
			require.NoError(t, err)
			require.True(t, res.Final.Equal(res.Original.Sub(res.TotalApplied())), "final must equal original minus applied")
			require.False(t, res.Final.IsNegative())
			require.True(t, res.Savings.Equal(res.Original.Sub(res.Final)))
			if !stacking {
				require.LessOrEqual(t, len(res.Applied), 1)
			}
		}
	}
}

func TestCalculateInputErrors(t *testing.T) {
	e := newEngine(t, demoTables(), true)
	cases := []struct {
		name  string
		req   Request
		field string
	}{
		{"nil cart", Request{}, "cart"},
		{"zero quantity", Request{Cart: discount.NewCart(discount.CartItem{Product: pumaCart().Items[0].Product})}, "items[0].quantity"},
		{"unknown tier", Request{Cart: pumaCart(), Customer: discount.CustomerProfile{Tier: discount.Tier(9)}}, "customer.tier"},
		{"unknown card", Request{Cart: pumaCart(), Payment: &discount.PaymentInfo{Bank: "ICICI", CardType: "amex"}}, "payment.cardType"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := e.Calculate(tc.req)
			require.ErrorIs(t, err, discount.ErrInvalidInput)
			var ie *discount.InputError
			require.ErrorAs(t, err, &ie)
			require.Equal(t, tc.field, ie.Field)
		})
	}
}

func TestNewRejectsMalformedTables(t *testing.T) {
	_, err := New(discount.Tables{Brands: map[string]money.Percent{"X": pct("101")}}, Options{})
	require.ErrorIs(t, err, ErrInvalidRules)
}

func TestValidateVoucher(t *testing.T) {
	e := newEngine(t, discount.Tables{Vouchers: map[string]discount.VoucherRule{
		"GOLD50": {Code: "GOLD50", Percent: pct("50"), MinCartValue: amt("1000"), MinTier: func() *discount.Tier { g := discount.TierGold; return &g }()},
	}}, true)

	v, err := e.ValidateVoucher("gold50", pumaCart(), discount.CustomerProfile{Tier: discount.TierPlatinum})
	require.NoError(t, err)
	require.True(t, v.Valid)

	v, err = e.ValidateVoucher("GOLD50", pumaCart(), discount.CustomerProfile{Tier: discount.TierRegular})
	require.NoError(t, err)
	require.False(t, v.Valid)
	require.Equal(t, []string{"voucher GOLD50 requires gold membership (current: regular)"}, v.Reasons)

	for _, code := range []string{"", "   ", "\t"} {
		_, err = e.ValidateVoucher(code, pumaCart(), discount.CustomerProfile{})
		require.ErrorIs(t, err, discount.ErrInvalidInput, "code %q", code)
	}

	v, err = e.ValidateVoucher("  gold50 ", pumaCart(), discount.CustomerProfile{Tier: discount.TierGold})
	require.NoError(t, err)
	require.True(t, v.Valid)
}

type countingRecorder struct {
	applied map[string]int
	failed  map[string]int
}

func (c *countingRecorder) DiscountApplied(kind string)   { c.applied[kind]++ }
func (c *countingRecorder) EligibilityFailed(kind string) { c.failed[kind]++ }

func TestResultMessage(t *testing.T) {
	stacking := newEngine(t, demoTables(), true)
	res, err := stacking.Calculate(Request{Cart: pumaCart(), VoucherCode: "NOPE", Payment: &discount.PaymentInfo{Bank: "ICICI"}})
	require.NoError(t, err)
	require.Equal(t,
		`Brand Discount: 400.00 | Category Discount: 60.00 | Voucher (NOPE) not applied: voucher code "NOPE" is invalid | Bank Offer (ICICI): 54.00`,
		res.Message())

	best := newEngine(t, demoTables(), false)
	res, err = best.Calculate(Request{Cart: pumaCart(), VoucherCode: "SUPER69"})
	require.NoError(t, err)
	require.Equal(t, "Best discount applied: Voucher (SUPER69) - 690.00", res.Message())

	empty, err := stacking.Calculate(Request{Cart: discount.NewCart()})
	require.NoError(t, err)
	require.Equal(t, "No discounts applied", empty.Message())

	none, err := best.Calculate(Request{Cart: discount.NewCart()})
	require.NoError(t, err)
	require.Equal(t, "No discounts applied", none.Message())
}

func TestRecorderReceivesOutcomes(t *testing.T) {
	rec := &countingRecorder{applied: map[string]int{}, failed: map[string]int{}}
	e, err := New(demoTables(), Options{Stacking: true, Recorder: rec})
	require.NoError(t, err)
	_, err = e.Calculate(Request{Cart: pumaCart(), VoucherCode: "NOPE", Payment: &discount.PaymentInfo{Bank: "ICICI"}})
	require.NoError(t, err)
	require.Equal(t, map[string]int{"brand": 1, "category": 1, "bank": 1}, rec.applied)
	require.Equal(t, map[string]int{"voucher": 1}, rec.failed)
}
