package discount

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-discount/internal/money"
)

func pumaTee() Product {
	return NewProduct("P001", "PUMA", BrandTierRegular, "T-shirts", money.MustParse("1000"))
}

func ptr[T any](v T) *T { return &v }

func TestBrandEvaluatorReducesCurrentPrice(t *testing.T) {
	cart := NewCart(CartItem{Product: pumaTee(), Quantity: 2})
	e := NewBrandEvaluator(map[string]money.Percent{"PUMA": money.MustPercent("40")})

	out := e.Evaluate(&Context{Cart: cart})
	require.True(t, out.Verdict.Valid)
	require.Equal(t, KindBrand, out.Kind)
	require.Equal(t, "800.00", out.Amount.String())
	require.Equal(t, "600.00", cart.Items[0].Product.CurrentPrice.String())
	require.Equal(t, "1000.00", cart.Items[0].Product.BasePrice.String())
}

func TestBrandEvaluatorUnlistedBrandIsNoop(t *testing.T) {
	p := NewProduct("P004", "LOCAL_BRAND", BrandTierBudget, "T-shirts", money.MustParse("500"))
	cart := NewCart(CartItem{Product: p, Quantity: 1})
	e := NewBrandEvaluator(map[string]money.Percent{"PUMA": money.MustPercent("40")})

	out := e.Evaluate(&Context{Cart: cart})
	require.True(t, out.Verdict.Valid)
	require.Empty(t, out.Verdict.Reasons)
	require.True(t, out.Amount.IsZero())
	require.Equal(t, "500.00", cart.Items[0].Product.CurrentPrice.String())
}

func TestCategoryEvaluatorUsesBrandDiscountedPrice(t *testing.T) {
	cart := NewCart(CartItem{Product: pumaTee(), Quantity: 3})
	brand := NewBrandEvaluator(map[string]money.Percent{"puma": money.MustPercent("40")})
	category := NewCategoryEvaluator(map[string]money.Percent{"T-shirts": money.MustPercent("10")})

	ctx := &Context{Cart: cart}
	brand.Evaluate(ctx)
	out := category.Evaluate(ctx)
	require.Equal(t, "180.00", out.Amount.String())
	require.Equal(t, "540.00", cart.Items[0].Product.CurrentPrice.String())
}

func TestVoucherSkippedWithoutCode(t *testing.T) {
	e := NewVoucherEvaluator(map[string]VoucherRule{"SUPER69": {Code: "SUPER69", Percent: money.MustPercent("69")}})
	out := e.Evaluate(&Context{Cart: NewCart(), VoucherCode: "  "})
	require.True(t, out.Skipped)
	require.True(t, out.Verdict.Valid)
}

func TestVoucherUnknownCode(t *testing.T) {
	e := NewVoucherEvaluator(nil)
	out := e.Evaluate(&Context{Cart: NewCart(CartItem{Product: pumaTee(), Quantity: 1}), VoucherCode: "NOPE", Running: money.FromInt(1000)})
	require.False(t, out.Verdict.Valid)
	require.Equal(t, []string{`voucher code "NOPE" is invalid`}, out.Verdict.Reasons)
	require.True(t, out.Amount.IsZero())
}

func TestVoucherCollectsEveryFailure(t *testing.T) {
	rule := VoucherRule{
		Code:               "GOLD50",
		Percent:            money.MustPercent("50"),
		MinCartValue:       ptr(money.MustParse("1000")),
		ExcludedBrands:     []string{"PUMA", "NIKE"},
		ExcludedBrandTiers: []BrandTier{BrandTierPremium},
		AllowedCategories:  []string{"Jeans"},
		MinTier:            ptr(TierGold),
	}
	nike := NewProduct("P002", "NIKE", BrandTierPremium, "Shoes", money.MustParse("300"))
	cart := NewCart(CartItem{Product: nike, Quantity: 1}, CartItem{Product: pumaTee(), Quantity: 1})

	e := NewVoucherEvaluator(map[string]VoucherRule{"GOLD50": rule})
	out := e.Evaluate(&Context{
		Cart:        cart,
		Customer:    CustomerProfile{ID: "C1", Tier: TierSilver},
		VoucherCode: "gold50",
		Running:     money.MustParse("900"),
	})

	require.False(t, out.Verdict.Valid)
	require.Equal(t, "Voucher (GOLD50)", out.Label)
	require.Equal(t, []string{
		"voucher GOLD50 is not valid for brands: NIKE, PUMA",
		"voucher GOLD50 is not valid for premium brand products",
		"voucher GOLD50 is only valid for categories: Jeans",
		"minimum cart value of 1000.00 not met (current: 900.00)",
		"voucher GOLD50 requires gold membership (current: silver)",
	}, out.Verdict.Reasons)
	require.True(t, out.Amount.IsZero())
}

func TestVoucherComputePercentAndFixed(t *testing.T) {
	percent := VoucherRule{Code: "TSHIRT15", Percent: money.MustPercent("15"), AllowedCategories: []string{"t-shirts"}}
	e := NewVoucherEvaluator(map[string]VoucherRule{"x": percent})
	out := e.Evaluate(&Context{Cart: NewCart(CartItem{Product: pumaTee(), Quantity: 1}), VoucherCode: "TSHIRT15", Running: money.MustParse("540")})
	require.True(t, out.Verdict.Valid, out.Verdict.Message())
	require.Equal(t, "81.00", out.Amount.String())

	fixed := VoucherRule{Code: "FLAT200", Kind: VoucherFixed, Amount: ptr(money.FromInt(200))}
	require.Equal(t, "200.00", fixed.Compute(money.FromInt(540)).String())
	require.Equal(t, "150.00", fixed.Compute(money.FromInt(150)).String())

	capped := VoucherRule{Code: "CAP", Percent: money.MustPercent("50"), MaxDiscount: ptr(money.FromInt(100))}
	require.Equal(t, "100.00", capped.Compute(money.FromInt(540)).String())
}

func TestBankSkippedWithoutPayment(t *testing.T) {
	e := NewBankEvaluator(map[string]BankOfferRule{"ICICI": {Bank: "ICICI", Percent: money.MustPercent("10")}})
	out := e.Evaluate(&Context{Cart: NewCart(), Running: money.FromInt(100)})
	require.True(t, out.Skipped)
	out = e.Evaluate(&Context{Cart: NewCart(), Payment: &PaymentInfo{}, Running: money.FromInt(100)})
	require.True(t, out.Skipped)
}

func TestBankOfferValidation(t *testing.T) {
	offers := map[string]BankOfferRule{
		"ICICI": {Bank: "ICICI", Percent: money.MustPercent("10"), MinTransactionValue: ptr(money.FromInt(100))},
		"HDFC":  {Bank: "HDFC", CardType: CardCredit, Percent: money.MustPercent("15"), MinTransactionValue: ptr(money.FromInt(500))},
	}
	e := NewBankEvaluator(offers)

	t.Run("any card", func(t *testing.T) {
		out := e.Evaluate(&Context{Payment: &PaymentInfo{Bank: "icici", CardType: CardDebit}, Running: money.FromInt(540)})
		require.True(t, out.Verdict.Valid)
		require.Equal(t, "Bank Offer (ICICI)", out.Label)
		require.Equal(t, "54.00", out.Amount.String())
	})

	t.Run("card mismatch and minimum collected", func(t *testing.T) {
		out := e.Evaluate(&Context{Payment: &PaymentInfo{Bank: "HDFC", CardType: CardDebit}, Running: money.FromInt(400)})
		require.False(t, out.Verdict.Valid)
		require.Equal(t, []string{
			"HDFC offer requires credit card (provided: debit)",
			"minimum transaction value of 500.00 not met (current: 400.00)",
		}, out.Verdict.Reasons)
		require.True(t, out.Amount.IsZero())
	})

	t.Run("unknown bank", func(t *testing.T) {
		out := e.Evaluate(&Context{Payment: &PaymentInfo{Bank: "AXIS"}, Running: money.FromInt(400)})
		require.False(t, out.Verdict.Valid)
		require.Equal(t, []string{"no offers available for AXIS"}, out.Verdict.Reasons)
	})
}

func TestVerdictMerge(t *testing.T) {
	require.True(t, Merge(Pass(), Pass()).Valid)
	merged := Merge(Pass(), Fail("a"), Fail("b", "c"))
	require.False(t, merged.Valid)
	require.Equal(t, []string{"a", "b", "c"}, merged.Reasons)
	require.Equal(t, "a; b; c", merged.Message())
	require.Equal(t, []string{"not eligible"}, Fail().Reasons)
}

func TestCartCloneIsIndependent(t *testing.T) {
	original := NewCart(CartItem{Product: pumaTee(), Quantity: 1})
	clone := original.Clone()
	clone.Items[0].Product.CurrentPrice = money.FromInt(1)
	clone.Items[0].Quantity = 9
	require.Equal(t, "1000.00", original.Items[0].Product.CurrentPrice.String())
	require.Equal(t, 1, original.Items[0].Quantity)
}

func TestCartValidate(t *testing.T) {
	cases := []struct {
		name  string
		cart  *Cart
		field string
	}{
		{"nil cart", nil, "cart"},
		{"zero quantity", NewCart(CartItem{Product: pumaTee(), Quantity: 0}), "items[0].quantity"},
		{"negative quantity", NewCart(CartItem{Product: pumaTee(), Quantity: -2}), "items[0].quantity"},
		{"current above base", NewCart(CartItem{Product: Product{BasePrice: money.FromInt(10), CurrentPrice: money.FromInt(11)}, Quantity: 1}), "items[0].currentPrice"},
		{"negative base", NewCart(CartItem{Product: Product{BasePrice: money.MustParse("-1")}, Quantity: 1}), "items[0].basePrice"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cart.Validate()
			require.Error(t, err)
			require.ErrorIs(t, err, ErrInvalidInput)
			var ie *InputError
			require.ErrorAs(t, err, &ie)
			require.Equal(t, tc.field, ie.Field)
		})
	}
	require.NoError(t, NewCart().Validate())
}

func TestTablesValidate(t *testing.T) {
	require.NoError(t, Tables{}.Validate())
	require.Error(t, Tables{Brands: map[string]money.Percent{"X": money.MustPercent("120")}}.Validate())
	require.Error(t, Tables{Vouchers: map[string]VoucherRule{"F": {Code: "F", Kind: VoucherFixed}}}.Validate())
	require.Error(t, Tables{Vouchers: map[string]VoucherRule{"F": {Code: "F", Kind: "bogo"}}}.Validate())
	require.Error(t, Tables{BankOffers: map[string]BankOfferRule{"B": {Bank: "B", CardType: "amex"}}}.Validate())
}

func TestParseTier(t *testing.T) {
	tier, err := ParseTier("NEW")
	require.NoError(t, err)
	require.Equal(t, TierRegular, tier)
	tier, err = ParseTier("Platinum")
	require.NoError(t, err)
	require.Equal(t, TierPlatinum, tier)
	require.True(t, TierGold > TierSilver)
	_, err = ParseTier("diamond")
	require.Error(t, err)
}
