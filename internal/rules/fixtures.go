package rules

import (
	"github.com/noah-isme/toko-discount/internal/discount"
	"github.com/noah-isme/toko-discount/internal/money"
)

func pct(v string) money.Percent { return money.MustPercent(v) }

func amount(v string) *money.Money {
	m := money.MustParse(v)
	return &m
}

func tier(t discount.Tier) *discount.Tier { return &t }

// Fixtures returns the demo rule tables.
func Fixtures() discount.Tables {
	return discount.Tables{
		Brands: map[string]money.Percent{
			"PUMA":   pct("40"),
			"NIKE":   pct("30"),
			"ADIDAS": pct("35"),
		},
		Categories: map[string]money.Percent{
			"T-shirts": pct("10"),
			"Shoes":    pct("15"),
			"Jeans":    pct("20"),
		},
		Vouchers: map[string]discount.VoucherRule{
			"SUPER69": {
				Code:               "SUPER69",
				Percent:            pct("69"),
				MinCartValue:       amount("100"),
				ExcludedBrandTiers: []discount.BrandTier{discount.BrandTierPremium},
				Description:        "69% off, not valid for premium brands",
			},
			"NEWUSER20": {
				Code:         "NEWUSER20",
				Percent:      pct("20"),
				MinCartValue: amount("500"),
				MinTier:      tier(discount.TierRegular),
				Description:  "20% off for every member",
			},
			"TSHIRT15": {
				Code:              "TSHIRT15",
				Percent:           pct("15"),
				AllowedCategories: []string{"T-shirts"},
				Description:       "15% off T-shirts",
			},
			"GOLD50": {
				Code:           "GOLD50",
				Percent:        pct("50"),
				MinCartValue:   amount("1000"),
				ExcludedBrands: []string{"PUMA", "NIKE"},
				MinTier:        tier(discount.TierGold),
				Description:    "50% off for gold members",
			},
		},
		BankOffers: map[string]discount.BankOfferRule{
			"ICICI": {Bank: "ICICI", Percent: pct("10"), MinTransactionValue: amount("100")},
			"HDFC":  {Bank: "HDFC", CardType: discount.CardCredit, Percent: pct("15"), MinTransactionValue: amount("500")},
			"SBI":   {Bank: "SBI", Percent: pct("5")},
		},
	}
}

// Catalog indexes the demo products by SKU.
func Catalog() map[string]discount.Product {
	products := []discount.Product{
		discount.NewProduct("P001", "PUMA", discount.BrandTierRegular, "T-shirts", money.FromInt(1000)),
		discount.NewProduct("P002", "NIKE", discount.BrandTierPremium, "Shoes", money.FromInt(5000)),
		discount.NewProduct("P003", "ADIDAS", discount.BrandTierRegular, "Jeans", money.FromInt(2500)),
		discount.NewProduct("P004", "LOCAL_BRAND", discount.BrandTierBudget, "T-shirts", money.FromInt(500)),
		discount.NewProduct("P005", "GUCCI", discount.BrandTierPremium, "Jackets", money.FromInt(15000)),
	}
	out := make(map[string]discount.Product, len(products))
	for _, p := range products {
		out[p.SKU] = p
	}
	return out
}

// Customers indexes the demo customer profiles by ID.
func Customers() map[string]discount.CustomerProfile {
	return map[string]discount.CustomerProfile{
		"C001": {ID: "C001", Tier: discount.TierRegular, TotalPurchases: money.Zero()},
		"C002": {ID: "C002", Tier: discount.TierSilver, TotalPurchases: money.FromInt(5000)},
		"C003": {ID: "C003", Tier: discount.TierGold, TotalPurchases: money.FromInt(25000)},
		"C004": {ID: "C004", Tier: discount.TierPlatinum, TotalPurchases: money.FromInt(100000)},
	}
}
