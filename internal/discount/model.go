// Package discount holds the cart model, rule tables and the four discount evaluators.
package discount

import (
	"fmt"
	"strings"

	"github.com/noah-isme/toko-discount/internal/money"
)

// BrandTier classifies brands for voucher eligibility.
type BrandTier string

const (
	BrandTierPremium BrandTier = "premium"
	BrandTierRegular BrandTier = "regular"
	BrandTierBudget  BrandTier = "budget"
)

// Tier is the customer loyalty tier. Tiers are ordered: Regular < Silver < Gold < Platinum.
type Tier int

const (
	TierRegular Tier = iota
	TierSilver
	TierGold
	TierPlatinum
)

var tierNames = map[Tier]string{
	TierRegular:  "regular",
	TierSilver:   "silver",
	TierGold:     "gold",
	TierPlatinum: "platinum",
}

// ParseTier converts a tier name. "new" is accepted as an alias of regular.
func ParseTier(value string) (Tier, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "regular", "new":
		return TierRegular, nil
	case "silver":
		return TierSilver, nil
	case "gold":
		return TierGold, nil
	case "platinum":
		return TierPlatinum, nil
	}
	return TierRegular, fmt.Errorf("unknown customer tier %q", value)
}

// Valid reports whether t is a known tier.
func (t Tier) Valid() bool {
	_, ok := tierNames[t]
	return ok
}

func (t Tier) String() string {
	if name, ok := tierNames[t]; ok {
		return name
	}
	return fmt.Sprintf("tier(%d)", int(t))
}

// MarshalText encodes the tier by name.
func (t Tier) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("unknown customer tier %d", int(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText decodes a tier name.
func (t *Tier) UnmarshalText(text []byte) error {
	parsed, err := ParseTier(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// CardType identifies the payment card family.
type CardType string

const (
	CardAny    CardType = ""
	CardCredit CardType = "credit"
	CardDebit  CardType = "debit"
)

// ParseCardType normalises a card type; an empty value means any card.
func ParseCardType(value string) (CardType, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "":
		return CardAny, nil
	case "credit":
		return CardCredit, nil
	case "debit":
		return CardDebit, nil
	}
	return CardAny, fmt.Errorf("unknown card type %q", value)
}

// Product is a catalog entry. BasePrice never changes; CurrentPrice is reduced by the
// brand and category evaluators inside a request-scoped working copy.
type Product struct {
	SKU          string      `json:"sku"`
	Brand        string      `json:"brand"`
	BrandTier    BrandTier   `json:"brandTier,omitempty"`
	Category     string      `json:"category"`
	BasePrice    money.Money `json:"basePrice"`
	CurrentPrice money.Money `json:"currentPrice"`
}

// NewProduct builds a product whose current price starts at the base price.
func NewProduct(sku, brand string, tier BrandTier, category string, base money.Money) Product {
	return Product{SKU: sku, Brand: brand, BrandTier: tier, Category: category, BasePrice: base, CurrentPrice: base}
}

// CartItem is a product line with a quantity of at least one.
type CartItem struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// Subtotal returns CurrentPrice × Quantity.
func (i CartItem) Subtotal() money.Money {
	return i.Product.CurrentPrice.Mul(i.Quantity)
}

// Cart is an ordered list of items.
type Cart struct {
	Items []CartItem `json:"items"`
}

// NewCart builds a cart from the given items.
func NewCart(items ...CartItem) *Cart {
	return &Cart{Items: append([]CartItem(nil), items...)}
}

// Total sums item subtotals at current prices.
func (c *Cart) Total() money.Money {
	total := money.Zero()
	if c == nil {
		return total
	}
	for _, it := range c.Items {
		total = total.Add(it.Subtotal())
	}
	return total
}

// BaseTotal sums BasePrice × Quantity.
func (c *Cart) BaseTotal() money.Money {
	total := money.Zero()
	if c == nil {
		return total
	}
	for _, it := range c.Items {
		total = total.Add(it.Product.BasePrice.Mul(it.Quantity))
	}
	return total
}

// Clone returns an independent copy. Products are plain values so copying the
// item slice is a full structural copy.
func (c *Cart) Clone() *Cart {
	if c == nil {
		return nil
	}
	items := make([]CartItem, len(c.Items))
	copy(items, c.Items)
	return &Cart{Items: items}
}

// ResetPrices sets every item's current price back to its base price.
func (c *Cart) ResetPrices() {
	for i := range c.Items {
		c.Items[i].Product.CurrentPrice = c.Items[i].Product.BasePrice
	}
}

// Validate reports the first malformed field of the cart.
func (c *Cart) Validate() error {
	if c == nil {
		return NewInputError("cart", "is required", nil)
	}
	for i, it := range c.Items {
		field := fmt.Sprintf("items[%d]", i)
		if it.Quantity < 1 {
			return NewInputError(field+".quantity", "must be at least 1", it.Quantity)
		}
		if it.Product.BasePrice.IsNegative() {
			return NewInputError(field+".basePrice", "must be non-negative", it.Product.BasePrice.String())
		}
		if it.Product.CurrentPrice.IsNegative() {
			return NewInputError(field+".currentPrice", "must be non-negative", it.Product.CurrentPrice.String())
		}
		if it.Product.CurrentPrice.GreaterThan(it.Product.BasePrice) {
			return NewInputError(field+".currentPrice", "must not exceed base price", it.Product.CurrentPrice.String())
		}
	}
	return nil
}

// CustomerProfile carries the data used for voucher tier eligibility.
type CustomerProfile struct {
	ID             string      `json:"id"`
	Tier           Tier        `json:"tier"`
	TotalPurchases money.Money `json:"totalPurchases"`
}

// PaymentInfo describes the selected payment method.
type PaymentInfo struct {
	Bank     string   `json:"bank"`
	CardType CardType `json:"cardType,omitempty"`
}
