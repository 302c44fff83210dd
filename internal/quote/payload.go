package quote

import (
	"strings"

	"github.com/noah-isme/toko-discount/internal/discount"
	"github.com/noah-isme/toko-discount/internal/money"
	"github.com/noah-isme/toko-discount/internal/pricing"
)

// productPayload carries no current price: every calculation starts from base
// prices.
type productPayload struct {
	SKU       string      `json:"sku" validate:"required,max=64"`
	Brand     string      `json:"brand" validate:"required,max=64"`
	BrandTier string      `json:"brandTier" validate:"omitempty,oneof=premium regular budget"`
	Category  string      `json:"category" validate:"required,max=64"`
	BasePrice money.Money `json:"basePrice"`
}

type itemPayload struct {
	Product  productPayload `json:"product"`
	Quantity int            `json:"quantity" validate:"gte=1,lte=1000"`
}

type customerPayload struct {
	ID             string       `json:"id" validate:"max=64"`
	Tier           string       `json:"tier" validate:"max=16"`
	TotalPurchases *money.Money `json:"totalPurchases,omitempty"`
}

type paymentPayload struct {
	Bank     string `json:"bank" validate:"required,max=32"`
	CardType string `json:"cardType" validate:"max=16"`
}

// QuoteRequest is the body of POST /api/v1/quotes.
type QuoteRequest struct {
	Items       []itemPayload   `json:"items" validate:"max=200,dive"`
	VoucherCode string          `json:"voucherCode" validate:"max=32"`
	Customer    customerPayload `json:"customer"`
	Payment     *paymentPayload `json:"payment,omitempty"`
}

// VoucherRequest is the body of POST /api/v1/vouchers/validate.
type VoucherRequest struct {
	Code     string          `json:"code" validate:"required,max=32"`
	Items    []itemPayload   `json:"items" validate:"max=200,dive"`
	Customer customerPayload `json:"customer"`
}

func toCart(items []itemPayload) *discount.Cart {
	cart := &discount.Cart{Items: make([]discount.CartItem, 0, len(items))}
	for _, it := range items {
		cart.Items = append(cart.Items, discount.CartItem{Product: discount.NewProduct(
			strings.TrimSpace(it.Product.SKU),
			strings.TrimSpace(it.Product.Brand),
			discount.BrandTier(strings.ToLower(it.Product.BrandTier)),
			strings.TrimSpace(it.Product.Category),
			it.Product.BasePrice,
		), Quantity: it.Quantity})
	}
	return cart
}

func (c customerPayload) profile() (discount.CustomerProfile, error) {
	tier, err := discount.ParseTier(c.Tier)
	if err != nil {
		return discount.CustomerProfile{}, discount.NewInputError("customer.tier", "is unknown", c.Tier)
	}
	profile := discount.CustomerProfile{ID: c.ID, Tier: tier, TotalPurchases: money.Zero()}
	if c.TotalPurchases != nil {
		profile.TotalPurchases = *c.TotalPurchases
	}
	return profile, nil
}

func (p *paymentPayload) info() (*discount.PaymentInfo, error) {
	if p == nil {
		return nil, nil
	}
	card, err := discount.ParseCardType(p.CardType)
	if err != nil {
		return nil, discount.NewInputError("payment.cardType", "is unknown", p.CardType)
	}
	return &discount.PaymentInfo{Bank: strings.TrimSpace(p.Bank), CardType: card}, nil
}

// toRequest converts a decoded body into an engine request.
func (q QuoteRequest) toRequest() (pricing.Request, error) {
	customer, err := q.Customer.profile()
	if err != nil {
		return pricing.Request{}, err
	}
	payment, err := q.Payment.info()
	if err != nil {
		return pricing.Request{}, err
	}
	return pricing.Request{
		Cart:        toCart(q.Items),
		VoucherCode: strings.TrimSpace(q.VoucherCode),
		Customer:    customer,
		Payment:     payment,
	}, nil
}
