package discount

import (
	"fmt"
	"strings"

	"github.com/noah-isme/toko-discount/internal/money"
)

// VoucherKind selects how a voucher amount is computed.
type VoucherKind string

const (
	VoucherPercent VoucherKind = "percent"
	VoucherFixed   VoucherKind = "fixed"
)

// VoucherRule captures the constraints of a voucher code. Optional limits are nil
// when not configured.
type VoucherRule struct {
	Code               string        `json:"code"`
	Kind               VoucherKind   `json:"kind,omitempty"`
	Percent            money.Percent `json:"percent"`
	Amount             *money.Money  `json:"amount,omitempty"`
	MaxDiscount        *money.Money  `json:"maxDiscount,omitempty"`
	MinCartValue       *money.Money  `json:"minCartValue,omitempty"`
	ExcludedBrands     []string      `json:"excludedBrands,omitempty"`
	ExcludedBrandTiers []BrandTier   `json:"excludedBrandTiers,omitempty"`
	AllowedCategories  []string      `json:"allowedCategories,omitempty"`
	MinTier            *Tier         `json:"minTier,omitempty"`
	Description        string        `json:"description,omitempty"`
}

func (r VoucherRule) kind() VoucherKind {
	if r.Kind == "" {
		return VoucherPercent
	}
	return r.Kind
}

// BankOfferRule describes an instant discount for a bank's cards. An empty
// CardType accepts any card.
type BankOfferRule struct {
	Bank                string        `json:"bank"`
	CardType            CardType      `json:"cardType,omitempty"`
	Percent             money.Percent `json:"percent"`
	MinTransactionValue *money.Money  `json:"minTransactionValue,omitempty"`
	MaxDiscount         *money.Money  `json:"maxDiscount,omitempty"`
	Description         string        `json:"description,omitempty"`
}

// Tables bundles the four rule tables. Tables are shared across requests and must
// be treated as read-only.
type Tables struct {
	Brands     map[string]money.Percent `json:"brands"`
	Categories map[string]money.Percent `json:"categories"`
	Vouchers   map[string]VoucherRule   `json:"vouchers"`
	BankOffers map[string]BankOfferRule `json:"bankOffers"`
}

// Validate checks every rule for out-of-range or unknown values.
func (t Tables) Validate() error {
	for name, pct := range t.Brands {
		if !pct.Valid() {
			return fmt.Errorf("brand %q: percent %s out of range", name, pct)
		}
	}
	for name, pct := range t.Categories {
		if !pct.Valid() {
			return fmt.Errorf("category %q: percent %s out of range", name, pct)
		}
	}
	for code, v := range t.Vouchers {
		if strings.TrimSpace(v.Code) == "" {
			return fmt.Errorf("voucher %q: code is required", code)
		}
		switch v.kind() {
		case VoucherPercent:
			if !v.Percent.Valid() {
				return fmt.Errorf("voucher %q: percent %s out of range", code, v.Percent)
			}
		case VoucherFixed:
			if v.Amount == nil || v.Amount.IsNegative() {
				return fmt.Errorf("voucher %q: fixed amount must be non-negative", code)
			}
		default:
			return fmt.Errorf("voucher %q: unknown kind %q", code, v.Kind)
		}
		if err := nonNegative(v.MaxDiscount, v.MinCartValue); err != nil {
			return fmt.Errorf("voucher %q: %w", code, err)
		}
		if v.MinTier != nil && !v.MinTier.Valid() {
			return fmt.Errorf("voucher %q: unknown minimum tier", code)
		}
	}
	for bank, b := range t.BankOffers {
		if strings.TrimSpace(b.Bank) == "" {
			return fmt.Errorf("bank offer %q: bank is required", bank)
		}
		if !b.Percent.Valid() {
			return fmt.Errorf("bank offer %q: percent %s out of range", bank, b.Percent)
		}
		switch b.CardType {
		case CardAny, CardCredit, CardDebit:
		default:
			return fmt.Errorf("bank offer %q: unknown card type %q", bank, b.CardType)
		}
		if err := nonNegative(b.MaxDiscount, b.MinTransactionValue); err != nil {
			return fmt.Errorf("bank offer %q: %w", bank, err)
		}
	}
	return nil
}

func nonNegative(values ...*money.Money) error {
	for _, v := range values {
		if v != nil && v.IsNegative() {
			return fmt.Errorf("amount %s must be non-negative", v)
		}
	}
	return nil
}
