package discount

import (
	"fmt"
	"strings"

	"github.com/noah-isme/toko-discount/internal/money"
)

// BankEvaluator applies instant bank-card offers on the price left after every
// other discount.
type BankEvaluator struct {
	offers map[string]BankOfferRule
}

var _ Evaluator = (*BankEvaluator)(nil)

// NewBankEvaluator indexes offers by upper-cased bank identifier.
func NewBankEvaluator(offers map[string]BankOfferRule) *BankEvaluator {
	idx := make(map[string]BankOfferRule, len(offers))
	for bank, o := range offers {
		if strings.TrimSpace(o.Bank) == "" {
			o.Bank = bank
		}
		idx[codeKey(o.Bank)] = o
	}
	return &BankEvaluator{offers: idx}
}

// Kind implements Evaluator.
func (e *BankEvaluator) Kind() Kind { return KindBank }

// Evaluate is skipped when no payment method was selected.
func (e *BankEvaluator) Evaluate(ctx *Context) Outcome {
	if ctx.Payment == nil || strings.TrimSpace(ctx.Payment.Bank) == "" {
		return skipped(KindBank, "Bank Offer")
	}
	bank := strings.TrimSpace(ctx.Payment.Bank)
	offer, ok := e.offers[codeKey(bank)]
	if !ok {
		return rejected(KindBank, fmt.Sprintf("Bank Offer (%s)", bank), []string{fmt.Sprintf("no offers available for %s", bank)})
	}
	label := fmt.Sprintf("Bank Offer (%s)", offer.Bank)

	verdict := offer.Check(*ctx.Payment, ctx.Running)
	if !verdict.Valid {
		return Outcome{Kind: KindBank, Label: label, Verdict: verdict, Amount: money.Zero()}
	}
	return Outcome{Kind: KindBank, Label: label, Verdict: verdict, Amount: offer.Compute(ctx.Running)}
}

// Check validates the card type and minimum transaction value, collecting every failure.
func (o BankOfferRule) Check(payment PaymentInfo, total money.Money) Verdict {
	var reasons []string
	if o.CardType != CardAny && payment.CardType != o.CardType {
		provided := string(payment.CardType)
		if provided == "" {
			provided = "none"
		}
		reasons = append(reasons, fmt.Sprintf("%s offer requires %s card (provided: %s)", o.Bank, o.CardType, provided))
	}
	if o.MinTransactionValue != nil && total.LessThan(*o.MinTransactionValue) {
		reasons = append(reasons, fmt.Sprintf("minimum transaction value of %s not met (current: %s)", o.MinTransactionValue, total))
	}
	return verdictOf(reasons)
}

// Compute returns the offer amount for total, capped by MaxDiscount and total.
func (o BankOfferRule) Compute(total money.Money) money.Money {
	amount := total.Percent(o.Percent)
	if o.MaxDiscount != nil {
		amount = amount.Min(*o.MaxDiscount)
	}
	return amount.Min(total)
}
