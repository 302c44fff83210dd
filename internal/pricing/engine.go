// Package pricing combines the discount evaluators into a priced cart result.
package pricing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/noah-isme/toko-discount/internal/discount"
	"github.com/noah-isme/toko-discount/internal/money"
)

// ErrInvalidRules indicates malformed rule tables passed to New.
var ErrInvalidRules = errors.New("invalid discount rules")

// Mode names the combination policy.
type Mode string

const (
	ModeStacking Mode = "stacking"
	ModeBestOf   Mode = "best_of"
)

// Recorder receives per-evaluator outcomes. obs.DomainMetrics satisfies it.
type Recorder interface {
	DiscountApplied(kind string)
	EligibilityFailed(kind string)
}

type nopRecorder struct{}

func (nopRecorder) DiscountApplied(string)   {}
func (nopRecorder) EligibilityFailed(string) {}

// Options configures an Engine.
type Options struct {
	// Stacking applies every eligible discount in sequence. When false only the
	// single largest eligible discount is applied.
	Stacking bool
	Logger   *zerolog.Logger
	Recorder Recorder
}

// Request carries one calculation's inputs. Payment is optional.
type Request struct {
	Cart        *discount.Cart
	VoucherCode string
	Customer    discount.CustomerProfile
	Payment     *discount.PaymentInfo
}

// AppliedDiscount is a discount that reduced the price.
type AppliedDiscount struct {
	Kind   discount.Kind `json:"kind"`
	Label  string        `json:"label"`
	Amount money.Money   `json:"amount"`
}

// Check is the verdict of an evaluator that actually ran.
type Check struct {
	Kind    discount.Kind    `json:"kind"`
	Label   string           `json:"label"`
	Verdict discount.Verdict `json:"verdict"`
}

// PricedResult is the outcome of a calculation. Final always equals Original
// minus the sum of Applied amounts.
type PricedResult struct {
	Mode     Mode              `json:"mode"`
	Original money.Money       `json:"originalPrice"`
	Applied  []AppliedDiscount `json:"appliedDiscounts"`
	Final    money.Money       `json:"finalPrice"`
	Savings  money.Money       `json:"totalSavings"`
	Checks   []Check           `json:"checks"`
}

// TotalApplied sums the applied amounts.
func (r PricedResult) TotalApplied() money.Money {
	sum := money.Zero()
	for _, a := range r.Applied {
		sum = sum.Add(a.Amount)
	}
	return sum
}

// Message summarises the result for display. Stacking results list every
// applied amount and every rejected check in evaluation order; best-of results
// name the winning discount.
func (r PricedResult) Message() string {
	if len(r.Applied) == 0 && r.Mode == ModeBestOf {
		return "No discounts applied"
	}
	if r.Mode == ModeBestOf {
		return fmt.Sprintf("Best discount applied: %s - %s", r.Applied[0].Label, r.Applied[0].Amount)
	}
	applied := make(map[discount.Kind]AppliedDiscount, len(r.Applied))
	for _, a := range r.Applied {
		applied[a.Kind] = a
	}
	var parts []string
	for _, c := range r.Checks {
		if a, ok := applied[c.Kind]; ok {
			parts = append(parts, fmt.Sprintf("%s: %s", a.Label, a.Amount))
			continue
		}
		if !c.Verdict.Valid {
			parts = append(parts, fmt.Sprintf("%s not applied: %s", c.Label, c.Verdict.Message()))
		}
	}
	if len(parts) == 0 {
		return "No discounts applied"
	}
	return strings.Join(parts, " | ")
}

// Engine evaluates carts against a fixed set of rule tables. It holds no mutable
// state and is safe for concurrent use.
type Engine struct {
	mode       Mode
	tables     discount.Tables
	vouchers   *discount.VoucherEvaluator
	evaluators []discount.Evaluator
	log        zerolog.Logger
	rec        Recorder
}

// New validates tables and builds an engine.
func New(tables discount.Tables, opts Options) (*Engine, error) {
	if err := tables.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRules, err)
	}
	mode := ModeBestOf
	if opts.Stacking {
		mode = ModeStacking
	}
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = opts.Logger.With().Str("component", "pricing").Logger()
	}
	rec := opts.Recorder
	if rec == nil {
		rec = nopRecorder{}
	}
	vouchers := discount.NewVoucherEvaluator(tables.Vouchers)
	return &Engine{
		mode:     mode,
		tables:   tables,
		vouchers: vouchers,
		evaluators: []discount.Evaluator{
			discount.NewBrandEvaluator(tables.Brands),
			discount.NewCategoryEvaluator(tables.Categories),
			vouchers,
			discount.NewBankEvaluator(tables.BankOffers),
		},
		log: logger,
		rec: rec,
	}, nil
}

// Mode reports the engine's combination policy.
func (e *Engine) Mode() Mode { return e.mode }

// Tables returns the rule tables the engine was built from.
func (e *Engine) Tables() discount.Tables { return e.tables }

// Calculate prices the cart. Input errors are returned before any evaluator runs;
// ineligible discounts never produce an error.
func (e *Engine) Calculate(req Request) (PricedResult, error) {
	if err := validateRequest(req); err != nil {
		return PricedResult{}, err
	}

	cart := req.Cart.Clone()
	cart.ResetPrices()
	var payment *discount.PaymentInfo
	if req.Payment != nil {
		p := *req.Payment
		payment = &p
	}
	base := discount.Context{
		Customer:    req.Customer,
		Payment:     payment,
		VoucherCode: req.VoucherCode,
	}

	var result PricedResult
	if e.mode == ModeStacking {
		result = e.stack(cart, base)
	} else {
		result = e.bestOf(cart, base)
	}

	e.log.Debug().
		Str("mode", string(result.Mode)).
		Str("original", result.Original.String()).
		Str("final", result.Final.String()).
		Int("applied", len(result.Applied)).
		Msg("cart priced")
	return result, nil
}

func (e *Engine) stack(cart *discount.Cart, base discount.Context) PricedResult {
	original := cart.BaseTotal().Round()
	running := original
	ctx := base
	ctx.Cart = cart

	result := PricedResult{Mode: ModeStacking, Original: original, Applied: []AppliedDiscount{}, Checks: []Check{}}
	for _, ev := range e.evaluators {
		ctx.Running = running
		out := ev.Evaluate(&ctx)
		e.note(&result, out)
		if !out.Verdict.Valid {
			continue
		}
		amount := out.Amount.Round().Min(running)
		if !amount.GreaterThan(money.Zero()) {
			continue
		}
		result.Applied = append(result.Applied, AppliedDiscount{Kind: out.Kind, Label: out.Label, Amount: amount})
		e.rec.DiscountApplied(string(out.Kind))
		running = running.Sub(amount)
	}
	return finish(result, running)
}

func (e *Engine) bestOf(cart *discount.Cart, base discount.Context) PricedResult {
	original := cart.BaseTotal().Round()
	result := PricedResult{Mode: ModeBestOf, Original: original, Applied: []AppliedDiscount{}, Checks: []Check{}}

	var best *AppliedDiscount
	for _, ev := range e.evaluators {
		ctx := base
		ctx.Cart = cart.Clone()
		ctx.Running = original
		out := ev.Evaluate(&ctx)
		e.note(&result, out)
		if !out.Verdict.Valid {
			continue
		}
		amount := out.Amount.Round().Min(original)
		if !amount.GreaterThan(money.Zero()) {
			continue
		}
		// Strictly greater keeps the earlier evaluator on ties.
		if best == nil || amount.GreaterThan(best.Amount) {
			best = &AppliedDiscount{Kind: out.Kind, Label: out.Label, Amount: amount}
		}
	}

	running := original
	if best != nil {
		result.Applied = append(result.Applied, *best)
		e.rec.DiscountApplied(string(best.Kind))
		running = running.Sub(best.Amount)
	}
	return finish(result, running)
}

func (e *Engine) note(result *PricedResult, out discount.Outcome) {
	if out.Skipped {
		return
	}
	result.Checks = append(result.Checks, Check{Kind: out.Kind, Label: out.Label, Verdict: out.Verdict})
	if !out.Verdict.Valid {
		e.rec.EligibilityFailed(string(out.Kind))
	}
}

func finish(result PricedResult, final money.Money) PricedResult {
	result.Final = final
	result.Savings = result.Original.Sub(final)
	return result
}

// ValidateVoucher runs only the voucher checks against the un-discounted cart.
func (e *Engine) ValidateVoucher(code string, cart *discount.Cart, customer discount.CustomerProfile) (discount.Verdict, error) {
	if err := validateRequest(Request{Cart: cart, Customer: customer}); err != nil {
		return discount.Verdict{}, err
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return discount.Verdict{}, discount.NewInputError("code", "is required", nil)
	}
	working := cart.Clone()
	working.ResetPrices()
	out := e.vouchers.Evaluate(&discount.Context{
		Cart:        working,
		Customer:    customer,
		VoucherCode: code,
		Running:     working.BaseTotal().Round(),
	})
	return out.Verdict, nil
}

func validateRequest(req Request) error {
	if err := req.Cart.Validate(); err != nil {
		return err
	}
	if !req.Customer.Tier.Valid() {
		return discount.NewInputError("customer.tier", "is unknown", int(req.Customer.Tier))
	}
	if req.Customer.TotalPurchases.IsNegative() {
		return discount.NewInputError("customer.totalPurchases", "must be non-negative", req.Customer.TotalPurchases.String())
	}
	if req.Payment != nil {
		switch req.Payment.CardType {
		case discount.CardAny, discount.CardCredit, discount.CardDebit:
		default:
			return discount.NewInputError("payment.cardType", "is unknown", string(req.Payment.CardType))
		}
	}
	return nil
}
