package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/noah-isme/toko-discount/internal/discount"
	"github.com/noah-isme/toko-discount/internal/pricing"
	"github.com/noah-isme/toko-discount/internal/rules"
)

var rule = strings.Repeat("=", 70)

func (a *app) demoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Walk through the PUMA T-shirt scenarios on the active rules",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runDemo(cmd.OutOrStdout())
		},
	}
}

type scenario struct {
	title   string
	voucher string
	payment *discount.PaymentInfo
}

func (a *app) runDemo(w io.Writer) error {
	stacking, err := a.engine(true)
	if err != nil {
		return err
	}
	best, err := a.engine(false)
	if err != nil {
		return err
	}
	customer := rules.Customers()["C001"]
	icici := &discount.PaymentInfo{Bank: "ICICI", CardType: discount.CardAny}
	cart := func() *discount.Cart {
		return discount.NewCart(discount.CartItem{Product: rules.Catalog()["P001"], Quantity: 1})
	}
	run := func(e *pricing.Engine, s scenario) (pricing.PricedResult, error) {
		fmt.Fprintln(w, s.title)
		fmt.Fprintln(w, strings.Repeat("-", 70))
		res, err := e.Calculate(pricing.Request{Cart: cart(), VoucherCode: s.voucher, Customer: customer, Payment: s.payment})
		if err != nil {
			return res, err
		}
		printResult(w, res)
		fmt.Fprintln(w)
		return res, nil
	}

	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "DISCOUNT DEMONSTRATION")
	fmt.Fprintln(w, rule)
	fmt.Fprintln(w)

	if _, err := run(stacking, scenario{title: "SCENARIO 1: Brand + Category"}); err != nil {
		return err
	}
	withBank, err := run(stacking, scenario{title: "SCENARIO 2: Brand + Category + Bank Offer (ICICI)", payment: icici})
	if err != nil {
		return err
	}
	if _, err := run(stacking, scenario{title: "SCENARIO 3: Brand + Category + Voucher (TSHIRT15) + Bank", voucher: "TSHIRT15", payment: icici}); err != nil {
		return err
	}

	fmt.Fprintln(w, "SCENARIO 4: Voucher Validation")
	fmt.Fprintln(w, strings.Repeat("-", 70))
	for _, code := range []string{"TSHIRT15", "SUPER69", "INVALID123"} {
		verdict, err := stacking.ValidateVoucher(code, cart(), customer)
		if err != nil {
			return err
		}
		printVerdict(w, code, verdict)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, rule)
	fmt.Fprintln(w, "SCENARIO 5: Best Discount Only")
	fmt.Fprintln(w, rule)
	bestBank, err := run(best, scenario{title: "Brand vs Category vs Bank", payment: icici})
	if err != nil {
		return err
	}
	if _, err := run(best, scenario{title: "Brand vs SUPER69 Voucher", voucher: "SUPER69"}); err != nil {
		return err
	}

	fmt.Fprintln(w, "COMPARISON: Stacking vs Best Discount")
	fmt.Fprintln(w, strings.Repeat("-", 70))
	fmt.Fprintf(w, "Stacking (scenario 2):  %s (%d discounts)\n", withBank.Final, len(withBank.Applied))
	fmt.Fprintf(w, "Best only (scenario 5): %s (%d discount)\n", bestBank.Final, len(bestBank.Applied))
	return nil
}
