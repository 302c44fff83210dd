// Package cli provides the discountctl command line tool.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/noah-isme/toko-discount/internal/discount"
	"github.com/noah-isme/toko-discount/internal/obs"
	"github.com/noah-isme/toko-discount/internal/pricing"
	"github.com/noah-isme/toko-discount/internal/rules"
)

const (
	outputText = "text"
	outputJSON = "json"
)

// app carries the state shared by subcommands once the root pre-run resolved
// flags and environment.
type app struct {
	v      *viper.Viper
	logger zerolog.Logger
	tables discount.Tables
}

// NewRootCommand builds the discountctl command tree. Flags can also be set
// through DISCOUNTCTL_* environment variables.
func NewRootCommand() *cobra.Command {
	a := &app{v: viper.New(), logger: zerolog.Nop()}

	root := &cobra.Command{
		Use:           "discountctl",
		Short:         "Price carts against brand, category, voucher and bank discount rules",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd.ErrOrStderr())
		},
	}

	flags := root.PersistentFlags()
	flags.String("rules", "", "rule document (JSON); empty uses the built-in fixtures")
	flags.String("log-level", "warn", "log level")
	flags.String("output", outputText, "output format: text|json")
	flags.Bool("best", false, "apply only the single best discount instead of stacking")
	for _, name := range []string{"rules", "log-level", "output", "best"} {
		_ = a.v.BindPFlag(name, flags.Lookup(name))
	}
	a.v.SetEnvPrefix("DISCOUNTCTL")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	root.AddCommand(a.quoteCommand(), a.validateVoucherCommand(), a.rulesCommand(), a.demoCommand())
	return root
}

// Execute runs the command tree with os.Args.
func Execute() error {
	return NewRootCommand().Execute()
}

func (a *app) init(stderr io.Writer) error {
	a.logger = obs.NewLoggerTo(stderr, "console", a.v.GetString("log-level"))
	switch a.output() {
	case outputText, outputJSON:
	default:
		return fmt.Errorf("unknown output format %q", a.v.GetString("output"))
	}
	path := strings.TrimSpace(a.v.GetString("rules"))
	if path == "" {
		a.tables = rules.Fixtures()
		return nil
	}
	tables, err := rules.LoadFile(path)
	if err != nil {
		return err
	}
	a.logger.Debug().Str("path", path).Msg("rules loaded")
	a.tables = tables
	return nil
}

func (a *app) output() string {
	return strings.ToLower(strings.TrimSpace(a.v.GetString("output")))
}

func (a *app) engine(stacking bool) (*pricing.Engine, error) {
	return pricing.New(a.tables, pricing.Options{Stacking: stacking, Logger: &a.logger})
}

type cartFlags struct {
	cartFile string
	items    []string
	customer string
	tier     string
}

func (f *cartFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.cartFile, "cart", "", "cart JSON file ({\"items\": [...]})")
	cmd.Flags().StringArrayVar(&f.items, "item", nil, "catalog item as SKU[:QTY], repeatable")
	cmd.Flags().StringVar(&f.customer, "customer", "", "fixture customer ID (C001..C004)")
	cmd.Flags().StringVar(&f.tier, "tier", "", "customer tier: regular|silver|gold|platinum")
}

func (f *cartFlags) cart() (*discount.Cart, error) {
	cart := &discount.Cart{}
	if f.cartFile != "" {
		raw, err := os.ReadFile(f.cartFile)
		if err != nil {
			return nil, fmt.Errorf("read cart: %w", err)
		}
		if err := json.Unmarshal(raw, cart); err != nil {
			return nil, fmt.Errorf("decode cart %s: %w", f.cartFile, err)
		}
	}
	catalog := rules.Catalog()
	for _, item := range f.items {
		sku, qtyText, hasQty := strings.Cut(strings.TrimSpace(item), ":")
		qty := 1
		if hasQty {
			n, err := strconv.Atoi(qtyText)
			if err != nil {
				return nil, fmt.Errorf("item %q: quantity %q is not a number", item, qtyText)
			}
			qty = n
		}
		product, ok := catalog[strings.ToUpper(sku)]
		if !ok {
			return nil, fmt.Errorf("item %q: unknown sku %s", item, sku)
		}
		cart.Items = append(cart.Items, discount.CartItem{Product: product, Quantity: qty})
	}
	if f.cartFile == "" && len(f.items) == 0 {
		return nil, errors.New("no cart: pass --item or --cart")
	}
	return cart, nil
}

func (f *cartFlags) profile() (discount.CustomerProfile, error) {
	var profile discount.CustomerProfile
	if f.customer != "" {
		p, ok := rules.Customers()[strings.ToUpper(f.customer)]
		if !ok {
			return profile, fmt.Errorf("unknown customer %s", f.customer)
		}
		profile = p
	}
	if f.tier != "" {
		tier, err := discount.ParseTier(f.tier)
		if err != nil {
			return profile, err
		}
		profile.Tier = tier
	}
	return profile, nil
}

func (a *app) quoteCommand() *cobra.Command {
	var (
		cf      cartFlags
		voucher string
		bank    string
		card    string
	)
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Price a cart",
		Example: "  discountctl quote --item P001 --bank ICICI\n" +
			"  discountctl quote --cart cart.json --voucher SUPER69 --best --output json",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cart, err := cf.cart()
			if err != nil {
				return err
			}
			customer, err := cf.profile()
			if err != nil {
				return err
			}
			req := pricing.Request{Cart: cart, VoucherCode: voucher, Customer: customer}
			if bank != "" {
				cardType, err := discount.ParseCardType(card)
				if err != nil {
					return err
				}
				req.Payment = &discount.PaymentInfo{Bank: bank, CardType: cardType}
			}
			engine, err := a.engine(!a.v.GetBool("best"))
			if err != nil {
				return err
			}
			result, err := engine.Calculate(req)
			if err != nil {
				return err
			}
			if a.output() == outputJSON {
				return writeJSON(cmd.OutOrStdout(), result)
			}
			printResult(cmd.OutOrStdout(), result)
			return nil
		},
	}
	cf.register(cmd)
	cmd.Flags().StringVar(&voucher, "voucher", "", "voucher code")
	cmd.Flags().StringVar(&bank, "bank", "", "bank of the payment card")
	cmd.Flags().StringVar(&card, "card", "", "card type: credit|debit")
	return cmd
}

func (a *app) validateVoucherCommand() *cobra.Command {
	var cf cartFlags
	cmd := &cobra.Command{
		Use:   "validate-voucher CODE",
		Short: "Check whether a voucher code applies to a cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cart, err := cf.cart()
			if err != nil {
				return err
			}
			customer, err := cf.profile()
			if err != nil {
				return err
			}
			engine, err := a.engine(true)
			if err != nil {
				return err
			}
			code := strings.ToUpper(strings.TrimSpace(args[0]))
			verdict, err := engine.ValidateVoucher(code, cart, customer)
			if err != nil {
				return err
			}
			if a.output() == outputJSON {
				return writeJSON(cmd.OutOrStdout(), struct {
					Code string `json:"code"`
					discount.Verdict
				}{code, verdict})
			}
			printVerdict(cmd.OutOrStdout(), code, verdict)
			return nil
		},
	}
	cf.register(cmd)
	return cmd
}

func (a *app) rulesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "Print the active rule document as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return rules.Encode(cmd.OutOrStdout(), a.tables)
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
