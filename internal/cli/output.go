package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/noah-isme/toko-discount/internal/discount"
	"github.com/noah-isme/toko-discount/internal/pricing"
)

func printResult(w io.Writer, r pricing.PricedResult) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Mode:\t%s\n", r.Mode)
	fmt.Fprintf(tw, "Original Price:\t%s\n", r.Original)
	fmt.Fprintf(tw, "Final Price:\t%s\n", r.Final)
	fmt.Fprintf(tw, "Total Savings:\t%s\n", r.Savings)
	_ = tw.Flush()

	if len(r.Applied) == 0 {
		fmt.Fprintln(w, "Applied Discounts: none")
	} else {
		fmt.Fprintln(w, "Applied Discounts:")
		for _, a := range r.Applied {
			fmt.Fprintf(w, "  - %s: %s\n", a.Label, a.Amount)
		}
	}
	for _, c := range r.Checks {
		if c.Verdict.Valid {
			continue
		}
		fmt.Fprintf(w, "Not applied: %s: %s\n", c.Label, c.Verdict.Message())
	}
	fmt.Fprintf(w, "Message: %s\n", r.Message())
}

func printVerdict(w io.Writer, code string, v discount.Verdict) {
	if v.Valid {
		fmt.Fprintf(w, "%s voucher valid: true\n", code)
		return
	}
	fmt.Fprintf(w, "%s voucher valid: false\n", code)
	for _, reason := range v.Reasons {
		fmt.Fprintf(w, "  - %s\n", reason)
	}
}
