package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/meridian-wealth/renewal-cli/internal/model"
)

var bookCmd = &cobra.Command{
	Use:   "book",
	Short: "Review an advisor's book of business",
	Long:  "Fetches policies and notifications for a customer scope and annotates each policy with renewal, replacement, data-quality, and income-activation flags.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		customerID, _ := cmd.Flags().GetString("client-id")
		asJSON, _ := cmd.Flags().GetBool("json")

		e, err := newEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()
		if err := e.store.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		reviewer, err := e.bookReviewer()
		if err != nil {
			return err
		}

		book, err := reviewer.Review(ctx, customerID)
		if err != nil {
			return eris.Wrap(err, "book review")
		}

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(book)
		}

		formatBook(os.Stdout, book)
		return nil
	},
}

func formatBook(w *os.File, book *model.BookOfBusiness) {
	if len(book.Policies) == 0 {
		fmt.Fprintln(os.Stderr, "No policies found.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "POLICY\tCARRIER\tPRODUCT\tSTATUS\tRENEWAL\tFLAGS")
	for _, p := range book.Policies {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			p.Policy.PolicyNumber,
			p.Policy.Carrier,
			p.Policy.ProductName,
			p.Policy.Status,
			deref(p.RenewalDate),
			policyFlags(p),
		)
	}
	tw.Flush() //nolint:errcheck

	for _, p := range book.Policies {
		if p.ScheduleMeeting && p.ScheduleMeetingReason != nil {
			fmt.Fprintf(w, "\n%s: schedule meeting (%s)\n", p.Policy.PolicyNumber, *p.ScheduleMeetingReason)
		}
	}
}

func policyFlags(p model.PolicyReview) string {
	var flags []byte
	if p.ReplacementOpportunity {
		flags = append(flags, 'R')
	}
	if len(p.DataQualityIssues) > 0 {
		flags = append(flags, 'Q')
	}
	if p.IncomeActivationEligible {
		flags = append(flags, 'I')
	}
	if p.ScheduleMeeting {
		flags = append(flags, 'M')
	}
	if len(flags) == 0 {
		return "-"
	}
	return string(flags)
}

func deref(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}

func init() {
	bookCmd.Flags().String("client-id", "", "customer identifier scope (empty reviews the whole book)")
	bookCmd.Flags().Bool("json", false, "emit the full review as JSON")
	rootCmd.AddCommand(bookCmd)
}
