package setup

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/vadiminshakov/aurum/internal/domain"
	"github.com/vadiminshakov/aurum/internal/services/gateway"
	"github.com/vadiminshakov/aurum/internal/services/workflow"
	"github.com/vadiminshakov/aurum/internal/storage/orderjournal"
)

// RenderRate renders the gold rate with its source when it is not live.
func RenderRate(r domain.Rate) string {
	line := fmt.Sprintf("Buy %s/g   Sell %s/g", domain.FormatINR(r.BuyPrice), domain.FormatINR(r.SellPrice))
	if !r.IsLive() {
		line += mutedStyle.Render(fmt.Sprintf("  (%s rates)", r.Source))
	}
	return boxStyle.Render(titleStyle.Render("24K Gold") + "\n" + line)
}

// RenderHolding renders the user's balance.
func RenderHolding(h domain.Holding) string {
	line := fmt.Sprintf("Your gold: %s (%s)", domain.FormatGrams(h.Grams), domain.FormatINR(h.ValueINR))
	if h.Source != "" && h.Source != domain.RateSourceLive {
		line += mutedStyle.Render(fmt.Sprintf("  (%s)", h.Source))
	}
	return line
}

// RenderQuote renders the order summary shown before confirmation.
func RenderQuote(q workflow.Quote, bank *domain.BankAccount) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", titleStyle.Render(strings.ToUpper(q.Operation.String())), domain.FormatGrams(q.Quantity))
	fmt.Fprintf(&b, "Rate:     %s/g\n", domain.FormatINR(q.Price))
	fmt.Fprintf(&b, "Quantity: %s\n", domain.FormatGrams(q.Quantity))
	fmt.Fprintf(&b, "Amount:   %s", domain.FormatINR(q.Amount))
	if bank != nil {
		fmt.Fprintf(&b, "\nBank:     %s", bank)
	}
	return b.String()
}

// RenderAlert renders a terminal error.
func RenderAlert(a workflow.Alert) string {
	body := titleStyle.Render(a.Title) + "\n" + a.Message
	if a.NextStep != "" {
		body += "\n" + mutedStyle.Render(a.NextStep)
	}
	return alertStyle.Render(body)
}

// RenderStage renders the narration line of a checkout stage.
func RenderStage(stage gateway.Stage) string {
	return mutedStyle.Render("… ") + stage.Description()
}

// RenderTransaction renders the outcome of an order.
func RenderTransaction(tx domain.Transaction) string {
	var b strings.Builder
	switch {
	case tx.Simulated:
		b.WriteString(titleStyle.Render("Demo order placed"))
		b.WriteString("\nThe gold service is busy, so this order was simulated and nothing was charged.")
	case tx.Status == domain.TransactionCompleted:
		b.WriteString(successStyle.Render("✓ Order completed"))
	default:
		b.WriteString(titleStyle.Render("Order " + string(tx.Status)))
	}
	fmt.Fprintf(&b, "\nTransaction: %s", tx.MerchantTransactionID)
	fmt.Fprintf(&b, "\n%s of gold for %s", domain.FormatGrams(tx.Quantity), domain.FormatINR(tx.Amount))
	if tx.PaymentReference != "" {
		fmt.Fprintf(&b, "\nPayment: %s", tx.PaymentReference)
	}
	return boxStyle.Render(b.String())
}

// RenderHistory renders a page of transaction history as a table.
func RenderHistory(page domain.HistoryPage) string {
	if len(page.Entries) == 0 {
		return mutedStyle.Render("No transactions yet.")
	}

	rows := make([][]string, 0, len(page.Entries))
	for _, e := range page.Entries {
		rows = append(rows, []string{
			e.Date,
			strings.ToUpper(e.Type),
			domain.FormatGrams(e.Grams),
			domain.FormatINR(e.Amount),
			string(e.Status),
			e.TxnID,
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(highlight)).
		Headers("DATE", "TYPE", "GRAMS", "AMOUNT", "STATUS", "TRANSACTION").
		Rows(rows...)

	out := t.String()
	if page.Demo {
		out += "\n" + mutedStyle.Render("Sample data: the gold service is unreachable.")
	}
	if page.HasMore {
		out += "\n" + mutedStyle.Render("More transactions available.")
	}
	return out
}

// RenderPending renders journaled orders that did not complete.
func RenderPending(records []orderjournal.Record) string {
	if len(records) == 0 {
		return mutedStyle.Render("No unreconciled orders.")
	}

	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			r.CreatedAt.Format("2006-01-02 15:04"),
			r.MerchantTransactionID,
			r.Operation.String(),
			domain.FormatINR(r.Amount),
			string(r.Status),
			r.Error,
		})
	}
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers("CREATED", "TRANSACTION", "OP", "AMOUNT", "STATUS", "ERROR").
		Rows(rows...).
		String()
}
