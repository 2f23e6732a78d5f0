package dashboard

import (
	"fmt"
	"strconv"

	"github.com/bancodev/bankdash-gobackend/internal/apiclient"
)

// FormatBalance renders a balance with two decimals, e.g. 12.5 -> "$12.50".
func FormatBalance(balance float64) string {
	return fmt.Sprintf("$%.2f", balance)
}

// FormatTransactionLine renders a transaction list line, e.g. a DEPOSIT of
// 10 -> "DEPOSIT: $10".
func FormatTransactionLine(t apiclient.Transaction) string {
	return t.Type + ": $" + formatAmount(t.Amount)
}

// FormatAccountLine renders an account list line.
func FormatAccountLine(a apiclient.Account) string {
	return fmt.Sprintf("%s: %.2f %s", a.Name, a.Balance, a.Currency)
}

// FormatTransferLine renders a transfer list line.
func FormatTransferLine(t apiclient.Transfer) string {
	return fmt.Sprintf("%s → %s | %s %s (%s)",
		t.SourceAccount, t.DestinationAccount, formatAmount(t.Amount), t.Currency, t.Status)
}

// formatAmount drops trailing zeros: 10 -> "10", 10.5 -> "10.5".
func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
