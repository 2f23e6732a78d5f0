package dashboard

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/bancodev/bankdash-gobackend/internal/apiclient"
	"github.com/bancodev/bankdash-gobackend/internal/metrics"
)

// ErrLoadingData is rendered in a card whose fetch failed.
const ErrLoadingData = "Error al cargar datos."

// Card is one rendered dashboard slot.
type Card struct {
	Title string
	Lines []string
	Err   bool
}

// Data holds the four dashboard cards.
type Data struct {
	Accounts     Card
	Transactions Card
	Transfers    Card
	Balance      Card
}

// Aggregator loads the four dashboard cards. Each card is fetched
// independently: the fetches run concurrently, a failure in one never
// blocks or degrades the others, and no fetch is retried. Each goroutine
// writes only its own card, so no locking is needed.
type Aggregator struct {
	client *apiclient.Client
	logger *zap.Logger
}

func NewAggregator(client *apiclient.Client, logger *zap.Logger) *Aggregator {
	return &Aggregator{client: client, logger: logger}
}

// Load fetches all four cards and returns whenever the slowest fetch
// resolves. accountID selects the account for the balance card.
func (a *Aggregator) Load(ctx context.Context, accountID string) Data {
	var data Data
	var wg sync.WaitGroup
	wg.Add(4)

	go func() {
		defer wg.Done()
		data.Accounts = a.loadAccounts(ctx)
	}()
	go func() {
		defer wg.Done()
		data.Transactions = a.loadTransactions(ctx)
	}()
	go func() {
		defer wg.Done()
		data.Transfers = a.loadTransfers(ctx)
	}()
	go func() {
		defer wg.Done()
		data.Balance = a.loadBalance(ctx, accountID)
	}()

	wg.Wait()
	return data
}

func (a *Aggregator) loadAccounts(ctx context.Context) Card {
	card := Card{Title: "Cuentas"}
	accounts, err := a.client.GetAccounts(ctx)
	if err != nil {
		return a.failed(card, "accounts", err)
	}
	for _, acc := range accounts {
		card.Lines = append(card.Lines, FormatAccountLine(acc))
	}
	return card
}

func (a *Aggregator) loadTransactions(ctx context.Context) Card {
	card := Card{Title: "Transacciones"}
	transactions, err := a.client.GetTransactions(ctx)
	if err != nil {
		return a.failed(card, "transactions", err)
	}
	for _, t := range transactions {
		card.Lines = append(card.Lines, FormatTransactionLine(t))
	}
	return card
}

func (a *Aggregator) loadTransfers(ctx context.Context) Card {
	card := Card{Title: "Transferencias"}
	transfers, err := a.client.GetTransfers(ctx)
	if err != nil {
		return a.failed(card, "transfers", err)
	}
	for _, t := range transfers {
		card.Lines = append(card.Lines, FormatTransferLine(t))
	}
	return card
}

func (a *Aggregator) loadBalance(ctx context.Context, accountID string) Card {
	card := Card{Title: "Saldo"}
	if accountID == "" {
		// no account selected: the card stays empty, not an error
		return card
	}
	balance, err := a.client.GetAccountByID(ctx, accountID)
	if err != nil {
		return a.failed(card, "balance", err)
	}
	card.Lines = []string{FormatBalance(balance.Balance)}
	return card
}

func (a *Aggregator) failed(card Card, name string, err error) Card {
	a.logger.Error("dashboard fetch failed", zap.String("card", name), zap.Error(err))
	metrics.DashboardFetchErrors.WithLabelValues(name).Inc()
	card.Err = true
	card.Lines = []string{ErrLoadingData}
	return card
}
