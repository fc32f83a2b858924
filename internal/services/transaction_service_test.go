package services

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	apperrors "github.com/snig/folio/internal/errors"
	"github.com/snig/folio/internal/models"
	"github.com/snig/folio/internal/repositories"
)

func TestExecuteBuyThenSellRoundTrip(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	user := seedUser(t, database)
	asset := seedAsset(t, database, "AAPL", models.AssetTypeStock, decimal.NewFromInt(100))
	portfolio := seedPortfolio(t, database, user.ID, decimal.NewFromInt(2000))

	svc := NewTransactionService(database, testLogger())

	// BUY 10 @ 100 with commission 5 -> net 1005
	buy := models.NewTransaction(models.TransactionTypeBuy, portfolio.ID, asset.ID, decimal.NewFromInt(10), decimal.NewFromInt(100))
	buy.Commission = decimal.NewFromInt(5)
	require.NoError(t, svc.CreateTransaction(ctx, buy))
	require.Equal(t, models.TransactionStatusPending, buy.Status)
	require.NotNil(t, buy.SettlementDate, "settlement date derived from asset type on create")

	executed, err := svc.Execute(ctx, buy.ID)
	require.NoError(t, err)
	require.Equal(t, models.TransactionStatusExecuted, executed.Status)
	require.Equal(t, "1005.00", executed.NetAmount.StringFixed(2))
	require.NotNil(t, executed.PositionID)

	portfolios := repositories.NewPortfolioRepository(database)
	positions := repositories.NewPositionRepository(database)

	p, err := portfolios.GetByID(ctx, portfolio.ID)
	require.NoError(t, err)
	require.Equal(t, "995.00", p.CashBalance.StringFixed(2))

	pos, err := positions.GetByPortfolioAndAsset(ctx, portfolio.ID, asset.ID)
	require.NoError(t, err)
	require.Equal(t, "10", pos.Quantity.String())
	require.Equal(t, "100", pos.AverageCost.String())
	require.Equal(t, "1000.00", pos.TotalCost.StringFixed(2))

	// SELL 4 @ 120, no fees -> net 480, realized 4 x 20 = 80
	sell := models.NewTransaction(models.TransactionTypeSell, portfolio.ID, asset.ID, decimal.NewFromInt(4), decimal.NewFromInt(120))
	require.NoError(t, svc.CreateTransaction(ctx, sell))

	executed, err = svc.Execute(ctx, sell.ID)
	require.NoError(t, err)
	require.Equal(t, models.TransactionStatusExecuted, executed.Status)
	require.Equal(t, "480.00", executed.NetAmount.StringFixed(2))

	pos, err = positions.GetByPortfolioAndAsset(ctx, portfolio.ID, asset.ID)
	require.NoError(t, err)
	require.Equal(t, "6", pos.Quantity.String())
	require.Equal(t, "100", pos.AverageCost.String(), "average cost untouched by sell")
	require.Equal(t, "600.00", pos.TotalCost.StringFixed(2))
	require.Equal(t, "80.00", pos.RealizedGainLoss.StringFixed(2))

	p, err = portfolios.GetByID(ctx, portfolio.ID)
	require.NoError(t, err)
	require.Equal(t, "1475.00", p.CashBalance.StringFixed(2))
}

func TestExecuteBuyInsufficientFundsFailsCleanly(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	user := seedUser(t, database)
	asset := seedAsset(t, database, "TSLA", models.AssetTypeStock, decimal.NewFromInt(500))
	portfolio := seedPortfolio(t, database, user.ID, decimal.NewFromInt(100))

	svc := NewTransactionService(database, testLogger())

	buy := models.NewTransaction(models.TransactionTypeBuy, portfolio.ID, asset.ID, decimal.NewFromInt(1), decimal.NewFromInt(500))
	require.NoError(t, svc.CreateTransaction(ctx, buy))

	executed, err := svc.Execute(ctx, buy.ID)
	require.Error(t, err)
	require.True(t, apperrors.IsInsufficientFunds(err))
	require.Equal(t, models.TransactionStatusFailed, executed.Status, "insufficient funds must move the transaction to FAILED")
	require.NotNil(t, executed.Notes)

	// Zero effects: cash untouched, no position created
	p, err := repositories.NewPortfolioRepository(database).GetByID(ctx, portfolio.ID)
	require.NoError(t, err)
	require.Equal(t, "100.00", p.CashBalance.StringFixed(2))

	_, err = repositories.NewPositionRepository(database).GetByPortfolioAndAsset(ctx, portfolio.ID, asset.ID)
	require.True(t, apperrors.IsNotFound(err))

	// FAILED is terminal: a second execute is an invalid transition
	_, err = svc.Execute(ctx, buy.ID)
	require.True(t, apperrors.IsInvalidTransition(err))
}

func TestExecuteSellInsufficientSharesFailsCleanly(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	user := seedUser(t, database)
	asset := seedAsset(t, database, "BTC", models.AssetTypeCrypto, decimal.NewFromInt(60000))
	portfolio := seedPortfolio(t, database, user.ID, decimal.NewFromInt(100000))

	svc := NewTransactionService(database, testLogger())

	buy := models.NewTransaction(models.TransactionTypeBuy, portfolio.ID, asset.ID, decimal.NewFromInt(1), decimal.NewFromInt(60000))
	require.NoError(t, svc.CreateTransaction(ctx, buy))
	_, err := svc.Execute(ctx, buy.ID)
	require.NoError(t, err)

	positions := repositories.NewPositionRepository(database)
	posBefore, err := positions.GetByPortfolioAndAsset(ctx, portfolio.ID, asset.ID)
	require.NoError(t, err)
	cashBefore := decimal.NewFromInt(40000)

	sell := models.NewTransaction(models.TransactionTypeSell, portfolio.ID, asset.ID, decimal.NewFromInt(2), decimal.NewFromInt(65000))
	require.NoError(t, svc.CreateTransaction(ctx, sell))

	executed, err := svc.Execute(ctx, sell.ID)
	require.Error(t, err)
	require.True(t, apperrors.IsInsufficientShares(err))
	require.Equal(t, models.TransactionStatusFailed, executed.Status)

	// Position and cash byte-for-byte unchanged
	posAfter, err := positions.GetByPortfolioAndAsset(ctx, portfolio.ID, asset.ID)
	require.NoError(t, err)
	require.True(t, posAfter.Quantity.Equal(posBefore.Quantity))
	require.True(t, posAfter.AverageCost.Equal(posBefore.AverageCost))
	require.True(t, posAfter.RealizedGainLoss.Equal(posBefore.RealizedGainLoss))

	p, err := repositories.NewPortfolioRepository(database).GetByID(ctx, portfolio.ID)
	require.NoError(t, err)
	require.True(t, p.CashBalance.Equal(cashBefore))
}

func TestExecuteSellWithoutPositionFails(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	user := seedUser(t, database)
	asset := seedAsset(t, database, "ETH", models.AssetTypeCrypto, decimal.NewFromInt(3000))
	portfolio := seedPortfolio(t, database, user.ID, decimal.NewFromInt(5000))

	svc := NewTransactionService(database, testLogger())

	sell := models.NewTransaction(models.TransactionTypeSell, portfolio.ID, asset.ID, decimal.NewFromInt(1), decimal.NewFromInt(3000))
	require.NoError(t, svc.CreateTransaction(ctx, sell))

	executed, err := svc.Execute(ctx, sell.ID)
	require.Error(t, err)
	require.True(t, apperrors.IsNotFound(err))
	require.Equal(t, models.TransactionStatusFailed, executed.Status)
}

func TestExecuteDividendCreditsCash(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	user := seedUser(t, database)
	asset := seedAsset(t, database, "KO", models.AssetTypeStock, decimal.NewFromInt(60))
	portfolio := seedPortfolio(t, database, user.ID, decimal.NewFromInt(1000))

	svc := NewTransactionService(database, testLogger())

	// 100 shares x 0.46 dividend per share; commission/fees ignored for
	// non-trade types
	div := models.NewTransaction(models.TransactionTypeDividend, portfolio.ID, asset.ID, decimal.NewFromInt(100), decimal.NewFromFloat(0.46))
	div.Commission = decimal.NewFromInt(1)
	require.NoError(t, svc.CreateTransaction(ctx, div))

	executed, err := svc.Execute(ctx, div.ID)
	require.NoError(t, err)
	require.Equal(t, "46.00", executed.NetAmount.StringFixed(2))

	p, err := repositories.NewPortfolioRepository(database).GetByID(ctx, portfolio.ID)
	require.NoError(t, err)
	require.Equal(t, "1046.00", p.CashBalance.StringFixed(2))
}

func TestExecuteFeeDebitsCash(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	user := seedUser(t, database)
	asset := seedAsset(t, database, "SPY", models.AssetTypeETF, decimal.NewFromInt(500))
	portfolio := seedPortfolio(t, database, user.ID, decimal.NewFromInt(50))

	svc := NewTransactionService(database, testLogger())

	fee := models.NewTransaction(models.TransactionTypeFee, portfolio.ID, asset.ID, decimal.NewFromInt(1), decimal.NewFromFloat(9.99))
	require.NoError(t, svc.CreateTransaction(ctx, fee))

	_, err := svc.Execute(ctx, fee.ID)
	require.NoError(t, err)

	p, err := repositories.NewPortfolioRepository(database).GetByID(ctx, portfolio.ID)
	require.NoError(t, err)
	require.Equal(t, "40.01", p.CashBalance.StringFixed(2))

	// A fee larger than the balance fails
	big := models.NewTransaction(models.TransactionTypeFee, portfolio.ID, asset.ID, decimal.NewFromInt(1), decimal.NewFromInt(100))
	require.NoError(t, svc.CreateTransaction(ctx, big))
	executed, err := svc.Execute(ctx, big.ID)
	require.True(t, apperrors.IsInsufficientFunds(err))
	require.Equal(t, models.TransactionStatusFailed, executed.Status)
}

func TestCancelAndFailLifecycle(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	user := seedUser(t, database)
	asset := seedAsset(t, database, "AAPL", models.AssetTypeStock, decimal.NewFromInt(100))
	portfolio := seedPortfolio(t, database, user.ID, decimal.NewFromInt(2000))

	svc := NewTransactionService(database, testLogger())

	tx := models.NewTransaction(models.TransactionTypeBuy, portfolio.ID, asset.ID, decimal.NewFromInt(1), decimal.NewFromInt(100))
	require.NoError(t, svc.CreateTransaction(ctx, tx))

	cancelled, err := svc.Cancel(ctx, tx.ID)
	require.NoError(t, err)
	require.Equal(t, models.TransactionStatusCancelled, cancelled.Status)

	// Terminal: cannot execute, fail or cancel again
	_, err = svc.Execute(ctx, tx.ID)
	require.True(t, apperrors.IsInvalidTransition(err))
	_, err = svc.Fail(ctx, tx.ID, "late")
	require.True(t, apperrors.IsInvalidTransition(err))
	_, err = svc.Cancel(ctx, tx.ID)
	require.True(t, apperrors.IsInvalidTransition(err))

	// Cancelled transaction had no financial effect
	p, err := repositories.NewPortfolioRepository(database).GetByID(ctx, portfolio.ID)
	require.NoError(t, err)
	require.Equal(t, "2000.00", p.CashBalance.StringFixed(2))

	other := models.NewTransaction(models.TransactionTypeBuy, portfolio.ID, asset.ID, decimal.NewFromInt(1), decimal.NewFromInt(100))
	require.NoError(t, svc.CreateTransaction(ctx, other))
	failed, err := svc.Fail(ctx, other.ID, "broker rejected")
	require.NoError(t, err)
	require.Equal(t, models.TransactionStatusFailed, failed.Status)
	require.NotNil(t, failed.Notes)
	require.Equal(t, "broker rejected", *failed.Notes)
}

func TestListTransactionsFiltering(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	user := seedUser(t, database)
	asset := seedAsset(t, database, "AAPL", models.AssetTypeStock, decimal.NewFromInt(100))
	portfolio := seedPortfolio(t, database, user.ID, decimal.NewFromInt(10000))

	svc := NewTransactionService(database, testLogger())

	buy := models.NewTransaction(models.TransactionTypeBuy, portfolio.ID, asset.ID, decimal.NewFromInt(10), decimal.NewFromInt(100))
	require.NoError(t, svc.CreateTransaction(ctx, buy))
	_, err := svc.Execute(ctx, buy.ID)
	require.NoError(t, err)

	sell := models.NewTransaction(models.TransactionTypeSell, portfolio.ID, asset.ID, decimal.NewFromInt(2), decimal.NewFromInt(110))
	require.NoError(t, svc.CreateTransaction(ctx, sell))

	all, err := svc.ListTransactions(ctx, &models.TransactionFilter{PortfolioID: &portfolio.ID})
	require.NoError(t, err)
	require.Len(t, all, 2)

	executedOnly, err := svc.ListTransactions(ctx, &models.TransactionFilter{
		PortfolioID: &portfolio.ID,
		Statuses:    []models.TransactionStatus{models.TransactionStatusExecuted},
	})
	require.NoError(t, err)
	require.Len(t, executedOnly, 1)
	require.Equal(t, models.TransactionTypeBuy, executedOnly[0].Type)

	sells, err := svc.ListTransactions(ctx, &models.TransactionFilter{
		PortfolioID: &portfolio.ID,
		Types:       []models.TransactionType{models.TransactionTypeSell},
	})
	require.NoError(t, err)
	require.Len(t, sells, 1)
}

func TestCreateTransactionUnknownReferences(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	user := seedUser(t, database)
	asset := seedAsset(t, database, "AAPL", models.AssetTypeStock, decimal.NewFromInt(100))
	portfolio := seedPortfolio(t, database, user.ID, decimal.NewFromInt(1000))

	svc := NewTransactionService(database, testLogger())

	missingPortfolio := models.NewTransaction(models.TransactionTypeBuy, "nope", asset.ID, decimal.NewFromInt(1), decimal.NewFromInt(1))
	err := svc.CreateTransaction(ctx, missingPortfolio)
	require.True(t, apperrors.IsNotFound(err))

	missingAsset := models.NewTransaction(models.TransactionTypeBuy, portfolio.ID, "nope", decimal.NewFromInt(1), decimal.NewFromInt(1))
	err = svc.CreateTransaction(ctx, missingAsset)
	require.True(t, apperrors.IsNotFound(err))
}

func TestExecuteConcurrentDuplicateAppliesOnce(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	user := seedUser(t, database)
	asset := seedAsset(t, database, "AAPL", models.AssetTypeStock, decimal.NewFromInt(100))
	portfolio := seedPortfolio(t, database, user.ID, decimal.NewFromInt(5000))

	svc := NewTransactionService(database, testLogger())

	buy := models.NewTransaction(models.TransactionTypeBuy, portfolio.ID, asset.ID, decimal.NewFromInt(10), decimal.NewFromInt(100))
	require.NoError(t, svc.CreateTransaction(ctx, buy))

	// Both goroutines read the PENDING row before either takes the
	// portfolio lock; only the one that wins the lock may apply effects.
	const racers = 2
	errs := make(chan error, racers)
	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Execute(ctx, buy.ID)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var successes, conflicts int
	for err := range errs {
		switch {
		case err == nil:
			successes++
		case apperrors.IsInvalidTransition(err):
			conflicts++
		default:
			t.Fatalf("unexpected execute error: %v", err)
		}
	}
	require.Equal(t, 1, successes, "exactly one execution may apply effects")
	require.Equal(t, racers-1, conflicts)

	// Cash debited once, position bought once
	p, err := repositories.NewPortfolioRepository(database).GetByID(ctx, portfolio.ID)
	require.NoError(t, err)
	require.Equal(t, "4000.00", p.CashBalance.StringFixed(2))

	pos, err := repositories.NewPositionRepository(database).GetByPortfolioAndAsset(ctx, portfolio.ID, asset.ID)
	require.NoError(t, err)
	require.Equal(t, "10", pos.Quantity.String())
}

func TestExecuteSellWithChargesConsumingProceeds(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	user := seedUser(t, database)
	asset := seedAsset(t, database, "AAPL", models.AssetTypeStock, decimal.NewFromInt(100))
	portfolio := seedPortfolio(t, database, user.ID, decimal.NewFromInt(2000))

	svc := NewTransactionService(database, testLogger())

	buy := models.NewTransaction(models.TransactionTypeBuy, portfolio.ID, asset.ID, decimal.NewFromInt(10), decimal.NewFromInt(100))
	require.NoError(t, svc.CreateTransaction(ctx, buy))
	_, err := svc.Execute(ctx, buy.ID)
	require.NoError(t, err)

	// SELL 1 @ 100 with commission 100: zero net, shares leave, no credit
	sell := models.NewTransaction(models.TransactionTypeSell, portfolio.ID, asset.ID, decimal.NewFromInt(1), decimal.NewFromInt(100))
	sell.Commission = decimal.NewFromInt(100)
	require.NoError(t, svc.CreateTransaction(ctx, sell))

	executed, err := svc.Execute(ctx, sell.ID)
	require.NoError(t, err)
	require.Equal(t, models.TransactionStatusExecuted, executed.Status)
	require.True(t, executed.NetAmount.IsZero())

	p, err := repositories.NewPortfolioRepository(database).GetByID(ctx, portfolio.ID)
	require.NoError(t, err)
	require.Equal(t, "1000.00", p.CashBalance.StringFixed(2))

	pos, err := repositories.NewPositionRepository(database).GetByPortfolioAndAsset(ctx, portfolio.ID, asset.ID)
	require.NoError(t, err)
	require.Equal(t, "9", pos.Quantity.String())

	// Charges above the proceeds are rejected while still PENDING
	bad := models.NewTransaction(models.TransactionTypeSell, portfolio.ID, asset.ID, decimal.NewFromInt(1), decimal.NewFromInt(100))
	bad.Commission = decimal.NewFromInt(150)
	err = svc.CreateTransaction(ctx, bad)
	require.True(t, apperrors.IsValidation(err))
}
