package wallet

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/trentd187/club-league/internal/apperr"
	"github.com/trentd187/club-league/internal/models"
)

type fakeRepo struct {
	players  map[uuid.UUID]*models.Player // keyed by user
	wallets  map[uuid.UUID]*models.Wallet // keyed by player
	ledger   map[uuid.UUID]decimal.Decimal
	earnings []Earning
	setCalls int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		players: map[uuid.UUID]*models.Player{},
		wallets: map[uuid.UUID]*models.Wallet{},
		ledger:  map[uuid.UUID]decimal.Decimal{},
	}
}

func (f *fakeRepo) Transaction(ctx context.Context, fn func(tx Repository) error) error {
	return fn(f)
}

func (f *fakeRepo) PlayerByUser(ctx context.Context, userID uuid.UUID) (*models.Player, error) {
	p, ok := f.players[userID]
	if !ok {
		return nil, apperr.NotFound("player profile not found")
	}
	return p, nil
}

func (f *fakeRepo) EnsureWallet(ctx context.Context, playerID uuid.UUID) (*models.Wallet, error) {
	if w, ok := f.wallets[playerID]; ok {
		return w, nil
	}
	w := &models.Wallet{ID: uuid.New(), OwnerType: models.WalletOwnerPlayer, OwnerID: playerID}
	f.wallets[playerID] = w
	return w, nil
}

func (f *fakeRepo) FindWallet(ctx context.Context, playerID uuid.UUID) (*models.Wallet, error) {
	return f.wallets[playerID], nil
}

func (f *fakeRepo) LedgerBalance(ctx context.Context, walletID uuid.UUID) (decimal.Decimal, error) {
	return f.ledger[walletID], nil
}

func (f *fakeRepo) SetBalance(ctx context.Context, walletID uuid.UUID, balance decimal.Decimal) error {
	f.setCalls++
	for _, w := range f.wallets {
		if w.ID == walletID {
			w.Balance = balance
		}
	}
	return nil
}

func (f *fakeRepo) WalletTransactions(ctx context.Context, walletID uuid.UUID, limit int) ([]TransactionView, error) {
	return []TransactionView{{Transaction: models.Transaction{ToWalletID: walletID}}}, nil
}

func (f *fakeRepo) EarningsByType(ctx context.Context, walletID uuid.UUID) ([]Earning, error) {
	return f.earnings, nil
}

func addPlayer(f *fakeRepo) uuid.UUID {
	userID := uuid.New()
	f.players[userID] = &models.Player{ID: uuid.New(), UserID: userID, GamerTag: "striker9"}
	return userID
}

func TestBalanceProvisionsWallet(t *testing.T) {
	repo := newFakeRepo()
	user := addPlayer(repo)

	view, err := NewService(repo, zerolog.Nop()).Balance(context.Background(), user)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !view.Balance.IsZero() || view.Player.GamerTag != "striker9" {
		t.Fatalf("unexpected view %+v", view)
	}
	if len(repo.wallets) != 1 {
		t.Fatalf("expected wallet created, got %d", len(repo.wallets))
	}
}

func TestBalanceRepairsDriftedCache(t *testing.T) {
	repo := newFakeRepo()
	user := addPlayer(repo)
	player := repo.players[user]
	w, _ := repo.EnsureWallet(context.Background(), player.ID)
	w.Balance = decimal.NewFromInt(10)
	repo.ledger[w.ID] = decimal.NewFromInt(65)

	view, err := NewService(repo, zerolog.Nop()).Balance(context.Background(), user)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !view.Balance.Equal(decimal.NewFromInt(65)) {
		t.Fatalf("expected ledger balance 65, got %s", view.Balance)
	}
	if repo.setCalls != 1 || !w.Balance.Equal(decimal.NewFromInt(65)) {
		t.Fatalf("expected cache repaired once, got %d calls and balance %s", repo.setCalls, w.Balance)
	}
}

func TestBalanceWithoutProfile(t *testing.T) {
	_, err := NewService(newFakeRepo(), zerolog.Nop()).Balance(context.Background(), uuid.New())
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestHistoryAndEarningsWithoutWallet(t *testing.T) {
	repo := newFakeRepo()
	user := addPlayer(repo)
	svc := NewService(repo, zerolog.Nop())

	txns, err := svc.Transactions(context.Background(), user, 0)
	if err != nil || len(txns) != 0 {
		t.Fatalf("expected empty history, got %v (%v)", txns, err)
	}
	summary, err := svc.Earnings(context.Background(), user)
	if err != nil || len(summary.Breakdown) != 0 || !summary.TotalEarnings.IsZero() {
		t.Fatalf("expected empty summary, got %+v (%v)", summary, err)
	}
	if len(repo.wallets) != 0 {
		t.Fatalf("expected reads without a wallet not to create one")
	}
}

func TestEarningsTotals(t *testing.T) {
	repo := newFakeRepo()
	user := addPlayer(repo)
	if _, err := repo.EnsureWallet(context.Background(), repo.players[user].ID); err != nil {
		t.Fatalf("ensure wallet: %v", err)
	}
	repo.earnings = []Earning{
		{TransactionType: models.TransactionTypeReward, Count: 3, Total: decimal.NewFromInt(120)},
		{TransactionType: "BONUS", Count: 1, Total: decimal.NewFromInt(30)},
	}

	summary, err := NewService(repo, zerolog.Nop()).Earnings(context.Background(), user)
	if err != nil {
		t.Fatalf("earnings: %v", err)
	}
	if !summary.TotalEarnings.Equal(decimal.NewFromInt(150)) || len(summary.Breakdown) != 2 {
		t.Fatalf("unexpected summary %+v", summary)
	}
}
