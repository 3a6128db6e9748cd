package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/luckytwelve/platform/internal/domain"
	"github.com/luckytwelve/platform/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTx struct{ pgx.Tx }

type fakeUsers struct {
	repository.UserRepository
	user *domain.User
}

func (f *fakeUsers) ApplyBalanceDelta(ctx context.Context, tx pgx.Tx, userID uuid.UUID, delta int64) (*domain.User, error) {
	u := *f.user
	u.Balance += delta
	f.user = &u
	return &u, nil
}

type fakeLogs struct {
	repository.WalletLogRepository
	rows []domain.WalletLog
}

func (f *fakeLogs) Insert(ctx context.Context, db repository.DBTX, log *domain.WalletLog) error {
	f.rows = append(f.rows, *log)
	return nil
}

type fakeOutbox struct {
	repository.OutboxRepository
	drafts []domain.OutboxDraft
}

func (f *fakeOutbox) Insert(ctx context.Context, db repository.DBTX, draft domain.OutboxDraft) error {
	f.drafts = append(f.drafts, draft)
	return nil
}

func activeUser(balance int64) *domain.User {
	return &domain.User{ID: uuid.New(), Handle: "player1", Status: domain.UserActive, Type: domain.TypePlayer, Balance: balance}
}

func newTestEngine(user *domain.User) (*Engine, *fakeUsers, *fakeLogs, *fakeOutbox) {
	users := &fakeUsers{user: user}
	logs := &fakeLogs{}
	outbox := &fakeOutbox{}
	return NewEngine(users, logs, outbox), users, logs, outbox
}

func TestDebitInsufficientBalance(t *testing.T) {
	user := activeUser(500)
	engine, _, logs, _ := newTestEngine(user)

	_, err := engine.Debit(context.Background(), fakeTx{}, user, domain.LedgerEntry{
		Type: domain.TxGame, Amount: 1000, ReferenceType: domain.RefBetPlacement,
	})

	require.Error(t, err)
	appErr, ok := err.(*domain.AppError)
	require.True(t, ok)
	assert.Equal(t, "INSUFFICIENT_BALANCE", appErr.Code)
	assert.Contains(t, appErr.Message, "500")
	assert.Empty(t, logs.rows, "no ledger row on failed debit")
	assert.Equal(t, int64(500), user.Balance)
}

func TestDebitPostsRowAndEvent(t *testing.T) {
	user := activeUser(10_000)
	engine, _, logs, outbox := newTestEngine(user)

	ref := "slip-1"
	row, err := engine.Debit(context.Background(), fakeTx{}, user, domain.LedgerEntry{
		Type:          domain.TxGame,
		Amount:        2_500,
		ReferenceType: domain.RefBetPlacement,
		ReferenceID:   &ref,
	})

	require.NoError(t, err)
	assert.Equal(t, int64(7_500), row.BalanceAfter)
	assert.Equal(t, int64(7_500), user.Balance)
	assert.Equal(t, domain.DirDebit, row.Direction)
	assert.Equal(t, int64(2_500), row.Amount, "ledger amounts are positive; direction carries the sign")

	require.Len(t, logs.rows, 1)
	assert.Equal(t, row.ID, logs.rows[0].ID)

	require.Len(t, outbox.drafts, 1)
	assert.Equal(t, "wallet", outbox.drafts[0].AggregateType)
	assert.Equal(t, "entry_posted", outbox.drafts[0].EventType)
}

func TestCreditPostsRow(t *testing.T) {
	user := activeUser(0)
	engine, _, logs, _ := newTestEngine(user)

	row, err := engine.Credit(context.Background(), fakeTx{}, user, domain.LedgerEntry{
		Type: domain.TxGame, Amount: 9_000, ReferenceType: domain.RefClaim,
	})

	require.NoError(t, err)
	assert.Equal(t, domain.DirCredit, row.Direction)
	assert.Equal(t, int64(9_000), row.BalanceAfter)
	assert.WithinDuration(t, time.Now().UTC(), row.CreatedAt, time.Minute)
	require.Len(t, logs.rows, 1)
}

func TestPostRejectsInactiveUser(t *testing.T) {
	user := activeUser(10_000)
	user.Status = domain.UserBanned
	engine, _, _, _ := newTestEngine(user)

	_, err := engine.Credit(context.Background(), fakeTx{}, user, domain.LedgerEntry{
		Type: domain.TxRecharge, Amount: 100, ReferenceType: domain.RefAdmin,
	})

	require.Error(t, err)
	appErr := err.(*domain.AppError)
	assert.Equal(t, "ACCOUNT_NOT_ACTIVE", appErr.Code)
}

func TestPostRejectsNonPositiveAmount(t *testing.T) {
	user := activeUser(10_000)
	engine, _, _, _ := newTestEngine(user)

	for _, amount := range []int64{0, -100} {
		_, err := engine.Debit(context.Background(), fakeTx{}, user, domain.LedgerEntry{
			Type: domain.TxGame, Amount: amount, ReferenceType: domain.RefBetPlacement,
		})
		require.Error(t, err)
		assert.Equal(t, "VALIDATION_ERROR", err.(*domain.AppError).Code)
	}
}
