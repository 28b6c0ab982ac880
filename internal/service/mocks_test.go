package service

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/rooftop/solar-rewards-go/internal/model"
	"github.com/rooftop/solar-rewards-go/internal/provider"
)

type mockAccountRepo struct {
	mock.Mock
}

func (m *mockAccountRepo) FindByID(ctx context.Context, id int64) (*model.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Account), args.Error(1)
}

func (m *mockAccountRepo) ListActive(ctx context.Context) ([]model.Account, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Account), args.Error(1)
}

func (m *mockAccountRepo) ListByUserID(ctx context.Context, userID string) ([]model.Account, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Account), args.Error(1)
}

func (m *mockAccountRepo) Upsert(ctx context.Context, params model.SaveAccountParams) (*model.Account, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Account), args.Error(1)
}

func (m *mockAccountRepo) UpdateAccessToken(ctx context.Context, id int64, accessToken string) error {
	args := m.Called(ctx, id, accessToken)
	return args.Error(0)
}

func (m *mockAccountRepo) TouchLastSync(ctx context.Context, id int64, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

// fakeProductionRepo keeps one row per (connection, date) like the table's
// unique key.
type fakeProductionRepo struct {
	mu      sync.Mutex
	rows    map[string]model.ProductionRecord
	failFor map[int64]error
	nextID  int64
}

func newFakeProductionRepo() *fakeProductionRepo {
	return &fakeProductionRepo{rows: map[string]model.ProductionRecord{}, failFor: map[int64]error{}}
}

func (r *fakeProductionRepo) key(connectionID int64, date time.Time) string {
	return fmt.Sprintf("%d/%s", connectionID, date.Format("2006-01-02"))
}

func (r *fakeProductionRepo) Upsert(ctx context.Context, params model.UpsertProductionParams) (*model.ProductionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.failFor[params.ConnectionID]; err != nil {
		return nil, err
	}

	k := r.key(params.ConnectionID, params.Date)
	record, ok := r.rows[k]
	if !ok {
		r.nextID++
		record.ID = r.nextID
	}
	record.ConnectionID = params.ConnectionID
	record.Date = params.Date
	record.DailyKwh = params.DailyKwh
	record.MonthlyKwh = params.DailyKwh
	record.TotalKwh = params.DailyKwh
	record.RewardAmount = params.RewardAmount
	record.FetchedAt = params.FetchedAt
	r.rows[k] = record
	return &record, nil
}

func (r *fakeProductionRepo) ListByConnection(ctx context.Context, connectionID int64, limit int) ([]model.ProductionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var records []model.ProductionRecord
	for _, record := range r.rows {
		if record.ConnectionID == connectionID {
			records = append(records, record)
		}
	}
	slices.SortFunc(records, func(a, b model.ProductionRecord) int { return b.Date.Compare(a.Date) })
	if len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

func (r *fakeProductionRepo) ListByUserID(ctx context.Context, userID string, limit int) ([]model.ProductionRecord, error) {
	return nil, nil
}

func (r *fakeProductionRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows)
}

type fakeRewardRepo struct {
	mu      sync.Mutex
	passIDs []string
	rows    []model.RewardIntent
	err     error
	ctxErrs []error
}

func (r *fakeRewardRepo) AppendBatch(ctx context.Context, passID string, intents []model.RewardIntent, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ctxErrs = append(r.ctxErrs, ctx.Err())
	if r.err != nil {
		return r.err
	}
	r.passIDs = append(r.passIDs, passID)
	r.rows = append(r.rows, intents...)
	return nil
}

func (r *fakeRewardRepo) ListByUserID(ctx context.Context, userID string, limit int) ([]model.RewardRecord, error) {
	return nil, nil
}

// stubAdapter records the access token of every fetch.
type stubAdapter struct {
	mu       sync.Mutex
	fetch    func(account model.Account) (*model.ProductionReading, error)
	refresh  func(account model.Account) (string, error)
	tokens   []string
	refreshN int
}

func (a *stubAdapter) FetchProduction(ctx context.Context, account model.Account) (*model.ProductionReading, error) {
	a.mu.Lock()
	token := ""
	if account.AccessToken != nil {
		token = *account.AccessToken
	}
	a.tokens = append(a.tokens, token)
	a.mu.Unlock()
	return a.fetch(account)
}

func (a *stubAdapter) RefreshCredential(ctx context.Context, account model.Account) (string, error) {
	a.mu.Lock()
	a.refreshN++
	a.mu.Unlock()
	if a.refresh == nil {
		return "", nil
	}
	return a.refresh(account)
}

type stubResolver struct {
	adapter provider.Adapter
}

func (r stubResolver) Resolve(p model.Provider) provider.Adapter {
	return r.adapter
}

// stubTokenClient fails the transfers whose call index is in failOn.
type stubTokenClient struct {
	mu      sync.Mutex
	calls   []model.TransferRequest
	failOn  map[int]bool
	pingErr error
}

func (c *stubTokenClient) Transfer(ctx context.Context, req model.TransferRequest) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx := len(c.calls)
	c.calls = append(c.calls, req)
	if c.failOn[idx] {
		return "", context.DeadlineExceeded
	}
	return "0xhash-" + req.Recipient, nil
}

func (c *stubTokenClient) Ping(ctx context.Context) error {
	return c.pingErr
}

func strPtr(s string) *string { return &s }
