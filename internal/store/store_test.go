package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"wallet/internal/apiclient"
	"wallet/internal/core"
)

type mockAPI struct {
	mock.Mock
}

func (m *mockAPI) ListCategories(ctx context.Context) ([]core.Category, error) {
	args := m.Called(ctx)
	cats, _ := args.Get(0).([]core.Category)
	return cats, args.Error(1)
}

func (m *mockAPI) ListTransactions(ctx context.Context) ([]core.Transaction, error) {
	args := m.Called(ctx)
	txs, _ := args.Get(0).([]core.Transaction)
	return txs, args.Error(1)
}

func (m *mockAPI) CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	args := m.Called(ctx, tx)
	created, _ := args.Get(0).(core.Transaction)
	return created, args.Error(1)
}

func (m *mockAPI) UpdateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	args := m.Called(ctx, tx)
	updated, _ := args.Get(0).(core.Transaction)
	return updated, args.Error(1)
}

func (m *mockAPI) DeleteTransaction(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func TestGetCategoryOperation(t *testing.T) {
	api := new(mockAPI)
	cats := []core.Category{{ID: "1", Name: "Food", Type: core.Expense}}
	api.On("ListCategories", mock.Anything).Return(cats, nil).Once()

	s := New(api)
	require.NoError(t, s.GetCategory(context.Background()))

	st := s.State()
	assert.Equal(t, cats, st.Categories)
	assert.False(t, st.Loading(ResourceCategories))
	api.AssertExpectations(t)
}

func TestGetCategoryOperationRejected(t *testing.T) {
	api := new(mockAPI)
	cats := []core.Category{{ID: "1", Name: "Food", Type: core.Expense}}
	api.On("ListCategories", mock.Anything).Return(cats, nil).Once()
	api.On("ListCategories", mock.Anything).Return(nil, &apiclient.APIError{StatusCode: 500, Message: "Database unavailable"}).Once()

	s := New(api)
	require.NoError(t, s.GetCategory(context.Background()))
	err := s.GetCategory(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "getCategory")
	st := s.State()
	assert.Equal(t, cats, st.Categories, "stale-but-present categories are kept")
	assert.Equal(t, "Database unavailable", st.Err(ResourceCategories))
	assert.False(t, st.Loading(ResourceCategories))
}

func TestCreateTransactionOperation(t *testing.T) {
	api := new(mockAPI)
	in := core.Transaction{Type: core.Expense, Category: "Food", Amount: core.NewMoney(5), Date: core.NewDate(2024, 1, 1)}
	out := in
	out.ID = "t1"
	api.On("CreateTransaction", mock.Anything, in).Return(out, nil)

	s := New(api)
	created, err := s.CreateTransaction(context.Background(), in)

	require.NoError(t, err)
	assert.Equal(t, out, created)
	assert.Equal(t, out, s.State().Transaction)
}

func TestCreateTransactionOperationRejected(t *testing.T) {
	api := new(mockAPI)
	api.On("CreateTransaction", mock.Anything, mock.Anything).Return(nil, errors.New("connection reset"))

	s := New(api)
	_, err := s.CreateTransaction(context.Background(), core.Transaction{ID: "x"})

	require.Error(t, err)
	st := s.State()
	assert.Equal(t, core.Transaction{}, st.Transaction)
	assert.False(t, st.Loading(ResourceTransaction))
	assert.Equal(t, "Something went wrong, please try again", st.Err(ResourceTransaction))
}

func TestDeleteTransactionOperation(t *testing.T) {
	api := new(mockAPI)
	api.On("ListTransactions", mock.Anything).Return([]core.Transaction{{ID: "a"}, {ID: "b"}}, nil)
	api.On("DeleteTransaction", mock.Anything, "a").Return(nil)

	s := New(api)
	require.NoError(t, s.GetTransactions(context.Background()))
	require.NoError(t, s.DeleteTransaction(context.Background(), "a"))

	assert.Equal(t, []core.Transaction{{ID: "b"}}, s.State().Transactions)
}

func TestUpdateTransactionOperation(t *testing.T) {
	api := new(mockAPI)
	row := core.Transaction{ID: "a", Type: core.Expense, Category: "Food", Amount: core.NewMoney(5), Date: core.NewDate(2024, 1, 1)}
	edited := row
	edited.Amount = core.NewMoney(7)
	api.On("ListTransactions", mock.Anything).Return([]core.Transaction{row}, nil)
	api.On("UpdateTransaction", mock.Anything, edited).Return(edited, nil).Once()

	s := New(api)
	require.NoError(t, s.GetTransactions(context.Background()))
	updated, err := s.UpdateTransaction(context.Background(), edited)

	require.NoError(t, err)
	assert.Equal(t, edited, updated)
	st := s.State()
	assert.Equal(t, edited, st.Transaction)
	assert.Equal(t, []core.Transaction{edited}, st.Transactions)
	api.AssertExpectations(t)
}

func TestUpdateTransactionOperationRejected(t *testing.T) {
	api := new(mockAPI)
	row := core.Transaction{ID: "a", Category: "Food"}
	api.On("ListTransactions", mock.Anything).Return([]core.Transaction{row}, nil)
	api.On("UpdateTransaction", mock.Anything, mock.Anything).Return(nil, &apiclient.APIError{StatusCode: 404, Message: "Transaction not found"})

	s := New(api)
	require.NoError(t, s.GetTransactions(context.Background()))
	_, err := s.UpdateTransaction(context.Background(), core.Transaction{ID: "a", Category: "Rent"})

	require.Error(t, err)
	st := s.State()
	assert.Equal(t, []core.Transaction{row}, st.Transactions)
	assert.Equal(t, "Transaction not found", st.Err(ResourceTransaction))
}

func TestRefreshLoadsBoth(t *testing.T) {
	api := new(mockAPI)
	api.On("ListCategories", mock.Anything).Return([]core.Category{{ID: "1"}}, nil)
	api.On("ListTransactions", mock.Anything).Return(nil, errors.New("boom"))

	s := New(api)
	err := s.Refresh(context.Background())

	require.Error(t, err)
	st := s.State()
	assert.Len(t, st.Categories, 1)
	assert.False(t, st.AnyLoading())
}

// gatedAPI lets a test decide the order in which responses arrive
type gatedAPI struct {
	mockAPI
	mu    sync.Mutex
	gates []chan core.Transaction
	calls chan struct{}
}

func (g *gatedAPI) CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	gate := make(chan core.Transaction)
	g.mu.Lock()
	g.gates = append(g.gates, gate)
	g.mu.Unlock()
	g.calls <- struct{}{}
	return <-gate, nil
}

func TestRacingCreatesLastIssuedWins(t *testing.T) {
	api := &gatedAPI{calls: make(chan struct{}, 2)}
	s := New(api)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = s.CreateTransaction(context.Background(), core.Transaction{Comment: "first"})
	}()
	<-api.calls
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = s.CreateTransaction(context.Background(), core.Transaction{Comment: "second"})
	}()
	<-api.calls

	// The second request answers first; the first answers late.
	api.gates[1] <- core.Transaction{ID: "second"}
	require.Eventually(t, func() bool { return s.State().Transaction.ID == "second" }, time.Second, time.Millisecond)
	api.gates[0] <- core.Transaction{ID: "first"}
	wg.Wait()

	st := s.State()
	assert.Equal(t, "second", st.Transaction.ID)
	assert.False(t, st.Loading(ResourceTransaction))
}

func TestSubscribeReceivesSnapshots(t *testing.T) {
	s := New(new(mockAPI))
	updates, cancel := s.Subscribe()
	defer cancel()

	s.Dispatch(Pending{Op: OpGetCategory, Seq: 1})
	s.Dispatch(CategoriesFetched{Seq: 1, Categories: []core.Category{{ID: "1"}}})

	// Only the newest snapshot is buffered.
	st := <-updates
	assert.Len(t, st.Categories, 1)
	assert.False(t, st.Loading(ResourceCategories))
}

func TestSubscribeCancelClosesChannel(t *testing.T) {
	s := New(new(mockAPI))
	updates, cancel := s.Subscribe()
	cancel()
	cancel()

	_, open := <-updates
	assert.False(t, open)
	s.Dispatch(Reset{})
}
