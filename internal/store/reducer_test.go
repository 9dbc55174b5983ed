package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallet/internal/core"
)

func TestGetCategoryPendingThenFulfilled(t *testing.T) {
	food := core.Category{ID: "1", Name: "Food", Type: core.Expense}

	s := Reduce(Initial(), Pending{Op: OpGetCategory, Seq: 1})
	assert.True(t, s.Loading(ResourceCategories))

	s = Reduce(s, CategoriesFetched{Seq: 1, Categories: []core.Category{food}})
	assert.Equal(t, []core.Category{food}, s.Categories)
	assert.False(t, s.Loading(ResourceCategories))
}

func TestGetCategoryRejectedKeepsCategories(t *testing.T) {
	food := core.Category{ID: "1", Name: "Food", Type: core.Expense}
	s := Reduce(Initial(), CategoriesFetched{Categories: []core.Category{food}})

	s = Reduce(s, Pending{Op: OpGetCategory, Seq: 1})
	s = Reduce(s, Rejected{Op: OpGetCategory, Seq: 1, Message: "Server is down"})

	assert.False(t, s.Loading(ResourceCategories))
	assert.Equal(t, []core.Category{food}, s.Categories)
	assert.Equal(t, "Server is down", s.Err(ResourceCategories))
}

func TestCreateTransactionRejectedLeavesSlot(t *testing.T) {
	prev := core.Transaction{ID: "t0", Type: core.Income, Category: "Salary", Amount: core.NewMoney(100)}
	s := Reduce(Initial(), TransactionCreated{Transaction: prev})

	s = Reduce(s, Pending{Op: OpCreateTransaction, Seq: 1})
	require.True(t, s.Loading(ResourceTransaction))
	s = Reduce(s, Rejected{Op: OpCreateTransaction, Seq: 1, Message: "nope"})

	assert.False(t, s.Loading(ResourceTransaction))
	assert.Equal(t, prev, s.Transaction)
}

func TestCreateTransactionFulfilledReplacesSlot(t *testing.T) {
	tx := core.Transaction{ID: "t1", Type: core.Expense, Category: "Food", Amount: core.NewMoney(12)}

	s := Reduce(Initial(), Pending{Op: OpCreateTransaction, Seq: 4})
	s = Reduce(s, TransactionCreated{Seq: 4, Transaction: tx})

	assert.Equal(t, tx, s.Transaction)
	assert.False(t, s.AnyLoading())
}

func TestLoadingFlagsAreIndependent(t *testing.T) {
	s := Reduce(Initial(), Pending{Op: OpGetCategory, Seq: 1})
	s = Reduce(s, Pending{Op: OpCreateTransaction, Seq: 2})
	s = Reduce(s, CategoriesFetched{Seq: 1})

	assert.False(t, s.Loading(ResourceCategories))
	assert.True(t, s.Loading(ResourceTransaction))
	assert.True(t, s.AnyLoading())
}

func TestStaleResponseIsIgnored(t *testing.T) {
	older := core.Transaction{ID: "old"}
	newer := core.Transaction{ID: "new"}

	s := Reduce(Initial(), Pending{Op: OpCreateTransaction, Seq: 1})
	s = Reduce(s, Pending{Op: OpCreateTransaction, Seq: 2})
	s = Reduce(s, TransactionCreated{Seq: 2, Transaction: newer})
	s = Reduce(s, TransactionCreated{Seq: 1, Transaction: older})

	assert.Equal(t, newer, s.Transaction)
	assert.False(t, s.Loading(ResourceTransaction))
}

func TestStaleRejectionDoesNotClearNewerLoading(t *testing.T) {
	s := Reduce(Initial(), Pending{Op: OpGetTransactions, Seq: 1})
	s = Reduce(s, Pending{Op: OpGetTransactions, Seq: 2})
	s = Reduce(s, Rejected{Op: OpGetTransactions, Seq: 1, Message: "timeout"})

	assert.True(t, s.Loading(ResourceTransactions))
	assert.Empty(t, s.Err(ResourceTransactions))
}

func TestOutOfOrderPendingIsIgnored(t *testing.T) {
	s := Reduce(Initial(), Pending{Op: OpGetCategory, Seq: 5})
	s = Reduce(s, Pending{Op: OpGetCategory, Seq: 3})

	assert.Equal(t, uint64(5), s.Status[ResourceCategories].Seq)
}

func TestPendingClearsPreviousError(t *testing.T) {
	s := Reduce(Initial(), Rejected{Op: OpGetCategory, Message: "boom"})
	require.Equal(t, "boom", s.Err(ResourceCategories))

	s = Reduce(s, Pending{Op: OpGetCategory, Seq: 1})
	assert.Empty(t, s.Err(ResourceCategories))
}

func TestTransactionDeletedRemovesRowEvenWhenStale(t *testing.T) {
	s := Reduce(Initial(), TransactionsFetched{Transactions: []core.Transaction{{ID: "a"}, {ID: "b"}, {ID: "c"}}})
	s = Reduce(s, Pending{Op: OpDeleteTransaction, Seq: 1})
	s = Reduce(s, Pending{Op: OpDeleteTransaction, Seq: 2})

	s = Reduce(s, TransactionDeleted{Seq: 1, ID: "a"})
	assert.Equal(t, []core.Transaction{{ID: "b"}, {ID: "c"}}, s.Transactions)
	assert.True(t, s.Loading(ResourceTransactions))

	s = Reduce(s, TransactionDeleted{Seq: 2, ID: "c"})
	assert.Equal(t, []core.Transaction{{ID: "b"}}, s.Transactions)
	assert.False(t, s.Loading(ResourceTransactions))
}

func TestReduceDoesNotModifyInput(t *testing.T) {
	before := Reduce(Initial(), TransactionsFetched{Transactions: []core.Transaction{{ID: "a"}, {ID: "b"}}})
	before = Reduce(before, Pending{Op: OpGetCategory, Seq: 1})

	after := Reduce(before, Pending{Op: OpDeleteTransaction, Seq: 2})
	after = Reduce(after, TransactionDeleted{Seq: 2, ID: "a"})

	assert.Len(t, before.Transactions, 2)
	assert.Equal(t, "a", before.Transactions[0].ID)
	assert.False(t, before.Loading(ResourceTransactions))
	assert.Len(t, before.Status, 1)
	assert.Len(t, after.Transactions, 1)
}

func TestFetchedNilBecomesEmpty(t *testing.T) {
	s := Reduce(Initial(), CategoriesFetched{Categories: nil})
	assert.NotNil(t, s.Categories)
	assert.Empty(t, s.Categories)
}

func TestReset(t *testing.T) {
	s := Reduce(Initial(), TransactionsFetched{Transactions: []core.Transaction{{ID: "a"}}})
	s = Reduce(s, Pending{Op: OpGetCategory, Seq: 3})

	s = Reduce(s, Reset{})
	assert.Equal(t, Initial(), s)
}

func TestOperationResource(t *testing.T) {
	assert.Equal(t, ResourceCategories, OpGetCategory.Resource())
	assert.Equal(t, ResourceTransaction, OpCreateTransaction.Resource())
	assert.Equal(t, ResourceTransactions, OpGetTransactions.Resource())
	assert.Equal(t, ResourceTransactions, OpDeleteTransaction.Resource())
	assert.Equal(t, ResourceTransaction, OpUpdateTransaction.Resource())
}

func TestUpdateTransactionReplacesSlotAndRow(t *testing.T) {
	rent := core.Transaction{ID: "a", Type: core.Expense, Category: "Rent", Amount: core.NewMoney(500), Comment: "March"}
	food := core.Transaction{ID: "b", Type: core.Expense, Category: "Food", Amount: core.NewMoney(20)}
	s := Reduce(Initial(), TransactionsFetched{Transactions: []core.Transaction{rent, food}})
	before := s.Transactions

	edited := core.Transaction{ID: "a", Type: core.Expense, Category: "Rent", Amount: core.NewMoney(550)}
	s = Reduce(s, Pending{Op: OpUpdateTransaction, Seq: 1})
	assert.True(t, s.Loading(ResourceTransaction))
	s = Reduce(s, TransactionUpdated{Seq: 1, Transaction: edited})

	assert.False(t, s.Loading(ResourceTransaction))
	assert.Equal(t, edited, s.Transaction)
	assert.Equal(t, []core.Transaction{edited, food}, s.Transactions)
	assert.Empty(t, s.Transactions[0].Comment, "replacement drops fields the update omitted")
	assert.Equal(t, "March", before[0].Comment, "previous snapshot is not modified")
}

func TestStaleUpdateIgnored(t *testing.T) {
	row := core.Transaction{ID: "a", Category: "Rent"}
	s := Reduce(Initial(), TransactionsFetched{Transactions: []core.Transaction{row}})

	s = Reduce(s, Pending{Op: OpUpdateTransaction, Seq: 1})
	s = Reduce(s, Pending{Op: OpUpdateTransaction, Seq: 2})
	s = Reduce(s, TransactionUpdated{Seq: 2, Transaction: core.Transaction{ID: "a", Category: "Housing"}})
	s = Reduce(s, TransactionUpdated{Seq: 1, Transaction: core.Transaction{ID: "a", Category: "Old"}})

	assert.Equal(t, "Housing", s.Transaction.Category)
	assert.Equal(t, "Housing", s.Transactions[0].Category)
}

func TestUpdateRejectedKeepsRow(t *testing.T) {
	row := core.Transaction{ID: "a", Category: "Rent"}
	s := Reduce(Initial(), TransactionsFetched{Transactions: []core.Transaction{row}})

	s = Reduce(s, Pending{Op: OpUpdateTransaction, Seq: 1})
	s = Reduce(s, Rejected{Op: OpUpdateTransaction, Seq: 1, Message: "Transaction not found"})

	assert.Equal(t, []core.Transaction{row}, s.Transactions)
	assert.Equal(t, "Transaction not found", s.Err(ResourceTransaction))
	assert.False(t, s.Loading(ResourceTransaction))
}
