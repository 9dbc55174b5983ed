package store

import "wallet/internal/core"

// Operation names an asynchronous unit of work with pending, fulfilled
// and rejected phases.
type Operation string

const (
	OpGetCategory       Operation = "getCategory"
	OpCreateTransaction Operation = "createTransaction"
	OpGetTransactions   Operation = "getTransactions"
	OpDeleteTransaction Operation = "deleteTransaction"
	OpUpdateTransaction Operation = "updateTransaction"
)

// Resource is the slice of state an operation writes to. Each resource
// has its own loading flag.
type Resource string

const (
	ResourceCategories   Resource = "categories"
	ResourceTransaction  Resource = "transaction"
	ResourceTransactions Resource = "transactions"
)

// Resource returns the state slice op writes to.
func (op Operation) Resource() Resource {
	switch op {
	case OpGetCategory:
		return ResourceCategories
	case OpCreateTransaction, OpUpdateTransaction:
		return ResourceTransaction
	default:
		return ResourceTransactions
	}
}

// Action is the closed set of state transitions understood by Reduce.
type Action interface {
	isAction()
}

type (
	// Pending marks the start of an operation; Seq must be greater than
	// any earlier Seq for the same resource.
	Pending struct {
		Op  Operation
		Seq uint64
	}

	// Rejected ends an operation with the user-facing error message.
	Rejected struct {
		Op      Operation
		Seq     uint64
		Message string
	}

	CategoriesFetched struct {
		Seq        uint64
		Categories []core.Category
	}

	TransactionCreated struct {
		Seq         uint64
		Transaction core.Transaction
	}

	// TransactionUpdated carries the API's full replacement for a
	// transaction; there are no partial updates.
	TransactionUpdated struct {
		Seq         uint64
		Transaction core.Transaction
	}

	TransactionsFetched struct {
		Seq          uint64
		Transactions []core.Transaction
	}

	TransactionDeleted struct {
		Seq uint64
		ID  string
	}

	// Reset returns to the initial state, e.g. on logout.
	Reset struct{}
)

func (Pending) isAction()             {}
func (Rejected) isAction()            {}
func (CategoriesFetched) isAction()   {}
func (TransactionCreated) isAction()  {}
func (TransactionUpdated) isAction()  {}
func (TransactionsFetched) isAction() {}
func (TransactionDeleted) isAction()  {}
func (Reset) isAction()               {}
