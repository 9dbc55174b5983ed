package store

import (
	"maps"

	"wallet/internal/core"
)

// ResourceStatus tracks the newest request issued for a resource.
type ResourceStatus struct {
	Loading bool
	Seq     uint64
	Err     string
}

// State is the client-side mirror of the user's wallet data. Values
// returned by the store are snapshots and must be treated as read-only:
// Reduce never modifies slices or maps in place, it replaces them.
type State struct {
	// Transaction is the slot holding the most recently created transaction.
	Transaction  core.Transaction
	Transactions []core.Transaction
	Categories   []core.Category
	Status       map[Resource]ResourceStatus
}

// Initial is the state of a freshly logged-in session.
func Initial() State {
	return State{
		Transactions: []core.Transaction{},
		Categories:   []core.Category{},
		Status:       map[Resource]ResourceStatus{},
	}
}

// Loading reports whether the newest request for r has not finished.
func (s State) Loading(r Resource) bool {
	return s.Status[r].Loading
}

// AnyLoading reports whether any resource is loading.
func (s State) AnyLoading() bool {
	for _, st := range s.Status {
		if st.Loading {
			return true
		}
	}
	return false
}

// Err is the message of the last rejected request for r, cleared by the
// next pending one.
func (s State) Err(r Resource) string {
	return s.Status[r].Err
}

// Reduce applies a to s and returns the next state. It is pure: s is not
// modified and no I/O happens. A terminal action whose Seq is older than
// the newest pending request for its resource is stale and ignored, so a
// slow response can never overwrite data from a newer one.
func Reduce(s State, a Action) State {
	switch a := a.(type) {
	case Pending:
		r := a.Op.Resource()
		if a.Seq < s.Status[r].Seq {
			return s
		}
		return s.withStatus(r, ResourceStatus{Loading: true, Seq: a.Seq})

	case Rejected:
		r := a.Op.Resource()
		if !s.current(r, a.Seq) {
			return s
		}
		return s.withStatus(r, ResourceStatus{Seq: a.Seq, Err: a.Message})

	case CategoriesFetched:
		if !s.current(ResourceCategories, a.Seq) {
			return s
		}
		next := s.withStatus(ResourceCategories, ResourceStatus{Seq: a.Seq})
		next.Categories = nonNil(a.Categories)
		return next

	case TransactionCreated:
		if !s.current(ResourceTransaction, a.Seq) {
			return s
		}
		next := s.withStatus(ResourceTransaction, ResourceStatus{Seq: a.Seq})
		next.Transaction = a.Transaction
		return next

	case TransactionUpdated:
		if !s.current(ResourceTransaction, a.Seq) {
			return s
		}
		next := s.withStatus(ResourceTransaction, ResourceStatus{Seq: a.Seq})
		next.Transaction = a.Transaction
		next.Transactions = replaced(s.Transactions, a.Transaction)
		return next

	case TransactionsFetched:
		if !s.current(ResourceTransactions, a.Seq) {
			return s
		}
		next := s.withStatus(ResourceTransactions, ResourceStatus{Seq: a.Seq})
		next.Transactions = nonNil(a.Transactions)
		return next

	case TransactionDeleted:
		// A delete is applied even when stale: removing a row the server
		// no longer has is always correct. Only the loading flag waits
		// for the newest request.
		next := s
		if s.current(ResourceTransactions, a.Seq) {
			next = s.withStatus(ResourceTransactions, ResourceStatus{Seq: a.Seq})
		}
		next.Transactions = without(s.Transactions, a.ID)
		return next

	case Reset:
		return Initial()
	}
	return s
}

func (s State) current(r Resource, seq uint64) bool {
	return seq == s.Status[r].Seq
}

func (s State) withStatus(r Resource, st ResourceStatus) State {
	status := make(map[Resource]ResourceStatus, len(s.Status)+1)
	maps.Copy(status, s.Status)
	status[r] = st
	s.Status = status
	return s
}

func without(txs []core.Transaction, id string) []core.Transaction {
	out := make([]core.Transaction, 0, len(txs))
	for _, t := range txs {
		if t.ID != id {
			out = append(out, t)
		}
	}
	return out
}

// replaced swaps the row with tx.ID for tx; rows are never merged field by field.
func replaced(txs []core.Transaction, tx core.Transaction) []core.Transaction {
	out := make([]core.Transaction, len(txs))
	for i, t := range txs {
		if t.ID == tx.ID {
			t = tx
		}
		out[i] = t
	}
	return out
}

func nonNil[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
