// Package store holds the per-session state container: a pure reducer
// plus operations that wrap API calls in pending/fulfilled/rejected
// transitions.
package store

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"wallet/internal/apiclient"
	"wallet/internal/core"
	"wallet/internal/log"
	"wallet/internal/metrics"
)

// API is the part of the wallet API the store drives
type API interface {
	ListCategories(ctx context.Context) ([]core.Category, error)
	ListTransactions(ctx context.Context) ([]core.Transaction, error)
	CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error)
	UpdateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error)
	DeleteTransaction(ctx context.Context, id string) error
}

// Store serialises dispatches; operations on it may run concurrently.
type Store struct {
	api     API
	logger  *log.Logger
	metrics metrics.Recorder

	mu      sync.Mutex
	state   State
	seq     uint64
	subs    map[int]chan State
	nextSub int
}

type Option func(*Store)

func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.logger = l.WithComponent(log.ComponentStore) }
}

func WithMetrics(m metrics.Recorder) Option {
	return func(s *Store) { s.metrics = m }
}

// New returns a store in the initial state
func New(api API, opts ...Option) *Store {
	s := &Store{
		api:     api,
		logger:  log.Discard(),
		metrics: metrics.Nop{},
		state:   Initial(),
		subs:    map[int]chan State{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current snapshot
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Dispatch applies a through Reduce, notifies subscribers and returns the
// new state.
func (s *Store) Dispatch(a Action) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dispatchLocked(a)
}

func (s *Store) dispatchLocked(a Action) State {
	s.state = Reduce(s.state, a)
	for _, ch := range s.subs {
		publish(ch, s.state)
	}
	return s.state
}

// publish keeps only the newest snapshot for slow subscribers
func publish(ch chan State, st State) {
	for {
		select {
		case ch <- st:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

// Subscribe returns a channel receiving the state after every dispatch.
// Slow readers only see the latest snapshot. Call cancel to stop.
func (s *Store) Subscribe() (updates <-chan State, cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	ch := make(chan State, 1)
	s.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, id)
			close(ch)
		})
	}
}

// begin allocates the sequence number for a new request and dispatches
// its pending action atomically, so sequence order equals dispatch order.
func (s *Store) begin(op Operation) uint64 {
	s.mu.Lock()
	s.seq++
	seq := s.seq
	s.dispatchLocked(Pending{Op: op, Seq: seq})
	s.mu.Unlock()

	s.logger.Debug("Operation pending", log.NewFields().WithStoreOp(string(op), string(op.Resource()), seq).ToSlice()...)
	return seq
}

func (s *Store) finish(ctx context.Context, op Operation, seq uint64, action Action, err error) error {
	if err != nil {
		action = Rejected{Op: op, Seq: seq, Message: apiclient.Message(err)}
	}
	next := s.Dispatch(action)

	status := "fulfilled"
	if err != nil {
		status = "rejected"
	}
	if next.Status[op.Resource()].Seq != seq {
		status = "stale"
	}
	s.metrics.StoreOperation(string(op), status)

	fields := log.NewFields().WithStoreOp(string(op), string(op.Resource()), seq)
	if err != nil {
		s.logger.WarnContext(ctx, "Operation rejected", fields.WithError(err).ToSlice()...)
		return fmt.Errorf("%s: %w", op, err)
	}
	s.logger.DebugContext(ctx, "Operation "+status, fields.ToSlice()...)
	return nil
}

// GetCategory fetches the category collection. On failure the previous
// collection is kept.
func (s *Store) GetCategory(ctx context.Context) error {
	seq := s.begin(OpGetCategory)
	cats, err := s.api.ListCategories(ctx)
	return s.finish(ctx, OpGetCategory, seq, CategoriesFetched{Seq: seq, Categories: cats}, err)
}

// GetTransactions fetches the transaction collection.
func (s *Store) GetTransactions(ctx context.Context) error {
	seq := s.begin(OpGetTransactions)
	txs, err := s.api.ListTransactions(ctx)
	return s.finish(ctx, OpGetTransactions, seq, TransactionsFetched{Seq: seq, Transactions: txs}, err)
}

// CreateTransaction submits tx and stores the API's copy in the
// transaction slot.
func (s *Store) CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	seq := s.begin(OpCreateTransaction)
	created, err := s.api.CreateTransaction(ctx, tx)
	if err := s.finish(ctx, OpCreateTransaction, seq, TransactionCreated{Seq: seq, Transaction: created}, err); err != nil {
		return core.Transaction{}, err
	}
	return created, nil
}

// UpdateTransaction replaces tx as a whole. The API's copy lands in the
// transaction slot and in the matching row of the collection.
func (s *Store) UpdateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	seq := s.begin(OpUpdateTransaction)
	updated, err := s.api.UpdateTransaction(ctx, tx)
	if err := s.finish(ctx, OpUpdateTransaction, seq, TransactionUpdated{Seq: seq, Transaction: updated}, err); err != nil {
		return core.Transaction{}, err
	}
	return updated, nil
}

// DeleteTransaction removes a transaction remotely, then locally.
func (s *Store) DeleteTransaction(ctx context.Context, id string) error {
	seq := s.begin(OpDeleteTransaction)
	err := s.api.DeleteTransaction(ctx, id)
	return s.finish(ctx, OpDeleteTransaction, seq, TransactionDeleted{Seq: seq, ID: id}, err)
}

// Refresh reloads categories and transactions concurrently. Both run to
// completion; the first error is returned.
func (s *Store) Refresh(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error { return s.GetCategory(ctx) })
	g.Go(func() error { return s.GetTransactions(ctx) })
	return g.Wait()
}

// Reset drops all data, e.g. on logout
func (s *Store) Reset() {
	s.Dispatch(Reset{})
}
