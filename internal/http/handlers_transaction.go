package http

import (
	"net/http"
	"slices"

	"wallet/internal/apiclient"
	"wallet/internal/core"
	"wallet/internal/forms"
	"wallet/internal/log"
	"wallet/internal/notify"
)

func (s *Server) handleNewTransaction(w http.ResponseWriter, r *http.Request) {
	s.refresh(r)
	s.renderHome(w, r, homeState{Modal: modalTransaction}, http.StatusOK)
}

// handleEditTransaction opens the modal prefilled with the row being edited.
func (s *Server) handleEditTransaction(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	id := r.PathValue("id")

	s.refresh(r)
	idx := slices.IndexFunc(sess.Store.State().Transactions, func(tx core.Transaction) bool { return tx.ID == id })
	if idx < 0 {
		redirectWithFlash(w, r, sess, notify.Error("Transaction not found"), "/")
		return
	}
	tx := sess.Store.State().Transactions[idx]
	s.renderHome(w, r, homeState{Modal: modalTransaction, TransactionForm: forms.EditForm(tx)}, http.StatusOK)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	if !s.submitTransaction(w, r, "") {
		return
	}
	ctx := r.Context()
	created := sessionFrom(ctx).Store.State().Transaction
	log.NewStructuredLogger(log.FromContext(ctx)).LogTransactionCreated(ctx, string(created.Type), created.Category, created.Amount.String())
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	if s.submitTransaction(w, r, r.PathValue("id")) {
		log.FromContext(r.Context()).InfoContext(r.Context(), "Transaction updated",
			log.FieldOperation, log.OpUpdate, "transaction_id", r.PathValue("id"))
	}
}

// submitTransaction runs the add/edit flow. On success it redirects home
// with the notification; otherwise it re-renders the open modal.
func (s *Server) submitTransaction(w http.ResponseWriter, r *http.Request, id string) bool {
	ctx := r.Context()
	sess := sessionFrom(ctx)

	var form forms.TransactionForm
	if err := decodeForm(w, r, &form); err != nil {
		log.FromContext(ctx).WarnContext(ctx, "Transaction form rejected", log.FieldError, err.Error())
		redirectWithFlash(w, r, sess, notify.Error("Invalid request"), "/")
		return false
	}
	form.ID = id

	res := s.forms.SubmitTransaction(sess.Context(ctx), sess.Store, form)
	if !res.Closed {
		status := http.StatusOK
		if len(res.FieldErrors) > 0 {
			status = http.StatusUnprocessableEntity
		}
		s.renderHome(w, r, homeState{
			Modal:           modalTransaction,
			TransactionForm: form,
			FieldErrors:     res.FieldErrors,
			Flash:           res.Notification,
		}, status)
		return false
	}

	redirectWithFlash(w, r, sess, res.Notification, "/")
	return true
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := sessionFrom(ctx)
	id := r.PathValue("id")

	if err := sess.Store.DeleteTransaction(sess.Context(ctx), id); err != nil {
		log.FromContext(ctx).WarnContext(ctx, "Delete failed", log.FieldOperation, log.OpDelete, "transaction_id", id, log.FieldError, err.Error())
		redirectWithFlash(w, r, sess, notify.Error(apiclient.Message(err)), "/")
		return
	}
	redirectWithFlash(w, r, sess, notify.Success("Transaction deleted"), "/")
}
