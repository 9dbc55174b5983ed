package forms

import (
	"context"
	"strings"

	"wallet/internal/apiclient"
	"wallet/internal/core"
	"wallet/internal/notify"
)

// TransactionForm is the add/edit-transaction modal. Date defaults to
// today when left empty. ID is set from the URL when editing; an edit
// replaces the whole transaction.
type TransactionForm struct {
	ID       string `form:"-"`
	Type     string `form:"type" validate:"tx_type"`
	Category string `form:"category" validate:"notblank,max=50"`
	Amount   string `form:"amount" validate:"positive_amount"`
	Date     string `form:"date" validate:"omitempty,wallet_date"`
	Comment  string `form:"comment" validate:"max=200"`
}

type TransactionWriter interface {
	CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error)
	UpdateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error)
}

// EditForm prefills the modal from an existing transaction.
func EditForm(tx core.Transaction) TransactionForm {
	return TransactionForm{
		ID:       tx.ID,
		Type:     string(tx.Type),
		Category: tx.Category,
		Amount:   tx.Amount.StringFixed(2),
		Date:     tx.Date.String(),
		Comment:  tx.Comment,
	}
}

// Editing reports whether the form replaces an existing transaction.
func (f TransactionForm) Editing() bool {
	return f.ID != ""
}

func (f TransactionForm) trimmed() TransactionForm {
	f.Type = strings.TrimSpace(f.Type)
	f.Category = strings.TrimSpace(f.Category)
	f.Amount = strings.TrimSpace(f.Amount)
	f.Date = strings.TrimSpace(f.Date)
	f.Comment = strings.TrimSpace(f.Comment)
	return f
}

// Transaction converts a validated form.
func (f *Flow) Transaction(form TransactionForm) (core.Transaction, error) {
	typ, err := core.ParseTransactionType(form.Type)
	if err != nil {
		return core.Transaction{}, err
	}
	amount, err := core.ParseMoney(form.Amount)
	if err != nil {
		return core.Transaction{}, err
	}
	y, m, d := f.now().Date()
	date := core.NewDate(y, int(m), d)
	if strings.TrimSpace(form.Date) != "" {
		if date, err = core.ParseDate(form.Date); err != nil {
			return core.Transaction{}, err
		}
	}
	return core.Transaction{
		ID:       form.ID,
		Type:     typ,
		Category: strings.TrimSpace(form.Category),
		Amount:   amount,
		Date:     date,
		Comment:  strings.TrimSpace(form.Comment),
	}, nil
}

// SubmitTransaction validates form and hands it to w, normally the session
// store so the transaction slot follows the request lifecycle. A form with
// an ID updates that transaction; otherwise a new one is created.
func (f *Flow) SubmitTransaction(ctx context.Context, w TransactionWriter, form TransactionForm) Result {
	form = form.trimmed()
	if fe, err := f.validate(form); err != nil {
		return Result{Notification: notify.Error(apiclient.Message(err))}
	} else if fe != nil {
		return Result{FieldErrors: fe}
	}

	tx, err := f.Transaction(form)
	if err != nil {
		return Result{Notification: notify.Error(apiclient.Message(err))}
	}

	if form.Editing() {
		if _, err := w.UpdateTransaction(ctx, tx); err != nil {
			f.logger.WarnContext(ctx, "Transaction update failed", "transaction_id", tx.ID, "error", err)
			return Result{Notification: notify.Error(apiclient.Message(err))}
		}
		return Result{Closed: true, Notification: notify.Success("Transaction updated")}
	}

	if _, err := w.CreateTransaction(ctx, tx); err != nil {
		f.logger.WarnContext(ctx, "Transaction creation failed", "category", tx.Category, "error", err)
		return Result{Notification: notify.Error(apiclient.Message(err))}
	}
	return Result{Closed: true, Notification: notify.Success("Transaction added")}
}
