// Package forms implements the submit flows of the create-category and
// add/edit-transaction modals: validate, call the API once, and report
// the outcome as a notification.
package forms

import (
	"context"
	"fmt"
	"strings"
	"time"

	"wallet/internal/apiclient"
	"wallet/internal/core"
	"wallet/internal/log"
	"wallet/internal/notify"
	"wallet/internal/validation"
)

// Form is the create-category modal. The type switch is off for expense.
type Form struct {
	CategoryName string `form:"categoryName" validate:"notblank,max=50"`
	Income       bool   `form:"income"`
}

func (f Form) Type() core.TransactionType {
	if f.Income {
		return core.Income
	}
	return core.Expense
}

// Category is the creation payload.
func (f Form) Category() core.Category {
	return core.Category{Name: strings.TrimSpace(f.CategoryName), Type: f.Type()}
}

// trimmed is the form as it will be sent, which is what gets validated.
func (f Form) trimmed() Form {
	f.CategoryName = strings.TrimSpace(f.CategoryName)
	return f
}

type CategoryCreator interface {
	CreateCategory(ctx context.Context, cat core.Category) (core.Category, error)
}

// Result tells the view what to do with the modal. FieldErrors is set
// only when validation failed; no request was made in that case.
type Result struct {
	Closed       bool
	FieldErrors  validation.FieldErrors
	Notification *notify.Notification
}

type Flow struct {
	validator *validation.Validator
	logger    *log.Logger
	now       func() time.Time
}

type Option func(*Flow)

func WithLogger(l *log.Logger) Option {
	return func(f *Flow) { f.logger = l.WithComponent(log.ComponentCategory) }
}

// WithClock sets the source of the default transaction date.
func WithClock(now func() time.Time) Option {
	return func(f *Flow) { f.now = now }
}

func New(opts ...Option) *Flow {
	f := &Flow{
		validator: validation.Default(),
		logger:    log.Discard(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// SubmitCategory validates form and creates the category. On success the
// modal closes with "Category <name> is created"; on failure it stays
// open and shows the server's message.
func (f *Flow) SubmitCategory(ctx context.Context, creator CategoryCreator, form Form) Result {
	form = form.trimmed()
	if fe, err := f.validate(form); err != nil {
		return Result{Notification: notify.Error(apiclient.Message(err))}
	} else if fe != nil {
		return Result{FieldErrors: fe}
	}

	created, err := creator.CreateCategory(ctx, form.Category())
	if err != nil {
		f.logger.WarnContext(ctx, "Category creation failed", "category", form.CategoryName, "error", err)
		return Result{Notification: notify.Error(apiclient.Message(err))}
	}

	name := created.Name
	if name == "" {
		name = form.Category().Name
	}
	f.logger.InfoContext(ctx, "Category created", "category", name, "type", string(form.Type()))
	return Result{Closed: true, Notification: notify.Success(fmt.Sprintf("Category %s is created", name))}
}

// validate returns field errors for user mistakes and err for anything
// else.
func (f *Flow) validate(form any) (validation.FieldErrors, error) {
	err := f.validator.Struct(form)
	if err == nil {
		return nil, nil
	}
	if fe, ok := err.(validation.FieldErrors); ok {
		return fe, nil
	}
	return nil, err
}
