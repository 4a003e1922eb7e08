// Package forms mediates between raw form input, validation and the record
// stores. Each collection gets one controller tracking create-vs-edit mode.
package forms

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"curapharm/internal/adapters/storage/localstore"
	"curapharm/internal/adapters/storage/records"
	"curapharm/internal/domain/validation"
)

// Messages holds the collection-specific UI strings.
type Messages struct {
	CreateTitle string // form heading in create mode
	EditTitle   string // form heading in edit mode
	Added       string
	Updated     string
	Duplicate   string // shown when Add hits a uniqueness conflict
}

// Result is the outcome of a submit.
type Result struct {
	FieldErrors validation.FieldErrors // non-empty: submission blocked, state unchanged
	Error       string                 // duplicate or storage failure message
	Success     string                 // set on successful persist
	Saved       bool                   // true when the store changed; tables and analytics must refresh
}

// Controller is the form state machine: Creating (initial) or Editing(index).
// I is the raw input type, T the record type.
type Controller[I, T any] struct {
	store    *records.Store[T]
	validate func(I) validation.FieldErrors
	build    func(I) T
	msgs     Messages

	mu        sync.Mutex
	editing   bool
	editIndex int
}

// New creates a controller in the Creating state.
func New[I, T any](store *records.Store[T], validate func(I) validation.FieldErrors, build func(I) T, msgs Messages) *Controller[I, T] {
	return &Controller[I, T]{store: store, validate: validate, build: build, msgs: msgs}
}

// State returns the current mode and, when editing, the record index.
func (c *Controller[I, T]) State() (editing bool, index int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.editing, c.editIndex
}

// FormTitle returns the heading for the current mode.
func (c *Controller[I, T]) FormTitle() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.editing {
		return c.msgs.EditTitle
	}
	return c.msgs.CreateTitle
}

// EnterEdit transitions to Editing(index) and returns the record for
// pre-filling the form. An out-of-range index leaves the state unchanged.
func (c *Controller[I, T]) EnterEdit(index int) (T, error) {
	rec, err := c.store.Get(index)
	if err != nil {
		return rec, err
	}
	c.mu.Lock()
	c.editing = true
	c.editIndex = index
	c.mu.Unlock()
	return rec, nil
}

// CancelEdit returns to the Creating state.
func (c *Controller[I, T]) CancelEdit() {
	c.mu.Lock()
	c.editing = false
	c.editIndex = 0
	c.mu.Unlock()
}

// Submit runs the full pipeline: validate, normalize, then add or update
// depending on the current mode. Validation failures, duplicates and storage
// failures all leave the mode unchanged so the user can correct and retry.
// A successful edit returns to Creating.
func (c *Controller[I, T]) Submit(ctx context.Context, in I) Result {
	if errs := c.validate(in); !errs.OK() {
		return Result{FieldErrors: errs}
	}

	rec := c.build(in)

	c.mu.Lock()
	editing, index := c.editing, c.editIndex
	c.mu.Unlock()

	if !editing {
		err := c.store.Add(ctx, rec)
		if errors.Is(err, records.ErrDuplicate) {
			return Result{Error: c.msgs.Duplicate}
		}
		if err != nil {
			// The append is in memory; only the persist failed.
			return Result{Error: localstore.FailureMessage(err), Saved: true}
		}
		slog.Info("form_event", "event", "record_added", "title", c.msgs.CreateTitle)
		return Result{Success: c.msgs.Added, Saved: true}
	}

	err := c.store.Update(ctx, index, rec)
	if errors.Is(err, records.ErrIndexOutOfRange) {
		// The edited record was deleted out from under the form.
		c.CancelEdit()
		return Result{Error: "record no longer exists, try again"}
	}
	if err != nil {
		return Result{Error: localstore.FailureMessage(err), Saved: true}
	}

	c.CancelEdit()
	slog.Info("form_event", "event", "record_updated", "index", index, "title", c.msgs.EditTitle)
	return Result{Success: c.msgs.Updated, Saved: true}
}
