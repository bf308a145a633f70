package draft

import (
	"context"
	"maps"
	"reflect"

	"github.com/kbukum/draftkit/kv"
)

// Fields is the value type of a form draft: field name to field value.
type Fields = map[string]any

// Form adapts a Store of Fields to field-level edits.
type Form struct {
	store   *Store[Fields]
	initial Fields
}

// NewForm creates a form draft for key starting from initial.
func NewForm(backend kv.Store, key string, initial Fields, opts Options[Fields]) (*Form, error) {
	initial = maps.Clone(initial)
	if initial == nil {
		initial = Fields{}
	}
	store, err := New(backend, key, maps.Clone(initial), opts)
	if err != nil {
		return nil, err
	}
	return &Form{store: store, initial: initial}, nil
}

// Store exposes the underlying draft store.
func (f *Form) Store() *Store[Fields] { return f.store }

// Load hydrates the form from storage.
func (f *Form) Load(ctx context.Context) error { return f.store.Load(ctx) }

// Values returns a copy of the current fields.
func (f *Form) Values() Fields { return maps.Clone(f.store.Draft()) }

// Field returns one field and whether it is set.
func (f *Form) Field(name string) (any, bool) {
	v, ok := f.store.Draft()[name]
	return v, ok
}

// UpdateField sets one field. Setting a field to its current value does
// nothing.
func (f *Form) UpdateField(ctx context.Context, name string, value any) error {
	return f.UpdateFields(ctx, Fields{name: value})
}

// UpdateFields merges partial into the form. When every field already holds
// the given value nothing is scheduled.
func (f *Form) UpdateFields(ctx context.Context, partial Fields) error {
	return f.store.updateIfChanged(ctx, func(cur Fields) (Fields, bool) {
		changed := false
		for k, v := range partial {
			if old, ok := cur[k]; !ok || !reflect.DeepEqual(old, v) {
				changed = true
				break
			}
		}
		if !changed {
			return cur, false
		}
		next := maps.Clone(cur)
		if next == nil {
			next = Fields{}
		}
		maps.Copy(next, partial)
		return next, true
	})
}

// Reset restores the initial fields and removes the stored draft.
func (f *Form) Reset(ctx context.Context) error {
	return f.store.Clear(ctx)
}

// Flush writes any pending change now.
func (f *Form) Flush(ctx context.Context) error { return f.store.Flush(ctx) }

// Close flushes pending changes and releases the store.
func (f *Form) Close(ctx context.Context) error { return f.store.Close(ctx) }
