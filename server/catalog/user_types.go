package catalog

import (
	"context"

	"github.com/gear6io/metastore/server/types"
)

// CreateType records a named user type. Duplicates are rejected by the
// store.
func (h *Handler) CreateType(ctx context.Context, t *types.Type) (err error) {
	name := ""
	if t != nil {
		name = t.Name
	}
	defer h.start(ctx, "create_type", "", name)(&err)

	if t == nil || !types.ValidateName(t.Name) {
		return types.NewInvalidObject("%s is not a valid type name", name)
	}
	if !types.ValidateColNames(t.Fields) {
		return types.NewInvalidObject("type %s has an invalid field name", t.Name)
	}

	ms, err := h.getMS(ctx)
	if err != nil {
		return err
	}
	return ms.CreateType(ctx, t)
}

func (h *Handler) GetType(ctx context.Context, name string) (t *types.Type, err error) {
	defer h.start(ctx, "get_type", "", name)(&err)

	ms, err := h.getMS(ctx)
	if err != nil {
		return nil, err
	}
	return ms.GetType(ctx, name)
}

func (h *Handler) DropType(ctx context.Context, name string) (err error) {
	defer h.start(ctx, "drop_type", "", name)(&err)

	ms, err := h.getMS(ctx)
	if err != nil {
		return err
	}
	return ms.DropType(ctx, name)
}
