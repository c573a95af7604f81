package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateSupplier(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	email := "  sales@acme.test "
	blank := "   "
	s, err := f.supplier.CreateSupplier(ctx, SupplierRequest{Name: " Acme ", Email: &email, Phone: &blank}, f.actor)
	require.NoError(t, err)
	assert.Equal(t, "Acme", s.Name)
	require.NotNil(t, s.Email)
	assert.Equal(t, "sales@acme.test", *s.Email)
	assert.Nil(t, s.Phone)

	bad := "not-an-email"
	_, err = f.supplier.CreateSupplier(ctx, SupplierRequest{Email: &bad}, f.actor)
	fields := validationFields(t, err)
	assert.Contains(t, fields, "name")
	assert.Contains(t, fields, "email")
}

func TestUpdateSupplier(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.newSupplier(t, "Acme")

	updated, err := f.supplier.UpdateSupplier(ctx, s.ID, SupplierRequest{Name: "Acme Corp"}, f.actor)
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", updated.Name)

	_, err = f.supplier.UpdateSupplier(ctx, uuid.New(), SupplierRequest{Name: "Ghost"}, f.actor)
	var nf *NotFoundError
	assert.True(t, errors.As(err, &nf))
}

func TestSupplierDeletionRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.newSupplier(t, "Acme")
	p := f.newProduct(t, s.ID, "W-1", "1", "2", 0)

	var conflict *ConflictError
	require.True(t, errors.As(f.supplier.DeleteSupplier(ctx, s.ID), &conflict), "live product blocks soft delete")

	require.NoError(t, f.catalog.DeleteProduct(ctx, p.ID, f.actor))
	require.NoError(t, f.supplier.DeleteSupplier(ctx, s.ID))

	trashed, err := f.supplier.ListTrashedSuppliers(ctx)
	require.NoError(t, err)
	assert.Len(t, trashed, 1)

	require.True(t, errors.As(f.supplier.ForceDeleteSupplier(ctx, s.ID), &conflict), "trashed product blocks force delete")

	require.NoError(t, f.catalog.ForceDeleteProduct(ctx, p.ID))
	require.NoError(t, f.supplier.ForceDeleteSupplier(ctx, s.ID))

	var nf *NotFoundError
	assert.True(t, errors.As(f.supplier.RestoreSupplier(ctx, s.ID), &nf))
}

func TestRestoreSupplier(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	s := f.newSupplier(t, "Acme")

	var conflict *ConflictError
	assert.True(t, errors.As(f.supplier.RestoreSupplier(ctx, s.ID), &conflict))
	assert.True(t, errors.As(f.supplier.ForceDeleteSupplier(ctx, s.ID), &conflict))

	require.NoError(t, f.supplier.DeleteSupplier(ctx, s.ID))
	_, err := f.supplier.GetSupplier(ctx, s.ID)
	var nf *NotFoundError
	assert.True(t, errors.As(err, &nf))

	require.NoError(t, f.supplier.RestoreSupplier(ctx, s.ID))
	list, err := f.supplier.ListSuppliers(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
