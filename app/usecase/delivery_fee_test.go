package usecase_test

import (
	"context"
	"testing"

	"thrift-stock-service/app/domain"
	"thrift-stock-service/app/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeliveryFee(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	fees := usecase.NewDeliveryFeeUsecase(f.fees)

	fee, err := fees.GetByRegion(ctx, "  Bandung ")
	require.NoError(t, err)
	assert.Equal(t, int64(900), fee.Fee)

	_, err = fees.GetByRegion(ctx, " ")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = fees.GetByRegion(ctx, "atlantis")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	list, err := fees.GetList(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "bandung", list[0].Region)
	assert.Equal(t, "jakarta", list[1].Region)
}
