package cart

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAdd_RejectsNonPositiveQuantity(t *testing.T) {
	c := &Conf{}
	ctx := context.Background()

	for _, qty := range []int{0, -3} {
		assert.ErrorIs(t, c.AddProduct(ctx, "u1", 1, qty), ErrInvalidQuantity)
		assert.ErrorIs(t, c.AddPackage(ctx, "u1", 1, qty), ErrInvalidQuantity)
	}
}

func TestNewConf_NilDB(t *testing.T) {
	_, err := NewConf(nil)
	assert.Error(t, err)
}
