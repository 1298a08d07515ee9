package mocks

import (
	"context"

	"alterstory-server/shared/interfaces"

	"github.com/stretchr/testify/mock"
)

// TxManager is a mock type for the TxManager type.
// Если ожидание не задано через On, fn выполняется сразу с nil-транзакцией.
type TxManager struct {
	mock.Mock
	Passthrough bool
}

// NewPassthroughTxManager возвращает менеджер, который просто вызывает fn.
func NewPassthroughTxManager() *TxManager {
	return &TxManager{Passthrough: true}
}

func (m *TxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx interfaces.DBTX) error) error {
	if m.Passthrough {
		return fn(ctx, nil)
	}
	args := m.Called(ctx, fn)
	return args.Error(0)
}
