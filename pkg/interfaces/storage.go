package interfaces

import (
	"context"
)

// StoragePort определяет интерфейс для работы с постоянным хранилищем данных
// Транзакции выполняются через tx.TxManager
type StoragePort interface {
	// Ping проверяет соединение с хранилищем
	Ping(ctx context.Context) error

	// Close закрывает соединение с хранилищем
	Close() error
}
