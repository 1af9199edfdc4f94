// Package errors содержит общие для адаптеров ошибки
package errors

import "errors"

var (
	// ErrCacheMiss ключ отсутствует в кэше
	ErrCacheMiss = errors.New("cache miss")
)
