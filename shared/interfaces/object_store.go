package interfaces

import (
	"context"
	"io"
)

// ObjectStore - хранилище бинарных объектов (аватары).
//
//go:generate mockery --name ObjectStore --output ./mocks --outpkg mocks --case=underscore
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	// PublicURL возвращает публичный URL объекта.
	PublicURL(key string) string
	// KeyFromURL выполняет обратное преобразование. false, если URL не из этого хранилища.
	KeyFromURL(url string) (string, bool)
}
