package repository

import "context"

// Transactor выполняет fn в одной транзакции хранилища. Репозитории, получившие
// ctx изнутри fn, работают в этой же транзакции. Вложенный вызов переиспользует
// внешнюю транзакцию.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
