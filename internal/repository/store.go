package repository

import (
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/freelance-escrow/internal/domain/repository"
	"github.com/ignatzorin/freelance-escrow/internal/repository/common"
)

// NewStore собирает SQL-репозитории поверх одного подключения.
// Запросы общие для PostgreSQL и SQLite, плейсхолдеры подставляет Rebind.
func NewStore(db *sqlx.DB) repository.Store {
	return repository.Store{
		Tx:           common.NewTransactor(db),
		Accounts:     NewAccountRepository(db),
		Orders:       NewOrderRepository(db),
		Responses:    NewResponseRepository(db),
		Requests:     NewEscrowRequestRepository(db),
		Reviews:      NewReviewRepository(db),
		Services:     NewServiceListingRepository(db),
		Transactions: NewTransactionRepository(db),
	}
}
