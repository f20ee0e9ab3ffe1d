package repository

// Store собирает репозитории одного хранилища вместе с его Transactor.
type Store struct {
	Tx           Transactor
	Accounts     AccountRepository
	Orders       OrderRepository
	Responses    ResponseRepository
	Requests     EscrowRequestRepository
	Reviews      ReviewRepository
	Services     ServiceListingRepository
	Transactions TransactionRepository
}
