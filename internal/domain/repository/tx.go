package repository

import "context"

// Store выдает репозитории, привязанные к одной транзакции
type Store interface {
	Users() UserRepository
	Contests() ContestRepository
	Participations() ParticipationRepository
	Prizes() PrizeRepository
}

// TxManager выполняет fn в одной транзакции.
// Ошибка из fn откатывает все изменения, сделанные через store.
type TxManager interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context, store Store) error) error
}
