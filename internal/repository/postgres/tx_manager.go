package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/yourusername/contest-api/internal/domain/repository"
)

// store выдает репозитории поверх одного *gorm.DB (обычно транзакции)
type store struct {
	db *gorm.DB
}

func (s store) Users() repository.UserRepository { return NewUserRepo(s.db) }

func (s store) Contests() repository.ContestRepository { return NewContestRepo(s.db) }

func (s store) Participations() repository.ParticipationRepository {
	return NewParticipationRepo(s.db)
}

func (s store) Prizes() repository.PrizeRepository { return NewPrizeRepo(s.db) }

// TxManager реализует repository.TxManager через транзакции GORM
type TxManager struct {
	db *gorm.DB
}

// NewTxManager создает менеджер транзакций
func NewTxManager(db *gorm.DB) *TxManager {
	return &TxManager{db: db}
}

// WithinTransaction выполняет fn в транзакции; ошибка или паника откатывают ее
func (m *TxManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context, store repository.Store) error) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, store{db: tx})
	})
}

// NewStore возвращает репозитории без транзакции
func NewStore(db *gorm.DB) repository.Store {
	return store{db: db}
}
