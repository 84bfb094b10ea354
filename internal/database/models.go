// Package database предоставляет модели данных и репозитории для работы с PostgreSQL.
// Использует GORM ORM с prepared statements для защиты от SQL injection.
package database

import (
	"time"

	"github.com/shopspring/decimal"
)

// Статусы заявок.
const (
	OrderCreated = "created"
	OrderPartial = "partial"
	OrderDone    = "done"
)

// User представляет пользователя Telegram-чата.
// Роли: user, admin.
type User struct {
	ID         uint      `gorm:"primaryKey"`
	TelegramID int64     `gorm:"uniqueIndex;not null"` // ID пользователя в Telegram
	Username   string    `gorm:"type:varchar(64)"`
	Role       string    `gorm:"type:varchar(16);not null;default:'user'"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

// Wallet представляет счет чата. Счет общий для всех участников чата,
// баланс не хранится — считается суммой транзакций wallet_txs.
type Wallet struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    uint      `gorm:"not null"`                              // Кто завел счет
	ChatID    int64     `gorm:"not null;uniqueIndex:idx_wallet_chat_code"` // Чат, которому принадлежит счет
	Code      string    `gorm:"type:varchar(8);not null;uniqueIndex:idx_wallet_chat_code"`
	Precision int       `gorm:"not null;default:2"` // Разрядов после запятой при выводе (0-8)
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

// WalletTx представляет одну проводку по счету.
type WalletTx struct {
	ID        uint            `gorm:"primaryKey"`
	UserID    uint            `gorm:"index;not null"`
	ChatID    int64           `gorm:"not null"`
	Code      string          `gorm:"type:varchar(8);not null"`
	Amount    decimal.Decimal `gorm:"type:numeric(24,8);not null"` // Знак определяет направление
	Comment   string          `gorm:"type:text"`
	CreatedAt time.Time       `gorm:"autoCreateTime"`
}

// Order представляет заявку на обмен: получаем рубли, отдаем USDT по курсу.
type Order struct {
	ID            uint            `gorm:"primaryKey"`
	UserID        uint            `gorm:"index;not null"`
	ChatID        int64           // Чат, где создана заявка
	MessageID     int             // Сообщение с карточкой заявки (для редактирования)
	RubGet        decimal.Decimal `gorm:"type:numeric(24,2);not null"`
	RubGive       decimal.Decimal `gorm:"type:numeric(24,2);not null"`
	Rate          decimal.Decimal `gorm:"type:numeric(18,6);not null"`
	UsdtAmount    decimal.Decimal `gorm:"type:numeric(24,2);not null"`
	SentUsdt      decimal.Decimal `gorm:"type:numeric(24,2);not null;default:0"`
	RemainingUsdt decimal.Decimal `gorm:"type:numeric(24,2);not null;default:0"`
	Status        string          `gorm:"type:varchar(16);not null;default:'created'"`
	CreatedAt     time.Time       `gorm:"autoCreateTime"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime"`
}
