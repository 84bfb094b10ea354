package database

import (
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ErrNotFound возвращается репозиториями вместо gorm.ErrRecordNotFound,
// чтобы вызывающий код не зависел от ORM.
var ErrNotFound = errors.New("запись не найдена")

func wrapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByTelegramID(telegramID int64) (*User, error) {
	var u User
	if err := r.db.Where("telegram_id = ?", telegramID).First(&u).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &u, nil
}

// GetOrCreate регистрирует пользователя при первом /start.
// Возвращает true, если пользователь уже существовал.
func (r *UserRepository) GetOrCreate(telegramID int64, username string) (*User, bool, error) {
	u, err := r.GetByTelegramID(telegramID)
	if err == nil {
		return u, true, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}
	created := &User{TelegramID: telegramID, Username: username, Role: "user"}
	if err := r.db.Create(created).Error; err != nil {
		return nil, false, err
	}
	return created, false, nil
}

type WalletRepository struct {
	db *gorm.DB
}

func NewWalletRepository(db *gorm.DB) *WalletRepository {
	return &WalletRepository{db: db}
}

func (r *WalletRepository) GetByChatAndCode(chatID int64, code string) (*Wallet, error) {
	var w Wallet
	if err := r.db.Where("chat_id = ? AND code = ?", chatID, code).First(&w).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &w, nil
}

func (r *WalletRepository) ListByChat(chatID int64) ([]Wallet, error) {
	var ws []Wallet
	if err := r.db.Where("chat_id = ?", chatID).Order("code").Find(&ws).Error; err != nil {
		return nil, err
	}
	return ws, nil
}

func (r *WalletRepository) Create(w *Wallet) error {
	return r.db.Create(w).Error
}

func (r *WalletRepository) UpdatePrecision(id uint, precision int) error {
	return r.db.Model(&Wallet{}).Where("id = ?", id).Update("precision", precision).Error
}

// Delete удаляет счет вместе со всеми его транзакциями в чате.
func (r *WalletRepository) Delete(w *Wallet) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("chat_id = ? AND code = ?", w.ChatID, w.Code).
			Delete(&WalletTx{}).Error; err != nil {
			return err
		}
		return tx.Delete(&Wallet{}, w.ID).Error
	})
}

func (r *WalletRepository) AddTx(tx *WalletTx) error {
	return r.db.Create(tx).Error
}

// ChatBalance считает баланс счета по всем транзакциям чата.
func (r *WalletRepository) ChatBalance(chatID int64, code string) (decimal.Decimal, error) {
	var txs []WalletTx
	if err := r.db.Where("chat_id = ? AND code = ?", chatID, code).Find(&txs).Error; err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, t := range txs {
		total = total.Add(t.Amount)
	}
	return total, nil
}

// UserBalances считает балансы пользователя в чате по кодам счетов.
func (r *WalletRepository) UserBalances(userID uint, chatID int64) (map[string]decimal.Decimal, error) {
	var txs []WalletTx
	if err := r.db.Where("user_id = ? AND chat_id = ?", userID, chatID).Find(&txs).Error; err != nil {
		return nil, err
	}
	balances := make(map[string]decimal.Decimal)
	for _, t := range txs {
		balances[t.Code] = balances[t.Code].Add(t.Amount)
	}
	return balances, nil
}

func (r *WalletRepository) ListTxs(userID uint, chatID int64, code string) ([]WalletTx, error) {
	q := r.db.Where("user_id = ? AND chat_id = ?", userID, chatID)
	if code != "" {
		q = q.Where("code = ?", code)
	}
	var txs []WalletTx
	if err := q.Order("created_at").Find(&txs).Error; err != nil {
		return nil, err
	}
	return txs, nil
}

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) Create(o *Order) error {
	return r.db.Create(o).Error
}

func (r *OrderRepository) GetByID(id uint, chatID int64) (*Order, error) {
	var o Order
	if err := r.db.Where("id = ? AND chat_id = ?", id, chatID).First(&o).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &o, nil
}

func (r *OrderRepository) GetByMessage(chatID int64, messageID int) (*Order, error) {
	var o Order
	if err := r.db.Where("chat_id = ? AND message_id = ?", chatID, messageID).First(&o).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &o, nil
}

// LastOpen возвращает последнюю незакрытую заявку пользователя в чате.
func (r *OrderRepository) LastOpen(userID uint, chatID int64) (*Order, error) {
	var o Order
	err := r.db.Where("user_id = ? AND chat_id = ? AND status IN ?",
		userID, chatID, []string{OrderCreated, OrderPartial}).
		Order("created_at DESC").First(&o).Error
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &o, nil
}

func (r *OrderRepository) ListByChat(chatID int64, userID uint) ([]Order, error) {
	q := r.db.Where("chat_id = ?", chatID)
	if userID != 0 {
		q = q.Where("user_id = ?", userID)
	}
	var orders []Order
	if err := q.Order("created_at").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *OrderRepository) Update(o *Order) error {
	return r.db.Save(o).Error
}

func (r *OrderRepository) SetMessage(id uint, chatID int64, messageID int) error {
	return r.db.Model(&Order{}).Where("id = ?", id).Updates(map[string]any{
		"chat_id":    chatID,
		"message_id": messageID,
	}).Error
}
