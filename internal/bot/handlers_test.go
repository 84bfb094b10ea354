package bot

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kursBot/internal/database"
)

func TestSplitSendArgs(t *testing.T) {
	// Номер заявки отделяется от суммы, а не склеивается с ней
	id, hasID, rest := splitSendArgs("12 5000")
	require.True(t, hasID)
	assert.Equal(t, uint64(12), id)
	assert.Equal(t, "5000", rest)

	id, hasID, rest = splitSendArgs("7 gelusd 100")
	require.True(t, hasID)
	assert.Equal(t, uint64(7), id)
	assert.Equal(t, "gelusd 100", rest)

	// Одинокое число — сумма, а не номер
	_, hasID, rest = splitSendArgs("5000")
	assert.False(t, hasID)
	assert.Equal(t, "5000", rest)

	// Первый токен не число — номера нет
	_, hasID, rest = splitSendArgs("gelusd 100")
	assert.False(t, hasID)
	assert.Equal(t, "gelusd 100", rest)
}

func TestRecalcOrder(t *testing.T) {
	o := &database.Order{
		UsdtAmount: decimal.NewFromInt(10000),
	}

	recalcOrder(o)
	assert.Equal(t, database.OrderCreated, o.Status)
	assert.Equal(t, "10000", o.RemainingUsdt.String())

	o.SentUsdt = decimal.NewFromInt(4000)
	recalcOrder(o)
	assert.Equal(t, database.OrderPartial, o.Status)
	assert.Equal(t, "6000", o.RemainingUsdt.String())

	o.SentUsdt = decimal.NewFromInt(10000)
	recalcOrder(o)
	assert.Equal(t, database.OrderDone, o.Status)
	assert.True(t, o.RemainingUsdt.IsZero())
}

// Переотправка сверх суммы заявки закрывает ее, остаток не уходит в минус.
func TestRecalcOrderOverSendClamps(t *testing.T) {
	o := &database.Order{
		UsdtAmount: decimal.NewFromInt(10000),
		SentUsdt:   decimal.NewFromInt(10500),
	}
	recalcOrder(o)

	assert.Equal(t, database.OrderDone, o.Status)
	assert.True(t, o.RemainingUsdt.IsZero(), "остаток: %s", o.RemainingUsdt)
}

func TestIsAdmin(t *testing.T) {
	assert.True(t, isAdmin(&database.User{Role: "admin"}))
	assert.False(t, isAdmin(&database.User{Role: "user"}))
	assert.False(t, isAdmin(nil))
}

func TestBalanceCodes(t *testing.T) {
	balances := map[string]decimal.Decimal{
		"USD": decimal.NewFromInt(100),
		"EUR": decimal.NewFromInt(50),
	}

	// Без фильтра: все коды по алфавиту, UAH добавляется по нулям
	codes := balanceCodes(balances, "")
	assert.Equal(t, []string{"EUR", "UAH", "USD"}, codes)
	assert.True(t, balances["UAH"].IsZero())

	// С фильтром: только запрошенный счет
	assert.Equal(t, []string{"USD"}, balanceCodes(balances, "USD"))

	// Счет без движений — пусто
	assert.Nil(t, balanceCodes(balances, "KZT"))
}
