// Package report формирует XLSX-выписки: по заявкам и по движению средств.
package report

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"kursBot/internal/database"
)

// Время в отчетах выводится по Алма-Ате, как и в карточках заявок.
var reportLocation = mustLocation("Asia/Almaty")

func mustLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

func fmtTime(t time.Time) string {
	return t.In(reportLocation).Format("02.01.2006 15:04:05")
}

// Orders собирает отчет по заявкам чата.
func Orders(orders []database.Order, all bool) ([]byte, string, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Мои заявки"
	if all {
		sheet = "Все заявки"
	}
	f.SetSheetName("Sheet1", sheet)

	headers := []string{
		"ID", "Дата", "Статус", "Получаем RUB", "Отдаём USDT",
		"Курс", "Отправлено USDT", "Остаток USDT", "Обновлено",
	}
	widths := []float64{8, 20, 12, 16, 16, 10, 16, 16, 20}
	for i, h := range headers {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := col + "1"
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, "", err
		}
		_ = f.SetColWidth(sheet, col, col, widths[i])
	}

	moneyStyle, err := numStyle(f, "#,##0.00")
	if err != nil {
		return nil, "", err
	}
	rubStyle, err := numStyle(f, "#,##0")
	if err != nil {
		return nil, "", err
	}
	rateStyle, err := numStyle(f, "0.00")
	if err != nil {
		return nil, "", err
	}

	for i, o := range orders {
		row := i + 2
		values := []interface{}{
			o.ID,
			fmtTime(o.CreatedAt),
			o.Status,
			o.RubGet.InexactFloat64(),
			o.UsdtAmount.InexactFloat64(),
			o.Rate.InexactFloat64(),
			o.SentUsdt.InexactFloat64(),
			o.RemainingUsdt.InexactFloat64(),
			fmtTime(o.UpdatedAt),
		}
		for j, v := range values {
			col, _ := excelize.ColumnNumberToName(j + 1)
			if err := f.SetCellValue(sheet, fmt.Sprintf("%s%d", col, row), v); err != nil {
				return nil, "", err
			}
		}
		_ = f.SetCellStyle(sheet, fmt.Sprintf("D%d", row), fmt.Sprintf("D%d", row), rubStyle)
		_ = f.SetCellStyle(sheet, fmt.Sprintf("E%d", row), fmt.Sprintf("E%d", row), moneyStyle)
		_ = f.SetCellStyle(sheet, fmt.Sprintf("F%d", row), fmt.Sprintf("F%d", row), rateStyle)
		_ = f.SetCellStyle(sheet, fmt.Sprintf("G%d", row), fmt.Sprintf("H%d", row), moneyStyle)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}

	scope := "мои"
	if all {
		scope = "все"
	}
	name := fmt.Sprintf("Заявки_%s_%s.xlsx", scope, time.Now().Format("2006-01-02"))
	return buf.Bytes(), name, nil
}

// WalletStatement собирает выписку по транзакциям; code пустой — все счета.
func WalletStatement(txs []database.WalletTx, code string) ([]byte, string, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Выписка"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Дата", "Счёт", "Сумма", "Комментарий"}
	widths := []float64{20, 10, 16, 40}
	for i, h := range headers {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetCellValue(sheet, col+"1", h); err != nil {
			return nil, "", err
		}
		_ = f.SetColWidth(sheet, col, col, widths[i])
	}

	moneyStyle, err := numStyle(f, "#,##0.00########")
	if err != nil {
		return nil, "", err
	}

	for i, tx := range txs {
		row := i + 2
		_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", row), fmtTime(tx.CreatedAt))
		_ = f.SetCellValue(sheet, fmt.Sprintf("B%d", row), tx.Code)
		_ = f.SetCellValue(sheet, fmt.Sprintf("C%d", row), tx.Amount.InexactFloat64())
		_ = f.SetCellValue(sheet, fmt.Sprintf("D%d", row), tx.Comment)
		_ = f.SetCellStyle(sheet, fmt.Sprintf("C%d", row), fmt.Sprintf("C%d", row), moneyStyle)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}

	suffix := "все"
	if code != "" {
		suffix = code
	}
	name := fmt.Sprintf("Выписка_%s_%s.xlsx", suffix, time.Now().Format("2006-01-02"))
	return buf.Bytes(), name, nil
}

func numStyle(f *excelize.File, format string) (int, error) {
	return f.NewStyle(&excelize.Style{CustomNumFmt: &format})
}
