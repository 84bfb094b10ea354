// Package bot — telegram-транспорт: разбор команд, маршрутизация и отправка
// ответов. Клиент создается явно и передается по ссылке, без глобального
// состояния; вся работа с браузером и БД — через внедренные зависимости.
package bot

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"kursBot/internal/converter"
	"kursBot/internal/database"
	"kursBot/internal/logger"
)

type Bot struct {
	api  *tgbotapi.BotAPI
	log  *logger.Zap
	conv *converter.Service

	users   *database.UserRepository
	wallets *database.WalletRepository
	orders  *database.OrderRepository
}

func New(
	token string,
	log *logger.Zap,
	conv *converter.Service,
	users *database.UserRepository,
	wallets *database.WalletRepository,
	orders *database.OrderRepository,
) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации telegram: %w", err)
	}
	return &Bot{
		api:     api,
		log:     log,
		conv:    conv,
		users:   users,
		wallets: wallets,
		orders:  orders,
	}, nil
}

var (
	// Команда-выражение: /123+123*2, /(100+50)/3
	directCalcRe = regexp.MustCompile(`^/[0-9(]`)
	// Команда-счет: /usd 100+50 и любой другой буквенный код
	walletCmdRe = regexp.MustCompile(`^/[\p{L}]{2,8}\b`)
)

// Run крутит long polling до отмены контекста. Каждое обновление
// обрабатывается в своей горутине: конвертация держит браузер десятки
// секунд, и очередь сообщений не должна за ней стоять.
func (b *Bot) Run(ctx context.Context) error {
	b.log.Info("Бот запущен", zap.String("username", b.api.Self.UserName))

	b.setCommands()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.log.Info("Polling остановлен")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			go b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) setCommands() {
	cmds := tgbotapi.NewSetMyCommands(
		tgbotapi.BotCommand{Command: "start", Description: "Начать работу с ботом"},
		tgbotapi.BotCommand{Command: "help", Description: "Помощь по командам"},
	)
	if _, err := b.api.Request(cmds); err != nil {
		b.log.Warn("Не удалось зарегистрировать команды", zap.Error(err))
	}
}

// handleUpdate — граница обработки: ни одна ошибка хендлера не должна
// уронить процесс, все превращается в текст пользователю.
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("Паника в обработчике", zap.Any("panic", r))
		}
	}()

	if update.CallbackQuery != nil {
		b.handleCallback(update.CallbackQuery)
		return
	}
	if update.Message == nil || update.Message.Text == "" {
		return
	}

	msg := update.Message
	text := strings.TrimSpace(msg.Text)
	command := strings.Fields(text)[0]

	switch command {
	case "/start":
		b.handleStart(msg)
	case "/help":
		b.reply(msg.Chat.ID, helpDoc)
	case "/пр":
		b.handleOrderCreate(msg)
	case "/изм":
		b.handleOrderUpdate(msg)
	case "/отпр":
		b.handleOrderSend(ctx, msg)
	case "/заявки":
		b.handleOrdersList(msg)
	case "/дай":
		b.handleBalanceShow(msg)
	case "/добавь":
		b.handleWalletAdd(msg)
	case "/удали":
		b.handleWalletRemove(msg)
	case "/курс":
		b.handleRate(ctx, msg)
	case "/ккурс":
		b.handleKursiRate(ctx, msg)
	case "/калк":
		b.handleCalc(ctx, msg)
	default:
		switch {
		case directCalcRe.MatchString(command):
			b.handleCalc(ctx, msg)
		case walletCmdRe.MatchString(command):
			b.handleWalletAdjust(ctx, msg)
		}
	}
}

func (b *Bot) reply(chatID int64, text string) {
	m := tgbotapi.NewMessage(chatID, text)
	m.ParseMode = tgbotapi.ModeHTML
	m.DisableWebPagePreview = true
	if _, err := b.api.Send(m); err != nil {
		b.log.Error("Ошибка отправки сообщения", zap.Error(err))
	}
}

func (b *Bot) replyPhoto(chatID int64, image []byte, caption string) {
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: "rate.png", Bytes: image})
	photo.Caption = caption
	photo.ParseMode = tgbotapi.ModeHTML
	if _, err := b.api.Send(photo); err != nil {
		b.log.Error("Ошибка отправки фото", zap.Error(err))
		// Фолбэк: подпись текстом, чтобы пользователь не остался без ответа
		b.reply(chatID, caption)
	}
}

func (b *Bot) replyDocument(chatID int64, data []byte, name string) {
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: name, Bytes: data})
	if _, err := b.api.Send(doc); err != nil {
		b.log.Error("Ошибка отправки документа", zap.Error(err))
	}
}

// requireUser возвращает зарегистрированного пользователя или просит /start.
func (b *Bot) requireUser(chatID int64, telegramID int64) *database.User {
	user, err := b.users.GetByTelegramID(telegramID)
	if err != nil {
		b.reply(chatID, "❌ Сначала напиши /start, чтобы зарегистрироваться.")
		return nil
	}
	return user
}

func (b *Bot) handleStart(msg *tgbotapi.Message) {
	user, existed, err := b.users.GetOrCreate(msg.From.ID, msg.From.UserName)
	if err != nil {
		b.log.Error("Ошибка регистрации пользователя", zap.Error(err))
		b.reply(msg.Chat.ID, "⚠️ Ошибка при регистрации.")
		return
	}
	name := user.Username
	if name == "" {
		name = "друг"
	}
	if existed {
		b.reply(msg.Chat.ID, fmt.Sprintf("С возвращением, %s! 👋", name))
		return
	}
	b.reply(msg.Chat.ID, fmt.Sprintf("Привет, %s! 👋 Я считаю курсы валют и веду учет.\n\n%s", name, helpDoc))
}

const helpDoc = `Команды:
/курс <пара> [сумма] [/делитель] — курс через xe.com (пример: /курс eurusd 10000/1,015)
/ккурс <пара> [сумма][/делитель] — курс через kursi.ge (EUR, GEL, USD, RUB)
/калк <выражение> или /<выражение> — калькулятор (пример: /123+123*2)
/пр <руб_получаем> от <руб_отдаем>/<курс> — создать заявку
/изм <id> <руб_получаем> от <руб_отдаем>/<курс> — изменить заявку (админ)
/отпр [id] <сумма USDT> — отправить по заявке (id, реплай на карточку или последняя открытая)
/заявки — список заявок
/дай [код] — балансы счетов с выгрузкой в XLSX
/добавь <код> [точность] — добавить счет
/удали <код> — удалить счет
/<код> <выражение> — движение по счету (пример: /usd 100+50)`
