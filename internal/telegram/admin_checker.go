package telegram

import (
	"slices"

	"github.com/samber/lo"

	"paywall-bot/internal/config"
)

// AdminChecker проверяет является ли пользователь админом.
// Набор админов фиксируется при старте и дальше не меняется.
type AdminChecker struct {
	adminIDs []int64
}

// NewAdminChecker создает новый проверялка админов
func NewAdminChecker(cfg *config.TelegramConfig) *AdminChecker {
	ids := lo.Uniq(lo.Filter(cfg.AdminIDs, func(id int64, _ int) bool { return id != 0 }))
	return &AdminChecker{
		adminIDs: ids,
	}
}

// IsAdmin проверяет является ли пользователь с данным Telegram ID админом
func (a *AdminChecker) IsAdmin(telegramID int64) bool {
	return slices.Contains(a.adminIDs, telegramID)
}

// AdminIDs возвращает копию списка админов в порядке конфигурации
func (a *AdminChecker) AdminIDs() []int64 {
	return slices.Clone(a.adminIDs)
}
