package telegram

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// SetWebhook регистрирует webhook. secret передаётся Telegram как
// secret_token и возвращается в заголовке X-Telegram-Bot-Api-Secret-Token.
func (c *Client) SetWebhook(url, secret string) error {
	if err := c.limiter.Wait(c.ctx); err != nil {
		return fmt.Errorf("rate limiting: %w", err)
	}

	params := tgbotapi.Params{}
	params["url"] = url
	params.AddNonEmpty("secret_token", secret)
	params["allowed_updates"] = `["message","callback_query"]`

	resp, err := c.api.MakeRequest("setWebhook", params)
	if err != nil {
		return fmt.Errorf("setWebhook: %w", err)
	}
	if !resp.Ok {
		return fmt.Errorf("setWebhook: %s", resp.Description)
	}

	c.logger.Info("Webhook зарегистрирован", "url", url)
	return nil
}

// GetWebhookInfo возвращает текущую регистрацию webhook
func (c *Client) GetWebhookInfo() (tgbotapi.WebhookInfo, error) {
	info, err := c.api.GetWebhookInfo()
	if err != nil {
		return tgbotapi.WebhookInfo{}, fmt.Errorf("getWebhookInfo: %w", err)
	}
	return info, nil
}

// GetMe возвращает данные бота
func (c *Client) GetMe() (tgbotapi.User, error) {
	me, err := c.api.GetMe()
	if err != nil {
		return tgbotapi.User{}, fmt.Errorf("getMe: %w", err)
	}
	return me, nil
}
