package notify

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"github.com/betbot/polytrader/pkg/logger"
)

// Notifier 事件通知
type Notifier interface {
	Send(ctx context.Context, text string) error
}

// TelegramNotifier 通过 Telegram Bot API 推送消息
type TelegramNotifier struct {
	client *resty.Client
	token  string
	chatID string
}

// NewTelegram 创建 Telegram 通知器；token 或 chatID 为空时返回 nil
func NewTelegram(token, chatID string) *TelegramNotifier {
	if token == "" || chatID == "" {
		return nil
	}
	return &TelegramNotifier{
		client: resty.New().SetBaseURL("https://api.telegram.org"),
		token:  token,
		chatID: chatID,
	}
}

// Send 发送文本消息
func (n *TelegramNotifier) Send(ctx context.Context, text string) error {
	if n == nil {
		return nil
	}

	resp, err := n.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"chat_id": n.chatID,
			"text":    text,
		}).
		Post(fmt.Sprintf("/bot%s/sendMessage", n.token))
	if err != nil {
		return errors.Wrap(err, "发送 Telegram 消息失败")
	}
	if resp.IsError() {
		return errors.Errorf("Telegram API 错误 %d: %s", resp.StatusCode(), resp.String())
	}

	logger.Debug("Telegram 消息已发送")
	return nil
}
