package telegram

import (
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// SecretHeader carries the secret_token given to setWebhook.
const SecretHeader = "X-Telegram-Bot-Api-Secret-Token"

const maxUpdateBytes = 1 << 20

// WebhookHandler accepts Bot API updates and queues them on out. Requests
// without the right secret get 401. When out is full until the request is
// cancelled the handler answers 503 so Telegram retries.
func WebhookHandler(secret string, out chan<- tgbotapi.Update, log *zap.Logger) http.HandlerFunc {
	log = log.With(zap.String("component", "webhook"))
	return func(w http.ResponseWriter, r *http.Request) {
		got := r.Header.Get(SecretHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
			log.Warn("webhook secret mismatch", zap.String("remote", r.RemoteAddr))
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var upd tgbotapi.Update
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxUpdateBytes)).Decode(&upd); err != nil {
			log.Warn("bad update payload", zap.Error(err))
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}

		select {
		case out <- upd:
			w.WriteHeader(http.StatusOK)
		case <-r.Context().Done():
			http.Error(w, "busy", http.StatusServiceUnavailable)
		}
	}
}

// Requester is the part of *tgbotapi.BotAPI used for raw method calls.
type Requester interface {
	MakeRequest(endpoint string, params tgbotapi.Params) (*tgbotapi.APIResponse, error)
}

// SetWebhook registers url with a secret_token. The library's
// WebhookConfig does not carry that field, so the call is made directly.
func SetWebhook(api Requester, url, secret string) error {
	params := tgbotapi.Params{"url": url, "secret_token": secret}
	resp, err := api.MakeRequest("setWebhook", params)
	if err != nil {
		return fmt.Errorf("setWebhook: %w", err)
	}
	if !resp.Ok {
		return fmt.Errorf("setWebhook: %s", resp.Description)
	}
	return nil
}

// DeleteWebhook switches the bot back to getUpdates.
func DeleteWebhook(api Requester) error {
	resp, err := api.MakeRequest("deleteWebhook", tgbotapi.Params{})
	if err != nil {
		return fmt.Errorf("deleteWebhook: %w", err)
	}
	if !resp.Ok {
		return fmt.Errorf("deleteWebhook: %s", resp.Description)
	}
	return nil
}
