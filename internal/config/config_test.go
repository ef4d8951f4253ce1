package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heidiheidi1234567890/kurochan-okite-bot/internal/domain"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("ADMIN_IDS", "11,22")
	t.Setenv("RECIPIENT_IDS", "33")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ModePolling, cfg.RunMode)
	assert.Equal(t, 5*time.Minute, cfg.PromptInterval)
	assert.Equal(t, time.Hour, cfg.SessionDeadline)
	assert.Equal(t, time.Minute, cfg.TriggerInterval)
	assert.Equal(t, []int64{11, 22}, cfg.AdminIDs)
	assert.Equal(t, []int64{33}, cfg.RecipientIDs)
	assert.Equal(t, domain.ClockTime{Hour: 8}, cfg.Start())
	assert.Equal(t, "Asia/Tokyo", cfg.Location().String())
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"STORE_BACKEND": "mongo",
		"DEFAULT_START": "25:00",
		"TZ_NAME":       "Mars/Olympus",
	}
	for key, val := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, val)
			_, err := Load()
			require.Error(t, err)
		})
	}
}

func TestValidateServe(t *testing.T) {
	t.Setenv("STORE_BACKEND", "memory")
	cfg, err := Load()
	require.NoError(t, err)
	require.Error(t, cfg.ValidateServe())

	cfg.BotToken = "token"
	cfg.TargetID = 7
	cfg.AdminIDs = []int64{1}
	require.NoError(t, cfg.ValidateServe())

	cfg.RunMode = ModeWebhook
	require.Error(t, cfg.ValidateServe())
	cfg.WebhookURL = "https://example.org/webhook"
	cfg.WebhookSecret = "s3cret"
	require.NoError(t, cfg.ValidateServe())
}
