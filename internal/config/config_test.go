package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	for key, value := range map[string]string{
		"APP_PORT":                   "",
		"STORE_DRIVER":               "postgres",
		"DATABASE_URL":               "postgres://localhost/stockdesk",
		"LOW_STOCK_THRESHOLD":        "",
		"REPORT_ENABLED":             "",
		"REPORT_CRON_SCHEDULE":       "",
		"TIMEZONE":                   "",
		"WHATSAPP_TOKEN":             "",
		"WHATSAPP_PHONE_NUMBER_ID":   "",
		"WHATSAPP_REPORT_RECIPIENTS": "",
	} {
		t.Setenv(key, value)
	}
}

func TestLoadDefaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Server.Port)
	assert.Equal(t, StoreDriverPostgres, cfg.Store.Driver)
	assert.Equal(t, 10, cfg.Analytics.LowStockThreshold)
	assert.True(t, cfg.Reporting.Enabled)
	assert.Equal(t, "UTC", cfg.Location().String())
	assert.False(t, cfg.WhatsAppEnabled())
	assert.Error(t, cfg.ValidateServer())
}

func TestLoadReportRecipients(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("WHATSAPP_TOKEN", "token")
	t.Setenv("WHATSAPP_PHONE_NUMBER_ID", "123")
	t.Setenv("WHATSAPP_REPORT_RECIPIENTS", " 224600000000, ,+221 77 000 0000,")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, []string{"224600000000", "+221 77 000 0000"}, cfg.WhatsApp.ReportRecipients)
	assert.True(t, cfg.WhatsAppEnabled())
}

func TestLoadRejectsBadSettings(t *testing.T) {
	cases := map[string][2]string{
		"threshold": {"LOW_STOCK_THRESHOLD", "ten"},
		"negative":  {"LOW_STOCK_THRESHOLD", "-1"},
		"timezone":  {"TIMEZONE", "Mars/Olympus"},
		"driver":    {"STORE_DRIVER", "mysql"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			setBaseEnv(t)
			t.Setenv(kv[0], kv[1])

			_, err := Load("")
			assert.Error(t, err)
		})
	}
}
