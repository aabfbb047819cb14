package bootstrap

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mamadbah2/stockdesk/internal/config"
	"github.com/mamadbah2/stockdesk/internal/repository/supabase"
)

func TestOpenStoreSupabase(t *testing.T) {
	cfg := &config.Config{
		Store:    config.StoreConfig{Driver: config.StoreDriverSupabase},
		Supabase: config.SupabaseConfig{URL: "https://example.supabase.co", Key: "service-key"},
	}

	store, err := OpenStore(cfg, zap.NewNop())

	require.NoError(t, err)
	assert.IsType(t, &supabase.Store{}, store)
	assert.NoError(t, store.Close())
}

func TestOpenStoreUnknownDriver(t *testing.T) {
	cfg := &config.Config{Store: config.StoreConfig{Driver: "mysql"}}

	_, err := OpenStore(cfg, zap.NewNop())

	assert.ErrorContains(t, err, `unsupported store driver "mysql"`)
}

func TestSinksDisabledWithoutSettings(t *testing.T) {
	sinks, cleanup := Sinks(context.Background(), &config.Config{}, zap.NewNop())
	defer cleanup()

	assert.Nil(t, sinks.Archive)
	assert.Nil(t, sinks.Sheet)
	assert.Nil(t, sinks.Messenger)
	assert.Empty(t, sinks.Recipients)
}

func TestSinksWhatsAppOnly(t *testing.T) {
	cfg := &config.Config{WhatsApp: config.WhatsAppConfig{
		AccessToken:      "token",
		PhoneNumberID:    "123",
		BaseURL:          "https://graph.example.com",
		APIVersion:       "v20.0",
		ReportRecipients: []string{"224600000000", "221770000000"},
	}}

	sinks, cleanup := Sinks(context.Background(), cfg, zap.NewNop())
	defer cleanup()

	assert.NotNil(t, sinks.Messenger)
	assert.Equal(t, []string{"224600000000", "221770000000"}, sinks.Recipients)
	assert.Nil(t, sinks.Archive)
}
