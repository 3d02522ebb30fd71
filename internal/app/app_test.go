package app

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/estevao-reis/juntos-por-mais/internal/config"
	"github.com/estevao-reis/juntos-por-mais/internal/identity/provider/gotrue"
	"github.com/estevao-reis/juntos-por-mais/internal/identity/provider/local"
	"github.com/estevao-reis/juntos-por-mais/internal/signup/orphan"
)

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestOpenStores_MemoryFallback(t *testing.T) {
	s, err := OpenStores(&config.Config{}, discard())
	require.NoError(t, err)
	assert.Nil(t, s.DB)
	assert.NotNil(t, s.Persons)
	assert.NoError(t, s.Close())

	_, err = OpenStores(&config.Config{Env: "production"}, discard())
	assert.Error(t, err)
}

func TestNewProvider(t *testing.T) {
	s := MemoryStores()
	p := NewProvider(&config.Config{AuthProvider: config.AuthProviderLocal, BcryptCost: 4}, s, discard())
	assert.IsType(t, &local.Provider{}, p)

	p = NewProvider(&config.Config{AuthProvider: config.AuthProviderGoTrue, GoTrueURL: "http://gotrue", GoTrueServiceKey: "k"}, s, discard())
	assert.IsType(t, &gotrue.Client{}, p)
}

func TestNewOrphanPublisher(t *testing.T) {
	p := NewOrphanPublisher(&config.Config{}, discard())
	assert.IsType(t, orphan.LogPublisher{}, p)

	p = NewOrphanPublisher(&config.Config{KafkaBrokers: "localhost:9092", OrphanKafkaTopic: "t"}, discard())
	assert.IsType(t, &orphan.KafkaPublisher{}, p)
	assert.NoError(t, p.Close())
}
