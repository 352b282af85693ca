package main

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/confsync/internal/config"
	"github.com/iudanet/confsync/internal/models"
)

func testConfig(t *testing.T, root string) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Device.DBPath = filepath.Join(t.TempDir(), "device.db")
	cfg.Transport.Dir.Path = root
	return cfg
}

func TestOpenSession_DirTransport(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	root := t.TempDir()

	laptop, err := openSession(ctx, testConfig(t, root), logger)
	require.NoError(t, err)
	defer func() { require.NoError(t, laptop.Close()) }()

	phone, err := openSession(ctx, testConfig(t, root), logger)
	require.NoError(t, err)
	defer func() { require.NoError(t, phone.Close()) }()

	assert.NotNil(t, laptop.Watch)
	assert.NotNil(t, laptop.Auth)

	_, err = laptop.Engine.SetField(ctx, models.EntitySite, "home", "name", models.StringValue("Home"))
	require.NoError(t, err)
	_, err = laptop.Engine.RunCycle(ctx)
	require.NoError(t, err)

	_, err = phone.Engine.RunCycle(ctx)
	require.NoError(t, err)
	domain, err := phone.Engine.Domain(ctx)
	require.NoError(t, err)
	require.Contains(t, domain, "home")
	assert.Equal(t, models.StringValue("Home"), domain["home"].Fields["name"])

	families, err := laptop.Metrics.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestOpenSession_HTTPWithoutToken(t *testing.T) {
	cfg := testConfig(t, "")
	cfg.Transport.Kind = config.TransportHTTP
	cfg.Transport.HTTP.URL = "http://127.0.0.1:1"

	session, err := openSession(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	defer func() { require.NoError(t, session.Close()) }()

	assert.Nil(t, session.Watch)
}

func TestOpenSession_BadDatabasePath(t *testing.T) {
	cfg := testConfig(t, t.TempDir())
	cfg.Device.DBPath = filepath.Join(t.TempDir(), "missing", "device.db")

	_, err := openSession(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Error(t, err)
}
