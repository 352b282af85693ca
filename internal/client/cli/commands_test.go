package cli

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/confsync/internal/client/sync"
	"github.com/iudanet/confsync/internal/config"
	"github.com/iudanet/confsync/internal/models"
)

// fakeOpener запоминает конфиг, с которым открывалась сессия
type fakeOpener struct {
	engine *EngineMock
	cfg    *config.Config
	err    error
	closed int
}

func (f *fakeOpener) open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.cfg = cfg
	return &Session{
		Engine: f.engine,
		Close: func() error {
			f.closed++
			return nil
		},
	}, nil
}

func execute(t *testing.T, opener *fakeOpener, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("CONFSYNC_CONFIG", "")

	cmd := NewRootCommand(opener.open, BuildInfo{Version: "1.2.3", BuildDate: "2026-01-02", GitCommit: "abc123"})
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCommand_Version(t *testing.T) {
	opener := &fakeOpener{}
	out, err := execute(t, opener, "", "version", "--format", "yaml")
	require.NoError(t, err)

	assert.Contains(t, out, "Version:    1.2.3")
	assert.Contains(t, out, "Git Commit: abc123")
	assert.Nil(t, opener.cfg, "version does not open a session")
}

func TestRootCommand_InvalidFormat(t *testing.T) {
	_, err := execute(t, &fakeOpener{engine: &EngineMock{}}, "", "status", "--format", "yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestRootCommand_FlagsOverrideConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "confsync.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
device:
  db_path: from-file.db
transport:
  kind: dir
  dir:
    path: /srv/file-root
sync:
  compact_threshold: 50
`), 0o600))

	opener := &fakeOpener{engine: &EngineMock{
		StatusFunc: func(ctx context.Context) (*sync.Status, error) {
			return &sync.Status{DeviceID: "d", Baseline: &models.Baseline{}}, nil
		},
	}}

	_, err := execute(t, opener, "", "status", "-c", path, "--dir", "/srv/flag-root", "--log-level", "debug")
	require.NoError(t, err)

	require.NotNil(t, opener.cfg)
	assert.Equal(t, "from-file.db", opener.cfg.Device.DBPath)
	assert.Equal(t, "/srv/flag-root", opener.cfg.Transport.Dir.Path)
	assert.Equal(t, "debug", opener.cfg.Log.Level)
	assert.Equal(t, 50, opener.cfg.Sync.CompactThreshold)
	assert.Equal(t, 1, opener.closed)
}

func TestRootCommand_InvalidTransportFlag(t *testing.T) {
	_, err := execute(t, &fakeOpener{engine: &EngineMock{}}, "", "status", "--transport", "ftp")
	assert.Error(t, err)
}

func TestRootCommand_OpenError(t *testing.T) {
	opener := &fakeOpener{err: errors.New("database is locked")}
	_, err := execute(t, opener, "", "sync")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database is locked")
}

func TestRootCommand_Compact(t *testing.T) {
	opener := &fakeOpener{engine: &EngineMock{
		RunCycleFunc: func(ctx context.Context) (*sync.CycleResult, error) {
			return &sync.CycleResult{Compacted: true}, nil
		},
	}}

	out, err := execute(t, opener, "", "compact")
	require.NoError(t, err)
	assert.Contains(t, out, "Snapshot published")
	assert.Equal(t, 1, opener.cfg.Sync.CompactThreshold)
}

func TestRootCommand_DeleteReadsConfirmation(t *testing.T) {
	engine := &EngineMock{
		DomainFunc: func(ctx context.Context) (map[string]*models.DomainEntity, error) {
			return sampleDomain(), nil
		},
		DeleteEntityFunc: func(ctx context.Context, entityType models.EntityType, entityID string) (models.Operation, error) {
			return models.Operation{}, nil
		},
	}

	out, err := execute(t, &fakeOpener{engine: engine}, "yes\n", "delete", "site", "home")
	require.NoError(t, err)
	assert.Contains(t, out, "Entity deleted")
	assert.Len(t, engine.DeleteEntityCalls(), 1)
}

func TestRootCommand_ShowJSON(t *testing.T) {
	engine := &EngineMock{
		DomainFunc: func(ctx context.Context) (map[string]*models.DomainEntity, error) {
			return sampleDomain(), nil
		},
	}

	out, err := execute(t, &fakeOpener{engine: engine}, "", "show", "home", "--format", "json")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"entity_id":"home","entity_type":"site","fields":{"name":"Home","url":"https://example.com"}}]`, out)
}

func TestRootCommand_WatchUsesConfiguredInterval(t *testing.T) {
	path := filepath.Join(t.TempDir(), "confsync.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sync:\n  watch_interval: 0s\n"), 0o600))

	// Нулевой интервал из конфига отклоняется, если флаг не задан
	_, err := execute(t, &fakeOpener{engine: &EngineMock{}}, "", "watch", "-c", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "interval")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	engine := &EngineMock{
		RunCycleFunc: func(ctx context.Context) (*sync.CycleResult, error) {
			return &sync.CycleResult{}, nil
		},
	}
	opener := &fakeOpener{engine: engine}
	cmd := NewRootCommand(opener.open, BuildInfo{})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"watch", "-c", path, "--interval", "1h"})

	require.NoError(t, cmd.ExecuteContext(ctx))
	assert.NotEmpty(t, engine.RunCycleCalls())
}
