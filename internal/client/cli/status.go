package cli

import (
	"context"
	"fmt"
	"time"
)

func (c *Cli) runStatus(ctx context.Context) error {
	status, err := c.engine.Status(ctx)
	if err != nil {
		return fmt.Errorf("failed to get status: %w", err)
	}

	c.io.Println("=== Sync Status ===")
	c.io.Println()
	c.io.Printf("Device:   %s\n", status.DeviceID)
	c.io.Printf("Phase:    %s\n", status.Phase)
	c.io.Printf("Entities: %d\n", status.Entities)

	baseline := status.Baseline
	if baseline.LastSyncAtMs > 0 {
		c.io.Printf("Last sync: %s\n", time.UnixMilli(baseline.LastSyncAtMs).Format(time.RFC3339))
	} else {
		c.io.Println("Last sync: never")
	}
	c.io.Printf("Snapshot version: %d\n", baseline.RemoteSnapshotV)
	if baseline.ResetAt > 0 {
		c.io.Printf("Root reset at: %s\n", time.UnixMilli(baseline.ResetAt).Format(time.RFC3339))
	}

	c.io.Println()
	if status.Pending > 0 {
		c.io.Printf("⚠️  Pending sync: %d edit(s) waiting to be published\n", status.Pending)
		c.io.Println("Run 'confsync sync' to synchronize.")
	} else {
		c.io.Println("✓ All edits published")
	}
	return nil
}
