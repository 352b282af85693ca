package cli

import (
	"context"
	"fmt"
	"maps"
	"slices"
)

func (c *Cli) runResetPreview(ctx context.Context) error {
	preview, err := c.engine.PreviewReset(ctx)
	if err != nil {
		return fmt.Errorf("failed to preview reset: %w", err)
	}

	c.io.Println("=== Reset Preview ===")
	c.io.Println()
	c.io.Printf("Objects to delete: %d\n", preview.ObjectCount)
	c.io.Printf("Known devices:     %d\n", len(preview.KnownDeviceIDs))
	for _, device := range slices.Sorted(maps.Keys(preview.PerDeviceOpCounts)) {
		c.io.Printf("   %s: %d operation(s)\n", device, preview.PerDeviceOpCounts[device])
	}
	return nil
}

func (c *Cli) runResetApply(ctx context.Context, yes bool) error {
	if err := c.runResetPreview(ctx); err != nil {
		return err
	}
	c.io.Println()
	c.io.Println("All devices will keep their local data, but unpublished edits made")
	c.io.Println("before the reset on other devices will be discarded.")

	if !yes {
		confirm, err := c.io.ReadInput("Reset the sync root? (yes/no): ")
		if err != nil {
			return fmt.Errorf("failed to read confirmation: %w", err)
		}
		if confirm != "yes" {
			c.io.Println("Reset cancelled.")
			return nil
		}
	}

	result, err := c.engine.Reset(ctx)
	if err != nil {
		if result != nil {
			// Корень уже сброшен, не опубликованы только перевыпущенные правки
			return fmt.Errorf("sync root was reset, but publishing failed (run 'confsync sync' to retry): %w", err)
		}
		return fmt.Errorf("reset failed: %w", err)
	}

	c.io.Println()
	c.io.Printf("✓ Sync root reset, %d operation(s) republished from this device\n", result.Emitted)
	return nil
}
