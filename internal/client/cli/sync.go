package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/iudanet/confsync/internal/client/sync"
)

func (c *Cli) runSync(ctx context.Context) error {
	c.io.Println("=== Synchronization ===")
	c.io.Println()

	result, err := c.engine.RunCycle(ctx)
	if err != nil {
		return fmt.Errorf("synchronization failed: %w", err)
	}

	c.printCycleResult(result)
	return nil
}

// runCompact выполняет цикл с порогом компакции 1: снапшот публикуется,
// если есть хотя бы одна несвернутая операция
func (c *Cli) runCompact(ctx context.Context) error {
	result, err := c.engine.RunCycle(ctx)
	if err != nil {
		return fmt.Errorf("compaction failed: %w", err)
	}

	switch {
	case result.Compacted:
		c.io.Println("✓ Snapshot published, covered operation logs pruned")
	case result.Degraded:
		c.io.Println("Some operation logs are unreachable, compaction skipped.")
	case len(result.Collisions) > 0:
		c.io.Println("Quarantined entities present, compaction skipped.")
	default:
		c.io.Println("Nothing to compact.")
	}
	return nil
}

func (c *Cli) printCycleResult(result *sync.CycleResult) {
	c.io.Println("✓ Synchronization completed")
	c.io.Println()
	c.io.Printf("Applied from other devices: %d operation(s)\n", result.Applied)
	c.io.Printf("Published local edits:      %d\n", result.Emitted)
	if result.Overwritten > 0 {
		c.io.Printf("Overwritten by newer edits: %d\n", result.Overwritten)
	}
	if result.Ignored > 0 {
		c.io.Printf("Ignored (before reset):     %d\n", result.Ignored)
	}
	if result.Compacted {
		c.io.Println("Snapshot published.")
	}

	if len(result.Corrupt) > 0 {
		c.io.Println()
		c.io.Printf("⚠️  Skipped %d corrupt record(s)\n", len(result.Corrupt))
	}
	if result.Degraded {
		c.io.Println()
		c.io.Printf("⚠️  Unreachable devices: %s\n", strings.Join(result.UnreachableDevices, ", "))
		c.io.Println("Their edits will be merged once their logs are readable.")
	}
	for _, collision := range result.Collisions {
		c.io.Printf("⚠️  Entity %s is quarantined: observed as %v\n", collision.EntityID, collision.Types)
	}
}
