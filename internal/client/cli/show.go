package cli

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/iudanet/confsync/internal/models"
)

// runShow выводит конфигурацию: всю, сущности одного типа или одну сущность
func (c *Cli) runShow(ctx context.Context, args []string, format string) error {
	domain, err := c.engine.Domain(ctx)
	if err != nil {
		return err
	}

	entities := slices.SortedFunc(maps.Values(domain), func(a, b *models.DomainEntity) int {
		return cmp.Or(
			cmp.Compare(a.EntityType, b.EntityType),
			cmp.Compare(a.EntityID, b.EntityID),
		)
	})

	if len(args) > 0 {
		if t := models.EntityType(strings.ToLower(args[0])); t.Valid() {
			entities = slices.DeleteFunc(entities, func(e *models.DomainEntity) bool {
				return e.EntityType != t
			})
		} else {
			entity, ok := domain[args[0]]
			if !ok {
				return fmt.Errorf("entity not found with ID: %s", args[0])
			}
			entities = []*models.DomainEntity{entity}
		}
	}

	if format == "json" {
		enc := json.NewEncoder(c.io)
		enc.SetIndent("", "  ")
		return enc.Encode(entities)
	}

	if len(entities) == 0 {
		c.io.Println("No entities found.")
		c.io.Println()
		c.io.Println("Use 'confsync create <type> <field>=<value>' to add one.")
		return nil
	}

	c.io.Printf("Found %d entities:\n", len(entities))
	c.io.Println()
	for _, entity := range entities {
		c.printEntity(entity)
	}
	return nil
}

func (c *Cli) printEntity(entity *models.DomainEntity) {
	c.io.Printf("%s %s\n", entity.EntityType, entity.EntityID)
	for _, name := range slices.Sorted(maps.Keys(entity.Fields)) {
		c.io.Printf("   %s = %s\n", name, entity.Fields[name])
	}
	c.io.Println()
}
