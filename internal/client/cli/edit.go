package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/iudanet/confsync/internal/models"
	"github.com/iudanet/confsync/internal/validation"
)

// assignment одно присваивание field=value из командной строки
type assignment struct {
	field string
	value models.Value
}

func parseEntityType(s string) (models.EntityType, error) {
	t := models.EntityType(strings.ToLower(s))
	if !t.Valid() {
		return "", fmt.Errorf("unknown entity type %q: use one of %v", s, models.EntityTypes)
	}
	return t, nil
}

func parseAssignments(args []string) ([]assignment, error) {
	result := make([]assignment, 0, len(args))
	for _, arg := range args {
		field, raw, ok := strings.Cut(arg, "=")
		field = strings.TrimSpace(field)
		if !ok || field == "" {
			return nil, fmt.Errorf("invalid assignment %q: expected <field>=<value>", arg)
		}
		if err := validation.ValidateFieldName(field); err != nil {
			return nil, err
		}
		result = append(result, assignment{field: field, value: models.ParseValue(raw)})
	}
	return result, nil
}

func (c *Cli) runSet(ctx context.Context, args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("missing arguments. Usage: confsync set <type> <id> <field>=<value>...")
	}

	entityType, err := parseEntityType(args[0])
	if err != nil {
		return err
	}
	entityID := args[1]
	if err := validation.ValidateEntityID(entityID); err != nil {
		return err
	}

	assignments, err := parseAssignments(args[2:])
	if err != nil {
		return err
	}

	if err := c.apply(ctx, entityType, entityID, assignments); err != nil {
		return err
	}

	c.io.Printf("✓ %s %s: %d field(s) updated\n", entityType, entityID, len(assignments))
	c.io.Println("Run 'confsync sync' to publish the changes.")
	return nil
}

func (c *Cli) runCreate(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("missing arguments. Usage: confsync create <type> <field>=<value>...")
	}

	entityType, err := parseEntityType(args[0])
	if err != nil {
		return err
	}

	assignments, err := parseAssignments(args[1:])
	if err != nil {
		return err
	}

	entityID := uuid.NewString()
	if err := c.apply(ctx, entityType, entityID, assignments); err != nil {
		return err
	}

	c.io.Printf("✓ Created %s %s\n", entityType, entityID)
	return nil
}

func (c *Cli) apply(ctx context.Context, entityType models.EntityType, entityID string, assignments []assignment) error {
	for _, a := range assignments {
		if _, err := c.engine.SetField(ctx, entityType, entityID, a.field, a.value); err != nil {
			return fmt.Errorf("failed to set %s: %w", a.field, err)
		}
	}
	return nil
}

func (c *Cli) runDelete(ctx context.Context, args []string, yes bool) error {
	if len(args) != 2 {
		return fmt.Errorf("missing arguments. Usage: confsync delete <type> <id>")
	}

	entityType, err := parseEntityType(args[0])
	if err != nil {
		return err
	}
	entityID := args[1]

	domain, err := c.engine.Domain(ctx)
	if err != nil {
		return err
	}
	entity, ok := domain[entityID]
	if !ok || entity.EntityType != entityType {
		return fmt.Errorf("%s not found with ID: %s", entityType, entityID)
	}

	c.io.Println("About to delete:")
	c.printEntity(entity)

	if !yes {
		confirm, err := c.io.ReadInput("Are you sure you want to delete this entity? (yes/no): ")
		if err != nil {
			return fmt.Errorf("failed to read confirmation: %w", err)
		}
		if confirm != "yes" && confirm != "y" {
			c.io.Println("Deletion cancelled.")
			return nil
		}
	}

	if _, err := c.engine.DeleteEntity(ctx, entityType, entityID); err != nil {
		return fmt.Errorf("failed to delete entity: %w", err)
	}

	c.io.Println("✓ Entity deleted")
	c.io.Println("Run 'confsync sync' to publish the changes.")
	return nil
}
