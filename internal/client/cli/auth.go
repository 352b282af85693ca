package cli

import (
	"context"
	"errors"
	"fmt"
	"time"
)

func (c *Cli) runLogin(ctx context.Context, token string) error {
	if c.auth == nil {
		return errors.New("login is not supported by this session")
	}

	c.io.Println("=== Login ===")
	if token == "" {
		var err error
		token, err = c.io.ReadInput("Relay token: ")
		if err != nil {
			return fmt.Errorf("failed to read token: %w", err)
		}
	}

	creds, err := c.auth.Login(ctx, token)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	c.io.Printf("✓ Logged in as device %s\n", creds.DeviceID)
	if creds.ExpiresAt > 0 {
		c.io.Printf("Token expires: %s\n", time.Unix(creds.ExpiresAt, 0).Format(time.RFC3339))
	}
	c.io.Println("The token is used when transport.http.token is not configured.")
	return nil
}

func (c *Cli) runLogout(ctx context.Context) error {
	if c.auth == nil {
		return errors.New("logout is not supported by this session")
	}

	c.io.Println("=== Logout ===")
	if err := c.auth.Logout(ctx); err != nil {
		return fmt.Errorf("logout failed: %w", err)
	}

	c.io.Println("✓ Logout successful!")
	c.io.Println("The saved relay token has been deleted.")
	return nil
}
