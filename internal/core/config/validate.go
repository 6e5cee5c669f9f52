package config

import (
	"fmt"
	"os"

	"github.com/hay-kot/criterio"
)

// Validate performs structural validation of the configuration.
func (c *Config) Validate() error {
	return criterio.ValidateStruct(
		criterio.Run("parties.requester", c.Parties.Requester, nonEmpty),
		criterio.Run("parties.receiver", c.Parties.Receiver, nonEmpty),
		c.validateParties(),
		c.validateThresholds(),
	)
}

// ValidateDeep runs Validate plus I/O checks against the data directory.
func (c *Config) ValidateDeep() error {
	if err := c.Validate(); err != nil {
		return err
	}
	return criterio.ValidateStruct(
		criterio.Run("data_dir", c.DataDir, isDirectoryOrNotExist),
	)
}

func (c *Config) validateParties() error {
	if c.Parties.Requester != "" && c.Parties.Requester == c.Parties.Receiver {
		return criterio.NewFieldErrors("parties", fmt.Errorf("requester and receiver must differ"))
	}
	return nil
}

func (c *Config) validateThresholds() error {
	var errs criterio.FieldErrorsBuilder

	if c.Matcher.HighConfidence < 0 || c.Matcher.HighConfidence > 1 {
		errs = errs.Append("matcher.high_confidence", fmt.Errorf("must be in [0,1], got %v", c.Matcher.HighConfidence))
	}
	if c.Matcher.Tentative < 0 || c.Matcher.Tentative > 1 {
		errs = errs.Append("matcher.tentative", fmt.Errorf("must be in [0,1], got %v", c.Matcher.Tentative))
	}
	if c.Matcher.Tentative > c.Matcher.HighConfidence {
		errs = errs.Append("matcher.tentative", fmt.Errorf("must not exceed matcher.high_confidence"))
	}

	return errs.ToError()
}

func nonEmpty(s string) error {
	if s == "" {
		return fmt.Errorf("must not be empty")
	}
	return nil
}

// isDirectoryOrNotExist validates that a path is a directory or doesn't exist.
func isDirectoryOrNotExist(path string) error {
	if path == "" {
		return nil
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil // will be created
	}
	if err != nil {
		return fmt.Errorf("cannot access: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("exists but is not a directory")
	}
	return nil
}
