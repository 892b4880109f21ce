package project

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/piwi3910/MoldQuote/internal/model"
)

// LoadPolicy reads evaluation thresholds from a JSON file. Thresholds absent
// from the file keep their default values. The result is validated.
func LoadPolicy(path string) (model.Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.Policy{}, fmt.Errorf("failed to read policy file: %w", err)
	}
	policy := model.DefaultPolicy()
	if err := json.Unmarshal(data, &policy); err != nil {
		return model.Policy{}, fmt.Errorf("failed to parse policy file: %w", err)
	}
	if err := policy.Validate(); err != nil {
		return model.Policy{}, fmt.Errorf("invalid policy: %w", err)
	}
	return policy, nil
}

// SavePolicy validates policy and writes it to path as JSON.
func SavePolicy(path string, policy model.Policy) error {
	if err := policy.Validate(); err != nil {
		return fmt.Errorf("invalid policy: %w", err)
	}
	if err := writeJSON(path, policy); err != nil {
		return fmt.Errorf("failed to write policy file: %w", err)
	}
	return nil
}
