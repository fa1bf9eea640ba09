package main

import (
	"fmt"

	"github.com/veilbox-dev/veilbox/internal/config"
	domain "github.com/veilbox-dev/veilbox/internal/domain/permissions"
	"github.com/veilbox-dev/veilbox/internal/infrastructure/authority"
	"github.com/veilbox-dev/veilbox/internal/infrastructure/grants"
	"github.com/veilbox-dev/veilbox/internal/permissions"
)

// buildService wires the permission service over the policy authority
// described by the system config. When interactive is set, prompt outcomes
// can be escalated at the terminal.
func buildService(interactive bool) (*permissions.Service, *config.SystemConfig, error) {
	sysConfig, err := config.LoadSystemConfig(systemConfigPath())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load system config: %w", err)
	}
	if sysConfig.GrantsPath == "" {
		sysConfig.GrantsPath = config.DefaultGrantsPath()
	}

	rules := make([]authority.Rule, 0, len(sysConfig.Rules))
	for _, rc := range sysConfig.Rules {
		rules = append(rules, authority.Rule{
			Name:   rc.Name,
			Kind:   domain.Kind(rc.Kind),
			Scope:  rc.Scope,
			Effect: authority.Effect(rc.Effect),
			When:   rc.When,
		})
	}

	opts := []authority.Option{
		authority.WithGrantStore(grants.NewFileStore(sysConfig.GrantsPath)),
	}
	if interactive {
		opts = append(opts, authority.WithPrompter(authority.NewTerminalPrompter()))
	}

	policy, err := authority.NewPolicy(rules, authority.SecurityLevel(sysConfig.SecurityLevel), opts...)
	if err != nil {
		return nil, nil, err
	}

	return permissions.NewService(policy), sysConfig, nil
}
