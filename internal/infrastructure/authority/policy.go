// Package authority provides an in-process implementation of the authority
// contract: ordered policy rules with optional expression conditions decide
// whether a capability is granted, denied, or needs a prompt.
package authority

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	apperrors "github.com/veilbox-dev/veilbox/internal/application/errors"
	"github.com/veilbox-dev/veilbox/internal/application/ports"
	"github.com/veilbox-dev/veilbox/internal/domain/permissions"
)

// Effect is the outcome a matching rule assigns.
type Effect string

const (
	// EffectGrant authorizes matching descriptors.
	EffectGrant Effect = "grant"
	// EffectDeny refuses matching descriptors.
	EffectDeny Effect = "deny"
	// EffectPrompt defers matching descriptors to user confirmation.
	EffectPrompt Effect = "prompt"
)

// State maps the effect to the permission state it produces.
func (e Effect) State() (permissions.State, error) {
	switch e {
	case EffectGrant:
		return permissions.StateGranted, nil
	case EffectDeny:
		return permissions.StateDenied, nil
	case EffectPrompt:
		return permissions.StatePrompt, nil
	default:
		return "", fmt.Errorf("invalid rule effect: %q", string(e))
	}
}

// SecurityLevel controls the default outcome for descriptors no rule
// matches.
type SecurityLevel string

const (
	// LevelStrict denies anything not explicitly granted.
	LevelStrict SecurityLevel = "strict"
	// LevelStandard prompts for anything not explicitly decided.
	LevelStandard SecurityLevel = "standard"
	// LevelPermissive grants anything not explicitly denied.
	LevelPermissive SecurityLevel = "permissive"
)

// Validate returns an error if the level is not recognized.
func (l SecurityLevel) Validate() error {
	switch l {
	case LevelStrict, LevelStandard, LevelPermissive:
		return nil
	default:
		return fmt.Errorf("invalid security level: %q", string(l))
	}
}

// defaultState is the outcome for unmatched descriptors.
func (l SecurityLevel) defaultState() permissions.State {
	switch l {
	case LevelStrict:
		return permissions.StateDenied
	case LevelPermissive:
		return permissions.StateGranted
	default:
		return permissions.StatePrompt
	}
}

// Rule is one ordered policy entry. Rules are evaluated first to last; the
// first match wins.
type Rule struct {
	// Name identifies the rule in diagnostics.
	Name string
	// Kind the rule applies to.
	Kind permissions.Kind
	// Scope pattern matched against the descriptor's scope. Empty or "*"
	// matches any scope, a trailing "*" matches by prefix, a leading "*."
	// matches host suffixes.
	Scope string
	// Effect assigned when the rule matches.
	Effect Effect
	// When is an optional boolean expression over {kind, path, host, scope};
	// the rule only matches when it evaluates to true.
	When string
}

type compiledRule struct {
	rule    Rule
	program *vm.Program
}

// Policy is an Authority that decides states from ordered rules plus
// remembered grants and revocation overrides. Decisions are stateless apart
// from the remembered-grant set and the revoked-key set, both guarded by one
// mutex.
type Policy struct {
	rules []compiledRule
	level SecurityLevel

	mu      sync.Mutex
	grants  []permissions.Descriptor
	revoked map[string]bool

	store    ports.GrantStore
	prompter ports.Prompter
}

var _ ports.Authority = (*Policy)(nil)

// Option configures optional collaborators of a Policy.
type Option func(*Policy)

// WithPrompter enables interactive escalation of prompt outcomes during
// RequestState.
func WithPrompter(p ports.Prompter) Option {
	return func(policy *Policy) { policy.prompter = p }
}

// WithGrantStore loads remembered grants at construction and persists
// "always" decisions.
func WithGrantStore(s ports.GrantStore) Option {
	return func(policy *Policy) { policy.store = s }
}

// NewPolicy compiles the rules and builds the authority. Rule conditions are
// compiled once here so a malformed expression fails fast instead of at
// decision time.
func NewPolicy(rules []Rule, level SecurityLevel, opts ...Option) (*Policy, error) {
	if level == "" {
		level = LevelStandard
	}
	if err := level.Validate(); err != nil {
		return nil, apperrors.NewConfigurationError("policy", "bad security level", err)
	}

	policy := &Policy{
		level:   level,
		revoked: make(map[string]bool),
	}

	for _, rule := range rules {
		if err := rule.Kind.Validate(); err != nil {
			return nil, apperrors.NewPolicyError(rule.Name, "unknown capability kind", err)
		}
		if _, err := rule.Effect.State(); err != nil {
			return nil, apperrors.NewPolicyError(rule.Name, "unknown effect", err)
		}

		compiled := compiledRule{rule: rule}
		if rule.When != "" {
			program, err := expr.Compile(rule.When, conditionOptions()...)
			if err != nil {
				return nil, apperrors.NewPolicyError(rule.Name, "condition failed to compile", err)
			}
			compiled.program = program
		}
		policy.rules = append(policy.rules, compiled)
	}

	for _, opt := range opts {
		opt(policy)
	}

	if policy.store != nil {
		remembered, err := policy.store.Load()
		if err != nil {
			return nil, apperrors.NewConfigurationError("grants", "failed to load remembered grants", err)
		}
		policy.grants = remembered
	}

	return policy, nil
}

// QueryState observes the current authorized state without changing it.
func (p *Policy) QueryState(_ context.Context, d permissions.Descriptor) (permissions.State, error) {
	return p.decide(d)
}

// RequestState escalates a prompt outcome through the prompter, when one is
// configured and the session is interactive. A user grant is remembered for
// the rest of the process; "always" persists it through the grant store.
func (p *Policy) RequestState(_ context.Context, d permissions.Descriptor) (permissions.State, error) {
	state, err := p.decide(d)
	if err != nil || state != permissions.StatePrompt {
		return state, err
	}

	if p.prompter == nil || !p.prompter.IsInteractive() {
		return permissions.StatePrompt, nil
	}

	granted, always, err := p.prompter.PromptForDescriptor(d)
	if err != nil {
		return "", err
	}
	if !granted {
		// An explicit refusal sticks for this key: no repeated prompting.
		p.mu.Lock()
		p.revoked[d.CacheKey()] = true
		p.mu.Unlock()
		return permissions.StateDenied, nil
	}

	p.mu.Lock()
	p.grants = appendGrant(p.grants, d)
	snapshot := make([]permissions.Descriptor, len(p.grants))
	copy(snapshot, p.grants)
	p.mu.Unlock()

	if always && p.store != nil {
		if err := p.store.Save(snapshot); err != nil {
			slog.Warn("failed to persist capability grant", "descriptor", d.String(), "error", err)
		} else {
			slog.Info("capability grant persisted", "descriptor", d.String(), "path", p.store.ConfigPath())
		}
	}

	return permissions.StateGranted, nil
}

// RevokeState downgrades a capability. The revocation overrides rules and
// remembered grants for the descriptor's key until the process exits.
func (p *Policy) RevokeState(_ context.Context, d permissions.Descriptor) (permissions.State, error) {
	p.mu.Lock()
	p.revoked[d.CacheKey()] = true
	p.grants = removeCovered(p.grants, d)
	p.mu.Unlock()

	slog.Debug("capability revoked", "descriptor", d.String())
	return permissions.StateDenied, nil
}

// decide runs overrides, remembered grants, then the rule chain, then the
// security-level default.
func (p *Policy) decide(d permissions.Descriptor) (permissions.State, error) {
	key := d.CacheKey()

	p.mu.Lock()
	if p.revoked[key] {
		p.mu.Unlock()
		return permissions.StateDenied, nil
	}
	for _, grant := range p.grants {
		if covers(grant, d) {
			p.mu.Unlock()
			return permissions.StateGranted, nil
		}
	}
	p.mu.Unlock()

	for _, compiled := range p.rules {
		matched, err := p.ruleMatches(compiled, d)
		if err != nil {
			return "", err
		}
		if matched {
			return compiled.rule.Effect.State()
		}
	}

	return p.level.defaultState(), nil
}

func (p *Policy) ruleMatches(compiled compiledRule, d permissions.Descriptor) (bool, error) {
	rule := compiled.rule
	if rule.Kind != d.Kind {
		return false, nil
	}
	if !matchScope(d.Scope(), rule.Scope) {
		return false, nil
	}
	if compiled.program == nil {
		return true, nil
	}

	result, err := expr.Run(compiled.program, conditionEnv(d))
	if err != nil {
		return false, apperrors.NewPolicyError(rule.Name, "condition failed to evaluate", err)
	}
	matched, ok := result.(bool)
	if !ok {
		return false, apperrors.NewPolicyError(rule.Name, "condition did not return a boolean", nil)
	}
	return matched, nil
}

// conditionEnv exposes the descriptor to rule conditions.
func conditionEnv(d permissions.Descriptor) map[string]interface{} {
	return map[string]interface{}{
		"kind":  string(d.Kind),
		"path":  d.Path,
		"host":  d.Host,
		"scope": d.Scope(),
	}
}

// conditionOptions returns the expr options shared by all rule conditions.
func conditionOptions() []expr.Option {
	return []expr.Option{
		expr.Env(conditionEnv(permissions.Descriptor{})),
		expr.AsBool(),
		expr.Function("hasPrefix", func(params ...interface{}) (interface{}, error) {
			if len(params) != 2 {
				return nil, fmt.Errorf("hasPrefix expects 2 arguments")
			}
			s, ok := params[0].(string)
			if !ok {
				return nil, fmt.Errorf("hasPrefix: first argument must be a string")
			}
			prefix, ok := params[1].(string)
			if !ok {
				return nil, fmt.Errorf("hasPrefix: second argument must be a string")
			}
			return strings.HasPrefix(s, prefix), nil
		}),
	}
}

// matchScope performs simple glob-like pattern matching against a
// descriptor scope. An empty pattern matches any scope, a trailing "*"
// matches by prefix, and a leading "*." matches a host and its subdomains.
func matchScope(scope, pattern string) bool {
	if pattern == "" || pattern == "*" {
		return true
	}
	if rest, ok := strings.CutPrefix(pattern, "*."); ok {
		return scope == rest || strings.HasSuffix(scope, "."+rest)
	}
	if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
		return strings.HasPrefix(scope, prefix)
	}
	return scope == pattern
}

// covers reports whether a remembered grant satisfies a requested
// descriptor: same kind, and the grant is either unscoped or contains the
// requested scope.
func covers(grant, request permissions.Descriptor) bool {
	if grant.Kind != request.Kind {
		return false
	}
	grantScope := grant.Scope()
	if grantScope == "" {
		return true
	}
	requestScope := request.Scope()
	if grantScope == requestScope {
		return true
	}
	// Path grants cover their subtree.
	if grant.Kind == permissions.KindRead || grant.Kind == permissions.KindWrite {
		return strings.HasPrefix(requestScope, strings.TrimSuffix(grantScope, "/")+"/")
	}
	return false
}

// appendGrant adds a grant unless an equal one is already remembered.
func appendGrant(grants []permissions.Descriptor, d permissions.Descriptor) []permissions.Descriptor {
	for _, existing := range grants {
		if existing.Equals(d) {
			return grants
		}
	}
	return append(grants, d)
}

// removeCovered drops remembered grants made moot by a revocation.
func removeCovered(grants []permissions.Descriptor, revoked permissions.Descriptor) []permissions.Descriptor {
	kept := grants[:0]
	for _, grant := range grants {
		if !covers(revoked, grant) && !grant.Equals(revoked) {
			kept = append(kept, grant)
		}
	}
	return kept
}
