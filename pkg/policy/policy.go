package policy

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/dealgrid/agentgate/pkg/registry"
)

// SafetyPolicy is the process-wide execution policy. It is loaded once at
// startup and never mutated at runtime; every field is read-only from the
// gateway's point of view.
type SafetyPolicy struct {
	// AutoExecuteEnabled is the global kill switch. When false nothing
	// auto-executes, regardless of any other toggle.
	AutoExecuteEnabled bool `json:"auto_execute_enabled" mapstructure:"auto_execute_enabled"`

	// AutoExecuteByRisk enables auto-execution per risk level. A missing
	// level counts as disabled.
	AutoExecuteByRisk map[registry.RiskLevel]bool `json:"auto_execute_by_risk" mapstructure:"auto_execute_by_risk"`

	// DisabledTools cannot run or be queued for approval at all.
	DisabledTools []string `json:"disabled_tools" mapstructure:"disabled_tools"`

	MaxToolCallsPerRun int `json:"max_tool_calls_per_run" mapstructure:"max_tool_calls_per_run" validate:"gt=0"`
	MaxRunsPerMinute   int `json:"max_runs_per_minute" mapstructure:"max_runs_per_minute" validate:"gt=0"`

	// ApprovalExpiration is how long a pending approval stays decidable.
	ApprovalExpiration time.Duration `json:"approval_expiration" mapstructure:"approval_expiration" validate:"gt=0"`
}

// Default returns the stock policy: only low-risk tools auto-execute, 50
// calls per run, 10 runs per operator per minute, 24h approval window.
func Default() SafetyPolicy {
	return SafetyPolicy{
		AutoExecuteEnabled: true,
		AutoExecuteByRisk: map[registry.RiskLevel]bool{
			registry.RiskLow:      true,
			registry.RiskMedium:   false,
			registry.RiskHigh:     false,
			registry.RiskCritical: false,
		},
		DisabledTools:      []string{},
		MaxToolCallsPerRun: 50,
		MaxRunsPerMinute:   10,
		ApprovalExpiration: 24 * time.Hour,
	}
}

// ShouldAutoExecute decides whether a proposed call may run without a human
// decision. The checks are ordered and first-match-wins:
//
//  1. Global kill switch off: never.
//  2. External impact: never, no toggle can override this.
//  3. Tool requires approval: never.
//  4. Otherwise, only if the per-risk toggle for the tool's level is on.
func (p *SafetyPolicy) ShouldAutoExecute(toolName string, risk registry.RiskLevel, requiresApproval, externalImpact bool) bool {
	if !p.AutoExecuteEnabled {
		return false
	}
	if externalImpact {
		return false
	}
	if requiresApproval {
		return false
	}
	return p.AutoExecuteByRisk[risk]
}

// IsToolDisabled reports whether a tool is in the disabled set. A disabled
// tool is a hard error before any other gate; it cannot be queued for
// approval either.
func (p *SafetyPolicy) IsToolDisabled(toolName string) bool {
	for _, disabled := range p.DisabledTools {
		if disabled == toolName {
			return true
		}
	}
	return false
}

// Validate checks the policy configuration for usable limit values.
func (p *SafetyPolicy) Validate() error {
	return validator.New().Struct(p)
}
