package engine

import (
	"context"
	"fmt"
	"os"

	"github.com/open-policy-agent/opa/v1/ast"
	"github.com/open-policy-agent/opa/v1/rego"

	userdomain "devspaces/internal/user/domain"
)

const allowQuery = "data.devspaces.admin.allow"

// DefaultPolicy maps each admin operation to the lowest global role level that may invoke it.
const DefaultPolicy = `package devspaces.admin

default allow := false

min_level := {
	"view_reports": 2,
	"update_report": 2,
	"post_site_announcement": 2,
	"view_users": 3,
	"set_subscription": 3,
	"view_workspaces": 3,
	"delete_workspace": 3,
	"view_audit_logs": 3,
	"set_role": 5,
	"toggle_admin": 5,
	"delete_user": 5
}

allow if {
	input.role_level >= min_level[input.operation]
}
`

// OPAEvaluator evaluates the admin policy with an in-process OPA Rego engine.
// The policy is compiled once at construction.
type OPAEvaluator struct {
	query rego.PreparedEvalQuery
}

// NewOPAEvaluator compiles policy, or DefaultPolicy when policy is empty.
func NewOPAEvaluator(ctx context.Context, policy string) (*OPAEvaluator, error) {
	if policy == "" {
		policy = DefaultPolicy
	}
	compiler, err := ast.CompileModules(map[string]string{"admin.rego": policy})
	if err != nil {
		return nil, fmt.Errorf("compile admin policy: %w", err)
	}
	pq, err := rego.New(
		rego.Query(allowQuery),
		rego.Compiler(compiler),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("prepare admin policy: %w", err)
	}
	return &OPAEvaluator{query: pq}, nil
}

// NewOPAEvaluatorFromFile reads a Rego override from path. An empty path uses DefaultPolicy.
func NewOPAEvaluatorFromFile(ctx context.Context, path string) (*OPAEvaluator, error) {
	if path == "" {
		return NewOPAEvaluator(ctx, "")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read admin policy: %w", err)
	}
	return NewOPAEvaluator(ctx, string(b))
}

// Allow evaluates the policy for role and op. An undefined result is a denial.
func (e *OPAEvaluator) Allow(ctx context.Context, role userdomain.Role, op Operation) (bool, error) {
	input := map[string]interface{}{
		"role":       string(role),
		"role_level": role.Level(),
		"operation":  string(op),
	}
	rs, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return false, fmt.Errorf("eval admin policy: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return false, nil
	}
	allowed, ok := rs[0].Expressions[0].Value.(bool)
	if !ok {
		return false, fmt.Errorf("admin policy returned %T, want bool", rs[0].Expressions[0].Value)
	}
	return allowed, nil
}

// HealthCheck verifies the compiled policy evaluates and still lets the owner view reports.
func (e *OPAEvaluator) HealthCheck(ctx context.Context) error {
	ok, err := e.Allow(ctx, userdomain.RoleOwner, OpViewReports)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("admin policy denies owner %s", OpViewReports)
	}
	return nil
}
