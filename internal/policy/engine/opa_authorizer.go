package engine

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/v1/ast"
	"github.com/open-policy-agent/opa/v1/rego"
)

const policyQuery = "data.juntos.authz.allow"

// Default Rego policy. Admins may do everything; signed-in persons act on
// their own profile and read leader content.
const defaultRegoPolicy = `package juntos.authz

default allow := false

allow if input.subject.role == "ADMIN"

member_actions := {"referrals.list", "avatar.update", "session.logout"}

allow if {
	input.subject.id != ""
	input.action in member_actions
}

owner_actions := {"profile.read", "profile.update"}

allow if {
	input.subject.id != ""
	input.action in owner_actions
	input.subject.id == input.resource.owner_id
}

allow if {
	input.action == "announcements.read"
	input.subject.role == "LEADER"
}
`

// OPAAuthorizer evaluates the authorization policy in-process with OPA Rego.
type OPAAuthorizer struct {
	query rego.PreparedEvalQuery
}

var _ Authorizer = (*OPAAuthorizer)(nil)

// NewOPAAuthorizer compiles the default policy. Extra modules, keyed by file
// name, may add rules to package juntos.authz.
func NewOPAAuthorizer(ctx context.Context, extraModules map[string]string) (*OPAAuthorizer, error) {
	modules := map[string]string{"authz.rego": defaultRegoPolicy}
	for name, src := range extraModules {
		modules[name] = src
	}
	compiler, err := ast.CompileModules(modules)
	if err != nil {
		return nil, fmt.Errorf("compile policy: %w", err)
	}
	pq, err := rego.New(
		rego.Query(policyQuery),
		rego.Compiler(compiler),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("prepare policy: %w", err)
	}
	return &OPAAuthorizer{query: pq}, nil
}

// Allow evaluates the policy for in. Undefined results deny.
func (a *OPAAuthorizer) Allow(ctx context.Context, in Input) (bool, error) {
	rs, err := a.query.Eval(ctx, rego.EvalInput(buildInput(in)))
	if err != nil {
		return false, fmt.Errorf("eval policy: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return false, nil
	}
	allowed, _ := rs[0].Expressions[0].Value.(bool)
	return allowed, nil
}

// HealthCheck evaluates an anonymous request against the compiled policy.
// It is used by the readiness endpoint.
func (a *OPAAuthorizer) HealthCheck(ctx context.Context) error {
	allowed, err := a.Allow(ctx, Input{Action: ActionAdmin})
	if err != nil {
		return err
	}
	if allowed {
		return fmt.Errorf("policy allows anonymous admin access")
	}
	return nil
}

func buildInput(in Input) map[string]interface{} {
	return map[string]interface{}{
		"subject": map[string]interface{}{
			"id":   in.Subject.ID,
			"role": in.Subject.Role,
		},
		"action": in.Action,
		"resource": map[string]interface{}{
			"owner_id": in.OwnerID,
		},
	}
}
