// Package policy evaluates generated replies against a rego content policy.
package policy

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/ast"
	"github.com/open-policy-agent/opa/rego"
)

// Decision values returned by the policy.
const (
	DecisionAllow  = "allow"
	DecisionRedact = "redact"
)

// ReplyInput is the policy input for one generated reply.
type ReplyInput struct {
	Role      string `json:"role"`
	Round     int    `json:"round"`
	Length    int    `json:"length"`
	MaxLength int    `json:"max_length"`
	Content   string `json:"content"`
}

// Engine is the OPA policy engine for reply content.
type Engine struct {
	query rego.PreparedEvalQuery
}

// NewEngine creates a new policy engine with the given policy content.
func NewEngine(ctx context.Context, policyContent string) (*Engine, error) {
	r := rego.New(
		rego.Query("data.reply_policy.decision"),
		rego.Module("reply_policy.rego", policyContent),
		rego.SetRegoVersion(ast.RegoV1),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}

	return &Engine{query: query}, nil
}

// Evaluate checks one reply against the policy and returns allow or redact.
func (e *Engine) Evaluate(ctx context.Context, input ReplyInput) (string, error) {
	results, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return "", fmt.Errorf("failed to evaluate policy: %w", err)
	}

	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return DecisionAllow, nil
	}

	if s, ok := results[0].Expressions[0].Value.(string); ok {
		return s, nil
	}
	return DecisionAllow, nil
}

// DefaultPolicy redacts empty output and output past the length bound.
const DefaultPolicy = `
package reply_policy

default decision := "allow"

decision := "redact" if {
	input.length == 0
}

decision := "redact" if {
	input.max_length > 0
	input.length > input.max_length
}
`
