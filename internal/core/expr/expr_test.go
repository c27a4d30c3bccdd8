package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate(t *testing.T) {
	bindings := Bindings{
		"environment": "prod",
		"replicas":    3,
		"tls":         true,
		"regions":     []string{"us-east", "eu-west"},
	}

	tests := []struct {
		name string
		expr string
		want bool
	}{
		{"equality match", `environment == "prod"`, true},
		{"equality mismatch", `environment == "dev"`, false},
		{"inequality", `environment != "dev"`, true},
		{"single quoted literal", `environment == 'prod'`, true},
		{"number equality", `replicas == 3`, true},
		{"number inequality", `replicas != 2`, true},
		{"bool literal comparison", `tls == true`, true},
		{"bare bool variable", `tls`, true},
		{"not bare bool", `not tls`, false},
		{"membership", `environment in ["dev", "prod"]`, true},
		{"membership miss", `environment in ["dev", "staging"]`, false},
		{"tuple membership", `environment in ("dev", "prod")`, true},
		{"negated membership", `environment not in ["dev", "staging"]`, true},
		{"empty list membership", `environment in []`, false},
		{"and both true", `environment == "prod" and tls == true`, true},
		{"and short circuit", `environment == "dev" and tls == true`, false},
		{"or", `environment == "dev" or tls == true`, true},
		{"not", `not environment == "dev"`, true},
		{"precedence not over and", `not tls and environment == "dev"`, false},
		{"precedence and over or", `environment == "dev" and tls or environment == "prod"`, true},
		{"parens override", `environment == "dev" or (tls and replicas == 3)`, true},
		{"number vs string never equal", `replicas == "3"`, false},
		{"empty expression is true", ``, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Evaluate(tt.expr, bindings)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvaluate_Errors(t *testing.T) {
	tests := []struct {
		name string
		expr string
	}{
		{"arithmetic rejected", `replicas + 1 == 4`},
		{"function call rejected", `len(regions) == 2`},
		{"attribute access rejected", `environment.upper == "PROD"`},
		{"assignment rejected", `environment = "prod"`},
		{"bare string operand rejected", `"prod"`},
		{"bare number operand rejected", `3`},
		{"unterminated string", `environment == "prod`},
		{"trailing garbage", `environment == "prod" extra`},
		{"missing comparison", `environment "prod"`},
		{"not without in", `environment not "prod"`},
		{"list on left side", `["a"] in regions`},
		{"nested list literal", `environment in [["a"]]`},
		{"unbound variable", `missing == "x"`},
		{"non-boolean bare variable", `environment`},
		{"and with string operand", `environment and tls`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Evaluate(tt.expr, Bindings{"environment": "prod", "tls": true, "replicas": 3, "regions": []string{"us-east"}})
			require.Error(t, err)

			var exprErr *Error
			require.ErrorAs(t, err, &exprErr)
			assert.NotEmpty(t, exprErr.Msg)
		})
	}
}

func TestEvaluate_ErrorPosition(t *testing.T) {
	_, err := Evaluate(`environment == "prod" and missing == "x"`, Bindings{"environment": "prod"})
	require.Error(t, err)

	var exprErr *Error
	require.ErrorAs(t, err, &exprErr)
	assert.Equal(t, 26, exprErr.Pos)
	assert.Contains(t, exprErr.Error(), "missing")
}

func TestValidate(t *testing.T) {
	declared := []string{"environment", "tls"}

	tests := []struct {
		name    string
		expr    string
		wantErr int
	}{
		{"valid expression", `environment == "prod" and tls`, 0},
		{"empty expression", ``, 0},
		{"undeclared variable", `env == "prod"`, 1},
		{"multiple undeclared", `env == "prod" or stage == "dev"`, 2},
		{"syntax error", `environment ==`, 1},
		{"undeclared inside membership", `region in ["us", "eu"]`, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := Validate(tt.expr, declared)
			assert.Len(t, errs, tt.wantErr)
		})
	}
}

func TestValidate_UndeclaredIndependentOfBindings(t *testing.T) {
	// Validation must flag undeclared names even when a binding for the
	// name happens to exist.
	errs := Validate(`env == "prod"`, []string{"environment"})
	require.Len(t, errs, 1)

	var exprErr *Error
	require.ErrorAs(t, errs[0], &exprErr)
	assert.Contains(t, exprErr.Msg, "undeclared")
}
