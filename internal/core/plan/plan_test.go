package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/tick/internal/core/checklist"
	"github.com/colonyops/tick/internal/core/expr"
)

func TestMatrixID(t *testing.T) {
	tests := []struct {
		name string
		id   string
		row  map[string]string
		want string
	}{
		{"no row", "auth-001", nil, "auth-001"},
		{"single key", "role-access", map[string]string{"role": "admin"}, "role-access[role=admin]"},
		{"keys sorted", "api-check", map[string]string{"verb": "GET", "auth": "none"}, "api-check[auth=none,verb=GET]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MatrixID(tt.id, tt.row))
		})
	}
}

func TestMatrixID_KeyOrderIndependent(t *testing.T) {
	a := MatrixID("x", map[string]string{"role": "admin", "region": "eu"})
	b := MatrixID("x", map[string]string{"region": "eu", "role": "admin"})
	assert.Equal(t, a, b)
}

func TestSubstitute(t *testing.T) {
	tests := []struct {
		name  string
		check string
		row   map[string]string
		want  string
	}{
		{"no placeholders", "MFA enforced", map[string]string{"role": "admin"}, "MFA enforced"},
		{"single placeholder", "{role} can log in", map[string]string{"role": "admin"}, "admin can log in"},
		{"repeated placeholder", "{role} sees only {role} data", map[string]string{"role": "user"}, "user sees only user data"},
		{"unknown placeholder left verbatim", "{role} accesses {resource}", map[string]string{"role": "user"}, "user accesses {resource}"},
		{"empty row", "{role} can log in", nil, "{role} can log in"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Substitute(tt.check, tt.row))
		})
	}
}

func TestExpand(t *testing.T) {
	t.Run("no matrix yields one runnable", func(t *testing.T) {
		item := checklist.Item{ID: "auth-001", Check: "MFA enforced", Severity: checklist.SeverityHigh}
		got := Expand(item, "Auth")

		require.Len(t, got, 1)
		assert.Equal(t, "auth-001", got[0].ItemID)
		assert.Empty(t, got[0].MatrixValues)
		assert.Equal(t, "Auth", got[0].SectionName)
	})

	t.Run("empty matrix yields zero runnables", func(t *testing.T) {
		item := checklist.Item{ID: "auth-001", Check: "MFA enforced", Matrix: []map[string]string{}}
		assert.Empty(t, Expand(item, "Auth"))
	})

	t.Run("one runnable per row in authored order", func(t *testing.T) {
		item := checklist.Item{
			ID:    "role-access",
			Check: "{role} can access the dashboard",
			Matrix: []map[string]string{
				{"role": "user"},
				{"role": "admin"},
			},
		}
		got := Expand(item, "Access")

		require.Len(t, got, 2)
		assert.Equal(t, "role-access[role=user]", got[0].ItemID)
		assert.Equal(t, "role-access[role=admin]", got[1].ItemID)
		assert.Equal(t, "user can access the dashboard", got[0].Check)
		assert.Equal(t, map[string]string{"role": "admin"}, got[1].MatrixValues)
	})

	t.Run("severity defaults to medium", func(t *testing.T) {
		item := checklist.Item{ID: "x", Check: "y"}
		got := Expand(item, "S")
		require.Len(t, got, 1)
		assert.Equal(t, checklist.SeverityMedium, got[0].Severity)
	})
}

func buildChecklist() checklist.Checklist {
	return checklist.Checklist{
		Name:    "Review",
		Version: "1.0",
		Domain:  "security",
		Variables: checklist.Variables{
			{Name: "environment", Prompt: "Environment", Required: true, Options: []string{"dev", "staging", "prod"}},
			{Name: "audited", Prompt: "Audited"},
		},
		Sections: []checklist.Section{
			{
				Name:      "Production Hardening",
				Condition: `environment == "prod"`,
				Items: []checklist.Item{
					{ID: "auth-001", Check: "MFA enforced"},
					{ID: "auth-002", Check: "Audit log shipped", Condition: `audited == true`},
				},
			},
			{
				Name: "Access",
				Items: []checklist.Item{
					{ID: "role-access", Check: "{role} access reviewed", Matrix: []map[string]string{
						{"role": "user"},
						{"role": "admin"},
					}},
				},
			},
		},
	}
}

func TestBuild(t *testing.T) {
	cl := buildChecklist()

	t.Run("prod plan includes conditional section", func(t *testing.T) {
		got, err := Build(&cl, expr.Bindings{"environment": "prod", "audited": true})
		require.NoError(t, err)
		assert.Equal(t, []string{
			"auth-001",
			"auth-002",
			"role-access[role=user]",
			"role-access[role=admin]",
		}, IDs(got))
	})

	t.Run("staging plan skips false section entirely", func(t *testing.T) {
		got, err := Build(&cl, expr.Bindings{"environment": "staging"})
		require.NoError(t, err)
		assert.Equal(t, []string{
			"role-access[role=user]",
			"role-access[role=admin]",
		}, IDs(got))
	})

	t.Run("false item condition skips only that item", func(t *testing.T) {
		got, err := Build(&cl, expr.Bindings{"environment": "prod", "audited": false})
		require.NoError(t, err)
		assert.Equal(t, []string{
			"auth-001",
			"role-access[role=user]",
			"role-access[role=admin]",
		}, IDs(got))
	})

	t.Run("deterministic across calls", func(t *testing.T) {
		bindings := expr.Bindings{"environment": "prod", "audited": true}
		first, err := Build(&cl, bindings)
		require.NoError(t, err)
		second, err := Build(&cl, bindings)
		require.NoError(t, err)
		assert.Equal(t, IDs(first), IDs(second))
	})

	t.Run("undeclared variable in condition fails fast", func(t *testing.T) {
		bad := buildChecklist()
		bad.Sections[0].Condition = `env == "prod"`
		_, err := Build(&bad, expr.Bindings{"environment": "prod", "env": "prod"})
		require.Error(t, err)

		var exprErr *expr.Error
		assert.ErrorAs(t, err, &exprErr)
	})

	t.Run("false section never evaluates item conditions", func(t *testing.T) {
		bad := buildChecklist()
		// Broken item condition inside a section the bindings exclude.
		bad.Sections[0].Items[1].Condition = `broken ==`
		got, err := Build(&bad, expr.Bindings{"environment": "staging"})
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("duplicate expanded id rejected", func(t *testing.T) {
		bad := buildChecklist()
		bad.Sections[1].Items[0].Matrix = []map[string]string{
			{"role": "admin"},
			{"role": "admin"},
		}
		_, err := Build(&bad, expr.Bindings{"environment": "staging"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate plan id")
	})
}
