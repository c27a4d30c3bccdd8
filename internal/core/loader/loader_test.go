package loader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/tick/internal/core/checklist"
)

const validYAML = `checklist:
  name: Deploy Review
  version: "1.2"
  domain: deployment
  metadata:
    author: platform team
    tags: [deploy, release]
  variables:
    environment:
      prompt: Which environment?
      required: true
      options: [staging, prod]
    region:
      prompt: Which region?
      default: us-east-1
  sections:
    - name: Pre-flight
      condition: environment == "prod"
      items:
        - id: backups
          check: Backups verified
          severity: critical
        - id: regional
          check: "Health checks green in {region}"
          matrix:
            - region: us-east-1
            - region: eu-west-1
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	cl, err := Load(writeFile(t, "deploy.yaml", validYAML))
	require.NoError(t, err)

	assert.Equal(t, "Deploy Review", cl.Name)
	assert.Equal(t, "deploy-review-1.2", cl.ID())
	assert.Equal(t, "platform team", cl.Metadata.Author)

	// Declaration order survives the YAML mapping.
	require.Len(t, cl.Variables, 2)
	assert.Equal(t, "environment", cl.Variables[0].Name)
	assert.Equal(t, "region", cl.Variables[1].Name)

	// Unset severities are normalized during loading.
	assert.Equal(t, checklist.SeverityMedium, cl.Sections[0].Items[1].Severity)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "read checklist file")
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "valid",
			content: validYAML,
			want:    "",
		},
		{
			name:    "malformed yaml",
			content: "checklist: [\n",
			want:    "invalid YAML",
		},
		{
			name:    "unknown field",
			content: "checklist:\n  name: x\n  version: \"1\"\n  sektions: []\n",
			want:    "invalid YAML",
		},
		{
			name:    "missing checklist key",
			content: "name: x\nversion: \"1\"\n",
			want:    "invalid YAML",
		},
		{
			name:    "empty document",
			content: "checklist:\n",
			want:    "top-level 'checklist' mapping",
		},
		{
			name: "item without check",
			content: `checklist:
  name: x
  version: "1"
  sections:
    - name: s
      items:
        - id: a
`,
			want: "check",
		},
		{
			name: "duplicate item ids",
			content: `checklist:
  name: x
  version: "1"
  sections:
    - name: s
      items:
        - id: a
          check: one
        - id: a
          check: two
`,
			want: "duplicate",
		},
		{
			name: "default outside options",
			content: `checklist:
  name: x
  version: "1"
  variables:
    env:
      prompt: env?
      options: [a, b]
      default: c
  sections:
    - name: s
      items:
        - id: a
          check: one
`,
			want: "default",
		},
		{
			name: "condition references undeclared variable",
			content: `checklist:
  name: x
  version: "1"
  sections:
    - name: s
      condition: env == "prod"
      items:
        - id: a
          check: one
`,
			want: "undeclared",
		},
		{
			name: "condition with disallowed syntax",
			content: `checklist:
  name: x
  version: "1"
  domain: d
  variables:
    n:
      prompt: n?
  sections:
    - name: s
      items:
        - id: a
          check: one
          condition: n == 1 + 1
`,
			want: "invalid expression",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			issues, err := Validate(writeFile(t, "c.yaml", tc.content))
			require.NoError(t, err)

			if tc.want == "" {
				assert.Empty(t, issues)
				return
			}
			require.NotEmpty(t, issues)
			found := false
			for _, issue := range issues {
				if strings.Contains(issue.String(), tc.want) {
					found = true
				}
			}
			assert.True(t, found, "no issue mentioning %q in %v", tc.want, issues)
		})
	}
}

func TestValidate_IssuesCarryFieldPaths(t *testing.T) {
	content := `checklist:
  name: x
  version: "1"
  variables:
    env:
      required: true
  sections:
    - name: s
      items:
        - id: a
          check: one
`
	issues, err := Validate(writeFile(t, "c.yaml", content))
	require.NoError(t, err)
	require.NotEmpty(t, issues)
	assert.NotEmpty(t, issues[0].Path)
}

func TestLoad_ReportsIssuesAsError(t *testing.T) {
	content := `checklist:
  name: x
  version: "1"
  sections:
    - name: s
      items:
        - id: a
`
	_, err := Load(writeFile(t, "c.yaml", content))
	assert.ErrorContains(t, err, "checklist validation failed")
}
