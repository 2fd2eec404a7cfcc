package toolchain

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name       string
		files      map[string]string
		dirs       []string
		primary    string
		secondary  []string
		frameworks []string
		tests      []string
		managers   []string
	}{
		{
			name: "python with pytest and flask",
			files: map[string]string{
				"pyproject.toml":    "[project]\ndependencies = [\"Flask>=3\"]\n",
				"requirements.txt":  "flask\npytest\n",
				"pytest.ini":        "",
				"app/main.py":       "",
				"tests/conftest.py": "",
			},
			primary:    "Python",
			secondary:  []string{},
			frameworks: []string{"Flask"},
			tests:      []string{"pytest"},
			managers:   []string{"pip"},
		},
		{
			name: "typescript react app",
			files: map[string]string{
				"package.json":      `{"dependencies":{"react":"18"},"devDependencies":{"vitest":"1"}}`,
				"package-lock.json": "{}",
				"tsconfig.json":     "{}",
				"src/index.ts":      "",
				"src/app.tsx":       "",
				"vitest.config.ts":  "",
			},
			primary:    "TypeScript",
			secondary:  []string{"JavaScript"},
			frameworks: []string{"React"},
			tests:      []string{"vitest"},
			managers:   []string{"npm"},
		},
		{
			name: "go module",
			files: map[string]string{
				"go.mod":               "module x\n",
				"go.sum":               "",
				"main.go":              "",
				"internal/x/x_test.go": "",
			},
			dirs:       []string{"vendor"},
			primary:    "Go",
			secondary:  []string{},
			frameworks: []string{},
			tests:      []string{"go test"},
			managers:   []string{"go modules"},
		},
		{
			name:       "nothing recognisable",
			files:      map[string]string{"README.md": "hi"},
			primary:    Unknown,
			secondary:  []string{},
			frameworks: []string{},
			tests:      []string{},
			managers:   []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			touch(t, root, tt.files)
			for _, d := range tt.dirs {
				require.NoError(t, os.MkdirAll(filepath.Join(root, d), 0o755))
			}

			info, err := NewDetector().Detect(root)
			require.NoError(t, err)
			assert.Equal(t, tt.primary, info.PrimaryLanguage)
			assert.Equal(t, tt.secondary, info.SecondaryLanguages)
			assert.Equal(t, tt.frameworks, info.Frameworks)
			assert.Equal(t, tt.tests, info.TestFrameworks)
			assert.Equal(t, tt.managers, info.PackageManagers)
			assert.GreaterOrEqual(t, info.Confidence, 0.0)
			assert.LessOrEqual(t, info.Confidence, 1.0)
			if tt.primary == Unknown {
				assert.Zero(t, info.Confidence)
			} else {
				assert.Positive(t, info.Confidence)
			}
		})
	}
}

func TestDetectErrors(t *testing.T) {
	_, err := NewDetector().Detect(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)

	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	_, err = NewDetector().Detect(file)
	assert.Error(t, err)
}

func TestRecommendAndQuery(t *testing.T) {
	assert.Equal(t, "", Recommend(nil))
	assert.Equal(t, "", Recommend(&Info{PrimaryLanguage: Unknown}))

	info := &Info{PrimaryLanguage: "Python", Frameworks: []string{"Flask"}, TestFrameworks: []string{"pytest"}}
	assert.Equal(t, "python", Recommend(info))
	assert.Equal(t, "Python Flask pytest", Query(info))
	assert.Equal(t, "", Query(&Info{PrimaryLanguage: Unknown}))
}
