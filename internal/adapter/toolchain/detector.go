// Package toolchain guesses a project's technology stack from marker files.
package toolchain

import (
	"encoding/json"
	"io/fs"
	"os"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pkg/errors"
)

// Unknown is the primary language reported when no marker matched.
const Unknown = "Unknown"

// Info is the detected stack of one project directory.
type Info struct {
	PrimaryLanguage    string   `json:"primary_language"`
	SecondaryLanguages []string `json:"secondary_languages"`
	Frameworks         []string `json:"frameworks"`
	BuildTools         []string `json:"build_tools"`
	PackageManagers    []string `json:"package_managers"`
	TestFrameworks     []string `json:"test_frameworks"`
	Confidence         float64  `json:"confidence"`
}

type language struct {
	name     string
	files    []string // strong markers
	configs  []string
	dirs     []string
	sources  []string // source file globs, shallow
	anchors  []string // when set, at least one must match
	priority float64
}

var languages = []language{
	{
		name:     "Python",
		files:    []string{"pyproject.toml", "setup.py", "requirements.txt", "Pipfile"},
		configs:  []string{"pytest.ini", "tox.ini", ".flake8", "mypy.ini"},
		dirs:     []string{"venv", ".venv", "__pycache__"},
		sources:  []string{"*.py", "*/*.py"},
		priority: 1.0,
	},
	{
		name:     "TypeScript",
		files:    []string{"tsconfig.json", "package.json"},
		configs:  []string{".eslintrc", ".prettierrc", "jest.config.ts", "vitest.config.ts"},
		sources:  []string{"*.ts", "*/*.ts", "*.tsx", "*/*.tsx"},
		anchors:  []string{"tsconfig.json", "*.ts", "*/*.ts"},
		priority: 1.0,
	},
	{
		name:     "JavaScript",
		files:    []string{"package.json", "yarn.lock", "package-lock.json"},
		configs:  []string{"jest.config.js", ".babelrc"},
		dirs:     []string{"node_modules"},
		sources:  []string{"*.js", "*/*.js", "*.jsx", "*/*.jsx"},
		priority: 0.9,
	},
	{
		name:     "Rust",
		files:    []string{"Cargo.toml", "Cargo.lock"},
		configs:  []string{"rustfmt.toml", "clippy.toml"},
		dirs:     []string{"target"},
		sources:  []string{"*.rs", "src/**/*.rs"},
		priority: 0.9,
	},
	{
		name:     "Go",
		files:    []string{"go.mod", "go.sum"},
		configs:  []string{".golangci.yml", ".golangci.yaml"},
		dirs:     []string{"vendor"},
		sources:  []string{"*.go", "*/*.go", "*/*/*.go"},
		priority: 0.9,
	},
	{
		name:     "Java",
		files:    []string{"pom.xml", "build.gradle", "build.gradle.kts"},
		configs:  []string{"gradle.properties"},
		dirs:     []string{".gradle", ".mvn"},
		sources:  []string{"src/**/*.java"},
		priority: 0.8,
	},
}

// marker maps a glob to a tool name.
type marker struct {
	glob string
	name string
}

var buildTools = []marker{
	{"Makefile", "make"},
	{"Cargo.toml", "cargo"},
	{"go.mod", "go"},
	{"pom.xml", "maven"},
	{"build.gradle*", "gradle"},
	{"webpack.config.*", "webpack"},
	{"vite.config.*", "vite"},
	{"setup.py", "setuptools"},
}

var packageManagers = []marker{
	{"package-lock.json", "npm"},
	{"yarn.lock", "yarn"},
	{"pnpm-lock.yaml", "pnpm"},
	{"requirements.txt", "pip"},
	{"poetry.lock", "poetry"},
	{"uv.lock", "uv"},
	{"Pipfile", "pipenv"},
	{"Cargo.lock", "cargo"},
	{"go.sum", "go modules"},
}

var testFrameworks = []marker{
	{"pytest.ini", "pytest"},
	{"conftest.py", "pytest"},
	{"**/conftest.py", "pytest"},
	{"jest.config.*", "jest"},
	{"vitest.config.*", "vitest"},
	{"*_test.go", "go test"},
	{"*/*_test.go", "go test"},
	{"*/*/*_test.go", "go test"},
	{"cypress.config.*", "cypress"},
	{"playwright.config.*", "playwright"},
}

// frameworks found by dependency name in package.json or python manifests
var (
	jsFrameworks = map[string]string{
		"react": "React", "next": "Next.js", "vue": "Vue", "svelte": "Svelte",
		"express": "Express", "@angular/core": "Angular", "@nestjs/core": "NestJS",
	}
	pyFrameworks = map[string]string{
		"django": "Django", "flask": "Flask", "fastapi": "FastAPI",
	}
)

// Detector inspects a directory tree. It only reads; it never executes
// project tooling.
type Detector struct{}

func NewDetector() *Detector {
	return &Detector{}
}

// Detect scores every known language by its markers and reports the best.
func (d *Detector) Detect(dir string) (*Info, error) {
	st, err := os.Stat(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read project directory %s", dir)
	}
	if !st.IsDir() {
		return nil, errors.Errorf("%s is not a directory", dir)
	}
	fsys := os.DirFS(dir)

	type scored struct {
		name  string
		score float64
	}
	var found []scored
	for _, lang := range languages {
		if s := scoreLanguage(fsys, lang); s > 0 {
			found = append(found, scored{lang.name, s})
		}
	}
	sort.SliceStable(found, func(i, j int) bool { return found[i].score > found[j].score })

	info := &Info{
		PrimaryLanguage:    Unknown,
		SecondaryLanguages: []string{},
		Frameworks:         detectFrameworks(fsys),
		BuildTools:         matchMarkers(fsys, buildTools),
		PackageManagers:    matchMarkers(fsys, packageManagers),
		TestFrameworks:     matchMarkers(fsys, testFrameworks),
	}
	if len(found) == 0 {
		return info, nil
	}

	info.PrimaryLanguage = found[0].name
	total := 0.0
	for i, f := range found {
		total += f.score
		if i > 0 {
			info.SecondaryLanguages = append(info.SecondaryLanguages, f.name)
		}
	}
	// Share of the evidence, damped while the evidence itself is thin.
	info.Confidence = (found[0].score / total) * min(1, found[0].score/2)
	return info, nil
}

func scoreLanguage(fsys fs.FS, lang language) float64 {
	if len(lang.anchors) > 0 && !anyMatch(fsys, lang.anchors) {
		return 0
	}
	score := 1.0*float64(countExisting(fsys, lang.files, false)) +
		0.5*float64(countExisting(fsys, lang.configs, false)) +
		0.25*float64(countExisting(fsys, lang.dirs, true))

	sources := 0
	for _, pattern := range lang.sources {
		matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
		if err == nil {
			sources += len(matches)
		}
	}
	score += 0.1 * float64(min(sources, 10))
	return score * lang.priority
}

func anyMatch(fsys fs.FS, patterns []string) bool {
	for _, pattern := range patterns {
		matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
		if err == nil && len(matches) > 0 {
			return true
		}
	}
	return false
}

func countExisting(fsys fs.FS, names []string, wantDir bool) int {
	n := 0
	for _, name := range names {
		st, err := fs.Stat(fsys, name)
		if err == nil && st.IsDir() == wantDir {
			n++
		}
	}
	return n
}

func matchMarkers(fsys fs.FS, markers []marker) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, m := range markers {
		if seen[m.name] {
			continue
		}
		matches, err := doublestar.Glob(fsys, m.glob, doublestar.WithFilesOnly())
		if err == nil && len(matches) > 0 {
			seen[m.name] = true
			out = append(out, m.name)
		}
	}
	return out
}

func detectFrameworks(fsys fs.FS) []string {
	seen := make(map[string]bool)
	out := []string{}
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}

	if data, err := fs.ReadFile(fsys, "package.json"); err == nil {
		var pkg struct {
			Dependencies    map[string]string `json:"dependencies"`
			DevDependencies map[string]string `json:"devDependencies"`
		}
		if json.Unmarshal(data, &pkg) == nil {
			deps := make([]string, 0, len(pkg.Dependencies)+len(pkg.DevDependencies))
			for dep := range pkg.Dependencies {
				deps = append(deps, dep)
			}
			for dep := range pkg.DevDependencies {
				deps = append(deps, dep)
			}
			sort.Strings(deps)
			for _, dep := range deps {
				if name, ok := jsFrameworks[dep]; ok {
					add(name)
				}
			}
		}
	}

	for _, manifest := range []string{"requirements.txt", "pyproject.toml", "Pipfile"} {
		data, err := fs.ReadFile(fsys, manifest)
		if err != nil {
			continue
		}
		text := strings.ToLower(string(data))
		keys := make([]string, 0, len(pyFrameworks))
		for k := range pyFrameworks {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if strings.Contains(text, k) {
				add(pyFrameworks[k])
			}
		}
	}
	return out
}

// Recommend returns the toolchain filter for info: the lowercased primary
// language, or "" when nothing was detected.
func Recommend(info *Info) string {
	if info == nil || info.PrimaryLanguage == Unknown {
		return ""
	}
	return strings.ToLower(info.PrimaryLanguage)
}

// Query builds a search query describing the detected stack.
func Query(info *Info) string {
	if info == nil || info.PrimaryLanguage == Unknown {
		return ""
	}
	parts := []string{info.PrimaryLanguage}
	parts = append(parts, info.Frameworks...)
	parts = append(parts, info.TestFrameworks...)
	return strings.Join(parts, " ")
}
