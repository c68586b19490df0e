package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cameronsjo/dockergen/internal/environ"
)

// evalSymlinks resolves symlinks for path comparison (macOS /var -> /private/var).
func evalSymlinks(t *testing.T, path string) string {
	t.Helper()
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return path
	}
	return resolved
}

// chdir switches to dir for the rest of the test.
func chdir(t *testing.T, dir string) {
	t.Helper()
	originalWd, err := os.Getwd()
	require.NoError(t, err)
	t.Cleanup(func() { os.Chdir(originalWd) })
	require.NoError(t, os.Chdir(dir))
}

func TestFindRoot_FromSubdirectory(t *testing.T) {
	tmpDir := evalSymlinks(t, t.TempDir())
	require.NoError(t, os.MkdirAll(filepath.Join(tmpDir, "docker", "templates"), 0755))

	subDir := filepath.Join(tmpDir, "sub", "deep")
	require.NoError(t, os.MkdirAll(subDir, 0755))
	chdir(t, subDir)

	root, err := FindRoot()
	require.NoError(t, err)
	assert.Equal(t, tmpDir, root)
}

func TestFindRoot_FromProjectRoot(t *testing.T) {
	tmpDir := evalSymlinks(t, t.TempDir())
	require.NoError(t, os.MkdirAll(filepath.Join(tmpDir, "docker", "templates"), 0755))
	chdir(t, tmpDir)

	root, err := FindRoot()
	require.NoError(t, err)
	assert.Equal(t, tmpDir, root)
}

func TestFindRoot_NoProjectRoot(t *testing.T) {
	chdir(t, t.TempDir())

	_, err := FindRoot()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "project root not found")
}

func TestFindRootFrom(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(t *testing.T, root string)
		start   string
		wantErr bool
	}{
		{
			name: "deep nesting",
			setup: func(t *testing.T, root string) {
				require.NoError(t, os.MkdirAll(filepath.Join(root, "docker", "templates"), 0755))
				require.NoError(t, os.MkdirAll(filepath.Join(root, "a", "b", "c", "d"), 0755))
			},
			start: filepath.Join("a", "b", "c", "d"),
		},
		{
			name: "templates is a file",
			setup: func(t *testing.T, root string) {
				require.NoError(t, os.MkdirAll(filepath.Join(root, "docker"), 0755))
				require.NoError(t, os.WriteFile(filepath.Join(root, "docker", "templates"), nil, 0644))
			},
			wantErr: true,
		},
		{
			name: "docker without templates",
			setup: func(t *testing.T, root string) {
				require.NoError(t, os.MkdirAll(filepath.Join(root, "docker", "output"), 0755))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := evalSymlinks(t, t.TempDir())
			tt.setup(t, root)

			got, err := FindRootFrom(filepath.Join(root, tt.start))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, root, got)
		})
	}
}

func TestSettingsFromMap_Defaults(t *testing.T) {
	s, err := SettingsFromMap(map[string]string{})
	require.NoError(t, err)

	assert.Equal(t, DefaultConfigPath, s.ConfigPath)
	assert.Equal(t, DefaultTemplatesDir, s.TemplatesDir)
	assert.Equal(t, DefaultOutputDir, s.OutputDir)
	assert.Equal(t, DefaultEnvFile, s.EnvFile)
	assert.Empty(t, s.ValuesPath)
	assert.False(t, s.Strict)
	assert.True(t, s.Redact)
	assert.Equal(t, "warn", s.LogLevel)
	assert.Equal(t, environ.DefaultOverridePrefixes, s.Prefixes())
}

func TestSettingsFromMap_Overrides(t *testing.T) {
	s, err := SettingsFromMap(map[string]string{
		"DOCKERGEN_CONFIG":            "configs/prod.yaml",
		"DOCKERGEN_TEMPLATES":         "/srv/templates",
		"DOCKERGEN_OUTPUT":            "build",
		"DOCKERGEN_VALUES":            "values/prod.yaml",
		"DOCKERGEN_STRICT":            "true",
		"DOCKERGEN_REDACT":            "false",
		"DOCKERGEN_OVERRIDE_PREFIXES": "SPARK_,KAFKA_",
		"DOCKERGEN_LOG_LEVEL":         "debug",
		"CONFIG":                      "ignored without prefix",
	})
	require.NoError(t, err)

	assert.Equal(t, "configs/prod.yaml", s.ConfigPath)
	assert.Equal(t, "/srv/templates", s.TemplatesDir)
	assert.Equal(t, "build", s.OutputDir)
	assert.Equal(t, "values/prod.yaml", s.ValuesPath)
	assert.True(t, s.Strict)
	assert.False(t, s.Redact)
	assert.Equal(t, []string{"SPARK_", "KAFKA_"}, s.Prefixes())
	assert.Equal(t, "debug", s.LogLevel)
}

func TestSettingsFromMap_InvalidBool(t *testing.T) {
	_, err := SettingsFromMap(map[string]string{"DOCKERGEN_STRICT": "maybe"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse settings")
}

func TestLoadSettings_ProcessEnvironment(t *testing.T) {
	t.Setenv("DOCKERGEN_OUTPUT", "/tmp/dockergen-out")

	s, err := LoadSettings()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/dockergen-out", s.OutputDir)
}

func TestLoad(t *testing.T) {
	tmpDir := evalSymlinks(t, t.TempDir())
	require.NoError(t, os.MkdirAll(filepath.Join(tmpDir, "docker", "templates"), 0755))
	chdir(t, tmpDir)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, tmpDir, cfg.Root)
	assert.Equal(t, filepath.Join(tmpDir, "docker", "configs", "versions.yaml"), cfg.DescriptorPath())
	assert.Equal(t, filepath.Join(tmpDir, "docker", "templates"), cfg.TemplateRoot())
	assert.Equal(t, filepath.Join(tmpDir, "docker", "output"), cfg.OutputRoot())
	assert.Equal(t, filepath.Join(tmpDir, ".env"), cfg.DotEnvPath())
	assert.Empty(t, cfg.OverlayPath())
}

func TestLoad_NoProjectRoot(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.Root)
	assert.Equal(t, DefaultConfigPath, cfg.DescriptorPath(), "relative to the working directory")
}

func TestConfig_Path(t *testing.T) {
	cfg := &Config{Root: "/project"}

	assert.Equal(t, filepath.Join("/project", "docker", "output"), cfg.Path("docker/output"))
	assert.Equal(t, "/abs/out", cfg.Path("/abs/out"))
	assert.Equal(t, "", cfg.Path(""))

	noRoot := &Config{}
	assert.Equal(t, "docker/output", noRoot.Path("docker/output"))
}
