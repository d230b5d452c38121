package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

// writeFixture builds a plugin directory with one Lua module and a config
// file pointing the bank at it, with a private cache directory.
func writeFixture(t *testing.T) string {
	t.Helper()
	plugins := t.TempDir()
	module := `
function modbank_entry(m)
	m.set_name("wavdec")
	m.set_capability("decoder", 100)
end
`
	if err := os.WriteFile(filepath.Join(plugins, "libwav_plugin.lua"), []byte(module), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := filepath.Join(t.TempDir(), "modbank.toml")
	// Go string quoting is valid TOML for plain paths.
	content := `
[plugins]
dir = ` + strconv.Quote(plugins) + `

[cache]
dir = ` + strconv.Quote(t.TempDir()) + `

[log]
level = "error"
`
	if err := os.WriteFile(cfg, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return cfg
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd("test")
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestListCommand(t *testing.T) {
	cfg := writeFixture(t)

	out, err := runCommand(t, "list", "--config", cfg)
	if err != nil {
		t.Fatalf("list error = %v", err)
	}
	if !strings.Contains(out, "wavdec") {
		t.Errorf("list output missing module:\n%s", out)
	}
	if !strings.Contains(out, "core") {
		t.Errorf("list output missing builtin core:\n%s", out)
	}
}

func TestListCommandFiltersByCapability(t *testing.T) {
	cfg := writeFixture(t)

	out, err := runCommand(t, "list", "--config", cfg, "--capability", "decoder")
	if err != nil {
		t.Fatalf("list error = %v", err)
	}
	if !strings.Contains(out, "wavdec") {
		t.Errorf("filtered list missing decoder:\n%s", out)
	}
	if strings.Contains(out, "builtin") {
		t.Errorf("filtered list leaked non-decoder modules:\n%s", out)
	}
}

func TestProbeCommand(t *testing.T) {
	cfg := writeFixture(t)

	out, err := runCommand(t, "probe", "decoder", "--config", cfg)
	if err != nil {
		t.Fatalf("probe error = %v", err)
	}
	if !strings.Contains(out, "wavdec") {
		t.Errorf("probe output = %q, want the winning module", out)
	}

	if _, err := runCommand(t, "probe", "muxer", "--config", cfg); err == nil {
		t.Error("probe of an unprovided capability succeeded, want error")
	}
}

func TestProbeCommandMapsWinner(t *testing.T) {
	cfg := writeFixture(t)

	// Seed the cache so the next run registers described-only modules.
	if _, err := runCommand(t, "cache", "reset", "--config", cfg); err != nil {
		t.Fatalf("cache reset error = %v", err)
	}

	if _, err := runCommand(t, "probe", "decoder", "--map", "--config", cfg); err != nil {
		t.Fatalf("probe --map error = %v", err)
	}
}

func TestCacheResetCommand(t *testing.T) {
	cfg := writeFixture(t)

	out, err := runCommand(t, "cache", "reset", "--config", cfg)
	if err != nil {
		t.Fatalf("cache reset error = %v", err)
	}
	if !strings.Contains(out, "cache rebuilt") {
		t.Errorf("cache reset output = %q", out)
	}
}
