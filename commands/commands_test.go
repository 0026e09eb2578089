package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/twpayne/go-vfs/vfst"
	"github.com/zeu5/forage-rl/checkpoint"
)

func useTestFS(t *testing.T) *vfst.TestFS {
	t.Helper()
	fs, cleanup, err := vfst.NewTestFS(map[string]interface{}{})
	if err != nil {
		t.Fatal(err)
	}
	previous := fileSystem
	fileSystem = fs
	t.Cleanup(func() {
		fileSystem = previous
		cleanup()
	})
	return fs
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "forage.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func execute(args ...string) (string, string, error) {
	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	root := GetRootCommand()
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func TestInitAndInspect(t *testing.T) {
	useTestFS(t)
	cfg := writeConfig(t, "features: 2\ncheckpoint: {dir: /matrices}\n")

	if _, _, err := execute("init", "--config", cfg, "--name", "final"); err != nil {
		t.Fatal(err)
	}
	if _, _, err := execute("init", "--config", cfg, "--name", "final"); err == nil {
		t.Errorf("expected init to refuse overwriting")
	}
	if _, _, err := execute("init", "--config", cfg, "--name", "final", "--force"); err != nil {
		t.Errorf("expected --force to overwrite, got %v", err)
	}

	out, _, err := execute("inspect", "--config", cfg)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 5 {
		t.Fatalf("expected a header and 4 states, got %q", out)
	}
	if lines[0] != "state\tblobs\tforward\tleft\tright\tgreedy" {
		t.Errorf("unexpected header %q", lines[0])
	}
	if lines[2] != "1\t.#\t0.000\t0.000\t0.000\tforward" {
		t.Errorf("unexpected row %q", lines[2])
	}

	if _, _, err := execute("inspect", "--config", cfg, "--name", "missing"); err == nil {
		t.Errorf("expected an error for a missing checkpoint")
	}
}

func TestTrainAgainstSimulator(t *testing.T) {
	fs := useTestFS(t)
	cfg := writeConfig(t, `
iterations: 30
checkpoint_interval: 10
log_every: 0
checkpoint: {dir: /matrices}
record: {dir: /results, plot: false}
`)
	_, logs, err := execute("train", "--config", cfg)
	if err != nil {
		t.Fatalf("%v\n%s", err, logs)
	}

	store := checkpoint.NewFileStore(fs, "/matrices", "q_matrix_new_")
	names, err := store.List()
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(names, []string{"0", "10", "20", "final"}) {
		t.Errorf("unexpected checkpoints %v", names)
	}
	if _, err := fs.Stat("/results/episodes.jsonl"); err != nil {
		t.Errorf("expected the episode log: %v", err)
	}

	if _, _, err := execute("run", "--config", cfg, "--steps", "5"); err != nil {
		t.Errorf("expected run to follow the trained table, got %v", err)
	}
}

func TestTrainFlagOverridesConfig(t *testing.T) {
	fs := useTestFS(t)
	cfg := writeConfig(t, "iterations: 1000\ncheckpoint: {dir: /matrices}\nrecord: {dir: \"\"}\nlog_every: 0\n")
	if _, logs, err := execute("train", "--config", cfg, "--iterations", "3"); err != nil {
		t.Fatalf("%v\n%s", err, logs)
	}
	names, err := checkpoint.NewFileStore(fs, "/matrices", "q_matrix_new_").List()
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(names, []string{"0", "final"}) {
		t.Errorf("expected 3 iterations, got checkpoints %v", names)
	}
}

func TestInvalidConfigFails(t *testing.T) {
	useTestFS(t)
	cfg := writeConfig(t, "driver: {kind: serial}\n")
	if _, _, err := execute("train", "--config", cfg); err == nil {
		t.Errorf("expected an error")
	}
}
