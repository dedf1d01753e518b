package main

import (
	"bytes"
	"errors"
	"flag"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/exascience/fhn"
	"github.com/exascience/fhn/diag"
)

func parse(t *testing.T, args ...string) (*config, error) {
	t.Helper()
	fs := flag.NewFlagSet("fhn", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return parseFlags(fs, args)
}

func TestParseFlags(t *testing.T) {
	c, err := parse(t, "-n", "32", "-dd", "0.001", "-workers", "4", "-steps", "20", "-interval", "5")
	if err != nil {
		t.Fatal(err)
	}
	if c.params.N != 32 || c.params.DD != 0.001 || c.workers != 4 || c.params.Steps != 20 || c.params.Interval != 5 {
		t.Errorf("unexpected config %+v", c)
	}
	if c.params.A != fhn.Default().A || c.out != "nrms.txt" {
		t.Errorf("defaults were not kept: %+v", c)
	}
	if _, err := parse(t, "-n", "30", "-workers", "4"); !errors.Is(err, fhn.ErrConfig) {
		t.Errorf("indivisible grid: got %v", err)
	}
	if _, err := parse(t, "-workers", "-1"); !errors.Is(err, fhn.ErrConfig) {
		t.Errorf("negative workers: got %v", err)
	}
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	for _, args := range [][]string{
		{"-steps", "20", "-interval", "10"},
		{"-steps", "20", "-interval", "10", "-workers", "4", "-sequential"},
	} {
		out := filepath.Join(dir, "nrms.txt")
		c, err := parse(t, append(args, "-out", out, "-snapshot", filepath.Join(dir, "final"))...)
		if err != nil {
			t.Fatal(err)
		}
		var stdout bytes.Buffer
		if err := run(c, &stdout); err != nil {
			t.Fatal(err)
		}
		data, err := os.ReadFile(out)
		if err != nil {
			t.Fatal(err)
		}
		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		if len(lines) != 3 || lines[0]+"\n" != diag.Header {
			t.Errorf("%v: unexpected norms file %q", args, data)
		}
		if !strings.HasPrefix(stdout.String(), "t = 0.0\tu-norm = ") || strings.Count(stdout.String(), "\n") != 2 {
			t.Errorf("%v: unexpected progress %q", args, stdout.String())
		}
		for _, name := range []string{"final-u.png", "final-v.png"} {
			if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
				t.Error(err)
			}
		}
	}
}
