package cmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/goccy/go-yaml"
)

type initCLI struct {
	Lang    Lang             `embed:""`
	Secret  string           `hidden:""`
	Version kong.VersionFlag `help:"Print version"`

	Init Init `cmd:""`
}

func parseInit(t *testing.T, args ...string) (*initCLI, context.Context) {
	t.Helper()

	var cli initCLI

	parser, err := kong.New(&cli,
		kong.Exit(func(int) { t.Fatal("unexpected exit") }),
		kong.Vars{
			"langEnum":       "arith,filter,script",
			ConfigIdentifier: filepath.Join(t.TempDir(), "config.yaml"),
		},
	)
	if err != nil {
		t.Fatal(err)
	}

	ktx, err := parser.Parse(args)
	if err != nil {
		t.Fatal(err)
	}

	return &cli, WithContext(context.Background(), ktx)
}

func TestInit_Run(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cli, ctx := parseInit(t, "--lang=filter", "--var=x=1", "--var=y=two", "--secret=s", "init", "-o", path)

	if err := cli.Init.Run(ctx); err != nil {
		t.Fatal(err)
	}

	buf, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	want := "lang: filter\nvar:\n- x=1\n- y=two\nignore-case: false\ncache: true\n"
	if string(buf) != want {
		t.Errorf("got:\n%s\nwant:\n%s", buf, want)
	}

	var doc map[string]any
	if err := yaml.Unmarshal(buf, &doc); err != nil {
		t.Fatal(err)
	}

	if _, ok := doc["secret"]; ok {
		t.Error("hidden flag written")
	}
}

func TestInit_Exists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("lang: script\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cli, ctx := parseInit(t, "init", "--output", path)

	err := cli.Init.Run(ctx)
	if !errors.Is(err, ErrWriteConfig) || !errors.Is(err, ErrFileExists) {
		t.Fatalf("error = %v, want file exists", err)
	}

	cli, ctx = parseInit(t, "init", "--force", "--output", path)
	if err := cli.Init.Run(ctx); err != nil {
		t.Fatal(err)
	}

	buf, _ := os.ReadFile(path)
	if string(buf) == "lang: script\n" {
		t.Error("--force did not overwrite")
	}
}

func TestInit_NoContext(t *testing.T) {
	if err := (&Init{Output: filepath.Join(t.TempDir(), "c.yaml")}).Run(context.Background()); !errors.Is(err, ErrWriteConfig) {
		t.Errorf("error = %v, want write error", err)
	}
}

func TestConfigValue(t *testing.T) {
	tests := []struct {
		in   any
		want any
		ok   bool
	}{
		{nil, nil, false},
		{"", nil, false},
		{"x", "x", true},
		{false, false, true},
		{int64(3), int64(3), true},
		{[]string{}, nil, false},
		{[]string{"", ""}, nil, false},
	}

	for _, tt := range tests {
		got, ok := configValue(tt.in)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("configValue(%#v) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}

	got, ok := configValue([]string{"a", "", "b"})
	if items, _ := got.([]any); !ok || len(items) != 2 {
		t.Errorf("slice = %v, %v", got, ok)
	}
}
