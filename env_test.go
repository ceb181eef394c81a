package mpymk

import (
	"errors"
	"slices"
	"testing"

	"git.fractalqb.de/fractalqb/testerr"
)

func TestEnv_tags(t *testing.T) {
	var e Env
	if _, ok := e.Tag("foo"); ok {
		t.Error("tag 'foo' in empty env")
	}
	e.SetTag("foo", "bar")
	if v, ok := e.Tag("foo"); !ok {
		t.Error("tag 'foo' not set")
	} else if v != "bar" {
		t.Errorf("tag 'foo' has value '%s'", v)
	}
	e.DelTag("foo")
	if _, ok := e.Tag("foo"); ok {
		t.Error("tag 'foo' not deleted")
	}
}

func TestEnv_ExecEnv(t *testing.T) {
	var e Env
	e.SetTag("FOO", "bar")
	xenv := testerr.Shall1(e.ExecEnv()).BeNil(t)
	if !slices.Contains(xenv, "FOO=bar") {
		t.Errorf("exec env misses FOO: %q", xenv)
	}

	e.SetTag("BAD=KEY", "x")
	_, err := e.ExecEnv()
	if !errors.Is(err, NonXEnvKeys(nil)) {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestEnv_ExecEnvCache(t *testing.T) {
	var e Env
	e.SetTag("A", "1")
	testerr.Shall1(e.ExecEnv()).BeNil(t)
	e.SetTag("B", "2")
	xenv := testerr.Shall1(e.ExecEnv()).BeNil(t)
	if !slices.Contains(xenv, "B=2") {
		t.Errorf("stale exec env: %q", xenv)
	}
}
