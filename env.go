package mpymk

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Env provides the standard streams and the environment variables for the
// child processes a [Batch] starts. The zero value runs compilers with no
// environment and nil streams, which is rarely what you want – use
// [DefaultEnv] or set the fields explicitly.
type Env struct {
	In       io.Reader
	Out, Err io.Writer

	tags    map[string]string
	xenv    []string
	xenvErr error
}

// DefaultEnv returns an Env with the process's standard streams and a copy
// of the process environment.
func DefaultEnv() *Env {
	env := &Env{
		In:   os.Stdin,
		Out:  os.Stdout,
		Err:  os.Stderr,
		tags: make(map[string]string),
	}
	for _, evar := range os.Environ() {
		kv := strings.SplitN(evar, "=", 2)
		if len(kv) == 0 || kv[0] == "" {
			continue
		}
		switch len(kv) {
		case 1:
			env.tags[kv[0]] = ""
		default:
			env.tags[kv[0]] = kv[1]
		}
	}
	return env
}

func (e *Env) Tag(key string) (string, bool) {
	v, ok := e.tags[key]
	return v, ok
}

func (e *Env) SetTag(key, val string) {
	if e.tags == nil {
		e.tags = make(map[string]string)
	}
	e.tags[key] = val
	e.clearXEnv()
}

func (e *Env) DelTag(key string) {
	delete(e.tags, key)
	e.clearXEnv()
}

// NonXEnvKeys reports tag keys that cannot be part of an exec environment.
type NonXEnvKeys []string

func (e NonXEnvKeys) Error() string {
	return fmt.Sprintf("illegal exec env keys: %s", strings.Join(e, ", "))
}

func (NonXEnvKeys) Is(target error) bool {
	_, ok := target.(NonXEnvKeys)
	return ok
}

// ExecEnv renders the tags in the form expected by [os/exec.Cmd.Env]. Keys
// that are empty or contain '=' make ExecEnv return a [NonXEnvKeys] error
// along with the renderable rest of the environment.
func (e *Env) ExecEnv() ([]string, error) {
	if e.xenv == nil {
		var errKeys []string
		for k, v := range e.tags {
			switch {
			case k == "":
				errKeys = append(errKeys, `""`)
			case strings.ContainsRune(k, '='):
				errKeys = append(errKeys, k)
			default:
				e.xenv = append(e.xenv, fmt.Sprintf("%s=%s", k, v))
			}
		}
		if len(errKeys) > 0 {
			e.xenvErr = NonXEnvKeys(errKeys)
		}
	}
	return e.xenv, e.xenvErr
}

func (e *Env) clearXEnv() {
	e.xenv = nil
	e.xenvErr = nil
}
