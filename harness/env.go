package harness

import (
	"os"
	"sort"
	"strings"
)

// Env maps environment variable names to values.
type Env map[string]string

// OSEnv returns the inherited process environment.
func OSEnv() Env {
	return ParseEnviron(os.Environ())
}

// ParseEnviron converts KEY=VALUE pairs into an Env. Later duplicates win,
// entries without '=' are ignored.
func ParseEnviron(environ []string) Env {
	env := make(Env, len(environ))

	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		env[k] = v
	}

	return env
}

// BuildEnv layers base, workload and override variables into a fresh Env.
// Later layers win: overrides > workload > base.
func BuildEnv(base, workload, overrides Env) Env {
	env := make(Env, len(base)+len(workload)+len(overrides))

	for _, layer := range []Env{base, workload, overrides} {
		for k, v := range layer {
			env[k] = v
		}
	}

	return env
}

// Keys returns the variable names in sorted order.
func (e Env) Keys() []string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}

// Environ flattens the Env into sorted KEY=VALUE pairs for exec.Cmd.
func (e Env) Environ() []string {
	keys := e.Keys()
	out := make([]string, 0, len(keys))

	for _, k := range keys {
		out = append(out, k+"="+e[k])
	}

	return out
}
