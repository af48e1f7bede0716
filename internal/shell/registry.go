package shell

import (
	"fmt"
	"sort"
	"strings"
)

type cmdFunc func(s *Shell, args []string) error

type command struct {
	Name    string
	Aliases []string
	Usage   string
	Desc    string
	Run     cmdFunc
}

// registry maps command names and aliases to commands. Aliases resolve to
// the same entry as the primary name.
type registry struct {
	byName map[string]*command
	cmds   []*command
}

func newRegistry() *registry {
	return &registry{byName: make(map[string]*command)}
}

func (r *registry) register(cmd command) error {
	cmd.Name = strings.TrimSpace(cmd.Name)
	switch {
	case cmd.Name == "":
		return fmt.Errorf("shell: command without a name")
	case cmd.Run == nil:
		return fmt.Errorf("shell: command %q has no handler", cmd.Name)
	}

	keys := []string{cmd.Name}
	for _, alias := range cmd.Aliases {
		if alias = strings.TrimSpace(alias); alias != "" {
			keys = append(keys, alias)
		}
	}
	for _, key := range keys {
		if prev, ok := r.byName[key]; ok {
			return fmt.Errorf("shell: %q of %q already names %q", key, cmd.Name, prev.Name)
		}
	}

	c := &cmd
	for _, key := range keys {
		r.byName[key] = c
	}
	r.cmds = append(r.cmds, c)
	return nil
}

func (r *registry) resolve(name string) (command, bool) {
	c, ok := r.byName[name]
	if !ok {
		return command{}, false
	}
	return *c, true
}

// names returns the primary command names in sorted order.
func (r *registry) names() []string {
	out := make([]string, 0, len(r.cmds))
	for _, c := range r.cmds {
		out = append(out, c.Name)
	}
	sort.Strings(out)
	return out
}
