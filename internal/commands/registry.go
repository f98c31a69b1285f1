// Package commands is the built-in command table handed to the dispatcher.
package commands

import (
	"fmt"
	"sort"

	"thoughtline/internal/dispatch"
)

type Registry struct {
	byID map[string]*dispatch.Command
}

func NewRegistry() *Registry {
	return &Registry{byID: map[string]*dispatch.Command{}}
}

// Register adds c. Ids must be unique.
func (r *Registry) Register(cs ...*dispatch.Command) error {
	for _, c := range cs {
		if c == nil || c.ID == "" || c.Exec == nil {
			return fmt.Errorf("invalid command: %+v", c)
		}
		if _, ok := r.byID[c.ID]; ok {
			return fmt.Errorf("duplicate command id: %s", c.ID)
		}
		r.byID[c.ID] = c
	}
	return nil
}

func (r *Registry) Lookup(id string) (*dispatch.Command, bool) {
	c, ok := r.byID[id]
	return c, ok
}

// All returns every command sorted by id.
func (r *Registry) All() []*dispatch.Command {
	out := make([]*dispatch.Command, 0, len(r.byID))
	for _, c := range r.byID {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Default returns a registry with every built-in command.
func Default() *Registry {
	r := NewRegistry()
	groups := [][]*dispatch.Command{navigation(), editing(), historyCommands()}
	for _, g := range groups {
		if err := r.Register(g...); err != nil {
			panic(err)
		}
	}
	return r
}
