package session

import (
	"github.com/malweka/GoliathData-sub002/mapping"
	"github.com/malweka/GoliathData-sub002/tracking"
)

// Attach seeds the tracker of instance with its current property values,
// ancestors included, and starts tracking. Instances without a tracker are
// left alone.
func Attach(e *mapping.EntityMap, instance any) error {
	t := tracking.Of(instance)
	if t == nil {
		return nil
	}
	chain, err := e.Ancestors()
	if err != nil {
		return err
	}
	a, err := mapping.AccessorOf(instance)
	if err != nil {
		return err
	}
	var (
		values = make(map[string]any)
		order  []string
	)
	seed := func(name string) error {
		if _, ok := values[name]; ok || !a.Has(name) {
			return nil
		}
		v, err := a.Get(instance, name)
		if err != nil {
			return err
		}
		values[name] = v
		order = append(order, name)
		return nil
	}
	for _, m := range append(chain, e) {
		for _, p := range m.Properties {
			if err := seed(p.PropertyName); err != nil {
				return err
			}
		}
		for _, r := range m.Relations {
			if r.RelationType == mapping.OneToMany || r.Inverse {
				continue
			}
			if err := seed(r.PropertyName); err != nil {
				return err
			}
		}
	}
	t.Init(values, order...)
	t.Start()
	return nil
}
