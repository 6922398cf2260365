package tracking

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

type snapshotItem struct {
	Name         string `msgpack:"n"`
	Value        any    `msgpack:"v"`
	InitialValue any    `msgpack:"i"`
	Version      int64  `msgpack:"ver"`
	Seeded       bool   `msgpack:"s"`
}

type snapshotState struct {
	Items    []snapshotItem `msgpack:"items"`
	Tracking bool           `msgpack:"tracking"`
	Version  int64          `msgpack:"version"`
}

// Snapshot encodes the tracker state with msgpack so the change history of a
// detached entity survives a round trip through a cache or a queue. Values
// are encoded by value; numbers come back with their msgpack width, which
// Equal tolerates.
func (t *Tracker) Snapshot() ([]byte, error) {
	st := snapshotState{Tracking: t.tracking, Version: t.version}
	for _, name := range t.set.order {
		it := t.set.items[name]
		st.Items = append(st.Items, snapshotItem{
			Name:         it.Name,
			Value:        it.Value,
			InitialValue: it.InitialValue,
			Version:      it.Version,
			Seeded:       it.seeded,
		})
	}
	b, err := msgpack.Marshal(&st)
	if err != nil {
		return nil, fmt.Errorf("tracking: encoding snapshot: %w", err)
	}
	return b, nil
}

// Restore replaces the tracker state with a snapshot.
func (t *Tracker) Restore(data []byte) error {
	var st snapshotState
	if err := msgpack.Unmarshal(data, &st); err != nil {
		return fmt.Errorf("tracking: decoding snapshot: %w", err)
	}
	t.set = ChangeSet{}
	for _, si := range st.Items {
		it := t.set.item(si.Name)
		it.Value = si.Value
		it.InitialValue = si.InitialValue
		it.Version = si.Version
		it.seeded = si.Seeded
	}
	t.tracking = st.Tracking
	t.version = st.Version
	return nil
}
