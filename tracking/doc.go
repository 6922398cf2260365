// Package tracking records which properties of an entity instance changed
// since it was loaded, so updates write the modified columns only.
//
// The lifecycle of a Tracker is Init, Start, Track on every mutation and
// Reset or Clear to end a cycle:
//
//	t.Init(map[string]any{"Name": "SD Zoo"})
//	t.Start()
//	t.Track("Name", "LA Zoo")
//	t.Track("Name", "SD Zoo")
//	t.HasChanges() // false: dirtiness is value based
//
// Entities expose their tracker by implementing Trackable.
package tracking
