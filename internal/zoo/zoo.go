// Package zoo holds a small mapped domain used by the tests of the engine
// and by the CLI's demo mode.
package zoo

import (
	_ "embed"
	"time"

	"github.com/malweka/GoliathData-sub002/mapping"
	"github.com/malweka/GoliathData-sub002/tracking"
)

//go:embed zoo.yml
var Mapping []byte

// Config returns a freshly resolved configuration of the zoo domain.
func Config() (*mapping.MapConfig, error) {
	return mapping.Parse(Mapping)
}

// MustConfig is like Config but panics on error.
func MustConfig() *mapping.MapConfig {
	c, err := Config()
	if err != nil {
		panic(err)
	}
	return c
}

// Zoo is a mapped zoo.
type Zoo struct {
	Id               int
	Name             string
	City             *string
	AcceptNewAnimals bool
	Animals          []*Animal

	tracker tracking.Tracker
}

// ChangeTracker implements tracking.Trackable.
func (z *Zoo) ChangeTracker() *tracking.Tracker { return &z.tracker }

// SetName assigns and tracks the zoo name.
func (z *Zoo) SetName(name string) {
	z.Name = name
	z.tracker.Track("Name", name)
}

// SetCity assigns and tracks the city.
func (z *Zoo) SetCity(city string) {
	z.City = &city
	z.tracker.Track("City", z.City)
}

// Animal is the root of the animal hierarchy.
type Animal struct {
	Id         int
	Name       string
	Age        *int
	Location   *string
	ReceivedOn *time.Time
	Zoo        *Zoo

	tracker tracking.Tracker
}

// ChangeTracker implements tracking.Trackable.
func (a *Animal) ChangeTracker() *tracking.Tracker { return &a.tracker }

// Monkey extends Animal. Its row in monkeys shares the key of its row in
// animals.
type Monkey struct {
	Animal
	Family      *string
	CanDoTricks bool
}

// Employee takes care of animals.
type Employee struct {
	Id              int
	Name            string
	Title           *string
	AssignedAnimals []*Animal

	tracker tracking.Tracker
}

// ChangeTracker implements tracking.Trackable.
func (e *Employee) ChangeTracker() *tracking.Tracker { return &e.tracker }

// Tag uses a generated UUID key.
type Tag struct {
	Id    string
	Label string
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T { return &v }
