// Package mapping holds the metadata describing how entities map onto
// tables: EntityMap, Property, Relation and the MapConfig grouping them.
//
// A configuration is usually decoded from YAML:
//
//	cfg, err := mapping.LoadFiles("zoo.yml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	monkey, err := cfg.Entity("Monkey")
//
// Resolve fills default names (table "monkeys" for entity "Monkey"),
// derives primary keys, validates the configuration and orders it so that
// parents and referenced entities precede the entities depending on them.
//
// Entity instances are accessed by reflection through a process wide
// accessor cache. Struct entities expose their properties as exported
// fields named after the property, or tagged `goliath:"Name"`; inheriting
// entities embed their parent struct.
package mapping
