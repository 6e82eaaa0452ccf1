package ecs

import "errors"

var (
	// ErrUnknownComponentType is returned when a component type was never
	// registered with the world being asked to build it.
	ErrUnknownComponentType = errors.New("ecs: unknown component type")
	// ErrNotConstructible is returned when a required component has no
	// factory, or its factory produced nothing.
	ErrNotConstructible = errors.New("ecs: component type cannot be instantiated")
	// ErrDependencyCycle is returned when component dependencies loop.
	ErrDependencyCycle = errors.New("ecs: component dependency cycle")
	// ErrEntityNotAlive is returned when mutating a destroyed or never-issued id.
	ErrEntityNotAlive = errors.New("ecs: entity not alive")
	// ErrDuplicateComponent is returned when a component name is registered twice.
	ErrDuplicateComponent = errors.New("ecs: duplicate component name")
)
