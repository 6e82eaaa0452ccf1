package system

import "errors"

var (
	ErrUnknownBlueprint = errors.New("unknown blueprint")
	ErrUnknownAction    = errors.New("unknown action")
	ErrUnknownEffect    = errors.New("unknown effect kind")
	ErrNotActor         = errors.New("entity is not an actor")
)
