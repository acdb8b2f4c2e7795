package keybind

import "fmt"

type TriggerKind uint8

const (
	Pressed TriggerKind = iota + 1
	Released
)

func (k TriggerKind) String() string {
	switch k {
	case Pressed:
		return "pressed"
	case Released:
		return "released"
	default:
		return "unknown"
	}
}

// Trigger is a press or release notification for a registered id.
type Trigger struct {
	Kind TriggerKind
	ID   ID
}

func PressedTrigger(id ID) Trigger  { return Trigger{Kind: Pressed, ID: id} }
func ReleasedTrigger(id ID) Trigger { return Trigger{Kind: Released, ID: id} }

func (t Trigger) String() string {
	return fmt.Sprintf("%s(%d)", t.Kind, t.ID)
}

// Emitter delivers triggers to the engine's outbound stream.
type Emitter func(Trigger)
