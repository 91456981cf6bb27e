package inventory

import "errors"

// ErrControllerSlot is returned when a Port would be placed in a controller slot
var ErrControllerSlot = errors.New("slots 9 and 10 hold controller cards")

// Chassis geometry of the OLT model in service.
const (
	MinSlot       = 1
	MaxSlot       = 18
	MinPortNumber = 1
	MaxPortNumber = 16
)

// SlotInRange reports whether slot is a physical slot of the chassis
func SlotInRange(slot int) bool {
	return slot >= MinSlot && slot <= MaxSlot
}

// IsControllerSlot reports whether slot holds a controller card. No Port may exist there.
func IsControllerSlot(slot int) bool {
	return slot == 9 || slot == 10
}

// ServiceSlot reports whether a Port may be created in slot
func ServiceSlot(slot int) bool {
	return SlotInRange(slot) && !IsControllerSlot(slot)
}

// PortNumberInRange reports whether n is a valid PON port number within a card
func PortNumberInRange(n int) bool {
	return n >= MinPortNumber && n <= MaxPortNumber
}

// ServiceSlots lists the slots that carry PON cards, in ascending order
func ServiceSlots() []int {
	slots := make([]int, 0, MaxSlot-2)
	for s := MinSlot; s <= MaxSlot; s++ {
		if !IsControllerSlot(s) {
			slots = append(slots, s)
		}
	}
	return slots
}
