package agent

import "fmt"

// DialogueState is the conversational flow state reported by the dialogue
// service after every turn.
type DialogueState string

const (
	StateIdle              DialogueState = "idle"
	StateSelectingAddress  DialogueState = "selecting-address"
	StateSelectingMenu     DialogueState = "selecting-menu"
	StateSelectingStyle    DialogueState = "selecting-style"
	StateSelectingQuantity DialogueState = "selecting-quantity"
	StateAskingForMore     DialogueState = "asking-for-more"
	StateCustomizing       DialogueState = "customizing"
	StateReadyToCheckout   DialogueState = "ready-to-checkout"
	StateConfirming        DialogueState = "confirming"
)

// UIAction is the closed set of side-effect directives the dialogue
// service can attach to a turn. An unknown wire value is a parse error,
// not a silent no-op, so a new backend directive shows up as a loud
// failure instead of dead air.
type UIAction int

const (
	ActionNone UIAction = iota
	ActionShowConfirmation
	ActionShowCancelConfirmation
	ActionUpdateOrderList
	ActionOrderCompleted
	ActionRequestAddress
	ActionProceedCheckout
)

var actionNames = map[UIAction]string{
	ActionNone:                   "none",
	ActionShowConfirmation:       "show-confirmation",
	ActionShowCancelConfirmation: "show-cancel-confirmation",
	ActionUpdateOrderList:        "update-order-list",
	ActionOrderCompleted:         "order-completed",
	ActionRequestAddress:         "request-address",
	ActionProceedCheckout:        "proceed-checkout",
}

func (a UIAction) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return fmt.Sprintf("ui-action(%d)", int(a))
}

// ParseUIAction maps a wire value to its UIAction. The empty string means
// no directive.
func ParseUIAction(s string) (UIAction, error) {
	if s == "" {
		return ActionNone, nil
	}
	for action, name := range actionNames {
		if name == s {
			return action, nil
		}
	}
	return ActionNone, fmt.Errorf("unknown ui action %q", s)
}
