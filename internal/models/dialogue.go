package models

// DialogueMessage is one turn of conversation history
type DialogueMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// SnapshotInstance mirrors one dinner instance inside a dialogue order
// snapshot. A zero ServingStyleID means the instance is not yet styled.
type SnapshotInstance struct {
	ServingStyleID   int64             `json:"serving_style_id"`
	ServingStyleName string            `json:"serving_style_name,omitempty"`
	ProductID        int64             `json:"product_id,omitempty"`
	MenuItems        []ProductLineItem `json:"menu_items,omitempty"`
}

// SnapshotDinner mirrors one selected dinner inside a dialogue order snapshot
type SnapshotDinner struct {
	DinnerID  int64              `json:"dinner_id"`
	Name      string             `json:"name"`
	Quantity  int                `json:"quantity"`
	Instances []SnapshotInstance `json:"instances,omitempty"`
}

// SnapshotAddOn mirrors one global additional menu item
type SnapshotAddOn struct {
	MenuItemID int64  `json:"menu_item_id"`
	Name       string `json:"name"`
	Quantity   int    `json:"quantity"`
	UnitPrice  int    `json:"unit_price"`
}

// OrderSnapshot is the dialogue service's authoritative view of the order
// in progress. The agent adopts it verbatim after every turn.
type OrderSnapshot struct {
	Dinners         []SnapshotDinner `json:"dinners"`
	AdditionalItems []SnapshotAddOn  `json:"additional_items,omitempty"`
	Memo            string           `json:"memo,omitempty"`
}

// DialogueRequest is one user utterance sent to the dialogue service
type DialogueRequest struct {
	Message         string            `json:"message,omitempty"`
	AudioBase64     string            `json:"audio_base64,omitempty"`
	History         []DialogueMessage `json:"conversation_history"`
	CurrentOrder    *OrderSnapshot    `json:"current_order,omitempty"`
	SelectedAddress string            `json:"selected_address,omitempty"`
}

// DialogueResponse is the dialogue service's reply for one turn
type DialogueResponse struct {
	AssistantMessage string         `json:"assistant_message"`
	FlowState        string         `json:"flow_state"`
	UIAction         string         `json:"ui_action"`
	CurrentOrder     *OrderSnapshot `json:"current_order,omitempty"`
	TotalPrice       int            `json:"total_price"`
	SelectedAddress  string         `json:"selected_address,omitempty"`
	UserAddresses    []string       `json:"user_addresses,omitempty"`
	OrderID          int64          `json:"order_id,omitempty"`
	OrderNumber      string         `json:"order_number,omitempty"`
}
