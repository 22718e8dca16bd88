package agent

import (
	"context"
	"errors"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/younghoyk/mr-daebak-order/internal/backend"
	"github.com/younghoyk/mr-daebak-order/internal/catalog"
	"github.com/younghoyk/mr-daebak-order/internal/models"
	"github.com/younghoyk/mr-daebak-order/internal/orderflow"
)

// errorReply is appended to the dialogue instead of raising a blocking
// error, preserving conversational continuity on non-auth failures.
const errorReply = "죄송합니다, 잠시 문제가 생겼어요. 다시 한 번 말씀해 주시겠어요?"

const defaultResetDelay = 1500 * time.Millisecond

// TurnResult is what one conversational turn hands back to the caller.
type TurnResult struct {
	AssistantMessage  string
	State             DialogueState
	Action            UIAction
	TotalPrice        int
	Addresses         []string
	OrderID           int64
	OrderNumber       string
	NavigateToHistory bool
}

// Adapter drives the conversational order flow. Every utterance goes to
// the dialogue service together with the conversation history and the
// current order snapshot; the server-returned snapshot is adopted
// verbatim as the new local view, applied through the same Store mutation
// surface the guided flow uses so the two flows cannot drift apart. The
// adapter never recomputes prices: the server-reported total is
// authoritative here.
type Adapter struct {
	client  *backend.Client
	catalog *catalog.Cache
	store   *orderflow.Store

	mu         sync.Mutex
	history    []models.DialogueMessage
	state      DialogueState
	address    string
	totalPrice int
	closed     bool

	recorder   *Recorder
	resetDelay time.Duration
}

func NewAdapter(client *backend.Client, cache *catalog.Cache, store *orderflow.Store) *Adapter {
	return &Adapter{
		client:     client,
		catalog:    cache,
		store:      store,
		state:      StateIdle,
		recorder:   NewRecorder(),
		resetDelay: defaultResetDelay,
	}
}

// State returns the current dialogue state.
func (a *Adapter) State() DialogueState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// TotalPrice returns the server-reported order total.
func (a *Adapter) TotalPrice() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.totalPrice
}

// History returns a copy of the conversation so far.
func (a *Adapter) History() []models.DialogueMessage {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]models.DialogueMessage(nil), a.history...)
}

// SendText runs one text turn. Non-auth failures come back as an
// assistant-style reply in the result, not as an error; auth failures are
// returned as backend.ErrUnauthorized so the caller can force re-login.
func (a *Adapter) SendText(ctx context.Context, token, message string) (*TurnResult, error) {
	return a.turn(ctx, token, message, "")
}

// StartVoice opens a voice capture session.
func (a *Adapter) StartVoice() error {
	return a.recorder.Start()
}

// PushVoice appends one base64 audio chunk to the open session.
func (a *Adapter) PushVoice(chunk string) error {
	return a.recorder.Push(chunk)
}

// FinishVoice stops the capture session and runs the recorded audio as a
// dialogue turn.
func (a *Adapter) FinishVoice(ctx context.Context, token string) (*TurnResult, error) {
	audio, err := a.recorder.Stop()
	if err != nil {
		return nil, err
	}
	return a.turn(ctx, token, "", audio)
}

// Close releases the voice capture session, whether or not a recording is
// in progress. It is safe to call more than once.
func (a *Adapter) Close() {
	a.recorder.Release()
	a.mu.Lock()
	a.closed = true
	a.mu.Unlock()
}

func (a *Adapter) turn(ctx context.Context, token, message, audio string) (*TurnResult, error) {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil, errors.New("conversation closed")
	}
	req := models.DialogueRequest{
		Message:         message,
		AudioBase64:     audio,
		History:         append([]models.DialogueMessage(nil), a.history...),
		CurrentOrder:    snapshotToWire(a.store.Snapshot()),
		SelectedAddress: a.address,
	}
	a.mu.Unlock()

	resp, err := a.client.DialogueTurn(ctx, token, req)
	if err != nil {
		if backend.IsUnauthorized(err) {
			return nil, err
		}
		log.WithField("state", string(a.State())).Error("dialogue turn failed: ", err)
		a.appendExchange(message, errorReply)
		return &TurnResult{AssistantMessage: errorReply, State: a.State()}, nil
	}

	action, err := ParseUIAction(resp.UIAction)
	if err != nil {
		return nil, err
	}

	a.appendExchange(userContent(message, audio), resp.AssistantMessage)

	a.mu.Lock()
	a.state = DialogueState(resp.FlowState)
	a.totalPrice = resp.TotalPrice
	if resp.SelectedAddress != "" {
		a.address = resp.SelectedAddress
	}
	a.mu.Unlock()

	if resp.CurrentOrder != nil {
		a.applySnapshot(ctx, token, resp.CurrentOrder)
	}

	result := &TurnResult{
		AssistantMessage: resp.AssistantMessage,
		State:            DialogueState(resp.FlowState),
		Action:           action,
		TotalPrice:       resp.TotalPrice,
		Addresses:        resp.UserAddresses,
		OrderID:          resp.OrderID,
		OrderNumber:      resp.OrderNumber,
	}
	a.dispatch(action, result)
	return result, nil
}

// dispatch runs the side effect each directive dictates. Every variant is
// handled explicitly.
func (a *Adapter) dispatch(action UIAction, result *TurnResult) {
	switch action {
	case ActionOrderCompleted:
		// A short pause so the confirmation reply is seen, then the
		// composed order is gone and the caller navigates to history.
		time.Sleep(a.resetDelay)
		a.store.ResetOrder()
		a.resetDialogue()
		result.NavigateToHistory = true
	case ActionShowCancelConfirmation:
		a.store.ResetOrder()
		a.resetDialogue()
	case ActionProceedCheckout:
		// Advisory: the server has already moved the order through
		// checkout; the result carries the state for the UI.
	case ActionShowConfirmation, ActionUpdateOrderList, ActionRequestAddress, ActionNone:
		// Advisory UI state only.
	}
}

func (a *Adapter) resetDialogue() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state = StateIdle
	a.totalPrice = 0
	a.history = nil
}

func (a *Adapter) appendExchange(userMsg, assistantMsg string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if userMsg != "" {
		a.history = append(a.history, models.DialogueMessage{Role: "user", Content: userMsg})
	}
	a.history = append(a.history, models.DialogueMessage{Role: "assistant", Content: assistantMsg})
}

func userContent(message, audio string) string {
	if message != "" {
		return message
	}
	if audio != "" {
		return "(음성 메시지)"
	}
	return ""
}

// applySnapshot rebuilds the local order from the server's snapshot using
// the shared Store operations, so every invalidation invariant the guided
// flow relies on also holds for conversational edits.
func (a *Adapter) applySnapshot(ctx context.Context, token string, snap *models.OrderSnapshot) {
	a.store.ResetOrder()
	a.mu.Lock()
	address := a.address
	a.mu.Unlock()
	a.store.SetAddress(address)
	a.store.SetMemo(snap.Memo)

	for _, sd := range snap.Dinners {
		dinner := a.resolveDinner(ctx, token, sd)
		selectionID := a.store.AddDinner(dinner, sd.Quantity)
		if selectionID == "" {
			continue
		}
		for i, inst := range sd.Instances {
			if inst.ServingStyleID == 0 {
				continue
			}
			a.store.SetInstanceStyle(selectionID, i, a.resolveStyle(ctx, token, inst))
			if inst.ProductID != 0 {
				a.store.SetInstanceProduct(selectionID, i, models.Product{
					ID:            inst.ProductID,
					Quantity:      1,
					MenuLineItems: inst.MenuItems,
				})
			}
			a.store.SetInstanceMenuCustomizations(selectionID, i, lineCustomizations(inst.MenuItems))
		}
	}

	for _, ai := range snap.AdditionalItems {
		a.store.AddAdditionalItem(models.MenuItem{
			ID:        ai.MenuItemID,
			Name:      ai.Name,
			UnitPrice: ai.UnitPrice,
		}, ai.Quantity)
	}
}

func (a *Adapter) resolveDinner(ctx context.Context, token string, sd models.SnapshotDinner) models.Dinner {
	if a.catalog != nil {
		if dinner, err := a.catalog.DinnerByID(ctx, token, sd.DinnerID); err == nil {
			return dinner
		}
	}
	return models.Dinner{ID: sd.DinnerID, Name: sd.Name, IsActive: true}
}

func (a *Adapter) resolveStyle(ctx context.Context, token string, inst models.SnapshotInstance) models.ServingStyle {
	if a.catalog != nil {
		if style, err := a.catalog.StyleByID(ctx, token, inst.ServingStyleID); err == nil {
			return style
		}
	}
	return models.ServingStyle{ID: inst.ServingStyleID, Name: inst.ServingStyleName, IsActive: true}
}

func lineCustomizations(lines []models.ProductLineItem) []orderflow.MenuItemCustomization {
	cs := make([]orderflow.MenuItemCustomization, 0, len(lines))
	for _, line := range lines {
		cs = append(cs, orderflow.MenuItemCustomization{
			MenuItemID:      line.MenuItemID,
			Name:            line.Name,
			UnitPrice:       line.UnitPrice,
			DefaultQuantity: line.Quantity,
			Quantity:        line.Quantity,
		})
	}
	return cs
}

func snapshotToWire(st orderflow.State) *models.OrderSnapshot {
	snap := &models.OrderSnapshot{Memo: st.Memo}
	for _, sd := range st.Dinners {
		wire := models.SnapshotDinner{
			DinnerID: sd.Dinner.ID,
			Name:     sd.Dinner.Name,
			Quantity: sd.Quantity,
		}
		for _, inst := range sd.Instances {
			wi := models.SnapshotInstance{}
			if inst.Style != nil {
				wi.ServingStyleID = inst.Style.ID
				wi.ServingStyleName = inst.Style.Name
			}
			if inst.Product != nil {
				wi.ProductID = inst.Product.ID
			}
			for _, c := range inst.Customizations {
				wi.MenuItems = append(wi.MenuItems, models.ProductLineItem{
					MenuItemID: c.MenuItemID,
					Name:       c.Name,
					Quantity:   c.Quantity,
					UnitPrice:  c.UnitPrice,
				})
			}
			wire.Instances = append(wire.Instances, wi)
		}
		snap.Dinners = append(snap.Dinners, wire)
	}
	for _, ai := range st.AdditionalItems {
		snap.AdditionalItems = append(snap.AdditionalItems, models.SnapshotAddOn{
			MenuItemID: ai.MenuItem.ID,
			Name:       ai.MenuItem.Name,
			Quantity:   ai.Quantity,
			UnitPrice:  ai.MenuItem.UnitPrice,
		})
	}
	return snap
}
