// Package session holds the per-operator editing state of the workbench: the
// order draft, the catalog snapshots it is priced and validated against, and
// the times memoized while stamping lifecycle events.
package session

import (
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/nurpe/repairdesk/internal/compose"
	"github.com/nurpe/repairdesk/internal/model"
	"github.com/nurpe/repairdesk/internal/pricing"
	"github.com/nurpe/repairdesk/internal/textnorm"
	"github.com/nurpe/repairdesk/internal/workflow"
)

var (
	ErrNoOrderLoaded    = errors.New("no order loaded")
	ErrActionBlocked    = errors.New("action not available for the current status")
	ErrUnknownClient    = errors.New("unknown client")
	ErrUnknownEquipment = errors.New("unknown equipment")
)

const (
	dateLayout  = "2006-01-02"
	clockLayout = "15:04"

	DefaultAmountDebounce = 120 * time.Millisecond
)

type Options struct {
	AmountDebounce time.Duration
	DefaultStatus  string
	SingleSelect   SingleSelect
}

func (o Options) withDefaults() Options {
	if o.AmountDebounce <= 0 {
		o.AmountDebounce = DefaultAmountDebounce
	}
	if o.DefaultStatus == "" {
		o.DefaultStatus = model.StatusRepairing
	}
	return o
}

type snapshots struct {
	orders     []model.Order
	clients    []model.Client
	equipment  []model.Equipment
	faults     []model.CatalogEntry
	repairs    []model.CatalogEntry
	spareParts []model.SparePart
}

type Session struct {
	ID        string
	Operator  model.Operator
	CreatedAt time.Time

	clock    clockwork.Clock
	opts     Options
	debounce *Debouncer

	mu         sync.Mutex
	draft      Draft
	memo       timeMemo
	pricing    *pricing.Engine
	snap       snapshots
	selected   int64
	generation uint64
}

func New(id string, operator model.Operator, clock clockwork.Clock, opts Options) *Session {
	opts = opts.withDefaults()
	return &Session{
		ID:        id,
		Operator:  operator,
		CreatedAt: clock.Now(),
		clock:     clock,
		opts:      opts,
		debounce:  NewDebouncer(clock, opts.AmountDebounce),
		draft:     Draft{Status: opts.DefaultStatus},
		pricing:   pricing.NewEngine(pricing.PriceList{}),
	}
}

// OwnedBy reports whether operator may use this session. Sessions opened
// without authentication are shared.
func (s *Session) OwnedBy(operator model.Operator) bool {
	return s.Operator.IsAnonymous() || s.Operator.Subject == operator.Subject
}

// Close stops any pending recompute.
func (s *Session) Close() {
	s.debounce.Cancel()
}

// Reset clears the form: draft, memoized times and the pricing base.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.debounce.Cancel()
	s.draft = Draft{Status: s.opts.DefaultStatus}
	s.memo = timeMemo{}
	s.pricing.Reset()
	s.generation++
}

// Load binds the draft to order. The displayed amount becomes the new
// pricing base and is recomputed against the current price list.
func (s *Session) Load(order model.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.debounce.Cancel()
	s.draft = draftFromOrder(order, s.opts.SingleSelect, s.opts.DefaultStatus)
	s.memo = memoFromDraft(s.draft)
	s.pricing.Reset()
	s.recomputeLocked()
	s.selected = order.ID
	s.generation++
}

func (s *Session) recompute() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recomputeLocked()
}

func (s *Session) recomputeLocked() {
	s.draft.Amount = s.pricing.Recompute(s.draft.Amount, s.draft.SpareParts)
}

// Flush runs a pending debounced recompute now.
func (s *Session) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flushLocked()
}

func (s *Session) flushLocked() {
	if s.debounce.Cancel() {
		s.recomputeLocked()
	}
}

// SetSpareParts replaces the spare-parts text; the amount follows after the
// debounce delay.
func (s *Session) SetSpareParts(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.draft.SpareParts = text
	s.debounce.Trigger(s.recompute)
}

// AppendSpareParts adds catalog picks to the spare-parts text and reprices
// immediately.
func (s *Session) AppendSpareParts(names ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, name := range names {
		s.draft.SpareParts = compose.AppendToken(s.draft.SpareParts, name)
	}
	s.debounce.Cancel()
	s.recomputeLocked()
}

// SetAmount takes a hand-typed amount; it becomes the base of the next
// recompute.
func (s *Session) SetAmount(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.draft.Amount = text
	s.pricing.Reset()
}

func (s *Session) Patch(p DraftPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ClientID != nil {
		if err := s.selectClientLocked(*p.ClientID); err != nil {
			return err
		}
	}
	s.draft.apply(p)
	return nil
}

// SelectClient sets the client and its phone; equipment owned by someone
// else is deselected.
func (s *Session) SelectClient(clientID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectClientLocked(clientID)
}

func (s *Session) selectClientLocked(clientID int64) error {
	idx := slices.IndexFunc(s.snap.clients, func(c model.Client) bool { return c.ID == clientID })
	if idx < 0 {
		return ErrUnknownClient
	}
	id := clientID
	s.draft.ClientID = &id
	s.draft.ContactPhone = s.snap.clients[idx].PhoneOrMobile()

	if s.draft.EquipmentID != nil {
		eq, ok := s.findEquipmentLocked(*s.draft.EquipmentID)
		if !ok || !eq.OwnedBy(clientID) {
			s.draft.EquipmentID = nil
			s.draft.Serial = ""
		}
	}
	return nil
}

// SelectEquipment sets the equipment and switches the client to its owner.
func (s *Session) SelectEquipment(equipmentID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	eq, ok := s.findEquipmentLocked(equipmentID)
	if !ok {
		return ErrUnknownEquipment
	}
	id := equipmentID
	s.draft.EquipmentID = &id
	s.draft.Serial = eq.Serial
	if eq.ClientID != nil {
		owner := *eq.ClientID
		s.draft.ClientID = &owner
		if idx := slices.IndexFunc(s.snap.clients, func(c model.Client) bool { return c.ID == owner }); idx >= 0 {
			s.draft.ContactPhone = s.snap.clients[idx].PhoneOrMobile()
		}
	}
	return nil
}

func (s *Session) findEquipmentLocked(id int64) (model.Equipment, bool) {
	idx := slices.IndexFunc(s.snap.equipment, func(e model.Equipment) bool { return e.ID == id })
	if idx < 0 {
		return model.Equipment{}, false
	}
	return s.snap.equipment[idx], true
}

func (s *Session) FindClient(id int64) (model.Client, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := slices.IndexFunc(s.snap.clients, func(c model.Client) bool { return c.ID == id })
	if idx < 0 {
		return model.Client{}, false
	}
	return s.snap.clients[idx], true
}

func (s *Session) FindEquipment(id int64) (model.Equipment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findEquipmentLocked(id)
}

// EquipmentForClient filters the equipment snapshot by owner.
func (s *Session) EquipmentForClient(clientID int64) []model.Equipment {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.Equipment
	for _, eq := range s.snap.equipment {
		if eq.OwnedBy(clientID) {
			out = append(out, eq)
		}
	}
	return out
}

// FindOrder looks an order up in the list snapshot.
func (s *Session) FindOrder(id int64) (model.Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := slices.IndexFunc(s.snap.orders, func(o model.Order) bool { return o.ID == id })
	if idx < 0 {
		return model.Order{}, false
	}
	return s.snap.orders[idx], true
}

// SearchOrders returns the listed orders matching every word of query.
func (s *Session) SearchOrders(query string) []model.Order {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]model.Order, 0, len(s.snap.orders))
	for _, o := range s.snap.orders {
		if textnorm.Match(o.SearchText(), query) {
			out = append(out, o)
		}
	}
	return out
}

// SelectRow remembers the list row the operator picked.
func (s *Session) SelectRow(orderID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = orderID
}

// ReplaceOrders swaps the order list snapshot and clears the row selection.
func (s *Session) ReplaceOrders(orders []model.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.orders = orders
	s.selected = 0
}

func (s *Session) ReplaceClients(clients []model.Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.clients = clients
}

func (s *Session) ReplaceEquipment(equipment []model.Equipment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.equipment = equipment
}

func (s *Session) ReplaceEntries(kind model.CatalogKind, entries []model.CatalogEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch kind {
	case model.CatalogFaults:
		s.snap.faults = entries
	case model.CatalogRepairs:
		s.snap.repairs = entries
	}
}

// ReplaceSpareParts swaps the catalog and the price list built from it.
func (s *Session) ReplaceSpareParts(parts []model.SparePart) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.spareParts = parts
	s.pricing.SetPrices(pricing.NewPriceList(parts))
}

func (s *Session) Orders() []model.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.snap.orders)
}

func (s *Session) Clients() []model.Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.snap.clients)
}

func (s *Session) Equipment() []model.Equipment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.snap.equipment)
}

func (s *Session) Entries(kind model.CatalogKind) []model.CatalogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	if kind == model.CatalogRepairs {
		return slices.Clone(s.snap.repairs)
	}
	return slices.Clone(s.snap.faults)
}

func (s *Session) SpareParts() []model.SparePart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.snap.spareParts)
}

// View is what the workbench renders for a session.
type View struct {
	ID              string           `json:"id"`
	Operator        string           `json:"operator,omitempty"`
	Draft           Draft            `json:"draft"`
	Actions         workflow.Actions `json:"actions"`
	CanReopen       bool             `json:"can_reopen"`
	Withdrawal      string           `json:"withdrawal,omitempty"`
	AmountPending   bool             `json:"amount_pending"`
	SelectedOrderID int64            `json:"selected_order_id,omitempty"`
	Orders          int              `json:"orders"`
	PriceListSize   int              `json:"price_list_size"`
}

func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	d := s.draft
	return View{
		ID:              s.ID,
		Operator:        s.Operator.Name,
		Draft:           d,
		Actions:         workflow.Evaluate(d.Exists(), d.Status),
		CanReopen:       d.Exists() && workflow.CanReopen(d.Status),
		Withdrawal:      WithdrawalText(d.Status, d.WithdrawalDate, d.WithdrawalTime),
		AmountPending:   s.debounce.Pending(),
		SelectedOrderID: s.selected,
		Orders:          len(s.snap.orders),
		PriceListSize:   s.pricing.Prices().Len(),
	}
}

// Draft returns the draft after running any pending recompute.
func (s *Session) Draft() Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flushLocked()
	return s.draft
}
