package service

import (
	"context"
	"sync"

	"github.com/nurpe/repairdesk/internal/model"
)

// fakeBackend serves fixed snapshots and records mutations. Setting one of
// the *Err fields makes the matching call fail.
type fakeBackend struct {
	mu sync.Mutex

	orders     []model.Order
	clients    []model.Client
	equipment  []model.Equipment
	faults     []model.CatalogEntry
	repairs    []model.CatalogEntry
	spareParts []model.SparePart

	listOrdersCalls int
	created         []model.OrderPayload
	updated         map[int64][]model.OrderPayload
	duplicated      []int64
	reopened        map[int64]string
	entries         []string
	deleted         []int64
	newParts        []model.SparePartInput
	newClients      []model.Client
	clientUpdates   map[int64]model.Client
	newEquipment    []model.Equipment
	equipUpdates    map[int64]model.Equipment

	nextID       int64
	listErr      error
	getErr       error
	mutateErr    error
	clientErrFor string
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		updated:       make(map[int64][]model.OrderPayload),
		reopened:      make(map[int64]string),
		clientUpdates: make(map[int64]model.Client),
		equipUpdates:  make(map[int64]model.Equipment),
		nextID:        100,
	}
}

func (f *fakeBackend) ListOrders(context.Context) ([]model.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listOrdersCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]model.Order(nil), f.orders...), nil
}

func (f *fakeBackend) GetOrder(_ context.Context, id int64) (model.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return model.Order{}, f.getErr
	}
	for _, o := range f.orders {
		if o.ID == id {
			return o, nil
		}
	}
	return model.Order{ID: id, Status: model.StatusRepairing}, nil
}

func (f *fakeBackend) CreateOrder(_ context.Context, p model.OrderPayload) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mutateErr != nil {
		return 0, f.mutateErr
	}
	f.created = append(f.created, p)
	f.nextID++
	return f.nextID, nil
}

func (f *fakeBackend) UpdateOrder(_ context.Context, id int64, p model.OrderPayload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mutateErr != nil {
		return f.mutateErr
	}
	f.updated[id] = append(f.updated[id], p)
	return nil
}

func (f *fakeBackend) DuplicateOrder(_ context.Context, id int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mutateErr != nil {
		return 0, f.mutateErr
	}
	f.duplicated = append(f.duplicated, id)
	f.nextID++
	return f.nextID, nil
}

func (f *fakeBackend) ReopenOrder(_ context.Context, id int64, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mutateErr != nil {
		return f.mutateErr
	}
	f.reopened[id] = reason
	return nil
}

func (f *fakeBackend) ListClients(context.Context) ([]model.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.clients, f.listErr
}

func (f *fakeBackend) ListEquipment(context.Context) ([]model.Equipment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.equipment, f.listErr
}

func (f *fakeBackend) ListEntries(_ context.Context, kind model.CatalogKind) ([]model.CatalogEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if kind == model.CatalogRepairs {
		return f.repairs, f.listErr
	}
	return f.faults, f.listErr
}

func (f *fakeBackend) ListSpareParts(context.Context) ([]model.SparePart, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.spareParts, f.listErr
}

func (f *fakeBackend) CreateEntry(_ context.Context, kind model.CatalogKind, description string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mutateErr != nil {
		return 0, f.mutateErr
	}
	f.nextID++
	entry := model.CatalogEntry{ID: f.nextID, Description: description}
	if kind == model.CatalogRepairs {
		f.repairs = append(f.repairs, entry)
	} else {
		f.faults = append(f.faults, entry)
	}
	f.entries = append(f.entries, string(kind)+":"+description)
	return f.nextID, nil
}

func (f *fakeBackend) CreateSparePart(_ context.Context, input model.SparePartInput) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mutateErr != nil {
		return 0, f.mutateErr
	}
	f.nextID++
	f.newParts = append(f.newParts, input)
	f.spareParts = append(f.spareParts, model.SparePart{ID: f.nextID, Name: input.Name, Cost: input.Cost})
	return f.nextID, nil
}

func (f *fakeBackend) CreateClient(_ context.Context, c model.Client) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.clientErrFor != "" && c.Name == f.clientErrFor {
		return 0, &fakeRejection{msg: "duplicate client"}
	}
	if f.mutateErr != nil {
		return 0, f.mutateErr
	}
	f.nextID++
	f.newClients = append(f.newClients, c)
	c.ID = f.nextID
	f.clients = append(f.clients, c)
	return f.nextID, nil
}

func (f *fakeBackend) UpdateClient(_ context.Context, id int64, c model.Client) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mutateErr != nil {
		return f.mutateErr
	}
	f.clientUpdates[id] = c
	for i := range f.clients {
		if f.clients[i].ID == id {
			c.ID = id
			f.clients[i] = c
		}
	}
	return nil
}

func (f *fakeBackend) CreateEquipment(_ context.Context, eq model.Equipment) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mutateErr != nil {
		return 0, f.mutateErr
	}
	f.nextID++
	f.newEquipment = append(f.newEquipment, eq)
	eq.ID = f.nextID
	f.equipment = append(f.equipment, eq)
	return f.nextID, nil
}

func (f *fakeBackend) UpdateEquipment(_ context.Context, id int64, eq model.Equipment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mutateErr != nil {
		return f.mutateErr
	}
	f.equipUpdates[id] = eq
	for i := range f.equipment {
		if f.equipment[i].ID == id {
			eq.ID = id
			if eq.ClientID == nil {
				eq.ClientID = f.equipment[i].ClientID
			}
			f.equipment[i] = eq
		}
	}
	return nil
}

func (f *fakeBackend) DeleteCatalogItem(_ context.Context, kind model.CatalogKind, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mutateErr != nil {
		return f.mutateErr
	}
	f.deleted = append(f.deleted, id)
	if kind == model.CatalogSpareParts {
		kept := f.spareParts[:0]
		for _, p := range f.spareParts {
			if p.ID != id {
				kept = append(kept, p)
			}
		}
		f.spareParts = kept
	}
	return nil
}

func (f *fakeBackend) orderListCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listOrdersCalls
}

type fakeRejection struct{ msg string }

func (e *fakeRejection) Error() string { return e.msg }
