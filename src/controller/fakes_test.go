package controller

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"smmpanel/src/connectors"
	"smmpanel/src/mapper"
	"smmpanel/src/model"
	"smmpanel/src/repository"
)

// fakePanel answers status queries from a table keyed by upstream id.
type fakePanel struct {
	mu sync.Mutex

	statuses     map[string]string
	statusErrs   map[string]error
	statusCalls  []string
	keysSeen     []string
	addResp      *model.AddOrderResponse
	addErr       error
	addCalls     []model.PlaceOrderRequest
	services     []model.ServiceDescriptor
	serviceCalls int
	balance      *model.Balance
}

func newFakePanel() *fakePanel {
	return &fakePanel{statuses: map[string]string{}, statusErrs: map[string]error{}}
}

func (f *fakePanel) ListServices(_ context.Context, key string) ([]model.ServiceDescriptor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.serviceCalls++
	f.keysSeen = append(f.keysSeen, key)
	return f.services, nil
}

func (f *fakePanel) PlaceOrder(_ context.Context, key string, req model.PlaceOrderRequest) (*model.AddOrderResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keysSeen = append(f.keysSeen, key)
	f.addCalls = append(f.addCalls, req)
	if f.addErr != nil {
		return nil, f.addErr
	}
	return f.addResp, nil
}

func (f *fakePanel) GetOrderStatus(_ context.Context, key, upstreamOrderID string) (*model.OrderStatusResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keysSeen = append(f.keysSeen, key)
	f.statusCalls = append(f.statusCalls, upstreamOrderID)
	if err := f.statusErrs[upstreamOrderID]; err != nil {
		return nil, err
	}
	raw, ok := f.statuses[upstreamOrderID]
	if !ok {
		return nil, &connectors.PanelError{Action: "status", Message: "Incorrect order ID"}
	}
	return &model.OrderStatusResponse{
		Status:       raw,
		MappedStatus: mapper.NormalizeStatus(raw),
		Raw:          []byte(`{"status":"` + raw + `"}`),
	}, nil
}

func (f *fakePanel) GetBalance(_ context.Context, key string) (*model.Balance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keysSeen = append(f.keysSeen, key)
	return f.balance, nil
}

func (f *fakePanel) calledFor(upstreamID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range f.statusCalls {
		if id == upstreamID {
			return true
		}
	}
	return false
}

// memOrders is an in-memory orderStore with the same match rules as the
// gorm repository.
type memOrders struct {
	mu       sync.Mutex
	byID     map[string]model.Order
	upserts  int
	listErrs []error // consumed one per List call
	seq      int
}

func newMemOrders(orders ...model.Order) *memOrders {
	m := &memOrders{byID: map[string]model.Order{}}
	for _, o := range orders {
		m.byID[o.ID] = o
	}
	return m
}

func (m *memOrders) Upsert(_ context.Context, order model.Order) (*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upserts++

	if order.ID == "" {
		m.seq++
		order.ID = fmt.Sprintf("local-%d", m.seq)
	}
	if order.HasUpstreamID() {
		for id, existing := range m.byID {
			if existing.UpstreamID() == order.UpstreamID() {
				order.ID = id
				break
			}
		}
	}
	m.byID[order.ID] = order
	saved := order
	return &saved, nil
}

func (m *memOrders) List(_ context.Context) ([]model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.listErrs) > 0 {
		err := m.listErrs[0]
		m.listErrs = m.listErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	out := make([]model.Order, 0, len(m.byID))
	for _, o := range m.byID {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memOrders) FindByIdentifier(_ context.Context, identifier string) (*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.byID {
		if o.ID == identifier || o.UpstreamID() == identifier {
			found := o
			return &found, nil
		}
	}
	return nil, repository.ErrOrderNotFound
}

func (m *memOrders) get(id string) model.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byID[id]
}

type memSettings struct {
	settings model.Settings
	sets     int
	getErr   error
}

func (s *memSettings) Get(context.Context) (*model.Settings, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	out := s.settings
	return &out, nil
}

func (s *memSettings) Set(_ context.Context, patch model.SettingsPatch) (*model.Settings, error) {
	s.sets++
	if patch.PanelKey != nil {
		s.settings.PanelKey = *patch.PanelKey
	}
	out := s.settings
	return &out, nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	orders []model.Order
}

func (r *recordingNotifier) NotifyStatus(_ context.Context, order model.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders = append(r.orders, order)
	return errors.New("notifier errors are ignored")
}

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.orders)
}

type memExceptions struct {
	mu    sync.Mutex
	items []*model.Exception
}

func (m *memExceptions) Create(_ context.Context, exc *model.Exception) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(m.items, exc)
	return nil
}

func strPtr(s string) *string { return &s }
