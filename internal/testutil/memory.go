// Package testutil provides in-memory implementations of the payment ports
// for handler and flow tests that do not need a database.
package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/stayhub/payment-service/internal/payment/application"
	"github.com/stayhub/payment-service/internal/payment/domain"
)

type OutboxRecord struct {
	EventType string
	Payload   []byte
}

// MemoryPaymentRepo is a map-backed application.PaymentRepository.
type MemoryPaymentRepo struct {
	mu       sync.Mutex
	payments map[string]domain.Payment
	order    []string
	Events   []OutboxRecord
}

func NewMemoryPaymentRepo() *MemoryPaymentRepo {
	return &MemoryPaymentRepo{payments: map[string]domain.Payment{}}
}

func (r *MemoryPaymentRepo) Create(_ context.Context, p domain.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.payments[p.ID]; ok {
		return application.ErrDuplicatePayment
	}
	r.payments[p.ID] = p
	r.order = append(r.order, p.ID)
	return nil
}

func (r *MemoryPaymentRepo) apply(id string, u application.PaymentUpdate) int64 {
	p, ok := r.payments[id]
	if !ok {
		return 0
	}
	if u.Status != nil {
		p.Status = *u.Status
	}
	if u.AuthorizationCode != nil {
		p.AuthorizationCode = u.AuthorizationCode
	}
	if u.ConfirmedAt != nil {
		p.ConfirmedAt = u.ConfirmedAt
	}
	if u.QRCode != nil {
		p.QRCode = u.QRCode
	}
	if u.CopyPaste != nil {
		p.CopyPaste = u.CopyPaste
	}
	p.UpdatedAt = time.Now().UTC()
	r.payments[id] = p
	return 1
}

func (r *MemoryPaymentRepo) UpdateFields(_ context.Context, id string, u application.PaymentUpdate) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.apply(id, u), nil
}

func (r *MemoryPaymentRepo) FindByID(_ context.Context, id string) (domain.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[id]
	if !ok {
		return domain.Payment{}, application.ErrPaymentNotFound
	}
	return p, nil
}

func (r *MemoryPaymentRepo) FindAll(_ context.Context) ([]domain.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Payment, 0, len(r.order))
	for i := len(r.order) - 1; i >= 0; i-- {
		out = append(out, r.payments[r.order[i]])
	}
	return out, nil
}

func (r *MemoryPaymentRepo) SettleWithOutbox(_ context.Context, id string, u application.PaymentUpdate, eventType string, payload []byte, _ map[string]string, _ string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.payments[id]; !ok || p.Status != domain.StatusPending {
		return 0, nil
	}
	rows := r.apply(id, u)
	if rows > 0 {
		r.Events = append(r.Events, OutboxRecord{EventType: eventType, Payload: payload})
	}
	return rows, nil
}

func (r *MemoryPaymentRepo) CancelStalePending(_ context.Context, olderThan time.Duration, limit int) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := time.Now().UTC().Add(-olderThan)
	var ids []string
	for _, id := range r.order {
		if len(ids) == limit {
			break
		}
		p := r.payments[id]
		if p.Status == domain.StatusPending && p.CreatedAt.Before(cutoff) {
			p.Status = domain.StatusCanceled
			r.payments[id] = p
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// StaticMethodRepo serves a fixed method set.
type StaticMethodRepo struct {
	Methods map[string]domain.Method
}

// DefaultMethods returns one active method per supported type.
func DefaultMethods() *StaticMethodRepo {
	return &StaticMethodRepo{Methods: map[string]domain.Method{
		"m-card": {ID: "m-card", Type: domain.MethodCard, Active: true},
		"m-pix":  {ID: "m-pix", Type: domain.MethodInstantTransfer, Active: true},
	}}
}

func (m *StaticMethodRepo) FindByID(_ context.Context, id string) (domain.Method, error) {
	if method, ok := m.Methods[id]; ok && method.Active {
		return method, nil
	}
	return domain.Method{}, application.ErrMethodNotFound
}

func (m *StaticMethodRepo) FindByType(_ context.Context, t domain.MethodType) (domain.Method, error) {
	for _, method := range m.Methods {
		if method.Type == t && method.Active {
			return method, nil
		}
	}
	return domain.Method{}, application.ErrMethodNotFound
}

func (m *StaticMethodRepo) FindAllActive(_ context.Context) ([]domain.Method, error) {
	var out []domain.Method
	for _, method := range m.Methods {
		if method.Active {
			out = append(out, method)
		}
	}
	return out, nil
}
