package v1

import (
	"context"
	"sync"
	"time"

	"github.com/duynhne/marketplace/internal/core/domain"
)

// memStore backs users, sessions and products for handler tests.
type memStore struct {
	mu       sync.Mutex
	users    []domain.UserRow
	sessions map[string]domain.SessionRow
	products map[int64]domain.Product
	nextProd int64
}

func newMemStore() *memStore {
	return &memStore{sessions: map[string]domain.SessionRow{}, products: map[int64]domain.Product{}, nextProd: 1}
}

type memUsers struct{ *memStore }
type memSessions struct{ *memStore }
type memProducts struct{ *memStore }

func (m memUsers) GetByUsername(_ context.Context, username string) (*domain.UserRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, nil
}

func (m memUsers) ExistsByUsernameOrEmail(_ context.Context, username, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username || u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (m memUsers) Create(_ context.Context, username, email, hash string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := len(m.users) + 1
	m.users = append(m.users, domain.UserRow{ID: id, Username: username, Email: email, PasswordHash: hash})
	return id, nil
}

func (m memUsers) UpdateLastLogin(context.Context, int) error { return nil }

func (m memSessions) Create(_ context.Context, userID int, token string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.users[userID-1]
	m.sessions[token] = domain.SessionRow{UserID: userID, Username: u.Username, Email: u.Email, ExpiresAt: expiresAt}
	return nil
}

func (m memSessions) GetUserByToken(_ context.Context, token string) (*domain.SessionRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[token]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (m memSessions) Delete(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
	return nil
}

func (m memSessions) DeleteExpired(context.Context, time.Time) (int64, error) { return 0, nil }

func (m memProducts) List(_ context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Product{}
	for id := int64(1); id < m.nextProd; id++ {
		p, ok := m.products[id]
		if ok && (filter.City == "" || p.City == filter.City) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m memProducts) Get(_ context.Context, id int64) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m memProducts) Create(_ context.Context, sellerID int, req domain.CreateProductRequest) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := domain.Product{ID: m.nextProd, SellerID: sellerID, Title: req.Title, Price: req.Price, City: req.City, ZipCode: req.ZipCode}
	m.products[p.ID] = p
	m.nextProd++
	return &p, nil
}

func (m memProducts) Update(_ context.Context, id int64, req domain.UpdateProductRequest) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, nil
	}
	if req.Title != nil {
		p.Title = *req.Title
	}
	if req.ZipCode != nil {
		p.ZipCode = *req.ZipCode
	}
	m.products[id] = p
	return &p, nil
}
