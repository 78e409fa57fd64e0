package v1

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/duynhne/marketplace/internal/core/domain"
)

type fakeUsers struct {
	mu     sync.Mutex
	rows   map[string]*domain.UserRow
	nextID int
	err    error
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{rows: map[string]*domain.UserRow{}, nextID: 1}
}

func (f *fakeUsers) GetByUsername(_ context.Context, username string) (*domain.UserRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.rows[username], nil
}

func (f *fakeUsers) ExistsByUsernameOrEmail(_ context.Context, username, email string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	for _, r := range f.rows {
		if r.Username == username || r.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeUsers) Create(_ context.Context, username, email, hash string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextID
	f.nextID++
	f.rows[username] = &domain.UserRow{ID: id, Username: username, Email: email, PasswordHash: hash}
	return id, nil
}

func (f *fakeUsers) UpdateLastLogin(context.Context, int) error { return nil }

type fakeSession struct {
	userID    int
	expiresAt time.Time
}

type fakeSessions struct {
	mu    sync.Mutex
	users *fakeUsers
	byTok map[string]fakeSession
}

func newFakeSessions(users *fakeUsers) *fakeSessions {
	return &fakeSessions{users: users, byTok: map[string]fakeSession{}}
}

func (f *fakeSessions) Create(_ context.Context, userID int, token string, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byTok[token] = fakeSession{userID: userID, expiresAt: expiresAt}
	return nil
}

func (f *fakeSessions) GetUserByToken(_ context.Context, token string) (*domain.SessionRow, error) {
	f.mu.Lock()
	s, ok := f.byTok[token]
	f.mu.Unlock()
	if !ok {
		return nil, nil
	}
	f.users.mu.Lock()
	defer f.users.mu.Unlock()
	for _, u := range f.users.rows {
		if u.ID == s.userID {
			return &domain.SessionRow{UserID: u.ID, Username: u.Username, Email: u.Email, ExpiresAt: s.expiresAt}, nil
		}
	}
	return nil, nil
}

func (f *fakeSessions) Delete(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.byTok, token)
	return nil
}

func (f *fakeSessions) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for tok, s := range f.byTok {
		if s.expiresAt.Before(now) {
			delete(f.byTok, tok)
			n++
		}
	}
	return n, nil
}

var errStore = errors.New("store down")

type fakeProducts struct {
	mu     sync.Mutex
	items  map[int64]*domain.Product
	nextID int64
	err    error
}

func newFakeProducts() *fakeProducts {
	return &fakeProducts{items: map[int64]*domain.Product{}, nextID: 1}
}

func (f *fakeProducts) List(_ context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := []domain.Product{}
	for id := int64(1); id < f.nextID; id++ {
		p, ok := f.items[id]
		if !ok {
			continue
		}
		if filter.City != "" && p.City != filter.City {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakeProducts) Get(_ context.Context, id int64) (*domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.items[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProducts) Create(_ context.Context, sellerID int, req domain.CreateProductRequest) (*domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	p := &domain.Product{
		ID: f.nextID, SellerID: sellerID, Title: req.Title, Description: req.Description,
		Price: req.Price, Location: req.Location, City: req.City, ZipCode: req.ZipCode,
	}
	f.items[p.ID] = p
	f.nextID++
	cp := *p
	return &cp, nil
}

func (f *fakeProducts) Update(_ context.Context, id int64, req domain.UpdateProductRequest) (*domain.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.items[id]
	if !ok {
		return nil, nil
	}
	if req.Title != nil {
		p.Title = *req.Title
	}
	if req.Price != nil {
		p.Price = *req.Price
	}
	if req.City != nil {
		p.City = *req.City
	}
	if req.ZipCode != nil {
		p.ZipCode = *req.ZipCode
	}
	cp := *p
	return &cp, nil
}
