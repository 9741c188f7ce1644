package service

import (
	"context"
	"sort"
	"strings"
	"sync"

	"anoa.com/yamdb/internal/entity"
	"anoa.com/yamdb/pkg/dto"
	"anoa.com/yamdb/pkg/mailer"
	"gorm.io/gorm"
)

type fakeUserRepo struct {
	mu     sync.Mutex
	nextID uint
	users  map[uint]entity.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[uint]entity.User{}}
}

func (r *fakeUserRepo) conflicts(u *entity.User) bool {
	for id, existing := range r.users {
		if id == u.ID {
			continue
		}
		if existing.Username == u.Username || existing.Email == u.Email {
			return true
		}
	}
	return false
}

func (r *fakeUserRepo) Create(_ context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conflicts(user) {
		return gorm.ErrDuplicatedKey
	}
	r.nextID++
	user.ID = r.nextID
	r.users[user.ID] = *user
	return nil
}

func (r *fakeUserRepo) find(match func(entity.User) bool) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if match(u) {
			found := u
			return &found, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) FindByID(_ context.Context, id uint) (*entity.User, error) {
	return r.find(func(u entity.User) bool { return u.ID == id })
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	return r.find(func(u entity.User) bool { return u.Email == email })
}

func (r *fakeUserRepo) FindByUsername(_ context.Context, username string) (*entity.User, error) {
	return r.find(func(u entity.User) bool { return u.Username == username })
}

func (r *fakeUserRepo) Update(_ context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conflicts(user) {
		return gorm.ErrDuplicatedKey
	}
	r.users[user.ID] = *user
	return nil
}

func (r *fakeUserRepo) FindAll(_ context.Context, search string, page dto.PaginationQuery) ([]*entity.User, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []*entity.User
	for _, u := range r.users {
		if search == "" || strings.Contains(strings.ToLower(u.Username), strings.ToLower(search)) {
			found := u
			matched = append(matched, &found)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Username < matched[j].Username })

	total := int64(len(matched))
	start := page.Offset()
	if start > len(matched) {
		start = len(matched)
	}
	end := start + page.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, id)
	return nil
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []mailer.Message
	err  error
}

func (m *fakeMailer) Send(_ context.Context, msg mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *fakeMailer) last() mailer.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sent[len(m.sent)-1]
}
