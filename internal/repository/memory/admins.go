package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/storefront-identity/internal/domain"
	"github.com/spec-kit/storefront-identity/internal/repository"
)

// AdminRepository is the in-memory admin store.
type AdminRepository struct {
	mu    sync.Mutex
	byID  map[string]*domain.AdminAccount
	clock func() time.Time
}

var _ repository.AdminRepository = (*AdminRepository)(nil)

func NewAdminRepository() *AdminRepository {
	return &AdminRepository{
		byID:  make(map[string]*domain.AdminAccount),
		clock: time.Now,
	}
}

func (r *AdminRepository) Create(_ context.Context, admin *domain.AdminAccount) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.emailTaken(admin.Email, "") {
		return repository.ErrDuplicateEmail
	}

	now := r.clock()
	admin.ID = uuid.NewString()
	admin.CreatedAt = now
	admin.UpdatedAt = now
	copied := *admin
	r.byID[admin.ID] = &copied
	return nil
}

func (r *AdminRepository) Update(_ context.Context, admin *domain.AdminAccount) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[admin.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	if r.emailTaken(admin.Email, admin.ID) {
		return repository.ErrDuplicateEmail
	}

	admin.CreatedAt = stored.CreatedAt
	admin.UpdatedAt = r.clock()
	copied := *admin
	r.byID[admin.ID] = &copied
	return nil
}

func (r *AdminRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.byID, id)
	return nil
}

func (r *AdminRepository) GetByID(_ context.Context, id string) (*domain.AdminAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	admin, ok := r.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *admin
	return &copied, nil
}

func (r *AdminRepository) GetByEmail(_ context.Context, email string) (*domain.AdminAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := emailKey(email)
	for _, admin := range r.byID {
		if emailKey(admin.Email) == key {
			copied := *admin
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *AdminRepository) List(_ context.Context) ([]*domain.AdminAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	admins := make([]*domain.AdminAccount, 0, len(r.byID))
	for _, admin := range r.byID {
		copied := *admin
		admins = append(admins, &copied)
	}
	sort.Slice(admins, func(i, j int) bool {
		if admins[i].CreatedAt.Equal(admins[j].CreatedAt) {
			return admins[i].Email < admins[j].Email
		}
		return admins[i].CreatedAt.Before(admins[j].CreatedAt)
	})
	return admins, nil
}

// Put stores admin as-is, for seeding tests with legacy rows.
func (r *AdminRepository) Put(admin *domain.AdminAccount) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if admin.ID == "" {
		admin.ID = uuid.NewString()
	}
	copied := *admin
	r.byID[admin.ID] = &copied
}

func (r *AdminRepository) emailTaken(email, exceptID string) bool {
	key := emailKey(email)
	for id, admin := range r.byID {
		if id != exceptID && emailKey(admin.Email) == key {
			return true
		}
	}
	return false
}
