package repository

import (
	"context"
	"encoding/json"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/edge-gateway/internal/auth"
	"github.com/spec-kit/edge-gateway/internal/domain"
)

// memoryRepository is the default user directory when no database is
// configured. Returned records are copies so callers cannot mutate the store
// behind its back.
type memoryRepository struct {
	mu      sync.RWMutex
	byID    map[string]*domain.User
	byEmail map[string]string // email -> id
}

// NewMemoryRepository returns an empty in-memory user directory.
func NewMemoryRepository() UserRepository {
	return &memoryRepository{
		byID:    make(map[string]*domain.User),
		byEmail: make(map[string]string),
	}
}

func (r *memoryRepository) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byEmail[user.Email]; exists {
		return errDuplicateEmail
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	stored := cloneUser(user)
	r.byID[stored.ID] = stored
	r.byEmail[stored.Email] = stored.ID
	return nil
}

func (r *memoryRepository) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.byID[user.ID]
	if !ok {
		return ErrNotFound
	}
	user.CreatedAt = existing.CreatedAt
	user.UpdatedAt = time.Now()

	delete(r.byEmail, existing.Email)
	stored := cloneUser(user)
	r.byID[stored.ID] = stored
	r.byEmail[stored.Email] = stored.ID
	return nil
}

func (r *memoryRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneUser(user), nil
}

func (r *memoryRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneUser(r.byID[id]), nil
}

func (r *memoryRepository) List(_ context.Context) ([]*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]*domain.User, 0, len(r.byID))
	for _, user := range r.byID {
		users = append(users, cloneUser(user))
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
	return users, nil
}

func (r *memoryRepository) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID), nil
}

var errDuplicateEmail = errDuplicate{}

type errDuplicate struct{}

func (errDuplicate) Error() string { return "email already registered" }

// IsDuplicateEmail reports whether err means the email is already taken.
func IsDuplicateEmail(err error) bool {
	_, ok := err.(errDuplicate)
	return ok
}

// SeedRecord mirrors the mock data format: passwords arrive in plaintext and
// are hashed on load. Mock files only.
type SeedRecord struct {
	Email         string            `json:"email"`
	Password      string            `json:"password"`
	Name          string            `json:"name"`
	Roles         []string          `json:"roles"`
	Status        domain.UserStatus `json:"status"`
	EmailVerified bool              `json:"emailVerified"`
}

// SeedFromFile loads seed users from a JSON file into the repository.
// A missing path is not an error; the directory simply starts empty.
func SeedFromFile(ctx context.Context, repo UserRepository, path string, bcryptCost int) (int, error) {
	if path == "" {
		return 0, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	var records []SeedRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return 0, err
	}

	seeded := 0
	for _, rec := range records {
		hash, err := auth.HashPassword(rec.Password, bcryptCost)
		if err != nil {
			return seeded, err
		}
		status := rec.Status
		if status == "" {
			status = domain.UserStatusActive
		}
		user := &domain.User{
			Email:         rec.Email,
			Name:          rec.Name,
			PasswordHash:  hash,
			Roles:         rec.Roles,
			Status:        status,
			EmailVerified: rec.EmailVerified,
		}
		if err := repo.Create(ctx, user); err != nil {
			return seeded, err
		}
		seeded++
	}
	return seeded, nil
}

func cloneUser(u *domain.User) *domain.User {
	out := *u
	out.Roles = append([]string(nil), u.Roles...)
	return &out
}
