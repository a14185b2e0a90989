package roster

import (
	"context"
	"fmt"
	"sync"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"

	"github.com/lumina-edu/exam-service/internal/models"
)

// Directory resolves platform accounts. The exam service does not own
// user data; lookups go to the identity provider.
type Directory interface {
	GetUser(ctx context.Context, userID string) (*models.User, error)
}

// CasdoorConfig holds connection settings for the identity provider.
type CasdoorConfig struct {
	Endpoint     string
	ClientID     string
	ClientSecret string
	Certificate  string
	Organization string
	Application  string
}

// CasdoorDirectory is the Casdoor-backed Directory implementation.
type CasdoorDirectory struct {
	client *casdoorsdk.Client
}

func NewCasdoorDirectory(cfg CasdoorConfig) *CasdoorDirectory {
	client := casdoorsdk.NewClient(
		cfg.Endpoint,
		cfg.ClientID,
		cfg.ClientSecret,
		cfg.Certificate,
		cfg.Organization,
		cfg.Application,
	)
	return &CasdoorDirectory{client: client}
}

func (d *CasdoorDirectory) GetUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := d.client.GetUser(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user %s: %w", userID, err)
	}
	if user == nil {
		return nil, fmt.Errorf("user %s not found", userID)
	}
	return &models.User{
		ID:       user.Name,
		FullName: user.DisplayName,
		Email:    user.Email,
		Role:     roleFromCasdoor(user),
		IsActive: !user.IsForbidden && !user.IsDeleted,
	}, nil
}

// roleFromCasdoor maps the identity provider's account tagging onto the
// platform roles. Admin accounts are flagged in Casdoor; teachers carry
// the "teacher" tag; everything else is a student.
func roleFromCasdoor(user *casdoorsdk.User) models.UserRole {
	if user.IsAdmin {
		return models.RoleAdmin
	}
	if user.Tag == "teacher" {
		return models.RoleTeacher
	}
	return models.RoleStudent
}

// StaticDirectory serves fixed users from memory, for tests and local
// runs without an identity provider.
type StaticDirectory struct {
	mu    sync.RWMutex
	users map[string]*models.User
}

func NewStaticDirectory(users ...*models.User) *StaticDirectory {
	d := &StaticDirectory{users: make(map[string]*models.User)}
	for _, u := range users {
		d.users[u.ID] = u
	}
	return d
}

func (d *StaticDirectory) Add(user *models.User) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users[user.ID] = user
}

func (d *StaticDirectory) GetUser(ctx context.Context, userID string) (*models.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	user, ok := d.users[userID]
	if !ok {
		return nil, fmt.Errorf("user %s not found", userID)
	}
	return user, nil
}
