package rolesvc_test

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/mkrupp/renewbot/internal/domain"
	"github.com/mkrupp/renewbot/internal/repo/admin"
	"github.com/mkrupp/renewbot/internal/svc/rolesvc"
)

// mockAdminRepository implements admin.Repository for testing.
type mockAdminRepository struct {
	members map[int64]domain.Admin
	m       sync.Mutex
}

func newMockAdminRepository() *mockAdminRepository {
	return &mockAdminRepository{members: map[int64]domain.Admin{}}
}

func (m *mockAdminRepository) factory() admin.RepositoryFactory {
	return func() (admin.Repository, error) { return m, nil }
}

func (m *mockAdminRepository) Add(_ context.Context, telegramID int64) error {
	m.m.Lock()
	defer m.m.Unlock()

	if _, ok := m.members[telegramID]; !ok {
		m.members[telegramID] = domain.Admin{TelegramID: telegramID}
	}

	return nil
}

func (m *mockAdminRepository) Remove(_ context.Context, telegramID int64) error {
	m.m.Lock()
	defer m.m.Unlock()

	delete(m.members, telegramID)

	return nil
}

func (m *mockAdminRepository) IsAdmin(_ context.Context, telegramID int64) (bool, error) {
	m.m.Lock()
	defer m.m.Unlock()

	_, ok := m.members[telegramID]

	return ok, nil
}

func (m *mockAdminRepository) UpsertProfile(_ context.Context, telegramID int64, username, fullName string) error {
	m.m.Lock()
	defer m.m.Unlock()

	m.members[telegramID] = domain.Admin{TelegramID: telegramID, Username: username, FullName: fullName}

	return nil
}

func (m *mockAdminRepository) List(_ context.Context) ([]domain.Admin, error) {
	m.m.Lock()
	defer m.m.Unlock()

	admins := make([]domain.Admin, 0, len(m.members))
	for _, a := range m.members {
		admins = append(admins, a)
	}

	sort.Slice(admins, func(i, j int) bool { return admins[i].TelegramID < admins[j].TelegramID })

	return admins, nil
}

func (m *mockAdminRepository) Close() error { return nil }

func TestService_BootstrapMode(t *testing.T) {
	t.Parallel()

	service, err := rolesvc.NewService(context.Background(), newMockAdminRepository().factory(), rolesvc.RolesConfig{})
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}

	if !service.BootstrapMode() {
		t.Error("BootstrapMode() = false with empty superadmin list, want true")
	}

	// Everyone is superadmin until the list is populated.
	if !service.IsSuperadmin(12345) {
		t.Error("IsSuperadmin() = false in bootstrap mode, want true")
	}
}

func TestService_Roles(t *testing.T) {
	t.Parallel()

	repo := newMockAdminRepository()

	service, err := rolesvc.NewService(context.Background(), repo.factory(), rolesvc.RolesConfig{
		Superadmins: "1, 2",
		Admins:      "10",
	})
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}

	tests := []struct {
		name       string
		telegramID int64
		wantSuper  bool
		wantAdmin  bool
	}{
		{"configured superadmin", 1, true, true},
		{"seeded admin", 10, false, true},
		{"plain user", 99, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := service.IsSuperadmin(tt.telegramID); got != tt.wantSuper {
				t.Errorf("IsSuperadmin(%d) = %v, want %v", tt.telegramID, got, tt.wantSuper)
			}

			isAdmin, err := service.IsAdmin(context.Background(), tt.telegramID)
			if err != nil {
				t.Fatalf("IsAdmin() error = %v", err)
			}
			if isAdmin != tt.wantAdmin {
				t.Errorf("IsAdmin(%d) = %v, want %v", tt.telegramID, isAdmin, tt.wantAdmin)
			}
		})
	}
}

func TestService_GrantRevoke(t *testing.T) {
	t.Parallel()

	service, err := rolesvc.NewService(context.Background(), newMockAdminRepository().factory(), rolesvc.RolesConfig{
		Superadmins: "1",
	})
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}

	if err := service.Grant(context.Background(), 20); err != nil {
		t.Fatalf("Grant() error = %v", err)
	}

	isAdmin, err := service.IsAdmin(context.Background(), 20)
	if err != nil {
		t.Fatalf("IsAdmin() error = %v", err)
	}
	if !isAdmin {
		t.Error("IsAdmin() = false after Grant, want true")
	}

	if err := service.Revoke(context.Background(), 20); err != nil {
		t.Fatalf("Revoke() error = %v", err)
	}

	isAdmin, err = service.IsAdmin(context.Background(), 20)
	if err != nil {
		t.Fatalf("IsAdmin() error = %v", err)
	}
	if isAdmin {
		t.Error("IsAdmin() = true after Revoke, want false")
	}
}

func TestService_NotifyTargetsDeduplicates(t *testing.T) {
	t.Parallel()

	repo := newMockAdminRepository()

	service, err := rolesvc.NewService(context.Background(), repo.factory(), rolesvc.RolesConfig{
		Superadmins: "1,2",
		Admins:      "2,3",
	})
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}

	targets, err := service.NotifyTargets(context.Background())
	if err != nil {
		t.Fatalf("NotifyTargets() error = %v", err)
	}

	sort.Slice(targets, func(i, j int) bool { return targets[i] < targets[j] })

	want := []int64{1, 2, 3}
	if len(targets) != len(want) {
		t.Fatalf("NotifyTargets() = %v, want %v", targets, want)
	}
	for i := range want {
		if targets[i] != want[i] {
			t.Fatalf("NotifyTargets() = %v, want %v", targets, want)
		}
	}
}

func TestService_InvalidIDList(t *testing.T) {
	t.Parallel()

	_, err := rolesvc.NewService(context.Background(), newMockAdminRepository().factory(), rolesvc.RolesConfig{
		Superadmins: "1,abc",
	})
	if err == nil {
		t.Fatal("NewService() error = nil for malformed id list, want error")
	}
}
