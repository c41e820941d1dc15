package authService

import (
	"errors"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"

	"WorkHoursMonitor/internal/api/auth"
	authRepository "WorkHoursMonitor/internal/api/auth/repository"
	"WorkHoursMonitor/internal/entity"
	"WorkHoursMonitor/pkg/bcrypt"
	"WorkHoursMonitor/pkg/utils"
)

type fakeStore struct {
	mu        sync.Mutex
	users     map[string]entity.User
	committed int
}

func newFakeStore(users ...entity.User) *fakeStore {
	f := &fakeStore{users: make(map[string]entity.User)}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeStore) NewClient(context.Context, bool) (authRepository.Client, error) {
	return authRepository.Client{
		Users: f,
		Commit: func() error {
			f.mu.Lock()
			defer f.mu.Unlock()
			f.committed++
			return nil
		},
		Rollback: func() error { return nil },
	}, nil
}

func (f *fakeStore) CreateUser(_ context.Context, user entity.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == user.Email {
			return auth.ErrEmailAlreadyExists
		}
	}
	f.users[user.ID] = user
	return nil
}

func (f *fakeStore) GetByID(_ context.Context, id string) (entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return entity.User{}, auth.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeStore) GetByEmail(_ context.Context, email string) (entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return entity.User{}, auth.ErrUserNotFound
}

func (f *fakeStore) ListByManager(_ context.Context, managerID string) ([]entity.User, error) {
	return f.filter(func(u entity.User) bool { return u.ManagerID == managerID && u.IsActive }), nil
}

func (f *fakeStore) ListUsers(_ context.Context, role entity.UserRole) ([]entity.User, error) {
	return f.filter(func(u entity.User) bool { return role == "" || u.Role == role }), nil
}

func (f *fakeStore) filter(keep func(entity.User) bool) []entity.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []entity.User{}
	for _, u := range f.users {
		if keep(u) {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out
}

func (f *fakeStore) UpdateShift(_ context.Context, id, start, end string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return auth.ErrUserNotFound
	}
	u.ShiftStart, u.ShiftEnd = start, end
	f.users[id] = u
	return nil
}

func (f *fakeStore) UpdateUser(_ context.Context, user entity.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[user.ID]; !ok {
		return auth.ErrUserNotFound
	}
	f.users[user.ID] = user
	return nil
}

func (f *fakeStore) DeleteUser(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[id]; !ok {
		return auth.ErrUserNotFound
	}
	delete(f.users, id)
	return nil
}

func (f *fakeStore) CountByRole(context.Context) (map[entity.UserRole]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := map[entity.UserRole]int{}
	for _, u := range f.users {
		counts[u.Role]++
	}
	return counts, nil
}

var (
	admin    = entity.User{ID: "admin", Username: "admin", Email: "admin@example.com", Role: entity.RoleAdmin, IsActive: true}
	manager  = entity.User{ID: "mgr", Username: "mgr", Email: "mgr@example.com", Role: entity.RoleManager, IsActive: true}
	other    = entity.User{ID: "mgr2", Username: "mgr2", Email: "mgr2@example.com", Role: entity.RoleManager, IsActive: true}
	alice    = entity.User{ID: "alice", Username: "alice", Email: "alice@example.com", Role: entity.RoleEmployee, ManagerID: "mgr", IsActive: true}
	bob      = entity.User{ID: "bob", Username: "bob", Email: "bob@example.com", Role: entity.RoleEmployee, ManagerID: "mgr2", IsActive: true}
	deputy   = entity.User{ID: "deputy", Username: "deputy", Email: "deputy@example.com", Role: entity.RoleManager, ManagerID: "mgr", IsActive: true}
	loginAs  = func(u entity.User) entity.UserLoginData { return entity.UserLoginData{ID: u.ID, Role: u.Role} }
	testHash = bcrypt.NewWithCost(4)
)

func newTestDomain(store *fakeStore) UserDomain {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return New(log, store, testHash, utils.New(), time.Hour).User()
}

func ids(users []entity.User) []string {
	out := make([]string, 0, len(users))
	for _, u := range users {
		out = append(out, u.ID)
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestListVisibleUsers(t *testing.T) {
	store := newFakeStore(admin, manager, other, alice, bob, deputy)
	users := newTestDomain(store)

	tests := []struct {
		name   string
		viewer entity.User
		role   entity.UserRole
		want   []string
	}{
		{name: "admin sees everyone", viewer: admin, want: []string{"admin", "alice", "bob", "deputy", "mgr", "mgr2"}},
		{name: "admin filters by role", viewer: admin, role: entity.RoleEmployee, want: []string{"alice", "bob"}},
		{name: "manager sees reports and self", viewer: manager, want: []string{"alice", "deputy", "mgr"}},
		{name: "manager filters by role", viewer: manager, role: entity.RoleManager, want: []string{"deputy", "mgr"}},
		{name: "employee sees self", viewer: alice, want: []string{"alice"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := users.ListVisibleUsers(context.Background(), loginAs(tt.viewer), tt.role)
			if err != nil {
				t.Fatalf("ListVisibleUsers: %v", err)
			}
			if !equal(ids(got), tt.want) {
				t.Fatalf("got %v, want %v", ids(got), tt.want)
			}
		})
	}
}

func TestGetUserVisibility(t *testing.T) {
	store := newFakeStore(admin, manager, other, alice, bob)
	users := newTestDomain(store)

	tests := []struct {
		name    string
		viewer  entity.User
		target  string
		wantErr error
	}{
		{name: "employee reads self", viewer: alice, target: "alice"},
		{name: "employee reads colleague", viewer: alice, target: "bob", wantErr: auth.ErrUserAccessDenied},
		{name: "manager reads report", viewer: manager, target: "alice"},
		{name: "manager reads other team", viewer: manager, target: "bob", wantErr: auth.ErrUserAccessDenied},
		{name: "admin reads anyone", viewer: admin, target: "bob"},
		{name: "missing user", viewer: admin, target: "ghost", wantErr: auth.ErrUserNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := users.GetUser(context.Background(), loginAs(tt.viewer), tt.target)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("GetUser: got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestUpdateUser(t *testing.T) {
	t.Run("manager updates report", func(t *testing.T) {
		store := newFakeStore(manager, alice)
		users := newTestDomain(store)

		name, password, active := "Alice Liddell", "a-new-password", false
		got, err := users.UpdateUser(context.Background(), loginAs(manager), "alice", auth.UpdateUserRequest{
			FullName: &name,
			Password: &password,
			IsActive: &active,
		})
		if err != nil {
			t.Fatalf("UpdateUser: %v", err)
		}
		if got.FullName != name || got.IsActive || got.Email != alice.Email {
			t.Fatalf("unexpected user: %+v", got)
		}
		if err := testHash.ComparePassword(store.users["alice"].Password, password); err != nil {
			t.Fatalf("stored password is not the hash of the new one: %v", err)
		}
		if store.committed != 1 {
			t.Fatalf("committed %d times, want 1", store.committed)
		}
	})

	t.Run("manager outside team", func(t *testing.T) {
		store := newFakeStore(manager, bob)
		users := newTestDomain(store)

		name := "Robert"
		_, err := users.UpdateUser(context.Background(), loginAs(manager), "bob", auth.UpdateUserRequest{FullName: &name})
		if !errors.Is(err, auth.ErrNotYourEmployee) {
			t.Fatalf("expected ErrNotYourEmployee, got %v", err)
		}
		if store.users["bob"].FullName != "" || store.committed != 0 {
			t.Fatalf("user was changed: %+v", store.users["bob"])
		}
	})
}

func TestDeleteUser(t *testing.T) {
	store := newFakeStore(admin, alice)
	users := newTestDomain(store)

	if err := users.DeleteUser(context.Background(), loginAs(admin), "admin"); !errors.Is(err, auth.ErrCannotDeleteSelf) {
		t.Fatalf("self delete: got %v", err)
	}
	if err := users.DeleteUser(context.Background(), loginAs(admin), "alice"); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	if _, ok := store.users["alice"]; ok {
		t.Fatal("alice still stored")
	}
	if err := users.DeleteUser(context.Background(), loginAs(admin), "alice"); !errors.Is(err, auth.ErrUserNotFound) {
		t.Fatalf("second delete: got %v", err)
	}
}

func TestCreateEmployeeForcesRoleAndManager(t *testing.T) {
	store := newFakeStore(manager, other)
	users := newTestDomain(store)

	got, err := users.CreateEmployee(context.Background(), loginAs(manager), auth.CreateUserRequest{
		Email:     "carol@example.com",
		Username:  "carol",
		Password:  "carol-password",
		Role:      string(entity.RoleAdmin),
		ManagerID: "mgr2",
	})
	if err != nil {
		t.Fatalf("CreateEmployee: %v", err)
	}
	if got.Role != entity.RoleEmployee || got.ManagerID != "mgr" || !got.IsActive {
		t.Fatalf("unexpected employee: %+v", got)
	}

	employees, err := users.ListEmployees(context.Background(), loginAs(manager))
	if err != nil {
		t.Fatalf("ListEmployees: %v", err)
	}
	if !equal(ids(employees), []string{got.ID}) {
		t.Fatalf("employees: got %v", ids(employees))
	}
}

func TestListEmployeesSkipsManagers(t *testing.T) {
	users := newTestDomain(newFakeStore(manager, alice, deputy))

	employees, err := users.ListEmployees(context.Background(), loginAs(manager))
	if err != nil {
		t.Fatalf("ListEmployees: %v", err)
	}
	if !equal(ids(employees), []string{"alice"}) {
		t.Fatalf("got %v, want [alice]", ids(employees))
	}
}
