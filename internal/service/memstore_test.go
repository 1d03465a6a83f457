package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"go-gin-gorm-crm/internal/domain"
)

// memDB 进程内假存储，行为对齐 gorm 仓储：软删行对普通查询不可见
type memDB struct {
	mu          sync.Mutex
	seq         uint
	now         func() time.Time
	users       map[uint]*domain.User
	companies   map[uint]*domain.Company
	contacts    map[uint]*domain.Contact
	assignments map[uint]*domain.CompanyAssignment
	activities  map[uint]*domain.ActivityLog
}

func newMemDB(now func() time.Time) *memDB {
	return &memDB{
		now:         now,
		users:       map[uint]*domain.User{},
		companies:   map[uint]*domain.Company{},
		contacts:    map[uint]*domain.Contact{},
		assignments: map[uint]*domain.CompanyAssignment{},
		activities:  map[uint]*domain.ActivityLog{},
	}
}

func (m *memDB) nextID() uint { m.seq++; return m.seq }

func deleted(d gorm.DeletedAt) bool { return d.Valid }

func softDelete(d *gorm.DeletedAt, at time.Time) { *d = gorm.DeletedAt{Time: at, Valid: true} }

func window[T any](items []T, p domain.Page) []T {
	if p.Limit <= 0 {
		return items
	}
	off := p.Offset()
	if off >= len(items) {
		return nil
	}
	end := off + p.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[off:end]
}

type memUsers struct{ *memDB }

func (m memUsers) Create(_ context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u.ID = m.nextID()
	u.CreatedAt, u.UpdatedAt = m.now(), m.now()
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m memUsers) FindByID(_ context.Context, id uint) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok || deleted(u.DeletedAt) {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (m memUsers) FindActiveByUsername(_ context.Context, username string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username && u.IsActive && !deleted(u.DeletedAt) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m memUsers) UsernameExists(_ context.Context, username string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (m memUsers) List(_ context.Context, f domain.UserFilter, p domain.Page) ([]domain.User, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.User
	for _, u := range m.users {
		if deleted(u.DeletedAt) && !f.IncludeDeleted {
			continue
		}
		if f.ActiveOnly && !u.IsActive {
			continue
		}
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return window(out, p), int64(len(out)), nil
}

func (m memUsers) Count(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, u := range m.users {
		if !deleted(u.DeletedAt) {
			n++
		}
	}
	return n, nil
}

func (m memUsers) UpdateProfile(_ context.Context, u *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur := m.users[u.ID]
	cur.Name, cur.Email, cur.Role, cur.IsActive = u.Name, u.Email, u.Role, u.IsActive
	cur.UpdatedAt = m.now()
	return nil
}

func (m memUsers) UpdatePassword(_ context.Context, id uint, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[id].PasswordHash = hash
	return nil
}

func (m memUsers) SoftDelete(_ context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	softDelete(&m.users[id].DeletedAt, m.now())
	return nil
}

type memCompanies struct{ *memDB }

func (m memCompanies) CreateWithOwner(_ context.Context, c *domain.Company, owner *domain.CompanyAssignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = m.nextID()
	c.CreatedAt, c.UpdatedAt = m.now(), m.now()
	cp := *c
	m.companies[c.ID] = &cp
	if owner != nil {
		owner.ID = m.nextID()
		owner.CompanyID = c.ID
		oc := *owner
		m.assignments[owner.ID] = &oc
	}
	return nil
}

func (m memCompanies) FindByID(_ context.Context, id uint) (*domain.Company, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.companies[id]
	if !ok || deleted(c.DeletedAt) {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (m memCompanies) List(_ context.Context, f domain.CompanyFilter, p domain.Page) ([]domain.CompanyRow, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q := strings.ToLower(f.Search)
	var out []domain.CompanyRow
	for _, c := range m.companies {
		if deleted(c.DeletedAt) {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(c.Name), q) {
			continue
		}
		row := domain.CompanyRow{Company: *c}
		for _, a := range m.assignments {
			if a.CompanyID != c.ID || deleted(a.DeletedAt) {
				continue
			}
			if u, ok := m.users[a.UserID]; ok && !deleted(u.DeletedAt) {
				row.AssignedUsers = append(row.AssignedUsers, u.Name)
			}
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return window(out, p), int64(len(out)), nil
}

func (m memCompanies) Update(_ context.Context, c *domain.Company) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	cp.UpdatedAt = m.now()
	m.companies[c.ID] = &cp
	return nil
}

func (m memCompanies) SoftDeleteCascade(_ context.Context, id uint, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	softDelete(&m.companies[id].DeletedAt, at)
	for _, c := range m.contacts {
		if c.CompanyID == id && !deleted(c.DeletedAt) {
			softDelete(&c.DeletedAt, at)
		}
	}
	for _, a := range m.assignments {
		if a.CompanyID == id && !deleted(a.DeletedAt) {
			softDelete(&a.DeletedAt, at)
		}
	}
	for _, a := range m.activities {
		if a.CompanyID == id && !deleted(a.DeletedAt) {
			softDelete(&a.DeletedAt, at)
		}
	}
	return nil
}

type memContacts struct{ *memDB }

func (m memContacts) Create(_ context.Context, c *domain.Contact) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = m.nextID()
	cp := *c
	m.contacts[c.ID] = &cp
	return nil
}

func (m memContacts) FindByID(_ context.Context, id uint) (*domain.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.contacts[id]
	if !ok || deleted(c.DeletedAt) {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (m memContacts) ListByCompany(_ context.Context, companyID uint, p domain.Page) ([]domain.Contact, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Contact
	for _, c := range m.contacts {
		if c.CompanyID == companyID && !deleted(c.DeletedAt) {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return window(out, p), int64(len(out)), nil
}

func (m memContacts) Update(_ context.Context, c *domain.Contact) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.contacts[c.ID] = &cp
	return nil
}

func (m memContacts) SoftDelete(_ context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	softDelete(&m.contacts[id].DeletedAt, m.now())
	return nil
}

type memAssignments struct{ *memDB }

func (m memAssignments) Create(_ context.Context, a *domain.CompanyAssignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.ID = m.nextID()
	cp := *a
	m.assignments[a.ID] = &cp
	return nil
}

func (m memAssignments) FindByID(_ context.Context, id uint) (*domain.CompanyAssignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assignments[id]
	if !ok || deleted(a.DeletedAt) {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (m memAssignments) FindActive(_ context.Context, companyID, userID uint) (*domain.CompanyAssignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.assignments {
		if a.CompanyID == companyID && a.UserID == userID && !deleted(a.DeletedAt) {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (m memAssignments) ListByCompany(_ context.Context, companyID uint) ([]domain.CompanyAssignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.CompanyAssignment
	for _, a := range m.assignments {
		if a.CompanyID != companyID || deleted(a.DeletedAt) {
			continue
		}
		cp := *a
		if u, ok := m.users[a.UserID]; ok {
			uc := *u
			cp.User = &uc
		}
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsPrimary != out[j].IsPrimary {
			return out[i].IsPrimary
		}
		return out[i].AssignedAt.After(out[j].AssignedAt)
	})
	return out, nil
}

func (m memAssignments) SoftDelete(_ context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	softDelete(&m.assignments[id].DeletedAt, m.now())
	return nil
}

type memActivities struct{ *memDB }

func (m memActivities) withRefs(a domain.ActivityLog) domain.ActivityLog {
	if u, ok := m.users[a.UserID]; ok {
		uc := *u
		a.User = &uc
	}
	if c, ok := m.companies[a.CompanyID]; ok {
		cc := *c
		a.Company = &cc
	}
	return a
}

func (m memActivities) Create(_ context.Context, a *domain.ActivityLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.ID = m.nextID()
	a.CreatedAt, a.UpdatedAt = m.now(), m.now()
	cp := *a
	m.activities[a.ID] = &cp
	return nil
}

func (m memActivities) FindByID(_ context.Context, id uint) (*domain.ActivityLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.activities[id]
	if !ok || deleted(a.DeletedAt) {
		return nil, nil
	}
	cp := m.withRefs(*a)
	return &cp, nil
}

func (m memActivities) ListByCompany(_ context.Context, companyID uint, p domain.Page) ([]domain.ActivityLog, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.ActivityLog
	for _, a := range m.activities {
		if a.CompanyID == companyID && !deleted(a.DeletedAt) {
			out = append(out, m.withRefs(*a))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ActivityDate.Equal(out[j].ActivityDate) {
			return out[i].ActivityDate.After(out[j].ActivityDate)
		}
		return out[i].ID > out[j].ID
	})
	return window(out, p), int64(len(out)), nil
}

func (m memActivities) ListNextActions(_ context.Context, f domain.NextActionFilter, p domain.Page) ([]domain.ActivityLog, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.ActivityLog
	for _, a := range m.activities {
		if deleted(a.DeletedAt) || a.NextActionDate == nil {
			continue
		}
		if c, ok := m.companies[a.CompanyID]; !ok || deleted(c.DeletedAt) {
			continue
		}
		d := *a.NextActionDate
		if f.From != nil && d.Before(*f.From) {
			continue
		}
		if f.Before != nil && !d.Before(*f.Before) {
			continue
		}
		if f.AssignedTo != nil {
			assigned := false
			for _, as := range m.assignments {
				if as.CompanyID == a.CompanyID && as.UserID == *f.AssignedTo && !deleted(as.DeletedAt) {
					assigned = true
					break
				}
			}
			if !assigned {
				continue
			}
		}
		out = append(out, m.withRefs(*a))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].NextActionDate.Equal(*out[j].NextActionDate) {
			return out[i].NextActionDate.Before(*out[j].NextActionDate)
		}
		return out[i].ID < out[j].ID
	})
	return window(out, p), int64(len(out)), nil
}

func (m memActivities) Update(_ context.Context, a *domain.ActivityLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *a
	cp.User, cp.Company = nil, nil
	cp.UpdatedAt = m.now()
	m.activities[a.ID] = &cp
	return nil
}

func (m memActivities) SoftDelete(_ context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	softDelete(&m.activities[id].DeletedAt, m.now())
	return nil
}

// plainHasher 测试用，避免 bcrypt 的耗时
type plainHasher struct{}

func (plainHasher) Hash(pw string) (string, error) { return "plain:" + pw, nil }

func (plainHasher) Compare(hashed, pw string) (bool, error) { return hashed == "plain:"+pw, nil }

// fakeClock 可手动推进的时钟
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// env 组装好的一套 service，供单测与 godog 场景共用
type env struct {
	clock      *fakeClock
	db         *memDB
	loc        *time.Location
	auth       *AuthService
	users      *UserService
	companies  *CompanyService
	contacts   *ContactService
	activities *ActivityService
}

func newEnv() *env {
	loc := time.FixedZone("JST", 9*60*60)
	clk := &fakeClock{t: time.Date(2025, 4, 1, 10, 0, 0, 0, loc)}
	db := newMemDB(clk.Now)
	users, companies := memUsers{db}, memCompanies{db}
	contacts, assignments, activities := memContacts{db}, memAssignments{db}, memActivities{db}
	access := NewAccess(assignments, activities)
	return &env{
		clock:      clk,
		db:         db,
		loc:        loc,
		auth:       NewAuthService(users, plainHasher{}),
		users:      NewUserService(users, plainHasher{}),
		companies:  NewCompanyService(companies, contacts, assignments, access, nil, clk.Now),
		contacts:   NewContactService(companies, contacts, assignments, users, access, nil, clk.Now),
		activities: NewActivityService(companies, activities, access, nil, clk.Now, loc),
	}
}

var rootAdmin = domain.Caller{ID: 0, Username: "root", Name: "root", Role: domain.RoleAdmin}

func callerOf(u *domain.User) domain.Caller {
	return domain.Caller{ID: u.ID, Username: u.Username, Name: u.Name, Role: u.Role}
}
