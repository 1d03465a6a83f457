package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"go-gin-gorm-crm/internal/domain"
	"go-gin-gorm-crm/internal/service"
)

type contactSvcMock struct{ mock.Mock }

func (m *contactSvcMock) ListByCompany(ctx context.Context, caller domain.Caller, companyID uint, p domain.Page) (domain.List[domain.Contact], error) {
	args := m.Called(caller, companyID, p)
	return args.Get(0).(domain.List[domain.Contact]), args.Error(1)
}

func (m *contactSvcMock) Get(ctx context.Context, caller domain.Caller, id uint) (*service.ContactView, error) {
	args := m.Called(caller, id)
	v, _ := args.Get(0).(*service.ContactView)
	return v, args.Error(1)
}

func (m *contactSvcMock) Create(ctx context.Context, caller domain.Caller, companyID uint, in service.ContactInput) (*domain.Contact, error) {
	args := m.Called(caller, companyID, in)
	c, _ := args.Get(0).(*domain.Contact)
	return c, args.Error(1)
}

func (m *contactSvcMock) Update(ctx context.Context, caller domain.Caller, id uint, in service.ContactInput) error {
	return m.Called(caller, id, in).Error(0)
}

func (m *contactSvcMock) Delete(ctx context.Context, caller domain.Caller, id uint) error {
	return m.Called(caller, id).Error(0)
}

func (m *contactSvcMock) Assign(ctx context.Context, caller domain.Caller, companyID uint, in service.AssignInput) (*domain.CompanyAssignment, error) {
	args := m.Called(caller, companyID, in)
	a, _ := args.Get(0).(*domain.CompanyAssignment)
	return a, args.Error(1)
}

func (m *contactSvcMock) Unassign(ctx context.Context, caller domain.Caller, assignmentID uint) error {
	return m.Called(caller, assignmentID).Error(0)
}

func TestContacts_ListUsesWidePage(t *testing.T) {
	svc := new(contactSvcMock)
	p := domain.NewPage(1, domain.MaxPageLimit, domain.MaxPageLimit)
	svc.On("ListByCompany", alice, uint(5), p).
		Return(domain.NewList([]domain.Contact{{ID: 1, CompanyID: 5, Name: "山田"}}, p, 1), nil)

	w := do(newEngine(NewContacts(svc), &alice), http.MethodGet, "/api/contacts/company/5", "")
	require.Equal(t, http.StatusOK, w.Code)
	items := decode(t, w)["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "山田", items[0].(map[string]any)["name"])
	svc.AssertExpectations(t)
}

func TestContacts_CreateTakesCompanyFromPath(t *testing.T) {
	svc := new(contactSvcMock)
	svc.On("Create", alice, uint(5), mock.MatchedBy(func(in service.ContactInput) bool {
		return in.Name == "山田" && in.Email != nil && *in.Email == "y@example.com"
	})).Return(&domain.Contact{ID: 9, CompanyID: 5}, nil)

	w := do(newEngine(NewContacts(svc), &alice), http.MethodPost, "/api/contacts/company/5",
		`{"name":"山田","email":"y@example.com"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	body := decode(t, w)
	assert.Equal(t, 9.0, body["contactId"])
	svc.AssertExpectations(t)
}

func TestContacts_UpdateForbidden(t *testing.T) {
	svc := new(contactSvcMock)
	svc.On("Update", alice, uint(9), mock.Anything).Return(domain.Forbidden("この取引先を編集する権限がありません"))

	w := do(newEngine(NewContacts(svc), &alice), http.MethodPut, "/api/contacts/9", `{"name":"x"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "この取引先を編集する権限がありません", decode(t, w)["error"])
}

func TestContacts_GetWrapsContact(t *testing.T) {
	svc := new(contactSvcMock)
	svc.On("Get", alice, uint(9)).Return(&service.ContactView{
		Contact:   domain.Contact{ID: 9, CompanyID: 5, Name: "山田"},
		NotesHTML: "<p>memo</p>\n",
	}, nil)

	w := do(newEngine(NewContacts(svc), &alice), http.MethodGet, "/api/contacts/9", "")
	require.Equal(t, http.StatusOK, w.Code)
	ct := decode(t, w)["contact"].(map[string]any)
	assert.Equal(t, 9.0, ct["id"])
	assert.Equal(t, "<p>memo</p>\n", ct["notes_html"])
}

func TestContacts_AssignConflict(t *testing.T) {
	svc := new(contactSvcMock)
	svc.On("Assign", alice, uint(5), service.AssignInput{UserID: 3, IsPrimary: true}).
		Return(nil, domain.Conflict("このユーザーは既に割り当てられています"))

	w := do(newEngine(NewContacts(svc), &alice), http.MethodPost, "/api/contacts/company/5/assign",
		`{"userId":3,"isPrimary":true}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	svc.AssertExpectations(t)
}

func TestContacts_AssignAndUnassign(t *testing.T) {
	svc := new(contactSvcMock)
	svc.On("Assign", boss, uint(5), service.AssignInput{UserID: 3}).
		Return(&domain.CompanyAssignment{ID: 11, CompanyID: 5, UserID: 3}, nil)
	svc.On("Unassign", boss, uint(11)).Return(nil)
	r := newEngine(NewContacts(svc), &boss)

	w := do(r, http.MethodPost, "/api/contacts/company/5/assign", `{"userId":3}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 11.0, decode(t, w)["assignmentId"])

	w = do(r, http.MethodDelete, "/api/contacts/assignment/11", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, decode(t, w)["message"])
	svc.AssertExpectations(t)
}

func TestContacts_DeleteRequiresSession(t *testing.T) {
	svc := new(contactSvcMock)
	w := do(newEngine(NewContacts(svc), nil), http.MethodDelete, "/api/contacts/9", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	svc.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}
