package service

import (
	"context"
	"strings"

	"go-gin-gorm-crm/internal/domain"
)

type ContactInput struct {
	Name       string  `json:"name"`
	NameKana   *string `json:"name_kana"`
	Department *string `json:"department"`
	Position   *string `json:"position"`
	Phone      *string `json:"phone"`
	Mobile     *string `json:"mobile"`
	Email      *string `json:"email"`
	Notes      *string `json:"notes"`
}

func (in ContactInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return domain.Validation("氏名は必須です")
	}
	return nil
}

func (in ContactInput) apply(c *domain.Contact) {
	c.Name = strings.TrimSpace(in.Name)
	c.NameKana = domain.StrPtr(in.NameKana)
	c.Department = domain.StrPtr(in.Department)
	c.Position = domain.StrPtr(in.Position)
	c.Phone = domain.StrPtr(in.Phone)
	c.Mobile = domain.StrPtr(in.Mobile)
	c.Email = domain.StrPtr(in.Email)
	c.Notes = domain.StrPtr(in.Notes)
}

type AssignInput struct {
	UserID    uint    `json:"userId"`
	IsPrimary bool    `json:"isPrimary"`
	Notes     *string `json:"notes"`
}

// ContactService 联系人与公司负责人分配
type ContactService struct {
	companies   domain.CompanyRepository
	contacts    domain.ContactRepository
	assignments domain.AssignmentRepository
	users       domain.UserRepository
	access      *Access
	renderer    Renderer
	clock       Clock
}

func NewContactService(
	companies domain.CompanyRepository,
	contacts domain.ContactRepository,
	assignments domain.AssignmentRepository,
	users domain.UserRepository,
	access *Access,
	renderer Renderer,
	clock Clock,
) *ContactService {
	return &ContactService{
		companies: companies, contacts: contacts, assignments: assignments, users: users,
		access: access, renderer: renderer, clock: clock,
	}
}

func (s *ContactService) requireCompany(ctx context.Context, id uint) error {
	c, err := s.companies.FindByID(ctx, id)
	if err != nil {
		return dbErr("load company", err)
	}
	if c == nil {
		return domain.NotFound("顧客が見つかりません")
	}
	return nil
}

func (s *ContactService) requireEdit(ctx context.Context, caller domain.Caller, companyID uint, msg string) error {
	ok, err := s.access.CanEditCompany(ctx, caller, companyID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.Forbidden(msg)
	}
	return nil
}

func (s *ContactService) load(ctx context.Context, id uint) (*domain.Contact, error) {
	c, err := s.contacts.FindByID(ctx, id)
	if err != nil {
		return nil, dbErr("load contact", err)
	}
	if c == nil {
		return nil, domain.NotFound("取引先担当者が見つかりません")
	}
	return c, nil
}

func (s *ContactService) ListByCompany(ctx context.Context, _ domain.Caller, companyID uint, p domain.Page) (domain.List[domain.Contact], error) {
	if err := s.requireCompany(ctx, companyID); err != nil {
		return domain.List[domain.Contact]{}, err
	}
	items, total, err := s.contacts.ListByCompany(ctx, companyID, p)
	if err != nil {
		return domain.List[domain.Contact]{}, dbErr("list contacts", err)
	}
	return domain.NewList(items, p, total), nil
}

func (s *ContactService) Get(ctx context.Context, _ domain.Caller, id uint) (*ContactView, error) {
	c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return &ContactView{Contact: *c, NotesHTML: render(s.renderer, c.Notes)}, nil
}

func (s *ContactService) Create(ctx context.Context, caller domain.Caller, companyID uint, in ContactInput) (*domain.Contact, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if err := s.requireCompany(ctx, companyID); err != nil {
		return nil, err
	}
	if err := s.requireEdit(ctx, caller, companyID, "取引先担当者を作成する権限がありません"); err != nil {
		return nil, err
	}
	c := domain.Contact{CompanyID: companyID}
	in.apply(&c)
	if err := s.contacts.Create(ctx, &c); err != nil {
		return nil, dbErr("create contact", err)
	}
	return &c, nil
}

// Update company_id 保持不变
func (s *ContactService) Update(ctx context.Context, caller domain.Caller, id uint, in ContactInput) error {
	c, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.requireEdit(ctx, caller, c.CompanyID, "取引先担当者を編集する権限がありません"); err != nil {
		return err
	}
	if err := in.validate(); err != nil {
		return err
	}
	in.apply(c)
	if err := s.contacts.Update(ctx, c); err != nil {
		return dbErr("update contact", err)
	}
	return nil
}

func (s *ContactService) Delete(ctx context.Context, caller domain.Caller, id uint) error {
	c, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.requireEdit(ctx, caller, c.CompanyID, "取引先担当者を削除する権限がありません"); err != nil {
		return err
	}
	if err := s.contacts.SoftDelete(ctx, id); err != nil {
		return dbErr("delete contact", err)
	}
	return nil
}

// Assign 同一 (company, user) 已有有效分配时返回 Conflict
func (s *ContactService) Assign(ctx context.Context, caller domain.Caller, companyID uint, in AssignInput) (*domain.CompanyAssignment, error) {
	if in.UserID == 0 {
		return nil, domain.Validation("担当者を指定してください")
	}
	if err := s.requireCompany(ctx, companyID); err != nil {
		return nil, err
	}
	if err := s.requireEdit(ctx, caller, companyID, "担当者を割り当てる権限がありません"); err != nil {
		return nil, err
	}
	u, err := s.users.FindByID(ctx, in.UserID)
	if err != nil {
		return nil, dbErr("load user", err)
	}
	if u == nil || !u.IsActive {
		return nil, domain.NotFound("ユーザーが見つかりません")
	}
	existing, err := s.assignments.FindActive(ctx, companyID, in.UserID)
	if err != nil {
		return nil, dbErr("check assignment", err)
	}
	if existing != nil {
		return nil, domain.Conflict("このユーザーは既に割り当てられています")
	}
	a := domain.CompanyAssignment{
		CompanyID:  companyID,
		UserID:     in.UserID,
		IsPrimary:  in.IsPrimary,
		AssignedAt: s.clock.now(),
		Notes:      domain.StrPtr(in.Notes),
	}
	if err := s.assignments.Create(ctx, &a); err != nil {
		return nil, dbErr("create assignment", err)
	}
	return &a, nil
}

func (s *ContactService) Unassign(ctx context.Context, caller domain.Caller, assignmentID uint) error {
	a, err := s.assignments.FindByID(ctx, assignmentID)
	if err != nil {
		return dbErr("load assignment", err)
	}
	if a == nil {
		return domain.NotFound("担当者割り当てが見つかりません")
	}
	if err := s.requireEdit(ctx, caller, a.CompanyID, "担当者割り当てを解除する権限がありません"); err != nil {
		return err
	}
	if err := s.assignments.SoftDelete(ctx, assignmentID); err != nil {
		return dbErr("delete assignment", err)
	}
	return nil
}
