package service

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"go-gin-gorm-crm/internal/domain"
)

const DefaultCompanyLimit = 20

type CompanyInput struct {
	Name          string  `json:"name"`
	NameKana      *string `json:"name_kana"`
	PostalCode    *string `json:"postal_code"`
	Address       *string `json:"address"`
	Phone         *string `json:"phone"`
	Fax           *string `json:"fax"`
	Email         *string `json:"email"`
	Website       *string `json:"website"`
	Industry      *string `json:"industry"`
	EmployeeCount *int64  `json:"employee_count"`
	Capital       *int64  `json:"capital"`
	Notes         *string `json:"notes"`
}

func (in CompanyInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return domain.Validation("会社名は必須です")
	}
	if in.EmployeeCount != nil && *in.EmployeeCount < 0 {
		return domain.Validation("従業員数が不正です")
	}
	if in.Capital != nil && *in.Capital < 0 {
		return domain.Validation("資本金が不正です")
	}
	return nil
}

// apply 覆盖全部可编辑字段；未提供的可选字段写为 NULL
func (in CompanyInput) apply(c *domain.Company) {
	c.Name = strings.TrimSpace(in.Name)
	c.NameKana = domain.StrPtr(in.NameKana)
	c.PostalCode = domain.StrPtr(in.PostalCode)
	c.Address = domain.StrPtr(in.Address)
	c.Phone = domain.StrPtr(in.Phone)
	c.Fax = domain.StrPtr(in.Fax)
	c.Email = domain.StrPtr(in.Email)
	c.Website = domain.StrPtr(in.Website)
	c.Industry = domain.StrPtr(in.Industry)
	c.EmployeeCount = in.EmployeeCount
	c.Capital = in.Capital
	c.Notes = domain.StrPtr(in.Notes)
}

type CompanyView struct {
	domain.Company
	NotesHTML string `json:"notes_html"`
}

type ContactView struct {
	domain.Contact
	NotesHTML string `json:"notes_html"`
}

type CompanyDetail struct {
	Company     CompanyView             `json:"company"`
	Assignments []domain.AssignmentView `json:"assignments"`
	Contacts    []ContactView           `json:"contacts"`
}

type CompanyService struct {
	companies   domain.CompanyRepository
	contacts    domain.ContactRepository
	assignments domain.AssignmentRepository
	access      *Access
	renderer    Renderer
	clock       Clock
}

func NewCompanyService(
	companies domain.CompanyRepository,
	contacts domain.ContactRepository,
	assignments domain.AssignmentRepository,
	access *Access,
	renderer Renderer,
	clock Clock,
) *CompanyService {
	return &CompanyService{
		companies: companies, contacts: contacts, assignments: assignments,
		access: access, renderer: renderer, clock: clock,
	}
}

func (s *CompanyService) List(ctx context.Context, _ domain.Caller, search string, p domain.Page) (domain.List[domain.CompanyRow], error) {
	rows, total, err := s.companies.List(ctx, domain.CompanyFilter{Search: strings.TrimSpace(search)}, p)
	if err != nil {
		return domain.List[domain.CompanyRow]{}, dbErr("list companies", err)
	}
	return domain.NewList(rows, p, total), nil
}

func (s *CompanyService) load(ctx context.Context, id uint) (*domain.Company, error) {
	c, err := s.companies.FindByID(ctx, id)
	if err != nil {
		return nil, dbErr("load company", err)
	}
	if c == nil {
		return nil, domain.NotFound("顧客が見つかりません")
	}
	return c, nil
}

// Get 公司详情 + 有效联系人 + 有效负责人（主负责优先）
func (s *CompanyService) Get(ctx context.Context, _ domain.Caller, id uint) (*CompanyDetail, error) {
	c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	var (
		contacts    []domain.Contact
		assignments []domain.CompanyAssignment
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var e error
		contacts, _, e = s.contacts.ListByCompany(gctx, id, domain.Page{})
		return e
	})
	g.Go(func() error {
		var e error
		assignments, e = s.assignments.ListByCompany(gctx, id)
		return e
	})
	if err := g.Wait(); err != nil {
		return nil, dbErr("load company detail", err)
	}

	out := &CompanyDetail{
		Company:     CompanyView{Company: *c, NotesHTML: render(s.renderer, c.Notes)},
		Assignments: make([]domain.AssignmentView, 0, len(assignments)),
		Contacts:    make([]ContactView, 0, len(contacts)),
	}
	for _, a := range assignments {
		out.Assignments = append(out.Assignments, assignmentView(a))
	}
	for _, ct := range contacts {
		out.Contacts = append(out.Contacts, ContactView{Contact: ct, NotesHTML: render(s.renderer, ct.Notes)})
	}
	return out, nil
}

func assignmentView(a domain.CompanyAssignment) domain.AssignmentView {
	v := domain.AssignmentView{CompanyAssignment: a}
	if a.User != nil {
		v.UserName = a.User.Name
		v.UserEmail = a.User.Email
	}
	return v
}

// Create 创建者自动成为主负责人（同一事务）
func (s *CompanyService) Create(ctx context.Context, caller domain.Caller, in CompanyInput) (*domain.Company, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	var c domain.Company
	in.apply(&c)
	owner := &domain.CompanyAssignment{UserID: caller.ID, IsPrimary: true, AssignedAt: s.clock.now()}
	if err := s.companies.CreateWithOwner(ctx, &c, owner); err != nil {
		return nil, dbErr("create company", err)
	}
	return &c, nil
}

func (s *CompanyService) Update(ctx context.Context, caller domain.Caller, id uint, in CompanyInput) error {
	c, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	ok, err := s.access.CanEditCompany(ctx, caller, id)
	if err != nil {
		return err
	}
	if !ok {
		return domain.Forbidden("この顧客を編集する権限がありません")
	}
	if err := in.validate(); err != nil {
		return err
	}
	in.apply(c)
	if err := s.companies.Update(ctx, c); err != nil {
		return dbErr("update company", err)
	}
	return nil
}

// Delete 仅管理员；联系人、负责关系、活动记录一并软删
func (s *CompanyService) Delete(ctx context.Context, caller domain.Caller, id uint) error {
	if !caller.IsAdmin() {
		return domain.Forbidden("顧客を削除する権限がありません")
	}
	if _, err := s.load(ctx, id); err != nil {
		return err
	}
	if err := s.companies.SoftDeleteCascade(ctx, id, s.clock.now()); err != nil {
		return dbErr("delete company", err)
	}
	return nil
}
