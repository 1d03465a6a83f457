package service

import (
	"context"
	"strings"
	"time"

	"go-gin-gorm-crm/internal/domain"
)

const (
	DefaultActivityLimit = 50
	DefaultNextDays      = 7
	MaxNextDays          = 366
)

type ActivityInput struct {
	CompanyID         uint    `json:"companyId"`
	ActivityDate      string  `json:"activityDate"`
	ActivityType      string  `json:"activityType"`
	Content           string  `json:"content"`
	NextActionDate    *string `json:"nextActionDate"`
	NextActionContent *string `json:"nextActionContent"`
}

type activityFields struct {
	date       time.Time
	typ        domain.ActivityType
	content    string
	nextDate   *time.Time
	nextDetail *string
}

func (in ActivityInput) parse(loc *time.Location) (activityFields, error) {
	var f activityFields
	if strings.TrimSpace(in.ActivityDate) == "" || strings.TrimSpace(in.ActivityType) == "" || strings.TrimSpace(in.Content) == "" {
		return f, domain.Validation("必須項目を入力してください")
	}
	f.typ = domain.ActivityType(strings.TrimSpace(in.ActivityType))
	if !f.typ.Valid() {
		return f, domain.Validation("無効な活動種別です")
	}
	d, err := domain.ParseDate(in.ActivityDate, loc)
	if err != nil {
		return f, domain.Validation("活動日が不正です")
	}
	f.date = d
	f.content = strings.TrimSpace(in.Content)
	if nd := domain.StrPtr(in.NextActionDate); nd != nil {
		t, err := domain.ParseDate(*nd, loc)
		if err != nil {
			return f, domain.Validation("次回アクション日が不正です")
		}
		f.nextDate = &t
	}
	f.nextDetail = domain.StrPtr(in.NextActionContent)
	return f, nil
}

func (f activityFields) apply(a *domain.ActivityLog) {
	a.ActivityDate = f.date
	a.ActivityType = f.typ
	a.Content = f.content
	a.NextActionDate = f.nextDate
	a.NextActionContent = f.nextDetail
}

// NextActionQuery Overdue=true 时忽略 Days
type NextActionQuery struct {
	Days    int
	Overdue bool
}

type ActivityService struct {
	companies  domain.CompanyRepository
	activities domain.ActivityRepository
	access     *Access
	renderer   Renderer
	clock      Clock
	loc        *time.Location
}

func NewActivityService(
	companies domain.CompanyRepository,
	activities domain.ActivityRepository,
	access *Access,
	renderer Renderer,
	clock Clock,
	loc *time.Location,
) *ActivityService {
	if loc == nil {
		loc = time.Local
	}
	return &ActivityService{companies: companies, activities: activities, access: access, renderer: renderer, clock: clock, loc: loc}
}

func (s *ActivityService) requireCompany(ctx context.Context, id uint) error {
	c, err := s.companies.FindByID(ctx, id)
	if err != nil {
		return dbErr("load company", err)
	}
	if c == nil {
		return domain.NotFound("顧客が見つかりません")
	}
	return nil
}

func (s *ActivityService) load(ctx context.Context, id uint) (*domain.ActivityLog, error) {
	a, err := s.activities.FindByID(ctx, id)
	if err != nil {
		return nil, dbErr("load activity", err)
	}
	if a == nil {
		return nil, domain.NotFound("活動履歴が見つかりません")
	}
	return a, nil
}

func activityView(a domain.ActivityLog) domain.ActivityView {
	v := domain.ActivityView{ActivityLog: a}
	if a.User != nil {
		v.UserName = a.User.Name
	}
	if a.Company != nil {
		v.CompanyName = a.Company.Name
	}
	return v
}

func activityViews(in []domain.ActivityLog) []domain.ActivityView {
	out := make([]domain.ActivityView, len(in))
	for i, a := range in {
		out[i] = activityView(a)
	}
	return out
}

// canView 非管理员只能看负责公司的活动，以及自己登记的活动
func (s *ActivityService) canView(ctx context.Context, caller domain.Caller, a *domain.ActivityLog) (bool, error) {
	if caller.IsAdmin() || a.UserID == caller.ID {
		return true, nil
	}
	return s.access.IsAssigned(ctx, caller.ID, a.CompanyID)
}

// ListByCompany 非管理员未负责该公司时返回空列表
func (s *ActivityService) ListByCompany(ctx context.Context, caller domain.Caller, companyID uint, p domain.Page) (domain.List[domain.ActivityView], error) {
	if err := s.requireCompany(ctx, companyID); err != nil {
		return domain.List[domain.ActivityView]{}, err
	}
	if !caller.IsAdmin() {
		ok, err := s.access.IsAssigned(ctx, caller.ID, companyID)
		if err != nil {
			return domain.List[domain.ActivityView]{}, err
		}
		if !ok {
			return domain.NewList[domain.ActivityView](nil, p, 0), nil
		}
	}
	items, total, err := s.activities.ListByCompany(ctx, companyID, p)
	if err != nil {
		return domain.List[domain.ActivityView]{}, dbErr("list activities", err)
	}
	return domain.NewList(activityViews(items), p, total), nil
}

// NextActions 区间按配置时区的自然日计算：
// days 模式 [今天, 今天+days]，overdue 模式 (-inf, 今天)
func (s *ActivityService) NextActions(ctx context.Context, caller domain.Caller, q NextActionQuery, p domain.Page) (domain.List[domain.ActivityView], error) {
	if !q.Overdue && (q.Days < 0 || q.Days > MaxNextDays) {
		return domain.List[domain.ActivityView]{}, domain.Validation("日数が不正です")
	}
	today := domain.StartOfDay(s.clock.now(), s.loc)
	var f domain.NextActionFilter
	if q.Overdue {
		f.Before = &today
	} else {
		end := today.AddDate(0, 0, q.Days+1)
		f.From, f.Before = &today, &end
	}
	if !caller.IsAdmin() {
		uid := caller.ID
		f.AssignedTo = &uid
	}
	items, total, err := s.activities.ListNextActions(ctx, f, p)
	if err != nil {
		return domain.List[domain.ActivityView]{}, dbErr("list next actions", err)
	}
	return domain.NewList(activityViews(items), p, total), nil
}

func (s *ActivityService) Get(ctx context.Context, caller domain.Caller, id uint) (*domain.ActivityView, error) {
	a, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	ok, err := s.canView(ctx, caller, a)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.NotFound("活動履歴が見つかりません")
	}
	v := activityView(*a)
	if s.renderer != nil {
		v.ContentHTML = s.renderer.Render(a.Content)
	}
	return &v, nil
}

func (s *ActivityService) Create(ctx context.Context, caller domain.Caller, in ActivityInput) (*domain.ActivityLog, error) {
	if in.CompanyID == 0 {
		return nil, domain.Validation("必須項目を入力してください")
	}
	f, err := in.parse(s.loc)
	if err != nil {
		return nil, err
	}
	if err := s.requireCompany(ctx, in.CompanyID); err != nil {
		return nil, err
	}
	if !caller.IsAdmin() {
		ok, err := s.access.IsAssigned(ctx, caller.ID, in.CompanyID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, domain.Forbidden("担当していない顧客の活動履歴は作成できません")
		}
	}
	a := domain.ActivityLog{CompanyID: in.CompanyID, UserID: caller.ID}
	f.apply(&a)
	if err := s.activities.Create(ctx, &a); err != nil {
		return nil, dbErr("create activity", err)
	}
	return &a, nil
}

// Update 只有登记人或管理员可改；company_id 不变
func (s *ActivityService) Update(ctx context.Context, caller domain.Caller, id uint, in ActivityInput) error {
	a, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	ok, err := s.access.CanEditActivity(ctx, caller, id)
	if err != nil {
		return err
	}
	if !ok {
		return domain.Forbidden("活動履歴を編集する権限がありません")
	}
	f, err := in.parse(s.loc)
	if err != nil {
		return err
	}
	f.apply(a)
	if err := s.activities.Update(ctx, a); err != nil {
		return dbErr("update activity", err)
	}
	return nil
}

func (s *ActivityService) Delete(ctx context.Context, caller domain.Caller, id uint) error {
	if _, err := s.load(ctx, id); err != nil {
		return err
	}
	ok, err := s.access.CanEditActivity(ctx, caller, id)
	if err != nil {
		return err
	}
	if !ok {
		return domain.Forbidden("活動履歴を削除する権限がありません")
	}
	if err := s.activities.SoftDelete(ctx, id); err != nil {
		return dbErr("delete activity", err)
	}
	return nil
}
