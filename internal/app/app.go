package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"go-gin-gorm-crm/internal/core/auth"
	"go-gin-gorm-crm/internal/core/cache"
	"go-gin-gorm-crm/internal/core/config"
	"go-gin-gorm-crm/internal/core/database"
	"go-gin-gorm-crm/internal/core/richtext"
	"go-gin-gorm-crm/internal/core/session"
	"go-gin-gorm-crm/internal/repo"
	"go-gin-gorm-crm/internal/service"
	"go-gin-gorm-crm/pkg/utils"
)

// App 进程内共享的依赖；cmd/api 与 cmd/admin 共用
type App struct {
	Cfg   *config.Config
	Log   *zap.Logger
	DB    *gorm.DB
	Cache *cache.Cache // redis.addr 为空时为 nil
	Loc   *time.Location

	Auth       *service.AuthService
	Users      *service.UserService
	Companies  *service.CompanyService
	Contacts   *service.ContactService
	Activities *service.ActivityService
	Sessions   *session.Manager
}

func OpenDB(cfg *config.Config, l *zap.Logger) (*gorm.DB, error) {
	return database.NewGorm(database.Opts{
		Driver:             cfg.DB.Driver,
		DSN:                cfg.DB.DSN,
		Username:           cfg.DB.Username,
		Password:           cfg.DB.Password,
		MaxOpenConns:       cfg.DB.MaxOpenConns,
		MaxIdleConns:       cfg.DB.MaxIdleConns,
		ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
		LogLevel:           cfg.DB.LogLevel,
		Logger:             l,
	})
}

func NewMigrator(cfg *config.Config, l *zap.Logger) (*database.Migrator, error) {
	return database.NewMigrator(cfg.DB.Driver, cfg.DB.DSN, cfg.DB.Username, cfg.DB.Password, l)
}

// sessionSecret 本地环境未配置时生成随机密钥（重启后旧会话失效）
func sessionSecret(cfg *config.Config, l *zap.Logger) ([]byte, error) {
	if cfg.Session.Secret != "" {
		return []byte(cfg.Session.Secret), nil
	}
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("generate session secret: %w", err)
	}
	l.Warn("session.secret is empty, using a random secret for this process")
	return []byte(hex.EncodeToString(b)), nil
}

// New 组装仓储、服务与会话；db 由调用方打开并负责关闭
func New(cfg *config.Config, l *zap.Logger, db *gorm.DB) (*App, error) {
	loc, err := time.LoadLocation(cfg.App.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.App.Timezone, err)
	}

	a := &App{Cfg: cfg, Log: l, DB: db, Loc: loc}

	users := repo.NewUserRepo(db)
	companies := repo.NewCompanyRepo(db)
	contacts := repo.NewContactRepo(db)
	assignments := repo.NewAssignmentRepo(db)
	activities := repo.NewActivityRepo(db)

	hasher := utils.BcryptHasher{Cost: cfg.Security.BcryptCost}
	renderer := richtext.New()
	access := service.NewAccess(assignments, activities)
	clock := service.Clock(time.Now)

	a.Auth = service.NewAuthService(users, hasher)
	a.Users = service.NewUserService(users, hasher)
	a.Companies = service.NewCompanyService(companies, contacts, assignments, access, renderer, clock)
	a.Contacts = service.NewContactService(companies, contacts, assignments, users, access, renderer, clock)
	a.Activities = service.NewActivityService(companies, activities, access, renderer, clock, loc)

	var backend session.Backend = repo.NewSessionRepo(db)
	if cfg.Redis.Addr != "" {
		a.Cache = cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := a.Cache.Ping(ctx); err != nil {
			// redis 不可用时退回纯数据库会话
			l.Warn("redis unavailable, session cache disabled", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
			_ = a.Cache.Close()
			a.Cache = nil
		} else {
			backend = session.NewCached(backend, a.Cache, time.Duration(cfg.Session.CacheTTLSec)*time.Second, l)
		}
	}

	secret, err := sessionSecret(cfg, l)
	if err != nil {
		return nil, err
	}
	codec := &auth.JWTer{Secret: secret, Issuer: cfg.Session.Issuer}
	store := session.NewStore(backend, codec, session.StoreOptions{
		TTL:    time.Duration(cfg.Session.TTLHours) * time.Hour,
		Secure: cfg.Session.Secure,
		Domain: cfg.Session.Domain,
	})
	a.Sessions = session.NewManager(store, cfg.Session.CookieName)
	return a, nil
}

// Bootstrap 用户表为空时创建初始管理员
func (a *App) Bootstrap(ctx context.Context) error {
	if !a.Cfg.Bootstrap.Enable {
		return nil
	}
	b := a.Cfg.Bootstrap
	created, err := a.Auth.EnsureAdmin(ctx, service.BootstrapAdmin{
		Username: b.Username, Password: b.Password, Name: b.Name, Email: b.Email,
	})
	if err != nil {
		return err
	}
	if created {
		a.Log.Warn("bootstrap admin created, change its password", zap.String("username", b.Username))
	}
	return nil
}

func (a *App) Close() {
	if a.Cache != nil {
		_ = a.Cache.Close()
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
