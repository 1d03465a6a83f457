package database

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	mysqldrv "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"go-gin-gorm-crm/internal/core/logger"
)

var ErrUnsupportedDriver = errors.New("database: unsupported driver")

type Opts struct {
	Driver             string
	DSN                string
	Username           string
	Password           string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeMin int
	LogLevel           string
	Logger             *zap.Logger
}

func Dialector(driver, dsn, username, password string) (gorm.Dialector, error) {
	switch driver {
	case "postgres":
		return postgres.Open(dsn), nil
	case "mysql":
		norm, err := NormalizeMySQLDSN(dsn, username, password, false)
		if err != nil {
			return nil, err
		}
		return mysql.Open(norm), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}
}

func NewGorm(o Opts) (*gorm.DB, error) {
	dial, err := Dialector(o.Driver, o.DSN, o.Username, o.Password)
	if err != nil {
		return nil, err
	}
	l := o.Logger
	if l == nil {
		l = zap.NewNop()
	}
	gl, err := NewGormLogger(l, o.LogLevel)
	if err != nil {
		return nil, err
	}
	db, err := gorm.Open(dial, &gorm.Config{
		Logger:                 gl,
		SkipDefaultTransaction: true, // 只在需要时手动开 Tx
		PrepareStmt:            true, // 预编译缓存
		NowFunc:                func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(o.MaxOpenConns)
	sqlDB.SetMaxIdleConns(o.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(o.ConnMaxLifetimeMin) * time.Minute)
	l.Info("database connected", zap.String("driver", o.Driver), zap.String("dsn", MaskDSN(o.DSN)))
	return db, nil
}

// NewGormLogger gorm 的 SQL 日志经 zap 输出
func NewGormLogger(l *zap.Logger, level string) (gormlogger.Interface, error) {
	lvl := gormlogger.Warn
	zl := zapcore.WarnLevel
	switch level {
	case "silent":
		lvl = gormlogger.Silent
	case "error":
		lvl, zl = gormlogger.Error, zapcore.ErrorLevel
	case "info":
		lvl, zl = gormlogger.Info, zapcore.DebugLevel
	}
	std, err := logger.ToStdLogger(l.Named("gorm"), zl)
	if err != nil {
		return nil, err
	}
	return gormlogger.New(std, gormlogger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  lvl,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	}), nil
}

func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

var kvPassword = regexp.MustCompile(`(?i)(password=)(\S+)`)

// MaskDSN 日志里隐藏密码
func MaskDSN(dsn string) string {
	if strings.Contains(dsn, "://") {
		if u, err := url.Parse(dsn); err == nil && u.User != nil {
			if _, ok := u.User.Password(); ok {
				return strings.Replace(dsn, u.User.String()+"@", u.User.Username()+":****@", 1)
			}
		}
		return dsn
	}
	if strings.Contains(dsn, "password=") || strings.Contains(dsn, "PASSWORD=") {
		return kvPassword.ReplaceAllString(dsn, "${1}****")
	}
	if at := strings.LastIndex(dsn, "@"); at > 0 {
		if colon := strings.Index(dsn[:at], ":"); colon > 0 {
			return dsn[:colon+1] + "****" + dsn[at:]
		}
	}
	return dsn
}

// NormalizeMySQLDSN 兼容 mysql:// 与 jdbc:mysql:// 形式，统一成 go-sql-driver DSN；
// 强制 parseTime，默认 utf8mb4
func NormalizeMySQLDSN(input, userOverride, passOverride string, multiStatements bool) (string, error) {
	in := strings.TrimPrefix(strings.TrimSpace(input), "jdbc:")
	if strings.HasPrefix(in, "mysql://") {
		var err error
		if in, err = mysqlURLToDSN(in); err != nil {
			return "", err
		}
	}
	cfg, err := mysqldrv.ParseDSN(in)
	if err != nil {
		return "", fmt.Errorf("parse mysql dsn: %w", err)
	}
	if userOverride != "" {
		cfg.User = userOverride
	}
	if passOverride != "" {
		cfg.Passwd = passOverride
	}
	cfg.ParseTime = true
	cfg.MultiStatements = multiStatements

	dsn := cfg.FormatDSN()
	if !strings.Contains(dsn, "charset=") {
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + "charset=utf8mb4"
	}
	return dsn, nil
}

// mysqlURLToDSN Navicat/JDBC 常见参数映射到 go-sql-driver
func mysqlURLToDSN(in string) (string, error) {
	u, err := url.Parse(in)
	if err != nil {
		return "", fmt.Errorf("parse mysql url: %w", err)
	}
	var user, pass string
	if u.User != nil {
		user = u.User.Username()
		pass, _ = u.User.Password()
	}
	q := u.Query()
	if v := q.Get("user"); v != "" {
		user = v
	}
	if v := q.Get("password"); v != "" {
		pass = v
	}

	out := url.Values{}
	charset := q.Get("charset")
	if charset == "" {
		charset = q.Get("characterEncoding")
	}
	if charset != "" {
		out.Set("charset", charset)
	}
	switch strings.ToLower(q.Get("useSSL")) {
	case "":
	case "true", "1":
		out.Set("tls", "true")
	case "skip-verify":
		out.Set("tls", "skip-verify")
	case "preferred":
		out.Set("tls", "preferred")
	default:
		out.Set("tls", "false")
	}
	if tz := q.Get("serverTimezone"); tz != "" {
		out.Set("loc", tz)
	}
	if v := q.Get("tls"); v != "" {
		out.Set("tls", v)
	}

	cred := user
	if pass != "" {
		cred += ":" + pass
	}
	if cred != "" {
		cred += "@"
	}
	dsn := fmt.Sprintf("%stcp(%s)%s", cred, u.Host, "/"+strings.TrimPrefix(u.Path, "/"))
	if enc := out.Encode(); enc != "" {
		dsn += "?" + enc
	}
	return dsn, nil
}
