package domain

// Caller 已认证的请求方；由会话中间件解析后显式传给 service
type Caller struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Role     Role   `json:"role"`
}

func (c Caller) IsAdmin() bool { return c.Role == RoleAdmin }
