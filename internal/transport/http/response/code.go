package response

import (
	"net/http"

	"go-gin-gorm-crm/internal/domain"
)

// StatusOf 业务错误类别 -> HTTP 状态码
func StatusOf(k domain.Kind) int {
	switch k {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindUnauthenticated:
		return http.StatusUnauthorized
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// MsgMap 中间件与兜底场景的默认提示
var MsgMap = map[int]string{
	http.StatusBadRequest:            "リクエストが不正です",
	http.StatusUnauthorized:          "認証が必要です",
	http.StatusForbidden:             "権限がありません",
	http.StatusNotFound:              "リソースが見つかりません",
	http.StatusConflict:              "競合が発生しました",
	http.StatusRequestEntityTooLarge: "リクエストが大きすぎます",
	http.StatusInternalServerError:   "サーバーエラーが発生しました",
	http.StatusServiceUnavailable:    "サーバーが混雑しています",
	http.StatusGatewayTimeout:        "タイムアウトしました",
}
