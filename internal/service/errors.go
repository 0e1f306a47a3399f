package service

import (
	"errors"
)

const (
	BadRequest          = 400
	Unauthorized        = 401
	Forbidden           = 403
	NotFound            = 404
	InternalServerError = 500
)

var (
	ErrParamInvalid         = errors.New("参数错误")
	ErrNotificationNotFound = errors.New("通知不存在")
	ErrTargetUserInvalid    = errors.New("目标用户无效")
	ErrFlashSelf            = errors.New("不能对自己操作")
	ErrMessageNotAllowed    = errors.New("不能给自己发消息")
	UnauthorizedError       = errors.New("权限不足")
	ForbiddenError          = errors.New("无权操作他人的通知")
	UnExpectedError         = errors.New("系统异常，请稍后重试")
)

var ErrorMap = map[error]int{
	ErrParamInvalid:         BadRequest,
	ErrNotificationNotFound: NotFound,
	ErrTargetUserInvalid:    BadRequest,
	ErrFlashSelf:            BadRequest,
	ErrMessageNotAllowed:    BadRequest,
	UnauthorizedError:       Unauthorized,
	ForbiddenError:          Forbidden,
	UnExpectedError:         InternalServerError,
}
