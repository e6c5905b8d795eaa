package service

import (
	"Parley/internal/pkg/userclient"
	"errors"
)

const (
	BadRequest          = 400
	Unauthorized        = 401
	Forbidden           = 403
	NotFound            = 404
	InternalServerError = 500
	Unavailable         = 503
)

var (
	ErrParamInvalid         = errors.New("参数错误")
	ErrConversationNotFound = errors.New("会话不存在")
	ErrMemberNotFound       = errors.New("成员不存在")
	ErrMessageNotFound      = errors.New("消息不存在")
	ErrNotMember            = errors.New("不是该会话成员")
	ErrNotAdmin             = errors.New("需要管理员权限")
	ErrNotSender            = errors.New("只能操作自己发送的消息")
	ErrDirectMemberCount    = errors.New("单聊必须恰好两名成员")
	ErrDirectImmutable      = errors.New("单聊成员不可变更")
	ErrMemberExist          = errors.New("用户已在会话中")
	ErrEditNonText          = errors.New("只有文本消息可以编辑")
	ErrDeleteOwnership      = errors.New("部分消息不存在或不是你发送的")
	ErrDeleteCrossConv      = errors.New("不能跨会话批量删除消息")
	ErrInvalidRole          = errors.New("非法的成员角色")
	ErrInvalidMsgType       = errors.New("非法的消息类型")
	ErrTextRequired         = errors.New("文本消息内容不能为空")
	ErrMediaRequired        = errors.New("媒体消息缺少资源地址")
	UnauthorizedError       = errors.New("权限不足")
	UnExpectedError         = errors.New("系统异常，请稍后重试")
)

var ErrorMap = map[error]int{
	ErrParamInvalid:                  BadRequest,
	ErrConversationNotFound:          NotFound,
	ErrMemberNotFound:                NotFound,
	ErrMessageNotFound:               NotFound,
	ErrNotMember:                     Forbidden,
	ErrNotAdmin:                      Forbidden,
	ErrNotSender:                     Forbidden,
	ErrDirectMemberCount:             BadRequest,
	ErrDirectImmutable:               BadRequest,
	ErrMemberExist:                   BadRequest,
	ErrEditNonText:                   BadRequest,
	ErrDeleteOwnership:               BadRequest,
	ErrDeleteCrossConv:               BadRequest,
	ErrInvalidRole:                   BadRequest,
	ErrInvalidMsgType:                BadRequest,
	ErrTextRequired:                  BadRequest,
	ErrMediaRequired:                 BadRequest,
	UnauthorizedError:                Unauthorized,
	UnExpectedError:                  InternalServerError,
	userclient.ErrProfileNotFound:    NotFound,
	userclient.ErrProfileUnavailable: Unavailable,
}
