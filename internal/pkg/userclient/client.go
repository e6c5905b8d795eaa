package userclient

import (
	"Parley/internal/api/config"
	"context"
	"fmt"
	log "log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
)

var (
	// ErrProfileNotFound 用户不存在
	ErrProfileNotFound = errors.New("用户不存在")
	// ErrProfileUnavailable 用户服务超时或不可用
	ErrProfileUnavailable = errors.New("用户服务暂不可用")
)

// Profile 外部用户服务返回的公开资料
type Profile struct {
	ID          uint64 `json:"id"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
}

// Client 用户资料服务客户端
// 资料存储不在本服务范围内, 通过 HTTP 调用用户服务获取,
// 单次调用带超时, 超时按不可用处理, 不做无限重试。
type Client interface {
	GetUserProfile(ctx context.Context, userID uint64) (*Profile, error)
	GetUserProfiles(ctx context.Context, userIDs []uint64) (map[uint64]*Profile, error)
}

type clientImpl struct {
	http *resty.Client
}

func NewClient(cfg config.UserServiceConfig) Client {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 2 * time.Second
	}

	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")

	return &clientImpl{http: client}
}

// GetUserProfile 获取单个用户的公开资料
func (s *clientImpl) GetUserProfile(ctx context.Context, userID uint64) (*Profile, error) {
	var profile Profile

	resp, err := s.http.R().
		SetContext(ctx).
		SetResult(&profile).
		Get(fmt.Sprintf("/api/user/%d/simple", userID))
	if err != nil {
		log.WarnContext(ctx, "用户服务调用失败", "userID", userID, "err", err)
		return nil, ErrProfileUnavailable
	}

	switch resp.StatusCode() {
	case http.StatusOK:
		return &profile, nil
	case http.StatusNotFound:
		return nil, ErrProfileNotFound
	default:
		log.WarnContext(ctx, "用户服务异常响应", "userID", userID, "status", resp.StatusCode())
		return nil, ErrProfileUnavailable
	}
}

// GetUserProfiles 批量获取, 用于会话列表富化, 避免逐个查询
func (s *clientImpl) GetUserProfiles(ctx context.Context, userIDs []uint64) (map[uint64]*Profile, error) {
	if len(userIDs) == 0 {
		return map[uint64]*Profile{}, nil
	}

	ids := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		ids = append(ids, strconv.FormatUint(id, 10))
	}

	var profiles []*Profile

	resp, err := s.http.R().
		SetContext(ctx).
		SetQueryParam("ids", strings.Join(ids, ",")).
		SetResult(&profiles).
		Get("/api/user/batch/simple")
	if err != nil {
		log.WarnContext(ctx, "用户服务批量调用失败", "count", len(userIDs), "err", err)
		return nil, ErrProfileUnavailable
	}
	if resp.StatusCode() != http.StatusOK {
		log.WarnContext(ctx, "用户服务批量异常响应", "status", resp.StatusCode())
		return nil, ErrProfileUnavailable
	}

	result := make(map[uint64]*Profile, len(profiles))
	for _, p := range profiles {
		result[p.ID] = p
	}
	return result, nil
}
