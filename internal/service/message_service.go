package service

import (
	"Parley/internal/api/dto"
	"Parley/internal/pkg/cache"
	"Parley/internal/pkg/consts"
	"Parley/internal/pkg/kafka"
	"Parley/internal/pkg/mongo"
	"Parley/internal/pkg/ws"
	"Parley/internal/repository"
	"context"
	stderr "errors"
	log "log/slog"
	"time"
	"unicode/utf8"

	"github.com/jinzhu/copier"
	"gorm.io/gorm"
)

type MessageService interface {
	Create(ctx context.Context, sender uint64, req *dto.SendMessageReq) (*dto.MessageDTO, error)
	Edit(ctx context.Context, userID uint64, messageID string, newText string) (*dto.MessageDTO, error)
	Delete(ctx context.Context, userID uint64, messageIDs []string) (*dto.DeleteResult, error)
	GetAll(ctx context.Context, userID uint64, convID uint64) ([]*dto.MessageDTO, error)
}

type messageServiceImpl struct {
	convRepo    repository.ConversationRepo
	memberRepo  repository.MemberRepo
	messageRepo mongo.MessageRepo
	msgCache    *cache.MessageCache
	convService ConversationService
	bus         ws.Bus
	producer    kafka.Producer
}

func NewMessageService(
	convRepo repository.ConversationRepo,
	memberRepo repository.MemberRepo,
	messageRepo mongo.MessageRepo,
	msgCache *cache.MessageCache,
	convService ConversationService,
	bus ws.Bus,
	producer kafka.Producer,
) MessageService {
	return &messageServiceImpl{
		convRepo:    convRepo,
		memberRepo:  memberRepo,
		messageRepo: messageRepo,
		msgCache:    msgCache,
		convService: convService,
		bus:         bus,
		producer:    producer,
	}
}

// Create 发送消息
// 落库成功即成功, 缓存追加、快照更新、实时推送均为尽力而为。
func (s *messageServiceImpl) Create(ctx context.Context, sender uint64, req *dto.SendMessageReq) (*dto.MessageDTO, error) {
	conv, err := s.convRepo.GetConversation(ctx, req.ConversationID)
	if err != nil {
		if stderr.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConversationNotFound
		}
		log.Error("查询会话失败", "conversationId", req.ConversationID, "error", err)
		return nil, UnExpectedError
	}
	isMember, err := s.memberRepo.IsMember(ctx, conv.ID, sender)
	if err != nil {
		log.Error("查询成员资格失败", "conversationId", conv.ID, "userId", sender, "error", err)
		return nil, UnExpectedError
	}
	if !isMember {
		return nil, ErrNotMember
	}
	if err := validateContent(req); err != nil {
		return nil, err
	}

	msg := &mongo.Message{
		ConversationID: conv.ID,
		Sender:         sender,
		Type:           req.Type,
		Text:           req.Text,
		MediaURL:       req.MediaURL,
		CreatedAt:      time.Now(),
	}
	if err := s.messageRepo.SaveMessage(ctx, msg); err != nil {
		log.Error("消息落库失败", "conversationId", conv.ID, "error", err)
		return nil, UnExpectedError
	}

	s.msgCache.AppendAndTrim(ctx, conv.ID, msg)

	preview := previewOf(msg)
	if err := s.convService.UpdateLastMessage(ctx, conv.ID, preview, msg.CreatedAt); err != nil {
		// 落库后会话被并发删除, 消息本身不回滚
		log.Warn("更新会话快照失败", "conversationId", conv.ID, "error", err)
	}

	memberIDs, err := s.memberRepo.MemberUserIDs(ctx, conv.ID)
	if err != nil {
		log.Warn("查询会话成员失败, 跳过推送", "conversationId", conv.ID, "error", err)
		memberIDs = nil
	}

	if err := s.bus.PublishNewMessage(ctx, conv.Type, &ws.NewMessagePayload{
		ConversationID: conv.ID,
		MessageID:      msg.ID,
		Sender:         sender,
		MessageType:    msg.Type,
		Text:           msg.Text,
		MediaURL:       msg.MediaURL,
	}, memberIDs, preview); err != nil {
		log.Warn("实时推送失败", "conversationId", conv.ID, "error", err)
	}

	if err := s.producer.PublishMessageEvent(&kafka.MessageEvent{
		ConversationID: conv.ID,
		MessageID:      msg.ID,
		Sender:         sender,
		Preview:        preview,
		MemberIDs:      memberIDs,
		CreatedAt:      msg.CreatedAt,
	}); err != nil {
		log.Warn("投递消息事件失败", "conversationId", conv.ID, "error", err)
	}

	return toMessageDTO(msg), nil
}

// Edit 编辑文本消息, 仅发送者本人可编辑
func (s *messageServiceImpl) Edit(ctx context.Context, userID uint64, messageID string, newText string) (*dto.MessageDTO, error) {
	msg, err := s.messageRepo.GetMessage(ctx, messageID)
	if err != nil {
		if stderr.Is(err, mongo.ErrMessageNotFound) {
			return nil, ErrMessageNotFound
		}
		log.Error("查询消息失败", "messageId", messageID, "error", err)
		return nil, UnExpectedError
	}
	if msg.Sender != userID {
		return nil, ErrNotSender
	}
	if msg.Type != consts.MsgTypeText {
		return nil, ErrEditNonText
	}

	updated, err := s.messageRepo.UpdateText(ctx, messageID, newText)
	if err != nil {
		if stderr.Is(err, mongo.ErrMessageNotFound) {
			return nil, ErrMessageNotFound
		}
		log.Error("更新消息失败", "messageId", messageID, "error", err)
		return nil, UnExpectedError
	}

	s.msgCache.ApplyMutation(ctx, updated.ConversationID, []string{messageID}, func(m *mongo.Message) {
		m.Text = updated.Text
		m.IsEdited = true
	})

	if err := s.bus.PublishUpdateMessage(ctx, &ws.UpdateMessagePayload{
		ConversationID: updated.ConversationID,
		MessageID:      updated.ID,
		Text:           updated.Text,
		IsEdited:       updated.IsEdited,
	}); err != nil {
		log.Warn("实时推送编辑失败", "conversationId", updated.ConversationID, "error", err)
	}

	return toMessageDTO(updated), nil
}

// Delete 批量软删除, 全部可删才执行
// 任何一条不存在、不是本人发送、或分属不同会话, 整批拒绝。
func (s *messageServiceImpl) Delete(ctx context.Context, userID uint64, messageIDs []string) (*dto.DeleteResult, error) {
	ids := dedupeStrings(messageIDs)
	if len(ids) == 0 {
		return nil, ErrParamInvalid
	}

	msgs, err := s.messageRepo.GetMessages(ctx, ids)
	if err != nil {
		log.Error("批量查询消息失败", "error", err)
		return nil, UnExpectedError
	}
	if len(msgs) != len(ids) {
		return nil, ErrDeleteOwnership
	}
	convID := msgs[0].ConversationID
	for _, m := range msgs {
		if m.Sender != userID {
			return nil, ErrDeleteOwnership
		}
		if m.ConversationID != convID {
			return nil, ErrDeleteCrossConv
		}
	}

	count, err := s.messageRepo.MarkDeleted(ctx, ids)
	if err != nil {
		log.Error("批量删除消息失败", "conversationId", convID, "error", err)
		return nil, UnExpectedError
	}

	s.msgCache.ApplyMutation(ctx, convID, ids, func(m *mongo.Message) {
		m.IsDeleted = true
	})

	if err := s.bus.PublishDeleteMessage(ctx, &ws.DeleteMessagePayload{
		ConversationID: convID,
		MessageIDs:     ids,
	}); err != nil {
		log.Warn("实时推送删除失败", "conversationId", convID, "error", err)
	}

	return &dto.DeleteResult{DeletedCount: count}, nil
}

// GetAll 会话全量历史, 仅成员可读, 末尾 50 条走缓存窗口
func (s *messageServiceImpl) GetAll(ctx context.Context, userID uint64, convID uint64) ([]*dto.MessageDTO, error) {
	exist, err := s.convRepo.Exists(ctx, convID)
	if err != nil {
		log.Error("查询会话失败", "conversationId", convID, "error", err)
		return nil, UnExpectedError
	}
	if !exist {
		return nil, ErrConversationNotFound
	}
	isMember, err := s.memberRepo.IsMember(ctx, convID, userID)
	if err != nil {
		log.Error("查询成员资格失败", "conversationId", convID, "userId", userID, "error", err)
		return nil, UnExpectedError
	}
	if !isMember {
		return nil, ErrNotMember
	}

	msgs, err := s.msgCache.ReadThrough(ctx, convID, func(ctx context.Context) ([]*mongo.Message, error) {
		return s.messageRepo.GetAllByConversation(ctx, convID)
	})
	if err != nil {
		log.Error("查询消息历史失败", "conversationId", convID, "error", err)
		return nil, UnExpectedError
	}

	result := make([]*dto.MessageDTO, 0, len(msgs))
	for _, m := range msgs {
		result = append(result, toMessageDTO(m))
	}
	return result, nil
}

func validateContent(req *dto.SendMessageReq) error {
	if !consts.IsValidMsgType(req.Type) {
		return ErrInvalidMsgType
	}
	if req.Type == consts.MsgTypeText {
		if req.Text == nil || *req.Text == "" {
			return ErrTextRequired
		}
		return nil
	}
	if req.MediaURL == nil || *req.MediaURL == "" {
		return ErrMediaRequired
	}
	return nil
}

// previewOf 会话列表里展示的预览快照
func previewOf(msg *mongo.Message) string {
	if msg.Type == consts.MsgTypeText && msg.Text != nil {
		text := *msg.Text
		if len(text) > consts.PreviewMaxBytes {
			// varchar(255) 按字节截断, 但不能截在多字节字符中间
			cut := consts.PreviewMaxBytes
			for cut > 0 && !utf8.RuneStart(text[cut]) {
				cut--
			}
			text = text[:cut]
		}
		return text
	}
	return "[" + msg.Type + "]"
}

func toMessageDTO(msg *mongo.Message) *dto.MessageDTO {
	var out dto.MessageDTO
	if err := copier.Copy(&out, msg); err != nil {
		log.Warn("消息转换失败", "messageId", msg.ID, "error", err)
	}
	return &out
}

func dedupeStrings(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
