package consts

// 会话类型
const (
	ConvTypeDirect int8 = 1
	ConvTypeGroup  int8 = 2
)

// 成员角色
const (
	RoleAdmin  = "Admin"
	RoleMember = "Member"
)

// 消息类型
const (
	MsgTypeText  = "Text"
	MsgTypeFile  = "File"
	MsgTypeImage = "Image"
	MsgTypeVideo = "Video"
	MsgTypeAudio = "Audio"
)

// PreviewMaxBytes 会话快照预览上限, 对应 last_message varchar(255)
const PreviewMaxBytes = 255

// IsValidMsgType 校验消息类型取值
func IsValidMsgType(t string) bool {
	switch t {
	case MsgTypeText, MsgTypeFile, MsgTypeImage, MsgTypeVideo, MsgTypeAudio:
		return true
	}
	return false
}
