package model

type NoticeLevel string

const (
	NoticeSuccess NoticeLevel = "success"
	NoticeInfo    NoticeLevel = "info"
	NoticeWarning NoticeLevel = "warning"
	NoticeError   NoticeLevel = "error"
)

// Notice 返回给用户的提示信息
type Notice struct {
	Level   NoticeLevel `json:"level"`
	Message string      `json:"message"`
}
