package util

const (
	DateFormat = "2006-01-02"
	TimeFormat = "2006-01-02 15:04:05"
)

// 答案表第一列的表头
const UsernameColumnLabel = "ユーザー名"

// 用户可见的提示文本
const (
	MsgAnswerSent         = "データをスプレッドシートに送信しました。"
	MsgAnswerOverwritten  = "データをスプレッドシートに上書きしました。"
	MsgOverwriteCancelled = "操作がキャンセルされました。"
	MsgOverwriteConfirm   = "既存の回答があります。上書きしてもよろしいですか？"
	MsgQuestionSent       = "質問をスプレッドシートに送信しました。"
	MsgAnswerFailed       = "データの送信中にエラーが発生しました: "
	MsgOverwriteFailed    = "データの上書き中にエラーが発生しました: "
	MsgQuestionFailed     = "質問の送信中にエラーが発生しました: "
	MsgUsernameRequired   = "ユーザー名を入力してください。"
	MsgNameAndQuestion    = "名前と質問を入力してください。"
	MsgUnknownQuestion    = "質問番号が正しくありません。"
	MsgTokenInvalid       = "確認の有効期限が切れました。もう一度送信してください。"
	MsgInvalidForm        = "入力内容を読み取れませんでした。もう一度送信してください。"
)
