package model

// AnswerSubmission 答案表单的一次提交
type AnswerSubmission struct {
	Username      string `json:"username"`
	QuestionLabel string `json:"questionLabel"`
	Answer        string `json:"answer"`
}

// PendingOverwrite 目标单元格已有内容时等待用户确认的覆盖请求，仅存在于确认令牌中
// swagger:model
type PendingOverwrite struct {
	Username       string `json:"username"`
	QuestionIndex  int    `json:"questionIndex"`
	Row            int    `json:"row"`
	Column         int    `json:"column"`
	Answer         string `json:"answer"`
	ExistingAnswer string `json:"existingAnswer"`
}

type OutcomeKind string

const (
	OutcomeWritten           OutcomeKind = "written"
	OutcomeNeedsConfirmation OutcomeKind = "needs_confirmation"
	OutcomeCancelled         OutcomeKind = "cancelled"
	OutcomeFailed            OutcomeKind = "failed"
)

// WriteOutcome 答案写入流程的结果
// swagger:model
type WriteOutcome struct {
	Kind    OutcomeKind       `json:"kind"`
	Pending *PendingOverwrite `json:"pending,omitempty"`
	Reason  string            `json:"reason,omitempty"`
	Err     error             `json:"-"`
	Notices []Notice          `json:"notices"`
}

func (o WriteOutcome) Failed() bool {
	return o.Kind == OutcomeFailed
}
