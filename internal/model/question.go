package model

// QuestionEntry 问题表中追加的一行
// swagger:model
type QuestionEntry struct {
	Name        string `json:"name"`
	Question    string `json:"question"`
	SubmittedAt string `json:"submittedAt"`
}

// Row 按问题表列顺序返回单元格
func (q QuestionEntry) Row() []string {
	return []string{q.Name, q.Question, q.SubmittedAt}
}
