package model

// SheetTab mysql 后端中的一个工作表
type SheetTab struct {
	BaseModel
	Title    string `gorm:"type:varchar(191);uniqueIndex;comment:工作表名称" json:"title"`
	Position int    `gorm:"index;comment:工作表顺序" json:"position"`
}

func (SheetTab) TableName() string {
	return "sheet_tabs"
}

// SheetCell mysql 后端中的一个单元格，行列从 1 开始
type SheetCell struct {
	BaseModel
	SheetID uint   `gorm:"uniqueIndex:idx_sheet_cell;not null;comment:工作表ID" json:"sheetId"`
	Row     int    `gorm:"uniqueIndex:idx_sheet_cell;not null;comment:行号" json:"row"`
	Col     int    `gorm:"uniqueIndex:idx_sheet_cell;not null;comment:列号" json:"col"`
	Value   string `gorm:"type:text;comment:单元格内容" json:"value"`
}

func (SheetCell) TableName() string {
	return "sheet_cells"
}
