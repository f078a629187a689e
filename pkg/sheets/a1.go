package sheets

import (
	"fmt"
	"strings"
)

// ColumnName 把 1 开始的列号转换为 A1 记法的列字母
func ColumnName(col int) string {
	var b []byte
	for col > 0 {
		col--
		b = append([]byte{byte('A' + col%26)}, b...)
		col /= 26
	}
	return string(b)
}

func quoteTitle(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

func cellRange(title string, row, col int) string {
	return fmt.Sprintf("%s!%s%d", quoteTitle(title), ColumnName(col), row)
}

func rowRange(title string, row int) string {
	return fmt.Sprintf("%s!%d:%d", quoteTitle(title), row, row)
}

func firstColumnRange(title string) string {
	return quoteTitle(title) + "!A:A"
}
