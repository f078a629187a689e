package sheets

import (
	"context"
	"fmt"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"
)

const (
	valueInputRaw    = "RAW"
	insertRows       = "INSERT_ROWS"
	renderFormatted  = "FORMATTED_VALUE"
	majorDimRows     = "ROWS"
	spreadsheetTitle = "sheets.properties.title"
)

// GoogleCredentials 服务账号凭据，JSON 优先于文件路径
type GoogleCredentials struct {
	File string
	JSON string
}

func NewGoogleService(ctx context.Context, creds GoogleCredentials, opts ...option.ClientOption) (*gsheets.Service, error) {
	all := []option.ClientOption{option.WithScopes(gsheets.SpreadsheetsScope)}
	switch {
	case creds.JSON != "":
		all = append(all, option.WithCredentialsJSON([]byte(creds.JSON)))
	case creds.File != "":
		all = append(all, option.WithCredentialsFile(creds.File))
	}
	all = append(all, opts...)
	return gsheets.NewService(ctx, all...)
}

type GoogleWorkbook struct {
	svc    *gsheets.Service
	key    string
	titles []string
}

// OpenGoogle 按表格 key 打开工作簿并读取工作表标题
func OpenGoogle(ctx context.Context, svc *gsheets.Service, key string) (*GoogleWorkbook, error) {
	ss, err := svc.Spreadsheets.Get(key).
		Fields(googleapi.Field(spreadsheetTitle)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("open spreadsheet %s: %w", key, err)
	}

	titles := make([]string, 0, len(ss.Sheets))
	for _, s := range ss.Sheets {
		if s.Properties != nil {
			titles = append(titles, s.Properties.Title)
		}
	}
	return &GoogleWorkbook{svc: svc, key: key, titles: titles}, nil
}

func (w *GoogleWorkbook) SheetByIndex(ctx context.Context, index int) (Worksheet, error) {
	if index < 0 || index >= len(w.titles) {
		return nil, fmt.Errorf("%w: index %d", ErrSheetNotFound, index)
	}
	return &googleWorksheet{book: w, title: w.titles[index]}, nil
}

func (w *GoogleWorkbook) SheetByName(ctx context.Context, name string) (Worksheet, error) {
	for _, t := range w.titles {
		if t == name {
			return &googleWorksheet{book: w, title: t}, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, name)
}

type googleWorksheet struct {
	book  *GoogleWorkbook
	title string
}

func (s *googleWorksheet) Title() string { return s.title }

func (s *googleWorksheet) get(ctx context.Context, rng string) ([][]interface{}, error) {
	vr, err := s.book.svc.Spreadsheets.Values.Get(s.book.key, rng).
		MajorDimension(majorDimRows).
		ValueRenderOption(renderFormatted).
		Context(ctx).
		Do()
	if err != nil {
		return nil, err
	}
	return vr.Values, nil
}

func (s *googleWorksheet) Find(ctx context.Context, value string) (int, bool, error) {
	rows, err := s.get(ctx, firstColumnRange(s.title))
	if err != nil {
		return 0, false, err
	}
	for i, row := range rows {
		if len(row) > 0 && toString(row[0]) == value {
			return i + 1, true, nil
		}
	}
	return 0, false, nil
}

func (s *googleWorksheet) Cell(ctx context.Context, row, col int) (string, error) {
	if err := checkCell(row, col); err != nil {
		return "", err
	}
	rows, err := s.get(ctx, cellRange(s.title, row, col))
	if err != nil {
		return "", err
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return "", nil
	}
	return toString(rows[0][0]), nil
}

func (s *googleWorksheet) UpdateCell(ctx context.Context, row, col int, value string) error {
	if err := checkCell(row, col); err != nil {
		return err
	}
	rng := cellRange(s.title, row, col)
	_, err := s.book.svc.Spreadsheets.Values.Update(s.book.key, rng, &gsheets.ValueRange{
		Values: [][]interface{}{{value}},
	}).ValueInputOption(valueInputRaw).Context(ctx).Do()
	return err
}

func (s *googleWorksheet) RowValues(ctx context.Context, row int) ([]string, error) {
	if err := checkCell(row, 1); err != nil {
		return nil, err
	}
	rows, err := s.get(ctx, rowRange(s.title, row))
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []string{}, nil
	}
	values := make([]string, len(rows[0]))
	for i, v := range rows[0] {
		values[i] = toString(v)
	}
	return trimTrailingEmpty(values), nil
}

func (s *googleWorksheet) AppendRow(ctx context.Context, values []string) error {
	row := make([]interface{}, len(values))
	for i, v := range values {
		row[i] = v
	}
	_, err := s.book.svc.Spreadsheets.Values.Append(s.book.key, quoteTitle(s.title)+"!A1", &gsheets.ValueRange{
		Values: [][]interface{}{row},
	}).ValueInputOption(valueInputRaw).InsertDataOption(insertRows).Context(ctx).Do()
	return err
}

func toString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
