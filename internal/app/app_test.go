package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"workshop_form_backend/internal/config"
	"workshop_form_backend/internal/testutil"
	"workshop_form_backend/internal/util"
	"workshop_form_backend/pkg/lock"
	"workshop_form_backend/pkg/retry"
	"workshop_form_backend/pkg/sheets"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var labels = []string{"ワーク2-1 プロンプト", "ワーク2-1 ChatGPTの回答"}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Port: "0", Mode: gin.TestMode},
		Sheets: config.SheetsConfig{QuestionSheet: "質問"},
		Retry:  config.RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond},
		Form:   config.FormConfig{Timezone: "Asia/Tokyo", QuestionLabels: labels},
		Token: config.TokenConfig{
			Secret:     "0123456789abcdef0123456789abcdef",
			ExpireTime: time.Minute,
		},
		RateLimit: config.RateLimitConfig{MaxRequests: 1000, WindowMinutes: 1},
	}
}

type testApp struct {
	*App
	book *testutil.MemoryWorkbook
}

func setupTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	book := testutil.NewMemoryWorkbook("回答", "質問")
	book.Sheet("回答").SetRow(1, append([]string{util.UsernameColumnLabel}, labels...)...)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	a := &App{Config: testConfig()}
	executor := retry.NewExecutor(retry.Policy{MaxAttempts: 3, BaseDelay: time.Millisecond}, sheets.IsTransient)
	require.NoError(t, a.build(ctx, book.Opener(), executor, lock.NewLocal()))
	return &testApp{App: a, book: book}
}

type apiResponse struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type answerData struct {
	Outcome struct {
		Kind    string `json:"kind"`
		Reason  string `json:"reason"`
		Notices []struct {
			Level   string `json:"level"`
			Message string `json:"message"`
		} `json:"notices"`
		Pending *struct {
			Row            int    `json:"row"`
			Column         int    `json:"column"`
			ExistingAnswer string `json:"existingAnswer"`
		} `json:"pending"`
	} `json:"outcome"`
	Token string `json:"token"`
}

func (a *testApp) postJSON(t *testing.T, path string, body interface{}) (*httptest.ResponseRecorder, apiResponse) {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	a.Router.ServeHTTP(w, req)

	var resp apiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return w, resp
}

func (a *testApp) postForm(t *testing.T, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	a.Router.ServeHTTP(w, req)
	return w
}

func decodeAnswer(t *testing.T, resp apiResponse) answerData {
	t.Helper()
	var data answerData
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	return data
}

func TestAnswerAPIOverwriteFlow(t *testing.T) {
	a := setupTestApp(t)
	answers := a.book.Sheet("回答")

	w, resp := a.postJSON(t, "/api/answers", gin.H{"username": "alice", "questionLabel": labels[0], "answer": "hello"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "written", decodeAnswer(t, resp).Outcome.Kind)
	assert.Equal(t, "hello", answers.Value(2, 2))

	w, resp = a.postJSON(t, "/api/answers", gin.H{"username": "alice", "questionLabel": labels[0], "answer": "world"})
	require.Equal(t, http.StatusOK, w.Code)
	data := decodeAnswer(t, resp)
	require.Equal(t, "needs_confirmation", data.Outcome.Kind)
	require.NotNil(t, data.Outcome.Pending)
	assert.Equal(t, "hello", data.Outcome.Pending.ExistingAnswer)
	assert.Equal(t, 2, data.Outcome.Pending.Row)
	require.NotEmpty(t, data.Token)
	assert.Equal(t, "hello", answers.Value(2, 2))

	w, resp = a.postJSON(t, "/api/answers/confirm", gin.H{"token": data.Token, "confirm": true})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "written", decodeAnswer(t, resp).Outcome.Kind)
	assert.Equal(t, "world", answers.Value(2, 2))
}

func TestAnswerAPICancel(t *testing.T) {
	a := setupTestApp(t)
	a.book.Sheet("回答").SetRow(2, "bob", "keep")

	_, resp := a.postJSON(t, "/api/answers", gin.H{"username": "bob", "questionLabel": labels[0], "answer": "replace"})
	data := decodeAnswer(t, resp)
	require.Equal(t, "needs_confirmation", data.Outcome.Kind)

	w, resp := a.postJSON(t, "/api/answers/confirm", gin.H{"token": data.Token, "confirm": false})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "cancelled", decodeAnswer(t, resp).Outcome.Kind)
	assert.Equal(t, "keep", a.book.Sheet("回答").Value(2, 2))
}

func TestAnswerAPIErrors(t *testing.T) {
	a := setupTestApp(t)

	w, _ := a.postJSON(t, "/api/answers", gin.H{"questionLabel": labels[0]})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, resp := a.postJSON(t, "/api/answers", gin.H{"username": "alice", "questionLabel": "unknown"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "failed", decodeAnswer(t, resp).Outcome.Kind)

	w, resp = a.postJSON(t, "/api/answers/confirm", gin.H{"token": "forged", "confirm": true})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, util.MsgTokenInvalid, resp.Message)

	answers := a.book.Sheet("回答")
	answers.FailOn(testutil.OpFind, errors.New("permission denied"))
	w, resp = a.postJSON(t, "/api/answers", gin.H{"username": "alice", "questionLabel": labels[0], "answer": "x"})
	assert.Equal(t, http.StatusBadGateway, w.Code)
	data := decodeAnswer(t, resp)
	assert.Equal(t, "failed", data.Outcome.Kind)
	require.NotEmpty(t, data.Outcome.Notices)
	assert.Equal(t, "error", data.Outcome.Notices[len(data.Outcome.Notices)-1].Level)
}

func TestQuestionAPI(t *testing.T) {
	a := setupTestApp(t)

	w, _ := a.postJSON(t, "/api/questions", gin.H{"name": "bob", "question": "why?"})
	require.Equal(t, http.StatusCreated, w.Code)

	rows := a.book.Sheet("質問").Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, "bob", rows[0][0])
	assert.Equal(t, "why?", rows[0][1])
	assert.Regexp(t, `^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}$`, rows[0][2])

	w, _ = a.postJSON(t, "/api/questions", gin.H{"name": "bob"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLabelsAndHealth(t *testing.T) {
	a := setupTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/api/questions/labels", nil)
	w := httptest.NewRecorder()
	a.Router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data []string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, labels, resp.Data)

	req = httptest.NewRequest(http.MethodGet, "/api/health", nil)
	w = httptest.NewRecorder()
	a.Router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCatalogFollowsConfigReload(t *testing.T) {
	a := setupTestApp(t)
	reload := func(labels ...string) {
		newCfg := testConfig()
		newCfg.Form.QuestionLabels = labels
		for _, cb := range a.configCallbacks {
			cb(newCfg)
		}
	}

	reload(labels[1], labels[0])
	assert.Equal(t, labels, a.Catalog.Labels())

	reload(labels[0], labels[1], "ワーク2-2 プロンプト")
	assert.Equal(t, []string{labels[0], labels[1], "ワーク2-2 プロンプト"}, a.Catalog.Labels())
}

var tokenField = regexp.MustCompile(`name="token" value="([^"]+)"`)

func TestPageOverwriteFlow(t *testing.T) {
	a := setupTestApp(t)
	answers := a.book.Sheet("回答")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	a.Router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), labels[1])
	assert.NotContains(t, w.Body.String(), `name="token"`)

	form := url.Values{"username": {"alice"}, "questionLabel": {labels[1]}, "answer": {"hello"}}
	w = a.postForm(t, "/answers", form)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), util.MsgAnswerSent)

	form.Set("answer", "world")
	w = a.postForm(t, "/answers", form)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, util.MsgOverwriteConfirm)
	match := tokenField.FindStringSubmatch(body)
	require.Len(t, match, 2)

	w = a.postForm(t, "/answers/confirm", url.Values{"token": {match[1]}, "confirm": {"yes"}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), util.MsgAnswerOverwritten)
	assert.NotContains(t, w.Body.String(), `name="token"`)
	assert.Equal(t, "world", answers.Value(2, 3))
}

func TestPageQuestionForm(t *testing.T) {
	a := setupTestApp(t)

	w := a.postForm(t, "/questions", url.Values{"name": {"bob"}, "question": {"why?"}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), util.MsgQuestionSent)
	assert.Len(t, a.book.Sheet("質問").Rows(), 1)

	w = a.postForm(t, "/questions", url.Values{"name": {"bob"}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), util.MsgNameAndQuestion)
}

func TestPageMalformedFormRendersNotice(t *testing.T) {
	a := setupTestApp(t)

	for _, path := range []string{"/answers", "/answers/confirm", "/questions"} {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader("username=%zz"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		w := httptest.NewRecorder()
		a.Router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code, path)
		assert.Contains(t, w.Header().Get("Content-Type"), "text/html", path)
		assert.Contains(t, w.Body.String(), util.MsgInvalidForm, path)
	}
	assert.Empty(t, a.book.Sheet("回答").Rows()[1:])
}
