package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"lingua_exam_backend/internal/config"
	"lingua_exam_backend/internal/model"
	"lingua_exam_backend/internal/util"
	"lingua_exam_backend/pkg/database"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const jwtSecret = "app-test-secret-app-test-secret-xyz"

type envelope struct {
	Code      int             `json:"code"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data"`
	Retryable bool            `json:"retryable"`
}

type client struct {
	t      *testing.T
	router http.Handler
}

func newTestApp(t *testing.T) *client {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{
		Server:   config.ServerConfig{Port: "0", Mode: gin.TestMode},
		Database: config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"},
		JWT:      config.JWTConfig{Secret: jwtSecret},
		Exam:     config.ExamConfig{LockWaitMillis: 2000},
	}
	db, err := database.InitDB(&cfg.Database)
	require.NoError(t, err)
	a := New(cfg, db, nil)
	return &client{t: t, router: a.Router}
}

func token(t *testing.T, userID uint, role model.UserRole) string {
	t.Helper()
	tok, err := util.GenerateJWT(userID, role, jwtSecret, time.Hour)
	require.NoError(t, err)
	return tok
}

func (c *client) do(method, path, tok string, body interface{}) (int, envelope) {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	c.router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(c.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w.Code, env
}

func listeningExam(code string, n int) map[string]interface{} {
	qs := make([]map[string]interface{}, 0, n)
	for i := 1; i <= n; i++ {
		qs = append(qs, map[string]interface{}{
			"questionType":  "TEXT",
			"prompt":        fmt.Sprintf("gap %d", i),
			"correctAnswer": fmt.Sprintf("a%d", i),
		})
	}
	return map[string]interface{}{
		"code":        code,
		"title":       "Listening " + code,
		"isPublished": true,
		"sections": []map[string]interface{}{
			{"title": "Listening", "sectionType": "LISTENING", "durationSeconds": 1800, "questions": qs},
		},
	}
}

func TestHealthAndMetrics(t *testing.T) {
	c := newTestApp(t)
	code, env := c.do(http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"database":"up"`)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	c.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAttemptFlowOverHTTP(t *testing.T) {
	c := newTestApp(t)
	admin := token(t, 1, model.Admin)
	alice := token(t, 10, model.Student)
	bob := token(t, 11, model.Student)

	code, _ := c.do(http.MethodPost, "/api/admin/exams/import", alice, listeningExam("HTTP1", 40))
	assert.Equal(t, http.StatusForbidden, code)

	code, env := c.do(http.MethodPost, "/api/admin/exams/import", admin, listeningExam("HTTP1", 40))
	require.Equal(t, http.StatusCreated, code, env.Message)
	var exam model.Exam
	require.NoError(t, json.Unmarshal(env.Data, &exam))
	section := exam.Sections[0]

	code, _ = c.do(http.MethodPost, "/api/admin/exams/import", admin, listeningExam("HTTP1", 1))
	assert.Equal(t, http.StatusBadRequest, code, "duplicate code")

	code, env = c.do(http.MethodGet, "/api/exams", "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"total":1`)

	code, env = c.do(http.MethodGet, fmt.Sprintf("/api/exams/%d/sections/%d", exam.ID, section.ID), "", nil)
	require.Equal(t, http.StatusOK, code)
	assert.NotContains(t, string(env.Data), `"correctAnswer"`)

	code, _ = c.do(http.MethodPost, fmt.Sprintf("/api/exams/%d/start", exam.ID), "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, env = c.do(http.MethodPost, fmt.Sprintf("/api/exams/%d/start", exam.ID), alice, map[string]interface{}{"mode": "SECTION"})
	assert.Equal(t, http.StatusBadRequest, code, "section mode needs a section id")

	code, env = c.do(http.MethodPost, fmt.Sprintf("/api/exams/%d/start", exam.ID), alice, nil)
	require.Equal(t, http.StatusCreated, code, env.Message)
	var started struct {
		Attempt model.ExamAttempt `json:"attempt"`
		Resumed bool              `json:"resumed"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &started))
	attemptPath := fmt.Sprintf("/api/exam-attempts/%d", started.Attempt.ID)
	sectionPath := fmt.Sprintf("%s/sections/%d", attemptPath, section.ID)

	code, _ = c.do(http.MethodPost, sectionPath+"/submit", alice, nil)
	assert.Equal(t, http.StatusConflict, code, "section not started")

	code, _ = c.do(http.MethodPost, sectionPath+"/start", bob, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = c.do(http.MethodPost, sectionPath+"/start", alice, nil)
	require.Equal(t, http.StatusOK, code)

	code, env = c.do(http.MethodGet, sectionPath+"/next", alice, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), fmt.Sprintf(`"id":%d`, section.Questions[0].ID))

	var answers []map[string]interface{}
	for i, q := range section.Questions {
		ans := "wrong"
		if i < 30 {
			ans = fmt.Sprintf("a%d", i+1)
		}
		answers = append(answers, map[string]interface{}{"questionId": q.ID, "answer": ans})
	}
	code, env = c.do(http.MethodPut, sectionPath+"/answers", alice, map[string]interface{}{"answers": answers[:10]})
	require.Equal(t, http.StatusOK, code, env.Message)
	assert.Contains(t, string(env.Data), `"answered":10`)

	code, env = c.do(http.MethodGet, attemptPath+"/progress", alice, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"total":40`)

	code, env = c.do(http.MethodPost, sectionPath+"/submit", alice, map[string]interface{}{"answers": answers})
	require.Equal(t, http.StatusOK, code, env.Message)
	var sa model.SectionAttempt
	require.NoError(t, json.Unmarshal(env.Data, &sa))
	assert.Equal(t, 30, sa.RawScore)
	require.NotNil(t, sa.BandScore)
	assert.Equal(t, 7.0, *sa.BandScore)

	code, _ = c.do(http.MethodPost, sectionPath+"/submit", alice, nil)
	assert.Equal(t, http.StatusConflict, code)

	code, env = c.do(http.MethodPost, attemptPath+"/submit", alice, nil)
	require.Equal(t, http.StatusOK, code, env.Message)
	assert.Contains(t, string(env.Data), `"overallBand":7`)

	code, env = c.do(http.MethodGet, attemptPath, alice, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"isCorrect":true`)

	code, _ = c.do(http.MethodGet, attemptPath, bob, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, env = c.do(http.MethodGet, "/api/exam-attempts?status=SUBMITTED", alice, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"total":1`)

	code, env = c.do(http.MethodGet, "/api/admin/exam-attempts?userId=10", admin, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"total":1`)

	code, _ = c.do(http.MethodGet, "/api/exam-attempts/999999", alice, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestAdminExpireAndGrade(t *testing.T) {
	c := newTestApp(t)
	admin := token(t, 1, model.Admin)
	teacher := token(t, 2, model.Teacher)
	alice := token(t, 10, model.Student)

	req := listeningExam("HTTP2", 40)
	req["sections"] = append(req["sections"].([]map[string]interface{}), map[string]interface{}{
		"title": "Writing", "sectionType": "WRITING", "scoringMode": "RUBRIC",
		"questions": []map[string]interface{}{{"questionType": "TEXT", "prompt": "Essay"}},
	})
	code, env := c.do(http.MethodPost, "/api/admin/exams/import", admin, req)
	require.Equal(t, http.StatusCreated, code, env.Message)
	var exam model.Exam
	require.NoError(t, json.Unmarshal(env.Data, &exam))
	writing := exam.Sections[1]

	code, env = c.do(http.MethodPost, fmt.Sprintf("/api/exams/%d/start", exam.ID), alice, nil)
	require.Equal(t, http.StatusCreated, code)
	var started struct {
		Attempt model.ExamAttempt `json:"attempt"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &started))
	attemptPath := fmt.Sprintf("/api/exam-attempts/%d", started.Attempt.ID)
	writingPath := fmt.Sprintf("%s/sections/%d", attemptPath, writing.ID)

	code, _ = c.do(http.MethodPost, writingPath+"/start", alice, nil)
	require.Equal(t, http.StatusOK, code)
	code, _ = c.do(http.MethodPost, writingPath+"/submit", alice, map[string]interface{}{
		"answers": []map[string]interface{}{{"questionId": writing.Questions[0].ID, "answer": "My essay"}},
	})
	require.Equal(t, http.StatusOK, code)

	gradePath := fmt.Sprintf("/api/admin/exam-attempts/%d/sections/%d/grade", started.Attempt.ID, writing.ID)
	code, _ = c.do(http.MethodPost, gradePath, alice, map[string]interface{}{"band": 6.5})
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = c.do(http.MethodPost, gradePath, teacher, map[string]interface{}{"band": 6.25})
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = c.do(http.MethodPost, gradePath, teacher, map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, code)
	code, env = c.do(http.MethodPost, gradePath, teacher, map[string]interface{}{"band": 6.5})
	require.Equal(t, http.StatusOK, code, env.Message)

	code, env = c.do(http.MethodPost, fmt.Sprintf("/api/admin/exam-attempts/%d/expire", started.Attempt.ID), admin, nil)
	require.Equal(t, http.StatusOK, code, env.Message)
	var expired model.ExamAttempt
	require.NoError(t, json.Unmarshal(env.Data, &expired))
	assert.Equal(t, model.StatusExpired, expired.Status)
	// listening 0 + writing 6.5 => 3.25 rounds to 3.5
	require.NotNil(t, expired.OverallBand)
	assert.Equal(t, 3.5, *expired.OverallBand)

	code, _ = c.do(http.MethodPost, writingPath+"/start", alice, nil)
	assert.Equal(t, http.StatusConflict, code)
}
