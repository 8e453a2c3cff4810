package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	api "github.com/mind-engage/mindengage-quiz/internal/api/http"
	authmw "github.com/mind-engage/mindengage-quiz/internal/auth/middleware"
	"github.com/mind-engage/mindengage-quiz/internal/config"
	"github.com/mind-engage/mindengage-quiz/internal/db"
	"github.com/mind-engage/mindengage-quiz/internal/events"
	"github.com/mind-engage/mindengage-quiz/internal/logger"
	"github.com/mind-engage/mindengage-quiz/internal/quiz"
	"github.com/mind-engage/mindengage-quiz/internal/report"
	"github.com/mind-engage/mindengage-quiz/internal/review"
	"github.com/mind-engage/mindengage-quiz/internal/session"
)

type harness struct {
	t       *testing.T
	h       http.Handler
	auth    *authmw.AuthService
	reports *report.SQLStore
	mgr     *session.Manager
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()
	dbh, err := db.OpenMemory(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = dbh.Close() })

	log := logger.Nop()
	reports := report.NewSQLStore(dbh)
	evlog := events.NewLog(dbh, "test")
	sched := review.NewScheduler(review.NewSQLStore(dbh, "sqlite"), log)
	mgr := session.NewManager(session.Options{
		TickInterval: time.Hour,
		Sink:         report.NewSink(reports, nil, evlog, log),
		Reviews:      sched,
		Log:          log,
	}, time.Minute)
	t.Cleanup(func() { mgr.Shutdown(ctx) })

	a := authmw.NewAuthService("test-secret")
	h := api.NewRouter(api.Deps{
		Config:   config.Config{Mode: config.ModeOffline, EnableLocalAuth: true, CORSOriginsOffline: []string{"*"}},
		DB:       dbh,
		Auth:     a,
		Users:    authmw.NewUsers(dbh),
		Quizzes:  quiz.NewSQLStore(dbh),
		Sessions: mgr,
		Reports:  reports,
		Reviews:  sched,
		Events:   evlog,
		Log:      log,
	})
	return &harness{t: t, h: h, auth: a, reports: reports, mgr: mgr}
}

func (h *harness) token(sub, role string) string {
	tok, err := h.auth.IssueJWT(sub, role)
	require.NoError(h.t, err)
	return tok
}

func (h *harness) do(tok, method, path string, body any) *httptest.ResponseRecorder {
	h.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(h.t, json.NewEncoder(&buf).Encode(body))
	}
	r := httptest.NewRequest(method, path, &buf)
	if tok != "" {
		r.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	h.h.ServeHTTP(w, r)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&v))
	return v
}

func (h *harness) uploadQuiz() quiz.Quiz {
	h.t.Helper()
	w := h.do(h.token("mrs-k", "teacher"), http.MethodPost, "/quizzes", quiz.Quiz{
		Title: "Capitals", Category: "geography", DurationMin: 5, TotalMarks: 30,
		Questions: []quiz.Question{
			{Question: "France?", Options: []string{"Paris", "Lyon", "Nice"}, CorrectAnswer: "A"},
			{Question: "Italy?", Options: []string{"Milan", "Rome", "Turin"}, CorrectAnswer: "B"},
			{Question: "Spain?", Options: []string{"Seville", "Bilbao", "Madrid"}, CorrectAnswer: "C"},
		},
	})
	require.Equal(h.t, http.StatusCreated, w.Code, w.Body.String())
	return decodeBody[quiz.Quiz](h.t, w)
}

type startResp struct {
	Session session.View `json:"session"`
	Quiz    quiz.Quiz    `json:"quiz"`
}

func (h *harness) start(tok, quizID string) startResp {
	h.t.Helper()
	w := h.do(tok, http.MethodPost, "/sessions", map[string]string{"quiz_id": quizID})
	require.Equal(h.t, http.StatusCreated, w.Code, w.Body.String())
	return decodeBody[startResp](h.t, w)
}

func TestQuizFlowSubmitAndReport(t *testing.T) {
	h := newHarness(t)
	q := h.uploadQuiz()
	ada := h.token("ada", "student")

	w := h.do(ada, http.MethodGet, "/quizzes/"+q.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Empty(t, decodeBody[quiz.Quiz](t, w).Questions[0].CorrectAnswer)

	st := h.start(ada, q.ID)
	require.Empty(t, st.Quiz.Questions[0].CorrectAnswer)
	base := "/sessions/" + st.Session.ID

	require.Equal(t, http.StatusNoContent, h.do(ada, http.MethodPut, base+"/answers/0", map[string]int{"option": 0}).Code)
	require.Equal(t, http.StatusNoContent, h.do(ada, http.MethodPut, base+"/answers/1", map[string]int{"option": 1}).Code)
	require.Equal(t, http.StatusBadRequest, h.do(ada, http.MethodPut, base+"/answers/9", map[string]int{"option": 1}).Code)
	require.Equal(t, http.StatusOK, h.do(ada, http.MethodPost, base+"/next", nil).Code)

	// someone else's session does not exist for bob
	require.Equal(t, http.StatusNotFound, h.do(h.token("bob", "student"), http.MethodPost, base+"/submit", nil).Code)

	w = h.do(ada, http.MethodPost, base+"/submit", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decodeBody[session.Result](t, w)
	require.Equal(t, 20.0, res.ScoreAchieved)
	require.Equal(t, session.PerformanceMedium, res.Performance)

	require.Equal(t, http.StatusConflict, h.do(ada, http.MethodPost, base+"/submit", nil).Code)
	require.Equal(t, http.StatusConflict, h.do(ada, http.MethodPut, base+"/answers/2", map[string]int{"option": 2}).Code)

	w = h.do(ada, http.MethodGet, "/reports", nil)
	require.Equal(t, http.StatusOK, w.Code)
	reps := decodeBody[[]report.Report](t, w)
	require.Len(t, reps, 1)
	require.Equal(t, 20.0, reps[0].Score)
	require.False(t, reps[0].AutoSubmitted)
	require.Equal(t, "Not Answered", reps[0].Questions[2].UserAnswerText)

	require.Equal(t, http.StatusForbidden, h.do(ada, http.MethodGet, "/reports?username=bob", nil).Code)
	require.Equal(t, http.StatusOK, h.do(h.token("mrs-k", "teacher"), http.MethodGet, "/reports?username=ada", nil).Code)

	w = h.do(ada, http.MethodGet, "/stats/"+q.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 1, decodeBody[report.QuizStats](t, w).Attempts)

	w = h.do(ada, http.MethodGet, "/me", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"geography"`)
}

func TestRouteChangeEventOnUntouchedSession(t *testing.T) {
	h := newHarness(t)
	q := h.uploadQuiz()
	ada := h.token("ada", "student")
	base := "/sessions/" + h.start(ada, q.ID).Session.ID

	w := h.do(ada, http.MethodPost, base+"/events", map[string]string{"type": "route_change"})
	require.Equal(t, http.StatusOK, w.Code)
	require.False(t, decodeBody[map[string]any](t, w)["submitted"].(bool))

	h.do(ada, http.MethodPost, base+"/events", map[string]string{"type": "fullscreen_enter"})
	w = h.do(ada, http.MethodPost, base+"/events", map[string]string{"type": "fullscreen_exit"})
	require.Equal(t, http.StatusOK, w.Code)
	out := decodeBody[map[string]any](t, w)
	require.True(t, out["submitted"].(bool))

	reps, err := h.reports.ListReports(context.Background(), "ada", 10, 0)
	require.NoError(t, err)
	require.Len(t, reps, 1)
	require.Equal(t, "fullscreen_escape", reps[0].Reason)
}

func TestBeaconAccepted(t *testing.T) {
	h := newHarness(t)
	q := h.uploadQuiz()
	ada := h.token("ada", "student")
	st := h.start(ada, q.ID)
	base := "/sessions/" + st.Session.ID
	h.do(ada, http.MethodPut, base+"/answers/0", map[string]int{"option": 0})

	w := h.do(ada, http.MethodPost, base+"/beacon", nil)
	require.Equal(t, http.StatusAccepted, w.Code)
	require.True(t, decodeBody[map[string]bool](t, w)["accepted"])

	require.Eventually(t, func() bool {
		reps, err := h.reports.ListReports(context.Background(), "ada", 10, 0)
		return err == nil && len(reps) == 1 && reps[0].Reason == "page_unload"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestTimerPauseEndpoint(t *testing.T) {
	h := newHarness(t)
	q := h.uploadQuiz()
	ada := h.token("ada", "student")
	base := "/sessions/" + h.start(ada, q.ID).Session.ID

	w := h.do(ada, http.MethodPost, base+"/timer/pause", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, decodeBody[session.View](t, w).TimerPaused)
	w = h.do(ada, http.MethodPost, base+"/timer/toggle", nil)
	require.False(t, decodeBody[session.View](t, w).TimerPaused)
	require.Equal(t, http.StatusNotFound, h.do(ada, http.MethodPost, base+"/timer/rewind", nil).Code)
}

func TestUnauthenticatedAndForbidden(t *testing.T) {
	h := newHarness(t)
	require.Equal(t, http.StatusUnauthorized, h.do("", http.MethodGet, "/quizzes", nil).Code)
	require.Equal(t, http.StatusForbidden, h.do(h.token("ada", "student"), http.MethodPost, "/quizzes", quiz.Quiz{}).Code)
	require.Equal(t, http.StatusOK, h.do("", http.MethodGet, "/healthz", nil).Code)
}

func dialSession(t *testing.T, srv *httptest.Server, tok, id string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/sessions/" + id + "/ws?access_token=" + tok
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	require.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
	return conn
}

func TestSocketAnswerAndSubmit(t *testing.T) {
	h := newHarness(t)
	srv := httptest.NewServer(h.h)
	defer srv.Close()
	q := h.uploadQuiz()
	ada := h.token("ada", "student")
	st := h.start(ada, q.ID)

	conn := dialSession(t, srv, ada, st.Session.ID)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(api.ClientMessage{Type: "answer", Question: 0, Option: 0}))
	var msg api.ServerMessage
	require.NoError(t, conn.ReadJSON(&msg))
	require.Equal(t, "state", msg.Type)
	require.Equal(t, map[int]int{0: 0}, msg.Session.Answers)

	require.NoError(t, conn.WriteJSON(api.ClientMessage{Type: "submit"}))
	for msg.Type != "result" {
		msg = api.ServerMessage{}
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		require.NoError(t, conn.ReadJSON(&msg))
	}
	require.Equal(t, 10.0, msg.Result.ScoreAchieved)
	require.Equal(t, session.TriggerUserAction, msg.Result.Trigger)

	require.NoError(t, conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
}

func TestSocketDropSubmitsAsPageUnload(t *testing.T) {
	h := newHarness(t)
	srv := httptest.NewServer(h.h)
	defer srv.Close()
	q := h.uploadQuiz()
	ada := h.token("ada", "student")
	st := h.start(ada, q.ID)

	conn := dialSession(t, srv, ada, st.Session.ID)
	require.NoError(t, conn.WriteJSON(api.ClientMessage{Type: "answer", Question: 1, Option: 1}))
	var msg api.ServerMessage
	require.NoError(t, conn.ReadJSON(&msg))
	require.NoError(t, conn.Close()) // no close frame

	require.Eventually(t, func() bool {
		reps, err := h.reports.ListReports(context.Background(), "ada", 10, 0)
		return err == nil && len(reps) == 1 && reps[0].Reason == "page_unload"
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSocketNormalCloseDoesNotSubmit(t *testing.T) {
	h := newHarness(t)
	srv := httptest.NewServer(h.h)
	defer srv.Close()
	q := h.uploadQuiz()
	ada := h.token("ada", "student")
	st := h.start(ada, q.ID)

	conn := dialSession(t, srv, ada, st.Session.ID)
	require.NoError(t, conn.WriteJSON(api.ClientMessage{Type: "answer", Question: 1, Option: 1}))
	var msg api.ServerMessage
	require.NoError(t, conn.ReadJSON(&msg))
	require.NoError(t, conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")))
	_ = conn.Close()

	s, err := h.mgr.Get(st.Session.ID)
	require.NoError(t, err)
	require.Never(t, func() bool { return s.State() != session.StateArming }, 200*time.Millisecond, 20*time.Millisecond)
}
