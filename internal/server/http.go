package server

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/darasa-labs/darasa/internal/config"
	ws "github.com/darasa-labs/darasa/pkg/http/ws"
)

// WSUpgrader handles WebSocket upgrades for the editor event stream.
var WSUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// single-admin tool behind the console's own origin; tighten if the
		// console is ever served from a different host
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// NewHTTPServer wires the authoring API routes.
func NewHTTPServer(cfg *config.App, logger zerolog.Logger, h *Handlers, hub *ws.Hub) *http.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /v1/curriculum", h.GetCurriculum)
	mux.HandleFunc("POST /v1/curriculum/refresh/{level}", h.RefreshLevel)

	mux.HandleFunc("POST /v1/grades", h.CreateGrade)
	mux.HandleFunc("PUT /v1/grades/{gradeID}", h.UpdateGrade)
	mux.HandleFunc("DELETE /v1/grades/{gradeID}", h.DeleteGrade)

	mux.HandleFunc("POST /v1/grades/{gradeID}/units", h.CreateUnit)
	mux.HandleFunc("DELETE /v1/grades/{gradeID}/units/{unitID}", h.DeleteUnit)

	mux.HandleFunc("POST /v1/grades/{gradeID}/units/{unitID}/lessons", h.CreateLesson)
	mux.HandleFunc("DELETE /v1/grades/{gradeID}/units/{unitID}/lessons/{lessonID}", h.DeleteLesson)

	mux.HandleFunc("POST /v1/grades/{gradeID}/units/{unitID}/lessons/{lessonID}/sections", h.CreateSection)
	mux.HandleFunc("DELETE /v1/grades/{gradeID}/units/{unitID}/lessons/{lessonID}/sections/{sectionID}", h.DeleteSection)

	mux.HandleFunc("PUT /v1/quizzes", h.SaveQuiz)
	mux.HandleFunc("GET /v1/grades/{gradeID}/units/{unitID}/lessons/{lessonID}/sections/{sectionID}/quizzes/{quizID}", h.OpenQuiz)
	mux.HandleFunc("DELETE /v1/grades/{gradeID}/units/{unitID}/lessons/{lessonID}/sections/{sectionID}/quizzes/{quizID}", h.DeleteQuiz)

	mux.HandleFunc("GET /ws/editor", editorSocketHandler(hub, logger))

	return &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: mux,
	}
}

// editorSocketHandler upgrades the connection and parks it in the hub until
// the client goes away. Clients only listen; inbound traffic beyond pings is
// discarded.
func editorSocketHandler(hub *ws.Hub, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := WSUpgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn().Err(err).Msg("websocket upgrade failed")
			return
		}
		client := ws.NewClient(conn)
		id := hub.Register(client)
		defer hub.Unregister(id)
		client.ReadLoop()
	}
}
