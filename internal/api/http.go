// Package api exposes the target-pose input surface over HTTP.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"offboardctl/internal/commander"
	"offboardctl/internal/px4"
)

type Server struct {
	cmd *commander.Commander
	mux *http.ServeMux
	log zerolog.Logger
}

func NewServer(cmd *commander.Commander, log zerolog.Logger) *Server {
	s := &Server{cmd: cmd, mux: http.NewServeMux(), log: log}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler { return s.mux }

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.health)
	s.mux.HandleFunc("/state", s.state)
	s.mux.HandleFunc("/target", s.target)
	s.mux.HandleFunc("/disarm", s.disarm)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Server) state(w http.ResponseWriter, r *http.Request) {
	snap := s.cmd.Snapshot()
	writeJSON(w, map[string]any{
		"phase":     snap.Phase.String(),
		"ticks":     snap.Ticks,
		"timestamp": snap.Timestamp,
		"target": map[string]any{
			"x":   snap.Target.X,
			"y":   snap.Target.Y,
			"z":   snap.Target.Z,
			"yaw": snap.Target.Yaw,
		},
	})
}

// target accepts the next trajectory setpoint as an ENU pose. The orientation
// is optional and does not drive the commanded yaw.
func (s *Server) target(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST only", http.StatusMethodNotAllowed)
		return
	}

	var body struct {
		Position struct {
			X float64 `json:"x"`
			Y float64 `json:"y"`
			Z float64 `json:"z"`
		} `json:"position"`
		Orientation *struct {
			W float64 `json:"w"`
			X float64 `json:"x"`
			Y float64 `json:"y"`
			Z float64 `json:"z"`
		} `json:"orientation,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	pose := px4.Pose{
		Position:    px4.Point{X: body.Position.X, Y: body.Position.Y, Z: body.Position.Z},
		Orientation: px4.Quaternion{W: 1},
	}
	if body.Orientation != nil {
		pose.Orientation = px4.Quaternion{
			W: body.Orientation.W,
			X: body.Orientation.X,
			Y: body.Orientation.Y,
			Z: body.Orientation.Z,
		}
	}

	s.cmd.UpdateTargetPose(pose)
	writeJSON(w, map[string]any{"status": "accepted", "type": "target"})
}

func (s *Server) disarm(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST only", http.StatusMethodNotAllowed)
		return
	}
	s.cmd.Disarm()
	writeJSON(w, map[string]any{"status": "accepted", "type": "disarm"})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "encode error", http.StatusInternalServerError)
	}
}
