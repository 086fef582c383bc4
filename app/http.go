package app

import (
	"github.com/skyhookml/netviz/netviz"

	"net/http"

	"github.com/googollee/go-socket.io"
	"github.com/gorilla/mux"
	"k8s.io/klog/v2"
)

var SetupFuncs []func(*socketio.Server)
var Router = mux.NewRouter()

// Set once the socket.io server is running; events are dropped before that.
var eventServer *socketio.Server

const eventRoom = "netviz"

func broadcast(event string, x interface{}) {
	if eventServer == nil {
		return
	}
	eventServer.BroadcastToRoom("/", eventRoom, event, x)
}

type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func errorResponse(w http.ResponseWriter, status int, err error) {
	netviz.JsonResponseStatus(w, status, ErrorResponse{
		Error: err.Error(),
		Kind:  netviz.ErrorKind(err),
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		for _, allowed := range Config.AllowedOrigins {
			if origin == allowed || allowed == "*" {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
				w.Header().Add("Vary", "Origin")
				break
			}
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Handler is the Router behind CORS handling. Preflight requests are
// answered before routing, since routes only list their real methods.
func Handler() http.Handler {
	return corsMiddleware(Router)
}

func init() {
	Router.HandleFunc("/test", func(w http.ResponseWriter, r *http.Request) {
		netviz.JsonResponse(w, map[string]string{"Test": "message"})
	}).Methods("GET")

	SetupFuncs = append(SetupFuncs, func(server *socketio.Server) {
		server.OnConnect("/", func(s socketio.Conn) error {
			s.Join(eventRoom)
			klog.V(1).Infof("[events] client %s connected", s.ID())
			return nil
		})
		eventServer = server
	})
}
