package ws

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/jsgate/internal/api/middleware"
	"github.com/GriffinCanCode/jsgate/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/jsgate/internal/service"
)

// Message types exchanged on the stream.
const (
	TypeEval   = "eval"
	TypeCall   = "call"
	TypePing   = "ping"
	TypeResult = "result"
	TypeError  = "error"
	TypePong   = "pong"
)

const maxMessageSize = 1 << 20

// Request is a client message.
type Request struct {
	Type      string `json:"type"`
	ID        string `json:"id,omitempty"`
	Code      string `json:"code,omitempty"`
	Function  string `json:"function,omitempty"`
	Args      []any  `json:"args,omitempty"`
	TimeoutMS *int64 `json:"timeout_ms,omitempty"`
}

// Response is a server message. Result is always present, null for
// pong and error messages.
type Response struct {
	Type      string `json:"type"`
	ID        string `json:"id,omitempty"`
	Result    any    `json:"result"`
	Error     string `json:"error,omitempty"`
	Kind      string `json:"kind,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // origin policy is enforced by the CORS middleware
	},
}

// Handler manages WebSocket connections
type Handler struct {
	svc     *service.Service
	metrics *monitoring.Metrics
	logger  *zap.Logger
}

// NewHandler creates a new WebSocket handler. metrics may be nil.
func NewHandler(svc *service.Service, metrics *monitoring.Metrics, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		svc:     svc,
		metrics: metrics,
		logger:  logger,
	}
}

// HandleConnection handles WebSocket upgrade and messages
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed",
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.Error(err))
		return
	}
	defer conn.Close()

	if h.metrics != nil {
		h.metrics.IncWSConnections()
		defer h.metrics.DecWSConnections()
	}

	conn.SetReadLimit(maxMessageSize)
	ctx := c.Request.Context()

	for {
		var req Request
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Debug("websocket read failed", zap.Error(err))
			}
			return
		}
		h.record("in", req.Type)

		var resp Response
		switch req.Type {
		case TypeEval:
			result, err := h.svc.Eval(ctx, req.Code, req.TimeoutMS)
			resp = reply(req.ID, result, err)
		case TypeCall:
			if req.Function == "" {
				resp = Response{Type: TypeError, ID: req.ID, Error: "function is required", Kind: service.KindInvalid}
				break
			}
			result, err := h.svc.Call(ctx, req.Function, req.Args, req.TimeoutMS)
			resp = reply(req.ID, result, err)
		case TypePing:
			resp = Response{Type: TypePong, ID: req.ID}
		default:
			resp = Response{Type: TypeError, ID: req.ID, Error: "unknown message type: " + req.Type, Kind: service.KindInvalid}
		}

		if err := h.send(conn, resp); err != nil {
			h.logger.Debug("websocket write failed", zap.Error(err))
			return
		}
	}
}

func reply(id string, result any, err error) Response {
	if err != nil {
		_, kind := service.Classify(err)
		return Response{Type: TypeError, ID: id, Error: err.Error(), Kind: kind}
	}
	return Response{Type: TypeResult, ID: id, Result: result}
}

func (h *Handler) send(conn *websocket.Conn, resp Response) error {
	resp.Timestamp = time.Now().Unix()
	h.record("out", resp.Type)
	return conn.WriteJSON(resp)
}

func (h *Handler) record(direction, msgType string) {
	if h.metrics == nil {
		return
	}
	switch msgType {
	case TypeEval, TypeCall, TypePing, TypeResult, TypeError, TypePong:
	default:
		msgType = "unknown"
	}
	h.metrics.RecordWSMessage(direction, msgType)
}
