package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	models "OptionLab/internal/domain/models"
	svcmetrics "OptionLab/internal/service/metrics"
	xhttp "OptionLab/pkg/http"
	xlogger "OptionLab/pkg/logger"
)

var upgrader = websocket.Upgrader{
	CheckOrigin:     func(r *http.Request) bool { return true },
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

// PathFrame is one simulated path.
type PathFrame struct {
	Type  string    `json:"type"`
	Index int       `json:"index"`
	Path  []float64 `json:"path"`
}

// SummaryFrame closes a stream with the statistic of the whole ensemble.
type SummaryFrame struct {
	Type          string  `json:"type"`
	Query         string  `json:"query"`
	Price         float64 `json:"price"`
	PriceDisplay  string  `json:"price_display"`
	StandardError float64 `json:"standard_error"`
	Paths         int     `json:"paths"`
	Streamed      int     `json:"streamed"`
}

type ErrorFrame struct {
	Type   string      `json:"type"`
	Errors interface{} `json:"errors"`
}

// PathsStreamHandler streams a simulated ensemble path by path. The client
// sends one SimulatePriceRequest frame after the upgrade.
type PathsStreamHandler struct {
	logger       *xlogger.Logger
	api          *PricingEchoHandler
	maxStream    int
	writeTimeout time.Duration
}

func NewPathsStreamHandler(logger *xlogger.Logger, api *PricingEchoHandler, maxStream int, writeTimeout time.Duration) *PathsStreamHandler {
	if writeTimeout <= 0 {
		writeTimeout = 5 * time.Second
	}
	return &PathsStreamHandler{
		logger:       logger.With("paths_ws"),
		api:          api,
		maxStream:    maxStream,
		writeTimeout: writeTimeout,
	}
}

func (h *PathsStreamHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/v1/ws/paths", h.Stream)
}

func (h *PathsStreamHandler) Stream(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", xlogger.Error(err))
		return nil
	}
	defer conn.Close()

	req := &models.SimulatePriceRequest{}
	if err := conn.ReadJSON(req); err != nil {
		h.writeError(conn, []xhttp.ValidationError{{Code: "ERR_MALFORMED", Message: err.Error()}})
		return nil
	}
	if verr := xhttp.PrepareRequest(c, req); verr != nil {
		h.writeError(conn, verr)
		return nil
	}
	cfg, aerr := h.api.simulationConfig(req.Simulation)
	if aerr != nil {
		h.writeError(conn, []*xhttp.AppError{aerr})
		return nil
	}
	q := req.ToQuery()

	res, ens, err := h.api.pricing.SimulateWithPaths(c.Request().Context(), req.ToDomain(), cfg, q)
	if err != nil {
		if ipe, ok := models.AsInvalidParameter(err); ok {
			h.writeError(conn, []*xhttp.AppError{xhttp.FieldError("ERR_INVALID_PARAMETER", ipe.Field, ipe.Reason)})
			return nil
		}
		h.logger.Error("path stream usecase error", xlogger.Error(err))
		h.writeError(conn, []*xhttp.AppError{xhttp.InternalError("simulation failed")})
		return nil
	}

	streamed := ens.NumPaths()
	if h.maxStream > 0 && streamed > h.maxStream {
		streamed = h.maxStream
	}
	for i := 0; i < streamed; i++ {
		if err := h.write(conn, PathFrame{Type: "path", Index: i, Path: ens.Paths[i]}); err != nil {
			h.logger.Debug("path stream closed by peer", xlogger.Int("sent", i), xlogger.Error(err))
			return nil
		}
	}
	svcmetrics.StreamedPaths.Add(float64(streamed))

	_ = h.write(conn, SummaryFrame{
		Type:          "summary",
		Query:         string(q.Kind),
		Price:         res.Price,
		PriceDisplay:  h.api.display(res.Price),
		StandardError: res.StandardError,
		Paths:         ens.NumPaths(),
		Streamed:      streamed,
	})
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done"),
		time.Now().Add(h.writeTimeout))
	return nil
}

func (h *PathsStreamHandler) write(conn *websocket.Conn, v interface{}) error {
	if err := conn.SetWriteDeadline(time.Now().Add(h.writeTimeout)); err != nil {
		return err
	}
	return conn.WriteJSON(v)
}

func (h *PathsStreamHandler) writeError(conn *websocket.Conn, errs interface{}) {
	svcmetrics.EndpointErrors.WithLabelValues("ws_paths", "rejected").Inc()
	_ = h.write(conn, ErrorFrame{Type: "error", Errors: errs})
}
