package api

import (
	"net/http"
	"strconv"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"casilleros-backend/internal/mw"
	"casilleros-backend/internal/service"
	"casilleros-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	svc     *service.Service
	store   store.Store
	webpush *webpush.Options
	log     *zap.Logger
}

// NewHandler creates a new API handler.
func NewHandler(svc *service.Service, s store.Store, webpushOptions *webpush.Options, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		svc:     svc,
		store:   s,
		webpush: webpushOptions,
		log:     log.Named("api"),
	}
}

// respond writes the envelope. Operation failures are reported in the body,
// never through the HTTP status.
func respond(c *gin.Context, resp service.Response) {
	if resp.Success {
		mw.SetOutcome(c, mw.OutcomeOK)
	} else if resp.Err != nil {
		mw.SetOutcome(c, resp.Err.Kind.String())
		_ = c.Error(resp.Err)
	}
	c.JSON(http.StatusOK, resp)
}

func failure(kind service.Kind, msg string, err error) service.Response {
	return service.Response{Error: msg, Err: &service.Error{Kind: kind, Message: msg, Err: err}}
}

// pathID reads a numeric path parameter. Anything that is not an integer
// yields 0, which the service rejects as an invalid id.
func pathID(c *gin.Context, name string) int64 {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
