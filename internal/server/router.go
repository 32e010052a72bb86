package server

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/goevery/canvas-gateway/internal/gateway"
	"github.com/goevery/canvas-gateway/internal/handler"
	"github.com/goevery/canvas-gateway/internal/ierr"
	"go.uber.org/zap"
)

type Router struct {
	logger *zap.Logger

	joinHandler    *handler.JoinHandler
	leaveHandler   *handler.LeaveHandler
	pingHandler    *handler.PingHandler
	publishHandler *handler.PublishHandler
}

func NewRouter(
	logger *zap.Logger,
	joinHandler *handler.JoinHandler,
	leaveHandler *handler.LeaveHandler,
	pingHandler *handler.PingHandler,
	publishHandler *handler.PublishHandler,
) *Router {
	return &Router{
		logger,
		joinHandler,
		leaveHandler,
		pingHandler,
		publishHandler,
	}
}

// Route dispatches a normalized envelope and returns the reply to send
// to the caller, if any. Handler failures become error envelopes for
// the sender only; the connection stays open.
func (r *Router) Route(conn *gateway.Connection, envelope gateway.Envelope) *gateway.Envelope {
	reply, err := r.handle(conn, envelope)
	if err != nil {
		errorReply := r.errorEnvelope(err)

		return &errorReply
	}

	return reply
}

func (r *Router) handle(conn *gateway.Connection, envelope gateway.Envelope) (*gateway.Envelope, error) {
	if !envelope.Topic.IsSystem() {
		return r.publishHandler.Handle(conn, envelope)
	}

	switch envelope.Action {
	case gateway.ActionJoin:
		return r.joinHandler.Handle(conn, envelope, false)
	case gateway.ActionResume:
		return r.joinHandler.Handle(conn, envelope, true)
	case gateway.ActionLeave:
		return r.leaveHandler.Handle(conn, envelope)
	case gateway.ActionPing:
		return r.pingHandler.Handle(conn, envelope)
	default:
		return nil, ierr.New(ierr.ErrorCodeInvalidArgument,
			errors.New("unknown system action: "+envelope.Action))
	}
}

type errorPayload struct {
	Code    ierr.ErrorCode  `json:"code"`
	Message string          `json:"message"`
	Details json.RawMessage `json:"details,omitempty"`
}

// errorEnvelope maps any handler error to a system error envelope. It
// is sent to the offending connection only, never broadcast.
func (r *Router) errorEnvelope(err error) gateway.Envelope {
	var coded ierr.Error
	if !errors.As(err, &coded) {
		r.logger.Error("error in envelope handler", zap.Error(err))

		coded = ierr.New(ierr.ErrorCodeInternal, errors.New("internal error"))
	}

	return gateway.NewSystemEnvelope(gateway.ActionError, "", errorPayload{
		Code:    coded.Code,
		Message: coded.Message,
		Details: coded.Data,
	}, time.Now())
}
