package controller

import (
	"github.com/roomcast/server/pkg/wsrouter"
)

func (c controller) getWSRouter() *wsrouter.WSRouter {
	mux := wsrouter.New()

	mux.Use(c.wsRequestIdWSMw())
	mux.Use(c.loggerWSMw())
	mux.OnError(c.writeWSError)

	wsrouter.Handle(mux, "ALIVE", c.handleAlive)

	// member
	wsrouter.Handle(mux, "AUTHENTICATE", c.handleAuthenticate)
	wsrouter.Handle(mux, "GRANT_PERMISSION", c.handleGrantPermission)
	wsrouter.Handle(mux, "REVOKE_PERMISSION", c.handleRevokePermission)
	wsrouter.Handle(mux, "KICK_PARTICIPANT", c.handleKickParticipant)

	// queue
	wsrouter.Handle(mux, "ENQUEUE_ITEM", c.handleEnqueueItem)
	wsrouter.Handle(mux, "DEQUEUE_ITEM", c.handleDequeueItem)
	wsrouter.Handle(mux, "REORDER_QUEUE", c.handleReorderQueue)

	// player
	wsrouter.Handle(mux, "PLAY", c.handlePlay)
	wsrouter.Handle(mux, "PAUSE", c.handlePause)
	wsrouter.Handle(mux, "SEEK", c.handleSeek)
	wsrouter.Handle(mux, "SKIP", c.handleSkip)
	wsrouter.Handle(mux, "ITEM_ENDED", c.handleItemEnded)
	wsrouter.Handle(mux, "REPORT_TIME", c.handleReportTime)

	return mux
}
