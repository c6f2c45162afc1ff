package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"voicescribe/internal/api/errors"
	"voicescribe/internal/api/middleware"
	"voicescribe/internal/app/lifecycle"
)

func parseID(c *gin.Context, param string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(param), 10, 64)
	if err != nil || id <= 0 {
		middleware.HandleError(c, errors.NewBadRequestError("Invalid "+param))
		return 0, false
	}
	return id, true
}

// requester returns the authenticated caller. Routes using it sit behind the
// auth middleware, so a missing principal means a wiring error.
func requester(c *gin.Context) (lifecycle.Requester, bool) {
	p := middleware.CurrentPrincipal(c)
	if p == nil {
		middleware.HandleError(c, errors.NewUnauthorizedError("authentication required"))
		return lifecycle.Requester{}, false
	}
	return p.Requester(), true
}

// streamEvents calls step until it returns false, flushing after each call.
// step must return false once the request context is done.
func streamEvents(c *gin.Context, step func() bool) {
	for step() {
		c.Writer.Flush()
	}
	c.Writer.Flush()
}
