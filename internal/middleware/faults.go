package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/educypnishi/embassydemo/internal/faults"
)

// InjectFaults runs every request on the route through the fault
// pipeline under the given class. The drawn delay is honored before the
// outcome either way: a short-circuited request still feels like a
// server under load. A client that disconnects during the delay has its
// wait abandoned.
func InjectFaults(pipeline *faults.Pipeline, class faults.Class) gin.HandlerFunc {
	return func(c *gin.Context) {
		out := pipeline.Admit(class)

		if err := faults.Wait(c.Request.Context(), out.Delay); err != nil {
			c.Abort() // client gone, nothing to deliver
			return
		}

		if out.ShortCircuit() {
			c.AbortWithStatusJSON(out.Status, gin.H{
				"error":     http.StatusText(out.Status),
				"code":      out.Status,
				"heavyLoad": pipeline.Heavy(),
			})
			return
		}

		c.Next()
	}
}
