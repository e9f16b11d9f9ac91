package middleware

import (
	"fmt"
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-api/pkg/httputil"
)

const (
	HeaderAPIVersion    = "X-API-Version"
	HeaderAcceptVersion = "Accept-Version"
)

var versionPattern = regexp.MustCompile(`^(\d+)(?:\.(\d+))?$`)

// Version stamps every response with the served API version. Clients may
// pin a version with Accept-Version; a different major version gets 406.
func Version(current string) gin.HandlerFunc {
	currentMajor := current
	if m := versionPattern.FindStringSubmatch(current); m != nil {
		currentMajor = m[1]
	}

	return func(c *gin.Context) {
		c.Header(HeaderAPIVersion, current)

		requested := c.GetHeader(HeaderAcceptVersion)
		if requested == "" {
			c.Next()
			return
		}

		m := versionPattern.FindStringSubmatch(requested)
		if m == nil {
			c.AbortWithStatusJSON(http.StatusBadRequest,
				httputil.NewErrorResponse("invalid version format, use major.minor"))
			return
		}
		if m[1] != currentMajor {
			c.AbortWithStatusJSON(http.StatusNotAcceptable,
				httputil.NewErrorResponse(fmt.Sprintf("API version %s not supported", requested)))
			return
		}
		c.Next()
	}
}
