package httputil

import "github.com/gin-gonic/gin"

// IHttpHandler is one resource mounted under Root() in each of the public,
// private and admin route groups.
type IHttpHandler interface {
	Root() string
	SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup)
}
