package http

import (
	"context"
	"embed"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/layer-3/casque/core"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Templates parses the embedded login and challenge pages
func Templates() *template.Template {
	return template.Must(template.ParseFS(templatesFS, "templates/*.html"))
}

// challengePage renders challenges into the response of one request
type challengePage struct {
	c *gin.Context
}

// PresentChallenge implements ports.ChallengePresenter
func (p challengePage) PresentChallenge(ctx context.Context, contextID, challenge string) error {
	p.c.Header("Cache-Control", "no-store")
	p.c.HTML(http.StatusOK, "challenge.html", gin.H{
		"SessionDataKey": contextID,
		"Challenge":      challenge,
		"ActionLogin":    core.ActionLogin,
		"ActionCancel":   core.ActionCancel,
	})
	return nil
}
