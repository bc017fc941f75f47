package gateway

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tidwall/gjson"

	"gwmux/internal/accounts"
	"gwmux/internal/translator"
	"gwmux/internal/upstream"
)

// RegisterRoutes mounts the six client-facing endpoints spec.md §6
// describes onto engine, each resolving a Principal and config_type
// before handing off to Dispatch.
func (g *Gateway) RegisterRoutes(engine *gin.Engine) {
	engine.POST("/v1/chat/completions", g.handleWire(translator.FormatOpenAI, "/v1/chat/completions"))
	engine.POST("/v1/responses", g.handleWire(translator.FormatOpenAIResponses, "/v1/responses"))
	engine.POST("/v1/messages", g.handleWire(translator.FormatAnthropic, "/v1/messages"))
	engine.POST("/v1beta/models/:modelAction", g.handleGemini)
	engine.GET("/v1/models", g.handleListModels)
}

func (g *Gateway) principalAndConfigType(c *gin.Context) (Principal, accounts.Provider, *apiError) {
	p, aerr := ResolvePrincipal(c.Request)
	if aerr != nil {
		return Principal{}, "", aerr
	}
	return p, ResolveConfigType(p, c.Request), nil
}

func (g *Gateway) handleWire(format translator.Format, endpoint string) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, configType, aerr := g.principalAndConfigType(c)
		if aerr != nil {
			writeError(c.Writer, format, aerr)
			return
		}
		if aerr := g.checkPermission(configType, principal); aerr != nil {
			writeError(c.Writer, format, aerr)
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			writeError(c.Writer, format, errBadRequest("failed to read request body"))
			return
		}
		root := gjson.ParseBytes(body)
		model := root.Get("model").String()
		stream := root.Get("stream").Bool()

		g.runDispatch(c, DispatchRequest{
			ConfigType: configType,
			Principal:  principal,
			Model:      model,
			Endpoint:   endpoint,
			WireFormat: format,
			Body:       body,
			Headers:    c.Request.Header,
			Stream:     stream,
		})
	}
}

// handleGemini implements both generateContent and streamGenerateContent
// from one route, since Gemini names the action as a suffix on the path
// segment (":generateContent" / ":streamGenerateContent").
func (g *Gateway) handleGemini(c *gin.Context) {
	format := translator.FormatGemini
	principal, configType, aerr := g.principalAndConfigType(c)
	if aerr != nil {
		writeError(c.Writer, format, aerr)
		return
	}
	if aerr := g.checkPermission(configType, principal); aerr != nil {
		writeError(c.Writer, format, aerr)
		return
	}

	modelAction := c.Param("modelAction")
	model, action, ok := strings.Cut(modelAction, ":")
	if !ok {
		writeError(c.Writer, format, errBadRequest("expected model:action path segment"))
		return
	}
	stream := strings.EqualFold(action, "streamGenerateContent")
	if !stream && !strings.EqualFold(action, "generateContent") {
		writeError(c.Writer, format, errNotFound("unsupported action \""+action+"\""))
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		writeError(c.Writer, format, errBadRequest("failed to read request body"))
		return
	}

	g.runDispatch(c, DispatchRequest{
		ConfigType: configType,
		Principal:  principal,
		Model:      model,
		Endpoint:   "/v1beta/models/:modelAction",
		WireFormat: format,
		Body:       body,
		Headers:    c.Request.Header,
		Stream:     stream,
	})
}

func (g *Gateway) runDispatch(c *gin.Context, req DispatchRequest) {
	result, aerr := g.Dispatch(c.Request.Context(), req)
	if aerr != nil {
		writeError(c.Writer, req.WireFormat, aerr)
		return
	}
	defer result.Body.Close()

	if result.Stream {
		setSSEHeaders(c.Writer)
		c.Writer.WriteHeader(result.HTTPStatus)
		_ = copySSE(c.Writer, result.Body)
		return
	}

	c.Writer.Header().Set("Content-Type", "application/json")
	c.Writer.WriteHeader(result.HTTPStatus)
	_, _ = io.Copy(c.Writer, result.Body)
}

// handleListModels implements GET /v1/models (spec.md §6), merging every
// config_type the caller has at least one enabled account for.
func (g *Gateway) handleListModels(c *gin.Context) {
	principal, aerr := ResolvePrincipal(c.Request)
	if aerr != nil {
		writeError(c.Writer, translator.FormatOpenAI, aerr)
		return
	}

	var all []map[string]interface{}
	for _, configType := range accounts.KnownProviders {
		provider := g.providerFor(configType)
		if provider == nil {
			continue
		}
		candidates, err := g.selector.BuildCandidates(c.Request.Context(), configType, principal.UserID)
		if err != nil || len(candidates) == 0 {
			continue
		}
		cand := candidates[0]
		cj, err := g.credential.Load(cand.Account)
		if err != nil {
			continue
		}
		listResp := provider.ListModels(upstream.RequestContext{
			Ctx:        c.Request.Context(),
			Account:    cand.Account,
			Credential: cj,
			ProjectID:  cand.Project,
		})
		if listResp.Err != nil {
			continue
		}
		for _, m := range listResp.Models {
			all = append(all, map[string]interface{}{
				"id":          m,
				"object":      "model",
				"owned_by":    string(configType),
				"config_type": string(configType),
			})
		}
	}

	c.JSON(http.StatusOK, gin.H{"object": "list", "data": all})
}
