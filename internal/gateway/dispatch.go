package gateway

import (
	"context"
	"io"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"gwmux/internal/accounts"
	"gwmux/internal/credential"
	apperrors "gwmux/internal/errors"
	"gwmux/internal/selector"
	"gwmux/internal/translator"
	"gwmux/internal/upstream"
	"gwmux/internal/usage"
)

// maxAttempts bounds how many candidates one request tries before
// surfacing an error; spec.md §4.10 doesn't name a fixed bound, so this
// mirrors the selector's own candidate-exhaustion signal as the natural
// stopping point instead of inventing a separate retry budget.
const maxAttempts = 6

// DispatchRequest is the fully-resolved input to Dispatch: everything
// the routing facade (spec.md §4.10 steps 3-5) needs once config_type
// and permissions are settled.
type DispatchRequest struct {
	ConfigType  accounts.Provider
	Principal   Principal
	Model       string
	Endpoint    string
	WireFormat  translator.Format
	Body        []byte
	Headers     http.Header
	Stream      bool
}

// DispatchResult carries the response back to the HTTP layer. For
// non-streaming calls Body is fully buffered; for streaming calls Body
// is the (already usage-tracked) reader to copy to the client.
type DispatchResult struct {
	HTTPStatus int
	Body       io.ReadCloser
	Stream     bool
}

// Dispatch implements spec.md §4.10 steps 3-5: pick a candidate, load and
// (if needed) refresh its credential, translate the request into the
// provider's native wire format, call the provider, classify the
// outcome for the selector, translate the response back, and commit
// usage — retrying the next candidate on a transient/rate-limited
// failure.
func (g *Gateway) Dispatch(ctx context.Context, req DispatchRequest) (*DispatchResult, *apiError) {
	provider := g.providerFor(req.ConfigType)
	if provider == nil {
		return nil, errBadRequest("config_type \"" + string(req.ConfigType) + "\" has no upstream provider configured")
	}

	candidates, err := g.selector.BuildCandidates(ctx, req.ConfigType, req.Principal.UserID)
	if err != nil {
		return nil, errFromSelector(err)
	}

	providerFormat := nativeFormat(req.ConfigType)
	translatedBody := g.translator.TranslateRequestViaHub(req.WireFormat, providerFormat, req.Model, req.Body, req.Stream)

	start := time.Now()
	var lastErr *apiError
	for attempt := 0; attempt < maxAttempts; attempt++ {
		cand, err := g.selector.Pick(ctx, req.Principal.UserID, req.Model, candidates)
		if err != nil {
			if lastErr != nil {
				return nil, lastErr
			}
			return nil, errFromSelector(err)
		}

		cj, refreshErr := g.credential.Load(cand.Account)
		if refreshErr != nil {
			_ = g.selector.Observe(ctx, cand, req.Model, selector.Signal{Kind: selector.SignalUnauthorized, FreezeReason: accounts.FreezeUnauthorized})
			lastErr = errInternal(refreshErr.Error())
			continue
		}
		if refr := g.refresherFor(req.ConfigType); refr != nil && credential.ShouldRefresh(cj, false) {
			refreshed, err := g.credential.Refresh(ctx, cand.Account, refr)
			if err != nil {
				log.WithFields(logFields(req.ConfigType, req.Principal.UserID)).WithError(err).Warn("gateway: credential refresh failed")
			} else {
				cj = refreshed
			}
		}

		rc := upstream.RequestContext{
			Ctx:             ctx,
			Account:         cand.Account,
			Credential:      cj,
			BaseModel:       req.Model,
			ProjectID:       cand.Project,
			Body:            translatedBody,
			HeaderOverrides: req.Headers,
		}

		var presp upstream.ProviderResponse
		if req.Stream {
			presp = provider.Stream(rc)
		} else {
			presp = provider.Generate(rc)
		}

		if presp.Err != nil {
			_ = g.selector.Observe(ctx, cand, req.Model, selector.Signal{Kind: selector.SignalTransient})
			lastErr = errInternal(presp.Err.Error())
			continue
		}

		status := presp.Resp.StatusCode
		if status >= 400 {
			body, _ := upstream.ReadAll(presp.Resp)
			class := upstream.ClassifyFailure(status, presp.Resp.Header, body)
			sig, terminal := signalFor(class)
			_ = g.selector.Observe(ctx, cand, req.Model, sig)
			lastErr = apperrors.MapHTTPError(status, body)
			if terminal {
				return nil, lastErr
			}
			continue
		}

		_ = g.selector.Observe(ctx, cand, req.Model, selector.Signal{Kind: selector.SignalSuccess})

		entry := usage.LogEntry{
			UserID:         req.Principal.UserID,
			ConfigType:     string(req.ConfigType),
			AccountID:      cand.Account.ID,
			Model:          req.Model,
			RequestedModel: req.Model,
			Endpoint:       req.Endpoint,
			Success:        true,
			HTTPStatus:     status,
		}

		if req.Stream {
			translated, terr := g.translator.TranslateStream(ctx, providerFormat, req.WireFormat, req.Model, presp.Resp.Body)
			if terr != nil {
				presp.Resp.Body.Close()
				return nil, errInternal("stream translation failed: " + terr.Error())
			}
			tracked := g.tracker.WrapStream(readCloserOver(translated, presp.Resp.Body), entry)
			return &DispatchResult{HTTPStatus: status, Body: tracked, Stream: true}, nil
		}

		respBody, _ := upstream.ReadAll(presp.Resp)
		translatedResp, terr := g.translator.TranslateResponseViaHub(ctx, providerFormat, req.WireFormat, req.Model, respBody)
		if terr != nil {
			return nil, errInternal("response translation failed: " + terr.Error())
		}
		entry.TokenUsage = usageFromResponse(req.WireFormat, translatedResp)
		if err := g.tracker.RecordNonStream(ctx, entry, start); err != nil {
			log.WithError(err).Warn("gateway: usage commit failed")
		}
		return &DispatchResult{HTTPStatus: status, Body: io.NopCloser(bytesReader(translatedResp)), Stream: false}, nil
	}

	if lastErr != nil {
		return nil, lastErr
	}
	return nil, errInternal("exhausted all candidates without a definitive result")
}

// signalFor maps an upstream.Classification onto a selector.Signal and
// reports whether the caller should stop retrying immediately (fatal
// client errors aren't solved by trying another account).
func signalFor(c upstream.Classification) (selector.Signal, bool) {
	switch c.Kind {
	case upstream.FailureRateLimit:
		return selector.Signal{Kind: selector.SignalRateLimit, RetryAfter: c.RetryAfter}, false
	case upstream.FailureFreeze:
		until := time.Now().Add(c.FreezeFor)
		if c.FreezeFor == 0 {
			until = time.Now().Add(24 * time.Hour)
		}
		return selector.Signal{Kind: selector.SignalFreeze, FreezeReason: accounts.FreezeForbidden, FreezeUntil: until}, false
	case upstream.FailureUnauthorized:
		return selector.Signal{Kind: selector.SignalUnauthorized}, false
	case upstream.FailureTransient:
		return selector.Signal{Kind: selector.SignalTransient}, false
	default:
		return selector.Signal{Kind: selector.SignalFatal}, true
	}
}

// nativeFormat names the wire format a config_type's dispatcher speaks
// natively (spec.md §4.10 step 3's translator/dispatcher selection).
func nativeFormat(p accounts.Provider) translator.Format {
	switch p {
	case accounts.ProviderCodex:
		return translator.FormatOpenAIResponses
	case accounts.ProviderGeminiCLI, accounts.ProviderAntigravity:
		return translator.FormatGemini
	case accounts.ProviderQwen, accounts.ProviderKiro:
		return translator.FormatOpenAI
	default:
		return translator.FormatOpenAI
	}
}
