package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/toolkit-portal/internal/apperror"
	"github.com/sakif/toolkit-portal/internal/auth"
	"github.com/sakif/toolkit-portal/internal/service"
)

// DownloadHandler gates access to the desktop app artifact.
//
// Two-step flow:
//  1. GET /download/app (bearer auth) → entitlement check → short-lived
//     download grant
//  2. GET /download/app/file?token=... → verify the download-purpose token →
//     stream the artifact
//
// Splitting grant from fetch means the artifact URL needs no Authorization
// header — the desktop updater and plain browser downloads both just follow
// the URL while it's fresh.
type DownloadHandler struct {
	entitlements *service.EntitlementService
	tokens       *auth.TokenService
	artifactPath string
	logger       *slog.Logger
}

// NewDownloadHandler creates a DownloadHandler. artifactPath may be empty,
// in which case the file endpoint reports the artifact unavailable.
func NewDownloadHandler(
	entitlements *service.EntitlementService,
	tokens *auth.TokenService,
	artifactPath string,
	logger *slog.Logger,
) *DownloadHandler {
	return &DownloadHandler{
		entitlements: entitlements,
		tokens:       tokens,
		artifactPath: artifactPath,
		logger:       logger,
	}
}

// HandleDownload issues a download grant to an entitled user.
//
// HTTP: GET /download/app
// Auth: Required
//
// Responses: 200 {download_token, download_url, expires_at};
// 403 when the user has no active subscription in a production-keyed
// deployment.
func (h *DownloadHandler) HandleDownload(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}

	grant, err := h.entitlements.RequestDownload(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	h.logger.Info("download grant issued", slog.String("userID", userID))

	writeJSON(w, http.StatusOK, grant)
}

// HandleFile streams the artifact to the holder of a valid download token.
//
// HTTP: GET /download/app/file?token=<download token>
//
// The token must carry purpose "download" — an access token presented here
// is rejected, exactly as a download token is rejected by the bearer
// middleware. Validity is purely signature + expiry; there is nothing to
// revoke server-side.
func (h *DownloadHandler) HandleFile(w http.ResponseWriter, r *http.Request) {
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		writeError(w, apperror.Unauthorized("download token required"))
		return
	}

	userID, err := h.tokens.Validate(tokenStr, auth.PurposeDownload)
	if err != nil {
		writeError(w, apperror.Unauthorized("download token invalid or expired"))
		return
	}

	if h.artifactPath == "" {
		writeError(w, apperror.NotFound("app artifact", "download"))
		return
	}

	h.logger.Info("artifact download started", slog.String("userID", userID))

	w.Header().Set("Content-Disposition", `attachment; filename="legal-toolkit-setup"`)
	http.ServeFile(w, r, h.artifactPath)
}
