package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/akinalp/tenantgate/pkg"
)

// maxBodyBytes caps every JSON request body.
const maxBodyBytes = 1 << 20

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "INVALID_BODY", "Invalid request body.")
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "INVALID_ID", "Invalid ID.")
		return 0, false
	}
	return id, true
}

// writeError logs failures the client cannot act on before writing the
// envelope.
func writeError(log *zap.Logger, w http.ResponseWriter, r *http.Request, err error) {
	appErr := pkg.AsAppError(err)
	if appErr.Kind == pkg.KindInternal {
		log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("code", appErr.Code),
			zap.Error(err),
		)
	}
	pkg.Error(w, appErr)
}
