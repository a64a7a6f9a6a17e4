package middleware

import (
	"net/http"

	chimid "github.com/go-chi/chi/v5/middleware"
)

const HeaderRequestID = "X-Request-Id"

// RequestID 產生（或沿用上游 X-Request-Id）請求編號，並回寫到 response header。
func RequestID(next http.Handler) http.Handler {
	return chimid.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := GetReqId(r); id != "" {
			w.Header().Set(HeaderRequestID, id)
		}
		next.ServeHTTP(w, r)
	}))
}

func GetReqId(r *http.Request) string {
	return chimid.GetReqID(r.Context())
}
