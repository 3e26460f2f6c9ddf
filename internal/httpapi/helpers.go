package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/increff/noos-service/internal/storage"
)

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// entityUploadKind maps a URL segment to its upload TaskKind.
func entityUploadKind(entity string) (storage.TaskKind, bool) {
	switch entity {
	case "styles":
		return storage.KindStylesUpload, true
	case "stores":
		return storage.KindStoresUpload, true
	case "skus":
		return storage.KindSkusUpload, true
	case "sales":
		return storage.KindSalesUpload, true
	default:
		return "", false
	}
}

// entityDownloadKind maps a URL segment to its download TaskKind.
func entityDownloadKind(entity string) (storage.TaskKind, bool) {
	switch entity {
	case "styles":
		return storage.KindStylesDownload, true
	case "stores":
		return storage.KindStoresDownload, true
	case "skus":
		return storage.KindSkusDownload, true
	case "sales":
		return storage.KindSalesDownload, true
	case "noos":
		return storage.KindNoosDownload, true
	default:
		return "", false
	}
}
