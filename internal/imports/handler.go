package imports

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/meterflow/contatori/pkg/logging"
)

const maxUploadBytes = 16 << 20

// Handler terminates POST /admin/import-excel. The workbook arrives as a
// multipart upload under the "excelFile" field.
type Handler struct {
	importer *Importer
	logger   *logging.Logger
}

// NewHandler creates an upload handler.
func NewHandler(importer *Importer, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{importer: importer, logger: logger}
}

// HandleUpload ingests the uploaded workbook and reports the batch
// summary.
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		h.writeError(w, http.StatusBadRequest, "upload non valido")
		return
	}
	file, _, err := r.FormFile("excelFile")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Nessun file caricato")
		return
	}
	defer file.Close()

	sum, err := h.importer.ImportWorkbook(r.Context(), file)
	if errors.Is(err, ErrNoRows) {
		h.writeError(w, http.StatusBadRequest, "Il foglio non contiene righe da importare")
		return
	}
	if err != nil {
		h.logger.Error("imports: upload failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "import fallito")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"message": fmt.Sprintf("Import completato: %d contatori importati", sum.Imported),
		"stats":   sum,
	})
}

func (h *Handler) writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
