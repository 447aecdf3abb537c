// Package imports loads contatori rows from the committente's Excel
// worksheets into the store.
package imports

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/meterflow/contatori/internal/appointments"
	"github.com/meterflow/contatori/pkg/logging"
)

// ErrNoRows is returned when the worksheet has a header but no data.
var ErrNoRows = errors.New("imports: worksheet has no data rows")

// Expected header labels on the first worksheet row.
const (
	colMatricola     = "Matricola"
	colCliente       = "Cliente"
	colTelefono      = "Telefono"
	colIndirizzo     = "Indirizzo"
	colServizio      = "Servizio"
	colCommittenteID = "Committente_ID"
	colOperatoreID   = "Operatore_ID"
	colCantiere      = "Cantiere"
	colDataProg      = "Data_Programmata"
	colFasciaOraria  = "Fascia_Oraria"
	colPriorita      = "Priorita"
	defaultPriority  = "normale"
	defaultPartyID   = 1
)

const upsertQuery = `
	INSERT INTO contatori (
		serial_number, customer_name, customer_phone, address,
		service_type, committente_id, operatore_id, cantiere,
		pre_assigned_date, pre_assigned_time_slot, needs_confirmation,
		excel_import_batch, priority
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, true, $11, $12)
	ON CONFLICT (serial_number) DO UPDATE SET
		pre_assigned_date = EXCLUDED.pre_assigned_date,
		pre_assigned_time_slot = EXCLUDED.pre_assigned_time_slot,
		needs_confirmation = true,
		last_updated = NOW()
`

// Summary reports the outcome of one workbook import.
type Summary struct {
	Imported int    `json:"imported"`
	Skipped  int    `json:"skipped"`
	BatchID  string `json:"batchId"`
}

// Importer ingests workbooks. Each import is tagged with a batch id so
// rows can be traced back to the upload that produced them.
type Importer struct {
	db     *sql.DB
	logger *logging.Logger
	now    func() time.Time
}

// NewImporter creates an importer.
func NewImporter(db *sql.DB, logger *logging.Logger) *Importer {
	if logger == nil {
		logger = logging.Default()
	}
	return &Importer{db: db, logger: logger, now: time.Now}
}

// ImportWorkbook reads the first worksheet and upserts one contatore per
// row, keyed by matricola. A re-upload of a known matricola refreshes its
// pre-assigned slot and re-arms the confirmation flag. Malformed rows are
// skipped and counted, never abort the batch.
func (i *Importer) ImportWorkbook(ctx context.Context, r io.Reader) (*Summary, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("imports: open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("imports: workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("imports: read sheet %s: %w", sheets[0], err)
	}
	if len(rows) < 2 {
		return nil, ErrNoRows
	}

	header := indexHeader(rows[0])
	batchID := fmt.Sprintf("BATCH_%d", i.now().UnixMilli())
	sum := &Summary{BatchID: batchID}

	for n, row := range rows[1:] {
		if err := i.importRow(ctx, header, row, batchID); err != nil {
			i.logger.Warn("imports: row skipped", "row", n+2, "error", err)
			sum.Skipped++
			continue
		}
		sum.Imported++
	}

	i.logger.Info("imports: workbook processed",
		"batch_id", batchID, "imported", sum.Imported, "skipped", sum.Skipped)
	return sum, nil
}

func (i *Importer) importRow(ctx context.Context, header map[string]int, row []string, batchID string) error {
	cell := func(name string) string {
		idx, ok := header[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	matricola := cell(colMatricola)
	if matricola == "" {
		return errors.New("missing matricola")
	}

	date, err := appointments.ParseDate(cell(colDataProg))
	if err != nil {
		return fmt.Errorf("row %s: bad date %q", matricola, cell(colDataProg))
	}
	slot, err := appointments.ValidateTimeSlot(cell(colFasciaOraria))
	if err != nil {
		return fmt.Errorf("row %s: bad time slot %q", matricola, cell(colFasciaOraria))
	}

	priority := cell(colPriorita)
	if priority == "" {
		priority = defaultPriority
	}

	_, err = i.db.ExecContext(ctx, upsertQuery,
		matricola,
		cell(colCliente),
		cell(colTelefono),
		cell(colIndirizzo),
		strings.ToLower(cell(colServizio)),
		intCell(cell(colCommittenteID), defaultPartyID),
		intCell(cell(colOperatoreID), defaultPartyID),
		cell(colCantiere),
		date,
		slot,
		batchID,
		priority,
	)
	if err != nil {
		return fmt.Errorf("row %s: upsert: %w", matricola, err)
	}
	return nil
}

func indexHeader(cells []string) map[string]int {
	out := make(map[string]int, len(cells))
	for i, c := range cells {
		out[strings.TrimSpace(c)] = i
	}
	return out
}

func intCell(value string, fallback int) int {
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
