package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	companydomain "github.com/hcdash/hcdash-backend/internal/company/domain"
	statsdomain "github.com/hcdash/hcdash-backend/internal/stats/domain"
	"github.com/hcdash/hcdash-backend/internal/upload/domain"
	"github.com/hcdash/hcdash-backend/internal/upload/spreadsheet"
	"github.com/hcdash/hcdash-backend/pkg/config"
	apperrors "github.com/hcdash/hcdash-backend/pkg/errors"
	"github.com/hcdash/hcdash-backend/pkg/i18n"
	"github.com/hcdash/hcdash-backend/pkg/logger"
	"github.com/hcdash/hcdash-backend/pkg/messaging"
	"github.com/hcdash/hcdash-backend/pkg/tenant"
)

// Writer persists one batch of records atomically
type Writer interface {
	UpsertAll(ctx context.Context, records []*statsdomain.Record) error
}

// CompanyDirectory builds the name/code lookup used to resolve sheet rows
type CompanyDirectory interface {
	Directory(ctx context.Context) (*companydomain.Directory, error)
}

// ImportResult is the body of a successful import
type ImportResult struct {
	Message      string              `json:"message"`
	Imported     int                 `json:"imported"`
	SkippedCount int                 `json:"skipped_count"`
	Skipped      []domain.SkippedRow `json:"skipped"`
}

// UploadService imports spreadsheets into fact tables
type UploadService struct {
	registry  *statsdomain.Registry
	writer    Writer
	companies CompanyDirectory
	publisher messaging.EventPublisher
	logger    *logger.Logger
	batchSize int
}

// NewUploadService creates a new upload service
func NewUploadService(
	registry *statsdomain.Registry,
	writer Writer,
	companies CompanyDirectory,
	publisher messaging.EventPublisher,
	cfg *config.UploadConfig,
	log *logger.Logger,
) *UploadService {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 200
	}
	return &UploadService{
		registry:  registry,
		writer:    writer,
		companies: companies,
		publisher: publisher,
		logger:    log,
		batchSize: batchSize,
	}
}

// Import reads fileName's first sheet and upserts every valid row of metric
// slug. Batches commit one by one; a failing batch leaves earlier ones stored.
func (s *UploadService) Import(ctx context.Context, slug, fileName string, data []byte) (*ImportResult, error) {
	session, err := tenant.Require(ctx)
	if err != nil {
		return nil, tenant.ScopeError(err)
	}

	m, err := s.registry.Lookup(slug)
	if err != nil {
		return nil, err
	}

	rows, err := spreadsheet.ReadRows(data, fileName)
	if err != nil {
		return nil, readError(err)
	}

	dir, err := s.companies.Directory(ctx)
	if err != nil {
		return nil, err
	}

	var ownCompany string
	if session.Role == tenant.RoleUserAnper {
		ownCompany = session.CompanyID
	}

	parser := domain.NewParser(m, dir, ownCompany, i18n.LocalizerFromContext(ctx))
	parsed, missing := parser.Parse(rows)
	if len(missing) > 0 {
		return nil, apperrors.NewWithKey("MISSING_HEADERS", "upload.missing_headers", http.StatusBadRequest,
			map[string]string{"headers": strings.Join(missing, ", ")})
	}

	log := s.logger.WithMetric(m.Slug).WithUserID(session.UserID)
	for _, skipped := range parsed.Skipped {
		log.Warn().Str("file", fileName).Int("row", skipped.Row).Str("reason", skipped.Reason).Msg("row skipped")
	}

	if len(parsed.Records) == 0 {
		details := make(map[string]string, len(parsed.Skipped))
		for _, skipped := range parsed.Skipped {
			details["row "+strconv.Itoa(skipped.Row)] = skipped.Reason
		}
		return nil, apperrors.NewWithKey("EMPTY_IMPORT", "upload.empty", http.StatusBadRequest).WithDetails(details)
	}

	imported := 0
	for start := 0; start < len(parsed.Records); start += s.batchSize {
		end := min(start+s.batchSize, len(parsed.Records))
		if err := s.writer.UpsertAll(ctx, parsed.Records[start:end]); err != nil {
			log.Error().Err(err).Int("imported", imported).Msg("import batch failed")
			return nil, fmt.Errorf("import batch at record %d: %w", start, err)
		}
		imported = end
	}

	log.Info().Str("file", fileName).Int("imported", imported).Int("skipped", len(parsed.Skipped)).Msg("spreadsheet imported")
	for _, companyID := range parsed.Companies {
		log.WithCompanyID(companyID).Info().Str("company", dir.Name(companyID)).Str("file", fileName).Msg("company rows imported")
	}

	messaging.Notify(ctx, s.publisher, s.logger, messaging.EventStatsImportCompleted, messaging.ImportCompletedEvent{
		Metric:    m.Slug,
		FileName:  fileName,
		Imported:  imported,
		Skipped:   len(parsed.Skipped),
		Companies: parsed.Companies,
		UserID:    session.UserID,
	})

	skipped := parsed.Skipped
	if skipped == nil {
		skipped = []domain.SkippedRow{}
	}
	return &ImportResult{
		Message: i18n.TFromContext(ctx, "upload.success", map[string]string{
			"count": strconv.Itoa(imported),
			"label": i18n.TFromContext(ctx, m.LabelKey()),
		}),
		Imported:     imported,
		SkippedCount: len(skipped),
		Skipped:      skipped,
	}, nil
}

// Template returns a blank .xlsx import sheet for metric slug and its file name
func (s *UploadService) Template(slug string) ([]byte, string, error) {
	m, err := s.registry.Lookup(slug)
	if err != nil {
		return nil, "", err
	}

	headers := domain.TemplateHeaders(m)
	data, err := spreadsheet.Template(m.Slug, headers, exampleRow(m))
	if err != nil {
		return nil, "", err
	}
	return data, "template-" + m.Slug + ".xlsx", nil
}

func exampleRow(m *statsdomain.Metric) []string {
	row := []string{"2025"}
	switch m.Period {
	case statsdomain.PeriodMonthly:
		row = append(row, "Januari")
	case statsdomain.PeriodQuarterly:
		row = append(row, "Q1")
	}
	row = append(row, "PT Contoh")
	if m.Category != nil {
		row = append(row, "Contoh")
	}
	for range m.Fields {
		row = append(row, "0")
	}
	return row
}

func readError(err error) error {
	switch {
	case errors.Is(err, spreadsheet.ErrUnsupportedFormat):
		return apperrors.NewWithKey("UNSUPPORTED_FORMAT", "upload.unsupported_format", http.StatusBadRequest)
	case errors.Is(err, spreadsheet.ErrEmpty):
		return apperrors.NewWithKey("EMPTY_IMPORT", "upload.empty", http.StatusBadRequest)
	default:
		appErr := apperrors.NewWithKey("INVALID_FILE", "upload.invalid_file", http.StatusBadRequest)
		appErr.Err = err
		return appErr
	}
}
