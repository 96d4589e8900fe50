package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/estr/backoffice/internal/application/port"
	"github.com/estr/backoffice/internal/datatable"
	"github.com/estr/backoffice/internal/domain/entity"
	"github.com/estr/backoffice/internal/domain/workflow"
	"github.com/estr/backoffice/internal/export"
	"github.com/estr/backoffice/pkg/utils"
)

// ReportQuery filters the report listing
type ReportQuery struct {
	From       time.Time
	To         time.Time
	Indicator  string
	BranchCode string
	StatusCode string
}

// ReportConfig holds report and export limits
type ReportConfig struct {
	BankName     string
	MaxRows      int
	MaxRangeDays int
	// Archive keeps a server-side copy of every export
	Archive bool
}

// ReportService lists report cases and renders exports
type ReportService interface {
	List(ctx context.Context, user *entity.Profile, rq ReportQuery, q datatable.Query) (*datatable.Page[*entity.Case], error)
	Export(ctx context.Context, user *entity.Profile, rq ReportQuery, q datatable.Query, format export.Format) (*export.Result, error)
}

type reportServiceImpl struct {
	api     port.ReportAPI
	archive port.ExportArchive
	cfg     ReportConfig
	recorder
}

// NewReportService creates a new ReportService. archive may be nil when exports are not archived.
func NewReportService(
	api port.ReportAPI,
	archive port.ExportArchive,
	cfg ReportConfig,
	journal port.JournalRepository,
	observer ActionObserver,
	logger Logger,
) ReportService {
	return &reportServiceImpl{
		api:     api,
		archive: archive,
		cfg:     cfg,
		recorder: recorder{
			journal:  journal,
			observer: observer,
			logger:   logger,
		},
	}
}

func caseField(c *entity.Case, field string) string {
	return c.Field(field)
}

func (s *reportServiceImpl) fetch(ctx context.Context, user *entity.Profile, rq ReportQuery) ([]*entity.Case, port.ReportFilter, error) {
	role := workflow.Role(user.Role)
	if !role.IsValid() {
		return nil, port.ReportFilter{}, ErrForbidden
	}
	if err := utils.ValidateDateRange(rq.From, rq.To, s.cfg.MaxRangeDays); err != nil {
		return nil, port.ReportFilter{}, invalid("from", err.Error())
	}

	filter := port.ReportFilter{
		From:       rq.From,
		To:         rq.To,
		Indicator:  strings.ToUpper(strings.TrimSpace(rq.Indicator)),
		BranchCode: strings.TrimSpace(rq.BranchCode),
		StatusCode: strings.TrimSpace(rq.StatusCode),
		UserID:     user.UserID,
	}
	if role.IsBranch() {
		filter.BranchCode = user.BranchCode
	}
	if filter.BranchCode != "" {
		if err := utils.ValidateBranchCode(filter.BranchCode); err != nil {
			return nil, filter, invalid("branch_code", err.Error())
		}
	}

	cases, err := s.api.ListReports(ctx, filter)
	if err != nil {
		return nil, filter, fmt.Errorf("failed to list reports: %w", err)
	}
	return cases, filter, nil
}

// List returns one page of report cases
func (s *reportServiceImpl) List(ctx context.Context, user *entity.Profile, rq ReportQuery, q datatable.Query) (*datatable.Page[*entity.Case], error) {
	cases, _, err := s.fetch(ctx, user, rq)
	if err != nil {
		return nil, err
	}
	page := datatable.Apply(cases, q, caseField)
	return &page, nil
}

// Export renders every row matching the filter and search, ignoring paging
func (s *reportServiceImpl) Export(ctx context.Context, user *entity.Profile, rq ReportQuery, q datatable.Query, format export.Format) (*export.Result, error) {
	cases, filter, err := s.fetch(ctx, user, rq)
	if err != nil {
		return nil, err
	}

	rows := datatable.Filter(cases, q.Search, q.Fields, caseField)
	if q.SortBy != "" {
		datatable.Sort(rows, q.SortBy, q.SortDesc, caseField)
	}
	if s.cfg.MaxRows > 0 && len(rows) > s.cfg.MaxRows {
		return nil, invalid("rows", fmt.Sprintf("Data terlalu banyak untuk diekspor (%d, maksimum %d)", len(rows), s.cfg.MaxRows))
	}

	title := "Laporan STR"
	if s.cfg.BankName != "" {
		title += " " + s.cfg.BankName
	}
	table := export.Table[*entity.Case]{
		Title:    title,
		Subtitle: fmt.Sprintf("Periode %s - %s", export.FormatDate(filter.From), export.FormatDate(filter.To)),
		Columns:  export.CaseColumns(),
		Rows:     rows,
	}

	manifestFilter := map[string]string{
		"from": filter.From.Format("2006-01-02"),
		"to":   filter.To.Format("2006-01-02"),
	}
	if filter.Indicator != "" {
		manifestFilter["indicator"] = filter.Indicator
	}
	if filter.BranchCode != "" {
		manifestFilter["branch_code"] = filter.BranchCode
	}
	if filter.StatusCode != "" {
		manifestFilter["status_code"] = filter.StatusCode
	}
	if q.Search != "" {
		manifestFilter["search"] = q.Search
	}

	now := time.Now()
	entry := s.newEntry(entity.SubjectExport, string(format), "EXPORT", user, manifestFilter)

	res, err := export.Render(format, "laporan_str", table, export.Manifest{
		GeneratedAt: now,
		GeneratedBy: user.UserID,
		Filter:      manifestFilter,
	})
	s.finish(entry, err)
	if err != nil {
		s.record(ctx, entry)
		return nil, fmt.Errorf("failed to render export: %w", err)
	}
	entry.SubjectID = res.Name

	if s.cfg.Archive && s.archive != nil {
		if path, err := s.archive.Archive(ctx, now, res.Name, res.Data); err != nil {
			s.logger.Error("Failed to archive export", "file", res.Name, "error", err)
		} else {
			s.logger.Info("Export archived", "path", path)
		}
	}
	s.record(ctx, entry)

	s.logger.Info("Report exported", "file", res.Name, "rows", len(rows), "user_id", user.UserID)
	return res, nil
}
