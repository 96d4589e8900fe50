package service

import (
	"archive/zip"
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/estr/backoffice/internal/application/port"
	"github.com/estr/backoffice/internal/datatable"
	"github.com/estr/backoffice/internal/domain/entity"
	"github.com/estr/backoffice/internal/export"
)

type memArchive struct {
	files map[string][]byte
}

func (m *memArchive) Archive(ctx context.Context, at time.Time, name string, content []byte) (string, error) {
	if m.files == nil {
		m.files = make(map[string][]byte)
	}
	path := at.Format("2006-01-02") + "/" + name
	m.files[path] = content
	return path, nil
}

func reportCases() []*entity.Case {
	return []*entity.Case{
		{ID: "C-1", CustomerName: "Budi", BranchCode: "001", Indicator: "PASSBY", Amount: decimal.NewFromInt(1500000), StatusDescription: "Dilaporkan STR"},
		{ID: "C-2", CustomerName: "Siti", BranchCode: "001", Indicator: "MTM", Amount: decimal.NewFromInt(250000), StatusDescription: "Bukan STR"},
		{ID: "C-3", CustomerName: "Agus", BranchCode: "001", Indicator: "PASSBY", Amount: decimal.NewFromInt(990000), StatusDescription: "Dilaporkan STR"},
	}
}

func reportRange() ReportQuery {
	return ReportQuery{
		From: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
	}
}

func TestReportList_BranchScoped(t *testing.T) {
	api := &mockReportAPI{listFunc: func(ctx context.Context, filter port.ReportFilter) ([]*entity.Case, error) {
		return reportCases(), nil
	}}
	svc := NewReportService(api, nil, ReportConfig{MaxRangeDays: 366}, nil, nil, &mockLogger{})

	rq := reportRange()
	rq.BranchCode = "999"
	rq.Indicator = " passby "
	page, err := svc.List(context.Background(), oprCab, rq, datatable.Query{PageSize: 2, Page: 1})
	require.NoError(t, err)

	require.Len(t, api.filters, 1)
	assert.Equal(t, "001", api.filters[0].BranchCode)
	assert.Equal(t, "PASSBY", api.filters[0].Indicator)
	assert.Equal(t, "u-oc", api.filters[0].UserID)

	assert.Len(t, page.Rows, 2)
	assert.Equal(t, 2, page.Pages)
	assert.Equal(t, 3, page.Total)
}

func TestReportList_DateRangeValidated(t *testing.T) {
	api := &mockReportAPI{}
	svc := NewReportService(api, nil, ReportConfig{MaxRangeDays: 31}, nil, nil, &mockLogger{})

	rq := reportRange()
	rq.From, rq.To = rq.To, rq.From
	_, err := svc.List(context.Background(), spvKep, rq, datatable.Query{})
	assert.ErrorIs(t, err, ErrValidation)

	rq = reportRange()
	rq.To = rq.From.AddDate(0, 3, 0)
	_, err = svc.List(context.Background(), spvKep, rq, datatable.Query{})
	assert.ErrorIs(t, err, ErrValidation)

	assert.Empty(t, api.filters)
}

func TestReportExport_ZipArchivedAndJournaled(t *testing.T) {
	api := &mockReportAPI{listFunc: func(ctx context.Context, filter port.ReportFilter) ([]*entity.Case, error) {
		return reportCases(), nil
	}}
	storage := &memArchive{}
	journal := &mockJournalRepo{}
	svc := NewReportService(api, storage, ReportConfig{BankName: "Bank Contoh", MaxRangeDays: 366, Archive: true}, journal, nil, &mockLogger{})

	res, err := svc.Export(context.Background(), spvKep, reportRange(), datatable.Query{
		Search: "passby",
		Fields: CaseSearchFields,
		SortBy: "amount",
	}, export.FormatZIP)
	require.NoError(t, err)
	assert.Equal(t, export.ContentTypeZIP, res.ContentType)
	assert.True(t, strings.HasPrefix(res.Name, "laporan_str_"))

	zr, err := zip.NewReader(bytes.NewReader(res.Data), int64(len(res.Data)))
	require.NoError(t, err)
	assert.Len(t, zr.File, 3)

	require.Len(t, storage.files, 1)
	for path := range storage.files {
		assert.True(t, strings.HasSuffix(path, "/"+res.Name))
	}

	require.Len(t, journal.entries, 1)
	assert.Equal(t, entity.SubjectExport, journal.entries[0].Subject)
	assert.Equal(t, res.Name, journal.entries[0].SubjectID)
	assert.Contains(t, journal.entries[0].Payload, "PASSBY")
}

func TestReportExport_TooManyRows(t *testing.T) {
	api := &mockReportAPI{listFunc: func(ctx context.Context, filter port.ReportFilter) ([]*entity.Case, error) {
		return reportCases(), nil
	}}
	svc := NewReportService(api, nil, ReportConfig{MaxRows: 2, MaxRangeDays: 366}, nil, nil, &mockLogger{})

	_, err := svc.Export(context.Background(), spvKep, reportRange(), datatable.Query{}, export.FormatExcel)
	assert.ErrorIs(t, err, ErrValidation)
}
