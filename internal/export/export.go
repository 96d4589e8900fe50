// Package export renders report tables as Excel workbooks, PDF documents and
// zip bundles of both.
package export

import (
	"fmt"
	"strings"
	"time"
)

// Format selects the export output
type Format string

const (
	FormatExcel Format = "xlsx"
	FormatPDF   Format = "pdf"
	FormatZIP   Format = "zip"
)

// ParseFormat accepts xlsx, excel, pdf and zip in any case
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "xlsx", "excel":
		return FormatExcel, nil
	case "pdf":
		return FormatPDF, nil
	case "zip":
		return FormatZIP, nil
	}
	return "", fmt.Errorf("unsupported export format %q", s)
}

// ContentType returns the MIME type of the format
func (f Format) ContentType() string {
	switch f {
	case FormatPDF:
		return ContentTypePDF
	case FormatZIP:
		return ContentTypeZIP
	}
	return ContentTypeExcel
}

// Result is a rendered export ready to be sent as an attachment
type Result struct {
	Name        string
	ContentType string
	Data        []byte
}

// Render produces the table in the requested format. The zip bundle carries
// the workbook, the PDF and a manifest built from meta.
func Render[T any](format Format, baseName string, t Table[T], meta Manifest) (*Result, error) {
	at := meta.GeneratedAt
	if at.IsZero() {
		at = time.Now()
		meta.GeneratedAt = at
	}

	switch format {
	case FormatExcel:
		data, err := Excel(t)
		if err != nil {
			return nil, err
		}
		return &Result{Name: FileName(baseName, at, "xlsx"), ContentType: ContentTypeExcel, Data: data}, nil

	case FormatPDF:
		data, err := PDF(t)
		if err != nil {
			return nil, err
		}
		return &Result{Name: FileName(baseName, at, "pdf"), ContentType: ContentTypePDF, Data: data}, nil

	case FormatZIP:
		xlsx, err := Excel(t)
		if err != nil {
			return nil, err
		}
		pdf, err := PDF(t)
		if err != nil {
			return nil, err
		}
		if meta.Title == "" {
			meta.Title = t.Title
		}
		meta.Rows = len(t.Rows)
		data, err := Bundle(meta,
			File{Name: FileName(baseName, at, "xlsx"), Data: xlsx},
			File{Name: FileName(baseName, at, "pdf"), Data: pdf},
		)
		if err != nil {
			return nil, err
		}
		return &Result{Name: FileName(baseName, at, "zip"), ContentType: ContentTypeZIP, Data: data}, nil
	}
	return nil, fmt.Errorf("unsupported export format %q", format)
}
