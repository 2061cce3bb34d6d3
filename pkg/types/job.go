// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"path/filepath"
	"strings"
)

// DocumentKind selects the office application that opens a document.
type DocumentKind string

const (
	KindWord       DocumentKind = "word"
	KindExcel      DocumentKind = "excel"
	KindPowerPoint DocumentKind = "powerpoint"
	// KindAuto picks the kind from the source file extension.
	KindAuto DocumentKind = "auto"
)

// kindExtensions lists the source extensions each application opens.
var kindExtensions = map[DocumentKind][]string{
	KindWord:       {".doc", ".docx", ".docm", ".dot", ".dotx", ".odt", ".rtf", ".txt"},
	KindExcel:      {".xls", ".xlsx", ".xlsm", ".xlsb", ".ods", ".csv"},
	KindPowerPoint: {".ppt", ".pptx", ".pptm", ".pps", ".ppsx", ".odp"},
}

// ParseDocumentKind maps a CLI or manifest value to a DocumentKind. The empty
// string is KindAuto.
func ParseDocumentKind(s string) (DocumentKind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return KindAuto, true
	case "word", "doc", "document":
		return KindWord, true
	case "excel", "xls", "spreadsheet":
		return KindExcel, true
	case "powerpoint", "ppt", "presentation":
		return KindPowerPoint, true
	}
	return "", false
}

// KindForPath returns the application kind that opens path, judged by its
// extension.
func KindForPath(path string) (DocumentKind, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	for kind, exts := range kindExtensions {
		for _, e := range exts {
			if e == ext {
				return kind, true
			}
		}
	}
	return "", false
}

// Opens reports whether documents of this kind can have path's extension.
func (k DocumentKind) Opens(path string) bool {
	got, ok := KindForPath(path)
	return ok && got == k
}

// AppName is the application name used in status messages.
func (k DocumentKind) AppName() string {
	switch k {
	case KindWord:
		return "Word"
	case KindExcel:
		return "Excel"
	case KindPowerPoint:
		return "Powerpoint"
	}
	return "Office"
}

// ConversionJob is one document-to-PDF conversion. A batch manifest is a
// YAML list of jobs.
type ConversionJob struct {
	// Kind is word, excel, powerpoint or auto (default).
	Kind DocumentKind `json:"kind,omitempty" yaml:"kind,omitempty"`

	// Source is the office document to convert.
	Source string `json:"source" yaml:"source"`

	// Target is the PDF to write.
	Target string `json:"target" yaml:"target"`

	// Overwrite allows replacing an existing target.
	Overwrite bool `json:"overwrite,omitempty" yaml:"overwrite,omitempty"`
}
