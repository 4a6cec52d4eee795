// Package export writes a club's licences to CSV or XLSX files.
package export

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ufsc-france/gestion-backend/internal/audit"
	"github.com/ufsc-france/gestion-backend/internal/licences"
	"github.com/ufsc-france/gestion-backend/pkg/db/models"
	"github.com/ufsc-france/gestion-backend/pkg/enums"
	pkgerrors "github.com/ufsc-france/gestion-backend/pkg/errors"
	"github.com/ufsc-france/gestion-backend/pkg/logger"
	"github.com/ufsc-france/gestion-backend/pkg/status"
	"github.com/xuri/excelize/v2"
	"go.uber.org/multierr"
)

type Format = enums.ExportFormat

const (
	FormatCSV  = enums.ExportFormatCSV
	FormatXLSX = enums.ExportFormatXLSX
)

// ParseFormat accepts csv or xlsx, case-insensitively.
func ParseFormat(raw string) (Format, error) {
	f, err := enums.ParseExportFormat(raw)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "format must be csv or xlsx")
	}
	return f, nil
}

const filePrefix = "licences-"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Headers are the fixed export columns.
var Headers = []string{
	"id", "nom", "prénom", "email", "téléphone", "date de naissance", "sexe",
	"adresse", "ville", "code postal", "statut", "date création", "date validation",
}

// File is a generated export on disk. Callers stream it then call Remove.
type File struct {
	Path        string
	Name        string
	ContentType string
	Format      Format
	Rows        int
}

func (f *File) Remove() error {
	if f == nil || f.Path == "" {
		return nil
	}
	if err := os.Remove(f.Path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

type clubResolver interface {
	Resolve(ctx context.Context, userID uuid.UUID) (*models.Club, error)
}

type Service interface {
	Export(ctx context.Context, userID uuid.UUID, params licences.ListParams, format Format) (*File, error)
	Cleanup(ctx context.Context, maxAge time.Duration) (int, error)
}

type ServiceParams struct {
	Licences    licences.Repository
	Clubs       clubResolver
	Audit       audit.Service
	Logger      *logger.Logger
	TempDir     string
	XLSXEnabled bool
}

type service struct {
	licences licences.Repository
	clubs    clubResolver
	audit    audit.Service
	logg     *logger.Logger
	dir      string
	xlsx     bool
	now      func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Licences == nil:
		return nil, fmt.Errorf("licence repository required")
	case params.Clubs == nil:
		return nil, fmt.Errorf("club resolver required")
	case params.Audit == nil:
		return nil, fmt.Errorf("audit service required")
	case params.Logger == nil:
		return nil, fmt.Errorf("logger required")
	case strings.TrimSpace(params.TempDir) == "":
		return nil, fmt.Errorf("export temp dir required")
	}
	return &service{
		licences: params.Licences,
		clubs:    params.Clubs,
		audit:    params.Audit,
		logg:     params.Logger,
		dir:      params.TempDir,
		xlsx:     params.XLSXEnabled,
		now:      time.Now,
	}, nil
}

// Export writes the matching licences of the user's club. An XLSX request
// falls back to CSV when the feature is off or the workbook cannot be written.
func (s *service) Export(ctx context.Context, userID uuid.UUID, params licences.ListParams, format Format) (*File, error) {
	if format != FormatCSV && format != FormatXLSX {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "format must be csv or xlsx")
	}
	club, err := s.clubs.Resolve(ctx, userID)
	if err != nil {
		return nil, err
	}
	rows, err := s.licences.ListAll(ctx, club.ID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load licences")
	}
	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create export dir")
	}

	ctx = s.logg.WithClubID(ctx, club.ID.String())
	records := toRecords(rows)
	stamp := s.now().UTC().Format("20060102-150405")
	base := filePrefix + stamp + "-" + uuid.NewString()[:8]

	var file *File
	if format == FormatXLSX {
		if !s.xlsx {
			s.logg.Warn(ctx, "xlsx export disabled, falling back to csv")
		} else if file, err = s.writeXLSX(base, records); err != nil {
			s.logg.Error(ctx, "xlsx export failed, falling back to csv", err)
			file = nil
		}
	}
	if file == nil {
		if file, err = s.writeCSV(base, records); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "write csv export")
		}
	}
	file.Rows = len(rows)

	actor := userID
	if err := s.audit.Record(ctx, nil, audit.Entry{
		ActorID:    &actor,
		Action:     enums.AuditExportGenerated,
		EntityType: enums.AuditEntityClub,
		EntityID:   club.ID.String(),
		ClubID:     &club.ID,
		Details:    map[string]any{"format": string(file.Format), "rows": file.Rows, "requested": string(format)},
	}); err != nil {
		s.logg.Error(ctx, "failed to audit export", err)
	}
	return file, nil
}

func (s *service) writeCSV(base string, records [][]string) (*File, error) {
	path := filepath.Join(s.dir, base+".csv")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o640)
	if err != nil {
		return nil, err
	}
	buf := bufio.NewWriter(f)
	_, err = buf.Write(utf8BOM)
	if err == nil {
		w := csv.NewWriter(buf)
		if err = w.Write(Headers); err == nil {
			err = w.WriteAll(records)
		}
	}
	if err == nil {
		err = buf.Flush()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return nil, err
	}
	return &File{Path: path, Name: base + ".csv", ContentType: FormatCSV.ContentType(), Format: FormatCSV}, nil
}

func (s *service) writeXLSX(base string, records [][]string) (*File, error) {
	const sheet = "Licences"
	wb := excelize.NewFile()
	defer wb.Close()
	if err := wb.SetSheetName(wb.GetSheetName(0), sheet); err != nil {
		return nil, err
	}
	sw, err := wb.NewStreamWriter(sheet)
	if err != nil {
		return nil, err
	}
	if err := sw.SetRow("A1", cells(Headers)); err != nil {
		return nil, err
	}
	for i, rec := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := sw.SetRow(cell, cells(rec)); err != nil {
			return nil, err
		}
	}
	if err := sw.Flush(); err != nil {
		return nil, err
	}
	path := filepath.Join(s.dir, base+".xlsx")
	if err := wb.SaveAs(path); err != nil {
		_ = os.Remove(path)
		return nil, err
	}
	return &File{
		Path:        path,
		Name:        base + ".xlsx",
		ContentType: FormatXLSX.ContentType(),
		Format:      FormatXLSX,
	}, nil
}

func (s *service) Cleanup(ctx context.Context, maxAge time.Duration) (int, error) {
	return s.janitor().Cleanup(ctx, maxAge)
}

func (s *service) janitor() *Janitor {
	return &Janitor{dir: s.dir, logg: s.logg, now: s.now, remove: os.Remove}
}

// Janitor sweeps the export directory without the rest of the export
// dependencies, for the cron worker.
type Janitor struct {
	dir    string
	logg   *logger.Logger
	now    func() time.Time
	remove func(string) error
}

func NewJanitor(dir string, logg *logger.Logger) (*Janitor, error) {
	switch {
	case strings.TrimSpace(dir) == "":
		return nil, fmt.Errorf("export temp dir required")
	case logg == nil:
		return nil, fmt.Errorf("logger required")
	}
	return &Janitor{dir: dir, logg: logg, now: time.Now, remove: os.Remove}, nil
}

// Cleanup removes export files older than maxAge left behind by interrupted
// downloads. A file that cannot be removed does not stop the sweep; all
// removal failures are returned together.
func (j *Janitor) Cleanup(ctx context.Context, maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(j.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	cutoff := j.now().Add(-maxAge)
	removed := 0
	var errs error
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return removed, multierr.Append(errs, err)
		}
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), filePrefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := j.remove(filepath.Join(j.dir, entry.Name())); err != nil && !os.IsNotExist(err) {
			j.logg.Error(j.logg.WithField(ctx, "file", entry.Name()), "failed to remove export", err)
			errs = multierr.Append(errs, fmt.Errorf("remove %s: %w", entry.Name(), err))
			continue
		}
		removed++
	}
	return removed, errs
}

func toRecords(rows []models.Licence) [][]string {
	out := make([][]string, 0, len(rows))
	for _, l := range rows {
		validated := ""
		if l.ValidatedAt != nil {
			validated = l.ValidatedAt.UTC().Format("2006-01-02 15:04:05")
		}
		out = append(out, []string{
			l.ID.String(),
			l.LastName,
			l.FirstName,
			l.Email,
			deref(l.Phone),
			deref(l.BirthDate),
			deref(l.Sex),
			deref(l.Address),
			deref(l.City),
			deref(l.PostalCode),
			status.LabelFR(l.Statut),
			l.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
			validated,
		})
	}
	return out
}

func cells(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
