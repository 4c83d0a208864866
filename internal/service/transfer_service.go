package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/timetable-builder/internal/dto"
	"github.com/noah-isme/timetable-builder/internal/models"
	"github.com/noah-isme/timetable-builder/internal/repository"
	appErrors "github.com/noah-isme/timetable-builder/pkg/errors"
	"github.com/noah-isme/timetable-builder/pkg/export"
	"github.com/noah-isme/timetable-builder/pkg/jobs"
)

// JobTypePreImportBackup labels queue jobs that persist the collection
// about to be replaced by an import.
const JobTypePreImportBackup = "pre_import_backup"

const (
	exportFilesDir   = "files"
	backupsDir       = "backups"
	maxFilenameRunes = 100
)

// Sheet formats accepted by TimetableSheet.
const (
	SheetFormatCSV = "csv"
	SheetFormatPDF = "pdf"
)

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	Path(filename string) string
	CleanupOlderThan(dir string, ttl time.Duration) ([]string, error)
}

type tokenSigner interface {
	Generate(exportID, relPath string) (string, time.Time, error)
	Parse(token string, allowExpired bool) (exportID, relPath string, expiresAt time.Time, err error)
}

type jobEnqueuer interface {
	TryEnqueue(job jobs.Job) error
}

type sheetRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
	ContentType() string
}

// TransferConfig tunes export and import behaviour.
type TransferConfig struct {
	APIPrefix string
	ExportTTL time.Duration
}

// Document is a rendered, downloadable payload.
type Document struct {
	Filename    string
	ContentType string
	Body        []byte
}

type backupPayload struct {
	Filename string
	Body     []byte
}

// TransferService moves the semester collection in and out of documents.
type TransferService struct {
	store   semesterStore
	lock    *WriterLock
	files   fileStorage
	signer  tokenSigner
	backups jobEnqueuer
	csv     sheetRenderer
	pdf     sheetRenderer
	logger  *zap.Logger
	cfg     TransferConfig
	deps    serviceDeps
}

// NewTransferService wires a TransferService. lock must be the one shared
// with the SemesterService writing the same store. files, signer and backups
// may be nil, disabling saved exports and pre-import backups.
func NewTransferService(store semesterStore, lock *WriterLock, files fileStorage, signer tokenSigner, backups jobEnqueuer, cfg TransferConfig, logger *zap.Logger, opts ...SemesterOption) *TransferService {
	if lock == nil {
		lock = NewWriterLock(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ExportTTL <= 0 {
		cfg.ExportTTL = 24 * time.Hour
	}
	return &TransferService{
		store:   store,
		lock:    lock,
		files:   files,
		signer:  signer,
		backups: backups,
		csv:     export.NewCSVExporter(),
		pdf:     export.NewPDFExporter(),
		logger:  logger,
		cfg:     cfg,
		deps:    buildDeps(opts),
	}
}

// SetBackupQueue attaches the queue consuming pre-import backups. The queue
// is built after the service because its handler is BackupHandler.
func (s *TransferService) SetBackupQueue(queue jobEnqueuer) {
	s.backups = queue
}

// ExportAll renders the whole collection as an indented JSON document.
func (s *TransferService) ExportAll(ctx context.Context) (*Document, error) {
	semesters, err := loadTracked(ctx, s.store)
	if err != nil {
		return nil, err
	}
	body, err := encodeDocument(semesters)
	if err != nil {
		return nil, err
	}
	return &Document{
		Filename:    fmt.Sprintf("timetable-backup-%s.json", s.deps.now().Format("2006-01-02")),
		ContentType: "application/json",
		Body:        body,
	}, nil
}

// ImportAll replaces the whole collection with the document's content. A
// document that is not an array of semester objects is rejected with
// FORMAT_ERROR and nothing is written. The replaced collection is handed to
// the backup queue after the writer lock is released.
func (s *TransferService) ImportAll(ctx context.Context, raw []byte) (*dto.ImportResult, error) {
	semesters, err := repository.DecodeSemesters(raw)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrFormat.Code, appErrors.ErrFormat.Status, appErrors.ErrFormat.Message)
	}

	backup, rev, err := s.replaceCollection(ctx, semesters)
	if err != nil {
		return nil, err
	}
	s.scheduleBackup(backup)
	s.logger.Info("collection replaced by import", zap.Int("semesters", len(semesters)), zap.Uint64("revision", rev))
	return &dto.ImportResult{Semesters: len(semesters), Revision: rev}, nil
}

func (s *TransferService) replaceCollection(ctx context.Context, semesters []models.Semester) (*jobs.Job, uint64, error) {
	if err := s.lock.Acquire(ctx); err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "gave up waiting for the writer lock")
	}
	defer s.lock.Release()
	defer func() { recordRevision(ctx, s.store.Revision()) }()

	if want, ok := ExpectedRevision(ctx); ok {
		if got := s.store.Revision(); got != want {
			return nil, 0, appErrors.Clone(appErrors.ErrPreconditionFailed, fmt.Sprintf("collection is at revision %d, not %d", got, want))
		}
	}

	current, err := s.store.LoadAll(ctx)
	if err != nil {
		return nil, 0, err
	}
	backup := s.backupJob(current)

	if err := s.store.SaveAll(ctx, semesters); err != nil {
		s.logger.Error("import failed to save", zap.Error(err))
		return nil, 0, err
	}
	return backup, s.store.Revision(), nil
}

// SaveExport writes the current export under the exports directory and
// returns a signed link to it.
func (s *TransferService) SaveExport(ctx context.Context) (*dto.SavedExport, error) {
	if s.files == nil || s.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "saved exports are not configured")
	}
	doc, err := s.ExportAll(ctx)
	if err != nil {
		return nil, err
	}
	id := s.deps.newID()
	relPath, err := s.files.Save(filepath.Join(exportFilesDir, id, doc.Filename), doc.Body)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to write export file")
	}
	token, expiresAt, err := s.signer.Generate(id, relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign export link")
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	return &dto.SavedExport{
		ID:        id,
		Filename:  doc.Filename,
		URL:       fmt.Sprintf("%s/export/files/%s", prefix, token),
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

// OpenExport resolves a signed token to the saved document.
func (s *TransferService) OpenExport(token string) (*Document, error) {
	if s.files == nil || s.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "saved exports are not configured")
	}
	_, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "export link is invalid or expired")
	}
	file, err := s.files.Open(relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "export file not found")
	}
	defer file.Close()
	body, err := io.ReadAll(file)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to read export file")
	}
	return &Document{Filename: filepath.Base(relPath), ContentType: "application/json", Body: body}, nil
}

// DeleteExport removes the saved export a token points at. Tokens that are
// expired but authentic are accepted; a missing file is not an error.
func (s *TransferService) DeleteExport(token string) error {
	if s.files == nil || s.signer == nil {
		return appErrors.Clone(appErrors.ErrNotFound, "saved exports are not configured")
	}
	_, relPath, _, err := s.signer.Parse(token, true)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "export link is invalid")
	}
	if err := s.files.Delete(relPath); err != nil {
		return appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to delete export file")
	}
	s.logger.Info("saved export deleted", zap.String("path", relPath))
	return nil
}

// CleanupExports removes saved exports older than ttl, or the configured
// export TTL when ttl <= 0. Backups are kept.
func (s *TransferService) CleanupExports(ttl time.Duration) ([]string, error) {
	if s.files == nil {
		return nil, nil
	}
	if ttl <= 0 {
		ttl = s.cfg.ExportTTL
	}
	return s.files.CleanupOlderThan(exportFilesDir, ttl)
}

// BackupHandler is the jobs.Handler writing pre-import backups.
func (s *TransferService) BackupHandler() jobs.Handler {
	return func(ctx context.Context, job jobs.Job) error {
		payload, ok := job.Payload.(backupPayload)
		if !ok {
			return fmt.Errorf("unexpected backup payload %T", job.Payload)
		}
		if s.files == nil {
			return fmt.Errorf("backup storage not configured")
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		path, err := s.files.Save(payload.Filename, payload.Body)
		if err != nil {
			return err
		}
		s.logger.Info("pre-import backup written", zap.String("path", s.files.Path(path)), zap.String("job_id", job.ID))
		return nil
	}
}

// TimetableSheet renders one timetable as a table with a row per weekly
// meeting, ordered by weekday then start time.
func (s *TransferService) TimetableSheet(ctx context.Context, semesterID, timetableID, format string) (*Document, error) {
	var renderer sheetRenderer
	switch strings.ToLower(format) {
	case "", SheetFormatCSV:
		format, renderer = SheetFormatCSV, s.csv
	case SheetFormatPDF:
		format, renderer = SheetFormatPDF, s.pdf
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported sheet format %q", format))
	}

	semesters, err := loadTracked(ctx, s.store)
	if err != nil {
		return nil, err
	}
	idx := findSemester(semesters, semesterID)
	if idx < 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "semester not found")
	}
	sem := semesters[idx]
	ttIdx := sem.FindTimetable(timetableID)
	if ttIdx < 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable not found")
	}
	tt := sem.Timetables[ttIdx]

	body, err := renderer.Render(buildSheet(sem, tt), fmt.Sprintf("%s - %s", sem.Name, tt.Name))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render timetable sheet")
	}
	return &Document{
		Filename:    fmt.Sprintf("%s.%s", sanitizeFilename(tt.Name), format),
		ContentType: renderer.ContentType(),
		Body:        body,
	}, nil
}

// backupJob encodes the collection about to be replaced. It returns nil when
// backups are disabled or there is nothing to keep.
func (s *TransferService) backupJob(current []models.Semester) *jobs.Job {
	if s.backups == nil || len(current) == 0 {
		return nil
	}
	body, err := encodeDocument(current)
	if err != nil {
		s.logger.Warn("skipping pre-import backup", zap.Error(err))
		return nil
	}
	return &jobs.Job{
		ID:   s.deps.newID(),
		Type: JobTypePreImportBackup,
		Payload: backupPayload{
			Filename: filepath.Join(backupsDir, fmt.Sprintf("pre-import-%s.json", s.deps.now().Format("20060102T150405.000Z"))),
			Body:     body,
		},
	}
}

// scheduleBackup hands job to the queue without waiting for a free slot.
func (s *TransferService) scheduleBackup(job *jobs.Job) {
	if job == nil || s.backups == nil {
		return
	}
	if err := s.backups.TryEnqueue(*job); err != nil {
		s.logger.Warn("pre-import backup not queued", zap.String("job_id", job.ID), zap.Error(err))
	}
}

var sheetHeaders = []string{"Day", "Start", "End", "Course", "Type", "Room", "Instructor"}

type sheetRow struct {
	day   int
	start models.ClockTime
	cells map[string]string
}

func buildSheet(sem models.Semester, tt models.Timetable) export.Dataset {
	rows := make([]sheetRow, 0, len(tt.Classes))
	credits := 0
	counted := make(map[string]struct{})
	for _, cls := range tt.Classes {
		label := cls.CourseID
		if idx := sem.FindCourse(cls.CourseID); idx >= 0 {
			course := sem.Courses[idx]
			label = strings.TrimSpace(course.Code + " " + course.Name)
			if _, seen := counted[course.ID]; !seen {
				counted[course.ID] = struct{}{}
				credits += course.Credits
			}
		}
		start, _ := models.ParseClockTime(cls.StartTime)
		for _, day := range cls.Days {
			rows = append(rows, sheetRow{
				day:   models.WeekdayIndex(day),
				start: start,
				cells: map[string]string{
					"Day":        day,
					"Start":      cls.StartTime,
					"End":        cls.EndTime,
					"Course":     label,
					"Type":       string(cls.Type),
					"Room":       cls.Room,
					"Instructor": cls.Instructor,
				},
			})
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].day != rows[j].day {
			return rows[i].day < rows[j].day
		}
		return rows[i].start < rows[j].start
	})

	data := export.Dataset{
		Headers: sheetHeaders,
		Rows:    make([]map[string]string, 0, len(rows)),
		Notes: []string{
			"Semester: " + sem.Name,
			"Total credits: " + strconv.Itoa(credits),
		},
	}
	for _, row := range rows {
		data.Rows = append(data.Rows, row.cells)
	}
	return data
}

func encodeDocument(semesters []models.Semester) ([]byte, error) {
	if semesters == nil {
		semesters = []models.Semester{}
	}
	body, err := json.MarshalIndent(semesters, "", "  ")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode export")
	}
	return body, nil
}

func sanitizeFilename(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "timetable"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "\"", "")
	result := []rune(replacer.Replace(raw))
	if len(result) > maxFilenameRunes {
		result = result[:maxFilenameRunes]
	}
	return string(result)
}
