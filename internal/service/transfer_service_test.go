package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-builder/internal/dto"
	"github.com/noah-isme/timetable-builder/internal/models"
	"github.com/noah-isme/timetable-builder/internal/repository"
	appErrors "github.com/noah-isme/timetable-builder/pkg/errors"
	"github.com/noah-isme/timetable-builder/pkg/jobs"
	"github.com/noah-isme/timetable-builder/pkg/storage"
)

type capturingQueue struct {
	jobs []jobs.Job
}

func (q *capturingQueue) TryEnqueue(job jobs.Job) error {
	q.jobs = append(q.jobs, job)
	return nil
}

type transferFixture struct {
	semesters *SemesterService
	transfer  *TransferService
	store     *repository.SemesterStore
	files     *storage.LocalStorage
	queue     *capturingQueue
}

func newTransferFixture(t *testing.T) transferFixture {
	t.Helper()
	store := repository.NewSemesterStore(repository.NewMemoryMedium(), repository.StoreOptions{})
	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	lock := NewWriterLock(nil)
	clock := &stepClock{now: time.Date(2024, 8, 1, 9, 0, 0, 0, time.UTC)}
	ids := sequentialIDs()
	queue := &capturingQueue{}
	return transferFixture{
		semesters: NewSemesterService(store, lock, nil, nil, WithIDGenerator(ids), WithClock(clock.Now)),
		transfer: NewTransferService(store, lock, files, storage.NewSignedURLSigner("secret", time.Hour), queue,
			TransferConfig{APIPrefix: "/api/v1"}, nil, WithIDGenerator(ids), WithClock(clock.Now)),
		store: store,
		files: files,
		queue: queue,
	}
}

func seedFall2024(t *testing.T, svc *SemesterService) (models.Semester, models.Timetable) {
	t.Helper()
	ctx := context.Background()
	sem, err := svc.CreateSemester(ctx, dto.CreateSemesterRequest{Name: "Fall 2024"})
	require.NoError(t, err)
	course, err := svc.AddCourse(ctx, sem.ID, dto.CourseRequest{Code: "CS101", Name: "Intro to CS", Credits: 3})
	require.NoError(t, err)
	lecture, err := svc.AddClass(ctx, sem.ID, course.ID, lectureRequest())
	require.NoError(t, err)
	lab := lectureRequest()
	lab.Type = "lab"
	lab.StartTime, lab.EndTime = "08:00", "09:00"
	lab.Days = []string{"Monday"}
	labClass, err := svc.AddClass(ctx, sem.ID, course.ID, lab)
	require.NoError(t, err)
	tt, err := svc.CreateTimetable(ctx, sem.ID, dto.CreateTimetableRequest{Name: "Plan A", ClassIDs: []string{lecture.ID, labClass.ID}})
	require.NoError(t, err)
	got, err := svc.GetSemester(ctx, sem.ID)
	require.NoError(t, err)
	return *got, *tt
}

func TestTransferServiceRoundTrip(t *testing.T) {
	fx := newTransferFixture(t)
	ctx := context.Background()
	seedFall2024(t, fx.semesters)
	_, err := fx.semesters.CreateSemester(ctx, dto.CreateSemesterRequest{Name: "Spring 2025"})
	require.NoError(t, err)

	before, err := fx.semesters.ListSemesters(ctx)
	require.NoError(t, err)

	doc, err := fx.transfer.ExportAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, "application/json", doc.ContentType)
	assert.True(t, strings.HasPrefix(doc.Filename, "timetable-backup-2024-08-01"))
	assert.Contains(t, string(doc.Body), "\n  {")

	other := newTransferFixture(t)
	result, err := other.transfer.ImportAll(ctx, doc.Body)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Semesters)

	after, err := other.semesters.ListSemesters(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestTransferServiceImportRejectsObject(t *testing.T) {
	fx := newTransferFixture(t)
	ctx := context.Background()
	seedFall2024(t, fx.semesters)
	before, err := fx.semesters.ListSemesters(ctx)
	require.NoError(t, err)
	rev := fx.store.Revision()

	for _, doc := range []string{`{"id":"s-1"}`, `null`, `[1,2]`, `[{"name":"no id"}]`, `[{"id":"a"},{"id":"a"}]`, `not json`} {
		_, err := fx.transfer.ImportAll(ctx, []byte(doc))
		require.Error(t, err, doc)
		assert.True(t, appErrors.IsCode(err, appErrors.ErrFormat.Code), doc)
	}

	after, err := fx.semesters.ListSemesters(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, rev, fx.store.Revision())
	assert.Empty(t, fx.queue.jobs)
}

func TestTransferServiceImportReplacesAndQueuesBackup(t *testing.T) {
	fx := newTransferFixture(t)
	ctx := context.Background()
	seedFall2024(t, fx.semesters)

	result, err := fx.transfer.ImportAll(ctx, []byte(`[{"id":"s-9","name":"Imported"}]`))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Semesters)
	assert.Equal(t, fx.store.Revision(), result.Revision)

	all, err := fx.semesters.ListSemesters(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Imported", all[0].Name)
	assert.NotNil(t, all[0].Courses)

	require.Len(t, fx.queue.jobs, 1)
	job := fx.queue.jobs[0]
	assert.Equal(t, JobTypePreImportBackup, job.Type)
	require.NoError(t, fx.transfer.BackupHandler()(ctx, job))

	matches, err := filepath.Glob(fx.files.Path(filepath.Join("backups", "pre-import-*.json")))
	require.NoError(t, err)
	require.Len(t, matches, 1)
	body, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	restored, err := repository.DecodeSemesters(body)
	require.NoError(t, err)
	require.Len(t, restored, 1)
	assert.Equal(t, "Fall 2024", restored[0].Name)
}

func TestTransferServiceImportHonoursExpectedRevision(t *testing.T) {
	fx := newTransferFixture(t)
	ctx := context.Background()
	seedFall2024(t, fx.semesters)

	_, err := fx.transfer.ImportAll(WithExpectedRevision(ctx, 0), []byte(`[]`))
	assert.True(t, appErrors.IsCode(err, appErrors.ErrPreconditionFailed.Code))

	all, err := fx.semesters.ListSemesters(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestTransferServiceSavedExport(t *testing.T) {
	fx := newTransferFixture(t)
	ctx := context.Background()
	seedFall2024(t, fx.semesters)

	saved, err := fx.transfer.SaveExport(ctx)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(saved.URL, "/api/v1/export/files/"))
	assert.True(t, saved.ExpiresAt.After(time.Now()))

	doc, err := fx.transfer.OpenExport(saved.Token)
	require.NoError(t, err)
	assert.Equal(t, saved.Filename, doc.Filename)

	exported, err := fx.transfer.ExportAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, exported.Body, doc.Body)

	_, err = fx.transfer.OpenExport(saved.Token + "x")
	assert.True(t, appErrors.IsCode(err, appErrors.ErrNotFound.Code))

	removed, err := fx.transfer.CleanupExports(time.Nanosecond)
	require.NoError(t, err)
	assert.Len(t, removed, 1)
}

func TestTransferServiceTimetableSheetCSV(t *testing.T) {
	fx := newTransferFixture(t)
	ctx := context.Background()
	sem, tt := seedFall2024(t, fx.semesters)

	doc, err := fx.transfer.TimetableSheet(ctx, sem.ID, tt.ID, "csv")
	require.NoError(t, err)
	assert.Equal(t, "Plan_A.csv", doc.Filename)
	assert.Equal(t, "text/csv", doc.ContentType)

	records, err := csv.NewReader(bytes.NewReader(doc.Body)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, sheetHeaders, records[0])
	assert.Equal(t, []string{"Monday", "08:00", "09:00", "CS101 Intro to CS", "lab", "B12", "Dr. Ada"}, records[1])
	assert.Equal(t, "Monday", records[2][0])
	assert.Equal(t, "09:00", records[2][1])
	assert.Equal(t, "Wednesday", records[3][0])
}

func TestTransferServiceTimetableSheetPDFAndErrors(t *testing.T) {
	fx := newTransferFixture(t)
	ctx := context.Background()
	sem, tt := seedFall2024(t, fx.semesters)

	doc, err := fx.transfer.TimetableSheet(ctx, sem.ID, tt.ID, "pdf")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", doc.ContentType)
	assert.True(t, bytes.HasPrefix(doc.Body, []byte("%PDF")))

	_, err = fx.transfer.TimetableSheet(ctx, sem.ID, tt.ID, "xlsx")
	assert.True(t, appErrors.IsCode(err, appErrors.ErrValidation.Code))
	_, err = fx.transfer.TimetableSheet(ctx, sem.ID, "missing", "csv")
	assert.True(t, appErrors.IsCode(err, appErrors.ErrNotFound.Code))
	_, err = fx.transfer.TimetableSheet(ctx, "missing", tt.ID, "csv")
	assert.True(t, appErrors.IsCode(err, appErrors.ErrNotFound.Code))
}

func TestBuildSheetCountsCreditsOnce(t *testing.T) {
	sem := models.Semester{
		Name: "Fall",
		Courses: []models.Course{
			{ID: "c-1", Code: "CS101", Credits: 3},
			{ID: "c-2", Code: "MA201", Credits: 4},
		},
	}
	tt := models.Timetable{Classes: []models.Class{
		{ID: "a", CourseID: "c-1", StartTime: "10:00", Days: []string{"Tuesday"}},
		{ID: "b", CourseID: "c-1", StartTime: "08:00", Days: []string{"Tuesday"}},
		{ID: "c", CourseID: "c-2", StartTime: "12:00", Days: []string{"Monday"}},
		{ID: "d", CourseID: "gone", StartTime: "07:00", Days: []string{"Friday"}},
	}}

	data := buildSheet(sem, tt)
	assert.Equal(t, []string{"Semester: Fall", "Total credits: 7"}, data.Notes)
	require.Len(t, data.Rows, 4)
	assert.Equal(t, "MA201", data.Rows[0]["Course"])
	assert.Equal(t, "08:00", data.Rows[1]["Start"])
	assert.Equal(t, "10:00", data.Rows[2]["Start"])
	assert.Equal(t, "gone", data.Rows[3]["Course"])
}

func TestTransferServiceImportDoesNotWaitForBackupQueue(t *testing.T) {
	fx := newTransferFixture(t)
	ctx := context.Background()
	seedFall2024(t, fx.semesters)

	release := make(chan struct{})
	queue := jobs.NewQueue("backups", func(context.Context, jobs.Job) error {
		<-release
		return nil
	}, jobs.QueueConfig{Workers: 1, BufferSize: 1})
	queue.Start(context.Background())
	defer queue.Stop()
	defer close(release)
	fx.transfer.SetBackupQueue(queue)

	done := make(chan error, 1)
	go func() {
		for i := 0; i < 4; i++ {
			doc := []byte(`[{"id":"s-` + strconv.Itoa(i) + `","name":"Imported"}]`)
			if _, err := fx.transfer.ImportAll(ctx, doc); err != nil {
				done <- err
				return
			}
		}
		_, err := fx.semesters.CreateSemester(ctx, dto.CreateSemesterRequest{Name: "After imports"})
		done <- err
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("imports blocked on a full backup queue")
	}

	all, err := fx.semesters.ListSemesters(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "s-3", all[0].ID)
}

func TestTransferServiceDeleteExport(t *testing.T) {
	fx := newTransferFixture(t)
	ctx := context.Background()
	seedFall2024(t, fx.semesters)

	saved, err := fx.transfer.SaveExport(ctx)
	require.NoError(t, err)

	require.NoError(t, fx.transfer.DeleteExport(saved.Token))
	_, err = fx.transfer.OpenExport(saved.Token)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrNotFound.Code))
	require.NoError(t, fx.transfer.DeleteExport(saved.Token))

	err = fx.transfer.DeleteExport("bogus")
	assert.True(t, appErrors.IsCode(err, appErrors.ErrNotFound.Code))
}

func TestSanitizeFilenameKeepsWholeRunes(t *testing.T) {
	name := sanitizeFilename(strings.Repeat("é", 150))
	assert.True(t, utf8.ValidString(name))
	assert.Equal(t, maxFilenameRunes, utf8.RuneCountInString(name))

	assert.Equal(t, "Plan_A-B", sanitizeFilename(" Plan A/B "))
	assert.Equal(t, "timetable", sanitizeFilename("  "))
}
