package service

import (
	"context"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schoolops/board-api/internal/models"
	"github.com/schoolops/board-api/pkg/storage"
)

type stubFileStorage struct {
	mu      sync.Mutex
	files   map[string][]byte
	deleted []string
}

func newStubFileStorage() *stubFileStorage {
	return &stubFileStorage{files: make(map[string][]byte)}
}

func (s *stubFileStorage) Save(filename string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[filename] = data
	return filename, nil
}

func (s *stubFileStorage) Open(string) (*os.File, error) { return nil, nil }

func (s *stubFileStorage) Delete(filename string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, filename)
	delete(s.files, filename)
	return nil
}

func (s *stubFileStorage) CleanupOlderThan(time.Duration) ([]string, error) { return nil, nil }

func newExportFixture() (*ExportService, *stubFileStorage) {
	repo := newStubEventRepo(
		boardLesson("a", "t1", 540, 60),
		boardLesson("b", "t1", 615, 30),
		boardLesson("c", "t2", 600, 45),
	)
	boards := newBoardServiceForTest(repo)
	files := newStubFileStorage()
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)
	svc := NewExportService(boards, files, signer, ExportConfig{APIPrefix: "/api/v1"}, nil, nil, nil)
	return svc, files
}

func TestExportServiceGeneratesDaySheetCSV(t *testing.T) {
	svc, files := newExportFixture()

	job := &models.ExportJob{
		ID:     "job-1",
		Params: models.ExportJobParams{Date: "2025-03-14", Format: models.ExportFormatCSV},
	}
	result, err := svc.Generate(context.Background(), job)
	require.NoError(t, err)

	assert.Equal(t, models.ExportFormatCSV, result.Format)
	assert.True(t, strings.HasPrefix(result.URL, "/api/v1/exports/download/"))
	assert.NotEmpty(t, result.Token)

	payload, ok := files.files[result.RelativePath]
	require.True(t, ok)
	content := string(payload)
	assert.Contains(t, content, "Teacher,Start,End")
	assert.Contains(t, content, "t1,09:00,10:00,60,Main Hall,PLANNED")
	// Second t1 event sits 15 minutes after the first ends.
	assert.Contains(t, content, "t1,10:15,10:45,30,Main Hall,PLANNED,0")
	assert.Contains(t, content, "t2,10:00,10:45,45,Main Hall,PLANNED")
}

func TestExportServiceScopesToOneTeacher(t *testing.T) {
	svc, files := newExportFixture()

	job := &models.ExportJob{
		ID:     "job-2",
		Params: models.ExportJobParams{Date: "2025-03-14", TeacherID: "t2", Format: models.ExportFormatCSV},
	}
	result, err := svc.Generate(context.Background(), job)
	require.NoError(t, err)

	content := string(files.files[result.RelativePath])
	assert.Contains(t, content, "t2,")
	assert.NotContains(t, content, "t1,")
	assert.Contains(t, result.RelativePath, "daysheet_2025-03-14_t2_")
}

func TestExportServiceRejectsUnknownFormat(t *testing.T) {
	svc, _ := newExportFixture()

	job := &models.ExportJob{
		ID:     "job-3",
		Params: models.ExportJobParams{Date: "2025-03-14", Format: models.ExportFormat("xlsx")},
	}
	_, err := svc.Generate(context.Background(), job)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported format")
}

func TestExportServiceTokenRoundTrip(t *testing.T) {
	svc, _ := newExportFixture()

	job := &models.ExportJob{
		ID:     "job-4",
		Params: models.ExportJobParams{Date: "2025-03-14", Format: models.ExportFormatCSV},
	}
	result, err := svc.Generate(context.Background(), job)
	require.NoError(t, err)

	jobID, relPath, _, err := svc.ParseToken(result.Token, false)
	require.NoError(t, err)
	assert.Equal(t, "job-4", jobID)
	assert.Equal(t, result.RelativePath, relPath)
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "na", sanitizeFilename(""))
	assert.Equal(t, "a_b-c", sanitizeFilename("a b/c"))
	assert.Equal(t, "x-y", sanitizeFilename("x:y"))
}
