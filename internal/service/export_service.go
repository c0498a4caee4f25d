package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/schoolops/board-api/internal/dto"
	"github.com/schoolops/board-api/internal/models"
	"github.com/schoolops/board-api/pkg/export"
	"github.com/schoolops/board-api/pkg/storage"
)

type dayBoardSource interface {
	DayView(ctx context.Context, date string) (dto.DayBoardView, error)
	TeacherView(ctx context.Context, date, teacherID string) (dto.TeacherBoardView, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ExportFormat
	ExpiresAt    time.Time
}

// ExportService renders day sheets from board queues and persists the files.
type ExportService struct {
	boards  dayBoardSource
	storage fileStorage
	csv     csvRenderer
	pdf     pdfRenderer
	signer  *storage.SignedURLSigner
	logger  *zap.Logger
	cfg     ExportConfig
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// NewExportService constructs an ExportService.
func NewExportService(boards dayBoardSource, storage fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		boards:  boards,
		storage: storage,
		csv:     csv,
		pdf:     pdf,
		signer:  signer,
		logger:  logger,
		cfg:     cfg,
	}
}

// Generate builds the day sheet for the job and stores the rendered export.
func (s *ExportService) Generate(ctx context.Context, job *models.ExportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	dataset, title, err := s.buildDataset(ctx, job.Params)
	if err != nil {
		return nil, err
	}

	var payload []byte
	switch job.Params.Format {
	case models.ExportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ExportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
	default:
		err = fmt.Errorf("unsupported format %s", job.Params.Format)
	}
	if err != nil {
		return nil, err
	}

	filename := s.buildFilename(job)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}
	signedURL := fmt.Sprintf("%s/exports/download/%s", prefix, token)

	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          signedURL,
		Format:       job.Params.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

var daySheetHeaders = []string{"Teacher", "Start", "End", "Duration (min)", "Location", "Status", "Gap Before (min)"}

// buildDataset flattens the requested queues into day-sheet rows. The gap
// column is blank for the first event of each teacher.
func (s *ExportService) buildDataset(ctx context.Context, params models.ExportJobParams) (export.Dataset, string, error) {
	var boards []dto.TeacherBoardView
	if params.TeacherID != "" {
		view, err := s.boards.TeacherView(ctx, params.Date, params.TeacherID)
		if err != nil {
			return export.Dataset{}, "", err
		}
		boards = []dto.TeacherBoardView{view}
	} else {
		day, err := s.boards.DayView(ctx, params.Date)
		if err != nil {
			return export.Dataset{}, "", err
		}
		boards = day.Teachers
	}

	rows := make([]map[string]string, 0)
	for _, board := range boards {
		gapBefore := make(map[string]int, len(board.Gaps))
		for _, gap := range board.Gaps {
			gapBefore[gap.BeforeEventID] = gap.Minutes
		}
		for i, ev := range board.Events {
			row := map[string]string{
				"Teacher":        board.TeacherID,
				"Start":          ev.StartTime,
				"End":            ev.EndTime,
				"Duration (min)": fmt.Sprintf("%d", ev.DurationMinutes),
				"Location":       ev.Location,
				"Status":         string(ev.Status),
			}
			if i > 0 {
				row["Gap Before (min)"] = fmt.Sprintf("%d", gapBefore[ev.ID])
			}
			rows = append(rows, row)
		}
	}

	dataset := export.Dataset{Headers: daySheetHeaders, Rows: rows}
	title := fmt.Sprintf("Day Sheet %s", params.Date)
	if params.TeacherID != "" {
		title = fmt.Sprintf("Day Sheet %s - %s", params.Date, params.TeacherID)
	}
	return dataset, title, nil
}

func (s *ExportService) buildFilename(job *models.ExportJob) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	scope := "all"
	if job.Params.TeacherID != "" {
		scope = sanitizeFilename(job.Params.TeacherID)
	}
	return fmt.Sprintf("daysheet_%s_%s_%s.%s", sanitizeFilename(job.Params.Date), scope, timestamp, job.Params.Format)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
