package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"lan_exam_backend/internal/model"
	"lan_exam_backend/internal/repository"
	"lan_exam_backend/internal/util"
	"lan_exam_backend/pkg/logger"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const (
	ExportCSV  = "csv"
	ExportXLSX = "xlsx"

	resultsSheet    = "Results"
	tabSwitchSheet  = "Tab Switches"
	exportTimestamp = "2006-01-02 15:04:05"
)

var (
	resultHeader    = []string{"Rank", "Username", "IP Address", "Score", "Total Questions", "Percentage", "Submitted At"}
	tabSwitchHeader = []string{"Username", "IP Address", "Max Switches"}
)

type ReportService struct {
	ResultRepo  *repository.ResultRepository
	TabRepo     *repository.TabSwitchRepository
	SessionRepo *repository.SessionRepository
	Storage     *StorageService
}

func NewReportService(
	resultRepo *repository.ResultRepository,
	tabRepo *repository.TabSwitchRepository,
	sessionRepo *repository.SessionRepository,
	storage *StorageService,
) *ReportService {
	return &ReportService{
		ResultRepo:  resultRepo,
		TabRepo:     tabRepo,
		SessionRepo: sessionRepo,
		Storage:     storage,
	}
}

// Results 按分数降序、提交时间升序
func (s *ReportService) Results(ctx context.Context) ([]model.ResultRow, error) {
	rows, err := s.ResultRepo.ListRanked(ctx)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].Percentage = util.Percentage(rows[i].Score, rows[i].TotalQuestions)
	}
	return rows, nil
}

func (s *ReportService) TabSwitches(ctx context.Context) ([]model.TabSwitchSummary, error) {
	return s.TabRepo.Summaries(ctx)
}

func (s *ReportService) Sessions(ctx context.Context) ([]model.SessionRow, error) {
	return s.SessionRepo.ListWithUsers(ctx)
}

// Export 将成绩排名和切屏汇总写入 w，返回文件名和 MIME 类型
func (s *ReportService) Export(ctx context.Context, admin, format string, w io.Writer) (string, string, error) {
	results, err := s.Results(ctx)
	if err != nil {
		return "", "", err
	}
	switches, err := s.TabSwitches(ctx)
	if err != nil {
		return "", "", err
	}

	var filename, mime string
	switch format {
	case "", ExportCSV:
		filename, mime = "exam_results.csv", util.MimeCSV
		err = writeCSV(w, results, switches)
	case ExportXLSX:
		filename, mime = "exam_results.xlsx", util.MimeXLSX
		err = writeXLSX(w, results, switches)
	default:
		return "", "", util.ErrInvalidInput
	}
	if err != nil {
		return "", "", err
	}

	logger.Log.Info("Admin exported results", zap.String("admin", admin), zap.String("format", format))
	return filename, mime, nil
}

// Archive 生成 XLSX 报表并写入存储后端，返回对象地址
func (s *ReportService) Archive(ctx context.Context, admin string) (string, error) {
	var buf bytes.Buffer
	if _, _, err := s.Export(ctx, admin, ExportXLSX, &buf); err != nil {
		return "", err
	}

	name := fmt.Sprintf("exam_results_%s.xlsx", time.Now().Format("20060102_150405"))
	url, err := s.Storage.Upload(ctx, name, &buf, int64(buf.Len()), util.MimeXLSX)
	if err != nil {
		return "", err
	}
	logger.Log.Info("Admin archived results", zap.String("admin", admin), zap.String("object", url))
	return url, nil
}

func resultRecord(rank int, r model.ResultRow) []string {
	return []string{
		strconv.Itoa(rank),
		r.Username,
		r.IPAddress,
		strconv.Itoa(r.Score),
		strconv.Itoa(r.TotalQuestions),
		strconv.FormatFloat(r.Percentage, 'f', 2, 64) + "%",
		r.SubmittedAt.Format(exportTimestamp),
	}
}

func writeCSV(w io.Writer, results []model.ResultRow, switches []model.TabSwitchSummary) error {
	cw := csv.NewWriter(w)
	records := [][]string{resultHeader}
	for i, r := range results {
		records = append(records, resultRecord(i+1, r))
	}
	records = append(records, []string{}, []string{"TAB SWITCHES"}, tabSwitchHeader)
	for _, t := range switches {
		records = append(records, []string{t.Username, t.IPAddress, strconv.Itoa(t.MaxSwitches)})
	}
	return cw.WriteAll(records)
}

func writeXLSX(w io.Writer, results []model.ResultRow, switches []model.TabSwitchSummary) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", resultsSheet); err != nil {
		return err
	}
	if _, err := f.NewSheet(tabSwitchSheet); err != nil {
		return err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	if err := setRow(f, resultsSheet, 1, toCells(resultHeader)); err != nil {
		return err
	}
	for i, r := range results {
		row := []interface{}{
			i + 1,
			r.Username,
			r.IPAddress,
			r.Score,
			r.TotalQuestions,
			r.Percentage,
			r.SubmittedAt.Format(exportTimestamp),
		}
		if err := setRow(f, resultsSheet, i+2, row); err != nil {
			return err
		}
	}

	if err := setRow(f, tabSwitchSheet, 1, toCells(tabSwitchHeader)); err != nil {
		return err
	}
	for i, t := range switches {
		if err := setRow(f, tabSwitchSheet, i+2, []interface{}{t.Username, t.IPAddress, t.MaxSwitches}); err != nil {
			return err
		}
	}

	for _, sheet := range []string{resultsSheet, tabSwitchSheet} {
		if err := f.SetRowStyle(sheet, 1, 1, bold); err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, "A", "G", 18); err != nil {
			return err
		}
	}

	_, err = f.WriteTo(w)
	return err
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func toCells(values []string) []interface{} {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return cells
}
