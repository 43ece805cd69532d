package report

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/signintech/gopdf"

	"pet-triage-agent/internal/history"
)

// HistorySource provides the visit records rendered into the report.
type HistorySource interface {
	ListByPet(ctx context.Context, petID int64) ([]history.VisitRecord, error)
}

type Service struct {
	source    HistorySource
	fontPaths []string
}

func NewService(source HistorySource) *Service {
	return &Service{source: source, fontPaths: defaultFontPaths}
}

// The report body is Traditional Chinese, so CJK-capable fonts are probed
// first; DejaVuSans has no CJK glyphs and stays last as a Latin-only
// fallback for the numbers and punctuation.
var defaultFontPaths = []string{
	"/usr/share/fonts/opentype/noto/NotoSansCJK-Regular.ttc",
	"/usr/share/fonts/noto-cjk/NotoSansCJK-Regular.ttc",
	"/usr/share/fonts/truetype/arphic/uming.ttc",
	"/usr/share/fonts/truetype/droid/DroidSansFallbackFull.ttf",
	"/usr/share/fonts/ttf-dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
}

// GenerateVisitReport renders a pet's triage visit history to a PDF.
func (s *Service) GenerateVisitReport(ctx context.Context, petID int64) ([]byte, error) {
	records, err := s.source.ListByPet(ctx, petID)
	if err != nil {
		return nil, fmt.Errorf("load visit history: %w", err)
	}

	pdf := gopdf.GoPdf{}
	pdf.Start(gopdf.Config{PageSize: *gopdf.PageSizeA4})
	pdf.AddPage()

	var fontErr error
	fontLoaded := false
	for _, path := range s.fontPaths {
		if err := pdf.AddTTFFont("Report", path); err == nil {
			fontLoaded = true
			break
		} else {
			fontErr = err
		}
	}
	if !fontLoaded {
		return nil, fmt.Errorf("failed to load font for PDF, ensure a CJK font such as noto-cjk is installed: %w", fontErr)
	}

	if err := pdf.SetFont("Report", "", 20); err != nil {
		return nil, err
	}
	pdf.Cell(nil, "寵物問診紀錄報告")
	pdf.Br(30)

	if err := pdf.SetFont("Report", "", 12); err != nil {
		return nil, err
	}
	pdf.Cell(nil, fmt.Sprintf("產生日期：%s", time.Now().Format("02.01.2006 15:04")))
	pdf.Br(15)
	pdf.Cell(nil, fmt.Sprintf("寵物 ID：%d", petID))
	pdf.Br(25)

	if err := pdf.SetFont("Report", "", 14); err != nil {
		return nil, err
	}
	pdf.Cell(nil, "問診紀錄：")
	pdf.Br(15)

	if err := pdf.SetFont("Report", "", 11); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		pdf.Cell(nil, "- 尚無問診紀錄。")
		pdf.Br(15)
	}
	for _, rec := range records {
		disease := "未確診"
		if rec.DiseaseName != nil {
			disease = *rec.DiseaseName
		}
		line := fmt.Sprintf("- %s [%s] 嚴重度：%s，疾病：%s，建議：%s",
			rec.CreatedAt.Format("2006-01-02"), rec.Title, rec.Severity, disease, rec.FinalAdvice)
		lines, _ := pdf.SplitText(line, 500)
		for _, l := range lines {
			pdf.Cell(nil, l)
			pdf.Br(12)
		}
		pdf.Br(5)
	}

	var buf bytes.Buffer
	if _, err := pdf.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write PDF: %w", err)
	}
	return buf.Bytes(), nil
}
