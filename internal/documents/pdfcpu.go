package documents

import (
	"fmt"
	"os"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

type pdfcpuParser struct {
	conf *model.Configuration
}

// NewPDFParser returns a Parser backed by pdfcpu in relaxed validation mode.
func NewPDFParser() Parser {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &pdfcpuParser{conf: conf}
}

func (p *pdfcpuParser) Parse(path string) (info *ParsedInfo, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	defer func() {
		if r := recover(); r != nil {
			info, err = nil, fmt.Errorf("pdf parser panic: %v", r)
		}
	}()

	ctx, err := api.ReadAndValidate(f, p.conf)
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}

	if ctx.PageCount == 0 {
		if err := ctx.EnsurePageCount(); err != nil {
			return nil, fmt.Errorf("count pages: %w", err)
		}
	}

	return &ParsedInfo{
		PageCount:        ctx.PageCount,
		Encrypted:        ctx.Encrypt != nil,
		Title:            ctx.Title,
		Author:           ctx.Author,
		Subject:          ctx.Subject,
		Creator:          ctx.Creator,
		Producer:         ctx.Producer,
		CreationDate:     parsePDFDate(ctx.XRefTable.CreationDate),
		ModificationDate: parsePDFDate(ctx.ModDate),
	}, nil
}

// parsePDFDate accepts the D:YYYYMMDDHHmmSSOHH'mm' form, tolerating the
// usual deviations, and returns nil for anything unparsable.
func parsePDFDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	if t, ok := types.DateTime(s, true); ok {
		return &t
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t
	}
	return nil
}
