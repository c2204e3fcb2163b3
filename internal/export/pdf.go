package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// toPDF places the capture edge to edge on a single page of width x height
// points.
func toPDF(data []byte, width, height float64, created time.Time, title string) ([]byte, error) {
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: width, Ht: height},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreationDate(created)
	pdf.SetTitle(title, true)
	pdf.SetCreator("tickethub", true)
	pdf.AddPage()

	opt := gofpdf.ImageOptions{ImageType: "png"}
	pdf.RegisterImageOptionsReader("ticket", opt, bytes.NewReader(data))
	pdf.ImageOptions("ticket", 0, 0, width, height, false, opt, 0, "")
	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("build pdf: %w", err)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}
