package internal

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// ExtractText pulls the text layer of every page in document order.
// When top/bottom are non-zero the page headers and footers are cropped
// away first (on a temp copy) so running titles do not pollute the chunks.
func ExtractText(filePath string, cropTop, cropBottom float64) (string, error) {
	if cropTop > 0 || cropBottom > 0 {
		cropped := filepath.Join(os.TempDir(), "cropped_"+filepath.Base(filePath))
		defer os.Remove(cropped)
		if err := cropHeaderFooter(filePath, cropped, cropTop, cropBottom); err != nil {
			return "", err
		}
		filePath = cropped
	}

	f, rdr, err := pdf.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}
	defer f.Close()

	b, err := rdr.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to read pdf text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, b); err != nil {
		return "", fmt.Errorf("failed to read pdf buffer: %w", err)
	}
	return buf.String(), nil
}

// cropHeaderFooter trims the top and bottom page margins.
// top and bottom are in points (1 pt = 1/72 inch).
func cropHeaderFooter(inputPath, outputPath string, top, bottom float64) error {
	conf := api.LoadConfiguration()

	pages := []string{"1-"}

	cropStr := fmt.Sprintf(
		"%.2f 0 %.2f 0",
		top,
		bottom,
	)

	box, err := model.ParseBox(cropStr, types.POINTS)
	if err != nil {
		return fmt.Errorf("failed to parse crop box: %w", err)
	}

	if err := api.CropFile(inputPath, outputPath, pages, box, conf); err != nil {
		return fmt.Errorf("failed to crop PDF: %w", err)
	}

	return nil
}
