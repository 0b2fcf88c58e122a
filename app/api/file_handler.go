package api

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofiber/fiber/v2"
)

// FileHandler accepts PDF uploads and drops them into the OCR source
// folder, where the next ocrpdf run picks them up.
type FileHandler struct {
	sourceDir string
}

func NewFileHandler(sourceDir string) *FileHandler {
	return &FileHandler{
		sourceDir: sourceDir,
	}
}

func (h *FileHandler) HandleUpload(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return ErrBadRequest()
	}

	if filepath.Ext(file.Filename) != ".pdf" {
		return NewError(fiber.StatusBadRequest, "only PDF files are accepted")
	}

	if err := os.MkdirAll(h.sourceDir, 0755); err != nil {
		return err
	}

	path := filepath.Join(h.sourceDir, filepath.Base(file.Filename))
	if err := c.SaveFile(file, path); err != nil {
		fmt.Println(err)
		return err
	}
	fmt.Printf("[UPLOAD] File successfully saved to: %s\n", path)

	return c.JSON(fiber.Map{"saved": path})
}
