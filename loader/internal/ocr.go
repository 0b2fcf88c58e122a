package internal

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	_ "golang.org/x/image/tiff"
)

// OCROptions configures the external tesseract invocation.
type OCROptions struct {
	Command string // tesseract binary, path or name on PATH
	Lang    string // e.g. "tha+eng"
	PSM     string
	OEM     string
}

func DefaultOCROptions(command, lang string) OCROptions {
	if command == "" {
		command = "tesseract"
	}
	if lang == "" {
		lang = "tha+eng"
	}
	return OCROptions{Command: command, Lang: lang, PSM: "6", OEM: "1"}
}

// OCRDocument extracts the page scans embedded in a scanned PDF, runs each
// through preprocessing and tesseract, and concatenates the page texts with
// a newline. A page that fails OCR contributes an empty string; one bad
// page never aborts the document. The caller decides what to do with a
// document that yields no usable text.
func OCRDocument(ctx context.Context, pdfPath, workDir string, opts OCROptions) (string, error) {
	pageDir := filepath.Join(workDir, strings.TrimSuffix(filepath.Base(pdfPath), filepath.Ext(pdfPath)))
	if err := os.MkdirAll(pageDir, 0755); err != nil {
		return "", err
	}

	// Scanned PDFs carry each page as one embedded image object.
	conf := api.LoadConfiguration()
	if err := api.ExtractImagesFile(pdfPath, pageDir, nil, conf); err != nil {
		return "", fmt.Errorf("failed to extract page images from %s: %w", pdfPath, err)
	}

	pages, err := listImageFiles(pageDir)
	if err != nil {
		return "", err
	}
	if len(pages) == 0 {
		return "", fmt.Errorf("no page images found in %s", pdfPath)
	}

	var sb strings.Builder
	for i, page := range pages {
		log.Printf("[OCR] page %d/%d of %s", i+1, len(pages), filepath.Base(pdfPath))
		text, err := ocrPage(ctx, page, opts)
		if err != nil {
			log.Printf("[OCR] page %s failed: %v", filepath.Base(page), err)
			text = ""
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

// ocrPage preprocesses one page image, hands it to tesseract, and reads the
// text file tesseract writes next to it.
func ocrPage(ctx context.Context, imgPath string, opts OCROptions) (string, error) {
	prepared, err := preprocessFile(imgPath)
	if err != nil {
		return "", err
	}

	// tesseract appends .txt to the output base on its own
	outBase := strings.TrimSuffix(prepared, filepath.Ext(prepared)) + "_ocr"
	cmd := exec.CommandContext(ctx, opts.Command,
		prepared,
		outBase,
		"-l", opts.Lang,
		"--psm", opts.PSM,
		"--oem", opts.OEM,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("tesseract failed: %w: %s", err, strings.TrimSpace(string(out)))
	}

	data, err := os.ReadFile(outBase + ".txt")
	if err != nil {
		return "", fmt.Errorf("tesseract produced no output file: %w", err)
	}
	return string(data), nil
}

// preprocessFile decodes a page image, applies the binarization pipeline
// and writes the result back as PNG for tesseract.
func preprocessFile(imgPath string) (string, error) {
	f, err := os.Open(imgPath)
	if err != nil {
		return "", err
	}
	img, _, err := image.Decode(f)
	f.Close()
	if err != nil {
		return "", fmt.Errorf("failed to decode %s: %w", imgPath, err)
	}

	processed := Preprocess(img)

	outPath := strings.TrimSuffix(imgPath, filepath.Ext(imgPath)) + "_prep.png"
	out, err := os.Create(outPath)
	if err != nil {
		return "", err
	}
	defer out.Close()
	if err := png.Encode(out, processed); err != nil {
		return "", err
	}
	return outPath, nil
}

// pdfcpu names extracted images <base>_<pageNr>_<objID>.<ext>.
var pageNrPattern = regexp.MustCompile(`_(\d+)_[^_.]+\.[^.]+$`)

// pageNumber parses the page number out of an extracted image filename.
// Returns -1 when the name does not follow pdfcpu's scheme.
func pageNumber(name string) int {
	m := pageNrPattern.FindStringSubmatch(name)
	if m == nil {
		return -1
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return -1
	}
	return n
}

// listImageFiles returns the extracted page images in document order.
// Lexicographic order would put page 10 before page 2, so the sort key is
// the page number from pdfcpu's naming, with the filename as tie-breaker.
func listImageFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".png", ".jpg", ".jpeg", ".tif", ".tiff":
			if strings.Contains(e.Name(), "_prep") {
				continue
			}
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Slice(files, func(i, j int) bool {
		pi, pj := pageNumber(filepath.Base(files[i])), pageNumber(filepath.Base(files[j]))
		if pi != pj {
			return pi < pj
		}
		return files[i] < files[j]
	})
	return files, nil
}
