package types

import (
	"os"
	"strconv"
	"strings"
)

// Config collects the retrieval-side settings of the serving process.
// All values come from the environment, with the defaults the knowledge
// bases were tuned against.
type Config struct {
	Backend    string   // "json" or "postgres"
	Partitions []string // partition file paths, scanned as one logical corpus
	TopK       int
	MinScore   float64
}

// LoaderConfig collects the ingestion-side settings.
type LoaderConfig struct {
	SourceDir     string // folder scanned for PDFs needing OCR
	Partition     string // partition file appended to / created
	TempDir       string // workspace for rendered page images and OCR output
	MaxChunkLen   int    // in runes
	TesseractCmd  string
	TesseractLang string
	CropTop       float64 // points trimmed off page tops before text extraction, 0 disables
	CropBottom    float64
}

func ConfigFromEnv() Config {
	return Config{
		Backend:    envStr("KB_BACKEND", "json"),
		Partitions: splitList(envStr("KB_FILES", "pdf_embedding.json")),
		TopK:       envInt("RETRIEVE_TOP_K", 3),
		MinScore:   envFloat("RETRIEVE_MIN_SCORE", 0.3),
	}
}

func LoaderConfigFromEnv() LoaderConfig {
	return LoaderConfig{
		SourceDir:     envStr("OCR_SOURCE_DIR", "data_needtoOcr"),
		Partition:     envStr("KB_OUTPUT_FILE", "pdf_embedding.json"),
		TempDir:       envStr("OCR_TEMP_DIR", "tmp_ocr"),
		MaxChunkLen:   envInt("CHUNK_MAX_LEN", 300),
		TesseractCmd:  envStr("TESSERACT_CMD", "tesseract"),
		TesseractLang: envStr("TESSERACT_LANG", "tha+eng"),
		CropTop:       envFloat("PDF_CROP_TOP", 0),
		CropBottom:    envFloat("PDF_CROP_BOTTOM", 0),
	}
}

func envStr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
