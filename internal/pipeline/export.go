package pipeline

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"profilematch/internal"
)

// SaveParsedJSON writes docs as an indented JSON array. Non-ASCII text is
// kept as is.
func SaveParsedJSON(docs []internal.DocumentRecord, outputPath string) error {
	if docs == nil {
		docs = []internal.DocumentRecord{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(docs); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(outputPath, buf.Bytes(), 0o644)
}

// LoadParsedJSON reads a file written by SaveParsedJSON. A missing or empty
// file yields an empty list.
func LoadParsedJSON(path string) ([]internal.DocumentRecord, error) {
	blob, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return []internal.DocumentRecord{}, nil
	}
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(blob)) == 0 {
		return []internal.DocumentRecord{}, nil
	}

	var docs []internal.DocumentRecord
	if err := json.Unmarshal(blob, &docs); err != nil {
		return nil, err
	}
	if docs == nil {
		docs = []internal.DocumentRecord{}
	}
	return docs, nil
}

func ExportSlidesToXLSX(docs []internal.DocumentRecord, outputPath string) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	headers := []string{
		"filename", "slide_num", "name", "title", "email", "mobile", "location", "data", "raw_data",
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	r := 2
	for _, doc := range docs {
		for _, slide := range doc.Slides {
			row := r
			set := func(col int, value any) {
				cell, _ := excelize.CoordinatesToCellName(col, row)
				_ = f.SetCellValue(sheet, cell, value)
			}

			p := slide.ParsedData
			set(1, doc.Filename)
			set(2, slide.SlideNum)
			set(3, p.Name)
			set(4, p.Title)
			set(5, p.Email)
			set(6, p.Mobile)
			set(7, p.Location)
			set(8, p.Data)
			set(9, slide.RawData)
			r++
		}
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}
