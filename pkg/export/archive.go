package export

import (
	"archive/zip"
	"bytes"
	"fmt"

	"github.com/akovalev/qa-docgen/pkg/domain"
)

// Archive bundles every view of the document set into a zip, grouped by
// rendering: markdown/ and html/ hold all views, csv/ only the tabular ones.
func Archive(docs domain.DocumentSet) ([]byte, error) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)

	for _, view := range Views() {
		md, err := Markdown(docs, view)
		if err != nil {
			return nil, err
		}
		if err := writeEntry(w, fmt.Sprintf("markdown/%s.md", view), []byte(md)); err != nil {
			return nil, err
		}

		page, err := HTML(docs, view)
		if err != nil {
			return nil, err
		}
		if err := writeEntry(w, fmt.Sprintf("html/%s.html", view), page); err != nil {
			return nil, err
		}

		if !view.Tabular() {
			continue
		}
		table, err := CSV(docs, view)
		if err != nil {
			return nil, err
		}
		if err := writeEntry(w, fmt.Sprintf("csv/%s.csv", view), table); err != nil {
			return nil, err
		}
	}

	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finalizing archive: %w", err)
	}

	return buf.Bytes(), nil
}

func writeEntry(w *zip.Writer, name string, data []byte) error {
	f, err := w.Create(name)
	if err != nil {
		return fmt.Errorf("creating archive entry %s: %w", name, err)
	}
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("writing archive entry %s: %w", name, err)
	}
	return nil
}
