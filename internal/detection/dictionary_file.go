package detection

import (
	"encoding/json"
	"os"

	"github.com/pkg/errors"
)

// dictionaryFile is the JSON form of a dictionary. Codes are listed as rows
// of cell strings, "1" for white, so printed dictionaries can be transcribed.
type dictionaryFile struct {
	Name          string     `json:"name"`
	Size          int        `json:"size"`
	MaxCorrection int        `json:"max_correction"`
	Markers       [][]string `json:"markers"`
}

// LoadDictionary reads a dictionary from a JSON file of the form
//
//	{"name": "custom", "size": 5, "max_correction": 1,
//	 "markers": [["10110", "01001", ...], ...]}
func LoadDictionary(path string) (*Dictionary, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read dictionary %q", path)
	}
	var doc dictionaryFile
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, errors.Wrapf(err, "parse dictionary %q", path)
	}
	if doc.Size < 3 || doc.Size > 8 {
		return nil, errors.Errorf("dictionary %q: size must be between 3 and 8, got %d", path, doc.Size)
	}
	if len(doc.Markers) == 0 {
		return nil, errors.Errorf("dictionary %q: no markers", path)
	}

	d := &Dictionary{Name: doc.Name, Size: doc.Size, MaxCorrection: doc.MaxCorrection, Codes: make([]uint64, len(doc.Markers))}
	for id, rows := range doc.Markers {
		if len(rows) != doc.Size {
			return nil, errors.Errorf("dictionary %q: marker %d has %d rows, want %d", path, id, len(rows), doc.Size)
		}
		for r, row := range rows {
			if len(row) != doc.Size {
				return nil, errors.Errorf("dictionary %q: marker %d row %d has %d cells, want %d", path, id, r, len(row), doc.Size)
			}
			for c, cell := range row {
				switch cell {
				case '1':
					d.Codes[id] |= cellBit(r, c, doc.Size)
				case '0':
				default:
					return nil, errors.Errorf("dictionary %q: marker %d row %d: invalid cell %q", path, id, r, cell)
				}
			}
		}
	}
	return d, nil
}
