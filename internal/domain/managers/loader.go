package managers

import (
	"os"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"
)

// LoadFile reads the directory from a JSON file keyed by abbreviation.
func LoadFile(path string) (Directory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read managers config %s", path)
	}
	var d Directory
	if err := sonic.Unmarshal(data, &d); err != nil {
		return nil, errors.Wrapf(err, "decode managers config %s", path)
	}
	normalized := make(Directory, len(d))
	for abbr, team := range d {
		normalized[strings.ToUpper(strings.TrimSpace(abbr))] = team
	}
	return normalized, nil
}
