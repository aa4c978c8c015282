package workshop

import (
	"bufio"
	"os"
	"strings"

	"github.com/turtacn/Perennis/pkg/errors"
)

const itemsKey = "WorkshopItems="

// ReadItems returns the workshop ids listed on the WorkshopItems= line of a
// server ini file, in file order. Commented lines are ignored. A file without
// the line yields an empty list.
func ReadItems(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.New(errors.ErrCodeModListRead, "ReadItems", "cannot open "+path, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if strings.HasPrefix(line, "#") || !strings.HasPrefix(line, itemsKey) {
			continue
		}
		return splitItems(strings.TrimPrefix(line, itemsKey)), nil
	}
	if err := sc.Err(); err != nil {
		return nil, errors.New(errors.ErrCodeModListRead, "ReadItems", "cannot read "+path, err)
	}
	return []string{}, nil
}

func splitItems(value string) []string {
	seen := make(map[string]struct{})
	ids := []string{}
	for _, part := range strings.Split(value, ";") {
		id := strings.TrimSpace(part)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

// Personal.AI order the ending
