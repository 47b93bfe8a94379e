package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Lot holds the two values of a lot config file:
//
//	total_spaces = 20
//	rows = 4
//
// Other lines are ignored. A missing key leaves its value at zero.
type Lot struct {
	TotalSpaces int
	Rows        int
}

func ParseLot(r io.Reader) (Lot, error) {
	var lot Lot

	scanner := bufio.NewScanner(r)
	for lineNo := 1; scanner.Scan(); lineNo++ {
		key, value, ok := strings.Cut(strings.TrimSpace(scanner.Text()), "=")
		if !ok {
			continue
		}

		var target *int
		switch strings.TrimSpace(key) {
		case "total_spaces":
			target = &lot.TotalSpaces
		case "rows":
			target = &lot.Rows
		default:
			continue
		}

		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return Lot{}, fmt.Errorf("line %d: invalid value for %s: %w", lineNo, strings.TrimSpace(key), err)
		}
		*target = n
	}
	if err := scanner.Err(); err != nil {
		return Lot{}, fmt.Errorf("read lot config: %w", err)
	}

	return lot, nil
}

func LoadLotFile(path string) (Lot, error) {
	f, err := os.Open(path)
	if err != nil {
		return Lot{}, fmt.Errorf("open lot config: %w", err)
	}
	defer f.Close()

	lot, err := ParseLot(f)
	if err != nil {
		return Lot{}, fmt.Errorf("%s: %w", path, err)
	}
	return lot, nil
}
