package main

import (
	"compress/gzip"
	"fmt"
	"log"
	"os"
	"path/filepath"
)

// Generates sample grant files for cmd/couponissue. They assume users 1-4,
// coupon 1 enabled, coupon 2 disabled and no coupon 99.
//
//	grants-welcome.gz : users 1-3 get coupon 1, one duplicate line
//	grants-mixed.gz   : user 4 gets coupons 1, 2 and 99
//
// Issuing both files grants coupon 1 to users 1-4 and skips the rest.
func main() {
	dataDir := "data/grants"

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		log.Fatalf("Failed to create directory: %v", err)
	}

	grants := map[string][]string{
		"grants-welcome.gz": {
			"# welcome coupon",
			"1,1",
			"2,1",
			"3,1",
			"3,1",
		},
		"grants-mixed.gz": {
			"4,1",
			"4,2",
			"4,99",
		},
	}

	for filename, lines := range grants {
		filePath := filepath.Join(dataDir, filename)

		if err := createGrantFile(filePath, lines); err != nil {
			log.Fatalf("Failed to create %s: %v", filename, err)
		}

		fmt.Printf("Created %s with %d lines\n", filePath, len(lines))
	}

	fmt.Println("\nRun: go run ./cmd/couponissue data/grants/grants-welcome.gz data/grants/grants-mixed.gz")
}

func createGrantFile(filePath string, lines []string) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	gzipWriter := gzip.NewWriter(file)
	defer gzipWriter.Close()

	for _, line := range lines {
		if _, err := fmt.Fprintln(gzipWriter, line); err != nil {
			return fmt.Errorf("failed to write grant: %w", err)
		}
	}

	return nil
}
