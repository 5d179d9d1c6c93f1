package coupon

import (
	"bufio"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"travel-checkout/internal/model"

	"github.com/rs/zerolog"
)

// fileLoader implements Loader for reading gzipped grant files from disk.
type fileLoader struct {
	logger zerolog.Logger
}

// NewFileLoader creates a new file-based grant loader.
func NewFileLoader(logger zerolog.Logger) Loader {
	return &fileLoader{
		logger: logger.With().Str("component", "grant-loader").Logger(),
	}
}

// Load reads a gzipped grant file and returns its grants.
func (l *fileLoader) Load(ctx context.Context, filePath string) (GrantSet, error) {
	l.logger.Info().Str("file", filePath).Msg("loading grant file")

	file, err := os.Open(filePath)
	if err != nil {
		l.logger.Error().Err(err).Str("file", filePath).Msg("failed to open grant file")
		return nil, fmt.Errorf("failed to open grant file %s: %w", filePath, err)
	}
	defer file.Close()

	set, err := readGrants(ctx, file)
	if err != nil {
		l.logger.Error().Err(err).Str("file", filePath).Msg("failed to read grant file")
		return nil, fmt.Errorf("failed to read grant file %s: %w", filePath, err)
	}

	l.logger.Info().
		Str("file", filePath).
		Int("grants_loaded", set.Size()).
		Msg("grant file loaded successfully")

	return set, nil
}

// readGrants decompresses r and parses one "userID,couponID" pair per line.
// Blank lines and lines starting with '#' are skipped.
func readGrants(ctx context.Context, r io.Reader) (*grantSet, error) {
	gzipReader, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gzipReader.Close()

	set := newGrantSet(1024)

	scanner := bufio.NewScanner(gzipReader)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if lineNo%100_000 == 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		grant, err := parseGrant(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		set.Add(grant)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error scanning grants: %w", err)
	}

	return set, nil
}

func parseGrant(line string) (model.CouponGrant, error) {
	userPart, couponPart, ok := strings.Cut(line, ",")
	if !ok {
		return model.CouponGrant{}, fmt.Errorf("expected userID,couponID but got %q", line)
	}

	userID, err := strconv.ParseInt(strings.TrimSpace(userPart), 10, 64)
	if err != nil || userID <= 0 {
		return model.CouponGrant{}, fmt.Errorf("invalid user id %q", userPart)
	}
	couponID, err := strconv.ParseInt(strings.TrimSpace(couponPart), 10, 64)
	if err != nil || couponID <= 0 {
		return model.CouponGrant{}, fmt.Errorf("invalid coupon id %q", couponPart)
	}

	return model.CouponGrant{UserID: userID, CouponID: couponID}, nil
}
