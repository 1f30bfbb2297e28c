package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/zatekoja/Patientrecordanonymizationdesign/internal/adapters/export"
	"github.com/zatekoja/Patientrecordanonymizationdesign/internal/adapters/ledger"
	"github.com/zatekoja/Patientrecordanonymizationdesign/internal/anonymization"
	"github.com/zatekoja/Patientrecordanonymizationdesign/internal/application/services"
	"github.com/zatekoja/Patientrecordanonymizationdesign/internal/domain/entities"
	"github.com/zatekoja/Patientrecordanonymizationdesign/internal/domain/providers"
	"github.com/zatekoja/Patientrecordanonymizationdesign/pkg/config"
)

// anonymize runs the pipeline over a local CSV or JSON file and writes the
// anonymized output next to it. It needs no database; provenance goes to an
// embedded LevelDB ledger unless disabled.
func main() {
	var (
		inputPath  string
		outputDir  string
		country    string
		location   string
		hospitalID string
		k          int
		strict     bool
		salt       string
		ledgerPath string
		noLedger   bool
	)

	flag.StringVar(&inputPath, "input", "", "Input file (.csv or .json) of raw records")
	flag.StringVar(&outputDir, "out", ".", "Output directory")
	flag.StringVar(&country, "country", "", "Hospital country (generalization fallback)")
	flag.StringVar(&location, "location", "", "Hospital city or region")
	flag.StringVar(&hospitalID, "hospital", "", "Hospital identifier for provenance")
	flag.IntVar(&k, "k", 0, "Group-size privacy bound (0 uses the configured default)")
	flag.BoolVar(&strict, "strict", false, "Abort the batch on the first ungeneralizable record")
	flag.StringVar(&salt, "salt", "", "Identity salt for batch-stable pseudonyms")
	flag.StringVar(&ledgerPath, "ledger", "", "LevelDB ledger path (defaults to LEDGER_PATH)")
	flag.BoolVar(&noLedger, "no-ledger", false, "Skip provenance submission")
	flag.Parse()

	if inputPath == "" {
		log.Fatal("-input is required")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if country == "" {
		log.Fatal("-country is required")
	}
	if k == 0 {
		k = cfg.Pipeline.K
	}
	if salt == "" {
		salt = cfg.Pipeline.IdentitySalt
	}
	if ledgerPath == "" {
		ledgerPath = cfg.Ledger.Path
	}

	batch, err := readBatch(inputPath)
	if err != nil {
		log.Fatalf("Failed to read input: %v", err)
	}
	if len(batch) == 0 {
		log.Fatal("Input contains no records")
	}

	var ledgerProvider providers.LedgerProvider
	if !noLedger {
		adapter, err := ledger.NewLevelDBLedgerAdapter(ledgerPath)
		if err != nil {
			log.Fatalf("Failed to open ledger: %v", err)
		}
		defer adapter.Close()
		ledgerProvider = adapter
	}

	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
	service := services.NewPipelineService(nil, nil, ledgerProvider, nil, logger)

	opts := services.PipelineOptions{
		K:            k,
		Strict:       strict,
		ResourceType: cfg.Pipeline.ResourceType,
	}
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if salt != "" {
		var resolver providers.IdentityResolver = anonymization.NewSaltedResolver(salt)
		resolved, err := resolver.ResolveBatch(ctx, anonymization.NormalizeBatch(batch))
		if err != nil {
			log.Fatalf("Failed to resolve identities: %v", err)
		}
		opts.ResolvedIdentities = resolved
	}

	result, err := service.ProcessBatch(ctx, batch, entities.HospitalContext{
		Country:    country,
		Location:   location,
		HospitalID: hospitalID,
	}, opts)
	if err != nil {
		log.Fatalf("Failed to process batch: %v", err)
	}

	if err := writeOutputs(outputDir, result); err != nil {
		log.Fatalf("Failed to write output: %v", err)
	}

	for _, w := range result.Warnings {
		fmt.Fprintf(os.Stderr, "warning [%s]: %s\n", w.Code, w.Message)
	}
	fmt.Printf("batch %s: %d stage-1 records, %d excluded, %d suppressed groups, root %s\n",
		result.BatchID, len(result.Stage1), result.Excluded, len(result.Suppressed), result.BatchRoot)
}

// readBatch loads raw records from a CSV file (first row is the header) or
// a JSON array of objects.
func readBatch(path string) ([]entities.RawRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return readCSV(f)
	case ".json":
		var batch []entities.RawRecord
		if err := json.NewDecoder(f).Decode(&batch); err != nil {
			return nil, fmt.Errorf("failed to decode json records: %w", err)
		}
		return batch, nil
	default:
		return nil, fmt.Errorf("unsupported input format %q", filepath.Ext(path))
	}
}

func readCSV(r io.Reader) ([]entities.RawRecord, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	var batch []entities.RawRecord
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv row: %w", err)
		}

		record := make(entities.RawRecord, len(header))
		for i, col := range header {
			if i < len(row) && row[i] != "" {
				record[col] = row[i]
			}
		}
		batch = append(batch, record)
	}
	return batch, nil
}

func writeOutputs(dir string, result *entities.BatchResult) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	stage1Path := filepath.Join(dir, "stage1.csv")
	f, err := os.Create(stage1Path)
	if err != nil {
		return err
	}
	if err := export.NewCSVExporter().WriteStage1(f, result.Stage1); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	stage2Path := filepath.Join(dir, "stage2.csv")
	f, err = os.Create(stage2Path)
	if err != nil {
		return err
	}
	if err := export.NewCSVExporter().WriteStage2(f, result.Stage2); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	resultPath := filepath.Join(dir, "batch.json")
	f, err = os.Create(resultPath)
	if err != nil {
		return err
	}
	if err := export.NewJSONExporter().WriteBatchResult(f, result); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
