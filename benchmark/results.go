package benchmark

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

// SaveResults persists benchmark results to outputDir as a detailed JSON
// file and a CSV summary, both stamped with now.
//
// Returns:
//   - string: The JSON file path.
//   - string: The CSV file path.
//   - error: An error if the directory or either file cannot be written.
func SaveResults(outputDir string, results []ScenarioResult, now time.Time) (string, string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", "", errors.Wrap(err, "failed to create output directory")
	}

	timestamp := now.Format("2006-01-02_15-04-05")
	resultsFile := filepath.Join(outputDir, fmt.Sprintf("benchmark_results_%s.json", timestamp))

	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return "", "", errors.Wrap(err, "failed to marshal results")
	}
	if err := os.WriteFile(resultsFile, data, 0o644); err != nil {
		return "", "", errors.Wrap(err, "failed to write results file")
	}

	summaryFile := filepath.Join(outputDir, fmt.Sprintf("benchmark_summary_%s.csv", timestamp))
	if err := saveSummaryCSV(summaryFile, results); err != nil {
		return "", "", errors.Wrap(err, "failed to save summary CSV")
	}
	return resultsFile, summaryFile, nil
}

var summaryHeader = []string{
	"Scenario", "Batch_Size", "Iterations", "P99_ms", "P90_ms", "P50_ms", "Average_ms",
	"Images_Per_Second", "Total_Alloc_MB", "Num_GC",
}

func saveSummaryCSV(filename string, results []ScenarioResult) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(summaryHeader); err != nil {
		return err
	}
	for _, r := range results {
		var throughput float64
		if r.Summary.Mean > 0 {
			throughput = float64(r.BatchSize) * 1000 / r.Summary.Mean
		}
		row := []string{
			r.Name,
			strconv.Itoa(r.BatchSize),
			strconv.Itoa(len(r.Samples)),
			strconv.FormatFloat(r.Summary.P99, 'f', 2, 64),
			strconv.FormatFloat(r.Summary.P90, 'f', 2, 64),
			strconv.FormatFloat(r.Summary.P50, 'f', 2, 64),
			strconv.FormatFloat(r.Summary.Mean, 'f', 2, 64),
			strconv.FormatFloat(throughput, 'f', 2, 64),
			strconv.FormatFloat(float64(r.MemoryStats.TotalAllocBytes)/(1024*1024), 'f', 2, 64),
			strconv.FormatUint(uint64(r.MemoryStats.NumGC), 10),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
