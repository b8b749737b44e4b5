package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/zilazol/price-crawler/internal/archive"
	pricexml "github.com/zilazol/price-crawler/internal/parsers/xml"
	"github.com/zilazol/price-crawler/internal/types"
)

var parseOutput string

// parseCmd represents the parse command
var parseCmd = &cobra.Command{
	Use:   "parse <file>",
	Short: "Parse a downloaded price file",
	Long: `Parse a local price-transparency file without touching a portal or the
database. The file may be raw XML, a .gz member or a .zip archive; each
contained XML document is parsed into normalized price, promotion or store
rows and summarized.`,
	Example: `  price-crawler parse ./data/PriceFull7290058140886-001-202608260400.gz
  price-crawler parse ./data/Stores7290696200003-000.xml --output json`,
	Args: cobra.ExactArgs(1),
	RunE: runParseFile,
}

func init() {
	rootCmd.AddCommand(parseCmd)

	parseCmd.Flags().StringVar(&parseOutput, "output", "table", "Output format: table or json")
}

func runParseFile(cmd *cobra.Command, args []string) error {
	filePath := args[0]

	logger.Info().Str("file", filePath).Msg("Reading file")
	content, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	kind := archive.Sniff(content)
	logger.Info().Str("kind", string(kind)).Msgf("Read %d bytes", len(content))

	entries, err := archive.ExtractXML(content, filePath)
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}

	parsed := make([]parsedEntry, 0, len(entries))
	for _, entry := range entries {
		file, err := pricexml.Parse(entry.Content, entry.Name)
		if err != nil {
			logger.Warn().Str("entry", entry.Name).Err(err).Msg("Entry failed to parse")
			continue
		}
		parsed = append(parsed, parsedEntry{Name: entry.Name, File: file})
	}
	if len(parsed) == 0 {
		return fmt.Errorf("no parseable XML in %s", filePath)
	}

	switch strings.ToLower(parseOutput) {
	case "json":
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(parsed)
	case "table":
		for _, p := range parsed {
			outputEntryTable(p)
		}
	default:
		return fmt.Errorf("invalid output format: %s (use 'table' or 'json')", parseOutput)
	}

	return nil
}

type parsedEntry struct {
	Name string            `json:"name"`
	File *types.ParsedFile `json:"file"`
}

func outputEntryTable(p parsedEntry) {
	fmt.Printf("\nParse Results for %s\n", p.Name)
	fmt.Println(strings.Repeat("-", 60))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintf(w, "Metric\tValue\n")
	fmt.Fprintf(w, "------\t-----\n")
	if p.File.IsStoreFile {
		fmt.Fprintf(w, "Kind\tstores\n")
		fmt.Fprintf(w, "Stores\t%d\n", len(p.File.Stores))
	} else {
		fmt.Fprintf(w, "Kind\tprices\n")
		fmt.Fprintf(w, "Price Rows\t%d\n", len(p.File.Prices))
		onSale := 0
		for _, row := range p.File.Prices {
			if row.IsOnSale {
				onSale++
			}
		}
		fmt.Fprintf(w, "On Sale\t%d\n", onSale)
		if p.File.Store != nil {
			fmt.Fprintf(w, "Store\t%s\n", p.File.Store.ExternalID)
		}
	}
	w.Flush()

	if p.File.IsStoreFile {
		showStores(p.File.Stores)
		return
	}
	showPrices(p.File.Prices)
}

func showStores(rows []types.StoreRow) {
	if len(rows) == 0 {
		return
	}
	fmt.Printf("\nSample Stores (first %d):\n", min(len(rows), 5))
	fmt.Println(strings.Repeat("-", 60))
	for i, row := range rows {
		if i >= 5 {
			break
		}
		fmt.Printf("%d. [%s] %s, %s\n", i+1, row.ExternalID, row.Name, row.City)
	}
}

func showPrices(rows []types.PriceRow) {
	if len(rows) == 0 {
		return
	}
	fmt.Printf("\nSample Rows (first %d):\n", min(len(rows), 5))
	fmt.Println(strings.Repeat("-", 60))
	for i, row := range rows {
		if i >= 5 {
			break
		}
		name := "-"
		if row.Name != nil {
			name = *row.Name
		}
		fmt.Printf("%d. %s - %s (%.2f₪)\n", i+1, row.Barcode, name, row.Price)
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
