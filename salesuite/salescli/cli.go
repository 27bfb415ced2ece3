package salescli

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/retailops/salesuite-app/salesuite/constants"
	"github.com/retailops/salesuite-app/salesuite/extract"
	"github.com/retailops/salesuite-app/salesuite/gen"
	"github.com/retailops/salesuite-app/salesuite/process"
	"github.com/retailops/salesuite-app/salesuite/report"
	"github.com/retailops/salesuite-app/salesuite/search"
	"github.com/urfave/cli"
)

func GetApp() *cli.App {
	return setUpApp()
}

func setUpApp() *cli.App {
	app := cli.NewApp()
	app.Name = constants.Name
	app.Usage = constants.Usage
	app.Version = constants.Version
	var outputDir, outputFile, dataDir, format, host, username, password, index string
	var days, minRecords, maxRecords, port, chunkSize int
	var seed int64
	var noSSL bool
	app.Commands = []cli.Command{
		{
			Name:      "extract-images",
			Category:  "Spreadsheet tools",
			Usage:     "Extract embedded images from a spreadsheet or document archive",
			ArgsUsage: "<file>",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:        "output",
					Usage:       "Directory the extracted images are written to",
					Value:       constants.DefaultExtractedDir,
					Destination: &outputDir,
				},
			},
			Action: func(c *cli.Context) error {
				src := c.Args().First()
				if src == "" {
					return errors.New("a source file argument is required")
				}

				rpt, err := extract.DefaultScanner().ExtractImages(src, outputDir)
				if err != nil {
					fmt.Fprintf(app.Writer, "%s\n", err)
					fmt.Fprintf(app.Writer, "Extracted 0 images\n")
					return err
				}

				for _, file := range rpt.Extracted {
					fmt.Fprintf(app.Writer, "Saved %s -> %s\n", file.ArchivePath, file.OutputPath)
				}
				fmt.Fprintf(app.Writer, "Extracted %d images to %s (skipped %d entries)\n",
					rpt.Count(), outputDir, len(rpt.Skipped))
				if rpt.Count() == 0 && len(rpt.Extensions) > 0 {
					fmt.Fprintf(app.Writer, "No images found. Extensions present in archive: %s\n",
						strings.Join(rpt.Extensions, ", "))
				}
				return nil
			},
		},
		{
			Name:      "process-data",
			Category:  "Spreadsheet tools",
			Usage:     "Extract the product columns from a workbook and drop duplicate rows",
			ArgsUsage: "<file>",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:        "output",
					Usage:       "Path of the processed workbook",
					Value:       constants.DefaultProcessedFile,
					Destination: &outputFile,
				},
			},
			Action: func(c *cli.Context) error {
				src := c.Args().First()
				if src == "" {
					return errors.New("a source file argument is required")
				}

				result, err := process.ProcessWorkbook(src, outputFile)
				if err != nil {
					return err
				}
				fmt.Fprintf(app.Writer, "Processed %d rows (%d duplicates removed) -> %s\n",
					result.Rows, result.Duplicates, outputFile)
				return nil
			},
		},
		{
			Name:     "generate-data",
			Category: "Sales data",
			Usage:    "Generate a synthetic sales ledger",
			Flags: []cli.Flag{
				cli.IntFlag{
					Name:        "days",
					Usage:       "Number of days the ledger covers",
					Value:       100,
					Destination: &days,
				},
				cli.IntFlag{
					Name:        "min-records",
					Usage:       "Minimum records per day",
					Value:       3,
					Destination: &minRecords,
				},
				cli.IntFlag{
					Name:        "max-records",
					Usage:       "Maximum records per day",
					Value:       8,
					Destination: &maxRecords,
				},
				cli.StringFlag{
					Name:        "output",
					Usage:       "Directory the ledger is written to",
					Value:       constants.DefaultDataDir,
					Destination: &outputDir,
				},
				cli.StringFlag{
					Name:        "format",
					Usage:       "Output format, csv or xlsx",
					Value:       gen.FormatCSV,
					Destination: &format,
				},
				cli.Int64Flag{
					Name:        "seed",
					Usage:       "Random seed; the same seed reproduces the same ledger",
					Value:       42,
					Destination: &seed,
				},
			},
			Action: func(c *cli.Context) error {
				records, name, err := gen.Generate(gen.Config{
					Days:      days,
					MinPerDay: minRecords,
					MaxPerDay: maxRecords,
					OutputDir: outputDir,
					Format:    format,
					Seed:      seed,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(app.Writer, "Generated %d records -> %s\n", len(records), name)
				gen.PrintSummary(app.Writer, records)
				return nil
			},
		},
		{
			Name:     "report",
			Category: "Sales data",
			Usage:    "Analyze the latest sales ledger and render the chart set",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:        "data",
					Usage:       "Directory holding sales_data_*.csv ledgers",
					Value:       constants.DefaultDataDir,
					Destination: &dataDir,
				},
				cli.StringFlag{
					Name:        "output",
					Usage:       "Directory the charts are written to",
					Value:       constants.DefaultReportDir,
					Destination: &outputDir,
				},
			},
			Action: func(c *cli.Context) error {
				return report.Run(dataDir, outputDir, app.Writer)
			},
		},
		{
			Name:     "upload",
			Category: "Search",
			Usage:    "Bulk-index the processed product workbook into the search service",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:        "data",
					Usage:       "Path of the processed workbook",
					Value:       constants.DefaultProcessedFile,
					Destination: &outputFile,
				},
				cli.StringFlag{
					Name:        "host",
					Usage:       "Search service host",
					Destination: &host,
				},
				cli.IntFlag{
					Name:        "port",
					Usage:       "Search service port",
					Value:       9200,
					Destination: &port,
				},
				cli.StringFlag{
					Name:        "username",
					Usage:       "Search service username",
					Destination: &username,
				},
				cli.StringFlag{
					Name:        "password",
					Usage:       "Search service password",
					Destination: &password,
				},
				cli.StringFlag{
					Name:        "index",
					Usage:       "Index the documents are written to",
					Value:       "products",
					Destination: &index,
				},
				cli.BoolFlag{
					Name:        "no-ssl",
					Usage:       "Connect over plain HTTP",
					Destination: &noSSL,
				},
				cli.IntFlag{
					Name:        "chunk-size",
					Usage:       "Documents per bulk request",
					Value:       1000,
					Destination: &chunkSize,
				},
			},
			Action: func(c *cli.Context) error {
				if host == "" {
					return errors.New("search service host (--host) is required")
				}
				if username == "" || password == "" {
					return errors.New("search service credentials (--username, --password) are required")
				}

				client := search.NewClient(search.Config{
					Host:      host,
					Port:      port,
					Username:  username,
					Password:  password,
					UseSSL:    !noSSL,
					Index:     index,
					ChunkSize: chunkSize,
				})
				result, err := client.UploadWorkbook(context.Background(), outputFile)
				if err != nil {
					return err
				}
				fmt.Fprintf(app.Writer, "Uploaded %d of %d documents (%d failed), index holds %d\n",
					result.Indexed, result.Total, result.Failed, result.DocCount)
				return nil
			},
		},
	}
	return app
}
