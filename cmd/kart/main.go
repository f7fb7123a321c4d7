package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "modernc.org/sqlite"

	"github.com/muthuarun3/kart/internal/api"
	"github.com/muthuarun3/kart/internal/config"
	"github.com/muthuarun3/kart/internal/db"
	"github.com/muthuarun3/kart/internal/ingest"
	"github.com/muthuarun3/kart/internal/monitoring"
	"github.com/muthuarun3/kart/internal/report"
	"github.com/muthuarun3/kart/internal/security"
	"github.com/muthuarun3/kart/internal/version"
)

var (
	devMode     = flag.Bool("dev", false, "Run in dev mode (on-disk migrations, verbose ingest logging)")
	port        = flag.Int("port", 8080, "HTTP listen port")
	dbPath      = flag.String("db-path", "kart.db", "Path to the SQLite database file")
	configPath  = flag.String("config", "", "Path to a tuning config JSON file (defaults apply when omitted)")
	enableAdmin = flag.Bool("enable-admin", false, "Mount the admin debug routes under /debug/")
)

func main() {
	flag.Usage = printUsage
	flag.Parse()

	db.DevMode = *devMode
	monitoring.SetVerbose(*devMode)

	if flag.NArg() > 0 {
		command := flag.Arg(0)
		args := flag.Args()[1:]

		switch command {
		case "migrate":
			db.RunMigrateCommand(args, *dbPath)
		case "import":
			handleImport(args)
		case "export":
			handleExport(args)
		case "report":
			handleReport(args)
		case "version":
			fmt.Printf("kart %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		case "help":
			printUsage()
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
			printUsage()
			os.Exit(1)
		}
		return
	}

	runServer()
}

func printUsage() {
	fmt.Println(`kart - karting telemetry store and API

Usage: kart [flags] [command]

With no command, kart migrates the database and serves the HTTP API.

Commands:
  migrate <cmd>   Manage the database schema (run 'kart migrate help')
  import          Import a circuits or courses CSV file
  export          Export circuits or courses to a CSV file
  report          Render the PNG report set from stored courses
  version         Show build information
  help            Show this help message

Flags:`)
	flag.PrintDefaults()
}

// loadConfig resolves the tuning config: an explicit file when -config is
// given, built-in defaults otherwise.
func loadConfig() *config.TuningConfig {
	if *configPath == "" {
		return config.DefaultTuningConfig()
	}
	cfg, err := config.LoadTuningConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config %s: %v", *configPath, err)
	}
	return cfg
}

func handleImport(args []string) {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	entity := fs.String("entity", "", "What to import: circuits or courses (required)")
	file := fs.String("file", "", "Path to the CSV file (required)")
	humidityScale := fs.String("humidity-scale", "", "Humidity unit in the sheet: percent or fraction (overrides config)")
	fs.Parse(args)

	if *entity != "circuits" && *entity != "courses" {
		fmt.Fprintln(os.Stderr, "Error: -entity must be circuits or courses")
		fs.Usage()
		os.Exit(1)
	}
	if *file == "" {
		fmt.Fprintln(os.Stderr, "Error: -file is required")
		fs.Usage()
		os.Exit(1)
	}

	cfg := loadConfig()
	scale := cfg.GetHumidityScale()
	if *humidityScale != "" {
		if *humidityScale != "percent" && *humidityScale != "fraction" {
			log.Fatalf("Invalid -humidity-scale %q, want percent or fraction", *humidityScale)
		}
		scale = *humidityScale
	}

	f, err := os.Open(*file)
	if err != nil {
		log.Fatalf("Failed to open %s: %v", *file, err)
	}
	defer f.Close()

	database, err := db.NewDB(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer database.Close()

	var rep *db.ImportReport
	switch *entity {
	case "circuits":
		rep, err = database.ImportCircuits(f, *file)
	case "courses":
		rep, err = database.ImportCourses(f, *file, ingest.Options{HumidityScale: ingest.HumidityScale(scale)})
	}
	if err != nil {
		log.Fatalf("Import failed: %v", err)
	}

	fmt.Printf("Batch %s: %d created, %d updated, %d rejected rows\n",
		rep.BatchID, rep.Created, rep.Updated, len(rep.RowErrors))
	for _, rowErr := range rep.RowErrors {
		fmt.Printf("  %s\n", rowErr.Error())
	}
	if len(rep.RowErrors) > 0 {
		os.Exit(1)
	}
}

func handleExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	entity := fs.String("entity", "", "What to export: circuits or courses (required)")
	out := fs.String("out", "", "Path of the CSV file to write (required)")
	fs.Parse(args)

	if *entity != "circuits" && *entity != "courses" {
		fmt.Fprintln(os.Stderr, "Error: -entity must be circuits or courses")
		fs.Usage()
		os.Exit(1)
	}
	if *out == "" {
		fmt.Fprintln(os.Stderr, "Error: -out is required")
		fs.Usage()
		os.Exit(1)
	}
	if err := security.ValidateExportPath(*out); err != nil {
		log.Fatalf("Refusing export path: %v", err)
	}

	database, err := db.NewDB(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer database.Close()

	f, err := os.Create(*out)
	if err != nil {
		log.Fatalf("Failed to create %s: %v", *out, err)
	}
	defer f.Close()

	var count int
	switch *entity {
	case "circuits":
		circuits, listErr := database.ListAllCircuits()
		if listErr != nil {
			log.Fatalf("Failed to list circuits: %v", listErr)
		}
		err = api.WriteCircuitsCSV(f, circuits)
		count = len(circuits)
	case "courses":
		courses, listErr := database.ListAllCourseDetails()
		if listErr != nil {
			log.Fatalf("Failed to list courses: %v", listErr)
		}
		err = api.WriteCoursesCSV(f, courses)
		count = len(courses)
	}
	if err != nil {
		log.Fatalf("Export failed: %v", err)
	}

	fmt.Printf("Wrote %d %s to %s\n", count, *entity, *out)
}

func handleReport(args []string) {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	out := fs.String("out", "", "Directory to write the PNG report set to (defaults to the configured report_dir)")
	fs.Parse(args)

	cfg := loadConfig()
	outDir := cfg.GetReportDir()
	if *out != "" {
		outDir = *out
	}

	database, err := db.NewDB(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer database.Close()

	courses, err := database.ListAllCourseDetails()
	if err != nil {
		log.Fatalf("Failed to list courses: %v", err)
	}

	files, err := report.NewGenerator(outDir).Generate(courses)
	if err != nil {
		log.Fatalf("Report generation failed: %v", err)
	}
	if len(files) == 0 {
		fmt.Println("No report written: the store has no usable course data")
		return
	}
	for _, file := range files {
		fmt.Println(file)
	}
}

func runServer() {
	cfg := loadConfig()

	database, err := db.NewDB(*dbPath)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mux := api.NewServer(database, cfg).ServeMux()
	if *enableAdmin {
		database.AttachAdminRoutes(mux)
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", *port),
		Handler: api.LoggingMiddleware(mux),
	}

	go func() {
		log.Printf("kart %s serving on %s (db %s)", version.Version, server.Addr, *dbPath)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
		if err := server.Close(); err != nil {
			log.Printf("HTTP server force close error: %v", err)
		}
	}

	log.Println("Graceful shutdown complete")
}
