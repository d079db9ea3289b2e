package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/esimov/kanjidrill"
	"github.com/esimov/kanjidrill/utils"
	"github.com/sirupsen/logrus"
)

const HelpBanner = `
┬┌─┌─┐┌┐┌ ┬┬┌┬┐┬─┐┬┬  ┬
├┴┐├─┤│││ │││ │├┬┘││  │
┴ ┴┴ ┴┘└┘└┘┴─┴┘┴└─┴┴─┘┴─┘

Printable kanji stroke-order practice sheets.
    Version: %s

`

const statusLabel = "⚡ KANJIDRILL"

// pipeName is the file name that indicates stdin/stdout is being used.
const pipeName = "-"

// Version indicates the current build version.
var Version string

var (
	// Flags
	source      = flag.String("in", "", "Source text file, directory or - for stdin (defaults to the last entered text)")
	text        = flag.String("text", "", "Source text given inline")
	destination = flag.String("out", "sheet.html", "Destination file (.html, .png, .jpg, .bmp, .gif), directory or -")
	cellSize    = flag.Float64("size", kanjidrill.DefaultCellSize, "Cell size in millimetres")
	pageWidth   = flag.Float64("width", kanjidrill.DefaultPageWidth, "Printable page width in millimetres")
	dedupe      = flag.Bool("dedupe", true, "Remove repeated kanji within a line")
	sortOrder   = flag.String("sort", string(kanjidrill.SortNone), "Sort order: none, stroke-asc, stroke-desc, unicode-asc, unicode-desc")
	dpi         = flag.Float64("dpi", kanjidrill.DefaultDPI, "Resolution of bitmap outputs")
	normalize   = flag.Bool("normalize", false, "Apply NFC normalization before extracting kanji")
	sourceURL   = flag.String("source", kanjidrill.DefaultSource, "Base URL of the KanjiVG files")
	kanjivgDir  = flag.String("kanjivg", "", "Local KanjiVG kanji directory, tried before the remote source")
	cacheDir    = flag.String("cache", defaultCacheDir(), "Directory caching the downloaded illustrations")
	timeout     = flag.Duration("timeout", kanjidrill.DefaultTimeout, "Timeout of a single illustration download")
	workers     = flag.Int("conc", runtime.NumCPU(), "Number of concurrent lookups and files")
	ext         = flag.String("ext", ".html", "Output extension used for directory sources and pipes")
	config      = flag.String("config", defaultConfigPath(), "Settings file")
	persist     = flag.Bool("persist", true, "Save the settings and the last entered text")
	watch       = flag.Bool("watch", false, "Regenerate the sheet when the source file changes")
	interval    = flag.Duration("interval", time.Second, "Polling interval of the watch mode")
	debug       = flag.Bool("debug", false, "Enable debug logging")
)

func main() {
	log.SetFlags(0)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, HelpBanner, Version)
		flag.PrintDefaults()
	}
	flag.Parse()

	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	if *debug {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.WarnLevel)
	}

	settings, err := loadSettings()
	if err != nil {
		log.Fatalf(
			utils.DecorateText("Failed to load the settings: %v", utils.ErrorMessage),
			utils.DecorateText(err.Error(), utils.DefaultMessage),
		)
	}

	provider, err := newProvider(logger)
	if err != nil {
		log.Fatal(utils.DecorateText(err.Error(), utils.ErrorMessage))
	}

	defaultMsg := utils.Status(statusLabel, "⇢ fetching stroke orders...", utils.DefaultMessage)
	proc := &kanjidrill.Processor{
		Settings: settings,
		Provider: provider,
		Workers:  *workers,
		Logger:   logger,
		Spinner:  utils.NewSpinner(defaultMsg, time.Millisecond*80, true),
	}

	// Capture CTRL-C signal and restores back the cursor visibility.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		proc.Spinner.RestoreCursor()
	}()

	op := &kanjidrill.Ops{
		Src:      *source,
		Dst:      *destination,
		PipeName: pipeName,
		Ext:      *ext,
		Workers:  *workers,
	}

	if *watch {
		fmt.Fprintln(os.Stderr, utils.Status(statusLabel, fmt.Sprintf("⇢ watching %s (CTRL-C to quit)", *source), utils.DefaultMessage))
		if err := proc.Watch(ctx, op, *interval); err != nil {
			log.Fatal(utils.DecorateText(err.Error(), utils.ErrorMessage))
		}
		return
	}

	proc.Spinner.Start()
	report, err := proc.Execute(ctx, op)
	if err != nil {
		proc.Spinner.StopMsg = fmt.Sprintf("%s %s\n",
			utils.Status(statusLabel, "generating the sheet failed...", utils.DefaultMessage),
			utils.DecorateText("✘", utils.ErrorMessage),
		)
		proc.Spinner.Stop()
		log.Fatalf(
			utils.DecorateText("\nError generating the sheet: %s", utils.ErrorMessage),
			utils.DecorateText(fmt.Sprintf("\n\tReason: %v\n", err.Error()), utils.DefaultMessage),
		)
	}
	proc.Spinner.StopMsg = utils.Status(statusLabel, "⇢ the sheet has been generated successfully ✔", utils.SuccessMessage) + "\n"
	proc.Spinner.Stop()

	if *destination != pipeName {
		fmt.Fprintf(os.Stderr, "\nThe sheet has been saved as: %s %s\n",
			utils.DecorateText(filepath.Base(*destination), utils.SuccessMessage),
			utils.DefaultColor,
		)
	}
	fmt.Fprintf(os.Stderr, "Execution time: %s\n", utils.DecorateText(utils.FormatTime(report.Elapsed), utils.SuccessMessage))

	if *persist && *config != "" {
		if report.Files == 1 {
			settings.Text = report.Text
		}
		if err := settings.Save(*config); err != nil {
			logger.WithError(err).Warn("unable to save the settings")
		}
	}
}

// loadSettings reads the settings file and applies the flags set on the command line.
func loadSettings() (kanjidrill.Settings, error) {
	settings := kanjidrill.DefaultSettings()
	if *config != "" {
		s, err := kanjidrill.LoadSettings(*config)
		if err != nil {
			return settings, err
		}
		settings = s
	}

	var err error
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "size":
			settings.CellSize = *cellSize
		case "width":
			settings.PageWidth = *pageWidth
		case "dedupe":
			settings.Dedupe = *dedupe
		case "dpi":
			settings.DPI = *dpi
		case "normalize":
			settings.Normalize = *normalize
		case "text":
			settings.Text = *text
		case "sort":
			settings.Sort, err = kanjidrill.ParseSortOrder(*sortOrder)
		}
	})
	if err != nil {
		return settings, err
	}
	if *text != "" && *source != "" {
		return settings, fmt.Errorf("-text and -in cannot be used together")
	}
	return settings, settings.Validate()
}

// newProvider chains the local KanjiVG directory, if any, with the remote source.
func newProvider(logger logrus.FieldLogger) (kanjidrill.Provider, error) {
	remote, err := kanjidrill.NewHTTPProvider(*sourceURL, *cacheDir, *timeout, logger)
	if err != nil {
		return nil, err
	}
	if *kanjivgDir == "" {
		return remote, nil
	}
	return kanjidrill.Chain{kanjidrill.DirProvider{Dir: *kanjivgDir}, remote}, nil
}

func defaultConfigPath() string {
	path, err := kanjidrill.DefaultSettingsPath()
	if err != nil {
		return ""
	}
	return path
}

func defaultCacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "kanjidrill")
}
