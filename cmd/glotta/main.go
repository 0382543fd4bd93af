// Command glotta translates text, JSON batches and HTML documents using
// AI, with a persistent translation cache.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ZaguanLabs/glotta"
	"github.com/ZaguanLabs/glotta/backend"
	"github.com/ZaguanLabs/glotta/storage"
)

// Build-time variables (can be overridden with ldflags)
var (
	version   = glotta.Version
	commit    = glotta.GitCommit
	buildDate = glotta.BuildDate
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("glotta", flag.ContinueOnError)
	fs.SetOutput(stderr)

	// Flags
	targetLang := fs.String("lang", "", "Target language code (e.g., he, es, fr)")
	sourceLang := fs.String("source", "", "Source language code (default: auto-detect)")
	output := fs.String("output", "", "Output file (default: stdout)")
	outputShort := fs.String("o", "", "Output file (short for --output)")
	apiKey := fs.String("api-key", "", "OpenAI API key (default: OPENAI_API_KEY env)")
	model := fs.String("model", "gpt-4o-mini", "OpenAI model to use")
	contextStr := fs.String("context", "", "Translation context (e.g., 'Real estate listings')")
	redisURL := fs.String("redis", "", "Redis URL for persistent cache (default: in-memory)")
	redisTTL := fs.Int("redis-ttl", 0, "Redis entry TTL in seconds (0 = no expiration)")
	rpm := fs.Int("rpm", 0, "Rate limit in requests per minute (0 = unlimited)")
	batchMode := fs.Bool("batch", false, "Treat input as a JSON array of strings")
	htmlMode := fs.Bool("html", false, "Treat input as an HTML document")
	detectMode := fs.Bool("detect", false, "Detect the input's language instead of translating")
	statsMode := fs.Bool("stats", false, "Show cache statistics")
	clearMode := fs.Bool("clear", false, "Clear the cache (scoped by --lang when given)")
	setManual := fs.String("set-manual", "", "Store a manual override (value is the translated text)")
	clearManual := fs.Bool("clear-manual", false, "Remove a manual override")
	resourceType := fs.String("resource-type", "", "Resource type for manual overrides")
	resourceID := fs.String("resource-id", "", "Resource id for manual overrides")
	field := fs.String("field", "", "Resource field for manual overrides")
	exportFile := fs.String("export", "", "Export the cache to a JSON file")
	importFile := fs.String("import", "", "Import cache entries from a JSON file")
	showVersion := fs.Bool("version", false, "Show version")
	quiet := fs.Bool("quiet", false, "Suppress progress output")
	jsonOutput := fs.Bool("json", false, "Output result as JSON")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *showVersion {
		fmt.Fprintf(stdout, "%s %s\n", glotta.Name, version)
		if commit != "unknown" && commit != "" {
			fmt.Fprintf(stdout, "  commit:  %s\n", commit)
		}
		if buildDate != "unknown" && buildDate != "" {
			fmt.Fprintf(stdout, "  built:   %s\n", buildDate)
		}
		return nil
	}

	// Handle -o alias for --output
	if *outputShort != "" && *output == "" {
		*output = *outputShort
	}

	store, closeStore, err := newStore(*redisURL, *redisTTL)
	if err != nil {
		return err
	}
	defer closeStore()

	ctx := context.Background()

	// Cache management modes need no backend
	switch {
	case *exportFile != "":
		return runExport(store, *exportFile, stderr, *quiet)
	case *importFile != "":
		return runImport(ctx, store, *importFile, stderr, *quiet)
	case *statsMode:
		return runStats(ctx, store, stdout, *jsonOutput)
	case *clearMode:
		return runClear(ctx, store, *targetLang, stdout)
	case *setManual != "":
		return runSetManual(ctx, store, glotta.ManualTranslation{
			Text:           strings.Join(fs.Args(), " "),
			TranslatedText: *setManual,
			To:             *targetLang,
			ResourceType:   *resourceType,
			ResourceID:     *resourceID,
			Field:          *field,
		}, stdout)
	case *clearManual:
		return runClearManual(ctx, store, glotta.ManualTranslationKey{
			ResourceType: *resourceType,
			ResourceID:   *resourceID,
			Field:        *field,
			To:           *targetLang,
		}, stdout)
	}

	if !*detectMode && *targetLang == "" {
		fs.Usage()
		return fmt.Errorf("--lang is required")
	}

	// Get input
	var input string
	var inputName string
	if fs.NArg() == 0 {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
		input = string(data)
		inputName = "stdin"
	} else {
		input = strings.Join(fs.Args(), " ")
		inputName = "argument"
	}

	// Get API key
	key := *apiKey
	if key == "" {
		key = os.Getenv("OPENAI_API_KEY")
	}
	if key == "" {
		return fmt.Errorf("OpenAI API key required (--api-key or OPENAI_API_KEY env)")
	}

	// Backend stack: OpenAI wrapped with retry, optionally rate limited
	var be glotta.Backend = backend.NewOpenAIBackend(backend.OpenAIConfig{
		APIKey: key,
		Model:  *model,
	})
	be = glotta.NewRetryableBackend(be, glotta.DefaultRetryConfig())
	if *rpm > 0 {
		be = glotta.NewRateLimitedBackend(be, glotta.RateLimitConfig{RequestsPerMinute: *rpm})
	}

	var opts []glotta.TranslatorOption
	if *contextStr != "" {
		opts = append(opts, glotta.WithContext(*contextStr))
	}
	if !*quiet {
		opts = append(opts, glotta.WithErrorHook(func(err error) {
			fmt.Fprintf(stderr, "cache warning: %v\n", err)
		}))
	}

	translator := glotta.NewTranslator(store, be, opts...)
	defer translator.Flush()

	out := io.Writer(stdout)
	if *output != "" {
		f, err := os.Create(*output) // #nosec G304 - CLI tool writes user-specified files
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	if *detectMode {
		return runDetect(ctx, translator, input, out, *jsonOutput)
	}

	if !*quiet {
		fmt.Fprintf(stderr, "Translating %s to %s...\n", inputName, *targetLang)
	}
	start := time.Now()

	switch {
	case *batchMode:
		err = runBatch(ctx, translator, input, *targetLang, *sourceLang, *contextStr, out, *jsonOutput)
	case *htmlMode:
		err = runHTML(ctx, translator, input, *targetLang, *sourceLang, *contextStr, out, *jsonOutput, start)
	default:
		err = runText(ctx, translator, input, *targetLang, *sourceLang, *contextStr, out, *jsonOutput, start)
	}
	if err != nil {
		return err
	}

	if !*quiet {
		fmt.Fprintf(stderr, "Done in %v\n", time.Since(start).Round(time.Millisecond))
	}
	return nil
}

// newStore builds the cache store: Redis when a URL is given, otherwise
// in-memory.
func newStore(redisURL string, ttl int) (glotta.Storage, func(), error) {
	if redisURL == "" {
		return storage.NewMemoryStore(), func() {}, nil
	}
	rs, err := storage.NewRedisStore(storage.RedisConfig{URL: redisURL, TTL: ttl})
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to redis: %w", err)
	}
	return rs, func() { _ = rs.Close() }, nil
}

// textResult is the JSON output shape for single translations.
type textResult struct {
	Text       string `json:"text"`
	Translated string `json:"translated"`
	From       string `json:"from"`
	To         string `json:"to"`
	Cached     bool   `json:"cached"`
	ElapsedMs  int64  `json:"elapsed_ms"`
}

func runText(ctx context.Context, tr *glotta.Translator, input, to, from, hint string, out io.Writer, jsonOut bool, start time.Time) error {
	text := strings.TrimRight(input, "\n")
	result, err := tr.TranslateText(ctx, glotta.TranslateParams{
		Text:    text,
		To:      to,
		From:    from,
		Context: hint,
	})
	if err != nil {
		return fmt.Errorf("translation failed: %w", err)
	}

	if jsonOut {
		return writeJSON(out, textResult{
			Text:       text,
			Translated: result.Text,
			From:       result.From,
			To:         result.To,
			Cached:     result.Cached,
			ElapsedMs:  time.Since(start).Milliseconds(),
		})
	}
	fmt.Fprintln(out, result.Text)
	return nil
}

func runBatch(ctx context.Context, tr *glotta.Translator, input, to, from, hint string, out io.Writer, jsonOut bool) error {
	var texts []string
	if err := json.Unmarshal([]byte(input), &texts); err != nil {
		return fmt.Errorf("parsing batch input (expected a JSON array of strings): %w", err)
	}

	results, err := tr.TranslateBatch(ctx, texts, glotta.BatchParams{To: to, From: from, Context: hint})
	if err != nil {
		return fmt.Errorf("batch translation failed: %w", err)
	}

	if jsonOut {
		type batchItem struct {
			Text       string `json:"text"`
			Translated string `json:"translated"`
			From       string `json:"from"`
			Cached     bool   `json:"cached"`
		}
		items := make([]batchItem, len(results))
		for i, r := range results {
			items[i] = batchItem{Text: texts[i], Translated: r.Text, From: r.From, Cached: r.Cached}
		}
		return writeJSON(out, items)
	}

	translated := make([]string, len(results))
	for i, r := range results {
		translated[i] = r.Text
	}
	return writeJSON(out, translated)
}

func runHTML(ctx context.Context, tr *glotta.Translator, input, to, from, hint string, out io.Writer, jsonOut bool, start time.Time) error {
	result, err := tr.TranslateHTML(ctx, input, glotta.BatchParams{To: to, From: from, Context: hint})
	if err != nil {
		return fmt.Errorf("html translation failed: %w", err)
	}

	if jsonOut {
		return writeJSON(out, map[string]any{
			"content":    result,
			"to":         to,
			"elapsed_ms": time.Since(start).Milliseconds(),
		})
	}
	fmt.Fprint(out, result)
	return nil
}

func runDetect(ctx context.Context, tr *glotta.Translator, input string, out io.Writer, jsonOut bool) error {
	text := strings.TrimSpace(input)
	if text == "" {
		return fmt.Errorf("no input to detect")
	}

	detection, err := tr.DetectLanguage(ctx, text)
	if err != nil {
		return fmt.Errorf("detection failed: %w", err)
	}

	if jsonOut {
		return writeJSON(out, detection)
	}
	fmt.Fprintf(out, "%s (%s, confidence %.2f)\n",
		glotta.GetLanguageName(detection.Language), detection.Language, detection.Confidence)
	return nil
}

func runStats(ctx context.Context, store glotta.Storage, out io.Writer, jsonOut bool) error {
	stats, err := store.Stats(ctx)
	if err != nil {
		return fmt.Errorf("reading stats: %w", err)
	}

	if jsonOut {
		return writeJSON(out, stats)
	}
	fmt.Fprintf(out, "Cache entries:     %d\n", stats.TotalEntries)
	fmt.Fprintf(out, "Manual overrides:  %d\n", stats.ManualOverrides)
	if len(stats.ByLanguage) > 0 {
		fmt.Fprintf(out, "By language:\n")
		for lang, count := range stats.ByLanguage {
			fmt.Fprintf(out, "  %-6s %d\n", lang, count)
		}
	}
	return nil
}

func runClear(ctx context.Context, store glotta.Storage, targetLang string, out io.Writer) error {
	var n int
	var err error
	if targetLang == "" {
		n, err = store.DeleteAll(ctx)
	} else {
		n, err = store.DeleteByLanguage(ctx, targetLang)
	}
	if err != nil {
		return fmt.Errorf("clearing cache: %w", err)
	}
	fmt.Fprintf(out, "Removed %d entries\n", n)
	return nil
}

// Manual override management needs the store only; the nil backend is
// never called.
func runSetManual(ctx context.Context, store glotta.Storage, m glotta.ManualTranslation, out io.Writer) error {
	if m.To == "" {
		return fmt.Errorf("--lang is required for --set-manual")
	}
	tr := glotta.NewTranslator(store, nil)
	if err := tr.SetManualTranslation(ctx, m); err != nil {
		return fmt.Errorf("storing manual override: %w", err)
	}
	fmt.Fprintf(out, "Stored override for %s:%s:%s (%s)\n", m.ResourceType, m.ResourceID, m.Field, m.To)
	return nil
}

func runClearManual(ctx context.Context, store glotta.Storage, k glotta.ManualTranslationKey, out io.Writer) error {
	if k.To == "" {
		return fmt.Errorf("--lang is required for --clear-manual")
	}
	tr := glotta.NewTranslator(store, nil)
	if err := tr.ClearManualTranslation(ctx, k); err != nil {
		return fmt.Errorf("removing manual override: %w", err)
	}
	fmt.Fprintf(out, "Removed override for %s:%s:%s (%s)\n", k.ResourceType, k.ResourceID, k.Field, k.To)
	return nil
}

func runExport(store glotta.Storage, path string, stderr io.Writer, quiet bool) error {
	if err := storage.NewExporter(store).ExportToFile(path, nil); err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	if !quiet {
		fmt.Fprintf(stderr, "Exported cache to %s\n", path)
	}
	return nil
}

func runImport(ctx context.Context, store glotta.Storage, path string, stderr io.Writer, quiet bool) error {
	result, err := storage.NewImporter(store).ImportFromFile(ctx, path)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}
	if !quiet {
		fmt.Fprintf(stderr, "Imported %d entries (%d failed)\n", result.Imported, result.Failed)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
