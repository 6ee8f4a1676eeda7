// mdtranslate batch-translates a tree of Markdown documents with AI providers.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/minios-linux/mdtranslate/config"
	"github.com/minios-linux/mdtranslate/i18n"
	"github.com/minios-linux/mdtranslate/langmeta"
	"github.com/minios-linux/mdtranslate/ledger"
	"github.com/minios-linux/mdtranslate/notion"
	"github.com/minios-linux/mdtranslate/pipeline"
	"github.com/minios-linux/mdtranslate/scheduler"
	"github.com/minios-linux/mdtranslate/settings"
	"github.com/minios-linux/mdtranslate/translate"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// ANSI colors
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[0;31m"
	colorGreen  = "\033[0;32m"
	colorYellow = "\033[1;33m"
	colorBlue   = "\033[0;34m"
)

var logOut io.Writer = os.Stderr

func logInfo(format string, args ...any) {
	fmt.Fprintf(logOut, colorBlue+"[INFO]"+colorReset+" "+format+"\n", args...)
}

func logSuccess(format string, args ...any) {
	fmt.Fprintf(logOut, colorGreen+"[OK]"+colorReset+" "+format+"\n", args...)
}

func logWarning(format string, args ...any) {
	fmt.Fprintf(logOut, colorYellow+"[WARN]"+colorReset+" "+format+"\n", args...)
}

func logError(format string, args ...any) {
	fmt.Fprintf(logOut, colorRed+"[ERROR]"+colorReset+" "+format+"\n", args...)
}

// ---------------------------------------------------------------------------
// Global flags
// ---------------------------------------------------------------------------

var (
	configPath string
	envFile    string
)

// ---------------------------------------------------------------------------
// Root command
// ---------------------------------------------------------------------------

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "mdtranslate",
		Short: "Batch-translate Markdown documents with AI",
		Long: `mdtranslate translates a tree of Markdown documents into several languages.

Front matter, fixed boilerplate and Markdown structure are preserved. A
processed-file ledger makes repeated runs incremental: files already
translated are skipped unless they carry the [translate] marker.

Commands:
  translate   Translate the input tree into target languages
  status      Show ledger state and pending files
  mirror      Import a translated tree into Notion
  auth        Manage provider and Notion credentials

AI Providers:
  deepseek       DeepSeek (default)
  openai         OpenAI
  google         Google AI (Gemini)
  anthropic      Anthropic
  groq           Groq
  ollama         Ollama local server
  custom-openai  Custom OpenAI-compatible endpoint`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: "+config.FileName+" if present)")
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Dotenv file loaded into the environment")

	root.AddCommand(
		newTranslateCmd(),
		newStatusCmd(),
		newMirrorCmd(),
		newAuthCmd(),
		newVersionCmd(),
	)

	return root
}

func main() {
	i18n.Init("")
	if err := newRootCmd().Execute(); err != nil {
		logError("%v", err)
		os.Exit(1)
	}
}

// loadConfig layers the config file and the environment.
func loadConfig() (*config.Config, *config.Env, error) {
	env, err := config.LoadEnv(envFile)
	if err != nil {
		return nil, nil, err
	}
	path := configPath
	if path == "" {
		path = env.ConfigPath
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}
	env.Apply(cfg)
	return cfg, env, nil
}

// interruptContext returns a context canceled on SIGINT.
func interruptContext(warning string) (context.Context, func()) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	go func() {
		select {
		case <-sigCh:
			logWarning("%s", warning)
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigCh)
		cancel()
	}
}

// ---------------------------------------------------------------------------
// version
// ---------------------------------------------------------------------------

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "mdtranslate version %s\n", version)
			fmt.Fprintf(out, "  commit:    %s\n", commit)
			fmt.Fprintf(out, "  built:     %s\n", date)
			fmt.Fprintf(out, "  ui:        %s (catalogs: %s)\n", i18n.Lang(), strings.Join(i18n.Available(), ", "))
		},
	}
}

// ---------------------------------------------------------------------------
// translate
// ---------------------------------------------------------------------------

type translateArgs struct {
	dir, ledger               string
	exclude                   []string
	parallel, dryRun, verbose bool
	maxConcurrent, maxLength  int
	provider, model, fmModel  string
	apiKey, baseURL, proxy    string
	timeout                   time.Duration
	maxRetries                int
	source                    string
	targets                   []string
}

func newTranslateCmd() *cobra.Command {
	var a translateArgs

	cmd := &cobra.Command{
		Use:   "translate <source> <target>...",
		Short: "Translate Markdown files into target languages",
		Long: `Translate every Markdown file under the input directory.

Each file is split into front matter and body. Configured front matter
fields are translated or mapped to fixed names, the body is cut into
segments at blank lines and each segment is translated separately. Images
and videos are copied unchanged. A file is recorded in the ledger once all
target languages succeeded.

Supported languages: ` + strings.Join(langmeta.Codes(), ", ") + `

Examples:
  # Translate Chinese sources into English and Japanese
  mdtranslate translate zh en ja

  # Translate concurrently with at most 5 items in flight
  mdtranslate translate zh en es ar ja ko --parallel --max-concurrent 5

  # Show what would be translated
  mdtranslate translate zh en --dry-run`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a.source = args[0]
			a.targets = args[1:]
			return runTranslate(cmd.Flags(), a)
		},
	}

	bindTranslateFlags(cmd.Flags(), &a)

	_ = cmd.RegisterFlagCompletionFunc("provider", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		providers := translate.DefaultProviders()
		var out []string
		for _, id := range translate.ProviderIDs() {
			out = append(out, id+"\t"+providers[id].Name)
		}
		return out, cobra.ShellCompDirectiveNoFileComp
	})
	cmd.ValidArgsFunction = func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		var out []string
		for _, code := range langmeta.Codes() {
			out = append(out, code+"\t"+langmeta.Registry[code].Native)
		}
		return out, cobra.ShellCompDirectiveNoFileComp
	}

	return cmd
}

// bindTranslateFlags registers the translate flags on f.
func bindTranslateFlags(f *pflag.FlagSet, a *translateArgs) {
	// Input
	f.StringVar(&a.dir, "dir", "", "Input directory (default from config)")
	f.StringSliceVar(&a.exclude, "exclude", nil, "File names to skip (comma-separated, replaces config list)")
	f.StringVar(&a.ledger, "ledger", "", "Processed-file ledger path")

	// Provider selection
	f.StringVar(&a.provider, "provider", "", "AI provider: "+strings.Join(translate.ProviderIDs(), ", "))
	f.StringVar(&a.model, "model", "", "Model for all content")
	f.StringVar(&a.fmModel, "front-matter-model", "", "Model for front matter fields")
	f.StringVar(&a.apiKey, "api-key", "", "API key (or MDTRANSLATE_API_KEY / CHATGPT_API_KEY)")
	f.StringVar(&a.baseURL, "base-url", "", "Custom API base URL")

	// Behavior
	f.IntVar(&a.maxLength, "max-length", 0, "Maximum body segment length in characters")
	f.BoolVar(&a.dryRun, "dry-run", false, "Show what would be translated without calling AI")
	f.BoolVar(&a.verbose, "verbose", false, "Enable detailed logging")

	// Parallelization
	f.BoolVar(&a.parallel, "parallel", false, "Translate files and languages concurrently")
	f.IntVar(&a.maxConcurrent, "max-concurrent", 0, "Maximum concurrent work items")

	// Network
	f.DurationVar(&a.timeout, "timeout", 0, "Request timeout (0 = provider default)")
	f.StringVar(&a.proxy, "proxy", "", "HTTP/HTTPS proxy URL")
	f.IntVar(&a.maxRetries, "max-retries", 3, "Retries on 429/5xx (0 = fail on first error)")
}

// applyFlags overlays explicitly set flags onto cfg.
func applyFlags(cfg *config.Config, flags *pflag.FlagSet, a translateArgs) {
	set := flags.Changed
	if set("dir") {
		cfg.InputDir = a.dir
	}
	if set("exclude") {
		cfg.Exclude = a.exclude
	}
	if set("ledger") {
		cfg.Ledger = a.ledger
	}
	if set("provider") {
		cfg.Provider = a.provider
	}
	if set("model") {
		cfg.Models.MainBody = a.model
		cfg.Models.FrontMatter = a.model
	}
	if set("front-matter-model") {
		cfg.Models.FrontMatter = a.fmModel
	}
	if set("base-url") {
		cfg.BaseURL = a.baseURL
	}
	if set("max-length") {
		cfg.MaxLength = a.maxLength
	}
	if set("parallel") {
		cfg.Parallel = a.parallel
	}
	if set("max-concurrent") {
		cfg.MaxConcurrent = a.maxConcurrent
	}
	if set("timeout") {
		cfg.Timeout = a.timeout
	}
	if set("proxy") {
		cfg.Proxy = a.proxy
	}
	if set("max-retries") {
		cfg.MaxRetries = a.maxRetries
	}
}

// resolveProvider builds the provider from the config and the credential
// lookup chain: flag, environment, credential store.
func resolveProvider(cfg *config.Config, env *config.Env, flagKey string) (translate.Provider, error) {
	prov, ok := translate.DefaultProviders()[cfg.Provider]
	if !ok {
		return prov, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
	prov.APIKey = settings.ResolveAPIKey(prov.ID, flagKey, env.KeyFor(prov.ID))
	switch {
	case cfg.BaseURL != "":
		prov.BaseURL = cfg.BaseURL
	case settings.GetBaseURL(prov.ID) != "":
		prov.BaseURL = settings.GetBaseURL(prov.ID)
	}
	prov.Proxy = cfg.Proxy
	if cfg.Timeout > 0 {
		prov.Timeout = cfg.Timeout
	}

	if prov.BaseURL == "" {
		return prov, fmt.Errorf("provider %s needs a base URL: use --base-url or 'mdtranslate auth login --provider %s'", prov.ID, prov.ID)
	}
	if prov.APIKey == "" && !prov.NoKey {
		vars := "MDTRANSLATE_API_KEY"
		if v := settings.EnvVarForProvider(prov.ID); v != "" {
			vars += " or " + v
		}
		return prov, fmt.Errorf("no API key for %s: use --api-key, set %s, or run 'mdtranslate auth login --provider %s'", prov.Name, vars, prov.ID)
	}
	return prov, nil
}

func runTranslate(flags *pflag.FlagSet, a translateArgs) error {
	// Reject unknown codes before touching the file system.
	if err := langmeta.Validate([]string{a.source}, nil); err != nil {
		return fmt.Errorf("source language: %w", err)
	}
	if err := langmeta.Validate(a.targets, nil); err != nil {
		return fmt.Errorf("target language: %w", err)
	}

	cfg, env, err := loadConfig()
	if err != nil {
		return err
	}
	applyFlags(cfg, flags, a)
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := cfg.CheckTargets(a.source, a.targets); err != nil {
		return err
	}
	if err := cfg.BodyRegistry().Validate(a.targets); err != nil {
		return err
	}
	if err := cfg.FrontMatterRegistry().Validate(a.targets); err != nil {
		return err
	}
	policies, err := cfg.Policies()
	if err != nil {
		return err
	}

	var tr translate.Translator
	if !a.dryRun {
		prov, err := resolveProvider(cfg, env, a.apiKey)
		if err != nil {
			return err
		}
		gw, err := translate.New(translate.Options{
			Provider:      prov,
			Classes:       cfg.Classes(),
			MaxConcurrent: cfg.MaxConcurrent,
			MaxRetries:    cfg.MaxRetries,
			Timeout:       cfg.Timeout,
			Verbose:       a.verbose,
			OnLog:         logInfo,
		})
		if err != nil {
			return err
		}
		tr = gw
		logInfo(i18n.T("Provider: %s, models: %s (front matter), %s (body)"), prov.Name, cfg.Models.FrontMatter, cfg.Models.MainBody)
	}

	l, err := ledger.Open(cfg.Ledger)
	if err != nil {
		return err
	}

	pipe := pipeline.New(tr, pipeline.Config{
		BodyRules:        cfg.BodyRegistry(),
		FrontMatterRules: cfg.FrontMatterRegistry(),
		Policies:         policies,
		MaxLength:        cfg.MaxLength,
		OutputRoots:      cfg.OutputRoots(a.targets, ""),
		OutputExt:        cfg.OutputExt,
		OnLog:            logInfo,
		Verbose:          a.verbose,
	})

	sched := scheduler.New(pipe, l, scheduler.Options{
		Root:          cfg.InputDir,
		Languages:     a.targets,
		Exclude:       cfg.Exclude,
		AdminPrefixes: cfg.AdminPrefixes,
		Parallel:      cfg.Parallel,
		MaxConcurrent: cfg.MaxConcurrent,
		DryRun:        a.dryRun,
		OnLog: func(format string, args ...any) {
			if a.verbose || a.dryRun {
				logInfo(format, args...)
			}
		},
		OnSuccess: func(task pipeline.Task, out string) {
			logSuccess("%s [%s] -> %s", task.RelPath, task.Lang, out)
		},
		OnError: func(err error) {
			logError("%v", err)
		},
	})

	if cfg.Parallel {
		logInfo(i18n.T("Parallel: enabled, max concurrent: %d"), cfg.MaxConcurrent)
	} else {
		logInfo("%s", i18n.T("Parallel: disabled (sequential)"))
	}
	logInfo(i18n.T("Translating %s -> %s"), a.source, strings.Join(a.targets, ", "))

	ctx, stop := interruptContext(i18n.T("Interrupted, finishing in-flight work..."))
	defer stop()

	sum, err := sched.Run(ctx)
	printSummary(sum, a.dryRun)
	if err != nil {
		if ctx.Err() != nil && scheduler.IsInterrupted(err) {
			logWarning("%s", i18n.T("Translation interrupted, the ledger keeps finished files"))
			return nil
		}
		return fmt.Errorf("translation failed: %w", err)
	}

	if a.dryRun {
		logSuccess("%s", i18n.T("Dry run complete"))
		return nil
	}
	logSuccess("%s", i18n.T("Translation complete"))
	return nil
}

func printSummary(sum scheduler.Summary, dryRun bool) {
	if dryRun {
		logInfo(i18n.N("%d item planned", "%d items planned", sum.Planned), sum.Planned)
		logInfo(i18n.N("%d file skipped", "%d files skipped", sum.Skipped), sum.Skipped)
		return
	}
	logInfo(i18n.T("Translated: %d, copied: %d, skipped files: %d, failed: %d, recorded: %d"),
		sum.Translated, sum.Copied, sum.Skipped, sum.Failed, sum.Committed)
}

// ---------------------------------------------------------------------------
// status
// ---------------------------------------------------------------------------

func newStatusCmd() *cobra.Command {
	var dir, ledgerPath string
	var showAll bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show ledger state and pending files",
		Long: `Compare the input tree with the processed-file ledger.

Lists how many files are recorded, which are still pending and which ledger
entries no longer exist. Does not modify any files.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("dir") {
				cfg.InputDir = dir
			}
			if cmd.Flags().Changed("ledger") {
				cfg.Ledger = ledgerPath
			}
			return runStatus(cmd.OutOrStdout(), cfg, showAll)
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "Input directory (default from config)")
	cmd.Flags().StringVar(&ledgerPath, "ledger", "", "Processed-file ledger path")
	cmd.Flags().BoolVar(&showAll, "all", false, "List every pending file")

	return cmd
}

const statusListLimit = 20

func runStatus(w io.Writer, cfg *config.Config, showAll bool) error {
	candidates, err := scheduler.New(nil, nil, scheduler.Options{
		Root:          cfg.InputDir,
		AdminPrefixes: cfg.AdminPrefixes,
	}).Candidates()
	if err != nil {
		return err
	}

	var sum ledger.Summary
	if _, err := os.Stat(cfg.Ledger); err == nil {
		l, err := ledger.Open(cfg.Ledger)
		if err != nil {
			return err
		}
		if sum, err = l.Summarize(candidates); err != nil {
			return err
		}
	} else if errors.Is(err, os.ErrNotExist) {
		sum.Pending = append(sum.Pending, candidates...)
	} else {
		return fmt.Errorf("reading ledger: %w", err)
	}

	absInput, _ := filepath.Abs(cfg.InputDir)
	absLedger, _ := filepath.Abs(cfg.Ledger)

	fmt.Fprintf(w, "\n%s%s%s\n", colorBlue, i18n.T("Status"), colorReset)
	fmt.Fprintln(w, strings.Repeat("─", 60))
	fmt.Fprintf(w, "  %-10s %s\n", i18n.T("Input:"), absInput)
	fmt.Fprintf(w, "  %-10s %s\n", i18n.T("Ledger:"), absLedger)
	if cfg.Path() != "" {
		fmt.Fprintf(w, "  %-10s %s\n", i18n.T("Config:"), cfg.Path())
	}
	fmt.Fprintf(w, "  %-10s %s\n", i18n.T("Outputs:"), formatOutputs(cfg))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %-10s %d\n", i18n.T("Files:"), len(candidates))
	fmt.Fprintf(w, "  %-10s %s%d%s\n", i18n.T("Done:"), colorGreen, len(sum.Done), colorReset)
	fmt.Fprintf(w, "  %-10s %s%d%s\n", i18n.T("Pending:"), colorYellow, len(sum.Pending), colorReset)

	printList(w, i18n.T("Pending files"), sum.Pending, showAll)
	printList(w, i18n.T("Ledger entries without a source file"), sum.Orphaned, showAll)
	fmt.Fprintln(w)
	return nil
}

func formatOutputs(cfg *config.Config) string {
	var parts []string
	for _, lang := range cfg.Languages() {
		parts = append(parts, lang+"="+cfg.OutputDirs[lang])
	}
	return strings.Join(parts, " ")
}

func printList(w io.Writer, title string, items []string, all bool) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(w, "\n  %s%s%s\n", colorYellow, title, colorReset)
	shown := items
	if !all && len(shown) > statusListLimit {
		shown = shown[:statusListLimit]
	}
	for _, it := range shown {
		fmt.Fprintf(w, "    %s\n", it)
	}
	if rest := len(items) - len(shown); rest > 0 {
		fmt.Fprintf(w, "    "+i18n.N("... and %d more", "... and %d more", rest)+"\n", rest)
	}
}

// ---------------------------------------------------------------------------
// mirror
// ---------------------------------------------------------------------------

func newMirrorCmd() *cobra.Command {
	var parent, token, baseURL string

	cmd := &cobra.Command{
		Use:   "mirror [dir]",
		Short: "Import a translated tree into Notion",
		Long: `Create a Notion page for every directory and Markdown file under dir.

Directories become sub-pages; each Markdown file becomes a page titled with
its file name, holding the raw content as paragraph blocks. The default dir
is the English output directory.

The integration token is taken from --token, NOTION_TOKEN or the credential
store. The parent page from --parent, NOTION_ROOT_PAGE_ID, the config file
or the credential store.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, env, err := loadConfig()
			if err != nil {
				return err
			}
			dir := cfg.OutputDirs["en"]
			if len(args) == 1 {
				dir = args[0]
			}
			if cmd.Flags().Changed("base-url") {
				cfg.Notion.BaseURL = baseURL
			}
			return runMirror(cfg, env, dir, parent, token)
		},
	}

	cmd.Flags().StringVar(&parent, "parent", "", "Parent page ID")
	cmd.Flags().StringVar(&token, "token", "", "Notion integration token")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "Notion API base URL")
	_ = cmd.Flags().MarkHidden("base-url")

	return cmd
}

func runMirror(cfg *config.Config, env *config.Env, dir, parent, token string) error {
	token = settings.ResolveNotionToken(token, env.NotionToken)
	if token == "" {
		return fmt.Errorf("%w: use --token, set NOTION_TOKEN, or run 'mdtranslate auth login --provider notion'", notion.ErrNoToken)
	}
	if parent == "" {
		parent = cfg.Notion.ParentPageID
	}
	if parent == "" {
		if c := settings.GetNotion(); c != nil {
			parent = c.ParentPageID
		}
	}
	parentID, err := notion.FormatPageID(parent)
	if err != nil {
		return fmt.Errorf("%w (set --parent or NOTION_ROOT_PAGE_ID)", err)
	}

	client, err := notion.NewClient(notion.Options{
		Token:      token,
		BaseURL:    cfg.Notion.BaseURL,
		MaxRetries: cfg.MaxRetries,
	})
	if err != nil {
		return err
	}

	ctx, stop := interruptContext(i18n.T("Interrupted, stopping import..."))
	defer stop()

	if err := client.CheckPage(ctx, parentID); err != nil {
		return fmt.Errorf("%w: make sure the integration is added to the page", err)
	}

	logInfo(i18n.T("Importing %s into page %s"), dir, parentID)
	im := &notion.Importer{
		Pages: client,
		OnLog: func(format string, args ...any) {
			logSuccess(format, args...)
		},
	}
	res, err := im.ImportDirectory(ctx, dir, parentID)
	if err != nil {
		if ctx.Err() != nil {
			logWarning("%s", i18n.T("Import interrupted"))
			return nil
		}
		return err
	}
	logSuccess(i18n.T("Import complete: %d folders, %d documents"), res.Folders, res.Documents)
	return nil
}

// ---------------------------------------------------------------------------
// auth
// ---------------------------------------------------------------------------

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage provider and Notion credentials",
		Long: `Manage stored credentials.

API key providers:
  deepseek, openai, google, anthropic, groq, custom-openai

Other:
  notion        Notion integration token for 'mdtranslate mirror'
  ollama        Local server, no auth needed

Credentials are stored in ` + settings.FilePath() + `

Examples:
  mdtranslate auth login                      Interactive provider selection
  mdtranslate auth login --provider deepseek  Store a DeepSeek API key
  mdtranslate auth logout --provider notion   Remove the Notion token
  mdtranslate auth logout                     Remove all credentials
  mdtranslate auth list                       Show stored credentials`,
	}

	cmd.AddCommand(
		newAuthLoginCmd(),
		newAuthLogoutCmd(),
		newAuthListCmd(),
	)

	return cmd
}

// authProviders is the ordered list for the interactive menu.
var authProviders = []struct {
	id      string
	name    string
	helpURL string
}{
	{translate.ProviderDeepSeek, "DeepSeek", "https://platform.deepseek.com/api_keys"},
	{translate.ProviderOpenAI, "OpenAI", "https://platform.openai.com/api-keys"},
	{translate.ProviderGoogle, "Google AI Studio", "https://aistudio.google.com/apikey"},
	{translate.ProviderAnthropic, "Anthropic", "https://console.anthropic.com/settings/keys"},
	{translate.ProviderGroq, "Groq Cloud", "https://console.groq.com/keys"},
	{translate.ProviderCustomOpenAI, "Custom OpenAI", ""},
	{settings.NotionID, "Notion", "https://www.notion.so/my-integrations"},
}

func authProviderIndex(id string) int {
	for i, p := range authProviders {
		if p.id == id {
			return i
		}
	}
	return -1
}

func newAuthLoginCmd() *cobra.Command {
	var provider string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store credentials for a provider",
		RunE: func(cmd *cobra.Command, args []string) error {
			return authLogin(bufio.NewScanner(cmd.InOrStdin()), provider)
		},
	}

	cmd.Flags().StringVar(&provider, "provider", "", "Provider to configure (default: interactive)")
	_ = cmd.RegisterFlagCompletionFunc("provider", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		out := make([]string, 0, len(authProviders))
		for _, p := range authProviders {
			out = append(out, p.id+"\t"+p.name)
		}
		return out, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func prompt(in *bufio.Scanner, label string) (string, error) {
	fmt.Fprintf(logOut, "  %s", label)
	if !in.Scan() {
		if err := in.Err(); err != nil {
			return "", err
		}
		return "", errors.New("no input received")
	}
	return strings.TrimSpace(in.Text()), nil
}

func authLogin(in *bufio.Scanner, providerID string) error {
	if providerID == "" {
		fmt.Fprintf(logOut, "\n%s%s%s\n", colorBlue, i18n.T("Select a provider"), colorReset)
		for i, p := range authProviders {
			fmt.Fprintf(logOut, "  %d) %-14s %s\n", i+1, p.id, p.name)
		}
		choice, err := prompt(in, i18n.T("Number: "))
		if err != nil {
			return err
		}
		n, err := strconv.Atoi(choice)
		if err != nil || n < 1 || n > len(authProviders) {
			return fmt.Errorf("invalid choice %q", choice)
		}
		providerID = authProviders[n-1].id
	}

	idx := authProviderIndex(providerID)
	if idx < 0 {
		return fmt.Errorf("provider %q does not take credentials", providerID)
	}
	p := authProviders[idx]

	fmt.Fprintf(logOut, "\n%s%s%s\n", colorBlue, p.name, colorReset)
	fmt.Fprintln(logOut, strings.Repeat("─", 60))
	if p.helpURL != "" {
		fmt.Fprintf(logOut, "  %s %s%s%s\n\n", i18n.T("Get your key from:"), colorGreen, p.helpURL, colorReset)
	}

	if p.id == settings.NotionID {
		token, err := prompt(in, i18n.T("Integration token: "))
		if err != nil {
			return err
		}
		if token == "" {
			return errors.New("no token provided")
		}
		page, err := prompt(in, i18n.T("Parent page ID (optional): "))
		if err != nil {
			return err
		}
		if page != "" {
			if page, err = notion.FormatPageID(page); err != nil {
				return err
			}
		}
		if err := settings.SetNotion(token, page); err != nil {
			return fmt.Errorf("saving Notion token: %w", err)
		}
		logSuccess(i18n.T("%s credentials saved"), p.name)
		return nil
	}

	var baseURL string
	if p.id == translate.ProviderCustomOpenAI {
		var err error
		if baseURL, err = prompt(in, i18n.T("Base URL: ")); err != nil {
			return err
		}
		if baseURL == "" {
			return errors.New("no base URL provided")
		}
	}

	existing := settings.GetAPIKey(p.id)
	label := i18n.T("API key: ")
	if existing != "" {
		label = fmt.Sprintf(i18n.T("API key (Enter keeps %s): "), settings.MaskKey(existing))
	}
	key, err := prompt(in, label)
	if err != nil {
		return err
	}
	if key == "" {
		if existing == "" {
			return errors.New("no API key provided")
		}
		key = existing
		logInfo("%s", i18n.T("Keeping existing key"))
	}

	if err := settings.SetAPIKey(p.id, key, baseURL); err != nil {
		return fmt.Errorf("saving API key: %w", err)
	}
	logSuccess(i18n.T("%s credentials saved"), p.name)
	return nil
}

func newAuthLogoutCmd() *cobra.Command {
	var provider string

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Remove stored credentials",
		Long: `Remove stored credentials for one or all providers.

If --provider is not specified, all credentials are removed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if provider == "" {
				if err := settings.RemoveAll(); err != nil {
					return err
				}
				logSuccess("%s", i18n.T("All stored credentials removed"))
				return nil
			}
			if authProviderIndex(provider) < 0 {
				return fmt.Errorf("unknown provider %q, run 'mdtranslate auth list' to see providers", provider)
			}
			if err := settings.Remove(provider); err != nil {
				return fmt.Errorf("removing %s credentials: %w", provider, err)
			}
			logSuccess(i18n.T("%s credentials removed"), provider)
			return nil
		},
	}

	cmd.Flags().StringVar(&provider, "provider", "", "Provider to logout (default: all)")

	return cmd
}

func newAuthListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Show stored credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := settings.Load()
			if err != nil {
				return err
			}
			printCredentials(cmd.OutOrStdout(), store)
			return nil
		},
	}
}

func printCredentials(w io.Writer, store settings.Store) {
	fmt.Fprintf(w, "\n%s%s%s\n", colorBlue, i18n.T("Stored Credentials"), colorReset)
	fmt.Fprintln(w, strings.Repeat("─", 60))

	for _, p := range authProviders {
		c := store[p.id]
		if c == nil || c.Key == "" {
			fmt.Fprintf(w, "  %-14s %s%s%s\n", p.id, colorRed, i18n.T("not configured"), colorReset)
			continue
		}
		status := fmt.Sprintf("%s%s%s (%s)", colorGreen, i18n.T("configured"), colorReset, settings.MaskKey(c.Key))
		if c.BaseURL != "" {
			status += fmt.Sprintf("\n  %14s endpoint: %s", "", c.BaseURL)
		}
		if c.ParentPageID != "" {
			status += fmt.Sprintf("\n  %14s parent page: %s", "", c.ParentPageID)
		}
		fmt.Fprintf(w, "  %-14s %s\n", p.id, status)
	}

	fmt.Fprintf(w, "\n  %s%s%s\n", colorYellow, i18n.T("Environment Variables"), colorReset)
	for _, name := range []string{"MDTRANSLATE_API_KEY", "CHATGPT_API_KEY", "NOTION_TOKEN"} {
		if v := os.Getenv(name); v != "" {
			fmt.Fprintf(w, "  %-20s %s%s%s\n", name, colorGreen, settings.MaskKey(v), colorReset)
		} else {
			fmt.Fprintf(w, "  %-20s %s%s%s\n", name, colorRed, i18n.T("not set"), colorReset)
		}
	}
	fmt.Fprintln(w)
}
