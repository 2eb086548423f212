package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"charterdesk/internal/archive"
	"charterdesk/internal/config"
	"charterdesk/internal/domain"
	"charterdesk/internal/draft"
	"charterdesk/internal/engine"
	"charterdesk/internal/proposal"
	"charterdesk/internal/relay"
	"charterdesk/internal/server"
)

var rootCmd = &cobra.Command{
	Use:   "chd",
	Short: "Charterdesk CLI",
	Long: `Charterdesk builds and relays charter proposals.
- Workspace: your .charterdesk directory holding the exchange archive.
- Catalog: the boat list fetched from the configured catalog webhook.
- Session: an editing draft over one catalog snapshot (via chd serve).
- Proposal: the assembled payload relayed to the proposal webhook.
- Archive: every webhook exchange and submitted proposal, view with 'chd log tail'.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		workspace := viper.GetString("workspace")
		if _, err := archive.EnsureWorkspace(workspace); err != nil {
			return err
		}
		return nil
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("CHARTERDESK")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("catalog-url", "", "catalog webhook url (overrides config)")
	rootCmd.PersistentFlags().String("itineraries-url", "", "itineraries webhook url (overrides config)")
	rootCmd.PersistentFlags().String("proposal-url", "", "proposal webhook url (overrides config)")
	rootCmd.PersistentFlags().String("selection-url", "", "selection webhook url (overrides config)")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("catalog-url", rootCmd.PersistentFlags().Lookup("catalog-url"))
	_ = viper.BindPFlag("itineraries-url", rootCmd.PersistentFlags().Lookup("itineraries-url"))
	_ = viper.BindPFlag("proposal-url", rootCmd.PersistentFlags().Lookup("proposal-url"))
	_ = viper.BindPFlag("selection-url", rootCmd.PersistentFlags().Lookup("selection-url"))
}

func registerCommands() {
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(catalogCmd())
	rootCmd.AddCommand(itinerariesCmd())
	rootCmd.AddCommand(selectionCmd())
	rootCmd.AddCommand(proposeCmd())
	rootCmd.AddCommand(proposalsCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(serveCmd())
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadOptional(viper.GetString("workspace"))
	if err != nil {
		return nil, err
	}
	cfg.Overlay(
		viper.GetString("catalog-url"),
		viper.GetString("itineraries-url"),
		viper.GetString("proposal-url"),
		viper.GetString("selection-url"),
	)
	return cfg, nil
}

func withEngine(ctx context.Context, fn func(context.Context, *engine.Engine) error) error {
	workspace := viper.GetString("workspace")
	conn, err := archive.Open(archive.Config{Workspace: workspace})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := archive.Migrate(conn); err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	e := engine.New(cfg, conn)
	return fn(ctx, e)
}

func configCmd() *cobra.Command {
	cfg := &cobra.Command{
		Use:   "config",
		Short: "Inspect workspace config",
		Long:  "Config lives in charterdesk.yml: webhook urls for catalog, itineraries, proposal and selection, plus per-language final-notes overrides.",
	}
	cfg.AddCommand(configInitCmd())
	cfg.AddCommand(configShowCmd())
	cfg.AddCommand(configValidateCmd())
	return cfg
}

func configInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default charterdesk.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.Path(viper.GetString("workspace"))
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}
			if err := os.WriteFile(path, []byte(config.GenerateDefault()), 0o644); err != nil {
				return err
			}
			fmt.Println("wrote", path)
			return nil
		},
	}
	return cmd
}

func configShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show effective config",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return printJSONOrTable(cfg)
		},
	}
	return cmd
}

func configValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate workspace config",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(viper.GetString("workspace"))
			if err == nil {
				err = cfg.Validate()
			}
			if viper.GetBool("json") {
				return printJSON(map[string]any{"ok": err == nil, "error": fmt.Sprint(err)})
			}
			if err != nil {
				return err
			}
			fmt.Println("config OK")
			return nil
		},
	}
	return cmd
}

func catalogCmd() *cobra.Command {
	cat := &cobra.Command{Use: "catalog", Short: "Catalog operations"}
	cat.AddCommand(catalogListCmd())
	return cat
}

func catalogListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Fetch and list the current catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
				items, err := e.Catalog.FetchCatalog(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Name", "Model", "Base", "Country", "Rating"})
				for _, it := range items {
					tw.AppendRow(table.Row{it.ID, deref(it.Name), deref(it.Model), deref(it.Base), deref(it.Country), derefFloat(it.Rating)})
				}
				tw.Render()
				return nil
			})
		},
	}
	return cmd
}

func itinerariesCmd() *cobra.Command {
	itn := &cobra.Command{Use: "itineraries", Short: "Itinerary operations"}
	itn.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Fetch and list itineraries",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
				items, err := e.Catalog.FetchItineraries(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Title"})
				for _, it := range items {
					tw.AppendRow(table.Row{it.ID, it.Title})
				}
				tw.Render()
				return nil
			})
		},
	})
	return itn
}

func selectionCmd() *cobra.Command {
	sel := &cobra.Command{Use: "selection", Short: "Selection notifications"}
	sel.AddCommand(selectionSendCmd())
	return sel
}

func selectionSendCmd() *cobra.Command {
	var ids []string
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Relay selected boat ids to the selection webhook",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(ids) == 0 {
				return fmt.Errorf("--ids required")
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
				result := e.ForwardSelection(ctx, ids)
				return reportRelay(result)
			})
		},
	}
	cmd.Flags().StringSliceVar(&ids, "ids", nil, "boat ids (comma separated)")
	return cmd
}

// proposalFile is the YAML shape accepted by 'chd propose --file'.
type proposalFile struct {
	Language string `yaml:"language"`
	Currency string `yaml:"currency"`
	Message  string `yaml:"message"`
	Client   struct {
		Name  string `yaml:"name"`
		Email string `yaml:"email"`
	} `yaml:"client"`
	FinalNotes *string `yaml:"final_notes"`
	Boats      []struct {
		ID    string `yaml:"id"`
		Price string `yaml:"price"`
		Note  string `yaml:"note"`
	} `yaml:"boats"`
	Itineraries []string `yaml:"itineraries"`
}

func proposeCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "propose",
		Short: "Assemble a proposal from a YAML draft and relay it",
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				return fmt.Errorf("--file required")
			}
			data, err := os.ReadFile(file)
			if err != nil {
				return err
			}
			var pf proposalFile
			if err := yaml.Unmarshal(data, &pf); err != nil {
				return fmt.Errorf("parse %s: %w", file, err)
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
				d, err := draftFromFile(pf, e.Config)
				if err != nil {
					return err
				}
				if err := proposal.Validate(d); err != nil {
					return err
				}
				payload := proposal.Assemble(d, e.Config.Source, relay.NewCorrelationID, time.Now())
				result := e.ForwardProposal(ctx, payload)
				return reportRelay(result)
			})
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "YAML draft file")
	return cmd
}

// draftFromFile replays the file's fields as draft transitions so the relayed
// payload goes through the same assembly path as an interactive session.
func draftFromFile(pf proposalFile, cfg *config.Config) (draft.Draft, error) {
	items := make([]domain.CatalogItem, len(pf.Boats))
	for i, b := range pf.Boats {
		if strings.TrimSpace(b.ID) == "" {
			return draft.Draft{}, fmt.Errorf("boat %d: id is required", i)
		}
		items[i] = domain.CatalogItem{ID: b.ID}
	}
	d := draft.New(items, draft.DefaultNotes(cfg.FinalNotes))
	if pf.Language != "" {
		if !config.SupportedLanguage(pf.Language) {
			return draft.Draft{}, fmt.Errorf("unsupported language %q", pf.Language)
		}
		d = d.SetLanguage(pf.Language)
	}
	if pf.Currency != "" {
		d = d.SetCurrency(pf.Currency)
	}
	d = d.SetBrokerMessage(pf.Message)
	d = d.SetClient(pf.Client.Name, pf.Client.Email)
	if pf.FinalNotes != nil {
		d = d.EditFinalNotes(*pf.FinalNotes)
	}
	d = d.SelectAll()
	for _, b := range pf.Boats {
		d = d.SetPrice(b.ID, b.Price)
		if b.Note != "" {
			d = d.SetNote(b.ID, b.Note)
		}
	}
	for _, id := range pf.Itineraries {
		d = d.ToggleItinerary(id)
	}
	return d, nil
}

func proposalsCmd() *cobra.Command {
	prp := &cobra.Command{Use: "proposals", Short: "Archived proposals"}
	prp.AddCommand(proposalsListCmd())
	prp.AddCommand(proposalsShowCmd())
	return prp
}

func proposalsListCmd() *cobra.Command {
	var n int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List archived proposal submissions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
				recs, err := e.Archive.ListProposals(ctx, n)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(recs)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Proposal", "Language", "Currency", "Boats", "Status", "OK", "Created"})
				for _, r := range recs {
					tw.AppendRow(table.Row{r.ProposalID, r.Language, r.Currency, r.BoatCount, r.UpstreamStatus, r.Ok, r.CreatedAt})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&n, "n", 20, "number of proposals")
	return cmd
}

func proposalsShowCmd() *cobra.Command {
	var id string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show one archived proposal with its payload",
		RunE: func(cmd *cobra.Command, args []string) error {
			if id == "" {
				return fmt.Errorf("--id required")
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
				rec, err := e.Archive.GetProposal(ctx, id)
				if errors.Is(err, archive.ErrNotFound) {
					return fmt.Errorf("proposal %s not found", id)
				}
				if err != nil {
					return err
				}
				return printJSON(rec)
			})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "proposal id")
	return cmd
}

func logCmd() *cobra.Command {
	lg := &cobra.Command{
		Use:   "log",
		Short: "Exchange archive",
		Long:  "Every webhook call is archived with its correlation id, status and body excerpt.",
	}
	lg.AddCommand(logTailCmd())
	return lg
}

func logTailCmd() *cobra.Command {
	var n int
	var kind string
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Tail archived exchanges",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
				exchanges, err := e.Archive.LatestExchanges(ctx, n, kind)
				if err != nil {
					return err
				}
				return printJSONOrTable(exchanges)
			})
		},
	}
	cmd.Flags().IntVar(&n, "n", 20, "number of exchanges")
	cmd.Flags().StringVar(&kind, "kind", "", "exchange kind filter (catalog|itineraries|proposal|selection)")
	return cmd
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			conn, err := archive.Open(archive.Config{Workspace: workspace})
			if err != nil {
				return err
			}
			defer conn.Close()
			if err := archive.Migrate(conn); err != nil {
				return err
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			e := engine.New(cfg, conn)
			handler, err := server.New(server.Config{Engine: e, BasePath: basePath})
			if err != nil {
				return err
			}
			srv := &http.Server{Addr: addr, Handler: handler}
			go func() {
				<-cmd.Context().Done()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(ctx)
			}()
			fmt.Printf("Serving Charterdesk API on http://%s%s (OpenAPI at /openapi.json, Swagger UI at /docs)\n", addr, basePath)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	cmd.Flags().StringVar(&basePath, "base-path", "/v1", "API base path")
	return cmd
}

func reportRelay(result domain.RelayResult) error {
	if err := printJSON(result); err != nil {
		return err
	}
	if !result.Ok {
		return fmt.Errorf("upstream returned %d", result.UpstreamStatus)
	}
	return nil
}

func printJSONOrTable(v any) error {
	if viper.GetBool("json") {
		return printJSON(v)
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return fmt.Sprintf("%.1f", *f)
}
